//go:build enginedebug

package engine

import "fmt"

func assertf(cond bool, format string, args ...any) bool {
	if !cond {
		panic(fmt.Sprintf("engine invariant violated: "+format, args...))
	}
	return cond
}
