//go:build !enginedebug

package engine

import "github.com/rs/zerolog/log"

// assertf logs a broken invariant; callers recover by skipping the offending
// data. Build with -tags enginedebug to panic instead.
func assertf(cond bool, format string, args ...any) bool {
	if !cond {
		log.Warn().Msgf("engine invariant violated: "+format, args...)
	}
	return cond
}
