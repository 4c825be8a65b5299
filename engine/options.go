package engine

import (
	"time"

	"lukechampine.com/frand"
)

// MaxDepth bounds both the iterative deepening loop and the search ply.
const MaxDepth = 64

// Picker is the random source used to choose among book moves.
type Picker interface {
	Intn(n int) int
}

// Options configures an Engine. Start from DefaultOptions.
type Options struct {
	HashMB        int
	ReplacePolicy ReplacePolicy

	QuiescenceDepth int
	RecaptureOnly   bool

	// Half-width of the aspiration window around the previous iteration's
	// score; 0 searches every iteration with the full window.
	AspirationWindow int32
	MaxDepth         int

	// Deadline, node limit and cancellation are polled once per this many nodes.
	NodeCheckInterval uint64

	Time TimeOptions

	Rand   Picker
	OnInfo func(Info)
}

// TimeOptions are the knobs of the time manager.
type TimeOptions struct {
	Overhead               time.Duration // reserved for I/O and controller latency
	MinMoveTime            time.Duration
	MaxFraction            float64 // never plan to use more than this share of the clock
	IncrementFraction      float64
	PanicThreshold         time.Duration
	PanicIncrementFraction float64
	DefaultMovesToGo       int     // used with a sudden death clock when no phase estimate applies
	SoftFraction           float64 // no new iteration after this share of the budget
	BranchingFactor        float64 // estimated growth of one iteration over the last
}

func DefaultTimeOptions() TimeOptions {
	return TimeOptions{
		Overhead:               30 * time.Millisecond,
		MinMoveTime:            5 * time.Millisecond,
		MaxFraction:            0.7,
		IncrementFraction:      0.8,
		PanicThreshold:         time.Second,
		PanicIncrementFraction: 0.9,
		DefaultMovesToGo:       40,
		SoftFraction:           0.5,
		BranchingFactor:        3,
	}
}

func DefaultOptions() Options {
	return Options{
		HashMB:            64,
		ReplacePolicy:     ReplaceDepthPreferred,
		QuiescenceDepth:   8,
		AspirationWindow:  35,
		MaxDepth:          MaxDepth,
		NodeCheckInterval: 2048,
		Time:              DefaultTimeOptions(),
		Rand:              frand.New(),
	}
}

func (o *Options) normalize() {
	if o.MaxDepth <= 0 || o.MaxDepth > MaxDepth {
		o.MaxDepth = MaxDepth
	}
	if o.QuiescenceDepth < 0 {
		o.QuiescenceDepth = 0
	}
	if o.NodeCheckInterval == 0 {
		o.NodeCheckInterval = 2048
	}
	if o.Rand == nil {
		o.Rand = frand.New()
	}
	if o.Time == (TimeOptions{}) {
		o.Time = DefaultTimeOptions()
	}
}
