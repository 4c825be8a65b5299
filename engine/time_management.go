package engine

import (
	"math/bits"
	"time"

	"github.com/dylhunn/dragontoothmg"
)

// Limits are the constraints for one ChooseMove call, as sent by a UCI "go".
type Limits struct {
	Remaining time.Duration // our clock
	Increment time.Duration
	MoveTime  time.Duration // fixed time for this move, overrides the clock
	MovesToGo int
	Depth     int
	Nodes     uint64
	Infinite  bool
}

func (l Limits) timed() bool {
	return !l.Infinite && (l.MoveTime > 0 || l.Remaining > 0)
}

// TimeBudget is the time the driver may spend on a move. A search that has
// passed Soft does not start another iteration; Hard aborts the recursion.
// Without Limited there is no deadline at all.
type TimeBudget struct {
	Soft, Hard time.Duration
	Limited    bool
}

// GetPiecePhase returns 24 with all minor and major pieces on the board,
// down to 0 with bare kings and pawns.
func GetPiecePhase(b *dragontoothmg.Board) int {
	minors := bits.OnesCount64(b.White.Knights | b.White.Bishops | b.Black.Knights | b.Black.Bishops)
	rooks := bits.OnesCount64(b.White.Rooks | b.Black.Rooks)
	queens := bits.OnesCount64(b.White.Queens | b.Black.Queens)
	return Min(minors+2*rooks+4*queens, 24)
}

func estimateMovesRemaining(phase int) int {
	// Linearly interpolate between 20 (endgame) and 45 (opening/midgame)
	return (phase*25)/24 + 20
}

// ComputeBudget decides how long to think about the position b.
func ComputeBudget(limits Limits, opts TimeOptions, b *dragontoothmg.Board) TimeBudget {
	if !limits.timed() {
		return TimeBudget{}
	}

	if limits.MoveTime > 0 {
		hard := Max(limits.MoveTime-opts.Overhead, opts.MinMoveTime)
		hard = Min(hard, limits.MoveTime)
		return TimeBudget{Soft: hard, Hard: hard, Limited: true}
	}

	rem := limits.Remaining
	inc := limits.Increment

	var movesLeft int
	switch {
	case limits.MovesToGo > 0:
		movesLeft = limits.MovesToGo
	case inc > 0:
		movesLeft = estimateMovesRemaining(GetPiecePhase(b))
	default:
		movesLeft = opts.DefaultMovesToGo
	}
	movesLeft = Max(movesLeft, 1)

	var moveTime time.Duration
	if inc > 0 && rem < opts.PanicThreshold {
		// Low on time: live off the increment
		moveTime = time.Duration(float64(inc) * opts.PanicIncrementFraction)
	} else {
		moveTime = rem/time.Duration(movesLeft) + time.Duration(float64(inc)*opts.IncrementFraction)
	}

	// Apply overhead and clamps
	moveTime = Max(moveTime, opts.MinMoveTime)
	moveTime = Min(moveTime, time.Duration(float64(rem)*opts.MaxFraction))
	moveTime = Min(moveTime, rem-opts.Overhead)
	moveTime = Max(moveTime, opts.MinMoveTime)

	// Whatever happened above, never plan to flag.
	if moveTime >= rem {
		moveTime = rem / 2
	}
	if moveTime <= 0 {
		moveTime = time.Millisecond
	}

	soft := time.Duration(float64(moveTime) * opts.SoftFraction)
	return TimeBudget{Soft: soft, Hard: moveTime, Limited: true}
}

// shouldStartIteration reports whether another iteration is expected to
// finish inside the budget.
func (tb TimeBudget) shouldStartIteration(elapsed, lastIteration time.Duration, branching float64) bool {
	if !tb.Limited {
		return true
	}
	if elapsed >= tb.Soft {
		return false
	}
	return elapsed+time.Duration(float64(lastIteration)*branching) <= tb.Hard
}
