package engine

import "fmt"

// MateIn converts a mate score into moves to mate, negative when the side to
// move is the one getting mated. ok is false for ordinary scores.
func MateIn(score int32) (moves int, ok bool) {
	if abs32(score) <= Checkmate {
		return 0, false
	}
	pliesToMate := int(MaxScore - abs32(score))
	moves = (pliesToMate + 1) / 2
	if score < 0 {
		moves = -moves
	}
	return moves, true
}

// ScoreString formats a score the way UCI "info" lines expect it.
func ScoreString(score int32) string {
	if n, ok := MateIn(score); ok {
		return fmt.Sprintf("mate %d", n)
	}
	return fmt.Sprintf("cp %d", score)
}
