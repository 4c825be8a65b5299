package engine

import "github.com/dylhunn/dragontoothmg"

const fiftyMoveLimit = 100

// State captures the information we need to reason about repetitions and draws.
type State struct {
	Hash   uint64
	Rule50 int
}

// PositionHistory holds the hashes of the real game followed by the current
// search path. Entries at or above rootIndex belong to the search.
type PositionHistory struct {
	states    []State
	rootIndex int
}

// NewPositionHistory returns an empty history with room for capacity states.
func NewPositionHistory(capacity int) *PositionHistory {
	return &PositionHistory{states: make([]State, 0, capacity)}
}

func stateOf(b *dragontoothmg.Board) State {
	return State{Hash: b.Hash(), Rule50: int(b.Halfmoveclock)}
}

// Reset drops every recorded state.
func (h *PositionHistory) Reset() {
	h.states = h.states[:0]
	h.rootIndex = 0
}

// SetGame replaces the history with the given game line. The last state is
// the current position and becomes the search root.
func (h *PositionHistory) SetGame(states []State) {
	h.states = append(h.states[:0], states...)
	h.MarkRoot()
}

// MarkRoot makes the current top of the stack the search root.
func (h *PositionHistory) MarkRoot() {
	h.rootIndex = Max(len(h.states)-1, 0)
}

// Push records a position entered by the search.
func (h *PositionHistory) Push(hash uint64, rule50 int) {
	h.states = append(h.states, State{Hash: hash, Rule50: rule50})
}

// Pop removes the most recent position. Popping an empty history is a no-op.
func (h *PositionHistory) Pop() {
	if len(h.states) == 0 {
		return
	}
	h.states = h.states[:len(h.states)-1]
}

// Len is the number of recorded positions, game and search path together.
func (h *PositionHistory) Len() int {
	return len(h.states)
}

// Top returns the current position's state.
func (h *PositionHistory) Top() (State, bool) {
	if len(h.states) == 0 {
		return State{}, false
	}
	return h.states[len(h.states)-1], true
}

// Occurrences counts how often hash appears anywhere in the history.
func (h *PositionHistory) Occurrences(hash uint64) int {
	count := 0
	for i := range h.states {
		if h.states[i].Hash == hash {
			count++
		}
	}
	return count
}

// IsRepetitionDraw reports whether the current position is a third occurrence,
// or a second occurrence that happened inside the search path.
func (h *PositionHistory) IsRepetitionDraw() bool {
	if len(h.states) <= 1 {
		return false
	}
	curr := h.states[len(h.states)-1]

	// Nothing before the last irreversible move can repeat.
	start := Max(len(h.states)-1-curr.Rule50, 0)
	count, last := 0, -1
	for i := start; i <= len(h.states)-2; i++ {
		if h.states[i].Hash == curr.Hash {
			count++
			last = i
		}
	}
	if count >= 2 {
		return true
	}
	return count == 1 && last >= h.rootIndex
}

// IsFiftyMoveDraw reports whether the halfmove clock of the current position
// has reached the fifty move limit.
func (h *PositionHistory) IsFiftyMoveDraw() bool {
	top, ok := h.Top()
	return ok && top.Rule50 >= fiftyMoveLimit
}
