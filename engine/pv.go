package engine

import (
	"strings"

	"github.com/dylhunn/dragontoothmg"
	"github.com/samber/lo"
)

// PVLine is the principal variation below a node.
type PVLine struct {
	Moves []dragontoothmg.Move
}

// Update the principal variation with a new best move, and a new line of best
// continuation moves.
func (pv *PVLine) Update(move dragontoothmg.Move, child PVLine) {
	pv.Clear()
	pv.Moves = append(pv.Moves, move)
	pv.Moves = append(pv.Moves, child.Moves...)
}

func (pv *PVLine) Clear() {
	pv.Moves = pv.Moves[:0]
}

func (pv PVLine) Clone() PVLine {
	return PVLine{Moves: append([]dragontoothmg.Move(nil), pv.Moves...)}
}

// GetPVMove returns the first move of the line, or the zero move.
func (pv PVLine) GetPVMove() dragontoothmg.Move {
	if len(pv.Moves) == 0 {
		return 0
	}
	return pv.Moves[0]
}

func (pv PVLine) String() string {
	return MovesString(pv.Moves)
}

// MovesString renders moves in UCI notation separated by spaces.
func MovesString(moves []dragontoothmg.Move) string {
	return strings.Join(lo.Map(moves, func(m dragontoothmg.Move, _ int) string {
		return m.String()
	}), " ")
}
