package engine

import (
	"github.com/dylhunn/dragontoothmg"
)

// KillerStruct keeps two quiet moves per ply that recently caused a beta cutoff.
type KillerStruct struct {
	KillerMoves [MaxDepth + 1][2]dragontoothmg.Move
}

func (k *KillerStruct) InsertKiller(move dragontoothmg.Move, ply int) {
	if ply > MaxDepth {
		return
	}
	if move != k.KillerMoves[ply][0] {
		k.KillerMoves[ply][1] = k.KillerMoves[ply][0]
		k.KillerMoves[ply][0] = move
	}
}

func (k *KillerStruct) IsKiller(move dragontoothmg.Move, ply int) (slot int, ok bool) {
	if ply > MaxDepth || move == 0 {
		return 0, false
	}
	for i, m := range k.KillerMoves[ply] {
		if m == move {
			return i, true
		}
	}
	return 0, false
}

// Clear the killer moves table.
func (k *KillerStruct) ClearKillers() {
	for ply := range k.KillerMoves {
		k.KillerMoves[ply] = [2]dragontoothmg.Move{}
	}
}
