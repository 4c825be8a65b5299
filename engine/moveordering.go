package engine

import (
	"cmp"

	"github.com/dylhunn/dragontoothmg"
	"golang.org/x/exp/slices"
)

type scoredMove struct {
	move  dragontoothmg.Move
	tier  int8
	score int32
}

// Move ordering tiers, highest first:
// - the transposition table / principal variation move
// - at the root, moves scored by the previous iteration
// - promotions and captures, MVV-LVA inside the tier
// - killer moves
// - everything else, in generation order
// Ordering only changes how much gets pruned, never the score.
const (
	tierQuiet int8 = iota
	tierKiller
	tierTactical
	tierPrevIteration
	tierHashMove
)

// Most Valuable Victim - Least Valuable Aggressor; used to score & sort captures
var mvvLva = [7][7]int32{
	{0, 0, 0, 0, 0, 0, 0},
	{0, 14, 13, 12, 11, 10, 0}, // victim Pawn
	{0, 24, 23, 22, 21, 20, 0}, // victim Knight
	{0, 34, 33, 32, 31, 30, 0}, // victim Bishop
	{0, 44, 43, 42, 41, 40, 0}, // victim Rook
	{0, 54, 53, 52, 51, 50, 0}, // victim Queen
	{0, 0, 0, 0, 0, 0, 0},      // victim King
}

// GetPieceTypeAtPosition returns what piece, if any, stands on a square.
func GetPieceTypeAtPosition(position uint8, bitboards *dragontoothmg.Bitboards) (pieceType dragontoothmg.Piece, occupied bool) {
	bb := PositionBB[position]
	switch {
	case bitboards.Pawns&bb != 0:
		return dragontoothmg.Pawn, true
	case bitboards.Knights&bb != 0:
		return dragontoothmg.Knight, true
	case bitboards.Bishops&bb != 0:
		return dragontoothmg.Bishop, true
	case bitboards.Rooks&bb != 0:
		return dragontoothmg.Rook, true
	case bitboards.Queens&bb != 0:
		return dragontoothmg.Queen, true
	case bitboards.Kings&bb != 0:
		return dragontoothmg.King, true
	}
	return dragontoothmg.Nothing, false
}

func sides(b *dragontoothmg.Board) (own, opp *dragontoothmg.Bitboards) {
	if b.Wtomove {
		return &b.White, &b.Black
	}
	return &b.Black, &b.White
}

// isCapture also recognises en passant, where the destination square is empty.
func isCapture(b *dragontoothmg.Board, move dragontoothmg.Move) bool {
	if dragontoothmg.IsCapture(move, b) {
		return true
	}
	return isEnPassant(b, move)
}

func isEnPassant(b *dragontoothmg.Board, move dragontoothmg.Move) bool {
	own, _ := sides(b)
	from, to := move.From(), move.To()
	if own.Pawns&PositionBB[from] == 0 {
		return false
	}
	return from%8 != to%8 && (b.White.All|b.Black.All)&PositionBB[to] == 0
}

func isTactical(b *dragontoothmg.Board, move dragontoothmg.Move) bool {
	return move.Promote() != dragontoothmg.Nothing || isCapture(b, move)
}

// tacticalScore orders promotions by the promoted piece, then captures by MVV-LVA.
func tacticalScore(b *dragontoothmg.Board, move dragontoothmg.Move) int32 {
	own, opp := sides(b)
	var score int32
	if promote := move.Promote(); promote != dragontoothmg.Nothing {
		score += PieceValue[promote]
	}
	victim, captured := GetPieceTypeAtPosition(move.To(), opp)
	if !captured && isEnPassant(b, move) {
		victim, captured = dragontoothmg.Pawn, true
	}
	if captured {
		attacker, _ := GetPieceTypeAtPosition(move.From(), own)
		score += mvvLva[victim][attacker]
	}
	return score
}

func sortScoredMoves(list []scoredMove) {
	slices.SortStableFunc(list, func(a, b scoredMove) int {
		if a.tier != b.tier {
			return cmp.Compare(b.tier, a.tier)
		}
		return cmp.Compare(b.score, a.score)
	})
}

// scoreMovesList orders moves for an interior node.
func scoreMovesList(b *dragontoothmg.Board, moves []dragontoothmg.Move, hashMove dragontoothmg.Move, killers *KillerStruct, ply int) []scoredMove {
	list := make([]scoredMove, len(moves))
	for i, move := range moves {
		list[i].move = move
		switch {
		case move == hashMove && hashMove != 0:
			list[i].tier = tierHashMove
		case isTactical(b, move):
			list[i].tier = tierTactical
			list[i].score = tacticalScore(b, move)
		default:
			if slot, ok := killers.IsKiller(move, ply); ok {
				list[i].tier = tierKiller
				list[i].score = int32(2 - slot)
			}
		}
	}
	sortScoredMoves(list)
	return list
}

// RootMove carries a root move's score from one iteration into the next.
type RootMove struct {
	Move  dragontoothmg.Move
	Score int32
	// Scored is false until an iteration has completed with this move searched.
	Scored bool
}

// orderRootMoves sorts the root moves in place.
func orderRootMoves(b *dragontoothmg.Board, root []RootMove, hashMove dragontoothmg.Move) {
	list := make([]scoredMove, len(root))
	byMove := make(map[dragontoothmg.Move]RootMove, len(root))
	for i, rm := range root {
		byMove[rm.Move] = rm
		list[i].move = rm.Move
		switch {
		case rm.Move == hashMove && hashMove != 0:
			list[i].tier = tierHashMove
		case rm.Scored:
			list[i].tier = tierPrevIteration
			list[i].score = rm.Score
		case isTactical(b, rm.Move):
			list[i].tier = tierTactical
			list[i].score = tacticalScore(b, rm.Move)
		}
	}
	sortScoredMoves(list)
	for i := range list {
		root[i] = byMove[list[i].move]
	}
}
