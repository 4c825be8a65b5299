package engine

import (
	"math"
	"math/bits"

	"github.com/dylhunn/dragontoothmg"
)

// Material values in centipawns, indexed by dragontoothmg piece type.
var PieceValue = [7]int32{
	dragontoothmg.Pawn:   100,
	dragontoothmg.Knight: 320,
	dragontoothmg.Bishop: 330,
	dragontoothmg.Rook:   500,
	dragontoothmg.Queen:  900,
}

const (
	// Both sides below this much material (king excluded) selects the endgame king table.
	EndgameMaterialThreshold int32 = 2000

	// Mobility bonus used when only one side has any influence; round(10 * ln 10).
	MobilityFallback int32 = 23
)

// FlipView mirrors a square vertically so Black can read White's tables.
var FlipView = [64]int{
	56, 57, 58, 59, 60, 61, 62, 63,
	48, 49, 50, 51, 52, 53, 54, 55,
	40, 41, 42, 43, 44, 45, 46, 47,
	32, 33, 34, 35, 36, 37, 38, 39,
	24, 25, 26, 27, 28, 29, 30, 31,
	16, 17, 18, 19, 20, 21, 22, 23,
	8, 9, 10, 11, 12, 13, 14, 15,
	0, 1, 2, 3, 4, 5, 6, 7,
}

// Piece-square tables from White's side, a1 = 0, first row is rank 1.
var PSQT = [7][64]int32{
	dragontoothmg.Pawn: {
		0, 0, 0, 0, 0, 0, 0, 0,
		5, 10, 10, -20, -20, 10, 10, 5,
		5, -5, -10, 0, 0, -10, -5, 5,
		0, 0, 0, 20, 20, 0, 0, 0,
		5, 5, 10, 25, 25, 10, 5, 5,
		10, 10, 20, 30, 30, 20, 10, 10,
		50, 50, 50, 50, 50, 50, 50, 50,
		0, 0, 0, 0, 0, 0, 0, 0,
	},
	dragontoothmg.Knight: {
		-50, -40, -30, -30, -30, -30, -40, -50,
		-40, -20, 0, 5, 5, 0, -20, -40,
		-30, 5, 10, 15, 15, 10, 5, -30,
		-30, 0, 15, 20, 20, 15, 0, -30,
		-30, 5, 15, 20, 20, 15, 5, -30,
		-30, 0, 10, 15, 15, 10, 0, -30,
		-40, -20, 0, 0, 0, 0, -20, -40,
		-50, -40, -30, -30, -30, -30, -40, -50,
	},
	dragontoothmg.Bishop: {
		-20, -10, -10, -10, -10, -10, -10, -20,
		-10, 5, 0, 0, 0, 0, 5, -10,
		-10, 10, 10, 10, 10, 10, 10, -10,
		-10, 0, 10, 10, 10, 10, 0, -10,
		-10, 5, 5, 10, 10, 5, 5, -10,
		-10, 0, 5, 10, 10, 5, 0, -10,
		-10, 0, 0, 0, 0, 0, 0, -10,
		-20, -10, -10, -10, -10, -10, -10, -20,
	},
	dragontoothmg.Rook: {
		0, 0, 0, 5, 5, 0, 0, 0,
		-5, 0, 0, 0, 0, 0, 0, -5,
		-5, 0, 0, 0, 0, 0, 0, -5,
		-5, 0, 0, 0, 0, 0, 0, -5,
		-5, 0, 0, 0, 0, 0, 0, -5,
		-5, 0, 0, 0, 0, 0, 0, -5,
		5, 10, 10, 10, 10, 10, 10, 5,
		0, 0, 0, 0, 0, 0, 0, 0,
	},
	dragontoothmg.Queen: {
		-20, -10, -10, -5, -5, -10, -10, -20,
		-10, 0, 5, 0, 0, 0, 0, -10,
		-10, 5, 5, 5, 5, 5, 0, -10,
		0, 0, 5, 5, 5, 5, 0, -5,
		-5, 0, 5, 5, 5, 5, 0, -5,
		-10, 0, 5, 5, 5, 5, 0, -10,
		-10, 0, 0, 0, 0, 0, 0, -10,
		-20, -10, -10, -5, -5, -10, -10, -20,
	},
}

var KingPSQT_MG = [64]int32{
	20, 30, 10, 0, 0, 10, 30, 20,
	20, 20, 0, 0, 0, 0, 20, 20,
	-10, -20, -20, -20, -20, -20, -20, -10,
	-20, -30, -30, -40, -40, -30, -30, -20,
	-30, -40, -40, -50, -50, -40, -40, -30,
	-30, -40, -40, -50, -50, -40, -40, -30,
	-30, -40, -40, -50, -50, -40, -40, -30,
	-30, -40, -40, -50, -50, -40, -40, -30,
}

var KingPSQT_EG = [64]int32{
	-50, -30, -30, -30, -30, -30, -30, -50,
	-30, -30, 0, 0, 0, 0, -30, -30,
	-30, -10, 20, 30, 30, 20, -10, -30,
	-30, -10, 30, 40, 40, 30, -10, -30,
	-30, -10, 30, 40, 40, 30, -10, -30,
	-30, -10, 20, 30, 30, 20, -10, -30,
	-30, -20, -10, 0, 0, -10, -20, -30,
	-50, -40, -30, -20, -20, -30, -40, -50,
}

// King safety weights (middlegame only)
const (
	kingFileNoPawnPenalty int32  = 15
	kingFileOpenPenalty   int32  = 10
	kingShieldNearBonus   int32  = 10
	kingShieldFarBonus    int32  = 5
	kingZoneMinorPenalty  int32  = 10
	kingZoneRookPenalty   int32  = 15
	kingZoneQueenPenalty  int32  = 25
	mobilityLogScale             = 10.0
	fileA                 uint64 = 0x0101010101010101
)

// Evaluate scores the position from the side to move's point of view.
func Evaluate(b *dragontoothmg.Board) int32 {
	score := EvaluateWhite(b)
	if b.Wtomove {
		return score
	}
	return -score
}

// EvaluateWhite scores the position from White's point of view. Swapping colors
// negates the result.
func EvaluateWhite(b *dragontoothmg.Board) int32 {
	wMaterial := materialOf(&b.White)
	bMaterial := materialOf(&b.Black)
	endgame := isEndgame(wMaterial, bMaterial)

	score := wMaterial - bMaterial
	score += pieceSquareScore(&b.White, false, endgame) - pieceSquareScore(&b.Black, true, endgame)

	if !endgame {
		score += kingSafety(b, true) - kingSafety(b, false)
	}

	occupied := b.White.All | b.Black.All
	score += mobilityBonus(influence(&b.White, occupied, true), influence(&b.Black, occupied, false))
	return score
}

func isEndgame(wMaterial, bMaterial int32) bool {
	return wMaterial < EndgameMaterialThreshold && bMaterial < EndgameMaterialThreshold
}

func materialOf(bb *dragontoothmg.Bitboards) int32 {
	return int32(bits.OnesCount64(bb.Pawns))*PieceValue[dragontoothmg.Pawn] +
		int32(bits.OnesCount64(bb.Knights))*PieceValue[dragontoothmg.Knight] +
		int32(bits.OnesCount64(bb.Bishops))*PieceValue[dragontoothmg.Bishop] +
		int32(bits.OnesCount64(bb.Rooks))*PieceValue[dragontoothmg.Rook] +
		int32(bits.OnesCount64(bb.Queens))*PieceValue[dragontoothmg.Queen]
}

func pieceSquareScore(bb *dragontoothmg.Bitboards, black bool, endgame bool) (score int32) {
	square := func(sq int) int {
		if black {
			return FlipView[sq]
		}
		return sq
	}
	pieces := [...]struct {
		kind  dragontoothmg.Piece
		board uint64
	}{
		{dragontoothmg.Pawn, bb.Pawns},
		{dragontoothmg.Knight, bb.Knights},
		{dragontoothmg.Bishop, bb.Bishops},
		{dragontoothmg.Rook, bb.Rooks},
		{dragontoothmg.Queen, bb.Queens},
	}
	for _, p := range pieces {
		for x := p.board; x != 0; x &= x - 1 {
			score += PSQT[p.kind][square(bits.TrailingZeros64(x))]
		}
	}

	kingTable := &KingPSQT_MG
	if endgame {
		kingTable = &KingPSQT_EG
	}
	for x := bb.Kings; x != 0; x &= x - 1 {
		score += kingTable[square(bits.TrailingZeros64(x))]
	}
	return score
}

// influence counts every square attacked by each piece of one side.
func influence(bb *dragontoothmg.Bitboards, occupied uint64, white bool) int {
	side := 0
	if !white {
		side = 1
	}
	total := 0
	for x := bb.Pawns; x != 0; x &= x - 1 {
		total += bits.OnesCount64(pawnAttacks[side][bits.TrailingZeros64(x)])
	}
	for x := bb.Knights; x != 0; x &= x - 1 {
		total += bits.OnesCount64(knightAttacks[bits.TrailingZeros64(x)])
	}
	for x := bb.Bishops; x != 0; x &= x - 1 {
		total += bits.OnesCount64(dragontoothmg.CalculateBishopMoveBitboard(uint8(bits.TrailingZeros64(x)), occupied))
	}
	for x := bb.Rooks; x != 0; x &= x - 1 {
		total += bits.OnesCount64(dragontoothmg.CalculateRookMoveBitboard(uint8(bits.TrailingZeros64(x)), occupied))
	}
	for x := bb.Queens; x != 0; x &= x - 1 {
		sq := uint8(bits.TrailingZeros64(x))
		total += bits.OnesCount64(dragontoothmg.CalculateBishopMoveBitboard(sq, occupied) |
			dragontoothmg.CalculateRookMoveBitboard(sq, occupied))
	}
	for x := bb.Kings; x != 0; x &= x - 1 {
		total += bits.OnesCount64(kingAttacks[bits.TrailingZeros64(x)])
	}
	return total
}

// mobilityBonus is 10 * ln(w / b), with fixed fallbacks when either count is zero.
func mobilityBonus(white, black int) int32 {
	switch {
	case white > 0 && black > 0:
		// log difference keeps the result exactly antisymmetric
		return int32(math.Round(mobilityLogScale * (math.Log(float64(white)) - math.Log(float64(black)))))
	case white > 0:
		return MobilityFallback
	case black > 0:
		return -MobilityFallback
	}
	return 0
}

// kingSafety rewards pawn cover around the king and penalises enemy pieces
// bearing on the king zone. Middlegame only.
func kingSafety(b *dragontoothmg.Board, white bool) int32 {
	us, them := &b.White, &b.Black
	if !white {
		us, them = &b.Black, &b.White
	}
	if us.Kings == 0 {
		return 0
	}
	kingSq := bits.TrailingZeros64(us.Kings)
	kingFile := kingSq % 8

	nearRank, farRank := 1, 2
	if !white {
		nearRank, farRank = 6, 5
	}

	var score int32
	for f := Max(kingFile-1, 0); f <= Min(kingFile+1, 7); f++ {
		fileMask := fileA << uint(f)
		ours := us.Pawns & fileMask
		if ours == 0 {
			score -= kingFileNoPawnPenalty
			if them.Pawns&fileMask == 0 {
				score -= kingFileOpenPenalty
			}
			continue
		}
		if ours&(uint64(1)<<uint(nearRank*8+f)) != 0 {
			score += kingShieldNearBonus
		} else if ours&(uint64(1)<<uint(farRank*8+f)) != 0 {
			score += kingShieldFarBonus
		}
	}

	zone := kingAttacks[kingSq] | uint64(1)<<uint(kingSq)
	occupied := b.White.All | b.Black.All
	for x := them.Knights; x != 0; x &= x - 1 {
		if knightAttacks[bits.TrailingZeros64(x)]&zone != 0 {
			score -= kingZoneMinorPenalty
		}
	}
	for x := them.Bishops; x != 0; x &= x - 1 {
		if dragontoothmg.CalculateBishopMoveBitboard(uint8(bits.TrailingZeros64(x)), occupied)&zone != 0 {
			score -= kingZoneMinorPenalty
		}
	}
	for x := them.Rooks; x != 0; x &= x - 1 {
		if dragontoothmg.CalculateRookMoveBitboard(uint8(bits.TrailingZeros64(x)), occupied)&zone != 0 {
			score -= kingZoneRookPenalty
		}
	}
	for x := them.Queens; x != 0; x &= x - 1 {
		sq := uint8(bits.TrailingZeros64(x))
		attacks := dragontoothmg.CalculateBishopMoveBitboard(sq, occupied) | dragontoothmg.CalculateRookMoveBitboard(sq, occupied)
		if attacks&zone != 0 {
			score -= kingZoneQueenPenalty
		}
	}
	return score
}

// insufficientMaterial reports bare kings or a lone minor piece against a bare king.
func insufficientMaterial(b *dragontoothmg.Board) bool {
	if b.White.Pawns|b.Black.Pawns|b.White.Rooks|b.Black.Rooks|b.White.Queens|b.Black.Queens != 0 {
		return false
	}
	minors := bits.OnesCount64(b.White.Knights | b.White.Bishops | b.Black.Knights | b.Black.Bishops)
	return minors <= 1
}
