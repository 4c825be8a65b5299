package engine

// Attack lookup tables, filled once at package init.
var (
	PositionBB    [64]uint64
	kingAttacks   [64]uint64
	knightAttacks [64]uint64
	pawnAttacks   [2][64]uint64 // [0] white, [1] black
)

func init() {
	initAttackTables()
}

func initAttackTables() {
	for sq := 0; sq < 64; sq++ {
		PositionBB[sq] = uint64(1) << uint(sq)
		rank, file := sq/8, sq%8

		kingAttacks[sq] = stepTargets(rank, file, [][2]int{
			{1, -1}, {1, 0}, {1, 1}, {0, -1}, {0, 1}, {-1, -1}, {-1, 0}, {-1, 1},
		})
		knightAttacks[sq] = stepTargets(rank, file, [][2]int{
			{2, -1}, {2, 1}, {1, -2}, {1, 2}, {-1, -2}, {-1, 2}, {-2, -1}, {-2, 1},
		})
		pawnAttacks[0][sq] = stepTargets(rank, file, [][2]int{{1, -1}, {1, 1}})
		pawnAttacks[1][sq] = stepTargets(rank, file, [][2]int{{-1, -1}, {-1, 1}})
	}
}

func stepTargets(rank, file int, steps [][2]int) (bb uint64) {
	for _, d := range steps {
		r, f := rank+d[0], file+d[1]
		if r < 0 || r > 7 || f < 0 || f > 7 {
			continue
		}
		bb |= uint64(1) << uint(r*8+f)
	}
	return bb
}
