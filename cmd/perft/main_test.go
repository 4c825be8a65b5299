package main

import (
	"testing"

	"github.com/dylhunn/dragontoothmg"
	"github.com/samber/lo"
)

func TestPerft(t *testing.T) {
	tests := []struct {
		name  string
		fen   string
		depth int
		want  uint64
	}{
		{"startpos", dragontoothmg.Startpos, 3, 8902},
		{"kiwipete", "r3k2r/p1ppqpb1/bn2pnp1/3PN3/1p2P3/2N2Q1p/PPPBBPPP/R3K2R w KQkq - 0 1", 2, 2039},
		{"position 3", "8/2p5/3p4/KP5r/1R3p1k/8/4P1P1/8 w - - 0 1", 3, 2812},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			board, err := parseFen(tt.fen)
			if err != nil {
				t.Fatal(err)
			}
			if got := perft(&board, tt.depth); got != tt.want {
				t.Errorf("perft(%d) = %d, want %d", tt.depth, got, tt.want)
			}
		})
	}
}

func TestPerftDivideSumsToPerft(t *testing.T) {
	board := dragontoothmg.ParseFen(dragontoothmg.Startpos)
	counts := perftDivide(&board, 3)
	if len(counts) != 20 {
		t.Fatalf("expected 20 root moves, got %d", len(counts))
	}
	if sum := lo.SumBy(counts, func(c moveCount) uint64 { return c.nodes }); sum != 8902 {
		t.Errorf("divide total = %d, want 8902", sum)
	}
	if counts[0].move != "a2a3" {
		t.Errorf("divide output not sorted, first move %s", counts[0].move)
	}
}

func benchPerft(b *testing.B, fen string, depth int) {
	board, err := parseFen(fen)
	if err != nil {
		b.Fatalf("parseFen: %v", err)
	}
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = perft(&board, depth)
	}
}

func BenchmarkPerft_Initial_D4(b *testing.B) {
	benchPerft(b, dragontoothmg.Startpos, 4)
}

func BenchmarkPerft_Kiwipete_D3(b *testing.B) {
	benchPerft(b, "r3k2r/p1ppqpb1/bn2pnp1/3PN3/1p2P3/2N2Q1p/PPPBBPPP/R3K2R w KQkq - 0 1", 3)
}
