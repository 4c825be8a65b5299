package engine

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dylhunn/dragontoothmg"
	"github.com/google/go-cmp/cmp"
	"github.com/notnil/chess"
	"github.com/samber/lo"
	"lukechampine.com/frand"
)

// legalUCIMoves lists the legal moves of fen according to an independent move
// generator.
func legalUCIMoves(t *testing.T, fen string) []string {
	t.Helper()
	opt, err := chess.FEN(fen)
	if err != nil {
		t.Fatalf("parse FEN %q: %v", fen, err)
	}
	game := chess.NewGame(opt)
	return lo.Map(game.ValidMoves(), func(m *chess.Move, _ int) string {
		return chess.UCINotation{}.Encode(game.Position(), m)
	})
}

func TestChooseMoveStartPosition(t *testing.T) {
	e := New(testOptions())
	result := e.ChooseMove(context.Background(), Limits{Depth: 3})

	legal := legalUCIMoves(t, dragontoothmg.Startpos)
	if len(legal) != 20 {
		t.Fatalf("expected 20 legal moves in the start position, got %d", len(legal))
	}
	if !lo.Contains(legal, result.Move.String()) {
		t.Fatalf("%s is not a legal move, expected one of %v", result.Move.String(), legal)
	}
	if result.Depth != 3 {
		t.Fatalf("expected depth 3, got %d", result.Depth)
	}
	if len(result.PV) == 0 || result.PV[0] != result.Move {
		t.Fatalf("PV %q does not start with %s", MovesString(result.PV), result.Move.String())
	}
}

func TestChooseMoveFindsMateInOne(t *testing.T) {
	tests := []struct {
		fen  string
		want string
	}{
		{"6k1/5ppp/8/8/8/8/8/R5K1 w - - 0 1", "a1a8"},
		{"r5k1/8/8/8/8/8/5PPP/6K1 b - - 0 1", "a8a1"},
	}
	for _, tc := range tests {
		e := New(testOptions())
		if err := e.SetPosition(mustBoard(t, tc.fen), nil); err != nil {
			t.Fatal(err)
		}
		result := e.ChooseMove(context.Background(), Limits{Depth: 4})
		if got := result.Move.String(); got != tc.want {
			t.Errorf("%s: expected %s, got %s", tc.fen, tc.want, got)
		}
		if n, ok := MateIn(result.Score); !ok || n != 1 {
			t.Errorf("%s: expected mate in 1, got score %d", tc.fen, result.Score)
		}
	}
}

func TestChooseMoveAvoidsMateInOne(t *testing.T) {
	// Black threatens Ra1 mate; only a luft or a guard of the back rank holds.
	fen := "r5k1/5ppp/8/8/8/8/5PPP/6K1 w - - 0 1"
	e := New(testOptions())
	if err := e.SetPosition(mustBoard(t, fen), nil); err != nil {
		t.Fatal(err)
	}
	result := e.ChooseMove(context.Background(), Limits{Depth: 3})
	if _, mated := MateIn(result.Score); mated {
		t.Fatalf("%s walks into mate, score %d", result.Move.String(), result.Score)
	}
}

func TestChooseMoveSingleLegalMove(t *testing.T) {
	e := New(testOptions())
	if err := e.SetPosition(mustBoard(t, "k7/8/8/8/8/8/1r6/K7 w - - 0 1"), nil); err != nil {
		t.Fatal(err)
	}
	result := e.ChooseMove(context.Background(), Limits{Depth: 10})
	if got := result.Move.String(); got != "a1b2" {
		t.Fatalf("expected the only legal move a1b2, got %s", got)
	}
	if result.Nodes != 0 {
		t.Fatalf("expected no search for a forced move, got %d nodes", result.Nodes)
	}
}

func TestChooseMoveWithoutLegalMoves(t *testing.T) {
	e := New(testOptions())
	if err := e.SetPosition(mustBoard(t, "R5k1/5ppp/8/8/8/8/8/6K1 b - - 0 1"), nil); err != nil {
		t.Fatal(err)
	}
	if result := e.ChooseMove(context.Background(), Limits{Depth: 3}); result.Move != 0 {
		t.Fatalf("expected no move when mated, got %s", result.Move.String())
	}
}

func TestChooseMoveCancelled(t *testing.T) {
	opts := testOptions()
	opts.NodeCheckInterval = 1
	e := New(opts)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result := e.ChooseMove(ctx, Limits{Infinite: true})
	legal := legalUCIMoves(t, dragontoothmg.Startpos)
	if !lo.Contains(legal, result.Move.String()) {
		t.Fatalf("expected a legal fallback move, got %s", result.Move.String())
	}
	if result.Depth != 0 {
		t.Fatalf("expected no completed iteration, got depth %d", result.Depth)
	}
	if e.history.Len() != 1 {
		t.Fatalf("history not restored after cancel, len %d", e.history.Len())
	}
}

func TestChooseMoveNodeLimit(t *testing.T) {
	e := New(testOptions())
	result := e.ChooseMove(context.Background(), Limits{Nodes: 2000})
	if result.Nodes > 2000 {
		t.Fatalf("searched %d nodes, limit 2000", result.Nodes)
	}
	if result.Move == 0 {
		t.Fatalf("expected a move under a node limit")
	}
}

func TestChooseMoveTimeLimit(t *testing.T) {
	e := New(testOptions())
	remaining := time.Second
	result := e.ChooseMove(context.Background(), Limits{Remaining: remaining})
	if result.Elapsed >= remaining {
		t.Fatalf("spent %v with %v on the clock", result.Elapsed, remaining)
	}
	if result.Move == 0 {
		t.Fatalf("expected a move")
	}
}

func TestChooseMoveReportsIterations(t *testing.T) {
	var depths []int
	opts := testOptions()
	opts.OnInfo = func(info Info) {
		depths = append(depths, info.Depth)
		if len(info.PV) == 0 {
			t.Errorf("depth %d reported an empty PV", info.Depth)
		}
	}
	e := New(opts)
	e.ChooseMove(context.Background(), Limits{Depth: 3})
	if diff := cmp.Diff([]int{1, 2, 3}, depths); diff != "" {
		t.Fatalf("iteration depths (-want +got):\n%s", diff)
	}
}

type fixedBook []dragontoothmg.Move

func (b fixedBook) Lookup(*dragontoothmg.Board) []dragontoothmg.Move {
	return b
}

func TestChooseMoveFromBook(t *testing.T) {
	book := fixedBook(mustMoves(t, "e2e4 d2d4 c2c4 g1f3"))
	pick := func() []string {
		opts := testOptions()
		opts.Rand = frand.NewCustom(make([]byte, 32), 1024, 12)
		e := New(opts)
		e.SetBook(book)
		var picks []string
		for i := 0; i < 8; i++ {
			result := e.ChooseMove(context.Background(), Limits{Depth: 1})
			if !result.FromBook {
				t.Fatalf("expected a book move")
			}
			picks = append(picks, result.Move.String())
		}
		return picks
	}

	first, second := pick(), pick()
	if diff := cmp.Diff(first, second); diff != "" {
		t.Fatalf("seeded picks differ (-first +second):\n%s", diff)
	}
	for _, m := range first {
		if !lo.Contains([]string{"e2e4", "d2d4", "c2c4", "g1f3"}, m) {
			t.Fatalf("picked %s, not in the book", m)
		}
	}
}

func TestSetPositionRejectsIllegalMove(t *testing.T) {
	e := New(testOptions())
	start := e.Position()
	err := e.SetPosition(start, mustMoves(t, "e2e4 e7e5 e1e3"))
	if !errors.Is(err, ErrIllegalMove) {
		t.Fatalf("expected ErrIllegalMove, got %v", err)
	}
	if got := e.Position(); got.ToFen() != start.ToFen() {
		t.Fatalf("position changed after a rejected line: %s", got.ToFen())
	}
}

func TestResetForgetsGame(t *testing.T) {
	e := New(testOptions())
	if err := e.SetPosition(e.Position(), mustMoves(t, "e2e4 e7e5")); err != nil {
		t.Fatal(err)
	}
	e.ChooseMove(context.Background(), Limits{Depth: 2})
	e.Reset()

	start := mustBoard(t, dragontoothmg.Startpos)
	if got := e.Position(); got.ToFen() != start.ToFen() {
		t.Fatalf("expected the start position after Reset, got %s", got.ToFen())
	}
	if e.tt.Len() != 0 || e.history.Len() != 1 {
		t.Fatalf("expected empty table and history, got %d entries and %d states", e.tt.Len(), e.history.Len())
	}
}
