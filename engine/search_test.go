package engine

import (
	"context"
	"testing"

	"github.com/dylhunn/dragontoothmg"
)

// Small positions, so an unpruned search to depth 3 stays cheap.
var searchFENs = []string{
	"4k3/8/8/3p4/4P3/8/8/4K3 w - - 0 1",
	"4k3/1q6/8/3n4/4P3/2N5/8/4K2R w K - 0 1",
	"6k1/5ppp/8/8/8/8/5PPP/3R2K1 w - - 0 1",
	"r3k3/8/8/8/8/8/3b4/R3K3 w Qq - 0 1",
	"8/8/4k3/8/2pP4/8/8/4K3 b - d3 0 1",
	"3qk3/8/8/8/8/8/4P3/3QK3 b - - 0 1",
	"7k/P7/8/8/8/8/8/K7 w - - 0 1",
}

// referenceNegamax is the plain minimax tree over the same leaves, draws and
// mate scores as the real search, with no window and no table.
func referenceNegamax(b *dragontoothmg.Board, h *PositionHistory, opts *Options, depth, ply int) int32 {
	if ply > 0 && (h.IsFiftyMoveDraw() || h.IsRepetitionDraw() || insufficientMaterial(b)) {
		return DrawScore
	}
	if ply >= MaxDepth {
		return Evaluate(b)
	}
	if depth <= 0 {
		return referenceQuiescence(b, h, opts, 0, ply)
	}
	moves := b.GenerateLegalMoves()
	if len(moves) == 0 {
		if b.OurKingInCheck() {
			return -MaxScore + int32(ply)
		}
		return DrawScore
	}
	best := -MaxScore
	for _, move := range moves {
		unapply := b.Apply(move)
		h.Push(b.Hash(), int(b.Halfmoveclock))
		score := -referenceNegamax(b, h, opts, depth-1, ply+1)
		h.Pop()
		unapply()
		best = Max(best, score)
	}
	return best
}

func referenceQuiescence(b *dragontoothmg.Board, h *PositionHistory, opts *Options, qdepth, ply int) int32 {
	if ply > 0 && insufficientMaterial(b) {
		return DrawScore
	}
	if qdepth >= opts.QuiescenceDepth || ply >= MaxDepth {
		return Evaluate(b)
	}
	inCheck := b.OurKingInCheck()
	moves := b.GenerateLegalMoves()
	if len(moves) == 0 {
		if inCheck {
			return -MaxScore + int32(ply)
		}
		return DrawScore
	}
	best := -MaxScore
	if !inCheck {
		best = Evaluate(b)
	}
	for _, move := range moves {
		if !inCheck && !isTactical(b, move) {
			continue
		}
		unapply := b.Apply(move)
		h.Push(b.Hash(), int(b.Halfmoveclock))
		score := -referenceQuiescence(b, h, opts, qdepth+1, ply+1)
		h.Pop()
		unapply()
		best = Max(best, score)
	}
	return best
}

func searchAtDepth(t *testing.T, e *Engine, depth int) (int32, dragontoothmg.Move) {
	t.Helper()
	board := e.Position()
	s := e.newSearcher(context.Background(), &board, board.GenerateLegalMoves(), 0)
	var pv PVLine
	score, move, ok := s.searchRoot(int8(depth), -MaxScore, MaxScore, &pv)
	if !ok {
		t.Fatalf("search aborted without limits")
	}
	return score, move
}

func TestAlphaBetaMatchesMinimax(t *testing.T) {
	opts := testOptions()
	opts.HashMB = 0
	opts.QuiescenceDepth = 4

	for _, fen := range searchFENs {
		for depth := 1; depth <= 3; depth++ {
			e := New(opts)
			if err := e.SetPosition(mustBoard(t, fen), nil); err != nil {
				t.Fatal(err)
			}
			got, _ := searchAtDepth(t, e, depth)

			board := mustBoard(t, fen)
			history := NewPositionHistory(16)
			history.SetGame([]State{stateOf(&board)})
			want := referenceNegamax(&board, history, &e.opts, depth, 0)

			if got != want {
				t.Errorf("%s depth %d: alpha-beta %d, minimax %d", fen, depth, got, want)
			}
		}
	}
}

func TestTranspositionTableKeepsRootScore(t *testing.T) {
	withTT := testOptions()
	withTT.QuiescenceDepth = 4
	without := withTT
	without.HashMB = 0

	for _, fen := range searchFENs {
		for depth := 1; depth <= 3; depth++ {
			cached := New(withTT)
			plain := New(without)
			for _, e := range []*Engine{cached, plain} {
				if err := e.SetPosition(mustBoard(t, fen), nil); err != nil {
					t.Fatal(err)
				}
			}
			got, _ := searchAtDepth(t, cached, depth)
			want, _ := searchAtDepth(t, plain, depth)
			if got != want {
				t.Errorf("%s depth %d: with table %d, without %d", fen, depth, got, want)
			}
		}
	}
}

func TestRecaptureOnlyLimitsQuiescence(t *testing.T) {
	// e4xd5, e4xf5 and Bg4xf5 are the only captures.
	fen := "4k3/8/8/3n1r2/4P1B1/8/8/4K3 w - - 0 1"
	f5 := 37

	for _, tc := range []struct {
		recaptureOnly bool
		recaptureSq   int
		want          int
	}{
		{false, noSquare, 3},
		{false, f5, 3},
		{true, noSquare, 3},
		{true, f5, 2},
	} {
		opts := testOptions()
		opts.RecaptureOnly = tc.recaptureOnly
		e := New(opts)
		if err := e.SetPosition(mustBoard(t, fen), nil); err != nil {
			t.Fatal(err)
		}
		board := e.Position()
		s := e.newSearcher(context.Background(), &board, board.GenerateLegalMoves(), 0)
		moves := s.quiescenceMoves(board.GenerateLegalMoves(), tc.recaptureSq)
		if len(moves) != tc.want {
			t.Errorf("recapture-only %v, square %d: expected %d moves, got %q",
				tc.recaptureOnly, tc.recaptureSq, tc.want, MovesString(moves))
		}
	}
}

func TestQuiescenceStandPat(t *testing.T) {
	// Quiet position: no captures, so quiescence is the static evaluation.
	e := New(testOptions())
	board := e.Position()
	s := e.newSearcher(context.Background(), &board, board.GenerateLegalMoves(), 0)
	score, ok := s.quiescence(-MaxScore, MaxScore, 0, 0, noSquare)
	if !ok || score != Evaluate(&board) {
		t.Fatalf("expected stand-pat %d, got %d (ok %v)", Evaluate(&board), score, ok)
	}
}

func TestQuiescenceFindsMateWhenInCheck(t *testing.T) {
	// Black is mated: quiescence must not stand pat while in check.
	e := New(testOptions())
	if err := e.SetPosition(mustBoard(t, "R5k1/5ppp/8/8/8/8/8/6K1 b - - 0 1"), nil); err != nil {
		t.Fatal(err)
	}
	board := e.Position()
	s := e.newSearcher(context.Background(), &board, board.GenerateLegalMoves(), 0)
	score, ok := s.quiescence(-MaxScore, MaxScore, 0, 0, noSquare)
	if !ok || score != -MaxScore {
		t.Fatalf("expected mate score %d, got %d", -MaxScore, score)
	}
}

func TestRepetitionScoresAsDraw(t *testing.T) {
	e := New(testOptions())
	line := "d1d2 a8b8 d2d1 b8a8 d1d2 a8b8 d2d1 b8a8 d1d2 a8b8"
	if err := e.SetPosition(mustBoard(t, "k7/8/8/8/8/8/8/3Q3K w - - 0 1"), mustMoves(t, line)); err != nil {
		t.Fatal(err)
	}

	board := e.Position()
	s := e.newSearcher(context.Background(), &board, board.GenerateLegalMoves(), 0)
	var pv PVLine
	best, _, ok := s.searchRoot(1, -MaxScore, MaxScore, &pv)
	if !ok {
		t.Fatalf("search aborted")
	}
	if best < 500 {
		t.Fatalf("expected a winning score with a queen up, got %d", best)
	}

	repeat := mustMove(t, "d2d1")
	for _, rm := range s.root {
		if rm.Move == repeat {
			if rm.Score != DrawScore {
				t.Fatalf("expected the repeating move to score %d, got %d", DrawScore, rm.Score)
			}
			return
		}
	}
	t.Fatalf("repeating move not among root moves")
}

func TestSearchAbortRestoresHistory(t *testing.T) {
	e := New(testOptions())
	board := e.Position()
	s := e.newSearcher(context.Background(), &board, board.GenerateLegalMoves(), 500)
	before := e.history.Len()

	var pv PVLine
	if _, _, ok := s.searchRoot(6, -MaxScore, MaxScore, &pv); ok {
		t.Fatalf("expected the node limit to abort the search")
	}
	if e.history.Len() != before {
		t.Fatalf("history length %d after abort, want %d", e.history.Len(), before)
	}
	pos := e.Position()
	if fen := board.ToFen(); fen != pos.ToFen() {
		t.Fatalf("board not restored after abort: %s", fen)
	}
}

func TestScoreString(t *testing.T) {
	tests := map[int32]string{
		35:              "cp 35",
		-120:            "cp -120",
		MaxScore - 1:    "mate 1",
		MaxScore - 3:    "mate 2",
		-MaxScore + 2:   "mate -1",
		-(MaxScore - 4): "mate -2",
	}
	for score, want := range tests {
		if got := ScoreString(score); got != want {
			t.Errorf("ScoreString(%d) = %q, expected %q", score, got, want)
		}
	}
}
