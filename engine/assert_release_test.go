//go:build !enginedebug

package engine

import (
	"context"
	"testing"
)

func TestIllegalBookMoveIsSkipped(t *testing.T) {
	e := New(testOptions())
	e.SetBook(fixedBook(mustMoves(t, "e2e5")))
	result := e.ChooseMove(context.Background(), Limits{Depth: 1})
	if result.FromBook {
		t.Fatalf("played the illegal book move %s", result.Move.String())
	}
	if result.Move == 0 {
		t.Fatalf("expected the search to provide a move")
	}
}

func TestBookPicksOnlyLegalCandidates(t *testing.T) {
	e := New(testOptions())
	e.SetBook(fixedBook(mustMoves(t, "e2e5 e2e4 a1a5")))
	for i := 0; i < 8; i++ {
		result := e.ChooseMove(context.Background(), Limits{Depth: 1})
		if !result.FromBook {
			t.Fatalf("book with a legal move was skipped, searched %s", result.Move.String())
		}
		if got := result.Move.String(); got != "e2e4" {
			t.Fatalf("expected the only legal book move e2e4, got %s", got)
		}
	}
}
