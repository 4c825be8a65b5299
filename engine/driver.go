package engine

import (
	"context"
	"time"

	"github.com/dylhunn/dragontoothmg"
	"github.com/rs/zerolog/log"
	"github.com/samber/lo"
	"golang.org/x/exp/slices"
)

// Info reports a completed iteration.
type Info struct {
	Depth   int
	Score   int32
	Nodes   uint64
	Elapsed time.Duration
	PV      []dragontoothmg.Move
}

// Result is the outcome of ChooseMove. Move is zero only when the position
// has no legal moves.
type Result struct {
	Move     dragontoothmg.Move
	Score    int32 // side to move view; 0 for book moves
	Depth    int   // last completed iteration
	Nodes    uint64
	Elapsed  time.Duration
	PV       []dragontoothmg.Move
	FromBook bool
	Stats    Stats
}

// ChooseMove picks a move for the current position. The search stops at the
// depth or node limit, when the time budget runs out or when ctx is done,
// and answers with the best move of the last completed iteration.
func (e *Engine) ChooseMove(ctx context.Context, limits Limits) Result {
	start := time.Now()
	board := e.board
	historyLen := e.history.Len()
	defer func() {
		assertf(e.history.Len() == historyLen, "history length %d after search, want %d", e.history.Len(), historyLen)
	}()

	legal := board.GenerateLegalMoves()
	if len(legal) == 0 {
		log.Debug().Str("fen", board.ToFen()).Msg("no legal moves")
		return Result{Elapsed: time.Since(start)}
	}

	if move, ok := e.bookMove(&board, legal); ok {
		return Result{
			Move:     move,
			PV:       []dragontoothmg.Move{move},
			FromBook: true,
			Elapsed:  time.Since(start),
		}
	}
	if len(legal) == 1 {
		return Result{
			Move:    legal[0],
			Score:   Evaluate(&board),
			PV:      legal[:1:1],
			Elapsed: time.Since(start),
		}
	}

	budget := ComputeBudget(limits, e.opts.Time, &board)
	s := e.newSearcher(ctx, &board, legal, limits.Nodes)
	if budget.Limited {
		s.deadline = start.Add(budget.Hard)
	}

	maxDepth := e.opts.MaxDepth
	if limits.Depth > 0 {
		maxDepth = Min(limits.Depth, maxDepth)
	}

	orderRootMoves(&board, s.root, 0)
	result := Result{Move: s.root[0].Move}

	var lastIteration time.Duration
	for depth := 1; depth <= maxDepth; depth++ {
		if depth > 1 && !budget.shouldStartIteration(time.Since(start), lastIteration, e.opts.Time.BranchingFactor) {
			break
		}

		iterationStart := time.Now()
		backup := slices.Clone(s.root)
		score, move, pvLine, ok := s.aspirationSearch(int8(depth), result.Score, depth > 1)
		if !ok {
			s.root = backup
			log.Debug().Int("depth", depth).Msg("iteration aborted")
			break
		}
		lastIteration = time.Since(iterationStart)

		result.Move = move
		result.Score = score
		result.Depth = depth
		result.PV = pvLine.Clone().Moves
		if e.opts.OnInfo != nil {
			e.opts.OnInfo(Info{
				Depth:   depth,
				Score:   score,
				Nodes:   s.stats.Nodes,
				Elapsed: time.Since(start),
				PV:      slices.Clone(result.PV),
			})
		}

		// Every line of this length was searched, so no shorter mate exists.
		if MaxScore-abs32(score) <= int32(depth) {
			break
		}
	}

	if len(result.PV) == 0 || result.PV[0] != result.Move {
		result.PV = []dragontoothmg.Move{result.Move}
	}
	result.Nodes = s.stats.Nodes
	result.Stats = s.stats
	result.Elapsed = time.Since(start)

	log.Debug().
		Int("depth", result.Depth).
		Int32("score", result.Score).
		Str("pv", MovesString(result.PV)).
		Dur("elapsed", result.Elapsed).
		EmbedObject(s.stats).
		Msg("search finished")
	return result
}

// newSearcher prepares a search of board, which must be a private copy of
// the current position.
func (e *Engine) newSearcher(ctx context.Context, board *dragontoothmg.Board, legal []dragontoothmg.Move, nodeLimit uint64) *searcher {
	s := &searcher{
		board:     board,
		history:   e.history,
		tt:        e.tt,
		killers:   &e.killers,
		opts:      &e.opts,
		ctx:       ctx,
		nodeLimit: nodeLimit,
		root:      make([]RootMove, len(legal)),
	}
	for i := range legal {
		s.root[i].Move = legal[i]
	}
	e.tt.NewSearch()
	e.history.MarkRoot()
	return s
}

// aspirationSearch searches the root with a window around the previous
// iteration's score, widening it on each fail low or high.
func (s *searcher) aspirationSearch(depth int8, prev int32, useWindow bool) (int32, dragontoothmg.Move, PVLine, bool) {
	window := s.opts.AspirationWindow
	alpha, beta := -MaxScore, MaxScore
	if useWindow && window > 0 && abs32(prev) < Checkmate {
		alpha, beta = prev-window, prev+window
	}

	for {
		var pvLine PVLine
		score, move, ok := s.searchRoot(depth, alpha, beta, &pvLine)
		if !ok {
			return 0, 0, PVLine{}, false
		}
		switch {
		case score <= alpha && alpha > -MaxScore:
			window *= 2
			alpha = Max(score-window, -MaxScore)
		case score >= beta && beta < MaxScore:
			window *= 2
			beta = Min(score+window, MaxScore)
		default:
			return score, move, pvLine, true
		}
	}
}

// bookMove picks uniformly among the book's legal moves for b. Moves that are
// not legal here, for instance from a hash collision, are never played.
func (e *Engine) bookMove(b *dragontoothmg.Board, legal []dragontoothmg.Move) (dragontoothmg.Move, bool) {
	if e.book == nil {
		return 0, false
	}
	candidates := lo.Filter(e.book.Lookup(b), func(move dragontoothmg.Move, _ int) bool {
		return assertf(slices.Contains(legal, move), "book move %s is not legal in %s", move.String(), b.ToFen())
	})
	if len(candidates) == 0 {
		return 0, false
	}
	return candidates[e.opts.Rand.Intn(len(candidates))], true
}
