package engine

import (
	"context"
	"time"

	"github.com/dylhunn/dragontoothmg"
	"golang.org/x/exp/slices"
)

// =============================================================================
// SCORE CONSTANTS
// =============================================================================
const (
	MaxScore  int32 = 32500
	Checkmate int32 = 20000
	DrawScore int32 = 0
)

// searcher holds the state of one ChooseMove call. It owns a private copy of
// the board and shares the history, killers and table with its Engine.
type searcher struct {
	board   *dragontoothmg.Board
	history *PositionHistory
	tt      *TransTable
	killers *KillerStruct
	opts    *Options

	ctx       context.Context
	deadline  time.Time // zero means no deadline
	nodeLimit uint64    // zero means no limit
	aborted   bool

	root  []RootMove
	stats Stats
}

// poll counts a node and reports whether the search must unwind.
func (s *searcher) poll() bool {
	if s.aborted {
		return true
	}
	s.stats.Nodes++
	if s.nodeLimit > 0 && s.stats.Nodes >= s.nodeLimit {
		s.abort()
		return true
	}
	if s.stats.Nodes%s.opts.NodeCheckInterval != 0 {
		return false
	}
	if !s.deadline.IsZero() && !time.Now().Before(s.deadline) {
		s.abort()
		return true
	}
	if s.ctx != nil {
		select {
		case <-s.ctx.Done():
			s.abort()
			return true
		default:
		}
	}
	return false
}

func (s *searcher) abort() {
	s.aborted = true
	s.stats.Aborts++
}

// isDraw checks the draw rules that apply below the root.
func (s *searcher) isDraw() bool {
	return s.history.IsFiftyMoveDraw() || s.history.IsRepetitionDraw() || insufficientMaterial(s.board)
}

// searchRoot searches every root move, keeping per-move scores for the next
// iteration's ordering.
func (s *searcher) searchRoot(depth int8, alpha, beta int32, pvLine *PVLine) (int32, dragontoothmg.Move, bool) {
	if s.poll() {
		return 0, 0, false
	}
	b := s.board
	hash := b.Hash()

	var hashMove dragontoothmg.Move
	if entry, hit := s.tt.Probe(hash); hit {
		s.stats.TTHits++
		hashMove = entry.Move
	}
	orderRootMoves(b, s.root, hashMove)

	origAlpha := alpha
	bestScore := -MaxScore
	var bestMove dragontoothmg.Move
	var childPVLine PVLine

	for i := range s.root {
		move := s.root[i].Move
		quiet := !isTactical(b, move)

		unapply := s.applyMoveWithState(move)
		var score int32
		var ok bool
		if i == 0 {
			score, ok = s.alphabeta(depth-1, -beta, -alpha, 1, &childPVLine)
			score = -score
		} else {
			score, ok = s.searchMoveWithPVS(depth-1, alpha, beta, 0, &childPVLine)
		}
		unapply()
		if !ok {
			return 0, 0, false
		}

		s.root[i].Score, s.root[i].Scored = score, true
		if score > bestScore {
			bestScore = score
			bestMove = move
		}
		if score > alpha {
			alpha = score
			pvLine.Update(move, childPVLine)
		}
		childPVLine.Clear()
		if alpha >= beta {
			s.stats.BetaCutoffs++
			if quiet {
				s.killers.InsertKiller(move, 0)
			}
			break
		}
	}

	s.tt.Store(hash, depth, 0, bestMove, bestScore, boundFor(bestScore, origAlpha, beta))
	return bestScore, bestMove, true
}

// alphabeta is a fail-soft negamax search. ok is false when the search was
// aborted; the score is then meaningless and nothing has been stored.
func (s *searcher) alphabeta(depth int8, alpha, beta int32, ply int, pvLine *PVLine) (int32, bool) {
	if s.poll() {
		return 0, false
	}
	pvLine.Clear()
	b := s.board

	if ply > 0 && s.isDraw() {
		return DrawScore, true
	}
	if ply >= MaxDepth {
		return Evaluate(b), true
	}
	if depth <= 0 {
		return s.quiescence(alpha, beta, 0, ply, noSquare)
	}

	hash := b.Hash()
	var hashMove dragontoothmg.Move
	if entry, hit := s.tt.Probe(hash); hit {
		s.stats.TTHits++
		hashMove = entry.Move
		if usable, score := s.tt.Usable(entry, depth, alpha, beta, ply); usable {
			s.stats.TTCutoffs++
			return score, true
		}
	}

	moves := b.GenerateLegalMoves()
	if len(moves) == 0 {
		if b.OurKingInCheck() {
			return -MaxScore + int32(ply), true
		}
		return DrawScore, true
	}
	// A colliding entry may hand us a move from another position.
	if hashMove != 0 && !slices.Contains(moves, hashMove) {
		hashMove = 0
	}

	origAlpha := alpha
	bestScore := -MaxScore
	var bestMove dragontoothmg.Move
	var childPVLine PVLine

	moveList := scoreMovesList(b, moves, hashMove, s.killers, ply)
	for index, sm := range moveList {
		move := sm.move
		quiet := !isTactical(b, move)

		unapply := s.applyMoveWithState(move)
		var score int32
		var ok bool
		if index == 0 {
			score, ok = s.alphabeta(depth-1, -beta, -alpha, ply+1, &childPVLine)
			score = -score
		} else {
			score, ok = s.searchMoveWithPVS(depth-1, alpha, beta, ply, &childPVLine)
		}
		unapply()
		if !ok {
			return 0, false
		}

		if score > bestScore {
			bestScore = score
			bestMove = move
		}
		if score > alpha {
			alpha = score
			pvLine.Update(move, childPVLine)
		}
		childPVLine.Clear()
		if alpha >= beta {
			s.stats.BetaCutoffs++
			if quiet {
				s.killers.InsertKiller(move, ply)
			}
			break
		}
	}

	s.tt.Store(hash, depth, ply, bestMove, bestScore, boundFor(bestScore, origAlpha, beta))
	return bestScore, true
}

func boundFor(score, origAlpha, beta int32) Bound {
	switch {
	case score >= beta:
		return LowerBound
	case score <= origAlpha:
		return UpperBound
	}
	return Exact
}

// searchMoveWithPVS searches a move that is already applied with a null
// window first, and re-searches with the full window when the score lands
// inside (alpha, beta).
func (s *searcher) searchMoveWithPVS(depth int8, alpha, beta int32, ply int, childPVLine *PVLine) (int32, bool) {
	score, ok := s.alphabeta(depth, -(alpha + 1), -alpha, ply+1, childPVLine)
	if !ok {
		return 0, false
	}
	score = -score

	if score > alpha && score < beta {
		score, ok = s.alphabeta(depth, -beta, -alpha, ply+1, childPVLine)
		if !ok {
			return 0, false
		}
		score = -score
	}
	return score, true
}

// applyMoveWithState plays move and records the new position in the history.
// The returned function restores both.
func (s *searcher) applyMoveWithState(move dragontoothmg.Move) func() {
	unapply := s.board.Apply(move)
	s.history.Push(s.board.Hash(), int(s.board.Halfmoveclock))
	return func() {
		unapply()
		s.history.Pop()
	}
}
