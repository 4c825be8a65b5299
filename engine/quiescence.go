package engine

import "github.com/dylhunn/dragontoothmg"

const noSquare = -1

// Quiescence search only looks at moves that change the material balance, so
// the static evaluation is never taken in the middle of an exchange.
// Stand-pat: the side to move may decline every capture, so the static
// score is a lower bound. In check there is no stand-pat and every evasion is
// searched. qdepth counts plies below the main search horizon.
func (s *searcher) quiescence(alpha, beta int32, qdepth int, ply int, recaptureSq int) (int32, bool) {
	if s.poll() {
		return 0, false
	}
	s.stats.QNodes++

	b := s.board
	if ply > 0 && insufficientMaterial(b) {
		return DrawScore, true
	}
	if qdepth >= s.opts.QuiescenceDepth || ply >= MaxDepth {
		return Evaluate(b), true
	}

	inCheck := b.OurKingInCheck()
	moves := b.GenerateLegalMoves()
	if len(moves) == 0 {
		if inCheck {
			return -MaxScore + int32(ply), true
		}
		return DrawScore, true
	}

	bestScore := -MaxScore
	if !inCheck {
		standpat := Evaluate(b)
		if standpat >= beta {
			s.stats.QStandPatCutoffs++
			return standpat, true
		}
		if standpat > alpha {
			alpha = standpat
		}
		bestScore = standpat
		moves = s.quiescenceMoves(moves, recaptureSq)
	}

	list := scoreMovesList(b, moves, 0, s.killers, ply)
	for _, sm := range list {
		move := sm.move
		next := recaptureSq
		if s.opts.RecaptureOnly && isCapture(b, move) {
			next = int(move.To())
		}

		unapply := s.applyMoveWithState(move)
		score, ok := s.quiescence(-beta, -alpha, qdepth+1, ply+1, next)
		unapply()
		if !ok {
			return 0, false
		}
		score = -score

		if score > bestScore {
			bestScore = score
		}
		if score >= beta {
			s.stats.QBetaCutoffs++
			return score, true
		}
		if score > alpha {
			alpha = score
		}
	}
	return bestScore, true
}

// quiescenceMoves keeps captures, en passant included, and promotions. With
// recapture-only enabled, once an exchange has started only captures on the
// exchange square remain.
func (s *searcher) quiescenceMoves(moves []dragontoothmg.Move, recaptureSq int) []dragontoothmg.Move {
	b := s.board
	tactical := moves[:0:0]
	for _, move := range moves {
		if !isTactical(b, move) {
			continue
		}
		if s.opts.RecaptureOnly && recaptureSq != noSquare {
			if int(move.To()) != recaptureSq || !isCapture(b, move) {
				continue
			}
		}
		tactical = append(tactical, move)
	}
	return tactical
}
