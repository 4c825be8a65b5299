package engine

import (
	"errors"
	"fmt"

	"github.com/dylhunn/dragontoothmg"
	"golang.org/x/exp/slices"
)

// ErrIllegalMove is returned when a move is not legal in the position it is
// applied to.
var ErrIllegalMove = errors.New("illegal move")

// Book supplies candidate opening moves for a position.
type Book interface {
	Lookup(b *dragontoothmg.Board) []dragontoothmg.Move
}

// Engine owns everything that outlives a single search: the current game,
// its position history, the transposition table and the killer moves.
// An Engine is not safe for concurrent use.
type Engine struct {
	opts    Options
	board   dragontoothmg.Board
	history *PositionHistory
	tt      *TransTable
	killers KillerStruct
	book    Book
}

func New(opts Options) *Engine {
	opts.normalize()
	e := &Engine{
		opts:    opts,
		history: NewPositionHistory(512),
		tt:      NewTransTableMB(opts.HashMB, opts.ReplacePolicy),
	}
	e.setStart()
	return e
}

func (e *Engine) setStart() {
	e.board = dragontoothmg.ParseFen(dragontoothmg.Startpos)
	e.history.SetGame([]State{stateOf(&e.board)})
}

// Reset forgets the game and everything learned while searching it.
func (e *Engine) Reset() {
	e.tt.Clear()
	e.killers.ClearKillers()
	e.setStart()
}

// SetPosition sets the game to start followed by moves. Every position of the
// line is recorded for repetition detection. On error the engine keeps its
// previous position.
func (e *Engine) SetPosition(start dragontoothmg.Board, moves []dragontoothmg.Move) error {
	b := start
	states := make([]State, 0, len(moves)+1)
	states = append(states, stateOf(&b))
	for i, move := range moves {
		if !slices.Contains(b.GenerateLegalMoves(), move) {
			return fmt.Errorf("move %d (%s) in %s: %w", i+1, move.String(), b.ToFen(), ErrIllegalMove)
		}
		b.Apply(move)
		states = append(states, stateOf(&b))
	}
	e.board = b
	e.history.SetGame(states)
	return nil
}

// Position returns a copy of the current position.
func (e *Engine) Position() dragontoothmg.Board {
	return e.board
}

// SetBook installs an opening book; nil disables it.
func (e *Engine) SetBook(book Book) {
	e.book = book
}

func (e *Engine) Options() Options {
	return e.opts
}

// SetOptions replaces the configuration. The transposition table is
// reallocated, and so emptied, only when its size or policy changes.
func (e *Engine) SetOptions(opts Options) {
	opts.normalize()
	if opts.HashMB != e.opts.HashMB || opts.ReplacePolicy != e.opts.ReplacePolicy {
		e.tt = NewTransTableMB(opts.HashMB, opts.ReplacePolicy)
	}
	e.opts = opts
}
