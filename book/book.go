// Package book loads opening books and answers which moves they suggest for a
// position.
package book

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/dylhunn/dragontoothmg"
	"github.com/notnil/chess"
	"github.com/rs/zerolog/log"
	"github.com/samber/lo"
)

// ErrEmptyBook is returned when a book source holds no usable moves.
var ErrEmptyBook = errors.New("opening book has no moves")

var moveNumbers = regexp.MustCompile(`([0-9]+\.)`)

// Book maps a position hash to the moves played from it.
type Book struct {
	moves map[uint64][]dragontoothmg.Move
}

func New() *Book {
	return &Book{moves: make(map[uint64][]dragontoothmg.Move)}
}

// Load reads a book file. Files ending in .pgn are read as PGN games, anything
// else as one line of UCI moves per game.
func Load(path string) (*Book, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open book: %w", err)
	}
	defer f.Close()

	if strings.EqualFold(filepath.Ext(path), ".pgn") {
		return LoadPGN(f)
	}
	return LoadLines(f)
}

// LoadLines reads games written as UCI moves, e.g. "1.e2e4 e7e5 2.g1f3".
// For comma separated records only the last field is used.
func LoadLines(r io.Reader) (*Book, error) {
	b := New()
	scanner := bufio.NewScanner(r)
	for lineNo := 1; scanner.Scan(); lineNo++ {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if i := strings.LastIndexByte(line, ','); i >= 0 {
			line = line[i+1:]
		}
		line = moveNumbers.ReplaceAllString(line, " ")
		if n, err := b.AddLine(strings.Fields(line)); err != nil {
			log.Warn().Err(err).Int("line", lineNo).Int("used", n).Msg("book line truncated")
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read book: %w", err)
	}
	if b.Len() == 0 {
		return nil, ErrEmptyBook
	}
	return b, nil
}

// LoadPGN reads every game of a PGN stream into the book.
func LoadPGN(r io.Reader) (*Book, error) {
	games, err := chess.GamesFromPGN(r)
	if err != nil {
		return nil, fmt.Errorf("parse pgn: %w", err)
	}
	b := New()
	for i, game := range games {
		positions := game.Positions()
		line := make([]string, 0, len(game.Moves()))
		for j, move := range game.Moves() {
			line = append(line, chess.UCINotation{}.Encode(positions[j], move))
		}
		if n, err := b.AddLine(line); err != nil {
			log.Warn().Err(err).Int("game", i+1).Int("used", n).Msg("book game truncated")
		}
	}
	if b.Len() == 0 {
		return nil, ErrEmptyBook
	}
	return b, nil
}

// AddLine plays moves from the start position, recording each one as a book
// move of the position before it. The line ends at the first move that does
// not parse or is not legal; n is the number of moves used.
func (b *Book) AddLine(moves []string) (n int, err error) {
	board := dragontoothmg.ParseFen(dragontoothmg.Startpos)
	for _, s := range moves {
		move, err := dragontoothmg.ParseMove(s)
		if err != nil {
			return n, fmt.Errorf("move %d %q: %w", n+1, s, err)
		}
		if !lo.Contains(board.GenerateLegalMoves(), move) {
			return n, fmt.Errorf("move %d %q is not legal in %s", n+1, s, board.ToFen())
		}
		hash := board.Hash()
		if !lo.Contains(b.moves[hash], move) {
			b.moves[hash] = append(b.moves[hash], move)
		}
		board.Apply(move)
		n++
	}
	return n, nil
}

// Lookup returns the book moves for board, nil when it is out of book.
func (b *Book) Lookup(board *dragontoothmg.Board) []dragontoothmg.Move {
	return b.moves[board.Hash()]
}

// Len is the number of positions with at least one book move.
func (b *Book) Len() int {
	return len(b.moves)
}
