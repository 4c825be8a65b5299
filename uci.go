package main

import (
	"bufio"
	"context"
	"encoding/binary"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"chess-decision-engine/book"
	"chess-decision-engine/engine"

	"github.com/dylhunn/dragontoothmg"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
	"lukechampine.com/frand"
)

const (
	engineName   = "ChessDecisionEngine 0.3"
	engineAuthor = "Goose"

	// Clock assumed for a bare "go" without limits.
	defaultClock = 5 * time.Minute
)

func main() {
	bookPath := flag.String("book", "", "opening book (.pgn, or one line of UCI moves per game)")
	hashMB := flag.Int("hash", engine.DefaultOptions().HashMB, "transposition table size in MB")
	logLevel := flag.String("log-level", "info", "log level: debug, info, warn, error")
	seed := flag.Uint64("seed", 0, "seed for book move selection, 0 = random")
	flag.Parse()

	level, err := zerolog.ParseLevel(*logLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid -log-level %q: %v\n", *logLevel, err)
		os.Exit(2)
	}
	zerolog.SetGlobalLevel(level)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.StampMilli})

	opts := engine.DefaultOptions()
	opts.HashMB = *hashMB
	if *seed != 0 {
		opts.Rand = seededRand(*seed)
	}

	u := newUCI(os.Stdout, opts)
	if *bookPath != "" {
		u.loadBook(*bookPath)
	}
	if err := u.Run(context.Background(), os.Stdin); err != nil {
		log.Fatal().Err(err).Msg("reading commands")
	}
}

func seededRand(seed uint64) engine.Picker {
	key := make([]byte, 32)
	binary.LittleEndian.PutUint64(key, seed)
	return frand.NewCustom(key, 1024, 12)
}

// uci drives an Engine from UCI commands. At most one search runs at a time,
// in its own goroutine, so "stop" and "quit" can interrupt it.
type uci struct {
	outMu sync.Mutex
	out   io.Writer

	eng      *engine.Engine
	book     *book.Book
	bookPath string
	ownBook  bool

	cancel context.CancelFunc
	search *errgroup.Group
}

func newUCI(out io.Writer, opts engine.Options) *uci {
	u := &uci{out: out, ownBook: true}
	opts.OnInfo = u.info
	u.eng = engine.New(opts)
	return u
}

func (u *uci) println(a ...any) {
	u.outMu.Lock()
	defer u.outMu.Unlock()
	fmt.Fprintln(u.out, a...)
}

func (u *uci) printf(format string, a ...any) {
	u.outMu.Lock()
	defer u.outMu.Unlock()
	fmt.Fprintf(u.out, format, a...)
}

// Run reads commands until "quit" or the end of input.
func (u *uci) Run(ctx context.Context, in io.Reader) error {
	defer u.waitSearch()

	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		line := scanner.Text()
		tokens := strings.Fields(line)
		if len(tokens) == 0 { // ignore blank lines
			continue
		}
		log.Debug().Str("cmd", line).Msg("received")

		switch strings.ToLower(tokens[0]) {
		case "uci":
			u.println("id name", engineName)
			u.println("id author", engineAuthor)
			u.printOptions()
			u.println("uciok")
		case "isready":
			u.println("readyok")
		case "ucinewgame":
			u.waitSearch()
			u.eng.Reset()
		case "position":
			u.waitSearch()
			if err := u.position(tokens[1:]); err != nil {
				log.Warn().Err(err).Str("cmd", line).Msg("position ignored")
				u.println("info string", err)
			}
		case "go":
			u.waitSearch()
			u.goCmd(ctx, tokens[1:])
		case "stop":
			u.stopSearch()
		case "quit":
			u.stopSearch()
			return nil
		case "setoption":
			u.waitSearch()
			if err := u.setOption(tokens[1:]); err != nil {
				log.Warn().Err(err).Str("cmd", line).Msg("option ignored")
				u.println("info string", err)
			}
		case "eval":
			u.waitSearch()
			board := u.eng.Position()
			u.printf("info string eval %d (white %d)\n", engine.Evaluate(&board), engine.EvaluateWhite(&board))
		case "d":
			u.waitSearch()
			board := u.eng.Position()
			u.println("info string fen", board.ToFen())
		default:
			u.println("info string Unknown command:", line)
		}
	}
	return scanner.Err()
}

func (u *uci) printOptions() {
	opts := u.eng.Options()
	u.printf("option name Hash type spin default %d min 0 max 65536\n", opts.HashMB)
	u.printf("option name QuiescenceDepth type spin default %d min 0 max %d\n", opts.QuiescenceDepth, engine.MaxDepth)
	u.printf("option name RecaptureOnly type check default %v\n", opts.RecaptureOnly)
	u.printf("option name MoveOverhead type spin default %d min 0 max 5000\n", opts.Time.Overhead.Milliseconds())
	u.printf("option name OwnBook type check default %v\n", u.ownBook)
	bookFile := u.bookPath
	if bookFile == "" {
		bookFile = "<empty>"
	}
	u.printf("option name BookFile type string default %s\n", bookFile)
}

// waitSearch blocks until the running search, if any, has printed its move.
func (u *uci) waitSearch() {
	if u.search == nil {
		return
	}
	if err := u.search.Wait(); err != nil {
		log.Error().Err(err).Msg("search failed")
	}
	u.cancel()
	u.search, u.cancel = nil, nil
}

func (u *uci) stopSearch() {
	if u.cancel != nil {
		u.cancel()
	}
	u.waitSearch()
}

func (u *uci) goCmd(ctx context.Context, args []string) {
	board := u.eng.Position()
	limits, err := parseGo(args, board.Wtomove)
	if err != nil {
		u.println("info string", err)
		return
	}

	searchCtx, cancel := context.WithCancel(ctx)
	g, gctx := errgroup.WithContext(searchCtx)
	g.Go(func() error {
		result := u.eng.ChooseMove(gctx, limits)
		if limits.Infinite {
			// An infinite search reports only once it is stopped.
			<-gctx.Done()
		}
		u.println("bestmove", moveString(result.Move))
		return nil
	})
	u.search, u.cancel = g, cancel
}

func (u *uci) info(info engine.Info) {
	ms := info.Elapsed.Milliseconds()
	nps := info.Nodes * 1000 / uint64(max(ms, 1))
	u.printf("info depth %d score %s nodes %d time %d nps %d pv %s\n",
		info.Depth, engine.ScoreString(info.Score), info.Nodes, ms, nps, engine.MovesString(info.PV))
}

func moveString(m dragontoothmg.Move) string {
	if m == 0 {
		return "0000"
	}
	return m.String()
}

// parseGo reads the arguments of a "go" command. Clock values are in
// milliseconds; only the side to move's clock is used.
func parseGo(args []string, whiteToMove bool) (engine.Limits, error) {
	var limits engine.Limits
	var wtime, btime, winc, binc time.Duration

	for i := 0; i < len(args); i++ {
		token := strings.ToLower(args[i])
		if token == "infinite" {
			limits.Infinite = true
			continue
		}
		if token == "ponder" {
			continue
		}
		if i+1 >= len(args) {
			return limits, fmt.Errorf("malformed go command: %s needs a value", token)
		}
		i++
		value, err := strconv.ParseInt(args[i], 10, 64)
		if err != nil {
			return limits, fmt.Errorf("malformed go command: could not convert %s: %w", token, err)
		}
		ms := time.Duration(value) * time.Millisecond
		switch token {
		case "wtime":
			wtime = ms
		case "btime":
			btime = ms
		case "winc":
			winc = ms
		case "binc":
			binc = ms
		case "movestogo":
			limits.MovesToGo = int(value)
		case "movetime":
			limits.MoveTime = ms
		case "depth":
			limits.Depth = int(value)
		case "nodes":
			limits.Nodes = uint64(max(value, 0))
		default:
			return limits, fmt.Errorf("unknown go subcommand %s", token)
		}
	}

	if whiteToMove {
		limits.Remaining, limits.Increment = wtime, winc
	} else {
		limits.Remaining, limits.Increment = btime, binc
	}

	unlimited := limits.Remaining == 0 && limits.MoveTime == 0 && limits.Depth == 0 && limits.Nodes == 0
	if unlimited && !limits.Infinite {
		limits.Remaining = defaultClock
	}
	return limits, nil
}

// position handles "position startpos|fen <fen> [moves m1 m2 ...]".
func (u *uci) position(args []string) error {
	start, moves, err := parsePosition(args)
	if err != nil {
		return err
	}
	return u.eng.SetPosition(start, moves)
}

func parsePosition(args []string) (dragontoothmg.Board, []dragontoothmg.Move, error) {
	var board dragontoothmg.Board
	if len(args) == 0 {
		return board, nil, fmt.Errorf("malformed position command")
	}

	rest := args[1:]
	switch strings.ToLower(args[0]) {
	case "startpos":
		board = dragontoothmg.ParseFen(dragontoothmg.Startpos)
	case "fen":
		end := len(rest)
		for i, token := range rest {
			if strings.ToLower(token) == "moves" {
				end = i
				break
			}
		}
		if end == 0 {
			return board, nil, fmt.Errorf("invalid fen position")
		}
		var err error
		if board, err = parseFen(strings.Join(rest[:end], " ")); err != nil {
			return board, nil, err
		}
		rest = rest[end:]
	default:
		return board, nil, fmt.Errorf("invalid position subcommand %s", args[0])
	}

	if len(rest) == 0 {
		return board, nil, nil
	}
	if strings.ToLower(rest[0]) != "moves" {
		return board, nil, fmt.Errorf("unexpected %q in position command", rest[0])
	}
	moves := make([]dragontoothmg.Move, 0, len(rest)-1)
	for _, s := range rest[1:] {
		move, err := dragontoothmg.ParseMove(strings.ToLower(s))
		if err != nil {
			return board, nil, fmt.Errorf("move %s: %w", s, err)
		}
		moves = append(moves, move)
	}
	return board, moves, nil
}

// parseFen turns the board library's panics on malformed input into errors.
func parseFen(fen string) (board dragontoothmg.Board, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("invalid fen %q: %v", fen, r)
		}
	}()
	return dragontoothmg.ParseFen(fen), nil
}

func (u *uci) setOption(args []string) error {
	// setoption name <id> [value <x>]
	var name, value []string
	target := &name
	for _, token := range args {
		switch strings.ToLower(token) {
		case "name":
			target = &name
		case "value":
			target = &value
		default:
			*target = append(*target, token)
		}
	}
	id := strings.ToLower(strings.Join(name, ""))
	v := strings.Join(value, " ")

	opts := u.eng.Options()
	switch id {
	case "hash":
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return fmt.Errorf("invalid Hash value %q", v)
		}
		opts.HashMB = n
	case "quiescencedepth":
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return fmt.Errorf("invalid QuiescenceDepth value %q", v)
		}
		opts.QuiescenceDepth = n
	case "recaptureonly":
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid RecaptureOnly value %q", v)
		}
		opts.RecaptureOnly = b
	case "moveoverhead":
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return fmt.Errorf("invalid MoveOverhead value %q", v)
		}
		opts.Time.Overhead = time.Duration(n) * time.Millisecond
	case "ownbook":
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid OwnBook value %q", v)
		}
		u.ownBook = b
		u.applyBook()
		return nil
	case "bookfile":
		u.loadBook(v)
		return nil
	default:
		return fmt.Errorf("unknown option %q", strings.Join(name, " "))
	}
	u.eng.SetOptions(opts)
	return nil
}

// loadBook replaces the opening book. A book that cannot be read is logged
// and the engine plays without one.
func (u *uci) loadBook(path string) {
	u.bookPath = path
	u.book = nil
	if path != "" && path != "<empty>" {
		b, err := book.Load(path)
		if err != nil {
			log.Warn().Err(err).Str("path", path).Msg("running without opening book")
		} else {
			log.Info().Str("path", path).Int("positions", b.Len()).Msg("opening book loaded")
			u.book = b
		}
	}
	u.applyBook()
}

func (u *uci) applyBook() {
	if u.ownBook && u.book != nil {
		u.eng.SetBook(u.book)
		return
	}
	u.eng.SetBook(nil)
}
