// Command searchbench runs fixed-depth searches over a set of positions and
// reports nodes, time and nodes per second.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"chess-decision-engine/engine"

	"github.com/dylhunn/dragontoothmg"
	"github.com/pkg/profile"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/samber/lo"
	"golang.org/x/sync/errgroup"
)

var benchFENs = []string{
	dragontoothmg.Startpos,
	"r3k2r/p1ppqpb1/bn2pnp1/3PN3/1p2P3/2N2Q1p/PPPBBPPP/R3K2R w KQkq - 0 1",
	"8/2p5/3p4/KP5r/1R3p1k/8/4P1P1/8 w - - 0 1",
	"r3k2r/Pppp1ppp/1b3nbN/nP6/BBP1P3/q4N2/Pp1P2PP/R2Q1RK1 w kq - 0 1",
	"rnbq1k1r/pp1Pbppp/2p5/8/2B5/8/PPP1NnPP/RNBQK2R w KQ - 1 8",
}

type benchResult struct {
	fen     string
	move    dragontoothmg.Move
	score   int32
	nodes   uint64
	elapsed time.Duration
}

func main() {
	depth := flag.Int("depth", 6, "search depth in plies")
	repeat := flag.Int("repeat", 1, "number of passes over the positions")
	fen := flag.String("fen", "", "search only this position")
	parallel := flag.Int("parallel", 1, "searches run concurrently, each with its own engine")
	hashMB := flag.Int("hash", 16, "transposition table size per engine in MB")
	prof := flag.String("profile", "", "write a cpu or mem profile")
	profDir := flag.String("profile-dir", ".", "directory for profile output")
	flag.Parse()

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})

	if *depth <= 0 || *depth > engine.MaxDepth {
		log.Fatal().Int("depth", *depth).Msg("depth out of range")
	}
	switch strings.ToLower(*prof) {
	case "":
	case "cpu":
		defer profile.Start(profile.CPUProfile, profile.ProfilePath(*profDir), profile.NoShutdownHook).Stop()
	case "mem":
		defer profile.Start(profile.MemProfile, profile.ProfilePath(*profDir), profile.NoShutdownHook).Stop()
	default:
		log.Fatal().Str("profile", *prof).Msg("unknown profile kind, want cpu or mem")
	}

	fens := benchFENs
	if *fen != "" {
		fens = []string{*fen}
	}

	var jobs []string
	for i := 0; i < *repeat; i++ {
		jobs = append(jobs, fens...)
	}
	results := make([]benchResult, len(jobs))

	start := time.Now()
	g, ctx := errgroup.WithContext(context.Background())
	g.SetLimit(max(*parallel, 1))
	for i, f := range jobs {
		i, f := i, f
		g.Go(func() error {
			r, err := searchOne(ctx, f, *depth, *hashMB)
			if err != nil {
				return err
			}
			results[i] = r
			log.Info().
				Str("fen", r.fen).
				Str("bestmove", r.move.String()).
				Str("score", engine.ScoreString(r.score)).
				Uint64("nodes", r.nodes).
				Dur("elapsed", r.elapsed).
				Msg("searched")
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		log.Fatal().Err(err).Msg("benchmark failed")
	}
	wall := time.Since(start)

	nodes := lo.SumBy(results, func(r benchResult) uint64 { return r.nodes })
	log.Info().
		Int("searches", len(results)).
		Int("depth", *depth).
		Uint64("nodes", nodes).
		Dur("wall", wall).
		Uint64("nps", uint64(float64(nodes)/max(wall.Seconds(), 1e-9))).
		Msg("done")
}

func searchOne(ctx context.Context, fen string, depth, hashMB int) (benchResult, error) {
	board, err := parseFen(fen)
	if err != nil {
		return benchResult{}, err
	}
	opts := engine.DefaultOptions()
	opts.HashMB = hashMB
	e := engine.New(opts)
	if err := e.SetPosition(board, nil); err != nil {
		return benchResult{}, err
	}
	r := e.ChooseMove(ctx, engine.Limits{Depth: depth})
	return benchResult{fen: fen, move: r.Move, score: r.Score, nodes: r.Nodes, elapsed: r.Elapsed}, nil
}

func parseFen(fen string) (board dragontoothmg.Board, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("invalid fen %q: %v", fen, r)
		}
	}()
	return dragontoothmg.ParseFen(fen), nil
}
