// Command perft counts leaf nodes of the legal move tree, to check the move
// generator the engine searches with against published totals.
package main

import (
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/dylhunn/dragontoothmg"
	"github.com/pkg/profile"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/exp/slices"
)

func main() {
	fen := flag.String("fen", dragontoothmg.Startpos, "FEN string (defaults to initial position)")
	depth := flag.Int("depth", 0, "perft depth (required)")
	divide := flag.Bool("divide", false, "print per-move node counts at the root")
	repeat := flag.Int("repeat", 1, "repeat perft N times for steadier timings")
	cpuProf := flag.String("cpuprofile-dir", "", "write a CPU profile into this directory")
	flag.Parse()

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})

	if *depth <= 0 {
		log.Fatal().Msg("-depth must be > 0")
	}
	if *cpuProf != "" {
		defer profile.Start(profile.CPUProfile, profile.ProfilePath(*cpuProf), profile.NoShutdownHook).Stop()
	}

	board, err := parseFen(*fen)
	if err != nil {
		log.Fatal().Err(err).Msg("parsing position")
	}

	if *divide {
		counts := perftDivide(&board, *depth)
		var sum uint64
		for _, c := range counts {
			fmt.Printf("%s: %d\n", c.move, c.nodes)
			sum += c.nodes
		}
		fmt.Printf("Total: %d\n", sum)
		return
	}

	var nodes uint64
	start := time.Now()
	for i := 0; i < *repeat; i++ {
		nodes += perft(&board, *depth)
	}
	elapsed := time.Since(start)
	log.Info().
		Int("depth", *depth).
		Uint64("nodes", nodes/uint64(*repeat)).
		Dur("elapsed", elapsed).
		Float64("nps", float64(nodes)/elapsed.Seconds()).
		Msg("perft")
}

func perft(b *dragontoothmg.Board, depth int) uint64 {
	moves := b.GenerateLegalMoves()
	if depth == 1 {
		return uint64(len(moves))
	}
	var nodes uint64
	for _, move := range moves {
		undo := b.Apply(move)
		nodes += perft(b, depth-1)
		undo()
	}
	return nodes
}

type moveCount struct {
	move  string
	nodes uint64
}

func perftDivide(b *dragontoothmg.Board, depth int) []moveCount {
	var counts []moveCount
	for _, move := range b.GenerateLegalMoves() {
		var nodes uint64 = 1
		if depth > 1 {
			undo := b.Apply(move)
			nodes = perft(b, depth-1)
			undo()
		}
		counts = append(counts, moveCount{move: move.String(), nodes: nodes})
	}
	slices.SortFunc(counts, func(a, b moveCount) int { return strings.Compare(a.move, b.move) })
	return counts
}

func parseFen(fen string) (board dragontoothmg.Board, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("invalid fen %q: %v", fen, r)
		}
	}()
	return dragontoothmg.ParseFen(fen), nil
}
