// Command analyze runs a one-shot analysis of a position from an SGF file:
// it starts the engine, sends a single query for the position at the chosen
// move number, and prints a ranked move table.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/namsral/flag"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/domino14/katabroker/broker"
	"github.com/domino14/katabroker/engine"
	"github.com/domino14/katabroker/katago"
	"github.com/domino14/katabroker/sgf"
)

var visitsLevels = map[string]int{
	"gut":      500,
	"read":     1000,
	"deepread": 10000,
}

func main() {
	fs := flag.NewFlagSet("analyze", flag.ExitOnError)
	enginePath := fs.String("engine-path", "katago", "path to the katago binary")
	modelPath := fs.String("model-path", "default_model.bin", "path to the katago model file")
	engineConfigPath := fs.String("engine-config-path", "analysis.cfg", "path to the katago analysis config file")
	moveNum := fs.Int("move", -1, "move number to analyze; 0 is the initial position")
	level := fs.String("level", "gut", "analysis depth: gut (500 visits), read (1000), deepread (10000)")
	timeout := fs.Duration("timeout", 3*time.Minute, "deadline for the analysis")
	debug := fs.Bool("debug", false, "enable debug logging")
	fs.Parse(os.Args[1:])

	if *debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}

	if fs.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: analyze [flags] <game.sgf>")
		os.Exit(2)
	}
	visits, ok := visitsLevels[*level]
	if !ok {
		log.Fatal().Str("level", *level).Msg("unknown visits level")
	}

	game, err := sgf.ParseFile(fs.Arg(0))
	if err != nil {
		log.Fatal().Err(err).Msg("could not parse SGF file")
	}
	if *moveNum < 0 || *moveNum > len(game.Moves) {
		log.Fatal().Int("move", *moveNum).Int("game-moves", len(game.Moves)).
			Msg("move number out of range; pass -move between 0 and the number of moves")
	}

	eng, err := engine.Start(*enginePath, *modelPath, *engineConfigPath)
	if err != nil {
		log.Fatal().Err(err).Msg("could not start analysis engine")
	}
	b := broker.New(eng)

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()
	resp, err := b.AnalyzeRequest(ctx, broker.Request{
		Visits:        visits,
		ColoredMoves:  game.MovesBefore(*moveNum),
		InitialPlayer: game.InitialPlayer,
		InitialStones: game.InitialStones,
		Komi:          &game.Komi,
		Rules:         game.Rules,
		BoardSize:     game.BoardSize,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("analysis failed")
	}

	fmt.Printf("Position after move %d (%d visits):\n\n", *moveNum, visits)
	fmt.Println(katago.MoveTable(resp, 5))
	ranked := katago.RankedMoves(resp)
	if len(ranked) > 0 {
		player := "Black"
		if resp.RootInfo.CurrentPlayer == katago.White {
			player = "White"
		}
		fmt.Printf("Best move for %s: %s\n", player, ranked[0].Move)
	}

	eng.Stop()
	select {
	case <-b.Done():
	case <-time.After(5 * time.Second):
		eng.Kill()
	}
}
