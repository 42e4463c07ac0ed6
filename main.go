// Connect3 - a dynamic three-in-a-row game with a learning engine.
//
// Pieces never drop in: both sides start with four pieces on the board and
// slide one piece per turn to an adjacent empty cell. Three in a row wins.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/rs/zerolog"

	"connect3/internal/board"
	"connect3/internal/config"
	"connect3/internal/eval"
	"connect3/internal/game"
	"connect3/internal/relay"
	"connect3/internal/search"
	"connect3/internal/ttable"
)

var (
	configPath = flag.String("config", "", "path to YAML config file")
	mode       = flag.String("mode", "pve", "pvp, pve, watch or remote")
	side       = flag.String("side", "white", "side the human (or local engine) plays")
	boardSize  = flag.String("board", "", "board size, small or large (overrides config)")
	gameID     = flag.String("game", "", "relay game id for remote play")
	verbose    = flag.Bool("v", false, "debug logging")
)

func main() {
	flag.Parse()
	log := newLogger(*verbose)

	cfg, err := loadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("bad configuration")
	}

	tt := ttable.Open(cfg.DBPath, log)
	defer tt.Close()
	engine := search.New(tt, eval.New(cfg.Weights))
	engine.OnInfo = func(info search.Info) {
		log.Debug().
			Int("depth", info.Depth).
			Int("score", info.Score).
			Uint64("nodes", info.Nodes).
			Str("move", info.Move.Format(cfg.Size)).
			Msg("search progress")
	}

	local, err := board.ParsePlayer(*side)
	if err != nil {
		log.Fatal().Err(err).Msg("bad -side flag")
	}

	white, black, cleanup, err := buildAgents(cfg, engine, local, log)
	if err != nil {
		log.Fatal().Err(err).Msg("setting up game")
	}
	defer cleanup()

	m := &game.Match{
		White:  white,
		Black:  black,
		Budget: cfg.Budget.Std(),
		PlyCap: cfg.PlyCap,
		OnTurn: func(b board.Board) {
			fmt.Println()
			fmt.Println(b)
		},
	}
	rec, err := m.Play(cfg.Size)
	if err != nil {
		log.Fatal().Err(err).Msg("game aborted")
	}

	switch {
	case rec.Draw:
		fmt.Println("\nDraw.")
	default:
		fmt.Printf("\n%s wins after %d moves.\n", rec.Winner, len(rec.Moves))
	}
}

func loadConfig() (*config.Config, error) {
	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	if *boardSize != "" {
		sz, err := board.ParseSize(*boardSize)
		if err != nil {
			return nil, err
		}
		cfg.Size = sz
	}
	return cfg, nil
}

// buildAgents wires up both sides for the selected mode. The cleanup func
// closes any relay connection.
func buildAgents(cfg *config.Config, engine *search.Engine, local board.Player, log zerolog.Logger) (white, black game.Agent, cleanup func(), err error) {
	cleanup = func() {}
	engineAgent := game.NewEngineAgent(engine)
	human := func(p board.Player) game.Agent {
		return game.NewHumanAgent(p, os.Stdin, os.Stdout)
	}

	switch *mode {
	case "pvp":
		return human(board.White), human(board.Black), cleanup, nil
	case "watch":
		return engineAgent, engineAgent, cleanup, nil
	case "pve":
		if local == board.White {
			return human(board.White), engineAgent, cleanup, nil
		}
		return engineAgent, human(board.Black), cleanup, nil
	case "remote":
		if *gameID == "" {
			return nil, nil, cleanup, fmt.Errorf("remote play needs -game")
		}
		client, err := relay.Dial(cfg.Relay.Addr, *gameID, cfg.Relay.Timeout.Std(), log)
		if err != nil {
			return nil, nil, cleanup, err
		}
		cleanup = func() { client.Close() }
		remote := relay.NewRemoteAgent(client, local.Opponent())
		if local == board.White {
			return human(board.White), remote, cleanup, nil
		}
		return remote, human(board.Black), cleanup, nil
	default:
		return nil, nil, cleanup, fmt.Errorf("unknown mode %q", *mode)
	}
}

func newLogger(verbose bool) zerolog.Logger {
	level := zerolog.InfoLevel
	if verbose {
		level = zerolog.DebugLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		Level(level).
		With().Timestamp().Logger()
}
