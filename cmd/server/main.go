// Board game relay server - Main Entry Point
//
// Opens the judge and player TCP endpoints, routes messages between them
// and, when asked, serves a WebSocket bridge for browser spectators.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v3"

	"gamerelay/internal/relay"
	"gamerelay/internal/ws"
	"gamerelay/pkg/logger"
)

var (
	version   = "1.0.0"
	buildTime = "dev"
)

func main() {
	// Load .env if present; a missing file is fine.
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		logger.Relay.Warn("could not load .env file: %v", err)
	}

	cmd := &cli.Command{
		Name:    "gamerelay",
		Usage:   "relay judge and player connections for a turn-based board game",
		Version: fmt.Sprintf("%s (%s)", version, buildTime),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "host",
				Value:   "localhost",
				Usage:   "address both endpoints bind on",
				Sources: cli.EnvVars("RELAY_HOST"),
			},
			&cli.StringFlag{
				Name:    "judge-port",
				Value:   "8124",
				Usage:   "judge endpoint port",
				Sources: cli.EnvVars("RELAY_JUDGE_PORT"),
			},
			&cli.StringFlag{
				Name:    "player-port",
				Value:   "8123",
				Usage:   "player endpoint port",
				Sources: cli.EnvVars("RELAY_PLAYER_PORT"),
			},
			&cli.StringFlag{
				Name:  "ws-addr",
				Usage: "optional listen address for the WebSocket spectator bridge, e.g. localhost:8125",
			},
			&cli.StringFlag{
				Name:  "log-level",
				Value: "INFO",
				Usage: "DEBUG, INFO, WARN or ERROR",
			},
			&cli.StringFlag{
				Name:  "log-file",
				Usage: "log file path (optional)",
			},
		},
		Action: run,
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		logger.Relay.Fatal("%v", err)
	}
}

func run(ctx context.Context, cmd *cli.Command) error {
	logger.SetGlobalLogLevel(logger.ParseLevel(cmd.String("log-level")))
	if path := cmd.String("log-file"); path != "" {
		if err := logger.Relay.SetFile(path); err != nil {
			return fmt.Errorf("failed to set log file: %w", err)
		}
	}

	logger.Relay.Info("starting board game relay v%s", version)

	host := cmd.String("host")
	r := relay.New(
		fmt.Sprintf("%s:%s", host, cmd.String("judge-port")),
		fmt.Sprintf("%s:%s", host, cmd.String("player-port")),
	)
	if err := r.Start(); err != nil {
		return err
	}

	go logEvents(r)

	if wsAddr := cmd.String("ws-addr"); wsAddr != "" {
		bridge := ws.NewBridge(r.Games())
		mux := http.NewServeMux()
		mux.Handle("/watch", bridge)
		go func() {
			logger.Relay.Info("spectator bridge listening on ws://%s/watch", wsAddr)
			if err := http.ListenAndServe(wsAddr, mux); err != nil {
				logger.Relay.Error("spectator bridge stopped: %v", err)
			}
		}()
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	logger.Relay.Info("received shutdown signal, stopping relay...")
	return r.Stop()
}

// logEvents drains the relay's lifecycle channel for the operator log.
func logEvents(r *relay.Relay) {
	for ev := range r.Events() {
		switch ev.Kind {
		case relay.EventGameInitialised:
			logger.Relay.Info("game %s is live", ev.GameID)
		case relay.EventGameOver:
			logger.Relay.Info("game %s finished", ev.GameID)
		}
	}
}
