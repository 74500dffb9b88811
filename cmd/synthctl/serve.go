package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/cwbudde/algo-synthctl/player"
	"github.com/cwbudde/algo-synthctl/score"
	"github.com/cwbudde/algo-synthctl/server"
)

var (
	serveAddr   string
	serveEvents string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP control server",
	Long: `Start an HTTP server exposing the loaded settings and a player.
Score events are written to stdout, or appended to --events; logs go to
stderr.

Example:
  synthctl serve --addr :8080 --preset lead.json | csound-bridge`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (default from SYNTHCTL_ADDR or :8080)")
	serveCmd.Flags().StringVar(&serveEvents, "events", "", "Append score events to this file instead of stdout")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if serveAddr != "" {
		cfg.Addr = serveAddr
	}
	s, err := loadSettings(cfg)
	if err != nil {
		return err
	}
	logger := newLogger()

	var out io.Writer = os.Stdout
	if serveEvents != "" {
		f, err := os.OpenFile(serveEvents, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return fmt.Errorf("open events file: %w", err)
		}
		defer f.Close()
		out = f
	}
	sink := score.NewWriterSink(out)

	pcfg := cfg.PlayerConfig()
	pcfg.Logger = logger
	p, err := player.New(sink, pcfg)
	if err != nil {
		return err
	}
	srv, err := server.New(s, p, logger)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := srv.Run(ctx, cfg.Addr); err != nil {
		return err
	}
	return sink.Err()
}
