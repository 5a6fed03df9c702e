package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/vango-dev/arrive/internal/stream"
)

func serveCmd() *cobra.Command {
	var (
		port int
		host string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve scenario replays over HTTP",
		Long: `Start an HTTP server that replays scenarios on request.

Routes:
  GET  /healthz              liveness probe
  GET  /metrics              Prometheus metrics
  POST /replay               replay the YAML request body
  GET  /watch?scenario=NAME  websocket stream of one replay
  GET  /events               websocket stream of every replay

Examples:
  arrive serve
  arrive serve --port=8080 --host=0.0.0.0`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), port, host)
		},
	}

	cmd.Flags().IntVarP(&port, "port", "p", 0, "Port to listen on (default from arrive.json)")
	cmd.Flags().StringVarP(&host, "host", "H", "", "Host to bind to (default from arrive.json)")

	return cmd
}

func runServe(ctx context.Context, port int, host string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if port > 0 {
		cfg.Server.Port = port
	}
	if host != "" {
		cfg.Server.Host = host
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv, err := stream.New(cfg,
		stream.WithLogger(cfg.Logger(os.Stderr)),
		stream.WithLoader(newLoader(cfg)),
	)
	if err != nil {
		return err
	}

	printBanner()
	fmt.Println("  serve")
	fmt.Println()
	info("Listening on http://%s", cfg.ServerAddress())
	if cfg.Metrics.Enabled {
		info("Metrics at %s", cfg.Metrics.Path)
	}
	fmt.Println()

	return srv.ListenAndServe(ctx)
}
