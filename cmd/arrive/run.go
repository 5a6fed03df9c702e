package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/vango-dev/arrive/internal/scenario"
)

func runCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "run <scenario>",
		Short: "Replay a scenario and print its events",
		Long: `Replay a scenario on a manual clock and print every handler
invocation in firing order.

The scenario can be a local file, "-" for standard input, or an
s3://bucket/key URI.

Examples:
  arrive run scenarios/list.yaml
  arrive run --json s3://my-bucket/scenarios/list.yaml`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScenario(cmd.Context(), args[0], asJSON, cmd.OutOrStdout())
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print events as JSON lines")

	return cmd
}

func runScenario(ctx context.Context, uri string, asJSON bool, w io.Writer) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	defaults, err := cfg.EngineDefaults()
	if err != nil {
		return err
	}
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	sc, err := newLoader(cfg).Load(ctx, uri)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(w)
	sink := func(ev scenario.Event) {
		if asJSON {
			enc.Encode(ev)
			return
		}
		fmt.Fprintln(w, formatEvent(ev))
	}

	if !asJSON {
		printBanner()
		info("scenario %s: %d registrations, %d steps", sc.Name, len(sc.Registrations), len(sc.Steps))
		fmt.Println()
	}

	replayer := scenario.NewReplayer(
		scenario.WithLogger(cfg.Logger(os.Stderr)),
		scenario.WithDefaults(defaults),
		scenario.WithSink(sink),
	)
	events, err := replayer.Replay(ctx, sc)
	if err != nil {
		return err
	}

	if !asJSON {
		fmt.Println()
		success("%d events", len(events))
	}
	return nil
}

// formatEvent renders one event as a fixed-width line.
func formatEvent(ev scenario.Event) string {
	what := ev.Node
	if ev.Timeout {
		what = "(timeout)"
	}
	return fmt.Sprintf("%4d  %8s  step %-3d %-6s  %-12s %s", ev.Seq, ev.At, ev.Step, ev.Kind, ev.Registration, what)
}
