package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vango-dev/arrive/internal/errors"
)

func validateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <scenario>...",
		Short: "Check scenarios without replaying them",
		Long: `Parse and validate one or more scenarios, reporting the first
problem in each with its line number.

Examples:
  arrive validate scenarios/*.yaml`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(cmd.Context(), args)
		},
	}
}

func runValidate(ctx context.Context, uris []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if ctx == nil {
		ctx = context.Background()
	}
	loader := newLoader(cfg)

	failed := 0
	for _, uri := range uris {
		sc, err := loader.Load(ctx, uri)
		if err != nil {
			failed++
			errorMsg("%s: %s", uri, errors.FromError(err, "A200").FormatCompact())
			continue
		}
		success("%s: %d registrations, %d steps", uri, len(sc.Registrations), len(sc.Steps))
	}

	if failed > 0 {
		return errors.New("A200").WithDetail(pluralize(failed, "invalid scenario"))
	}
	return nil
}

func pluralize(n int, noun string) string {
	if n == 1 {
		return "1 " + noun
	}
	return fmt.Sprintf("%d %ss", n, noun)
}
