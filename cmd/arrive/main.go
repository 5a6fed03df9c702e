package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/vango-dev/arrive/internal/config"
	"github.com/vango-dev/arrive/internal/errors"
	"github.com/vango-dev/arrive/internal/scenario"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

const banner = `
  ┌─┐┬─┐┬─┐┬┬  ┬┌─┐
  ├─┤├┬┘├┬┘│└┐┌┘├┤
  ┴ ┴┴└─┴└─┴ └┘ └─┘
`

// configPath is the --config flag shared by every command.
var configPath string

func main() {
	if err := newRootCmd().Execute(); err != nil {
		errors.Print(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "arrive",
		Short: "Watch elements arrive in and leave a document",
		Long: `arrive replays scenarios against a live document tree and reports
when elements matching CSS selectors arrive or leave.

A scenario is a YAML file with a document, registrations and steps.
Scenarios can be replayed locally, validated, or served over HTTP
with live websocket streams and Prometheus metrics.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to arrive.json (default: $"+config.EnvConfig+" or ./arrive.json)")

	rootCmd.AddCommand(
		runCmd(),
		serveCmd(),
		validateCmd(),
		versionCmd(),
	)
	return rootCmd
}

// loadConfig resolves and validates the configuration.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Resolve(configPath)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// newLoader returns a scenario loader that can also read s3:// URIs.
func newLoader(cfg *config.Config) *scenario.Loader {
	return &scenario.Loader{S3: scenario.NewS3Client(cfg.S3)}
}

// printBanner prints the ASCII art banner.
func printBanner() {
	fmt.Print(banner)
}

// success prints a success message.
func success(format string, args ...any) {
	fmt.Printf("\033[32m✓\033[0m %s\n", fmt.Sprintf(format, args...))
}

// info prints an info message.
func info(format string, args ...any) {
	fmt.Printf("  %s\n", fmt.Sprintf(format, args...))
}

// errorMsg prints an error message.
func errorMsg(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "\033[31m✗\033[0m %s\n", fmt.Sprintf(format, args...))
}
