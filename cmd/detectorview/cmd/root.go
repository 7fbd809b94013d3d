package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	verbose  bool
	logLevel string

	level  slog.LevelVar
	logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: &level}))
)

var rootCmd = &cobra.Command{
	Use:   "detectorview",
	Short: "Detector sensor array visualization",
	Long: `Render hexagonal detector sensor arrays colored by per-channel
measurements, as interactive SVG, static SVG or PNG.

Examples:
  detectorview detectors                      # List the built-in detector layouts
  detectorview schemes                        # List the color schemes
  detectorview render -c detectorview.yaml    # Render every frame of a source`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return setLogLevel(logLevel)
	},
}

// Execute runs the root command and logs the error it fails with.
func Execute(ctx context.Context) error {
	err := rootCmd.ExecuteContext(ctx)
	if err != nil {
		logger.Error(err.Error())
	}
	return err
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn or error")
}

// setLogLevel applies s, or the debug level with --verbose. An empty s
// keeps the current level.
func setLogLevel(s string) error {
	if verbose {
		level.Set(slog.LevelDebug)
		return nil
	}
	if s == "" {
		return nil
	}
	var l slog.Level
	if err := l.UnmarshalText([]byte(s)); err != nil {
		return fmt.Errorf("invalid log level %q: %w", s, err)
	}
	level.Set(l)
	return nil
}
