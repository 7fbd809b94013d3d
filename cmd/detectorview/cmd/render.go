package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roman-kulish/detector-view/cmd/detectorview/app"
	"github.com/roman-kulish/detector-view/internal/detector"
)

var (
	configPath  string
	outputDir   string
	displayMode string
	rebuild     bool
)

var renderCmd = &cobra.Command{
	Use:   "render",
	Short: "Render every frame of a measurement source",
	Long: `Render every frame of the configured source into the output directory.
Display and render modes produce SVG files, the fast mode produces PNG.

Examples:
  detectorview render -c detectorview.yaml
  detectorview render -c detectorview.yaml --mode fast -o frames/
  detectorview render -v -c detectorview.yaml --rebuild`,
	Args: cobra.NoArgs,
	RunE: runRender,
}

func init() {
	rootCmd.AddCommand(renderCmd)

	renderCmd.Flags().StringVarP(&configPath, "config", "c", "",
		"path to the configuration file")
	renderCmd.Flags().StringVarP(&outputDir, "output", "o", "",
		"output directory, overrides the configuration")
	renderCmd.Flags().StringVar(&displayMode, "mode", "",
		"display mode: display, render or fast; overrides the configuration")
	renderCmd.Flags().BoolVar(&rebuild, "rebuild", false,
		"rebuild the detector geometry for every frame")

	_ = renderCmd.MarkFlagRequired("config")
}

func runRender(cmd *cobra.Command, args []string) error {
	config, err := app.LoadConfig(configPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration file: %w", err)
	}

	if !verbose && logLevel == "" && config.Settings.LogLevel != "" {
		if err = setLogLevel(config.Settings.LogLevel); err != nil {
			return err
		}
	}
	if outputDir != "" {
		config.Output.Dir = outputDir
	}
	if displayMode != "" {
		if config.Panel.DisplayMode, err = detector.ParseDisplayMode(displayMode); err != nil {
			return err
		}
	}

	return app.Run(cmd.Context(), config, rebuild, logger)
}
