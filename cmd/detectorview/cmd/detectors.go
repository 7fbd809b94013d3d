package cmd

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/roman-kulish/detector-view/internal/layout"
)

var detectorsCmd = &cobra.Command{
	Use:   "detectors",
	Short: "List the built-in detector layouts",
	Args:  cobra.NoArgs,
	RunE:  runDetectors,
}

func init() {
	rootCmd.AddCommand(detectorsCmd)
}

func runDetectors(cmd *cobra.Command, args []string) error {
	registry, err := layout.NewRegistry()
	if err != nil {
		return fmt.Errorf("loading detector layouts: %w", err)
	}

	out := cmd.OutOrStdout()
	for _, typ := range registry.Types() {
		d, err := registry.Lookup(typ)
		if err != nil {
			return err
		}

		fmt.Fprintf(out, "%-16s %-24s %8s sensors\n", d.Type, d.Label, humanize.Comma(int64(d.SensorCount())))
		if verbose {
			for _, h := range d.Layout.Hexagons {
				names := make([]string, 0, len(h.Networks))
				for _, nw := range h.Networks {
					names = append(names, strings.TrimPrefix(nw.Name, h.Name+" "))
				}
				fmt.Fprintf(out, "  %-28s %6s sensors  networks: %s\n",
					h.Name, humanize.Comma(int64(h.SensorCount())), strings.Join(names, ", "))
			}
		}
	}
	return nil
}
