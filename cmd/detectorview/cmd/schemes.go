package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roman-kulish/detector-view/internal/colorscale"
)

var schemesCmd = &cobra.Command{
	Use:   "schemes",
	Short: "List the color schemes",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		for _, key := range colorscale.Keys() {
			s, err := colorscale.Lookup(key)
			if err != nil {
				return err
			}

			marker := ""
			if key == colorscale.DefaultScheme {
				marker = " (default)"
			}
			fmt.Fprintf(out, "%-12s %s%s  low %s high %s invalid %s\n", s.Key, s.Label, marker,
				colorscale.Hex(s.Low), colorscale.Hex(s.High), colorscale.Hex(s.Invalid))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(schemesCmd)
}
