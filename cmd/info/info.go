// Package info implements the "info" command.
package info

import (
	"github.com/spf13/cobra"

	"github.com/tphakala/ebird-recommend/internal/app"
	"github.com/tphakala/ebird-recommend/internal/report"
)

const recentCount = 10

// Command creates the info command, which summarizes the life list.
func Command(ctx *app.Context) *cobra.Command {
	var resolveCodes bool

	cmd := &cobra.Command{
		Use:   "info",
		Short: "Summarize the life list",
		Long:  "Print the number of species on the life list and the most recently seen ones.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			list, err := ctx.LifeList(cmd.Context(), resolveCodes)
			if err != nil {
				return err
			}
			report.LifeList(cmd.OutOrStdout(), list, recentCount)
			return nil
		},
	}

	cmd.Flags().BoolVar(&resolveCodes, "codes", false, "Look up eBird species codes (needs an API key)")

	return cmd
}
