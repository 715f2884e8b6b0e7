// Package hotspot implements the "hotspot" command.
package hotspot

import (
	"github.com/spf13/cobra"

	"github.com/tphakala/ebird-recommend/internal/app"
	"github.com/tphakala/ebird-recommend/internal/report"
)

const defaultChecklists = 10

// Command creates the hotspot command, which shows recent activity at one location.
func Command(ctx *app.Context) *cobra.Command {
	var checklists int

	cmd := &cobra.Command{
		Use:   "hotspot <locId>",
		Short: "Show recent sightings and checklists at a hotspot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := ctx.Finder()
			if err != nil {
				return err
			}

			detail, err := f.HotspotDetail(cmd.Context(), args[0], ctx.Settings.Search.Days, checklists)
			if err != nil {
				return err
			}
			report.HotspotDetail(cmd.OutOrStdout(), args[0], detail)
			return nil
		},
	}

	cmd.Flags().IntVar(&checklists, "checklists", defaultChecklists, "Number of recent checklists to show")

	return cmd
}
