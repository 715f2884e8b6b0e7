// Package hotspots implements the "hotspots" command.
package hotspots

import (
	"github.com/spf13/cobra"

	"github.com/tphakala/ebird-recommend/internal/app"
	"github.com/tphakala/ebird-recommend/internal/report"
)

const defaultLimit = 20

// Command creates the hotspots command.
func Command(ctx *app.Context) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "hotspots",
		Short: "List eBird hotspots near the search location",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := ctx.Finder()
			if err != nil {
				return err
			}

			search := ctx.Settings.Search
			spots, err := f.Hotspots(cmd.Context(), search.Latitude, search.Longitude, search.Radius)
			if err != nil {
				return err
			}
			report.Hotspots(cmd.OutOrStdout(), spots, limit)
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", defaultLimit, "Maximum hotspots to print, 0 for all")

	return cmd
}
