// Package notable implements the "notable" command.
package notable

import (
	"github.com/spf13/cobra"

	"github.com/tphakala/ebird-recommend/internal/app"
	"github.com/tphakala/ebird-recommend/internal/report"
)

// Command creates the notable command, listing rare or unusual sightings.
func Command(ctx *app.Context) *cobra.Command {
	return &cobra.Command{
		Use:   "notable",
		Short: "List recent notable sightings near the search location",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := ctx.Finder()
			if err != nil {
				return err
			}

			search := ctx.Settings.Search
			obs, err := f.Notable(cmd.Context(), search.Latitude, search.Longitude, search.Radius, search.Days)
			if err != nil {
				return err
			}
			report.Observations(cmd.OutOrStdout(), obs)
			return nil
		},
	}
}
