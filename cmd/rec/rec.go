// Package rec implements the "rec" command.
package rec

import (
	"github.com/goccy/go-json"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/tphakala/ebird-recommend/internal/app"
	"github.com/tphakala/ebird-recommend/internal/finder"
	"github.com/tphakala/ebird-recommend/internal/recommend"
	"github.com/tphakala/ebird-recommend/internal/report"
)

type options struct {
	lifersOnly bool
	notable    string
	jsonOutput bool
}

// Command creates the rec command, which ranks nearby species to chase.
func Command(ctx *app.Context) *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:   "rec",
		Short: "Recommend nearby species to chase",
		Long: "Rank recent sightings near the search location. Species missing from the life list\n" +
			"score as lifers; notable sightings are flagged. Each species is listed once, at its best location.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			recs, err := run(cmd, ctx, opts)
			if err != nil {
				return err
			}
			if opts.jsonOutput {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(recs)
			}
			report.Recommendations(cmd.OutOrStdout(), recs)
			return nil
		},
	}

	cmd.Flags().IntVarP(&ctx.Settings.Search.Top, "top", "n", ctx.Settings.Search.Top, "Maximum recommendations, 0 for all")
	cmd.Flags().BoolVar(&opts.lifersOnly, "lifers-only", false, "Only species missing from the life list")
	cmd.Flags().StringVar(&opts.notable, "notable", string(finder.FilterAll), "Notable filter: all, yes or no")
	cmd.Flags().BoolVar(&opts.jsonOutput, "json", false, "Print recommendations as JSON")

	if err := viper.BindPFlag("search.top", cmd.Flags().Lookup("top")); err != nil {
		panic(err)
	}

	return cmd
}

func run(cmd *cobra.Command, ctx *app.Context, opts *options) ([]recommend.Recommendation, error) {
	notable, err := finder.ParseFilterMode(opts.notable)
	if err != nil {
		return nil, err
	}
	lifer := finder.FilterAll
	if opts.lifersOnly {
		lifer = finder.FilterYes
	}

	list, err := ctx.LifeList(cmd.Context(), false)
	if err != nil {
		return nil, err
	}
	f, err := ctx.Finder()
	if err != nil {
		return nil, err
	}

	search := ctx.Settings.Search
	recs, err := f.Recommend(cmd.Context(), finder.Query{
		Lat:      search.Latitude,
		Lng:      search.Longitude,
		RadiusKm: search.Radius,
		Days:     search.Days,
		Top:      search.Top,
		Lifer:    lifer,
		Notable:  notable,
		Seen:     list,
	})
	if err != nil {
		return nil, err
	}
	if recs == nil {
		recs = []recommend.Recommendation{}
	}
	return recs, nil
}
