package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/tphakala/ebird-recommend/cmd/cache"
	"github.com/tphakala/ebird-recommend/cmd/configcmd"
	"github.com/tphakala/ebird-recommend/cmd/hotspot"
	"github.com/tphakala/ebird-recommend/cmd/hotspots"
	"github.com/tphakala/ebird-recommend/cmd/info"
	"github.com/tphakala/ebird-recommend/cmd/notable"
	"github.com/tphakala/ebird-recommend/cmd/rec"
	"github.com/tphakala/ebird-recommend/cmd/serve"
	"github.com/tphakala/ebird-recommend/internal/app"
	"github.com/tphakala/ebird-recommend/internal/buildinfo"
	"github.com/tphakala/ebird-recommend/internal/conf"
	"github.com/tphakala/ebird-recommend/internal/errors"
	"github.com/tphakala/ebird-recommend/internal/logger"
	"github.com/tphakala/ebird-recommend/internal/telemetry"
)

// RootCommand creates and returns the root command
func RootCommand(ctx *app.Context, build *buildinfo.Context) *cobra.Command {
	var (
		noCache bool
		central *logger.CentralLogger
	)

	rootCmd := &cobra.Command{
		Use:           "ebird-recommend",
		Short:         "Find the best nearby birds to chase",
		Long:          "Rank recent eBird sightings near a location by recency, report frequency and distance, favouring species missing from your life list.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Set up the global flags for the root command.
	if err := setupFlags(rootCmd, ctx.Settings, &noCache); err != nil {
		panic(err)
	}

	subcommands := []*cobra.Command{
		info.Command(ctx),
		hotspots.Command(ctx),
		hotspot.Command(ctx),
		notable.Command(ctx),
		rec.Command(ctx),
		serve.Command(ctx, build),
		cache.Command(ctx),
		configcmd.Command(ctx),
		versionCommand(build),
	}
	rootCmd.AddCommand(subcommands...)

	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		if noCache {
			ctx.Settings.Cache.Enabled = false
		}

		if skipsSetup(cmd) {
			return nil
		}

		var err error
		central, err = initialize(ctx.Settings, build)
		return err
	}

	rootCmd.PersistentPostRunE = func(cmd *cobra.Command, args []string) error {
		err := ctx.Close()
		if central != nil {
			if cerr := central.Close(); cerr != nil && err == nil {
				err = cerr
			}
		}
		return err
	}

	return rootCmd
}

// initialize validates the merged settings and sets up logging and error reporting.
func initialize(settings *conf.Settings, build *buildinfo.Context) (*logger.CentralLogger, error) {
	if settings.Debug {
		settings.Logging.DefaultLevel = string(logger.LogLevelDebug)
		if settings.Logging.Console != nil {
			settings.Logging.Console.Level = string(logger.LogLevelDebug)
		}
	}

	if err := conf.ValidateSettings(settings); err != nil {
		return nil, errors.New(err).
			Component("cli").
			Category(errors.CategoryValidation).
			Build()
	}

	central, err := logger.NewCentralLogger(&settings.Logging)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logging: %w", err)
	}
	logger.SetGlobal(central)

	if err := telemetry.InitSentry(settings, build.GetVersion()); err != nil {
		// Error reporting is optional; keep going without it
		central.Module("telemetry").Warn("sentry disabled", logger.Error(err))
	}

	return central, nil
}

// skipsSetup reports whether cmd or one of its parents opts out of setup.
func skipsSetup(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if _, ok := c.Annotations[app.SkipSetupAnnotation]; ok {
			return true
		}
	}
	return false
}

// setupFlags defines flags that are global to the command line interface
func setupFlags(rootCmd *cobra.Command, settings *conf.Settings, noCache *bool) error {
	flags := rootCmd.PersistentFlags()
	flags.BoolVarP(&settings.Debug, "debug", "d", settings.Debug, "Enable debug output")
	flags.StringVar(&settings.EBird.APIKey, "api-key", settings.EBird.APIKey, "eBird API key (default from EBIRD_API_KEY)")
	flags.Float64Var(&settings.Search.Latitude, "lat", settings.Search.Latitude, "Search latitude")
	flags.Float64Var(&settings.Search.Longitude, "lng", settings.Search.Longitude, "Search longitude")
	flags.Float64VarP(&settings.Search.Radius, "radius", "r", settings.Search.Radius, "Search radius in km")
	flags.IntVar(&settings.Search.Days, "days", settings.Search.Days, "Days back to search")
	flags.StringVar(&settings.LifeList.Path, "csv", settings.LifeList.Path, "Path to the eBird life list export (MyEBirdData.csv)")
	flags.DurationVar(&settings.Cache.TTL, "cache-ttl", settings.Cache.TTL, "Lifetime of cached eBird responses")
	flags.BoolVar(noCache, "no-cache", false, "Bypass cached eBird responses")

	bindings := map[string]string{
		"debug":            "debug",
		"ebird.apikey":     "api-key",
		"search.latitude":  "lat",
		"search.longitude": "lng",
		"search.radius":    "radius",
		"search.days":      "days",
		"lifelist.path":    "csv",
		"cache.ttl":        "cache-ttl",
	}
	for key, name := range bindings {
		if err := viper.BindPFlag(key, flags.Lookup(name)); err != nil {
			return fmt.Errorf("error binding flag %s: %w", name, err)
		}
	}

	return nil
}

func versionCommand(build *buildinfo.Context) *cobra.Command {
	return &cobra.Command{
		Use:         "version",
		Short:       "Print version information",
		Annotations: map[string]string{app.SkipSetupAnnotation: ""},
		Args:        cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "ebird-recommend %s\n", build)
			return err
		},
	}
}
