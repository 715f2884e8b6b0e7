// Package serve implements the "serve" command, running the HTTP API.
package serve

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/tphakala/ebird-recommend/internal/api"
	"github.com/tphakala/ebird-recommend/internal/app"
	"github.com/tphakala/ebird-recommend/internal/buildinfo"
	"github.com/tphakala/ebird-recommend/internal/logger"
)

// Command creates the serve command.
func Command(ctx *app.Context, build *buildinfo.Context) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the recommendation HTTP API",
		Long:  "Serve the recommendation engine over HTTP until interrupted. Callers pass their eBird key in the X-EBird-Api-Token header.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(ctx, build)
		},
	}

	if err := setupFlags(cmd, ctx); err != nil {
		panic(err)
	}

	return cmd
}

func run(ctx *app.Context, build *buildinfo.Context) error {
	settings := ctx.Settings
	log := ctx.Logger().Module("serve")

	opts := []api.ServerOption{api.WithLogger(logger.Global().Module("api"))}

	if settings.WebServer.Metrics {
		m, err := ctx.Metrics()
		if err != nil {
			return err
		}
		opts = append(opts, api.WithMetrics(m))
	}

	store, err := ctx.Store()
	if err != nil {
		log.Warn("persistent cache unavailable, serving without it", logger.Error(err))
	} else if store != nil {
		opts = append(opts, api.WithStore(store))
	}

	server, err := api.New(settings, opts...)
	if err != nil {
		return err
	}

	log.Info("starting ebird-recommend API",
		logger.String("version", build.GetVersion()),
		logger.Bool("persistent_cache", store != nil))

	return server.StartWithGracefulShutdown()
}

// setupFlags configures flags specific to the serve command.
func setupFlags(cmd *cobra.Command, ctx *app.Context) error {
	ws := &ctx.Settings.WebServer
	cmd.Flags().StringVar(&ws.Host, "host", ws.Host, "Interface to listen on")
	cmd.Flags().IntVarP(&ws.Port, "port", "p", ws.Port, "Port to listen on")
	cmd.Flags().StringSliceVar(&ws.AllowedOrigins, "allowed-origins", ws.AllowedOrigins, "CORS allowed origins")
	cmd.Flags().BoolVar(&ws.Metrics, "metrics", ws.Metrics, "Expose Prometheus metrics on /metrics")

	if err := viper.BindPFlag("webserver.port", cmd.Flags().Lookup("port")); err != nil {
		return err
	}
	return viper.BindPFlag("webserver.host", cmd.Flags().Lookup("host"))
}
