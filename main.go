package main

import (
	"context"
	"fmt"
	"os"

	"github.com/tphakala/ebird-recommend/cmd"
	"github.com/tphakala/ebird-recommend/internal/app"
	"github.com/tphakala/ebird-recommend/internal/buildinfo"
	"github.com/tphakala/ebird-recommend/internal/conf"
	"github.com/tphakala/ebird-recommend/internal/telemetry"
)

// Set with -ldflags "-X main.version=... -X main.buildDate=..."
var (
	version   string
	buildDate string
)

func main() {
	os.Exit(run())
}

func run() int {
	settings, err := conf.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		return 1
	}

	ctx := app.NewContext(settings)
	defer func() {
		_ = ctx.Close()
		telemetry.Flush(telemetry.DefaultFlushTimeout)
	}()

	rootCmd := cmd.RootCommand(ctx, buildinfo.NewContext(version, buildDate))
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}
