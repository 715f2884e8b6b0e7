// Package cache implements the "cache" maintenance commands.
package cache

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tphakala/ebird-recommend/internal/app"
)

// Command creates the cache command and its subcommands.
func Command(ctx *app.Context) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the on-disk eBird response cache",
	}

	cmd.AddCommand(clearCommand(ctx), statsCommand(ctx))

	return cmd
}

func clearCommand(ctx *app.Context) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Delete all cached eBird responses",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.OpenStore()
			if err != nil {
				return err
			}
			n, err := store.Clear()
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "Cleared %d cached responses from %s\n", n, ctx.Settings.Cache.Dir)
			return err
		},
	}
}

func statsCommand(ctx *app.Context) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show how many responses are cached",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.OpenStore()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Cache directory: %s\n", ctx.Settings.Cache.Dir)
			fmt.Fprintf(out, "Enabled:         %t\n", ctx.Settings.Cache.Enabled)
			fmt.Fprintf(out, "TTL:             %s\n", ctx.Settings.Cache.TTL)
			_, err = fmt.Fprintf(out, "Entries:         %d\n", store.Len())
			return err
		},
	}
}
