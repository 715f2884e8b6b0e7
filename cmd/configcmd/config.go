// Package configcmd implements the "config" commands.
package configcmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tphakala/ebird-recommend/internal/app"
	"github.com/tphakala/ebird-recommend/internal/conf"
)

const redacted = "[REDACTED]"

// Command creates the config command.
func Command(ctx *app.Context) *cobra.Command {
	cmd := &cobra.Command{
		Use:         "config",
		Short:       "Create or inspect the configuration file",
		Annotations: map[string]string{app.SkipSetupAnnotation: ""},
	}

	cmd.AddCommand(initCommand(), showCommand(ctx))

	return cmd
}

func initCommand() *cobra.Command {
	var path string

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a default config.yaml",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if path == "" {
				var err error
				if path, err = conf.UserConfigPath(); err != nil {
					return err
				}
			}
			if err := conf.WriteDefaultConfig(path); err != nil {
				return err
			}
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "Wrote default configuration to %s\n", path)
			return err
		},
	}

	cmd.Flags().StringVarP(&path, "output", "o", "", "Where to write config.yaml (default: user config directory)")

	return cmd
}

// showCommand prints the effective settings with secrets redacted.
func showCommand(ctx *app.Context) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			settings := *ctx.Settings
			if settings.EBird.APIKey != "" {
				settings.EBird.APIKey = redacted
			}
			if settings.Sentry.DSN != "" {
				settings.Sentry.DSN = redacted
			}

			out, err := conf.MarshalYAML(&settings)
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(out)
			return err
		},
	}
}
