package main

import (
	"context"

	"github.com/spf13/cobra"
)

type rootOptions struct {
	configPath string
}

type runFunc func(ctx context.Context, a *application, cmd *cobra.Command, args []string) error

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:          "weather-dashboard",
		Short:        "Weather dashboard for the terminal and a local JSON API",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "path to config.yaml")

	root.AddCommand(
		newHomeCommand(opts),
		newCityCommand(opts),
		newSearchCommand(opts),
		newHistoryCommand(opts),
		newFavCommand(opts),
		newUnitCommand(opts),
		newLocationCommand(opts),
		newLoginCommand(opts),
		newLogoutCommand(opts),
		newWhoamiCommand(opts),
		newServeCommand(opts),
	)
	return root
}

// run opens the application for the duration of one command.
func (o *rootOptions) run(fn runFunc) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}

		a, err := newApplication(ctx, o.configPath)
		if err != nil {
			return err
		}
		defer a.close()

		return fn(ctx, a, cmd, args)
	}
}
