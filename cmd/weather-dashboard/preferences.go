package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"weather-dashboard/internal/auth"
	"weather-dashboard/internal/state"
	"weather-dashboard/internal/view"
)

func newFavCommand(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fav",
		Short: "Manage favourite cities",
	}

	dispatch := func(action func(city string) state.Action) runFunc {
		return func(ctx context.Context, a *application, cmd *cobra.Command, args []string) error {
			city := strings.TrimSpace(strings.Join(args, " "))
			p := a.store.Dispatch(ctx, action(city))
			fmt.Fprintln(cmd.OutOrStdout(), a.renderer.Favourites(view.NewFavouritesPanel(p)))
			return nil
		}
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "add <city>",
			Short: "Add a favourite city",
			Args:  cobra.MinimumNArgs(1),
			RunE: opts.run(dispatch(func(city string) state.Action {
				return state.AddFavourite{City: city}
			})),
		},
		&cobra.Command{
			Use:   "remove <city>",
			Short: "Remove a favourite city",
			Args:  cobra.MinimumNArgs(1),
			RunE: opts.run(dispatch(func(city string) state.Action {
				return state.RemoveFavourite{City: city}
			})),
		},
		&cobra.Command{
			Use:   "toggle <city>",
			Short: "Add the city if absent, remove it otherwise",
			Args:  cobra.MinimumNArgs(1),
			RunE: opts.run(dispatch(func(city string) state.Action {
				return state.ToggleFavourite{City: city}
			})),
		},
		&cobra.Command{
			Use:   "list",
			Short: "List favourite cities",
			Args:  cobra.NoArgs,
			RunE: opts.run(func(_ context.Context, a *application, cmd *cobra.Command, _ []string) error {
				fmt.Fprintln(cmd.OutOrStdout(), a.renderer.Favourites(view.NewFavouritesPanel(a.store.State())))
				return nil
			}),
		},
	)
	return cmd
}

func newUnitCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:       "unit [c|f|toggle]",
		Short:     "Show or change the temperature unit",
		Args:      cobra.MaximumNArgs(1),
		ValidArgs: []string{"c", "f", "toggle"},
		RunE: opts.run(func(ctx context.Context, a *application, cmd *cobra.Command, args []string) error {
			p := a.store.State()
			if len(args) == 1 {
				var action state.Action = state.ToggleTempUnit{}
				if !strings.EqualFold(args[0], "toggle") {
					unit, err := state.ParseTempUnit(args[0])
					if err != nil {
						return err
					}
					action = state.SetTempUnit{Unit: unit}
				}
				p = a.store.Dispatch(ctx, action)
			}
			fmt.Fprintln(cmd.OutOrStdout(), p.TempUnit.Symbol())
			return nil
		}),
	}
}

func newLocationCommand(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "location",
		Short: "Set the location shown first on the home view",
	}

	set := &cobra.Command{
		Use:   "set <city>",
		Short: "Set the location to a city",
		Args:  cobra.MinimumNArgs(1),
		RunE: opts.run(func(ctx context.Context, a *application, cmd *cobra.Command, args []string) error {
			p := a.store.Dispatch(ctx, state.SetLocation{City: strings.Join(args, " ")})
			fmt.Fprintln(cmd.OutOrStdout(), p.Location)
			return nil
		}),
	}

	var lat, lon float64
	detect := &cobra.Command{
		Use:   "detect",
		Short: "Resolve coordinates to a city and use it as the location",
		Args:  cobra.NoArgs,
		RunE: opts.run(func(ctx context.Context, a *application, cmd *cobra.Command, _ []string) error {
			if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
				return fmt.Errorf("coordinates out of range: %v,%v", lat, lon)
			}
			svc, err := a.weather()
			if err != nil {
				return err
			}

			city, err := svc.ResolveLocation(ctx, lat, lon)
			if err != nil {
				a.l.Warning("failed to resolve location", map[string]any{"lat": lat, "lon": lon, "err": err})
				return fmt.Errorf("failed to get location")
			}

			p := a.store.Dispatch(ctx, state.SetLocation{City: city})
			fmt.Fprintln(cmd.OutOrStdout(), p.Location)
			return nil
		}),
	}
	detect.Flags().Float64Var(&lat, "lat", 0, "latitude")
	detect.Flags().Float64Var(&lon, "lon", 0, "longitude")
	_ = detect.MarkFlagRequired("lat")
	_ = detect.MarkFlagRequired("lon")

	cmd.AddCommand(set, detect)
	return cmd
}

func newLoginCommand(opts *rootOptions) *cobra.Command {
	var code string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in with Google",
		Long: "Without --code, prints the consent URL. After approving, pass the code " +
			"from the redirect with --code to finish signing in.",
		Args: cobra.NoArgs,
		RunE: opts.run(func(ctx context.Context, a *application, cmd *cobra.Command, _ []string) error {
			if a.auth == nil {
				return auth.ErrNotConfigured
			}
			if code == "" {
				fmt.Fprintln(cmd.OutOrStdout(), a.auth.AuthCodeURL(auth.NewState()))
				return nil
			}

			action, err := a.auth.SignIn(ctx, code)
			if err != nil {
				return err
			}
			p := a.store.Dispatch(ctx, action)
			fmt.Fprintln(cmd.OutOrStdout(), a.renderer.User(view.UserOf(p)))
			return nil
		}),
	}
	cmd.Flags().StringVar(&code, "code", "", "authorization code from the consent redirect")
	return cmd
}

func newLogoutCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Sign out; favourites, unit and location are kept",
		Args:  cobra.NoArgs,
		RunE: opts.run(func(ctx context.Context, a *application, cmd *cobra.Command, _ []string) error {
			p := a.store.Dispatch(ctx, state.SignOut{})
			fmt.Fprintln(cmd.OutOrStdout(), a.renderer.User(view.UserOf(p)))
			return nil
		}),
	}
}

func newWhoamiCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in user and preferences",
		Args:  cobra.NoArgs,
		RunE: opts.run(func(_ context.Context, a *application, cmd *cobra.Command, _ []string) error {
			fmt.Fprintln(cmd.OutOrStdout(), a.renderer.User(view.UserOf(a.store.State())))
			return nil
		}),
	}
}
