package main

import (
	"bufio"
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"weather-dashboard/internal/services/weather"
	"weather-dashboard/internal/view"
)

func newHomeCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "home",
		Short: "Show city cards, last week's history and favourites",
		Args:  cobra.NoArgs,
		RunE: opts.run(func(ctx context.Context, a *application, cmd *cobra.Command, _ []string) error {
			svc, err := a.weather()
			if err != nil {
				return err
			}
			home := view.BuildHome(ctx, svc, a.store.State())
			fmt.Fprintln(cmd.OutOrStdout(), a.renderer.Home(home))
			return nil
		}),
	}
}

func newCityCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "city <name>",
		Short: "Show current conditions, air quality and forecast for a city",
		Args:  cobra.MinimumNArgs(1),
		RunE: opts.run(func(ctx context.Context, a *application, cmd *cobra.Command, args []string) error {
			svc, err := a.weather()
			if err != nil {
				return err
			}
			city := view.BuildCity(ctx, svc, strings.Join(args, " "), a.store.State())
			fmt.Fprintln(cmd.OutOrStdout(), a.renderer.City(city))
			if city.State == view.StateError {
				return fmt.Errorf("could not load %s", city.City)
			}
			return nil
		}),
	}
}

func newSearchCommand(opts *rootOptions) *cobra.Command {
	var interactive bool

	cmd := &cobra.Command{
		Use:   "search [query]",
		Short: "Search locations by name",
		RunE: opts.run(func(ctx context.Context, a *application, cmd *cobra.Command, args []string) error {
			svc, err := a.weather()
			if err != nil {
				return err
			}
			if interactive {
				return searchInteractive(ctx, a, svc, cmd)
			}

			res := view.BuildSearch(ctx, svc, strings.Join(args, " "), a.store.State())
			fmt.Fprintln(cmd.OutOrStdout(), a.renderer.Search(res))
			return nil
		}),
	}
	cmd.Flags().BoolVarP(&interactive, "interactive", "i", false, "read queries line by line, searching once typing pauses")
	return cmd
}

// searchInteractive treats every input line as the current contents of the
// search box. Only the latest query is searched once input pauses.
func searchInteractive(ctx context.Context, a *application, svc *weather.WeatherService, cmd *cobra.Command) error {
	var (
		mu       sync.Mutex
		rendered string
	)
	render := func(q string) {
		mu.Lock()
		defer mu.Unlock()
		if q == rendered {
			return
		}
		rendered = q
		res := view.BuildSearch(ctx, svc, q, a.store.State())
		fmt.Fprintln(cmd.OutOrStdout(), a.renderer.Search(res))
	}

	debouncer := view.NewDebouncer(view.SearchDelay, weather.MinSearchLength, render)

	var last string
	scanner := bufio.NewScanner(cmd.InOrStdin())
	for scanner.Scan() {
		last = strings.TrimSpace(scanner.Text())
		debouncer.Input(last)
	}
	debouncer.Stop()

	if len([]rune(last)) >= weather.MinSearchLength {
		render(last)
	}
	return scanner.Err()
}

func newHistoryCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "history [city]",
		Short: "Show daily temperatures for the last week",
		RunE: opts.run(func(ctx context.Context, a *application, cmd *cobra.Command, args []string) error {
			svc, err := a.weather()
			if err != nil {
				return err
			}

			p := a.store.State()
			city := view.HistoryCity(p)
			if len(args) > 0 {
				city = strings.Join(args, " ")
			}

			days := svc.LastDays(ctx, city, weather.HistoryDays)
			fmt.Fprintln(cmd.OutOrStdout(), a.renderer.History(view.NewHistoryPanel(city, days, p.TempUnit)))
			return nil
		}),
	}
}
