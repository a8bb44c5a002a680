package view

import (
	"strings"

	"weather-dashboard/internal/models"
)

type Theme string

const (
	ThemeSunny   Theme = "sunny"
	ThemeRainy   Theme = "rainy"
	ThemeCloudy  Theme = "cloudy"
	ThemeSnowy   Theme = "snowy"
	ThemeStormy  Theme = "stormy"
	ThemeFoggy   Theme = "foggy"
	ThemeNight   Theme = "night"
	ThemeDefault Theme = "default"
)

var themeKeywords = []struct {
	theme Theme
	words []string
}{
	{ThemeSunny, []string{"sunny", "clear"}},
	{ThemeRainy, []string{"rain", "drizzle", "shower"}},
	{ThemeCloudy, []string{"cloud", "overcast"}},
	{ThemeSnowy, []string{"snow", "blizzard", "ice"}},
	{ThemeStormy, []string{"thunder", "storm"}},
	{ThemeFoggy, []string{"fog", "mist", "haze"}},
}

// ThemeFor classifies a condition text. The first matching keyword group wins;
// unmatched conditions at night get ThemeNight. A missing isDay counts as day.
func ThemeFor(condition string, isDay models.Number) Theme {
	text := strings.ToLower(condition)
	for _, k := range themeKeywords {
		for _, w := range k.words {
			if strings.Contains(text, w) {
				return k.theme
			}
		}
	}
	if isDay.Valid && isDay.Value == 0 {
		return ThemeNight
	}
	return ThemeDefault
}

// Color is the accent used when rendering the theme in a terminal.
func (t Theme) Color() string {
	switch t {
	case ThemeSunny:
		return "#f59e0b"
	case ThemeRainy:
		return "#3b82f6"
	case ThemeCloudy:
		return "#94a3b8"
	case ThemeSnowy:
		return "#7dd3fc"
	case ThemeStormy:
		return "#7c3aed"
	case ThemeFoggy:
		return "#9ca3af"
	case ThemeNight:
		return "#6366f1"
	default:
		return "#60a5fa"
	}
}
