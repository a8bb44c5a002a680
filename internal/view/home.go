package view

import (
	"context"
	"slices"
	"strings"

	"weather-dashboard/internal/models"
	"weather-dashboard/internal/query"
	"weather-dashboard/internal/services/weather"
	"weather-dashboard/internal/state"
)

const (
	homeCardCount      = 6
	DefaultHistoryCity = "Mumbai, Maharashtra, India"
)

var DefaultCities = []string{
	"Mumbai, Maharashtra, India",
	"Delhi, Delhi, India",
	"Bangalore, Karnataka, India",
	"Kolkata, West Bengal, India",
	"Chennai, Tamil Nadu, India",
	"Jaipur, Rajasthan, India",
	"Hyderabad, Telangana, India",
}

type User struct {
	LoggedIn        bool   `json:"loggedIn"`
	Name            string `json:"name,omitempty"`
	Email           string `json:"email,omitempty"`
	ProfileImageURL string `json:"profileImageUrl,omitempty"`
	Location        string `json:"location,omitempty"`
	TempUnit        string `json:"tempUnit"`
}

func UserOf(p state.UserPreferences) User {
	return User{
		LoggedIn:        p.IsLoggedIn(),
		Name:            p.Name,
		Email:           p.Email,
		ProfileImageURL: p.ProfileImageURL,
		Location:        p.Location,
		TempUnit:        string(p.TempUnit),
	}
}

type CityCard struct {
	City        string       `json:"city"`
	State       SectionState `json:"state"`
	Error       string       `json:"error,omitempty"`
	IsLocation  bool         `json:"isLocation"`
	IsFavourite bool         `json:"isFavourite"`
	Theme       Theme        `json:"theme"`
	Condition   string       `json:"condition,omitempty"`
	Icon        string       `json:"icon,omitempty"`
	Temperature string       `json:"temperature,omitempty"`
	FeelsLike   string       `json:"feelsLike,omitempty"`
	HeatIndex   string       `json:"heatIndex,omitempty"`
	Humidity    string       `json:"humidity,omitempty"`
	Wind        string       `json:"wind,omitempty"`
	Pressure    string       `json:"pressure,omitempty"`
	Visibility  string       `json:"visibility,omitempty"`
	LastUpdated string       `json:"lastUpdated,omitempty"`
}

type ChartPoint struct {
	Date     string `json:"date"`
	Label    string `json:"label"`
	Max      int    `json:"max"`
	Min      *int   `json:"min"`
	Avg      *int   `json:"avg"`
	Rain     *int   `json:"rain"`
	Humidity *int   `json:"humidity"`
}

type HistoryPanel struct {
	City   string       `json:"city"`
	State  SectionState `json:"state"`
	Error  string       `json:"error,omitempty"`
	Points []ChartPoint `json:"points"`
}

type FavouriteEntry struct {
	Canonical string `json:"canonical"`
	City      string `json:"city"`
	Region    string `json:"region"`
	Country   string `json:"country"`
}

type FavouritesPanel struct {
	State   SectionState     `json:"state"`
	Notice  string           `json:"notice,omitempty"`
	Entries []FavouriteEntry `json:"entries"`
}

type HomeView struct {
	User       User            `json:"user"`
	Cards      []CityCard      `json:"cards"`
	History    HistoryPanel    `json:"history"`
	Favourites FavouritesPanel `json:"favourites"`
}

// HomeCities lists the cards shown on the home view: the user's location, then
// favourites, then default cities until there are six. Favourites are never cut.
func HomeCities(p state.UserPreferences) []string {
	cities := make([]string, 0, homeCardCount)

	if loc := strings.TrimSpace(p.Location); loc != "" {
		cities = append(cities, loc)
	}
	for _, c := range p.FavouriteCities {
		if c != "" && !slices.Contains(cities, c) {
			cities = append(cities, c)
		}
	}
	for _, c := range DefaultCities {
		if len(cities) >= homeCardCount {
			break
		}
		if !slices.Contains(cities, c) {
			cities = append(cities, c)
		}
	}
	return cities
}

// HistoryCity is the city whose last week is charted on the home view.
func HistoryCity(p state.UserPreferences) string {
	if loc := strings.TrimSpace(p.Location); loc != "" {
		return loc
	}
	return DefaultHistoryCity
}

func BuildHome(ctx context.Context, svc *weather.WeatherService, p state.UserPreferences) HomeView {
	cities := HomeCities(p)
	results := svc.CurrentForCities(ctx, cities, false)

	cards := make([]CityCard, len(cities))
	for i, city := range cities {
		cards[i] = NewCityCard(city, results[i], p)
	}

	historyCity := HistoryCity(p)
	days := svc.LastDays(ctx, historyCity, weather.HistoryDays)

	return HomeView{
		User:       UserOf(p),
		Cards:      cards,
		History:    NewHistoryPanel(historyCity, days, p.TempUnit),
		Favourites: NewFavouritesPanel(p),
	}
}

func NewCityCard(city string, res query.Result[models.CurrentResponse], p state.UserPreferences) CityCard {
	card := CityCard{
		City:        city,
		State:       sectionState(res, nil),
		Error:       errorText(res.Err),
		IsLocation:  city == strings.TrimSpace(p.Location),
		IsFavourite: p.IsFavourite(city),
		Theme:       ThemeDefault,
	}
	if !res.HasData {
		return card
	}

	c := res.Data.Current
	card.Theme = ThemeFor(c.Condition.Text, c.IsDay)
	card.Condition = Text(c.Condition.Text)
	card.Icon = c.Condition.Icon
	card.Temperature = Temperature(p.TempUnit, c.TempC, c.TempF)
	card.FeelsLike = Temperature(p.TempUnit, c.FeelsLikeC, c.FeelsLikeF)
	card.HeatIndex = Temperature(p.TempUnit, c.HeatIndexC, c.HeatIndexF)
	card.Humidity = Measure(c.Humidity, "%")
	card.Wind = Measure(c.WindKph, "km/h")
	card.Pressure = Measure(c.PressureMb, "mb")
	card.Visibility = Measure(c.VisKm, "km")
	card.LastUpdated = Text(c.LastUpdated)
	return card
}

// NewHistoryPanel charts the days that returned data, oldest first. The panel
// is pending while any day is still loading with nothing to show.
func NewHistoryPanel(city string, days []weather.DayHistory, unit state.TempUnit) HistoryPanel {
	panel := HistoryPanel{City: city, Points: []ChartPoint{}}

	pending := false
	var lastErr error
	for _, d := range days {
		res := d.Result
		if res.IsPending() && !res.HasData {
			pending = true
		}
		if res.Err != nil {
			lastErr = res.Err
		}

		day, ok := res.Data.Day()
		if !res.HasData || !ok {
			continue
		}
		high, ok := RoundedTemp(unit, day.Day.MaxTempC, day.Day.MaxTempF)
		if !ok {
			continue
		}
		panel.Points = append(panel.Points, ChartPoint{
			Date:     d.Date.Format("01-02"),
			Label:    d.Date.Format("Mon, Jan 2"),
			Max:      high,
			Min:      optionalTemp(unit, day.Day.MinTempC, day.Day.MinTempF),
			Avg:      optionalTemp(unit, day.Day.AvgTempC, day.Day.AvgTempF),
			Rain:     optional(day.Day.DailyChanceOfRain),
			Humidity: optional(day.Day.AvgHumidity),
		})
	}

	switch {
	case pending:
		panel.State = StatePending
	case len(panel.Points) > 0:
		panel.State = StateReady
	case lastErr != nil:
		panel.State = StateError
		panel.Error = lastErr.Error()
	default:
		panel.State = StateEmpty
	}
	return panel
}

func NewFavouritesPanel(p state.UserPreferences) FavouritesPanel {
	panel := FavouritesPanel{Entries: make([]FavouriteEntry, 0, len(p.FavouriteCities))}
	for _, c := range p.FavouriteCities {
		city, region, country := SplitCity(c)
		panel.Entries = append(panel.Entries, FavouriteEntry{
			Canonical: c,
			City:      city,
			Region:    region,
			Country:   country,
		})
	}

	if len(panel.Entries) == 0 {
		panel.State = StateEmpty
		panel.Notice = "no favourite cities yet"
	} else {
		panel.State = StateReady
	}
	return panel
}

func optionalTemp(unit state.TempUnit, c, f models.Number) *int {
	v, ok := RoundedTemp(unit, c, f)
	if !ok {
		return nil
	}
	return &v
}

func optional(n models.Number) *int {
	v, ok := n.Round()
	if !ok {
		return nil
	}
	return &v
}
