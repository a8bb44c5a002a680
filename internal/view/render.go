package view

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

const (
	pendingText = "loading…"
	heart       = "♥"
	pin         = "⌖"
)

// Renderer draws view models for a terminal.
type Renderer struct {
	title   lipgloss.Style
	heading lipgloss.Style
	muted   lipgloss.Style
	failed  lipgloss.Style
	card    lipgloss.Style
	border  lipgloss.Border
}

func NewRenderer() *Renderer {
	return &Renderer{
		title:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#f8fafc")),
		heading: lipgloss.NewStyle().Bold(true).Underline(true).MarginTop(1),
		muted:   lipgloss.NewStyle().Foreground(lipgloss.Color("#94a3b8")),
		failed:  lipgloss.NewStyle().Foreground(lipgloss.Color("#ef4444")),
		card:    lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1).Width(34),
		border:  lipgloss.NormalBorder(),
	}
}

// placeholder renders the non-data states; ok is true for StateReady.
func (r *Renderer) placeholder(state SectionState, errText, notice string) (string, bool) {
	switch state {
	case StatePending:
		return r.muted.Render(pendingText), false
	case StateError:
		return r.failed.Render("could not load: " + Text(errText)), false
	case StateEmpty, StateIdle:
		return r.muted.Render(Text(notice)), false
	default:
		return "", true
	}
}

func (r *Renderer) User(u User) string {
	lines := []string{}
	if u.LoggedIn {
		lines = append(lines, r.title.Render(fmt.Sprintf("%s <%s>", Text(u.Name), Text(u.Email))))
	} else {
		lines = append(lines, r.muted.Render("signed out"))
	}
	location := u.Location
	if location == "" {
		location = "not set"
	}
	lines = append(lines, "location: "+location, "unit: °"+u.TempUnit)
	return strings.Join(lines, "\n")
}

func (r *Renderer) Home(v HomeView) string {
	parts := []string{r.User(v.User), r.heading.Render("Cities")}

	cards := make([]string, 0, len(v.Cards))
	for _, c := range v.Cards {
		cards = append(cards, r.Card(c))
	}
	for i := 0; i < len(cards); i += 2 {
		end := min(i+2, len(cards))
		parts = append(parts, lipgloss.JoinHorizontal(lipgloss.Top, cards[i:end]...))
	}

	parts = append(parts, r.heading.Render("Last 7 days · "+v.History.City), r.History(v.History))
	parts = append(parts, r.heading.Render("Favourite cities"), r.Favourites(v.Favourites))
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func (r *Renderer) Card(c CityCard) string {
	name := c.City
	if c.IsFavourite {
		name += " " + heart
	}
	if c.IsLocation {
		name = pin + " " + name
	}

	style := r.card.BorderForeground(lipgloss.Color(c.Theme.Color()))
	if c.IsLocation {
		style = style.BorderStyle(lipgloss.ThickBorder())
	}

	body, ok := r.placeholder(c.State, c.Error, "")
	if ok {
		body = strings.Join([]string{
			r.title.Render(c.Temperature) + "  " + c.Condition,
			"feels like " + c.FeelsLike + " · heat index " + c.HeatIndex,
			"humidity " + c.Humidity + " · wind " + c.Wind,
			"pressure " + c.Pressure + " · visibility " + c.Visibility,
		}, "\n")
	}
	return style.Render(name + "\n" + body)
}

func (r *Renderer) History(h HistoryPanel) string {
	if msg, ok := r.placeholder(h.State, h.Error, "no history available"); !ok {
		return msg
	}

	rows := make([][]string, 0, len(h.Points))
	for _, p := range h.Points {
		rows = append(rows, []string{
			p.Label,
			strconv.Itoa(p.Max),
			intOrNA(p.Min),
			intOrNA(p.Avg),
			percentOrNA(p.Rain),
			percentOrNA(p.Humidity),
		})
	}
	return table.New().
		Border(r.border).
		Headers("Day", "Max", "Min", "Avg", "Rain", "Humidity").
		Rows(rows...).
		Render()
}

func (r *Renderer) Favourites(f FavouritesPanel) string {
	if msg, ok := r.placeholder(f.State, "", f.Notice); !ok {
		return msg
	}

	rows := make([][]string, 0, len(f.Entries))
	for _, e := range f.Entries {
		rows = append(rows, []string{Text(e.City), Text(e.Region), Text(e.Country)})
	}
	return table.New().
		Border(r.border).
		Headers("City", "Region", "Country").
		Rows(rows...).
		Render()
}

func (r *Renderer) City(v CityView) string {
	if v.State != StateReady {
		msg, _ := r.placeholder(v.State, v.Error, "")
		return r.title.Render(v.City) + "\n" + msg
	}

	accent := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(v.Theme.Color()))
	name := v.Canonical
	if v.IsFavourite {
		name += " " + heart
	}

	parts := []string{
		accent.Render(name),
		r.muted.Render("local time " + v.LocalTime),
		r.title.Render(v.Temperature) + "  " + v.Condition + "  (feels like " + v.FeelsLike + ")",
	}
	if v.Forecast.High != "" {
		parts = append(parts, "H "+v.Forecast.High+" · L "+v.Forecast.Low)
	}

	stats := make([][]string, 0, len(v.Stats))
	for _, s := range v.Stats {
		stats = append(stats, []string{s.Label, s.Value, s.Sub})
	}
	parts = append(parts, table.New().Border(r.border).Rows(stats...).Render())

	parts = append(parts, r.heading.Render("Air quality"), r.AirQuality(v.AirQuality))
	parts = append(parts, r.heading.Render("Forecast"), r.Forecast(v.Forecast))
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func (r *Renderer) AirQuality(a AirQualityView) string {
	if msg, ok := r.placeholder(a.State, "", "air quality not available"); !ok {
		return msg
	}

	rows := make([][]string, 0, len(a.Pollutants))
	for _, p := range a.Pollutants {
		rows = append(rows, []string{p.Label, p.Value})
	}
	return fmt.Sprintf("US EPA index %s (%s)\n%s",
		intOrNA(a.Index), a.Label,
		table.New().Border(r.border).Rows(rows...).Render(),
	)
}

func (r *Renderer) Forecast(f ForecastSection) string {
	if msg, ok := r.placeholder(f.State, f.Error, "no forecast available"); !ok {
		return msg
	}

	hourly := make([][]string, 0, len(f.Hourly))
	for _, h := range f.Hourly {
		hourly = append(hourly, []string{h.Time, intOrNA(h.Temp), intOrNA(h.FeelsLike), percentOrNA(h.Rain)})
	}
	week := make([][]string, 0, len(f.Week))
	for _, d := range f.Week {
		week = append(week, []string{d.Day, intOrNA(d.Max), intOrNA(d.Min), percentOrNA(d.Rain), d.Condition})
	}

	parts := []string{
		table.New().Border(r.border).Headers("Time", "Temp", "Feels", "Rain").Rows(hourly...).Render(),
		table.New().Border(r.border).Headers("Day", "Max", "Min", "Rain", "Condition").Rows(week...).Render(),
	}

	if len(f.Alerts) == 0 {
		parts = append(parts, r.muted.Render("no weather alerts"))
	} else {
		for _, a := range f.Alerts {
			parts = append(parts, r.failed.Render("⚠ "+a.Headline))
		}
	}

	if a := f.Astro; a != nil {
		parts = append(parts, fmt.Sprintf("sunrise %s · sunset %s · moonrise %s · moonset %s", a.Sunrise, a.Sunset, a.Moonrise, a.Moonset),
			r.muted.Render("moon phase: "+a.MoonPhase))
	}
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func (r *Renderer) Search(v SearchView) string {
	header := r.title.Render("search: " + v.Query)
	if msg, ok := r.placeholder(v.State, v.Error, v.Notice); !ok {
		return header + "\n" + msg
	}

	rows := make([][]string, 0, len(v.Results))
	for _, hit := range v.Results {
		fav := ""
		if hit.IsFavourite {
			fav = heart
		}
		rows = append(rows, []string{hit.Canonical, fav})
	}
	return header + "\n" + table.New().Border(r.border).Headers("Location", "").Rows(rows...).Render()
}

func intOrNA(v *int) string {
	if v == nil {
		return NotAvailable
	}
	return strconv.Itoa(*v)
}

func percentOrNA(v *int) string {
	if v == nil {
		return NotAvailable
	}
	return strconv.Itoa(*v) + "%"
}
