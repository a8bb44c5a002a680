package view

import (
	"context"
	"time"

	"weather-dashboard/internal/models"
	"weather-dashboard/internal/query"
	"weather-dashboard/internal/services/weather"
	"weather-dashboard/internal/state"
)

type Stat struct {
	Label string `json:"label"`
	Value string `json:"value"`
	Sub   string `json:"sub,omitempty"`
}

type HourPoint struct {
	Time      string `json:"time"`
	Temp      *int   `json:"temp"`
	FeelsLike *int   `json:"feelsLike"`
	Rain      *int   `json:"rain"`
}

type DayPoint struct {
	Date      string `json:"date"`
	Day       string `json:"day"`
	Max       *int   `json:"max"`
	Min       *int   `json:"min"`
	Rain      *int   `json:"rain"`
	Condition string `json:"condition"`
	Icon      string `json:"icon,omitempty"`
}

type AlertView struct {
	Headline string `json:"headline"`
	Severity string `json:"severity"`
	Event    string `json:"event"`
	Areas    string `json:"areas"`
	Expires  string `json:"expires"`
}

type AirQualityView struct {
	State      SectionState `json:"state"`
	Index      *int         `json:"index"`
	Label      string       `json:"label"`
	Pollutants []Stat       `json:"pollutants"`
}

type AstroView struct {
	Sunrise   string `json:"sunrise"`
	Sunset    string `json:"sunset"`
	Moonrise  string `json:"moonrise"`
	Moonset   string `json:"moonset"`
	MoonPhase string `json:"moonPhase"`
}

type ForecastSection struct {
	State  SectionState `json:"state"`
	Error  string       `json:"error,omitempty"`
	Hourly []HourPoint  `json:"hourly"`
	Week   []DayPoint   `json:"week"`
	Alerts []AlertView  `json:"alerts"`
	Astro  *AstroView   `json:"astro,omitempty"`
	High   string       `json:"high,omitempty"`
	Low    string       `json:"low,omitempty"`
}

// CityView is the details page of one city. When State is StateError the
// current conditions failed and the page renders as a whole-page error.
type CityView struct {
	City        string          `json:"city"`
	State       SectionState    `json:"state"`
	Error       string          `json:"error,omitempty"`
	Canonical   string          `json:"canonical,omitempty"`
	Name        string          `json:"name,omitempty"`
	Region      string          `json:"region,omitempty"`
	Country     string          `json:"country,omitempty"`
	LocalTime   string          `json:"localTime,omitempty"`
	IsFavourite bool            `json:"isFavourite"`
	Theme       Theme           `json:"theme"`
	Temperature string          `json:"temperature,omitempty"`
	FeelsLike   string          `json:"feelsLike,omitempty"`
	Condition   string          `json:"condition,omitempty"`
	Icon        string          `json:"icon,omitempty"`
	Stats       []Stat          `json:"stats"`
	AirQuality  AirQualityView  `json:"airQuality"`
	Forecast    ForecastSection `json:"forecast"`
}

// BuildCity fetches current conditions and the week forecast concurrently.
func BuildCity(ctx context.Context, svc *weather.WeatherService, city string, p state.UserPreferences) CityView {
	forecastCh := make(chan query.Result[models.ForecastResponse], 1)
	go func() {
		forecastCh <- svc.Forecast(ctx, city, weather.ForecastDays, true, true)
	}()

	current := svc.CurrentWeather(ctx, city, true)
	forecast := <-forecastCh

	return NewCityView(city, current, forecast, p)
}

func NewCityView(
	city string,
	current query.Result[models.CurrentResponse],
	forecast query.Result[models.ForecastResponse],
	p state.UserPreferences,
) CityView {
	v := CityView{
		City:       city,
		State:      sectionState(current, nil),
		Error:      errorText(current.Err),
		Theme:      ThemeDefault,
		Stats:      []Stat{},
		AirQuality: AirQualityView{State: StatePending, Label: NotAvailable, Pollutants: []Stat{}},
		Forecast:   newForecastSection(forecast, p.TempUnit),
	}
	if !current.HasData {
		if v.State == StateError {
			v.AirQuality.State = StateError
		}
		return v
	}

	loc := current.Data.Location
	c := current.Data.Current

	v.Canonical = loc.Canonical()
	v.Name = Text(loc.Name)
	v.Region = Text(loc.Region)
	v.Country = Text(loc.Country)
	v.LocalTime = Text(loc.Localtime)
	v.IsFavourite = p.IsFavourite(v.Canonical)
	v.Theme = ThemeFor(c.Condition.Text, c.IsDay)
	v.Temperature = Temperature(p.TempUnit, c.TempC, c.TempF)
	v.FeelsLike = Temperature(p.TempUnit, c.FeelsLikeC, c.FeelsLikeF)
	v.Condition = Text(c.Condition.Text)
	v.Icon = c.Condition.Icon
	v.Stats = []Stat{
		{Label: "Humidity", Value: Measure(c.Humidity, "%")},
		{Label: "Wind", Value: Measure(c.WindKph, "km/h"), Sub: c.WindDir},
		{Label: "Pressure", Value: Measure(c.PressureMb, "mb")},
		{Label: "Visibility", Value: Measure(c.VisKm, "km")},
		{Label: "UV Index", Value: Measure(c.UV, ""), Sub: UVLabel(c.UV)},
		{Label: "Cloud Cover", Value: Measure(c.Cloud, "%")},
		{Label: "Precipitation", Value: Measure(c.PrecipMm, "mm")},
	}
	v.AirQuality = newAirQuality(c.AirQuality)
	return v
}

func newAirQuality(aq *models.AirQuality) AirQualityView {
	if aq == nil {
		return AirQualityView{State: StateEmpty, Label: NotAvailable, Pollutants: []Stat{}}
	}
	return AirQualityView{
		State: StateReady,
		Index: optional(aq.USEPAIndex),
		Label: AQILabel(aq.USEPAIndex),
		Pollutants: []Stat{
			{Label: "PM2.5", Value: Measure(aq.PM25, "μg/m³")},
			{Label: "PM10", Value: Measure(aq.PM10, "μg/m³")},
			{Label: "O3", Value: Measure(aq.O3, "μg/m³")},
			{Label: "NO2", Value: Measure(aq.NO2, "μg/m³")},
			{Label: "SO2", Value: Measure(aq.SO2, "μg/m³")},
			{Label: "CO", Value: Measure(aq.CO, "μg/m³")},
		},
	}
}

// newForecastSection builds the hourly series (every second hour of today),
// the week series, alerts and today's astro data.
func newForecastSection(res query.Result[models.ForecastResponse], unit state.TempUnit) ForecastSection {
	days := res.Data.Days()
	section := ForecastSection{
		State:  sectionState(res, func(f models.ForecastResponse) bool { return len(f.Days()) == 0 }),
		Error:  errorText(res.Err),
		Hourly: []HourPoint{},
		Week:   []DayPoint{},
		Alerts: []AlertView{},
	}
	if !res.HasData {
		return section
	}

	if len(days) > 0 {
		today := days[0]
		for i, h := range today.Hour {
			if i%2 != 0 {
				continue
			}
			section.Hourly = append(section.Hourly, HourPoint{
				Time:      ClockTime(h.Time),
				Temp:      optionalTemp(unit, h.TempC, h.TempF),
				FeelsLike: optionalTemp(unit, h.FeelsLikeC, h.FeelsLikeF),
				Rain:      optional(h.ChanceOfRain),
			})
		}
		section.High = Temperature(unit, today.Day.MaxTempC, today.Day.MaxTempF)
		section.Low = Temperature(unit, today.Day.MinTempC, today.Day.MinTempF)
		if a := today.Astro; a != nil {
			section.Astro = &AstroView{
				Sunrise:   Text(a.Sunrise),
				Sunset:    Text(a.Sunset),
				Moonrise:  Text(a.Moonrise),
				Moonset:   Text(a.Moonset),
				MoonPhase: Text(a.MoonPhase),
			}
		}
	}

	for _, d := range days {
		section.Week = append(section.Week, DayPoint{
			Date:      d.Date,
			Day:       weekday(d.Date),
			Max:       optionalTemp(unit, d.Day.MaxTempC, d.Day.MaxTempF),
			Min:       optionalTemp(unit, d.Day.MinTempC, d.Day.MinTempF),
			Rain:      optional(d.Day.DailyChanceOfRain),
			Condition: Text(d.Day.Condition.Text),
			Icon:      d.Day.Condition.Icon,
		})
	}

	for _, a := range res.Data.AlertList() {
		section.Alerts = append(section.Alerts, AlertView{
			Headline: Text(a.Headline),
			Severity: Text(a.Severity),
			Event:    Text(a.Event),
			Areas:    Text(a.Areas),
			Expires:  Text(a.Expires),
		})
	}
	return section
}

func weekday(date string) string {
	t, err := time.Parse("2006-01-02", date)
	if err != nil {
		return NotAvailable
	}
	return t.Format("Mon")
}
