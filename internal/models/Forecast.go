package models

// Day is the daily summary inside a forecast or history day.
type Day struct {
	MaxTempC          Number    `json:"maxtemp_c"`
	MaxTempF          Number    `json:"maxtemp_f"`
	MinTempC          Number    `json:"mintemp_c"`
	MinTempF          Number    `json:"mintemp_f"`
	AvgTempC          Number    `json:"avgtemp_c"`
	AvgTempF          Number    `json:"avgtemp_f"`
	AvgHumidity       Number    `json:"avghumidity"`
	DailyChanceOfRain Number    `json:"daily_chance_of_rain"`
	TotalPrecipMm     Number    `json:"totalprecip_mm"`
	MaxWindMph        Number    `json:"maxwind_mph"`
	UV                Number    `json:"uv"`
	Condition         Condition `json:"condition"`
}

type Astro struct {
	Sunrise   string `json:"sunrise"`
	Sunset    string `json:"sunset"`
	Moonrise  string `json:"moonrise"`
	Moonset   string `json:"moonset"`
	MoonPhase string `json:"moon_phase"`
}

type Hour struct {
	Time         string    `json:"time"`
	TempC        Number    `json:"temp_c"`
	TempF        Number    `json:"temp_f"`
	FeelsLikeC   Number    `json:"feelslike_c"`
	FeelsLikeF   Number    `json:"feelslike_f"`
	ChanceOfRain Number    `json:"chance_of_rain"`
	Humidity     Number    `json:"humidity"`
	Condition    Condition `json:"condition"`
}

type ForecastDay struct {
	Date  string `json:"date"`
	Day   Day    `json:"day"`
	Astro *Astro `json:"astro,omitempty"`
	Hour  []Hour `json:"hour"`
}

type Forecast struct {
	ForecastDay []ForecastDay `json:"forecastday"`
}

type Alert struct {
	Headline  string `json:"headline"`
	Severity  string `json:"severity"`
	Urgency   string `json:"urgency"`
	Areas     string `json:"areas"`
	Event     string `json:"event"`
	Effective string `json:"effective"`
	Expires   string `json:"expires"`
	Desc      string `json:"desc"`
}

type Alerts struct {
	Alert []Alert `json:"alert"`
}

// ForecastResponse is the body of forecast.json. Current and Alerts are
// nil when the API leaves them out.
type ForecastResponse struct {
	Location Location `json:"location"`
	Current  *Current `json:"current,omitempty"`
	Forecast Forecast `json:"forecast"`
	Alerts   *Alerts  `json:"alerts,omitempty"`
}

// Days returns the forecast days, never nil.
func (f ForecastResponse) Days() []ForecastDay {
	if f.Forecast.ForecastDay == nil {
		return []ForecastDay{}
	}
	return f.Forecast.ForecastDay
}

// AlertList returns the alerts, empty when the block is missing.
func (f ForecastResponse) AlertList() []Alert {
	if f.Alerts == nil || f.Alerts.Alert == nil {
		return []Alert{}
	}
	return f.Alerts.Alert
}

// HistoryResponse is the body of history.json: one forecast day for the requested date.
type HistoryResponse struct {
	Location Location `json:"location"`
	Forecast Forecast `json:"forecast"`
}

// Day returns the single history day, if present.
func (h HistoryResponse) Day() (ForecastDay, bool) {
	if len(h.Forecast.ForecastDay) == 0 {
		return ForecastDay{}, false
	}
	return h.Forecast.ForecastDay[0], true
}

// SearchLocation is one element of search.json.
type SearchLocation struct {
	ID      int64  `json:"id"`
	Name    string `json:"name"`
	Region  string `json:"region"`
	Country string `json:"country"`
	Lat     Number `json:"lat"`
	Lon     Number `json:"lon"`
	URL     string `json:"url"`
}

func (s SearchLocation) Canonical() string {
	return CanonicalCity(s.Name, s.Region, s.Country)
}
