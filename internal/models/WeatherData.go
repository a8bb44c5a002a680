package models

import (
	"fmt"
	"strings"
)

// Location is the "location" block every weather endpoint returns.
type Location struct {
	Name      string `json:"name"`
	Region    string `json:"region"`
	Country   string `json:"country"`
	Lat       Number `json:"lat"`
	Lon       Number `json:"lon"`
	TzID      string `json:"tz_id"`
	Localtime string `json:"localtime"`
}

// Canonical returns the "City, Region, Country" key used for state and cache lookups.
func (l Location) Canonical() string {
	return CanonicalCity(l.Name, l.Region, l.Country)
}

func CanonicalCity(name, region, country string) string {
	return fmt.Sprintf("%s, %s, %s", strings.TrimSpace(name), strings.TrimSpace(region), strings.TrimSpace(country))
}

type Condition struct {
	Text string `json:"text"`
	Icon string `json:"icon"`
	Code Number `json:"code"`
}

// AirQuality values are in μg/m³; the indices are categorical.
type AirQuality struct {
	CO           Number `json:"co"`
	NO2          Number `json:"no2"`
	O3           Number `json:"o3"`
	SO2          Number `json:"so2"`
	PM25         Number `json:"pm2_5"`
	PM10         Number `json:"pm10"`
	USEPAIndex   Number `json:"us-epa-index"`
	GBDefraIndex Number `json:"gb-defra-index"`
}

type Current struct {
	LastUpdated string      `json:"last_updated"`
	TempC       Number      `json:"temp_c"`
	TempF       Number      `json:"temp_f"`
	FeelsLikeC  Number      `json:"feelslike_c"`
	FeelsLikeF  Number      `json:"feelslike_f"`
	HeatIndexC  Number      `json:"heatindex_c"`
	HeatIndexF  Number      `json:"heatindex_f"`
	IsDay       Number      `json:"is_day"`
	Condition   Condition   `json:"condition"`
	WindMph     Number      `json:"wind_mph"`
	WindKph     Number      `json:"wind_kph"`
	WindDegree  Number      `json:"wind_degree"`
	WindDir     string      `json:"wind_dir"`
	GustMph     Number      `json:"gust_mph"`
	PressureMb  Number      `json:"pressure_mb"`
	PrecipMm    Number      `json:"precip_mm"`
	Humidity    Number      `json:"humidity"`
	Cloud       Number      `json:"cloud"`
	VisKm       Number      `json:"vis_km"`
	VisMiles    Number      `json:"vis_miles"`
	UV          Number      `json:"uv"`
	AirQuality  *AirQuality `json:"air_quality,omitempty"`
}

// CurrentResponse is the body of current.json.
type CurrentResponse struct {
	Location Location `json:"location"`
	Current  Current  `json:"current"`
}
