package view

import (
	"fmt"
	"strconv"
	"strings"

	"weather-dashboard/internal/models"
	"weather-dashboard/internal/state"
)

// NotAvailable is shown for any field the weather API left out.
const NotAvailable = "not available"

var aqiLabels = []string{"", "Good", "Moderate", "Unhealthy (Sensitive)", "Unhealthy", "Very Unhealthy", "Hazardous"}

// Temperature picks the value for unit and formats it rounded, e.g. "31°C".
func Temperature(unit state.TempUnit, c, f models.Number) string {
	v := pick(unit, c, f)
	r, ok := v.Round()
	if !ok {
		return NotAvailable
	}
	return fmt.Sprintf("%d%s", r, unit.Symbol())
}

// RoundedTemp is the chart value of a temperature; ok is false when it is missing.
func RoundedTemp(unit state.TempUnit, c, f models.Number) (int, bool) {
	return pick(unit, c, f).Round()
}

func pick(unit state.TempUnit, c, f models.Number) models.Number {
	if unit == state.Fahrenheit {
		return f
	}
	return c
}

// Measure formats n with an optional unit suffix, e.g. "12.5 mph" or "78%".
func Measure(n models.Number, suffix string) string {
	if !n.Valid {
		return NotAvailable
	}
	s := strconv.FormatFloat(n.Value, 'f', -1, 64)
	if i := strings.IndexByte(s, '.'); i >= 0 && len(s)-i > 2 {
		s = strconv.FormatFloat(n.Value, 'f', 1, 64)
	}
	switch suffix {
	case "":
		return s
	case "%":
		return s + "%"
	default:
		return s + " " + suffix
	}
}

// Text returns s, or NotAvailable when it is blank.
func Text(s string) string {
	if strings.TrimSpace(s) == "" {
		return NotAvailable
	}
	return s
}

// UVLabel buckets the UV index the way weather services usually describe it.
func UVLabel(uv models.Number) string {
	if !uv.Valid {
		return NotAvailable
	}
	switch {
	case uv.Value <= 2:
		return "Low"
	case uv.Value <= 5:
		return "Moderate"
	case uv.Value <= 7:
		return "High"
	default:
		return "Very High"
	}
}

// AQILabel names a US EPA index (1..6).
func AQILabel(index models.Number) string {
	i, ok := index.Round()
	if !ok || i < 1 || i >= len(aqiLabels) {
		return NotAvailable
	}
	return aqiLabels[i]
}

// SplitCity breaks a canonical "city, region, country" string into its parts.
// Missing parts are returned empty.
func SplitCity(canonical string) (city, region, country string) {
	parts := strings.SplitN(canonical, ",", 3)
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	for len(parts) < 3 {
		parts = append(parts, "")
	}
	return parts[0], parts[1], parts[2]
}

// ClockTime extracts "15:00" from the API's "2026-10-17 15:00" timestamps.
func ClockTime(ts string) string {
	if _, after, ok := strings.Cut(ts, " "); ok {
		return after
	}
	return Text(ts)
}

func errorText(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
