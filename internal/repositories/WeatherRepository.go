package repositories

import (
	"context"
	"net/http"
	"time"

	"weather-dashboard/config"
	"weather-dashboard/internal/models"
	"weather-dashboard/pkg/logger"
)

// HTTPClient is the part of *http.Client the repositories need.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// WeatherRepository is the read-only external weather data source.
// location accepts a city name, a "city, region, country" string or a "lat,lon" pair.
type WeatherRepository interface {
	Name() string
	FetchCurrent(ctx context.Context, location string, withAQI bool) (models.CurrentResponse, error)
	FetchForecast(ctx context.Context, location string, days int, withAQI, withAlerts bool) (models.ForecastResponse, error)
	FetchHistory(ctx context.Context, location string, date time.Time) (models.HistoryResponse, error)
	SearchLocations(ctx context.Context, query string) ([]models.SearchLocation, error)
}

func InitWeatherRepository(cfg *config.Config, l *logger.Logger) (WeatherRepository, error) {
	httpClient := &http.Client{
		Timeout: cfg.Weather.Timeout,
	}

	return NewWeatherAPIRepository(cfg.Weather, l, httpClient)
}
