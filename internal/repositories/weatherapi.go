package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"weather-dashboard/config"
	"weather-dashboard/internal/models"
	"weather-dashboard/pkg/logger"
)

const (
	WeatherAPIBaseURL = "https://api.weatherapi.com/v1"

	historyDateLayout = "2006-01-02"
)

type WeatherAPIRepository struct {
	BaseURL    string
	APIKey     string
	httpClient HTTPClient
	limiter    *rate.Limiter
	circuit    *gobreaker.CircuitBreaker
	l          *logger.Logger
}

func NewWeatherAPIRepository(cfg config.WeatherConfig, l *logger.Logger, httpClient HTTPClient) (*WeatherAPIRepository, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, ErrEmptyAPIKey
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}

	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = WeatherAPIBaseURL
	}

	limit := rate.Inf
	if cfg.RateLimit > 0 {
		limit = rate.Limit(cfg.RateLimit)
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = 1
	}

	repo := &WeatherAPIRepository{
		BaseURL:    baseURL,
		APIKey:     cfg.APIKey,
		httpClient: httpClient,
		limiter:    rate.NewLimiter(limit, burst),
		l:          l,
	}
	repo.circuit = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        repo.Name(),
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			l.Warning("circuit breaker state changed", map[string]any{
				"breaker": name,
				"from":    from.String(),
				"to":      to.String(),
			})
		},
	})

	return repo, nil
}

func (w *WeatherAPIRepository) Name() string {
	return "weatherapi"
}

func (w *WeatherAPIRepository) FetchCurrent(ctx context.Context, location string, withAQI bool) (models.CurrentResponse, error) {
	var response models.CurrentResponse

	params := url.Values{}
	params.Set("q", location)
	params.Set("aqi", yesNo(withAQI))

	if err := w.get(ctx, "current.json", location, params, &response); err != nil {
		return response, err
	}
	return response, nil
}

func (w *WeatherAPIRepository) FetchForecast(
	ctx context.Context,
	location string,
	days int,
	withAQI bool,
	withAlerts bool,
) (models.ForecastResponse, error) {
	var response models.ForecastResponse

	params := url.Values{}
	params.Set("q", location)
	params.Set("days", strconv.Itoa(days))
	params.Set("aqi", yesNo(withAQI))
	params.Set("alerts", yesNo(withAlerts))

	if err := w.get(ctx, "forecast.json", location, params, &response); err != nil {
		return response, err
	}
	return response, nil
}

func (w *WeatherAPIRepository) FetchHistory(ctx context.Context, location string, date time.Time) (models.HistoryResponse, error) {
	var response models.HistoryResponse

	params := url.Values{}
	params.Set("q", location)
	params.Set("dt", date.Format(historyDateLayout))

	if err := w.get(ctx, "history.json", location, params, &response); err != nil {
		return response, err
	}
	return response, nil
}

func (w *WeatherAPIRepository) SearchLocations(ctx context.Context, query string) ([]models.SearchLocation, error) {
	var response []models.SearchLocation

	params := url.Values{}
	params.Set("q", query)

	if err := w.get(ctx, "search.json", query, params, &response); err != nil {
		return nil, err
	}
	if response == nil {
		response = []models.SearchLocation{}
	}
	return response, nil
}

// get performs one rate-limited, circuit-guarded GET and decodes a 200 body into out.
func (w *WeatherAPIRepository) get(ctx context.Context, endpoint, location string, params url.Values, out any) error {
	// Validate API key before making request
	if strings.TrimSpace(w.APIKey) == "" {
		return ErrEmptyAPIKey
	}
	if strings.TrimSpace(location) == "" {
		return ErrEmptyLocation
	}

	if err := w.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait canceled: %w", err)
	}

	w.l.Debug("making weatherapi API request", map[string]any{
		"endpoint": endpoint,
		"params":   params.Encode(),
	})

	params.Set("key", w.APIKey)
	reqURL := fmt.Sprintf("%s/%s?%s", w.BaseURL, endpoint, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	result, err := w.circuit.Execute(func() (interface{}, error) {
		resp, err := w.httpClient.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			return nil, fmt.Errorf("%w: %v", ErrTransport, err)
		}
		defer resp.Body.Close()

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("%w: failed to read response body: %v", ErrTransport, err)
		}

		apiErr := apiErrorFrom(resp, body)
		if apiErr != nil && apiErr.Temporary() {
			// only server-side trouble counts against the breaker
			return nil, apiErr
		}
		return response{status: resp.StatusCode, body: body, apiErr: apiErr}, nil
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return fmt.Errorf("%w: %v", ErrCircuitOpen, err)
		}
		w.l.Warning("weatherapi request failed", map[string]any{
			"endpoint": endpoint,
			"err":      err,
		})
		return err
	}

	res := result.(response)

	w.l.Debug("received weatherapi API response", map[string]any{
		"endpoint": endpoint,
		"status":   res.status,
	})

	if res.apiErr != nil {
		return res.apiErr
	}

	if err := json.Unmarshal(res.body, out); err != nil {
		return fmt.Errorf("%w: failed to parse JSON response: %v", ErrMalformedResponse, err)
	}
	return nil
}

type response struct {
	status int
	body   []byte
	apiErr *APIError
}

// apiErrorFrom returns nil for 2xx answers.
func apiErrorFrom(resp *http.Response, body []byte) *APIError {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	apiErr := &APIError{StatusCode: resp.StatusCode, Message: resp.Status}

	var payload struct {
		Error struct {
			Code    int    `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err == nil && payload.Error.Message != "" {
		apiErr.Code = payload.Error.Code
		apiErr.Message = payload.Error.Message
	}
	return apiErr
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
