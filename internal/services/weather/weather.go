package weather

import (
	"context"
	"strconv"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/pkg/errors"

	"weather-dashboard/config"
	"weather-dashboard/internal/models"
	"weather-dashboard/internal/query"
	"weather-dashboard/internal/repositories"
	"weather-dashboard/pkg/logger"
)

const (
	MinSearchLength = 2
	ForecastDays    = 7
	HistoryDays     = 7

	dateLayout = "2006-01-02"
)

const (
	opCurrent  = "currentWeather"
	opForecast = "forecast"
	opHistory  = "history"
	opSearch   = "searchLocations"
)

var (
	ErrQueryTooShort = errors.New("search query must be at least 2 characters")
	ErrEmptyLocation = errors.New("location cannot be empty")
	ErrNoLocation    = errors.New("location could not be resolved")
)

// Policies holds the cache policy of each operation.
type Policies struct {
	Current  query.Policy
	Forecast query.Policy
	History  query.Policy
	Search   query.Policy
}

func PoliciesFromConfig(cfg config.CacheConfig) Policies {
	return Policies{
		Current:  query.Policy{StaleTime: cfg.StaleTime, GCTime: cfg.GCTime, Retries: 2},
		Forecast: query.Policy{StaleTime: cfg.StaleTime, GCTime: cfg.GCTime, Retries: 3},
		Search:   query.Policy{StaleTime: cfg.StaleTime, GCTime: cfg.GCTime, Retries: 2},
		History: query.Policy{
			StaleTime: query.Forever,
			ErrorTime: cfg.StaleTime,
			GCTime:    cfg.HistoryGCTime,
			Retries:   1,
		},
	}
}

// WeatherService binds the weather operations to the query cache.
type WeatherService struct {
	repo     repositories.WeatherRepository
	queries  *query.Client
	policies Policies
	now      func() time.Time
	wait     bool
	l        *logger.Logger
}

type Option func(*WeatherService)

func WithClock(now func() time.Time) Option {
	return func(s *WeatherService) { s.now = now }
}

func NewWeatherService(
	repo repositories.WeatherRepository,
	queries *query.Client,
	policies Policies,
	l *logger.Logger,
	opts ...Option,
) *WeatherService {
	s := &WeatherService{
		repo:     repo,
		queries:  queries,
		policies: policies,
		now:      time.Now,
		wait:     true,
		l:        l,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NonBlocking returns a view of s whose calls never wait for the network:
// they return the cached snapshot (pending when empty) and fetch in the background.
func (s *WeatherService) NonBlocking() *WeatherService {
	c := *s
	c.wait = false
	return &c
}

func (s *WeatherService) Queries() *query.Client {
	return s.queries
}

func (s *WeatherService) Now() time.Time {
	return s.now()
}

func (s *WeatherService) CurrentWeather(ctx context.Context, location string, aqi bool) query.Result[models.CurrentResponse] {
	location = strings.TrimSpace(location)
	if location == "" {
		return failed[models.CurrentResponse](ErrEmptyLocation)
	}

	key := query.NewKey(opCurrent, location, aqi)
	return run(ctx, s, key, s.policies.Current, func(ctx context.Context) (models.CurrentResponse, error) {
		return s.repo.FetchCurrent(ctx, location, aqi)
	})
}

func (s *WeatherService) Forecast(ctx context.Context, location string, days int, aqi, alerts bool) query.Result[models.ForecastResponse] {
	location = strings.TrimSpace(location)
	if location == "" {
		return failed[models.ForecastResponse](ErrEmptyLocation)
	}
	if days <= 0 {
		days = ForecastDays
	}

	key := query.NewKey(opForecast, location, days, aqi, alerts)
	return run(ctx, s, key, s.policies.Forecast, func(ctx context.Context) (models.ForecastResponse, error) {
		return s.repo.FetchForecast(ctx, location, days, aqi, alerts)
	})
}

func (s *WeatherService) History(ctx context.Context, location string, date time.Time) query.Result[models.HistoryResponse] {
	location = strings.TrimSpace(location)
	if location == "" {
		return failed[models.HistoryResponse](ErrEmptyLocation)
	}

	key := query.NewKey(opHistory, location, date.Format(dateLayout))
	return run(ctx, s, key, s.policies.History, func(ctx context.Context) (models.HistoryResponse, error) {
		return s.repo.FetchHistory(ctx, location, date)
	})
}

// SearchLocations rejects inputs shorter than MinSearchLength without touching the cache.
func (s *WeatherService) SearchLocations(ctx context.Context, partial string) query.Result[[]models.SearchLocation] {
	partial = strings.TrimSpace(partial)
	if utf8.RuneCountInString(partial) < MinSearchLength {
		return failed[[]models.SearchLocation](ErrQueryTooShort)
	}

	key := query.NewKey(opSearch, partial)
	return run(ctx, s, key, s.policies.Search, func(ctx context.Context) ([]models.SearchLocation, error) {
		return s.repo.SearchLocations(ctx, partial)
	})
}

// ResolveLocation turns coordinates into a canonical "city, region, country" string.
func (s *WeatherService) ResolveLocation(ctx context.Context, lat, lon float64) (string, error) {
	q := strconv.FormatFloat(lat, 'f', -1, 64) + "," + strconv.FormatFloat(lon, 'f', -1, 64)

	res := s.CurrentWeather(ctx, q, false)
	if res.Err != nil && !res.HasData {
		return "", errors.Wrap(res.Err, "failed to resolve location")
	}
	if !res.HasData || res.Data.Location.Name == "" {
		return "", ErrNoLocation
	}
	return res.Data.Location.Canonical(), nil
}

// CurrentForCities fetches current weather for every city concurrently.
// Results are in input order; one city failing does not affect the others.
func (s *WeatherService) CurrentForCities(ctx context.Context, cities []string, aqi bool) []query.Result[models.CurrentResponse] {
	s.l.Debug("starting multi-city fetch", map[string]any{
		"cities": len(cities),
		"aqi":    aqi,
	})

	results := make([]query.Result[models.CurrentResponse], len(cities))
	wg := sync.WaitGroup{}

	for i, city := range cities {
		wg.Add(1)

		go func(i int, city string) {
			defer wg.Done()

			res := s.CurrentWeather(ctx, city, aqi)
			if res.IsError() {
				s.l.Warning("failed to fetch current weather", map[string]any{"city": city, "err": res.Err})
			}
			results[i] = res
		}(i, city)
	}

	wg.Wait()

	failedCount := 0
	for _, res := range results {
		if res.IsError() {
			failedCount++
		}
	}
	s.l.Debug("completed multi-city fetch", map[string]any{
		"cities": len(cities),
		"failed": failedCount,
	})

	return results
}

// DayHistory is the history result of one calendar day.
type DayHistory struct {
	Date   time.Time
	Result query.Result[models.HistoryResponse]
}

// LastDays returns the history of the n days before today, oldest first.
func (s *WeatherService) LastDays(ctx context.Context, location string, n int) []DayHistory {
	today := s.now()
	out := make([]DayHistory, n)

	wg := sync.WaitGroup{}
	for i := 0; i < n; i++ {
		date := today.AddDate(0, 0, i-n)
		out[i].Date = date

		wg.Add(1)
		go func(i int, date time.Time) {
			defer wg.Done()
			out[i].Result = s.History(ctx, location, date)
		}(i, date)
	}
	wg.Wait()

	return out
}

// InvalidateLive marks current, forecast and search results stale.
func (s *WeatherService) InvalidateLive() int {
	n := s.queries.Invalidate(query.NewKey(opCurrent))
	n += s.queries.Invalidate(query.NewKey(opForecast))
	n += s.queries.Invalidate(query.NewKey(opSearch))
	return n
}

func run[T any](
	ctx context.Context,
	s *WeatherService,
	key query.Key,
	policy query.Policy,
	fn func(ctx context.Context) (T, error),
) query.Result[T] {
	if s.wait {
		return query.Fetch(ctx, s.queries, key, policy, fn)
	}
	return query.Observe(ctx, s.queries, key, policy, fn)
}

func failed[T any](err error) query.Result[T] {
	return query.Result[T]{Status: query.StatusError, Err: err}
}
