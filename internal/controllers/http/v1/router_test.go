package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"weather-dashboard/config"
	"weather-dashboard/internal/auth"
	"weather-dashboard/internal/models"
	"weather-dashboard/internal/query"
	"weather-dashboard/internal/repositories"
	"weather-dashboard/internal/services/weather"
	"weather-dashboard/internal/state"
	"weather-dashboard/internal/storage"
	"weather-dashboard/internal/view"
	"weather-dashboard/pkg/httpserver"
	"weather-dashboard/pkg/logger"
)

type stubRepository struct {
	mu       sync.Mutex
	failFor  map[string]error
	searches []string

	// searchGate, when set, holds searches until closed; results then echo the query.
	searchGate chan struct{}
}

func (s *stubRepository) Name() string { return "stub" }

func (s *stubRepository) FetchCurrent(ctx context.Context, location string, withAQI bool) (models.CurrentResponse, error) {
	s.mu.Lock()
	err := s.failFor[location]
	s.mu.Unlock()
	if err != nil {
		return models.CurrentResponse{}, err
	}

	name, region, country := view.SplitCity(location)
	if _, err := strconv.ParseFloat(name, 64); err == nil {
		name, region, country = "Pune", "Maharashtra", "India"
	}
	return models.CurrentResponse{
		Location: models.Location{Name: name, Region: region, Country: country, Localtime: "2026-10-17 09:30"},
		Current: models.Current{
			TempC:     models.Num(30),
			TempF:     models.Num(86),
			IsDay:     models.Num(1),
			Condition: models.Condition{Text: "Sunny"},
		},
	}, nil
}

func (s *stubRepository) FetchForecast(ctx context.Context, location string, days int, withAQI, withAlerts bool) (models.ForecastResponse, error) {
	return models.ForecastResponse{}, nil
}

func (s *stubRepository) FetchHistory(ctx context.Context, location string, date time.Time) (models.HistoryResponse, error) {
	return models.HistoryResponse{Forecast: models.Forecast{ForecastDay: []models.ForecastDay{{
		Date: date.Format("2006-01-02"),
		Day:  models.Day{MaxTempC: models.Num(32), MinTempC: models.Num(24), AvgTempC: models.Num(28)},
	}}}}, nil
}

func (s *stubRepository) SearchLocations(ctx context.Context, q string) ([]models.SearchLocation, error) {
	if s.searchGate != nil {
		<-s.searchGate

		s.mu.Lock()
		s.searches = append(s.searches, q)
		s.mu.Unlock()
		return []models.SearchLocation{{ID: 1, Name: q, Region: "Region", Country: "Country"}}, nil
	}
	return []models.SearchLocation{{ID: 1, Name: "Delhi", Region: "Delhi", Country: "India"}}, nil
}

type stubAuth struct {
	signIn state.SignIn
	err    error
}

func (a *stubAuth) AuthCodeURL(st string) string {
	return "https://accounts.example.com/auth?state=" + st
}

func (a *stubAuth) SignIn(ctx context.Context, code string) (state.SignIn, error) {
	if a.err != nil {
		return state.SignIn{}, a.err
	}
	return a.signIn, nil
}

type testEnv struct {
	app   *fiber.App
	svc   *weather.WeatherService
	store *state.Store
	prefs *storage.PreferenceStore
	repo  *stubRepository
}

func newTestEnv(t *testing.T, authenticator Authenticator) *testEnv {
	t.Helper()

	l := logger.NewNop()
	repo := &stubRepository{failFor: map[string]error{}}
	queries := query.New(
		query.WithSleep(func(context.Context, time.Duration) error { return nil }),
		query.WithRetryable(repositories.IsRetryable),
	)
	svc := weather.NewWeatherService(repo, queries, weather.PoliciesFromConfig(config.Default().Cache), l,
		weather.WithClock(func() time.Time { return time.Date(2026, 10, 17, 9, 30, 0, 0, time.UTC) }))

	prefs := storage.NewPreferenceStore(storage.NewMemory(), l)
	store := state.NewStore(state.Default(), prefs, l)

	app := httpserver.InitFiberServer("weather-dashboard-test")
	NewRouter(app, svc, store, authenticator, l)

	return &testEnv{app: app, svc: svc, store: store, prefs: prefs, repo: repo}
}

func (e *testEnv) do(t *testing.T, method, target, body string) (int, []byte) {
	t.Helper()

	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, r)
	if body != "" {
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	}

	resp, err := e.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, data
}

func TestHome(t *testing.T) {
	env := newTestEnv(t, nil)

	status, body := env.do(t, fiber.MethodGet, "/api/v1/home", "")
	require.Equal(t, fiber.StatusOK, status)

	var home view.HomeView
	require.NoError(t, json.Unmarshal(body, &home))
	assert.Len(t, home.Cards, 6)
	assert.Equal(t, view.StateReady, home.Cards[0].State)
	assert.Equal(t, "30°C", home.Cards[0].Temperature)
	assert.False(t, home.User.LoggedIn)
	assert.Equal(t, view.DefaultHistoryCity, home.History.City)
}

func TestHome_NoWaitReturnsPending(t *testing.T) {
	env := newTestEnv(t, nil)

	status, body := env.do(t, fiber.MethodGet, "/api/v1/home?wait=false", "")
	require.Equal(t, fiber.StatusOK, status)

	var home view.HomeView
	require.NoError(t, json.Unmarshal(body, &home))
	require.NotEmpty(t, home.Cards)
	assert.Equal(t, view.StatePending, home.Cards[0].State)
}

func TestCity(t *testing.T) {
	env := newTestEnv(t, nil)

	status, body := env.do(t, fiber.MethodGet, "/api/v1/cities/Delhi%2C%20Delhi%2C%20India", "")
	require.Equal(t, fiber.StatusOK, status)

	var city view.CityView
	require.NoError(t, json.Unmarshal(body, &city))
	assert.Equal(t, "Delhi, Delhi, India", city.City)
	assert.Equal(t, view.StateReady, city.State)
}

func TestCity_CurrentFailureIsBadGateway(t *testing.T) {
	env := newTestEnv(t, nil)
	env.repo.failFor["Atlantis, Sea, Nowhere"] = &repositories.APIError{StatusCode: 400, Code: 1006, Message: "No matching location found."}

	status, body := env.do(t, fiber.MethodGet, "/api/v1/cities/Atlantis%2C%20Sea%2C%20Nowhere", "")
	require.Equal(t, fiber.StatusBadGateway, status)

	var city view.CityView
	require.NoError(t, json.Unmarshal(body, &city))
	assert.Equal(t, view.StateError, city.State)
	assert.NotEmpty(t, city.Error)
}

func TestSearch(t *testing.T) {
	env := newTestEnv(t, nil)

	status, body := env.do(t, fiber.MethodGet, "/api/v1/search?q=de", "")
	require.Equal(t, fiber.StatusOK, status)

	var res view.SearchView
	require.NoError(t, json.Unmarshal(body, &res))
	require.Len(t, res.Results, 1)
	assert.Equal(t, "Delhi, Delhi, India", res.Results[0].Canonical)
}

func TestSearch_ShortQueryIsIdle(t *testing.T) {
	env := newTestEnv(t, nil)

	status, body := env.do(t, fiber.MethodGet, "/api/v1/search?q=d", "")
	require.Equal(t, fiber.StatusOK, status)

	var res view.SearchView
	require.NoError(t, json.Unmarshal(body, &res))
	assert.Equal(t, view.StateIdle, res.State)
}

func TestSearch_BackgroundFetchKeepsItsQuery(t *testing.T) {
	env := newTestEnv(t, nil)
	env.repo.searchGate = make(chan struct{})

	status, body := env.do(t, fiber.MethodGet, "/api/v1/search?q=delhi&wait=false", "")
	require.Equal(t, fiber.StatusOK, status)

	var res view.SearchView
	require.NoError(t, json.Unmarshal(body, &res))
	assert.Equal(t, view.StatePending, res.State)

	for i := 0; i < 20; i++ {
		status, _ = env.do(t, fiber.MethodGet, "/api/v1/search?q=paris&wait=false", "")
		require.Equal(t, fiber.StatusOK, status)
	}

	close(env.repo.searchGate)
	env.svc.Queries().Wait()

	env.repo.mu.Lock()
	searches := append([]string(nil), env.repo.searches...)
	env.repo.mu.Unlock()
	assert.ElementsMatch(t, []string{"delhi", "paris"}, searches)

	status, body = env.do(t, fiber.MethodGet, "/api/v1/search?q=delhi", "")
	require.Equal(t, fiber.StatusOK, status)
	require.NoError(t, json.Unmarshal(body, &res))
	require.Len(t, res.Results, 1)
	assert.Equal(t, "delhi", res.Results[0].Name)
}

func TestFavourites(t *testing.T) {
	env := newTestEnv(t, nil)

	status, _ := env.do(t, fiber.MethodPost, "/api/v1/favourites", `{"city":"Delhi, Delhi, India"}`)
	require.Equal(t, fiber.StatusOK, status)
	status, _ = env.do(t, fiber.MethodPost, "/api/v1/favourites", `{"city":"Delhi, Delhi, India"}`)
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, []string{"Delhi, Delhi, India"}, env.store.State().FavouriteCities)

	loaded, err := env.prefs.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"Delhi, Delhi, India"}, loaded.FavouriteCities)

	status, body := env.do(t, fiber.MethodPost, "/api/v1/favourites", `{"city":"Delhi, Delhi, India","toggle":true}`)
	require.Equal(t, fiber.StatusOK, status)

	var resp PreferencesResponse
	require.NoError(t, json.Unmarshal(body, &resp))
	assert.Empty(t, resp.FavouriteCities)
}

func TestFavourites_Validation(t *testing.T) {
	env := newTestEnv(t, nil)

	status, body := env.do(t, fiber.MethodPost, "/api/v1/favourites", `{"city":"  "}`)
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Contains(t, string(body), "city")
}

func TestRemoveFavourite(t *testing.T) {
	env := newTestEnv(t, nil)
	env.store.Dispatch(context.Background(), state.AddFavourite{City: "Goa, Goa, India"})
	env.store.Dispatch(context.Background(), state.AddFavourite{City: "Pune, Maharashtra, India"})

	status, body := env.do(t, fiber.MethodDelete, "/api/v1/favourites/Goa%2C%20Goa%2C%20India", "")
	require.Equal(t, fiber.StatusOK, status)

	var resp PreferencesResponse
	require.NoError(t, json.Unmarshal(body, &resp))
	assert.Equal(t, []string{"Pune, Maharashtra, India"}, resp.FavouriteCities)
}

func TestSetUnit(t *testing.T) {
	env := newTestEnv(t, nil)

	status, _ := env.do(t, fiber.MethodPut, "/api/v1/unit", `{"unit":"F"}`)
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, state.Fahrenheit, env.store.State().TempUnit)

	status, _ = env.do(t, fiber.MethodPut, "/api/v1/unit", `{"unit":"toggle"}`)
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, state.Celsius, env.store.State().TempUnit)

	status, _ = env.do(t, fiber.MethodPut, "/api/v1/unit", `{"unit":"K"}`)
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, state.Celsius, env.store.State().TempUnit)
}

func TestSetLocation(t *testing.T) {
	env := newTestEnv(t, nil)

	status, _ := env.do(t, fiber.MethodPut, "/api/v1/location", `{"city":"Mumbai, Maharashtra, India"}`)
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "Mumbai, Maharashtra, India", env.store.State().Location)

	status, _ = env.do(t, fiber.MethodPut, "/api/v1/location", `{"lat":18.52,"lon":73.86}`)
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "Pune, Maharashtra, India", env.store.State().Location)

	status, _ = env.do(t, fiber.MethodPut, "/api/v1/location", `{"lat":120,"lon":73.86}`)
	assert.Equal(t, fiber.StatusBadRequest, status)

	status, _ = env.do(t, fiber.MethodPut, "/api/v1/location", `{}`)
	assert.Equal(t, fiber.StatusBadRequest, status)
}

func TestSetLocation_ResolveFailure(t *testing.T) {
	env := newTestEnv(t, nil)
	env.repo.failFor["10,20"] = &repositories.APIError{StatusCode: 400, Code: 1006, Message: "No matching location found."}

	status, body := env.do(t, fiber.MethodPut, "/api/v1/location", `{"lat":10,"lon":20}`)
	assert.Equal(t, fiber.StatusBadGateway, status)
	assert.Contains(t, string(body), "Failed to get location")
	assert.Empty(t, env.store.State().Location)
}

func TestAuth_NotConfigured(t *testing.T) {
	env := newTestEnv(t, nil)

	status, body := env.do(t, fiber.MethodGet, "/api/v1/auth/login", "")
	assert.Equal(t, fiber.StatusServiceUnavailable, status)
	assert.Contains(t, string(body), auth.ErrNotConfigured.Error())
}

func TestAuth_LoginCallbackLogout(t *testing.T) {
	stub := &stubAuth{signIn: state.SignIn{Name: "Asha", Email: "asha@example.com"}}
	env := newTestEnv(t, stub)

	req := httptest.NewRequest(fiber.MethodGet, "/api/v1/auth/login", nil)
	resp, err := env.app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusFound, resp.StatusCode)

	location := resp.Header.Get(fiber.HeaderLocation)
	require.True(t, strings.HasPrefix(location, "https://accounts.example.com/auth?state="))
	st := strings.TrimPrefix(location, "https://accounts.example.com/auth?state=")

	status, _ := env.do(t, fiber.MethodGet, "/api/v1/auth/callback?code=abc&state=unknown", "")
	assert.Equal(t, fiber.StatusUnauthorized, status)
	assert.False(t, env.store.State().IsLoggedIn())

	status, body := env.do(t, fiber.MethodGet, "/api/v1/auth/callback?code=abc&state="+st, "")
	require.Equal(t, fiber.StatusOK, status)

	var prefs PreferencesResponse
	require.NoError(t, json.Unmarshal(body, &prefs))
	assert.True(t, prefs.User.LoggedIn)
	assert.Equal(t, "Asha", prefs.User.Name)

	// states are single use
	status, _ = env.do(t, fiber.MethodGet, "/api/v1/auth/callback?code=abc&state="+st, "")
	assert.Equal(t, fiber.StatusUnauthorized, status)

	status, _ = env.do(t, fiber.MethodPost, "/api/v1/auth/logout", "")
	require.Equal(t, fiber.StatusOK, status)
	assert.False(t, env.store.State().IsLoggedIn())
}

func TestAuth_CallbackFailure(t *testing.T) {
	stub := &stubAuth{err: errors.New("exchange failed")}
	env := newTestEnv(t, stub)

	req := httptest.NewRequest(fiber.MethodGet, "/api/v1/auth/login", nil)
	resp, err := env.app.Test(req, -1)
	require.NoError(t, err)
	st := strings.TrimPrefix(resp.Header.Get(fiber.HeaderLocation), "https://accounts.example.com/auth?state=")

	status, body := env.do(t, fiber.MethodGet, "/api/v1/auth/callback?code=bad&state="+st, "")
	assert.Equal(t, fiber.StatusUnauthorized, status)
	assert.Contains(t, string(body), "login failed, try again")
}

func TestCacheEndpoints(t *testing.T) {
	env := newTestEnv(t, nil)
	env.do(t, fiber.MethodGet, "/api/v1/cities/Delhi%2C%20Delhi%2C%20India", "")

	status, body := env.do(t, fiber.MethodGet, "/api/v1/cache/stats", "")
	require.Equal(t, fiber.StatusOK, status)

	var stats query.Stats
	require.NoError(t, json.Unmarshal(body, &stats))
	assert.Positive(t, stats.Entries)

	status, body = env.do(t, fiber.MethodPost, "/api/v1/cache/refresh", "")
	require.Equal(t, fiber.StatusOK, status)
	assert.Contains(t, string(body), "invalidated")
}

func TestSwaggerDoc(t *testing.T) {
	env := newTestEnv(t, nil)

	status, body := env.do(t, fiber.MethodGet, "/swagger/doc.json", "")
	require.Equal(t, fiber.StatusOK, status)
	assert.Contains(t, string(body), "/api/v1/home")
}
