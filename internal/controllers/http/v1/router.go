package http

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/swagger"
	"github.com/swaggo/swag"

	"weather-dashboard/docs"
	"weather-dashboard/internal/services/weather"
	"weather-dashboard/internal/state"
	"weather-dashboard/pkg/logger"
)

// Authenticator completes a third-party sign-in.
type Authenticator interface {
	AuthCodeURL(state string) string
	SignIn(ctx context.Context, code string) (state.SignIn, error)
}

type routes struct {
	service *weather.WeatherService
	store   *state.Store
	auth    Authenticator
	l       *logger.Logger
	states  *loginStates
}

// NewRouter mounts the dashboard API. auth may be nil when sign-in is not configured.
func NewRouter(
	app *fiber.App,
	weatherService *weather.WeatherService,
	store *state.Store,
	auth Authenticator,
	l *logger.Logger,
) {
	r := &routes{
		service: weatherService,
		store:   store,
		auth:    auth,
		l:       l,
		states:  newLoginStates(loginStateTTL, maxLoginStates, time.Now),
	}

	app.Get("/swagger/doc.json", func(c *fiber.Ctx) error {
		doc, err := swag.ReadDoc(docs.SwaggerInfo.InstanceName())
		if err != nil {
			r.l.Error(err)
			return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: "Swagger document unavailable"})
		}
		c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
		return c.SendString(doc)
	})

	app.Get("/swagger/*", swagger.New(swagger.Config{
		URL:         "/swagger/doc.json",
		DeepLinking: true,
	}))

	v1 := app.Group("/api/v1")

	v1.Get("/home", r.handleHome)
	v1.Get("/cities/:name", r.handleCity)
	v1.Get("/search", r.handleSearch)

	v1.Get("/preferences", r.handlePreferences)
	v1.Post("/favourites", r.handleAddFavourite)
	v1.Delete("/favourites/:name", r.handleRemoveFavourite)
	v1.Put("/unit", r.handleSetUnit)
	v1.Put("/location", r.handleSetLocation)

	v1.Get("/auth/login", r.handleLogin)
	v1.Get("/auth/callback", r.handleCallback)
	v1.Post("/auth/logout", r.handleLogout)

	v1.Get("/cache/stats", r.handleCacheStats)
	v1.Post("/cache/refresh", r.handleCacheRefresh)
}

// serviceFor honours ?wait=false by answering from the cache without blocking.
func (r *routes) serviceFor(c *fiber.Ctx) *weather.WeatherService {
	if c.QueryBool("wait", true) {
		return r.service
	}
	return r.service.NonBlocking()
}
