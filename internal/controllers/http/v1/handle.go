package http

import (
	"net/url"
	"strings"

	"github.com/gofiber/fiber/v2"

	"weather-dashboard/internal/view"
)

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error string `json:"error" example:"Missing required parameter: q"`
}

// GetHome godoc
// @Summary Home dashboard
// @Description City cards, last week's history for the user's location and the favourites panel
// @Tags Dashboard
// @Produce json
// @Param wait query boolean false "Wait for fresh data (default true); false answers from cache with pending placeholders"
// @Success 200 {object} view.HomeView
// @Router /api/v1/home [get]
func (r *routes) handleHome(c *fiber.Ctx) error {
	home := view.BuildHome(c.UserContext(), r.serviceFor(c), r.store.State())
	return c.JSON(home)
}

// GetCity godoc
// @Summary City details
// @Description Current conditions, air quality, hourly and weekly forecast, alerts and astronomy for one city
// @Tags Dashboard
// @Produce json
// @Param name path string true "City, e.g. 'Delhi, Delhi, India'"
// @Param wait query boolean false "Wait for fresh data (default true)"
// @Success 200 {object} view.CityView
// @Failure 502 {object} view.CityView "Current conditions could not be loaded"
// @Router /api/v1/cities/{name} [get]
func (r *routes) handleCity(c *fiber.Ctx) error {
	name, err := url.PathUnescape(c.Params("name"))
	if err != nil || strings.TrimSpace(name) == "" {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Error: "Invalid city name",
		})
	}

	city := view.BuildCity(c.UserContext(), r.serviceFor(c), name, r.store.State())
	if city.State == view.StateError {
		r.l.Warning("city details unavailable", map[string]any{
			"city": name,
			"err":  city.Error,
		})
		return c.Status(fiber.StatusBadGateway).JSON(city)
	}
	return c.JSON(city)
}

// SearchLocations godoc
// @Summary Search locations
// @Description Location name search; queries shorter than 2 characters return an idle result without searching
// @Tags Dashboard
// @Produce json
// @Param q query string true "Partial location name"
// @Success 200 {object} view.SearchView
// @Router /api/v1/search [get]
func (r *routes) handleSearch(c *fiber.Ctx) error {
	result := view.BuildSearch(c.UserContext(), r.serviceFor(c), c.Query("q"), r.store.State())
	return c.JSON(result)
}

// GetCacheStats godoc
// @Summary Query cache statistics
// @Tags Cache
// @Produce json
// @Success 200 {object} query.Stats
// @Router /api/v1/cache/stats [get]
func (r *routes) handleCacheStats(c *fiber.Ctx) error {
	return c.JSON(r.service.Queries().Stats())
}

// RefreshCache godoc
// @Summary Mark live weather data stale
// @Description Current, forecast and search results are refetched on next use; history is kept
// @Tags Cache
// @Produce json
// @Success 200 {object} map[string]int
// @Router /api/v1/cache/refresh [post]
func (r *routes) handleCacheRefresh(c *fiber.Ctx) error {
	n := r.service.InvalidateLive()
	return c.JSON(fiber.Map{"invalidated": n})
}
