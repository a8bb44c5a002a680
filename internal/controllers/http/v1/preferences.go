package http

import (
	"net/url"
	"strings"

	"github.com/gofiber/fiber/v2"

	"weather-dashboard/internal/state"
	"weather-dashboard/internal/view"
)

type PreferencesResponse struct {
	User            view.User `json:"user"`
	FavouriteCities []string  `json:"favouriteCities"`
}

type FavouriteRequest struct {
	City   string `json:"city" example:"Delhi, Delhi, India"`
	Toggle bool   `json:"toggle" example:"false"`
}

type UnitRequest struct {
	Unit string `json:"unit" example:"F"`
}

type LocationRequest struct {
	City string   `json:"city,omitempty" example:"Mumbai, Maharashtra, India"`
	Lat  *float64 `json:"lat,omitempty" example:"19.07"`
	Lon  *float64 `json:"lon,omitempty" example:"72.88"`
}

func preferencesResponse(p state.UserPreferences) PreferencesResponse {
	return PreferencesResponse{
		User:            view.UserOf(p),
		FavouriteCities: p.FavouriteCities,
	}
}

// GetPreferences godoc
// @Summary Current user preferences
// @Tags Preferences
// @Produce json
// @Success 200 {object} PreferencesResponse
// @Router /api/v1/preferences [get]
func (r *routes) handlePreferences(c *fiber.Ctx) error {
	return c.JSON(preferencesResponse(r.store.State()))
}

// AddFavourite godoc
// @Summary Add (or toggle) a favourite city
// @Tags Preferences
// @Accept json
// @Produce json
// @Param request body FavouriteRequest true "City to add"
// @Success 200 {object} PreferencesResponse
// @Failure 400 {object} ErrorResponse
// @Router /api/v1/favourites [post]
func (r *routes) handleAddFavourite(c *fiber.Ctx) error {
	var req FavouriteRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "Invalid request body"})
	}
	if strings.TrimSpace(req.City) == "" {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "Missing required field: city"})
	}

	var action state.Action = state.AddFavourite{City: req.City}
	if req.Toggle {
		action = state.ToggleFavourite{City: req.City}
	}

	return c.JSON(preferencesResponse(r.store.Dispatch(c.UserContext(), action)))
}

// RemoveFavourite godoc
// @Summary Remove a favourite city
// @Tags Preferences
// @Produce json
// @Param name path string true "City to remove"
// @Success 200 {object} PreferencesResponse
// @Router /api/v1/favourites/{name} [delete]
func (r *routes) handleRemoveFavourite(c *fiber.Ctx) error {
	name, err := url.PathUnescape(c.Params("name"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "Invalid city name"})
	}

	p := r.store.Dispatch(c.UserContext(), state.RemoveFavourite{City: name})
	return c.JSON(preferencesResponse(p))
}

// SetUnit godoc
// @Summary Set the temperature unit
// @Description unit is "C", "F" or "toggle"
// @Tags Preferences
// @Accept json
// @Produce json
// @Param request body UnitRequest true "Unit"
// @Success 200 {object} PreferencesResponse
// @Failure 400 {object} ErrorResponse
// @Router /api/v1/unit [put]
func (r *routes) handleSetUnit(c *fiber.Ctx) error {
	var req UnitRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "Invalid request body"})
	}

	var action state.Action = state.ToggleTempUnit{}
	if !strings.EqualFold(req.Unit, "toggle") {
		unit, err := state.ParseTempUnit(req.Unit)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: err.Error()})
		}
		action = state.SetTempUnit{Unit: unit}
	}

	return c.JSON(preferencesResponse(r.store.Dispatch(c.UserContext(), action)))
}

// SetLocation godoc
// @Summary Set the user's location
// @Description Either a city, or lat/lon which are resolved to a canonical city
// @Tags Preferences
// @Accept json
// @Produce json
// @Param request body LocationRequest true "City or coordinates"
// @Success 200 {object} PreferencesResponse
// @Failure 400 {object} ErrorResponse
// @Failure 502 {object} ErrorResponse
// @Router /api/v1/location [put]
func (r *routes) handleSetLocation(c *fiber.Ctx) error {
	var req LocationRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "Invalid request body"})
	}

	city := strings.TrimSpace(req.City)
	if city == "" && req.Lat != nil && req.Lon != nil {
		if *req.Lat < -90 || *req.Lat > 90 || *req.Lon < -180 || *req.Lon > 180 {
			return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "Coordinates out of range"})
		}

		resolved, err := r.service.ResolveLocation(c.UserContext(), *req.Lat, *req.Lon)
		if err != nil {
			r.l.Warning("failed to resolve location", map[string]any{"lat": *req.Lat, "lon": *req.Lon, "err": err})
			return c.Status(fiber.StatusBadGateway).JSON(ErrorResponse{Error: "Failed to get location"})
		}
		city = resolved
	}
	if city == "" {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "Missing required field: city or lat/lon"})
	}

	return c.JSON(preferencesResponse(r.store.Dispatch(c.UserContext(), state.SetLocation{City: city})))
}
