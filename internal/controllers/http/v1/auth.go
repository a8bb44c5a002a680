package http

import (
	"github.com/gofiber/fiber/v2"

	"weather-dashboard/internal/auth"
	"weather-dashboard/internal/state"
)

// Login godoc
// @Summary Start Google sign-in
// @Tags Auth
// @Success 302
// @Failure 503 {object} ErrorResponse
// @Router /api/v1/auth/login [get]
func (r *routes) handleLogin(c *fiber.Ctx) error {
	if r.auth == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(ErrorResponse{Error: auth.ErrNotConfigured.Error()})
	}

	st := auth.NewState()
	r.states.Add(st)

	return c.Redirect(r.auth.AuthCodeURL(st), fiber.StatusFound)
}

// Callback godoc
// @Summary Complete Google sign-in
// @Tags Auth
// @Produce json
// @Param code query string true "Authorization code"
// @Param state query string true "State returned by the login redirect"
// @Success 200 {object} PreferencesResponse
// @Failure 401 {object} ErrorResponse
// @Router /api/v1/auth/callback [get]
func (r *routes) handleCallback(c *fiber.Ctx) error {
	if r.auth == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(ErrorResponse{Error: auth.ErrNotConfigured.Error()})
	}

	if !r.states.Take(c.Query("state")) {
		r.l.Warning("sign-in callback with unknown state")
		return c.Status(fiber.StatusUnauthorized).JSON(ErrorResponse{Error: auth.ErrLoginFailed.Error()})
	}

	action, err := r.auth.SignIn(c.UserContext(), c.Query("code"))
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(ErrorResponse{Error: auth.ErrLoginFailed.Error()})
	}

	return c.JSON(preferencesResponse(r.store.Dispatch(c.UserContext(), action)))
}

// Logout godoc
// @Summary Sign out
// @Description Clears the identity; favourites, unit and location are kept
// @Tags Auth
// @Produce json
// @Success 200 {object} PreferencesResponse
// @Router /api/v1/auth/logout [post]
func (r *routes) handleLogout(c *fiber.Ctx) error {
	return c.JSON(preferencesResponse(r.store.Dispatch(c.UserContext(), state.SignOut{})))
}
