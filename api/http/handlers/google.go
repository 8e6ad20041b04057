package handlers

import (
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/orienta/backend/api/http/presenter"
	"github.com/orienta/backend/pkg/auth"
	"github.com/orienta/backend/pkg/oauth"
)

type GoogleHandler struct {
	useCase auth.OAuthUseCase
}

func NewGoogleHandler(useCase auth.OAuthUseCase) *GoogleHandler {
	return &GoogleHandler{useCase: useCase}
}

// Login returns the Google consent URL for client-side redirection.
// @Summary URL de autorización de Google
// @Tags    auth
// @Produce json
// @Success 200 {object} map[string]string
// @Router  /auth/google/login [get]
func (h *GoogleHandler) Login(c *fiber.Ctx) error {
	return presenter.JSON(c, http.StatusOK, fiber.Map{"auth_url": h.useCase.AuthURL()})
}

// Callback exchanges the authorization code, links or creates the local
// user by email and redirects to the frontend with the issued tokens.
// Provider failures pass their status and detail through.
// @Summary Callback de Google OAuth
// @Tags    auth
// @Param   code query string true "authorization code"
// @Success 302
// @Failure 400 {object} map[string]string
// @Router  /auth/google/callback [get]
func (h *GoogleHandler) Callback(c *fiber.Ctx) error {
	redirectURL, err := h.useCase.Callback(c.Context(), c.Query("code"))
	if err != nil {
		if errors.Is(err, auth.ErrMissingCode) {
			return presenter.Error(c, http.StatusBadRequest, "Missing code")
		}
		var upstream *oauth.UpstreamError
		if errors.As(err, &upstream) {
			return presenter.JSON(c, upstream.Status, fiber.Map{
				"error":   upstream.Op + " failed",
				"details": upstream.Detail,
			})
		}
		return presenter.Error(c, http.StatusInternalServerError, "google login failed")
	}
	return c.Redirect(redirectURL, http.StatusFound)
}
