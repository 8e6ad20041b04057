package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/orienta/backend/api/http/presenter"
	"github.com/orienta/backend/pkg/auth"
	"github.com/orienta/backend/pkg/users"
)

type AuthHandler struct {
	useCase auth.UseCase
	tokens  auth.TokenService
}

func NewAuthHandler(useCase auth.UseCase, tokens auth.TokenService) *AuthHandler {
	return &AuthHandler{useCase: useCase, tokens: tokens}
}

type registerRequest struct {
	Nombre          string `json:"nombre"`
	Apellido        string `json:"apellido"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	Rol             string `json:"rol"`
	Telefono        string `json:"telefono"`
	FechaNacimiento string `json:"fecha_nacimiento"`
}

// Register handles user registration with the role activation policy.
// @Summary Registro de usuario
// @Tags    auth
// @Accept  json
// @Produce json
// @Param   input body registerRequest true "registration payload"
// @Success 201 {object} map[string]any
// @Failure 400 {object} map[string]any
// @Router  /auth/register [post]
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req registerRequest
	if err := c.BodyParser(&req); err != nil {
		return presenter.Detail(c, http.StatusBadRequest, "invalid JSON payload")
	}
	in := auth.RegisterInput{
		FirstName: strings.TrimSpace(req.Nombre),
		LastName:  strings.TrimSpace(req.Apellido),
		Email:     req.Email,
		Password:  req.Password,
		Role:      users.Role(req.Rol),
		Phone:     strings.TrimSpace(req.Telefono),
	}
	if req.FechaNacimiento != "" {
		birth, err := time.Parse("2006-01-02", req.FechaNacimiento)
		if err != nil {
			return presenter.JSON(c, http.StatusBadRequest, fiber.Map{
				"fecha_nacimiento": []string{"formato de fecha inválido, se espera YYYY-MM-DD"},
			})
		}
		in.BirthDate = &birth
	}

	result, err := h.useCase.Register(c.Context(), in)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrMissingCredentials):
			return presenter.Detail(c, http.StatusBadRequest, "Faltan credenciales.")
		case errors.Is(err, auth.ErrMalformedEmail),
			errors.Is(err, auth.ErrDisposableDomain),
			errors.Is(err, auth.ErrUnresolvableDomain),
			errors.Is(err, auth.ErrDuplicateEmail):
			return presenter.JSON(c, http.StatusBadRequest, fiber.Map{"email": []string{err.Error()}})
		case errors.Is(err, users.ErrInvalidInput):
			return presenter.JSON(c, http.StatusBadRequest, fiber.Map{"rol": []string{"rol inválido"}})
		default:
			return presenter.Detail(c, http.StatusInternalServerError, "no se pudo registrar el usuario")
		}
	}

	return presenter.JSON(c, http.StatusCreated, fiber.Map{
		"message": result.Message,
		"rol":     result.User.Role,
		"email":   result.User.Email,
		"activo":  result.User.Active,
	})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login verifies credentials, enforces the activation gate and returns
// a token pair plus a public user summary.
// @Summary Login
// @Tags    auth
// @Accept  json
// @Produce json
// @Param   input body loginRequest true "login payload"
// @Success 200 {object} map[string]any
// @Failure 400 {object} presenter.ErrorResponse
// @Failure 401 {object} presenter.ErrorResponse
// @Failure 403 {object} presenter.ErrorResponse
// @Router  /auth/login [post]
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req loginRequest
	if err := c.BodyParser(&req); err != nil {
		return presenter.Detail(c, http.StatusBadRequest, "invalid JSON payload")
	}
	result, err := h.useCase.Login(c.Context(), strings.TrimSpace(req.Email), req.Password)
	if err != nil {
		return loginError(c, err)
	}
	return presenter.JSON(c, http.StatusOK, fiber.Map{
		"tokens": fiber.Map{
			"access":  result.Tokens.Access,
			"refresh": result.Tokens.Refresh,
		},
		"user": fiber.Map{
			"id":       result.User.ID.String(),
			"email":    result.User.Email,
			"nombre":   result.User.FirstName,
			"apellido": result.User.LastName,
			"rol":      result.User.Role,
			"activo":   result.User.Active,
		},
	})
}

// Token implements the bare token-obtain contract: same credential and
// activation gating as Login, but the response is just the pair.
// @Summary Obtener par de tokens
// @Tags    auth
// @Accept  json
// @Produce json
// @Param   input body loginRequest true "credentials"
// @Success 200 {object} map[string]string
// @Failure 401 {object} presenter.ErrorResponse
// @Router  /auth/token [post]
func (h *AuthHandler) Token(c *fiber.Ctx) error {
	var req loginRequest
	if err := c.BodyParser(&req); err != nil {
		return presenter.Detail(c, http.StatusBadRequest, "invalid JSON payload")
	}
	result, err := h.useCase.Login(c.Context(), strings.TrimSpace(req.Email), req.Password)
	if err != nil {
		return loginError(c, err)
	}
	return presenter.JSON(c, http.StatusOK, fiber.Map{
		"access":  result.Tokens.Access,
		"refresh": result.Tokens.Refresh,
	})
}

type refreshRequest struct {
	Refresh string `json:"refresh"`
}

// Refresh exchanges a valid refresh token for a new access token.
// @Summary Refrescar access token
// @Tags    auth
// @Accept  json
// @Produce json
// @Param   input body refreshRequest true "refresh token"
// @Success 200 {object} map[string]string
// @Failure 401 {object} presenter.ErrorResponse
// @Router  /auth/token/refresh [post]
func (h *AuthHandler) Refresh(c *fiber.Ctx) error {
	var req refreshRequest
	if err := c.BodyParser(&req); err != nil || req.Refresh == "" {
		return presenter.Detail(c, http.StatusBadRequest, "refresh token is required")
	}
	pair, err := h.tokens.Refresh(c.Context(), req.Refresh)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidToken) {
			return presenter.Detail(c, http.StatusUnauthorized, "Token inválido o ya expirado.")
		}
		return presenter.Detail(c, http.StatusInternalServerError, "no se pudo refrescar el token")
	}
	body := fiber.Map{"access": pair.Access}
	if pair.Refresh != "" {
		body["refresh"] = pair.Refresh
	}
	return presenter.JSON(c, http.StatusOK, body)
}

type logoutRequest struct {
	Refresh string `json:"refresh"`
}

// Logout blacklists the refresh token. Invalid or already expired
// tokens are reported as a benign 400.
// @Summary Cerrar sesión
// @Tags    auth
// @Accept  json
// @Produce json
// @Param   input body logoutRequest true "refresh token"
// @Security BearerAuth
// @Success 200 {object} map[string]string
// @Failure 400 {object} map[string]string
// @Router  /auth/logout [post]
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	var req logoutRequest
	_ = c.BodyParser(&req)
	if err := h.useCase.Logout(c.Context(), req.Refresh); err != nil {
		return presenter.Error(c, http.StatusBadRequest, "Token inválido o ya expirado.")
	}
	return presenter.JSON(c, http.StatusOK, fiber.Map{"message": "Sesión cerrada correctamente."})
}

func loginError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, auth.ErrMissingCredentials):
		return presenter.Detail(c, http.StatusBadRequest, "Faltan credenciales.")
	case errors.Is(err, auth.ErrInvalidCredentials):
		return presenter.Detail(c, http.StatusUnauthorized, "Credenciales inválidas.")
	case errors.Is(err, auth.ErrAccountInactive):
		return presenter.Detail(c, http.StatusForbidden,
			"Tu cuenta está inactiva. Un administrador debe activarla antes de ingresar.")
	default:
		return presenter.Detail(c, http.StatusInternalServerError, "no se pudo iniciar sesión")
	}
}
