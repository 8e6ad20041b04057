package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/orienta/backend/api/http/presenter"
	"github.com/orienta/backend/pkg/users"
)

type UsersHandler struct {
	useCase users.UseCase
}

func NewUsersHandler(useCase users.UseCase) *UsersHandler {
	return &UsersHandler{useCase: useCase}
}

func principalFrom(c *fiber.Ctx) users.Principal {
	idStr, _ := c.Locals("userId").(string)
	roleStr, _ := c.Locals("role").(string)
	id, _ := uuid.Parse(idStr)
	return users.Principal{ID: id, Role: users.Role(roleStr)}
}

const dateLayout = "2006-01-02"

func userResponse(u users.User) fiber.Map {
	var birth any
	if u.BirthDate != nil {
		birth = u.BirthDate.Format(dateLayout)
	}
	var lastLogin any
	if u.LastLogin != nil {
		lastLogin = u.LastLogin.UTC().Format(time.RFC3339)
	}
	return fiber.Map{
		"id":               u.ID.String(),
		"email":            u.Email,
		"nombre":           u.FirstName,
		"apellido":         u.LastName,
		"fecha_nacimiento": birth,
		"telefono":         u.Phone,
		"rol":              u.Role,
		"fecha_registro":   u.RegisteredAt.UTC().Format(time.RFC3339),
		"ultimo_login":     lastLogin,
		"activo":           u.Active,
	}
}

func userError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, users.ErrForbidden):
		return presenter.Detail(c, http.StatusForbidden, "No tienes permiso para realizar esta acción.")
	case errors.Is(err, users.ErrNotFound):
		return presenter.Detail(c, http.StatusNotFound, "Usuario no encontrado.")
	case errors.Is(err, users.ErrEmailTaken):
		return presenter.JSON(c, http.StatusBadRequest, fiber.Map{"email": []string{"este correo ya está registrado"}})
	case errors.Is(err, users.ErrInvalidInput):
		return presenter.Detail(c, http.StatusBadRequest, "datos inválidos")
	default:
		return presenter.Detail(c, http.StatusInternalServerError, "error interno")
	}
}

// List returns a paginated page of users, admin only. Supports ?q=
// substring search over email, nombre y apellido.
// @Summary Listar usuarios
// @Tags    users
// @Produce json
// @Param   q query string false "substring filter"
// @Param   limit query int false "page size"
// @Param   offset query int false "page offset"
// @Security BearerAuth
// @Success 200 {object} map[string]any
// @Failure 403 {object} presenter.ErrorResponse
// @Router  /users [get]
func (h *UsersHandler) List(c *fiber.Ctx) error {
	limit, offset := parseLimitOffset(c, 20)
	page, err := h.useCase.List(c.Context(), principalFrom(c), c.Query("q"), limit, offset)
	if err != nil {
		return userError(c, err)
	}
	results := make([]fiber.Map, 0, len(page.Results))
	for _, u := range page.Results {
		results = append(results, userResponse(u))
	}
	return presenter.JSON(c, http.StatusOK, fiber.Map{
		"count":   page.Count,
		"results": results,
	})
}

type userPayload struct {
	Email           *string `json:"email"`
	Password        *string `json:"password"`
	Nombre          *string `json:"nombre"`
	Apellido        *string `json:"apellido"`
	FechaNacimiento *string `json:"fecha_nacimiento"`
	Telefono        *string `json:"telefono"`
	Rol             *string `json:"rol"`
	Activo          *bool   `json:"activo"`
}

func (p userPayload) birthDate() (*time.Time, error) {
	if p.FechaNacimiento == nil || *p.FechaNacimiento == "" {
		return nil, nil
	}
	t, err := time.Parse(dateLayout, *p.FechaNacimiento)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func str(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

// Create inserts a new user with admin-supplied role and activation
// state, admin only.
// @Summary Crear usuario
// @Tags    users
// @Accept  json
// @Produce json
// @Param   input body userPayload true "user payload"
// @Security BearerAuth
// @Success 201 {object} map[string]any
// @Failure 403 {object} presenter.ErrorResponse
// @Router  /users [post]
func (h *UsersHandler) Create(c *fiber.Ctx) error {
	var req userPayload
	if err := c.BodyParser(&req); err != nil {
		return presenter.Detail(c, http.StatusBadRequest, "invalid JSON payload")
	}
	birth, err := req.birthDate()
	if err != nil {
		return presenter.Detail(c, http.StatusBadRequest, "fecha_nacimiento inválida")
	}
	user := users.User{
		Email:        str(req.Email),
		FirstName:    str(req.Nombre),
		LastName:     str(req.Apellido),
		BirthDate:    birth,
		Phone:        str(req.Telefono),
		Role:         users.Role(str(req.Rol)),
		RegisteredAt: time.Now().UTC(),
		Active:       req.Activo == nil || *req.Activo,
	}
	created, err := h.useCase.Create(c.Context(), principalFrom(c), user, str(req.Password))
	if err != nil {
		return userError(c, err)
	}
	return presenter.JSON(c, http.StatusCreated, userResponse(created))
}

// Get returns one user; allowed to admins and to the user themself.
// @Summary Obtener usuario
// @Tags    users
// @Produce json
// @Param   id path string true "user id (UUID)"
// @Security BearerAuth
// @Success 200 {object} map[string]any
// @Failure 403 {object} presenter.ErrorResponse
// @Failure 404 {object} presenter.ErrorResponse
// @Router  /users/{id} [get]
func (h *UsersHandler) Get(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return presenter.Detail(c, http.StatusBadRequest, "id inválido")
	}
	user, err := h.useCase.Get(c.Context(), principalFrom(c), id)
	if err != nil {
		return userError(c, err)
	}
	return presenter.JSON(c, http.StatusOK, userResponse(user))
}

// Update replaces the mutable fields of a user (PUT semantics).
// @Summary Actualizar usuario
// @Tags    users
// @Accept  json
// @Produce json
// @Param   id path string true "user id (UUID)"
// @Param   input body userPayload true "user payload"
// @Security BearerAuth
// @Success 200 {object} map[string]any
// @Failure 403 {object} presenter.ErrorResponse
// @Failure 404 {object} presenter.ErrorResponse
// @Router  /users/{id} [put]
func (h *UsersHandler) Update(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return presenter.Detail(c, http.StatusBadRequest, "id inválido")
	}
	var req userPayload
	if err := c.BodyParser(&req); err != nil {
		return presenter.Detail(c, http.StatusBadRequest, "invalid JSON payload")
	}
	birth, err := req.birthDate()
	if err != nil {
		return presenter.Detail(c, http.StatusBadRequest, "fecha_nacimiento inválida")
	}
	user := users.User{
		Email:     str(req.Email),
		FirstName: str(req.Nombre),
		LastName:  str(req.Apellido),
		BirthDate: birth,
		Phone:     str(req.Telefono),
		Role:      users.Role(str(req.Rol)),
		Active:    req.Activo != nil && *req.Activo,
	}
	updated, err := h.useCase.Update(c.Context(), principalFrom(c), id, user, str(req.Password))
	if err != nil {
		return userError(c, err)
	}
	return presenter.JSON(c, http.StatusOK, userResponse(updated))
}

// Patch applies a partial update (PATCH semantics): absent fields stay
// untouched, password is rehashed when present.
// @Summary Actualización parcial de usuario
// @Tags    users
// @Accept  json
// @Produce json
// @Param   id path string true "user id (UUID)"
// @Param   input body userPayload true "partial payload"
// @Security BearerAuth
// @Success 200 {object} map[string]any
// @Failure 403 {object} presenter.ErrorResponse
// @Failure 404 {object} presenter.ErrorResponse
// @Router  /users/{id} [patch]
func (h *UsersHandler) Patch(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return presenter.Detail(c, http.StatusBadRequest, "id inválido")
	}
	var req userPayload
	if err := c.BodyParser(&req); err != nil {
		return presenter.Detail(c, http.StatusBadRequest, "invalid JSON payload")
	}
	birth, err := req.birthDate()
	if err != nil {
		return presenter.Detail(c, http.StatusBadRequest, "fecha_nacimiento inválida")
	}
	fields := users.UpdateFields{
		Email:     req.Email,
		FirstName: req.Nombre,
		LastName:  req.Apellido,
		BirthDate: birth,
		Phone:     req.Telefono,
		Active:    req.Activo,
	}
	if req.Rol != nil {
		role := users.Role(*req.Rol)
		fields.Role = &role
	}
	updated, err := h.useCase.UpdatePartial(c.Context(), principalFrom(c), id, fields, str(req.Password))
	if err != nil {
		return userError(c, err)
	}
	return presenter.JSON(c, http.StatusOK, userResponse(updated))
}

// Delete removes a user, admin only.
// @Summary Eliminar usuario
// @Tags    users
// @Param   id path string true "user id (UUID)"
// @Security BearerAuth
// @Success 204
// @Failure 403 {object} presenter.ErrorResponse
// @Failure 404 {object} presenter.ErrorResponse
// @Router  /users/{id} [delete]
func (h *UsersHandler) Delete(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return presenter.Detail(c, http.StatusBadRequest, "id inválido")
	}
	if err := h.useCase.Delete(c.Context(), principalFrom(c), id); err != nil {
		return userError(c, err)
	}
	return c.SendStatus(http.StatusNoContent)
}
