package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/propertyhub/rental-api/internal/core/ports"
)

// RoleHandler serves role administration.
type RoleHandler struct {
	service ports.RoleService
}

func NewRoleHandler(service ports.RoleService) *RoleHandler {
	return &RoleHandler{service: service}
}

// List returns every role.
//
// @Summary      List roles
// @Tags         roles
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  Envelope
// @Failure      403  {object}  Envelope
// @Router       /roles [get]
func (h *RoleHandler) List(c echo.Context) error {
	roles, err := h.service.List(c.Request().Context())
	if err != nil {
		return err
	}
	return success(c, http.StatusOK, "roles", roles)
}

// Create adds a role.
//
// @Summary      Create role
// @Tags         roles
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        body  body      createRoleRequest  true  "Role"
// @Success      201   {object}  Envelope
// @Failure      400   {object}  Envelope
// @Failure      403   {object}  Envelope
// @Failure      409   {object}  Envelope
// @Router       /roles [post]
func (h *RoleHandler) Create(c echo.Context) error {
	var req createRoleRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	role, err := h.service.Create(c.Request().Context(), req.Name, req.Permissions)
	if err != nil {
		return err
	}
	return success(c, http.StatusCreated, "role created", role)
}
