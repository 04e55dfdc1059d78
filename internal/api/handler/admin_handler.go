package handler

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/propertyhub/rental-api/internal/core/domain"
	"github.com/propertyhub/rental-api/internal/core/ports"
)

// AdminHandler serves account administration across actor kinds.
type AdminHandler struct {
	sessions ports.SessionDirectory
}

func NewAdminHandler(sessions ports.SessionDirectory) *AdminHandler {
	return &AdminHandler{sessions: sessions}
}

// SetDisabled enables or disables an account. Disabling ends its session.
//
// @Summary      Enable or disable an account
// @Tags         admin
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        kind  path      string              true  "Actor kind"  Enums(users, landlords, tenants, admins)
// @Param        id    path      string              true  "Actor ID"
// @Param        body  body      setDisabledRequest  true  "Disabled flag"
// @Success      200   {object}  Envelope
// @Failure      400   {object}  Envelope
// @Failure      403   {object}  Envelope
// @Failure      404   {object}  Envelope
// @Router       /admin/actors/{kind}/{id}/disabled [put]
func (h *AdminHandler) SetDisabled(c echo.Context) error {
	kind, ok := domain.ParseActorKind(c.Param("kind"))
	if !ok {
		return fmt.Errorf("%w: unknown actor kind %q", domain.ErrValidation, c.Param("kind"))
	}
	svc, ok := h.sessions.For(kind)
	if !ok {
		return fmt.Errorf("%w: unknown actor kind %q", domain.ErrValidation, kind)
	}

	var req setDisabledRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	if err := svc.SetDisabled(c.Request().Context(), c.Param("id"), *req.Disabled); err != nil {
		return err
	}

	msg := "account enabled"
	if *req.Disabled {
		msg = "account disabled"
	}
	return success(c, http.StatusOK, msg, nil)
}
