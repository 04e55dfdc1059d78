package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// Me returns the caller's profile.
//
// @Summary      Current actor
// @Tags         profile
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  actorEnvelope
// @Failure      401  {object}  Envelope
// @Failure      404  {object}  Envelope
// @Router       /auth/me [get]
func (h *SessionHandler) Me(c echo.Context) error {
	id, err := currentIdentity(c)
	if err != nil {
		return err
	}
	actor, err := h.service.Profile(c.Request().Context(), id.ID)
	if err != nil {
		return err
	}
	return success(c, http.StatusOK, "profile", actor)
}

// DeleteMe soft-deletes the caller's account and ends the session.
//
// @Summary      Delete account
// @Tags         profile
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  Envelope
// @Failure      401  {object}  Envelope
// @Failure      404  {object}  Envelope
// @Router       /auth/me [delete]
func (h *SessionHandler) DeleteMe(c echo.Context) error {
	id, err := currentIdentity(c)
	if err != nil {
		return err
	}
	if err := h.service.DeleteAccount(c.Request().Context(), id.ID); err != nil {
		return err
	}
	h.cookies.clearRefresh(c)
	return success(c, http.StatusOK, "account deleted", nil)
}

// AvatarUploadURL returns a presigned URL the client uploads the avatar to.
//
// @Summary      Avatar upload URL
// @Tags         profile
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        body  body      avatarUploadRequest  true  "Image content type"
// @Success      200   {object}  Envelope
// @Failure      400   {object}  Envelope
// @Failure      501   {object}  Envelope
// @Router       /auth/me/avatar-upload-url [post]
func (h *SessionHandler) AvatarUploadURL(c echo.Context) error {
	id, err := currentIdentity(c)
	if err != nil {
		return err
	}
	var req avatarUploadRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	upload, err := h.service.AvatarUploadURL(c.Request().Context(), id.ID, req.ContentType)
	if err != nil {
		return err
	}
	return success(c, http.StatusOK, "upload url created", upload)
}

// SetAvatar points the caller's avatar at an uploaded object.
//
// @Summary      Set avatar
// @Tags         profile
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        body  body      setAvatarRequest  true  "Uploaded object key"
// @Success      200   {object}  actorEnvelope
// @Failure      400   {object}  Envelope
// @Router       /auth/me/avatar [put]
func (h *SessionHandler) SetAvatar(c echo.Context) error {
	id, err := currentIdentity(c)
	if err != nil {
		return err
	}
	var req setAvatarRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	actor, err := h.service.SetAvatar(c.Request().Context(), id.ID, req.Key)
	if err != nil {
		return err
	}
	return success(c, http.StatusOK, "avatar updated", actor)
}
