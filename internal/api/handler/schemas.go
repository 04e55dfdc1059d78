package handler

import (
	"strings"

	"github.com/propertyhub/rental-api/internal/core/domain"
)

// --- Request types ---

type registerRequest struct {
	UserName      string `json:"userName" validate:"required,max=64"`
	Email         string `json:"email" validate:"required,email"`
	Password      string `json:"password" validate:"required,strongpassword"`
	TermsAccepted bool   `json:"termsAndConditionsAccepted" validate:"eq=true"`
}

func (r *registerRequest) normalize() { r.Email = strings.TrimSpace(r.Email) }

type activateRequest struct {
	ActivationToken string `json:"activationToken" validate:"required"`
	ActivationCode  string `json:"activationCode" validate:"required,numeric"`
}

type signInRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

func (r *signInRequest) normalize() { r.Email = strings.TrimSpace(r.Email) }

type updatePasswordRequest struct {
	CurrentPassword    string `json:"currentPassword" validate:"required"`
	NewPassword        string `json:"newPassword" validate:"required"`
	ConfirmNewPassword string `json:"confirmNewPassword" validate:"required"`
}

type passwordResetTokenRequest struct {
	Email string `json:"email" validate:"required,email"`
}

func (r *passwordResetTokenRequest) normalize() { r.Email = strings.TrimSpace(r.Email) }

type resetPasswordRequest struct {
	Password        string `json:"password" validate:"required"`
	ConfirmPassword string `json:"confirmPassword" validate:"required"`
}

type federatedSignInRequest struct {
	Credential string `json:"credential" validate:"required"`
}

type avatarUploadRequest struct {
	ContentType string `json:"contentType" validate:"required,oneof=image/jpeg image/png image/webp"`
}

type setAvatarRequest struct {
	Key string `json:"key" validate:"required"`
}

type createRoleRequest struct {
	Name        string   `json:"name" validate:"required,max=32"`
	Permissions []string `json:"permissions" validate:"dive,required"`
}

type setDisabledRequest struct {
	Disabled *bool `json:"disabled" validate:"required"`
}

// --- Response payloads ---

type registerResponse struct {
	ActivationToken string `json:"activationToken"`
	Email           string `json:"email"`
}

// actorEnvelope documents responses carrying an actor.
type actorEnvelope struct {
	Status      string        `json:"status" example:"SUCCESS"`
	Message     string        `json:"message"`
	Data        *domain.Actor `json:"data,omitempty"`
	AccessToken string        `json:"accessToken,omitempty"`
}
