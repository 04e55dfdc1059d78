package handler

import (
	"github.com/labstack/echo/v4"
)

const (
	StatusSuccess = "SUCCESS"
	StatusFailed  = "FAILED"
)

// Envelope is the body of every API response.
type Envelope struct {
	Status      string `json:"status"`
	Message     string `json:"message"`
	Data        any    `json:"data,omitempty"`
	AccessToken string `json:"accessToken,omitempty"`
}

// Failure builds the envelope used for errors.
func Failure(message string) Envelope {
	return Envelope{Status: StatusFailed, Message: message}
}

func success(c echo.Context, code int, message string, data any) error {
	return c.JSON(code, Envelope{Status: StatusSuccess, Message: message, Data: data})
}
