// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/postpin/backend/internal/repository"
	"github.com/postpin/backend/internal/services/auth"
	"github.com/postpin/backend/internal/services/notify"
	"github.com/postpin/backend/internal/services/points"
)

// errorStatus maps service errors to HTTP status codes. Unknown errors are
// treated as internal.
func errorStatus(err error) int {
	switch {
	case errors.Is(err, auth.ErrInvalidEmail),
		errors.Is(err, auth.ErrWeakPassword),
		errors.Is(err, auth.ErrCodeInvalid),
		errors.Is(err, points.ErrRuleNotFound),
		errors.Is(err, points.ErrInsufficientBalance):
		return http.StatusBadRequest
	case errors.Is(err, auth.ErrInvalidCredentials),
		errors.Is(err, auth.ErrInvalidToken):
		return http.StatusUnauthorized
	case errors.Is(err, auth.ErrAccountDisabled):
		return http.StatusForbidden
	case errors.Is(err, repository.ErrNotFound),
		errors.Is(err, points.ErrPlanNotFound):
		return http.StatusNotFound
	case errors.Is(err, auth.ErrAlreadyRegistered):
		return http.StatusConflict
	case errors.Is(err, notify.ErrDeliveryFailed):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// writeError renders a service error as a JSON error response. Internal
// errors are logged and their details hidden from the client.
func writeError(c echo.Context, err error) error {
	status := errorStatus(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		slog.Error("request failed", "path", c.Path(), "error", err)
		msg = "internal server error"
	}
	if status == http.StatusBadGateway {
		slog.Error("notification delivery failed", "path", c.Path(), "error", err)
		msg = "failed to send verification code"
	}
	return c.JSON(status, map[string]string{"error": msg})
}

// badRequest renders a 400 with the given message.
func badRequest(c echo.Context, msg string) error {
	return c.JSON(http.StatusBadRequest, map[string]string{"error": msg})
}
