// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package handlers contains the HTTP handlers for the JSON API.
package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/postpin/backend/internal/repository"
	"github.com/postpin/backend/internal/services/auth"
	"github.com/postpin/backend/internal/services/points"
)

// Handlers contains all HTTP handlers.
type Handlers struct {
	repo   *repository.Repository
	auth   *auth.Service
	points *points.Service
}

// New creates a new Handlers instance.
func New(repo *repository.Repository, authSvc *auth.Service, pointsSvc *points.Service) *Handlers {
	return &Handlers{repo: repo, auth: authSvc, points: pointsSvc}
}

// Health returns the health status.
func (h *Handlers) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status": "ok",
	})
}
