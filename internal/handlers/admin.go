// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package handlers

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
)

// ListUsers handles GET /admin/users.
func (h *Handlers) ListUsers(c echo.Context) error {
	users, err := h.repo.ListUsers(c.Request().Context())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]any{"users": users})
}

type setUserStatusRequest struct {
	Active bool `json:"active"`
}

// SetUserStatus handles POST /admin/users/:id/status. It activates or
// deactivates an account.
func (h *Handlers) SetUserStatus(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return badRequest(c, "invalid user id")
	}

	var req setUserStatusRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid request body")
	}

	if err := h.repo.SetUserActive(c.Request().Context(), id, req.Active); err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]bool{"ok": true})
}

// ListOrders handles GET /admin/orders.
func (h *Handlers) ListOrders(c echo.Context) error {
	orders, err := h.repo.ListPaymentOrders(c.Request().Context())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]any{"orders": orders})
}
