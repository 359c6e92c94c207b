// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package handlers

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/postpin/backend/internal/middleware"
)

// Balance handles GET /points/balance.
func (h *Handlers) Balance(c echo.Context) error {
	user := middleware.CurrentUser(c)

	balance, err := h.points.Balance(c.Request().Context(), user.ID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]int64{"balance": balance})
}

type consumeRequest struct {
	Action  string `json:"action"`
	Size    string `json:"size"`
	Feature string `json:"feature"`
}

// Consume handles POST /points/consume.
func (h *Handlers) Consume(c echo.Context) error {
	user := middleware.CurrentUser(c)

	var req consumeRequest
	if err := c.Bind(&req); err != nil || req.Action == "" {
		return badRequest(c, "action is required")
	}

	remaining, err := h.points.Consume(c.Request().Context(), user.ID, req.Action, req.Size, req.Feature)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]any{
		"ok":        true,
		"remaining": remaining,
	})
}

// Transactions handles GET /points/transactions?limit=N.
func (h *Handlers) Transactions(c echo.Context) error {
	user := middleware.CurrentUser(c)

	limit, _ := strconv.Atoi(c.QueryParam("limit"))

	transactions, err := h.points.Transactions(c.Request().Context(), user.ID, limit)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]any{"transactions": transactions})
}

// RechargePlans handles GET /points/recharge-plans.
func (h *Handlers) RechargePlans(c echo.Context) error {
	plans, err := h.points.Plans(c.Request().Context())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]any{"plans": plans})
}

type rechargeRequest struct {
	PlanID        int64  `json:"plan_id"`
	PaymentMethod string `json:"payment_method"`
}

// Recharge handles POST /points/recharge.
func (h *Handlers) Recharge(c echo.Context) error {
	user := middleware.CurrentUser(c)

	var req rechargeRequest
	if err := c.Bind(&req); err != nil || req.PlanID == 0 {
		return badRequest(c, "plan_id is required")
	}
	if req.PaymentMethod == "" {
		req.PaymentMethod = "mock"
	}

	order, remaining, err := h.points.Recharge(c.Request().Context(), user.ID, req.PlanID, req.PaymentMethod)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]any{
		"ok":        true,
		"order_id":  order.ID,
		"remaining": remaining,
	})
}
