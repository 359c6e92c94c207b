// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package handlers_test

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/postpin/backend/internal/models"
	"github.com/postpin/backend/internal/testutil"
)

func TestListUsersEndpoint(t *testing.T) {
	h, repo, _ := newHandlers(t)

	testutil.NewTestUser(t, repo, "alice@example.com")
	testutil.NewTestUser(t, repo, "bob@example.com")

	e := echo.New()
	c, rec := testutil.NewEchoContext(e, http.MethodGet, "/admin/users", nil)

	require.NoError(t, h.ListUsers(c))

	assert.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Users []struct {
			Email string `json:"email"`
		} `json:"users"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Len(t, body.Users, 2)
	assert.NotContains(t, rec.Body.String(), "password_hash")
}

func TestSetUserStatusEndpoint(t *testing.T) {
	h, repo, _ := newHandlers(t)

	user := testutil.NewTestUser(t, repo, "alice@example.com")

	e := echo.New()
	c, rec := testutil.NewEchoContext(e, http.MethodPost, "/admin/users/1/status",
		strings.NewReader(`{"active":false}`))
	c.SetParamNames("id")
	c.SetParamValues("1")

	require.NoError(t, h.SetUserStatus(c))

	assert.Equal(t, http.StatusOK, rec.Code)

	retrieved, err := repo.GetUserByID(context.Background(), user.ID)
	require.NoError(t, err)
	assert.False(t, retrieved.IsActive)
}

func TestSetUserStatusEndpoint_UnknownUser(t *testing.T) {
	h, _, _ := newHandlers(t)

	e := echo.New()
	c, rec := testutil.NewEchoContext(e, http.MethodPost, "/admin/users/999/status",
		strings.NewReader(`{"active":false}`))
	c.SetParamNames("id")
	c.SetParamValues("999")

	require.NoError(t, h.SetUserStatus(c))

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSetUserStatusEndpoint_BadID(t *testing.T) {
	h, _, _ := newHandlers(t)

	e := echo.New()
	c, rec := testutil.NewEchoContext(e, http.MethodPost, "/admin/users/abc/status",
		strings.NewReader(`{"active":false}`))
	c.SetParamNames("id")
	c.SetParamValues("abc")

	require.NoError(t, h.SetUserStatus(c))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListOrdersEndpoint(t *testing.T) {
	h, repo, _ := newHandlers(t)

	user := testutil.NewTestUser(t, repo, "alice@example.com")
	require.NoError(t, repo.CreatePaymentOrder(context.Background(), &models.PaymentOrder{
		UserID:  user.ID,
		Channel: "mock",
		PlanID:  1,
		Amount:  5.0,
		Status:  models.StatusPending,
	}))

	e := echo.New()
	c, rec := testutil.NewEchoContext(e, http.MethodGet, "/admin/orders", nil)

	require.NoError(t, h.ListOrders(c))

	assert.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Orders []struct {
			Channel string `json:"channel"`
			Status  string `json:"status"`
		} `json:"orders"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Orders, 1)
	assert.Equal(t, "mock", body.Orders[0].Channel)
}
