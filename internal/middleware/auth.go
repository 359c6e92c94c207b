// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package middleware provides authentication middleware for API routes.
package middleware

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/postpin/backend/internal/models"
	"github.com/postpin/backend/internal/services/auth"
)

// userContextKey is the echo context key the authenticated user is stored
// under.
const userContextKey = "user"

// UserLoader is an interface for loading full user data.
type UserLoader interface {
	GetUserByID(ctx context.Context, id int64) (*models.User, error)
}

// RequireUser verifies the Authorization bearer token and loads the account
// into the echo context. Requests with a missing or invalid token get 401,
// disabled accounts get 403.
func RequireUser(tokens *auth.TokenManager, loader UserLoader) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			userID, err := tokens.Verify(c.Request().Header.Get("Authorization"))
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid or expired token")
			}

			user, err := loader.GetUserByID(c.Request().Context(), userID)
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid or expired token")
			}

			if !user.IsActive {
				return echo.NewHTTPError(http.StatusForbidden, "account is disabled")
			}

			c.Set(userContextKey, user)
			return next(c)
		}
	}
}

// RequireSuperuser ensures the loaded user is a superuser. Must run after
// RequireUser.
func RequireSuperuser() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			user := CurrentUser(c)
			if user == nil || !user.IsSuperuser {
				return echo.NewHTTPError(http.StatusForbidden, "forbidden")
			}
			return next(c)
		}
	}
}

// CurrentUser returns the user loaded by RequireUser, or nil.
func CurrentUser(c echo.Context) *models.User {
	user, _ := c.Get(userContextKey).(*models.User)
	return user
}
