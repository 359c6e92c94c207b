// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/postpin/backend/internal/middleware"
)

type sendRegisterCodeRequest struct {
	Email string `json:"email"`
}

// SendRegisterCode handles POST /auth/register/email/code.
func (h *Handlers) SendRegisterCode(c echo.Context) error {
	var req sendRegisterCodeRequest
	if err := c.Bind(&req); err != nil || req.Email == "" {
		return badRequest(c, "email is required")
	}

	if err := h.auth.SendRegisterCode(c.Request().Context(), req.Email); err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]bool{"ok": true})
}

type registerRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Code     string `json:"code"`
}

// RegisterWithCode handles POST /auth/register_with_code.
func (h *Handlers) RegisterWithCode(c echo.Context) error {
	var req registerRequest
	if err := c.Bind(&req); err != nil || req.Email == "" || req.Password == "" || req.Code == "" {
		return badRequest(c, "email, password and code are required")
	}

	if _, err := h.auth.RegisterWithCode(c.Request().Context(), req.Email, req.Password, req.Code); err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]bool{"ok": true})
}

type forgotPasswordRequest struct {
	Email string `json:"email"`
}

// ForgotPassword handles POST /auth/password/forgot. The response does not
// reveal whether the address is registered.
func (h *Handlers) ForgotPassword(c echo.Context) error {
	var req forgotPasswordRequest
	if err := c.Bind(&req); err != nil || req.Email == "" {
		return badRequest(c, "email is required")
	}

	if err := h.auth.ForgotPassword(c.Request().Context(), req.Email); err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]bool{"ok": true})
}

type resetPasswordRequest struct {
	Email       string `json:"email"`
	Code        string `json:"code"`
	NewPassword string `json:"new_password"`
}

// ResetPassword handles POST /auth/password/reset.
func (h *Handlers) ResetPassword(c echo.Context) error {
	var req resetPasswordRequest
	if err := c.Bind(&req); err != nil || req.Email == "" || req.Code == "" || req.NewPassword == "" {
		return badRequest(c, "email, code and new_password are required")
	}

	if err := h.auth.ResetPassword(c.Request().Context(), req.Email, req.Code, req.NewPassword); err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]bool{"ok": true})
}

type sendPhoneCodeRequest struct {
	Phone string `json:"phone"`
}

// SendPhoneCode handles POST /auth/phone/code.
func (h *Handlers) SendPhoneCode(c echo.Context) error {
	var req sendPhoneCodeRequest
	if err := c.Bind(&req); err != nil || req.Phone == "" {
		return badRequest(c, "phone is required")
	}

	if err := h.auth.SendPhoneCode(c.Request().Context(), req.Phone); err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]bool{"ok": true})
}

type phoneLoginRequest struct {
	Phone string `json:"phone"`
	Code  string `json:"code"`
}

// PhoneLogin handles POST /auth/phone/login.
func (h *Handlers) PhoneLogin(c echo.Context) error {
	var req phoneLoginRequest
	if err := c.Bind(&req); err != nil || req.Phone == "" || req.Code == "" {
		return badRequest(c, "phone and code are required")
	}

	user, token, err := h.auth.PhoneLogin(c.Request().Context(), req.Phone, req.Code)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]any{
		"ok":    true,
		"token": token,
		"user":  user,
	})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login handles POST /auth/login.
func (h *Handlers) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil || req.Email == "" || req.Password == "" {
		return badRequest(c, "email and password are required")
	}

	user, token, err := h.auth.Login(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]any{
		"ok":    true,
		"token": token,
		"user":  user,
	})
}

// Me handles GET /auth/me.
func (h *Handlers) Me(c echo.Context) error {
	return c.JSON(http.StatusOK, middleware.CurrentUser(c))
}
