// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package server wires configuration, storage, services and routes together
// and runs the HTTP server.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/urfave/cli/v3"

	"github.com/postpin/backend/internal/config"
	"github.com/postpin/backend/internal/database"
	"github.com/postpin/backend/internal/handlers"
	"github.com/postpin/backend/internal/middleware"
	"github.com/postpin/backend/internal/models"
	"github.com/postpin/backend/internal/repository"
	"github.com/postpin/backend/internal/services/auth"
	"github.com/postpin/backend/internal/services/notify"
	"github.com/postpin/backend/internal/services/points"
	"github.com/postpin/backend/internal/services/verification"
)

// Run starts the server with the given CLI command.
func Run(ctx context.Context, cmd *cli.Command) error {
	cfg := config.NewFromCLI(cmd)
	setupLogger(cfg.Log.Level, cfg.Log.Format)

	if cfg.Auth.JWTSecret == "" {
		return errors.New("jwt-secret is required")
	}

	slog.Info("starting server",
		"host", cfg.Server.Host,
		"port", cfg.Server.Port,
	)

	// Database
	db, err := database.Open(cfg.Database.DSN)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer func() {
		if closeErr := database.Close(db); closeErr != nil {
			slog.Error("failed to close database", "error", closeErr)
		}
	}()

	// Migrations and seed data
	if migrateErr := database.Migrate(db, models.AllModels()...); migrateErr != nil {
		return fmt.Errorf("failed to migrate database: %w", migrateErr)
	}
	if seedErr := database.Seed(db); seedErr != nil {
		return fmt.Errorf("failed to seed database: %w", seedErr)
	}

	// Repository and services
	repo := repository.New(db)

	// Expired codes are dead weight once past their TTL
	if err := repo.DeleteExpiredCodes(ctx); err != nil {
		slog.Warn("failed to clean up expired codes", "error", err)
	}

	mailer, err := buildMailer(cfg)
	if err != nil {
		return err
	}

	codes := verification.NewService(repo)
	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, time.Duration(cfg.Auth.TokenLifetime)*time.Second)
	authSvc := auth.NewService(repo, codes, tokens, mailer, notify.NewLogNotifier())
	pointsSvc := points.NewService(repo)

	// Bootstrap superuser
	if err := authSvc.EnsureSuperuser(ctx, cfg.Auth.AdminEmail, cfg.Auth.AdminPassword); err != nil {
		return fmt.Errorf("failed to ensure superuser: %w", err)
	}

	// Echo
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	setupMiddleware(e)
	setupRoutes(e, repo, authSvc, pointsSvc)

	return startWithGracefulShutdown(ctx, e, cfg)
}

// buildMailer returns the SMTP notifier when SMTP is configured and falls
// back to the log notifier for local development.
func buildMailer(cfg *config.Config) (notify.Notifier, error) {
	if cfg.SMTP.Host == "" {
		slog.Warn("SMTP not configured, logging emails instead")
		return notify.NewLogNotifier(), nil
	}
	mailer, err := notify.NewSMTPNotifier(&cfg.SMTP)
	if err != nil {
		return nil, fmt.Errorf("failed to set up mailer: %w", err)
	}
	return mailer, nil
}

func setupMiddleware(e *echo.Echo) {
	e.Use(echomw.Recover())
	e.Use(echomw.RequestID())
	e.Use(requestLogger())
	e.Use(echomw.Secure())
	e.Use(echomw.BodyLimit("1M"))
}

// requestLogger returns middleware that logs requests using slog.
func requestLogger() echo.MiddlewareFunc {
	return echomw.RequestLoggerWithConfig(echomw.RequestLoggerConfig{
		LogStatus:   true,
		LogURI:      true,
		LogMethod:   true,
		LogLatency:  true,
		LogError:    true,
		HandleError: true,
		LogValuesFunc: func(c echo.Context, v echomw.RequestLoggerValues) error {
			attrs := []slog.Attr{
				slog.String("method", v.Method),
				slog.String("uri", v.URI),
				slog.Int("status", v.Status),
				slog.Duration("latency", v.Latency),
			}

			if v.Error != nil {
				attrs = append(attrs, slog.String("error", v.Error.Error()))
				slog.LogAttrs(c.Request().Context(), slog.LevelError, "request", attrs...)
			} else {
				slog.LogAttrs(c.Request().Context(), slog.LevelInfo, "request", attrs...)
			}

			return nil
		},
	})
}

func setupRoutes(e *echo.Echo, repo *repository.Repository, authSvc *auth.Service, pointsSvc *points.Service) {
	h := handlers.New(repo, authSvc, pointsSvc)

	e.GET("/health", h.Health)

	// Auth flows (public)
	authGroup := e.Group("/auth")
	authGroup.POST("/register/email/code", h.SendRegisterCode)
	authGroup.POST("/register_with_code", h.RegisterWithCode)
	authGroup.POST("/login", h.Login)
	authGroup.POST("/password/forgot", h.ForgotPassword)
	authGroup.POST("/password/reset", h.ResetPassword)
	authGroup.POST("/phone/code", h.SendPhoneCode)
	authGroup.POST("/phone/login", h.PhoneLogin)

	requireUser := middleware.RequireUser(authSvc.Tokens(), repo)

	authGroup.GET("/me", h.Me, requireUser)

	// Points ledger (authenticated)
	pointsGroup := e.Group("/points", requireUser)
	pointsGroup.GET("/balance", h.Balance)
	pointsGroup.POST("/consume", h.Consume)
	pointsGroup.GET("/transactions", h.Transactions)
	pointsGroup.GET("/recharge-plans", h.RechargePlans)
	pointsGroup.POST("/recharge", h.Recharge)

	// Admin (superuser only)
	adminGroup := e.Group("/admin", requireUser, middleware.RequireSuperuser())
	adminGroup.GET("/users", h.ListUsers)
	adminGroup.POST("/users/:id/status", h.SetUserStatus)
	adminGroup.GET("/orders", h.ListOrders)
}

func startWithGracefulShutdown(ctx context.Context, e *echo.Echo, cfg *config.Config) error {
	errChan := make(chan error, 1)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	go func() {
		slog.Info("server running", "addr", addr)
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-ctx.Done():
		slog.Info("shutting down server")
	case <-quit:
		slog.Info("shutting down server")
	case err := <-errChan:
		slog.Error("server error", "error", err)
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		slog.Error("failed to shutdown server", "error", err)
	}

	slog.Info("server stopped")
	return nil
}
