// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package testutil provides test helpers and fixtures.
package testutil

import (
	"context"
	"io"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/postpin/backend/internal/database"
	"github.com/postpin/backend/internal/models"
	"github.com/postpin/backend/internal/repository"
)

// NewTestDB creates a migrated in-memory SQLite database for tests.
// Returns both the database connection and the repository for convenience.
func NewTestDB(t *testing.T) (*gorm.DB, *repository.Repository) {
	t.Helper()
	db, err := database.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = database.Close(db)
	})
	require.NoError(t, database.Migrate(db, models.AllModels()...))
	return db, repository.New(db)
}

// NewTestUser creates an email test user.
func NewTestUser(t *testing.T, repo *repository.Repository, email string) *models.User {
	t.Helper()
	user := &models.User{
		Email:        &email,
		PasswordHash: "x",
		IsActive:     true,
	}
	require.NoError(t, repo.CreateUser(context.Background(), user))
	return user
}

// NewTestUserWithPoints creates an email test user with an initial balance
// and the matching ledger entry, so the balance invariant holds.
func NewTestUserWithPoints(t *testing.T, repo *repository.Repository, email string, points int64) *models.User {
	t.Helper()
	user := NewTestUser(t, repo, email)
	if points != 0 {
		ctx := context.Background()
		require.NoError(t, repo.AddUserPoints(ctx, user.ID, points))
		require.NoError(t, repo.CreateTransaction(ctx, &models.PointsTransaction{
			UserID: user.ID,
			Delta:  points,
			Reason: "initial_grant",
			Status: models.StatusSuccess,
		}))
		user.Points = points
	}
	return user
}

// NewEchoContext creates an Echo context for handler tests.
func NewEchoContext(e *echo.Echo, method, path string, body io.Reader) (echo.Context, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(method, path, body)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	return c, rec
}

// SentMessage is one message captured by RecorderNotifier.
type SentMessage struct {
	To      string
	Subject string
	Body    string
}

// RecorderNotifier captures messages instead of delivering them.
type RecorderNotifier struct {
	mu       sync.Mutex
	Messages []SentMessage
}

// Send records the message.
func (n *RecorderNotifier) Send(_ context.Context, to, subject, body string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.Messages = append(n.Messages, SentMessage{To: to, Subject: subject, Body: body})
	return nil
}

// Last returns the most recently recorded message.
func (n *RecorderNotifier) Last(t *testing.T) SentMessage {
	t.Helper()
	n.mu.Lock()
	defer n.mu.Unlock()
	require.NotEmpty(t, n.Messages)
	return n.Messages[len(n.Messages)-1]
}

// FailingNotifier always fails with the given error.
type FailingNotifier struct {
	Err error
}

// Send returns the configured error.
func (n *FailingNotifier) Send(_ context.Context, _, _, _ string) error {
	return n.Err
}
