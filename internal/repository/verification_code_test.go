// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package repository_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/postpin/backend/internal/models"
	"github.com/postpin/backend/internal/repository"
	"github.com/postpin/backend/internal/testutil"
)

func newCode(t *testing.T, repo *repository.Repository, purpose, subject, code string, expiresAt time.Time) *models.VerificationCode {
	t.Helper()
	rec := &models.VerificationCode{
		Purpose:   purpose,
		Subject:   subject,
		Code:      code,
		ExpiresAt: expiresAt,
	}
	require.NoError(t, repo.CreateVerificationCode(context.Background(), rec))
	return rec
}

func TestCreateVerificationCode(t *testing.T) {
	_, repo := testutil.NewTestDB(t)

	rec := newCode(t, repo, models.PurposeRegister, "alice@example.com", "123456", time.Now().Add(5*time.Minute))

	assert.NotZero(t, rec.ID)
	assert.False(t, rec.Used)
}

func TestLatestUnusedCode(t *testing.T) {
	_, repo := testutil.NewTestDB(t)
	ctx := context.Background()

	newCode(t, repo, models.PurposeRegister, "alice@example.com", "111111", time.Now().Add(5*time.Minute))
	second := newCode(t, repo, models.PurposeRegister, "alice@example.com", "111111", time.Now().Add(5*time.Minute))

	rec, err := repo.LatestUnusedCode(ctx, models.PurposeRegister, "alice@example.com", "111111")

	require.NoError(t, err)
	assert.Equal(t, second.ID, rec.ID)
}

func TestLatestUnusedCode_NotFound(t *testing.T) {
	_, repo := testutil.NewTestDB(t)
	ctx := context.Background()

	_, err := repo.LatestUnusedCode(ctx, models.PurposeRegister, "alice@example.com", "123456")

	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestLatestUnusedCode_ScopedByPurpose(t *testing.T) {
	_, repo := testutil.NewTestDB(t)
	ctx := context.Background()

	newCode(t, repo, models.PurposeRegister, "alice@example.com", "123456", time.Now().Add(5*time.Minute))

	_, err := repo.LatestUnusedCode(ctx, models.PurposeResetPassword, "alice@example.com", "123456")

	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestConsumeCode(t *testing.T) {
	_, repo := testutil.NewTestDB(t)
	ctx := context.Background()

	rec := newCode(t, repo, models.PurposeRegister, "alice@example.com", "123456", time.Now().Add(5*time.Minute))

	ok, err := repo.ConsumeCode(ctx, rec.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	// Second consumption loses
	ok, err = repo.ConsumeCode(ctx, rec.ID)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestDeleteUnusedCodes(t *testing.T) {
	_, repo := testutil.NewTestDB(t)
	ctx := context.Background()

	newCode(t, repo, models.PurposeRegister, "alice@example.com", "111111", time.Now().Add(5*time.Minute))
	used := newCode(t, repo, models.PurposeRegister, "alice@example.com", "222222", time.Now().Add(5*time.Minute))
	ok, err := repo.ConsumeCode(ctx, used.ID)
	require.NoError(t, err)
	require.True(t, ok)

	require.NoError(t, repo.DeleteUnusedCodes(ctx, models.PurposeRegister, "alice@example.com"))

	// Unused code is gone
	_, err = repo.LatestUnusedCode(ctx, models.PurposeRegister, "alice@example.com", "111111")
	assert.ErrorIs(t, err, repository.ErrNotFound)

	// Used code is kept for the audit trail
	var count int64
	require.NoError(t, repo.DB().Model(&models.VerificationCode{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestDeleteExpiredCodes(t *testing.T) {
	_, repo := testutil.NewTestDB(t)
	ctx := context.Background()

	newCode(t, repo, models.PurposeRegister, "alice@example.com", "111111", time.Now().Add(-time.Minute))
	fresh := newCode(t, repo, models.PurposeRegister, "bob@example.com", "222222", time.Now().Add(5*time.Minute))

	require.NoError(t, repo.DeleteExpiredCodes(ctx))

	rec, err := repo.LatestUnusedCode(ctx, models.PurposeRegister, "bob@example.com", "222222")
	require.NoError(t, err)
	assert.Equal(t, fresh.ID, rec.ID)

	var count int64
	require.NoError(t, repo.DB().Model(&models.VerificationCode{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}
