// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package verification issues and consumes single-use numeric codes.
package verification

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/postpin/backend/internal/models"
	"github.com/postpin/backend/internal/repository"
)

var (
	ErrCodeNotFound = errors.New("verification code not found")
	ErrCodeExpired  = errors.New("verification code expired")
	ErrCodeUsed     = errors.New("verification code already used")
)

// CodeLength is the digit width of generated codes.
const CodeLength = 6

var codeSpace = big.NewInt(1_000_000)

// GenerateCode returns a random zero-padded numeric code.
func GenerateCode() (string, error) {
	n, err := rand.Int(rand.Reader, codeSpace)
	if err != nil {
		return "", fmt.Errorf("failed to generate code: %w", err)
	}
	return fmt.Sprintf("%0*d", CodeLength, n), nil
}

// Service issues and validates verification codes.
type Service struct {
	repo *repository.Repository
}

// NewService creates a new verification service.
func NewService(repo *repository.Repository) *Service {
	return &Service{repo: repo}
}

// Issue creates a code for purpose and subject, valid for ttl. Previously
// issued unused codes for the same purpose and subject are superseded in the
// same transaction, so only the newest code stays valid. userID binds
// reset-password codes to an account and is nil for the other purposes.
func (s *Service) Issue(ctx context.Context, purpose, subject string, userID *int64, ttl time.Duration) (*models.VerificationCode, error) {
	code, err := GenerateCode()
	if err != nil {
		return nil, err
	}

	rec := &models.VerificationCode{
		Purpose:   purpose,
		Subject:   subject,
		UserID:    userID,
		Code:      code,
		ExpiresAt: time.Now().Add(ttl),
	}

	err = s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		if err := tx.DeleteUnusedCodes(ctx, purpose, subject); err != nil {
			return fmt.Errorf("failed to supersede codes: %w", err)
		}
		if err := tx.CreateVerificationCode(ctx, rec); err != nil {
			return fmt.Errorf("failed to store code: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return rec, nil
}

// ValidateAndConsume validates the newest unused code matching purpose,
// subject and code, and marks it used. It runs against the given repository
// so callers can couple consumption with the follow-up mutation in one
// transaction.
//
// An expired code is left unconsumed and keeps yielding ErrCodeExpired on
// every presentation. A consumed code yields ErrCodeUsed when the mark-used
// update finds it already taken, or ErrCodeNotFound once it no longer matches
// the unused lookup.
func ValidateAndConsume(ctx context.Context, tx *repository.Repository, purpose, subject, code string) (*models.VerificationCode, error) {
	rec, err := tx.LatestUnusedCode(ctx, purpose, subject, code)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrCodeNotFound
		}
		return nil, err
	}

	if !rec.ExpiresAt.After(time.Now()) {
		return nil, ErrCodeExpired
	}

	ok, err := tx.ConsumeCode(ctx, rec.ID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrCodeUsed
	}

	rec.Used = true
	return rec, nil
}
