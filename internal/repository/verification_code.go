// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package repository

import (
	"context"
	"time"

	"github.com/postpin/backend/internal/models"
)

// CreateVerificationCode persists a new verification code.
func (r *Repository) CreateVerificationCode(ctx context.Context, code *models.VerificationCode) error {
	return wrapError(r.db.WithContext(ctx).Create(code).Error)
}

// LatestUnusedCode retrieves the most recently issued unused code matching
// purpose, subject and code value. Most-recent-wins: when several unused
// records match, the one with the largest ID is returned.
func (r *Repository) LatestUnusedCode(ctx context.Context, purpose, subject, code string) (*models.VerificationCode, error) {
	var rec models.VerificationCode
	err := r.db.WithContext(ctx).
		Where("purpose = ? AND subject = ? AND code = ? AND used = ?", purpose, subject, code, false).
		Order("id DESC").
		First(&rec).Error
	if err != nil {
		return nil, wrapError(err)
	}
	return &rec, nil
}

// ConsumeCode marks a code as used. The update is conditional on used = false
// so two concurrent consumers resolve to exactly one winner; it reports false
// when the code was already consumed.
func (r *Repository) ConsumeCode(ctx context.Context, id int64) (bool, error) {
	res := r.db.WithContext(ctx).Model(&models.VerificationCode{}).
		Where("id = ? AND used = ?", id, false).
		Update("used", true)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// DeleteUnusedCodes deletes all unused codes for a purpose and subject.
// Called when a fresh code is issued so only the newest one stays valid.
func (r *Repository) DeleteUnusedCodes(ctx context.Context, purpose, subject string) error {
	return r.db.WithContext(ctx).
		Where("purpose = ? AND subject = ? AND used = ?", purpose, subject, false).
		Delete(&models.VerificationCode{}).Error
}

// DeleteExpiredCodes deletes expired codes.
func (r *Repository) DeleteExpiredCodes(ctx context.Context) error {
	return r.db.WithContext(ctx).
		Where("expires_at < ?", time.Now()).
		Delete(&models.VerificationCode{}).Error
}
