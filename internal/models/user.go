// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package models

import (
	"time"
)

// User is an account identified by email, phone number or both. At least one
// identifier is set; each is unique across all accounts. PasswordHash stays
// empty for phone-only accounts that log in with a code.
type User struct { //nolint:govet // fieldalignment not critical for models
	ID           int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	Email        *string   `gorm:"uniqueIndex" json:"email,omitempty"`
	Phone        *string   `gorm:"uniqueIndex" json:"phone,omitempty"`
	PasswordHash string    `gorm:"not null;default:''" json:"-"`
	IsActive     bool      `gorm:"not null;default:true" json:"is_active"`
	IsSuperuser  bool      `gorm:"not null;default:false" json:"is_superuser"`
	Points       int64     `gorm:"not null;default:0" json:"points"`
	CreatedAt    time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`
}
