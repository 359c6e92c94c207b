// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package models

import "time"

// Verification code purposes.
const (
	PurposeRegister      = "register"
	PurposeResetPassword = "reset_password"
	PurposePhoneLogin    = "phone_login"
)

// VerificationCode is a time-boxed single-use numeric code scoped to an email
// address or phone number. Used only ever flips from false to true.
type VerificationCode struct { //nolint:govet // fieldalignment not critical for models
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	Purpose   string    `gorm:"not null;size:32;index:idx_codes_subject" json:"purpose"`
	Subject   string    `gorm:"not null;index:idx_codes_subject" json:"subject"`
	UserID    *int64    `gorm:"index" json:"user_id,omitempty"` // set for reset_password codes
	Code      string    `gorm:"not null;size:6" json:"-"`
	ExpiresAt time.Time `gorm:"not null" json:"expires_at"`
	Used      bool      `gorm:"not null;default:false" json:"used"`
	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
}
