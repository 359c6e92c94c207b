// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package auth orchestrates registration, login and password reset flows.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/postpin/backend/internal/models"
	"github.com/postpin/backend/internal/repository"
	"github.com/postpin/backend/internal/services/notify"
	"github.com/postpin/backend/internal/services/verification"
)

var (
	ErrAlreadyRegistered  = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAccountDisabled    = errors.New("account is disabled")
	ErrInvalidEmail       = errors.New("invalid email format")
	ErrWeakPassword       = errors.New("password does not meet requirements")

	// ErrCodeInvalid collapses the code failure sub-cases (not found, expired,
	// already used) into one caller-visible error so responses do not leak
	// which case occurred.
	ErrCodeInvalid = errors.New("invalid or expired code")
)

// Code lifetimes.
const (
	RegisterCodeTTL = 5 * time.Minute
	ResetCodeTTL    = 10 * time.Minute
	PhoneCodeTTL    = 5 * time.Minute
)

const minPasswordLength = 6

// dummyHash is used for constant-time login to prevent timing attacks.
var dummyHash, _ = bcrypt.GenerateFromPassword([]byte("dummy-password-for-timing"), bcrypt.DefaultCost)

// Service is the credential manager. It couples code consumption with the
// account mutation it gates inside one storage transaction.
type Service struct {
	repo   *repository.Repository
	codes  *verification.Service
	tokens *TokenManager
	mail   notify.Notifier
	sms    notify.Notifier
}

// NewService creates a new auth service.
func NewService(repo *repository.Repository, codes *verification.Service, tokens *TokenManager, mailer, sms notify.Notifier) *Service {
	return &Service{
		repo:   repo,
		codes:  codes,
		tokens: tokens,
		mail:   mailer,
		sms:    sms,
	}
}

// Tokens returns the token manager for use in middleware.
func (s *Service) Tokens() *TokenManager {
	return s.tokens
}

// collapseCodeError hides which code failure occurred from the caller while
// keeping the sub-case in the log.
func collapseCodeError(err error, flow, subject string) error {
	switch {
	case errors.Is(err, verification.ErrCodeNotFound),
		errors.Is(err, verification.ErrCodeExpired),
		errors.Is(err, verification.ErrCodeUsed):
		slog.Warn("code_rejected", "flow", flow, "subject", subject, "reason", err.Error())
		return ErrCodeInvalid
	default:
		return err
	}
}

// SendRegisterCode issues a registration code and emails it. Already
// registered addresses are refused before a code is created.
func (s *Service) SendRegisterCode(ctx context.Context, email string) error {
	if _, err := mail.ParseAddress(email); err != nil {
		return ErrInvalidEmail
	}

	exists, err := s.repo.EmailExists(ctx, email)
	if err != nil {
		return fmt.Errorf("failed to check existing user: %w", err)
	}
	if exists {
		return ErrAlreadyRegistered
	}

	rec, err := s.codes.Issue(ctx, models.PurposeRegister, email, nil, RegisterCodeTTL)
	if err != nil {
		return err
	}

	subject, body := notify.RegisterCodeMessage(rec.Code)
	if err := s.mail.Send(ctx, email, subject, body); err != nil {
		return err
	}

	slog.Info("register_code_sent", "email", email)
	return nil
}

// RegisterWithCode creates an account for email after consuming a valid
// registration code. Code consumption and account creation commit as one
// unit; a rollback leaves the code unused.
func (s *Service) RegisterWithCode(ctx context.Context, email, password, code string) (*models.User, error) {
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, ErrInvalidEmail
	}
	if len(password) < minPasswordLength {
		return nil, ErrWeakPassword
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		Email:        &email,
		PasswordHash: string(passwordHash),
		IsActive:     true,
	}

	err = s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		if _, err := verification.ValidateAndConsume(ctx, tx, models.PurposeRegister, email, code); err != nil {
			return collapseCodeError(err, "register", email)
		}

		exists, err := tx.EmailExists(ctx, email)
		if err != nil {
			return fmt.Errorf("failed to check existing user: %w", err)
		}
		if exists {
			return ErrAlreadyRegistered
		}

		// The unique index is the backstop for concurrent registrations that
		// both pass the check above.
		if err := tx.CreateUser(ctx, user); err != nil {
			if errors.Is(err, repository.ErrConflict) {
				return ErrAlreadyRegistered
			}
			return fmt.Errorf("failed to create user: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	slog.Info("register_success", "user_id", user.ID, "email", email)
	return user, nil
}

// ForgotPassword issues a password reset code for a registered email and
// mails it. Unknown addresses return nil without issuing a code so the
// endpoint cannot be used to enumerate accounts.
func (s *Service) ForgotPassword(ctx context.Context, email string) error {
	user, err := s.repo.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			slog.Info("reset_code_skipped", "email", email, "reason", "unknown_email")
			return nil
		}
		return fmt.Errorf("failed to get user: %w", err)
	}

	rec, err := s.codes.Issue(ctx, models.PurposeResetPassword, email, &user.ID, ResetCodeTTL)
	if err != nil {
		return err
	}

	subject, body := notify.ResetCodeMessage(rec.Code)
	if err := s.mail.Send(ctx, email, subject, body); err != nil {
		return err
	}

	slog.Info("reset_code_sent", "user_id", user.ID)
	return nil
}

// ResetPassword overwrites the password hash after consuming a valid reset
// code, as one transactional unit.
func (s *Service) ResetPassword(ctx context.Context, email, code, newPassword string) error {
	if len(newPassword) < minPasswordLength {
		return ErrWeakPassword
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	return s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		user, err := tx.GetUserByEmail(ctx, email)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				// Same response as a bad code; do not reveal the address.
				return ErrCodeInvalid
			}
			return fmt.Errorf("failed to get user: %w", err)
		}

		if _, err := verification.ValidateAndConsume(ctx, tx, models.PurposeResetPassword, email, code); err != nil {
			return collapseCodeError(err, "reset_password", email)
		}

		if err := tx.UpdateUserPassword(ctx, user.ID, string(passwordHash)); err != nil {
			return fmt.Errorf("failed to update password: %w", err)
		}

		slog.Info("password_reset", "user_id", user.ID)
		return nil
	})
}

// SendPhoneCode issues a phone login code and sends it via SMS.
func (s *Service) SendPhoneCode(ctx context.Context, phone string) error {
	rec, err := s.codes.Issue(ctx, models.PurposePhoneLogin, phone, nil, PhoneCodeTTL)
	if err != nil {
		return err
	}

	subject, body := notify.PhoneCodeMessage(rec.Code)
	if err := s.sms.Send(ctx, phone, subject, body); err != nil {
		return err
	}

	slog.Info("phone_code_sent", "phone", phone)
	return nil
}

// PhoneLogin consumes a phone login code and signs the caller in, creating a
// password-less account on first login. Repeated logins reuse the same
// account. Returns the account and a bearer token.
func (s *Service) PhoneLogin(ctx context.Context, phone, code string) (*models.User, string, error) {
	var user *models.User

	err := s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		if _, err := verification.ValidateAndConsume(ctx, tx, models.PurposePhoneLogin, phone, code); err != nil {
			return collapseCodeError(err, "phone_login", phone)
		}

		existing, err := tx.GetUserByPhone(ctx, phone)
		if err == nil {
			user = existing
			return nil
		}
		if !errors.Is(err, repository.ErrNotFound) {
			return fmt.Errorf("failed to get user: %w", err)
		}

		user = &models.User{Phone: &phone, IsActive: true}
		if err := tx.CreateUser(ctx, user); err != nil {
			return fmt.Errorf("failed to create user: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, "", err
	}

	if !user.IsActive {
		return nil, "", ErrAccountDisabled
	}

	token, err := s.tokens.Generate(user.ID)
	if err != nil {
		return nil, "", err
	}

	slog.Info("phone_login_success", "user_id", user.ID)
	return user, token, nil
}

// Login authenticates an email and password and returns the account and a
// bearer token.
func (s *Service) Login(ctx context.Context, email, password string) (*models.User, string, error) {
	user, err := s.repo.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			// Constant-time: always perform bcrypt comparison to prevent timing attacks
			_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
			slog.Warn("login_failed", "email", email, "reason", "user_not_found")
			return nil, "", ErrInvalidCredentials
		}
		return nil, "", fmt.Errorf("failed to get user: %w", err)
	}

	if user.PasswordHash == "" {
		// Phone-only account; password login is not available for it.
		_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
		return nil, "", ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		slog.Warn("login_failed", "email", email, "reason", "invalid_password")
		return nil, "", ErrInvalidCredentials
	}

	if !user.IsActive {
		return nil, "", ErrAccountDisabled
	}

	s.maybeRehash(ctx, user, password)

	token, err := s.tokens.Generate(user.ID)
	if err != nil {
		return nil, "", err
	}

	slog.Info("login_success", "user_id", user.ID, "email", email)
	return user, token, nil
}

// maybeRehash upgrades hashes created with a lower cost factor. Best effort:
// the login already succeeded.
func (s *Service) maybeRehash(ctx context.Context, user *models.User, password string) {
	cost, err := bcrypt.Cost([]byte(user.PasswordHash))
	if err != nil || cost >= bcrypt.DefaultCost {
		return
	}

	newHash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return
	}
	if err := s.repo.UpdateUserPassword(ctx, user.ID, string(newHash)); err != nil {
		slog.Warn("rehash_failed", "user_id", user.ID, "error", err)
		return
	}
	user.PasswordHash = string(newHash)
}

// EnsureSuperuser creates or promotes the bootstrap superuser account.
func (s *Service) EnsureSuperuser(ctx context.Context, email, password string) error {
	if email == "" || password == "" {
		return nil
	}

	existing, err := s.repo.GetUserByEmail(ctx, email)
	if err == nil {
		if existing.IsSuperuser {
			return nil
		}
		existing.IsSuperuser = true
		return s.repo.DB().WithContext(ctx).Model(existing).Update("is_superuser", true).Error
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return fmt.Errorf("failed to get user: %w", err)
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		Email:        &email,
		PasswordHash: string(passwordHash),
		IsActive:     true,
		IsSuperuser:  true,
	}
	if err := s.repo.CreateUser(ctx, user); err != nil {
		return fmt.Errorf("failed to create superuser: %w", err)
	}

	slog.Info("superuser_created", "user_id", user.ID, "email", email)
	return nil
}
