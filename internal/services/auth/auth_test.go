// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package auth_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/postpin/backend/internal/models"
	"github.com/postpin/backend/internal/repository"
	"github.com/postpin/backend/internal/services/auth"
	"github.com/postpin/backend/internal/services/notify"
	"github.com/postpin/backend/internal/services/verification"
	"github.com/postpin/backend/internal/testutil"
)

func newAuthService(t *testing.T) (*auth.Service, *repository.Repository, *testutil.RecorderNotifier, *testutil.RecorderNotifier) {
	t.Helper()
	_, repo := testutil.NewTestDB(t)
	mailRec := &testutil.RecorderNotifier{}
	smsRec := &testutil.RecorderNotifier{}
	codes := verification.NewService(repo)
	tokens := auth.NewTokenManager("test-secret", time.Hour)
	svc := auth.NewService(repo, codes, tokens, mailRec, smsRec)
	return svc, repo, mailRec, smsRec
}

// lastCode reads the newest stored code for a purpose and subject.
func lastCode(t *testing.T, repo *repository.Repository, purpose, subject string) *models.VerificationCode {
	t.Helper()
	var rec models.VerificationCode
	err := repo.DB().
		Where("purpose = ? AND subject = ?", purpose, subject).
		Order("id DESC").
		First(&rec).Error
	require.NoError(t, err)
	return &rec
}

func TestSendRegisterCode(t *testing.T) {
	svc, repo, mailRec, _ := newAuthService(t)
	ctx := context.Background()

	err := svc.SendRegisterCode(ctx, "alice@example.com")

	require.NoError(t, err)

	rec := lastCode(t, repo, models.PurposeRegister, "alice@example.com")
	assert.False(t, rec.Used)

	msg := mailRec.Last(t)
	assert.Equal(t, "alice@example.com", msg.To)
	assert.Contains(t, msg.Body, rec.Code)
}

func TestSendRegisterCode_InvalidEmail(t *testing.T) {
	svc, _, _, _ := newAuthService(t)
	ctx := context.Background()

	err := svc.SendRegisterCode(ctx, "not-an-email")

	assert.ErrorIs(t, err, auth.ErrInvalidEmail)
}

func TestSendRegisterCode_AlreadyRegistered(t *testing.T) {
	svc, repo, mailRec, _ := newAuthService(t)
	ctx := context.Background()

	testutil.NewTestUser(t, repo, "alice@example.com")

	err := svc.SendRegisterCode(ctx, "alice@example.com")

	assert.ErrorIs(t, err, auth.ErrAlreadyRegistered)
	assert.Empty(t, mailRec.Messages)
}

func TestSendRegisterCode_DeliveryFailure(t *testing.T) {
	_, repo := testutil.NewTestDB(t)
	failing := &testutil.FailingNotifier{Err: notify.ErrDeliveryFailed}
	codes := verification.NewService(repo)
	tokens := auth.NewTokenManager("test-secret", time.Hour)
	svc := auth.NewService(repo, codes, tokens, failing, failing)
	ctx := context.Background()

	err := svc.SendRegisterCode(ctx, "alice@example.com")

	assert.ErrorIs(t, err, notify.ErrDeliveryFailed)
}

func TestRegisterWithCode(t *testing.T) {
	svc, repo, _, _ := newAuthService(t)
	ctx := context.Background()

	require.NoError(t, svc.SendRegisterCode(ctx, "alice@example.com"))
	code := lastCode(t, repo, models.PurposeRegister, "alice@example.com")

	user, err := svc.RegisterWithCode(ctx, "alice@example.com", "secret123", code.Code)

	require.NoError(t, err)
	assert.NotZero(t, user.ID)
	assert.True(t, user.IsActive)

	// Code is consumed
	consumed := lastCode(t, repo, models.PurposeRegister, "alice@example.com")
	assert.True(t, consumed.Used)
}

func TestRegisterWithCode_WrongCode(t *testing.T) {
	svc, repo, _, _ := newAuthService(t)
	ctx := context.Background()

	require.NoError(t, svc.SendRegisterCode(ctx, "alice@example.com"))
	code := lastCode(t, repo, models.PurposeRegister, "alice@example.com")

	wrong := "000000"
	if code.Code == wrong {
		wrong = "000001"
	}

	_, err := svc.RegisterWithCode(ctx, "alice@example.com", "secret123", wrong)

	assert.ErrorIs(t, err, auth.ErrCodeInvalid)

	// No account was created
	_, err = repo.GetUserByEmail(ctx, "alice@example.com")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestRegisterWithCode_ExpiredCode(t *testing.T) {
	svc, repo, _, _ := newAuthService(t)
	codes := verification.NewService(repo)
	ctx := context.Background()

	rec, err := codes.Issue(ctx, models.PurposeRegister, "alice@example.com", nil, -time.Minute)
	require.NoError(t, err)

	_, err = svc.RegisterWithCode(ctx, "alice@example.com", "secret123", rec.Code)

	assert.ErrorIs(t, err, auth.ErrCodeInvalid)
}

func TestRegisterWithCode_CodeReuse(t *testing.T) {
	svc, repo, _, _ := newAuthService(t)
	ctx := context.Background()

	require.NoError(t, svc.SendRegisterCode(ctx, "alice@example.com"))
	code := lastCode(t, repo, models.PurposeRegister, "alice@example.com")

	_, err := svc.RegisterWithCode(ctx, "alice@example.com", "secret123", code.Code)
	require.NoError(t, err)

	// The same code cannot register anyone again
	_, err = svc.RegisterWithCode(ctx, "alice@example.com", "secret123", code.Code)
	assert.ErrorIs(t, err, auth.ErrCodeInvalid)
}

func TestRegisterWithCode_AlreadyRegisteredLeavesCodeUnused(t *testing.T) {
	svc, repo, _, _ := newAuthService(t)
	codes := verification.NewService(repo)
	ctx := context.Background()

	testutil.NewTestUser(t, repo, "alice@example.com")

	// A code issued despite the existing account (bypassing the send check)
	rec, err := codes.Issue(ctx, models.PurposeRegister, "alice@example.com", nil, 5*time.Minute)
	require.NoError(t, err)

	_, err = svc.RegisterWithCode(ctx, "alice@example.com", "secret123", rec.Code)

	assert.ErrorIs(t, err, auth.ErrAlreadyRegistered)

	// The rollback left the code unconsumed
	stored := lastCode(t, repo, models.PurposeRegister, "alice@example.com")
	assert.False(t, stored.Used)
}

func TestRegisterWithCode_WeakPassword(t *testing.T) {
	svc, _, _, _ := newAuthService(t)
	ctx := context.Background()

	_, err := svc.RegisterWithCode(ctx, "alice@example.com", "short", "123456")

	assert.ErrorIs(t, err, auth.ErrWeakPassword)
}

func TestForgotPassword(t *testing.T) {
	svc, repo, mailRec, _ := newAuthService(t)
	ctx := context.Background()

	register(t, svc, repo, "alice@example.com", "secret123")

	err := svc.ForgotPassword(ctx, "alice@example.com")

	require.NoError(t, err)
	rec := lastCode(t, repo, models.PurposeResetPassword, "alice@example.com")
	assert.NotNil(t, rec.UserID)
	assert.Contains(t, mailRec.Last(t).Body, rec.Code)
}

func TestForgotPassword_UnknownEmailIsSilent(t *testing.T) {
	svc, repo, mailRec, _ := newAuthService(t)
	ctx := context.Background()

	err := svc.ForgotPassword(ctx, "nobody@example.com")

	require.NoError(t, err)
	assert.Empty(t, mailRec.Messages)

	// No code was issued either
	var count int64
	require.NoError(t, repo.DB().Model(&models.VerificationCode{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestResetPassword(t *testing.T) {
	svc, repo, _, _ := newAuthService(t)
	ctx := context.Background()

	register(t, svc, repo, "alice@example.com", "secret123")
	require.NoError(t, svc.ForgotPassword(ctx, "alice@example.com"))
	code := lastCode(t, repo, models.PurposeResetPassword, "alice@example.com")

	err := svc.ResetPassword(ctx, "alice@example.com", code.Code, "newsecret456")
	require.NoError(t, err)

	// Old password no longer works, new one does
	_, _, err = svc.Login(ctx, "alice@example.com", "secret123")
	assert.ErrorIs(t, err, auth.ErrInvalidCredentials)

	_, _, err = svc.Login(ctx, "alice@example.com", "newsecret456")
	assert.NoError(t, err)
}

func TestResetPassword_WrongCode(t *testing.T) {
	svc, repo, _, _ := newAuthService(t)
	ctx := context.Background()

	register(t, svc, repo, "alice@example.com", "secret123")

	err := svc.ResetPassword(ctx, "alice@example.com", "000000", "newsecret456")

	assert.ErrorIs(t, err, auth.ErrCodeInvalid)
}

func TestResetPassword_UnknownEmail(t *testing.T) {
	svc, _, _, _ := newAuthService(t)
	ctx := context.Background()

	err := svc.ResetPassword(ctx, "nobody@example.com", "123456", "newsecret456")

	// Indistinguishable from a bad code
	assert.ErrorIs(t, err, auth.ErrCodeInvalid)
}

func TestPhoneLogin_CreatesAccountOnFirstLogin(t *testing.T) {
	svc, repo, _, smsRec := newAuthService(t)
	ctx := context.Background()

	require.NoError(t, svc.SendPhoneCode(ctx, "13800000001"))
	code := lastCode(t, repo, models.PurposePhoneLogin, "13800000001")
	assert.Contains(t, smsRec.Last(t).Body, code.Code)

	user, token, err := svc.PhoneLogin(ctx, "13800000001", code.Code)

	require.NoError(t, err)
	assert.NotZero(t, user.ID)
	assert.Empty(t, user.PasswordHash)

	userID, err := svc.Tokens().Verify(token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, userID)
}

func TestPhoneLogin_ReusesExistingAccount(t *testing.T) {
	svc, repo, _, _ := newAuthService(t)
	ctx := context.Background()

	require.NoError(t, svc.SendPhoneCode(ctx, "13800000001"))
	first, _, err := svc.PhoneLogin(ctx, "13800000001", lastCode(t, repo, models.PurposePhoneLogin, "13800000001").Code)
	require.NoError(t, err)

	require.NoError(t, svc.SendPhoneCode(ctx, "13800000001"))
	second, _, err := svc.PhoneLogin(ctx, "13800000001", lastCode(t, repo, models.PurposePhoneLogin, "13800000001").Code)
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
}

func TestPhoneLogin_WrongCode(t *testing.T) {
	svc, _, _, _ := newAuthService(t)
	ctx := context.Background()

	require.NoError(t, svc.SendPhoneCode(ctx, "13800000001"))

	_, _, err := svc.PhoneLogin(ctx, "13800000001", "999999x")

	assert.ErrorIs(t, err, auth.ErrCodeInvalid)
}

func TestLogin(t *testing.T) {
	svc, repo, _, _ := newAuthService(t)
	ctx := context.Background()

	created := register(t, svc, repo, "alice@example.com", "secret123")

	user, token, err := svc.Login(ctx, "alice@example.com", "secret123")

	require.NoError(t, err)
	assert.Equal(t, created.ID, user.ID)

	userID, err := svc.Tokens().Verify(token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, userID)
}

func TestLogin_WrongPassword(t *testing.T) {
	svc, repo, _, _ := newAuthService(t)
	ctx := context.Background()

	register(t, svc, repo, "alice@example.com", "secret123")

	_, _, err := svc.Login(ctx, "alice@example.com", "wrong")

	assert.ErrorIs(t, err, auth.ErrInvalidCredentials)
}

func TestLogin_UnknownEmail(t *testing.T) {
	svc, _, _, _ := newAuthService(t)
	ctx := context.Background()

	_, _, err := svc.Login(ctx, "nobody@example.com", "secret123")

	assert.ErrorIs(t, err, auth.ErrInvalidCredentials)
}

func TestLogin_DisabledAccount(t *testing.T) {
	svc, repo, _, _ := newAuthService(t)
	ctx := context.Background()

	user := register(t, svc, repo, "alice@example.com", "secret123")
	require.NoError(t, repo.SetUserActive(ctx, user.ID, false))

	_, _, err := svc.Login(ctx, "alice@example.com", "secret123")

	assert.ErrorIs(t, err, auth.ErrAccountDisabled)
}

func TestLogin_PhoneOnlyAccountHasNoPassword(t *testing.T) {
	svc, repo, _, _ := newAuthService(t)
	ctx := context.Background()

	require.NoError(t, svc.SendPhoneCode(ctx, "13800000001"))
	user, _, err := svc.PhoneLogin(ctx, "13800000001", lastCode(t, repo, models.PurposePhoneLogin, "13800000001").Code)
	require.NoError(t, err)

	// An empty password must not match the empty hash
	require.NoError(t, repo.DB().Model(user).Update("email", "phone-user@example.com").Error)
	_, _, err = svc.Login(ctx, "phone-user@example.com", "")

	assert.ErrorIs(t, err, auth.ErrInvalidCredentials)
}

func TestEnsureSuperuser(t *testing.T) {
	svc, repo, _, _ := newAuthService(t)
	ctx := context.Background()

	require.NoError(t, svc.EnsureSuperuser(ctx, "admin@example.com", "adminsecret"))

	user, err := repo.GetUserByEmail(ctx, "admin@example.com")
	require.NoError(t, err)
	assert.True(t, user.IsSuperuser)

	// Idempotent
	require.NoError(t, svc.EnsureSuperuser(ctx, "admin@example.com", "adminsecret"))

	users, err := repo.ListUsers(ctx)
	require.NoError(t, err)
	assert.Len(t, users, 1)
}

func TestEnsureSuperuser_PromotesExistingUser(t *testing.T) {
	svc, repo, _, _ := newAuthService(t)
	ctx := context.Background()

	register(t, svc, repo, "alice@example.com", "secret123")

	require.NoError(t, svc.EnsureSuperuser(ctx, "alice@example.com", "ignored"))

	user, err := repo.GetUserByEmail(ctx, "alice@example.com")
	require.NoError(t, err)
	assert.True(t, user.IsSuperuser)
}

func TestEnsureSuperuser_SkipsWhenUnconfigured(t *testing.T) {
	svc, repo, _, _ := newAuthService(t)
	ctx := context.Background()

	require.NoError(t, svc.EnsureSuperuser(ctx, "", ""))

	users, err := repo.ListUsers(ctx)
	require.NoError(t, err)
	assert.Empty(t, users)
}

// register runs the full code-gated registration flow.
func register(t *testing.T, svc *auth.Service, repo *repository.Repository, email, password string) *models.User {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, svc.SendRegisterCode(ctx, email))
	code := lastCode(t, repo, models.PurposeRegister, email)
	user, err := svc.RegisterWithCode(ctx, email, password, code.Code)
	require.NoError(t, err)
	return user
}

func TestSendPhoneCode_SupersedesPriorCode(t *testing.T) {
	svc, repo, _, _ := newAuthService(t)
	ctx := context.Background()

	require.NoError(t, svc.SendPhoneCode(ctx, "13800000001"))
	first := lastCode(t, repo, models.PurposePhoneLogin, "13800000001")

	require.NoError(t, svc.SendPhoneCode(ctx, "13800000001"))
	second := lastCode(t, repo, models.PurposePhoneLogin, "13800000001")

	if first.Code == second.Code {
		t.Skip("codes collided, superseding is unobservable")
	}

	_, _, err := svc.PhoneLogin(ctx, "13800000001", first.Code)
	assert.ErrorIs(t, err, auth.ErrCodeInvalid)

	_, _, err = svc.PhoneLogin(ctx, "13800000001", second.Code)
	assert.NoError(t, err)
}

func TestCollapsedCodeErrorsAreIndistinguishable(t *testing.T) {
	svc, repo, _, _ := newAuthService(t)
	codes := verification.NewService(repo)
	ctx := context.Background()

	// Expired code and missing code produce the same caller-visible error
	rec, err := codes.Issue(ctx, models.PurposeRegister, "alice@example.com", nil, -time.Minute)
	require.NoError(t, err)

	_, errExpired := svc.RegisterWithCode(ctx, "alice@example.com", "secret123", rec.Code)
	_, errMissing := svc.RegisterWithCode(ctx, "bob@example.com", "secret123", "123456")

	require.Error(t, errExpired)
	require.Error(t, errMissing)
	assert.True(t, errors.Is(errExpired, auth.ErrCodeInvalid))
	assert.True(t, errors.Is(errMissing, auth.ErrCodeInvalid))
	assert.Equal(t, errExpired.Error(), errMissing.Error())
}
