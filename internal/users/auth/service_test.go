// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth_test

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/crewdesk/internal/platform/kv"
	"github.com/taibuivan/crewdesk/internal/security/lockout"
	"github.com/taibuivan/crewdesk/internal/security/ratelimit"
	"github.com/taibuivan/crewdesk/internal/users/auth"
)

const strongPassword = "Lantern-Festival-2026"

type serviceFixture struct {
	accounts *memoryAccounts
	sessions *memorySessions
	captcha  *fakeCaptcha
	mailer   *recordingMailer
	store    *kv.Memory
	service  *auth.Service
}

func newServiceFixture(production bool) *serviceFixture {
	f := &serviceFixture{
		accounts: newMemoryAccounts(),
		sessions: newMemorySessions(),
		captcha:  &fakeCaptcha{},
		mailer:   &recordingMailer{},
		store:    kv.NewMemory(),
	}

	f.service = auth.NewService(auth.ServiceConfig{
		Accounts:    f.accounts,
		ResetTokens: auth.NewResetTokenRepository(f.store),
		Sessions:    auth.NewSessions(f.sessions, false),
		Limiter:     ratelimit.New(f.store),
		Lockout:     lockout.New(f.store),
		Captcha:     f.captcha,
		Mailer:      f.mailer,
		BaseURL:     "https://crew.example.org/",
		Production:  production,
	})
	return f
}

func signInAs(f *serviceFixture, email, password string) (*auth.Account, error) {
	return f.service.SignIn(context.Background(), auth.SignInInput{
		Email:    email,
		Password: password,
		ClientIP: "203.0.113.7",
	})
}

// inputCode returns the code of an *auth.InputError, or "" for any other error.
func inputCode(err error) string {
	var input *auth.InputError
	if errors.As(err, &input) {
		return input.Code
	}
	return ""
}

// # Sign-in

func TestSignIn_Success(t *testing.T) {
	f := newServiceFixture(false)
	seeded := f.accounts.seed(t, "acc-1", "alice@example.com", strongPassword)

	account, err := signInAs(f, "  Alice@Example.COM ", strongPassword)

	require.NoError(t, err)
	assert.Equal(t, seeded.ID, account.ID)
	assert.Contains(t, f.accounts.touched, seeded.ID)
	assert.Equal(t, 1, f.captcha.calls)
}

/*
TestSignIn_LockoutScenario walks five wrong passwords into a lock; the sixth
attempt is refused even with the right password.
*/
func TestSignIn_LockoutScenario(t *testing.T) {
	f := newServiceFixture(false)
	f.accounts.seed(t, "acc-1", "bob@example.com", strongPassword)

	for i := 0; i < 5; i++ {
		_, err := signInAs(f, "bob@example.com", "wrong-password")
		require.ErrorIs(t, err, auth.ErrInvalidCredentials, "attempt %d", i+1)
	}

	_, err := signInAs(f, "bob@example.com", strongPassword)
	assert.ErrorIs(t, err, auth.ErrLocked)
}

func TestSignIn_UnknownEmailLooksLikeWrongPassword(t *testing.T) {
	f := newServiceFixture(false)

	_, err := signInAs(f, "ghost@example.com", strongPassword)

	assert.ErrorIs(t, err, auth.ErrInvalidCredentials)
}

func TestSignIn_SuccessClearsFailures(t *testing.T) {
	f := newServiceFixture(false)
	f.accounts.seed(t, "acc-1", "carol@example.com", strongPassword)

	for i := 0; i < 4; i++ {
		_, _ = signInAs(f, "carol@example.com", "nope")
	}
	_, err := signInAs(f, "carol@example.com", strongPassword)
	require.NoError(t, err)

	// A fresh count: four more failures do not lock
	for i := 0; i < 4; i++ {
		_, _ = signInAs(f, "carol@example.com", "nope")
	}
	_, err = signInAs(f, "carol@example.com", strongPassword)
	assert.NoError(t, err)
}

func TestSignIn_RateLimitedPerIP(t *testing.T) {
	f := newServiceFixture(false)

	// Empty passwords are rejected after the limit check without touching bcrypt
	for i := 0; i < ratelimit.SignInIP.Max; i++ {
		_, err := signInAs(f, "dan@example.com", "")
		require.Equal(t, "invalid_input", inputCode(err), "attempt %d", i+1)
	}

	_, err := signInAs(f, "dan@example.com", strongPassword)
	assert.ErrorIs(t, err, auth.ErrRateLimited)
}

func TestSignIn_CaptchaRejectedDoesNotCountFailure(t *testing.T) {
	f := newServiceFixture(false)
	f.accounts.seed(t, "acc-1", "erin@example.com", strongPassword)
	f.captcha.err = errors.New("rejected")

	for i := 0; i < 6; i++ {
		_, err := signInAs(f, "erin@example.com", "wrong")
		require.ErrorIs(t, err, auth.ErrCaptcha)
	}

	f.captcha.err = nil
	_, err := signInAs(f, "erin@example.com", strongPassword)
	assert.NoError(t, err)
}

// # Sign-up

func TestSignUp_Validation(t *testing.T) {
	tests := []struct {
		name     string
		input    auth.SignUpInput
		wantCode string
	}{
		{"blank_name", auth.SignUpInput{Name: "  ", Email: "new@example.com", Password: strongPassword}, "invalid_input"},
		{"bad_email", auth.SignUpInput{Name: "Nia", Email: "not-an-email", Password: strongPassword}, "invalid_input"},
		{"short_password", auth.SignUpInput{Name: "Nia", Email: "new@example.com", Password: "Ab1!"}, "too_short"},
		{"weak_password", auth.SignUpInput{Name: "Nia", Email: "new@example.com", Password: "alllowercaseletters"}, "too_weak"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newServiceFixture(false)
			_, err := f.service.SignUp(context.Background(), tt.input)
			assert.Equal(t, tt.wantCode, inputCode(err))
		})
	}
}

func TestSignUp_CreatesNormalisedAccount(t *testing.T) {
	f := newServiceFixture(false)

	account, err := f.service.SignUp(context.Background(), auth.SignUpInput{
		Name:     "  Nia Okafor ",
		Email:    " Nia@Example.com",
		Password: strongPassword,
	})

	require.NoError(t, err)
	assert.Equal(t, "nia@example.com", account.Email)
	assert.Equal(t, "Nia Okafor", account.Name)
	assert.NotEqual(t, strongPassword, account.PasswordHash)

	_, err = signInAs(f, "nia@example.com", strongPassword)
	assert.NoError(t, err)
}

func TestSignUp_EmailTaken(t *testing.T) {
	f := newServiceFixture(false)
	f.accounts.seed(t, "acc-1", "taken@example.com", strongPassword)

	_, err := f.service.SignUp(context.Background(), auth.SignUpInput{
		Name: "Other", Email: "TAKEN@example.com", Password: strongPassword,
	})

	assert.ErrorIs(t, err, auth.ErrEmailTaken)
}

func TestSignUp_Captcha(t *testing.T) {
	f := newServiceFixture(false)
	f.captcha.err = errors.New("rejected")

	_, err := f.service.SignUp(context.Background(), auth.SignUpInput{
		Name: "Nia", Email: "nia@example.com", Password: strongPassword,
	})

	assert.ErrorIs(t, err, auth.ErrCaptcha)
	assert.Empty(t, f.accounts.byID)
}

// # Password recovery

// loggedResetToken extracts the token from the auth_password_reset_link log line.
func loggedResetToken(t *testing.T, line map[string]any) string {
	t.Helper()
	require.NotNil(t, line, "reset link was not logged")

	link, err := url.Parse(line["url"].(string))
	require.NoError(t, err)
	assert.Equal(t, "https://crew.example.org/reset-password", link.Scheme+"://"+link.Host+link.Path)
	return link.Query().Get("token")
}

/*
TestPasswordReset_Flow requests a link, rejects a weak password without
burning the token, resets, and checks the token is single use.
*/
func TestPasswordReset_Flow(t *testing.T) {
	f := newServiceFixture(false)
	account := f.accounts.seed(t, "acc-1", "fay@example.com", strongPassword)
	require.NoError(t, f.sessions.Create(context.Background(), &auth.Session{
		ID: "s-1", AccountID: account.ID, TokenHash: "h1", ExpiresAt: time.Now().Add(time.Hour),
	}))

	// 1. Request: no SMTP outside production logs the link
	ctx, logs := captureLogs()
	require.NoError(t, f.service.RequestPasswordReset(ctx, "FAY@example.com", "", "203.0.113.7"))

	line := findLog(t, logs, "auth_password_reset_link")
	assert.Equal(t, "fay@example.com", line["email"])
	token := loggedResetToken(t, line)
	require.NotEmpty(t, token)

	// 2. A rejected password keeps the token usable
	err := f.service.ResetPassword(context.Background(), token, "weakweakweak")
	assert.Equal(t, "too_weak", inputCode(err))

	// 3. Reset succeeds and revokes every session
	const newPassword = "Brand-New-Secret-42"
	require.NoError(t, f.service.ResetPassword(context.Background(), token, newPassword))
	assert.Zero(t, f.sessions.liveFor(account.ID))

	// 4. The token is single use
	err = f.service.ResetPassword(context.Background(), token, newPassword)
	assert.ErrorIs(t, err, auth.ErrInvalidToken)

	// 5. The new password signs in
	_, err = signInAs(f, "fay@example.com", newPassword)
	assert.NoError(t, err)
	_, err = signInAs(f, "fay@example.com", strongPassword)
	assert.ErrorIs(t, err, auth.ErrInvalidCredentials)
}

func TestRequestPasswordReset_UnknownEmailIsSilent(t *testing.T) {
	f := newServiceFixture(false)
	f.mailer.enabled = true
	ctx, logs := captureLogs()

	err := f.service.RequestPasswordReset(ctx, "nobody@example.com", "", "")

	require.NoError(t, err)
	assert.Empty(t, f.mailer.messages)
	assert.Nil(t, findLog(t, logs, "auth_password_reset_link"))
	assert.Zero(t, f.store.Len())
}

func TestRequestPasswordReset_MailsLink(t *testing.T) {
	f := newServiceFixture(true)
	f.mailer.enabled = true
	f.accounts.seed(t, "acc-1", "gus@example.com", strongPassword)

	require.NoError(t, f.service.RequestPasswordReset(context.Background(), "gus@example.com", "", ""))

	require.Len(t, f.mailer.messages, 1)
	msg := f.mailer.messages[0]
	assert.Equal(t, "gus@example.com", msg.To)
	assert.Contains(t, msg.Body, "https://crew.example.org/reset-password?token=")
}

func TestRequestPasswordReset_ProductionWithoutMailLogsNothing(t *testing.T) {
	f := newServiceFixture(true)
	f.accounts.seed(t, "acc-1", "hal@example.com", strongPassword)
	ctx, logs := captureLogs()

	require.NoError(t, f.service.RequestPasswordReset(ctx, "hal@example.com", "", ""))

	assert.Nil(t, findLog(t, logs, "auth_password_reset_link"))
	assert.False(t, strings.Contains(logs.String(), "token="))
}

func TestResetPassword_InvalidToken(t *testing.T) {
	f := newServiceFixture(false)

	assert.ErrorIs(t, f.service.ResetPassword(context.Background(), "", strongPassword), auth.ErrInvalidToken)
	assert.ErrorIs(t, f.service.ResetPassword(context.Background(), "never-issued", strongPassword), auth.ErrInvalidToken)
}
