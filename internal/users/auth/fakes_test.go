// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/taibuivan/crewdesk/internal/platform/apperr"
	"github.com/taibuivan/crewdesk/internal/platform/ctxutil"
	"github.com/taibuivan/crewdesk/internal/platform/mail"
	"github.com/taibuivan/crewdesk/internal/platform/sec"
	"github.com/taibuivan/crewdesk/internal/users/auth"
)

// # Accounts

type memoryAccounts struct {
	mutex   sync.Mutex
	byID    map[string]*auth.Account
	touched map[string]time.Time
}

func newMemoryAccounts() *memoryAccounts {
	return &memoryAccounts{byID: map[string]*auth.Account{}, touched: map[string]time.Time{}}
}

func (m *memoryAccounts) FindByID(_ context.Context, id string) (*auth.Account, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	if account, ok := m.byID[id]; ok {
		copied := *account
		return &copied, nil
	}
	return nil, apperr.NotFound("Account")
}

func (m *memoryAccounts) FindByEmail(_ context.Context, email string) (*auth.Account, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	return m.findByEmailLocked(email)
}

func (m *memoryAccounts) findByEmailLocked(email string) (*auth.Account, error) {
	for _, account := range m.byID {
		if account.Email == email && account.DeletedAt == nil {
			copied := *account
			return &copied, nil
		}
	}
	return nil, apperr.NotFound("Account")
}

func (m *memoryAccounts) Create(_ context.Context, account *auth.Account) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	if _, err := m.findByEmailLocked(account.Email); err == nil {
		return apperr.Conflict("Account already exists")
	}
	copied := *account
	m.byID[account.ID] = &copied
	return nil
}

func (m *memoryAccounts) UpsertByEmail(_ context.Context, account *auth.Account) (*auth.Account, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	if existing, err := m.findByEmailLocked(account.Email); err == nil {
		if account.EmailVerified {
			m.byID[existing.ID].EmailVerified = true
			existing.EmailVerified = true
		}
		return existing, nil
	}
	copied := *account
	m.byID[account.ID] = &copied
	return account, nil
}

func (m *memoryAccounts) UpdatePassword(_ context.Context, accountID, newHash string) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	account, ok := m.byID[accountID]
	if !ok || account.DeletedAt != nil {
		return apperr.NotFound("Account")
	}
	account.PasswordHash = newHash
	return nil
}

func (m *memoryAccounts) TouchLastLogin(_ context.Context, accountID string, at time.Time) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.touched[accountID] = at
	return nil
}

// seed stores an account with password and returns it.
func (m *memoryAccounts) seed(t *testing.T, id, email, password string) *auth.Account {
	t.Helper()
	hash, err := sec.HashPassword(password)
	require.NoError(t, err)
	account := &auth.Account{ID: id, Email: email, Name: "Test " + id, PasswordHash: hash}
	require.NoError(t, m.Create(context.Background(), account))
	return account
}

// # Sessions

type memorySessions struct {
	mutex  sync.Mutex
	byHash map[string]*auth.Session
	err    error
}

func newMemorySessions() *memorySessions {
	return &memorySessions{byHash: map[string]*auth.Session{}}
}

func (m *memorySessions) Create(_ context.Context, session *auth.Session) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	copied := *session
	m.byHash[session.TokenHash] = &copied
	return nil
}

func (m *memorySessions) FindActive(_ context.Context, tokenHash string, now time.Time) (*auth.Session, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	session, ok := m.byHash[tokenHash]
	if !ok || !session.ActiveAt(now) {
		return nil, apperr.NotFound("Session")
	}
	copied := *session
	return &copied, nil
}

func (m *memorySessions) Revoke(_ context.Context, sessionID string, at time.Time) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	for _, session := range m.byHash {
		if session.ID == sessionID && session.RevokedAt == nil {
			session.RevokedAt = &at
		}
	}
	return nil
}

func (m *memorySessions) RevokeAll(_ context.Context, accountID string, at time.Time) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	for _, session := range m.byHash {
		if session.AccountID == accountID && session.RevokedAt == nil {
			session.RevokedAt = &at
		}
	}
	return nil
}

func (m *memorySessions) DeleteExpired(_ context.Context, now time.Time) (int64, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	var removed int64
	for hash, session := range m.byHash {
		if !now.Before(session.ExpiresAt) {
			delete(m.byHash, hash)
			removed++
		}
	}
	return removed, nil
}

func (m *memorySessions) liveFor(accountID string) int {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	live := 0
	for _, session := range m.byHash {
		if session.AccountID == accountID && session.RevokedAt == nil {
			live++
		}
	}
	return live
}

// # Collaborators

type fakeCaptcha struct {
	err   error
	calls int
}

func (f *fakeCaptcha) Verify(context.Context, string, string) error {
	f.calls++
	return f.err
}

type recordingMailer struct {
	enabled  bool
	messages []mail.Message
}

func (r *recordingMailer) Enabled() bool { return r.enabled }

func (r *recordingMailer) Send(_ context.Context, msg mail.Message) error {
	r.messages = append(r.messages, msg)
	return nil
}

type fixedRoles struct {
	roles map[string][]sec.Role
	err   error
	calls int
}

func (f *fixedRoles) ListForAccount(_ context.Context, accountID string) ([]sec.Role, error) {
	f.calls++
	return f.roles[accountID], f.err
}

// # Logging

// captureLogs returns a context whose logger writes JSON lines into the buffer.
func captureLogs() (context.Context, *bytes.Buffer) {
	buffer := &bytes.Buffer{}
	logger := slog.New(slog.NewJSONHandler(buffer, nil))
	return ctxutil.WithLogger(context.Background(), logger), buffer
}

// findLog returns the first log line whose msg equals message.
func findLog(t *testing.T, buffer *bytes.Buffer, message string) map[string]any {
	t.Helper()
	for _, raw := range strings.Split(strings.TrimSpace(buffer.String()), "\n") {
		if raw == "" {
			continue
		}
		var line map[string]any
		require.NoError(t, json.Unmarshal([]byte(raw), &line))
		if line["msg"] == message {
			return line
		}
	}
	return nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
