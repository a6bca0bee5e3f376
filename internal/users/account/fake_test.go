// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package account_test

import (
	"context"
	"net/http"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/taibuivan/crewdesk/internal/platform/apperr"
	"github.com/taibuivan/crewdesk/internal/platform/sec"
	"github.com/taibuivan/crewdesk/internal/users/account"
	"github.com/taibuivan/crewdesk/internal/users/auth"
)

const (
	accountA = "0190a1b2-0000-7000-8000-00000000000a"
	accountB = "0190a1b2-0000-7000-8000-00000000000b"

	sessionA1 = "0190a1b2-0000-7000-8000-0000000000a1"
	sessionA2 = "0190a1b2-0000-7000-8000-0000000000a2"
	sessionA3 = "0190a1b2-0000-7000-8000-0000000000a3"
	sessionB1 = "0190a1b2-0000-7000-8000-0000000000b1"
)

type storedSession struct {
	info      account.SessionInfo
	accountID string
	revoked   bool
}

// memoryStore implements both repositories over maps.
type memoryStore struct {
	mutex    sync.Mutex
	accounts map[string]*auth.Account
	sessions map[string]*storedSession
}

func newMemoryStore(t *testing.T, now time.Time) *memoryStore {
	t.Helper()

	hash, err := sec.HashPassword("Lantern-Festival-2026")
	require.NoError(t, err)

	store := &memoryStore{
		accounts: map[string]*auth.Account{
			accountA: {ID: accountA, Email: "ada@example.org", Name: "Ada", PasswordHash: hash},
			accountB: {ID: accountB, Email: "oauth@example.org", Name: "Bo"},
		},
		sessions: map[string]*storedSession{},
	}
	for i, id := range []string{sessionA1, sessionA2, sessionA3} {
		store.sessions[id] = &storedSession{accountID: accountA, info: account.SessionInfo{
			ID:        id,
			UserAgent: "Firefox",
			CreatedAt: now.Add(time.Duration(i) * time.Minute),
			ExpiresAt: now.Add(time.Hour),
		}}
	}
	store.sessions[sessionB1] = &storedSession{accountID: accountB, info: account.SessionInfo{ID: sessionB1, CreatedAt: now, ExpiresAt: now.Add(time.Hour)}}
	return store
}

func (m *memoryStore) live(id string) (*auth.Account, error) {
	account, ok := m.accounts[id]
	if !ok || account.DeletedAt != nil {
		return nil, apperr.NotFound("Account")
	}
	return account, nil
}

func (m *memoryStore) FindByID(_ context.Context, id string) (*auth.Account, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	return m.live(id)
}

func (m *memoryStore) UpdateName(_ context.Context, id, name string, at time.Time) (*auth.Account, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	account, err := m.live(id)
	if err != nil {
		return nil, err
	}
	account.Name, account.UpdatedAt = name, at
	return account, nil
}

func (m *memoryStore) UpdatePassword(_ context.Context, id, hash string, at time.Time) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	account, err := m.live(id)
	if err != nil {
		return err
	}
	account.PasswordHash, account.UpdatedAt = hash, at
	return nil
}

func (m *memoryStore) SoftDelete(_ context.Context, id string, at time.Time) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	account, err := m.live(id)
	if err != nil {
		return err
	}
	account.DeletedAt = &at
	return nil
}

func (m *memoryStore) ListActive(_ context.Context, accountID string, now time.Time) ([]account.SessionInfo, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	list := []account.SessionInfo{}
	for _, session := range m.sessions {
		if session.accountID == accountID && !session.revoked && now.Before(session.info.ExpiresAt) {
			list = append(list, session.info)
		}
	}
	sort.Slice(list, func(i, j int) bool { return list[i].CreatedAt.After(list[j].CreatedAt) })
	return list, nil
}

func (m *memoryStore) Revoke(_ context.Context, accountID, sessionID string, _ time.Time) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	session, ok := m.sessions[sessionID]
	if !ok || session.accountID != accountID || session.revoked {
		return apperr.NotFound("Session")
	}
	session.revoked = true
	return nil
}

func (m *memoryStore) RevokeOthers(_ context.Context, accountID, keepID string, _ time.Time) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	for id, session := range m.sessions {
		if session.accountID == accountID && id != keepID {
			session.revoked = true
		}
	}
	return nil
}

func (m *memoryStore) RevokeAll(ctx context.Context, accountID string, at time.Time) error {
	return m.RevokeOthers(ctx, accountID, "", at)
}

func (m *memoryStore) revoked(id string) bool {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	return m.sessions[id].revoked
}

// fixedSession reports a fixed current session and records cookie clears.
type fixedSession struct {
	id      string
	cleared bool
}

func (f *fixedSession) Current(*http.Request) (*auth.Session, error) {
	if f.id == "" {
		return nil, nil
	}
	return &auth.Session{ID: f.id}, nil
}

func (f *fixedSession) Clear(http.ResponseWriter) { f.cleared = true }

type fixedResolver struct{ identity *sec.Identity }

func (f fixedResolver) Current(*http.Request) *sec.Identity { return f.identity }
