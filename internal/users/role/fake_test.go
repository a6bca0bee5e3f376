// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package role_test

import (
	"context"
	"sync"

	"github.com/taibuivan/crewdesk/internal/platform/sec"
	"github.com/taibuivan/crewdesk/internal/users/role"
)

const (
	accountA = "0190a1b2-0000-7000-8000-00000000000a"
	accountB = "0190a1b2-0000-7000-8000-00000000000b"
	eventOne = "0190a1b2-0000-7000-8000-0000000000e1"
	eventTwo = "0190a1b2-0000-7000-8000-0000000000e2"
	teamOne  = "0190a1b2-0000-7000-8000-0000000000f1"
	teamTwo  = "0190a1b2-0000-7000-8000-0000000000f2"
)

// memoryRepository keeps grants in a slice and rolls back on error.
type memoryRepository struct {
	mutex     sync.Mutex
	accounts  map[string]bool
	events    map[string]bool
	teams     map[string]string // team -> event
	grants    []*role.Grant
	insertErr error
}

func newMemoryRepository() *memoryRepository {
	return &memoryRepository{
		accounts: map[string]bool{accountA: true, accountB: true},
		events:   map[string]bool{eventOne: true, eventTwo: true},
		teams:    map[string]string{teamOne: eventOne, teamTwo: eventTwo},
	}
}

func (m *memoryRepository) ListForAccount(ctx context.Context, accountID string) ([]sec.Role, error) {
	grants, _ := m.ListGrants(ctx, accountID)
	roles := []sec.Role{}
	for _, grant := range grants {
		roles = append(roles, grant.Role)
	}
	return roles, nil
}

func (m *memoryRepository) ListGrants(_ context.Context, accountID string) ([]*role.Grant, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	grants := []*role.Grant{}
	for _, grant := range m.grants {
		if grant.AccountID == accountID {
			grants = append(grants, grant)
		}
	}
	return grants, nil
}

func (m *memoryRepository) InTx(_ context.Context, fn func(tx role.Tx) error) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	snapshot := append([]*role.Grant(nil), m.grants...)
	if err := fn(memoryTx{m}); err != nil {
		m.grants = snapshot
		return err
	}
	return nil
}

type memoryTx struct{ m *memoryRepository }

func (tx memoryTx) AccountExists(_ context.Context, accountID string) (bool, error) {
	return tx.m.accounts[accountID], nil
}

func (tx memoryTx) EventExists(_ context.Context, eventID string) (bool, error) {
	return tx.m.events[eventID], nil
}

func (tx memoryTx) TeamInEvent(_ context.Context, eventID, teamID string) (bool, error) {
	return tx.m.teams[teamID] == eventID, nil
}

func (tx memoryTx) Holds(_ context.Context, accountID string, target sec.Role) (bool, error) {
	for _, grant := range tx.m.grants {
		if grant.AccountID == accountID && grant.Role.Equal(target) {
			return true, nil
		}
	}
	return false, nil
}

func (tx memoryTx) Insert(_ context.Context, grant *role.Grant) error {
	tx.m.grants = append(tx.m.grants, grant)
	if tx.m.insertErr != nil {
		return tx.m.insertErr
	}
	return nil
}

func (tx memoryTx) Delete(_ context.Context, accountID string, target sec.Role) (bool, error) {
	for i, grant := range tx.m.grants {
		if grant.AccountID == accountID && grant.Role.Equal(target) {
			tx.m.grants = append(tx.m.grants[:i], tx.m.grants[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

