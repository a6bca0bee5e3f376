// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/taibuivan/crewdesk/internal/platform/apperr"
	"github.com/taibuivan/crewdesk/internal/platform/constants"
	"github.com/taibuivan/crewdesk/internal/platform/kv"
	"github.com/taibuivan/crewdesk/internal/platform/sec"
)

// KVResetTokenRepository implements ResetTokenRepository on a [kv.Store].
//
// Keys hold the SHA-256 of the token, so a dump of the store cannot be
// replayed as reset links.
type KVResetTokenRepository struct {
	store kv.Store
}

// NewResetTokenRepository creates a kv-backed ResetTokenRepository.
func NewResetTokenRepository(store kv.Store) *KVResetTokenRepository {
	return &KVResetTokenRepository{store: store}
}

type resetTokenRecord struct {
	AccountID string `json:"accountId"`
}

func resetTokenKey(token string) string {
	return constants.KVPrefixResetToken + sec.HashToken(token)
}

/*
Set stores a reset token with its associated account ID and TTL.

Parameters:
  - context: context.Context
  - token: string
  - accountID: string
  - ttl: time.Duration

Returns:
  - error: Execution errors
*/
func (repository *KVResetTokenRepository) Set(context context.Context, token string, accountID string, ttl time.Duration) error {
	if err := kv.SetJSON(context, repository.store, resetTokenKey(token), resetTokenRecord{AccountID: accountID}, ttl); err != nil {
		return fmt.Errorf("kv_reset_token_set_failed: %w", err)
	}
	return nil
}

/*
Take retrieves and deletes the token in one step.

Description: Returns apperr.NotFound if the token is absent, expired or
already used.
*/
func (repository *KVResetTokenRepository) Take(context context.Context, token string) (string, error) {
	record, found, err := kv.TakeJSON[resetTokenRecord](context, repository.store, resetTokenKey(token))
	if err != nil {
		return "", fmt.Errorf("kv_reset_token_take_failed: %w", err)
	}
	if !found || record.AccountID == "" {
		return "", apperr.NotFound("Reset token")
	}
	return record.AccountID, nil
}
