// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package apperr_test

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/crewdesk/internal/platform/apperr"
)

func TestAs_TraversesWrapping(t *testing.T) {
	err := fmt.Errorf("role_grant_failed: %w", apperr.Conflict("role already granted"))

	ae := apperr.As(err)
	require.NotNil(t, ae)
	assert.Equal(t, http.StatusConflict, ae.HTTPStatus)
	assert.True(t, apperr.HasCode(err, "CONFLICT"))
	assert.False(t, apperr.HasCode(errors.New("plain"), "CONFLICT"))
}

func TestInternal_HidesCause(t *testing.T) {
	cause := errors.New("pq: relation does not exist")
	ae := apperr.Internal(cause)

	assert.NotContains(t, ae.Error(), "relation")
	assert.ErrorIs(t, ae, cause)
}

func TestWithDetails_DoesNotMutate(t *testing.T) {
	base := apperr.ValidationError("invalid input")
	extended := base.WithDetails(apperr.FieldError{Field: "email", Message: "invalid"})

	assert.Empty(t, base.Details)
	assert.Len(t, extended.Details, 1)
}
