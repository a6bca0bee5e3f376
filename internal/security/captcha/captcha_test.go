// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package captcha_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/taibuivan/crewdesk/internal/platform/config"
	"github.com/taibuivan/crewdesk/internal/security/captcha"
)

// siteverify fakes the Turnstile endpoint, accepting only the token "good".
func siteverify(t *testing.T) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "secret", body["secret"])

		w.Header().Set("Content-Type", "application/json")
		if body["response"] == "good" {
			_, _ = w.Write([]byte(`{"success":true}`))
			return
		}
		_, _ = w.Write([]byte(`{"success":false,"error-codes":["invalid-input-response"]}`))
	}))
	t.Cleanup(server.Close)
	return server
}

func TestVerify_Disabled(t *testing.T) {
	v := captcha.New(config.CaptchaConfig{})

	assert.False(t, v.Enabled())
	assert.NoError(t, v.Verify(context.Background(), "", "1.2.3.4"))
}

/*
TestVerify_Outcomes covers pass, reject and missing token against a fake endpoint.
*/
func TestVerify_Outcomes(t *testing.T) {
	server := siteverify(t)
	v := captcha.New(config.CaptchaConfig{SecretKey: "secret", Mandatory: true}, captcha.WithEndpoint(server.URL))

	tests := []struct {
		name    string
		token   string
		wantErr error
	}{
		{"pass", "good", nil},
		{"reject", "bad", captcha.ErrRejected},
		{"missing", "  ", captcha.ErrRejected},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Verify(context.Background(), tt.token, "1.2.3.4")
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

/*
TestVerify_Unavailable checks fail-closed versus fail-open on transport errors.
*/
func TestVerify_Unavailable(t *testing.T) {
	down := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer down.Close()

	mandatory := captcha.New(config.CaptchaConfig{SecretKey: "secret", Mandatory: true}, captcha.WithEndpoint(down.URL))
	assert.ErrorIs(t, mandatory.Verify(context.Background(), "good", ""), captcha.ErrUnavailable)

	optional := captcha.New(config.CaptchaConfig{SecretKey: "secret", Mandatory: false}, captcha.WithEndpoint(down.URL))
	assert.NoError(t, optional.Verify(context.Background(), "good", ""))
}
