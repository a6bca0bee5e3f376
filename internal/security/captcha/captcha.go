// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package captcha verifies Cloudflare Turnstile tokens submitted with the
credential forms.

Verification is skipped entirely when no secret key is configured. When the
verification service cannot be reached, a mandatory verifier refuses the
request and an optional one lets it through.
*/
package captcha

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/taibuivan/crewdesk/internal/platform/config"
	"github.com/taibuivan/crewdesk/internal/platform/constants"
	"github.com/taibuivan/crewdesk/internal/platform/ctxutil"
	"github.com/taibuivan/crewdesk/internal/platform/metrics"
)

// DefaultEndpoint is the Turnstile siteverify URL.
const DefaultEndpoint = "https://challenges.cloudflare.com/turnstile/v0/siteverify"

// FormField is the form field the Turnstile widget fills in.
const FormField = "cf-turnstile-response"

var (
	// ErrRejected means the token was missing or not accepted.
	ErrRejected = errors.New("captcha: verification failed")

	// ErrUnavailable means the verification service could not be reached.
	ErrUnavailable = errors.New("captcha: verification unavailable")
)

// Verifier checks Turnstile tokens against the siteverify endpoint.
type Verifier struct {
	secret     string
	siteKey    string
	mandatory  bool
	endpoint   string
	httpClient *http.Client
	metrics    *metrics.Metrics
}

// Option configures the Verifier.
type Option func(*Verifier)

// WithHTTPClient sets a custom HTTP client for verification requests.
func WithHTTPClient(c *http.Client) Option {
	return func(v *Verifier) { v.httpClient = c }
}

// WithEndpoint overrides the siteverify URL.
func WithEndpoint(endpoint string) Option {
	return func(v *Verifier) { v.endpoint = endpoint }
}

// WithMetrics records rejections into m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(v *Verifier) { v.metrics = m }
}

// New creates a Verifier from the CAPTCHA settings.
func New(cfg config.CaptchaConfig, opts ...Option) *Verifier {
	v := &Verifier{
		secret:     cfg.SecretKey,
		siteKey:    cfg.SiteKey,
		mandatory:  cfg.Mandatory,
		endpoint:   DefaultEndpoint,
		httpClient: &http.Client{Timeout: constants.CaptchaTimeout},
	}
	for _, o := range opts {
		o(v)
	}
	return v
}

// Enabled reports whether tokens are checked at all.
func (v *Verifier) Enabled() bool {
	return v.secret != ""
}

// SiteKey is the public key rendered into the widget.
func (v *Verifier) SiteKey() string {
	return v.siteKey
}

type verifyRequest struct {
	Secret   string `json:"secret"`
	Response string `json:"response"`
	RemoteIP string `json:"remoteip,omitempty"`
}

type verifyResponse struct {
	Success    bool     `json:"success"`
	ErrorCodes []string `json:"error-codes"`
}

/*
Verify checks token for the client at remoteIP.

Returns nil when verification is disabled or passes, [ErrRejected] for a
missing or refused token, and [ErrUnavailable] when the service cannot be
reached and the verifier is mandatory.
*/
func (v *Verifier) Verify(ctx context.Context, token, remoteIP string) error {
	if !v.Enabled() {
		return nil
	}

	logger := ctxutil.GetLogger(ctx)

	if strings.TrimSpace(token) == "" {
		v.metrics.CaptchaRejected("missing")
		return ErrRejected
	}

	if remoteIP == constants.UnknownClientIP {
		remoteIP = ""
	}

	result, err := v.call(ctx, verifyRequest{Secret: v.secret, Response: token, RemoteIP: remoteIP})
	if err != nil {
		logger.WarnContext(ctx, "captcha_verify_unavailable",
			slog.Bool("mandatory", v.mandatory),
			slog.Any("error", err),
		)
		if v.mandatory {
			v.metrics.CaptchaRejected("unavailable")
			return ErrUnavailable
		}
		return nil
	}

	if !result.Success {
		v.metrics.CaptchaRejected("invalid")
		logger.InfoContext(ctx, "captcha_rejected", slog.Any("error_codes", result.ErrorCodes))
		return ErrRejected
	}
	return nil
}

func (v *Verifier) call(ctx context.Context, payload verifyRequest) (*verifyResponse, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("captcha_encode_failed: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, v.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("captcha_request_failed: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := v.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("captcha_request_failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("captcha_request_failed: status %d", resp.StatusCode)
	}

	var result verifyResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 64<<10)).Decode(&result); err != nil {
		return nil, fmt.Errorf("captcha_decode_failed: %w", err)
	}
	return &result, nil
}
