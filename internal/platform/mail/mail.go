// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package mail delivers plain-text transactional email over SMTP.

Without an SMTP host [New] returns a sender that reports itself disabled, so
callers can fall back to another channel (e.g. logging a reset link in
development).
*/
package mail

import (
	"bytes"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"log/slog"
	"mime"
	"net"
	"net/smtp"
	"strconv"
	"strings"
	"time"

	"github.com/taibuivan/crewdesk/internal/platform/config"
)

// Delivery policy.
const (
	maxAttempts = 3
	baseBackoff = 1 * time.Second
)

// ErrDisabled is returned by a sender without a transport.
var ErrDisabled = errors.New("mail: no SMTP transport configured")

// Message is a single plain-text email.
type Message struct {
	To      string
	Subject string
	Body    string
}

// Sender delivers messages.
type Sender interface {
	Send(ctx context.Context, msg Message) error
	Enabled() bool
}

// Transport performs one delivery attempt of a fully rendered message.
type Transport func(ctx context.Context, from, to string, raw []byte) error

// SMTP is a [Sender] with bounded exponential retries.
type SMTP struct {
	cfg       config.SMTPConfig
	transport Transport
	backoff   time.Duration
	logger    *slog.Logger
}

// Option configures the SMTP sender.
type Option func(*SMTP)

// WithTransport replaces the network transport. Used by tests.
func WithTransport(t Transport) Option {
	return func(s *SMTP) { s.transport = t }
}

// WithBackoff sets the first retry delay; each retry doubles it.
func WithBackoff(d time.Duration) Option {
	return func(s *SMTP) { s.backoff = d }
}

type disabled struct{}

func (disabled) Send(context.Context, Message) error { return ErrDisabled }
func (disabled) Enabled() bool                       { return false }

// New returns an SMTP sender, or a disabled one when host or sender address are missing.
func New(cfg config.SMTPConfig, logger *slog.Logger, opts ...Option) Sender {
	cfg.Host = strings.TrimSpace(cfg.Host)
	cfg.User = strings.TrimSpace(cfg.User)
	cfg.From = strings.TrimSpace(cfg.From)
	cfg.Security = strings.ToLower(strings.TrimSpace(cfg.Security))
	if cfg.Security == "" {
		cfg.Security = "starttls"
	}

	if cfg.Host == "" || cfg.From == "" {
		logger.Info("mail_disabled", slog.String("reason", "SMTP host or from address missing"))
		return disabled{}
	}

	sender := &SMTP{cfg: cfg, backoff: baseBackoff, logger: logger}
	sender.transport = sender.deliver
	for _, o := range opts {
		o(sender)
	}

	logger.Info("mail_enabled",
		slog.String("host", cfg.Host),
		slog.Int("port", cfg.Port),
		slog.String("security", cfg.Security),
		slog.String("user", maskForLog(cfg.User)),
	)
	return sender
}

// Enabled implements [Sender].
func (s *SMTP) Enabled() bool { return true }

// Send implements [Sender], retrying failed attempts with exponential backoff.
func (s *SMTP) Send(ctx context.Context, msg Message) error {
	raw := render(s.cfg.From, msg)

	var lastErr error
	delay := s.backoff
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		lastErr = s.transport(ctx, s.cfg.From, msg.To, raw)
		if lastErr == nil {
			return nil
		}

		s.logger.WarnContext(ctx, "mail_send_attempt_failed",
			slog.Int("attempt", attempt),
			slog.String("to", maskForLog(msg.To)),
			slog.Any("error", lastErr),
		)

		if attempt == maxAttempts {
			break
		}

		select {
		case <-ctx.Done():
			return fmt.Errorf("mail_send_failed: %w", ctx.Err())
		case <-time.After(delay):
		}
		delay *= 2
	}

	return fmt.Errorf("mail_send_failed: %w", lastErr)
}

// # SMTP Delivery

func (s *SMTP) addr() string {
	return net.JoinHostPort(s.cfg.Host, strconv.Itoa(s.cfg.Port))
}

func (s *SMTP) deliver(ctx context.Context, from, to string, raw []byte) error {
	client, err := s.dial(ctx)
	if err != nil {
		return err
	}
	defer client.Close()

	if s.cfg.Security == "starttls" {
		if ok, _ := client.Extension("STARTTLS"); ok {
			if err := client.StartTLS(&tls.Config{ServerName: s.cfg.Host}); err != nil {
				return err
			}
		}
	}

	if s.cfg.User != "" && s.cfg.Password != "" {
		if err := client.Auth(smtp.PlainAuth("", s.cfg.User, s.cfg.Password, s.cfg.Host)); err != nil {
			return err
		}
	}

	if err := client.Mail(from); err != nil {
		return err
	}
	if err := client.Rcpt(to); err != nil {
		return err
	}

	writer, err := client.Data()
	if err != nil {
		return err
	}
	if _, err := writer.Write(raw); err != nil {
		_ = writer.Close()
		return err
	}
	if err := writer.Close(); err != nil {
		return err
	}
	return client.Quit()
}

func (s *SMTP) dial(ctx context.Context) (*smtp.Client, error) {
	dialer := &net.Dialer{Timeout: 10 * time.Second}

	var (
		conn net.Conn
		err  error
	)
	switch s.cfg.Security {
	case "ssl", "smtps":
		tlsDialer := &tls.Dialer{NetDialer: dialer, Config: &tls.Config{ServerName: s.cfg.Host}}
		conn, err = tlsDialer.DialContext(ctx, "tcp", s.addr())
	default:
		conn, err = dialer.DialContext(ctx, "tcp", s.addr())
	}
	if err != nil {
		return nil, err
	}

	client, err := smtp.NewClient(conn, s.cfg.Host)
	if err != nil {
		_ = conn.Close()
		return nil, err
	}
	return client, nil
}

// # Helpers

func render(from string, msg Message) []byte {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "From: %s\r\n", from)
	fmt.Fprintf(&buf, "To: %s\r\n", msg.To)
	fmt.Fprintf(&buf, "Subject: %s\r\n", mime.QEncoding.Encode("utf-8", msg.Subject))
	buf.WriteString("MIME-Version: 1.0\r\n")
	buf.WriteString("Content-Type: text/plain; charset=utf-8\r\n")
	buf.WriteString("\r\n")
	buf.WriteString(msg.Body)
	buf.WriteString("\r\n")
	return buf.Bytes()
}

func maskForLog(s string) string {
	if s == "" {
		return "(none)"
	}
	if len(s) <= 2 {
		return "***"
	}
	return s[:1] + "***" + s[len(s)-1:]
}
