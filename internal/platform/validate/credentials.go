// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package validate

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// # Credential Rules

const (
	// MaxEmailLength is the longest address accepted, per RFC 5321 path limits.
	MaxEmailLength = 254

	// MinPasswordLength is counted in Unicode code points.
	MinPasswordLength = 8

	// MaxNameLength is counted in Unicode code points.
	MaxNameLength = 255
)

var emailRegex = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// Code identifies why a credential was rejected. It doubles as the page error code.
type Code string

const (
	CodeTooShort     Code = "too_short"
	CodeTooWeak      Code = "too_weak"
	CodeEmpty        Code = "empty"
	CodeTooLong      Code = "too_long"
	CodeInvalidChars Code = "invalid_chars"
)

// Message returns the user-facing sentence for the code.
func (code Code) Message() string {
	switch code {
	case CodeTooShort:
		return "Password must be at least 8 characters"
	case CodeTooWeak:
		return "Password must contain a letter and a digit"
	case CodeEmpty:
		return "This field is required"
	case CodeTooLong:
		return "Maximum 255 characters"
	case CodeInvalidChars:
		return "Contains characters that are not allowed"
	default:
		return "Invalid value"
	}
}

// Result is the outcome of a credential check. Error is empty when Valid.
type Result struct {
	Valid bool
	Error Code
}

func ok() Result { return Result{Valid: true} }

func fail(code Code) Result { return Result{Error: code} }

// IsValidEmail reports whether s, trimmed, looks like local@domain.tld and
// fits in [MaxEmailLength] bytes.
func IsValidEmail(s string) bool {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" || len(trimmed) > MaxEmailLength {
		return false
	}
	return emailRegex.MatchString(trimmed)
}

// ValidatePassword requires [MinPasswordLength] code points including at least
// one Unicode letter and one decimal digit.
func ValidatePassword(s string) Result {
	if utf8.RuneCountInString(s) < MinPasswordLength {
		return fail(CodeTooShort)
	}

	var hasLetter, hasDigit bool
	for _, r := range s {
		switch {
		case unicode.IsLetter(r):
			hasLetter = true
		case unicode.Is(unicode.Nd, r):
			hasDigit = true
		}
	}

	if !hasLetter || !hasDigit {
		return fail(CodeTooWeak)
	}
	return ok()
}

// ValidateName accepts a trimmed, non-empty name of at most [MaxNameLength]
// code points drawn from the letter, number, punctuation, separator and
// symbol classes. Control, format and combining-mark characters are rejected.
func ValidateName(s string) Result {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return fail(CodeEmpty)
	}
	if utf8.RuneCountInString(trimmed) > MaxNameLength {
		return fail(CodeTooLong)
	}

	for _, r := range trimmed {
		if !unicode.In(r, unicode.L, unicode.N, unicode.P, unicode.Z, unicode.S) {
			return fail(CodeInvalidChars)
		}
	}
	return ok()
}
