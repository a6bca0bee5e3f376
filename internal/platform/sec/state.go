// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package sec

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidState is returned for any state token that fails verification.
var ErrInvalidState = errors.New("sec: invalid oauth state")

// StateClaims is the payload of the signed OAuth state parameter.
type StateClaims struct {
	jwt.RegisteredClaims

	// Abbreviated to keep the authorize URL short.
	Nonce    string `json:"nce"`
	Callback string `json:"cbu"`
}

// StateSigner issues and verifies HS256 state tokens for the OAuth round trip.
type StateSigner struct {
	secret []byte
	issuer string
	now    func() time.Time
}

// NewStateSigner creates a signer keyed by secret.
func NewStateSigner(secret, issuer string) *StateSigner {
	return &StateSigner{secret: []byte(secret), issuer: issuer, now: time.Now}
}

// WithClock replaces the time source. Used by tests.
func (signer *StateSigner) WithClock(now func() time.Time) *StateSigner {
	signer.now = now
	return signer
}

// Sign creates a state token carrying nonce and callback, valid for timeToLive.
func (signer *StateSigner) Sign(nonce, callback string, timeToLive time.Duration) (string, error) {
	currentTime := signer.now()
	claims := StateClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    signer.issuer,
			IssuedAt:  jwt.NewNumericDate(currentTime),
			ExpiresAt: jwt.NewNumericDate(currentTime.Add(timeToLive)),
		},
		Nonce:    nonce,
		Callback: callback,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signedToken, err := token.SignedString(signer.secret)
	if err != nil {
		return "", fmt.Errorf("sec_sign_state_failed: %w", err)
	}
	return signedToken, nil
}

// Verify checks signature, issuer, expiry and that the embedded nonce equals nonce.
func (signer *StateSigner) Verify(tokenString, nonce string) (*StateClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &StateClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("sec: unexpected signing method: %v", token.Header["alg"])
		}
		return signer.secret, nil
	},
		jwt.WithIssuer(signer.issuer),
		jwt.WithTimeFunc(signer.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidState, err)
	}

	claims, ok := token.Claims.(*StateClaims)
	if !ok || !token.Valid {
		return nil, ErrInvalidState
	}

	if nonce == "" || claims.Nonce != nonce {
		return nil, ErrInvalidState
	}

	return claims, nil
}
