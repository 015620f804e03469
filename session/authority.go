// Copyright (C) 2025 sage-x-project
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as
// published by the Free Software Foundation, either version 3 of the
// License, or (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with this program. If not, see <https://www.gnu.org/licenses/>.

// SPDX-License-Identifier: LGPL-3.0-or-later

package session

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/hkdf"

	"github.com/sage-x-project/vault/internal/metrics"
	"github.com/sage-x-project/vault/vaulterr"
)

// Claims is the JWT payload minted for an unlocked vault.
type Claims struct {
	jwt.RegisteredClaims
	VID string `json:"vid"`
	SID string `json:"sid"`
}

// Authority mints and verifies session-authority tokens: a VID-derived
// HMAC secret signs JWTs carrying {vid, sub, iat, exp, sid}, and a
// revocation set plus the package's NonceCache guard against reuse of a
// revoked or replayed token.
type Authority struct {
	mu       sync.RWMutex
	secret   []byte
	ttl      time.Duration
	revoked  map[string]struct{}
	nonces   *NonceCache
	sessions map[string]time.Time // sid -> expiry, for revoke_all accounting
}

// NewAuthority derives the signing secret from vid via HKDF-SHA256, the
// same construction session.go already uses to derive per-session keys
// from a shared secret.
func NewAuthority(vid string, ttl time.Duration) (*Authority, error) {
	secret, err := deriveSigningSecret(vid)
	if err != nil {
		return nil, err
	}
	return &Authority{
		secret:   secret,
		ttl:      ttl,
		revoked:  make(map[string]struct{}),
		nonces:   NewNonceCache(ttl),
		sessions: make(map[string]time.Time),
	}, nil
}

func deriveSigningSecret(vid string) ([]byte, error) {
	h := hkdf.New(sha256.New, []byte(vid), nil, []byte("vault-session-authority"))
	secret := make([]byte, 32)
	if _, err := io.ReadFull(h, secret); err != nil {
		return nil, fmt.Errorf("session: derive signing secret: %w", err)
	}
	return secret, nil
}

func newSID() (string, error) {
	raw := make([]byte, 16)
	if _, err := rand.Read(raw); err != nil {
		return "", fmt.Errorf("session: generate session id: %w", err)
	}
	return hex.EncodeToString(raw), nil
}

// Mint issues a new signed token for subject sub under this authority's VID.
func (a *Authority) Mint(vid, sub string) (token string, sid string, err error) {
	sid, err = newSID()
	if err != nil {
		metrics.SessionsCreated.WithLabelValues("failure").Inc()
		return "", "", err
	}
	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   sub,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(a.ttl)),
		},
		VID: vid,
		SID: sid,
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
	if err != nil {
		metrics.SessionsCreated.WithLabelValues("failure").Inc()
		return "", "", fmt.Errorf("session: sign token: %w", err)
	}

	a.mu.Lock()
	a.sessions[sid] = claims.ExpiresAt.Time
	a.mu.Unlock()

	metrics.SessionsCreated.WithLabelValues("success").Inc()
	metrics.SessionsActive.Inc()

	return signed, sid, nil
}

// Verify validates signature, expiry, and revocation status, returning the
// parsed claims on success.
func (a *Authority) Verify(token string) (*Claims, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		return a.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, vaulterr.Wrap(vaulterr.CodeSessionExpired, "session token expired", err)
		}
		return nil, vaulterr.Wrap(vaulterr.CodeUnauthenticated, "invalid session token", err)
	}
	if !parsed.Valid {
		return nil, vaulterr.New(vaulterr.CodeUnauthenticated, "invalid session token")
	}

	a.mu.RLock()
	_, isRevoked := a.revoked[claims.SID]
	a.mu.RUnlock()
	if isRevoked {
		return nil, vaulterr.New(vaulterr.CodeSessionExpired, "session token has been revoked")
	}

	return claims, nil
}

// Revoke invalidates a single session id.
func (a *Authority) Revoke(sid string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if _, active := a.sessions[sid]; active {
		metrics.SessionsActive.Dec()
	}
	a.revoked[sid] = struct{}{}
	delete(a.sessions, sid)
}

// RevokeAll invalidates every session minted by this authority, e.g. on
// emergency lockdown or passphrase change.
func (a *Authority) RevokeAll() {
	a.mu.Lock()
	defer a.mu.Unlock()
	for sid := range a.sessions {
		a.revoked[sid] = struct{}{}
	}
	metrics.SessionsActive.Sub(float64(len(a.sessions)))
	a.sessions = make(map[string]time.Time)
}

// Close releases the background nonce-cache GC goroutine.
func (a *Authority) Close() {
	a.nonces.Close()
}
