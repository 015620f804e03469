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

package aead

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"fmt"

	"golang.org/x/crypto/chacha20poly1305"
)

// CipherSuite tags which single algorithm a Single instance wraps.
type CipherSuite int

const (
	SuiteAES256GCM CipherSuite = iota
	SuiteChaCha20Poly1305
)

func (s CipherSuite) String() string {
	switch s {
	case SuiteAES256GCM:
		return "aes-256-gcm"
	case SuiteChaCha20Poly1305:
		return "chacha20-poly1305"
	default:
		return "unknown"
	}
}

// SingleKeySize is the key length for any single-algorithm suite: half of
// the Cascade's combined KeySize.
const SingleKeySize = 32

// Single seals data under one AEAD cipher, for callers that don't need
// the Cascade's two-cipher defense in depth (e.g. per-session channel
// keys that already rotate per handshake).
type Single struct {
	suite CipherSuite
	aead  cipher.AEAD
}

// NewSingle builds a Single from a 32-byte key under suite.
func NewSingle(suite CipherSuite, key []byte) (*Single, error) {
	if len(key) != SingleKeySize {
		return nil, ErrKeySize
	}

	switch suite {
	case SuiteAES256GCM:
		block, err := aes.NewCipher(key)
		if err != nil {
			return nil, fmt.Errorf("aead: init AES: %w", err)
		}
		gcm, err := cipher.NewGCM(block)
		if err != nil {
			return nil, fmt.Errorf("aead: init AES-GCM: %w", err)
		}
		return &Single{suite: suite, aead: gcm}, nil
	case SuiteChaCha20Poly1305:
		a, err := chacha20poly1305.New(key)
		if err != nil {
			return nil, fmt.Errorf("aead: init ChaCha20-Poly1305: %w", err)
		}
		return &Single{suite: suite, aead: a}, nil
	default:
		return nil, fmt.Errorf("aead: unknown cipher suite %d", suite)
	}
}

// Suite reports which algorithm this instance wraps.
func (s *Single) Suite() CipherSuite {
	return s.suite
}

// Seal encrypts plaintext, authenticating additionalData, returning
// nonce||ciphertext.
func (s *Single) Seal(plaintext, additionalData []byte) ([]byte, error) {
	nonce := make([]byte, s.aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return nil, err
	}
	ciphertext := s.aead.Seal(nil, nonce, plaintext, additionalData)

	out := make([]byte, 0, len(nonce)+len(ciphertext))
	out = append(out, nonce...)
	out = append(out, ciphertext...)
	return out, nil
}

// Open reverses Seal.
func (s *Single) Open(sealed, additionalData []byte) ([]byte, error) {
	nonceLen := s.aead.NonceSize()
	if len(sealed) < nonceLen {
		return nil, ErrCiphertext
	}
	nonce := sealed[:nonceLen]
	ciphertext := sealed[nonceLen:]

	plaintext, err := s.aead.Open(nil, nonce, ciphertext, additionalData)
	if err != nil {
		return nil, ErrAuthentication
	}
	return plaintext, nil
}
