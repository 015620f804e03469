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

// Package aead implements the store's symmetric sealing primitive: a
// 64-byte key split into two independent 32-byte halves, each driving an
// AEAD cipher in cascade (AES-256-GCM, then ChaCha20-Poly1305), so that
// breaking either cipher in isolation does not expose the plaintext.
package aead

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"errors"
	"fmt"

	"golang.org/x/crypto/chacha20poly1305"
)

// KeySize is the combined key length: two independent 32-byte AEAD keys.
const KeySize = 64

var (
	ErrKeySize       = errors.New("aead: key must be 64 bytes")
	ErrCiphertext    = errors.New("aead: ciphertext too short")
	ErrAuthentication = errors.New("aead: authentication failed")
)

// Cascade seals data under both inner ciphers in sequence.
type Cascade struct {
	outer cipher.AEAD // ChaCha20-Poly1305, applied last on seal
	inner cipher.AEAD // AES-256-GCM, applied first on seal
}

// New builds a Cascade from a 64-byte key: bytes [0:32) key AES-GCM,
// bytes [32:64) key ChaCha20-Poly1305.
func New(key []byte) (*Cascade, error) {
	if len(key) != KeySize {
		return nil, ErrKeySize
	}

	block, err := aes.NewCipher(key[:32])
	if err != nil {
		return nil, fmt.Errorf("aead: init AES: %w", err)
	}
	inner, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("aead: init AES-GCM: %w", err)
	}

	outer, err := chacha20poly1305.New(key[32:])
	if err != nil {
		return nil, fmt.Errorf("aead: init ChaCha20-Poly1305: %w", err)
	}

	return &Cascade{outer: outer, inner: inner}, nil
}

// Seal encrypts plaintext, authenticating additionalData, returning
// nonce||ciphertext for each layer concatenated: innerNonce || chacha(aesgcm(plaintext)).
func (c *Cascade) Seal(plaintext, additionalData []byte) ([]byte, error) {
	innerNonce := make([]byte, c.inner.NonceSize())
	if _, err := rand.Read(innerNonce); err != nil {
		return nil, err
	}
	innerCiphertext := c.inner.Seal(nil, innerNonce, plaintext, additionalData)

	outerNonce := make([]byte, c.outer.NonceSize())
	if _, err := rand.Read(outerNonce); err != nil {
		return nil, err
	}
	outerCiphertext := c.outer.Seal(nil, outerNonce, innerCiphertext, additionalData)

	out := make([]byte, 0, len(innerNonce)+len(outerNonce)+len(outerCiphertext))
	out = append(out, innerNonce...)
	out = append(out, outerNonce...)
	out = append(out, outerCiphertext...)
	return out, nil
}

// Open reverses Seal, verifying both authentication tags.
func (c *Cascade) Open(sealed, additionalData []byte) ([]byte, error) {
	innerNonceLen := c.inner.NonceSize()
	outerNonceLen := c.outer.NonceSize()
	if len(sealed) < innerNonceLen+outerNonceLen {
		return nil, ErrCiphertext
	}

	innerNonce := sealed[:innerNonceLen]
	outerNonce := sealed[innerNonceLen : innerNonceLen+outerNonceLen]
	outerCiphertext := sealed[innerNonceLen+outerNonceLen:]

	innerCiphertext, err := c.outer.Open(nil, outerNonce, outerCiphertext, additionalData)
	if err != nil {
		return nil, ErrAuthentication
	}

	plaintext, err := c.inner.Open(nil, innerNonce, innerCiphertext, additionalData)
	if err != nil {
		return nil, ErrAuthentication
	}
	return plaintext, nil
}
