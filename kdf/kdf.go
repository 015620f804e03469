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

// Package kdf derives the vault's symmetric store key from a passphrase
// and salt using Argon2id, sized to feed the AEAD cascade directly.
package kdf

import (
	"crypto/rand"
	"errors"
	"fmt"

	"golang.org/x/crypto/argon2"

	"github.com/sage-x-project/vault/internal/metrics"
)

// SaltSize is the recommended random salt length in bytes.
const SaltSize = 16

// KeySize is the derived key length, sized for primitive/aead's cascade
// (two 32-byte subkeys).
const KeySize = 64

var ErrSaltTooShort = errors.New("kdf: salt shorter than 16 bytes")

// Params configures the Argon2id cost parameters. The zero value is
// invalid; use DefaultParams or a config-derived value.
type Params struct {
	MemoryCostKiB uint32
	TimeCost      uint32
	Parallelism   uint8
}

// DefaultParams match the OWASP-recommended Argon2id baseline: 64 MiB,
// three passes, two lanes.
var DefaultParams = Params{
	MemoryCostKiB: 64 * 1024,
	TimeCost:      3,
	Parallelism:   2,
}

// NewSalt returns a fresh random salt.
func NewSalt() ([]byte, error) {
	salt := make([]byte, SaltSize)
	if _, err := rand.Read(salt); err != nil {
		return nil, fmt.Errorf("kdf: read random salt: %w", err)
	}
	return salt, nil
}

// Derive stretches passphrase into a KeySize-byte key using Argon2id.
func Derive(passphrase string, salt []byte, params Params) ([]byte, error) {
	metrics.CryptoOperations.WithLabelValues("derive", "argon2id").Inc()
	if len(salt) < SaltSize {
		metrics.CryptoErrors.WithLabelValues("derive").Inc()
		return nil, ErrSaltTooShort
	}
	return argon2.IDKey([]byte(passphrase), salt, params.TimeCost, params.MemoryCostKiB, params.Parallelism, KeySize), nil
}
