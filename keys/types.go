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

// Package keys holds the classical Ed25519 identity keypair used to sign
// session tokens and armor-frame key-ids; post-quantum KEM and signature
// schemes live in primitive/kem and primitive/sig instead.
package keys

import (
	"crypto"
	"errors"
)

// KeyPair is a classical asymmetric signing identity.
type KeyPair interface {
	PublicKey() crypto.PublicKey
	PrivateKey() crypto.PrivateKey
	Sign(message []byte) ([]byte, error)
	Verify(message, signature []byte) error
	ID() string
}

// Format names a serialization for key export/import.
type Format string

const (
	FormatJWK Format = "JWK"
)

// Exporter serializes a KeyPair to a Format.
type Exporter interface {
	Export(keyPair KeyPair, format Format) ([]byte, error)
	ExportPublic(keyPair KeyPair, format Format) ([]byte, error)
}

// Importer parses a KeyPair from a Format.
type Importer interface {
	Import(data []byte, format Format) (KeyPair, error)
	ImportPublic(data []byte, format Format) (crypto.PublicKey, error)
}

var (
	ErrInvalidSignature = errors.New("keys: invalid signature")
	ErrInvalidFormat    = errors.New("keys: invalid key format")
)
