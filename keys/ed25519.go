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

package keys

import (
	"crypto"
	"crypto/ed25519"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
)

// ed25519KeyPair implements KeyPair for Ed25519 keys.
type ed25519KeyPair struct {
	privateKey ed25519.PrivateKey
	publicKey  ed25519.PublicKey
	id         string
}

// GenerateEd25519KeyPair generates a new Ed25519 identity keypair.
func GenerateEd25519KeyPair() (KeyPair, error) {
	publicKey, privateKey, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, err
	}
	return NewEd25519KeyPair(privateKey, "")
}

// NewEd25519KeyPair wraps an existing private key, deriving an id from the
// public key hash when none is given.
func NewEd25519KeyPair(privateKey ed25519.PrivateKey, id string) (KeyPair, error) {
	publicKey := privateKey.Public().(ed25519.PublicKey)
	if id == "" {
		hash := sha256.Sum256(publicKey)
		id = hex.EncodeToString(hash[:8])
	}
	return &ed25519KeyPair{privateKey: privateKey, publicKey: publicKey, id: id}, nil
}

func (kp *ed25519KeyPair) PublicKey() crypto.PublicKey   { return kp.publicKey }
func (kp *ed25519KeyPair) PrivateKey() crypto.PrivateKey { return kp.privateKey }
func (kp *ed25519KeyPair) ID() string                    { return kp.id }

func (kp *ed25519KeyPair) Sign(message []byte) ([]byte, error) {
	return ed25519.Sign(kp.privateKey, message), nil
}

func (kp *ed25519KeyPair) Verify(message, signature []byte) error {
	if !ed25519.Verify(kp.publicKey, message, signature) {
		return ErrInvalidSignature
	}
	return nil
}
