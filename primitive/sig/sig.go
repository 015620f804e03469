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

// Package sig wraps CIRCL's post-quantum signature schemes (ML-DSA,
// FALCON, SPHINCS+) behind the name-based scheme registry, mirroring
// primitive/kem's approach to avoid depending on exact parameter-set
// subpackage paths.
package sig

import (
	"encoding"
	"errors"
	"fmt"

	"github.com/cloudflare/circl/sign"
	"github.com/cloudflare/circl/sign/schemes"
)

// DefaultScheme is the algorithm used for newly generated vault signing
// identities.
const DefaultScheme = "ML-DSA-65"

var ErrUnknownScheme = errors.New("sig: unknown scheme name")

// Scheme resolves a registry name (e.g. "ML-DSA-65", "Falcon-512",
// "SLH-DSA-SHA2-128s") to a CIRCL signature scheme.
func Scheme(name string) (sign.Scheme, error) {
	s := schemes.ByName(name)
	if s == nil {
		return nil, fmt.Errorf("%w: %s", ErrUnknownScheme, name)
	}
	return s, nil
}

// KeyPair is a generated or loaded signature keypair.
type KeyPair struct {
	Scheme     string
	PublicKey  sign.PublicKey
	PrivateKey sign.PrivateKey
}

// Generate creates a new signing keypair under the named scheme.
func Generate(schemeName string) (*KeyPair, error) {
	s, err := Scheme(schemeName)
	if err != nil {
		return nil, err
	}
	pub, priv, err := s.GenerateKey()
	if err != nil {
		return nil, fmt.Errorf("sig: generate %s keypair: %w", schemeName, err)
	}
	return &KeyPair{Scheme: schemeName, PublicKey: pub, PrivateKey: priv}, nil
}

// MarshalPrivate serializes the private key for keystore storage.
func (kp *KeyPair) MarshalPrivate() ([]byte, error) {
	return kp.PrivateKey.(encoding.BinaryMarshaler).MarshalBinary()
}

// MarshalPublic serializes the public key for the armor frame header.
func (kp *KeyPair) MarshalPublic() ([]byte, error) {
	return kp.PublicKey.(encoding.BinaryMarshaler).MarshalBinary()
}

// UnmarshalPrivate reconstructs a keypair from raw bytes.
func UnmarshalPrivate(schemeName string, raw []byte) (*KeyPair, error) {
	s, err := Scheme(schemeName)
	if err != nil {
		return nil, err
	}
	priv, err := s.UnmarshalBinaryPrivateKey(raw)
	if err != nil {
		return nil, fmt.Errorf("sig: unmarshal %s private key: %w", schemeName, err)
	}
	return &KeyPair{Scheme: schemeName, PublicKey: priv.Public().(sign.PublicKey), PrivateKey: priv}, nil
}

// UnmarshalPublic reconstructs a public key from raw bytes.
func UnmarshalPublic(schemeName string, raw []byte) (sign.PublicKey, error) {
	s, err := Scheme(schemeName)
	if err != nil {
		return nil, err
	}
	pub, err := s.UnmarshalBinaryPublicKey(raw)
	if err != nil {
		return nil, fmt.Errorf("sig: unmarshal %s public key: %w", schemeName, err)
	}
	return pub, nil
}

// Sign produces a detached signature over message.
func Sign(schemeName string, priv sign.PrivateKey, message []byte) ([]byte, error) {
	s, err := Scheme(schemeName)
	if err != nil {
		return nil, err
	}
	return s.Sign(priv, message, nil), nil
}

// Verify checks a detached signature against message.
func Verify(schemeName string, pub sign.PublicKey, message, signature []byte) (bool, error) {
	s, err := Scheme(schemeName)
	if err != nil {
		return false, err
	}
	return s.Verify(pub, message, signature, nil), nil
}
