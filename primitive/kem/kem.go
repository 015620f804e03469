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

// Package kem wraps CIRCL's post-quantum key encapsulation schemes behind
// the name-based scheme registry, so the armor codec can record an
// algorithm tag in the frame header and resolve it back to an
// implementation without a compile-time dependency on a specific
// parameter-set subpackage.
package kem

import (
	"encoding"
	"errors"
	"fmt"

	"github.com/cloudflare/circl/kem"
	"github.com/cloudflare/circl/kem/schemes"
)

// DefaultScheme is the algorithm name recorded in new armor frames.
const DefaultScheme = "ML-KEM-768"

var ErrUnknownScheme = errors.New("kem: unknown scheme name")

// Scheme resolves a registry name (e.g. "ML-KEM-768") to a CIRCL KEM.
func Scheme(name string) (kem.Scheme, error) {
	s := schemes.ByName(name)
	if s == nil {
		return nil, fmt.Errorf("%w: %s", ErrUnknownScheme, name)
	}
	return s, nil
}

// KeyPair is a generated or loaded KEM keypair plus the scheme name needed
// to reconstruct it from raw bytes.
type KeyPair struct {
	Scheme     string
	PublicKey  kem.PublicKey
	PrivateKey kem.PrivateKey
}

// Generate creates a new keypair under the named scheme.
func Generate(schemeName string) (*KeyPair, error) {
	s, err := Scheme(schemeName)
	if err != nil {
		return nil, err
	}
	pub, priv, err := s.GenerateKeyPair()
	if err != nil {
		return nil, fmt.Errorf("kem: generate %s keypair: %w", schemeName, err)
	}
	return &KeyPair{Scheme: schemeName, PublicKey: pub, PrivateKey: priv}, nil
}

// MarshalPrivate serializes the private key to raw bytes for keystore
// storage.
func (kp *KeyPair) MarshalPrivate() ([]byte, error) {
	return kp.PrivateKey.(encoding.BinaryMarshaler).MarshalBinary()
}

// MarshalPublic serializes the public key to raw bytes for the armor frame
// header.
func (kp *KeyPair) MarshalPublic() ([]byte, error) {
	return kp.PublicKey.(encoding.BinaryMarshaler).MarshalBinary()
}

// UnmarshalPrivate reconstructs a keypair from a scheme name and a
// previously marshaled private key.
func UnmarshalPrivate(schemeName string, raw []byte) (*KeyPair, error) {
	s, err := Scheme(schemeName)
	if err != nil {
		return nil, err
	}
	priv, err := s.UnmarshalBinaryPrivateKey(raw)
	if err != nil {
		return nil, fmt.Errorf("kem: unmarshal %s private key: %w", schemeName, err)
	}
	return &KeyPair{Scheme: schemeName, PublicKey: priv.Public(), PrivateKey: priv}, nil
}

// UnmarshalPublic reconstructs a public key from a scheme name and raw
// bytes, for encapsulating to a peer without their private key.
func UnmarshalPublic(schemeName string, raw []byte) (kem.PublicKey, error) {
	s, err := Scheme(schemeName)
	if err != nil {
		return nil, err
	}
	pub, err := s.UnmarshalBinaryPublicKey(raw)
	if err != nil {
		return nil, fmt.Errorf("kem: unmarshal %s public key: %w", schemeName, err)
	}
	return pub, nil
}

// Encapsulate derives a shared secret and its ciphertext against pub.
func Encapsulate(schemeName string, pub kem.PublicKey) (ciphertext, sharedSecret []byte, err error) {
	s, err := Scheme(schemeName)
	if err != nil {
		return nil, nil, err
	}
	ct, ss, err := s.Encapsulate(pub)
	if err != nil {
		return nil, nil, fmt.Errorf("kem: encapsulate under %s: %w", schemeName, err)
	}
	return ct, ss, nil
}

// Decapsulate recovers the shared secret from a ciphertext using priv.
func Decapsulate(schemeName string, priv kem.PrivateKey, ciphertext []byte) ([]byte, error) {
	s, err := Scheme(schemeName)
	if err != nil {
		return nil, err
	}
	ss, err := s.Decapsulate(priv, ciphertext)
	if err != nil {
		return nil, fmt.Errorf("kem: decapsulate under %s: %w", schemeName, err)
	}
	return ss, nil
}
