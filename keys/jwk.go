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
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
)

// JWK represents the subset of RFC 7517 needed for an OKP Ed25519 key.
type JWK struct {
	Kty string `json:"kty"`
	Crv string `json:"crv,omitempty"`
	X   string `json:"x,omitempty"`
	D   string `json:"d,omitempty"`
	Kid string `json:"kid,omitempty"`
	Use string `json:"use,omitempty"`
	Alg string `json:"alg,omitempty"`
}

type jwkExporter struct{}

// NewJWKExporter creates an Exporter that serializes to JWK.
func NewJWKExporter() Exporter { return &jwkExporter{} }

func (e *jwkExporter) Export(keyPair KeyPair, format Format) ([]byte, error) {
	if format != FormatJWK {
		return nil, ErrInvalidFormat
	}
	privateKey, ok := keyPair.PrivateKey().(ed25519.PrivateKey)
	if !ok {
		return nil, errors.New("keys: not an Ed25519 private key")
	}
	publicKey := privateKey.Public().(ed25519.PublicKey)
	jwk := &JWK{
		Kid: keyPair.ID(),
		Use: "sig",
		Kty: "OKP",
		Crv: "Ed25519",
		Alg: "EdDSA",
		X:   base64.RawURLEncoding.EncodeToString(publicKey),
		D:   base64.RawURLEncoding.EncodeToString(privateKey.Seed()),
	}
	return json.Marshal(jwk)
}

func (e *jwkExporter) ExportPublic(keyPair KeyPair, format Format) ([]byte, error) {
	if format != FormatJWK {
		return nil, ErrInvalidFormat
	}
	publicKey, ok := keyPair.PublicKey().(ed25519.PublicKey)
	if !ok {
		return nil, errors.New("keys: not an Ed25519 public key")
	}
	jwk := &JWK{
		Kid: keyPair.ID(),
		Use: "sig",
		Kty: "OKP",
		Crv: "Ed25519",
		Alg: "EdDSA",
		X:   base64.RawURLEncoding.EncodeToString(publicKey),
	}
	return json.Marshal(jwk)
}

type jwkImporter struct{}

// NewJWKImporter creates an Importer that parses JWK.
func NewJWKImporter() Importer { return &jwkImporter{} }

func (i *jwkImporter) Import(data []byte, format Format) (KeyPair, error) {
	if format != FormatJWK {
		return nil, ErrInvalidFormat
	}
	var jwk JWK
	if err := json.Unmarshal(data, &jwk); err != nil {
		return nil, fmt.Errorf("keys: unmarshal JWK: %w", err)
	}
	if jwk.Kty != "OKP" || jwk.Crv != "Ed25519" {
		return nil, fmt.Errorf("keys: unsupported JWK type %s/%s", jwk.Kty, jwk.Crv)
	}
	if jwk.D == "" {
		return nil, errors.New("keys: missing private key component")
	}
	seed, err := base64.RawURLEncoding.DecodeString(jwk.D)
	if err != nil {
		return nil, fmt.Errorf("keys: decode private key: %w", err)
	}
	return NewEd25519KeyPair(ed25519.NewKeyFromSeed(seed), jwk.Kid)
}

func (i *jwkImporter) ImportPublic(data []byte, format Format) (crypto.PublicKey, error) {
	if format != FormatJWK {
		return nil, ErrInvalidFormat
	}
	var jwk JWK
	if err := json.Unmarshal(data, &jwk); err != nil {
		return nil, fmt.Errorf("keys: unmarshal JWK: %w", err)
	}
	if jwk.Kty != "OKP" || jwk.Crv != "Ed25519" {
		return nil, fmt.Errorf("keys: unsupported JWK type %s/%s", jwk.Kty, jwk.Crv)
	}
	raw, err := base64.RawURLEncoding.DecodeString(jwk.X)
	if err != nil {
		return nil, fmt.Errorf("keys: decode public key: %w", err)
	}
	return ed25519.PublicKey(raw), nil
}

// ComputeKeyID derives an RFC 7638-style thumbprint key-id from the JWK's
// public members.
func (jwk JWK) ComputeKeyID() (string, error) {
	m := map[string]string{"kty": jwk.Kty, "crv": jwk.Crv, "x": jwk.X}
	keysList := make([]string, 0, len(m))
	for k := range m {
		keysList = append(keysList, k)
	}
	sort.Strings(keysList)

	buf := []byte{'{'}
	for i, k := range keysList {
		if i > 0 {
			buf = append(buf, ',')
		}
		valueJSON, err := json.Marshal(m[k])
		if err != nil {
			return "", fmt.Errorf("keys: marshal thumbprint value: %w", err)
		}
		buf = append(buf, fmt.Sprintf("%q:%s", k, valueJSON)...)
	}
	buf = append(buf, '}')

	sum := sha256.Sum256(buf)
	return base64.RawURLEncoding.EncodeToString(sum[:]), nil
}
