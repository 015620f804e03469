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

// Package hash provides the content-addressing and integrity-check digest
// used to fingerprint armor frames and record blobs: hash(data,
// optional_salt, iteration_count) over a choice of SHA-256, SHA-3, or
// BLAKE2b, with the iteration count quantized to Fast/Default/Strong
// rather than taking an arbitrary round count.
package hash

import (
	"crypto/sha256"
	"crypto/subtle"
	"fmt"

	"golang.org/x/crypto/blake2b"
	"golang.org/x/crypto/sha3"
)

// Algorithm selects the underlying digest function.
type Algorithm int

const (
	SHA256 Algorithm = iota
	SHA3_256
	BLAKE2b_256
)

func (a Algorithm) String() string {
	switch a {
	case SHA256:
		return "sha256"
	case SHA3_256:
		return "sha3-256"
	case BLAKE2b_256:
		return "blake2b-256"
	default:
		return "unknown"
	}
}

// Quantization buckets an iteration count into one of three tiers rather
// than taking an arbitrary round count, so callers can't accidentally
// choose a weak or absurdly slow value.
type Quantization int

const (
	Fast Quantization = iota
	Default
	Strong
)

// rounds returns the number of times the digest is re-hashed over itself,
// target orders of magnitude 10^2, 10^4, 10^5 respectively.
func (q Quantization) rounds() int {
	switch q {
	case Fast:
		return 100
	case Strong:
		return 100_000
	default:
		return 10_000
	}
}

// Size is the digest length in bytes for every supported algorithm.
const Size = 32

func sum(algo Algorithm, data []byte) ([Size]byte, error) {
	switch algo {
	case SHA256:
		return sha256.Sum256(data), nil
	case SHA3_256:
		return sha3.Sum256(data), nil
	case BLAKE2b_256:
		return blake2b.Sum256(data), nil
	default:
		return [Size]byte{}, fmt.Errorf("hash: unknown algorithm %d", algo)
	}
}

// Digest computes the iterated, optionally salted digest of data: salt is
// prepended to data for the first round, then the digest is re-hashed
// over itself quant.rounds()-1 further times. Same (algorithm, data,
// salt, quant) always yields the same digest.
func Digest(algo Algorithm, data, salt []byte, quant Quantization) ([]byte, error) {
	input := data
	if len(salt) > 0 {
		input = make([]byte, 0, len(salt)+len(data))
		input = append(input, salt...)
		input = append(input, data...)
	}

	digest, err := sum(algo, input)
	if err != nil {
		return nil, err
	}
	for i := 1; i < quant.rounds(); i++ {
		digest, err = sum(algo, digest[:])
		if err != nil {
			return nil, err
		}
	}
	return digest[:], nil
}

// Sum256 returns the plain, single-round SHA-256 digest of data. Kept as
// a cheap convenience for callers that don't need salting or iteration,
// e.g. computing a content-addressed id.
func Sum256(data []byte) [Size]byte {
	return sha256.Sum256(data)
}

// Equal performs a constant-time comparison of two digests or derived
// keys, guarding against timing side channels on passphrase checks.
func Equal(a, b []byte) bool {
	return subtle.ConstantTimeCompare(a, b) == 1
}
