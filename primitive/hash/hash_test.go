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

package hash

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSum256Deterministic(t *testing.T) {
	a := Sum256([]byte("vault record bytes"))
	b := Sum256([]byte("vault record bytes"))
	assert.Equal(t, a, b)
}

func TestSum256DiffersOnInput(t *testing.T) {
	a := Sum256([]byte("vault record bytes"))
	b := Sum256([]byte("vault record Bytes"))
	assert.NotEqual(t, a, b)
}

func TestEqual(t *testing.T) {
	a := Sum256([]byte("same"))
	b := Sum256([]byte("same"))
	c := Sum256([]byte("different"))

	assert.True(t, Equal(a[:], b[:]))
	assert.False(t, Equal(a[:], c[:]))
}

func TestDigestDeterministic(t *testing.T) {
	for _, algo := range []Algorithm{SHA256, SHA3_256, BLAKE2b_256} {
		a, err := Digest(algo, []byte("payload"), []byte("salt"), Default)
		require.NoError(t, err)
		b, err := Digest(algo, []byte("payload"), []byte("salt"), Default)
		require.NoError(t, err)
		assert.Equal(t, a, b, algo.String())
	}
}

func TestDigestDiffersOnSalt(t *testing.T) {
	a, err := Digest(SHA256, []byte("payload"), []byte("salt-a"), Default)
	require.NoError(t, err)
	b, err := Digest(SHA256, []byte("payload"), []byte("salt-b"), Default)
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestDigestDiffersAcrossAlgorithms(t *testing.T) {
	a, err := Digest(SHA256, []byte("payload"), nil, Fast)
	require.NoError(t, err)
	b, err := Digest(SHA3_256, []byte("payload"), nil, Fast)
	require.NoError(t, err)
	c, err := Digest(BLAKE2b_256, []byte("payload"), nil, Fast)
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
	assert.NotEqual(t, b, c)
	assert.NotEqual(t, a, c)
}

func TestDigestQuantizationChangesOutput(t *testing.T) {
	fast, err := Digest(SHA256, []byte("payload"), nil, Fast)
	require.NoError(t, err)
	strong, err := Digest(SHA256, []byte("payload"), nil, Strong)
	require.NoError(t, err)
	assert.NotEqual(t, fast, strong)
}

func TestQuantizationRounds(t *testing.T) {
	assert.Equal(t, 100, Fast.rounds())
	assert.Equal(t, 10_000, Default.rounds())
	assert.Equal(t, 100_000, Strong.rounds())
}
