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

package kem

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateEncapsulateDecapsulate(t *testing.T) {
	kp, err := Generate(DefaultScheme)
	require.NoError(t, err)

	ciphertext, sharedSecret, err := Encapsulate(DefaultScheme, kp.PublicKey)
	require.NoError(t, err)

	recovered, err := Decapsulate(DefaultScheme, kp.PrivateKey, ciphertext)
	require.NoError(t, err)
	assert.Equal(t, sharedSecret, recovered)
}

func TestMarshalUnmarshalPrivateRoundTrip(t *testing.T) {
	kp, err := Generate(DefaultScheme)
	require.NoError(t, err)

	raw, err := kp.MarshalPrivate()
	require.NoError(t, err)

	reloaded, err := UnmarshalPrivate(DefaultScheme, raw)
	require.NoError(t, err)

	ciphertext, sharedSecret, err := Encapsulate(DefaultScheme, reloaded.PublicKey)
	require.NoError(t, err)

	recovered, err := Decapsulate(DefaultScheme, reloaded.PrivateKey, ciphertext)
	require.NoError(t, err)
	assert.Equal(t, sharedSecret, recovered)
}

func TestUnknownSchemeRejected(t *testing.T) {
	_, err := Generate("not-a-real-scheme")
	assert.ErrorIs(t, err, ErrUnknownScheme)
}
