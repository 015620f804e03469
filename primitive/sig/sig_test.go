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

package sig

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignVerifyRoundTrip(t *testing.T) {
	kp, err := Generate(DefaultScheme)
	require.NoError(t, err)

	msg := []byte("armor frame header bytes")
	signature, err := Sign(DefaultScheme, kp.PrivateKey, msg)
	require.NoError(t, err)

	ok, err := Verify(DefaultScheme, kp.PublicKey, msg, signature)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestVerifyRejectsTamperedMessage(t *testing.T) {
	kp, err := Generate(DefaultScheme)
	require.NoError(t, err)

	signature, err := Sign(DefaultScheme, kp.PrivateKey, []byte("original"))
	require.NoError(t, err)

	ok, err := Verify(DefaultScheme, kp.PublicKey, []byte("tampered"), signature)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMarshalUnmarshalPrivateRoundTrip(t *testing.T) {
	kp, err := Generate(DefaultScheme)
	require.NoError(t, err)

	raw, err := kp.MarshalPrivate()
	require.NoError(t, err)

	reloaded, err := UnmarshalPrivate(DefaultScheme, raw)
	require.NoError(t, err)

	msg := []byte("reloaded key signs fine")
	signature, err := Sign(DefaultScheme, reloaded.PrivateKey, msg)
	require.NoError(t, err)

	ok, err := Verify(DefaultScheme, reloaded.PublicKey, msg, signature)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestUnknownSchemeRejected(t *testing.T) {
	_, err := Generate("not-a-real-scheme")
	assert.ErrorIs(t, err, ErrUnknownScheme)
}
