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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEd25519SignVerify(t *testing.T) {
	kp, err := GenerateEd25519KeyPair()
	require.NoError(t, err)
	assert.NotEmpty(t, kp.ID())

	msg := []byte("vault armor frame header")
	sig, err := kp.Sign(msg)
	require.NoError(t, err)

	assert.NoError(t, kp.Verify(msg, sig))
	assert.ErrorIs(t, kp.Verify([]byte("tampered"), sig), ErrInvalidSignature)
}

func TestJWKRoundTrip(t *testing.T) {
	kp, err := GenerateEd25519KeyPair()
	require.NoError(t, err)

	exporter := NewJWKExporter()
	data, err := exporter.Export(kp, FormatJWK)
	require.NoError(t, err)

	importer := NewJWKImporter()
	imported, err := importer.Import(data, FormatJWK)
	require.NoError(t, err)
	assert.Equal(t, kp.ID(), imported.ID())

	msg := []byte("round trip")
	sig, err := kp.Sign(msg)
	require.NoError(t, err)
	assert.NoError(t, imported.Verify(msg, sig))
}

func TestJWKExportPublicOnly(t *testing.T) {
	kp, err := GenerateEd25519KeyPair()
	require.NoError(t, err)

	exporter := NewJWKExporter()
	pubData, err := exporter.ExportPublic(kp, FormatJWK)
	require.NoError(t, err)

	importer := NewJWKImporter()
	pub, err := importer.ImportPublic(pubData, FormatJWK)
	require.NoError(t, err)
	assert.Equal(t, kp.PublicKey(), pub)
}
