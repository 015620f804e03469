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

package compress

import (
	"archive/zip"
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompressDecompressRoundTrip(t *testing.T) {
	original := []byte(strings.Repeat("the quick brown fox jumps over the lazy dog ", 50))

	compressed, err := Compress(original, LevelDefault)
	require.NoError(t, err)
	assert.Less(t, len(compressed), len(original))

	decompressed, err := Decompress(compressed)
	require.NoError(t, err)
	assert.True(t, bytes.Equal(original, decompressed))
}

func TestCompressLevelNonePassesThrough(t *testing.T) {
	original := []byte("small record value")

	compressed, err := Compress(original, LevelNone)
	require.NoError(t, err)
	assert.Equal(t, original, compressed)

	decompressed, err := Decompress(compressed)
	require.NoError(t, err)
	assert.Equal(t, original, decompressed)
}

func TestDecompressPassesThroughNonZstdData(t *testing.T) {
	plain := []byte("never compressed")
	out, err := Decompress(plain)
	require.NoError(t, err)
	assert.Equal(t, plain, out)
}

func TestCompressLevelsProduceValidOutput(t *testing.T) {
	original := bytes.Repeat([]byte("abcdefgh"), 200)

	for _, level := range []Level{LevelFastest, LevelDefault, LevelBetter, LevelBest} {
		compressed, err := Compress(original, level)
		require.NoError(t, err)

		decompressed, err := Decompress(compressed)
		require.NoError(t, err)
		assert.True(t, bytes.Equal(original, decompressed))
	}
}

func TestCompressWithEachCodecRoundTrips(t *testing.T) {
	original := []byte(strings.Repeat("vault record store snapshot content ", 40))

	for _, codec := range []Codec{CodecZstd, CodecGzip, CodecBzip2, CodecZip} {
		t.Run(codec.String(), func(t *testing.T) {
			compressed, err := CompressWith(codec, original, LevelDefault)
			require.NoError(t, err)
			assert.Less(t, len(compressed), len(original))

			decompressedKnown, err := DecompressWith(codec, compressed)
			require.NoError(t, err)
			assert.Equal(t, original, decompressedKnown)

			decompressedAuto, err := Decompress(compressed)
			require.NoError(t, err)
			assert.Equal(t, original, decompressedAuto)
		})
	}
}

func TestCompressWithCodecNonePassesThrough(t *testing.T) {
	original := []byte("no compression requested")

	compressed, err := CompressWith(CodecNone, original, LevelDefault)
	require.NoError(t, err)
	assert.Equal(t, original, compressed)
}

func TestDecompressZipRejectsEmptyArchive(t *testing.T) {
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	require.NoError(t, w.Close())

	_, err := decompressZip(buf.Bytes())
	assert.Error(t, err)
}
