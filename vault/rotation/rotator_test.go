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

package rotation

import (
	"crypto/rand"
	"encoding/hex"
	"testing"

	"github.com/sage-x-project/vault/keystore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fakeGenerator() Generator {
	return func() ([]byte, string, error) {
		material := make([]byte, 32)
		if _, err := rand.Read(material); err != nil {
			return nil, "", err
		}
		return material, hex.EncodeToString(material[:4]), nil
	}
}

func TestRotatorRotate(t *testing.T) {
	store := keystore.NewManager(keystore.NewMemoryBackend())
	require.NoError(t, store.Put("vault.kem", []byte("original material")))

	r := New(store, fakeGenerator())
	archived, err := r.Rotate("vault.kem", "manual")
	require.NoError(t, err)
	assert.Empty(t, archived)

	history := r.History("vault.kem")
	require.Len(t, history, 1)
	assert.Equal(t, "manual", history[0].Reason)

	material, err := store.Get("vault.kem")
	require.NoError(t, err)
	assert.NotEqual(t, []byte("original material"), material)
}

func TestRotatorKeepsOldKeys(t *testing.T) {
	store := keystore.NewManager(keystore.NewMemoryBackend())
	require.NoError(t, store.Put("vault.kem", []byte("original material")))

	r := New(store, fakeGenerator())
	r.SetConfig(Config{KeepOldKeys: true})

	archived, err := r.Rotate("vault.kem", "scheduled")
	require.NoError(t, err)
	require.NotEmpty(t, archived)

	old, err := store.Get(archived)
	require.NoError(t, err)
	assert.Equal(t, []byte("original material"), old)
}

func TestRotatorRejectsConcurrentRotation(t *testing.T) {
	store := keystore.NewManager(keystore.NewMemoryBackend())
	require.NoError(t, store.Put("vault.kem", []byte("material")))

	r := New(store, fakeGenerator())
	r.rotating["vault.kem"] = true

	_, err := r.Rotate("vault.kem", "manual")
	assert.Error(t, err)
}
