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

package keystore

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryBackend(t *testing.T) {
	backend := NewMemoryBackend()

	t.Run("PutAndGet", func(t *testing.T) {
		err := backend.Put("test-key", []byte("secret material"))
		require.NoError(t, err)

		material, err := backend.Get("test-key")
		require.NoError(t, err)
		assert.Equal(t, []byte("secret material"), material)
	})

	t.Run("GetNonExistentKey", func(t *testing.T) {
		_, err := backend.Get("non-existent")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("OverwriteExisting", func(t *testing.T) {
		require.NoError(t, backend.Put("overwrite-test", []byte("first")))
		require.NoError(t, backend.Put("overwrite-test", []byte("second")))

		material, err := backend.Get("overwrite-test")
		require.NoError(t, err)
		assert.Equal(t, []byte("second"), material)
	})

	t.Run("DeleteKey", func(t *testing.T) {
		require.NoError(t, backend.Put("delete-test", []byte("material")))
		assert.True(t, backend.Exists("delete-test"))

		require.NoError(t, backend.Delete("delete-test"))
		assert.False(t, backend.Exists("delete-test"))

		_, err := backend.Get("delete-test")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("DeleteNonExistentKey", func(t *testing.T) {
		err := backend.Delete("non-existent")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("ListKeys", func(t *testing.T) {
		backend := NewMemoryBackend()
		require.NoError(t, backend.Put("key1", []byte("a")))
		require.NoError(t, backend.Put("key2", []byte("b")))
		require.NoError(t, backend.Put("key3", []byte("c")))

		ids, err := backend.List()
		require.NoError(t, err)
		assert.Equal(t, []string{"key1", "key2", "key3"}, ids)
	})

	t.Run("EmptyList", func(t *testing.T) {
		empty := NewMemoryBackend()
		ids, err := empty.List()
		require.NoError(t, err)
		assert.Empty(t, ids)
	})

	t.Run("ConcurrentAccess", func(t *testing.T) {
		backend := NewMemoryBackend()
		done := make(chan bool)

		for i := 0; i < 10; i++ {
			go func(id int) {
				_ = backend.Put(fmt.Sprintf("concurrent-%d", id), []byte("material"))
				done <- true
			}(i)
		}
		for i := 0; i < 10; i++ {
			<-done
		}

		ids, err := backend.List()
		require.NoError(t, err)
		assert.Len(t, ids, 10)
	})
}
