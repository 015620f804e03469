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

//go:build !windows

package lifecycle

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteReadHolder(t *testing.T) {
	lockPath := filepath.Join(t.TempDir(), "vault.lock")

	require.NoError(t, WriteHolder(lockPath))

	h, ok := ReadHolder(lockPath)
	require.True(t, ok)
	assert.Equal(t, os.Getpid(), h.PID)
}

func TestReadHolderMissing(t *testing.T) {
	lockPath := filepath.Join(t.TempDir(), "vault.lock")
	_, ok := ReadHolder(lockPath)
	assert.False(t, ok)
}

func TestIsAliveCurrentProcess(t *testing.T) {
	assert.True(t, IsAlive(os.Getpid()))
}

func TestIsAliveImplausiblePID(t *testing.T) {
	assert.False(t, IsAlive(-1))
}
