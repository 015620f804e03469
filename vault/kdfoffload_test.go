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

package vault

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sage-x-project/vault/kdf"
)

func TestDeriveKeyOffloadedMatchesDirectDerive(t *testing.T) {
	salt, err := kdf.NewSalt()
	require.NoError(t, err)
	params := kdf.Params{MemoryCostKiB: 8 * 1024, TimeCost: 1, Parallelism: 1}

	direct, err := kdf.Derive("pw", salt, params)
	require.NoError(t, err)

	offloaded, err := deriveKeyOffloaded(context.Background(), "pw", salt, params)
	require.NoError(t, err)

	assert.Equal(t, direct, offloaded)
}

func TestDeriveKeyOffloadedRespectsCanceledContext(t *testing.T) {
	salt, err := kdf.NewSalt()
	require.NoError(t, err)
	params := kdf.Params{MemoryCostKiB: 8 * 1024, TimeCost: 1, Parallelism: 1}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = deriveKeyOffloaded(ctx, "pw", salt, params)
	assert.Error(t, err)
}

func TestDeriveKeyOffloadedBoundsConcurrency(t *testing.T) {
	salt, err := kdf.NewSalt()
	require.NoError(t, err)
	params := kdf.Params{MemoryCostKiB: 8 * 1024, TimeCost: 1, Parallelism: 1}

	var wg sync.WaitGroup
	errs := make([]error, maxConcurrentDerivations+2)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = deriveKeyOffloaded(context.Background(), "pw", salt, params)
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		assert.NoError(t, err)
	}
}
