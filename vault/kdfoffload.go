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

	"golang.org/x/sync/semaphore"

	"github.com/sage-x-project/vault/kdf"
)

// maxConcurrentDerivations bounds how many Argon2id derivations run at
// once across every Controller in this process. Each derivation can
// claim tens to hundreds of MiB (kdf.Params.MemoryCostKiB), so leaving
// this unbounded lets a burst of concurrent Unlock/ChangePassphrase/
// Create calls exhaust memory.
const maxConcurrentDerivations = 4

var kdfSemaphore = semaphore.NewWeighted(maxConcurrentDerivations)

// deriveKeyOffloaded runs kdf.Derive on the bounded worker pool above.
// Callers holding a Controller's mutex must release it first: Argon2id
// at the default cost takes on the order of a second, and the point of
// this helper is that State/VID/Get/Put on OTHER open vaults aren't
// blocked behind it.
func deriveKeyOffloaded(ctx context.Context, passphrase string, salt []byte, params kdf.Params) ([]byte, error) {
	if err := kdfSemaphore.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	defer kdfSemaphore.Release(1)
	return kdf.Derive(passphrase, salt, params)
}
