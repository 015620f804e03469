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

package vaulterr

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorIsMatchesByCode(t *testing.T) {
	err := Wrap(CodeLocked, "vault is sealed", errors.New("underlying"))
	assert.True(t, errors.Is(err, New(CodeLocked, "")))
	assert.False(t, errors.Is(err, New(CodeNotFound, "")))
}

func TestErrorUnwrapReturnsCause(t *testing.T) {
	cause := errors.New("disk full")
	err := Wrap(CodeIO, "write failed", cause)
	assert.Equal(t, cause, errors.Unwrap(err))
}

func TestWithDetails(t *testing.T) {
	err := New(CodeNotFound, "missing key").WithDetails("key_id", "secret-1")
	assert.Equal(t, "secret-1", err.Details["key_id"])
}

func TestErrorMessageFormatting(t *testing.T) {
	withoutCause := New(CodeLocked, "vault is locked")
	assert.Contains(t, withoutCause.Error(), "VAULT_LOCKED")
	assert.Contains(t, withoutCause.Error(), "vault is locked")

	withCause := Wrap(CodeIO, "write failed", errors.New("disk full"))
	assert.Contains(t, withCause.Error(), "disk full")
}

func TestLockedAndSealedAreDistinctCodes(t *testing.T) {
	assert.False(t, errors.Is(New(CodeLocked, ""), New(CodeSealed, "")))
	assert.Contains(t, New(CodeSealed, "sealed").Error(), "VAULT_SEALED")
}

func TestUnauthenticatedAndSessionExpiredAreDistinctCodes(t *testing.T) {
	assert.False(t, errors.Is(New(CodeUnauthenticated, ""), New(CodeSessionExpired, "")))
	assert.Contains(t, New(CodeUnauthenticated, "bad token").Error(), "UNAUTHENTICATED")
	assert.Contains(t, New(CodeSessionExpired, "expired").Error(), "SESSION_EXPIRED")
}

func TestTimeoutCode(t *testing.T) {
	assert.Contains(t, New(CodeTimeout, "gave up waiting").Error(), "TIMEOUT")
}
