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

package session

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sage-x-project/vault/vaulterr"
)

func TestMintVerifyRoundTrip(t *testing.T) {
	auth, err := NewAuthority("vid-123", time.Hour)
	require.NoError(t, err)
	defer auth.Close()

	token, sid, err := auth.Mint("vid-123", "owner")
	require.NoError(t, err)
	assert.NotEmpty(t, sid)

	claims, err := auth.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "vid-123", claims.VID)
	assert.Equal(t, sid, claims.SID)
	assert.Equal(t, "owner", claims.Subject)
}

func TestVerifyRejectsTamperedToken(t *testing.T) {
	auth, err := NewAuthority("vid-123", time.Hour)
	require.NoError(t, err)
	defer auth.Close()

	token, _, err := auth.Mint("vid-123", "owner")
	require.NoError(t, err)

	_, err = auth.Verify(token + "tampered")
	assert.Error(t, err)
}

func TestRevoke(t *testing.T) {
	auth, err := NewAuthority("vid-123", time.Hour)
	require.NoError(t, err)
	defer auth.Close()

	token, sid, err := auth.Mint("vid-123", "owner")
	require.NoError(t, err)

	auth.Revoke(sid)
	_, err = auth.Verify(token)
	require.Error(t, err)
	var verr *vaulterr.Error
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, vaulterr.CodeSessionExpired, verr.Code)
}

func TestRevokeAll(t *testing.T) {
	auth, err := NewAuthority("vid-123", time.Hour)
	require.NoError(t, err)
	defer auth.Close()

	token1, _, err := auth.Mint("vid-123", "owner")
	require.NoError(t, err)
	token2, _, err := auth.Mint("vid-123", "owner")
	require.NoError(t, err)

	auth.RevokeAll()

	_, err = auth.Verify(token1)
	assert.Error(t, err)
	_, err = auth.Verify(token2)
	assert.Error(t, err)
}

func TestVerifyRejectsExpiredToken(t *testing.T) {
	auth, err := NewAuthority("vid-123", -time.Minute)
	require.NoError(t, err)
	defer auth.Close()

	token, _, err := auth.Mint("vid-123", "owner")
	require.NoError(t, err)

	_, err = auth.Verify(token)
	require.Error(t, err)
	var verr *vaulterr.Error
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, vaulterr.CodeSessionExpired, verr.Code)
}

func TestVerifyRejectsTamperedTokenAsUnauthenticated(t *testing.T) {
	auth, err := NewAuthority("vid-123", time.Hour)
	require.NoError(t, err)
	defer auth.Close()

	token, _, err := auth.Mint("vid-123", "owner")
	require.NoError(t, err)

	_, err = auth.Verify(token + "tampered")
	require.Error(t, err)
	var verr *vaulterr.Error
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, vaulterr.CodeUnauthenticated, verr.Code)
}

func TestDifferentVIDsProduceDifferentSecrets(t *testing.T) {
	authA, err := NewAuthority("vid-a", time.Hour)
	require.NoError(t, err)
	defer authA.Close()
	authB, err := NewAuthority("vid-b", time.Hour)
	require.NoError(t, err)
	defer authB.Close()

	token, _, err := authA.Mint("vid-a", "owner")
	require.NoError(t, err)

	_, err = authB.Verify(token)
	assert.Error(t, err)
}
