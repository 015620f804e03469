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
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sage-x-project/vault/kdf"
	"github.com/sage-x-project/vault/keystore"
	"github.com/sage-x-project/vault/vaulterr"
)

func testConfig() Config {
	return Config{
		KDFParams: kdf.Params{MemoryCostKiB: 8 * 1024, TimeCost: 1, Parallelism: 1},
	}
}

func TestCreateProducesOpenVault(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vault")
	keys := keystore.NewMemoryBackend()

	c, err := Create(path, keys, "correct horse battery staple", testConfig())
	require.NoError(t, err)
	defer c.Close()

	assert.Equal(t, StateOpen, c.State())
	assert.NotEmpty(t, c.VID())
}

func TestPutGetRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vault")
	keys := keystore.NewMemoryBackend()

	c, err := Create(path, keys, "passphrase", testConfig())
	require.NoError(t, err)
	defer c.Close()

	require.NoError(t, c.Put("secrets", "api-key", []byte("sekrit"), nil, nil))
	got, err := c.Get("secrets", "api-key")
	require.NoError(t, err)
	assert.Equal(t, []byte("sekrit"), got)
}

func TestLockClosesAccessToRecords(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vault")
	keys := keystore.NewMemoryBackend()

	c, err := Create(path, keys, "passphrase", testConfig())
	require.NoError(t, err)
	defer c.Close()

	require.NoError(t, c.Put("ns", "k", []byte("v"), nil, nil))
	require.NoError(t, c.Lock())
	assert.Equal(t, StateClosed, c.State())

	_, err = c.Get("ns", "k")
	var verr *vaulterr.Error
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, vaulterr.CodeLocked, verr.Code)
}

func TestUnlockWithWrongPassphraseFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vault")
	keys := keystore.NewMemoryBackend()

	c, err := Create(path, keys, "right passphrase", testConfig())
	require.NoError(t, err)
	defer c.Close()
	require.NoError(t, c.Lock())

	err = c.Unlock("wrong passphrase")
	var verr *vaulterr.Error
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, vaulterr.CodeWrongPassword, verr.Code)
	assert.Equal(t, StateClosed, c.State())
}

func TestUnlockWithCorrectPassphraseReopens(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vault")
	keys := keystore.NewMemoryBackend()

	c, err := Create(path, keys, "right passphrase", testConfig())
	require.NoError(t, err)
	defer c.Close()
	require.NoError(t, c.Put("ns", "k", []byte("v"), nil, nil))
	require.NoError(t, c.Lock())

	require.NoError(t, c.Unlock("right passphrase"))
	assert.Equal(t, StateOpen, c.State())

	got, err := c.Get("ns", "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), got)
}

func TestArmorUnarmorRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vault")
	keys := keystore.NewMemoryBackend()

	c, err := Create(path, keys, "passphrase", testConfig())
	require.NoError(t, err)
	defer c.Close()
	require.NoError(t, c.Put("ns", "k", []byte("payload"), nil, nil))
	require.NoError(t, c.Lock())

	require.NoError(t, c.Armor())
	assert.Equal(t, StateSealed, c.State())

	require.NoError(t, c.Unarmor())
	assert.Equal(t, StateClosed, c.State())

	require.NoError(t, c.Unlock("passphrase"))
	got, err := c.Get("ns", "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("payload"), got)
}

func TestOpenReattachesToSealedVault(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vault")
	keys := keystore.NewMemoryBackend()

	c, err := Create(path, keys, "passphrase", testConfig())
	require.NoError(t, err)
	require.NoError(t, c.Put("ns", "k", []byte("payload"), nil, nil))
	require.NoError(t, c.Lock())
	require.NoError(t, c.Armor())
	require.NoError(t, c.Close())

	reopened, err := Open(path, keys, testConfig())
	require.NoError(t, err)
	defer reopened.Close()
	assert.Equal(t, StateSealed, reopened.State())
	assert.Equal(t, c.VID(), reopened.VID())
}

func TestChangePassphraseRejectsWrongOld(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vault")
	keys := keystore.NewMemoryBackend()

	c, err := Create(path, keys, "original", testConfig())
	require.NoError(t, err)
	defer c.Close()

	err = c.ChangePassphrase("not the original", "new-passphrase")
	var verr *vaulterr.Error
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, vaulterr.CodeWrongPassword, verr.Code)
}

func TestChangePassphraseReencryptsRecords(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vault")
	keys := keystore.NewMemoryBackend()

	c, err := Create(path, keys, "original", testConfig())
	require.NoError(t, err)
	defer c.Close()
	require.NoError(t, c.Put("ns", "k1", []byte("v1"), nil, nil))
	require.NoError(t, c.Put("ns", "k2", []byte("v2"), nil, nil))

	require.NoError(t, c.ChangePassphrase("original", "new-passphrase"))

	got, err := c.Get("ns", "k1")
	require.NoError(t, err)
	assert.Equal(t, []byte("v1"), got)

	require.NoError(t, c.Lock())
	err = c.Unlock("original")
	require.Error(t, err)

	require.NoError(t, c.Unlock("new-passphrase"))
	got, err = c.Get("ns", "k2")
	require.NoError(t, err)
	assert.Equal(t, []byte("v2"), got)
}

func TestChangePassphrasePreservesMetadataAndTTL(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vault")
	keys := keystore.NewMemoryBackend()

	c, err := Create(path, keys, "original", testConfig())
	require.NoError(t, err)
	defer c.Close()

	meta := map[string]string{"owner": "alice", "kind": "credential"}
	ttl := time.Hour
	require.NoError(t, c.Put("ns", "k1", []byte("v1"), meta, &ttl))

	before, err := c.store.GetRecord("ns", "k1")
	require.NoError(t, err)

	require.NoError(t, c.ChangePassphrase("original", "new-passphrase"))

	after, err := c.store.GetRecord("ns", "k1")
	require.NoError(t, err)

	assert.Equal(t, []byte("v1"), after.Value)
	assert.Equal(t, meta, after.Metadata)
	require.NotNil(t, after.ExpiresAt)
	assert.WithinDuration(t, *before.ExpiresAt, *after.ExpiresAt, time.Second)
	assert.Equal(t, before.CreatedAt.Unix(), after.CreatedAt.Unix())
}

func TestEmergencyLockdownSealsAndRevokesSessions(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vault")
	keys := keystore.NewMemoryBackend()

	c, err := Create(path, keys, "passphrase", testConfig())
	require.NoError(t, err)
	defer c.Close()

	token, sid, err := c.Mint("user-1")
	require.NoError(t, err)
	require.NotEmpty(t, sid)
	require.NoError(t, c.VerifySession(token))

	require.NoError(t, c.EmergencyLockdown())
	assert.Equal(t, StateSealed, c.State())

	err = c.VerifySession(token)
	assert.Error(t, err)
}

func TestRotateKEMKeyAllowsFutureArmor(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vault")
	keys := keystore.NewMemoryBackend()

	c, err := Create(path, keys, "passphrase", testConfig())
	require.NoError(t, err)
	defer c.Close()

	require.NoError(t, c.RotateKEMKey("scheduled rotation"))

	require.NoError(t, c.Put("ns", "k", []byte("payload"), nil, nil))
	require.NoError(t, c.Lock())
	require.NoError(t, c.Armor())
	require.NoError(t, c.Unarmor())
	require.NoError(t, c.Unlock("passphrase"))

	got, err := c.Get("ns", "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("payload"), got)
}

func TestCreateRejectsExistingVault(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vault")
	keys := keystore.NewMemoryBackend()

	c, err := Create(path, keys, "passphrase", testConfig())
	require.NoError(t, err)
	defer c.Close()

	_, err = Create(path, keys, "passphrase", testConfig())
	var verr *vaulterr.Error
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, vaulterr.CodeAlreadyExists, verr.Code)
}
