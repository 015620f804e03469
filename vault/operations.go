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
	"crypto/subtle"
	"os"
	"time"

	"github.com/hashicorp/go-multierror"

	"github.com/sage-x-project/vault/armor"
	"github.com/sage-x-project/vault/internal/logger"
	"github.com/sage-x-project/vault/internal/metrics"
	"github.com/sage-x-project/vault/keystore"
	"github.com/sage-x-project/vault/primitive/aead"
	"github.com/sage-x-project/vault/primitive/kem"
	"github.com/sage-x-project/vault/recordstore"
	"github.com/sage-x-project/vault/vault/lifecycle"
	"github.com/sage-x-project/vault/vault/rotation"
	"github.com/sage-x-project/vault/vaulterr"
)

// Armor seals the on-disk store into the PQ-armored frame: Closed→Sealed.
func (c *Controller) Armor() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state == StateSealed {
		return vaulterr.New(vaulterr.CodeSealed, "vault is already sealed")
	}
	if c.state != StateClosed {
		return vaulterr.New(vaulterr.CodeLocked, "armor requires the vault to be closed")
	}

	pubRaw, err := c.keys.Get(c.params.KeyID + ".pub")
	if err != nil {
		return vaulterr.Wrap(vaulterr.CodeIO, "load kem public key", err)
	}
	pub, err := kem.UnmarshalPublic(c.params.KEMScheme, pubRaw)
	if err != nil {
		return vaulterr.Wrap(vaulterr.CodeCrypto, "unmarshal kem public key", err)
	}

	if err := c.store.Close(); err != nil {
		return vaulterr.Wrap(vaulterr.CodeIO, "close record store before armoring", err)
	}
	storeBytes, err := os.ReadFile(c.paths.Open)
	if err != nil {
		reopened, reopenErr := recordstore.Open(c.paths.Open)
		if reopenErr == nil {
			c.store = reopened
		}
		return vaulterr.Wrap(vaulterr.CodeIO, "read unarmored store file", err)
	}

	frame, err := armor.Seal(c.params.KEMScheme, pub, c.params.KeyID, storeBytes, c.compressionCodec, c.compression)
	if err != nil {
		reopened, reopenErr := recordstore.Open(c.paths.Open)
		if reopenErr == nil {
			c.store = reopened
		}
		return err
	}

	if err := lifecycle.AtomicReplace(c.paths.Sealed, frame, 0600); err != nil {
		reopened, reopenErr := recordstore.Open(c.paths.Open)
		if reopenErr == nil {
			c.store = reopened
		}
		return vaulterr.Wrap(vaulterr.CodeIO, "write sealed frame", err)
	}
	if err := os.Remove(c.paths.Open); err != nil {
		return vaulterr.Wrap(vaulterr.CodeIO, "remove unarmored store after sealing", err)
	}

	c.state = StateSealed
	metrics.VaultState.Set(float64(StateSealed))
	return nil
}

// Unarmor opens the sealed frame back into the plain store file:
// Sealed→Closed.
func (c *Controller) Unarmor() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != StateSealed {
		return vaulterr.New(vaulterr.CodeSealed, "unarmor requires the vault to be sealed")
	}

	frame, err := os.ReadFile(c.paths.Sealed)
	if err != nil {
		return vaulterr.Wrap(vaulterr.CodeIO, "read sealed frame", err)
	}

	header, err := armor.PeekHeader(frame)
	if err != nil {
		return err
	}
	privRaw, err := c.keys.Get(header.KeyID)
	if err != nil {
		return vaulterr.Wrap(vaulterr.CodeIO, "load kem private key", err)
	}
	kp, err := kem.UnmarshalPrivate(header.Scheme, privRaw)
	if err != nil {
		return vaulterr.Wrap(vaulterr.CodeCrypto, "unmarshal kem private key", err)
	}

	storeBytes, err := armor.Open(frame, kp.PrivateKey)
	if err != nil {
		return err
	}

	if err := lifecycle.AtomicReplace(c.paths.Open, storeBytes, 0600); err != nil {
		return vaulterr.Wrap(vaulterr.CodeIO, "write unarmored store", err)
	}
	if err := os.Remove(c.paths.Sealed); err != nil {
		return vaulterr.Wrap(vaulterr.CodeIO, "remove sealed frame after opening", err)
	}

	store, err := recordstore.Open(c.paths.Open)
	if err != nil {
		return err
	}
	c.store = store
	c.state = StateClosed
	metrics.VaultState.Set(float64(StateClosed))
	return nil
}

// ChangePassphrase verifies old against the resident DK, derives a new
// DK from new and the same salt, re-encrypts every record under it, and
// installs the new DK: Open-only.
func (c *Controller) ChangePassphrase(old, newPassphrase string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state == StateSealed {
		return vaulterr.New(vaulterr.CodeSealed, "change passphrase requires the vault to be open; unarmor first")
	}
	if c.state != StateOpen {
		return vaulterr.New(vaulterr.CodeLocked, "change passphrase requires the vault to be open")
	}

	oldCandidate, err := deriveKeyOffloaded(context.Background(), old, c.salt, c.kdfParams)
	if err != nil {
		return vaulterr.Wrap(vaulterr.CodeCrypto, "derive candidate key", err)
	}
	candidateCasc, err := aead.New(oldCandidate)
	zeroBytes(oldCandidate)
	if err != nil {
		return vaulterr.Wrap(vaulterr.CodeCrypto, "build candidate cascade", err)
	}

	// Seal a probe under the resident DK and confirm the candidate DK
	// (derived from old) can open it, rather than comparing key bytes
	// directly: the cascade never exposes its raw key material.
	sealedProbe, err := c.dk.Seal([]byte("probe"), []byte("probe"))
	if err != nil {
		return vaulterr.Wrap(vaulterr.CodeCrypto, "seal verification probe", err)
	}
	plain, err := candidateCasc.Open(sealedProbe, []byte("probe"))
	if err != nil || subtle.ConstantTimeCompare(plain, []byte("probe")) != 1 {
		return vaulterr.New(vaulterr.CodeWrongPassword, "old passphrase is incorrect")
	}

	namespaces, err := c.store.ListNamespaces()
	if err != nil {
		return err
	}
	type snapshot struct {
		ns, key string
		rec     recordstore.Record
	}
	var all []snapshot
	for _, ns := range namespaces {
		keys, err := c.store.List(ns, "")
		if err != nil {
			return err
		}
		for _, k := range keys {
			rec, err := c.store.GetRecord(ns, k)
			if err != nil {
				continue
			}
			all = append(all, snapshot{ns: ns, key: k, rec: rec})
		}
	}

	newDKBytes, err := deriveKeyOffloaded(context.Background(), newPassphrase, c.salt, c.kdfParams)
	if err != nil {
		return vaulterr.Wrap(vaulterr.CodeCrypto, "derive new key", err)
	}
	newDigest, err := dkDigest(newDKBytes, c.salt)
	if err != nil {
		zeroBytes(newDKBytes)
		return vaulterr.Wrap(vaulterr.CodeCrypto, "compute new dk digest", err)
	}
	newCasc, err := aead.New(newDKBytes)
	zeroBytes(newDKBytes)
	if err != nil {
		return vaulterr.Wrap(vaulterr.CodeCrypto, "build new cascade", err)
	}

	c.store.SetKey(newCasc)
	for _, s := range all {
		if err := c.store.PutRecord(s.ns, s.key, s.rec); err != nil {
			return vaulterr.Wrap(vaulterr.CodeCrypto, "re-encrypt record under new key", err)
		}
	}

	c.params.DKDigest = newDigest
	if err := writeParams(c.paths.Params, c.params); err != nil {
		return err
	}

	c.dk = newCasc
	return nil
}

// EmergencyLockdown revokes every session, seals the store, and zeroes
// DK, proceeding even on partial failure and aggregating every error
// encountered.
func (c *Controller) EmergencyLockdown() error {
	logger.Warn("emergency lockdown triggered", logger.String("vid", c.VID()))
	var result *multierror.Error

	c.mu.Lock()
	if c.authority != nil {
		c.authority.RevokeAll()
	}
	wasOpen := c.state == StateOpen
	c.mu.Unlock()

	if wasOpen {
		if err := c.Lock(); err != nil {
			result = multierror.Append(result, err)
		}
	}

	c.mu.Lock()
	state := c.state
	c.mu.Unlock()
	if state == StateClosed {
		if err := c.Armor(); err != nil {
			result = multierror.Append(result, err)
		}
	}

	metrics.EmergencyLockdowns.Inc()
	return result.ErrorOrNil()
}

// RotateKEMKey generates a fresh KEM keypair under the vault's stable key
// id, archiving the superseded private key so frames already sealed under
// it remain decryptable, and records the rotation in the returned
// rotator's history. Callers that hold sealed frames should Unarmor before
// rotating: a frame sealed under the superseded key can only be opened by
// looking up its archival id directly, which Unarmor does not do
// automatically.
func (c *Controller) RotateKEMKey(reason string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state == StateSealed {
		return vaulterr.New(vaulterr.CodeSealed, "rotate kem key requires the vault not to be sealed")
	}

	scheme := c.params.KEMScheme
	keyID := c.params.KeyID
	var generatedPub []byte

	generate := func() ([]byte, string, error) {
		kp, err := kem.Generate(scheme)
		if err != nil {
			return nil, "", err
		}
		pub, err := kp.MarshalPublic()
		if err != nil {
			return nil, "", err
		}
		generatedPub = pub
		priv, err := kp.MarshalPrivate()
		if err != nil {
			return nil, "", err
		}
		return priv, keyID, nil
	}

	mgr := keystore.NewManager(c.keys)
	rotator := rotation.New(mgr, generate)
	rotator.SetConfig(rotation.Config{KeepOldKeys: true})

	if _, err := rotator.Rotate(keyID, reason); err != nil {
		return vaulterr.Wrap(vaulterr.CodeCrypto, "rotate kem keypair", err)
	}
	if err := c.keys.Put(keyID+".pub", generatedPub); err != nil {
		return vaulterr.Wrap(vaulterr.CodeIO, "store rotated public key", err)
	}
	metrics.RotationEvents.WithLabelValues(keyID).Inc()
	return nil
}

// Close releases background resources (the session authority's nonce
// cache GC goroutine and, if open, the record store's file handle) and
// drops the advisory cross-process lockfile acquired by Create/Open.
func (c *Controller) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.authority != nil {
		c.authority.Close()
	}
	var storeErr error
	if c.store != nil {
		storeErr = c.store.Close()
	}
	if c.lock != nil {
		_ = c.lock.Release()
		c.lock = nil
	}
	return storeErr
}

func recordOpStatus(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

// Put inserts or overwrites a record under (ns, key). ttl is optional.
func (c *Controller) Put(ns, key string, value []byte, metadata map[string]string, ttl *time.Duration) error {
	if err := c.requireOpen(); err != nil {
		return err
	}
	err := c.store.Put(ns, key, value, metadata, ttl)
	metrics.RecordOperations.WithLabelValues("put", recordOpStatus(err)).Inc()
	return err
}

// PutIfAbsent inserts (ns, key) only if absent, returning whether it did.
func (c *Controller) PutIfAbsent(ns, key string, value []byte, metadata map[string]string, ttl *time.Duration) (bool, error) {
	if err := c.requireOpen(); err != nil {
		return false, err
	}
	inserted, err := c.store.PutIfAbsent(ns, key, value, metadata, ttl)
	metrics.RecordOperations.WithLabelValues("put_if_absent", recordOpStatus(err)).Inc()
	return inserted, err
}

// PutAll inserts a batch of entries atomically.
func (c *Controller) PutAll(ns string, entries []recordstore.Entry) error {
	if err := c.requireOpen(); err != nil {
		return err
	}
	err := c.store.PutAll(ns, entries)
	metrics.RecordOperations.WithLabelValues("put_all", recordOpStatus(err)).Inc()
	return err
}

// Get returns the value at (ns, key).
func (c *Controller) Get(ns, key string) ([]byte, error) {
	if err := c.requireOpen(); err != nil {
		return nil, err
	}
	value, err := c.store.Get(ns, key)
	metrics.RecordOperations.WithLabelValues("get", recordOpStatus(err)).Inc()
	return value, err
}

// Delete removes (ns, key), idempotently.
func (c *Controller) Delete(ns, key string) error {
	if err := c.requireOpen(); err != nil {
		return err
	}
	err := c.store.Delete(ns, key)
	metrics.RecordOperations.WithLabelValues("delete", recordOpStatus(err)).Inc()
	return err
}

// List returns keys in ns, optionally filtered to a prefix.
func (c *Controller) List(ns, prefix string) ([]string, error) {
	if err := c.requireOpen(); err != nil {
		return nil, err
	}
	keys, err := c.store.List(ns, prefix)
	metrics.RecordOperations.WithLabelValues("list", recordOpStatus(err)).Inc()
	return keys, err
}

// Find returns (key, value) pairs in ns matching pattern.
func (c *Controller) Find(ns, pattern string) ([]recordstore.Entry, error) {
	if err := c.requireOpen(); err != nil {
		return nil, err
	}
	entries, err := c.store.Find(ns, pattern)
	metrics.RecordOperations.WithLabelValues("find", recordOpStatus(err)).Inc()
	return entries, err
}

// ListNamespaces returns every namespace with at least one record.
func (c *Controller) ListNamespaces() ([]string, error) {
	if err := c.requireOpen(); err != nil {
		return nil, err
	}
	return c.store.ListNamespaces()
}

func (c *Controller) requireOpen() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == StateSealed {
		return vaulterr.New(vaulterr.CodeSealed, "vault is sealed; unarmor and unlock first")
	}
	if c.state != StateOpen {
		return vaulterr.New(vaulterr.CodeLocked, "vault is not open")
	}
	return nil
}

// Mint issues a session token for sub, valid while DK is resident.
func (c *Controller) Mint(sub string) (token, sid string, err error) {
	if err := c.requireOpen(); err != nil {
		return "", "", err
	}
	c.mu.Lock()
	vid := c.vid
	c.mu.Unlock()
	return c.authority.Mint(vid, sub)
}

// VerifySession validates a session token minted by this vault.
func (c *Controller) VerifySession(token string) error {
	_, err := c.authority.Verify(token)
	return err
}

// RevokeSession invalidates a single session id.
func (c *Controller) RevokeSession(sid string) {
	c.authority.Revoke(sid)
}
