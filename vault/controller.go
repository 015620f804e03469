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

// Package vault is the controller that orchestrates the key-material
// store, key-derivation unit, record store, session authority, and armor
// codec into the vault's Sealed/Closed/Open lifecycle.
package vault

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/sage-x-project/vault/internal/logger"
	"github.com/sage-x-project/vault/internal/metrics"
	"github.com/sage-x-project/vault/kdf"
	"github.com/sage-x-project/vault/keystore"
	"github.com/sage-x-project/vault/primitive/aead"
	"github.com/sage-x-project/vault/primitive/compress"
	"github.com/sage-x-project/vault/primitive/hash"
	"github.com/sage-x-project/vault/primitive/kem"
	"github.com/sage-x-project/vault/recordstore"
	"github.com/sage-x-project/vault/session"
	"github.com/sage-x-project/vault/vault/lifecycle"
	"github.com/sage-x-project/vault/vaulterr"
)

// State is the controller's current lifecycle position.
type State int

const (
	StateSealed State = iota
	StateClosed
	StateOpen
)

func (s State) String() string {
	switch s {
	case StateSealed:
		return "sealed"
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	default:
		return "unknown"
	}
}

const (
	canaryNamespace = ""
	canaryKey       = "__canary__"
	canaryValue     = "vault-unlock-canary"
)

// params is the on-disk derivation/armor metadata written next to the
// salt, so unlock and armor don't need out-of-band configuration.
type params struct {
	MemoryCostKiB uint32 `json:"memory_cost_kib"`
	TimeCost      uint32 `json:"time_cost"`
	Parallelism   uint8  `json:"parallelism"`
	KEMScheme     string `json:"kem_scheme"`
	KeyID         string `json:"key_id"`
	VID           string `json:"vid"`
	// DKDigest is a salted, iterated fingerprint of the derived key bytes
	// themselves (a key-check value, the same pattern LUKS key slots and
	// PGP's S2K checksum use), checked independently of the AEAD-sealed
	// canary record so a wrong passphrase is caught by two unrelated
	// mechanisms before either reveals which one failed.
	DKDigest    []byte `json:"dk_digest"`
	DKAlgorithm string `json:"dk_algorithm"`
}

// dkDigest computes the salted, iterated fingerprint of dkBytes used as a
// key-check value independent of the AEAD canary record.
func dkDigest(dkBytes, salt []byte) ([]byte, error) {
	return hash.Digest(hash.SHA3_256, dkBytes, salt, hash.Default)
}

// Controller is a single vault instance bound to one on-disk path. It is
// safe for concurrent use; state transitions and DK installation/removal
// are serialized under its internal mutex, per the "single logical actor"
// concurrency model.
type Controller struct {
	mu sync.Mutex

	paths lifecycle.Paths
	state State

	keys     keystore.Backend
	store    *recordstore.Store
	authority *session.Authority

	compression      compress.Level
	compressionCodec compress.Codec
	kdfParams        kdf.Params

	vid    string
	salt   []byte
	params params
	dk     *aead.Cascade
	lock   *lifecycle.Lock
}

// Config carries the caller-supplied knobs Create and Open need beyond
// what's already recorded on disk.
type Config struct {
	CompressionLevel int
	// CompressionCodec selects the armor codec (Zstd/Gzip/Bzip2/Zip/None).
	// Zero value is compress.CodecNone; Create/Open default that to Zstd.
	CompressionCodec compress.Codec
	KDFParams        kdf.Params
	SessionTTL       time.Duration
	// LockTimeout bounds how long Create/Open wait to acquire the
	// advisory cross-process lockfile before giving up. Zero defaults to
	// 5 seconds.
	LockTimeout time.Duration
}

func (c Config) compressionLevel() compress.Level {
	if c.CompressionLevel <= 0 {
		return compress.LevelDefault
	}
	return compress.Level(c.CompressionLevel)
}

func (c Config) compressionCodec() compress.Codec {
	if c.CompressionCodec == compress.CodecNone {
		return compress.CodecZstd
	}
	return c.CompressionCodec
}

func (c Config) sessionTTL() time.Duration {
	if c.SessionTTL <= 0 {
		return time.Hour
	}
	return c.SessionTTL
}

func (c Config) lockTimeout() time.Duration {
	if c.LockTimeout <= 0 {
		return 5 * time.Second
	}
	return c.LockTimeout
}

// acquireLock takes the advisory cross-process lockfile at p.Lock,
// recording this process as the holder on success. If another live
// process holds it, the wait error names that holder; a holder record
// for a dead process is logged as stale but does not bypass the flock
// itself, since the OS already releases flock locks on process exit.
func acquireLock(p lifecycle.Paths, timeout time.Duration) (*lifecycle.Lock, error) {
	lk := lifecycle.NewLock(p.Lock)
	acquired, err := lk.Acquire(timeout)
	if err != nil {
		return nil, vaulterr.Wrap(vaulterr.CodeIO, "acquire vault lock", err)
	}
	if !acquired {
		if holder, ok := lifecycle.ReadHolder(p.Lock); ok {
			if lifecycle.IsAlive(holder.PID) {
				return nil, vaulterr.New(vaulterr.CodeTimeout, "timed out waiting for vault lock held by "+lifecycle.DescribeHolder(holder))
			}
			logger.Warn("vault lock busy but recorded holder looks dead", logger.String("holder", lifecycle.DescribeHolder(holder)))
		}
		return nil, vaulterr.New(vaulterr.CodeTimeout, "timed out waiting for vault lock")
	}
	if err := lifecycle.WriteHolder(p.Lock); err != nil {
		_ = lk.Release()
		return nil, vaulterr.Wrap(vaulterr.CodeIO, "write lock holder", err)
	}
	return lk, nil
}

// Create initializes a brand-new vault at path: Sealed/Absent → Open.
func Create(path string, keys keystore.Backend, passphrase string, cfg Config) (*Controller, error) {
	p := lifecycle.PathsFor(path)
	state, err := lifecycle.Detect(p)
	if err != nil {
		return nil, err
	}
	if state != lifecycle.StateAbsent {
		return nil, vaulterr.New(vaulterr.CodeAlreadyExists, "vault already exists at this path")
	}

	lk, err := acquireLock(p, cfg.lockTimeout())
	if err != nil {
		return nil, err
	}
	releaseLock := true
	defer func() {
		if releaseLock {
			_ = lk.Release()
		}
	}()

	salt, err := kdf.NewSalt()
	if err != nil {
		return nil, err
	}
	kdfParams := cfg.KDFParams
	if kdfParams.MemoryCostKiB == 0 {
		kdfParams = kdf.DefaultParams
	}

	vid := uuid.NewString()
	kp, err := kem.Generate(kem.DefaultScheme)
	if err != nil {
		return nil, vaulterr.Wrap(vaulterr.CodeCrypto, "generate vault kem keypair", err)
	}
	keyID := "vault.kem." + vid
	if err := persistKeypair(keys, keyID, kp); err != nil {
		return nil, err
	}

	dkBytes, err := deriveKeyOffloaded(context.Background(), passphrase, salt, kdfParams)
	if err != nil {
		return nil, vaulterr.Wrap(vaulterr.CodeCrypto, "derive key", err)
	}
	digest, err := dkDigest(dkBytes, salt)
	if err != nil {
		zeroBytes(dkBytes)
		return nil, vaulterr.Wrap(vaulterr.CodeCrypto, "compute dk digest", err)
	}

	prm := params{
		MemoryCostKiB: kdfParams.MemoryCostKiB,
		TimeCost:      kdfParams.TimeCost,
		Parallelism:   kdfParams.Parallelism,
		KEMScheme:     kem.DefaultScheme,
		KeyID:         keyID,
		VID:           vid,
		DKDigest:      digest,
		DKAlgorithm:   hash.SHA3_256.String(),
	}

	if err := os.WriteFile(p.Salt, salt, 0600); err != nil {
		zeroBytes(dkBytes)
		return nil, vaulterr.Wrap(vaulterr.CodeIO, "write salt file", err)
	}
	if err := writeParams(p.Params, prm); err != nil {
		zeroBytes(dkBytes)
		return nil, err
	}

	casc, err := aead.New(dkBytes)
	zeroBytes(dkBytes)
	if err != nil {
		return nil, vaulterr.Wrap(vaulterr.CodeCrypto, "build aead cascade", err)
	}

	store, err := recordstore.Open(p.Open)
	if err != nil {
		return nil, err
	}
	store.SetKey(casc)
	if err := store.Put(canaryNamespace, canaryKey, []byte(canaryValue), nil, nil); err != nil {
		_ = store.Close()
		return nil, err
	}

	authority, err := session.NewAuthority(vid, cfg.sessionTTL())
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	metrics.VaultState.Set(float64(StateOpen))
	logger.Info("vault created", logger.String("vid", vid), logger.String("path", path))

	releaseLock = false
	return &Controller{
		paths:            p,
		state:            StateOpen,
		keys:             keys,
		store:            store,
		authority:        authority,
		compression:      cfg.compressionLevel(),
		compressionCodec: cfg.compressionCodec(),
		kdfParams:        kdfParams,
		vid:              vid,
		salt:             salt,
		params:           prm,
		dk:               casc,
		lock:             lk,
	}, nil
}

// Open attaches a Controller to an existing vault without unlocking it,
// returning the on-disk state (Sealed or Closed) it found.
func Open(path string, keys keystore.Backend, cfg Config) (*Controller, error) {
	p := lifecycle.PathsFor(path)
	if err := lifecycle.SweepTemp(p); err != nil {
		return nil, err
	}
	diskState, err := lifecycle.Detect(p)
	if err != nil {
		return nil, err
	}

	lk, err := acquireLock(p, cfg.lockTimeout())
	if err != nil {
		return nil, err
	}
	releaseLock := true
	defer func() {
		if releaseLock {
			_ = lk.Release()
		}
	}()

	salt, err := os.ReadFile(p.Salt)
	if err != nil {
		return nil, vaulterr.Wrap(vaulterr.CodeIO, "read salt file", err)
	}
	prm, err := readParams(p.Params)
	if err != nil {
		return nil, err
	}

	var state State
	var store *recordstore.Store
	switch diskState {
	case lifecycle.StateSealed, lifecycle.StateInconsistent:
		state = StateSealed
	case lifecycle.StateOpen:
		state = StateClosed
		store, err = recordstore.Open(p.Open)
		if err != nil {
			return nil, err
		}
	default:
		return nil, vaulterr.New(vaulterr.CodeNotFound, "no vault exists at this path")
	}

	authority, err := session.NewAuthority(prm.VID, cfg.sessionTTL())
	if err != nil {
		return nil, err
	}

	metrics.VaultState.Set(float64(state))

	releaseLock = false
	return &Controller{
		paths:            p,
		state:            state,
		keys:             keys,
		store:            store,
		authority:        authority,
		compression:      cfg.compressionLevel(),
		compressionCodec: cfg.compressionCodec(),
		kdfParams:        kdf.Params{MemoryCostKiB: prm.MemoryCostKiB, TimeCost: prm.TimeCost, Parallelism: prm.Parallelism},
		vid:              prm.VID,
		salt:             salt,
		params:           prm,
		lock:             lk,
	}, nil
}

// State reports the controller's current lifecycle position.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// VID returns the vault's identifier, stable across lock/unlock cycles.
func (c *Controller) VID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.vid
}

// Unlock derives DK from passphrase and, on success, transitions
// Closed→Open. A decryption failure against the canary record is
// reported as CodeWrongPassword without revealing which internal check
// failed.
func (c *Controller) Unlock(passphrase string) error {
	c.mu.Lock()
	if c.state == StateSealed {
		c.mu.Unlock()
		return vaulterr.New(vaulterr.CodeSealed, "vault is sealed; unarmor before unlocking")
	}
	if c.state != StateClosed {
		state := c.state
		c.mu.Unlock()
		return vaulterr.New(vaulterr.CodeLocked, fmt.Sprintf("cannot unlock from state %s", state))
	}
	salt, kdfParams, wantDigest := c.salt, c.kdfParams, c.params.DKDigest
	c.mu.Unlock()

	// Argon2id runs off the bounded kdf worker pool without c.mu held, so
	// State/VID/Get/Put on other open vaults aren't blocked for the
	// duration of the derivation.
	dkBytes, err := deriveKeyOffloaded(context.Background(), passphrase, salt, kdfParams)
	if err != nil {
		return vaulterr.Wrap(vaulterr.CodeCrypto, "derive key", err)
	}
	digest, digestErr := dkDigest(dkBytes, salt)
	digestOK := digestErr == nil && hash.Equal(digest, wantDigest)

	casc, err := aead.New(dkBytes)
	zeroBytes(dkBytes)
	if err != nil {
		return vaulterr.Wrap(vaulterr.CodeCrypto, "build aead cascade", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StateClosed {
		return vaulterr.New(vaulterr.CodeLocked, fmt.Sprintf("vault state changed to %s during unlock", c.state))
	}

	c.store.SetKey(casc)
	value, getErr := c.store.Get(canaryNamespace, canaryKey)
	valueOK := getErr == nil && subtle.ConstantTimeCompare(value, []byte(canaryValue)) == 1

	if !valueOK || !digestOK {
		c.store.ClearKey()
		metrics.UnlockAttempts.WithLabelValues("wrong_passphrase").Inc()
		logger.Warn("unlock rejected: wrong passphrase", logger.String("vid", c.vid))
		return vaulterr.New(vaulterr.CodeWrongPassword, "passphrase does not unlock this vault")
	}

	c.dk = casc
	c.state = StateOpen
	metrics.UnlockAttempts.WithLabelValues("success").Inc()
	metrics.VaultState.Set(float64(StateOpen))
	logger.Info("vault unlocked", logger.String("vid", c.vid))
	return nil
}

// Lock clears DK and any in-memory secrets: Open→Closed.
func (c *Controller) Lock() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lockLocked()
}

func (c *Controller) lockLocked() error {
	if c.state != StateOpen {
		return nil
	}
	c.store.ClearKey()
	// The cascade holds initialized cipher.AEAD state, not a raw key
	// slice, so there is nothing left to zero here: the passphrase-
	// derived bytes it was built from are already zeroed at derivation
	// time in Create/Unlock/ChangePassphrase.
	c.dk = nil
	c.state = StateClosed
	metrics.VaultState.Set(float64(StateClosed))
	return nil
}

func zeroBytes(b []byte) {
	for i := range b {
		b[i] = 0
	}
}

// persistKeypair stores the marshaled public and private halves of kp
// under keyID and keyID+".pub" respectively.
func persistKeypair(keys keystore.Backend, keyID string, kp *kem.KeyPair) error {
	priv, err := kp.MarshalPrivate()
	if err != nil {
		return vaulterr.Wrap(vaulterr.CodeCrypto, "marshal kem private key", err)
	}
	pub, err := kp.MarshalPublic()
	if err != nil {
		return vaulterr.Wrap(vaulterr.CodeCrypto, "marshal kem public key", err)
	}
	if err := keys.Put(keyID, priv); err != nil {
		return vaulterr.Wrap(vaulterr.CodeIO, "store kem private key", err)
	}
	if err := keys.Put(keyID+".pub", pub); err != nil {
		return vaulterr.Wrap(vaulterr.CodeIO, "store kem public key", err)
	}
	return nil
}

func writeParams(path string, p params) error {
	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("vault: marshal params: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return vaulterr.Wrap(vaulterr.CodeIO, "write params file", err)
	}
	return nil
}

func readParams(path string) (params, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return params{}, vaulterr.Wrap(vaulterr.CodeIO, "read params file", err)
	}
	var p params
	if err := json.Unmarshal(data, &p); err != nil {
		return params{}, vaulterr.Wrap(vaulterr.CodeCorrupted, "unmarshal params file", err)
	}
	return p, nil
}
