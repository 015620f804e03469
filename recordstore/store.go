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

package recordstore

import (
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"sync"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/sage-x-project/vault/primitive/aead"
	"github.com/sage-x-project/vault/vaulterr"
)

// maxPatternLength bounds find() patterns to avoid pathological regex
// backtracking, mirroring the guard the vault engine this is based on
// applies before calling into its regex engine.
const maxPatternLength = 100

// Store is the namespaced record table. It holds no key material of its
// own: SetKey must be called with the unlocked DK before any operation,
// and ClearKey on lock.
type Store struct {
	db *bolt.DB

	mu sync.RWMutex
	dk *aead.Cascade
}

// Open opens (creating if absent) the bbolt file at path.
func Open(path string) (*Store, error) {
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: 5 * time.Second})
	if err != nil {
		return nil, vaulterr.Wrap(vaulterr.CodeIO, "open record store file", err)
	}
	return &Store{db: db}, nil
}

// Close releases the underlying bbolt file handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// SetKey arms the store with the unlocked DK.
func (s *Store) SetKey(dk *aead.Cascade) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dk = dk
}

// ClearKey disarms the store, causing every operation to fail with
// vaulterr.CodeLocked until SetKey is called again.
func (s *Store) ClearKey() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dk = nil
}

func (s *Store) key() (*aead.Cascade, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.dk == nil {
		return nil, vaulterr.New(vaulterr.CodeLocked, "record store is locked")
	}
	return s.dk, nil
}

func (s *Store) seal(ns string, rec envelope) ([]byte, error) {
	dk, err := s.key()
	if err != nil {
		return nil, err
	}
	plain, err := json.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("recordstore: marshal record: %w", err)
	}
	return dk.Seal(plain, []byte(ns))
}

func (s *Store) open(ns string, sealed []byte) (envelope, error) {
	dk, err := s.key()
	if err != nil {
		return envelope{}, err
	}
	plain, err := dk.Open(sealed, []byte(ns))
	if err != nil {
		return envelope{}, vaulterr.Wrap(vaulterr.CodeCrypto, "decrypt record", err)
	}
	var rec envelope
	if err := json.Unmarshal(plain, &rec); err != nil {
		return envelope{}, vaulterr.Wrap(vaulterr.CodeCorrupted, "unmarshal record", err)
	}
	return rec, nil
}

// Put inserts or overwrites (ns, k).
func (s *Store) Put(ns, k string, value []byte, metadata map[string]string, ttl *time.Duration) error {
	now := time.Now()
	rec := envelope{Value: value, Metadata: metadata, CreatedAt: now, UpdatedAt: now}
	if existing, err := s.getEnvelope(ns, k); err == nil {
		rec.CreatedAt = existing.CreatedAt
	}
	if ttl != nil {
		exp := now.Add(*ttl)
		rec.ExpiresAt = &exp
	}
	return s.putEnvelope(ns, k, rec)
}

// PutRecord writes rec verbatim under (ns, k), preserving its own
// CreatedAt/UpdatedAt/ExpiresAt instead of stamping them from time.Now().
// Used when re-sealing existing records under a new key (e.g. a
// passphrase change) so a rewrite doesn't masquerade as a fresh write.
func (s *Store) PutRecord(ns, k string, rec Record) error {
	return s.putEnvelope(ns, k, envelope{
		Value:     rec.Value,
		Metadata:  rec.Metadata,
		CreatedAt: rec.CreatedAt,
		UpdatedAt: rec.UpdatedAt,
		ExpiresAt: rec.ExpiresAt,
	})
}

func (s *Store) putEnvelope(ns, k string, rec envelope) error {
	sealed, err := s.seal(ns, rec)
	if err != nil {
		return err
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		bucket, err := tx.CreateBucketIfNotExists([]byte(ns))
		if err != nil {
			return vaulterr.Wrap(vaulterr.CodeIO, "create namespace bucket", err)
		}
		return bucket.Put([]byte(k), sealed)
	})
}

// PutIfAbsent inserts (ns, k) only if it does not already exist (or has
// expired), returning whether the insert happened.
func (s *Store) PutIfAbsent(ns, k string, value []byte, metadata map[string]string, ttl *time.Duration) (bool, error) {
	if _, err := s.key(); err != nil {
		return false, err
	}
	if _, err := s.Get(ns, k); err == nil {
		return false, nil
	}
	if err := s.Put(ns, k, value, metadata, ttl); err != nil {
		return false, err
	}
	return true, nil
}

// Entry is one (key, value) pair in a batch Put or a Find result.
type Entry struct {
	Key   string
	Value []byte
}

// PutAll inserts entries as a single all-or-nothing batch.
func (s *Store) PutAll(ns string, entries []Entry) error {
	if _, err := s.key(); err != nil {
		return err
	}
	now := time.Now()
	sealedEntries := make(map[string][]byte, len(entries))
	for _, e := range entries {
		rec := envelope{Value: e.Value, CreatedAt: now, UpdatedAt: now}
		sealed, err := s.seal(ns, rec)
		if err != nil {
			return err
		}
		sealedEntries[e.Key] = sealed
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		bucket, err := tx.CreateBucketIfNotExists([]byte(ns))
		if err != nil {
			return vaulterr.Wrap(vaulterr.CodeIO, "create namespace bucket", err)
		}
		for k, sealed := range sealedEntries {
			if err := bucket.Put([]byte(k), sealed); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *Store) getEnvelope(ns, k string) (envelope, error) {
	var sealed []byte
	err := s.db.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(ns))
		if bucket == nil {
			return vaulterr.New(vaulterr.CodeNotFound, "namespace not found")
		}
		raw := bucket.Get([]byte(k))
		if raw == nil {
			return vaulterr.New(vaulterr.CodeNotFound, "key not found")
		}
		sealed = append([]byte(nil), raw...)
		return nil
	})
	if err != nil {
		return envelope{}, err
	}
	return s.open(ns, sealed)
}

// Get returns the value at (ns, k), or CodeNotFound if absent or expired.
func (s *Store) Get(ns, k string) ([]byte, error) {
	rec, err := s.GetRecord(ns, k)
	if err != nil {
		return nil, err
	}
	return rec.Value, nil
}

// GetRecord returns the full Record at (ns, k) — value, metadata, and
// timestamps — or CodeNotFound if absent or expired. Callers that need to
// preserve metadata/TTL across a rewrite (e.g. a passphrase-driven
// re-encryption pass) should use this instead of Get.
func (s *Store) GetRecord(ns, k string) (Record, error) {
	if _, err := s.key(); err != nil {
		return Record{}, err
	}
	env, err := s.getEnvelope(ns, k)
	if err != nil {
		return Record{}, err
	}
	if env.ExpiresAt != nil && time.Now().After(*env.ExpiresAt) {
		return Record{}, vaulterr.New(vaulterr.CodeNotFound, "key expired")
	}
	return Record{
		Value:     env.Value,
		Metadata:  env.Metadata,
		CreatedAt: env.CreatedAt,
		UpdatedAt: env.UpdatedAt,
		ExpiresAt: env.ExpiresAt,
	}, nil
}

// Delete removes (ns, k). Absence is success, per the store's idempotent
// delete semantics.
func (s *Store) Delete(ns, k string) error {
	if _, err := s.key(); err != nil {
		return err
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(ns))
		if bucket == nil {
			return nil
		}
		return bucket.Delete([]byte(k))
	})
}

// List returns keys in ns, optionally filtered to a prefix.
func (s *Store) List(ns, prefix string) ([]string, error) {
	if _, err := s.key(); err != nil {
		return nil, err
	}
	var keys []string
	err := s.db.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(ns))
		if bucket == nil {
			return nil
		}
		return bucket.ForEach(func(k, _ []byte) error {
			if prefix == "" || strings.HasPrefix(string(k), prefix) {
				keys = append(keys, string(k))
			}
			return nil
		})
	})
	if err != nil {
		return nil, vaulterr.Wrap(vaulterr.CodeIO, "list namespace", err)
	}
	sort.Strings(keys)
	return keys, nil
}

// ListNamespaces returns every namespace with at least one bucket.
func (s *Store) ListNamespaces() ([]string, error) {
	if _, err := s.key(); err != nil {
		return nil, err
	}
	var namespaces []string
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.ForEach(func(name []byte, _ *bolt.Bucket) error {
			namespaces = append(namespaces, string(name))
			return nil
		})
	})
	if err != nil {
		return nil, vaulterr.Wrap(vaulterr.CodeIO, "list namespaces", err)
	}
	sort.Strings(namespaces)
	return namespaces, nil
}

// isDangerousPattern flags patterns too long or shaped to cause
// catastrophic regex backtracking.
func isDangerousPattern(pattern string) bool {
	return len(pattern) > maxPatternLength || strings.Contains(pattern, "(.*){")
}

// Find returns every (key, value) pair in ns whose key matches pattern.
// ".*" is special-cased to mean "everything". Patterns that fail to
// compile fall back to plain substring containment.
func (s *Store) Find(ns, pattern string) ([]Entry, error) {
	if _, err := s.key(); err != nil {
		return nil, err
	}
	if isDangerousPattern(pattern) {
		return nil, vaulterr.New(vaulterr.CodeInvalidPattern, "pattern too complex or potentially malicious")
	}

	keys, err := s.List(ns, "")
	if err != nil {
		return nil, err
	}

	var matcher func(string) bool
	if pattern == ".*" {
		matcher = func(string) bool { return true }
	} else if re, compileErr := regexp.Compile(pattern); compileErr == nil {
		matcher = re.MatchString
	} else {
		matcher = func(k string) bool { return strings.Contains(k, pattern) }
	}

	var results []Entry
	for _, k := range keys {
		if !matcher(k) {
			continue
		}
		value, getErr := s.Get(ns, k)
		if getErr != nil {
			continue
		}
		results = append(results, Entry{Key: k, Value: value})
	}
	return results, nil
}
