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

// Package rotation rotates the vault's own post-quantum KEM keypair that
// the armor codec uses to wrap the store key, recording history so an
// administrator can audit when and why a rekey happened.
package rotation

import (
	"fmt"
	"sync"
	"time"

	"github.com/sage-x-project/vault/keystore"
)

// Config controls rotation bookkeeping.
type Config struct {
	// KeepOldKeys retains the superseded keypair under a derived id instead
	// of discarding it, so armor frames sealed under it can still be opened.
	KeepOldKeys bool
}

// Event records a single rotation.
type Event struct {
	Timestamp time.Time
	OldKeyID  string
	NewKeyID  string
	Reason    string
}

// Generator produces a fresh keypair's material and the id it should be
// stored under. Primitive/kem.GenerateKeyPair satisfies this shape.
type Generator func() (material []byte, id string, err error)

// Rotator rotates keystore-resident keypairs identified by a stable logical
// id (e.g. "vault.kem") to a new generated keypair, keeping per-id history.
type Rotator struct {
	store     *keystore.Manager
	generate  Generator
	mu        sync.RWMutex
	config    Config
	history   map[string][]Event
	rotating  map[string]bool
}

// New creates a Rotator over store using generate to mint replacement
// keypairs.
func New(store *keystore.Manager, generate Generator) *Rotator {
	return &Rotator{
		store:    store,
		generate: generate,
		history:  make(map[string][]Event),
		rotating: make(map[string]bool),
	}
}

// SetConfig replaces the rotation configuration.
func (r *Rotator) SetConfig(config Config) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.config = config
}

// Rotate generates a new keypair, stores it at id, and returns the
// superseded material's new archival id (empty if not kept).
func (r *Rotator) Rotate(id, reason string) (archivedID string, err error) {
	r.mu.Lock()
	if r.rotating[id] {
		r.mu.Unlock()
		return "", fmt.Errorf("rotation: %s is already being rotated", id)
	}
	r.rotating[id] = true
	r.mu.Unlock()

	defer func() {
		r.mu.Lock()
		delete(r.rotating, id)
		r.mu.Unlock()
	}()

	oldMaterial, loadErr := r.store.Get(id)
	if loadErr != nil && loadErr != keystore.ErrNotFound {
		return "", loadErr
	}

	newMaterial, newID, genErr := r.generate()
	if genErr != nil {
		return "", fmt.Errorf("rotation: generate replacement for %s: %w", id, genErr)
	}

	r.mu.RLock()
	keepOld := r.config.KeepOldKeys
	r.mu.RUnlock()

	if keepOld && oldMaterial != nil {
		archivedID = fmt.Sprintf("%s.old.%d", id, time.Now().UnixNano())
		if err := r.store.Put(archivedID, oldMaterial); err != nil {
			return "", fmt.Errorf("rotation: archive old material for %s: %w", id, err)
		}
	}

	if err := r.store.Put(id, newMaterial); err != nil {
		return "", fmt.Errorf("rotation: store new material for %s: %w", id, err)
	}

	r.mu.Lock()
	r.history[id] = append(r.history[id], Event{
		Timestamp: time.Now(),
		OldKeyID:  id,
		NewKeyID:  newID,
		Reason:    reason,
	})
	r.mu.Unlock()

	return archivedID, nil
}

// History returns rotation events for id, newest first.
func (r *Rotator) History(id string) []Event {
	r.mu.RLock()
	defer r.mu.RUnlock()

	events := r.history[id]
	out := make([]Event, len(events))
	for i, e := range events {
		out[len(events)-1-i] = e
	}
	return out
}
