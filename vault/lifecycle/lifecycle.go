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

// Package lifecycle detects a vault's on-disk state from the presence of
// its <path>.sealed and <path>.open siblings, sweeps stale .tmp files left
// by an aborted transition, and holds the advisory cross-process lockfile.
package lifecycle

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/gofrs/flock"
)

// State is the on-disk shape detected next to a vault path.
type State int

const (
	// StateAbsent means neither the sealed nor open form exists: the
	// vault has never been created at this path.
	StateAbsent State = iota
	StateSealed
	StateOpen
	// StateInconsistent means both .sealed and .open exist, which only
	// happens after a crash mid-transition. Sealed wins.
	StateInconsistent
)

func (s State) String() string {
	switch s {
	case StateAbsent:
		return "absent"
	case StateSealed:
		return "sealed"
	case StateOpen:
		return "open"
	case StateInconsistent:
		return "inconsistent"
	default:
		return "unknown"
	}
}

// Paths collects the sibling file names derived from a vault's base path.
type Paths struct {
	Base   string
	Sealed string
	Open   string
	Salt   string
	Params string
	Lock   string
}

// PathsFor derives the standard sibling paths from a vault's base path.
func PathsFor(base string) Paths {
	return Paths{
		Base:   base,
		Sealed: base + ".sealed",
		Open:   base + ".open",
		Salt:   base + ".salt",
		Params: base + ".params",
		Lock:   base + ".lock",
	}
}

// Detect inspects the filesystem and reports the current on-disk state,
// preferring Sealed when both forms are present.
func Detect(p Paths) (State, error) {
	sealedExists, err := exists(p.Sealed)
	if err != nil {
		return StateAbsent, err
	}
	openExists, err := exists(p.Open)
	if err != nil {
		return StateAbsent, err
	}

	switch {
	case sealedExists && openExists:
		return StateInconsistent, nil
	case sealedExists:
		return StateSealed, nil
	case openExists:
		return StateOpen, nil
	default:
		return StateAbsent, nil
	}
}

func exists(path string) (bool, error) {
	_, err := os.Stat(path)
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, fmt.Errorf("lifecycle: stat %s: %w", path, err)
}

// SweepTemp deletes any aborted-transition .tmp files left next to base.
func SweepTemp(p Paths) error {
	for _, candidate := range []string{p.Sealed + ".tmp", p.Open + ".tmp"} {
		if err := os.Remove(candidate); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("lifecycle: remove stale temp file %s: %w", candidate, err)
		}
	}
	return nil
}

// AtomicReplace writes data to dst via a same-directory .tmp file and an
// atomic rename, so a crash mid-write never leaves a half-written dst.
func AtomicReplace(dst string, data []byte, perm os.FileMode) error {
	tmp := dst + ".tmp"
	if err := os.WriteFile(tmp, data, perm); err != nil {
		return fmt.Errorf("lifecycle: write temp file %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, dst); err != nil {
		return fmt.Errorf("lifecycle: rename %s to %s: %w", tmp, dst, err)
	}
	return nil
}

// Lock is the advisory cross-process lockfile described by spec section
// 6's P.lock: a flock-backed file that other vault processes honor so
// only one process has the store open at a time.
type Lock struct {
	flock *flock.Flock
	path  string
}

// NewLock builds a Lock handle for the given path; it does not acquire
// the lock until Acquire is called.
func NewLock(path string) *Lock {
	return &Lock{flock: flock.New(path), path: path}
}

// Acquire attempts to take the lock within timeout, returning false if
// another live process already holds it.
func (l *Lock) Acquire(timeout time.Duration) (bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	locked, err := l.flock.TryLockContext(ctx, 50*time.Millisecond)
	if err != nil {
		return false, fmt.Errorf("lifecycle: acquire lock %s: %w", l.path, err)
	}
	return locked, nil
}

// Release drops the lock.
func (l *Lock) Release() error {
	return l.flock.Unlock()
}
