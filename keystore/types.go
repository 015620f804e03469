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

// Package keystore holds opaque secret key material (PQ keypair bytes,
// wrapping keys, vault salts) keyed by id, independent of how the material
// is used by higher layers.
package keystore

import "errors"

var (
	// ErrNotFound is returned when no material is stored under an id.
	ErrNotFound = errors.New("keystore: key material not found")
	// ErrExists is returned by backends that refuse to overwrite on Put.
	ErrExists = errors.New("keystore: key material already exists")
)

// Backend stores opaque key material blobs keyed by id. Implementations
// must zero any internal copy of material on Delete.
type Backend interface {
	Put(id string, material []byte) error
	Get(id string) ([]byte, error)
	Delete(id string) error
	List() ([]string, error)
	Exists(id string) bool
}
