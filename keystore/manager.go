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

package keystore

// Manager operates a single active key-material backend, swappable at
// runtime (e.g. when the lifecycle driver migrates from memory to an
// on-disk backend after first unlock).
type Manager struct {
	backend Backend
}

// NewManager creates a manager bound to the given backend.
func NewManager(backend Backend) *Manager {
	return &Manager{backend: backend}
}

// SetBackend swaps the active backend.
func (m *Manager) SetBackend(b Backend) {
	m.backend = b
}

func (m *Manager) Put(id string, material []byte) error { return m.backend.Put(id, material) }
func (m *Manager) Get(id string) ([]byte, error)         { return m.backend.Get(id) }
func (m *Manager) Delete(id string) error                { return m.backend.Delete(id) }
func (m *Manager) List() ([]string, error)               { return m.backend.List() }
func (m *Manager) Exists(id string) bool                 { return m.backend.Exists(id) }
