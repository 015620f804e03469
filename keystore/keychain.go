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

import (
	"encoding/base64"
	"sort"
	"sync"

	"github.com/zalando/go-keyring"
)

// keychainBackend stores key material in the OS credential manager (macOS
// Keychain, Windows Credential Manager, the Secret Service on Linux).
// go-keyring has no native List, so ids are tracked in a companion index
// entry under the same service name.
type keychainBackend struct {
	mu      sync.Mutex
	service string
}

const keychainIndexUser = "__index__"

// NewKeychainBackend creates a Backend rooted in the OS keychain under the
// given service name.
func NewKeychainBackend(service string) Backend {
	return &keychainBackend{service: service}
}

func (k *keychainBackend) readIndex() ([]string, error) {
	raw, err := keyring.Get(k.service, keychainIndexUser)
	if err != nil {
		if err == keyring.ErrNotFound {
			return nil, nil
		}
		return nil, err
	}
	if raw == "" {
		return nil, nil
	}
	ids := []string{}
	for _, part := range splitCSV(raw) {
		if part != "" {
			ids = append(ids, part)
		}
	}
	return ids, nil
}

func (k *keychainBackend) writeIndex(ids []string) error {
	sort.Strings(ids)
	return keyring.Set(k.service, keychainIndexUser, joinCSV(ids))
}

func splitCSV(s string) []string {
	var out []string
	start := 0
	for i := 0; i < len(s); i++ {
		if s[i] == ',' {
			out = append(out, s[start:i])
			start = i + 1
		}
	}
	out = append(out, s[start:])
	return out
}

func joinCSV(ids []string) string {
	out := ""
	for i, id := range ids {
		if i > 0 {
			out += ","
		}
		out += id
	}
	return out
}

func (k *keychainBackend) Put(id string, material []byte) error {
	k.mu.Lock()
	defer k.mu.Unlock()

	if err := keyring.Set(k.service, id, base64.StdEncoding.EncodeToString(material)); err != nil {
		return err
	}
	ids, err := k.readIndex()
	if err != nil {
		return err
	}
	for _, existing := range ids {
		if existing == id {
			return nil
		}
	}
	return k.writeIndex(append(ids, id))
}

func (k *keychainBackend) Get(id string) ([]byte, error) {
	k.mu.Lock()
	defer k.mu.Unlock()

	raw, err := keyring.Get(k.service, id)
	if err != nil {
		if err == keyring.ErrNotFound {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return base64.StdEncoding.DecodeString(raw)
}

func (k *keychainBackend) Delete(id string) error {
	k.mu.Lock()
	defer k.mu.Unlock()

	if err := keyring.Delete(k.service, id); err != nil {
		if err == keyring.ErrNotFound {
			return ErrNotFound
		}
		return err
	}
	ids, err := k.readIndex()
	if err != nil {
		return err
	}
	remaining := ids[:0]
	for _, existing := range ids {
		if existing != id {
			remaining = append(remaining, existing)
		}
	}
	return k.writeIndex(remaining)
}

func (k *keychainBackend) List() ([]string, error) {
	k.mu.Lock()
	defer k.mu.Unlock()

	return k.readIndex()
}

func (k *keychainBackend) Exists(id string) bool {
	_, err := k.Get(id)
	return err == nil
}
