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
	"os"
	"strings"
)

// envBackend reads key material from process environment variables under a
// fixed prefix. Read-only: Put/Delete are unsupported since a process
// cannot durably rewrite its own environment for other processes to see.
// Intended for bootstrapping a vault's master key-encryption-key from a
// container orchestrator's injected secret.
type envBackend struct {
	prefix string
}

// NewEnvBackend creates a read-only Backend that resolves id to the
// environment variable prefix+upper(id) with non-alphanumeric runs replaced
// by underscores, base64-decoding the value.
func NewEnvBackend(prefix string) Backend {
	return &envBackend{prefix: prefix}
}

func envName(prefix, id string) string {
	var b strings.Builder
	b.WriteString(prefix)
	for _, r := range strings.ToUpper(id) {
		if (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		} else {
			b.WriteRune('_')
		}
	}
	return b.String()
}

func (e *envBackend) Put(id string, material []byte) error { return ErrExists }
func (e *envBackend) Delete(id string) error                { return ErrNotFound }

func (e *envBackend) Get(id string) ([]byte, error) {
	raw, ok := os.LookupEnv(envName(e.prefix, id))
	if !ok {
		return nil, ErrNotFound
	}
	return base64.StdEncoding.DecodeString(raw)
}

func (e *envBackend) List() ([]string, error) {
	return nil, nil
}

func (e *envBackend) Exists(id string) bool {
	_, ok := os.LookupEnv(envName(e.prefix, id))
	return ok
}
