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

// Package recordstore is the vault's persistent namespaced key-value
// table: each namespace is a bbolt bucket, values are AEAD-sealed under
// the unlocked DK, and keys/metadata stay in the clear since the armor
// frame above provides whole-file confidentiality.
package recordstore

import "time"

// Record is the logical value stored under a key: the caller-supplied
// bytes plus plaintext metadata and an optional advisory expiry.
type Record struct {
	Value     []byte
	Metadata  map[string]string
	CreatedAt time.Time
	UpdatedAt time.Time
	ExpiresAt *time.Time
}

// Expired reports whether the record's TTL, if any, has elapsed as of now.
func (r Record) Expired(now time.Time) bool {
	return r.ExpiresAt != nil && now.After(*r.ExpiresAt)
}

// envelope is the on-disk JSON shape of a Record, stored AEAD-sealed.
type envelope struct {
	Value     []byte            `json:"value"`
	Metadata  map[string]string `json:"metadata,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`
	ExpiresAt *time.Time        `json:"expires_at,omitempty"`
}
