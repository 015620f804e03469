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

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFromFileYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "vault.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
environment: staging
vault:
  data_dir: /tmp/custom-vault
keystore:
  backend: keychain
`), 0644))

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, "staging", cfg.Environment)
	assert.Equal(t, "/tmp/custom-vault", cfg.Vault.DataDir)
	assert.Equal(t, "keychain", cfg.KeyStore.Backend)
	// defaults still apply to unset fields
	assert.Equal(t, uint32(3), cfg.KDF.TimeCost)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestLoadFromFileJSON(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "vault.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"environment":"production"}`), 0644))

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, "production", cfg.Environment)
	assert.Equal(t, ".vault", cfg.Vault.DataDir)
}

func TestDefaultsAppliedWhenEmpty(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "empty.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`{}`), 0644))

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, "file", cfg.KeyStore.Backend)
	assert.Equal(t, 9090, cfg.Metrics.Port)
}

func TestSaveAndReloadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "roundtrip.json")

	cfg := &Config{Environment: "test"}
	require.NoError(t, SaveToFile(cfg, path))

	reloaded, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, "test", reloaded.Environment)
}

func TestExpandEnvWithDefault(t *testing.T) {
	os.Unsetenv("VAULT_TEST_VAR")
	assert.Equal(t, "fallback", ExpandEnv("${VAULT_TEST_VAR:fallback}"))

	os.Setenv("VAULT_TEST_VAR", "set-value")
	defer os.Unsetenv("VAULT_TEST_VAR")
	assert.Equal(t, "set-value", ExpandEnv("${VAULT_TEST_VAR:fallback}"))
}
