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

// Package config loads and defaults the vault engine's configuration,
// mirroring the YAML-then-JSON fallback the rest of the stack uses.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root vault configuration.
type Config struct {
	Environment string         `yaml:"environment" json:"environment"`
	Vault       *VaultConfig   `yaml:"vault" json:"vault"`
	KeyStore    *KeyStoreConfig `yaml:"keystore" json:"keystore"`
	KDF         *KDFConfig     `yaml:"kdf" json:"kdf"`
	Session     *SessionConfig `yaml:"session" json:"session"`
	Logging     *LoggingConfig `yaml:"logging" json:"logging"`
	Metrics     *MetricsConfig `yaml:"metrics" json:"metrics"`
}

// VaultConfig controls the record store and lifecycle driver.
type VaultConfig struct {
	DataDir string `yaml:"data_dir" json:"data_dir"`
	// CompressionCodec names the armor codec: "zstd" (default), "gzip",
	// "bzip2", "zip", or "none".
	CompressionCodec string        `yaml:"compression_codec" json:"compression_codec"`
	CompressionLevel int           `yaml:"compression_level" json:"compression_level"`
	LockTimeout      time.Duration `yaml:"lock_timeout" json:"lock_timeout"`
	AutoLockIdle     time.Duration `yaml:"auto_lock_idle" json:"auto_lock_idle"`
}

// KeyStoreConfig selects the key-material backend.
type KeyStoreConfig struct {
	Backend       string `yaml:"backend" json:"backend"` // memory, file, keychain, env
	Directory     string `yaml:"directory" json:"directory"`
	ServiceName   string `yaml:"service_name" json:"service_name"`
	EnvPrefix     string `yaml:"env_prefix" json:"env_prefix"`
}

// KDFConfig tunes Argon2id passphrase derivation.
type KDFConfig struct {
	MemoryCostKiB uint32 `yaml:"memory_cost_kib" json:"memory_cost_kib"`
	TimeCost      uint32 `yaml:"time_cost" json:"time_cost"`
	Parallelism   uint8  `yaml:"parallelism" json:"parallelism"`
}

// SessionConfig tunes the session authority's token lifetimes.
type SessionConfig struct {
	TokenTTL        time.Duration `yaml:"token_ttl" json:"token_ttl"`
	CleanupInterval time.Duration `yaml:"cleanup_interval" json:"cleanup_interval"`
}

// LoggingConfig controls the structured logger.
type LoggingConfig struct {
	Level  string `yaml:"level" json:"level"`
	Format string `yaml:"format" json:"format"`
	Output string `yaml:"output" json:"output"`
}

// MetricsConfig controls the Prometheus exposition endpoint.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled" json:"enabled"`
	Port    int    `yaml:"port" json:"port"`
	Path    string `yaml:"path" json:"path"`
}

// LoadFromFile reads a YAML (falling back to JSON) config file and applies
// defaults to unset fields.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		if jsonErr := json.Unmarshal(data, cfg); jsonErr != nil {
			return nil, fmt.Errorf("config: parse %s (tried YAML and JSON): %w", path, err)
		}
	}

	SubstituteEnvVars(cfg)
	setDefaults(cfg)
	return cfg, nil
}

// SaveToFile writes cfg to path, choosing JSON or YAML by extension.
func SaveToFile(cfg *Config, path string) error {
	var data []byte
	var err error
	if strings.HasSuffix(path, ".json") {
		data, err = json.MarshalIndent(cfg, "", "  ")
	} else {
		data, err = yaml.Marshal(cfg)
	}
	if err != nil {
		return fmt.Errorf("config: marshal: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}

func setDefaults(cfg *Config) {
	if cfg.Environment == "" {
		cfg.Environment = "development"
	}

	if cfg.Vault == nil {
		cfg.Vault = &VaultConfig{}
	}
	if cfg.Vault.DataDir == "" {
		cfg.Vault.DataDir = ".vault"
	}
	if cfg.Vault.CompressionLevel == 0 {
		cfg.Vault.CompressionLevel = 3
	}
	if cfg.Vault.CompressionCodec == "" {
		cfg.Vault.CompressionCodec = "zstd"
	}
	if cfg.Vault.LockTimeout == 0 {
		cfg.Vault.LockTimeout = 5 * time.Second
	}
	if cfg.Vault.AutoLockIdle == 0 {
		cfg.Vault.AutoLockIdle = 15 * time.Minute
	}

	if cfg.KeyStore == nil {
		cfg.KeyStore = &KeyStoreConfig{}
	}
	if cfg.KeyStore.Backend == "" {
		cfg.KeyStore.Backend = "file"
	}
	if cfg.KeyStore.Directory == "" {
		cfg.KeyStore.Directory = ".vault/keys"
	}
	if cfg.KeyStore.ServiceName == "" {
		cfg.KeyStore.ServiceName = "sage-vault"
	}

	if cfg.KDF == nil {
		cfg.KDF = &KDFConfig{}
	}
	if cfg.KDF.MemoryCostKiB == 0 {
		cfg.KDF.MemoryCostKiB = 64 * 1024
	}
	if cfg.KDF.TimeCost == 0 {
		cfg.KDF.TimeCost = 3
	}
	if cfg.KDF.Parallelism == 0 {
		cfg.KDF.Parallelism = 2
	}

	if cfg.Session == nil {
		cfg.Session = &SessionConfig{}
	}
	if cfg.Session.TokenTTL == 0 {
		cfg.Session.TokenTTL = 1 * time.Hour
	}
	if cfg.Session.CleanupInterval == 0 {
		cfg.Session.CleanupInterval = 30 * time.Second
	}

	if cfg.Logging == nil {
		cfg.Logging = &LoggingConfig{}
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
	if cfg.Logging.Output == "" {
		cfg.Logging.Output = "stdout"
	}

	if cfg.Metrics == nil {
		cfg.Metrics = &MetricsConfig{}
	}
	if cfg.Metrics.Port == 0 {
		cfg.Metrics.Port = 9090
	}
	if cfg.Metrics.Path == "" {
		cfg.Metrics.Path = "/metrics"
	}
}
