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

package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/sage-x-project/vault/config"
	"github.com/sage-x-project/vault/internal/logger"
	"github.com/sage-x-project/vault/kdf"
	"github.com/sage-x-project/vault/keystore"
	"github.com/sage-x-project/vault/primitive/compress"
	vaultpkg "github.com/sage-x-project/vault/vault"
)

var (
	configPath string
	dataPath   string
)

// loadConfig reads the config file if one was given and applies defaults,
// falling back to an all-default config otherwise.
func loadConfig() (*config.Config, error) {
	if configPath == "" {
		cfg := &config.Config{}
		config.SubstituteEnvVars(cfg)
		return cfg, nil
	}
	return config.LoadFromFile(configPath)
}

func parseCodec(codec string) compress.Codec {
	switch strings.ToLower(codec) {
	case "gzip":
		return compress.CodecGzip
	case "bzip2":
		return compress.CodecBzip2
	case "zip":
		return compress.CodecZip
	case "none":
		return compress.CodecNone
	default:
		return compress.CodecZstd
	}
}

func parseLevel(level string) logger.Level {
	switch strings.ToLower(level) {
	case "debug":
		return logger.DebugLevel
	case "warn", "warning":
		return logger.WarnLevel
	case "error":
		return logger.ErrorLevel
	default:
		return logger.InfoLevel
	}
}

// newLogger builds the structured logger described by cfg.Logging.
func newLogger(cfg *config.Config) *logger.StructuredLogger {
	var out *os.File = os.Stdout
	if cfg.Logging != nil && cfg.Logging.Output == "stderr" {
		out = os.Stderr
	}
	level := logger.InfoLevel
	if cfg.Logging != nil {
		level = parseLevel(cfg.Logging.Level)
	}
	l := logger.NewLogger(out, level)
	if cfg.Logging != nil && cfg.Logging.Format != "json" {
		l.SetPrettyPrint(true)
	}
	return l
}

// newKeyStore builds the key-material backend described by cfg.KeyStore.
func newKeyStore(cfg *config.Config) (keystore.Backend, error) {
	ks := cfg.KeyStore
	if ks == nil {
		return keystore.NewMemoryBackend(), nil
	}
	switch ks.Backend {
	case "file":
		return keystore.NewFileBackend(ks.Directory)
	case "keychain":
		return keystore.NewKeychainBackend(ks.ServiceName), nil
	case "env":
		return keystore.NewEnvBackend(ks.EnvPrefix), nil
	default:
		return keystore.NewMemoryBackend(), nil
	}
}

// vaultConfig translates the on-disk config into vault.Config.
func vaultConfig(cfg *config.Config) vaultpkg.Config {
	vc := vaultpkg.Config{}
	if cfg.Vault != nil {
		vc.CompressionLevel = cfg.Vault.CompressionLevel
		vc.CompressionCodec = parseCodec(cfg.Vault.CompressionCodec)
		vc.LockTimeout = cfg.Vault.LockTimeout
	}
	if cfg.KDF != nil {
		vc.KDFParams = kdf.Params{
			MemoryCostKiB: cfg.KDF.MemoryCostKiB,
			TimeCost:      cfg.KDF.TimeCost,
			Parallelism:   cfg.KDF.Parallelism,
		}
	}
	if cfg.Session != nil {
		vc.SessionTTL = cfg.Session.TokenTTL
	}
	return vc
}

func readPassphrase(prompt string) (string, error) {
	fmt.Fprint(os.Stderr, prompt)
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil {
		return "", fmt.Errorf("read passphrase: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}
