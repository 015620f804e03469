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
	"regexp"
	"strings"
)

// envVarPattern matches ${VAR} or ${VAR:default}.
var envVarPattern = regexp.MustCompile(`\$\{([^}:]+)(?::([^}]*))?\}`)

// ExpandEnv replaces ${VAR} or ${VAR:default} with environment values.
func ExpandEnv(input string) string {
	return envVarPattern.ReplaceAllStringFunc(input, func(match string) string {
		parts := envVarPattern.FindStringSubmatch(match)
		if len(parts) < 2 {
			return match
		}
		value := os.Getenv(parts[1])
		if value == "" && len(parts) > 2 {
			return parts[2]
		}
		return value
	})
}

// SubstituteEnvVars expands ${VAR} references across the string fields of
// cfg that commonly carry secrets or environment-dependent paths.
func SubstituteEnvVars(cfg *Config) {
	if cfg == nil {
		return
	}
	if cfg.Vault != nil {
		cfg.Vault.DataDir = ExpandEnv(cfg.Vault.DataDir)
	}
	if cfg.KeyStore != nil {
		cfg.KeyStore.Backend = ExpandEnv(cfg.KeyStore.Backend)
		cfg.KeyStore.Directory = ExpandEnv(cfg.KeyStore.Directory)
		cfg.KeyStore.ServiceName = ExpandEnv(cfg.KeyStore.ServiceName)
		cfg.KeyStore.EnvPrefix = ExpandEnv(cfg.KeyStore.EnvPrefix)
	}
	if cfg.Logging != nil {
		cfg.Logging.Level = ExpandEnv(cfg.Logging.Level)
		cfg.Logging.Format = ExpandEnv(cfg.Logging.Format)
		cfg.Logging.Output = ExpandEnv(cfg.Logging.Output)
	}
}

// Environment returns VAULT_ENV (falling back to ENVIRONMENT), defaulting
// to "development".
func Environment() string {
	env := os.Getenv("VAULT_ENV")
	if env == "" {
		env = os.Getenv("ENVIRONMENT")
	}
	if env == "" {
		env = "development"
	}
	return strings.ToLower(env)
}

// IsProduction reports whether Environment() is "production".
func IsProduction() bool {
	return Environment() == "production"
}
