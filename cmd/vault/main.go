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
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "vault",
	Short: "Vault CLI - post-quantum-armored secret storage",
	Long: `Vault CLI drives a single vault instance through its sealed/closed/open
lifecycle and performs record operations against it.

This tool supports:
- Vault creation and unlock/lock
- Sealing to and opening from the PQ-armored frame
- Record put/get/delete/find
- Passphrase rotation and KEM key rotation`,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.CompletionOptions.DisableDefaultCmd = true
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to config file (YAML or JSON)")
	rootCmd.PersistentFlags().StringVarP(&dataPath, "path", "p", ".vault/data", "vault data path (overrides config)")

	// Note: commands are registered in their respective files
	// - create.go: createCmd
	// - unlock.go: unlockCmd, lockCmd
	// - put.go / get.go: putCmd, getCmd
	// - armor.go: armorCmd, unarmorCmd, rotateCmd
	// - status.go: statusCmd
	// - identity.go: identityCmd
}
