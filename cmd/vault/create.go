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

	"github.com/spf13/cobra"

	"github.com/sage-x-project/vault/vault"
)

var createCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a new vault at --path",
	RunE:  runCreate,
}

func init() {
	rootCmd.AddCommand(createCmd)
}

func runCreate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	keys, err := newKeyStore(cfg)
	if err != nil {
		return err
	}
	passphrase, err := readPassphrase("New vault passphrase: ")
	if err != nil {
		return err
	}

	c, err := vault.Create(dataPath, keys, passphrase, vaultConfig(cfg))
	if err != nil {
		return fmt.Errorf("create vault: %w", err)
	}
	defer c.Close()

	fmt.Printf("vault created: vid=%s state=%s\n", c.VID(), c.State())
	return nil
}
