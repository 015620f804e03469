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

var unlockCmd = &cobra.Command{
	Use:   "unlock",
	Short: "Unlock a closed vault",
	RunE:  runUnlock,
}

var lockCmd = &cobra.Command{
	Use:   "lock",
	Short: "Lock an open vault",
	RunE:  runLock,
}

func init() {
	rootCmd.AddCommand(unlockCmd)
	rootCmd.AddCommand(lockCmd)
}

func openExisting(cmd *cobra.Command) (*vault.Controller, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	keys, err := newKeyStore(cfg)
	if err != nil {
		return nil, err
	}
	return vault.Open(dataPath, keys, vaultConfig(cfg))
}

func runUnlock(cmd *cobra.Command, args []string) error {
	c, err := openExisting(cmd)
	if err != nil {
		return err
	}
	defer c.Close()

	if c.State() != vault.StateClosed {
		return fmt.Errorf("vault is %s, unarmor it first", c.State())
	}

	passphrase, err := readPassphrase("Passphrase: ")
	if err != nil {
		return err
	}
	if err := c.Unlock(passphrase); err != nil {
		return err
	}
	fmt.Println("vault unlocked")
	return nil
}

func runLock(cmd *cobra.Command, args []string) error {
	c, err := openExisting(cmd)
	if err != nil {
		return err
	}
	defer c.Close()

	if err := c.Lock(); err != nil {
		return err
	}
	fmt.Println("vault locked")
	return nil
}
