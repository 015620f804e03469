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

var putNamespace string

var putCmd = &cobra.Command{
	Use:   "put [key] [value]",
	Short: "Store a value under a key",
	Args:  cobra.ExactArgs(2),
	RunE:  runPut,
}

var getCmd = &cobra.Command{
	Use:   "get [key]",
	Short: "Retrieve the value stored under a key",
	Args:  cobra.ExactArgs(1),
	RunE:  runGet,
}

var deleteCmd = &cobra.Command{
	Use:   "delete [key]",
	Short: "Remove a key",
	Args:  cobra.ExactArgs(1),
	RunE:  runDelete,
}

func init() {
	for _, c := range []*cobra.Command{putCmd, getCmd, deleteCmd} {
		c.Flags().StringVarP(&putNamespace, "namespace", "n", "", "record namespace")
	}
	rootCmd.AddCommand(putCmd, getCmd, deleteCmd)
}

func openAndUnlock() (*vault.Controller, error) {
	c, err := openExisting(nil)
	if err != nil {
		return nil, err
	}
	if c.State() != vault.StateOpen {
		passphrase, err := readPassphrase("Passphrase: ")
		if err != nil {
			c.Close()
			return nil, err
		}
		if err := c.Unlock(passphrase); err != nil {
			c.Close()
			return nil, err
		}
	}
	return c, nil
}

func runPut(cmd *cobra.Command, args []string) error {
	c, err := openAndUnlock()
	if err != nil {
		return err
	}
	defer c.Close()

	if err := c.Put(putNamespace, args[0], []byte(args[1]), nil, nil); err != nil {
		return err
	}
	fmt.Println("ok")
	return nil
}

func runGet(cmd *cobra.Command, args []string) error {
	c, err := openAndUnlock()
	if err != nil {
		return err
	}
	defer c.Close()

	value, err := c.Get(putNamespace, args[0])
	if err != nil {
		return err
	}
	fmt.Println(string(value))
	return nil
}

func runDelete(cmd *cobra.Command, args []string) error {
	c, err := openAndUnlock()
	if err != nil {
		return err
	}
	defer c.Close()

	if err := c.Delete(putNamespace, args[0]); err != nil {
		return err
	}
	fmt.Println("ok")
	return nil
}
