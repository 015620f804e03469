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
)

var armorCmd = &cobra.Command{
	Use:   "armor",
	Short: "Seal a closed vault into its PQ-armored frame",
	RunE:  runArmor,
}

var unarmorCmd = &cobra.Command{
	Use:   "unarmor",
	Short: "Open a sealed vault's PQ-armored frame back to closed",
	RunE:  runUnarmor,
}

var rotateCmd = &cobra.Command{
	Use:   "rotate-key [reason]",
	Short: "Rotate the vault's KEM keypair",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runRotate,
}

func init() {
	rootCmd.AddCommand(armorCmd, unarmorCmd, rotateCmd)
}

func runArmor(cmd *cobra.Command, args []string) error {
	c, err := openExisting(nil)
	if err != nil {
		return err
	}
	defer c.Close()

	if err := c.Armor(); err != nil {
		return err
	}
	fmt.Println("vault sealed")
	return nil
}

func runUnarmor(cmd *cobra.Command, args []string) error {
	c, err := openExisting(nil)
	if err != nil {
		return err
	}
	defer c.Close()

	if err := c.Unarmor(); err != nil {
		return err
	}
	fmt.Println("vault closed")
	return nil
}

func runRotate(cmd *cobra.Command, args []string) error {
	reason := "manual rotation"
	if len(args) == 1 {
		reason = args[0]
	}

	c, err := openAndUnlock()
	if err != nil {
		return err
	}
	defer c.Close()

	if err := c.RotateKEMKey(reason); err != nil {
		return err
	}
	fmt.Println("kem key rotated")
	return nil
}
