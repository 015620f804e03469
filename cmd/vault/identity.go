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

	"github.com/sage-x-project/vault/keys"
)

const identityKeyID = "operator.identity"

var identityCmd = &cobra.Command{
	Use:   "identity",
	Short: "Manage the operator's Ed25519 identity keypair",
}

var identityGenerateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate an operator identity keypair and store it under the configured key-store",
	RunE:  runIdentityGenerate,
}

var identityShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the operator's public identity key as JWK",
	RunE:  runIdentityShow,
}

func init() {
	identityCmd.AddCommand(identityGenerateCmd, identityShowCmd)
	rootCmd.AddCommand(identityCmd)
}

// loadIdentity reads the operator keypair out of the key-store described
// by cfg, independent of any vault instance.
func loadIdentity(ks interface {
	Get(id string) ([]byte, error)
}) (keys.KeyPair, error) {
	blob, err := ks.Get(identityKeyID)
	if err != nil {
		return nil, fmt.Errorf("identity: no keypair found, run 'identity generate' first: %w", err)
	}
	return keys.NewJWKImporter().Import(blob, keys.FormatJWK)
}

func runIdentityGenerate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	ks, err := newKeyStore(cfg)
	if err != nil {
		return err
	}

	kp, err := keys.GenerateEd25519KeyPair()
	if err != nil {
		return err
	}
	exported, err := keys.NewJWKExporter().Export(kp, keys.FormatJWK)
	if err != nil {
		return err
	}
	if err := ks.Put(identityKeyID, exported); err != nil {
		return err
	}

	pub, err := keys.NewJWKExporter().ExportPublic(kp, keys.FormatJWK)
	if err != nil {
		return err
	}
	fmt.Printf("identity generated: id=%s\n%s\n", kp.ID(), pub)
	return nil
}

func runIdentityShow(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	ks, err := newKeyStore(cfg)
	if err != nil {
		return err
	}

	kp, err := loadIdentity(ks)
	if err != nil {
		return err
	}
	pub, err := keys.NewJWKExporter().ExportPublic(kp, keys.FormatJWK)
	if err != nil {
		return err
	}
	fmt.Printf("id=%s\n%s\n", kp.ID(), pub)
	return nil
}
