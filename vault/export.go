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

package vault

import (
	"bytes"
	"encoding/binary"

	circlkem "github.com/cloudflare/circl/kem"
	"github.com/google/uuid"

	"github.com/sage-x-project/vault/internal/metrics"
	"github.com/sage-x-project/vault/primitive/kem"
	"github.com/sage-x-project/vault/session"
	"github.com/sage-x-project/vault/vaulterr"
)

// exportMagic tags an export frame so ImportRecord can reject anything
// else handed to it by mistake.
var exportMagic = []byte("VAULTEX1")

// ExportRecord packages the current value at (ns, key) into a standalone
// encrypted frame a peer holding the matching KEM private key can open
// with ImportRecord, without unarmoring the whole store. A fresh KEM
// shared secret keys a one-shot session.Manager session so the exported
// frame carries its own replay-guarded AEAD channel independent of the
// vault's own armor cascade.
func (c *Controller) ExportRecord(ns, key, scheme string, peerPub circlkem.PublicKey) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state == StateSealed {
		return nil, vaulterr.New(vaulterr.CodeSealed, "export requires the vault to be open; unarmor first")
	}
	if c.state != StateOpen {
		return nil, vaulterr.New(vaulterr.CodeLocked, "export requires the vault to be open")
	}

	value, err := c.store.Get(ns, key)
	if err != nil {
		return nil, err
	}

	metrics.CryptoOperations.WithLabelValues("export", scheme).Inc()

	kemCiphertext, sharedSecret, err := kem.Encapsulate(scheme, peerPub)
	if err != nil {
		metrics.CryptoErrors.WithLabelValues("export").Inc()
		return nil, vaulterr.Wrap(vaulterr.CodeCrypto, "kem encapsulation failed", err)
	}

	sid := uuid.NewString()
	mgr := session.NewManager()
	defer mgr.Close()

	sess, err := mgr.CreateSession(sid, sharedSecret)
	if err != nil {
		metrics.CryptoErrors.WithLabelValues("export").Inc()
		return nil, vaulterr.Wrap(vaulterr.CodeCrypto, "create export session", err)
	}

	payload, err := sess.Encrypt(value)
	if err != nil {
		metrics.CryptoErrors.WithLabelValues("export").Inc()
		return nil, vaulterr.Wrap(vaulterr.CodeCrypto, "encrypt exported record", err)
	}

	var buf bytes.Buffer
	buf.Write(exportMagic)
	buf.WriteByte(byte(len(scheme)))
	buf.WriteString(scheme)
	writeExportU32(&buf, uint32(len(sid)))
	buf.WriteString(sid)
	writeExportU32(&buf, uint32(len(kemCiphertext)))
	buf.Write(kemCiphertext)
	buf.Write(payload)

	return buf.Bytes(), nil
}

// ImportRecord reverses ExportRecord given the KEM private key matching
// the scheme recorded in the frame.
func ImportRecord(frame []byte, priv circlkem.PrivateKey) ([]byte, error) {
	scheme, sid, kemCiphertext, payload, err := parseExportFrame(frame)
	if err != nil {
		return nil, err
	}

	metrics.CryptoOperations.WithLabelValues("import", scheme).Inc()

	sharedSecret, err := kem.Decapsulate(scheme, priv, kemCiphertext)
	if err != nil {
		metrics.CryptoErrors.WithLabelValues("import").Inc()
		return nil, vaulterr.Wrap(vaulterr.CodeCrypto, "kem decapsulation failed", err)
	}

	mgr := session.NewManager()
	defer mgr.Close()

	sess, err := mgr.CreateSession(sid, sharedSecret)
	if err != nil {
		metrics.CryptoErrors.WithLabelValues("import").Inc()
		return nil, vaulterr.Wrap(vaulterr.CodeCrypto, "recreate export session", err)
	}

	value, err := sess.Decrypt(payload)
	if err != nil {
		metrics.CryptoErrors.WithLabelValues("import").Inc()
		return nil, vaulterr.Wrap(vaulterr.CodeCrypto, "decrypt exported record", err)
	}
	return value, nil
}

func parseExportFrame(frame []byte) (scheme, sid string, kemCiphertext, payload []byte, err error) {
	if len(frame) < len(exportMagic)+1 {
		return "", "", nil, nil, vaulterr.New(vaulterr.CodeCorrupted, "export frame too short")
	}
	if !bytes.Equal(frame[:len(exportMagic)], exportMagic) {
		return "", "", nil, nil, vaulterr.New(vaulterr.CodeCorrupted, "export frame magic mismatch")
	}
	cursor := len(exportMagic)

	schemeLen := int(frame[cursor])
	cursor++
	if len(frame) < cursor+schemeLen {
		return "", "", nil, nil, vaulterr.New(vaulterr.CodeCorrupted, "export frame truncated in scheme name")
	}
	scheme = string(frame[cursor : cursor+schemeLen])
	cursor += schemeLen

	sidLen, err := readExportU32(frame, cursor)
	if err != nil {
		return "", "", nil, nil, err
	}
	cursor += 4
	if len(frame) < cursor+int(sidLen) {
		return "", "", nil, nil, vaulterr.New(vaulterr.CodeCorrupted, "export frame truncated in session id")
	}
	sid = string(frame[cursor : cursor+int(sidLen)])
	cursor += int(sidLen)

	ctLen, err := readExportU32(frame, cursor)
	if err != nil {
		return "", "", nil, nil, err
	}
	cursor += 4
	if len(frame) < cursor+int(ctLen) {
		return "", "", nil, nil, vaulterr.New(vaulterr.CodeCorrupted, "export frame truncated in kem ciphertext")
	}
	kemCiphertext = frame[cursor : cursor+int(ctLen)]
	cursor += int(ctLen)

	payload = frame[cursor:]
	return scheme, sid, kemCiphertext, payload, nil
}

func writeExportU32(buf *bytes.Buffer, v uint32) {
	var tmp [4]byte
	binary.LittleEndian.PutUint32(tmp[:], v)
	buf.Write(tmp[:])
}

func readExportU32(data []byte, offset int) (uint32, error) {
	if len(data) < offset+4 {
		return 0, vaulterr.New(vaulterr.CodeCorrupted, "export frame truncated reading length prefix")
	}
	return binary.LittleEndian.Uint32(data[offset : offset+4]), nil
}
