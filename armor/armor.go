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

// Package armor implements the post-quantum armor frame that protects the
// vault's record store at rest: a KEM-wrapped AEAD cascade key sealing an
// optionally compressed snapshot of the store.
//
// Frame layout:
//
//	magic (7 bytes)        "VAULTPQ"
//	version (1 byte)       format version, currently 1
//	scheme len (1 byte)    length of the KEM scheme name
//	scheme name (var)      e.g. "ML-KEM-768"
//	key id len (4 bytes)   u32 little-endian
//	key id (var)           UTF-8 identifier of the wrapping keypair
//	kem ct len (4 bytes)   u32 little-endian
//	kem ciphertext (var)   KEM encapsulation ciphertext
//	codec (1 byte)         compress.Codec tag, 0 (CodecNone) if uncompressed
//	sealed payload (rest)  AEAD-cascade ciphertext over the store bytes
package armor

import (
	"bytes"
	"encoding/binary"
	"fmt"

	circlkem "github.com/cloudflare/circl/kem"

	"github.com/sage-x-project/vault/internal/metrics"
	"github.com/sage-x-project/vault/primitive/aead"
	"github.com/sage-x-project/vault/primitive/compress"
	"github.com/sage-x-project/vault/primitive/kem"
	"github.com/sage-x-project/vault/vaulterr"
)

var magic = []byte("VAULTPQ")

const version = 1

// associatedData binds the sealed payload to the frame header so a header
// swap (different key id or scheme) invalidates decryption.
func associatedData(scheme, keyID string) []byte {
	return []byte(scheme + "|" + keyID)
}

// Seal wraps data into an armor frame: a fresh shared secret is
// encapsulated to pub under scheme and used to key the AEAD cascade that
// seals the payload, optionally compressed first with codec at level
// (level is only consulted by codecs that support it, e.g. Zstd/Gzip).
func Seal(scheme string, pub circlkem.PublicKey, keyID string, data []byte, codec compress.Codec, level compress.Level) ([]byte, error) {
	metrics.CryptoOperations.WithLabelValues("seal", scheme).Inc()

	ciphertext, sharedSecret, err := kem.Encapsulate(scheme, pub)
	if err != nil {
		metrics.CryptoErrors.WithLabelValues("seal").Inc()
		return nil, vaulterr.Wrap(vaulterr.CodeCrypto, "kem encapsulation failed", err)
	}
	if len(sharedSecret) < aead.KeySize {
		metrics.CryptoErrors.WithLabelValues("seal").Inc()
		return nil, vaulterr.New(vaulterr.CodeCrypto, "shared secret shorter than cascade key size")
	}

	casc, err := aead.New(sharedSecret[:aead.KeySize])
	if err != nil {
		metrics.CryptoErrors.WithLabelValues("seal").Inc()
		return nil, vaulterr.Wrap(vaulterr.CodeCrypto, "build aead cascade", err)
	}

	payload := data
	usedCodec := compress.CodecNone
	if codec != compress.CodecNone && level != compress.LevelNone {
		compact, err := compress.CompressWith(codec, data, level)
		if err != nil {
			metrics.CryptoErrors.WithLabelValues("seal").Inc()
			return nil, vaulterr.Wrap(vaulterr.CodeCrypto, "compress payload", err)
		}
		if len(compact) < len(data) {
			payload = compact
			usedCodec = codec
		}
	}

	aad := associatedData(scheme, keyID)
	sealed, err := casc.Seal(payload, aad)
	if err != nil {
		metrics.CryptoErrors.WithLabelValues("seal").Inc()
		return nil, vaulterr.Wrap(vaulterr.CodeCrypto, "seal payload", err)
	}

	var buf bytes.Buffer
	buf.Write(magic)
	buf.WriteByte(version)
	buf.WriteByte(byte(len(scheme)))
	buf.WriteString(scheme)

	writeU32LE(&buf, uint32(len(keyID)))
	buf.WriteString(keyID)

	writeU32LE(&buf, uint32(len(ciphertext)))
	buf.Write(ciphertext)

	buf.WriteByte(byte(usedCodec))
	buf.Write(sealed)

	return buf.Bytes(), nil
}

// Open reverses Seal. priv must be the KEM private key matching the scheme
// and key id recorded in the frame header.
func Open(frame []byte, priv circlkem.PrivateKey) ([]byte, error) {
	h, rest, err := parseHeader(frame)
	if err != nil {
		return nil, err
	}

	metrics.CryptoOperations.WithLabelValues("unarmor", h.scheme).Inc()

	sharedSecret, err := kem.Decapsulate(h.scheme, priv, h.kemCiphertext)
	if err != nil {
		metrics.CryptoErrors.WithLabelValues("unarmor").Inc()
		return nil, vaulterr.Wrap(vaulterr.CodeCrypto, "kem decapsulation failed", err)
	}
	if len(sharedSecret) < aead.KeySize {
		metrics.CryptoErrors.WithLabelValues("unarmor").Inc()
		return nil, vaulterr.New(vaulterr.CodeCrypto, "shared secret shorter than cascade key size")
	}

	casc, err := aead.New(sharedSecret[:aead.KeySize])
	if err != nil {
		metrics.CryptoErrors.WithLabelValues("unarmor").Inc()
		return nil, vaulterr.Wrap(vaulterr.CodeCrypto, "build aead cascade", err)
	}

	if len(rest) < 1 {
		metrics.CryptoErrors.WithLabelValues("unarmor").Inc()
		return nil, vaulterr.New(vaulterr.CodeCorrupted, "armor frame truncated before codec tag")
	}
	codec := compress.Codec(rest[0])
	sealed := rest[1:]

	aad := associatedData(h.scheme, h.keyID)
	payload, err := casc.Open(sealed, aad)
	if err != nil {
		metrics.CryptoErrors.WithLabelValues("unarmor").Inc()
		return nil, vaulterr.Wrap(vaulterr.CodeCrypto, "open sealed payload", err)
	}

	if codec != compress.CodecNone {
		payload, err = compress.DecompressWith(codec, payload)
		if err != nil {
			metrics.CryptoErrors.WithLabelValues("unarmor").Inc()
			return nil, vaulterr.Wrap(vaulterr.CodeCorrupted, "decompress payload", err)
		}
	}
	return payload, nil
}

// Header exposes the metadata recorded in an armor frame without needing
// the private key, so callers can pick the right key before opening.
type Header struct {
	Scheme        string
	KeyID         string
	KemCiphertext []byte
}

func (h Header) String() string {
	return fmt.Sprintf("armor.Header{Scheme: %s, KeyID: %s}", h.Scheme, h.KeyID)
}

type header struct {
	scheme        string
	keyID         string
	kemCiphertext []byte
}

// PeekHeader parses and returns only the frame header.
func PeekHeader(frame []byte) (Header, error) {
	h, _, err := parseHeader(frame)
	if err != nil {
		return Header{}, err
	}
	return Header{Scheme: h.scheme, KeyID: h.keyID, KemCiphertext: h.kemCiphertext}, nil
}

func parseHeader(frame []byte) (header, []byte, error) {
	if len(frame) < len(magic)+1+1 {
		return header{}, nil, vaulterr.New(vaulterr.CodeCorrupted, "armor frame too short")
	}
	if !bytes.Equal(frame[:len(magic)], magic) {
		return header{}, nil, vaulterr.New(vaulterr.CodeCorrupted, "armor frame magic mismatch")
	}
	cursor := len(magic)

	ver := frame[cursor]
	cursor++
	if ver != version {
		return header{}, nil, vaulterr.New(vaulterr.CodeCorrupted, fmt.Sprintf("unsupported armor version %d", ver))
	}

	schemeLen := int(frame[cursor])
	cursor++
	if len(frame) < cursor+schemeLen {
		return header{}, nil, vaulterr.New(vaulterr.CodeCorrupted, "armor frame truncated in scheme name")
	}
	scheme := string(frame[cursor : cursor+schemeLen])
	cursor += schemeLen

	keyIDLen, err := readU32LE(frame, cursor)
	if err != nil {
		return header{}, nil, err
	}
	cursor += 4
	if len(frame) < cursor+int(keyIDLen) {
		return header{}, nil, vaulterr.New(vaulterr.CodeCorrupted, "armor frame truncated in key id")
	}
	keyID := string(frame[cursor : cursor+int(keyIDLen)])
	cursor += int(keyIDLen)

	ctLen, err := readU32LE(frame, cursor)
	if err != nil {
		return header{}, nil, err
	}
	cursor += 4
	if len(frame) < cursor+int(ctLen) {
		return header{}, nil, vaulterr.New(vaulterr.CodeCorrupted, "armor frame truncated in kem ciphertext")
	}
	ciphertext := frame[cursor : cursor+int(ctLen)]
	cursor += int(ctLen)

	return header{scheme: scheme, keyID: keyID, kemCiphertext: ciphertext}, frame[cursor:], nil
}

func writeU32LE(buf *bytes.Buffer, v uint32) {
	var tmp [4]byte
	binary.LittleEndian.PutUint32(tmp[:], v)
	buf.Write(tmp[:])
}

func readU32LE(data []byte, offset int) (uint32, error) {
	if len(data) < offset+4 {
		return 0, vaulterr.New(vaulterr.CodeCorrupted, "armor frame truncated reading length prefix")
	}
	return binary.LittleEndian.Uint32(data[offset : offset+4]), nil
}
