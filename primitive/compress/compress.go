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

// Package compress is the optional pre-encryption compression stage of
// the armor frame: store bytes are compressed before the AEAD cascade
// seals them, trading a little CPU for a smaller sealed blob on disk.
// Four codecs are available behind the Codec tagged variant: Zstd
// (klauspost/compress, the default), Gzip and Zip (stdlib), and Bzip2
// (dsnet/compress for the write side, since stdlib's compress/bzip2 is
// decode-only).
package compress

import (
	"archive/zip"
	"bytes"
	"compress/bzip2"
	"compress/gzip"
	"fmt"
	"io"

	dsnetbzip2 "github.com/dsnet/compress/bzip2"
	"github.com/klauspost/compress/zstd"
)

// Level selects a speed/ratio preset. Only Zstd and Gzip honor it; Bzip2
// and Zip compress at a fixed ratio.
type Level int

const (
	LevelNone Level = iota
	LevelFastest
	LevelDefault
	LevelBetter
	LevelBest
)

func (l Level) zstdLevel() zstd.EncoderLevel {
	switch l {
	case LevelFastest:
		return zstd.SpeedFastest
	case LevelBetter:
		return zstd.SpeedBetterCompression
	case LevelBest:
		return zstd.SpeedBestCompression
	default:
		return zstd.SpeedDefault
	}
}

func (l Level) gzipLevel() int {
	switch l {
	case LevelFastest:
		return gzip.BestSpeed
	case LevelBetter, LevelBest:
		return gzip.BestCompression
	default:
		return gzip.DefaultCompression
	}
}

// Codec selects the compression algorithm.
type Codec int

const (
	CodecNone Codec = iota
	CodecZstd
	CodecGzip
	CodecBzip2
	CodecZip
)

func (c Codec) String() string {
	switch c {
	case CodecZstd:
		return "zstd"
	case CodecGzip:
		return "gzip"
	case CodecBzip2:
		return "bzip2"
	case CodecZip:
		return "zip"
	default:
		return "none"
	}
}

// zipEntryName is the single archive member used when a blob is packed
// with CodecZip; the caller only ever has one logical payload.
const zipEntryName = "data"

// CompressWith compresses data with the given codec at level (Gzip and
// Zstd only; ignored otherwise). CodecNone returns data unchanged.
func CompressWith(codec Codec, data []byte, level Level) ([]byte, error) {
	switch codec {
	case CodecNone:
		return data, nil
	case CodecZstd:
		return compressZstd(data, level)
	case CodecGzip:
		return compressGzip(data, level)
	case CodecBzip2:
		return compressBzip2(data)
	case CodecZip:
		return compressZip(data)
	default:
		return nil, fmt.Errorf("compress: unknown codec %d", codec)
	}
}

// Compress is the Zstd-specific convenience the armor codec already used
// before Codec existed; equivalent to CompressWith(CodecZstd, data, level).
func Compress(data []byte, level Level) ([]byte, error) {
	return CompressWith(CodecZstd, data, level)
}

func compressZstd(data []byte, level Level) ([]byte, error) {
	if level == LevelNone {
		return data, nil
	}
	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(level.zstdLevel()))
	if err != nil {
		return nil, fmt.Errorf("compress: new zstd encoder: %w", err)
	}
	defer enc.Close()
	return enc.EncodeAll(data, make([]byte, 0, len(data))), nil
}

func compressGzip(data []byte, level Level) ([]byte, error) {
	var buf bytes.Buffer
	w, err := gzip.NewWriterLevel(&buf, level.gzipLevel())
	if err != nil {
		return nil, fmt.Errorf("compress: new gzip writer: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		return nil, fmt.Errorf("compress: gzip write: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("compress: gzip close: %w", err)
	}
	return buf.Bytes(), nil
}

// bzip2DefaultLevel mirrors flate's DefaultCompression convention that
// dsnet/compress's WriterConfig.Level follows.
const bzip2DefaultLevel = -1

func compressBzip2(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	w, err := dsnetbzip2.NewWriter(&buf, &dsnetbzip2.WriterConfig{Level: bzip2DefaultLevel})
	if err != nil {
		return nil, fmt.Errorf("compress: new bzip2 writer: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		return nil, fmt.Errorf("compress: bzip2 write: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("compress: bzip2 close: %w", err)
	}
	return buf.Bytes(), nil
}

func compressZip(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	entry, err := w.Create(zipEntryName)
	if err != nil {
		return nil, fmt.Errorf("compress: new zip entry: %w", err)
	}
	if _, err := entry.Write(data); err != nil {
		return nil, fmt.Errorf("compress: zip write: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("compress: zip close: %w", err)
	}
	return buf.Bytes(), nil
}

// magic prefixes used to auto-detect the codec a blob was compressed
// with, so Decompress doesn't need the codec passed back in.
var (
	zstdMagic  = []byte{0x28, 0xb5, 0x2f, 0xfd}
	gzipMagic  = []byte{0x1f, 0x8b}
	bzip2Magic = []byte("BZh")
	zipMagic   = []byte("PK\x03\x04")
)

func detect(data []byte) Codec {
	switch {
	case bytes.HasPrefix(data, zstdMagic):
		return CodecZstd
	case bytes.HasPrefix(data, gzipMagic):
		return CodecGzip
	case bytes.HasPrefix(data, bzip2Magic):
		return CodecBzip2
	case bytes.HasPrefix(data, zipMagic):
		return CodecZip
	default:
		return CodecNone
	}
}

// DecompressWith reverses CompressWith for a known codec, without relying
// on magic-byte sniffing. Prefer this when the codec was recorded
// alongside the data (e.g. in a frame header).
func DecompressWith(codec Codec, data []byte) ([]byte, error) {
	switch codec {
	case CodecNone:
		return data, nil
	case CodecZstd:
		return decompressZstd(data)
	case CodecGzip:
		return decompressGzip(data)
	case CodecBzip2:
		return decompressBzip2(data)
	case CodecZip:
		return decompressZip(data)
	default:
		return nil, fmt.Errorf("compress: unknown codec %d", codec)
	}
}

// Decompress reverses CompressWith/Compress, auto-detecting the codec
// from the data's magic prefix. Data with no recognized magic is
// returned unchanged, so callers that compressed conditionally can
// decompress unconditionally. Corrupted input fails with a distinct
// error rather than silently passing through.
func Decompress(data []byte) ([]byte, error) {
	switch detect(data) {
	case CodecZstd:
		return decompressZstd(data)
	case CodecGzip:
		return decompressGzip(data)
	case CodecBzip2:
		return decompressBzip2(data)
	case CodecZip:
		return decompressZip(data)
	default:
		return data, nil
	}
}

func decompressZstd(data []byte) ([]byte, error) {
	dec, err := zstd.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("compress: new zstd decoder: %w", err)
	}
	defer dec.Close()
	out, err := io.ReadAll(dec)
	if err != nil {
		return nil, fmt.Errorf("compress: zstd decode: %w", err)
	}
	return out, nil
}

func decompressGzip(data []byte) ([]byte, error) {
	r, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("compress: new gzip reader: %w", err)
	}
	defer r.Close()
	out, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("compress: gzip decode: %w", err)
	}
	return out, nil
}

func decompressBzip2(data []byte) ([]byte, error) {
	out, err := io.ReadAll(bzip2.NewReader(bytes.NewReader(data)))
	if err != nil {
		return nil, fmt.Errorf("compress: bzip2 decode: %w", err)
	}
	return out, nil
}

func decompressZip(data []byte) ([]byte, error) {
	r, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("compress: new zip reader: %w", err)
	}
	if len(r.File) == 0 {
		return nil, fmt.Errorf("compress: zip archive has no entries")
	}
	f, err := r.File[0].Open()
	if err != nil {
		return nil, fmt.Errorf("compress: open zip entry: %w", err)
	}
	defer f.Close()
	out, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("compress: zip decode: %w", err)
	}
	return out, nil
}
