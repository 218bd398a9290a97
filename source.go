/*
 * source.go, part of kinetraj.
 *
 * Copyright 2026 The kinetraj Authors
 *
 * This program is free software; you can redistribute it and/or modify
 * it under the terms of the GNU Lesser General Public License as
 * published by the Free Software Foundation; either version 2.1 of the
 * License, or (at your option) any later version.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 * GNU General Public License for more details.
 *
 * You should have received a copy of the GNU Lesser General
 * Public License along with this program.  If not, see
 * <http://www.gnu.org/licenses/>.
 *
 */

package kinetraj

import (
	"bufio"
	"compress/gzip"
	"compress/lzw"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/zstd"
)

const (
	lzwOrder        = lzw.MSB
	lzwLitwidth int = 8
)

// zstd.Decoder.Close returns nothing, so it is wrapped to satisfy
// io.ReadCloser. closeql also closes the file beneath.
type stdql struct {
	closeql func()
	*zstd.Decoder
}

func (s stdql) Close() error {
	s.closeql()
	return nil
}

// stacked closes a decompressor and then the file it reads from.
type stacked struct {
	io.Reader
	closers []io.Closer
}

func (s stacked) Close() error {
	var first error
	for _, c := range s.closers {
		if err := c.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// CompressionExt returns the compression suffix of fname (".zst", ".gz" or
// ".lzw"), or an empty string if the file is not compressed.
func CompressionExt(fname string) string {
	ext := strings.ToLower(filepath.Ext(fname))
	switch ext {
	case ".zst", ".gz", ".lzw":
		return ext
	}
	return ""
}

// BaseExt returns the extension of fname after removing any compression suffix,
// so "run.xtc.zst" gives ".xtc".
func BaseExt(fname string) string {
	c := CompressionExt(fname)
	return strings.ToLower(filepath.Ext(strings.TrimSuffix(fname, fname[len(fname)-len(c):])))
}

// OpenSource opens fname for reading. Files ending in .zst, .gz or .lzw are
// decompressed on the fly, anything else is read as is.
// Closing the returned object closes the file.
func OpenSource(fname string) (io.ReadCloser, error) {
	f, err := os.Open(fname)
	if err != nil {
		return nil, err
	}
	reader := bufio.NewReader(f)
	switch CompressionExt(fname) {
	case ".zst":
		d, err := zstd.NewReader(reader)
		if err != nil {
			f.Close()
			return nil, err
		}
		return stdql{closeql: func() { d.Close(); f.Close() }, Decoder: d}, nil
	case ".gz":
		g, err := gzip.NewReader(reader)
		if err != nil {
			f.Close()
			return nil, err
		}
		return stacked{g, []io.Closer{g, f}}, nil
	case ".lzw":
		l := lzw.NewReader(reader, lzwOrder, lzwLitwidth)
		return stacked{l, []io.Closer{l, f}}, nil
	}
	return stacked{reader, []io.Closer{f}}, nil
}

// CreateTarget creates fname for writing, compressing the output when the name
// ends in .zst, .gz or .lzw. Closing the returned object flushes the compressor
// and closes the file.
func CreateTarget(fname string) (io.WriteCloser, error) {
	f, err := os.Create(fname)
	if err != nil {
		return nil, err
	}
	var w io.WriteCloser
	switch CompressionExt(fname) {
	case ".zst":
		w, err = zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedBestCompression))
	case ".gz":
		w = gzip.NewWriter(f)
	case ".lzw":
		w = lzw.NewWriter(f, lzwOrder, lzwLitwidth)
	default:
		return f, nil
	}
	if err != nil {
		f.Close()
		return nil, err
	}
	return wstacked{w, f}, nil
}

type wstacked struct {
	io.WriteCloser
	f *os.File
}

func (w wstacked) Close() error {
	err := w.WriteCloser.Close()
	if err2 := w.f.Close(); err == nil {
		err = err2
	}
	return err
}
