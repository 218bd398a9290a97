/*
 * xtc.go, part of kinetraj
 *
 * Copyright 2026 The kinetraj Authors
 *
 * This program is free software; you can redistribute it and/or modify
 * it under the terms of the GNU Lesser General Public License  as published by
 * the Free Software Foundation; either version 2.1 of the License, or
 * (at your option) any later version.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 * GNU General Public License for more details.
 *
 * You should have received a copy of the GNU Lesser General Public License
 * along with this program; if not, write to the Free Software
 * Foundation, Inc., 51 Franklin Street, Fifth Floor, Boston,
 * MA 02110-1301, USA.
 */

// Package xtc reads and writes GROMACS XTC trajectories, without cgo.
package xtc

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"

	kin "github.com/molviz/kinetraj"
	"gonum.org/v1/gonum/spatial/r3"
)

const (
	xtcMagic = 1995
	//magic, natoms, step, time, 9 box values and natoms again
	headerWords = 14
	//precision, minint[3], maxint[3], smallidx and the byte count
	blockWords = 9
	//frames with at most this many atoms are stored uncompressed
	maxRawAtoms = 9
)

var be = binary.BigEndian

// XTCObj is a container for a GROMACS XTC binary trajectory file, open for reading.
type XTCObj struct {
	readable bool
	natoms   int
	filename string
	src      io.Closer
	r        *bufio.Reader
	scratch  []byte
	frames   int
}

// New opens the XTC file filename for reading. Files ending in .zst, .gz or
// .lzw are decompressed on the fly.
func New(filename string) (*XTCObj, error) {
	src, err := kin.OpenSource(filename)
	if err != nil {
		return nil, &Error{UnableToOpen, filename, []string{"New"}, true, err}
	}
	X, err := newReader(src, filename)
	if err != nil {
		src.Close()
		return nil, errDecorate(err, "New")
	}
	X.src = src
	return X, nil
}

// NewReader returns an XTCObj that reads frames from r. name is only used
// in error messages. Closing the XTCObj does not close r.
func NewReader(r io.Reader, name string) (*XTCObj, error) {
	X, err := newReader(r, name)
	if err != nil {
		return nil, errDecorate(err, "NewReader")
	}
	return X, nil
}

// newReader peeks at the first frame header for the number of atoms.
func newReader(r io.Reader, name string) (*XTCObj, error) {
	X := new(XTCObj)
	X.filename = name
	X.r = bufio.NewReaderSize(r, 1<<16)
	head, err := X.r.Peek(8)
	if err != nil {
		if errors.Is(err, io.EOF) && len(head) == 0 {
			return nil, &Error{EmptyFile, name, []string{"newReader"}, true, err}
		}
		return nil, &Error{ReadError, name, []string{"newReader"}, true, err}
	}
	if magic := int32(be.Uint32(head)); magic != xtcMagic {
		return nil, &Error{fmt.Sprintf("%s (%d)", WrongMagic, magic), name, []string{"newReader"}, true, nil}
	}
	natoms := int32(be.Uint32(head[4:]))
	if natoms < 0 {
		return nil, &Error{fmt.Sprintf("%s (%d atoms)", WrongFormat, natoms), name, []string{"newReader"}, true, nil}
	}
	X.natoms = int(natoms)
	X.readable = true
	return X, nil
}

// ReadNatoms returns the number of atoms per frame stored in the XTC file filename.
func ReadNatoms(filename string) (int, error) {
	X, err := New(filename)
	if err != nil {
		return 0, errDecorate(err, "ReadNatoms")
	}
	defer X.Close()
	return X.Len(), nil
}

// Readable returns true if the object is ready to be read from
// false otherwise. It doesnt guarantee that there is something
// to read.
func (X *XTCObj) Readable() bool {
	return X.readable
}

// Len returns the number of atoms per frame in the XTCObj.
func (X *XTCObj) Len() int {
	return X.natoms
}

// Frames returns the number of frames read so far.
func (X *XTCObj) Frames() int {
	return X.frames
}

// Close closes the underlying file, if the object opened it, and marks the object as unreadable.
func (X *XTCObj) Close() error {
	X.readable = false
	if X.src == nil {
		return nil
	}
	err := X.src.Close()
	X.src = nil
	return err
}

// read returns the next n bytes, in a buffer that is only valid until the next call.
func (X *XTCObj) read(n int) ([]byte, error) {
	if cap(X.scratch) < n {
		X.scratch = make([]byte, n)
	}
	b := X.scratch[:n]
	_, err := io.ReadFull(X.r, b)
	return b, err
}

// Next reads the next frame into f, if f is not nil, or discards it
// otherwise. f.Coords is reallocated if it can't hold the frame.
// At the end of the file, an error implementing kin.LastFrameError is returned.
// A truncated or corrupt frame gives a critical error, and the object
// is not readable afterwards.
func (X *XTCObj) Next(f *kin.Frame) error {
	if !X.readable {
		return &Error{TrajUnIni, X.filename, []string{"Next"}, true, nil}
	}
	err := X.next(f)
	if err != nil {
		X.readable = false
		return errDecorate(err, "Next")
	}
	X.frames++
	return nil
}

func (X *XTCObj) next(f *kin.Frame) error {
	frame := X.frames
	hdr, err := X.read(4 * headerWords)
	if err == io.EOF {
		return newlastFrameError(X.filename, "next")
	}
	if err != nil {
		return X.frameError(frame, "header", err)
	}
	if magic := int32(be.Uint32(hdr)); magic != xtcMagic {
		return X.frameError(frame, fmt.Sprintf("%s (%d)", WrongMagic, magic), nil)
	}
	natoms := int(int32(be.Uint32(hdr[4:])))
	natoms2 := int(int32(be.Uint32(hdr[52:])))
	if natoms != X.natoms || natoms2 != X.natoms {
		return X.frameError(frame, fmt.Sprintf("%d and %d atoms, %d expected", natoms, natoms2, X.natoms), nil)
	}
	if f != nil {
		f.Step = int(int32(be.Uint32(hdr[8:])))
		f.Time = float64(math.Float32frombits(be.Uint32(hdr[12:])))
		for i := range f.Box {
			f.Box[i] = float64(math.Float32frombits(be.Uint32(hdr[16+4*i:])))
		}
		if len(f.Coords) != X.natoms {
			f.Coords = make([]r3.Vec, X.natoms)
		}
	}
	if X.natoms <= maxRawAtoms {
		raw, err := X.read(12 * X.natoms)
		if err != nil {
			return X.frameError(frame, "coordinates", err)
		}
		if f != nil {
			for i := range f.Coords {
				f.Coords[i] = r3.Vec{
					X: float64(math.Float32frombits(be.Uint32(raw[12*i:]))),
					Y: float64(math.Float32frombits(be.Uint32(raw[12*i+4:]))),
					Z: float64(math.Float32frombits(be.Uint32(raw[12*i+8:]))),
				}
			}
		}
		return nil
	}
	bh, err := X.read(4 * blockWords)
	if err != nil {
		return X.frameError(frame, "compressed block header", err)
	}
	var B block
	B.prec = math.Float32frombits(be.Uint32(bh))
	for i := 0; i < 3; i++ {
		B.minint[i] = int32(be.Uint32(bh[4+4*i:]))
		B.maxint[i] = int32(be.Uint32(bh[16+4*i:]))
	}
	B.smallidx = int32(be.Uint32(bh[28:]))
	nbytes := int(int32(be.Uint32(bh[32:])))
	if nbytes < 0 || nbytes > 4*4*X.natoms+64 {
		return X.frameError(frame, fmt.Sprintf("%s (%d bytes of compressed data)", WrongFormat, nbytes), nil)
	}
	data, err := X.read(padded(nbytes))
	if err != nil {
		return X.frameError(frame, "compressed coordinates", err)
	}
	if f == nil {
		return nil
	}
	if err := decompress(data[:nbytes], X.natoms, B, f.Coords); err != nil {
		return X.frameError(frame, "decompressing", err)
	}
	return nil
}

func (X *XTCObj) frameError(frame int, what string, cause error) error {
	if errors.Is(cause, io.EOF) {
		cause = io.ErrUnexpectedEOF
	}
	msg := fmt.Sprintf("%s in frame %d: %s", ReadError, frame, what)
	return &Error{msg, X.filename, []string{"next"}, true, cause}
}

// padded rounds n up to a multiple of 4, as XDR opaque data is.
func padded(n int) int {
	return (n + 3) &^ 3
}
