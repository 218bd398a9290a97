package xtc

import (
	"bufio"
	"fmt"
	"io"
	"math"

	kin "github.com/molviz/kinetraj"
)

// DefaultPrecision is the precision GROMACS uses for compressed frames,
// i.e. positions are kept to 1/1000 of a nm.
const DefaultPrecision = 1000

// XTCW writes frames to an XTC file.
type XTCW struct {
	w         io.WriteCloser
	h         *bufio.Writer
	natoms    int
	filename  string
	writeable bool
	buf       []byte
	//Precision used for compressed frames, DefaultPrecision unless changed.
	Precision float32
}

// NewWriter creates the XTC file name, for frames of natoms atoms.
// Names ending in .zst, .gz or .lzw are compressed further.
func NewWriter(name string, natoms int) (*XTCW, error) {
	if natoms < 0 {
		return nil, &Error{fmt.Sprintf("invalid number of atoms: %d", natoms), name, []string{"NewWriter"}, true, nil}
	}
	w, err := kin.CreateTarget(name)
	if err != nil {
		return nil, &Error{UnableToOpen, name, []string{"NewWriter"}, true, err}
	}
	X := NewStreamWriter(w, natoms, name)
	X.w = w
	return X, nil
}

// NewStreamWriter returns an XTCW that writes to w. Closing it flushes
// but does not close w.
func NewStreamWriter(w io.Writer, natoms int, name string) *XTCW {
	X := new(XTCW)
	X.h = bufio.NewWriter(w)
	X.natoms = natoms
	X.filename = name
	X.writeable = true
	X.Precision = DefaultPrecision
	return X
}

// Len returns the number of atoms per frame.
func (X *XTCW) Len() int {
	return X.natoms
}

// Close flushes the pending data and closes the file, if the writer created it.
func (X *XTCW) Close() error {
	if X == nil || !X.writeable {
		return nil
	}
	X.writeable = false
	err := X.h.Flush()
	if X.w != nil {
		if err2 := X.w.Close(); err == nil {
			err = err2
		}
	}
	if err != nil {
		return &Error{WriteError, X.filename, []string{"Close"}, true, err}
	}
	return nil
}

func (X *XTCW) putInt(v int32) {
	X.buf = be.AppendUint32(X.buf, uint32(v))
}

func (X *XTCW) putFloat(v float32) {
	X.buf = be.AppendUint32(X.buf, math.Float32bits(v))
}

// WNext writes f as the next frame. f must have exactly Len() positions.
// Frames with more than 9 atoms are compressed.
func (X *XTCW) WNext(f *kin.Frame) error {
	if !X.writeable {
		return &Error{TrajUnIniWrite, X.filename, []string{"WNext"}, true, nil}
	}
	if f == nil {
		return &Error{"Given nil frame", X.filename, []string{"WNext"}, true, nil}
	}
	if len(f.Coords) != X.natoms {
		return &Error{fmt.Sprintf("%d coordinates given, but %d expected", len(f.Coords), X.natoms), X.filename, []string{"WNext"}, true, nil}
	}
	X.buf = X.buf[:0]
	X.putInt(xtcMagic)
	X.putInt(int32(X.natoms))
	X.putInt(int32(f.Step))
	X.putFloat(float32(f.Time))
	for _, b := range f.Box {
		X.putFloat(float32(b))
	}
	X.putInt(int32(X.natoms))
	if X.natoms <= maxRawAtoms {
		for _, c := range f.Coords {
			X.putFloat(float32(c.X))
			X.putFloat(float32(c.Y))
			X.putFloat(float32(c.Z))
		}
	} else {
		B, data, err := compress(f.Coords, X.Precision)
		if err != nil {
			return &Error{WriteError, X.filename, []string{"WNext"}, true, err}
		}
		X.putFloat(B.prec)
		for _, v := range B.minint {
			X.putInt(v)
		}
		for _, v := range B.maxint {
			X.putInt(v)
		}
		X.putInt(B.smallidx)
		X.putInt(int32(len(data)))
		X.buf = append(X.buf, data...)
		for i := len(data); i < padded(len(data)); i++ {
			X.buf = append(X.buf, 0)
		}
	}
	if _, err := X.h.Write(X.buf); err != nil {
		X.writeable = false
		return &Error{WriteError, X.filename, []string{"WNext"}, true, err}
	}
	return nil
}
