/*
 * xtc_test.go, part of kinetraj
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

package xtc

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"math"
	"math/rand"
	"os"
	"path/filepath"
	"testing"

	kin "github.com/molviz/kinetraj"
	"gonum.org/v1/gonum/spatial/r3"
)

// randomFrames returns nframes frames of natoms atoms. mode 0 scatters atoms
// uniformly, mode 1 puts them in tight groups of three (like water) and mode 2
// spreads them over a range large enough to need per-axis bit sizes at prec.
func randomFrames(rnd *rand.Rand, natoms, nframes, mode int) []*kin.Frame {
	frames := make([]*kin.Frame, nframes)
	for f := range frames {
		fr := kin.NewFrame(natoms)
		fr.Step = f * 500
		fr.Time = float64(f) * 2.5
		fr.Box = [9]float64{10, 0, 0, 0, 10, 0, 0, 0, 10}
		var base r3.Vec
		for i := range fr.Coords {
			switch mode {
			case 0:
				fr.Coords[i] = r3.Vec{X: rnd.Float64()*13 - 3, Y: rnd.Float64()*13 - 3, Z: rnd.Float64()*13 - 3}
			case 1:
				if i%3 == 0 {
					base = r3.Vec{X: rnd.Float64() * 5, Y: rnd.Float64() * 5, Z: rnd.Float64() * 5}
				}
				fr.Coords[i] = r3.Add(base, r3.Vec{X: rnd.Float64()*0.2 - 0.1, Y: rnd.Float64()*0.2 - 0.1, Z: rnd.Float64()*0.2 - 0.1})
			default:
				fr.Coords[i] = r3.Vec{X: rnd.Float64()*400 - 200, Y: rnd.Float64()*400 - 200, Z: rnd.Float64()*400 - 200}
			}
		}
		frames[f] = fr
	}
	return frames
}

func writeFrames(Te *testing.T, name string, frames []*kin.Frame, prec float32) {
	w, err := NewWriter(name, len(frames[0].Coords))
	if err != nil {
		Te.Fatal(err)
	}
	w.Precision = prec
	for _, f := range frames {
		if err := w.WNext(f); err != nil {
			Te.Fatal(err)
		}
	}
	if err := w.Close(); err != nil {
		Te.Fatal(err)
	}
}

// readAll reads every frame in name, and checks that reading ends with a kin.LastFrameError.
func readAll(Te *testing.T, name string) []*kin.Frame {
	r, err := New(name)
	if err != nil {
		Te.Fatal(err)
	}
	defer r.Close()
	var ret []*kin.Frame
	for {
		f := kin.NewFrame(r.Len())
		err := r.Next(f)
		if err != nil {
			if _, ok := err.(kin.LastFrameError); !ok {
				Te.Fatalf("expected a last frame error after %d frames, got %v", len(ret), err)
			}
			break
		}
		ret = append(ret, f)
	}
	if r.Readable() {
		Te.Error("trajectory still readable after the last frame")
	}
	return ret
}

func compareFrames(Te *testing.T, want, got []*kin.Frame, prec float64) {
	if len(want) != len(got) {
		Te.Fatalf("wrote %d frames, read %d", len(want), len(got))
	}
	for i := range want {
		w, g := want[i], got[i]
		if w.Step != g.Step || float64(float32(w.Time)) != g.Time || w.Box != g.Box {
			Te.Errorf("frame %d header: wrote %d %v %v read %d %v %v", i, w.Step, w.Time, w.Box, g.Step, g.Time, g.Box)
		}
		for j := range w.Coords {
			a, b := w.Coords[j], g.Coords[j]
			for d, pair := range [3][2]float64{{a.X, b.X}, {a.Y, b.Y}, {a.Z, b.Z}} {
				tol := 1e-6 * (1 + math.Abs(pair[0]))
				if prec > 0 {
					tol += 0.5 / prec
				}
				if math.Abs(pair[0]-pair[1]) > tol {
					Te.Fatalf("frame %d atom %d axis %d: wrote %v read %v", i, j, d, pair[0], pair[1])
				}
			}
		}
	}
}

func TestXTCRawRoundTrip(Te *testing.T) {
	fmt.Println("XTC test with 3 atoms (uncompressed)")
	rnd := rand.New(rand.NewSource(3))
	frames := randomFrames(rnd, 3, 4, 0)
	name := filepath.Join(Te.TempDir(), "small.xtc")
	writeFrames(Te, name, frames, DefaultPrecision)
	got := readAll(Te, name)
	compareFrames(Te, frames, got, 0)
	n, err := ReadNatoms(name)
	if err != nil || n != 3 {
		Te.Errorf("ReadNatoms: %d %v", n, err)
	}
}

func TestXTCCompressedRoundTrip(Te *testing.T) {
	rnd := rand.New(rand.NewSource(1))
	dir := Te.TempDir()
	cases := []struct {
		natoms, mode int
		prec         float32
	}{
		{10, 0, 1000}, {101, 0, 1000}, {1000, 0, 1000},
		{12, 1, 1000}, {300, 1, 1000}, {999, 1, 100},
		{50, 2, 100000}, {200, 2, 1000},
	}
	for k, c := range cases {
		frames := randomFrames(rnd, c.natoms, 3, c.mode)
		name := filepath.Join(dir, fmt.Sprintf("c%d.xtc", k))
		writeFrames(Te, name, frames, c.prec)
		got := readAll(Te, name)
		fmt.Println("XTC compressed round trip", c.natoms, "atoms, mode", c.mode)
		compareFrames(Te, frames, got, float64(c.prec))
	}
}

// A frame where every atom sits on the same spot, and one where atoms move
// along a line in tiny steps, exercise the smallest and the adaptive run sizes.
func TestXTCDegenerate(Te *testing.T) {
	same := kin.NewFrame(20)
	for i := range same.Coords {
		same.Coords[i] = r3.Vec{X: 1, Y: 2, Z: 3}
	}
	steps := kin.NewFrame(500)
	for i := range steps.Coords {
		steps.Coords[i] = r3.Vec{X: 0.001 * float64(i), Y: 1, Z: -0.002 * float64(i)}
	}
	steps.Step = 1
	name := filepath.Join(Te.TempDir(), "degenerate.xtc")
	w, err := NewWriter(name, 20)
	if err != nil {
		Te.Fatal(err)
	}
	if err := w.WNext(same); err != nil {
		Te.Fatal(err)
	}
	w.Close()
	compareFrames(Te, []*kin.Frame{same}, readAll(Te, name), DefaultPrecision)
	name2 := filepath.Join(Te.TempDir(), "steps.xtc")
	writeFrames(Te, name2, []*kin.Frame{steps}, DefaultPrecision)
	compareFrames(Te, []*kin.Frame{steps}, readAll(Te, name2), DefaultPrecision)
}

func TestXTCZstd(Te *testing.T) {
	rnd := rand.New(rand.NewSource(2))
	frames := randomFrames(rnd, 30, 5, 1)
	name := filepath.Join(Te.TempDir(), "traj.xtc.zst")
	writeFrames(Te, name, frames, DefaultPrecision)
	compareFrames(Te, frames, readAll(Te, name), DefaultPrecision)
}

func TestXTCDiscard(Te *testing.T) {
	rnd := rand.New(rand.NewSource(4))
	frames := randomFrames(rnd, 15, 3, 0)
	var buf bytes.Buffer
	w := NewStreamWriter(&buf, 15, "buffer")
	for _, f := range frames {
		if err := w.WNext(f); err != nil {
			Te.Fatal(err)
		}
	}
	w.Close()
	r, err := NewReader(bytes.NewReader(buf.Bytes()), "buffer")
	if err != nil {
		Te.Fatal(err)
	}
	if err := r.Next(nil); err != nil {
		Te.Fatal(err)
	}
	f := kin.NewFrame(0) //too small, Next must make room
	if err := r.Next(f); err != nil {
		Te.Fatal(err)
	}
	compareFrames(Te, frames[1:2], []*kin.Frame{f}, DefaultPrecision)
	if err := r.Next(nil); err != nil {
		Te.Fatal(err)
	}
	if r.Frames() != 3 {
		Te.Errorf("expected 3 frames read, got %d", r.Frames())
	}
	err = r.Next(f)
	if _, ok := err.(kin.LastFrameError); !ok {
		Te.Errorf("expected a last frame error, got %v", err)
	}
	if err := r.Next(f); err == nil {
		Te.Error("reading an exhausted trajectory should fail")
	}
}

func TestXTCTruncated(Te *testing.T) {
	rnd := rand.New(rand.NewSource(5))
	for _, natoms := range []int{4, 40} {
		frames := randomFrames(rnd, natoms, 2, 0)
		var buf bytes.Buffer
		w := NewStreamWriter(&buf, natoms, "buffer")
		for _, f := range frames {
			w.WNext(f)
		}
		w.Close()
		data := buf.Bytes()
		for _, cut := range []int{len(data) - 4, len(data) - 30, len(data) - 1} {
			r, err := NewReader(bytes.NewReader(data[:cut]), "truncated")
			if err != nil {
				Te.Fatal(err)
			}
			if err := r.Next(nil); err != nil {
				Te.Fatalf("first frame should be intact: %v", err)
			}
			err = r.Next(kin.NewFrame(natoms))
			if err == nil {
				Te.Fatalf("%d atoms, cut at %d: truncated frame read without error", natoms, cut)
			}
			if _, ok := err.(kin.LastFrameError); ok {
				Te.Fatalf("truncated frame reported as a normal end: %v", err)
			}
			terr, ok := err.(kin.TrajError)
			if !ok || !terr.Critical() {
				Te.Errorf("expected a critical trajectory error, got %v", err)
			}
			if !errors.Is(err, io.ErrUnexpectedEOF) {
				Te.Errorf("error does not wrap io.ErrUnexpectedEOF: %v", err)
			}
		}
	}
}

func TestXTCBadInput(Te *testing.T) {
	dir := Te.TempDir()
	if _, err := New(filepath.Join(dir, "missing.xtc")); err == nil {
		Te.Error("opening a missing file should fail")
	}
	empty := filepath.Join(dir, "empty.xtc")
	os.WriteFile(empty, nil, 0o644)
	if _, err := New(empty); err == nil {
		Te.Error("opening an empty file should fail")
	}
	junk := filepath.Join(dir, "junk.xtc")
	os.WriteFile(junk, []byte("this is not an xtc file at all"), 0o644)
	if _, err := New(junk); err == nil {
		Te.Error("opening a file with the wrong magic number should fail")
	}
	w := NewStreamWriter(io.Discard, 5, "discard")
	if err := w.WNext(kin.NewFrame(4)); err == nil {
		Te.Error("writing 4 atoms to a 5-atom trajectory should fail")
	}
	w.Close()
	if err := w.WNext(kin.NewFrame(5)); err == nil {
		Te.Error("writing to a closed trajectory should fail")
	}
	big := kin.NewFrame(12)
	big.Coords[3].X = 1e7
	w = NewStreamWriter(io.Discard, 12, "discard")
	if err := w.WNext(big); err == nil {
		Te.Error("a coordinate too large for the precision should fail")
	}
}

func TestBits(Te *testing.T) {
	w := &bitWriter{}
	w.write(3, 5)
	w.write(17, 0x1abcd)
	w.write(1, 1)
	w.write(32, 0xdeadbeef)
	w.write(5, 0)
	r := &bitReader{buf: w.bytes()}
	for _, c := range []struct {
		n int
		v uint32
	}{{3, 5}, {17, 0x1abcd}, {1, 1}, {32, 0xdeadbeef}, {5, 0}} {
		if got := r.read(c.n); got != c.v {
			Te.Errorf("read %d bits: got %x want %x", c.n, got, c.v)
		}
	}
	if r.overrun {
		Te.Error("unexpected overrun")
	}
	r.read(16)
	if !r.overrun {
		Te.Error("reading past the end should set overrun")
	}
	if sizeofint(1) != 1 || sizeofint(8) != 4 || sizeofint(255) != 8 || sizeofint(256) != 9 {
		Te.Error("sizeofint")
	}
	sizes := [3]uint32{1000, 2000, 3000}
	nb := sizeofints(sizes)
	if nb != 33 { //1000*2000*3000 = 6e9
		Te.Errorf("sizeofints gave %d bits, want 33", nb)
	}
	bw := &bitWriter{}
	nums := [3]uint32{999, 0, 2999}
	sendints(bw, nb, sizes, nums)
	var got [3]int32
	receiveints(&bitReader{buf: bw.bytes()}, nb, sizes, &got)
	if got != [3]int32{999, 0, 2999} {
		Te.Errorf("sendints/receiveints: got %v", got)
	}
}
