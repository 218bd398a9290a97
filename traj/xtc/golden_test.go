package xtc

import (
	"bytes"
	"fmt"
	"math"
	"testing"

	kin "github.com/molviz/kinetraj"
	"gonum.org/v1/gonum/spatial/r3"
)

// goldenXTC holds two compressed frames of 10 atoms (three waters and an
// ion, precision 1000, 3 nm cubic box) encoded by a standalone C copy of
// xdrfile's xdrfile_compress_coord_float and its byte-wise encodeints.
// The second frame moves the first water by 0.012 nm along each axis and
// the ion across the box.
var goldenXTC = []byte{
	0x00, 0x00, 0x07, 0xcb, 0x00, 0x00, 0x00, 0x0a, 0x00, 0x00, 0x00, 0x00,
	0x00, 0x00, 0x00, 0x00, 0x40, 0x40, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
	0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x40, 0x40, 0x00, 0x00,
	0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
	0x40, 0x40, 0x00, 0x00, 0x00, 0x00, 0x00, 0x0a, 0x44, 0x7a, 0x00, 0x00,
	0x00, 0x00, 0x00, 0x51, 0x00, 0x00, 0x01, 0x2c, 0x00, 0x00, 0x00, 0x64,
	0x00, 0x00, 0x0a, 0x1e, 0x00, 0x00, 0x0a, 0xf0, 0x00, 0x00, 0x0b, 0xb7,
	0x00, 0x00, 0x00, 0x14, 0x00, 0x00, 0x00, 0x2d, 0xf0, 0x26, 0x69, 0x8d,
	0x30, 0xb8, 0x42, 0x74, 0xdb, 0x18, 0x85, 0x0b, 0x43, 0x60, 0xcc, 0x52,
	0xb6, 0x8f, 0xfe, 0xee, 0x48, 0xf5, 0xfe, 0xeb, 0x0d, 0x6a, 0x4f, 0x24,
	0x59, 0xa0, 0xa1, 0xc7, 0x22, 0x70, 0x40, 0x33, 0x23, 0xc9, 0x85, 0x1b,
	0x3a, 0x99, 0x39, 0xd4, 0x20, 0x00, 0x00, 0x00, 0x00, 0x00, 0x07, 0xcb,
	0x00, 0x00, 0x00, 0x0a, 0x00, 0x00, 0x01, 0xf4, 0x3f, 0x80, 0x00, 0x00,
	0x40, 0x40, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
	0x00, 0x00, 0x00, 0x00, 0x40, 0x40, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
	0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x40, 0x40, 0x00, 0x00,
	0x00, 0x00, 0x00, 0x0a, 0x44, 0x7a, 0x00, 0x00, 0xff, 0xff, 0xff, 0x06,
	0x00, 0x00, 0x01, 0x2c, 0x00, 0x00, 0x03, 0xf4, 0x00, 0x00, 0x0a, 0x1e,
	0x00, 0x00, 0x0a, 0xf0, 0x00, 0x00, 0x0c, 0x35, 0x00, 0x00, 0x00, 0x14,
	0x00, 0x00, 0x00, 0x2c, 0x5c, 0xc3, 0xca, 0x8d, 0x61, 0x1c, 0x8f, 0x0b,
	0xac, 0x62, 0x66, 0x90, 0x3d, 0x86, 0x62, 0x85, 0xe5, 0x92, 0x4c, 0xe4,
	0x8f, 0x5f, 0xec, 0xb2, 0x67, 0xf5, 0xfb, 0x88, 0x16, 0xcb, 0x9a, 0x44,
	0x9c, 0x10, 0x0c, 0xc8, 0xf2, 0x61, 0x44, 0xfd, 0x63, 0x20, 0x02, 0x10,
}

var goldenFrame0 = []r3.Vec{
	{X: 1.000, Y: 1.000, Z: 1.000}, {X: 1.096, Y: 1.000, Z: 1.000}, {X: 0.976, Y: 1.093, Z: 1.000},
	{X: 2.500, Y: 0.300, Z: 1.700}, {X: 2.430, Y: 0.362, Z: 1.741}, {X: 2.590, Y: 0.322, Z: 1.668},
	{X: 0.150, Y: 2.800, Z: 2.950}, {X: 0.212, Y: 2.744, Z: 2.901}, {X: 0.081, Y: 2.755, Z: 2.999},
	{X: 1.800, Y: 1.800, Z: 0.100},
}

var goldenFrame1 = []r3.Vec{
	{X: 1.012, Y: 1.012, Z: 1.012}, {X: 1.108, Y: 1.012, Z: 1.012}, {X: 0.988, Y: 1.105, Z: 1.012},
	{X: 2.500, Y: 0.300, Z: 1.700}, {X: 2.430, Y: 0.362, Z: 1.741}, {X: 2.590, Y: 0.322, Z: 1.668},
	{X: 0.150, Y: 2.800, Z: 2.950}, {X: 0.212, Y: 2.744, Z: 2.901}, {X: 0.081, Y: 2.755, Z: 2.999},
	{X: -0.250, Y: 1.875, Z: 3.125},
}

func goldenFrames() []*kin.Frame {
	ret := make([]*kin.Frame, 2)
	for i, c := range [][]r3.Vec{goldenFrame0, goldenFrame1} {
		f := kin.NewFrame(len(c))
		copy(f.Coords, c)
		f.Step = 500 * i
		f.Time = float64(i)
		f.Box = [9]float64{3, 0, 0, 0, 3, 0, 0, 0, 3}
		ret[i] = f
	}
	return ret
}

// Decodes frames encoded by xdrfile's C code rather than by our writer.
func TestXTCGoldenRead(Te *testing.T) {
	fmt.Println("XTC test: frames written by xdrfile")
	r, err := NewReader(bytes.NewReader(goldenXTC), "golden.xtc")
	if err != nil {
		Te.Fatal(err)
	}
	if r.Len() != 10 {
		Te.Fatalf("got %d atoms, want 10", r.Len())
	}
	want := goldenFrames()
	f := kin.NewFrame(10)
	for i, w := range want {
		if err := r.Next(f); err != nil {
			Te.Fatalf("frame %d: %v", i, err)
		}
		if f.Step != w.Step || f.Time != w.Time || f.Box != w.Box {
			Te.Errorf("frame %d: step %d time %v box %v", i, f.Step, f.Time, f.Box)
		}
		for j, c := range w.Coords {
			g := f.Coords[j]
			if math.Abs(g.X-c.X) > 1e-6 || math.Abs(g.Y-c.Y) > 1e-6 || math.Abs(g.Z-c.Z) > 1e-6 {
				Te.Errorf("frame %d atom %d: got %v want %v", i, j, g, c)
			}
		}
	}
	if err := r.Next(f); err == nil {
		Te.Error("expected the end of the trajectory")
	} else if _, ok := err.(kin.LastFrameError); !ok {
		Te.Errorf("expected a clean end of trajectory, got %v", err)
	}
}

// Writing the same frames must give the same bytes xdrfile wrote.
func TestXTCGoldenWrite(Te *testing.T) {
	var b bytes.Buffer
	w := NewStreamWriter(&b, 10, "golden.xtc")
	for _, f := range goldenFrames() {
		if err := w.WNext(f); err != nil {
			Te.Fatal(err)
		}
	}
	if err := w.Close(); err != nil {
		Te.Fatal(err)
	}
	if !bytes.Equal(b.Bytes(), goldenXTC) {
		got := b.Bytes()
		for i := range got {
			if i >= len(goldenXTC) || got[i] != goldenXTC[i] {
				Te.Fatalf("output differs from xdrfile's at byte %d of %d (%d expected)", i, len(got), len(goldenXTC))
			}
		}
		Te.Fatalf("output is %d bytes, xdrfile wrote %d", len(got), len(goldenXTC))
	}
}
