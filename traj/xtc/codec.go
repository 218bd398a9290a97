/*
 * codec.go, part of kinetraj
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
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// The integer compression used by xdrfile for XTC frames with more than
// 9 atoms. Coordinates are multiplied by the precision and rounded. The first
// atom of each run is stored relative to the frame minimum, using just
// enough bits for the frame's extent. The following atoms of a run, when close
// enough, are stored as small differences with respect to the previous atom,
// with a bit size that adapts from frame to frame (smallidx).

var magicints = [...]uint32{
	0, 0, 0, 0, 0, 0, 0, 0, 0,
	8, 10, 12, 16, 20, 25, 32, 40, 50, 64,
	80, 101, 128, 161, 203, 256, 322, 406, 512, 645,
	812, 1024, 1290, 1625, 2048, 2580, 3250, 4096, 5060, 6501,
	8192, 10321, 13003, 16384, 20642, 26007, 32768, 41285, 52015, 65536,
	82570, 104031, 131072, 165140, 208063, 262144, 330280, 416127, 524287, 660561,
	832255, 1048576, 1321122, 1664510, 2097152, 2642245, 3329021, 4194304, 5284491, 6658042,
	8388607, 10568983, 13316085, 16777216,
}

const (
	firstidx = 9
	lastidx  = len(magicints)
	//largest integer coordinate the codec accepts
	maxAbs = math.MaxInt32 - 2
	//max run of small atoms, in coordinates (3 per atom)
	maxRun = 24
)

var errOverrun = errors.New("compressed block ends before all atoms were read")

// bitReader reads big-endian bit fields from a byte slice. Reading past the
// end sets overrun and returns zeros.
type bitReader struct {
	buf     []byte
	pos     uint
	overrun bool
}

func (b *bitReader) read(nbits int) uint32 {
	var v uint64
	for nbits > 0 {
		idx := b.pos >> 3
		if idx >= uint(len(b.buf)) {
			b.overrun = true
			return 0
		}
		off := int(b.pos & 7)
		avail := 8 - off
		take := avail
		if nbits < take {
			take = nbits
		}
		chunk := (uint64(b.buf[idx]) >> uint(avail-take)) & (1<<uint(take) - 1)
		v = v<<uint(take) | chunk
		nbits -= take
		b.pos += uint(take)
	}
	return uint32(v)
}

// bitWriter is the counterpart of bitReader. The last, partial, byte is
// padded with zeros on the right.
type bitWriter struct {
	buf  []byte
	acc  uint32
	nacc int
}

func (b *bitWriter) write(nbits int, v uint32) {
	for nbits > 0 {
		take := 8 - b.nacc
		if nbits < take {
			take = nbits
		}
		chunk := (v >> uint(nbits-take)) & (1<<uint(take) - 1)
		b.acc = b.acc<<uint(take) | chunk
		b.nacc += take
		nbits -= take
		if b.nacc == 8 {
			b.buf = append(b.buf, byte(b.acc))
			b.acc = 0
			b.nacc = 0
		}
	}
}

func (b *bitWriter) bytes() []byte {
	if b.nacc > 0 {
		b.buf = append(b.buf, byte(b.acc<<uint(8-b.nacc)))
		b.acc = 0
		b.nacc = 0
	}
	return b.buf
}

// sizeofint returns the number of bits needed to store any integer in [0,size).
func sizeofint(size uint32) int {
	var num uint64 = 1
	nbits := 0
	for uint64(size) >= num && nbits < 32 {
		nbits++
		num <<= 1
	}
	return nbits
}

// sizeofints returns the number of bits needed to store the three integers
// (each in [0, sizes[i])) combined as a single mixed-radix number.
func sizeofints(sizes [3]uint32) int {
	var bytes [32]uint32
	nbytes := 1
	bytes[0] = 1
	for _, sz := range sizes {
		var tmp uint64
		bytecnt := 0
		for ; bytecnt < nbytes; bytecnt++ {
			tmp = uint64(bytes[bytecnt])*uint64(sz) + tmp
			bytes[bytecnt] = uint32(tmp & 0xff)
			tmp >>= 8
		}
		for tmp != 0 {
			bytes[bytecnt] = uint32(tmp & 0xff)
			bytecnt++
			tmp >>= 8
		}
		nbytes = bytecnt
	}
	num := uint32(1)
	nbits := 0
	nbytes--
	for bytes[nbytes] >= num {
		nbits++
		num *= 2
	}
	return nbits + nbytes*8
}

// receiveints reads three integers stored with sendints in nbits bits.
func receiveints(b *bitReader, nbits int, sizes [3]uint32, nums *[3]int32) {
	var bytes [32]uint32
	nbytes := 0
	for nbits > 8 {
		bytes[nbytes] = b.read(8)
		nbytes++
		nbits -= 8
	}
	if nbits > 0 {
		bytes[nbytes] = b.read(nbits)
		nbytes++
	}
	for i := 2; i > 0; i-- {
		var num uint64
		for j := nbytes - 1; j >= 0; j-- {
			num = num<<8 | uint64(bytes[j])
			p := num / uint64(sizes[i])
			bytes[j] = uint32(p)
			num -= p * uint64(sizes[i])
		}
		nums[i] = int32(num)
	}
	nums[0] = int32(bytes[0] | bytes[1]<<8 | bytes[2]<<16 | bytes[3]<<24)
}

// sendints writes three non-negative integers, nums[i] < sizes[i], as one
// mixed-radix number of nbits bits.
func sendints(b *bitWriter, nbits int, sizes [3]uint32, nums [3]uint32) {
	var bytes [32]uint32
	tmp := nums[0]
	nbytes := 0
	for {
		bytes[nbytes] = tmp & 0xff
		nbytes++
		tmp >>= 8
		if tmp == 0 {
			break
		}
	}
	for i := 1; i < 3; i++ {
		t := uint64(nums[i])
		bytecnt := 0
		for ; bytecnt < nbytes; bytecnt++ {
			t = uint64(bytes[bytecnt])*uint64(sizes[i]) + t
			bytes[bytecnt] = uint32(t & 0xff)
			t >>= 8
		}
		for t != 0 {
			bytes[bytecnt] = uint32(t & 0xff)
			bytecnt++
			t >>= 8
		}
		nbytes = bytecnt
	}
	if nbits >= nbytes*8 {
		for i := 0; i < nbytes; i++ {
			b.write(8, bytes[i])
		}
		b.write(nbits-nbytes*8, 0)
		return
	}
	for i := 0; i < nbytes-1; i++ {
		b.write(8, bytes[i])
	}
	b.write(nbits-(nbytes-1)*8, bytes[nbytes-1])
}

// header of a compressed coordinate block
type block struct {
	prec     float32
	minint   [3]int32
	maxint   [3]int32
	smallidx int32
}

// sizes returns the extent of the frame along each axis, and either the bits
// needed to store the three combined (bitsize) or, for very large extents,
// zero and the bits for each axis separately.
func (B *block) sizes() (sizeint [3]uint32, bitsizeint [3]int, bitsize int) {
	for i := range sizeint {
		sizeint[i] = uint32(int64(B.maxint[i]) - int64(B.minint[i]) + 1)
	}
	if (sizeint[0] | sizeint[1] | sizeint[2]) > 0xffffff {
		for i := range sizeint {
			bitsizeint[i] = sizeofint(sizeint[i])
		}
		return sizeint, bitsizeint, 0
	}
	return sizeint, bitsizeint, sizeofints(sizeint)
}

func half(idx int) int32 {
	return int32(magicints[idx] / 2)
}

func smallSizes(idx int) [3]uint32 {
	m := magicints[idx]
	return [3]uint32{m, m, m}
}

func abs32(v int32) int32 {
	if v < 0 {
		return -v
	}
	return v
}

// decompress decodes natoms positions from data into out, which must have room
// for them.
func decompress(data []byte, natoms int, B block, out []r3.Vec) error {
	if B.prec <= 0 {
		return fmt.Errorf("invalid precision %v", B.prec)
	}
	for i := range B.minint {
		if B.maxint[i] < B.minint[i] || int64(B.maxint[i])-int64(B.minint[i]) >= maxAbs {
			return fmt.Errorf("invalid bounds on axis %d: min %d, max %d", i, B.minint[i], B.maxint[i])
		}
	}
	smallidx := int(B.smallidx)
	if smallidx < firstidx || smallidx >= lastidx {
		return fmt.Errorf("invalid smallidx %d", smallidx)
	}
	sizeint, bitsizeint, bitsize := B.sizes()
	smaller := int32(0)
	if smallidx > firstidx {
		smaller = half(smallidx - 1)
	}
	smallnum := half(smallidx)
	sizesmall := smallSizes(smallidx)
	inv := 1 / B.prec

	put := func(i int, c [3]int32) {
		out[i] = r3.Vec{
			X: float64(float32(c[0]) * inv),
			Y: float64(float32(c[1]) * inv),
			Z: float64(float32(c[2]) * inv),
		}
	}
	r := &bitReader{buf: data}
	var thiscoord, prevcoord [3]int32
	run := 0
	i := 0
	for i < natoms {
		if bitsize == 0 {
			for k := range thiscoord {
				thiscoord[k] = int32(r.read(bitsizeint[k]))
			}
		} else {
			receiveints(r, bitsize, sizeint, &thiscoord)
		}
		i++
		for k := range thiscoord {
			thiscoord[k] += B.minint[k]
		}
		prevcoord = thiscoord
		flag := r.read(1)
		issmaller := 0
		if flag == 1 {
			run = int(r.read(5))
			issmaller = run % 3
			run -= issmaller
			issmaller--
		}
		if r.overrun {
			return errOverrun
		}
		if run > 0 {
			if i-1+run/3 >= natoms {
				return fmt.Errorf("run of %d atoms overflows the %d atoms of the frame", run/3, natoms)
			}
			for k := 0; k < run; k += 3 {
				receiveints(r, smallidx, sizesmall, &thiscoord)
				i++
				for d := range thiscoord {
					thiscoord[d] += prevcoord[d] - smallnum
				}
				if k == 0 {
					//the first two atoms of a run are stored swapped
					thiscoord, prevcoord = prevcoord, thiscoord
					put(i-2, prevcoord)
				} else {
					prevcoord = thiscoord
				}
				put(i-1, thiscoord)
			}
		} else {
			put(i-1, thiscoord)
		}
		if r.overrun {
			return errOverrun
		}
		smallidx += issmaller
		if smallidx < firstidx || smallidx >= lastidx {
			return fmt.Errorf("smallidx out of range (%d) while decoding atom %d", smallidx, i)
		}
		if issmaller < 0 {
			smallnum = smaller
			if smallidx > firstidx {
				smaller = half(smallidx - 1)
			} else {
				smaller = 0
			}
		} else if issmaller > 0 {
			smaller = smallnum
			smallnum = half(smallidx)
		}
		sizesmall = smallSizes(smallidx)
	}
	return nil
}

// compress encodes coords with the given precision, returning the block
// header and the compressed bytes.
func compress(coords []r3.Vec, prec float32) (block, []byte, error) {
	var B block
	natoms := len(coords)
	if prec <= 0 {
		return B, nil, fmt.Errorf("invalid precision %v", prec)
	}
	B.prec = prec
	ints := make([]int32, 3*natoms)
	minint := [3]int32{math.MaxInt32, math.MaxInt32, math.MaxInt32}
	maxint := [3]int32{math.MinInt32, math.MinInt32, math.MinInt32}
	mindiff := int32(math.MaxInt32)
	var oldlint [3]int32
	for i, c := range coords {
		var lint [3]int32
		for d, v := range [3]float64{c.X, c.Y, c.Z} {
			lf := float32(v) * prec
			if lf >= 0 {
				lf += 0.5
			} else {
				lf -= 0.5
			}
			if math.Abs(float64(lf)) > maxAbs || math.IsNaN(float64(lf)) {
				return B, nil, fmt.Errorf("coordinate %v of atom %d can't be stored with precision %v", v, i, prec)
			}
			lint[d] = int32(lf)
			if lint[d] < minint[d] {
				minint[d] = lint[d]
			}
			if lint[d] > maxint[d] {
				maxint[d] = lint[d]
			}
			ints[3*i+d] = lint[d]
		}
		diff := abs32(oldlint[0]-lint[0]) + abs32(oldlint[1]-lint[1]) + abs32(oldlint[2]-lint[2])
		if diff < mindiff && i > 0 {
			mindiff = diff
		}
		oldlint = lint
	}
	for d := range minint {
		if int64(maxint[d])-int64(minint[d]) >= maxAbs {
			return B, nil, fmt.Errorf("coordinates on axis %d span too much to be stored with precision %v", d, prec)
		}
	}
	B.minint = minint
	B.maxint = maxint
	sizeint, bitsizeint, bitsize := B.sizes()

	smallidx := firstidx
	for smallidx < lastidx-1 && int32(magicints[smallidx]) < mindiff {
		smallidx++
	}
	B.smallidx = int32(smallidx)
	maxidx := smallidx + 8
	if maxidx > lastidx-1 {
		maxidx = lastidx - 1
	}
	minidx := maxidx - 8
	smaller := half(max(firstidx, smallidx-1))
	smallnum := half(smallidx)
	sizesmall := smallSizes(smallidx)
	larger := half(maxidx)

	w := &bitWriter{buf: make([]byte, 0, 3*natoms*4)}
	var prevcoord [3]int32
	tmpcoord := make([]uint32, 0, maxRun)
	prevrun := -1
	i := 0
	for i < natoms {
		issmall := false
		t := 3 * i
		var issmaller int
		if smallidx < maxidx && i >= 1 &&
			abs32(ints[t]-prevcoord[0]) < larger &&
			abs32(ints[t+1]-prevcoord[1]) < larger &&
			abs32(ints[t+2]-prevcoord[2]) < larger {
			issmaller = 1
		} else if smallidx > minidx {
			issmaller = -1
		}
		if i+1 < natoms &&
			abs32(ints[t]-ints[t+3]) < smallnum &&
			abs32(ints[t+1]-ints[t+4]) < smallnum &&
			abs32(ints[t+2]-ints[t+5]) < smallnum {
			//swap the first two atoms of the run, good for water
			for d := 0; d < 3; d++ {
				ints[t+d], ints[t+3+d] = ints[t+3+d], ints[t+d]
			}
			issmall = true
		}
		var tc [3]uint32
		for d := range tc {
			tc[d] = uint32(ints[t+d] - minint[d])
		}
		if bitsize == 0 {
			for d := range tc {
				w.write(bitsizeint[d], tc[d])
			}
		} else {
			sendints(w, bitsize, sizeint, tc)
		}
		prevcoord = [3]int32{ints[t], ints[t+1], ints[t+2]}
		t += 3
		i++

		run := 0
		tmpcoord = tmpcoord[:0]
		if !issmall && issmaller == -1 {
			issmaller = 0
		}
		for issmall && run < maxRun {
			var sq int64
			for d := 0; d < 3; d++ {
				dd := int64(ints[t+d] - prevcoord[d])
				sq += dd * dd
			}
			if issmaller == -1 && sq >= int64(smaller)*int64(smaller) {
				issmaller = 0
			}
			for d := 0; d < 3; d++ {
				tmpcoord = append(tmpcoord, uint32(ints[t+d]-prevcoord[d]+smallnum))
			}
			run += 3
			prevcoord = [3]int32{ints[t], ints[t+1], ints[t+2]}
			i++
			t += 3
			issmall = false
			if i < natoms &&
				abs32(ints[t]-prevcoord[0]) < smallnum &&
				abs32(ints[t+1]-prevcoord[1]) < smallnum &&
				abs32(ints[t+2]-prevcoord[2]) < smallnum {
				issmall = true
			}
		}
		if run != prevrun || issmaller != 0 {
			prevrun = run
			w.write(1, 1)
			w.write(5, uint32(run+issmaller+1))
		} else {
			w.write(1, 0)
		}
		for k := 0; k < run; k += 3 {
			sendints(w, smallidx, sizesmall, [3]uint32{tmpcoord[k], tmpcoord[k+1], tmpcoord[k+2]})
		}
		if issmaller != 0 {
			smallidx += issmaller
			if issmaller < 0 {
				smallnum = smaller
				smaller = half(smallidx - 1)
			} else {
				smaller = smallnum
				smallnum = half(smallidx)
			}
			sizesmall = smallSizes(smallidx)
		}
	}
	return B, w.bytes(), nil
}
