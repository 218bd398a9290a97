/*
 * unwrap.go, part of kinetraj.
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
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// A coordinate is only a wrap candidate if box/coordinate falls outside
// [nearWallLow, nearWallHigh], i.e. if it is close to either wall.
const (
	nearWallHigh = 0.9
	nearWallLow  = 0.1
)

// Unwrap takes the raw position of an atom in the current frame, its unwrapped
// position in the previous frame and the extents of the current box, and returns
// the position with periodic jumps along x and y undone. z is never changed.
func Unwrap(raw, prev r3.Vec, box [3]float64) r3.Vec {
	raw.X = unwrapCoord(raw.X, prev.X, box[0])
	raw.Y = unwrapCoord(raw.Y, prev.Y, box[1])
	return raw
}

// unwrapCoord moves pos by one box length towards prev, if pos looks like it
// crossed a wall since the last frame.
func unwrapCoord(pos, prev, boxLen float64) float64 {
	ratio := boxLen / pos
	if math.IsNaN(ratio) || math.IsInf(ratio, 0) {
		return pos
	}
	if ratio <= nearWallHigh && ratio >= nearWallLow {
		return pos
	}
	diff := prev - pos
	if math.Abs(diff) <= boxLen/2 {
		return pos
	}
	if diff > 0 {
		return pos + boxLen
	}
	return pos - boxLen
}
