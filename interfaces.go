/*
 * interfaces.go, part of kinetraj.
 *
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

import "gonum.org/v1/gonum/spatial/r3"

// Frame is one decoded trajectory snapshot. It is transient: readers fill
// it in place and the store copies what it needs out of it.
type Frame struct {
	Step   int
	Time   float64
	Box    [9]float64 //row-major 3x3 box matrix
	Coords []r3.Vec
}

// NewFrame returns a Frame with room for natoms positions.
func NewFrame(natoms int) *Frame {
	return &Frame{Coords: make([]r3.Vec, natoms)}
}

// Diag returns the diagonal of the frame's box, i.e. the x, y and z extents
// of a rectangular simulation box.
func (F *Frame) Diag() [3]float64 {
	return [3]float64{F.Box[0], F.Box[4], F.Box[8]}
}

// Traj is an interface for any trajectory object.
type Traj interface {
	//Is the trajectory ready to be read?
	Readable() bool
	//Next reads the next frame into f. If f is nil the frame is read and discarded.
	//At the end of the trajectory it returns an error that implements LastFrameError.
	Next(f *Frame) error
	//Returns the number of atoms per frame
	Len() int
	//Close releases the underlying file. The trajectory is not readable afterwards.
	Close() error
}

// TrajWriter is anything that can take a sequence of frames and store them.
type TrajWriter interface {
	WNext(f *Frame) error
	Len() int
	Close() error
}

//Errors

// Error is the interface for errors that all packages in this library implement. The Decorate method allows to add and retrieve info from the
// error, without changing it's type or wrapping it around something else.
type Error interface {
	Error() string
	//Decorate adds the name of the calling function, and any relevant information, to the error.
	//Each call returns the resulting decoration slice. An empty string only returns the current value.
	Decorate(string) []string
}

// TrajError is the interface for errors in trajectories
type TrajError interface {
	Error
	Critical() bool
	FileName() string
	Format() string
}

// LastFrameError has a useless function to distinguish the harmless errors (i.e. last frame) so  they can be
// filtered in a typeswith that looks for this interface.
type LastFrameError interface {
	TrajError
	NormalLastFrameTermination() //does nothing, just to separate this interface from other TrajError's
}
