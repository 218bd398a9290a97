/*
 * doc.go, part of kinetraj.
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

/*
Package stf writes trajectories in the simple trajectory format (STF), a
compressed text format that is trivial to read from any language. kinetraj
uses it to export unwrapped trajectories.

Format, as written by this package:

The file is compressed with z-standard (zstd), unless its name ends in
another compressor's letter (see NewWriter). It only contains ASCII.

A header of key=value lines comes first. It always contains the precision,
e.g.

	prec=2

and ends with a line holding "**", a space and the number of atoms per frame.

Then, for each frame, one line per atom with the x, y and z coordinates in
Angstrom, multiplied by 10 to the power of the precision and rounded to
integers, and a closing line starting with "*". The closing line may carry
the 9 components of the box matrix, in Angstrom, after the "*".

"**" never appears outside of the end of the header.
*/
package stf
