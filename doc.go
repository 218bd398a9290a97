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
Package kinetraj is the main package of the kinetraj library. It provides the atom,
residue and topology structures, a reader for GROMACS gro files, the periodic
unwrapping of positions and the kinematic series derived from a trajectory.

	**kinetraj Capabilities**

	Reads gro topologies (only residue id, residue name and atom name are used).

	Reads and writes XTC trajectories in pure Go (package traj/xtc), including
	the compressed frames used for more than 9 atoms.

	Undoes periodic jumps along x and y, so each atom follows a continuous path.

	Computes, per atom and per frame, the cumulative path length, the change
	in direction of motion (curvature) and the speed, plus the population-wide
	range of each, for color mapping.

	Groups atoms by residue, with constant-time lookup by residue id.

	Reads .zst, .gz and .lzw compressed inputs transparently.

	Writes the unwrapped trajectory in the zstd-compressed STF format (package traj/stf).

	Plots metric series and population histograms (package kinplot).

Positions are kept in the units of the input files (nm for GROMACS).

The package store holds a loaded system and the computed metrics, and is
what most programs will use directly. The command cmd/kinetraj is a small
front end to it.
*/
package kinetraj
