/*
 * store.go, part of kinetraj.
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

// Package store holds a loaded molecular system: the atoms of a topology
// with their unwrapped trajectories, the residues they belong to, and the
// kinematic metrics computed from them.
//
// A Store is not safe for concurrent use, and must not be read while
// LoadData runs.
package store

import (
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	kin "github.com/molviz/kinetraj"
	"github.com/molviz/kinetraj/traj/xtc"
)

var (
	// ErrTopology is wrapped by errors reading or parsing the topology.
	ErrTopology = errors.New("topology")
	// ErrTrajectory is wrapped by errors opening or decoding the trajectory.
	ErrTrajectory = errors.New("trajectory")
	// ErrAtomCount is wrapped when topology and trajectory disagree on the number of atoms.
	ErrAtomCount = errors.New("topology and trajectory have different numbers of atoms")
)

// How long status messages stay up.
const (
	shortNotice = 2 * time.Second
	longNotice  = 5 * time.Second
)

// Store is the loaded population of atoms and everything derived from it.
type Store struct {
	//VelocityScale multiplies every velocity. It is 1 unless changed,
	//and should be set before computing velocities.
	VelocityScale float64
	//Notify, if not nil, receives diagnostic events.
	Notify kin.Notifier
	//Verbose mirrors events to the standard logger.
	Verbose bool

	top      *kin.Topology
	atoms    []*kin.Atom
	residues *kin.ResidueIndex
	box      [3]float64
	frames   int
	loadID   uuid.UUID
	analysis analysis
}

// New returns an empty Store.
func New() *Store {
	S := &Store{VelocityScale: 1}
	S.analysis.reset()
	return S
}

func (S *Store) emit(msg string, d time.Duration) {
	if S.Verbose {
		log.Print(msg)
	}
	if S.Notify != nil {
		S.Notify(kin.Event{LoadID: S.loadID, Message: msg, Duration: d})
	}
}

// LoadData replaces the loaded population with the one described by the gro file
// topname and the xtc file trajname. Whatever was loaded before is dropped first,
// so on failure the store is left empty. Errors wrap ErrTopology, ErrTrajectory
// or ErrAtomCount.
func (S *Store) LoadData(topname, trajname string) error {
	S.Clear()
	S.loadID = uuid.New()
	top, err := kin.GroFileRead(topname)
	if err != nil {
		S.emit("Could not open .gro file.", longNotice)
		return fmt.Errorf("%w: %w", ErrTopology, err)
	}
	traj, err := xtc.New(trajname)
	if err != nil {
		S.emit("Failed to open .xtc file.", longNotice)
		return fmt.Errorf("%w: %w", ErrTrajectory, err)
	}
	defer traj.Close()
	return S.load(top, traj)
}

// Load is like LoadData, but takes an already parsed topology and an open
// trajectory. The trajectory is read to the end but not closed.
func (S *Store) Load(top *kin.Topology, traj kin.Traj) error {
	S.Clear()
	S.loadID = uuid.New()
	return S.load(top, traj)
}

func (S *Store) load(top *kin.Topology, traj kin.Traj) error {
	if traj.Len() != top.Len() {
		S.emit(".gro file and .xtc file have different number of atoms!", longNotice)
		return fmt.Errorf("%w: %d in the topology, %d in the trajectory", ErrAtomCount, top.Len(), traj.Len())
	}
	S.emit("Reading trajectory", 0)
	atoms := make([]*kin.Atom, top.Len())
	for i, at := range top.Atoms {
		atoms[i] = at.Copy()
	}
	box, frames, err := readFrames(traj, atoms)
	if err != nil {
		S.emit("Failed to read .xtc file.", longNotice)
		return fmt.Errorf("%w: %w", ErrTrajectory, err)
	}
	if frames == 0 {
		log.Printf("Trajectory has no frames, the box is taken from the topology")
		box = top.Box
	}
	S.top = top
	S.atoms = atoms
	S.box = box
	S.frames = frames
	S.emit(fmt.Sprintf("Loaded %d atoms, %d frames", len(atoms), frames), shortNotice)
	return nil
}

// readFrames reads every frame of traj, and appends the unwrapped position
// and the step time of each atom. It returns the box of the last frame, and
// the number of frames read.
func readFrames(traj kin.Traj, atoms []*kin.Atom) (box [3]float64, frames int, err error) {
	frame := kin.NewFrame(traj.Len())
	var start int
	for ; ; frames++ {
		if err = traj.Next(frame); err != nil {
			if _, ok := err.(kin.LastFrameError); ok {
				return box, frames, nil
			}
			return box, frames, err
		}
		if len(frame.Coords) != len(atoms) {
			return box, frames, fmt.Errorf("frame %d has %d positions for %d atoms", frames, len(frame.Coords), len(atoms))
		}
		if frames == 0 {
			start = int(frame.Time)
		}
		step := int(frame.Time - float64(start))
		diag := frame.Diag()
		for i, at := range atoms {
			pos := frame.Coords[i]
			if frames > 0 {
				pos = kin.Unwrap(pos, at.Trajectory[frames-1], diag)
			}
			at.AddTimeStep(pos, step)
		}
		box = diag
	}
}

// Clear drops all atoms and residues, and resets every metric.
func (S *Store) Clear() {
	if len(S.atoms) > 0 {
		S.emit("Clearing atom vector", shortNotice)
	}
	if S.residues != nil {
		S.emit("Clearing residue vector", shortNotice)
	}
	S.top = nil
	S.atoms = nil
	S.residues = nil
	S.box = [3]float64{}
	S.frames = 0
	S.analysis.reset()
}

// CreateResidueIndex groups the loaded atoms by residue, replacing any
// previous index, and returns the new index.
func (S *Store) CreateResidueIndex() *kin.ResidueIndex {
	S.residues = kin.NewResidueIndex(S.atoms)
	return S.residues
}

// Residues returns the residue index, or nil if CreateResidueIndex has not
// been called since the last load.
func (S *Store) Residues() *kin.ResidueIndex {
	return S.residues
}

// Atoms returns the loaded atoms, in topology order.
// The slice belongs to the store.
func (S *Store) Atoms() []*kin.Atom {
	return S.atoms
}

// Atom returns the i-th atom. It panics if i is out of range.
func (S *Store) Atom(i int) *kin.Atom {
	return S.atoms[i]
}

// Len returns the number of atoms loaded.
func (S *Store) Len() int {
	return len(S.atoms)
}

// Frames returns the number of frames loaded.
func (S *Store) Frames() int {
	return S.frames
}

// SimBox returns the box extents of the last frame read.
func (S *Store) SimBox() [3]float64 {
	return S.box
}

// Topology returns the topology of the current load, or nil.
func (S *Store) Topology() *kin.Topology {
	return S.top
}

// LoadID identifies the current load. It is the zero UUID before the first load.
func (S *Store) LoadID() uuid.UUID {
	return S.loadID
}
