/*
 * residues.go, part of kinetraj.
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
	"fmt"
	"strings"
)

// Residue groups atoms that share a residue id. Atoms are referred to by
// their index in the slice the index was built from; a Residue doesn't own them.
type Residue struct {
	ID    int
	Name  string
	Atoms []int
}

func (R *Residue) String() string {
	return fmt.Sprintf("%d %s (%d atoms)", R.ID, R.Name, len(R.Atoms))
}

// Describe returns the residue's id and name followed by the names of its atoms,
// taken from atoms, the slice the index was built from.
func (R *Residue) Describe(atoms []*Atom) string {
	names := make([]string, 0, len(R.Atoms))
	for _, i := range R.Atoms {
		if i >= 0 && i < len(atoms) {
			names = append(names, atoms[i].Name)
		}
	}
	return fmt.Sprintf("%d %s: %s", R.ID, R.Name, strings.Join(names, " "))
}

// ResidueIndex gives constant-time access to residues by id, and keeps
// them in the order in which they were first seen.
type ResidueIndex struct {
	byID  map[int]*Residue
	order []*Residue
}

// NewResidueIndex groups atoms by residue id. The name of each residue is taken
// from the first of its atoms.
func NewResidueIndex(atoms []*Atom) *ResidueIndex {
	R := &ResidueIndex{byID: make(map[int]*Residue)}
	for i, at := range atoms {
		res, ok := R.byID[at.MolID]
		if !ok {
			res = &Residue{ID: at.MolID, Name: at.MolName}
			R.byID[at.MolID] = res
			R.order = append(R.order, res)
		}
		res.Atoms = append(res.Atoms, i)
	}
	return R
}

// Residue returns the residue with the given id, and false if there is none.
func (R *ResidueIndex) Residue(id int) (*Residue, bool) {
	if R == nil {
		return nil, false
	}
	res, ok := R.byID[id]
	return res, ok
}

// Residues returns all residues, in first-seen order.
func (R *ResidueIndex) Residues() []*Residue {
	if R == nil {
		return nil
	}
	return R.order
}

// Len returns the number of residues.
func (R *ResidueIndex) Len() int {
	if R == nil {
		return 0
	}
	return len(R.order)
}
