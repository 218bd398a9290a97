/*
 * gro.go, part of kinetraj.
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
	"bufio"
	"fmt"
	"io"
	"log"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/spatial/r3"
)

// Width of each of the leading fixed-width fields of a gro atom record.
const groField = 5

// Topology is the static description of the system, as read from a gro file.
type Topology struct {
	Title    string
	Declared int        //atom count given in the file's second line
	Atoms    []*Atom    //atom skeletons, in file order
	Box      [3]float64 //extents from the box line, zero if it could not be read
}

// Len returns the number of atoms in the topology.
func (T *Topology) Len() int {
	return len(T.Atoms)
}

// Atom returns the i-th atom. It panics if i is out of range.
func (T *Topology) Atom(i int) *Atom {
	return T.Atoms[i]
}

// GroFileRead reads the gro file fname. Compressed files
// (.zst, .gz, .lzw) are decompressed transparently.
func GroFileRead(fname string) (*Topology, error) {
	src, err := OpenSource(fname)
	if err != nil {
		return nil, err
	}
	defer src.Close()
	text, err := io.ReadAll(src)
	if err != nil {
		return nil, fmt.Errorf("Failed to read %s: %w", fname, err)
	}
	top, err := ParseGro(string(text))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", fname, err)
	}
	return top, nil
}

// ParseGro builds a Topology from the full text of a gro file.
// The first two lines (title and atom count) and the last non-blank line
// (box) are not atom records. Blank lines between records are skipped.
// Only the residue id, residue name and atom name are read from each record;
// coordinates come from the trajectory.
func ParseGro(text string) (*Topology, error) {
	lines := strings.Split(text, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimRight(l, "\r")
	}
	last := len(lines) - 1
	for last >= 0 && strings.TrimSpace(lines[last]) == "" {
		last--
	}
	if last < 2 {
		return nil, fmt.Errorf("gro text has %d non-blank lines, at least 3 (title, atom count, box) are needed", last+1)
	}
	T := new(Topology)
	T.Title = strings.TrimSpace(lines[0])
	T.Declared = -1
	if n, err := strconv.Atoi(strings.TrimSpace(lines[1])); err == nil {
		T.Declared = n
	} else {
		log.Printf("Could not read the atom count in gro line 2 (%q)", lines[1])
	}
	T.Box = parseGroBox(lines[last])
	for i := 2; i < last; i++ {
		line := lines[i]
		if strings.TrimSpace(line) == "" {
			continue
		}
		at, err := groAtom(line)
		if err != nil {
			return nil, fmt.Errorf("gro line %d: %w", i+1, err)
		}
		at.ID = len(T.Atoms) + 1
		T.Atoms = append(T.Atoms, at)
	}
	if T.Declared >= 0 && T.Declared != len(T.Atoms) {
		log.Printf("gro file declares %d atoms but contains %d records", T.Declared, len(T.Atoms))
	}
	return T, nil
}

// groAtom reads the three leading fields of an atom record.
func groAtom(line string) (*Atom, error) {
	if len(line) < 3*groField {
		return nil, fmt.Errorf("record %q is %d bytes long, need at least %d", line, len(line), 3*groField)
	}
	idfield := strings.TrimSpace(line[:groField])
	id, err := strconv.Atoi(idfield)
	if err != nil {
		return nil, fmt.Errorf("bad residue id %q: %w", idfield, err)
	}
	at := new(Atom)
	at.MolID = id
	at.MolName = strings.TrimSpace(line[groField : 2*groField])
	at.Name = strings.TrimSpace(line[2*groField : 3*groField])
	return at, nil
}

func parseGroBox(line string) [3]float64 {
	var box [3]float64
	f := strings.Fields(line)
	if len(f) < 3 {
		log.Printf("gro box line %q has fewer than 3 fields, box set to zero", line)
		return box
	}
	for i := range box {
		v, err := strconv.ParseFloat(f[i], 64)
		if err != nil {
			log.Printf("gro box line %q could not be read, box set to zero", line)
			return [3]float64{}
		}
		box[i] = v
	}
	return box
}

// WriteGro writes a gro snapshot of the atoms in T, with the given positions
// (in nm) and box extents. coords must have one position per atom.
func WriteGro(w io.Writer, T *Topology, coords []r3.Vec, box [3]float64) error {
	if len(coords) != len(T.Atoms) {
		return fmt.Errorf("%d positions given for %d atoms", len(coords), len(T.Atoms))
	}
	b := bufio.NewWriter(w)
	title := T.Title
	if title == "" {
		title = "kinetraj"
	}
	fmt.Fprintln(b, title)
	fmt.Fprintf(b, "%5d\n", len(T.Atoms))
	for i, at := range T.Atoms {
		p := coords[i]
		//ids wrap at 100000 in the fixed-width format
		fmt.Fprintf(b, "%5d%-5s%5s%5d%8.3f%8.3f%8.3f\n", at.MolID%100000, fit(at.MolName), fit(at.Name), (i+1)%100000, p.X, p.Y, p.Z)
	}
	fmt.Fprintf(b, "%10.5f%10.5f%10.5f\n", box[0], box[1], box[2])
	return b.Flush()
}

// fit cuts s to the width of a gro field.
func fit(s string) string {
	if len(s) > groField {
		return s[:groField]
	}
	return s
}
