package interaction

import (
	"math"
	"sort"

	"github.com/irisuniflora/VF/internal/domain/structure"
)

// AtomSource is the part of the residue registry the detector reads.
type AtomSource interface {
	Atoms(k structure.ResidueKey) []structure.Atom
	Residues() []structure.ResidueKey
}

// Edge is one classified atom pair.
type Edge struct {
	A        structure.Atom `json:"a"`
	B        structure.Atom `json:"b"`
	Kind     Kind           `json:"kind"`
	Distance float64        `json:"distance"`
}

// Detector runs proximity scans against one structure.
type Detector struct {
	src AtomSource
}

// NewDetector returns a detector over src.
func NewDetector(src AtomSource) *Detector {
	return &Detector{src: src}
}

type atomID struct {
	key  structure.ResidueKey
	name string
}

func idOf(a structure.Atom) atomID { return atomID{key: a.Key, name: a.Name} }

// polymerAtoms materializes the non-hetero atoms of every key in set.  Keys
// with no atoms (stale after a reload) contribute nothing.
func (d *Detector) polymerAtoms(set structure.KeySet) []structure.Atom {
	var out []structure.Atom
	for _, k := range set.Sorted() {
		for _, a := range d.src.Atoms(k) {
			if !a.Hetero {
				out = append(out, a)
			}
		}
	}
	return out
}

// Detect classifies every atom pair between setA and setB that lies within
// the scan cutoff.  Pairs inside one residue are never reported, and a pair
// reachable from both directions (the sets overlap) is reported once.  The
// result is ordered by the first atom's residue, then atom name.
func (d *Detector) Detect(setA, setB structure.KeySet) []Edge {
	if setA.Len() == 0 || setB.Len() == 0 {
		return nil
	}
	atomsA := d.polymerAtoms(setA)
	atomsB := d.polymerAtoms(setB)
	if len(atomsA) == 0 || len(atomsB) == 0 {
		return nil
	}

	const bound2 = ScanCutoff * ScanCutoff
	seen := make(map[[2]atomID]bool)
	var edges []Edge
	for _, a := range atomsA {
		for _, b := range atomsB {
			if a.Key == b.Key {
				continue
			}
			d2 := a.Pos.Dist2(b.Pos)
			if d2 >= bound2 {
				continue
			}
			ia, ib := idOf(a), idOf(b)
			pair := [2]atomID{ia, ib}
			if lessID(ib, ia) {
				pair = [2]atomID{ib, ia}
			}
			if seen[pair] {
				continue
			}
			dist := math.Sqrt(d2)
			kind, ok := Classify(a, b, dist)
			if !ok {
				continue
			}
			seen[pair] = true
			edges = append(edges, Edge{A: a, B: b, Kind: kind, Distance: dist})
		}
	}
	sortEdges(edges)
	return edges
}

func lessID(x, y atomID) bool {
	if x.key != y.key {
		return x.key.Less(y.key)
	}
	return x.name < y.name
}

func sortEdges(edges []Edge) {
	sort.SliceStable(edges, func(i, j int) bool {
		ai, aj := idOf(edges[i].A), idOf(edges[j].A)
		if ai != aj {
			return lessID(ai, aj)
		}
		return lessID(idOf(edges[i].B), idOf(edges[j].B))
	})
}

// Count tallies edges per kind.
func Count(edges []Edge) map[Kind]int {
	out := make(map[Kind]int, len(Kinds))
	for _, e := range edges {
		out[e.Kind]++
	}
	return out
}
