package interaction

import (
	"math"

	"github.com/irisuniflora/VF/internal/domain/structure"
)

// DefaultNeighborCutoff is the proximity cutoff for the nearby set.
const DefaultNeighborCutoff = 4.0

type cell struct{ x, y, z int }

// grid buckets atom positions into cubes of side size so a radius query
// touches at most 27 buckets.
type grid struct {
	size    float64
	buckets map[cell][]structure.Vec3
}

func newGrid(size float64) *grid {
	return &grid{size: size, buckets: make(map[cell][]structure.Vec3)}
}

func (g *grid) cellOf(p structure.Vec3) cell {
	return cell{
		x: int(math.Floor(p.X / g.size)),
		y: int(math.Floor(p.Y / g.size)),
		z: int(math.Floor(p.Z / g.size)),
	}
}

func (g *grid) add(p structure.Vec3) {
	c := g.cellOf(p)
	g.buckets[c] = append(g.buckets[c], p)
}

// within reports whether any stored point is closer than r to p.  r must not
// exceed the grid size.
func (g *grid) within(p structure.Vec3, r float64) bool {
	c := g.cellOf(p)
	r2 := r * r
	for dx := -1; dx <= 1; dx++ {
		for dy := -1; dy <= 1; dy++ {
			for dz := -1; dz <= 1; dz++ {
				for _, q := range g.buckets[cell{c.x + dx, c.y + dy, c.z + dz}] {
					if p.Dist2(q) < r2 {
						return true
					}
				}
			}
		}
	}
	return false
}

// Neighbors returns every polymer residue with at least one atom closer than
// cutoff to any atom of selection, excluding the selection itself.  All atoms
// of the selected residues are probes, so a selected ligand finds its
// binding pocket; candidates are polymer atoms only.
func (d *Detector) Neighbors(selection structure.KeySet, cutoff float64) structure.KeySet {
	out := structure.NewKeySet()
	if selection.Len() == 0 || cutoff <= 0 {
		return out
	}

	g := newGrid(cutoff)
	probes := 0
	for k := range selection {
		for _, a := range d.src.Atoms(k) {
			g.add(a.Pos)
			probes++
		}
	}
	if probes == 0 {
		return out
	}

	for _, k := range d.src.Residues() {
		if selection.Has(k) {
			continue
		}
		for _, a := range d.src.Atoms(k) {
			if a.Hetero {
				continue
			}
			if g.within(a.Pos, cutoff) {
				out.Add(k)
				break
			}
		}
	}
	return out
}
