package composition

import (
	"github.com/irisuniflora/VF/internal/domain/interaction"
	"github.com/irisuniflora/VF/internal/domain/render"
)

// Layer orders draw records: base first, then overlay, then hetero.
type Layer string

const (
	LayerBase    Layer = "base"
	LayerOverlay Layer = "overlay"
	LayerHetero  Layer = "hetero"
)

// DrawRecord is one typed (selector, style, color) instruction.
type DrawRecord struct {
	Layer    Layer            `json:"layer"`
	Label    string           `json:"label"`
	Selector render.Selector  `json:"selector"`
	Style    render.StyleSpec `json:"style"`
}

// Equal compares two records by value.
func (d DrawRecord) Equal(o DrawRecord) bool {
	return d.Layer == o.Layer && d.Label == o.Label &&
		d.Selector.String() == o.Selector.String() && d.Style.Equal(o.Style)
}

// Scene is the full set of instructions for one structure.
type Scene struct {
	Styles []DrawRecord       `json:"styles"`
	Shapes []render.Shape     `json:"shapes"`
	Edges  []interaction.Edge `json:"-"`
}

// CountByLayer tallies style records per layer.
func (s Scene) CountByLayer() map[Layer]int {
	out := make(map[Layer]int, 3)
	for _, r := range s.Styles {
		out[r.Layer]++
	}
	return out
}

func recordsEqual(a, b []DrawRecord) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !a[i].Equal(b[i]) {
			return false
		}
	}
	return true
}

// ChainFilter is the set of visible chains.  An empty filter shows all.
type ChainFilter map[string]bool

// NewChainFilter builds a filter from chain ids.
func NewChainFilter(chains ...string) ChainFilter {
	f := make(ChainFilter, len(chains))
	for _, c := range chains {
		if c != "" {
			f[c] = true
		}
	}
	return f
}

// Allows reports whether chain is visible.
func (f ChainFilter) Allows(chain string) bool {
	return len(f) == 0 || f[chain]
}
