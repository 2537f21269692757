package selection

import (
	"github.com/irisuniflora/VF/internal/domain/render"
	"github.com/irisuniflora/VF/internal/domain/structure"
)

// Region is a saved selection context with its own style and color scheme.
// While a region is active its sets track the live sets; otherwise they are
// frozen snapshots.
type Region struct {
	ID        int
	Selection structure.KeySet
	Nearby    structure.KeySet
	Style     render.StyleKind
	Scheme    render.Scheme
}

// RegionView is the exported, JSON-friendly form of a Region.
type RegionView struct {
	ID        int              `json:"id"`
	Selection []string         `json:"selection"`
	Nearby    []string         `json:"nearby"`
	Style     render.StyleKind `json:"style"`
	Scheme    render.Scheme    `json:"scheme"`
	Active    bool             `json:"active"`
}

func (r *Region) view(active bool) RegionView {
	return RegionView{
		ID:        r.ID,
		Selection: r.Selection.Strings(),
		Nearby:    r.Nearby.Strings(),
		Style:     r.Style,
		Scheme:    r.Scheme,
		Active:    active,
	}
}
