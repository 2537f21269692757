package selection

import (
	"strconv"

	"github.com/irisuniflora/VF/internal/domain/render"
)

// Snapshot is the read model handed to the UI shell.
type Snapshot struct {
	Selection    []string         `json:"selection"`
	Nearby       []string         `json:"nearby"`
	Anchor       string           `json:"anchor,omitempty"`
	ActiveRegion *int             `json:"active_region"`
	Regions      []RegionView     `json:"regions"`
	ShowNearby   bool             `json:"show_nearby"`
	Style        render.StyleKind `json:"style"`
	Scheme       render.Scheme    `json:"scheme"`
}

// Snapshot captures the current state.
func (m *Machine) Snapshot() Snapshot {
	s := Snapshot{
		Selection:  m.selection.Strings(),
		Nearby:     m.nearby.Strings(),
		Regions:    m.Regions(),
		ShowNearby: m.showNearby,
		Style:      m.Style(),
		Scheme:     m.Scheme(),
	}
	if m.anchor != nil {
		s.Anchor = m.anchor.String()
	}
	if id, ok := m.ActiveRegion(); ok {
		s.ActiveRegion = &id
	}
	return s
}

func itoa(n int) string { return strconv.Itoa(n) }
