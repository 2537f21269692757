package viewer

import (
	"time"

	"github.com/irisuniflora/VF/internal/domain/composition"
	"github.com/irisuniflora/VF/internal/domain/interaction"
	"github.com/irisuniflora/VF/internal/domain/render"
	"github.com/irisuniflora/VF/internal/domain/selection"
	"github.com/irisuniflora/VF/internal/domain/structure"
)

// Session is the viewer state of one loaded structure.
type Session struct {
	ID       string
	Name     string
	Source   string
	LoadedAt time.Time

	registry *structure.Registry
	machine  *selection.Machine
	colors   *composition.ColorMap
	reps     *composition.Representations
	engine   *composition.Engine
	backend  render.Backend
	port     *Port
	gestures *GestureTracker

	chains           composition.ChainFilter
	showHetero       bool
	overlay          bool
	showInteractions bool

	hover         *HoverInfo
	published     uint64
	lastRebuildAt time.Time
}

// HoverInfo describes the atom under the cursor and the interaction edges
// touching it.
type HoverInfo struct {
	Atom  string                `json:"atom"`
	Edges []interaction.Readout `json:"edges,omitempty"`
}

// Registry returns the session's residue registry.
func (s *Session) Registry() *structure.Registry { return s.registry }

// Backend returns the session's rendering backend.
func (s *Session) Backend() render.Backend { return s.backend }

func (s *Session) input() composition.Input {
	return composition.Input{
		Selection:        s.machine.Selection(),
		Nearby:           s.machine.Nearby(),
		ShowNearby:       s.machine.ShowNearby(),
		Overlay:          s.overlay,
		ShowHetero:       s.showHetero,
		ShowInteractions: s.showInteractions,
		Style:            s.machine.Style(),
		Scheme:           s.machine.Scheme(),
		Colors:           s.colors,
		Reps:             s.reps,
		Chains:           s.chains,
	}
}

func (s *Session) chainList() []string {
	var out []string
	for _, c := range s.registry.Chains() {
		if len(s.chains) > 0 && s.chains[c] {
			out = append(out, c)
		}
	}
	return out
}

func (s *Session) updateHover(ev render.PointerEvent) {
	if ev.Atom == nil {
		s.hover = nil
		return
	}
	a := *ev.Atom
	info := &HoverInfo{Atom: a.ResName + " " + a.Key.String() + " " + a.Name}
	for _, e := range s.engine.Scene().Edges {
		if touches(e.A, a) || touches(e.B, a) {
			info.Edges = append(info.Edges, interaction.Describe(e))
		}
	}
	s.hover = info
}

func touches(x, y structure.Atom) bool {
	return x.Key == y.Key && x.Name == y.Name
}
