package viewer

import (
	"context"
	"strings"
	"time"

	"github.com/irisuniflora/VF/internal/domain/composition"
	"github.com/irisuniflora/VF/internal/domain/interaction"
	"github.com/irisuniflora/VF/internal/domain/render"
	"github.com/irisuniflora/VF/internal/domain/selection"
	"github.com/irisuniflora/VF/internal/domain/structure"
	"github.com/irisuniflora/VF/pkg/errors"
)

// StructureInfo summarizes a loaded structure.
type StructureInfo struct {
	ID       string    `json:"id"`
	Name     string    `json:"name"`
	Source   string    `json:"source"`
	Chains   []string  `json:"chains"`
	Residues int       `json:"residues"`
	Atoms    int       `json:"atoms"`
	Hetero   int       `json:"hetero"`
	Active   bool      `json:"active"`
	LoadedAt time.Time `json:"loaded_at"`
}

func (s *Service) infoLocked(sess *Session) StructureInfo {
	reg := sess.registry
	return StructureInfo{
		ID:       sess.ID,
		Name:     sess.Name,
		Source:   sess.Source,
		Chains:   reg.Chains(),
		Residues: reg.Len(),
		Atoms:    reg.AtomCount(),
		Hetero:   len(reg.Hetero()),
		Active:   s.active == sess,
		LoadedAt: sess.LoadedAt,
	}
}

// ChainSequence is the one-letter sequence of a chain with its residue keys.
type ChainSequence struct {
	Chain    string                    `json:"chain"`
	Sequence string                    `json:"sequence"`
	Residues []structure.SequenceEntry `json:"residues"`
}

// HeteroView is a hetero residue as listed next to the sequence.
type HeteroView struct {
	Key   string `json:"key"`
	Code3 string `json:"resn"`
	Class string `json:"class"`
	Atoms int    `json:"atoms"`
}

// SequenceView is the sequence panel of one structure.
type SequenceView struct {
	StructureID string          `json:"structure_id"`
	Chains      []ChainSequence `json:"chains"`
	Hetero      []HeteroView    `json:"hetero"`
}

// NewSequenceView builds the sequence panel from a registry.
func NewSequenceView(id string, reg *structure.Registry) SequenceView {
	v := SequenceView{StructureID: id, Chains: []ChainSequence{}, Hetero: []HeteroView{}}
	for _, c := range reg.Chains() {
		entries := reg.Sequence(c)
		var b strings.Builder
		b.Grow(len(entries))
		for _, e := range entries {
			b.WriteString(e.Code1)
		}
		v.Chains = append(v.Chains, ChainSequence{Chain: c, Sequence: b.String(), Residues: entries})
	}
	for _, h := range reg.Hetero() {
		v.Hetero = append(v.Hetero, HeteroView{
			Key:   h.Key.String(),
			Code3: h.Code3,
			Class: h.Class.String(),
			Atoms: h.AtomCount,
		})
	}
	return v
}

// StateView is the full UI state of the active structure.
type StateView struct {
	StructureID string `json:"structure_id"`
	selection.Snapshot
	Representations  []composition.RepresentationView `json:"representations"`
	ShowHetero       bool                             `json:"show_hetero"`
	Overlay          bool                             `json:"overlay"`
	ShowInteractions bool                             `json:"show_interactions"`
	Chains           []string                         `json:"chains"`
	Colors           map[string]render.Color          `json:"colors"`
	Hover            *HoverInfo                       `json:"hover,omitempty"`
}

// State returns the UI state of the active structure.
func (s *Service) State() (StateView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess := s.active
	if sess == nil {
		return StateView{}, errors.New(errors.ErrCodeNoActiveStructure, "no active structure")
	}
	return StateView{
		StructureID:      sess.ID,
		Snapshot:         sess.machine.Snapshot(),
		Representations:  sess.reps.Views(),
		ShowHetero:       sess.showHetero,
		Overlay:          sess.overlay,
		ShowInteractions: sess.showInteractions,
		Chains:           sess.chainList(),
		Colors:           sess.colors.Entries(),
		Hover:            sess.hover,
	}, nil
}

// SceneView is the last composed scene together with the camera.
type SceneView struct {
	StructureID string                   `json:"structure_id"`
	Styles      []composition.DrawRecord `json:"styles"`
	Shapes      []render.Shape           `json:"shapes"`
	Camera      *render.CameraState      `json:"camera,omitempty"`
	RebuiltAt   time.Time                `json:"rebuilt_at"`
}

// Scene returns the last scene applied to the active structure's backend.
func (s *Service) Scene(ctx context.Context) (SceneView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess := s.active
	if sess == nil {
		return SceneView{}, errors.New(errors.ErrCodeNoActiveStructure, "no active structure")
	}
	sc := sess.engine.Scene()
	v := SceneView{
		StructureID: sess.ID,
		Styles:      sc.Styles,
		Shapes:      sc.Shapes,
		RebuiltAt:   sess.lastRebuildAt,
	}
	if cam, err := sess.backend.Camera(ctx); err == nil {
		v.Camera = &cam
	}
	if v.Styles == nil {
		v.Styles = []composition.DrawRecord{}
	}
	if v.Shapes == nil {
		v.Shapes = []render.Shape{}
	}
	return v, nil
}

// Interactions lists the edges between the selection and the nearby set of
// the active structure, whether or not they are drawn.
func (s *Service) Interactions() ([]interaction.Readout, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess := s.active
	if sess == nil {
		return nil, errors.New(errors.ErrCodeNoActiveStructure, "no active structure")
	}
	edges := sess.engine.Detector().Detect(sess.machine.Selection(), sess.machine.Nearby())
	return interaction.DescribeAll(edges), nil
}

// Hover returns the hover readout of the active structure, nil when the
// cursor is not over an atom.
func (s *Service) Hover() *HoverInfo {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active == nil {
		return nil
	}
	return s.active.hover
}
