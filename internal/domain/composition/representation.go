package composition

import (
	"strings"

	"github.com/irisuniflora/VF/internal/domain/structure"
	"github.com/irisuniflora/VF/pkg/errors"
)

// RepKind is a representation kind.
type RepKind string

const (
	RepCartoon RepKind = "cartoon"
	RepAtoms   RepKind = "atoms"
	RepSurface RepKind = "surface"
)

// RepKinds is the draw order of the base pass.
var RepKinds = []RepKind{RepCartoon, RepAtoms, RepSurface}

// ParseRepKind validates a representation kind.
func ParseRepKind(s string) (RepKind, error) {
	k := RepKind(strings.ToLower(strings.TrimSpace(s)))
	for _, v := range RepKinds {
		if v == k {
			return k, nil
		}
	}
	return "", errors.New(errors.ErrCodeRepresentationInvalid, "invalid representation kind").WithDetail(s)
}

// Mode is the visibility mode of a representation.
type Mode string

const (
	ModeFull    Mode = "full"
	ModePartial Mode = "partial"
)

// ParseMode validates a mode.
func ParseMode(s string) (Mode, error) {
	switch m := Mode(strings.ToLower(strings.TrimSpace(s))); m {
	case ModeFull, ModePartial:
		return m, nil
	}
	return "", errors.New(errors.ErrCodeRepresentationInvalid, "invalid representation mode").WithDetail(s)
}

// Representation is the visibility state of one kind.  Visible matters only
// in partial mode.
type Representation struct {
	Kind    RepKind
	Enabled bool
	Mode    Mode
	Visible structure.KeySet
}

// RepresentationView is the exported form of a Representation.
type RepresentationView struct {
	Kind    RepKind  `json:"kind"`
	Enabled bool     `json:"enabled"`
	Mode    Mode     `json:"mode"`
	Visible []string `json:"visible,omitempty"`
}

// Representations holds the three representation kinds of a structure.
type Representations struct {
	reps map[RepKind]*Representation
}

// NewRepresentations starts with the cartoon on in full mode and the other
// kinds off.
func NewRepresentations() *Representations {
	r := &Representations{reps: make(map[RepKind]*Representation, len(RepKinds))}
	for _, k := range RepKinds {
		r.reps[k] = &Representation{Kind: k, Mode: ModeFull, Visible: structure.NewKeySet()}
	}
	r.reps[RepCartoon].Enabled = true
	return r
}

// Get returns the state of kind.
func (r *Representations) Get(kind RepKind) (Representation, bool) {
	rep, ok := r.reps[kind]
	if !ok {
		return Representation{}, false
	}
	return *rep, true
}

// Toggle flips kind on or off and returns the new value.
func (r *Representations) Toggle(kind RepKind) (bool, error) {
	rep, ok := r.reps[kind]
	if !ok {
		return false, errors.New(errors.ErrCodeRepresentationInvalid, "invalid representation kind").WithDetail(string(kind))
	}
	rep.Enabled = !rep.Enabled
	return rep.Enabled, nil
}

// SetEnabled sets kind on or off.
func (r *Representations) SetEnabled(kind RepKind, on bool) error {
	rep, ok := r.reps[kind]
	if !ok {
		return errors.New(errors.ErrCodeRepresentationInvalid, "invalid representation kind").WithDetail(string(kind))
	}
	rep.Enabled = on
	return nil
}

// SetMode switches kind between full and partial.  Entering partial mode
// isolates visible, typically the current selection; it also enables the
// kind.
func (r *Representations) SetMode(kind RepKind, mode Mode, visible structure.KeySet) error {
	rep, ok := r.reps[kind]
	if !ok {
		return errors.New(errors.ErrCodeRepresentationInvalid, "invalid representation kind").WithDetail(string(kind))
	}
	rep.Mode = mode
	if mode == ModePartial {
		rep.Visible = visible.Clone()
		rep.Enabled = true
	} else {
		rep.Visible = structure.NewKeySet()
	}
	return nil
}

// Views lists the kinds in draw order.
func (r *Representations) Views() []RepresentationView {
	out := make([]RepresentationView, 0, len(RepKinds))
	for _, k := range RepKinds {
		rep := r.reps[k]
		v := RepresentationView{Kind: k, Enabled: rep.Enabled, Mode: rep.Mode}
		if rep.Mode == ModePartial {
			v.Visible = rep.Visible.Strings()
		}
		out = append(out, v)
	}
	return out
}
