package render

import (
	"strings"

	"github.com/irisuniflora/VF/pkg/errors"
)

// StyleKind is a backend drawing style.
type StyleKind string

const (
	StyleCartoon   StyleKind = "cartoon"
	StyleStick     StyleKind = "stick"
	StyleBallStick StyleKind = "ballstick"
	StyleSphere    StyleKind = "sphere"
	StyleLine      StyleKind = "line"
	StyleSurface   StyleKind = "surface"
)

// AtomStyles are the styles a user may pick for the atom representation.
var AtomStyles = []StyleKind{StyleStick, StyleBallStick, StyleSphere, StyleLine}

// ParseAtomStyle validates a user-selectable atom style.
func ParseAtomStyle(s string) (StyleKind, error) {
	k := StyleKind(strings.ToLower(strings.TrimSpace(s)))
	for _, v := range AtomStyles {
		if v == k {
			return k, nil
		}
	}
	return "", errors.New(errors.ErrCodeStyleInvalid, "invalid style").WithDetail(s)
}

// Scheme is a rule-derived coloring.
type Scheme string

const (
	SchemeChain    Scheme = "chain"
	SchemeElement  Scheme = "element"
	SchemeSS       Scheme = "ss"
	SchemeSpectrum Scheme = "spectrum"
	SchemeBFactor  Scheme = "bfactor"
)

// Schemes lists the supported schemes.
var Schemes = []Scheme{SchemeChain, SchemeElement, SchemeSS, SchemeSpectrum, SchemeBFactor}

// ParseScheme validates a scheme name.
func ParseScheme(s string) (Scheme, error) {
	v := Scheme(strings.ToLower(strings.TrimSpace(s)))
	for _, sc := range Schemes {
		if sc == v {
			return v, nil
		}
	}
	return "", errors.New(errors.ErrCodeSchemeInvalid, "invalid color scheme").WithDetail(s)
}

// StyleSpec is one style+color instruction.  Exactly one of Color and Scheme
// is set.  Overlay specs use add semantics; base specs replace.
type StyleSpec struct {
	Kind          StyleKind      `json:"kind"`
	Color         Color          `json:"color,omitempty"`
	Scheme        Scheme         `json:"scheme,omitempty"`
	CarbonColor   Color          `json:"carbon,omitempty"`
	ElementColors []ElementColor `json:"elements,omitempty"`
	Radius        float64        `json:"radius,omitempty"`
	Add           bool           `json:"add,omitempty"`
}

// Equal compares two specs field by field.
func (s StyleSpec) Equal(o StyleSpec) bool {
	if s.Kind != o.Kind || s.Color != o.Color || s.Scheme != o.Scheme ||
		s.CarbonColor != o.CarbonColor || s.Radius != o.Radius || s.Add != o.Add ||
		len(s.ElementColors) != len(o.ElementColors) {
		return false
	}
	for i := range s.ElementColors {
		if s.ElementColors[i] != o.ElementColors[i] {
			return false
		}
	}
	return true
}
