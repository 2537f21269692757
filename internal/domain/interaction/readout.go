package interaction

import (
	"fmt"

	"github.com/irisuniflora/VF/internal/domain/structure"
)

// Readout is the hover/info text for one edge.
type Readout struct {
	From     string  `json:"from"`
	To       string  `json:"to"`
	Kind     string  `json:"kind"`
	Label    string  `json:"label"`
	Color    string  `json:"color"`
	Distance float64 `json:"distance"`
	Text     string  `json:"text"`
}

func atomLabel(a structure.Atom) string {
	return fmt.Sprintf("%s %s %s", a.ResName, a.Key, a.Name)
}

// Describe renders e for display.  The distance is rounded to one decimal.
func Describe(e Edge) Readout {
	from, to := atomLabel(e.A), atomLabel(e.B)
	return Readout{
		From:     from,
		To:       to,
		Kind:     e.Kind.String(),
		Label:    e.Kind.Label(),
		Color:    e.Kind.Color(),
		Distance: e.Distance,
		Text:     fmt.Sprintf("%s <-> %s: %s, %.1f Å", from, to, e.Kind.Label(), e.Distance),
	}
}

// DescribeAll maps Describe over edges.
func DescribeAll(edges []Edge) []Readout {
	out := make([]Readout, len(edges))
	for i, e := range edges {
		out[i] = Describe(e)
	}
	return out
}
