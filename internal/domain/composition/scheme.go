package composition

import (
	"github.com/irisuniflora/VF/internal/domain/render"
	"github.com/irisuniflora/VF/internal/domain/structure"
)

// ChainPalette colors chains by first-appearance order, wrapping around.
var ChainPalette = []render.Color{
	"#1F77B4", "#FF7F0E", "#2CA02C", "#D62728", "#9467BD",
	"#8C564B", "#E377C2", "#7F7F7F", "#BCBD22", "#17BECF",
}

// Secondary-structure colors.
const (
	HelixColor render.Color = "#FF0080"
	SheetColor render.Color = "#FFC800"
	CoilColor  render.Color = "#FFFFFF"
)

var spectrumStops = []render.Color{"#0000FF", "#00FFFF", "#00FF00", "#FFFF00", "#FF0000"}

// Temperature-factor gradient endpoints, through white.
const (
	BFactorLow  render.Color = "#0000FF"
	BFactorMid  render.Color = "#FFFFFF"
	BFactorHigh render.Color = "#FF0000"
)

// Resolver computes scheme colors from the registry on demand.
type Resolver struct {
	reg *structure.Registry
}

// NewResolver returns a resolver over reg.
func NewResolver(reg *structure.Registry) Resolver { return Resolver{reg: reg} }

// SchemeColor returns the carbon color scheme s assigns to residue k.
func (r Resolver) SchemeColor(k structure.ResidueKey, s render.Scheme) render.Color {
	switch s {
	case render.SchemeElement:
		return render.DefaultCarbon
	case render.SchemeSS:
		switch r.reg.SecondaryStructure(k) {
		case structure.Helix:
			return HelixColor
		case structure.Sheet:
			return SheetColor
		}
		return CoilColor
	case render.SchemeSpectrum:
		i, ok := r.reg.Index(k)
		if !ok || r.reg.Len() < 2 {
			return spectrumStops[0]
		}
		return gradient(spectrumStops, float64(i)/float64(r.reg.Len()-1))
	case render.SchemeBFactor:
		b, ok := r.reg.MeanBFactor(k)
		lo, hi, hasRange := r.reg.BFactorRange()
		if !ok || !hasRange || hi <= lo {
			return BFactorMid
		}
		return gradient([]render.Color{BFactorLow, BFactorMid, BFactorHigh}, (b-lo)/(hi-lo))
	default:
		i := r.reg.ChainIndex(k.Chain)
		if i < 0 {
			i = 0
		}
		return ChainPalette[i%len(ChainPalette)]
	}
}

// Color returns k's explicit override when present, else its scheme color.
func (r Resolver) Color(k structure.ResidueKey, s render.Scheme, cm *ColorMap) render.Color {
	if cm != nil {
		if c, ok := cm.Get(k); ok {
			return c
		}
	}
	return r.SchemeColor(k, s)
}

func gradient(stops []render.Color, t float64) render.Color {
	if t <= 0 {
		return stops[0]
	}
	if t >= 1 {
		return stops[len(stops)-1]
	}
	pos := t * float64(len(stops)-1)
	i := int(pos)
	return stops[i].Lerp(stops[i+1], pos-float64(i))
}
