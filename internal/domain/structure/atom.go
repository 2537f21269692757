package structure

import "math"

// Vec3 is a Cartesian coordinate in Ångströms.
type Vec3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Sub returns v - o.
func (v Vec3) Sub(o Vec3) Vec3 { return Vec3{v.X - o.X, v.Y - o.Y, v.Z - o.Z} }

// Add returns v + o.
func (v Vec3) Add(o Vec3) Vec3 { return Vec3{v.X + o.X, v.Y + o.Y, v.Z + o.Z} }

// Scale returns v * f.
func (v Vec3) Scale(f float64) Vec3 { return Vec3{v.X * f, v.Y * f, v.Z * f} }

// Dist2 returns the squared Euclidean distance to o.
func (v Vec3) Dist2(o Vec3) float64 {
	d := v.Sub(o)
	return d.X*d.X + d.Y*d.Y + d.Z*d.Z
}

// Dist returns the Euclidean distance to o.
func (v Vec3) Dist(o Vec3) float64 { return math.Sqrt(v.Dist2(o)) }

// SecondaryStructure is the per-residue fold class.
type SecondaryStructure uint8

const (
	Coil SecondaryStructure = iota
	Helix
	Sheet
)

func (s SecondaryStructure) String() string {
	switch s {
	case Helix:
		return "helix"
	case Sheet:
		return "sheet"
	default:
		return "coil"
	}
}

// Atom is one atom of a loaded structure.  Atoms are owned by the Registry
// and must be treated as read-only.
type Atom struct {
	Serial     int                `json:"serial"`
	Name       string             `json:"name"`
	Element    string             `json:"elem"`
	ResName    string             `json:"resn"`
	Key        ResidueKey         `json:"key"`
	Pos        Vec3               `json:"pos"`
	BFactor    float64            `json:"b,omitempty"`
	HasBFactor bool               `json:"-"`
	SS         SecondaryStructure `json:"ss"`
	Hetero     bool               `json:"hetflag"`
}

// IsBackbone reports whether the atom name is a peptide backbone atom.
func (a Atom) IsBackbone() bool { return backboneNames[a.Name] }

// IsPolar reports whether the atom is a nitrogen or oxygen.
func (a Atom) IsPolar() bool { return a.Element == "N" || a.Element == "O" }

// IsSidechainCarbon reports a carbon that is not the backbone C or CA.
func (a Atom) IsSidechainCarbon() bool {
	return a.Element == "C" && a.Name != "C" && a.Name != "CA"
}

var backboneNames = map[string]bool{"N": true, "CA": true, "C": true, "O": true, "H": true, "HA": true}
