// Package interaction finds residue contacts and classifies atom pairs into
// non-covalent interaction kinds with a fast geometric heuristic.
package interaction

import "encoding/json"

// Kind is the class of an interaction edge.
type Kind uint8

const (
	SaltBridge Kind = iota
	HydrogenBondBackbone
	HydrogenBondSidechain
	Hydrophobic
	PiStacking
	VanDerWaals
)

// Kinds lists every kind in classification priority order.
var Kinds = []Kind{SaltBridge, HydrogenBondBackbone, HydrogenBondSidechain, Hydrophobic, PiStacking, VanDerWaals}

var kindNames = [...]string{
	SaltBridge:            "salt_bridge",
	HydrogenBondBackbone:  "hbond_backbone",
	HydrogenBondSidechain: "hbond_sidechain",
	Hydrophobic:           "hydrophobic",
	PiStacking:            "pi_stacking",
	VanDerWaals:           "vdw",
}

var kindLabels = [...]string{
	SaltBridge:            "Salt bridge",
	HydrogenBondBackbone:  "H-bond (backbone)",
	HydrogenBondSidechain: "H-bond (sidechain)",
	Hydrophobic:           "Hydrophobic",
	PiStacking:            "Pi stacking",
	VanDerWaals:           "Van der Waals",
}

// Edge colors, one per kind.
var kindColors = [...]string{
	SaltBridge:            "#FF4500",
	HydrogenBondBackbone:  "#1E90FF",
	HydrogenBondSidechain: "#00BFFF",
	Hydrophobic:           "#DAA520",
	PiStacking:            "#9932CC",
	VanDerWaals:           "#A9A9A9",
}

func (k Kind) valid() bool { return int(k) < len(kindNames) }

// String returns the machine name, e.g. "salt_bridge".
func (k Kind) String() string {
	if !k.valid() {
		return "unknown"
	}
	return kindNames[k]
}

// Label returns the human-readable name used in readouts.
func (k Kind) Label() string {
	if !k.valid() {
		return "Unknown"
	}
	return kindLabels[k]
}

// Color returns the hex color used to draw edges of this kind.
func (k Kind) Color() string {
	if !k.valid() {
		return "#FFFFFF"
	}
	return kindColors[k]
}

// MarshalJSON encodes the kind by name.
func (k Kind) MarshalJSON() ([]byte, error) {
	return json.Marshal(k.String())
}

// ParseKind is the inverse of Kind.String.
func ParseKind(s string) (Kind, bool) {
	for i, n := range kindNames {
		if n == s {
			return Kind(i), true
		}
	}
	return 0, false
}
