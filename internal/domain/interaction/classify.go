package interaction

import (
	"strings"

	"github.com/irisuniflora/VF/internal/domain/structure"
)

// Distance cutoffs in Ångströms.
const (
	SaltBridgeCutoff   = 4.0
	HydrogenBondCutoff = 3.5
	HydrophobicCutoff  = 4.5
	PiStackingCutoff   = 5.5
	VanDerWaalsCutoff  = 4.0

	// ScanCutoff bounds every pair search; it is the largest cutoff above.
	ScanCutoff = PiStackingCutoff
)

var positiveAtoms = map[string]map[string]bool{
	"ARG": {"NE": true, "NH1": true, "NH2": true},
	"LYS": {"NZ": true},
	"HIS": {"ND1": true, "NE2": true},
}

var negativeAtoms = map[string]map[string]bool{
	"ASP": {"OD1": true, "OD2": true},
	"GLU": {"OE1": true, "OE2": true},
}

var hydrophobicResidues = map[string]bool{
	"ALA": true, "VAL": true, "LEU": true, "ILE": true,
	"MET": true, "PHE": true, "TRP": true, "PRO": true,
}

var aromaticResidues = map[string]bool{"PHE": true, "TYR": true, "TRP": true, "HIS": true}

func isCation(a structure.Atom) bool { return positiveAtoms[a.ResName][a.Name] }

func isAnion(a structure.Atom) bool { return negativeAtoms[a.ResName][a.Name] }

// sidechainCarbon matches by atom name so hydrogens named like "HB2" never
// qualify and element columns left blank do not matter.
func sidechainCarbon(a structure.Atom) bool {
	return strings.HasPrefix(a.Name, "C") && a.Name != "C" && a.Name != "CA"
}

func polar(a structure.Atom) bool {
	e := strings.ToUpper(a.Element)
	return e == "N" || e == "O"
}

// Classify returns the interaction kind of an atom pair at distance d.  Rules
// are tried in priority order and the first match wins.  ok is false when the
// pair does not qualify for any kind.
func Classify(a, b structure.Atom, d float64) (kind Kind, ok bool) {
	if d < SaltBridgeCutoff && ((isCation(a) && isAnion(b)) || (isAnion(a) && isCation(b))) {
		return SaltBridge, true
	}
	if d < HydrogenBondCutoff && polar(a) && polar(b) {
		if a.IsBackbone() && b.IsBackbone() {
			return HydrogenBondBackbone, true
		}
		return HydrogenBondSidechain, true
	}
	if d < HydrophobicCutoff && hydrophobicResidues[a.ResName] && hydrophobicResidues[b.ResName] &&
		sidechainCarbon(a) && sidechainCarbon(b) {
		return Hydrophobic, true
	}
	if d < PiStackingCutoff && aromaticResidues[a.ResName] && aromaticResidues[b.ResName] {
		return PiStacking, true
	}
	if d < VanDerWaalsCutoff {
		return VanDerWaals, true
	}
	return 0, false
}
