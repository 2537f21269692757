package structure

import "strings"

// aminoThreeToOne maps standard amino-acid codes to their one-letter code.
var aminoThreeToOne = map[string]string{
	"ALA": "A", "ARG": "R", "ASN": "N", "ASP": "D", "CYS": "C",
	"GLN": "Q", "GLU": "E", "GLY": "G", "HIS": "H", "ILE": "I",
	"LEU": "L", "LYS": "K", "MET": "M", "PHE": "F", "PRO": "P",
	"SER": "S", "THR": "T", "TRP": "W", "TYR": "Y", "VAL": "V",
	"SEC": "U", "PYL": "O",
}

var waterCodes = map[string]bool{
	"HOH": true, "WAT": true, "H2O": true, "DOD": true, "D2O": true,
	"TIP": true, "TIP3": true, "TIP4": true, "SOL": true,
}

var ionCodes = map[string]bool{
	"NA": true, "K": true, "LI": true, "RB": true, "CS": true,
	"MG": true, "CA": true, "SR": true, "BA": true,
	"ZN": true, "FE": true, "FE2": true, "MN": true, "CU": true, "CU1": true,
	"CO": true, "NI": true, "CD": true, "HG": true, "PT": true, "AU": true, "AG": true,
	"CL": true, "BR": true, "IOD": true, "F": true,
}

// glycanCodes maps common monosaccharide residue codes to their SNFG symbol
// color.
var glycanCodes = map[string]string{
	"GLC": "#0072BC", "BGC": "#0072BC",
	"MAN": "#00A651", "BMA": "#00A651",
	"GAL": "#FFD400", "GLA": "#FFD400",
	"NAG": "#0072BC", "NDG": "#0072BC",
	"NGA": "#FFD400", "A2G": "#FFD400",
	"FUC": "#ED1C24", "FUL": "#ED1C24",
	"SIA": "#A54399", "SLB": "#A54399",
	"XYS": "#F47920", "XYP": "#F47920",
}

// OneLetter returns the one-letter code for a standard residue, or "X".
func OneLetter(code3 string) string {
	if c, ok := aminoThreeToOne[strings.ToUpper(code3)]; ok {
		return c
	}
	return "X"
}

// IsStandardResidue reports whether code3 is in the standard amino-acid table.
func IsStandardResidue(code3 string) bool {
	_, ok := aminoThreeToOne[strings.ToUpper(code3)]
	return ok
}

// IsWater reports whether code3 names a solvent water residue.
func IsWater(code3 string) bool { return waterCodes[strings.ToUpper(code3)] }

// HeteroClass classifies a non-polymer residue for rendering.
type HeteroClass uint8

const (
	Ligand HeteroClass = iota
	Ion
	Glycan
)

func (c HeteroClass) String() string {
	switch c {
	case Ion:
		return "ion"
	case Glycan:
		return "glycan"
	default:
		return "ligand"
	}
}

// ClassifyHetero returns the class of a non-standard residue code.
func ClassifyHetero(code3 string) HeteroClass {
	code3 = strings.ToUpper(code3)
	if ionCodes[code3] {
		return Ion
	}
	if _, ok := glycanCodes[code3]; ok {
		return Glycan
	}
	return Ligand
}

// GlycanColor returns the SNFG symbol color for a sugar residue code.
func GlycanColor(code3 string) (string, bool) {
	c, ok := glycanCodes[strings.ToUpper(code3)]
	return c, ok
}
