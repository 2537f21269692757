package testutil

import (
	"fmt"
	"strings"

	"github.com/irisuniflora/VF/internal/domain/structure"
)

// PDBAtomLine formats one fixed-column ATOM/HETATM record.
func PDBAtomLine(record string, serial int, name, resn, chain string, seq int, x, y, z, b float64, elem string) string {
	return fmt.Sprintf("%-6s%5d %-4s%1s%3s %1s%4d%1s   %8.3f%8.3f%8.3f%6.2f%6.2f          %2s",
		record, serial, name, " ", resn, chain, seq, " ", x, y, z, 1.0, b, elem)
}

// Atom builds a registry atom.  The element is the first letter of name.
func Atom(chain string, seq int, resn, name string, x, y, z float64) structure.Atom {
	return structure.Atom{
		Name:    name,
		Element: name[:1],
		ResName: resn,
		Key:     structure.Key(chain, seq),
		Pos:     structure.Vec3{X: x, Y: y, Z: z},
	}
}

// Residue builds the four backbone atoms of a residue around a CA position,
// plus an optional list of extra atoms.
func Residue(chain string, seq int, resn string, x, y, z float64, extra ...structure.Atom) []structure.Atom {
	atoms := []structure.Atom{
		Atom(chain, seq, resn, "N", x-1.2, y+0.6, z),
		Atom(chain, seq, resn, "CA", x, y, z),
		Atom(chain, seq, resn, "C", x+1.2, y+0.6, z),
		Atom(chain, seq, resn, "O", x+1.4, y+1.8, z),
	}
	return append(atoms, extra...)
}

// Registry indexes atom groups into a registry.
func Registry(groups ...[]structure.Atom) *structure.Registry {
	var all []structure.Atom
	for _, g := range groups {
		all = append(all, g...)
	}
	return structure.NewRegistry(all)
}

// LinearChain builds residues 1..n of chain spaced 10 Å apart along X so no
// two residues are within any interaction cutoff.
func LinearChain(chain string, n int, resn string) *structure.Registry {
	var groups [][]structure.Atom
	for i := 1; i <= n; i++ {
		groups = append(groups, Residue(chain, i, resn, float64(i)*10, 0, 0))
	}
	return Registry(groups...)
}

// SamplePDB is a small two-chain structure with a helix, a ligand, an ion,
// a sugar, and waters.
var SamplePDB = strings.Join([]string{
	"HEADER    TEST STRUCTURE",
	"HELIX    1   1 ALA A    1  LYS A    3  1                                   3",
	PDBAtomLine("ATOM", 1, "N", "ALA", "A", 1, 0, 0, 0, 10, "N"),
	PDBAtomLine("ATOM", 2, "CA", "ALA", "A", 1, 1.5, 0, 0, 12, "C"),
	PDBAtomLine("ATOM", 3, "C", "ALA", "A", 1, 2.0, 1.4, 0, 14, "C"),
	PDBAtomLine("ATOM", 4, "O", "ALA", "A", 1, 1.2, 2.3, 0, 16, "O"),
	PDBAtomLine("ATOM", 5, "CB", "ALA", "A", 1, 2.0, -0.8, 1.2, 18, "C"),
	PDBAtomLine("ATOM", 6, "N", "ASP", "A", 2, 3.3, 1.6, 0, 20, "N"),
	PDBAtomLine("ATOM", 7, "CA", "ASP", "A", 2, 3.9, 2.9, 0, 22, "C"),
	PDBAtomLine("ATOM", 8, "OD1", "ASP", "A", 2, 4.9, 3.5, 1.0, 24, "O"),
	PDBAtomLine("ATOM", 9, "N", "LYS", "A", 3, 5.2, 2.8, 0, 26, "N"),
	PDBAtomLine("ATOM", 10, "CA", "LYS", "A", 3, 6.0, 4.0, 0, 28, "C"),
	PDBAtomLine("ATOM", 11, "NZ", "LYS", "A", 3, 7.0, 5.0, 1.0, 30, "N"),
	PDBAtomLine("ATOM", 12, "N", "GLY", "B", 10, 20, 0, 0, 40, "N"),
	PDBAtomLine("ATOM", 13, "CA", "GLY", "B", 10, 21.5, 0, 0, 42, "C"),
	PDBAtomLine("ATOM", 14, "N", "SER", "B", 12, 24, 0, 0, 44, "N"),
	PDBAtomLine("ATOM", 15, "CA", "SER", "B", 12, 25.5, 0, 0, 46, "C"),
	PDBAtomLine("HETATM", 16, "C1", "LIG", "A", 101, 10, 10, 10, 50, "C"),
	PDBAtomLine("HETATM", 17, "C2", "LIG", "A", 101, 12, 10, 10, 50, "C"),
	PDBAtomLine("HETATM", 18, "ZN", "ZN", "A", 102, 0, 10, 0, 30, ""),
	PDBAtomLine("HETATM", 19, "C1", "NAG", "B", 201, 30, 0, 0, 60, "C"),
	PDBAtomLine("HETATM", 20, "O", "HOH", "A", 301, 50, 50, 50, 70, "O"),
	PDBAtomLine("HETATM", 21, "O", "HOH", "B", 302, 51, 50, 50, 70, "O"),
	"END",
}, "\n")
