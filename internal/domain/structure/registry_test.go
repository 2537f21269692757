package structure_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/irisuniflora/VF/internal/domain/structure"
	"github.com/irisuniflora/VF/internal/testutil"
)

func TestNewRegistry_OrdersSequencesPerChain(t *testing.T) {
	reg := testutil.Registry(
		testutil.Residue("B", 7, "GLY", 0, 0, 0),
		testutil.Residue("A", 3, "LYS", 10, 0, 0),
		testutil.Residue("A", 1, "ALA", 20, 0, 0),
		testutil.Residue("A", 2, "TRP", 30, 0, 0),
	)

	assert.Equal(t, []string{"B", "A"}, reg.Chains())

	seq := reg.Sequence("A")
	require.Len(t, seq, 3)
	assert.Equal(t, []int{1, 2, 3}, []int{seq[0].Key.Seq, seq[1].Key.Seq, seq[2].Key.Seq})
	assert.Equal(t, "W", seq[1].Code1)
	assert.Equal(t, "TRP", seq[1].Code3)

	assert.Equal(t, []structure.ResidueKey{
		structure.Key("B", 7), structure.Key("A", 1), structure.Key("A", 2), structure.Key("A", 3),
	}, reg.Residues())
	idx, ok := reg.Index(structure.Key("A", 2))
	assert.True(t, ok)
	assert.Equal(t, 2, idx)
}

func TestNewRegistry_FirstSeenWinsForDuplicateResidues(t *testing.T) {
	first := testutil.Residue("A", 5, "SER", 0, 0, 0)
	other := testutil.Residue("A", 6, "GLY", 10, 0, 0)
	repeat := testutil.Residue("A", 5, "SER", 99, 99, 99)
	renamed := []structure.Atom{testutil.Atom("A", 6, "ALA", "CB", 1, 1, 1)}

	reg := testutil.Registry(first, other, repeat, renamed)

	atoms := reg.Atoms(structure.Key("A", 5))
	require.Len(t, atoms, 4)
	for _, a := range atoms {
		assert.Less(t, a.Pos.X, 50.0, "atoms of the later duplicate must be ignored")
	}
	assert.Equal(t, "GLY", reg.ResidueName(structure.Key("A", 6)))
	assert.Len(t, reg.Atoms(structure.Key("A", 6)), 4)
	assert.Equal(t, 5, reg.Dropped())
}

func TestNewRegistry_AlternateLocationAtomsDeduplicated(t *testing.T) {
	atoms := testutil.Residue("A", 1, "VAL", 0, 0, 0)
	atoms = append(atoms, testutil.Atom("A", 1, "VAL", "CA", 5, 5, 5))

	reg := testutil.Registry(atoms)

	got := reg.Atoms(structure.Key("A", 1))
	require.Len(t, got, 4)
	for _, a := range got {
		if a.Name == "CA" {
			assert.Equal(t, 0.0, a.Pos.X)
		}
	}
}

func TestNewRegistry_HeteroAndWater(t *testing.T) {
	lig := []structure.Atom{
		testutil.Atom("A", 100, "HEM", "FE", 0, 0, 0),
		testutil.Atom("A", 100, "HEM", "NA", 2, 0, 0),
		testutil.Atom("A", 100, "HEM", "NB", 0, 4, 0),
	}
	water := []structure.Atom{testutil.Atom("A", 200, "HOH", "O", 9, 9, 9)}
	ion := []structure.Atom{testutil.Atom("A", 300, "MG", "MG", 1, 1, 1)}

	reg := testutil.Registry(testutil.Residue("A", 1, "ALA", 0, 0, 0), lig, water, ion)

	assert.Len(t, reg.Sequence("A"), 1, "non-standard residues are not sequence entries")
	assert.False(t, reg.Has(structure.Key("A", 200)), "water is dropped entirely")
	assert.Nil(t, reg.Atoms(structure.Key("A", 200)))

	het := reg.Hetero()
	require.Len(t, het, 2)
	assert.Equal(t, "HEM", het[0].Code3)
	assert.Equal(t, structure.Ligand, het[0].Class)
	assert.InDelta(t, 2.0/3.0, het[0].Centroid.X, 1e-9)
	assert.InDelta(t, 4.0/3.0, het[0].Centroid.Y, 1e-9)
	assert.Equal(t, 3, het[0].AtomCount)
	assert.Equal(t, structure.Ion, het[1].Class)

	for _, a := range reg.Atoms(structure.Key("A", 100)) {
		assert.True(t, a.Hetero)
	}
	for _, a := range reg.Atoms(structure.Key("A", 1)) {
		assert.False(t, a.Hetero)
	}
	assert.False(t, reg.IsPolymer(structure.Key("A", 100)))
	_, ok := reg.HeteroResidue(structure.Key("A", 100))
	assert.True(t, ok)
}

func TestRegistry_RangeInChain_WithGaps(t *testing.T) {
	var groups [][]structure.Atom
	for _, seq := range []int{8, 10, 11, 14, 15, 19, 20, 21} {
		groups = append(groups, testutil.Residue("A", seq, "ALA", float64(seq)*10, 0, 0))
	}
	groups = append(groups, testutil.Residue("B", 12, "ALA", 0, 50, 0))
	reg := testutil.Registry(groups...)

	got := reg.RangeInChain("A", 20, 10)
	var seqs []int
	for _, k := range got {
		seqs = append(seqs, k.Seq)
		assert.Equal(t, "A", k.Chain)
	}
	assert.Equal(t, []int{10, 11, 14, 15, 19, 20}, seqs)
	assert.Empty(t, reg.RangeInChain("C", 0, 100))
}

func TestRegistry_BFactorAndSecondaryStructure(t *testing.T) {
	a := testutil.Atom("A", 1, "ALA", "CA", 0, 0, 0)
	a.BFactor, a.HasBFactor, a.SS = 10, true, structure.Helix
	b := testutil.Atom("A", 1, "ALA", "CB", 1, 0, 0)
	b.BFactor, b.HasBFactor = 30, true
	c := testutil.Atom("A", 2, "ALA", "CA", 5, 0, 0)

	reg := structure.NewRegistry([]structure.Atom{a, b, c})

	lo, hi, ok := reg.BFactorRange()
	assert.True(t, ok)
	assert.Equal(t, 10.0, lo)
	assert.Equal(t, 30.0, hi)

	mean, ok := reg.MeanBFactor(structure.Key("A", 1))
	assert.True(t, ok)
	assert.Equal(t, 20.0, mean)
	_, ok = reg.MeanBFactor(structure.Key("A", 2))
	assert.False(t, ok)

	assert.Equal(t, structure.Helix, reg.SecondaryStructure(structure.Key("A", 1)))
	assert.Equal(t, structure.Coil, reg.SecondaryStructure(structure.Key("A", 2)))
	assert.Equal(t, structure.Coil, reg.SecondaryStructure(structure.Key("Z", 2)))
}

func TestRegistry_EntryAndChainIndex(t *testing.T) {
	reg := testutil.LinearChain("A", 3, "LEU")

	e, ok := reg.Entry(structure.Key("A", 2))
	require.True(t, ok)
	assert.Equal(t, "L", e.Code1)
	_, ok = reg.Entry(structure.Key("A", 9))
	assert.False(t, ok)

	assert.Equal(t, 0, reg.ChainIndex("A"))
	assert.Equal(t, -1, reg.ChainIndex("Q"))
	assert.Equal(t, 12, reg.AtomCount())
	assert.Equal(t, 3, reg.Len())
}
