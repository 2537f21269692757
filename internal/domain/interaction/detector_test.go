package interaction_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/irisuniflora/VF/internal/domain/interaction"
	"github.com/irisuniflora/VF/internal/domain/structure"
	"github.com/irisuniflora/VF/internal/testutil"
)

func atoms(list ...structure.Atom) []structure.Atom { return list }

func TestDetect_SaltBridge(t *testing.T) {
	reg := testutil.Registry(
		atoms(testutil.Atom("A", 1, "ASP", "OD1", 0, 0, 0)),
		atoms(testutil.Atom("A", 5, "LYS", "NZ", 3, 0, 0)),
	)
	d := interaction.NewDetector(reg)

	edges := d.Detect(structure.MustKeys("A:1"), structure.MustKeys("A:5"))

	require.Len(t, edges, 1)
	assert.Equal(t, interaction.SaltBridge, edges[0].Kind)
	assert.InDelta(t, 3.0, edges[0].Distance, 1e-9)
	assert.Equal(t, "OD1", edges[0].A.Name)
	assert.Equal(t, "NZ", edges[0].B.Name)
}

func TestDetect_BackboneHydrogenBond(t *testing.T) {
	reg := testutil.Registry(
		atoms(testutil.Atom("A", 1, "GLY", "N", 0, 0, 0)),
		atoms(testutil.Atom("A", 2, "GLY", "O", 0, 2.9, 0)),
	)

	edges := interaction.NewDetector(reg).Detect(structure.MustKeys("A:1"), structure.MustKeys("A:2"))

	require.Len(t, edges, 1)
	assert.Equal(t, interaction.HydrogenBondBackbone, edges[0].Kind)
}

func TestClassify_PriorityOrder(t *testing.T) {
	cases := []struct {
		name string
		a, b structure.Atom
		d    float64
		want interaction.Kind
		ok   bool
	}{
		{
			name: "salt bridge beats hydrogen bond",
			a:    testutil.Atom("A", 1, "GLU", "OE2", 0, 0, 0),
			b:    testutil.Atom("B", 1, "ARG", "NH1", 0, 0, 0),
			d:    2.8, want: interaction.SaltBridge, ok: true,
		},
		{
			name: "charged residue on a backbone atom is not a salt bridge",
			a:    testutil.Atom("A", 1, "GLU", "O", 0, 0, 0),
			b:    testutil.Atom("B", 1, "ARG", "NH1", 0, 0, 0),
			d:    3.2, want: interaction.HydrogenBondSidechain, ok: true,
		},
		{
			name: "sidechain hydrogen bond",
			a:    testutil.Atom("A", 1, "SER", "OG", 0, 0, 0),
			b:    testutil.Atom("B", 1, "GLY", "O", 0, 0, 0),
			d:    2.8, want: interaction.HydrogenBondSidechain, ok: true,
		},
		{
			name: "hydrophobic sidechain carbons",
			a:    testutil.Atom("A", 1, "LEU", "CD1", 0, 0, 0),
			b:    testutil.Atom("B", 1, "VAL", "CG1", 0, 0, 0),
			d:    4.2, want: interaction.Hydrophobic, ok: true,
		},
		{
			name: "backbone CA never counts as hydrophobic",
			a:    testutil.Atom("A", 1, "LEU", "CA", 0, 0, 0),
			b:    testutil.Atom("B", 1, "VAL", "CG1", 0, 0, 0),
			d:    4.2,
		},
		{
			name: "aromatic pair",
			a:    testutil.Atom("A", 1, "PHE", "CZ", 0, 0, 0),
			b:    testutil.Atom("B", 1, "TYR", "OH", 0, 0, 0),
			d:    5.0, want: interaction.PiStacking, ok: true,
		},
		{
			name: "plain close contact",
			a:    testutil.Atom("A", 1, "ALA", "CB", 0, 0, 0),
			b:    testutil.Atom("B", 1, "GLY", "CA", 0, 0, 0),
			d:    3.8, want: interaction.VanDerWaals, ok: true,
		},
		{
			name: "too far for anything",
			a:    testutil.Atom("A", 1, "ALA", "CB", 0, 0, 0),
			b:    testutil.Atom("B", 1, "SER", "CB", 0, 0, 0),
			d:    4.8,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := interaction.Classify(tc.a, tc.b, tc.d)
			assert.Equal(t, tc.ok, ok)
			if tc.ok {
				assert.Equal(t, tc.want, got)
			}
		})
	}
}

func TestDetect_NeverPairsAtomsOfOneResidue(t *testing.T) {
	reg := testutil.Registry(testutil.Residue("A", 1, "SER", 0, 0, 0))
	d := interaction.NewDetector(reg)

	assert.Empty(t, d.Detect(structure.MustKeys("A:1"), structure.MustKeys("A:1")))
}

func TestDetect_OverlappingSetsReportEachPairOnce(t *testing.T) {
	reg := testutil.Registry(
		atoms(testutil.Atom("A", 1, "ASP", "OD1", 0, 0, 0)),
		atoms(testutil.Atom("A", 2, "LYS", "NZ", 3, 0, 0)),
	)
	both := structure.MustKeys("A:1", "A:2")

	edges := interaction.NewDetector(reg).Detect(both, both)

	require.Len(t, edges, 1)
	assert.NotEqual(t, edges[0].A.Key, edges[0].B.Key)
}

func TestDetect_EmptyAndStaleInputs(t *testing.T) {
	reg := testutil.Registry(atoms(testutil.Atom("A", 1, "ASP", "OD1", 0, 0, 0)))
	d := interaction.NewDetector(reg)

	assert.Nil(t, d.Detect(structure.NewKeySet(), structure.MustKeys("A:1")))
	assert.Nil(t, d.Detect(structure.MustKeys("A:1"), structure.NewKeySet()))
	assert.Nil(t, d.Detect(structure.MustKeys("A:1"), structure.MustKeys("Z:99")))
}

func TestDetect_SkipsHeteroAtoms(t *testing.T) {
	reg := testutil.Registry(
		atoms(testutil.Atom("A", 1, "SER", "OG", 0, 0, 0)),
		atoms(testutil.Atom("A", 900, "LIG", "O1", 2.5, 0, 0)),
	)

	edges := interaction.NewDetector(reg).Detect(structure.MustKeys("A:1"), structure.MustKeys("A:900"))

	assert.Empty(t, edges)
}

func TestDetect_DeterministicOrder(t *testing.T) {
	reg := testutil.Registry(
		atoms(
			testutil.Atom("A", 1, "ASP", "OD1", 0, 0, 0),
			testutil.Atom("A", 1, "ASP", "OD2", 0, 1, 0),
		),
		atoms(testutil.Atom("A", 5, "LYS", "NZ", 3, 0, 0)),
		atoms(testutil.Atom("B", 2, "ARG", "NH1", -3, 0, 0)),
	)
	d := interaction.NewDetector(reg)
	a, b := structure.MustKeys("A:1"), structure.MustKeys("A:5", "B:2")

	first := d.Detect(a, b)
	second := d.Detect(a, b)

	require.Len(t, first, 4)
	assert.Equal(t, first, second)
	assert.Equal(t, "OD1", first[0].A.Name)
	assert.Equal(t, structure.Key("A", 5), first[0].B.Key)
	assert.Equal(t, structure.Key("B", 2), first[1].B.Key)
	assert.Equal(t, map[interaction.Kind]int{interaction.SaltBridge: 4}, interaction.Count(first))
}
