package selection_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/irisuniflora/VF/internal/domain/interaction"
	"github.com/irisuniflora/VF/internal/domain/render"
	"github.com/irisuniflora/VF/internal/domain/selection"
	"github.com/irisuniflora/VF/internal/domain/structure"
	"github.com/irisuniflora/VF/internal/testutil"
	"github.com/irisuniflora/VF/pkg/errors"
)

type mockFinder struct {
	mock.Mock
}

func (m *mockFinder) Neighbors(sel structure.KeySet, cutoff float64) structure.KeySet {
	args := m.Called(sel, cutoff)
	return args.Get(0).(structure.KeySet)
}

var (
	plain = selection.Modifiers{}
	ctrl  = selection.Modifiers{Ctrl: true}
	shift = selection.Modifiers{Shift: true}
)

func gappedRegistry() *structure.Registry {
	var groups [][]structure.Atom
	for _, seq := range []int{8, 10, 11, 14, 15, 19, 20, 21} {
		groups = append(groups, testutil.Residue("A", seq, "ALA", float64(seq)*10, 0, 0))
	}
	groups = append(groups, testutil.Residue("B", 1, "GLY", 0, 100, 0))
	groups = append(groups, testutil.Residue("B", 2, "GLY", 10, 100, 0))
	return testutil.Registry(groups...)
}

func newMachine(reg *structure.Registry, showNearby bool) *selection.Machine {
	return selection.NewMachine(reg, interaction.NewDetector(reg), selection.Options{
		Cutoff:     interaction.DefaultNeighborCutoff,
		ShowNearby: showNearby,
	})
}

func TestClick_Plain(t *testing.T) {
	m := newMachine(gappedRegistry(), false)

	m.Click(structure.Key("A", 10), plain)
	m.Click(structure.Key("A", 14), plain)

	assert.Equal(t, []string{"A:14"}, m.Selection().Strings())
	anchor, ok := m.Anchor()
	assert.True(t, ok)
	assert.Equal(t, structure.Key("A", 14), anchor)
}

func TestClick_CtrlToggleTwiceRestores(t *testing.T) {
	m := newMachine(gappedRegistry(), true)
	m.Click(structure.Key("A", 10), plain)
	m.Click(structure.Key("A", 11), ctrl)
	before := m.Selection()

	for i := 0; i < 4; i++ {
		m.Click(structure.Key("B", 1), ctrl)
	}
	assert.True(t, before.Equal(m.Selection()))

	m.Click(structure.Key("A", 11), ctrl)
	assert.Equal(t, []string{"A:10"}, m.Selection().Strings())
	anchor, _ := m.Anchor()
	assert.Equal(t, structure.Key("B", 1), anchor, "removal leaves the anchor alone")
}

func TestClick_ShiftRangeHonorsGaps(t *testing.T) {
	m := newMachine(gappedRegistry(), false)
	m.Click(structure.Key("B", 2), plain)
	m.Click(structure.Key("A", 10), ctrl)

	m.Click(structure.Key("A", 20), shift)

	assert.Equal(t, []string{"A:10", "A:11", "A:14", "A:15", "A:19", "A:20", "B:2"}, m.Selection().Strings())
	anchor, _ := m.Anchor()
	assert.Equal(t, structure.Key("A", 20), anchor)

	m.Click(structure.Key("A", 8), shift)
	assert.Contains(t, m.Selection().Strings(), "A:8")
	assert.NotContains(t, m.Selection().Strings(), "A:21")
}

func TestClick_ShiftFallsBackToSingleResidue(t *testing.T) {
	t.Run("cross chain", func(t *testing.T) {
		m := newMachine(gappedRegistry(), false)
		m.Click(structure.Key("A", 10), plain)
		m.Click(structure.Key("B", 2), shift)
		assert.Equal(t, []string{"A:10", "B:2"}, m.Selection().Strings())
	})
	t.Run("no anchor", func(t *testing.T) {
		m := newMachine(gappedRegistry(), false)
		m.Click(structure.Key("A", 20), shift)
		assert.Equal(t, []string{"A:20"}, m.Selection().Strings())
	})
	t.Run("anchor missing from structure", func(t *testing.T) {
		m := newMachine(gappedRegistry(), false)
		m.Click(structure.Key("A", 9), plain)
		m.Click(structure.Key("A", 15), shift)
		assert.Equal(t, []string{"A:9", "A:15"}, m.Selection().Strings())
	})
}

func TestNearby_DisjointFromSelection(t *testing.T) {
	reg := testutil.Registry(
		testutil.Residue("A", 1, "ALA", 0, 0, 0),
		testutil.Residue("A", 2, "ALA", 0, 3, 0),
		testutil.Residue("A", 3, "ALA", 0, 6, 0),
		testutil.Residue("A", 4, "ALA", 0, 60, 0),
	)
	m := newMachine(reg, true)

	m.Click(structure.Key("A", 2), plain)
	assert.Equal(t, []string{"A:1", "A:3"}, m.Nearby().Strings())

	m.Click(structure.Key("A", 1), ctrl)
	assert.Equal(t, []string{"A:3"}, m.Nearby().Strings())
	assert.False(t, m.Nearby().Intersects(m.Selection()))

	assert.False(t, m.ToggleNearby())
	assert.Equal(t, 0, m.Nearby().Len())
	assert.True(t, m.ToggleNearby())
	assert.Equal(t, []string{"A:3"}, m.Nearby().Strings())
}

func TestNearby_FinderResultIsFiltered(t *testing.T) {
	reg := gappedRegistry()
	finder := new(mockFinder)
	finder.On("Neighbors", mock.Anything, 4.0).
		Return(structure.MustKeys("A:10", "A:11")).Once()
	m := selection.NewMachine(reg, finder, selection.Options{ShowNearby: true})

	m.Click(structure.Key("A", 10), plain)

	assert.Equal(t, []string{"A:11"}, m.Nearby().Strings())
	finder.AssertExpectations(t)
}

func TestNearby_NotComputedWhenDisabled(t *testing.T) {
	finder := new(mockFinder)
	m := selection.NewMachine(gappedRegistry(), finder, selection.Options{})

	m.Click(structure.Key("A", 10), plain)

	assert.Equal(t, 0, m.Nearby().Len())
	finder.AssertNotCalled(t, "Neighbors", mock.Anything, mock.Anything)
}

func TestClickEmptySpace_ClearsActiveRegion(t *testing.T) {
	reg := testutil.Registry(
		testutil.Residue("A", 1, "ALA", 0, 0, 0),
		testutil.Residue("A", 2, "ALA", 0, 3, 0),
	)
	m := newMachine(reg, true)
	m.Click(structure.Key("A", 1), plain)
	region := m.CreateRegion()
	require.Equal(t, []string{"A:1"}, region.Selection)
	require.Equal(t, []string{"A:2"}, region.Nearby)

	m.ClickEmptySpace()

	assert.Equal(t, 0, m.Selection().Len())
	assert.Equal(t, 0, m.Nearby().Len())
	_, ok := m.Anchor()
	assert.False(t, ok)
	stored, err := m.Region(region.ID)
	require.NoError(t, err)
	assert.Empty(t, stored.Selection)
	assert.Empty(t, stored.Nearby)
}

func TestRegions_Lifecycle(t *testing.T) {
	m := newMachine(gappedRegistry(), false)
	m.Click(structure.Key("A", 10), plain)

	r1 := m.CreateRegion()
	assert.Equal(t, 1, r1.ID)
	assert.True(t, r1.Active)

	m.Click(structure.Key("A", 11), ctrl)
	stored, _ := m.Region(1)
	assert.Equal(t, []string{"A:10", "A:11"}, stored.Selection, "active region mirrors live edits")

	require.NoError(t, m.ActivateRegion(nil))
	assert.Equal(t, 0, m.Selection().Len())
	_, active := m.ActiveRegion()
	assert.False(t, active)

	m.Click(structure.Key("B", 1), plain)
	r2 := m.CreateRegion()
	assert.Equal(t, 2, r2.ID)

	one := 1
	require.NoError(t, m.ActivateRegion(&one))
	assert.Equal(t, []string{"A:10", "A:11"}, m.Selection().Strings())
	stored, _ = m.Region(2)
	assert.Equal(t, []string{"B:1"}, stored.Selection)

	missing := 99
	err := m.ActivateRegion(&missing)
	assert.True(t, errors.IsCode(err, errors.ErrCodeRegionNotFound))
	assert.Equal(t, []string{"A:10", "A:11"}, m.Selection().Strings(), "failed switch changes nothing")

	require.NoError(t, m.DeleteRegion(2))
	assert.Equal(t, []string{"A:10", "A:11"}, m.Selection().Strings(), "deleting an inactive region keeps the live sets")

	require.NoError(t, m.DeleteRegion(1))
	_, active = m.ActiveRegion()
	assert.False(t, active)
	assert.Equal(t, 0, m.Selection().Len())
	assert.Equal(t, 0, m.Nearby().Len())
	assert.Empty(t, m.Regions())

	assert.True(t, errors.IsCode(m.DeleteRegion(1), errors.ErrCodeRegionNotFound))

	r3 := m.CreateRegion()
	assert.Equal(t, 3, r3.ID, "ids are never reused")
}

func TestRegions_ActivatingLiveContextKeepsSelection(t *testing.T) {
	m := newMachine(gappedRegistry(), false)
	m.Click(structure.Key("A", 10), plain)
	m.Click(structure.Key("A", 14), shift)
	rev := m.Revision()

	require.NoError(t, m.ActivateRegion(nil))
	assert.Equal(t, []string{"A:10", "A:11", "A:14"}, m.Selection().Strings())
	anchor, ok := m.Anchor()
	require.True(t, ok)
	assert.Equal(t, structure.Key("A", 14), anchor)
	assert.Equal(t, rev, m.Revision())

	r := m.CreateRegion()
	m.Click(structure.Key("B", 1), ctrl)
	require.NoError(t, m.ActivateRegion(&r.ID))
	assert.Equal(t, []string{"A:10", "A:11", "A:14", "B:1"}, m.Selection().Strings())
}

func TestRegions_StyleIndependentOfGlobal(t *testing.T) {
	m := newMachine(gappedRegistry(), false)
	m.SetStyle(render.StyleSphere)
	m.SetScheme(render.SchemeSS)

	r := m.CreateRegion()
	assert.Equal(t, render.StyleStick, r.Style)
	assert.Equal(t, render.SchemeChain, r.Scheme)

	m.SetStyle(render.StyleLine)
	m.SetScheme(render.SchemeBFactor)
	assert.Equal(t, render.StyleLine, m.Style())

	gs, gsc := m.GlobalStyle()
	assert.Equal(t, render.StyleSphere, gs)
	assert.Equal(t, render.SchemeSS, gsc)

	require.NoError(t, m.ActivateRegion(nil))
	assert.Equal(t, render.StyleSphere, m.Style())
	assert.Equal(t, render.SchemeSS, m.Scheme())
	stored, _ := m.Region(r.ID)
	assert.Equal(t, render.StyleLine, stored.Style)
	assert.Equal(t, render.SchemeBFactor, stored.Scheme)
}

func TestResetLive_KeepsRegionSnapshots(t *testing.T) {
	m := newMachine(gappedRegistry(), false)
	m.Click(structure.Key("A", 10), plain)
	r := m.CreateRegion()
	rev := m.Revision()

	m.ResetLive()

	assert.Greater(t, m.Revision(), rev)
	assert.Equal(t, 0, m.Selection().Len())
	_, ok := m.Anchor()
	assert.False(t, ok)
	_, active := m.ActiveRegion()
	assert.False(t, active)
	stored, _ := m.Region(r.ID)
	assert.Equal(t, []string{"A:10"}, stored.Selection)
}

func TestSnapshot(t *testing.T) {
	m := newMachine(gappedRegistry(), false)
	m.Click(structure.Key("A", 10), plain)
	m.CreateRegion()

	s := m.Snapshot()

	assert.Equal(t, []string{"A:10"}, s.Selection)
	assert.Equal(t, "A:10", s.Anchor)
	require.NotNil(t, s.ActiveRegion)
	assert.Equal(t, 1, *s.ActiveRegion)
	assert.Len(t, s.Regions, 1)
	assert.Equal(t, render.StyleStick, s.Style)
}
