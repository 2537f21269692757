package viewer_test

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/irisuniflora/VF/internal/application/viewer"
	"github.com/irisuniflora/VF/internal/domain/composition"
	"github.com/irisuniflora/VF/internal/domain/event"
	"github.com/irisuniflora/VF/internal/domain/interaction"
	"github.com/irisuniflora/VF/internal/domain/render"
	"github.com/irisuniflora/VF/internal/domain/selection"
	"github.com/irisuniflora/VF/internal/domain/structure"
	"github.com/irisuniflora/VF/internal/infrastructure/render/memory"
	"github.com/irisuniflora/VF/internal/testutil"
	"github.com/irisuniflora/VF/pkg/errors"
)

// pocket has an ASP/LYS salt bridge between A:1 and A:3 (3.0 Å) and a
// distant A:2, plus a ligand and an ion.
func pocket() *structure.Registry {
	return testutil.Registry(
		testutil.Residue("A", 1, "ASP", 0, 0, 0, testutil.Atom("A", 1, "ASP", "OD1", 0, -2, 0)),
		testutil.Residue("A", 2, "ALA", 20, 0, 0),
		testutil.Residue("A", 3, "LYS", 0, -20, 0, testutil.Atom("A", 3, "LYS", "NZ", 0, -5, 0)),
		testutil.Residue("B", 1, "GLY", 40, 0, 0),
		[]structure.Atom{testutil.Atom("A", 100, "ZN", "ZN", 60, 0, 0)},
		[]structure.Atom{testutil.Atom("A", 101, "LIG", "C1", 70, 0, 0)},
	)
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []event.Event
}

func (p *recordingPublisher) Publish(_ context.Context, ev event.Event) {
	p.mu.Lock()
	p.events = append(p.events, ev)
	p.mu.Unlock()
}

func (p *recordingPublisher) Types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.events))
	for i, ev := range p.events {
		out[i] = ev.Type
	}
	return out
}

type recordingMetrics struct {
	mu         sync.Mutex
	rebuilds   int
	structures int
	edges      map[string]int
}

func (m *recordingMetrics) ObserveRebuild(time.Duration, map[string]int) {
	m.mu.Lock()
	m.rebuilds++
	m.mu.Unlock()
}
func (m *recordingMetrics) BackendFailures(string, int) {}
func (m *recordingMetrics) InteractionEdges(kind string, n int) {
	m.mu.Lock()
	if m.edges == nil {
		m.edges = map[string]int{}
	}
	m.edges[kind] = n
	m.mu.Unlock()
}
func (m *recordingMetrics) SetStructures(n int) {
	m.mu.Lock()
	m.structures = n
	m.mu.Unlock()
}

type harness struct {
	svc      *viewer.Service
	clock    *manualClock
	pub      *recordingPublisher
	metrics  *recordingMetrics
	mu       sync.Mutex
	backends []*memory.Backend
}

func newHarness(t *testing.T, tweak func(*viewer.Options)) *harness {
	t.Helper()
	opts := viewer.DefaultOptions()
	opts.CoalesceWindow = 0
	opts.CameraRetryDelays = []time.Duration{50 * time.Millisecond, 200 * time.Millisecond}
	if tweak != nil {
		tweak(&opts)
	}
	h := &harness{clock: &manualClock{}, pub: &recordingPublisher{}, metrics: &recordingMetrics{}}
	h.svc = viewer.NewService(opts,
		viewer.WithScheduler(h.clock.Schedule),
		viewer.WithPublisher(h.pub),
		viewer.WithMetrics(h.metrics),
		viewer.WithLogger(testutil.NewMockLogger()),
		viewer.WithBackendFactory(func(reg *structure.Registry) render.Backend {
			b := memory.New(reg)
			h.mu.Lock()
			h.backends = append(h.backends, b)
			h.mu.Unlock()
			return b
		}))
	t.Cleanup(h.svc.Close)
	return h
}

func (h *harness) backend(i int) *memory.Backend {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.backends[i]
}

func (h *harness) load(t *testing.T, name string, reg *structure.Registry) viewer.StructureInfo {
	t.Helper()
	info, err := h.svc.LoadStructure(context.Background(), name, "inline", reg)
	require.NoError(t, err)
	return info
}

func (h *harness) state(t *testing.T) viewer.StateView {
	t.Helper()
	st, err := h.svc.State()
	require.NoError(t, err)
	return st
}

func TestService_NoActiveStructure(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()

	err := h.svc.Click(ctx, structure.Key("A", 1), selection.Modifiers{})
	assert.True(t, errors.IsCode(err, errors.ErrCodeNoActiveStructure))
	_, err = h.svc.State()
	assert.True(t, errors.IsCode(err, errors.ErrCodeNoActiveStructure))
	_, err = h.svc.Scene(ctx)
	assert.True(t, errors.IsCode(err, errors.ErrCodeNoActiveStructure))
	err = h.svc.Pointer(render.PointerEvent{Action: render.PointerDown})
	assert.True(t, errors.IsCode(err, errors.ErrCodeNoActiveStructure))
	assert.Nil(t, h.svc.Hover())
}

func TestService_LoadRejectsEmptyStructure(t *testing.T) {
	h := newHarness(t, nil)

	_, err := h.svc.LoadStructure(context.Background(), "empty", "inline", structure.NewRegistry(nil))

	assert.True(t, errors.IsCode(err, errors.ErrCodeStructureEmpty))
	assert.Empty(t, h.svc.Structures())
}

func TestService_LoadActivatesAndRenders(t *testing.T) {
	h := newHarness(t, nil)

	info := h.load(t, "pocket", pocket())

	assert.True(t, info.Active)
	assert.Equal(t, []string{"A", "B"}, info.Chains)
	assert.Equal(t, 4, info.Residues)
	assert.Equal(t, 2, info.Hetero)
	assert.Equal(t, []string{event.StructureLoaded}, h.pub.Types())
	assert.Equal(t, 1, h.metrics.structures)
	assert.Equal(t, 1, h.metrics.rebuilds)

	scene, err := h.svc.Scene(context.Background())
	require.NoError(t, err)
	assert.Equal(t, info.ID, scene.StructureID)
	assert.NotEmpty(t, scene.Styles)
	require.NotNil(t, scene.Camera)
}

func TestService_ClickSelectsAndFindsInteractions(t *testing.T) {
	h := newHarness(t, nil)
	h.load(t, "pocket", pocket())
	ctx := context.Background()

	require.NoError(t, h.svc.Click(ctx, structure.Key("A", 1), selection.Modifiers{}))

	st := h.state(t)
	assert.Equal(t, []string{"A:1"}, st.Selection)
	assert.Equal(t, []string{"A:3"}, st.Nearby)
	assert.Equal(t, "A:1", st.Anchor)

	readouts, err := h.svc.Interactions()
	require.NoError(t, err)
	require.Len(t, readouts, 1)
	assert.Equal(t, interaction.SaltBridge.String(), readouts[0].Kind)

	scene, err := h.svc.Scene(ctx)
	require.NoError(t, err)
	var ids []string
	for _, s := range scene.Shapes {
		ids = append(ids, s.ID)
	}
	assert.Contains(t, ids, "edge/A:1.OD1/A:3.NZ")
	assert.Equal(t, 1, h.metrics.edges[interaction.SaltBridge.String()])
	assert.Contains(t, h.pub.Types(), event.SelectionChanged)
}

func TestService_SwitchingKeepsColorsButResetsLiveSelection(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()
	first := h.load(t, "first", pocket())

	require.NoError(t, h.svc.Select(ctx, "A:1-3"))
	require.NoError(t, h.svc.SetColor(ctx, "#ff0000", viewer.ScopeSelection))
	region, err := h.svc.CreateRegion(ctx)
	require.NoError(t, err)
	require.NoError(t, h.svc.ActivateRegion(ctx, nil))
	require.NoError(t, h.svc.Click(ctx, structure.Key("A", 2), selection.Modifiers{}))

	second := h.load(t, "second", testutil.LinearChain("A", 5, "ALA"))
	st := h.state(t)
	assert.Equal(t, second.ID, st.StructureID)
	assert.Empty(t, st.Selection)
	assert.Empty(t, st.Colors)

	require.NoError(t, h.svc.SetActive(ctx, first.ID))
	st = h.state(t)
	assert.Empty(t, st.Selection)
	assert.Empty(t, st.Nearby)
	assert.Empty(t, st.Anchor)
	assert.Nil(t, st.ActiveRegion)
	assert.Equal(t, map[string]render.Color{
		"A:1": "#FF0000",
		"A:2": "#FF0000",
		"A:3": "#FF0000",
	}, st.Colors)
	require.Len(t, st.Regions, 1)
	assert.Equal(t, region.ID, st.Regions[0].ID)
	assert.Equal(t, []string{"A:1", "A:2", "A:3"}, st.Regions[0].Selection)
}

func TestService_SetActiveUnknown(t *testing.T) {
	h := newHarness(t, nil)
	h.load(t, "pocket", pocket())

	err := h.svc.SetActive(context.Background(), "nope")

	assert.True(t, errors.IsCode(err, errors.ErrCodeStructureNotFound))
}

func TestService_RemoveStructure(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()
	first := h.load(t, "first", pocket())
	second := h.load(t, "second", testutil.LinearChain("A", 3, "ALA"))

	require.NoError(t, h.svc.RemoveStructure(ctx, second.ID))
	infos := h.svc.Structures()
	require.Len(t, infos, 1)
	assert.Equal(t, first.ID, infos[0].ID)
	assert.True(t, infos[0].Active)
	assert.Equal(t, 1, h.metrics.structures)

	err := h.backend(1).ClearStyles(ctx)
	assert.True(t, errors.IsCode(err, errors.ErrCodeBackendFailed), "removed backend must be torn down")

	assert.True(t, errors.IsCode(h.svc.RemoveStructure(ctx, second.ID), errors.ErrCodeStructureNotFound))

	require.NoError(t, h.svc.RemoveStructure(ctx, first.ID))
	_, err = h.svc.State()
	assert.True(t, errors.IsCode(err, errors.ErrCodeNoActiveStructure))
}

func TestService_CameraSurvivesRebuild(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()
	h.load(t, "pocket", pocket())
	b := h.backend(0)
	b.SetAutoFocus(true)
	h.clock.RunAll()
	require.NoError(t, b.SetCamera(ctx, userCamera))

	require.NoError(t, h.svc.Click(ctx, structure.Key("A", 1), selection.Modifiers{}))
	assert.NotEqual(t, userCamera, b.CurrentCamera())

	h.clock.RunAll()
	assert.Equal(t, userCamera, b.CurrentCamera())
}

func TestService_CoalescesBurstIntoOneRebuild(t *testing.T) {
	h := newHarness(t, func(o *viewer.Options) { o.CoalesceWindow = time.Hour })
	ctx := context.Background()
	h.load(t, "pocket", pocket())
	require.True(t, h.svc.Flush())
	before := h.metrics.rebuilds

	for _, seq := range []int{1, 2, 3} {
		require.NoError(t, h.svc.Click(ctx, structure.Key("A", seq), selection.Modifiers{Ctrl: true}))
	}
	assert.Equal(t, before, h.metrics.rebuilds)

	assert.True(t, h.svc.Flush())
	assert.Equal(t, before+1, h.metrics.rebuilds)
	assert.Equal(t, []string{"A:1", "A:2", "A:3"}, h.state(t).Selection)
}

func TestService_ColorScopes(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()
	h.load(t, "pocket", pocket())

	require.NoError(t, h.svc.SetColor(ctx, "blue", viewer.ScopeUniform))
	assert.Len(t, h.state(t).Colors, 4)

	require.NoError(t, h.svc.Select(ctx, "A:1"))
	require.NoError(t, h.svc.ClearColor(ctx, viewer.ScopeSelection))
	assert.Len(t, h.state(t).Colors, 3)

	require.NoError(t, h.svc.ClearColor(ctx, viewer.ScopeUniform))
	assert.Empty(t, h.state(t).Colors)

	err := h.svc.SetColor(ctx, "not-a-color", viewer.ScopeSelection)
	assert.True(t, errors.IsCode(err, errors.ErrCodeColorInvalid))

	_, err = viewer.ParseColorScope("everything")
	assert.Error(t, err)
}

func TestService_StyleSchemeAndToggles(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()
	h.load(t, "pocket", pocket())

	require.NoError(t, h.svc.SetStyle(ctx, "sphere"))
	require.NoError(t, h.svc.SetScheme(ctx, "bfactor"))
	assert.Error(t, h.svc.SetStyle(ctx, "cartoon"))
	assert.Error(t, h.svc.SetScheme(ctx, "rainbow"))

	on, err := h.svc.ToggleNearby(ctx)
	require.NoError(t, err)
	assert.False(t, on)
	on, err = h.svc.ToggleHetero(ctx)
	require.NoError(t, err)
	assert.False(t, on)
	on, err = h.svc.ToggleOverlay(ctx)
	require.NoError(t, err)
	assert.False(t, on)
	on, err = h.svc.ToggleInteractions(ctx)
	require.NoError(t, err)
	assert.False(t, on)

	st := h.state(t)
	assert.Equal(t, render.StyleSphere, st.Style)
	assert.Equal(t, render.SchemeBFactor, st.Scheme)
	assert.False(t, st.ShowNearby)
	assert.False(t, st.ShowHetero)
	assert.False(t, st.Overlay)
	assert.False(t, st.ShowInteractions)
}

func TestService_Representations(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()
	h.load(t, "pocket", pocket())
	require.NoError(t, h.svc.Select(ctx, "A:1,A:3"))

	require.NoError(t, h.svc.SetRepresentationMode(ctx, "atoms", "partial"))
	on, err := h.svc.ToggleRepresentation(ctx, "surface")
	require.NoError(t, err)
	assert.True(t, on)

	views := map[composition.RepKind]composition.RepresentationView{}
	for _, v := range h.state(t).Representations {
		views[v.Kind] = v
	}
	atoms := views[composition.RepAtoms]
	assert.True(t, atoms.Enabled)
	assert.Equal(t, composition.ModePartial, atoms.Mode)
	assert.Equal(t, []string{"A:1", "A:3"}, atoms.Visible)
	assert.True(t, views[composition.RepSurface].Enabled)

	_, err = h.svc.ToggleRepresentation(ctx, "ribbon")
	assert.Error(t, err)
}

func TestService_SetChains(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()
	h.load(t, "pocket", pocket())

	require.NoError(t, h.svc.SetChains(ctx, []string{"B"}))
	assert.Equal(t, []string{"B"}, h.state(t).Chains)

	err := h.svc.SetChains(ctx, []string{"Z"})
	assert.True(t, errors.IsCode(err, errors.CodeInvalidParam))
	assert.Equal(t, []string{"B"}, h.state(t).Chains)
}

func TestService_RegionEvents(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()
	h.load(t, "pocket", pocket())
	require.NoError(t, h.svc.Select(ctx, "A:2"))

	region, err := h.svc.CreateRegion(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, region.ID)
	missing := 42
	assert.True(t, errors.IsCode(h.svc.ActivateRegion(ctx, &missing), errors.ErrCodeRegionNotFound))
	require.NoError(t, h.svc.ActivateRegion(ctx, &region.ID))
	require.NoError(t, h.svc.DeleteRegion(ctx, region.ID))

	types := h.pub.Types()
	assert.Contains(t, types, event.RegionCreated)
	assert.Contains(t, types, event.RegionActivated)
	assert.Contains(t, types, event.RegionDeleted)
}

func TestService_PointerClickThroughInputPort(t *testing.T) {
	h := newHarness(t, nil)
	h.load(t, "pocket", pocket())
	a1 := testutil.Atom("A", 1, "ASP", "OD1", 0, -2, 0)
	a3 := testutil.Atom("A", 3, "LYS", "NZ", 0, -5, 0)

	// A drag over A:1, then a click on A:3.
	require.NoError(t, h.svc.Pointer(render.PointerEvent{Action: render.PointerDown, X: 0, Y: 0}))
	require.NoError(t, h.svc.Pointer(render.PointerEvent{Action: render.PointerUp, X: 40, Y: 0, Atom: &a1}))
	require.NoError(t, h.svc.Pointer(render.PointerEvent{Action: render.PointerDown, X: 0, Y: 0}))
	require.NoError(t, h.svc.Pointer(render.PointerEvent{Action: render.PointerUp, X: 1, Y: 1, Atom: &a3}))

	assert.Eventually(t, func() bool {
		st, err := h.svc.State()
		return err == nil && len(st.Selection) == 1 && st.Selection[0] == "A:3"
	}, time.Second, 5*time.Millisecond)

	require.NoError(t, h.svc.Pointer(render.PointerEvent{Action: render.PointerHover, Atom: &a3}))
	assert.Eventually(t, func() bool {
		hv := h.svc.Hover()
		return hv != nil && strings.HasSuffix(hv.Atom, "NZ") && len(hv.Edges) == 1
	}, time.Second, 5*time.Millisecond)

	require.NoError(t, h.svc.Pointer(render.PointerEvent{Action: render.PointerHover}))
	assert.Eventually(t, func() bool { return h.svc.Hover() == nil }, time.Second, 5*time.Millisecond)
}

func TestService_PointerEmptyClickDeselectsAfterDelay(t *testing.T) {
	h := newHarness(t, func(o *viewer.Options) { o.CameraRetryDelays = nil })
	ctx := context.Background()
	h.load(t, "pocket", pocket())
	require.NoError(t, h.svc.Select(ctx, "A:1"))

	require.NoError(t, h.svc.Pointer(render.PointerEvent{Action: render.PointerDown, X: 3, Y: 3}))
	require.NoError(t, h.svc.Pointer(render.PointerEvent{Action: render.PointerUp, X: 3, Y: 3}))
	require.Eventually(t, func() bool { return h.clock.Pending() == 1 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, []string{"A:1"}, h.state(t).Selection)

	h.clock.RunAll()
	assert.Empty(t, h.state(t).Selection)
}

func TestService_CloseRejectsLoads(t *testing.T) {
	h := newHarness(t, nil)
	h.load(t, "pocket", pocket())

	h.svc.Close()
	_, err := h.svc.LoadStructure(context.Background(), "late", "inline", pocket())

	assert.True(t, errors.IsCode(err, errors.ErrCodeServiceUnavailable))
}

func TestService_Sequence(t *testing.T) {
	h := newHarness(t, nil)
	info := h.load(t, "pocket", pocket())

	seq, err := h.svc.Sequence(info.ID)
	require.NoError(t, err)
	require.Len(t, seq.Chains, 2)
	assert.Equal(t, "DAK", seq.Chains[0].Sequence)
	assert.Equal(t, "G", seq.Chains[1].Sequence)
	require.Len(t, seq.Hetero, 2)
	assert.Equal(t, "A:100", seq.Hetero[0].Key)

	_, err = h.svc.Sequence("missing")
	assert.True(t, errors.IsCode(err, errors.ErrCodeStructureNotFound))
}

func TestService_SetOptionsAppliesToNewStructures(t *testing.T) {
	h := newHarness(t, nil)
	h.load(t, "first", pocket())
	assert.True(t, h.state(t).ShowHetero)

	opts := viewer.DefaultOptions()
	opts.CoalesceWindow = 0
	opts.ShowHetero = false
	opts.ShowNearby = false
	h.svc.SetOptions(opts)

	first := h.state(t)
	assert.True(t, first.ShowHetero)

	h.load(t, "second", pocket())
	st := h.state(t)
	assert.False(t, st.ShowHetero)
	assert.False(t, st.ShowNearby)
}
