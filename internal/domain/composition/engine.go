// Package composition turns residue-level color, style and visibility state
// into a minimal, deterministic set of draw records for the rendering
// backend, and keeps the backend in step with it.
package composition

import (
	"context"
	"fmt"
	"sort"

	"github.com/irisuniflora/VF/internal/domain/interaction"
	"github.com/irisuniflora/VF/internal/domain/render"
	"github.com/irisuniflora/VF/internal/domain/structure"
	"github.com/irisuniflora/VF/internal/infrastructure/monitoring/logging"
)

// Radii used by the overlay, hetero and edge passes.
const (
	SelectionRadius = 0.30
	NearbyRadius    = 0.20
	IonRadius       = 1.0
	GlycanRadius    = 1.6
	EdgeRadius      = 0.06
)

// Input is everything a rebuild reads besides the registry.
type Input struct {
	Selection        structure.KeySet
	Nearby           structure.KeySet
	ShowNearby       bool
	Overlay          bool
	ShowHetero       bool
	ShowInteractions bool
	Style            render.StyleKind
	Scheme           render.Scheme
	Colors           *ColorMap
	Reps             *Representations
	Chains           ChainFilter
}

// ApplyStats summarizes one Apply.
type ApplyStats struct {
	StylesIssued  int
	StylesReused  bool
	ShapesAdded   int
	ShapesRemoved int
	// Failures counts rejected backend calls by operation name.
	Failures map[string]int
}

// Failed is the total number of rejected backend calls.
func (s ApplyStats) Failed() int {
	n := 0
	for _, v := range s.Failures {
		n += v
	}
	return n
}

// Engine composes and applies scenes for one structure.
type Engine struct {
	reg      *structure.Registry
	detector *interaction.Detector
	resolver Resolver
	backend  render.Backend
	logger   logging.Logger

	prev    Scene
	applied bool

	// unremoved holds shapes the backend refused to remove.
	unremoved map[string]struct{}
}

// NewEngine returns an engine drawing reg through backend.
func NewEngine(reg *structure.Registry, backend render.Backend, logger logging.Logger) *Engine {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Engine{
		reg:       reg,
		detector:  interaction.NewDetector(reg),
		resolver:  NewResolver(reg),
		backend:   backend,
		logger:    logger,
		unremoved: make(map[string]struct{}),
	}
}

// Detector exposes the engine's interaction detector.
func (e *Engine) Detector() *interaction.Detector { return e.detector }

// Resolver exposes the engine's scheme resolver.
func (e *Engine) Resolver() Resolver { return e.resolver }

// Scene returns the last applied scene.
func (e *Engine) Scene() Scene { return e.prev }

// Invalidate forces the next Apply to reissue everything.
func (e *Engine) Invalidate() { e.applied = false }

// Render rebuilds from in and applies the result.
func (e *Engine) Render(ctx context.Context, in Input) (Scene, ApplyStats) {
	s := e.Rebuild(in)
	return s, e.Apply(ctx, s)
}

// Rebuild computes the scene for in.  It never touches the backend and is
// deterministic: equal inputs give equal scenes.
func (e *Engine) Rebuild(in Input) Scene {
	var s Scene
	if in.Reps != nil {
		covered := structure.NewKeySet()
		for _, kind := range RepKinds {
			rep, _ := in.Reps.Get(kind)
			if rep.Enabled {
				s.Styles = append(s.Styles, e.basePass(rep, in, covered)...)
			}
		}
	}
	if in.Overlay {
		s.Styles = append(s.Styles, e.overlayPass("selection", in.Selection, SelectionRadius, in)...)
		if in.ShowNearby {
			s.Styles = append(s.Styles, e.overlayPass("nearby", in.Nearby, NearbyRadius, in)...)
		}
	}
	if in.ShowHetero {
		records, shapes := e.heteroPass(in.Chains)
		s.Styles = append(s.Styles, records...)
		s.Shapes = append(s.Shapes, shapes...)
	}
	if in.ShowInteractions {
		s.Edges = e.detector.Detect(in.Selection, in.Nearby)
		for _, edge := range s.Edges {
			s.Shapes = append(s.Shapes, edgeShape(edge))
		}
	}
	return s
}

func repStyle(kind RepKind, atomStyle render.StyleKind) render.StyleKind {
	switch kind {
	case RepCartoon:
		return render.StyleCartoon
	case RepSurface:
		return render.StyleSurface
	}
	if atomStyle == "" {
		return render.StyleStick
	}
	return atomStyle
}

// usable filters keys down to polymer residues that still have atoms.
// Stale keys are dropped quietly.
func (e *Engine) usable(keys []structure.ResidueKey, pass string) []structure.ResidueKey {
	out := keys[:0:0]
	for _, k := range keys {
		if !e.reg.IsPolymer(k) {
			if !e.reg.Has(k) {
				e.logger.Debug("skipping stale residue", logging.String("pass", pass), logging.String("residue", k.String()))
			}
			continue
		}
		if len(e.reg.Atoms(k)) == 0 {
			e.logger.Debug("skipping residue without atoms", logging.String("pass", pass), logging.String("residue", k.String()))
			continue
		}
		out = append(out, k)
	}
	return out
}

// basePass draws one representation.  Residues already drawn by an earlier
// representation get add records so both stay visible; the rest use set
// records.  covered is extended with every residue drawn here.
func (e *Engine) basePass(rep Representation, in Input, covered structure.KeySet) []DrawRecord {
	var keys []structure.ResidueKey
	if rep.Mode == ModePartial {
		keys = rep.Visible.Sorted()
	} else {
		for _, k := range e.reg.Residues() {
			if in.Chains.Allows(k.Chain) {
				keys = append(keys, k)
			}
		}
	}
	keys = e.usable(keys, string(rep.Kind))

	var fresh, layered []structure.ResidueKey
	for _, k := range keys {
		if covered.Has(k) {
			layered = append(layered, k)
		} else {
			fresh = append(fresh, k)
		}
	}
	out := e.baseRecords(rep.Kind, fresh, in, false)
	out = append(out, e.baseRecords(rep.Kind, layered, in, true)...)
	for _, k := range keys {
		covered.Add(k)
	}
	return out
}

func (e *Engine) baseRecords(rep RepKind, keys []structure.ResidueKey, in Input, add bool) []DrawRecord {
	explicit := make(map[render.Color][]structure.ResidueKey)
	var scheme []structure.ResidueKey
	for _, k := range keys {
		if in.Colors != nil {
			if c, ok := in.Colors.Get(k); ok {
				explicit[c] = append(explicit[c], k)
				continue
			}
		}
		scheme = append(scheme, k)
	}

	prefix := "base/" + string(rep)
	if add {
		prefix += "/add"
	}
	kind := repStyle(rep, in.Style)
	var out []DrawRecord
	for _, c := range sortedColors(explicit) {
		out = append(out, DrawRecord{
			Layer:    LayerBase,
			Label:    fmt.Sprintf("%s/%s", prefix, c),
			Selector: render.SelectKeys(explicit[c]).WithHetero(false),
			Style:    render.StyleSpec{Kind: kind, Color: c, Add: add},
		})
	}
	if len(scheme) > 0 {
		out = append(out, DrawRecord{
			Layer:    LayerBase,
			Label:    fmt.Sprintf("%s/scheme:%s", prefix, in.Scheme),
			Selector: render.SelectKeys(scheme).WithHetero(false),
			Style:    render.StyleSpec{Kind: kind, Scheme: in.Scheme, Add: add},
		})
	}
	return out
}

func (e *Engine) overlayPass(role string, set structure.KeySet, radius float64, in Input) []DrawRecord {
	if set.Len() == 0 {
		return nil
	}
	groups := make(map[render.Color][]structure.ResidueKey)
	for _, k := range e.usable(set.Sorted(), "overlay/"+role) {
		c := e.resolver.Color(k, in.Scheme, in.Colors)
		groups[c] = append(groups[c], k)
	}
	var out []DrawRecord
	for _, c := range sortedColors(groups) {
		out = append(out, DrawRecord{
			Layer:    LayerOverlay,
			Label:    fmt.Sprintf("overlay/%s/%s", role, c),
			Selector: render.SelectKeys(groups[c]).WithHetero(false),
			Style: render.StyleSpec{
				Kind:          render.StyleBallStick,
				CarbonColor:   c,
				ElementColors: render.ElementPalette,
				Radius:        radius,
				Add:           true,
			},
		})
	}
	return out
}

func (e *Engine) heteroPass(chains ChainFilter) ([]DrawRecord, []render.Shape) {
	var ions, others []structure.ResidueKey
	var shapes []render.Shape
	for _, h := range e.reg.Hetero() {
		if !chains.Allows(h.Key.Chain) || h.AtomCount == 0 {
			continue
		}
		switch h.Class {
		case structure.Ion:
			ions = append(ions, h.Key)
		case structure.Glycan:
			others = append(others, h.Key)
			color, _ := structure.GlycanColor(h.Code3)
			shapes = append(shapes, render.Shape{
				ID:     "glycan/" + h.Key.String(),
				Kind:   render.ShapeSphere,
				From:   h.Centroid,
				Radius: GlycanRadius,
				Color:  render.Color(color),
				Label:  h.Code3 + " " + h.Key.String(),
			})
		default:
			others = append(others, h.Key)
		}
	}

	var out []DrawRecord
	if len(others) > 0 {
		out = append(out, DrawRecord{
			Layer:    LayerHetero,
			Label:    "hetero/ligands",
			Selector: render.SelectKeys(others).WithHetero(true),
			Style:    render.StyleSpec{Kind: render.StyleBallStick, Scheme: render.SchemeElement, Add: true},
		})
	}
	if len(ions) > 0 {
		out = append(out, DrawRecord{
			Layer:    LayerHetero,
			Label:    "hetero/ions",
			Selector: render.SelectKeys(ions).WithHetero(true),
			Style:    render.StyleSpec{Kind: render.StyleSphere, Scheme: render.SchemeElement, Radius: IonRadius, Add: true},
		})
	}
	return out, shapes
}

func edgeShape(edge interaction.Edge) render.Shape {
	return render.Shape{
		ID:     fmt.Sprintf("edge/%s.%s/%s.%s", edge.A.Key, edge.A.Name, edge.B.Key, edge.B.Name),
		Kind:   render.ShapeCylinder,
		From:   edge.A.Pos,
		To:     edge.B.Pos,
		Radius: EdgeRadius,
		Color:  render.Color(edge.Kind.Color()),
		Dashed: true,
		Label:  interaction.Describe(edge).Text,
	}
}

func sortedColors[V any](m map[render.Color]V) []render.Color {
	out := make([]render.Color, 0, len(m))
	for c := range m {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Apply brings the backend in line with next.  Style records are reissued
// (after a clear) only when they differ from the last applied set; shapes are
// diffed by ID.  A failed backend call is logged and counted and the rest of
// the scene is still applied.  Shapes whose removal failed are removed again
// on later calls until the backend accepts it.
func (e *Engine) Apply(ctx context.Context, next Scene) ApplyStats {
	stats := ApplyStats{Failures: make(map[string]int)}

	if e.applied && recordsEqual(e.prev.Styles, next.Styles) {
		stats.StylesReused = true
	} else {
		if err := e.backend.ClearStyles(ctx); err != nil {
			e.logger.Warn("backend rejected style clear", logging.Err(err))
			stats.Failures["clear_styles"]++
		}
		for _, rec := range next.Styles {
			if err := e.backend.AddStyle(ctx, rec.Selector, rec.Style); err != nil {
				e.logger.Warn("backend rejected style group",
					logging.String("group", rec.Label),
					logging.String("selector", rec.Selector.String()),
					logging.Err(err))
				stats.Failures["add_style"]++
				continue
			}
			stats.StylesIssued++
		}
	}

	nextByID := make(map[string]render.Shape, len(next.Shapes))
	for _, s := range next.Shapes {
		nextByID[s.ID] = s
	}
	for _, id := range sortedIDs(e.unremoved) {
		if _, ok := nextByID[id]; ok {
			delete(e.unremoved, id)
			continue
		}
		e.removeShape(ctx, id, &stats)
	}
	prevByID := make(map[string]render.Shape, len(e.prev.Shapes))
	for _, s := range e.prev.Shapes {
		prevByID[s.ID] = s
		if n, ok := nextByID[s.ID]; ok && n == s {
			continue
		}
		if !e.removeShape(ctx, s.ID, &stats) {
			if _, ok := nextByID[s.ID]; !ok {
				e.unremoved[s.ID] = struct{}{}
			}
		}
	}
	for _, s := range next.Shapes {
		if p, ok := prevByID[s.ID]; ok && p == s && e.applied {
			continue
		}
		if err := e.backend.AddShape(ctx, s); err != nil {
			e.logger.Warn("backend rejected shape", logging.String("shape", s.ID), logging.Err(err))
			stats.Failures["add_shape"]++
			continue
		}
		stats.ShapesAdded++
	}

	e.prev = next
	e.applied = stats.Failed() == 0
	return stats
}

func (e *Engine) removeShape(ctx context.Context, id string, stats *ApplyStats) bool {
	if err := e.backend.RemoveShape(ctx, id); err != nil {
		e.logger.Warn("backend rejected shape removal", logging.String("shape", id), logging.Err(err))
		stats.Failures["remove_shape"]++
		return false
	}
	delete(e.unremoved, id)
	stats.ShapesRemoved++
	return true
}

func sortedIDs(m map[string]struct{}) []string {
	out := make([]string, 0, len(m))
	for id := range m {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}
