// Package viewer is the application layer of the structure viewer.  A
// Service owns one Session per loaded structure, routes UI actions to the
// active one, and keeps the rendering backend in step through a coalesced
// rebuild.
package viewer

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/irisuniflora/VF/internal/domain/composition"
	"github.com/irisuniflora/VF/internal/domain/event"
	"github.com/irisuniflora/VF/internal/domain/interaction"
	"github.com/irisuniflora/VF/internal/domain/render"
	"github.com/irisuniflora/VF/internal/domain/selection"
	"github.com/irisuniflora/VF/internal/domain/structure"
	"github.com/irisuniflora/VF/internal/infrastructure/monitoring/logging"
	"github.com/irisuniflora/VF/internal/infrastructure/render/memory"
	"github.com/irisuniflora/VF/pkg/errors"
)

// BackendFactory creates the rendering backend of a new session.
type BackendFactory func(reg *structure.Registry) render.Backend

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the logger.
func WithLogger(l logging.Logger) Option { return func(s *Service) { s.logger = l } }

// WithPublisher sets the event publisher.
func WithPublisher(p event.Publisher) Option { return func(s *Service) { s.publisher = p } }

// WithMetrics sets the metrics sink.
func WithMetrics(m Metrics) Option { return func(s *Service) { s.metrics = m } }

// WithBackendFactory overrides the in-memory backend.
func WithBackendFactory(f BackendFactory) Option { return func(s *Service) { s.newBackend = f } }

// WithScheduler overrides the timer used for camera restores and deferred
// deselects.
func WithScheduler(f Scheduler) Option { return func(s *Service) { s.schedule = f } }

// Service is the viewer workspace.
type Service struct {
	mu       sync.Mutex
	opts     Options
	sessions map[string]*Session
	order    []string
	active   *Session
	closed   bool

	newBackend BackendFactory
	schedule   Scheduler
	publisher  event.Publisher
	metrics    Metrics
	logger     logging.Logger

	coalescer *Coalescer
	camera    *CameraGuard
	wg        sync.WaitGroup
}

// NewService returns an empty workspace.
func NewService(opts Options, options ...Option) *Service {
	s := &Service{
		opts:       opts,
		sessions:   make(map[string]*Session),
		newBackend: func(reg *structure.Registry) render.Backend { return memory.New(reg) },
		schedule:   RealScheduler,
		publisher:  event.NopPublisher{},
		metrics:    NopMetrics{},
		logger:     logging.NewNopLogger(),
	}
	for _, o := range options {
		o(s)
	}
	s.coalescer = NewCoalescer(opts.CoalesceWindow, s.rebuild)
	s.camera = NewCameraGuard(opts.CameraRetryDelays, s.schedule, s.logger)
	return s
}

// ─────────────────────────────────────────────────────────────────────────────
// Structures
// ─────────────────────────────────────────────────────────────────────────────

// LoadStructure opens a session for reg and makes it active.  The previously
// active structure's live selection is reset; its colors and regions stay.
func (s *Service) LoadStructure(ctx context.Context, name, source string, reg *structure.Registry) (StructureInfo, error) {
	if reg == nil || reg.AtomCount() == 0 {
		return StructureInfo{}, errors.New(errors.ErrCodeStructureEmpty, "structure has no atoms").WithDetail(name)
	}

	s.mu.Lock()
	opts := s.opts
	s.mu.Unlock()

	id := uuid.NewString()
	backend := s.newBackend(reg)
	engine := composition.NewEngine(reg, backend, s.logger.With(logging.String("structure_id", id)))
	sess := &Session{
		ID:       id,
		Name:     name,
		Source:   source,
		LoadedAt: time.Now(),
		registry: reg,
		colors:   composition.NewColorMap(),
		reps:     composition.NewRepresentations(),
		engine:   engine,
		backend:  backend,
		port:     NewPort(opts.InputBuffer),
		chains:   composition.NewChainFilter(),

		showHetero:       opts.ShowHetero,
		overlay:          opts.ShowResidueOverlay,
		showInteractions: opts.ShowInteractions,
	}
	sess.machine = selection.NewMachine(reg, engine.Detector(), selection.Options{
		Cutoff:        opts.NearbyCutoff,
		ShowNearby:    opts.ShowNearby,
		DefaultStyle:  opts.DefaultStyle,
		DefaultScheme: opts.DefaultScheme,
	})
	sess.gestures = NewGestureTracker(opts.DragThresholdPx, opts.DeselectDelay, s.schedule,
		func(k structure.ResidueKey, m selection.Modifiers) { s.pointerClick(id, k, m) },
		func() { s.pointerEmpty(id) })

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return StructureInfo{}, errors.New(errors.ErrCodeServiceUnavailable, "viewer is shut down")
	}
	if s.active != nil {
		s.active.machine.ResetLive()
	}
	s.sessions[id] = sess
	s.order = append(s.order, id)
	s.active = sess
	info := s.infoLocked(sess)
	n := len(s.sessions)
	s.wg.Add(1)
	s.mu.Unlock()

	go s.consume(sess)

	if err := backend.ResetCamera(ctx); err != nil {
		s.logger.Warn("camera reset failed", logging.String("structure_id", id), logging.Err(err))
	}
	s.metrics.SetStructures(n)
	s.publish(ctx, event.StructureLoaded, id, map[string]any{
		"name": name, "source": source, "residues": reg.Len(), "atoms": reg.AtomCount(),
	})
	s.logger.Info("structure loaded",
		logging.String("structure_id", id),
		logging.String("name", name),
		logging.Int("residues", reg.Len()),
		logging.Int("atoms", reg.AtomCount()),
		logging.Int("dropped_atoms", reg.Dropped()))
	s.coalescer.Trigger()
	return info, nil
}

// SetActive switches the structure receiving UI actions.  The live
// selection of both structures is reset; colors and regions are kept.
func (s *Service) SetActive(ctx context.Context, id string) error {
	s.mu.Lock()
	sess, ok := s.sessions[id]
	if !ok {
		s.mu.Unlock()
		return errors.New(errors.ErrCodeStructureNotFound, "structure not found").WithDetail(id)
	}
	if s.active == sess {
		s.mu.Unlock()
		return nil
	}
	if s.active != nil {
		s.active.machine.ResetLive()
	}
	sess.machine.ResetLive()
	s.active = sess
	s.mu.Unlock()

	s.publish(ctx, event.StructureActivated, id, nil)
	s.coalescer.Trigger()
	return nil
}

// SetOptions replaces the tunables used for structures loaded from now on.
// Open sessions keep the values they were created with.
func (s *Service) SetOptions(opts Options) {
	s.mu.Lock()
	s.opts = opts
	s.mu.Unlock()
	s.logger.Info("viewer options updated",
		logging.Float64("nearby_cutoff", opts.NearbyCutoff),
		logging.Bool("show_nearby", opts.ShowNearby))
}

// RemoveStructure closes a session, dropping its regions and unsubscribing
// its input port.  When it was active the most recently loaded remaining
// structure takes over.
func (s *Service) RemoveStructure(ctx context.Context, id string) error {
	s.mu.Lock()
	sess, ok := s.sessions[id]
	if !ok {
		s.mu.Unlock()
		return errors.New(errors.ErrCodeStructureNotFound, "structure not found").WithDetail(id)
	}
	delete(s.sessions, id)
	for i, v := range s.order {
		if v == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	sess.machine.ClearRegions()
	sess.port.Close()
	sess.gestures.Stop()
	if c, ok := sess.backend.(interface{ Close() }); ok {
		c.Close()
	}
	if s.active == sess {
		s.active = nil
		if len(s.order) > 0 {
			s.active = s.sessions[s.order[len(s.order)-1]]
			s.active.machine.ResetLive()
		}
	}
	hasActive := s.active != nil
	n := len(s.sessions)
	s.mu.Unlock()

	s.metrics.SetStructures(n)
	s.publish(ctx, event.StructureRemoved, id, nil)
	s.logger.Info("structure removed", logging.String("structure_id", id))
	if hasActive {
		s.coalescer.Trigger()
	}
	return nil
}

// Structures lists the loaded structures in load order.
func (s *Service) Structures() []StructureInfo {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]StructureInfo, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.infoLocked(s.sessions[id]))
	}
	return out
}

// Structure describes one loaded structure.
func (s *Service) Structure(id string) (StructureInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok {
		return StructureInfo{}, errors.New(errors.ErrCodeStructureNotFound, "structure not found").WithDetail(id)
	}
	return s.infoLocked(sess), nil
}

// Sequence returns the per-chain sequences and hetero residues of a
// structure.
func (s *Service) Sequence(id string) (SequenceView, error) {
	s.mu.Lock()
	sess, ok := s.sessions[id]
	s.mu.Unlock()
	if !ok {
		return SequenceView{}, errors.New(errors.ErrCodeStructureNotFound, "structure not found").WithDetail(id)
	}
	return NewSequenceView(id, sess.registry), nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Actions on the active structure
// ─────────────────────────────────────────────────────────────────────────────

// withActive runs fn on the active session under the lock and schedules a
// rebuild when fn succeeds.
func (s *Service) withActive(fn func(*Session) error) error {
	s.mu.Lock()
	sess := s.active
	if sess == nil {
		s.mu.Unlock()
		return errors.New(errors.ErrCodeNoActiveStructure, "no active structure")
	}
	err := fn(sess)
	s.mu.Unlock()
	if err == nil {
		s.coalescer.Trigger()
	}
	return err
}

// Click applies the click protocol to residue k.
func (s *Service) Click(_ context.Context, k structure.ResidueKey, mods selection.Modifiers) error {
	return s.withActive(func(sess *Session) error {
		sess.machine.Click(k, mods)
		return nil
	})
}

// ClickEmpty handles a click on empty space.
func (s *Service) ClickEmpty(_ context.Context) error {
	return s.withActive(func(sess *Session) error {
		sess.machine.ClickEmptySpace()
		return nil
	})
}

// Select replaces the selection with a key list such as "A:10-20,B:5".
func (s *Service) Select(_ context.Context, spec string) error {
	return s.withActive(func(sess *Session) error {
		keys, err := structure.ParseKeyList(spec, sess.registry)
		if err != nil {
			return err
		}
		sess.machine.Select(keys)
		return nil
	})
}

// CreateRegion saves the live selection as a new active region.
func (s *Service) CreateRegion(ctx context.Context) (selection.RegionView, error) {
	var view selection.RegionView
	var id string
	err := s.withActive(func(sess *Session) error {
		view = sess.machine.CreateRegion()
		id = sess.ID
		return nil
	})
	if err == nil {
		s.publish(ctx, event.RegionCreated, id, map[string]any{"region": view.ID, "residues": len(view.Selection)})
	}
	return view, err
}

// ActivateRegion switches the live context; nil selects the global context.
func (s *Service) ActivateRegion(ctx context.Context, regionID *int) error {
	var id string
	err := s.withActive(func(sess *Session) error {
		id = sess.ID
		return sess.machine.ActivateRegion(regionID)
	})
	if err == nil {
		payload := map[string]any{"region": nil}
		if regionID != nil {
			payload["region"] = *regionID
		}
		s.publish(ctx, event.RegionActivated, id, payload)
	}
	return err
}

// DeleteRegion removes a region of the active structure.
func (s *Service) DeleteRegion(ctx context.Context, regionID int) error {
	var id string
	err := s.withActive(func(sess *Session) error {
		id = sess.ID
		return sess.machine.DeleteRegion(regionID)
	})
	if err == nil {
		s.publish(ctx, event.RegionDeleted, id, map[string]any{"region": regionID})
	}
	return err
}

// ColorScope selects which residues a color action applies to.
type ColorScope string

const (
	ScopeSelection ColorScope = "selection"
	ScopeUniform   ColorScope = "uniform"
)

// ParseColorScope validates a scope; empty means selection.
func ParseColorScope(s string) (ColorScope, error) {
	switch ColorScope(s) {
	case "", ScopeSelection:
		return ScopeSelection, nil
	case ScopeUniform:
		return ScopeUniform, nil
	}
	return "", errors.InvalidParam("invalid color scope").WithDetail(s)
}

func (sess *Session) scopeKeys(scope ColorScope) structure.KeySet {
	if scope == ScopeUniform {
		return structure.NewKeySet(sess.registry.Residues()...)
	}
	return sess.machine.Selection()
}

// SetColor colors the selection, or every residue with ScopeUniform.
func (s *Service) SetColor(_ context.Context, color string, scope ColorScope) error {
	c, err := render.ParseColor(color)
	if err != nil {
		return err
	}
	return s.withActive(func(sess *Session) error {
		sess.colors.Set(sess.scopeKeys(scope), c)
		return nil
	})
}

// ClearColor returns residues to scheme coloring.
func (s *Service) ClearColor(_ context.Context, scope ColorScope) error {
	return s.withActive(func(sess *Session) error {
		if scope == ScopeUniform {
			sess.colors.Reset()
			return nil
		}
		sess.colors.Clear(sess.machine.Selection())
		return nil
	})
}

// SetStyle sets the atom style of the live context.
func (s *Service) SetStyle(_ context.Context, style string) error {
	k, err := render.ParseAtomStyle(style)
	if err != nil {
		return err
	}
	return s.withActive(func(sess *Session) error {
		sess.machine.SetStyle(k)
		return nil
	})
}

// SetScheme sets the color scheme of the live context.
func (s *Service) SetScheme(_ context.Context, scheme string) error {
	sc, err := render.ParseScheme(scheme)
	if err != nil {
		return err
	}
	return s.withActive(func(sess *Session) error {
		sess.machine.SetScheme(sc)
		return nil
	})
}

// ToggleRepresentation flips a representation kind.
func (s *Service) ToggleRepresentation(_ context.Context, kind string) (bool, error) {
	k, err := composition.ParseRepKind(kind)
	if err != nil {
		return false, err
	}
	var on bool
	err = s.withActive(func(sess *Session) error {
		on, err = sess.reps.Toggle(k)
		return err
	})
	return on, err
}

// SetRepresentationMode switches a kind between full and partial; partial
// isolates the current selection.
func (s *Service) SetRepresentationMode(_ context.Context, kind, mode string) error {
	k, err := composition.ParseRepKind(kind)
	if err != nil {
		return err
	}
	m, err := composition.ParseMode(mode)
	if err != nil {
		return err
	}
	return s.withActive(func(sess *Session) error {
		return sess.reps.SetMode(k, m, sess.machine.Selection())
	})
}

// ToggleNearby flips the nearby feature.
func (s *Service) ToggleNearby(_ context.Context) (bool, error) {
	var on bool
	err := s.withActive(func(sess *Session) error {
		on = sess.machine.ToggleNearby()
		return nil
	})
	return on, err
}

// ToggleHetero flips hetero residue visibility.
func (s *Service) ToggleHetero(_ context.Context) (bool, error) {
	var on bool
	err := s.withActive(func(sess *Session) error {
		sess.showHetero = !sess.showHetero
		on = sess.showHetero
		return nil
	})
	return on, err
}

// ToggleOverlay flips the per-residue selection overlay.
func (s *Service) ToggleOverlay(_ context.Context) (bool, error) {
	var on bool
	err := s.withActive(func(sess *Session) error {
		sess.overlay = !sess.overlay
		on = sess.overlay
		return nil
	})
	return on, err
}

// ToggleInteractions flips interaction edge drawing.
func (s *Service) ToggleInteractions(_ context.Context) (bool, error) {
	var on bool
	err := s.withActive(func(sess *Session) error {
		sess.showInteractions = !sess.showInteractions
		on = sess.showInteractions
		return nil
	})
	return on, err
}

// SetChains restricts full-mode representations to chains; none shows all.
func (s *Service) SetChains(_ context.Context, chains []string) error {
	return s.withActive(func(sess *Session) error {
		for _, c := range chains {
			if sess.registry.ChainIndex(c) < 0 {
				return errors.InvalidParam("unknown chain").WithDetail(c)
			}
		}
		sess.chains = composition.NewChainFilter(chains...)
		return nil
	})
}

// Pointer feeds a raw pointer event into the active structure's input port.
func (s *Service) Pointer(ev render.PointerEvent) error {
	s.mu.Lock()
	sess := s.active
	s.mu.Unlock()
	if sess == nil {
		return errors.New(errors.ErrCodeNoActiveStructure, "no active structure")
	}
	return sess.port.Send(ev)
}

func (s *Service) consume(sess *Session) {
	defer s.wg.Done()
	for {
		select {
		case <-sess.port.Done():
			return
		case ev := <-sess.port.Events():
			if ev.Action == render.PointerHover {
				s.mu.Lock()
				sess.updateHover(ev)
				s.mu.Unlock()
				continue
			}
			sess.gestures.Handle(ev)
		}
	}
}

func (s *Service) pointerClick(id string, k structure.ResidueKey, mods selection.Modifiers) {
	_ = s.withSession(id, func(sess *Session) { sess.machine.Click(k, mods) })
}

func (s *Service) pointerEmpty(id string) {
	_ = s.withSession(id, func(sess *Session) { sess.machine.ClickEmptySpace() })
}

// withSession is withActive for events that belong to a specific session;
// they are dropped once that session is no longer active.
func (s *Service) withSession(id string, fn func(*Session)) bool {
	s.mu.Lock()
	if s.active == nil || s.active.ID != id {
		s.mu.Unlock()
		return false
	}
	fn(s.active)
	s.mu.Unlock()
	s.coalescer.Trigger()
	return true
}

// ─────────────────────────────────────────────────────────────────────────────
// Rebuild
// ─────────────────────────────────────────────────────────────────────────────

// Flush runs a pending coalesced rebuild immediately.
func (s *Service) Flush() bool { return s.coalescer.Flush() }

// Rebuild recomposes the active structure now, bypassing the coalescer.
func (s *Service) Rebuild() { s.rebuild() }

func (s *Service) rebuild() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active == nil || s.closed {
		return
	}
	s.renderLocked(s.active)
}

func (s *Service) renderLocked(sess *Session) {
	ctx := context.Background()
	start := time.Now()

	var (
		scene composition.Scene
		stats composition.ApplyStats
	)
	s.camera.Preserve(ctx, sess.backend, func() {
		scene, stats = sess.engine.Render(ctx, sess.input())
	})
	elapsed := time.Since(start)
	sess.lastRebuildAt = time.Now()

	layers := make(map[string]int, 3)
	for l, n := range scene.CountByLayer() {
		layers[string(l)] = n
	}
	s.metrics.ObserveRebuild(elapsed, layers)
	for op, n := range stats.Failures {
		s.metrics.BackendFailures(op, n)
	}
	for k, n := range interaction.Count(scene.Edges) {
		s.metrics.InteractionEdges(k.String(), n)
	}

	s.logger.Debug("scene rebuilt",
		logging.String("structure_id", sess.ID),
		logging.Int("styles", len(scene.Styles)),
		logging.Int("shapes", len(scene.Shapes)),
		logging.Bool("reused", stats.StylesReused),
		logging.Int("failures", stats.Failed()),
		logging.Duration("elapsed", elapsed))

	if rev := sess.machine.Revision(); rev != sess.published {
		sess.published = rev
		s.publish(ctx, event.SelectionChanged, sess.ID, map[string]any{
			"selection": sess.machine.Selection().Strings(),
			"nearby":    sess.machine.Nearby().Len(),
		})
	}
}

func (s *Service) publish(ctx context.Context, typ, id string, payload map[string]any) {
	s.publisher.Publish(ctx, event.Event{Type: typ, StructureID: id, Time: time.Now().UTC(), Payload: payload})
}

// Close stops timers and input ports.  The service rejects new structures
// afterwards.
func (s *Service) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	for _, sess := range s.sessions {
		sess.port.Close()
		sess.gestures.Stop()
	}
	s.mu.Unlock()

	s.coalescer.Stop()
	s.camera.Stop()
	s.wg.Wait()
}
