// Package memory provides an in-process rendering backend that records every
// instruction it receives.  The HTTP API serves the recorded scene to the
// browser shell, which replays it on its WebGL viewer.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/irisuniflora/VF/internal/domain/render"
	"github.com/irisuniflora/VF/internal/domain/structure"
	"github.com/irisuniflora/VF/pkg/errors"
)

// StyleCall is one recorded AddStyle.
type StyleCall struct {
	Selector render.Selector  `json:"selector"`
	Spec     render.StyleSpec `json:"spec"`
}

// Call is one entry of the operation log.
type Call struct {
	Op  string `json:"op"`
	Arg string `json:"arg,omitempty"`
}

// Operation names used in the call log and for failure injection.
const (
	OpAddStyle    = "add_style"
	OpClearStyles = "clear_styles"
	OpQueryAtoms  = "query_atoms"
	OpAddShape    = "add_shape"
	OpRemoveShape = "remove_shape"
	OpCamera      = "camera"
	OpSetCamera   = "set_camera"
	OpResetCamera = "reset_camera"
)

type failure struct {
	op    string
	match string
	err   error
}

// Backend is a goroutine-safe recording render.Backend.
type Backend struct {
	mu sync.Mutex

	reg    *structure.Registry
	styles []StyleCall
	shapes map[string]render.Shape
	order  []string
	calls  []Call

	camera    render.CameraState
	home      render.CameraState
	autoFocus bool

	failures []failure
	closed   bool
}

var _ render.Backend = (*Backend)(nil)

// New returns a backend over reg's atoms.  The home camera looks at the
// centroid of the structure.
func New(reg *structure.Registry) *Backend {
	b := &Backend{reg: reg, shapes: make(map[string]render.Shape)}
	b.home = homeCamera(reg)
	b.camera = b.home
	return b
}

func homeCamera(reg *structure.Registry) render.CameraState {
	var sum structure.Vec3
	n := 0
	if reg != nil {
		for _, k := range reg.Residues() {
			for _, a := range reg.Atoms(k) {
				sum = sum.Add(a.Pos)
				n++
			}
		}
	}
	c := render.CameraState{Up: structure.Vec3{Y: 1}, Zoom: 1}
	if n > 0 {
		c.Target = sum.Scale(1 / float64(n))
	}
	c.Position = c.Target.Add(structure.Vec3{Z: 50})
	return c
}

// SetAutoFocus makes every style or shape change snap the camera back to its
// home position, the way WebGL viewers refit after representation changes.
func (b *Backend) SetAutoFocus(on bool) {
	b.mu.Lock()
	b.autoFocus = on
	b.mu.Unlock()
}

// FailOn makes operation op return err for arguments containing match (the
// selector text or shape id).  An empty match fails every call.
func (b *Backend) FailOn(op, match string, err error) {
	b.mu.Lock()
	b.failures = append(b.failures, failure{op: op, match: match, err: err})
	b.mu.Unlock()
}

// Close marks the backend torn down; later calls fail.
func (b *Backend) Close() {
	b.mu.Lock()
	b.closed = true
	b.mu.Unlock()
}

func (b *Backend) check(op, arg string) error {
	b.calls = append(b.calls, Call{Op: op, Arg: arg})
	if b.closed {
		return errors.New(errors.ErrCodeBackendFailed, "backend closed").WithDetail(op)
	}
	for _, f := range b.failures {
		if f.op == op && strings.Contains(arg, f.match) {
			return f.err
		}
	}
	return nil
}

func (b *Backend) refocus() {
	if b.autoFocus {
		b.camera = b.home
	}
}

func (b *Backend) AddStyle(_ context.Context, sel render.Selector, spec render.StyleSpec) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.check(OpAddStyle, sel.String()); err != nil {
		return err
	}
	b.styles = append(b.styles, StyleCall{Selector: sel, Spec: spec})
	b.refocus()
	return nil
}

func (b *Backend) ClearStyles(_ context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.check(OpClearStyles, ""); err != nil {
		return err
	}
	b.styles = nil
	b.refocus()
	return nil
}

func (b *Backend) QueryAtoms(_ context.Context, sel render.Selector) ([]structure.Atom, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.check(OpQueryAtoms, sel.String()); err != nil {
		return nil, err
	}
	if b.reg == nil {
		return nil, nil
	}
	var keys []structure.ResidueKey
	if len(sel.Parts) == 0 {
		keys = b.reg.Residues()
		for _, h := range b.reg.Hetero() {
			keys = append(keys, h.Key)
		}
	} else {
		keys = sel.Keys()
	}
	var out []structure.Atom
	for _, k := range keys {
		for _, a := range b.reg.Atoms(k) {
			if sel.Matches(a) {
				out = append(out, a)
			}
		}
	}
	return out, nil
}

// AddShape adds s, replacing any shape with the same id.
func (b *Backend) AddShape(_ context.Context, s render.Shape) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.check(OpAddShape, s.ID); err != nil {
		return err
	}
	if _, ok := b.shapes[s.ID]; !ok {
		b.order = append(b.order, s.ID)
	}
	b.shapes[s.ID] = s
	b.refocus()
	return nil
}

func (b *Backend) RemoveShape(_ context.Context, id string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.check(OpRemoveShape, id); err != nil {
		return err
	}
	if _, ok := b.shapes[id]; !ok {
		return nil
	}
	delete(b.shapes, id)
	for i, v := range b.order {
		if v == id {
			b.order = append(b.order[:i], b.order[i+1:]...)
			break
		}
	}
	return nil
}

func (b *Backend) Camera(_ context.Context) (render.CameraState, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.check(OpCamera, ""); err != nil {
		return render.CameraState{}, err
	}
	return b.camera, nil
}

func (b *Backend) SetCamera(_ context.Context, c render.CameraState) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.check(OpSetCamera, ""); err != nil {
		return err
	}
	b.camera = c
	return nil
}

func (b *Backend) ResetCamera(_ context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.check(OpResetCamera, ""); err != nil {
		return err
	}
	b.camera = b.home
	return nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Inspection
// ─────────────────────────────────────────────────────────────────────────────

// Styles returns the style instructions currently in effect.
func (b *Backend) Styles() []StyleCall {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]StyleCall(nil), b.styles...)
}

// Shapes returns the current shapes in insertion order.
func (b *Backend) Shapes() []render.Shape {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]render.Shape, 0, len(b.order))
	for _, id := range b.order {
		out = append(out, b.shapes[id])
	}
	return out
}

// ShapeIDs returns the sorted ids of the current shapes.
func (b *Backend) ShapeIDs() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := append([]string(nil), b.order...)
	sort.Strings(out)
	return out
}

// Calls returns the operation log.
func (b *Backend) Calls() []Call {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]Call(nil), b.calls...)
}

// CountCalls counts logged calls of op.
func (b *Backend) CountCalls(op string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	n := 0
	for _, c := range b.calls {
		if c.Op == op {
			n++
		}
	}
	return n
}

// ResetCalls empties the operation log.
func (b *Backend) ResetCalls() {
	b.mu.Lock()
	b.calls = nil
	b.mu.Unlock()
}

// CurrentCamera returns the camera without logging a call.
func (b *Backend) CurrentCamera() render.CameraState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.camera
}
