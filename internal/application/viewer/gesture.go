package viewer

import (
	"math"
	"sync"
	"time"

	"github.com/irisuniflora/VF/internal/domain/render"
	"github.com/irisuniflora/VF/internal/domain/selection"
	"github.com/irisuniflora/VF/internal/domain/structure"
)

// GestureTracker tells clicks from drags.  A press and release closer than
// the pixel threshold is a click; a click on an atom fires at once, a click on
// empty space fires only after the deselect delay and is cancelled by the
// next press, so the first half of a drag or double click never deselects.
type GestureTracker struct {
	mu        sync.Mutex
	threshold float64
	delay     time.Duration
	schedule  Scheduler

	down        bool
	downX       float64
	downY       float64
	cancelEmpty func()

	onClick func(structure.ResidueKey, selection.Modifiers)
	onEmpty func()
}

// NewGestureTracker returns a tracker calling onClick and onEmpty.
func NewGestureTracker(threshold float64, delay time.Duration, schedule Scheduler,
	onClick func(structure.ResidueKey, selection.Modifiers), onEmpty func()) *GestureTracker {
	if schedule == nil {
		schedule = RealScheduler
	}
	return &GestureTracker{
		threshold: threshold,
		delay:     delay,
		schedule:  schedule,
		onClick:   onClick,
		onEmpty:   onEmpty,
	}
}

// Handle consumes one pointer event.  Hover events are ignored.
func (g *GestureTracker) Handle(ev render.PointerEvent) {
	switch ev.Action {
	case render.PointerDown:
		g.mu.Lock()
		g.down, g.downX, g.downY = true, ev.X, ev.Y
		if g.cancelEmpty != nil {
			g.cancelEmpty()
			g.cancelEmpty = nil
		}
		g.mu.Unlock()
	case render.PointerUp:
		g.mu.Lock()
		wasDown := g.down
		g.down = false
		moved := math.Hypot(ev.X-g.downX, ev.Y-g.downY) > g.threshold
		g.mu.Unlock()
		if !wasDown || moved {
			return
		}
		if ev.Atom != nil {
			g.onClick(ev.Atom.Key, selection.Modifiers{Ctrl: ev.Ctrl, Shift: ev.Shift})
			return
		}
		cancel := g.schedule(g.delay, func() {
			g.mu.Lock()
			g.cancelEmpty = nil
			g.mu.Unlock()
			g.onEmpty()
		})
		if g.delay > 0 {
			g.mu.Lock()
			g.cancelEmpty = cancel
			g.mu.Unlock()
		}
	}
}

// Stop cancels a pending deselect.
func (g *GestureTracker) Stop() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.cancelEmpty != nil {
		g.cancelEmpty()
		g.cancelEmpty = nil
	}
}
