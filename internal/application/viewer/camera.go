package viewer

import (
	"context"
	"sync"
	"time"

	"github.com/irisuniflora/VF/internal/domain/render"
	"github.com/irisuniflora/VF/internal/infrastructure/monitoring/logging"
)

// CameraGuard keeps the user's camera across a rebuild.  Backends may refit
// the camera asynchronously after representations change, so the snapshot is
// reapplied on every delay of the retry policy rather than once.
// Drop the retries if the backend ever offers a way to disable auto-focus.
type CameraGuard struct {
	mu       sync.Mutex
	delays   []time.Duration
	schedule Scheduler
	logger   logging.Logger
	gen      uint64
	cancels  []func()
}

// NewCameraGuard returns a guard with the given retry delays.
func NewCameraGuard(delays []time.Duration, schedule Scheduler, logger logging.Logger) *CameraGuard {
	if schedule == nil {
		schedule = RealScheduler
	}
	return &CameraGuard{
		delays:   append([]time.Duration(nil), delays...),
		schedule: schedule,
		logger:   logger,
	}
}

// Preserve snapshots the camera, runs apply, then schedules the restores.
// A newer Preserve cancels the restores of an older one.
func (g *CameraGuard) Preserve(ctx context.Context, backend render.Backend, apply func()) {
	cam, err := backend.Camera(ctx)
	if err != nil {
		g.logger.Warn("camera snapshot failed", logging.Err(err))
		apply()
		return
	}

	g.mu.Lock()
	g.gen++
	gen := g.gen
	for _, cancel := range g.cancels {
		cancel()
	}
	g.cancels = nil
	g.mu.Unlock()

	apply()

	restoreCtx := context.WithoutCancel(ctx)
	for _, d := range g.delays {
		cancel := g.schedule(d, func() {
			g.mu.Lock()
			stale := gen != g.gen
			g.mu.Unlock()
			if stale {
				return
			}
			if err := backend.SetCamera(restoreCtx, cam); err != nil {
				g.logger.Debug("camera restore failed", logging.Err(err))
			}
		})
		g.mu.Lock()
		if gen == g.gen {
			g.cancels = append(g.cancels, cancel)
		}
		g.mu.Unlock()
	}
}

// Stop cancels outstanding restores.
func (g *CameraGuard) Stop() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.gen++
	for _, cancel := range g.cancels {
		cancel()
	}
	g.cancels = nil
}
