package viewer

import (
	"sync"

	"github.com/irisuniflora/VF/internal/domain/render"
	"github.com/irisuniflora/VF/pkg/errors"
)

// Port is the input port a session receives backend pointer events on.
// Closing it unsubscribes the session; Send never blocks.
type Port struct {
	ch   chan render.PointerEvent
	done chan struct{}
	once sync.Once
}

// NewPort returns a port buffering up to size events.
func NewPort(size int) *Port {
	if size <= 0 {
		size = 1
	}
	return &Port{ch: make(chan render.PointerEvent, size), done: make(chan struct{})}
}

// Send queues ev.  It fails when the port is closed or its buffer is full.
func (p *Port) Send(ev render.PointerEvent) error {
	if err := ev.Validate(); err != nil {
		return err
	}
	select {
	case <-p.done:
		return errors.New(errors.ErrCodeServiceUnavailable, "input port closed")
	default:
	}
	select {
	case p.ch <- ev:
		return nil
	default:
		return errors.New(errors.ErrCodeServiceUnavailable, "input buffer full")
	}
}

// Events is the receive side.
func (p *Port) Events() <-chan render.PointerEvent { return p.ch }

// Done is closed when the port is closed.
func (p *Port) Done() <-chan struct{} { return p.done }

// Close unsubscribes the port.  It is safe to call more than once.
func (p *Port) Close() {
	p.once.Do(func() { close(p.done) })
}
