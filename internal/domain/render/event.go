package render

import (
	"github.com/irisuniflora/VF/internal/domain/structure"
	"github.com/irisuniflora/VF/pkg/errors"
)

// PointerAction is the kind of a pointer event.
type PointerAction string

const (
	PointerDown  PointerAction = "down"
	PointerUp    PointerAction = "up"
	PointerHover PointerAction = "hover"
)

// PointerEvent is one event from the backend's click/hover stream.  Atom is
// the picked atom, nil when the cursor is over empty space.
type PointerEvent struct {
	Action PointerAction   `json:"action"`
	X      float64         `json:"x"`
	Y      float64         `json:"y"`
	Atom   *structure.Atom `json:"atom,omitempty"`
	Ctrl   bool            `json:"ctrl,omitempty"`
	Shift  bool            `json:"shift,omitempty"`
}

// Validate checks the action.
func (e PointerEvent) Validate() error {
	switch e.Action {
	case PointerDown, PointerUp, PointerHover:
		return nil
	}
	return errors.New(errors.ErrCodePointerEventInvalid, "invalid pointer action").WithDetail(string(e.Action))
}
