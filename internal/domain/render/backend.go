package render

import (
	"context"

	"github.com/irisuniflora/VF/internal/domain/structure"
)

// Backend is the capability surface of the 3D rendering engine for one
// loaded structure.  Implementations may be asynchronous internally; every
// call may fail independently.
type Backend interface {
	// AddStyle applies spec to every atom matching sel.
	AddStyle(ctx context.Context, sel Selector, spec StyleSpec) error
	// ClearStyles removes every style instruction issued so far.
	ClearStyles(ctx context.Context) error
	// QueryAtoms returns the atoms matching sel.
	QueryAtoms(ctx context.Context, sel Selector) ([]structure.Atom, error)
	AddShape(ctx context.Context, s Shape) error
	RemoveShape(ctx context.Context, id string) error
	Camera(ctx context.Context) (CameraState, error)
	SetCamera(ctx context.Context, c CameraState) error
	// ResetCamera zooms to fit the whole structure.
	ResetCamera(ctx context.Context) error
}
