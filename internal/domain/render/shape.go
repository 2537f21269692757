package render

import "github.com/irisuniflora/VF/internal/domain/structure"

// ShapeKind is a primitive the backend can draw.
type ShapeKind string

const (
	ShapeCylinder ShapeKind = "cylinder"
	ShapeSphere   ShapeKind = "sphere"
)

// Shape is a primitive identified by ID.  Spheres ignore To.
type Shape struct {
	ID     string         `json:"id"`
	Kind   ShapeKind      `json:"kind"`
	From   structure.Vec3 `json:"from"`
	To     structure.Vec3 `json:"to,omitempty"`
	Radius float64        `json:"radius"`
	Color  Color          `json:"color"`
	Dashed bool           `json:"dashed,omitempty"`
	Label  string         `json:"label,omitempty"`
}

// CameraState is a restorable camera snapshot.
type CameraState struct {
	Position structure.Vec3 `json:"position"`
	Target   structure.Vec3 `json:"target"`
	Up       structure.Vec3 `json:"up"`
	Zoom     float64        `json:"zoom"`
}
