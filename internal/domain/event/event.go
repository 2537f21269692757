// Package event defines the viewer's lifecycle notifications and the port
// they are published through.
package event

import (
	"context"
	"time"
)

// Event types.
const (
	StructureLoaded    = "structure.loaded"
	StructureRemoved   = "structure.removed"
	StructureActivated = "structure.activated"
	RegionCreated      = "region.created"
	RegionActivated    = "region.activated"
	RegionDeleted      = "region.deleted"
	SelectionChanged   = "selection.changed"
)

// Event is a viewer lifecycle notification.
type Event struct {
	Type        string         `json:"type"`
	StructureID string         `json:"structure_id"`
	Time        time.Time      `json:"time"`
	Payload     map[string]any `json:"payload,omitempty"`
}

// Publisher delivers events.  Publishing is best effort: implementations
// must not block the caller and report failures only through their own logs
// and metrics.
type Publisher interface {
	Publish(ctx context.Context, ev Event)
}

// NopPublisher drops every event.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, Event) {}
