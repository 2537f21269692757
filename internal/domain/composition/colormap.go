package composition

import (
	"github.com/irisuniflora/VF/internal/domain/render"
	"github.com/irisuniflora/VF/internal/domain/structure"
)

// ColorMap holds explicit per-residue color overrides for one structure.
type ColorMap struct {
	colors map[structure.ResidueKey]render.Color
}

// NewColorMap returns an empty map.
func NewColorMap() *ColorMap {
	return &ColorMap{colors: make(map[structure.ResidueKey]render.Color)}
}

// Set colors every key in keys.
func (m *ColorMap) Set(keys structure.KeySet, c render.Color) {
	for k := range keys {
		m.colors[k] = c
	}
}

// Clear drops the overrides of keys so they fall back to the scheme.
func (m *ColorMap) Clear(keys structure.KeySet) {
	for k := range keys {
		delete(m.colors, k)
	}
}

// Reset drops every override.
func (m *ColorMap) Reset() {
	m.colors = make(map[structure.ResidueKey]render.Color)
}

// Get returns the override of k.
func (m *ColorMap) Get(k structure.ResidueKey) (render.Color, bool) {
	c, ok := m.colors[k]
	return c, ok
}

// Len is the number of overrides.
func (m *ColorMap) Len() int { return len(m.colors) }

// Entries renders the overrides as "A:12" → color.
func (m *ColorMap) Entries() map[string]render.Color {
	out := make(map[string]render.Color, len(m.colors))
	for k, c := range m.colors {
		out[k.String()] = c
	}
	return out
}
