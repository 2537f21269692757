// Package render defines the port to the external 3D rendering backend:
// atom selectors, style specifications, primitive shapes, camera snapshots
// and pointer events.
package render

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/irisuniflora/VF/pkg/errors"
)

// Color is a normalized "#RRGGBB" hex color.
type Color string

var namedColors = map[string]Color{
	"white":   "#FFFFFF",
	"black":   "#000000",
	"red":     "#FF0000",
	"green":   "#00FF00",
	"blue":    "#0000FF",
	"yellow":  "#FFFF00",
	"cyan":    "#00FFFF",
	"magenta": "#FF00FF",
	"orange":  "#FFA500",
	"purple":  "#800080",
	"grey":    "#808080",
	"gray":    "#808080",
}

// ParseColor accepts "#RGB", "#RRGGBB", "0xRRGGBB", "RRGGBB" or a basic color
// name and returns the normalized form.
func ParseColor(s string) (Color, error) {
	raw := strings.TrimSpace(s)
	if c, ok := namedColors[strings.ToLower(raw)]; ok {
		return c, nil
	}
	hex := strings.TrimPrefix(strings.TrimPrefix(strings.ToLower(raw), "#"), "0x")
	if len(hex) == 3 {
		hex = string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]})
	}
	if len(hex) != 6 {
		return "", errors.New(errors.ErrCodeColorInvalid, "invalid color").WithDetail(s)
	}
	if _, err := strconv.ParseUint(hex, 16, 32); err != nil {
		return "", errors.New(errors.ErrCodeColorInvalid, "invalid color").WithDetail(s)
	}
	return Color("#" + strings.ToUpper(hex)), nil
}

// RGB returns the color channels.  An invalid color yields black.
func (c Color) RGB() (r, g, b uint8) {
	v, err := strconv.ParseUint(strings.TrimPrefix(string(c), "#"), 16, 32)
	if err != nil {
		return 0, 0, 0
	}
	return uint8(v >> 16), uint8(v >> 8), uint8(v)
}

// RGBColor builds a Color from channels.
func RGBColor(r, g, b uint8) Color {
	return Color(fmt.Sprintf("#%02X%02X%02X", r, g, b))
}

// Lerp blends c toward o by t in [0,1].
func (c Color) Lerp(o Color, t float64) Color {
	if t <= 0 {
		return c
	}
	if t >= 1 {
		return o
	}
	r1, g1, b1 := c.RGB()
	r2, g2, b2 := o.RGB()
	mix := func(a, b uint8) uint8 { return uint8(float64(a) + (float64(b)-float64(a))*t + 0.5) }
	return RGBColor(mix(r1, r2), mix(g1, g2), mix(b1, b2))
}

// ElementColor pairs an element symbol with its color.
type ElementColor struct {
	Element string `json:"elem"`
	Color   Color  `json:"color"`
}

// ElementPalette is the fixed palette used for non-carbon heavy atoms so they
// stay distinguishable whatever the carbon color is.  Sorted by element.
var ElementPalette = []ElementColor{
	{Element: "BR", Color: "#A62929"},
	{Element: "CL", Color: "#1FF01F"},
	{Element: "F", Color: "#90E050"},
	{Element: "FE", Color: "#E06633"},
	{Element: "I", Color: "#940094"},
	{Element: "N", Color: "#3050F8"},
	{Element: "O", Color: "#FF0D0D"},
	{Element: "P", Color: "#FF8000"},
	{Element: "S", Color: "#FFFF30"},
	{Element: "SE", Color: "#FFA100"},
	{Element: "ZN", Color: "#7D80B0"},
}

// DefaultCarbon is the carbon color of the by-element scheme.
const DefaultCarbon Color = "#909090"

// ElementColorOf looks up elem in ElementPalette.
func ElementColorOf(elem string) (Color, bool) {
	elem = strings.ToUpper(elem)
	for _, ec := range ElementPalette {
		if ec.Element == elem {
			return ec.Color, true
		}
	}
	return "", false
}
