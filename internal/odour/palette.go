package odour

import (
	"fmt"
	"image/color"
)

// Color is a named palette entry.
type Color struct {
	Name string
	RGBA color.RGBA
}

// Hex returns the color as a CSS hex string.
func (c Color) Hex() string {
	return fmt.Sprintf("#%02x%02x%02x", c.RGBA.R, c.RGBA.G, c.RGBA.B)
}

var palette = [...]Color{
	{"red", color.RGBA{R: 0xff, A: 0xff}},
	{"blue", color.RGBA{B: 0xff, A: 0xff}},
	{"green", color.RGBA{G: 0x80, A: 0xff}},
	{"orange", color.RGBA{R: 0xff, G: 0xa5, A: 0xff}},
	{"purple", color.RGBA{R: 0x80, B: 0x80, A: 0xff}},
	{"cyan", color.RGBA{G: 0xff, B: 0xff, A: 0xff}},
	{"brown", color.RGBA{R: 0xa5, G: 0x2a, B: 0x2a, A: 0xff}},
	{"pink", color.RGBA{R: 0xff, G: 0xc0, B: 0xcb, A: 0xff}},
	{"gray", color.RGBA{R: 0x80, G: 0x80, B: 0x80, A: 0xff}},
	{"olive", color.RGBA{R: 0x80, G: 0x80, A: 0xff}},
}

// PaletteSize is the number of distinct group colors.
const PaletteSize = len(palette)

// ColorFor returns the fixed color of a group id.
func ColorFor(group int) (Color, error) {
	if group < 0 || group >= PaletteSize {
		return Color{}, &PaletteExhaustedError{Group: group}
	}
	return palette[group], nil
}

// Palette returns a copy of all colors in group order.
func Palette() []Color {
	out := make([]Color, PaletteSize)
	copy(out, palette[:])
	return out
}
