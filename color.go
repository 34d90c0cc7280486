package elviz

import (
	"image/color"
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// RGBA represents a straight (non-premultiplied) alpha color.
// Each component is in the range [0, 1].
type RGBA struct {
	R, G, B, A float32
}

// RGB creates an opaque color from RGB components.
func RGB(r, g, b float32) RGBA {
	return RGBA{R: r, G: g, B: b, A: 1}
}

// RGBA4 creates a color from RGBA components.
func RGBA4(r, g, b, a float32) RGBA {
	return RGBA{R: r, G: g, B: b, A: a}
}

// Common colors.
var (
	Black       = RGB(0, 0, 0)
	White       = RGB(1, 1, 1)
	Red         = RGB(1, 0, 0)
	Green       = RGB(0, 1, 0)
	Blue        = RGB(0, 0, 1)
	Transparent = RGBA{}
)

// Vec4 returns the color as an mgl32 vector (r, g, b, a).
func (c RGBA) Vec4() mgl32.Vec4 {
	return mgl32.Vec4{c.R, c.G, c.B, c.A}
}

// RGBAFromVec4 converts an mgl32 vector (r, g, b, a) to a color.
func RGBAFromVec4(v mgl32.Vec4) RGBA {
	return RGBA{R: v[0], G: v[1], B: v[2], A: v[3]}
}

// WithAlpha returns the color with its alpha replaced.
func (c RGBA) WithAlpha(a float32) RGBA {
	c.A = a
	return c
}

// Color converts the color to a 16-bit straight alpha color.NRGBA64.
func (c RGBA) Color() color.Color {
	return color.NRGBA64{
		R: unit16(c.R),
		G: unit16(c.G),
		B: unit16(c.B),
		A: unit16(c.A),
	}
}

// FromColor converts a standard color.Color to RGBA.
func FromColor(c color.Color) RGBA {
	n := color.NRGBA64Model.Convert(c).(color.NRGBA64)
	return RGBA{
		R: float32(n.R) / 0xffff,
		G: float32(n.G) / 0xffff,
		B: float32(n.B) / 0xffff,
		A: float32(n.A) / 0xffff,
	}
}

// unit8 maps [0, 1] to [0, 255], truncating like a float-to-byte texture read.
func unit8(v float32) uint8 {
	return uint8(clampUnit(v) * 255)
}

func unit16(v float32) uint16 {
	return uint16(math.Round(float64(clampUnit(v)) * 0xffff))
}

func clampUnit(v float32) float32 {
	switch {
	case v != v: // NaN
		return 0
	case v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}
