package elviz

import (
	"image"
	"image/color"
)

// Image is a rendered frame: straight-alpha float RGBA, four values per
// pixel, rows stored top to bottom.
//
// The Image returned by Scene.Render is owned by the Scene and overwritten
// by the next Render. Use Clone to keep a frame.
type Image struct {
	width, height int
	pix           []float32
}

// NewImage allocates a transparent image. Non-positive sizes give an empty
// image.
func NewImage(width, height int) *Image {
	if width <= 0 || height <= 0 {
		return &Image{}
	}
	return &Image{width: width, height: height, pix: make([]float32, 4*width*height)}
}

// Width returns the image width in pixels.
func (m *Image) Width() int { return m.width }

// Height returns the image height in pixels.
func (m *Image) Height() int { return m.height }

// Pix returns the underlying samples: R, G, B, A per pixel, row by row.
func (m *Image) Pix() []float32 { return m.pix }

// RGBAAt returns the color of pixel (x, y). Out-of-range pixels are
// transparent.
func (m *Image) RGBAAt(x, y int) RGBA {
	if x < 0 || y < 0 || x >= m.width || y >= m.height {
		return RGBA{}
	}
	i := 4 * (y*m.width + x)
	p := m.pix[i : i+4 : i+4]
	return RGBA{R: p[0], G: p[1], B: p[2], A: p[3]}
}

// SetRGBA sets pixel (x, y). Out-of-range pixels are ignored.
func (m *Image) SetRGBA(x, y int, c RGBA) {
	if x < 0 || y < 0 || x >= m.width || y >= m.height {
		return
	}
	i := 4 * (y*m.width + x)
	p := m.pix[i : i+4 : i+4]
	p[0], p[1], p[2], p[3] = c.R, c.G, c.B, c.A
}

// Fill sets every pixel to c.
func (m *Image) Fill(c RGBA) {
	for i := 0; i < len(m.pix); i += 4 {
		m.pix[i], m.pix[i+1], m.pix[i+2], m.pix[i+3] = c.R, c.G, c.B, c.A
	}
}

// Clone returns a deep copy.
func (m *Image) Clone() *Image {
	c := &Image{width: m.width, height: m.height, pix: make([]float32, len(m.pix))}
	copy(c.pix, m.pix)
	return c
}

// ColorModel implements image.Image.
func (m *Image) ColorModel() color.Model { return color.NRGBA64Model }

// Bounds implements image.Image.
func (m *Image) Bounds() image.Rectangle { return image.Rect(0, 0, m.width, m.height) }

// At implements image.Image.
func (m *Image) At(x, y int) color.Color { return m.RGBAAt(x, y).Color() }

// NRGBA converts the image to 8-bit straight alpha. Components are
// truncated, not rounded, matching a float-to-byte texture read.
func (m *Image) NRGBA() *image.NRGBA {
	out := image.NewNRGBA(m.Bounds())
	for i, v := range m.pix {
		out.Pix[i] = unit8(v)
	}
	return out
}

var _ image.Image = (*Image)(nil)
