// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package present places rendered frames into viewports of a different size.
//
// Three modes are supported:
//
//	Fill     scale to cover the viewport, cropping the overflow
//	Fit      scale to show the whole frame, letterboxing the rest
//	Absolute keep the frame at 1:1, centered
//
// Rectangles use viewport pixel coordinates with y pointing down; LLx/LLy is
// the minimum corner and URx/URy the maximum corner.
package present

import (
	"image"
	"image/color"
	"image/draw"
	"math"

	xdraw "golang.org/x/image/draw"
	"seehuhn.de/go/geom/rect"
)

// Mode selects how a frame is placed in a viewport.
type Mode int

const (
	// Fill covers the viewport; parts of the frame may be cropped.
	Fill Mode = iota
	// Fit shows the whole frame; uncovered viewport areas stay empty.
	Fit
	// Absolute draws the frame unscaled, centered in the viewport.
	Absolute
)

// String returns the mode name.
func (m Mode) String() string {
	switch m {
	case Fill:
		return "fill"
	case Fit:
		return "fit"
	case Absolute:
		return "absolute"
	default:
		return "unknown"
	}
}

// ParseMode returns the mode named s ("fill", "fit" or "absolute").
func ParseMode(s string) (Mode, bool) {
	for _, m := range []Mode{Fill, Fit, Absolute} {
		if m.String() == s {
			return m, true
		}
	}
	return Fill, false
}

// Layout returns the rectangle covered by a srcW x srcH frame in a
// dstW x dstH viewport. Empty sizes give the zero rectangle.
func Layout(mode Mode, srcW, srcH, dstW, dstH int) rect.Rect {
	if srcW <= 0 || srcH <= 0 || dstW <= 0 || dstH <= 0 {
		return rect.Rect{}
	}
	sw, sh := float64(srcW), float64(srcH)
	dw, dh := float64(dstW), float64(dstH)

	scale := 1.0
	switch mode {
	case Fill:
		scale = math.Max(dw/sw, dh/sh)
	case Fit:
		scale = math.Min(dw/sw, dh/sh)
	}
	w, h := sw*scale, sh*scale
	x, y := (dw-w)/2, (dh-h)/2
	return rect.Rect{LLx: x, LLy: y, URx: x + w, URy: y + h}
}

// Bounds rounds r to integer pixel bounds.
func Bounds(r rect.Rect) image.Rectangle {
	return image.Rect(
		int(math.Round(r.LLx)), int(math.Round(r.LLy)),
		int(math.Round(r.URx)), int(math.Round(r.URy)),
	)
}

// Blit draws src into dst with the given mode. Areas of dst not covered by
// the frame are filled with bg.
func Blit(dst draw.Image, src image.Image, mode Mode, bg color.Color) {
	db, sb := dst.Bounds(), src.Bounds()
	draw.Draw(dst, db, image.NewUniform(bg), image.Point{}, draw.Src)

	r := Bounds(Layout(mode, sb.Dx(), sb.Dy(), db.Dx(), db.Dy())).Add(db.Min)
	if r.Empty() {
		return
	}
	if r.Dx() == sb.Dx() && r.Dy() == sb.Dy() {
		xdraw.Copy(dst, r.Min, src, sb, xdraw.Src, nil)
		return
	}
	xdraw.BiLinear.Scale(dst, r, src, sb, xdraw.Src, nil)
}
