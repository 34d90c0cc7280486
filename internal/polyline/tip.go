// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package polyline

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
	"seehuhn.de/go/geom/vec"
)

// scenePoint is a vertex after the perspective divide with x and y scaled
// to pixels. z is the divided depth and w the original clip w.
type scenePoint struct {
	xy   vec.Vec2
	z, w float64
}

// delta is a displacement in scene space. Join offsets move along the
// segment in all four components so depth stays on the segment.
type delta struct {
	xy   vec.Vec2
	z, w float64
}

func (vp Viewport) toScene(c mgl32.Vec4) scenePoint {
	w := float64(c[3])
	return scenePoint{
		xy: vec.Vec2{
			X: float64(c[0]) * 0.5 * float64(vp.Width) / w,
			Y: float64(c[1]) * 0.5 * float64(vp.Height) / w,
		},
		z: float64(c[2]) / w,
		w: w,
	}
}

func (vp Viewport) fromScene(p scenePoint) mgl32.Vec4 {
	return mgl32.Vec4{
		float32(p.xy.X * p.w / (0.5 * float64(vp.Width))),
		float32(p.xy.Y * p.w / (0.5 * float64(vp.Height))),
		float32(p.z * p.w),
		float32(p.w),
	}
}

func (p scenePoint) add(d delta) scenePoint {
	return scenePoint{xy: p.xy.Add(d.xy), z: p.z + d.z, w: p.w + d.w}
}

func (p scenePoint) sub(q scenePoint) delta {
	return delta{xy: p.xy.Sub(q.xy), z: p.z - q.z, w: p.w - q.w}
}

func (d delta) plus(e delta) delta {
	return delta{xy: d.xy.Add(e.xy), z: d.z + e.z, w: d.w + e.w}
}

func (d delta) neg() delta { return scale(d, -1) }

// unit2 divides all components by the length of the xy part.
func (d delta) unit2() delta {
	l := d.xy.Length()
	if l == 0 {
		return delta{}
	}
	return scale(d, 1/l)
}

func scale(d delta, s float64) delta {
	return delta{xy: d.xy.Mul(s), z: d.z * s, w: d.w * s}
}

// perp rotates the xy part by 90 degrees and drops z and w.
func perp(d delta) delta {
	return delta{xy: vec.Vec2{X: -d.xy.Y, Y: d.xy.X}}
}

func cross2(a, b vec.Vec2) float64 {
	return a.X*b.Y - a.Y*b.X
}

// tip holds the join offsets at the shared vertex p1 of two segments,
// expressed relative to p1 and seen from the segment (p1, p2).
type tip struct {
	left, right  delta
	miter, outer delta
}

// calculateTip computes the join at p1 between (p0, p1) and (p1, p2) for a
// half width h. The outer corner is closed by the triangle (miter, p1,
// outer); the inner corner is pulled along the segment towards the
// intersection of the inner edges but never past half its length.
func calculateTip(p0, p1, p2 scenePoint, h float64) tip {
	line0 := p1.sub(p0)
	line1 := p2.sub(p1)
	d0 := line0.unit2()
	d1 := line1.unit2()

	factor := 1.0
	if cross2(d0.xy, d1.xy) > 0 {
		factor = -1
	}

	normalOuter1 := scale(perp(d1), factor)

	half := 0.5 * line1.xy.Length()
	inner := half

	miterDir := scale(perp(d0.plus(d1)).unit2(), factor)
	if miterDir.xy.Length() == 0 {
		// The segments reverse exactly; the bisector is the outer normal.
		miterDir = normalOuter1
	} else if den := normalOuter1.xy.Dot(miterDir.xy); den > 0 {
		leg2 := 1/(den*den) - 1
		if leg2 < 0 {
			leg2 = 0
		}
		inner = math.Min(h*math.Sqrt(leg2), half)
	}

	t := tip{
		miter: scale(miterDir, h),
		outer: scale(normalOuter1, h),
	}
	tipInner := scale(normalOuter1, -h).plus(scale(d1, inner))
	if factor == -1 {
		t.left, t.right = tipInner, t.outer
	} else {
		t.left, t.right = t.outer, tipInner
	}
	return t
}
