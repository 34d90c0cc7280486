package elviz

import (
	"slices"

	"github.com/gogpu/elviz/internal/polyline"
)

// SegmentSet draws independent wide line segments. Each segment has its
// own width and a color per end point; all segments share one cap style.
type SegmentSet struct {
	drawableBase
	segments []Segment
	lineCap  LineCap
}

// NewSegmentSet creates a segment set with butt caps.
func NewSegmentSet(segments []Segment) *SegmentSet {
	s := &SegmentSet{drawableBase: newDrawableBase(), segments: slices.Clone(segments)}
	s.drawableBase.build = s.build
	return s
}

// Segments returns a copy of the segments.
func (s *SegmentSet) Segments() []Segment {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.segments)
}

// SetSegments replaces all segments.
func (s *SegmentSet) SetSegments(segments []Segment) {
	s.update(func() { s.segments = slices.Clone(segments) })
}

// SetWidth sets the width of every segment, in pixels.
func (s *SegmentSet) SetWidth(width float32) {
	s.update(func() {
		for i := range s.segments {
			s.segments[i].Width = width
		}
	})
}

// Cap returns the cap style.
func (s *SegmentSet) Cap() LineCap {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lineCap
}

// SetCap sets the cap style of both segment ends.
func (s *SegmentSet) SetCap(c LineCap) {
	s.update(func() { s.lineCap = c })
}

func (s *SegmentSet) build(vp viewport, xf Transform) ([]Vertex, Material) {
	if len(s.segments) == 0 {
		return nil, Material{}
	}
	mvp := xf.MVP(vp.width, vp.height)
	ends := make([]polyline.Adjacent, 0, 2*len(s.segments))
	widths := make([]float32, 0, len(s.segments))
	for i, seg := range s.segments {
		ends = append(ends,
			polyline.Adjacent{Clip: clipVertex(mvp, seg.Start.Position), Index: 2 * i},
			polyline.Adjacent{Clip: clipVertex(mvp, seg.End.Position), Index: 2*i + 1},
		)
		widths = append(widths, seg.Width)
	}
	out := polyline.Segments(ends, widths, lineCap(s.lineCap), polylineViewport(vp))
	verts := make([]Vertex, len(out))
	for i, v := range out {
		seg := s.segments[v.Index/2]
		c := seg.Start.Color
		if v.Index%2 == 1 {
			c = seg.End.Color
		}
		verts[i] = Vertex{Clip: v.Clip, Color: c.Vec4()}
	}
	return verts, Material{}
}

func lineCap(c LineCap) polyline.Cap {
	if c == LineCapRound {
		return polyline.Round
	}
	return polyline.Butt
}

func polylineViewport(vp viewport) polyline.Viewport {
	return polyline.Viewport{Width: float32(vp.width), Height: float32(vp.height)}
}
