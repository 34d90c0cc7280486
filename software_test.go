package elviz

import (
	"errors"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
)

func fullQuadBatch(z float32, c RGBA) *Batch {
	v := func(x, y float32) Vertex {
		return Vertex{Clip: mgl32.Vec4{x, y, z, 1}, Color: c.Vec4()}
	}
	return &Batch{Vertices: []Vertex{
		v(-1, -1), v(1, -1), v(1, 1),
		v(-1, -1), v(1, 1), v(-1, 1),
	}}
}

func TestSoftwareTargetLayers(t *testing.T) {
	dev := NewSoftwareDevice()
	tgt, err := dev.NewTarget(TargetConfig{Width: 4, Height: 4, Samples: 2, Passes: 3})
	if err != nil {
		t.Fatalf("NewTarget() = %v", err)
	}
	defer tgt.Destroy()

	// Three translucent full-screen layers, submitted far to near and
	// near to far, must give the same picture.
	a := fullQuadBatch(0.5, RGBA4(1, 0, 0, 0.5))
	b := fullQuadBatch(0, RGBA4(0, 1, 0, 0.5))
	c := fullQuadBatch(-0.5, RGBA4(0, 0, 1, 0.5))

	render := func(batches ...*Batch) RGBA {
		img := NewImage(4, 4)
		if err := tgt.Render(&Frame{Background: Black, Batches: batches}, img); err != nil {
			t.Fatalf("Render() = %v", err)
		}
		return img.RGBAAt(2, 2)
	}
	// ((red/2)/2 + green/2)/2 + blue/2
	want := RGBA4(0.125, 0.25, 0.5, 1)
	for _, got := range []RGBA{render(a, b, c), render(c, b, a), render(b, a, c)} {
		if got != want {
			t.Errorf("composite = %v, want %v", got, want)
		}
	}
}

func TestSoftwareTargetLitBatch(t *testing.T) {
	dev := NewSoftwareDevice()
	tgt, err := dev.NewTarget(TargetConfig{Width: 2, Height: 2, Samples: 1, Passes: 1})
	if err != nil {
		t.Fatalf("NewTarget() = %v", err)
	}
	b := fullQuadBatch(0, RGB(0.4, 0.4, 0.4))
	for i := range b.Vertices {
		b.Vertices[i].Normal = mgl32.Vec3{0, 0, 1}
	}
	b.Material = litMaterial(mgl32.Vec3{0, 0, 5}, mgl32.Vec3{0, 0, 5})

	img := NewImage(2, 2)
	if err := tgt.Render(&Frame{Background: White, Batches: []*Batch{b}}, img); err != nil {
		t.Fatalf("Render() = %v", err)
	}
	assertColor(t, img, 1, 1, RGBA4(0.5, 0.5, 0.5, 1))
}

func TestSoftwareTargetErrors(t *testing.T) {
	dev := NewSoftwareDevice()
	tests := []TargetConfig{
		{Width: 0, Height: 4, Samples: 1, Passes: 1},
		{Width: 4, Height: 4, Samples: 3, Passes: 1},
		{Width: 4, Height: 4, Samples: 1, Passes: 0},
		{Width: 1 << 20, Height: 1 << 20, Samples: 8, Passes: 8},
	}
	for _, cfg := range tests {
		if _, err := dev.NewTarget(cfg); !errors.Is(err, ErrTargetAllocation) {
			t.Errorf("NewTarget(%+v) = %v, want ErrTargetAllocation", cfg, err)
		}
	}

	tgt, _ := dev.NewTarget(TargetConfig{Width: 4, Height: 4, Samples: 1, Passes: 1})
	if err := tgt.Render(&Frame{}, NewImage(3, 3)); err == nil {
		t.Error("Render() into a mismatched image returned nil error")
	}
}

func TestSoftwareCompositeAfterClose(t *testing.T) {
	dev := NewSoftwareDevice()
	tgt, err := dev.NewTarget(TargetConfig{Width: 40, Height: 40, Samples: 1, Passes: 1})
	if err != nil {
		t.Fatalf("NewTarget() = %v", err)
	}
	frame := &Frame{Background: White, Batches: []*Batch{fullQuadBatch(0, RGBA4(0, 0, 1, 0.5))}}
	want := RGBA4(0.5, 0.5, 1, 1)

	// Banded compositing covers every row; after Close it runs inline.
	for _, closed := range []bool{false, true} {
		if closed {
			dev.Close()
		}
		img := NewImage(40, 40)
		if err := tgt.Render(frame, img); err != nil {
			t.Fatalf("Render() = %v", err)
		}
		for _, y := range []int{0, 7, 8, 20, 39} {
			if got := img.RGBAAt(13, y); got != want {
				t.Errorf("closed=%v row %d = %v, want %v", closed, y, got, want)
			}
		}
	}
}

func TestInterpolateConstantAttributeExact(t *testing.T) {
	c := mgl32.Vec4{1, 0, 0, 1}
	n := mgl32.Vec3{0.3, 0.7, 0.1}
	tri := []Vertex{{Color: c, Normal: n}, {Color: c, Normal: n}, {Color: c, Normal: n}}
	// Weights whose float32 sum is not exactly 1.
	for _, bary := range [][3]float32{
		{0.1, 0.2, 0.7},
		{1.0 / 3, 1.0 / 3, 1.0 / 3},
		{0.4999999, 0.25, 0.25},
	} {
		if got := interpolate4(tri, bary, func(v *Vertex) mgl32.Vec4 { return v.Color }); got != c {
			t.Errorf("interpolate4(%v) = %v, want %v", bary, got, c)
		}
		if got := interpolate3(tri, bary, func(v *Vertex) mgl32.Vec3 { return v.Normal }); got != n {
			t.Errorf("interpolate3(%v) = %v, want %v", bary, got, n)
		}
	}

	tri[1].Color = mgl32.Vec4{0, 1, 0, 1}
	tri[2].Color = mgl32.Vec4{0, 0, 1, 1}
	got := interpolate4(tri, [3]float32{0, 1, 0}, func(v *Vertex) mgl32.Vec4 { return v.Color })
	if got != tri[1].Color {
		t.Errorf("interpolate4 at vertex 1 = %v, want %v", got, tri[1].Color)
	}
}
