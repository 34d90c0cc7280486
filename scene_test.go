package elviz

import (
	"errors"
	"math"
	"slices"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
)

func newTestScene(t *testing.T, w, h int, bg RGBA, opts ...SceneOption) *Scene {
	t.Helper()
	opts = append([]SceneOption{WithDevice(NewSoftwareDevice())}, opts...)
	sc, err := NewScene(w, h, bg, opts...)
	if err != nil {
		t.Fatalf("NewScene() = %v", err)
	}
	t.Cleanup(func() { sc.Close() })
	return sc
}

// quad returns an unlit square from (-s, -s) to (s, s) at clip depth z.
func quad(t *testing.T, s, z float32, c RGBA) *Surface {
	t.Helper()
	grid := NewSurfaceGrid(2, 2, SurfaceSmooth, func(u, v int) Point {
		return Pt(-s+2*s*float32(u), -s+2*s*float32(v), z, c)
	})
	q, err := NewSurface(grid)
	if err != nil {
		t.Fatalf("NewSurface() = %v", err)
	}
	q.SetLighting(false)
	return q
}

func assertColor(t *testing.T, img *Image, x, y int, want RGBA) {
	t.Helper()
	got := img.RGBAAt(x, y)
	const eps = 1e-6
	if math.Abs(float64(got.R-want.R)) > eps || math.Abs(float64(got.G-want.G)) > eps ||
		math.Abs(float64(got.B-want.B)) > eps || math.Abs(float64(got.A-want.A)) > eps {
		t.Errorf("RGBAAt(%d, %d) = %v, want %v", x, y, got, want)
	}
}

func TestEmptySceneIsBackground(t *testing.T) {
	for _, samples := range []int{0, 4} {
		sc := newTestScene(t, 100, 100, Blue, WithSamples(samples))
		img := sc.Render()
		if img.Width() != 100 || img.Height() != 100 {
			t.Fatalf("image is %dx%d, want 100x100", img.Width(), img.Height())
		}
		for y := 0; y < 100; y++ {
			for x := 0; x < 100; x++ {
				if got := img.RGBAAt(x, y); got != Blue {
					t.Fatalf("samples=%d: RGBAAt(%d, %d) = %v, want exactly %v", samples, x, y, got, Blue)
				}
			}
		}
	}
}

func TestOpaqueDrawableIndependentOfPasses(t *testing.T) {
	render := func(passes int) []float32 {
		sc := newTestScene(t, 64, 64, White, WithPasses(passes), WithSamples(4))
		sc.Add(quad(t, 0.5, 0, RGB(0.2, 0.4, 0.6)))
		d := NewDisk(Red)
		d.SetModel(mgl32.Translate3D(0.3, 0.3, -0.2).Mul4(mgl32.Scale3D(0.4, 0.4, 1)))
		sc.Add(d)
		return slices.Clone(sc.Render().Pix())
	}
	one, four := render(1), render(4)
	if !slices.Equal(one, four) {
		t.Error("P=1 and P=4 renders of opaque drawables differ")
	}
}

func TestTranslucentQuadsPeeling(t *testing.T) {
	red := RGBA4(1, 0, 0, 0.5)
	green := RGBA4(0, 1, 0, 0.5)
	tests := []struct {
		name   string
		passes int
		order  []int // 0 = near red, 1 = far green
		want   RGBA
	}{
		{"two passes", 2, []int{0, 1}, RGBA4(0.75, 0.5, 0.25, 1)},
		{"two passes reversed order", 2, []int{1, 0}, RGBA4(0.75, 0.5, 0.25, 1)},
		{"five passes", 5, []int{1, 0}, RGBA4(0.75, 0.5, 0.25, 1)},
		{"one pass keeps nearest", 1, []int{1, 0}, RGBA4(1, 0.5, 0.5, 1)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sc := newTestScene(t, 32, 32, White, WithPasses(tt.passes))
			quads := []*Surface{quad(t, 0.5, -0.5, red), quad(t, 0.5, 0.5, green)}
			for _, i := range tt.order {
				sc.Add(quads[i])
			}
			img := sc.Render()
			assertColor(t, img, 16, 16, tt.want)
			assertColor(t, img, 1, 1, White)
		})
	}
}

func TestOverlappingTranslucentDisks(t *testing.T) {
	sc := newTestScene(t, 64, 64, Black, WithPasses(2))

	green := NewDisk(RGBA4(0, 1, 0, 0.5))
	green.SetModel(mgl32.Translate3D(0.2, 0, 0.5).Mul4(mgl32.Scale3D(0.5, 0.5, 1)))
	red := NewDisk(RGBA4(1, 0, 0, 0.5))
	red.SetModel(mgl32.Translate3D(-0.2, 0, -0.5).Mul4(mgl32.Scale3D(0.5, 0.5, 1)))
	sc.Add(green)
	sc.Add(red)

	img := sc.Render()
	// Overlap: 0.5*red + 0.5*(0.5*green + 0.5*background).
	assertColor(t, img, 32, 32, RGBA4(0.5, 0.25, 0, 1))
	// Red only, left of the overlap.
	assertColor(t, img, 14, 32, RGBA4(0.5, 0, 0, 1))
	// Green only, right of the overlap.
	assertColor(t, img, 50, 32, RGBA4(0, 0.5, 0, 1))
}

func TestEqualDepthRejected(t *testing.T) {
	sc := newTestScene(t, 16, 16, White, WithPasses(3))
	sc.Add(quad(t, 0.5, 0, RGBA4(1, 0, 0, 0.5)))
	sc.Add(quad(t, 0.5, 0, RGBA4(0, 0, 1, 0.5)))

	// The first drawable wins pass 0; the second, at equal depth, is
	// neither in front of it nor peeled behind it.
	assertColor(t, sc.Render(), 8, 8, RGBA4(1, 0.5, 0.5, 1))
}

func TestMultisampledEdges(t *testing.T) {
	sc := newTestScene(t, 64, 64, Black, WithSamples(4), WithPasses(1))
	sc.Add(NewDisk(Red))
	img := sc.Render()

	assertColor(t, img, 32, 32, Red)
	assertColor(t, img, 0, 0, Black)

	partial := 0
	for y := 0; y < 64; y++ {
		for x := 0; x < 64; x++ {
			if r := img.RGBAAt(x, y).R; r > 0 && r < 1 {
				partial++
			}
		}
	}
	if partial == 0 {
		t.Error("no partially covered edge pixels with 4x multisampling")
	}
}

func TestNewSceneValidation(t *testing.T) {
	dev := NewSoftwareDevice()
	tests := []struct {
		name    string
		w, h    int
		opts    []SceneOption
		wantErr error
	}{
		{"zero width", 0, 10, nil, ErrInvalidSize},
		{"negative height", 10, -1, nil, ErrInvalidSize},
		{"zero passes", 10, 10, []SceneOption{WithPasses(0)}, ErrInvalidPasses},
		{"three samples", 10, 10, []SceneOption{WithSamples(3)}, ErrInvalidSamples},
		{"sixteen samples", 10, 10, []SceneOption{WithSamples(16)}, ErrInvalidSamples},
		{"odd size is fine", 11, 7, nil, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := append([]SceneOption{WithDevice(dev)}, tt.opts...)
			sc, err := NewScene(tt.w, tt.h, White, opts...)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("NewScene() error = %v, want %v", err, tt.wantErr)
			}
			if err == nil {
				sc.Close()
			}
		})
	}

	_, err := NewScene(0, 5, White, WithDevice(dev))
	var se *SizeError
	if !errors.As(err, &se) || se.Width != 0 || se.Height != 5 {
		t.Errorf("NewScene(0, 5) error = %v, want *SizeError{0, 5}", err)
	}
}

func TestNewSceneTargetConfig(t *testing.T) {
	mock := &mockDevice{name: "config"}
	sc, err := NewScene(30, 20, White, WithDevice(mock), WithPasses(3))
	if err != nil {
		t.Fatalf("NewScene() = %v", err)
	}
	defer sc.Close()
	want := TargetConfig{Width: 30, Height: 20, Samples: 1, Passes: 3}
	if len(mock.targets) != 1 || mock.targets[0] != want {
		t.Errorf("targets = %+v, want [%+v]", mock.targets, want)
	}
	if sc.Samples() != 1 || sc.Passes() != 3 || sc.Device() != mock {
		t.Errorf("Samples() = %d, Passes() = %d, want 1, 3", sc.Samples(), sc.Passes())
	}
}

func TestNewSceneAllocationFailure(t *testing.T) {
	mock := &mockDevice{name: "oom", targetErr: errors.New("out of memory")}
	if _, err := NewScene(8, 8, White, WithDevice(mock)); !errors.Is(err, ErrTargetAllocation) {
		t.Errorf("NewScene() error = %v, want ErrTargetAllocation", err)
	}
}

func TestRemoveDrawable(t *testing.T) {
	sc := newTestScene(t, 16, 16, White)
	q := quad(t, 1, 0, Red)
	sc.Add(q)
	sc.Add(q)
	if sc.Len() != 1 {
		t.Fatalf("Len() after adding twice = %d, want 1", sc.Len())
	}
	assertColor(t, sc.Render(), 8, 8, Red)

	sc.Remove(q)
	sc.Remove(q)
	if sc.Len() != 0 {
		t.Fatalf("Len() after Remove = %d, want 0", sc.Len())
	}
	assertColor(t, sc.Render(), 8, 8, White)
}

func TestSetBackground(t *testing.T) {
	sc := newTestScene(t, 8, 8, White)
	if sc.Background() != White {
		t.Errorf("Background() = %v, want %v", sc.Background(), White)
	}
	sc.SetBackground(Green)
	if sc.Background() != Green {
		t.Errorf("Background() = %v, want %v", sc.Background(), Green)
	}
	assertColor(t, sc.Render(), 4, 4, Green)
}

func TestRenderReusesImage(t *testing.T) {
	sc := newTestScene(t, 8, 8, White)
	first := sc.Render()
	if second := sc.Render(); second != first {
		t.Error("Render() returned a new image, want the scene's image")
	}
	sc.Close()
	if after := sc.Render(); after != first {
		t.Error("Render() after Close returned a different image")
	}
	sc.Add(NewDisk(Red)) // no effect on a closed scene
	if sc.Len() != 0 {
		t.Errorf("Len() after Add on closed scene = %d, want 0", sc.Len())
	}
}

func TestAspectCorrection(t *testing.T) {
	sc := newTestScene(t, 200, 100, Black, WithPasses(1))
	d := NewDisk(Red)
	d.SetModel(mgl32.Scale3D(0.5, 0.5, 1))
	sc.Add(d)

	// Radius 0.5 maps to 25 pixels on both axes.
	img := sc.Render()
	assertColor(t, img, 100+20, 50, Red)
	assertColor(t, img, 100+30, 50, Black)
	assertColor(t, img, 100, 50-20, Red)

	d.SetAspectCorrection(false)
	assertColor(t, sc.Render(), 100+30, 50, Red)
}

type mockResource struct{ released int }

func (r *mockResource) Release() { r.released++ }

func TestDrawableBuffersReleasedAfterLastScene(t *testing.T) {
	a := newTestScene(t, 8, 8, White)
	b := newTestScene(t, 8, 8, White)
	d := NewDisk(Red)
	a.Add(d)
	b.Add(d)

	batch := d.base().batch(8, 8)
	if batch == nil {
		t.Fatal("disk produced no batch")
	}
	res := &mockResource{}
	batch.SetResource(a.Device(), res)

	d.Close()
	if res.released != 0 {
		t.Fatal("buffers released while scenes still hold the drawable")
	}
	if got := d.base().batch(8, 8); got != nil {
		t.Error("closed drawable still produces geometry")
	}
	a.Remove(d)
	if res.released != 0 {
		t.Fatal("buffers released while one scene still holds the drawable")
	}
	b.Close()
	if res.released != 1 {
		t.Errorf("resource released %d times, want 1", res.released)
	}
}

func TestDrawableBatchCache(t *testing.T) {
	d := NewDisk(Red)
	b1 := d.base().batch(10, 10)
	gen := b1.Generation()
	if b2 := d.base().batch(10, 10); b2 != b1 || b2.Generation() != gen {
		t.Error("unchanged drawable rebuilt its batch")
	}
	d.SetColor(Blue)
	b3 := d.base().batch(10, 10)
	if b3 != b1 || b3.Generation() == gen {
		t.Error("SetColor did not refresh the batch in place")
	}
	if got := RGBAFromVec4(b3.Vertices[0].Color); got != Blue {
		t.Errorf("vertex color = %v, want %v", got, Blue)
	}
	if d.base().batch(20, 10) == b1 {
		t.Error("different viewport shares a batch")
	}
}
