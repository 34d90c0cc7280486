package main

import (
	"fmt"
	"math"
	"sort"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/gogpu/elviz"
)

// demo is an animated set of drawables. step advances the animation to
// frame n.
type demo struct {
	drawables []elviz.Drawable
	step      func(n int)
}

var demos = map[string]func() demo{
	"helix":   helixDemo,
	"wave":    waveDemo,
	"circles": circlesDemo,
	"caps":    capsDemo,
	"peeling": peelingDemo,
}

func demoNames() []string {
	names := make([]string, 0, len(demos))
	for name := range demos {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func newDemo(name string) (demo, error) {
	f, ok := demos[name]
	if !ok {
		return demo{}, fmt.Errorf("unknown scene %q (have %v)", name, demoNames())
	}
	return f(), nil
}

func ortho() mgl32.Mat4 { return mgl32.Ortho2D(-1, 1, -1, 1) }

func sinf(x float64) float32 { return float32(math.Sin(x)) }
func cosf(x float64) float32 { return float32(math.Cos(x)) }

// helixPoints samples a helix of the given turns around the z axis,
// centered at the origin. Color fades from red to blue and opacity grows
// along the curve.
func helixPoints(n int, radius, turns, height float32) []elviz.Point {
	pts := make([]elviz.Point, n)
	for i := range pts {
		t := float32(i) / float32(n-1)
		phi := float64(t*turns) * 2 * math.Pi
		pts[i] = elviz.Pt(radius*cosf(phi), radius*sinf(phi), (t-0.5)*height,
			elviz.RGBA4(1-t, 0, t, t))
	}
	return pts
}

func helixDemo() demo {
	line := elviz.NewPolyline(helixPoints(200, 0.8, 5, 1.75), 40, elviz.LineCapButt)
	line.SetView(mgl32.LookAtV(mgl32.Vec3{0, -2, 2}, mgl32.Vec3{}, mgl32.Vec3{0, 0, 1}))
	line.SetProjection(mgl32.Perspective(mgl32.DegToRad(45), 1, 0.01, 200))
	return demo{
		drawables: []elviz.Drawable{line},
		step: func(n int) {
			line.SetModel(mgl32.HomogRotate3DX(0.05 * float32(n)))
		},
	}
}

// waveHeight is a radial wave damped by a gaussian.
func waveHeight(x, y, t float32) float32 {
	r2 := float64(x*x + y*y)
	return float32(0.5 * math.Exp(-1.5*r2) * math.Cos(15*r2-float64(t)))
}

func waveDemo() demo {
	const size = 201
	grid := func(t float32) elviz.SurfaceGrid {
		return elviz.NewSurfaceGrid(size, size, elviz.SurfaceSmooth, func(u, v int) elviz.Point {
			x := 2*float32(u)/(size-1) - 1
			y := 2*float32(v)/(size-1) - 1
			return elviz.Pt(x, y, waveHeight(x, y, t), elviz.RGBA4(0, 0.5, 1, 0.8))
		})
	}
	surf, err := elviz.NewSurface(grid(0))
	if err != nil {
		panic(err) // the grid above is always valid
	}
	surf.SetView(mgl32.LookAtV(mgl32.Vec3{0, -2.5, 2}, mgl32.Vec3{}, mgl32.Vec3{0, 0, 1}))
	surf.SetProjection(mgl32.Perspective(mgl32.DegToRad(45), 1, 0.01, 200))
	surf.SetLight(mgl32.Vec3{0, -2, 3})
	return demo{
		drawables: []elviz.Drawable{surf},
		step: func(n int) {
			surf.SetGrid(grid(0.2 * float32(n)))
		},
	}
}

func circlesDemo() demo {
	const count = 10
	var d demo
	disks := make([]*elviz.Disk, count)
	gray := elviz.RGB(0.8, 0.8, 0.8)
	for i := range disks {
		phi := math.Pi * float64(i) / count
		dx, dy := cosf(phi), sinf(phi)
		guide := elviz.NewPolyline([]elviz.Point{
			elviz.Pt(-dx, -dy, 0.1, gray),
			elviz.Pt(0, 0, 0.1, gray.WithAlpha(0)),
			elviz.Pt(dx, dy, 0.1, gray),
		}, 1, elviz.LineCapButt)
		guide.SetProjection(ortho())

		disk := elviz.NewDisk(elviz.RGB(0, 0.5*sinf(phi), 1-0.5*cosf(phi)))
		disk.SetProjection(ortho())
		disks[i] = disk
		d.drawables = append(d.drawables, guide, disk)
	}
	d.step = func(n int) {
		t := 0.05 * float64(n)
		for i, disk := range disks {
			phi := math.Pi * float64(i) / count
			m := 0.8 * cosf(phi+t)
			disk.SetModel(mgl32.Translate3D(m*cosf(phi), m*sinf(phi), 0).
				Mul4(mgl32.Scale3D(0.1, 0.1, 0.1)))
		}
	}
	return d
}

// arcPoints samples an arc of the given radius between two angles measured
// in turns.
func arcPoints(n int, radius, turn0, turn1 float32) []elviz.Point {
	pts := make([]elviz.Point, n)
	for i := range pts {
		t := float32(i) / float32(n-1)
		phi := float64(turn0+t*(turn1-turn0)) * 2 * math.Pi
		pts[i] = elviz.Pt(radius*cosf(phi), radius*sinf(phi), 0, elviz.RGB(1-t, t, 1))
	}
	return pts
}

func capsDemo() demo {
	lines := make([]*elviz.PolylineSet, 4)
	var d demo
	for i := range lines {
		c := elviz.LineCapButt
		if i%2 == 1 {
			c = elviz.LineCapRound
		}
		lines[i] = elviz.NewPolyline(nil, 25, c)
		lines[i].SetProjection(ortho())
		d.drawables = append(d.drawables, lines[i])
	}
	d.step = func(n int) {
		t := 0.04 * float32(n)
		for i, l := range lines {
			sign := float32(-1)
			if i%2 == 1 {
				sign = 1
			}
			turn0 := sign * t * (0.5 - float32(i)*0.1)
			l.SetPoints(arcPoints(50, 0.2+float32(i)*0.15, turn0, turn0+sign*0.75))
		}
	}
	return d
}

// peelingDemo shows three interpenetrating translucent disks. Each one is
// in front of another somewhere, so no draw order composites them
// correctly.
func peelingDemo() demo {
	colors := []elviz.RGBA{
		elviz.RGBA4(1, 0, 0, 0.5),
		elviz.RGBA4(0, 1, 0, 0.5),
		elviz.RGBA4(0, 0, 1, 0.5),
	}
	view := mgl32.LookAtV(mgl32.Vec3{0, -3, 1}, mgl32.Vec3{}, mgl32.Vec3{0, 0, 1})
	proj := mgl32.Perspective(mgl32.DegToRad(45), 1, 0.01, 200)
	disks := make([]*elviz.Disk, len(colors))
	var d demo
	for i, c := range colors {
		disks[i] = elviz.NewDisk(c)
		disks[i].SetView(view)
		disks[i].SetProjection(proj)
		d.drawables = append(d.drawables, disks[i])
	}
	d.step = func(n int) {
		spin := mgl32.HomogRotate3DZ(0.03 * float32(n))
		for i, disk := range disks {
			a := float32(i) * 2 * math.Pi / float32(len(disks))
			tilt := mgl32.HomogRotate3DZ(a).Mul4(mgl32.HomogRotate3DX(math.Pi / 3))
			disk.SetModel(spin.Mul4(tilt).Mul4(mgl32.Scale3D(0.8, 0.8, 0.8)))
		}
	}
	return d
}
