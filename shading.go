package elviz

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// Material selects how the fragments of a batch are colored. An unlit
// material outputs the interpolated vertex color unchanged.
type Material struct {
	Lit bool

	// Eye and Light are world-space positions.
	Eye   mgl32.Vec3
	Light mgl32.Vec3

	Ambient   mgl32.Vec3
	Diffuse   mgl32.Vec3
	Specular  mgl32.Vec3
	Shininess float32
}

// Default Phong parameters for lit surfaces.
var (
	DefaultAmbient   = mgl32.Vec3{0.25, 0.25, 0.25}
	DefaultDiffuse   = mgl32.Vec3{0.5, 0.5, 0.5}
	DefaultSpecular  = mgl32.Vec3{0.5, 0.5, 0.5}
	DefaultShininess = float32(32)
)

// Shade returns the fragment color for the interpolated vertex color,
// world position and normal.
//
// The normal is flipped to point away from the eye so both faces of a
// surface are lit alike. Alpha is passed through.
func (m *Material) Shade(c mgl32.Vec4, world, normal mgl32.Vec3) mgl32.Vec4 {
	if !m.Lit {
		return c
	}
	n := normalize(normal)
	eyeDir := normalize(m.Eye.Sub(world))
	if n.Dot(eyeDir.Mul(-1)) < 0 {
		n = n.Mul(-1)
	}
	l := normalize(m.Light.Sub(world))

	diffuse := m.Diffuse.Mul(max(n.Dot(l.Mul(-1)), 0))

	r := reflect(l.Mul(-1), n)
	s := float32(math.Pow(float64(max(eyeDir.Dot(r), 0)), float64(m.Shininess)))
	specular := m.Specular.Mul(s)

	k := m.Ambient.Add(diffuse).Add(specular)
	return mgl32.Vec4{k[0] * c[0], k[1] * c[1], k[2] * c[2], c[3]}
}

// reflect mirrors the incident direction i about the plane with normal n.
func reflect(i, n mgl32.Vec3) mgl32.Vec3 {
	return i.Sub(n.Mul(2 * n.Dot(i)))
}

// normalize returns the unit vector of v, or zero for a degenerate vector.
func normalize(v mgl32.Vec3) mgl32.Vec3 {
	l := v.Len()
	if l == 0 || l != l {
		return mgl32.Vec3{}
	}
	return v.Mul(1 / l)
}
