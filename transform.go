package elviz

import "github.com/go-gl/mathgl/mgl32"

// Transform is the model, view and projection triple of a drawable.
//
// With AspectCorrection set, the projection's x scale is divided by the
// target's width/height ratio at draw time, so a unit circle stays round
// in a non-square scene.
type Transform struct {
	Model            mgl32.Mat4
	View             mgl32.Mat4
	Projection       mgl32.Mat4
	AspectCorrection bool
}

// DefaultTransform returns identity matrices with aspect correction on.
func DefaultTransform() Transform {
	return Transform{
		Model:            mgl32.Ident4(),
		View:             mgl32.Ident4(),
		Projection:       mgl32.Ident4(),
		AspectCorrection: true,
	}
}

// ProjectionFor returns the projection used for a width x height target.
func (t Transform) ProjectionFor(width, height int) mgl32.Mat4 {
	p := t.Projection
	if t.AspectCorrection && width > 0 && height > 0 {
		p[0] /= float32(width) / float32(height)
	}
	return p
}

// MVP returns projection * view * model for a width x height target.
func (t Transform) MVP(width, height int) mgl32.Mat4 {
	return t.ProjectionFor(width, height).Mul4(t.View).Mul4(t.Model)
}

// Eye returns the world-space camera position.
func (t Transform) Eye() mgl32.Vec3 {
	return t.View.Inv().Col(3).Vec3()
}

// NormalMatrix returns the inverse transpose of the model's upper 3x3.
func (t Transform) NormalMatrix() mgl32.Mat3 {
	return t.Model.Mat3().Inv().Transpose()
}
