package elviz

import (
	"image/color"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
)

func TestRGBA_Color(t *testing.T) {
	tests := []struct {
		name                       string
		c                          RGBA
		wantR, wantG, wantB, wantA uint16
	}{
		{"opaque black", Black, 0, 0, 0, 65535},
		{"opaque white", White, 65535, 65535, 65535, 65535},
		{"opaque red", Red, 65535, 0, 0, 65535},
		{"transparent", Transparent, 0, 0, 0, 0},
		{"50% alpha red stays straight", RGBA{1, 0, 0, 0.5}, 65535, 0, 0, 32768},
		{"out of range is clamped", RGBA{2, -1, 0.5, 1}, 65535, 0, 32768, 65535},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.c.Color().(color.NRGBA64)
			if got.R != tt.wantR || got.G != tt.wantG || got.B != tt.wantB || got.A != tt.wantA {
				t.Errorf("Color() = %v, want (%d, %d, %d, %d)",
					got, tt.wantR, tt.wantG, tt.wantB, tt.wantA)
			}
		})
	}
}

func TestRGBA_Roundtrip(t *testing.T) {
	// RGBA -> color.Color -> FromColor -> RGBA
	original := RGBA{0.8, 0.3, 0.5, 0.9}
	got := FromColor(original.Color())
	const tolerance = 1e-4
	if absDiff(original.R, got.R) > tolerance ||
		absDiff(original.G, got.G) > tolerance ||
		absDiff(original.B, got.B) > tolerance ||
		absDiff(original.A, got.A) > tolerance {
		t.Errorf("roundtrip: %v -> %v", original, got)
	}
}

func TestRGBA_Vec4(t *testing.T) {
	c := RGBA4(0.1, 0.2, 0.3, 0.4)
	if v := c.Vec4(); v != (mgl32.Vec4{0.1, 0.2, 0.3, 0.4}) {
		t.Errorf("Vec4() = %v", v)
	}
	if back := RGBAFromVec4(c.Vec4()); back != c {
		t.Errorf("RGBAFromVec4(Vec4()) = %v, want %v", back, c)
	}
	if w := Red.WithAlpha(0.25); w != (RGBA{1, 0, 0, 0.25}) {
		t.Errorf("WithAlpha(0.25) = %v", w)
	}
}

func TestUnit8Truncates(t *testing.T) {
	tests := []struct {
		in   float32
		want uint8
	}{
		{0, 0}, {1, 255}, {0.5, 127}, {0.999, 254}, {-0.5, 0}, {7, 255},
	}
	for _, tt := range tests {
		if got := unit8(tt.in); got != tt.want {
			t.Errorf("unit8(%v) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func absDiff(a, b float32) float32 {
	if a > b {
		return a - b
	}
	return b - a
}
