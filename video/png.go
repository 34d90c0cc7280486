package video

import (
	"fmt"
	"image"
	"os"
	"path/filepath"

	"github.com/gogpu/gg"
)

// PNGSequence writes every frame to its own numbered PNG file.
type PNGSequence struct {
	dir     string
	pattern string
	next    int
}

// NewPNGSequence creates the directory if needed. pattern is a fmt pattern
// taking the frame number, e.g. "frame_%05d.png"; empty selects that
// default.
func NewPNGSequence(dir, pattern string) (*PNGSequence, error) {
	if pattern == "" {
		pattern = "frame_%05d.png"
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("png sequence: %w", err)
	}
	return &PNGSequence{dir: dir, pattern: pattern}, nil
}

// Path returns the file name of frame n.
func (p *PNGSequence) Path(n int) string {
	return filepath.Join(p.dir, fmt.Sprintf(p.pattern, n))
}

// WriteFrame implements Encoder.
func (p *PNGSequence) WriteFrame(img *image.NRGBA) error {
	if err := gg.FromImage(img).SavePNG(p.Path(p.next)); err != nil {
		return fmt.Errorf("png sequence: %w", err)
	}
	p.next++
	return nil
}

// Close implements Encoder.
func (p *PNGSequence) Close() error { return nil }
