package elviz

import (
	"errors"
	"fmt"
	"slices"
	"sync"
)

// Scene composites a set of drawables into one image with depth peeling,
// which blends overlapping translucent primitives correctly regardless of
// the order they were added in.
//
// Each Render runs P passes. Pass k draws the nearest surface lying behind
// the surface kept by pass k-1, so the passes peel the scene into P layers
// from front to back. The layers are then blended back to front over the
// background.
//
// A Scene is not safe for concurrent use. Scenes sharing a device must be
// rendered one at a time.
type Scene struct {
	mu sync.Mutex

	width, height int
	samples       int
	passes        int
	background    RGBA

	device    Device
	target    Target
	drawables []Drawable
	img       *Image
	closed    bool
}

// NewScene creates a scene of the given size in pixels.
//
// The off-screen targets are allocated immediately; allocation failure is
// returned as an error wrapping ErrTargetAllocation.
func NewScene(width, height int, background RGBA, opts ...SceneOption) (*Scene, error) {
	o := defaultSceneOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if width <= 0 || height <= 0 {
		return nil, &SizeError{Width: width, Height: height, Reason: "width and height must be positive"}
	}
	if o.passes < 1 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidPasses, o.passes)
	}
	samples := o.samples
	if samples == 0 {
		samples = 1
	}
	switch samples {
	case 1, 2, 4, 8:
	default:
		return nil, fmt.Errorf("%w: %d", ErrInvalidSamples, o.samples)
	}

	dev := o.device
	if dev == nil {
		var err error
		if dev, err = DefaultDevice(); err != nil {
			return nil, err
		}
	}

	target, err := dev.NewTarget(TargetConfig{Width: width, Height: height, Samples: samples, Passes: o.passes})
	if err != nil {
		if !errors.Is(err, ErrTargetAllocation) {
			err = fmt.Errorf("%w: %w", ErrTargetAllocation, err)
		}
		return nil, err
	}

	img := NewImage(width, height)
	img.Fill(background)

	Logger().Debug("elviz: scene created", "device", dev.Name(),
		"width", width, "height", height, "samples", samples, "passes", o.passes)

	return &Scene{
		width:      width,
		height:     height,
		samples:    samples,
		passes:     o.passes,
		background: background,
		device:     dev,
		target:     target,
		img:        img,
	}, nil
}

// Width returns the scene width in pixels.
func (s *Scene) Width() int { return s.width }

// Height returns the scene height in pixels.
func (s *Scene) Height() int { return s.height }

// Samples returns the multisample count (1 without multisampling).
func (s *Scene) Samples() int { return s.samples }

// Passes returns the number of peeling passes.
func (s *Scene) Passes() int { return s.passes }

// Device returns the device the scene renders on.
func (s *Scene) Device() Device { return s.device }

// Background returns the background color.
func (s *Scene) Background() RGBA {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.background
}

// SetBackground sets the background color used by the next Render.
func (s *Scene) SetBackground(c RGBA) {
	s.mu.Lock()
	s.background = c
	s.mu.Unlock()
}

// Add registers a drawable. Adding a drawable twice, a nil or closed
// drawable, or adding to a closed scene has no effect.
func (s *Scene) Add(d Drawable) {
	if d == nil || d.base().isClosed() {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || slices.Contains(s.drawables, d) {
		return
	}
	d.base().acquire()
	s.drawables = append(s.drawables, d)
}

// Remove unregisters a drawable. Unknown drawables are ignored.
func (s *Scene) Remove(d Drawable) {
	s.mu.Lock()
	i := slices.Index(s.drawables, d)
	if i < 0 {
		s.mu.Unlock()
		return
	}
	s.drawables = slices.Delete(s.drawables, i, i+1)
	s.mu.Unlock()
	d.base().release()
}

// Len returns the number of registered drawables.
func (s *Scene) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.drawables)
}

// Render draws all drawables and returns the composited image.
//
// Render blocks until the device has finished. It never fails: device
// errors are logged and the previous image content is returned. The image
// is owned by the scene and overwritten by the next Render.
func (s *Scene) Render() *Image {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return s.img
	}
	frame := &Frame{Background: s.background}
	for _, d := range s.drawables {
		if b := d.base().batch(s.width, s.height); b != nil {
			frame.Batches = append(frame.Batches, b)
		}
	}
	if err := s.target.Render(frame, s.img); err != nil {
		Logger().Warn("elviz: render failed", "device", s.device.Name(), "err", err)
	}
	return s.img
}

// Close drops all drawables and destroys the off-screen targets. The last
// rendered image stays readable. Close is idempotent.
func (s *Scene) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	drawables := s.drawables
	s.drawables = nil
	target := s.target
	s.target = nil
	s.mu.Unlock()

	for _, d := range drawables {
		d.base().release()
	}
	target.Destroy()
	return nil
}
