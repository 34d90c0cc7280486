// Package video streams rendered elviz frames to an encoder.
//
// A Sink has a fixed frame size; width and height must be even so the
// frames can be chroma-subsampled. Frames of any other size are ignored.
// Two encoders are provided: a raw YUV4MPEG2 stream (Y4M), readable by
// ffmpeg and most players, and a numbered PNG sequence.
package video

import (
	"errors"
	"fmt"
	"image"
	"sync"

	"github.com/gogpu/elviz"
)

// Sentinel errors.
var (
	// ErrInvalidSize is returned for a non-positive frame size.
	ErrInvalidSize = errors.New("video: invalid frame size")

	// ErrOddSize is returned when the width or height is odd.
	ErrOddSize = errors.New("video: width and height must be even")

	// ErrInvalidFrameRate is returned for a negative frame rate.
	ErrInvalidFrameRate = errors.New("video: invalid frame rate")

	// ErrClosed is returned when writing to a closed sink.
	ErrClosed = errors.New("video: sink closed")
)

// DefaultFrameRate is used when Config.FrameRate is zero.
const DefaultFrameRate = 30

// Config describes the video stream.
type Config struct {
	Width, Height int
	// FrameRate in frames per second.
	FrameRate int
	// BitRate in bits per second, for encoders that compress. Zero lets the
	// encoder choose.
	BitRate int
}

// Encoder consumes frames of the sink's size, top row first.
type Encoder interface {
	WriteFrame(img *image.NRGBA) error
	Close() error
}

// Sink accepts rendered images and feeds them to an encoder.
type Sink struct {
	mu     sync.Mutex
	cfg    Config
	enc    Encoder
	frames int
	closed bool
}

// NewSink creates a sink writing to enc.
func NewSink(cfg Config, enc Encoder) (*Sink, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if enc == nil {
		return nil, errors.New("video: nil encoder")
	}
	if cfg.FrameRate == 0 {
		cfg.FrameRate = DefaultFrameRate
	}
	elviz.Logger().Debug("video: sink created",
		"width", cfg.Width, "height", cfg.Height, "fps", cfg.FrameRate, "bitrate", cfg.BitRate)
	return &Sink{cfg: cfg, enc: enc}, nil
}

func (c Config) validate() error {
	if c.Width <= 0 || c.Height <= 0 {
		return fmt.Errorf("%w: %dx%d", ErrInvalidSize, c.Width, c.Height)
	}
	if c.Width%2 != 0 || c.Height%2 != 0 {
		return fmt.Errorf("%w: %dx%d", ErrOddSize, c.Width, c.Height)
	}
	if c.FrameRate < 0 {
		return fmt.Errorf("%w: %d", ErrInvalidFrameRate, c.FrameRate)
	}
	return nil
}

// Config returns the stream configuration with defaults applied.
func (s *Sink) Config() Config { return s.cfg }

// Frames returns the number of frames written.
func (s *Sink) Frames() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.frames
}

// WriteFrame encodes img. An image whose size differs from the sink's is
// dropped without error.
func (s *Sink) WriteFrame(img *elviz.Image) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	if img == nil || img.Width() != s.cfg.Width || img.Height() != s.cfg.Height {
		elviz.Logger().Debug("video: frame size mismatch, dropped", "frame", s.frames)
		return nil
	}
	if err := s.enc.WriteFrame(img.NRGBA()); err != nil {
		return fmt.Errorf("video: frame %d: %w", s.frames, err)
	}
	s.frames++
	return nil
}

// Close flushes and closes the encoder. Closing twice is a no-op.
func (s *Sink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.enc.Close()
}
