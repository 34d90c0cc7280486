package video

import (
	"bytes"
	"errors"
	"image"
	"image/png"
	"os"
	"testing"

	"github.com/gogpu/elviz"
)

type recorder struct {
	frames []*image.NRGBA
	closed int
}

func (r *recorder) WriteFrame(img *image.NRGBA) error {
	r.frames = append(r.frames, img)
	return nil
}

func (r *recorder) Close() error {
	r.closed++
	return nil
}

func TestNewSinkValidation(t *testing.T) {
	tests := []struct {
		cfg  Config
		want error
	}{
		{Config{Width: 0, Height: 2}, ErrInvalidSize},
		{Config{Width: 3, Height: 2}, ErrOddSize},
		{Config{Width: 4, Height: 5}, ErrOddSize},
		{Config{Width: 4, Height: 4, FrameRate: -1}, ErrInvalidFrameRate},
	}
	for _, tt := range tests {
		if _, err := NewSink(tt.cfg, &recorder{}); !errors.Is(err, tt.want) {
			t.Errorf("NewSink(%+v) = %v, want %v", tt.cfg, err, tt.want)
		}
	}
	s, err := NewSink(Config{Width: 4, Height: 2, BitRate: 4000000}, &recorder{})
	if err != nil {
		t.Fatalf("NewSink() = %v", err)
	}
	if c := s.Config(); c.FrameRate != DefaultFrameRate || c.BitRate != 4000000 {
		t.Errorf("Config() = %+v, want default frame rate and bit rate kept", c)
	}
}

func TestSinkDropsMismatchedFrames(t *testing.T) {
	rec := &recorder{}
	s, err := NewSink(Config{Width: 4, Height: 2}, rec)
	if err != nil {
		t.Fatal(err)
	}
	if err := s.WriteFrame(elviz.NewImage(2, 4)); err != nil {
		t.Errorf("WriteFrame(mismatch) = %v, want nil", err)
	}
	if err := s.WriteFrame(elviz.NewImage(4, 2)); err != nil {
		t.Errorf("WriteFrame() = %v", err)
	}
	if s.Frames() != 1 || len(rec.frames) != 1 {
		t.Errorf("Frames() = %d, encoder got %d, want 1", s.Frames(), len(rec.frames))
	}

	if err := s.Close(); err != nil || s.Close() != nil || rec.closed != 1 {
		t.Errorf("Close: err=%v, encoder closed %d times", err, rec.closed)
	}
	if err := s.WriteFrame(elviz.NewImage(4, 2)); !errors.Is(err, ErrClosed) {
		t.Errorf("WriteFrame after Close = %v, want ErrClosed", err)
	}
}

func TestY4M(t *testing.T) {
	var buf bytes.Buffer
	cfg := Config{Width: 2, Height: 2, FrameRate: 25}
	s, err := NewSink(cfg, NewY4M(&buf, cfg))
	if err != nil {
		t.Fatal(err)
	}
	white := elviz.NewImage(2, 2)
	white.Fill(elviz.White)
	black := elviz.NewImage(2, 2)
	black.Fill(elviz.Black)
	for _, img := range []*elviz.Image{white, black} {
		if err := s.WriteFrame(img); err != nil {
			t.Fatal(err)
		}
	}
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}

	want := "YUV4MPEG2 W2 H2 F25:1 Ip A1:1 C420jpeg\n" +
		"FRAME\n" + "\xff\xff\xff\xff" + "\x80" + "\x80" +
		"FRAME\n" + "\x00\x00\x00\x00" + "\x80" + "\x80"
	if got := buf.String(); got != want {
		t.Errorf("stream = %q, want %q", got, want)
	}
}

func TestPNGSequence(t *testing.T) {
	dir := t.TempDir()
	enc, err := NewPNGSequence(dir, "")
	if err != nil {
		t.Fatal(err)
	}
	s, err := NewSink(Config{Width: 4, Height: 2}, enc)
	if err != nil {
		t.Fatal(err)
	}
	img := elviz.NewImage(4, 2)
	img.Fill(elviz.Red)
	for i := 0; i < 2; i++ {
		if err := s.WriteFrame(img); err != nil {
			t.Fatal(err)
		}
	}

	f, err := os.Open(enc.Path(1))
	if err != nil {
		t.Fatalf("second frame not written: %v", err)
	}
	defer f.Close()
	decoded, err := png.Decode(f)
	if err != nil {
		t.Fatal(err)
	}
	if b := decoded.Bounds(); b.Dx() != 4 || b.Dy() != 2 {
		t.Errorf("frame size = %v, want 4x2", b)
	}
	if r, g, b, a := decoded.At(1, 1).RGBA(); r != 0xffff || g != 0 || b != 0 || a != 0xffff {
		t.Errorf("pixel = %d %d %d %d, want opaque red", r, g, b, a)
	}
}
