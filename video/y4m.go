package video

import (
	"bufio"
	"fmt"
	"image"
	"image/color"
	"io"
)

// Y4M writes a YUV4MPEG2 stream with full-range 4:2:0 chroma (C420jpeg).
// Translucent pixels are composited over black.
type Y4M struct {
	w         *bufio.Writer
	closer    io.Closer
	cfg       Config
	header    bool
	y, cb, cr []byte

	sumCb, sumCr []int
}

// NewY4M creates a Y4M encoder writing to w. If w is an io.Closer it is
// closed by Close.
func NewY4M(w io.Writer, cfg Config) *Y4M {
	if cfg.FrameRate == 0 {
		cfg.FrameRate = DefaultFrameRate
	}
	e := &Y4M{w: bufio.NewWriter(w), cfg: cfg}
	if c, ok := w.(io.Closer); ok {
		e.closer = c
	}
	return e
}

// WriteFrame implements Encoder.
func (e *Y4M) WriteFrame(img *image.NRGBA) error {
	b := img.Bounds()
	if b.Dx() != e.cfg.Width || b.Dy() != e.cfg.Height {
		return fmt.Errorf("y4m: frame is %dx%d, stream is %dx%d", b.Dx(), b.Dy(), e.cfg.Width, e.cfg.Height)
	}
	if !e.header {
		if _, err := fmt.Fprintf(e.w, "YUV4MPEG2 W%d H%d F%d:1 Ip A1:1 C420jpeg\n",
			e.cfg.Width, e.cfg.Height, e.cfg.FrameRate); err != nil {
			return err
		}
		e.header = true
	}
	e.convert(img)
	if _, err := io.WriteString(e.w, "FRAME\n"); err != nil {
		return err
	}
	for _, plane := range [][]byte{e.y, e.cb, e.cr} {
		if _, err := e.w.Write(plane); err != nil {
			return err
		}
	}
	return nil
}

// convert fills the Y plane per pixel and the chroma planes with the mean
// of each 2x2 block.
func (e *Y4M) convert(img *image.NRGBA) {
	w, h := e.cfg.Width, e.cfg.Height
	cw := w / 2
	if e.y == nil {
		e.y = make([]byte, w*h)
		e.cb = make([]byte, cw*(h/2))
		e.cr = make([]byte, cw*(h/2))
		e.sumCb = make([]int, cw*(h/2))
		e.sumCr = make([]int, cw*(h/2))
	}
	clear(e.sumCb)
	clear(e.sumCr)
	for y := 0; y < h; y++ {
		row := img.Pix[y*img.Stride:]
		for x := 0; x < w; x++ {
			p := row[4*x : 4*x+4 : 4*x+4]
			a := uint32(p[3])
			yy, cb, cr := color.RGBToYCbCr(
				uint8(uint32(p[0])*a/255),
				uint8(uint32(p[1])*a/255),
				uint8(uint32(p[2])*a/255),
			)
			e.y[y*w+x] = yy
			i := (y/2)*cw + x/2
			e.sumCb[i] += int(cb)
			e.sumCr[i] += int(cr)
		}
	}
	for i := range e.sumCb {
		e.cb[i] = uint8((e.sumCb[i] + 2) / 4)
		e.cr[i] = uint8((e.sumCr[i] + 2) / 4)
	}
}

// Close implements Encoder.
func (e *Y4M) Close() error {
	err := e.w.Flush()
	if e.closer != nil {
		if cerr := e.closer.Close(); err == nil {
			err = cerr
		}
	}
	return err
}
