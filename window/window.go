// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package window shows rendered elviz frames in a desktop window.
//
// A Window is an ebiten game: Run blocks on the ebiten event loop, calls the
// frame callback once per tick and draws the most recent frame with the
// configured present mode. Closing the window (or pressing q or Escape when
// quit keys are enabled) ends Run.
package window

import (
	"errors"
	"image"
	"image/color"
	"sync"

	"github.com/gogpu/elviz"
	"github.com/gogpu/elviz/present"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
)

// Config configures a Window.
type Config struct {
	Title         string
	Width, Height int
	Mode          present.Mode
	// Background fills the viewport around letterboxed frames.
	Background color.Color
	Resizable  bool
	// QuitKeys ends Run on q or Escape.
	QuitKeys bool
	// TPS is the tick rate; 0 keeps the ebiten default (60).
	TPS int

	// OnKey is called for every key pressed or released since the last
	// tick, before the quit keys are checked.
	OnKey func(key ebiten.Key, action Action)
	// OnMouseButton is called for left, right and middle button presses
	// and releases with the cursor position in window pixels.
	OnMouseButton func(button ebiten.MouseButton, action Action, x, y int)
	// OnMouseMove is called when the cursor moved since the last tick.
	OnMouseMove func(x, y int)
}

// Action tells a press from a release.
type Action uint8

// Input actions.
const (
	Press Action = iota
	Release
)

// String returns "press" or "release".
func (a Action) String() string {
	if a == Release {
		return "release"
	}
	return "press"
}

var mouseButtons = []ebiten.MouseButton{
	ebiten.MouseButtonLeft, ebiten.MouseButtonRight, ebiten.MouseButtonMiddle,
}

// input is the input observed during one tick.
type input struct {
	pressed, released      []ebiten.Key
	buttonsDown, buttonsUp []ebiten.MouseButton
	x, y                   int
}

// Window is an on-screen sink for rendered frames.
type Window struct {
	cfg Config

	mu    sync.Mutex
	mode  present.Mode
	frame *image.NRGBA
	dirty bool

	tex   *ebiten.Image
	tick  func(w *Window) error
	ticks int

	cursorX, cursorY int
	cursorSeen       bool
	keys             []ebiten.Key
}

// New creates a window. It is not shown until Run.
func New(cfg Config) *Window {
	if cfg.Width <= 0 {
		cfg.Width = 640
	}
	if cfg.Height <= 0 {
		cfg.Height = 480
	}
	if cfg.Background == nil {
		cfg.Background = color.Black
	}
	if cfg.Title == "" {
		cfg.Title = "elviz"
	}
	return &Window{cfg: cfg, mode: cfg.Mode}
}

// Show replaces the displayed frame. It may be called from any goroutine.
func (w *Window) Show(img *elviz.Image) {
	frame := img.NRGBA()
	w.mu.Lock()
	w.frame = frame
	w.dirty = true
	w.mu.Unlock()
}

// SetMode changes the present mode.
func (w *Window) SetMode(m present.Mode) {
	w.mu.Lock()
	w.mode = m
	w.mu.Unlock()
}

// Mode returns the present mode.
func (w *Window) Mode() present.Mode {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.mode
}

// Ticks returns the number of completed ticks.
func (w *Window) Ticks() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.ticks
}

// Run opens the window and blocks until it is closed. tick is called once
// per frame before drawing; typically it renders a Scene and calls Show.
// A non-nil error from tick ends Run with that error.
func (w *Window) Run(tick func(w *Window) error) error {
	w.tick = tick
	ebiten.SetWindowTitle(w.cfg.Title)
	ebiten.SetWindowSize(w.cfg.Width, w.cfg.Height)
	if w.cfg.Resizable {
		ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	}
	if w.cfg.TPS > 0 {
		ebiten.SetTPS(w.cfg.TPS)
	}
	ebiten.SetWindowClosingHandled(true)
	err := ebiten.RunGame(w)
	if errors.Is(err, ebiten.Termination) {
		return nil
	}
	return err
}

// Update implements ebiten.Game.
func (w *Window) Update() error {
	if ebiten.IsWindowBeingClosed() {
		return ebiten.Termination
	}
	if w.dispatch(w.pollInput()) {
		return ebiten.Termination
	}
	if w.tick != nil {
		if err := w.tick(w); err != nil {
			return err
		}
	}
	w.mu.Lock()
	w.ticks++
	w.mu.Unlock()
	return nil
}

func (w *Window) pollInput() input {
	var in input
	w.keys = inpututil.AppendJustPressedKeys(w.keys[:0])
	in.pressed = append(in.pressed, w.keys...)
	w.keys = inpututil.AppendJustReleasedKeys(w.keys[:0])
	in.released = append(in.released, w.keys...)
	for _, b := range mouseButtons {
		if inpututil.IsMouseButtonJustPressed(b) {
			in.buttonsDown = append(in.buttonsDown, b)
		}
		if inpututil.IsMouseButtonJustReleased(b) {
			in.buttonsUp = append(in.buttonsUp, b)
		}
	}
	in.x, in.y = ebiten.CursorPosition()
	return in
}

// dispatch delivers one tick of input to the callbacks and reports whether
// a quit key was pressed.
func (w *Window) dispatch(in input) (quit bool) {
	for _, k := range in.pressed {
		if w.cfg.OnKey != nil {
			w.cfg.OnKey(k, Press)
		}
		if w.cfg.QuitKeys && (k == ebiten.KeyQ || k == ebiten.KeyEscape) {
			quit = true
		}
	}
	if w.cfg.OnKey != nil {
		for _, k := range in.released {
			w.cfg.OnKey(k, Release)
		}
	}
	if w.cfg.OnMouseButton != nil {
		for _, b := range in.buttonsDown {
			w.cfg.OnMouseButton(b, Press, in.x, in.y)
		}
		for _, b := range in.buttonsUp {
			w.cfg.OnMouseButton(b, Release, in.x, in.y)
		}
	}
	if moved := !w.cursorSeen || in.x != w.cursorX || in.y != w.cursorY; moved {
		w.cursorX, w.cursorY, w.cursorSeen = in.x, in.y, true
		if w.cfg.OnMouseMove != nil {
			w.cfg.OnMouseMove(in.x, in.y)
		}
	}
	return quit
}

// Draw implements ebiten.Game.
func (w *Window) Draw(screen *ebiten.Image) {
	screen.Fill(w.cfg.Background)

	w.mu.Lock()
	frame, dirty, mode := w.frame, w.dirty, w.mode
	w.dirty = false
	w.mu.Unlock()
	if frame == nil {
		return
	}

	fb := frame.Bounds()
	if w.tex == nil || w.tex.Bounds().Size() != fb.Size() {
		if w.tex != nil {
			w.tex.Deallocate()
		}
		w.tex = ebiten.NewImage(fb.Dx(), fb.Dy())
		dirty = true
	}
	if dirty {
		// ebiten expects premultiplied RGBA.
		w.tex.WritePixels(premultiply(frame))
	}

	sb := screen.Bounds()
	op := &ebiten.DrawImageOptions{}
	op.GeoM = frameGeoM(mode, fb.Dx(), fb.Dy(), sb.Dx(), sb.Dy())
	op.Filter = ebiten.FilterLinear
	screen.DrawImage(w.tex, op)
}

// Layout implements ebiten.Game. The screen matches the window size so the
// present mode decides the scaling.
func (w *Window) Layout(outsideWidth, outsideHeight int) (int, int) {
	return outsideWidth, outsideHeight
}

// frameGeoM maps frame pixels to screen pixels for the given mode.
func frameGeoM(mode present.Mode, fw, fh, sw, sh int) ebiten.GeoM {
	var g ebiten.GeoM
	r := present.Layout(mode, fw, fh, sw, sh)
	if fw <= 0 || fh <= 0 {
		return g
	}
	g.Scale((r.URx-r.LLx)/float64(fw), (r.URy-r.LLy)/float64(fh))
	g.Translate(r.LLx, r.LLy)
	return g
}

func premultiply(img *image.NRGBA) []byte {
	pix := make([]byte, len(img.Pix))
	for i := 0; i+3 < len(pix); i += 4 {
		a := uint32(img.Pix[i+3])
		pix[i] = uint8(uint32(img.Pix[i]) * a / 255)
		pix[i+1] = uint8(uint32(img.Pix[i+1]) * a / 255)
		pix[i+2] = uint8(uint32(img.Pix[i+2]) * a / 255)
		pix[i+3] = uint8(a)
	}
	return pix
}
