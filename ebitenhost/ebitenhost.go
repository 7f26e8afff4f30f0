// Package ebitenhost adapts canopy's Window and Renderer contracts to
// [Ebitengine], for desktop and web targets where ebiten owns the frame loop.
//
// Because ebiten drives Update and Draw itself, hosts built on this package
// run in canopy.SingleThreaded mode: every canopy loop is pumped from
// ebiten's callbacks. The easiest entry point is [Run]:
//
//	err := ebitenhost.Run(game, ebitenhost.Config{
//		Title: "My Game", Width: 1280, Height: 720,
//	})
//
// [Ebitengine]: https://ebitengine.org
package ebitenhost

import (
	"sync/atomic"

	"github.com/hajimehoshi/ebiten/v2"

	"github.com/phanxgames/canopy"
)

// Config describes the ebiten window to create.
type Config struct {
	Title  string
	Width  int // default 1280
	Height int // default 720

	// TPS sets ebiten's ticks per second (the update pump rate). Zero keeps
	// ebiten's default of 60.
	TPS int
}

// Run creates an ebiten-backed window and renderer, wraps them in a
// single-threaded GameHost, and blocks until the game exits.
func Run(game canopy.Game, cfg Config) error {
	window, renderer := New(cfg)
	host := canopy.NewGameHost(window, renderer, canopy.HostConfig{Mode: canopy.SingleThreaded})
	return host.Run(game)
}

// New creates the paired Window and Renderer. Both must be used with the
// same host; the renderer draws onto whichever screen image ebiten hands the
// window each frame.
func New(cfg Config) (*Window, *Renderer) {
	if cfg.Width == 0 {
		cfg.Width = 1280
	}
	if cfg.Height == 0 {
		cfg.Height = 720
	}
	r := newRenderer()
	w := &Window{cfg: cfg, renderer: r, width: cfg.Width, height: cfg.Height}
	return w, r
}

// Window implements canopy.Window on top of ebiten's game loop.
type Window struct {
	cfg      Config
	renderer *Renderer

	width, height int
	closed        atomic.Bool

	onUpdate  func()
	onDraw    func()
	onExited  func()
	onResized func(canopy.Vec2)
}

// Run configures the ebiten window and enters ebiten's event loop.
func (w *Window) Run() error {
	ebiten.SetWindowTitle(w.cfg.Title)
	ebiten.SetWindowSize(w.cfg.Width, w.cfg.Height)
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	if w.cfg.TPS > 0 {
		ebiten.SetTPS(w.cfg.TPS)
	}
	err := ebiten.RunGame(&pump{window: w})
	if w.onExited != nil {
		w.onExited()
	}
	return err
}

// Close requests the event loop to exit after the current tick. Safe to
// call from any thread.
func (w *Window) Close() {
	w.closed.Store(true)
}

// ClientSize returns the current layout size in pixels.
func (w *Window) ClientSize() canopy.Vec2 {
	return canopy.Vec2{X: float64(w.width), Y: float64(w.height)}
}

// State reports the ebiten window's current mode.
func (w *Window) State() canopy.WindowState {
	switch {
	case ebiten.IsWindowMinimized():
		return canopy.WindowStateMinimized
	case ebiten.IsFullscreen():
		return canopy.WindowStateFullscreen
	case ebiten.IsWindowMaximized():
		return canopy.WindowStateMaximized
	}
	return canopy.WindowStateNormal
}

// IsActive reports whether the window has input focus.
func (w *Window) IsActive() bool {
	return ebiten.IsFocused()
}

func (w *Window) OnUpdate(fn func())             { w.onUpdate = fn }
func (w *Window) OnDraw(fn func())               { w.onDraw = fn }
func (w *Window) OnExited(fn func())             { w.onExited = fn }
func (w *Window) OnResized(fn func(canopy.Vec2)) { w.onResized = fn }

// pump implements ebiten.Game, forwarding ticks into the canopy host.
type pump struct {
	window *Window
}

func (p *pump) Update() error {
	if p.window.closed.Load() {
		return ebiten.Termination
	}
	if p.window.onUpdate != nil {
		p.window.onUpdate()
	}
	return nil
}

func (p *pump) Draw(screen *ebiten.Image) {
	p.window.renderer.screen = screen
	if p.window.onDraw != nil {
		p.window.onDraw()
	}
}

func (p *pump) Layout(outsideWidth, outsideHeight int) (int, int) {
	if outsideWidth != p.window.width || outsideHeight != p.window.height {
		p.window.width = outsideWidth
		p.window.height = outsideHeight
		if p.window.onResized != nil {
			p.window.onResized(canopy.Vec2{X: float64(outsideWidth), Y: float64(outsideHeight)})
		}
	}
	return outsideWidth, outsideHeight
}
