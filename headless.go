package canopy

import (
	"sync"
)

// HeadlessWindow is a Window with no display, used by tests and tools that
// run the full pipeline without a platform backend. Its pump pace is
// controlled by PumpHz.
type HeadlessWindow struct {
	// PumpHz paces the event loop. Zero means unthrottled.
	PumpHz float64

	mu   sync.Mutex
	size Vec2

	done      chan struct{}
	closeOnce sync.Once

	onUpdate  func()
	onDraw    func()
	onExited  func()
	onResized func(Vec2)
}

// NewHeadlessWindow creates a headless window with the given client size.
func NewHeadlessWindow(width, height float64) *HeadlessWindow {
	return &HeadlessWindow{
		PumpHz: 1000,
		size:   Vec2{width, height},
		done:   make(chan struct{}),
	}
}

// Run pumps the registered callbacks until Close is called.
func (w *HeadlessWindow) Run() error {
	clock := NewThrottledFrameClock(w.PumpHz, w.PumpHz)
	for {
		select {
		case <-w.done:
			w.mu.Lock()
			exited := w.onExited
			w.mu.Unlock()
			if exited != nil {
				exited()
			}
			return nil
		default:
		}

		w.mu.Lock()
		update, draw := w.onUpdate, w.onDraw
		w.mu.Unlock()
		if update != nil {
			update()
		}
		if draw != nil {
			draw()
		}
		clock.Throttle()
	}
}

// Close stops the event loop. Safe to call from any thread, more than once.
func (w *HeadlessWindow) Close() {
	w.closeOnce.Do(func() { close(w.done) })
}

// ClientSize returns the configured surface size. Safe for cross-thread reads.
func (w *HeadlessWindow) ClientSize() Vec2 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.size
}

// SetClientSize resizes the window and fires the resize callback.
func (w *HeadlessWindow) SetClientSize(width, height float64) {
	w.mu.Lock()
	w.size = Vec2{width, height}
	resized := w.onResized
	w.mu.Unlock()
	if resized != nil {
		resized(Vec2{width, height})
	}
}

// State always reports a normal window.
func (w *HeadlessWindow) State() WindowState { return WindowStateNormal }

// IsActive always reports focus; headless hosts never throttle to the
// inactive rate.
func (w *HeadlessWindow) IsActive() bool { return true }

// OnUpdate registers the per-pump frame callback.
func (w *HeadlessWindow) OnUpdate(fn func()) {
	w.mu.Lock()
	w.onUpdate = fn
	w.mu.Unlock()
}

// OnDraw registers the draw callback for single-threaded hosts.
func (w *HeadlessWindow) OnDraw(fn func()) {
	w.mu.Lock()
	w.onDraw = fn
	w.mu.Unlock()
}

// OnExited registers a callback invoked when the event loop ends.
func (w *HeadlessWindow) OnExited(fn func()) {
	w.mu.Lock()
	w.onExited = fn
	w.mu.Unlock()
}

// OnResized registers a callback invoked when the client size changes.
func (w *HeadlessWindow) OnResized(fn func(Vec2)) {
	w.mu.Lock()
	w.onResized = fn
	w.mu.Unlock()
}

// NullRenderer discards all draw submissions while tracking counts, so tests
// can assert on what the draw thread issued without a graphics backend.
type NullRenderer struct {
	mu         sync.Mutex
	frames     int
	quads      int
	frameQuads int
}

// NewNullRenderer creates an empty NullRenderer.
func NewNullRenderer() *NullRenderer {
	return &NullRenderer{}
}

// Frames returns how many frames have been completed.
func (r *NullRenderer) Frames() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.frames
}

// LastFrameQuads returns how many quads the most recently finished frame
// submitted.
func (r *NullRenderer) LastFrameQuads() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.frameQuads
}

// TotalQuads returns how many quads have been submitted overall.
func (r *NullRenderer) TotalQuads() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.quads
}

func (r *NullRenderer) BeginFrame(Vec2) {
	r.mu.Lock()
	r.frameQuads = 0
	r.mu.Unlock()
}

func (r *NullRenderer) FinishFrame() {
	r.mu.Lock()
	r.frames++
	r.mu.Unlock()
}

func (r *NullRenderer) SwapBuffers()             {}
func (r *NullRenderer) WaitUntilNextFrameReady() {}
func (r *NullRenderer) PushBlend(BlendMode)      {}
func (r *NullRenderer) PopBlend()                {}
func (r *NullRenderer) PushScissor(Rect)         {}
func (r *NullRenderer) PopScissor()              {}

func (r *NullRenderer) DrawQuad(Texture, [6]float32, Vec2, Color) {
	r.mu.Lock()
	r.quads++
	r.frameQuads++
	r.mu.Unlock()
}

func (r *NullRenderer) CreateTexture(width, height int, pixels []byte) (Texture, error) {
	return &nullTexture{width: width, height: height}, nil
}

type nullTexture struct {
	width, height int
	disposed      bool
}

func (t *nullTexture) Size() (int, int) { return t.width, t.height }
func (t *nullTexture) Dispose()         { t.disposed = true }
