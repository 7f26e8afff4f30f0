package canopy

// Renderer is the abstract draw-submission capability the scene graph renders
// against. The core never assumes a specific graphics API; concrete
// implementations live in host adapter packages (ebitenhost) or tests.
//
// A Renderer is owned by the draw thread. BeginFrame/FinishFrame bracket one
// frame; draw-state push/pop calls must balance within a frame.
type Renderer interface {
	// BeginFrame prepares a frame targeting a framebuffer of the given size.
	BeginFrame(size Vec2)
	// FinishFrame completes the current frame's draw submission.
	FinishFrame()
	// SwapBuffers presents the finished frame.
	SwapBuffers()
	// WaitUntilNextFrameReady blocks until the backend can accept another
	// frame (vsync or equivalent pacing).
	WaitUntilNextFrameReady()

	// PushBlend/PopBlend bracket draws with a blend state.
	PushBlend(mode BlendMode)
	PopBlend()
	// PushScissor/PopScissor bracket draws with a framebuffer-space clip
	// rectangle. Nested scissors intersect.
	PushScissor(area Rect)
	PopScissor()

	// DrawQuad submits one quad of the given size under a world transform,
	// tinted with a premultipliable color. A nil texture draws untextured
	// (solid color).
	DrawQuad(tex Texture, transform [6]float32, size Vec2, color Color)

	// CreateTexture uploads RGBA pixels (4 bytes per pixel, row major) and
	// returns a handle. May only be called on the draw thread.
	CreateTexture(width, height int, pixels []byte) (Texture, error)
}

// Texture is an opaque renderer resource handle referenced by sprites.
// Textures are immutable once created and safe to reference from draw nodes.
type Texture interface {
	Size() (width, height int)
	Dispose()
}

// WindowState describes the host window's current mode.
type WindowState uint8

const (
	WindowStateNormal WindowState = iota
	WindowStateMinimized
	WindowStateMaximized
	WindowStateFullscreen
)

// Window is the abstract host window capability: it pumps the frame loop and
// reports size and focus changes. Platform integration (actual OS windows)
// lives outside the core; tests use HeadlessWindow.
type Window interface {
	// Run enters the window's event loop, invoking the registered OnUpdate
	// callback once per pump iteration. Returns when the window closes.
	Run() error
	// Close requests the event loop to exit.
	Close()

	// ClientSize returns the drawable surface size in pixels.
	ClientSize() Vec2
	// State returns the window's current mode.
	State() WindowState
	// IsActive reports whether the window has input focus. Hosts use this to
	// switch frame clocks between active and inactive rates.
	IsActive() bool

	// OnUpdate registers the per-pump frame callback.
	OnUpdate(fn func())
	// OnDraw registers the draw callback, used only by windows that own the
	// draw timing (single-threaded hosts).
	OnDraw(fn func())
	// OnExited registers a callback invoked when the event loop ends.
	OnExited(fn func())
	// OnResized registers a callback invoked when the client size changes.
	OnResized(fn func(size Vec2))
}
