package canopy

import (
	"errors"
	"fmt"
	"os"
	"sync/atomic"
	"time"
)

// HostState is the GameHost execution state. Transitions are forward-only:
// Idle -> Running -> Stopping -> Stopped.
type HostState int32

const (
	HostIdle HostState = iota
	HostRunning
	HostStopping
	HostStopped
)

func (s HostState) String() string {
	switch s {
	case HostIdle:
		return "idle"
	case HostRunning:
		return "running"
	case HostStopping:
		return "stopping"
	case HostStopped:
		return "stopped"
	}
	return fmt.Sprintf("HostState(%d)", int32(s))
}

// ExecutionMode selects how the host distributes its loops over goroutines.
type ExecutionMode uint8

const (
	// MultiThreaded runs update, draw, and audio on their own goroutines,
	// with the calling goroutine serving as the input thread.
	MultiThreaded ExecutionMode = iota
	// SingleThreaded drives every loop from the window's pump callbacks.
	// Used with platforms that own the frame loop themselves (ebitenhost).
	SingleThreaded
)

// Game is the application layer hosted by a GameHost. Load runs before the
// host enters Running; returning an error aborts startup.
type Game interface {
	Load(host *GameHost) error
}

// FrameSink receives a notification after each completed update frame.
// Used by the ecs bridge; may be nil.
type FrameSink interface {
	EmitFrame(frame FrameInfo)
}

// HostConfig carries host tuning. Zero values select the defaults.
type HostConfig struct {
	Mode ExecutionMode

	UpdateHz float64 // default 120
	DrawHz   float64 // default 60
	InputHz  float64 // default 1000
	AudioHz  float64 // default 1000

	// InactiveHz caps every thread while the window lacks focus. Default 30.
	InactiveHz float64

	// ReadTimeout bounds how long the draw thread waits for a published
	// tree before skipping a frame. Default 100ms.
	ReadTimeout time.Duration

	// StopTimeout bounds the wait for each thread during teardown before
	// the thread is treated as stuck. Default 30s.
	StopTimeout time.Duration

	// OnUnhandledPanic gives the application one chance to suppress a panic
	// escaping a game thread. Return true to suppress and keep running;
	// otherwise the host stops all threads and rethrows on the input thread.
	OnUnhandledPanic func(*ThreadPanic) bool
}

func (c *HostConfig) applyDefaults() {
	if c.UpdateHz == 0 {
		c.UpdateHz = 120
	}
	if c.DrawHz == 0 {
		c.DrawHz = 60
	}
	if c.InputHz == 0 {
		c.InputHz = 1000
	}
	if c.AudioHz == 0 {
		c.AudioHz = 1000
	}
	if c.InactiveHz == 0 {
		c.InactiveHz = 30
	}
	if c.ReadTimeout == 0 {
		c.ReadTimeout = 100 * time.Millisecond
	}
	if c.StopTimeout == 0 {
		c.StopTimeout = 30 * time.Second
	}
}

// GameHost owns the thread lifecycles, the frame loop, and the wiring between
// window, renderer, and the scene graph. A host instance runs at most once.
type GameHost struct {
	window   Window
	renderer Renderer
	cfg      HostConfig

	state atomic.Int32
	root  *Drawable

	inputThread  *GameThread
	updateThread *GameThread
	drawThread   *GameThread
	audioThread  *GameThread

	// drawBuffer hands fully built draw-node trees from the update thread to
	// the draw thread.
	drawBuffer *TripleBuffer[*DrawNode]

	frameSink FrameSink

	// fatal holds the first unsuppressed thread panic; rethrown on the input
	// thread after teardown.
	fatal atomic.Pointer[ThreadPanic]
}

// NewGameHost creates a host around the given window and renderer.
func NewGameHost(window Window, renderer Renderer, cfg HostConfig) *GameHost {
	cfg.applyDefaults()
	root := NewContainer("root")
	root.load()
	h := &GameHost{
		window:     window,
		renderer:   renderer,
		cfg:        cfg,
		root:       root,
		drawBuffer: NewTripleBuffer[*DrawNode](),
	}
	h.inputThread = NewGameThread("input", cfg.InputHz, cfg.InactiveHz)
	h.updateThread = NewGameThread("update", cfg.UpdateHz, cfg.InactiveHz)
	h.drawThread = NewGameThread("draw", cfg.DrawHz, cfg.InactiveHz)
	h.audioThread = NewGameThread("audio", cfg.AudioHz, cfg.AudioHz)
	return h
}

// Root returns the scene graph's root container. Mutate it only from the
// update thread, or through Schedule.
func (h *GameHost) Root() *Drawable {
	return h.root
}

// State returns the host's execution state.
func (h *GameHost) State() HostState {
	return HostState(h.state.Load())
}

// Schedule enqueues fn to run on the update thread's next frame. This is the
// sanctioned way to mutate the drawable tree from any other thread.
func (h *GameHost) Schedule(fn func()) {
	h.updateThread.Scheduler.Add(fn)
}

// ScheduleDraw enqueues fn to run on the draw thread's next frame, for work
// that must touch renderer resources.
func (h *GameHost) ScheduleDraw(fn func()) {
	h.drawThread.Scheduler.Add(fn)
}

// ScheduleAudio enqueues fn to run on the audio thread's next tick. The
// audio engine itself is external; the host only provides its thread.
func (h *GameHost) ScheduleAudio(fn func()) {
	h.audioThread.Scheduler.Add(fn)
}

// SetFrameSink registers a sink notified after every update frame.
// Must be called before Run.
func (h *GameHost) SetFrameSink(sink FrameSink) {
	h.frameSink = sink
}

// Renderer returns the renderer the host draws with.
func (h *GameHost) Renderer() Renderer {
	return h.renderer
}

// Window returns the host window.
func (h *GameHost) Window() Window {
	return h.window
}

// Run loads the game, enters Running, and blocks on the window's event loop
// until Exit is called or the window closes. The calling goroutine becomes
// the input thread; teardown happens here to guarantee deterministic unwind
// order (draw and update stop before the window is destroyed).
//
// Run is single-use per host. A renderer/window setup or game load failure
// aborts before the host enters Running.
func (h *GameHost) Run(game Game) error {
	if !h.state.CompareAndSwap(int32(HostIdle), int32(HostRunning)) {
		return fmt.Errorf("canopy: host Run called in state %v", h.State())
	}

	if err := h.setup(game); err != nil {
		h.state.Store(int32(HostStopped))
		return err
	}

	switch h.cfg.Mode {
	case SingleThreaded:
		h.runSingleThreaded()
	default:
		h.runMultiThreaded()
	}

	err := h.teardown()
	h.state.Store(int32(HostStopped))

	if tp := h.fatal.Load(); tp != nil {
		// Rethrow on the input thread with the original stack preserved.
		_, _ = fmt.Fprintf(os.Stderr, "[canopy] %v\n%s", tp, tp.Stack)
		panic(tp)
	}
	return err
}

func (h *GameHost) setup(game Game) error {
	if h.window == nil {
		return errors.New("canopy: host has no window")
	}
	if h.renderer == nil {
		return errors.New("canopy: host has no renderer")
	}
	if game != nil {
		if err := game.Load(h); err != nil {
			return fmt.Errorf("canopy: game load failed: %w", err)
		}
	}

	h.updateThread.OnNewFrame = h.updateFrame
	h.updateThread.OnPanic = h.handleThreadPanic
	h.drawThread.OnNewFrame = h.drawFrame
	h.drawThread.OnPanic = h.handleThreadPanic
	h.drawThread.lockOSThread = true
	h.audioThread.OnPanic = h.handleThreadPanic
	h.inputThread.OnNewFrame = h.inputFrame
	h.inputThread.OnPanic = h.handleThreadPanic

	h.window.OnResized(func(Vec2) {
		// Geometry of anchored drawables depends on the root size; refresh
		// on the update thread.
		h.Schedule(h.syncRootSize)
	})
	h.Schedule(h.syncRootSize)
	return nil
}

func (h *GameHost) runMultiThreaded() {
	h.updateThread.onStart = markUpdateThreadCurrent
	h.updateThread.Start()
	h.drawThread.Start()
	h.audioThread.Start()

	h.window.OnUpdate(func() {
		h.inputThread.runFrameGuarded()
	})
	if err := h.window.Run(); err != nil {
		h.handleThreadPanic(&ThreadPanic{Thread: "input", Value: err})
	}
	h.state.Store(int32(HostStopping))
}

func (h *GameHost) runSingleThreaded() {
	// Every loop runs on the window pump's goroutine.
	markUpdateThreadCurrent()
	h.window.OnUpdate(func() {
		h.inputThread.runFrameGuarded()
		h.updateThread.runFrameGuarded()
		h.audioThread.runFrameGuarded()
	})
	h.window.OnDraw(func() {
		h.drawThread.runFrameGuarded()
	})
	if err := h.window.Run(); err != nil {
		h.handleThreadPanic(&ThreadPanic{Thread: "input", Value: err})
	}
	h.state.Store(int32(HostStopping))
}

// teardown stops the threads in draw, update, audio order, before the window
// is destroyed.
func (h *GameHost) teardown() error {
	var errs []error
	if h.cfg.Mode == MultiThreaded {
		for _, t := range []*GameThread{h.drawThread, h.updateThread, h.audioThread} {
			t.Stop()
			if err := t.WaitForStop(h.cfg.StopTimeout); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}

// Exit requests the host to stop. Actual teardown happens on the input
// thread once the window's event loop returns. Safe to call from any thread;
// calls after the first are no-ops.
func (h *GameHost) Exit() {
	if h.state.CompareAndSwap(int32(HostRunning), int32(HostStopping)) {
		h.window.Close()
	}
}

// inputFrame runs once per window pump iteration on the input thread.
func (h *GameHost) inputFrame(FrameInfo) {
	active := h.window.IsActive()
	h.updateThread.Clock.SetActive(active)
	h.drawThread.Clock.SetActive(active)
	h.inputThread.Clock.SetActive(active)
}

// syncRootSize matches the root container to the window's client size.
// Runs on the update thread.
func (h *GameHost) syncRootSize() {
	size := h.window.ClientSize()
	h.root.SetSize(size.X, size.Y)
}

// updateFrame advances the scene graph one frame and publishes a complete
// draw-node tree; partial trees are never visible to the draw thread.
func (h *GameHost) updateFrame(frame FrameInfo) {
	var stats pipelineStats
	var t0 time.Time
	if globalDebug {
		t0 = time.Now()
	}

	h.root.UpdateSubTree(frame)

	if globalDebug {
		stats.updateTime = time.Since(t0)
		t0 = time.Now()
	}

	// Claim the publish slot first and build the snapshot into per-drawable
	// slots keyed by its index: the tree being rebuilt in place can then
	// never be one the draw thread is reading.
	u := h.drawBuffer.GetForWrite()
	u.Value = h.root.GenerateDrawNodeSubtree(frame.FrameIndex, u.index, false)

	if globalDebug {
		stats.generateTime = time.Since(t0)
		t0 = time.Now()
	}

	u.Release()

	if globalDebug {
		stats.publishTime = time.Since(t0)
		debugLogPipeline(stats)
	}

	if h.frameSink != nil {
		h.frameSink.EmitFrame(frame)
	}
}

// drawFrame renders the most recently published tree. When no tree arrives
// within ReadTimeout the frame is skipped; a stalled update thread slows the
// drawer down but never wedges it.
func (h *GameHost) drawFrame(FrameInfo) {
	u := h.drawBuffer.GetForRead(h.cfg.ReadTimeout)
	if u == nil {
		return
	}
	h.renderer.BeginFrame(h.window.ClientSize())
	if u.Value != nil {
		u.Value.Draw(h.renderer)
	}
	h.renderer.FinishFrame()
	u.Release()
	h.renderer.SwapBuffers()
	h.renderer.WaitUntilNextFrameReady()
}

// handleThreadPanic funnels unhandled panics from every game thread through
// one decision point: the application may suppress it once, otherwise the
// host captures it for rethrow on the input thread and begins shutdown.
func (h *GameHost) handleThreadPanic(tp *ThreadPanic) {
	if h.cfg.OnUnhandledPanic != nil && h.cfg.OnUnhandledPanic(tp) {
		_, _ = fmt.Fprintf(os.Stderr, "[canopy] suppressed panic on %s thread: %v\n", tp.Thread, tp.Value)
		return
	}
	h.fatal.CompareAndSwap(nil, tp)
	h.Exit()
}
