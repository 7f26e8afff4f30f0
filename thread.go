package canopy

import (
	"bytes"
	"fmt"
	"runtime"
	"runtime/debug"
	"strconv"
	"sync/atomic"
	"time"
)

// ThreadPanic carries an unhandled panic off a game thread, preserving the
// original value and stack so the host can rethrow it with context intact.
type ThreadPanic struct {
	Thread string
	Value  any
	Stack  []byte
}

func (p *ThreadPanic) Error() string {
	return fmt.Sprintf("canopy: unhandled panic on %s thread: %v", p.Thread, p.Value)
}

// GameThread runs one of the host's cooperative loops (input, update, draw,
// audio): drain the scheduler, run the frame delegate, throttle to the target
// rate. Stopping is cooperative; the stop flag is observed at the top of each
// iteration.
type GameThread struct {
	Name      string
	Scheduler *Scheduler
	Clock     *ThrottledFrameClock

	// OnNewFrame is the thread's frame delegate, run once per iteration
	// after scheduled tasks.
	OnNewFrame func(FrameInfo)

	// OnPanic receives panics escaping scheduled tasks or the frame
	// delegate. When nil, the panic propagates and kills the process.
	OnPanic func(*ThreadPanic)

	// onStart runs on the thread's own goroutine before the first frame.
	onStart func()

	// lockOSThread pins the loop goroutine to an OS thread. Draw loops need
	// this for graphics contexts with thread-affine APIs.
	lockOSThread bool

	stop    atomic.Bool
	running atomic.Bool
	done    chan struct{}
	gid     atomic.Uint64
}

// NewGameThread creates a thread loop paced at the given rates.
func NewGameThread(name string, activeHz, inactiveHz float64) *GameThread {
	return &GameThread{
		Name:      name,
		Scheduler: NewScheduler(),
		Clock:     NewThrottledFrameClock(activeHz, inactiveHz),
		done:      make(chan struct{}),
	}
}

// Start launches the loop on its own goroutine. A GameThread is single-use:
// Start panics if the thread is or was already running.
func (t *GameThread) Start() {
	if !t.running.CompareAndSwap(false, true) {
		panic(fmt.Sprintf("canopy: thread %q started twice", t.Name))
	}
	go t.run()
}

func (t *GameThread) run() {
	defer close(t.done)
	if t.lockOSThread {
		runtime.LockOSThread()
		defer runtime.UnlockOSThread()
	}
	t.gid.Store(currentGoroutineID())
	if t.onStart != nil {
		t.onStart()
	}
	for !t.stop.Load() {
		t.runFrameGuarded()
		t.Clock.Throttle()
	}
}

// runFrameGuarded runs one frame, funneling any panic through OnPanic so a
// single handler decides between suppression and shutdown.
func (t *GameThread) runFrameGuarded() {
	defer func() {
		if v := recover(); v != nil {
			tp := &ThreadPanic{Thread: t.Name, Value: v, Stack: debug.Stack()}
			if t.OnPanic == nil {
				panic(tp)
			}
			t.OnPanic(tp)
		}
	}()
	t.RunSingleFrame()
}

// RunSingleFrame executes one loop iteration: scheduled tasks, then the frame
// delegate. Exposed so single-threaded hosts can drive all loops from one
// external pump.
func (t *GameThread) RunSingleFrame() {
	frame := t.Clock.ProcessFrame()
	t.Scheduler.Update()
	if t.OnNewFrame != nil {
		t.OnNewFrame(frame)
	}
}

// Stop requests the loop to exit after its current iteration.
func (t *GameThread) Stop() {
	t.stop.Store(true)
}

// WaitForStop blocks until the loop has exited, or returns an error after
// timeout. A thread that misses the timeout is treated as stuck and fatal by
// the host.
func (t *GameThread) WaitForStop(timeout time.Duration) error {
	if !t.running.Load() {
		return nil
	}
	select {
	case <-t.done:
		return nil
	case <-time.After(timeout):
		return fmt.Errorf("canopy: thread %q did not stop within %v", t.Name, timeout)
	}
}

// currentGoroutineID extracts the running goroutine's ID from its stack
// header. Used only for debug-mode thread-affinity checks; never on a hot
// path outside debug mode.
func currentGoroutineID() uint64 {
	var buf [64]byte
	n := runtime.Stack(buf[:], false)
	// Header shape: "goroutine 123 [running]:"
	fields := bytes.Fields(buf[:n])
	if len(fields) < 2 {
		return 0
	}
	id, err := strconv.ParseUint(string(fields[1]), 10, 64)
	if err != nil {
		return 0
	}
	return id
}
