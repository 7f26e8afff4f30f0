package canopy

import (
	"sync/atomic"
	"time"
)

// FrameInfo describes one iteration of a thread's frame loop. Times are in
// milliseconds on the owning clock's timeline, which is the shared timeline
// drawable lifetime windows are expressed in.
type FrameInfo struct {
	FrameIndex uint64
	Current    float64 // time at the start of this frame
	Elapsed    float64 // time since the previous frame
}

// FrameClock tracks frame timing for one thread loop: frame count, current
// time, per-frame elapsed time, and a smoothed frames-per-second estimate.
type FrameClock struct {
	start      time.Time
	last       time.Time
	frameIndex uint64
	current    float64
	elapsed    float64
	fps        float64
}

// NewFrameClock creates a clock whose timeline starts at zero now.
func NewFrameClock() *FrameClock {
	now := time.Now()
	return &FrameClock{start: now, last: now}
}

// ProcessFrame advances the clock by one frame and returns its timing info.
func (c *FrameClock) ProcessFrame() FrameInfo {
	now := time.Now()
	c.frameIndex++
	c.elapsed = float64(now.Sub(c.last)) / float64(time.Millisecond)
	c.current = float64(now.Sub(c.start)) / float64(time.Millisecond)
	c.last = now

	if c.elapsed > 0 {
		instant := 1000 / c.elapsed
		if c.fps == 0 {
			c.fps = instant
		} else {
			// Exponential smoothing keeps the estimate readable.
			c.fps = 0.95*c.fps + 0.05*instant
		}
	}

	return FrameInfo{FrameIndex: c.frameIndex, Current: c.current, Elapsed: c.elapsed}
}

// CurrentTime returns the timeline position of the most recent frame, in
// milliseconds.
func (c *FrameClock) CurrentTime() float64 {
	return c.current
}

// FrameIndex returns the number of frames processed so far.
func (c *FrameClock) FrameIndex() uint64 {
	return c.frameIndex
}

// FPS returns the smoothed frames-per-second estimate.
func (c *FrameClock) FPS() float64 {
	return c.fps
}

// spinReserve is how much of the frame budget is burned in a spin loop
// rather than slept away. Sleeping runs long on most platforms; the spin
// tail keeps pacing tight without pinning a core for the whole wait.
const spinReserve = time.Millisecond

// ThrottledFrameClock paces a thread loop to a target rate, with a separate
// lower rate used while the host window is inactive. The active flag may be
// flipped from another thread (the input thread observes focus changes).
type ThrottledFrameClock struct {
	FrameClock

	// ActiveHz and InactiveHz are the target iteration rates. Zero or
	// negative means unthrottled.
	ActiveHz   float64
	InactiveHz float64

	active   atomic.Bool
	nextDue  time.Time
	lastRate float64
}

// NewThrottledFrameClock creates a throttled clock starting in the active
// state.
func NewThrottledFrameClock(activeHz, inactiveHz float64) *ThrottledFrameClock {
	c := &ThrottledFrameClock{
		FrameClock: *NewFrameClock(),
		ActiveHz:   activeHz,
		InactiveHz: inactiveHz,
	}
	c.active.Store(true)
	return c
}

// SetActive switches between the active and inactive target rates.
// Safe to call from any thread.
func (c *ThrottledFrameClock) SetActive(active bool) {
	c.active.Store(active)
}

// IsActive reports which rate the clock is currently targeting.
func (c *ThrottledFrameClock) IsActive() bool {
	return c.active.Load()
}

// targetHz returns the currently applicable rate.
func (c *ThrottledFrameClock) targetHz() float64 {
	if c.active.Load() {
		return c.ActiveHz
	}
	return c.InactiveHz
}

// Throttle blocks until the next frame is due at the current target rate.
// Called at the bottom of each loop iteration, after the frame's work.
func (c *ThrottledFrameClock) Throttle() {
	hz := c.targetHz()
	if hz <= 0 {
		c.nextDue = time.Time{}
		return
	}
	period := time.Duration(float64(time.Second) / hz)

	now := time.Now()
	if c.nextDue.IsZero() || hz != c.lastRate || now.Sub(c.nextDue) > period {
		// First throttled frame, rate switch, or we fell far behind: restart
		// pacing from now instead of sprinting to catch up.
		c.nextDue = now
	}
	c.lastRate = hz
	c.nextDue = c.nextDue.Add(period)

	wait := time.Until(c.nextDue)
	if wait <= 0 {
		return
	}
	if wait > spinReserve {
		time.Sleep(wait - spinReserve)
	}
	for time.Now().Before(c.nextDue) {
	}
}
