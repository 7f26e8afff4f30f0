package canopy

import (
	"sync/atomic"
	"testing"
	"time"
)

func TestGameThreadRunsFrames(t *testing.T) {
	th := NewGameThread("test", 1000, 1000)
	var frames atomic.Int64
	th.OnNewFrame = func(FrameInfo) { frames.Add(1) }

	th.Start()
	defer func() {
		th.Stop()
		if err := th.WaitForStop(time.Second); err != nil {
			t.Fatal(err)
		}
	}()

	deadline := time.Now().Add(time.Second)
	for frames.Load() < 5 {
		if time.Now().After(deadline) {
			t.Fatalf("only %d frames ran within a second", frames.Load())
		}
		time.Sleep(time.Millisecond)
	}
}

func TestGameThreadStartTwicePanics(t *testing.T) {
	th := NewGameThread("test", 1000, 1000)
	th.Start()
	defer func() {
		th.Stop()
		th.WaitForStop(time.Second)
	}()

	assertPanics(t, th.Start)
}

func TestGameThreadStopIsObserved(t *testing.T) {
	th := NewGameThread("test", 1000, 1000)
	th.Start()
	th.Stop()
	if err := th.WaitForStop(time.Second); err != nil {
		t.Fatal(err)
	}
}

func TestWaitForStopNeverStartedReturnsNil(t *testing.T) {
	th := NewGameThread("test", 1000, 1000)
	if err := th.WaitForStop(time.Millisecond); err != nil {
		t.Errorf("WaitForStop on an unstarted thread = %v, want nil", err)
	}
}

func TestWaitForStopTimesOut(t *testing.T) {
	th := NewGameThread("test", 1000, 1000)
	block := make(chan struct{})
	th.OnNewFrame = func(FrameInfo) { <-block }
	th.Start()
	defer close(block)

	th.Stop()
	if err := th.WaitForStop(20 * time.Millisecond); err == nil {
		t.Error("WaitForStop should report a thread stuck past its timeout")
	}
}

func TestGameThreadPanicFunnel(t *testing.T) {
	th := NewGameThread("test", 1000, 1000)
	var caught atomic.Pointer[ThreadPanic]
	th.OnPanic = func(p *ThreadPanic) { caught.Store(p) }
	fired := false
	th.OnNewFrame = func(FrameInfo) {
		if !fired {
			fired = true
			panic("boom")
		}
	}

	th.Start()
	defer func() {
		th.Stop()
		th.WaitForStop(time.Second)
	}()

	deadline := time.Now().Add(time.Second)
	for caught.Load() == nil {
		if time.Now().After(deadline) {
			t.Fatal("panic never reached OnPanic")
		}
		time.Sleep(time.Millisecond)
	}

	p := caught.Load()
	if p.Thread != "test" {
		t.Errorf("panic thread = %q, want %q", p.Thread, "test")
	}
	if p.Value != "boom" {
		t.Errorf("panic value = %v, want boom", p.Value)
	}
	if len(p.Stack) == 0 {
		t.Error("panic should carry the goroutine stack")
	}
}

// A panic handled by OnPanic must not kill the loop; later frames still run.
func TestGameThreadSurvivesHandledPanic(t *testing.T) {
	th := NewGameThread("test", 1000, 1000)
	th.OnPanic = func(*ThreadPanic) {}
	var frames atomic.Int64
	th.OnNewFrame = func(FrameInfo) {
		if frames.Add(1) == 1 {
			panic("first frame only")
		}
	}

	th.Start()
	defer func() {
		th.Stop()
		th.WaitForStop(time.Second)
	}()

	deadline := time.Now().Add(time.Second)
	for frames.Load() < 3 {
		if time.Now().After(deadline) {
			t.Fatal("loop did not continue after a handled panic")
		}
		time.Sleep(time.Millisecond)
	}
}

func TestSchedulerTasksRunOnThread(t *testing.T) {
	th := NewGameThread("test", 1000, 1000)
	th.Start()
	defer func() {
		th.Stop()
		th.WaitForStop(time.Second)
	}()

	ran := make(chan uint64, 1)
	th.Scheduler.Add(func() { ran <- currentGoroutineID() })

	select {
	case gid := <-ran:
		if gid == 0 {
			t.Error("goroutine id should be nonzero")
		}
		if gid == currentGoroutineID() {
			t.Error("task ran on the caller's goroutine, not the thread's")
		}
	case <-time.After(time.Second):
		t.Fatal("scheduled task never ran")
	}
}
