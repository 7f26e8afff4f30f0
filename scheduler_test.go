package canopy

import (
	"sync"
	"testing"
	"time"
)

func TestSchedulerRunsInEnqueueOrder(t *testing.T) {
	s := NewScheduler()
	var order []int
	s.Add(func() { order = append(order, 1) })
	s.Add(func() { order = append(order, 2) })
	s.Add(func() { order = append(order, 3) })

	if ran := s.Update(); ran != 3 {
		t.Fatalf("ran %d tasks, want 3", ran)
	}
	for i, v := range order {
		if v != i+1 {
			t.Fatalf("order = %v, want [1 2 3]", order)
		}
	}
	if s.Pending() != 0 {
		t.Error("queue should be empty after Update")
	}
}

func TestSchedulerNilTaskPanics(t *testing.T) {
	s := NewScheduler()
	assertPanics(t, func() { s.Add(nil) })
	assertPanics(t, func() { s.AddDelayed(nil, time.Millisecond) })
}

// A task enqueued by a running task waits for the next Update.
func TestSchedulerNestedAddDefersToNextUpdate(t *testing.T) {
	s := NewScheduler()
	nestedRan := false
	s.Add(func() {
		s.Add(func() { nestedRan = true })
	})

	if ran := s.Update(); ran != 1 {
		t.Fatalf("first Update ran %d tasks, want 1", ran)
	}
	if nestedRan {
		t.Fatal("nested task must not run in the same Update")
	}
	if ran := s.Update(); ran != 1 {
		t.Fatalf("second Update ran %d tasks, want 1", ran)
	}
	if !nestedRan {
		t.Error("nested task should run on the next Update")
	}
}

func TestSchedulerDelayedTaskWaitsUntilDue(t *testing.T) {
	s := NewScheduler()
	ran := false
	s.AddDelayed(func() { ran = true }, 30*time.Millisecond)

	if s.Update() != 0 || ran {
		t.Fatal("delayed task ran before its due time")
	}
	if s.Pending() != 1 {
		t.Error("delayed task should count as pending")
	}

	time.Sleep(40 * time.Millisecond)
	if s.Update() != 1 || !ran {
		t.Error("delayed task should run once due")
	}
}

func TestSchedulerCrossGoroutineEnqueue(t *testing.T) {
	s := NewScheduler()
	const n = 100

	var wg sync.WaitGroup
	var mu sync.Mutex
	ran := 0
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.Add(func() {
				mu.Lock()
				ran++
				mu.Unlock()
			})
		}()
	}
	wg.Wait()

	if got := s.Update(); got != n {
		t.Errorf("ran %d tasks, want %d", got, n)
	}
	mu.Lock()
	defer mu.Unlock()
	if ran != n {
		t.Errorf("task bodies ran %d times, want %d", ran, n)
	}
}
