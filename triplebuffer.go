package canopy

import (
	"sync"
	"time"
)

// slotState tracks a triple buffer slot's position in its lifecycle.
type slotState uint8

const (
	slotFree slotState = iota
	slotWriting
	slotWritten
	slotReading
)

// TripleBuffer is a three-slot exchange structure handing values from exactly
// one writer goroutine to exactly one reader goroutine without either
// blocking the other. The update thread writes complete draw-node trees; the
// draw thread reads the most recently committed one, or skips the frame when
// none arrives within its timeout.
//
// With one writer and one reader, at most one slot is being read and one
// holds the latest commit, so a free slot always exists for the writer: the
// writer never waits on the reader. The structure is not safe for multiple
// concurrent writers or readers.
type TripleBuffer[T any] struct {
	mu     sync.Mutex
	cond   *sync.Cond
	values [3]T
	states [3]slotState
	latest int // index of the newest committed slot; -1 before first commit

	// newWrite carries a wakeup to a reader waiting for the next commit.
	newWrite chan struct{}
}

// NewTripleBuffer creates an empty triple buffer. GetForRead returns nil
// until the first write commits.
func NewTripleBuffer[T any]() *TripleBuffer[T] {
	b := &TripleBuffer[T]{
		latest:   -1,
		newWrite: make(chan struct{}, 1),
	}
	b.cond = sync.NewCond(&b.mu)
	return b
}

// TripleBufferUsage is a claimed slot. Writers set Value before Release;
// readers consume Value before Release. Release must be called exactly once.
type TripleBufferUsage[T any] struct {
	// Value is the slot's payload: assigned by writers, populated for readers.
	Value T

	buffer   *TripleBuffer[T]
	index    int
	write    bool
	released bool
}

// GetForWrite claims a free slot for writing. Under the one-writer/one-reader
// contract this never blocks; it waits only if the structure is misused into
// having no free slot. Set Value on the returned usage, then Release to
// commit it as the newest readable slot.
func (b *TripleBuffer[T]) GetForWrite() *TripleBufferUsage[T] {
	b.mu.Lock()
	defer b.mu.Unlock()
	for {
		for i := range b.states {
			if b.states[i] == slotFree {
				b.states[i] = slotWriting
				return &TripleBufferUsage[T]{buffer: b, index: i, write: true}
			}
		}
		b.cond.Wait()
	}
}

// GetForRead claims the most recently committed slot, waiting up to timeout
// for one to become available. Returns nil on timeout: the reader is expected
// to skip its frame rather than block indefinitely on a slow or idle writer.
func (b *TripleBuffer[T]) GetForRead(timeout time.Duration) *TripleBufferUsage[T] {
	deadline := time.Now().Add(timeout)
	for {
		b.mu.Lock()
		if b.latest >= 0 && b.states[b.latest] == slotWritten {
			i := b.latest
			b.states[i] = slotReading
			u := &TripleBufferUsage[T]{Value: b.values[i], buffer: b, index: i}
			b.mu.Unlock()
			return u
		}
		b.mu.Unlock()

		remaining := time.Until(deadline)
		if remaining <= 0 {
			return nil
		}
		timer := time.NewTimer(remaining)
		select {
		case <-b.newWrite:
			timer.Stop()
		case <-timer.C:
			return nil
		}
	}
}

// Release returns the slot to the buffer. For writes, the slot becomes the
// newest readable slot and the previously committed slot (if unread) is
// freed. For reads, the slot returns to readable while it is still the
// newest commit, and is freed once a later commit has superseded it.
func (u *TripleBufferUsage[T]) Release() {
	if u.released {
		panic("canopy: TripleBufferUsage released twice")
	}
	u.released = true

	b := u.buffer
	b.mu.Lock()
	if u.write {
		b.values[u.index] = u.Value
		b.states[u.index] = slotWritten
		old := b.latest
		b.latest = u.index
		if old >= 0 && old != u.index && b.states[old] == slotWritten {
			b.states[old] = slotFree
		}
		b.mu.Unlock()

		b.cond.Signal()
		select {
		case b.newWrite <- struct{}{}:
		default:
		}
		return
	}

	if u.index == b.latest {
		b.states[u.index] = slotWritten
	} else {
		b.states[u.index] = slotFree
	}
	b.mu.Unlock()
	b.cond.Signal()
}
