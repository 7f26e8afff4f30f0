package ebitenhost

import (
	"errors"
	"sync"
	"testing"

	"github.com/hajimehoshi/ebiten/v2"

	"github.com/phanxgames/canopy"
)

func TestConfigDefaults(t *testing.T) {
	w, r := New(Config{})
	if r == nil {
		t.Fatal("New returned nil renderer")
	}
	if w.cfg.Width != 1280 || w.cfg.Height != 720 {
		t.Errorf("defaults = %dx%d, want 1280x720", w.cfg.Width, w.cfg.Height)
	}
	if size := w.ClientSize(); size.X != 1280 || size.Y != 720 {
		t.Errorf("ClientSize = %v, want {1280 720}", size)
	}
}

// Close is documented safe from any thread; concurrent calls must not race
// with the pump reading the flag.
func TestWindowCloseIsThreadSafe(t *testing.T) {
	w, _ := New(Config{})
	p := &pump{window: w}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			w.Close()
		}()
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = p.Update()
		}()
	}
	wg.Wait()

	if err := p.Update(); !errors.Is(err, ebiten.Termination) {
		t.Errorf("Update after Close = %v, want ebiten.Termination", err)
	}
}

func TestLayoutFiresResize(t *testing.T) {
	w, _ := New(Config{Width: 100, Height: 100})
	p := &pump{window: w}

	var resized []canopy.Vec2
	w.OnResized(func(size canopy.Vec2) { resized = append(resized, size) })

	p.Layout(100, 100) // unchanged: no callback
	p.Layout(320, 240)
	p.Layout(320, 240) // unchanged again

	if len(resized) != 1 || resized[0] != (canopy.Vec2{X: 320, Y: 240}) {
		t.Errorf("resize events = %v, want one {320 240}", resized)
	}
	if size := w.ClientSize(); size != (canopy.Vec2{X: 320, Y: 240}) {
		t.Errorf("ClientSize = %v, want {320 240}", size)
	}
}
