package canopy

import (
	"fmt"
	"testing"
)

func TestGenerateNilWhenNotPresent(t *testing.T) {
	d := NewBox("box", Vec2{10, 10})
	d.SetVisible(false)
	d.UpdateSubTree(frame(1))

	if d.GenerateDrawNodeSubtree(1, 0, false) != nil {
		t.Error("invisible drawable should produce no draw node")
	}
}

func TestGenerateNilWhenDisposed(t *testing.T) {
	d := NewBox("box", Vec2{10, 10})
	d.UpdateSubTree(frame(1))
	d.Dispose()

	if d.GenerateDrawNodeSubtree(1, 0, false) != nil {
		t.Error("disposed drawable should produce no draw node")
	}
}

func TestGenerateCapturesState(t *testing.T) {
	d := NewBox("box", Vec2{30, 20})
	d.SetPosition(5, 7)
	d.SetColor(Color{1, 0, 0, 1})
	d.SetBlend(BlendAdd)
	d.UpdateSubTree(frame(1))

	node := d.GenerateDrawNodeSubtree(1, 0, false)
	if node == nil {
		t.Fatal("expected a draw node")
	}
	if node.Kind() != KindBox {
		t.Errorf("kind = %v, want KindBox", node.Kind())
	}
	if node.Size() != (Vec2{30, 20}) {
		t.Errorf("size = %v, want {30 20}", node.Size())
	}
	if node.Blend() != BlendAdd {
		t.Errorf("blend = %v, want BlendAdd", node.Blend())
	}
	tr := node.Transform()
	if tr[4] != 5 || tr[5] != 7 {
		t.Errorf("translation = (%v, %v), want (5, 7)", tr[4], tr[5])
	}
}

// An unchanged drawable must hand back its prior snapshot without
// re-capturing state. Writing a field directly (bypassing the setter) leaves
// the generation counter untouched, so the stale capture must survive.
func TestUnchangedNodeIsNotRecaptured(t *testing.T) {
	d := NewBox("box", Vec2{10, 10})
	d.UpdateSubTree(frame(1))
	first := d.GenerateDrawNodeSubtree(1, 0, false)

	d.Blend = BlendMultiply // no invalidation
	second := d.GenerateDrawNodeSubtree(2, 0, false)

	if second != first {
		t.Error("unchanged drawable should return the same node instance")
	}
	if second.Blend() != BlendNormal {
		t.Error("cached node should keep the previously captured blend")
	}
}

func TestForceRecapturesState(t *testing.T) {
	d := NewBox("box", Vec2{10, 10})
	d.UpdateSubTree(frame(1))
	d.GenerateDrawNodeSubtree(1, 0, false)

	d.Blend = BlendMultiply // no invalidation
	node := d.GenerateDrawNodeSubtree(2, 0, true)

	if node.Blend() != BlendMultiply {
		t.Error("force should re-capture state even without invalidation")
	}
}

func TestBufferSlotsAreIndependent(t *testing.T) {
	d := NewBox("box", Vec2{10, 10})
	d.UpdateSubTree(frame(1))

	n0 := d.GenerateDrawNodeSubtree(1, 0, false)
	n1 := d.GenerateDrawNodeSubtree(2, 1, false)
	if n0 == n1 {
		t.Fatal("buffer slots must hold distinct node instances")
	}

	d.SetBlend(BlendAdd)
	d.UpdateSubTree(frame(3))
	d.GenerateDrawNodeSubtree(3, 0, false)

	if n0.Blend() != BlendAdd {
		t.Error("regenerated slot should carry the new blend")
	}
	if n1.Blend() != BlendNormal {
		t.Error("the other slot must stay untouched until its own regeneration")
	}
}

// Masking changes the capture context of everything inside it, so a masked
// composite rebuilds its children even when they are individually unchanged.
func TestMaskingForcesChildRecapture(t *testing.T) {
	parent := NewContainer("parent")
	parent.SetSize(100, 100)
	parent.SetMasking(true)
	child := NewBox("child", Vec2{10, 10})
	parent.Add(child)
	parent.UpdateSubTree(frame(1))
	parent.GenerateDrawNodeSubtree(1, 0, false)

	child.Blend = BlendAdd // no invalidation
	parent.SetPosition(1, 0)
	parent.UpdateSubTree(frame(2))
	tree := parent.GenerateDrawNodeSubtree(2, 0, false)

	if tree.Children()[0].Blend() != BlendAdd {
		t.Error("masked parent should force child re-capture")
	}
}

func TestDrawEmitsQuadsInOrder(t *testing.T) {
	root := NewContainer("root")
	root.Add(NewBox("a", Vec2{1, 1}))
	root.Add(NewBox("b", Vec2{1, 1}))
	sprite := NewSprite("c", nil)
	sprite.SetSize(1, 1)
	root.Add(sprite)
	root.UpdateSubTree(frame(1))
	tree := root.GenerateDrawNodeSubtree(1, 0, false)

	r := NewNullRenderer()
	r.BeginFrame(Vec2{100, 100})
	tree.Draw(r)
	r.FinishFrame()

	if got := r.LastFrameQuads(); got != 3 {
		t.Errorf("quads = %d, want 3 (container itself emits none)", got)
	}
}

// A deep child list with staggered lifetimes: only the alive window makes it
// into the snapshot, and steady-state frames neither rebuild nor allocate.
func TestLifetimePruningAtScale(t *testing.T) {
	const (
		total  = 50000
		window = 10000.0
	)
	root := NewContainer("root")
	for i := 0; i < total; i++ {
		c := NewBox(fmt.Sprintf("c%d", i), Vec2{1, 1})
		c.SetLifetime(float64(i), float64(i)+window)
		root.Add(c)
	}

	const now = 25000.0
	// Warm both buffer slots before measuring the steady state.
	root.UpdateSubTree(frameAt(1, now))
	root.GenerateDrawNodeSubtree(1, 1, false)
	root.UpdateSubTree(frameAt(2, now))
	tree := root.GenerateDrawNodeSubtree(2, 0, false)

	if got := len(tree.Children()); got != int(window) {
		t.Fatalf("present children = %d, want %d", got, int(window))
	}

	frameIndex := uint64(3)
	allocs := testing.AllocsPerRun(10, func() {
		root.UpdateSubTree(frameAt(frameIndex, now))
		root.GenerateDrawNodeSubtree(frameIndex, int(frameIndex%2), false)
		frameIndex++
	})
	if allocs != 0 {
		t.Errorf("steady-state frame allocated %v times, want 0", allocs)
	}
}
