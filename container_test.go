package canopy

import "testing"

// --- Parent invariant ---

func TestAddSetsParent(t *testing.T) {
	parent := NewContainer("parent")
	child := NewBox("child", Vec2{1, 1})

	parent.Add(child)

	if child.Parent != parent {
		t.Error("child.Parent should be the adding container")
	}
	if parent.NumChildren() != 1 || parent.ChildAt(0) != child {
		t.Error("child should appear in the parent's child list")
	}
}

func TestRemoveClearsParent(t *testing.T) {
	parent := NewContainer("parent")
	child := NewBox("child", Vec2{1, 1})
	parent.Add(child)

	parent.Remove(child)

	if child.Parent != nil {
		t.Error("removed child should have nil Parent")
	}
	if parent.NumChildren() != 0 {
		t.Error("removed child should be absent from the parent's children")
	}
	if child.IsDisposed() {
		t.Error("Remove must not dispose the child")
	}
}

func TestAddAtInsertsInOrder(t *testing.T) {
	parent := NewContainer("parent")
	a := NewBox("a", Vec2{1, 1})
	b := NewBox("b", Vec2{1, 1})
	c := NewBox("c", Vec2{1, 1})
	parent.Add(a)
	parent.Add(c)
	parent.AddAt(b, 1)

	want := []*Drawable{a, b, c}
	for i, w := range want {
		if parent.ChildAt(i) != w {
			t.Fatalf("child %d = %q, want %q", i, parent.ChildAt(i).Name, w.Name)
		}
	}
}

func TestRemoveAt(t *testing.T) {
	parent := NewContainer("parent")
	a := NewBox("a", Vec2{1, 1})
	b := NewBox("b", Vec2{1, 1})
	parent.Add(a)
	parent.Add(b)

	got := parent.RemoveAt(0)
	if got != a {
		t.Error("RemoveAt should return the removed child")
	}
	if parent.NumChildren() != 1 || parent.ChildAt(0) != b {
		t.Error("remaining children shifted incorrectly")
	}
}

func TestClearDetachesAll(t *testing.T) {
	parent := NewContainer("parent")
	a := NewBox("a", Vec2{1, 1})
	b := NewBox("b", Vec2{1, 1})
	parent.Add(a)
	parent.Add(b)

	parent.Clear()

	if parent.NumChildren() != 0 {
		t.Error("Clear should remove all children")
	}
	if a.Parent != nil || b.Parent != nil {
		t.Error("cleared children should have nil Parent")
	}
	if a.IsDisposed() || b.IsDisposed() {
		t.Error("Clear must not dispose children")
	}
}

// --- Structural errors ---

func TestAddNilChildPanics(t *testing.T) {
	assertPanics(t, func() {
		NewContainer("parent").Add(nil)
	})
}

func TestAddParentedChildPanics(t *testing.T) {
	first := NewContainer("first")
	second := NewContainer("second")
	child := NewBox("child", Vec2{1, 1})
	first.Add(child)

	assertPanics(t, func() {
		second.Add(child)
	})
}

func TestAddCyclePanics(t *testing.T) {
	parent := NewContainer("parent")
	child := NewContainer("child")
	parent.Add(child)

	assertPanics(t, func() {
		child.Add(parent)
	})
}

func TestAddDisposedChildPanics(t *testing.T) {
	parent := NewContainer("parent")
	child := NewBox("child", Vec2{1, 1})
	child.Dispose()

	assertPanics(t, func() {
		parent.Add(child)
	})
}

func TestRemoveForeignChildPanics(t *testing.T) {
	parent := NewContainer("parent")
	stranger := NewBox("stranger", Vec2{1, 1})

	assertPanics(t, func() {
		parent.Remove(stranger)
	})
}

func assertPanics(t *testing.T, fn func()) {
	t.Helper()
	defer func() {
		if recover() == nil {
			t.Error("expected panic")
		}
	}()
	fn()
}

// --- Ordering ---

func TestSetChildIndexReorders(t *testing.T) {
	parent := NewContainer("parent")
	a := NewBox("a", Vec2{1, 1})
	b := NewBox("b", Vec2{1, 1})
	c := NewBox("c", Vec2{1, 1})
	parent.Add(a)
	parent.Add(b)
	parent.Add(c)

	parent.SetChildIndex(c, 0)

	want := []*Drawable{c, a, b}
	for i, w := range want {
		if parent.ChildAt(i) != w {
			t.Fatalf("child %d = %q, want %q", i, parent.ChildAt(i).Name, w.Name)
		}
	}
}

func TestDepthOverridesDrawOrder(t *testing.T) {
	parent := NewContainer("parent")
	a := NewBox("a", Vec2{1, 1})
	b := NewBox("b", Vec2{1, 1})
	c := NewBox("c", Vec2{1, 1})
	parent.Add(a)
	parent.Add(b)
	parent.Add(c)
	b.SetDepth(-1)

	parent.UpdateSubTree(frame(1))
	tree := parent.GenerateDrawNodeSubtree(1, 0, false)

	kids := tree.Children()
	if len(kids) != 3 {
		t.Fatalf("got %d children, want 3", len(kids))
	}
	// b sorts first; a and c keep insertion order (stable sort).
	if kids[0] != b.drawNodes[0] || kids[1] != a.drawNodes[0] || kids[2] != c.drawNodes[0] {
		t.Error("depth override not reflected in draw order")
	}
}

// --- Mutation during iteration ---

func TestRemoveDuringUpdateIsSafe(t *testing.T) {
	parent := NewContainer("parent")
	var victim *Drawable
	remover := NewBox("remover", Vec2{1, 1})
	victim = NewBox("victim", Vec2{1, 1})
	remover.OnUpdate = func(float64) {
		parent.Remove(victim)
	}
	parent.Add(remover)
	parent.Add(victim)

	// Must not panic or skip drawables: iteration works on a snapshot.
	parent.UpdateSubTree(frame(1))

	if parent.NumChildren() != 1 {
		t.Errorf("children = %d, want 1 after mid-update removal", parent.NumChildren())
	}
}

func TestDisposeDuringUpdateIsSafe(t *testing.T) {
	parent := NewContainer("parent")
	victim := NewBox("victim", Vec2{1, 1})
	killer := NewBox("killer", Vec2{1, 1})
	killer.OnUpdate = func(float64) {
		victim.Dispose()
	}
	parent.Add(killer)
	parent.Add(victim)

	parent.UpdateSubTree(frame(1))
	tree := parent.GenerateDrawNodeSubtree(1, 0, false)

	if len(tree.Children()) != 1 {
		t.Errorf("draw children = %d, want 1 (disposed child skipped)", len(tree.Children()))
	}
}
