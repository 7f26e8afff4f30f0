package canopy

import "sort"

// Composite tree operations. Any Drawable may own children; KindContainer
// merely means the drawable has no visual output of its own. Children are
// drawn in insertion order unless a Depth override re-sorts them.

// Add appends child to this drawable's children and runs the child's load
// phase. Panics if child is nil, disposed, already parented, or an ancestor
// of this drawable (cycle). Re-parenting requires an explicit Remove first.
func (d *Drawable) Add(child *Drawable) {
	d.addAt(child, len(d.children))
}

// AddAt inserts child at the given index among this drawable's children.
// Same validity rules as Add.
func (d *Drawable) AddAt(child *Drawable, index int) {
	if index < 0 || index > len(d.children) {
		panic("canopy: child index out of range")
	}
	d.addAt(child, index)
}

func (d *Drawable) addAt(child *Drawable, index int) {
	if child == nil {
		panic("canopy: cannot add nil child")
	}
	if globalDebug {
		debugCheckDisposed(d, "Add (parent)")
		debugCheckDisposed(child, "Add (child)")
	}
	if child.disposed {
		panic("canopy: cannot add disposed child")
	}
	if child.Parent != nil {
		panic("canopy: child already has a parent")
	}
	if isAncestor(child, d) {
		panic("canopy: adding child would create a cycle")
	}

	child.Parent = d
	d.children = append(d.children, nil)
	copy(d.children[index+1:], d.children[index:])
	d.children[index] = child
	d.childrenSorted = false

	child.load()
	child.Invalidate(InvalidationAll, d, false)
	d.Invalidate(InvalidationMiscGeometry|InvalidationDrawNode, child, true)

	if globalDebug {
		debugCheckTreeDepth(child)
		debugCheckChildCount(d)
	}
}

// Remove detaches child from this drawable. The child is not disposed and
// may be re-added elsewhere. Panics if child.Parent != d.
func (d *Drawable) Remove(child *Drawable) {
	if globalDebug {
		debugCheckDisposed(d, "Remove (parent)")
	}
	if child == nil || child.Parent != d {
		panic("canopy: child's parent is not this drawable")
	}
	d.removeChildByPtr(child)
	child.Parent = nil
	d.childrenSorted = false
	child.Invalidate(InvalidationParent|InvalidationTransform|InvalidationColor, d, false)
	d.Invalidate(InvalidationMiscGeometry|InvalidationDrawNode, child, true)
}

// RemoveAt removes and returns the child at the given index.
func (d *Drawable) RemoveAt(index int) *Drawable {
	if index < 0 || index >= len(d.children) {
		panic("canopy: child index out of range")
	}
	child := d.children[index]
	d.Remove(child)
	return child
}

// RemoveFromParent detaches this drawable from its parent.
// No-op if this drawable has no parent.
func (d *Drawable) RemoveFromParent() {
	if d.Parent == nil {
		return
	}
	d.Parent.Remove(d)
}

// Clear detaches all children from this drawable. Children are NOT disposed.
func (d *Drawable) Clear() {
	for _, child := range d.children {
		child.Parent = nil
		child.Invalidate(InvalidationParent|InvalidationTransform|InvalidationColor, d, false)
	}
	d.children = d.children[:0]
	d.childrenSorted = true
	d.Invalidate(InvalidationMiscGeometry|InvalidationDrawNode, d, true)
}

// Children returns the child list. The returned slice MUST NOT be mutated by
// the caller.
func (d *Drawable) Children() []*Drawable {
	return d.children
}

// NumChildren returns the number of children.
func (d *Drawable) NumChildren() int {
	return len(d.children)
}

// ChildAt returns the child at the given index.
func (d *Drawable) ChildAt(index int) *Drawable {
	return d.children[index]
}

// SetChildIndex moves child to a new index among its siblings.
func (d *Drawable) SetChildIndex(child *Drawable, index int) {
	if child.Parent != d {
		panic("canopy: child's parent is not this drawable")
	}
	nc := len(d.children)
	if index < 0 || index >= nc {
		panic("canopy: child index out of range")
	}
	oldIndex := -1
	for i, c := range d.children {
		if c == child {
			oldIndex = i
			break
		}
	}
	if oldIndex == index {
		return
	}
	// Shift elements to fill the gap and open the target slot.
	if oldIndex < index {
		copy(d.children[oldIndex:], d.children[oldIndex+1:index+1])
	} else {
		copy(d.children[index+1:], d.children[index:oldIndex])
	}
	d.children[index] = child
	d.childrenSorted = false
	d.Invalidate(InvalidationDrawNode, child, true)
}

// drawOrderChildren returns the children in draw order: ascending Depth,
// stable on insertion order. The sorted buffer is reused across frames.
func (d *Drawable) drawOrderChildren() []*Drawable {
	if d.childrenSorted && len(d.sortedChildren) == len(d.children) {
		return d.sortedChildren
	}
	d.sortedChildren = append(d.sortedChildren[:0], d.children...)
	sort.SliceStable(d.sortedChildren, func(i, j int) bool {
		return d.sortedChildren[i].Depth < d.sortedChildren[j].Depth
	})
	d.childrenSorted = true
	return d.sortedChildren
}

// isAncestor reports whether candidate is an ancestor of (or equal to) node.
func isAncestor(candidate, node *Drawable) bool {
	for p := node; p != nil; p = p.Parent {
		if p == candidate {
			return true
		}
	}
	return false
}

// removeChildByPtr removes child from d.children without clearing
// child.Parent. Uses copy+nil to avoid retaining a dangling pointer in the
// backing array.
func (d *Drawable) removeChildByPtr(child *Drawable) {
	for i, c := range d.children {
		if c == child {
			copy(d.children[i:], d.children[i+1:])
			d.children[len(d.children)-1] = nil
			d.children = d.children[:len(d.children)-1]
			return
		}
	}
}
