package canopy

// DrawNode is an immutable per-frame snapshot of exactly the state a drawable
// needs to be rendered. Once published through the host's triple buffer it is
// read-only: it holds copied primitives and immutable resource handles, never
// live Drawable state.
//
// Each drawable keeps one DrawNode instance per publish slot of the host's
// triple buffer, so the update thread can refresh the node for the slot it
// is about to commit while the draw thread still reads a tree built into a
// different slot. An unchanged drawable hands out the same node instance
// frame after frame (structural sharing); this reuse is the central
// performance invariant of the pipeline.
type DrawNode struct {
	kind      Kind
	transform [6]float32
	color     Color
	blend     BlendMode
	texture   Texture
	size      Vec2
	masking   bool
	scissor   Rect
	children  []*DrawNode
}

// Kind returns the drawable kind this node was captured from.
func (n *DrawNode) Kind() Kind { return n.kind }

// Transform returns the captured world transform.
func (n *DrawNode) Transform() [6]float32 { return n.transform }

// Color returns the captured effective color, with ancestor alpha applied.
func (n *DrawNode) Color() Color { return n.color }

// Blend returns the captured blend mode.
func (n *DrawNode) Blend() BlendMode { return n.blend }

// Texture returns the captured texture handle, or nil.
func (n *DrawNode) Texture() Texture { return n.texture }

// Size returns the captured quad size.
func (n *DrawNode) Size() Vec2 { return n.size }

// Children returns the node's child snapshots in draw order.
// The returned slice MUST NOT be mutated.
func (n *DrawNode) Children() []*DrawNode { return n.children }

// applyState copies the drawable's render-relevant fields into the node.
// Runs on the update thread while the draw thread reads the other buffer
// index's node.
func (n *DrawNode) applyState(d *Drawable) {
	n.kind = d.Kind
	n.transform = affine32(d.WorldTransform())
	n.color = d.DrawColor()
	n.blend = d.Blend
	n.texture = d.Texture
	n.size = d.Size
	n.masking = d.Masking
	if d.Masking {
		n.scissor = transformRect(d.WorldTransform(), Rect{0, 0, d.Size.X, d.Size.Y})
	}
}

// GenerateDrawNodeSubtree returns the draw-node snapshot for this drawable
// and, for composites, its present children. frameIndex is the update frame
// counter, bufferIndex selects which per-drawable slot to target (hosts pass
// the claimed publish slot's index, so a slot a reader holds is never
// rewritten), and force rebuilds the node even if individually unchanged
// (used when an ancestor's masking state changes the capture context).
//
// Returns nil for drawables that are disposed, invisible, or outside their
// lifetime window; such subtrees are pruned from the render tree without
// error. When the slot's snapshot is still current and force is false, the
// prior instance is returned untouched: the zero-allocation fast path.
func (d *Drawable) GenerateDrawNodeSubtree(frameIndex uint64, bufferIndex int, force bool) *DrawNode {
	if d.disposed || !d.present {
		return nil
	}
	if globalDebug {
		debugCheckUpdateThread("GenerateDrawNodeSubtree")
	}

	if !force && d.drawNodeBuilt[bufferIndex] && d.drawNodeGens[bufferIndex] == d.drawNodeGen {
		return d.drawNodes[bufferIndex]
	}

	// Reuse the slot's node object: bufferIndex comes from a claimed publish
	// slot, which the draw thread cannot be holding, so refreshing in place
	// is safe and allocation-free.
	node := d.drawNodes[bufferIndex]
	if node == nil {
		node = &DrawNode{}
		d.drawNodes[bufferIndex] = node
	}
	node.applyState(d)

	if len(d.children) > 0 {
		childForce := force || d.Masking
		node.children = node.children[:0]
		for _, child := range d.drawOrderChildren() {
			// A child disposed or detached mid-traversal is skipped, not an
			// error.
			if child == nil || child.disposed || child.Parent != d {
				continue
			}
			if childNode := child.GenerateDrawNodeSubtree(frameIndex, bufferIndex, childForce); childNode != nil {
				node.children = append(node.children, childNode)
			}
		}
	} else {
		node.children = node.children[:0]
	}

	d.drawNodeGens[bufferIndex] = d.drawNodeGen
	d.drawNodeBuilt[bufferIndex] = true
	d.invalidation = 0
	return node
}

// Draw issues this node's renderer calls, then its children's, restoring any
// pushed state afterwards. Runs on the draw thread against a fully published,
// immutable tree.
func (n *DrawNode) Draw(r Renderer) {
	r.PushBlend(n.blend)
	if n.masking {
		r.PushScissor(n.scissor)
	}

	switch n.kind {
	case KindBox:
		r.DrawQuad(nil, n.transform, n.size, n.color)
	case KindSprite:
		r.DrawQuad(n.texture, n.transform, n.size, n.color)
	}

	for _, child := range n.children {
		child.Draw(r)
	}

	if n.masking {
		r.PopScissor()
	}
	r.PopBlend()
}
