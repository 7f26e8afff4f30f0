package canopy

import (
	"sync/atomic"
)

// Invalidation is a bitmask of drawable aspects whose derived state has gone
// stale. Flags accumulate on a drawable until the next draw-node build
// consumes them.
type Invalidation uint32

const (
	// InvalidationTransform marks the world transform stale (position, scale,
	// rotation, shear, origin, or an ancestor transform changed).
	InvalidationTransform Invalidation = 1 << iota
	// InvalidationMiscGeometry marks size-derived state stale (bounding
	// boxes, anchor offsets of children).
	InvalidationMiscGeometry
	// InvalidationColor marks the draw color stale (color, alpha, or an
	// ancestor's alpha changed).
	InvalidationColor
	// InvalidationDrawNode marks the draw-node snapshot stale without any
	// specific geometry or color change (texture swap, blend change, child
	// list change).
	InvalidationDrawNode
	// InvalidationPresence marks a change in whether the drawable
	// participates in the update/draw set (visibility or lifetime).
	InvalidationPresence
	// InvalidationParent is set on a drawable when its parent link changes.
	InvalidationParent
)

// InvalidationAll covers every aspect. Used when a drawable joins or leaves
// a tree.
const InvalidationAll = InvalidationTransform | InvalidationMiscGeometry |
	InvalidationColor | InvalidationDrawNode | InvalidationPresence | InvalidationParent

// invalidationDrawNodeAffecting are the flags that require a new draw-node
// snapshot on the next build.
const invalidationDrawNodeAffecting = InvalidationTransform | InvalidationMiscGeometry |
	InvalidationColor | InvalidationDrawNode | InvalidationPresence

// propagationPolicy maps local invalidation flags to the flags a parent
// receives when the invalidation propagates upward. The exact mapping is
// policy, not mechanism: tune it here without touching Invalidate.
//
// Geometry-affecting flags become MiscGeometry on the parent (aggregate
// bounds may change). Every draw-node-affecting flag also carries
// InvalidationDrawNode upward so that composite snapshots along the spine
// re-collect their child references.
var propagationPolicy = [...]struct {
	local, parent Invalidation
}{
	{InvalidationTransform, InvalidationMiscGeometry | InvalidationDrawNode},
	{InvalidationMiscGeometry, InvalidationMiscGeometry | InvalidationDrawNode},
	{InvalidationColor, InvalidationDrawNode},
	{InvalidationDrawNode, InvalidationDrawNode},
	{InvalidationPresence, InvalidationMiscGeometry | InvalidationDrawNode},
	{InvalidationParent, 0},
}

// deriveParentFlags returns the invalidation set a parent receives when the
// given local flags propagate upward.
func deriveParentFlags(flags Invalidation) Invalidation {
	var out Invalidation
	for _, p := range propagationPolicy {
		if flags&p.local != 0 {
			out |= p.parent
		}
	}
	return out
}

// LoadState tracks a drawable's position in its lifecycle.
type LoadState uint8

const (
	LoadStateNotLoaded LoadState = iota // created, not yet attached to a tree
	LoadStateLoaded                     // load phase completed; participates in update/draw
)

// drawableIDCounter issues unique drawable IDs. Atomic because drawables may
// be constructed on any thread before being scheduled onto the update thread.
var drawableIDCounter atomic.Uint32

func nextDrawableID() uint32 {
	return drawableIDCounter.Add(1)
}

// Drawable is the fundamental scene graph element. A single flat struct is
// used for all drawable kinds to avoid interface dispatch on the hot path.
//
// A Drawable (and the whole tree it belongs to) is owned by the update
// thread. Mutations from other threads must go through a Scheduler. The draw
// thread only ever touches the immutable DrawNode snapshots this drawable
// produces.
type Drawable struct {
	// Identity
	ID   uint32
	Name string
	Kind Kind

	// Hierarchy. Parent is a back-reference only; ownership runs downward.
	Parent   *Drawable
	children []*Drawable

	// Transform (local)
	Position Vec2
	Size     Vec2
	Scale    Vec2
	Rotation float64 // radians
	Shear    Vec2    // radians per axis
	Origin   Anchor  // pivot within this drawable's Size
	Anchor   Anchor  // attachment point within the parent's Size

	// Visual state
	Color   Color
	Alpha   float64
	Blend   BlendMode
	Texture Texture // KindSprite only; nil draws the renderer's white texture
	Visible bool

	// Masking restricts children to this drawable's bounds. A masking
	// container forces its descendants to rebuild their draw nodes whenever
	// it rebuilds its own, since the scissor state they were captured under
	// has changed.
	Masking bool

	// Lifetime window [LifetimeStart, LifetimeEnd) on the update thread's
	// clock, in milliseconds. Outside the window the drawable stays in the
	// tree but is excluded from the active update/draw set.
	LifetimeStart float64
	LifetimeEnd   float64

	// Depth overrides draw order among siblings when non-zero ordering is
	// needed; children sharing a depth keep insertion order.
	Depth float64

	// OnUpdate, when set, runs every update frame while the drawable is
	// present. dt is in seconds.
	OnUpdate func(dt float64)

	// OnLoad, when set, runs once when the drawable first joins a tree.
	OnLoad func()

	// Computed state (valid after UpdateSubTree; see WorldTransform and
	// DrawColor for on-demand access).
	worldTransform Cached[[6]float64]
	drawColor      Cached[Color]
	bounds         Cached[Rect]

	// Invalidation state, consumed by the next draw-node build.
	invalidation Invalidation

	// Draw-node snapshot slots, one per publish slot of the host's triple
	// buffer. Slot i is rebuilt when its generation falls behind drawNodeGen;
	// the slot being rebuilt is never one a reader currently holds.
	drawNodeGen   uint64
	drawNodes     [3]*DrawNode
	drawNodeGens  [3]uint64
	drawNodeBuilt [3]bool

	// Active tweens, applied during UpdateSubTree.
	tweens []*TweenGroup

	// Internal
	loadState      LoadState
	disposed       bool
	present        bool
	childrenSorted bool
	sortedChildren []*Drawable // reused buffer for depth-sorted draw order
	updateBuf      []*Drawable // reused child snapshot for safe iteration
}

// drawableDefaults sets the common default field values shared by all
// constructors.
func drawableDefaults(d *Drawable) {
	d.ID = nextDrawableID()
	d.Scale = Vec2{1, 1}
	d.Alpha = 1
	d.Color = ColorWhite
	d.Visible = true
	d.LifetimeStart = LifetimeMin
	d.LifetimeEnd = LifetimeMax
	d.invalidation = InvalidationAll
	d.drawNodeGen = 1
	d.childrenSorted = true
}

// NewContainer creates a container drawable with no visual representation.
func NewContainer(name string) *Drawable {
	d := &Drawable{Name: name, Kind: KindContainer}
	drawableDefaults(d)
	return d
}

// NewBox creates a drawable that renders a solid color quad.
func NewBox(name string, size Vec2) *Drawable {
	d := &Drawable{Name: name, Kind: KindBox, Size: size}
	drawableDefaults(d)
	return d
}

// NewSprite creates a drawable that renders a textured quad.
func NewSprite(name string, tex Texture) *Drawable {
	d := &Drawable{Name: name, Kind: KindSprite, Texture: tex}
	drawableDefaults(d)
	if tex != nil {
		w, h := tex.Size()
		d.Size = Vec2{float64(w), float64(h)}
	}
	return d
}

// --- Invalidation ---

// Invalidate marks the given aspects of this drawable stale. source is the
// drawable that originated the invalidation (self-calls pass d). When
// propagate is true and any state actually changed, the parent is invalidated
// with a derived flag set.
//
// Reports whether any state changed; unchanged invalidations short-circuit
// and do not walk further up the tree. Invalidating a disposed drawable is a
// no-op.
func (d *Drawable) Invalidate(flags Invalidation, source *Drawable, propagate bool) bool {
	if d.disposed || flags == 0 {
		return false
	}

	changed := false

	if flags&InvalidationTransform != 0 {
		if invalidateSubtreeTransforms(d) {
			changed = true
		}
	}
	if flags&InvalidationColor != 0 {
		if invalidateSubtreeColors(d) {
			changed = true
		}
	}
	if flags&InvalidationMiscGeometry != 0 {
		if d.bounds.Invalidate() {
			changed = true
		}
	}

	newFlags := flags &^ d.invalidation
	if newFlags != 0 {
		d.invalidation |= newFlags
		changed = true
	}

	if changed && flags&invalidationDrawNodeAffecting != 0 {
		d.drawNodeGen++
	}

	if changed && propagate && d.Parent != nil && source != d.Parent {
		d.Parent.Invalidate(deriveParentFlags(flags), d, true)
	}
	return changed
}

// invalidateSubtreeTransforms clears the cached world transform of d and all
// descendants. Descent stops at subtrees whose cell is already invalid, since
// their children were invalidated along with them.
func invalidateSubtreeTransforms(d *Drawable) bool {
	if !d.worldTransform.Invalidate() {
		return false
	}
	d.bounds.Invalidate()
	for _, child := range d.children {
		if invalidateSubtreeTransforms(child) {
			child.noteAncestorChange()
		}
	}
	return true
}

// invalidateSubtreeColors clears the cached draw color of d and all
// descendants (alpha multiplies down the tree).
func invalidateSubtreeColors(d *Drawable) bool {
	if !d.drawColor.Invalidate() {
		return false
	}
	for _, child := range d.children {
		if invalidateSubtreeColors(child) {
			child.noteAncestorChange()
		}
	}
	return true
}

// noteAncestorChange records that derived state changed because of an
// ancestor, so this drawable's next draw-node build picks it up.
func (d *Drawable) noteAncestorChange() {
	if d.disposed {
		return
	}
	d.invalidation |= InvalidationDrawNode
	d.drawNodeGen++
}

// --- Transform property setters ---

// SetPosition sets the local position and invalidates the transform.
func (d *Drawable) SetPosition(x, y float64) {
	if d.Position.X == x && d.Position.Y == y {
		return
	}
	d.Position = Vec2{x, y}
	d.Invalidate(InvalidationTransform, d, true)
}

// SetSize sets the drawable's size and invalidates geometry. Children
// anchored within this drawable shift with it, so their transforms are
// invalidated as well.
func (d *Drawable) SetSize(w, h float64) {
	if d.Size.X == w && d.Size.Y == h {
		return
	}
	d.Size = Vec2{w, h}
	d.Invalidate(InvalidationTransform|InvalidationMiscGeometry, d, true)
	for _, child := range d.children {
		if child.Anchor != AnchorTopLeft {
			child.Invalidate(InvalidationTransform, d, false)
		}
	}
}

// SetScale sets the local scale and invalidates the transform.
func (d *Drawable) SetScale(sx, sy float64) {
	if d.Scale.X == sx && d.Scale.Y == sy {
		return
	}
	d.Scale = Vec2{sx, sy}
	d.Invalidate(InvalidationTransform, d, true)
}

// SetRotation sets the local rotation in radians and invalidates the transform.
func (d *Drawable) SetRotation(radians float64) {
	if d.Rotation == radians {
		return
	}
	d.Rotation = radians
	d.Invalidate(InvalidationTransform, d, true)
}

// SetShear sets the local shear in radians and invalidates the transform.
func (d *Drawable) SetShear(x, y float64) {
	if d.Shear.X == x && d.Shear.Y == y {
		return
	}
	d.Shear = Vec2{x, y}
	d.Invalidate(InvalidationTransform, d, true)
}

// SetOrigin sets the transform pivot and invalidates the transform.
func (d *Drawable) SetOrigin(origin Anchor) {
	if d.Origin == origin {
		return
	}
	d.Origin = origin
	d.Invalidate(InvalidationTransform, d, true)
}

// SetAnchor sets the attachment point within the parent and invalidates the
// transform.
func (d *Drawable) SetAnchor(anchor Anchor) {
	if d.Anchor == anchor {
		return
	}
	d.Anchor = anchor
	d.Invalidate(InvalidationTransform, d, true)
}

// --- Visual property setters ---

// SetColor sets the tint color and invalidates color state.
func (d *Drawable) SetColor(c Color) {
	if d.Color == c {
		return
	}
	d.Color = c
	d.Invalidate(InvalidationColor, d, true)
}

// SetAlpha sets the opacity and invalidates color state.
func (d *Drawable) SetAlpha(a float64) {
	if d.Alpha == a {
		return
	}
	d.Alpha = a
	d.Invalidate(InvalidationColor, d, true)
}

// SetBlend sets the blend mode and invalidates the draw node.
func (d *Drawable) SetBlend(b BlendMode) {
	if d.Blend == b {
		return
	}
	d.Blend = b
	d.Invalidate(InvalidationDrawNode, d, true)
}

// SetTexture swaps the sprite texture and invalidates the draw node.
func (d *Drawable) SetTexture(tex Texture) {
	if d.Texture == tex {
		return
	}
	d.Texture = tex
	d.Invalidate(InvalidationDrawNode, d, true)
}

// SetVisible toggles visibility and invalidates presence.
func (d *Drawable) SetVisible(visible bool) {
	if d.Visible == visible {
		return
	}
	d.Visible = visible
	d.Invalidate(InvalidationPresence, d, true)
}

// SetMasking toggles child clipping and invalidates the draw node.
func (d *Drawable) SetMasking(masking bool) {
	if d.Masking == masking {
		return
	}
	d.Masking = masking
	d.Invalidate(InvalidationDrawNode, d, true)
}

// SetLifetime sets the half-open [start, end) lifetime window, in
// milliseconds on the update thread's clock.
func (d *Drawable) SetLifetime(start, end float64) {
	if d.LifetimeStart == start && d.LifetimeEnd == end {
		return
	}
	d.LifetimeStart = start
	d.LifetimeEnd = end
	d.Invalidate(InvalidationPresence, d, true)
}

// SetDepth sets the sibling draw-order override and marks the parent's
// children unsorted.
func (d *Drawable) SetDepth(depth float64) {
	if d.Depth == depth {
		return
	}
	d.Depth = depth
	if d.Parent != nil {
		d.Parent.childrenSorted = false
		d.Parent.Invalidate(InvalidationDrawNode, d, true)
	}
}

// --- Lifetime and presence ---

// IsAlive reports whether now falls within the drawable's lifetime window.
func (d *Drawable) IsAlive(now float64) bool {
	return now >= d.LifetimeStart && now < d.LifetimeEnd
}

// IsPresent reports whether the drawable participated in the most recent
// update frame. Only meaningful after UpdateSubTree has run.
func (d *Drawable) IsPresent() bool {
	return d.present
}

// --- Computed state access ---

// WorldTransform returns the drawable's world affine matrix, recomputing it
// (and any stale ancestor transforms) on demand.
func (d *Drawable) WorldTransform() [6]float64 {
	return d.worldTransform.GetOrCompute(func() [6]float64 {
		parentM := identityTransform
		var parentSize Vec2
		if d.Parent != nil {
			parentM = d.Parent.WorldTransform()
			parentSize = d.Parent.Size
		}
		return multiplyAffine(parentM, computeLocalTransform(d, parentSize))
	})
}

// DrawColor returns the drawable's effective color with ancestor alpha
// applied, recomputing on demand.
func (d *Drawable) DrawColor() Color {
	return d.drawColor.GetOrCompute(func() Color {
		c := d.Color
		c.A *= d.Alpha
		if d.Parent != nil {
			c.A *= d.Parent.DrawColor().A
		}
		return c
	})
}

// BoundingBox returns the world-space axis-aligned bounds of this drawable
// and, for containers, all of its present children.
func (d *Drawable) BoundingBox() Rect {
	return d.bounds.GetOrCompute(func() Rect {
		box := transformRect(d.WorldTransform(), Rect{0, 0, d.Size.X, d.Size.Y})
		for _, child := range d.children {
			if child.disposed {
				continue
			}
			box = box.Union(child.BoundingBox())
		}
		return box
	})
}

// --- Per-frame update ---

// UpdateSubTree advances this drawable and all present descendants by one
// update frame: presence is re-evaluated against the lifetime window, tweens
// and OnUpdate hooks run, and stale world state recomputes. Must run on the
// update thread; always completes over the whole tree before any draw-node
// generation for the same frame.
func (d *Drawable) UpdateSubTree(frame FrameInfo) {
	if d.disposed {
		return
	}
	if globalDebug {
		debugCheckUpdateThread("UpdateSubTree")
	}
	d.updateSubTree(frame)
}

func (d *Drawable) updateSubTree(frame FrameInfo) {
	present := d.Visible && d.IsAlive(frame.Current)
	if present != d.present {
		d.present = present
		// Presence already changed; record it without re-deriving.
		d.invalidation |= InvalidationPresence
		d.drawNodeGen++
		if d.Parent != nil {
			d.Parent.Invalidate(deriveParentFlags(InvalidationPresence), d, true)
		}
	}
	if !present {
		return
	}

	dt := frame.Elapsed / 1000
	d.updateTweens(dt)
	if d.OnUpdate != nil {
		d.OnUpdate(dt)
	}

	// Validate world state top-down so draw-node builds read fresh values.
	d.WorldTransform()
	d.DrawColor()

	// Snapshot the child list: an OnUpdate or tween callback may mutate it.
	d.updateBuf = append(d.updateBuf[:0], d.children...)
	for _, child := range d.updateBuf {
		if child.disposed || child.Parent != d {
			continue
		}
		child.updateSubTree(frame)
	}
}

// --- Disposal ---

// Dispose removes this drawable from its parent, marks it disposed, releases
// owned renderer resources, and recursively disposes all descendants.
func (d *Drawable) Dispose() {
	if d.disposed {
		return
	}
	d.RemoveFromParent()
	d.dispose()
}

func (d *Drawable) dispose() {
	d.disposed = true
	d.ID = 0
	for _, child := range d.children {
		child.Parent = nil
		child.dispose()
	}
	d.children = nil
	d.sortedChildren = nil
	d.updateBuf = nil
	d.Parent = nil
	if d.Texture != nil {
		d.Texture.Dispose()
		d.Texture = nil
	}
	for i := range d.drawNodes {
		d.drawNodes[i] = nil
	}
	d.tweens = nil
	d.OnUpdate = nil
	d.OnLoad = nil
	d.present = false
}

// IsDisposed reports whether this drawable has been disposed.
func (d *Drawable) IsDisposed() bool {
	return d.disposed
}

// load runs the drawable's load phase on first attachment to a tree.
func (d *Drawable) load() {
	if d.loadState != LoadStateNotLoaded {
		return
	}
	d.loadState = LoadStateLoaded
	if d.OnLoad != nil {
		d.OnLoad()
	}
}

// LoadState returns the drawable's lifecycle state.
func (d *Drawable) LoadState() LoadState {
	return d.loadState
}
