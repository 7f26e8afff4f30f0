package canopy

import "math"

// Color represents an RGBA color with components in [0, 1]. Not premultiplied.
// Premultiplication occurs at draw submission time.
type Color struct {
	R, G, B, A float64
}

// ColorWhite is the default tint (no color modification).
var ColorWhite = Color{1, 1, 1, 1}

// MultiplyAlpha returns the color with its alpha scaled by a.
func (c Color) MultiplyAlpha(a float64) Color {
	return Color{c.R, c.G, c.B, c.A * a}
}

// Vec2 is a 2D vector used for positions, offsets, sizes, and directions
// throughout the API.
type Vec2 struct {
	X, Y float64
}

// Add returns v + other.
func (v Vec2) Add(other Vec2) Vec2 {
	return Vec2{v.X + other.X, v.Y + other.Y}
}

// Rect is an axis-aligned rectangle. The coordinate system has its origin at
// the top-left, with Y increasing downward.
type Rect struct {
	X, Y, Width, Height float64
}

// Contains reports whether the point (x, y) lies inside the rectangle.
// Points on the edge are considered inside.
func (r Rect) Contains(x, y float64) bool {
	return x >= r.X && x <= r.X+r.Width &&
		y >= r.Y && y <= r.Y+r.Height
}

// Intersects reports whether r and other overlap.
// Adjacent rectangles (sharing only an edge) are considered intersecting.
func (r Rect) Intersects(other Rect) bool {
	return r.X <= other.X+other.Width &&
		r.X+r.Width >= other.X &&
		r.Y <= other.Y+other.Height &&
		r.Y+r.Height >= other.Y
}

// Union returns the smallest rectangle containing both r and other.
func (r Rect) Union(other Rect) Rect {
	x0 := math.Min(r.X, other.X)
	y0 := math.Min(r.Y, other.Y)
	x1 := math.Max(r.X+r.Width, other.X+other.Width)
	y1 := math.Max(r.Y+r.Height, other.Y+other.Height)
	return Rect{x0, y0, x1 - x0, y1 - y0}
}

// BlendMode selects a compositing operation. The concrete mapping to a
// graphics API blend state is the renderer's responsibility.
type BlendMode uint8

const (
	BlendNormal   BlendMode = iota // source-over (standard alpha blending)
	BlendAdd                       // additive / lighter
	BlendMultiply                  // multiply (source * destination; only darkens)
	BlendScreen                    // screen (1 - (1-src)*(1-dst); only brightens)
	BlendNone                      // opaque copy (skip blending)
)

// Kind distinguishes rendering behavior for a Drawable.
type Kind uint8

const (
	KindContainer Kind = iota // group node with no visual output of its own
	KindBox                   // solid color quad sized by the drawable's Size
	KindSprite                // textured quad sized by the drawable's Size
)

// Anchor selects a point within a rectangle, used both as a drawable's origin
// (the point its transform pivots around) and as its anchor (the point in the
// parent it is positioned relative to).
type Anchor uint8

const (
	AnchorTopLeft Anchor = iota
	AnchorTopCenter
	AnchorTopRight
	AnchorCenterLeft
	AnchorCenter
	AnchorCenterRight
	AnchorBottomLeft
	AnchorBottomCenter
	AnchorBottomRight
)

// offset returns the anchor's position within a rectangle of the given size.
func (a Anchor) offset(size Vec2) Vec2 {
	var v Vec2
	switch a {
	case AnchorTopCenter, AnchorCenter, AnchorBottomCenter:
		v.X = size.X / 2
	case AnchorTopRight, AnchorCenterRight, AnchorBottomRight:
		v.X = size.X
	}
	switch a {
	case AnchorCenterLeft, AnchorCenter, AnchorCenterRight:
		v.Y = size.Y / 2
	case AnchorBottomLeft, AnchorBottomCenter, AnchorBottomRight:
		v.Y = size.Y
	}
	return v
}

// LifetimeStart and LifetimeEnd defaults: a drawable is alive on the whole
// timeline unless told otherwise.
var (
	LifetimeMin = math.Inf(-1)
	LifetimeMax = math.Inf(1)
)
