package canopy

import (
	"github.com/tanema/gween"
	"github.com/tanema/gween/ease"
)

// TweenGroup animates up to 4 float64 fields on a Drawable simultaneously.
// Create one via the convenience constructors (MoveTo, ScaleTo, RotateTo,
// FadeTo, ColorTo) and attach it with Drawable.AddTween; the update thread
// advances it each frame, writes the values, and invalidates the affected
// aspects. If the target drawable is disposed, the group stops immediately.
type TweenGroup struct {
	tweens [4]*gween.Tween
	count  int
	fields [4]*float64
	target *Drawable
	flags  Invalidation
	Done   bool
}

// Update advances all tweens by dt seconds, writes values to the target
// fields, and invalidates the affected aspects. If the target drawable has
// been disposed, Done is set to true and no writes occur.
func (g *TweenGroup) Update(dt float32) {
	if g.Done {
		return
	}

	if g.target != nil && g.target.IsDisposed() {
		g.Done = true
		return
	}

	allDone := true
	for i := 0; i < g.count; i++ {
		val, finished := g.tweens[i].Update(dt)
		*g.fields[i] = float64(val)
		if !finished {
			allDone = false
		}
	}
	g.Done = allDone

	if g.target != nil {
		g.target.Invalidate(g.flags, g.target, true)
	}
}

// MoveTo creates a TweenGroup that animates the drawable's position to the
// given coordinates over the specified duration using the easing function.
func MoveTo(d *Drawable, toX, toY float64, duration float32, fn ease.TweenFunc) *TweenGroup {
	g := &TweenGroup{count: 2, target: d, flags: InvalidationTransform}
	g.tweens[0] = gween.New(float32(d.Position.X), float32(toX), duration, fn)
	g.tweens[1] = gween.New(float32(d.Position.Y), float32(toY), duration, fn)
	g.fields[0] = &d.Position.X
	g.fields[1] = &d.Position.Y
	return g
}

// ScaleTo creates a TweenGroup that animates the drawable's scale.
func ScaleTo(d *Drawable, toSX, toSY float64, duration float32, fn ease.TweenFunc) *TweenGroup {
	g := &TweenGroup{count: 2, target: d, flags: InvalidationTransform}
	g.tweens[0] = gween.New(float32(d.Scale.X), float32(toSX), duration, fn)
	g.tweens[1] = gween.New(float32(d.Scale.Y), float32(toSY), duration, fn)
	g.fields[0] = &d.Scale.X
	g.fields[1] = &d.Scale.Y
	return g
}

// RotateTo creates a TweenGroup that animates the drawable's rotation, in
// radians.
func RotateTo(d *Drawable, toRadians float64, duration float32, fn ease.TweenFunc) *TweenGroup {
	g := &TweenGroup{count: 1, target: d, flags: InvalidationTransform}
	g.tweens[0] = gween.New(float32(d.Rotation), float32(toRadians), duration, fn)
	g.fields[0] = &d.Rotation
	return g
}

// FadeTo creates a TweenGroup that animates the drawable's alpha.
func FadeTo(d *Drawable, toAlpha float64, duration float32, fn ease.TweenFunc) *TweenGroup {
	g := &TweenGroup{count: 1, target: d, flags: InvalidationColor}
	g.tweens[0] = gween.New(float32(d.Alpha), float32(toAlpha), duration, fn)
	g.fields[0] = &d.Alpha
	return g
}

// ColorTo creates a TweenGroup that animates all four components of the
// drawable's color (R, G, B, A) to the target color.
func ColorTo(d *Drawable, to Color, duration float32, fn ease.TweenFunc) *TweenGroup {
	g := &TweenGroup{count: 4, target: d, flags: InvalidationColor}
	g.tweens[0] = gween.New(float32(d.Color.R), float32(to.R), duration, fn)
	g.tweens[1] = gween.New(float32(d.Color.G), float32(to.G), duration, fn)
	g.tweens[2] = gween.New(float32(d.Color.B), float32(to.B), duration, fn)
	g.tweens[3] = gween.New(float32(d.Color.A), float32(to.A), duration, fn)
	g.fields[0] = &d.Color.R
	g.fields[1] = &d.Color.G
	g.fields[2] = &d.Color.B
	g.fields[3] = &d.Color.A
	return g
}

// AddTween attaches a tween group to this drawable; the update thread
// advances it each frame until it finishes. No-op on disposed drawables.
func (d *Drawable) AddTween(g *TweenGroup) {
	if d.disposed || g == nil {
		return
	}
	d.tweens = append(d.tweens, g)
}

// updateTweens advances active tweens and compacts out finished ones.
func (d *Drawable) updateTweens(dt float64) {
	if len(d.tweens) == 0 {
		return
	}
	kept := d.tweens[:0]
	for _, g := range d.tweens {
		g.Update(float32(dt))
		if !g.Done {
			kept = append(kept, g)
		}
	}
	for i := len(kept); i < len(d.tweens); i++ {
		d.tweens[i] = nil
	}
	d.tweens = kept
}
