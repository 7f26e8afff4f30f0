package canopy

import "math"

// identityTransform is the identity affine matrix.
var identityTransform = [6]float64{1, 0, 0, 1, 0, 0}

// computeLocalTransform computes a drawable's local affine matrix from its
// transform properties. Returns [a, b, c, d, tx, ty].
//
// Composition order:
//
//	Translate(-origin) -> Scale -> Shear -> Rotate -> Translate(position + anchor-in-parent)
func computeLocalTransform(d *Drawable, parentSize Vec2) [6]float64 {
	sx := d.Scale.X
	sy := d.Scale.Y

	sin, cos := math.Sincos(d.Rotation)

	var tanShearX, tanShearY float64
	if d.Shear.X != 0 {
		tanShearX = math.Tan(d.Shear.X)
	}
	if d.Shear.Y != 0 {
		tanShearY = math.Tan(d.Shear.Y)
	}

	// After Scale * Translate(-origin):
	//   a=sx, b=0, c=0, d=sy, tx=-ox*sx, ty=-oy*sy
	//
	// After Shear:
	a := sx
	b := tanShearY * sx
	c := tanShearX * sy
	dd := sy

	origin := d.Origin.offset(d.Size)
	ox := origin.X
	oy := origin.Y
	preTx := -ox*sx - tanShearX*oy*sy
	preTy := -tanShearY*ox*sx - oy*sy

	// After Rotate:
	ra := cos*a - sin*b
	rb := sin*a + cos*b
	rc := cos*c - sin*dd
	rd := sin*c + cos*dd
	rtx := cos*preTx - sin*preTy
	rty := sin*preTx + cos*preTy

	// After Translate(position + anchor):
	anchor := d.Anchor.offset(parentSize)
	return [6]float64{ra, rb, rc, rd, rtx + d.Position.X + anchor.X, rty + d.Position.Y + anchor.Y}
}

// multiplyAffine multiplies two 2D affine matrices: result = parent * child.
//
//	Matrix layout: [a, b, c, d, tx, ty]
//	| a  c  tx |
//	| b  d  ty |
//	| 0  0   1 |
func multiplyAffine(p, c [6]float64) [6]float64 {
	return [6]float64{
		p[0]*c[0] + p[2]*c[1],
		p[1]*c[0] + p[3]*c[1],
		p[0]*c[2] + p[2]*c[3],
		p[1]*c[2] + p[3]*c[3],
		p[0]*c[4] + p[2]*c[5] + p[4],
		p[1]*c[4] + p[3]*c[5] + p[5],
	}
}

// invertAffine computes the inverse of a 2D affine matrix.
// Returns the identity matrix if the matrix is singular (determinant ~ 0).
func invertAffine(m [6]float64) [6]float64 {
	det := m[0]*m[3] - m[2]*m[1]
	if det > -1e-12 && det < 1e-12 {
		return identityTransform
	}
	invDet := 1.0 / det
	a := m[3] * invDet
	b := -m[1] * invDet
	c := -m[2] * invDet
	d := m[0] * invDet
	return [6]float64{
		a, b, c, d,
		-(a*m[4] + c*m[5]),
		-(b*m[4] + d*m[5]),
	}
}

// transformPoint applies an affine matrix to a point.
func transformPoint(m [6]float64, x, y float64) (float64, float64) {
	return m[0]*x + m[2]*y + m[4], m[1]*x + m[3]*y + m[5]
}

// transformRect returns the axis-aligned bounding box of a rectangle after
// applying an affine matrix to its four corners.
func transformRect(m [6]float64, r Rect) Rect {
	x0, y0 := transformPoint(m, r.X, r.Y)
	x1, y1 := transformPoint(m, r.X+r.Width, r.Y)
	x2, y2 := transformPoint(m, r.X, r.Y+r.Height)
	x3, y3 := transformPoint(m, r.X+r.Width, r.Y+r.Height)
	minX := math.Min(math.Min(x0, x1), math.Min(x2, x3))
	minY := math.Min(math.Min(y0, y1), math.Min(y2, y3))
	maxX := math.Max(math.Max(x0, x1), math.Max(x2, x3))
	maxY := math.Max(math.Max(y0, y1), math.Max(y2, y3))
	return Rect{minX, minY, maxX - minX, maxY - minY}
}

// affine32 converts a [6]float64 affine matrix to [6]float32 for draw nodes.
func affine32(m [6]float64) [6]float32 {
	return [6]float32{float32(m[0]), float32(m[1]), float32(m[2]), float32(m[3]), float32(m[4]), float32(m[5])}
}
