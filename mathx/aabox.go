// Copyright © 2024 Ardentcraft.

package mathx

// AABox is an axis-aligned bounding box given by its low and high corners.
// Low is expected to be component-wise ≤ High; the zero value is a
// degenerate box at the origin.
type AABox struct {
	Low, High Vec3
}

// NewAABox builds a box from two arbitrary corners, sorting components so
// Low ≤ High.
func NewAABox(a, b Vec3) AABox {
	return AABox{Low: a.Min(b), High: a.Max(b)}
}

// FromPoint builds a zero-volume box at p.
func FromPoint(p Vec3) AABox { return AABox{Low: p, High: p} }

// Merge returns the smallest box containing both b and o.
func (b AABox) Merge(o AABox) AABox {
	return AABox{Low: b.Low.Min(o.Low), High: b.High.Max(o.High)}
}

// Encompass returns b expanded, if necessary, to contain p.
func (b AABox) Encompass(p Vec3) AABox {
	return AABox{Low: b.Low.Min(p), High: b.High.Max(p)}
}

// Inflate returns b expanded by d along every axis in every direction.
func (b AABox) Inflate(d float64) AABox {
	pad := V3(d, d, d)
	return AABox{Low: b.Low.Sub(pad), High: b.High.Add(pad)}
}

// Intersects reports whether b and o overlap, including touching faces.
func (b AABox) Intersects(o AABox) bool {
	return b.Low.X() <= o.High.X() && b.High.X() >= o.Low.X() &&
		b.Low.Y() <= o.High.Y() && b.High.Y() >= o.Low.Y() &&
		b.Low.Z() <= o.High.Z() && b.High.Z() >= o.Low.Z()
}

// Contains reports whether p lies within b, inclusive of the boundary.
func (b AABox) Contains(p Vec3) bool {
	return p.X() >= b.Low.X() && p.X() <= b.High.X() &&
		p.Y() >= b.Low.Y() && p.Y() <= b.High.Y() &&
		p.Z() >= b.Low.Z() && p.Z() <= b.High.Z()
}

// Center returns the midpoint of b.
func (b AABox) Center() Vec3 { return b.Low.Lerp(b.High, 0.5) }

// HalfExtents returns the half-size of b along each axis.
func (b AABox) HalfExtents() Vec3 { return b.High.Sub(b.Low).Scale(0.5) }

// HalfDiagonal returns half the box's diagonal length, used by SceneQuery's
// OverlapBox to approximate a box query with a bounding sphere.
func (b AABox) HalfDiagonal() float64 { return b.High.Sub(b.Low).Len() * 0.5 }

// SquaredDistToPoint returns the squared distance from p to the nearest
// point on (or in) b. Zero when p is inside b.
func (b AABox) SquaredDistToPoint(p Vec3) float64 {
	d := 0.0
	for i := 0; i < 3; i++ {
		v := p[i]
		if v < b.Low[i] {
			d += (b.Low[i] - v) * (b.Low[i] - v)
		} else if v > b.High[i] {
			d += (v - b.High[i]) * (v - b.High[i])
		}
	}
	return d
}
