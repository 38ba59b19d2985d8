// Copyright © 2024 Ardentcraft.

package geom

import "math"

// solveQuadratic returns the real roots of a*t² + b*t + c = 0 in
// ascending order. ok is false when there are no real roots (or a is
// ~0 and b is also ~0, the degenerate "no equation" case).
func solveQuadratic(a, b, c float64) (t0, t1 float64, ok bool) {
	const eps = 1e-12
	if math.Abs(a) < eps {
		if math.Abs(b) < eps {
			return 0, 0, false
		}
		root := -c / b
		return root, root, true
	}
	disc := b*b - 4*a*c
	if disc < 0 {
		return 0, 0, false
	}
	sq := math.Sqrt(disc)
	r0 := (-b - sq) / (2 * a)
	r1 := (-b + sq) / (2 * a)
	if r0 > r1 {
		r0, r1 = r1, r0
	}
	return r0, r1, true
}
