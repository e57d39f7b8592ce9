package geom

import (
	"math"

	"github.com/paulmach/orb"
)

// RayIntersect intersects the ray p0+t*d0 with the line through p1 along
// d1. It returns the hit point and t. When the lines are parallel but
// collinear the midpoint of p0 and p1 is returned with t = 0.5.
func RayIntersect(p0, d0, p1, d1 orb.Point) (orb.Point, float64, bool) {
	if Equal(p0, p1, Eps) {
		return p0, 0, true
	}
	if t, ok := IntersectLinePlane(p0, d0, p1, Perp(d1)); ok {
		return Add(p0, Scale(d0, t)), t, true
	}
	if math.Abs(Cross(Sub(p0, p1), d0)) < Eps {
		return Midpoint(p0, p1), 0.5, true
	}
	return orb.Point{}, 0, false
}

// IntersectLinePlane returns t such that origin+t*dir lies on the line
// through planeOrigin with the given normal.
func IntersectLinePlane(origin, dir, planeOrigin, normal orb.Point) (float64, bool) {
	denom := Dot(dir, normal)
	if math.Abs(denom) < Eps {
		return 0, false
	}
	return Dot(Sub(planeOrigin, origin), normal) / denom, true
}

// VectorAngleSine returns |sin| of the angle between d0 and d1.
func VectorAngleSine(d0, d1 orb.Point) float64 {
	return math.Abs(Cross(Normalize(d0), Normalize(d1)))
}

// SegmentAngleSine returns |sin| of the angle between p0p1 and p2p3.
func SegmentAngleSine(p0, p1, p2, p3 orb.Point) float64 {
	return VectorAngleSine(Sub(p1, p0), Sub(p3, p2))
}

// PerpendicularPoints returns the points w/2 left and right of p, offset
// along the normal of dir.
func PerpendicularPoints(p, dir orb.Point, w float64) (left, right orb.Point) {
	n := Scale(Normalize(Perp(dir)), w/2)
	return Add(p, n), Sub(p, n)
}

// PerpendicularPoints3 returns the mitred left and right points at p1 for
// the polyline p0,p1,p2. The offset lines of both segments are
// intersected and the first segment's offset is used when they are
// parallel.
func PerpendicularPoints3(p0, p1, p2 orb.Point, w float64) (left, right orb.Point) {
	d1 := Sub(p1, p0)
	d2 := Sub(p2, p1)
	firstL, firstR := PerpendicularPoints(p0, d1, w)
	sec1L, sec1R := PerpendicularPoints(p1, d1, w)
	sec2L, sec2R := PerpendicularPoints(p1, d2, w)
	thirdL, thirdR := PerpendicularPoints(p2, d2, w)

	resolve := func(first, sec1, sec2, third orb.Point) orb.Point {
		if Equal(sec1, sec2, Eps) {
			return sec1
		}
		hit, _, ok := RayIntersect(first, Sub(sec1, first), third, Sub(sec2, third))
		if !ok {
			return sec1
		}
		return hit
	}
	return resolve(firstL, sec1L, sec2L, thirdL), resolve(firstR, sec1R, sec2R, thirdR)
}
