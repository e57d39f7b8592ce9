package geom

import (
	"math"

	"github.com/paulmach/orb"
)

// Side of a tile edge crossed by a segment.
type Side int

const (
	SideLeft Side = iota
	SideTop
	SideRight
	SideBottom
	SideNone
)

// SignedArea returns the shoelace area with the sign convention used for
// winding checks: positive means clockwise.
func SignedArea(ring []orb.Point) float64 {
	var area float64
	for i := range ring {
		a := ring[i]
		b := ring[(i+1)%len(ring)]
		area += (b[0] - a[0]) * (b[1] + a[1])
	}
	return area / 2
}

// IsCCW reports whether the ring winds counter-clockwise. Degenerate rings
// count as counter-clockwise.
func IsCCW(ring []orb.Point) bool {
	return SignedArea(ring) <= 0
}

// TriangleIsCCW reports the winding of a single triangle.
func TriangleIsCCW(a, b, c orb.Point) bool {
	return IsCCW([]orb.Point{a, b, c})
}

// PointInTriangle reports whether p lies strictly inside abc.
func PointInTriangle(p, a, b, c orb.Point) bool {
	v0 := Sub(c, a)
	v1 := Sub(b, a)
	v2 := Sub(p, a)
	d00 := Dot(v0, v0)
	d01 := Dot(v0, v1)
	d02 := Dot(v0, v2)
	d11 := Dot(v1, v1)
	d12 := Dot(v1, v2)
	denom := d00*d11 - d01*d01
	if denom == 0 {
		return false
	}
	u := (d11*d02 - d01*d12) / denom
	v := (d00*d12 - d01*d02) / denom
	return u > 0 && v > 0 && u+v < 1
}

// Degenerate reports whether any two vertices of the triangle coincide.
func Degenerate(a, b, c orb.Point, eps float64) bool {
	return Equal(a, b, eps) || Equal(b, c, eps) || Equal(a, c, eps)
}

// FindIntersect returns where the segment from in (inside the box) to out
// crosses the box edge, checking left, top, right and bottom in turn.
func FindIntersect(in, out, min, max orb.Point) (orb.Point, Side) {
	vertical := in[0] == out[0]
	m := (in[1] - out[1]) / (in[0] - out[0])
	c := in[1] - m*in[0]
	within := func(v, lo, hi float64) bool { return v >= lo && v <= hi }
	xAt := func(y float64) float64 {
		if vertical {
			return in[0]
		}
		return (y - c) / m
	}

	if out[0] < min[0] && !vertical {
		if y := m*min[0] + c; within(y, min[1], max[1]) {
			return orb.Point{min[0], y}, SideLeft
		}
	}
	if out[1] > max[1] {
		if x := xAt(max[1]); within(x, min[0], max[0]) && !math.IsNaN(x) {
			return orb.Point{x, max[1]}, SideTop
		}
	}
	if out[0] > max[0] && !vertical {
		if y := m*max[0] + c; within(y, min[1], max[1]) {
			return orb.Point{max[0], y}, SideRight
		}
	}
	if out[1] < min[1] {
		if x := xAt(min[1]); within(x, min[0], max[0]) && !math.IsNaN(x) {
			return orb.Point{x, min[1]}, SideBottom
		}
	}
	return orb.Point{}, SideNone
}
