// Package geom holds the 2D vector math shared by the geometry stages.
// Points are orb.Point values in projected map units.
package geom

import (
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
)

// Eps is the tolerance used for approximate point equality.
const Eps = 1e-5

func Add(a, b orb.Point) orb.Point { return orb.Point{a[0] + b[0], a[1] + b[1]} }

func Sub(a, b orb.Point) orb.Point { return orb.Point{a[0] - b[0], a[1] - b[1]} }

func Scale(a orb.Point, s float64) orb.Point { return orb.Point{a[0] * s, a[1] * s} }

func Dot(a, b orb.Point) float64 { return a[0]*b[0] + a[1]*b[1] }

// Cross returns the z component of the 3D cross product of a and b.
func Cross(a, b orb.Point) float64 { return a[0]*b[1] - a[1]*b[0] }

func Length(a orb.Point) float64 { return math.Hypot(a[0], a[1]) }

// Distance is the planar distance between a and b.
func Distance(a, b orb.Point) float64 { return planar.Distance(a, b) }

// Normalize returns a unit vector, or the zero vector for zero input.
func Normalize(a orb.Point) orb.Point {
	l := Length(a)
	if l == 0 {
		return orb.Point{}
	}
	return orb.Point{a[0] / l, a[1] / l}
}

// Mix linearly interpolates between a and b.
func Mix(a, b orb.Point, t float64) orb.Point {
	return orb.Point{a[0] + (b[0]-a[0])*t, a[1] + (b[1]-a[1])*t}
}

// Perp rotates a by 90 degrees counter-clockwise.
func Perp(a orb.Point) orb.Point { return orb.Point{-a[1], a[0]} }

// Equal reports whether a and b are within eps on both axes.
func Equal(a, b orb.Point, eps float64) bool {
	return math.Abs(a[0]-b[0]) <= eps && math.Abs(a[1]-b[1]) <= eps
}

// Midpoint returns the point halfway between a and b.
func Midpoint(a, b orb.Point) orb.Point { return Mix(a, b, 0.5) }

// MidPointToward returns the midpoint of p1p2 moved halfway toward p3.
func MidPointToward(p1, p2, p3 orb.Point) orb.Point {
	return Midpoint(Midpoint(p1, p2), p3)
}

// Remap maps p from the box [fromMin,fromMax] to [toMin,toMax] per axis.
func Remap(p, fromMin, fromMax, toMin, toMax orb.Point) orb.Point {
	var out orb.Point
	for i := 0; i < 2; i++ {
		span := fromMax[i] - fromMin[i]
		if span == 0 {
			out[i] = toMin[i]
			continue
		}
		out[i] = toMin[i] + (p[i]-fromMin[i])*(toMax[i]-toMin[i])/span
	}
	return out
}

// AngleBetweenPoints returns the bearing from a to b in degrees in [0,360).
func AngleBetweenPoints(a, b orb.Point) float64 {
	d := Sub(b, a)
	deg := math.Atan2(d[1], d[0]) * 180 / math.Pi
	if deg < 0 {
		deg += 360
	}
	if deg >= 360 {
		deg -= 360
	}
	return deg
}

// WrapDegrees maps an angle into (-180,180].
func WrapDegrees(deg float64) float64 {
	deg = math.Mod(deg, 360)
	if deg <= -180 {
		deg += 360
	} else if deg > 180 {
		deg -= 360
	}
	return deg
}

// AngleBetweenVectors returns the unsigned angle between a and b in degrees.
func AngleBetweenVectors(a, b orb.Point) float64 {
	c := Dot(Normalize(a), Normalize(b))
	c = math.Max(-1, math.Min(1, c))
	return math.Acos(c) * 180 / math.Pi
}
