package tiling

import (
	"github.com/paulmach/orb"

	"github.com/wegman-software/navtiles-go/internal/geom"
	"github.com/wegman-software/navtiles-go/internal/navdata"
)

// Face is a triangle of vertex values in render winding order. Ids are
// assigned when a face is inserted into a tile.
type Face [3]navdata.Node

// Points returns the face coordinates.
func (f Face) Points() [3]orb.Point {
	return [3]orb.Point{f[0].Coords, f[1].Coords, f[2].Coords}
}

// Degenerate reports whether two vertices coincide within eps.
func (f Face) Degenerate(eps float64) bool {
	return geom.Degenerate(f[0].Coords, f[1].Coords, f[2].Coords, eps)
}

// ClipResult holds the pieces of a face on either side of a plane. Front
// is the side the plane normal points to.
type ClipResult struct {
	Front []Face
	Back  []Face
}

func (r *ClipResult) add(front bool, faces ...Face) {
	if front {
		r.Front = append(r.Front, faces...)
	} else {
		r.Back = append(r.Back, faces...)
	}
}

// edge is one side of a face and where the plane crosses it
type edge struct {
	from, to navdata.Node
	dir      orb.Point
	length   float64
	t        float64
	hit      bool
}

func newEdge(a, b navdata.Node, origin, normal orb.Point) edge {
	e := edge{from: a, to: b}
	d := geom.Sub(b.Coords, a.Coords)
	e.length = geom.Length(d)
	if e.length == 0 {
		return e
	}
	e.dir = geom.Scale(d, 1/e.length)
	t, ok := geom.IntersectLinePlane(a.Coords, e.dir, origin, normal)
	e.t = t
	e.hit = ok && t > 0 && t <= e.length
	return e
}

// cut returns the vertex where the plane crosses the edge. Texture
// coordinates and height are interpolated and the vertex is marked as
// lying on a tile boundary.
func (e edge) cut() navdata.Node {
	f := e.t / e.length
	return navdata.Node{
		Coords:    geom.Add(e.from.Coords, geom.Scale(e.dir, e.t)),
		UV:        geom.Mix(e.from.UV, e.to.UV, f),
		Height:    e.from.Height + (e.to.Height-e.from.Height)*f,
		TileBound: true,
	}
}

// ClipAgainst splits a face by the line through origin with the given
// normal. A face crossing the line yields a triangle on one side and a
// quad split into two triangles on the other. A face whose vertex lies on
// the line splits into one triangle per side. Faces that do not cross go
// whole to the side of their vertices.
func ClipAgainst(f Face, origin, normal orb.Point) ClipResult {
	side := func(n navdata.Node) float64 {
		return geom.Dot(geom.Sub(n.Coords, origin), normal)
	}
	e01 := newEdge(f[0], f[1], origin, normal)
	e12 := newEdge(f[1], f[2], origin, normal)
	e20 := newEdge(f[2], f[0], origin, normal)

	hits := 0
	for _, e := range []edge{e01, e12, e20} {
		if e.hit {
			hits++
		}
	}

	var res ClipResult
	switch hits {
	case 2:
		switch {
		case !e01.hit:
			splitQuad(&res, f[0], f[1], f[2], e12, e20, side)
		case !e12.hit:
			splitQuad(&res, f[1], f[2], f[0], e20, e01, side)
		default:
			splitQuad(&res, f[2], f[0], f[1], e01, e12, side)
		}
	case 1:
		switch {
		case e01.hit:
			splitAtVertex(&res, e01, f[2], side)
		case e12.hit:
			splitAtVertex(&res, e12, f[0], side)
		default:
			splitAtVertex(&res, e20, f[1], side)
		}
	default:
		front := false
		for _, n := range f {
			if side(n) > navdata.Epsilon {
				front = true
			}
		}
		res.add(front, f)
	}
	return res
}

// splitQuad handles a face cut through two edges. q0 and q1 form the
// uncut edge, tip is the opposite vertex. toTip runs q1->tip and fromTip
// runs tip->q0.
func splitQuad(res *ClipResult, q0, q1, tip navdata.Node, toTip, fromTip edge, side func(navdata.Node) float64) {
	a := toTip.cut()
	b := fromTip.cut()
	tipFront := side(tip) > 0
	res.add(tipFront, Face{tip, b, a})
	res.add(!tipFront, Face{q0, q1, a}, Face{q0, a, b})
}

// splitAtVertex handles a face whose vertex opp lies on the plane and
// whose opposite edge e is crossed.
func splitAtVertex(res *ClipResult, e edge, opp navdata.Node, side func(navdata.Node) float64) {
	mid := e.cut()
	toFront := side(e.to) > 0
	res.add(toFront, Face{mid, e.to, opp})
	res.add(!toFront, Face{mid, opp, e.from})
}
