// Package geometry turns road polylines and closed outlines into triangles.
package geometry

import (
	"math"

	"github.com/paulmach/orb"

	"github.com/wegman-software/navtiles-go/internal/geom"
	"github.com/wegman-software/navtiles-go/internal/navdata"
)

// Turn angles outside (minTurn, maxTurn) degrees are left sharp.
const (
	minTurn = 15.0
	maxTurn = 165.0
	// maxCurveFactor caps how far along each edge the curve starts
	maxCurveFactor = 0.45
	maxCurveSteps  = 9
)

// Tessellate rounds sharp corners of a road by inserting points on a
// quadratic curve around each eligible corner. The corner node itself is
// moved onto the curve. Junction corners, out of bounds corners and short
// edges are kept as they are.
func Tessellate(ds *navdata.Dataset, way *navdata.Way) []navdata.NodeID {
	ids := way.NodeIDs
	if len(ids) < 3 {
		return append([]navdata.NodeID(nil), ids...)
	}

	out := make([]navdata.NodeID, 0, len(ids))
	out = append(out, ids[0])
	middleAdded := false
	var lastOnCurve orb.Point

	for i := 1; i < len(ids)-1; i++ {
		node0 := ds.Nodes[ids[i-1]]
		node1 := ds.Nodes[ids[i]]
		node2 := ds.Nodes[ids[i+1]]
		p0, p1, p2 := node0.Coords, node1.Coords, node2.Coords

		from := p0
		if middleAdded {
			from = lastOnCurve
		}
		lenv1 := geom.Distance(p0, p1)
		lenv2 := geom.Distance(p1, p2)
		angle := geom.AngleBetweenVectors(geom.Sub(from, p1), geom.Sub(p2, p1))

		eligible := ds.InBounds(p1) && len(node1.WayIDs) == 1 &&
			angle > minTurn && angle < maxTurn &&
			math.Min(lenv1, lenv2) > 0.4*way.Width
		if !eligible {
			out = append(out, node1.ID)
			middleAdded = false
			continue
		}

		stepsForAngle := 1 + int((1-angle/180)*maxCurveSteps)
		f1 := math.Min(maxCurveFactor, 0.25*way.Width*float64(stepsForAngle)/lenv1)
		f2 := math.Min(maxCurveFactor, 0.25*way.Width*float64(stepsForAngle)/lenv2)
		segSize := math.Min(f1*lenv1, f1*lenv2)
		segFactor := math.Min(f1, f2)

		start := geom.Add(p1, geom.Scale(geom.Normalize(geom.Sub(p0, p1)), segSize))
		end := geom.Add(p1, geom.Scale(geom.Normalize(geom.Sub(p2, p1)), segSize))
		numSteps := stepsForAngle
		if s := int(5 * segFactor / maxCurveFactor); s < numSteps {
			numSteps = s
		}
		step := 1 / float64(1+numSteps)

		moved := false
		for k := 0; k <= numSteps+1; k++ {
			t := float64(k) * step
			p := geom.Mix(geom.Mix(start, p1, t), geom.Mix(p1, end, t), t)
			if !moved && t >= 0.5 {
				node1.Coords = p
				out = append(out, node1.ID)
				moved = true
			} else {
				n := ds.NewNode(p, node1.UV)
				n.WayIDs = []navdata.WayID{way.ID}
				out = append(out, n.ID)
			}
			lastOnCurve = p
		}
		middleAdded = true
	}

	out = append(out, ids[len(ids)-1])
	return out
}
