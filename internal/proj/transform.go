package proj

import (
	"math"

	"github.com/paulmach/orb"
)

// EarthRadius is the sphere radius used by the projector.
const EarthRadius = 6371.0

// worldScale converts a longitude span into render units
const worldScale = 64000.0

// LonLatToMetres projects target relative to origin. Each axis uses the
// haversine half-angle formula on its own, which is only an approximation
// for city-sized extents.
func LonLatToMetres(origin, target orb.Point) orb.Point {
	lat0 := origin.Lat() * math.Pi / 180
	dLon := (target.Lon() - origin.Lon()) * math.Pi / 180
	dLat := (target.Lat() - origin.Lat()) * math.Pi / 180

	sLon := math.Sin(dLon / 2)
	sLat := math.Sin(dLat / 2)
	x := 2 * EarthRadius * math.Asin(math.Sqrt(math.Cos(lat0)*math.Cos(lat0)*sLon*sLon))
	y := 2 * EarthRadius * math.Asin(math.Sqrt(sLat*sLat))
	return orb.Point{x, y}
}

// Projector maps lon/lat into the map plane anchored at the minimum corner
// of the map bounds.
type Projector struct {
	Min orb.Point
	Max orb.Point
}

// NewProjector creates a projector for the given lon/lat bounds.
func NewProjector(min, max orb.Point) *Projector {
	return &Projector{Min: min, Max: max}
}

// Project converts a lon/lat pair. Components below the origin come out
// negative.
func (p *Projector) Project(lon, lat float64) orb.Point {
	pt := LonLatToMetres(p.Min, orb.Point{lon, lat})
	if lon < p.Min.Lon() {
		pt[0] = -pt[0]
	}
	if lat < p.Min.Lat() {
		pt[1] = -pt[1]
	}
	return pt
}

// Bounds returns the projected extent of the map.
func (p *Projector) Bounds() orb.Bound {
	return orb.Bound{Min: orb.Point{0, 0}, Max: LonLatToMetres(p.Min, p.Max)}
}

// MapWorldDimensions returns the render-space size of the map, keeping
// the aspect ratio of the projected extent.
func MapWorldDimensions(minLonLat, maxLonLat orb.Point, extent orb.Point) orb.Point {
	x := (maxLonLat.Lon() - minLonLat.Lon()) * worldScale
	aspect := 1.0
	if extent[0] != 0 {
		aspect = extent[1] / extent[0]
	}
	return orb.Point{x, x * aspect}
}
