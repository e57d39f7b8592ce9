package route

import (
	"github.com/paulmach/orb"
	"go.uber.org/zap"

	"github.com/wegman-software/navtiles-go/internal/geom"
	"github.com/wegman-software/navtiles-go/internal/navdata"
)

// Convert maps the route into render space, centred on the origin with
// extent dim and mirrored through it. Each point gets the distance and
// bearing to the next one; the last point keeps the bearing of the final
// segment. The total route length is stored on the dataset and returned.
func Convert(ds *navdata.Dataset, dim orb.Point, log *zap.Logger) float64 {
	if log == nil {
		log = zap.NewNop()
	}
	ds.TotalRouteDistance = 0
	if len(ds.Route) == 0 {
		log.Info("No route to convert")
		return 0
	}

	grid := ds.GridBound()
	lo := orb.Point{-dim[0] / 2, -dim[1] / 2}
	hi := orb.Point{dim[0] / 2, dim[1] / 2}

	route := ds.Route
	total := 0.0
	for i := range route {
		route[i].Point = geom.Scale(geom.Remap(route[i].Point, grid.Min, grid.Max, lo, hi), -1)
		route[i].DistanceToNext = 0
		if i == 0 {
			continue
		}
		prev, cur := route[i-1].Point, route[i].Point
		d := geom.Distance(prev, cur)
		route[i-1].DistanceToNext = d
		route[i-1].Rotation = geom.WrapDegrees(geom.AngleBetweenPoints(prev, cur))
		total += d
	}
	if n := len(route); n > 1 {
		route[n-1].Rotation = route[n-2].Rotation
	}
	ds.TotalRouteDistance = total

	log.Info("Route converted",
		zap.Int("points", len(route)),
		zap.Float64("total_distance", total))
	return total
}
