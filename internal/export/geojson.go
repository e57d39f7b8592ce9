package export

import (
	"fmt"
	"os"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/paulmach/orb/planar"

	"github.com/wegman-software/navtiles-go/internal/geom"
	"github.com/wegman-software/navtiles-go/internal/navdata"
)

// BuildGeoJSON collects tile outlines, the route and label points as
// features in screen space. Route points are stored mirrored through the
// origin and are flipped back here.
func BuildGeoJSON(ds *navdata.Dataset) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()

	ds.EachTile(func(t *navdata.Tile) {
		b := orb.Bound{Min: minPoint(t.ScreenMin, t.ScreenMax), Max: maxPoint(t.ScreenMin, t.ScreenMax)}
		f := geojson.NewFeature(b.ToPolygon())
		f.Properties["kind"] = "tile"
		f.Properties["col"] = t.Col
		f.Properties["row"] = t.Row
		f.Properties["triangles"] = t.TriangleCount()
		f.Properties["map_area"] = planar.Area(t.Bound.ToPolygon())
		fc.Append(f)

		for lod := 0; lod < navdata.LODCount; lod++ {
			for _, l := range t.Labels[lod] {
				f := geojson.NewFeature(l.Coords)
				f.Properties["kind"] = "label"
				f.Properties["name"] = l.Text
				f.Properties["lod"] = lod
				f.Properties["rotation"] = l.Rotation
				fc.Append(f)
			}
			for _, ic := range t.Icons[lod] {
				f := geojson.NewFeature(ic.Coords)
				f.Properties["kind"] = "icon"
				f.Properties["type"] = ic.Type.String()
				f.Properties["lod"] = lod
				fc.Append(f)
			}
		}
	})

	if len(ds.Route) > 1 {
		line := make(orb.LineString, 0, len(ds.Route))
		for _, r := range ds.Route {
			line = append(line, geom.Scale(r.Point, -1))
		}
		f := geojson.NewFeature(line)
		f.Properties["kind"] = "route"
		f.Properties["distance"] = ds.TotalRouteDistance
		fc.Append(f)
	}
	return fc
}

// WriteGeoJSON writes BuildGeoJSON's collection to path and returns the
// number of features.
func WriteGeoJSON(ds *navdata.Dataset, path string) (int64, error) {
	fc := BuildGeoJSON(ds)
	data, err := fc.MarshalJSON()
	if err != nil {
		return 0, fmt.Errorf("failed to encode geojson: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return 0, fmt.Errorf("failed to write geojson: %w", err)
	}
	return int64(len(fc.Features)), nil
}

func minPoint(a, b orb.Point) orb.Point {
	return orb.Point{min(a[0], b[0]), min(a[1], b[1])}
}

func maxPoint(a, b orb.Point) orb.Point {
	return orb.Point{max(a[0], b[0]), max(a[1], b[1])}
}
