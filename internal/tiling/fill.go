package tiling

import (
	"github.com/wegman-software/navtiles-go/internal/labels"
	"github.com/wegman-software/navtiles-go/internal/navdata"
)

// FillLabelTiles moves the road labels of one LOD into their tiles and
// records each label's distance to the tile edge.
func FillLabelTiles(ds *navdata.Dataset, lod navdata.LOD) int {
	n := 0
	for _, l := range ds.Labels[lod] {
		if !ds.InBounds(l.Coords) {
			continue
		}
		col, row := FindTile2(ds, &l.Coords)
		t := ds.Tiles[col][row]
		labels.ProcessLabelBoundary(&l, t.Bound)
		t.Labels[lod] = append(t.Labels[lod], l)
		n++
	}
	return n
}

// FillIconTiles moves the icons of one LOD into their tiles.
func FillIconTiles(ds *navdata.Dataset, lod navdata.LOD) int {
	n := 0
	for _, icon := range ds.Icons[lod] {
		if !ds.InBounds(icon.Coords) {
			continue
		}
		col, row := FindTile2(ds, &icon.Coords)
		t := ds.Tiles[col][row]
		t.Icons[lod] = append(t.Icons[lod], icon)
		n++
	}
	return n
}

// FillAmenityTiles moves the amenity labels of one LOD into their tiles.
func FillAmenityTiles(ds *navdata.Dataset, lod navdata.LOD) int {
	n := 0
	for _, l := range ds.AmenityLabels[lod] {
		if !ds.InBounds(l.Coords) {
			continue
		}
		col, row := FindTile2(ds, &l.Coords)
		t := ds.Tiles[col][row]
		t.AmenityLabels[lod] = append(t.AmenityLabels[lod], l)
		n++
	}
	return n
}
