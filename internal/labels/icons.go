// Package labels places road names, point-of-interest icons and amenity
// names, and thins them so they do not overlap.
package labels

import (
	"strings"

	"github.com/paulmach/orb"

	"github.com/wegman-software/navtiles-go/internal/navdata"
)

const (
	IconScale         = 0.005
	AmenityLabelScale = 0.003
	// amenityOffset is how far below its icon an amenity name sits
	amenityOffset = 1.2 * IconScale
	wrapAt        = 10
)

// GenerateIcon emits an icon at the centroid of coords and, for named
// places, an amenity label under it. Each name yields one icon only.
func GenerateIcon(ds *navdata.Dataset, t navdata.BuildingType, name string, coords []orb.Point) {
	if t == navdata.BuildingNone || len(coords) == 0 {
		return
	}
	if _, seen := ds.UniqueIconNames[name]; seen && name != "" {
		return
	}
	if t == navdata.BuildingOther && name == "" {
		return
	}

	var c orb.Point
	for _, p := range coords {
		c[0] += p[0]
		c[1] += p[1]
	}
	c[0] /= float64(len(coords))
	c[1] /= float64(len(coords))

	icon := navdata.Icon{Type: t, Coords: c, Scale: IconScale, LOD: navdata.IconLOD}
	ds.Icons[navdata.IconLOD] = append(ds.Icons[navdata.IconLOD], icon)

	if name == "" {
		return
	}
	ds.UniqueIconNames[name] = struct{}{}
	ds.AmenityLabels[navdata.AmenityLabelLOD] = append(ds.AmenityLabels[navdata.AmenityLabelLOD], navdata.AmenityLabel{
		Text:   WrapName(name),
		Coords: orb.Point{c[0], c[1] - amenityOffset},
		Scale:  AmenityLabelScale,
		Icon:   icon,
		LOD:    navdata.AmenityLabelLOD,
	})
}

// WrapName breaks long names onto two lines after the first space past
// the wrap column, or after the last space when there is none.
func WrapName(name string) string {
	if len(name) <= wrapAt {
		return name
	}
	idx := strings.IndexByte(name[wrapAt:], ' ')
	if idx >= 0 {
		idx += wrapAt
	} else {
		idx = strings.LastIndexByte(name, ' ')
	}
	if idx < 0 {
		return name
	}
	return name[:idx+1] + "\n" + name[idx+1:]
}
