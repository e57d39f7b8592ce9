package ingest

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/paulmach/orb"
	"github.com/paulmach/osm"
	"go.uber.org/zap"

	"github.com/wegman-software/navtiles-go/internal/labels"
	"github.com/wegman-software/navtiles-go/internal/navdata"
	"github.com/wegman-software/navtiles-go/internal/proj"
	"github.com/wegman-software/navtiles-go/internal/style"
)

// Open reads an OSM file, choosing the decoder by extension.
func Open(ctx context.Context, filename string) (*Document, Stats, error) {
	if strings.HasSuffix(filename, ".pbf") {
		return ReadPBF(ctx, filename)
	}
	r := NewXMLReader()
	doc, err := r.ReadFile(ctx, filename)
	return doc, r.Stats(), err
}

// Builder turns a Document into a populated Dataset
type Builder struct {
	classifier *style.Classifier
	variant    navdata.Variant
	log        *zap.Logger

	unnamed int
	skipped int64
}

// NewBuilder creates a builder using the given classification table
func NewBuilder(classifier *style.Classifier, variant navdata.Variant, log *zap.Logger) *Builder {
	if classifier == nil {
		classifier = style.NewClassifier(nil)
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Builder{classifier: classifier, variant: variant, log: log}
}

// Skipped returns the number of elements dropped while building
func (b *Builder) Skipped() int64 {
	return b.skipped
}

// Build projects nodes, classifies ways and seeds labels and icons. It
// fails with ErrParse when no nodes or no usable ways remain.
func (b *Builder) Build(doc *Document) (*navdata.Dataset, error) {
	if doc == nil || len(doc.Nodes) == 0 {
		return nil, fmt.Errorf("%w: document has no nodes", ErrParse)
	}

	ds := navdata.New(b.variant)
	bounds := doc.Bounds
	if bounds == nil {
		bounds = nodeExtent(doc.Nodes)
		b.log.Warn("No bounds element, using node extent",
			zap.Float64("min_lon", bounds.MinLon), zap.Float64("min_lat", bounds.MinLat),
			zap.Float64("max_lon", bounds.MaxLon), zap.Float64("max_lat", bounds.MaxLat))
	}
	ds.MinLonLat = orb.Point{bounds.MinLon, bounds.MinLat}
	ds.MaxLonLat = orb.Point{bounds.MaxLon, bounds.MaxLat}
	projector := proj.NewProjector(ds.MinLonLat, ds.MaxLonLat)
	ds.Bounds = projector.Bounds()

	for _, n := range doc.Nodes {
		if !n.Visible {
			b.skipped++
			continue
		}
		node := &navdata.Node{
			ID:     navdata.NodeID(n.ID),
			Coords: projector.Project(n.Lon, n.Lat),
			UV:     b.variant.DefaultUV(),
		}
		ds.AddNode(node)
		labels.GenerateIcon(ds, navdata.BuildingTypeFromTags(n.Tags), CleanString(n.Tags.Find("name")), []orb.Point{node.Coords})
	}
	if len(ds.Nodes) == 0 {
		return nil, fmt.Errorf("%w: document has no visible nodes", ErrParse)
	}

	raw := make(map[navdata.WayID]*osm.Way, len(doc.Ways))
	for _, w := range doc.Ways {
		raw[navdata.WayID(w.ID)] = w
		b.addWay(ds, w)
	}
	for _, rel := range doc.Relations {
		b.addMultipolygon(ds, rel, raw)
	}

	if len(ds.OriginalRoadWays) == 0 && len(ds.ParkingWays) == 0 && len(ds.BuildWays) == 0 {
		return nil, fmt.Errorf("%w: document has no road, parking or building ways", ErrParse)
	}

	b.log.Info("Dataset built",
		zap.Int("nodes", len(ds.Nodes)),
		zap.Int("roads", len(ds.OriginalRoadWays)),
		zap.Int("parking", len(ds.ParkingWays)),
		zap.Int("buildings", len(ds.BuildWays)),
		zap.Int("junctions", len(ds.OriginalIntersections)),
		zap.Int64("skipped", b.skipped))
	return ds, nil
}

// nodeRefs keeps the refs that resolve to known nodes
func (b *Builder) nodeRefs(ds *navdata.Dataset, w *osm.Way) []navdata.NodeID {
	ids := make([]navdata.NodeID, 0, len(w.Nodes))
	for _, wn := range w.Nodes {
		id := navdata.NodeID(wn.ID)
		if ds.Nodes[id] == nil {
			continue
		}
		ids = append(ids, id)
	}
	return ids
}

func (b *Builder) addWay(ds *navdata.Dataset, w *osm.Way) {
	if !w.Visible {
		b.skipped++
		return
	}
	cls := b.classifier.Classify(w.Tags)
	if !cls.Matched {
		return
	}
	ids := b.nodeRefs(ds, w)
	if len(ids) < 2 {
		b.skipped++
		b.log.Debug("Way has too few resolvable nodes", zap.Int64("way", int64(w.ID)))
		return
	}

	way := &navdata.Way{
		ID:       navdata.WayID(w.ID),
		NodeIDs:  ids,
		Tags:     w.Tags,
		Name:     CleanString(w.Tags.Find("name")),
		Type:     cls.Type,
		RoadType: navdata.RoadNone,
		Area:     cls.Area,
	}
	ds.ReserveWayID(way.ID)

	switch cls.Type {
	case navdata.WayRoad:
		b.addRoad(ds, way)
	case navdata.WayParking:
		ds.ParkingWays[way.ID] = way
		labels.GenerateIcon(ds, navdata.BuildingTypeFromTags(w.Tags), way.Name, ds.Coords(ids))
	case navdata.WayBuilding:
		ds.BuildWays[way.ID] = way
		labels.GenerateIcon(ds, navdata.BuildingTypeFromTags(w.Tags), way.Name, ds.Coords(ids))
	}
}

func (b *Builder) addRoad(ds *navdata.Dataset, way *navdata.Way) {
	way.RoadType, way.Width = b.classifier.RoadStyle(way.Tags.Find("highway"))
	way.OnRoundabout = way.Tags.Find("junction") == "roundabout"
	way.OneWay = way.Tags.Find("oneway") == "yes"

	if !way.Area {
		for _, id := range way.NodeIDs {
			n := ds.Nodes[id]
			n.WayIDs = append(n.WayIDs, way.ID)
			if len(n.WayIDs) == 2 {
				ds.OriginalIntersections = append(ds.OriginalIntersections, id)
			}
		}
	}

	if way.Name == "" {
		b.unnamed++
		way.Name = fmt.Sprintf("%dth Street", b.unnamed)
	} else if !way.OnRoundabout {
		for _, id := range way.NodeIDs {
			ds.Labels[navdata.LabelLOD] = append(ds.Labels[navdata.LabelLOD], navdata.Label{
				Text:   way.Name,
				Coords: ds.Nodes[id].Coords,
				Scale:  way.Width,
				WayID:  way.ID,
				LOD:    navdata.LabelLOD,
			})
		}
	}

	ds.OriginalRoadWays[way.ID] = way
}

// addMultipolygon applies the outer member's category to the relation and
// flags its inner members
func (b *Builder) addMultipolygon(ds *navdata.Dataset, rel *osm.Relation, raw map[navdata.WayID]*osm.Way) {
	if rel.Tags.Find("type") != "multipolygon" {
		return
	}

	category := navdata.WayDefault
	if cls := b.classifier.Classify(rel.Tags); cls.Matched {
		category = cls.Type
	}
	for _, m := range rel.Members {
		if m.Type != osm.TypeWay || m.Role != "outer" {
			continue
		}
		id := navdata.WayID(m.Ref)
		if _, ok := ds.ParkingWays[id]; ok {
			category = navdata.WayParking
		} else if _, ok := ds.BuildWays[id]; ok {
			category = navdata.WayBuilding
		}
	}
	if category != navdata.WayParking && category != navdata.WayBuilding {
		return
	}

	for _, m := range rel.Members {
		if m.Type != osm.TypeWay || m.Role != "inner" {
			continue
		}
		id := navdata.WayID(m.Ref)
		way := ds.ParkingWays[id]
		if way == nil {
			way = ds.BuildWays[id]
		}
		if way == nil {
			w, ok := raw[id]
			if !ok {
				continue
			}
			ids := b.nodeRefs(ds, w)
			if len(ids) < 3 {
				b.skipped++
				continue
			}
			way = &navdata.Way{ID: id, NodeIDs: ids, Tags: w.Tags, Type: category, RoadType: navdata.RoadNone}
			ds.ReserveWayID(id)
			if category == navdata.WayParking {
				ds.ParkingWays[id] = way
			} else {
				ds.BuildWays[id] = way
			}
		}
		way.Inner = true
	}
}

// CleanString replaces leftover escaped entities in names
func CleanString(s string) string {
	s = strings.ReplaceAll(s, "&amp;", " & ")
	return strings.ReplaceAll(s, "&quot;", " ")
}

func nodeExtent(nodes []*osm.Node) *osm.Bounds {
	b := &osm.Bounds{
		MinLat: math.Inf(1), MinLon: math.Inf(1),
		MaxLat: math.Inf(-1), MaxLon: math.Inf(-1),
	}
	for _, n := range nodes {
		b.MinLat = math.Min(b.MinLat, n.Lat)
		b.MinLon = math.Min(b.MinLon, n.Lon)
		b.MaxLat = math.Max(b.MaxLat, n.Lat)
		b.MaxLon = math.Max(b.MaxLon, n.Lon)
	}
	return b
}
