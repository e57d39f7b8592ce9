package ingest

import (
	"compress/gzip"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/paulmach/osm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wegman-software/navtiles-go/internal/navdata"
)

const sampleXML = `<?xml version="1.0" encoding="UTF-8"?>
<osm version="0.6">
  <bounds minlat="50.0" minlon="7.0" maxlat="50.01" maxlon="7.01"/>
  <node id="1" lat="50.002" lon="7.002"/>
  <node id="2" lat="50.005" lon="7.005"/>
  <node id="3" lat="50.008" lon="7.008"/>
  <node id="4" lat="50.008" lon="7.002"/>
  <node id="5" lat="50.009" lon="7.009" visible="false"/>
  <node id="6" lat="bad" lon="7.0"/>
  <node id="7" lat="50.004" lon="7.004">
    <tag k="amenity" v="cafe"/>
    <tag k="name" v="Corner Cafe"/>
  </node>
  <node id="20" lat="50.001" lon="7.006"/>
  <node id="21" lat="50.001" lon="7.009"/>
  <node id="22" lat="50.003" lon="7.009"/>
  <node id="23" lat="50.003" lon="7.006"/>
  <node id="30" lat="50.0015" lon="7.0065"/>
  <node id="31" lat="50.0015" lon="7.0075"/>
  <node id="32" lat="50.0025" lon="7.0075"/>
  <way id="10">
    <nd ref="1"/><nd ref="2"/><nd ref="3"/>
    <tag k="highway" v="primary"/>
    <tag k="name" v="Main &amp;amp; Co"/>
  </way>
  <way id="11">
    <nd ref="2"/><nd ref="4"/>
    <tag k="highway" v="residential"/>
  </way>
  <way id="12">
    <nd ref="20"/><nd ref="21"/><nd ref="22"/><nd ref="23"/><nd ref="20"/>
    <tag k="amenity" v="parking"/>
  </way>
  <way id="13">
    <nd ref="30"/><nd ref="31"/><nd ref="32"/><nd ref="30"/>
  </way>
  <way id="14">
    <nd ref="1"/><nd ref="4"/>
    <tag k="highway" v="footway"/>
  </way>
  <relation id="100">
    <member type="way" ref="12" role="outer"/>
    <member type="way" ref="13" role="inner"/>
    <tag k="type" v="multipolygon"/>
  </relation>
</osm>
`

func readSample(t *testing.T) *Document {
	t.Helper()
	r := NewXMLReader()
	doc, err := r.Read(context.Background(), strings.NewReader(sampleXML))
	require.NoError(t, err)
	return doc
}

func TestXMLReaderRead(t *testing.T) {
	r := NewXMLReader()
	doc, err := r.Read(context.Background(), strings.NewReader(sampleXML))
	require.NoError(t, err)

	require.NotNil(t, doc.Bounds)
	assert.Equal(t, 7.01, doc.Bounds.MaxLon)
	assert.Len(t, doc.Nodes, 12)
	assert.Len(t, doc.Ways, 5)
	assert.Len(t, doc.Relations, 1)

	st := r.Stats()
	assert.Equal(t, int64(1), st.Invisible)
	assert.Equal(t, int64(1), st.Skipped)

	assert.Equal(t, "Corner Cafe", doc.Nodes[4].Tags.Find("name"))
	assert.Equal(t, osm.WayNodes{{ID: 1}, {ID: 2}, {ID: 3}}, doc.Ways[0].Nodes)
	assert.Equal(t, osm.Member{Type: osm.TypeWay, Ref: 13, Role: "inner"}, doc.Relations[0].Members[1])
}

func TestXMLReaderErrors(t *testing.T) {
	t.Run("malformed", func(t *testing.T) {
		_, err := NewXMLReader().Read(context.Background(), strings.NewReader(`<osm><node id="1"`))
		if !errors.Is(err, ErrParse) {
			t.Errorf("expected ErrParse, got %v", err)
		}
	})

	t.Run("cancelled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := NewXMLReader().Read(ctx, strings.NewReader(sampleXML))
		assert.ErrorIs(t, err, context.Canceled)
	})

	t.Run("missing file", func(t *testing.T) {
		_, _, err := Open(context.Background(), filepath.Join(t.TempDir(), "none.osm"))
		assert.Error(t, err)
	})
}

func TestOpenGzip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "map.osm.gz")
	f, err := os.Create(path)
	require.NoError(t, err)
	gz := gzip.NewWriter(f)
	_, err = gz.Write([]byte(sampleXML))
	require.NoError(t, err)
	require.NoError(t, gz.Close())
	require.NoError(t, f.Close())

	doc, stats, err := Open(context.Background(), path)
	require.NoError(t, err)
	assert.Len(t, doc.Ways, 5)
	assert.Equal(t, int64(12), stats.Nodes)
}

func TestBuild(t *testing.T) {
	ds, err := NewBuilder(nil, navdata.Variant2D, nil).Build(readSample(t))
	require.NoError(t, err)

	assert.Equal(t, 0.0, ds.Bounds.Min[0])
	assert.Greater(t, ds.Bounds.Max[0], 0.0)
	assert.Len(t, ds.Nodes, 12)

	require.Len(t, ds.OriginalRoadWays, 2, "footways are not roads")
	main := ds.OriginalRoadWays[10]
	assert.Equal(t, "Main  &  Co", main.Name)
	assert.Equal(t, navdata.RoadPrimary, main.RoadType)
	assert.Equal(t, "1th Street", ds.OriginalRoadWays[11].Name)

	assert.Equal(t, []navdata.NodeID{2}, ds.OriginalIntersections)
	assert.ElementsMatch(t, []navdata.WayID{10, 11}, ds.Nodes[2].WayIDs)
	assert.Len(t, ds.Labels[navdata.LabelLOD], 3, "one candidate per node of the named road")

	require.Contains(t, ds.ParkingWays, navdata.WayID(12))
	require.Contains(t, ds.ParkingWays, navdata.WayID(13), "inner member joins the outer's category")
	assert.True(t, ds.ParkingWays[13].Inner)
	assert.False(t, ds.ParkingWays[12].Inner)
}

func TestBuildUsesNodeExtentWithoutBounds(t *testing.T) {
	doc := readSample(t)
	doc.Bounds = nil

	ds, err := NewBuilder(nil, navdata.Variant3D, nil).Build(doc)
	require.NoError(t, err)

	assert.InDelta(t, 7.002, ds.MinLonLat[0], 1e-12)
	assert.InDelta(t, 50.008, ds.MaxLonLat[1], 1e-12, "invisible nodes do not count")
	assert.Equal(t, navdata.Variant3D.DefaultUV(), ds.Nodes[1].UV)
}

func TestBuildSkipsDanglingWays(t *testing.T) {
	doc := readSample(t)
	doc.Ways = append(doc.Ways, &osm.Way{
		ID:      99,
		Visible: true,
		Nodes:   osm.WayNodes{{ID: 2}, {ID: 998}, {ID: 999}},
		Tags:    osm.Tags{{Key: "highway", Value: "primary"}},
	})

	b := NewBuilder(nil, navdata.Variant2D, nil)
	ds, err := b.Build(doc)
	require.NoError(t, err)

	assert.NotContains(t, ds.OriginalRoadWays, navdata.WayID(99))
	assert.Equal(t, int64(1), b.Skipped())
}

func TestBuildErrors(t *testing.T) {
	tests := []struct {
		name string
		doc  *Document
	}{
		{"nil document", nil},
		{"no nodes", &Document{}},
		{"no usable ways", &Document{Nodes: []*osm.Node{{ID: 1, Lat: 50, Lon: 7, Visible: true}}}},
		{"only invisible nodes", &Document{Nodes: []*osm.Node{{ID: 1, Lat: 50, Lon: 7}}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewBuilder(nil, navdata.Variant2D, nil).Build(tt.doc)
			if !errors.Is(err, ErrParse) {
				t.Errorf("expected ErrParse, got %v", err)
			}
		})
	}
}

func TestCleanString(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"Plain", "Plain"},
		{"A&amp;B", "A & B"},
		{"&quot;Quoted&quot;", " Quoted "},
	}
	for _, tt := range tests {
		if got := CleanString(tt.input); got != tt.expected {
			t.Errorf("expected %q, got %q", tt.expected, got)
		}
	}
}
