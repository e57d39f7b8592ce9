package wkb

import (
	"encoding/binary"
	"testing"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/encoding/ewkb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodePoint(t *testing.T) {
	e := NewEncoder(32)
	b := e.EncodePoint(orb.Point{1.5, -2})

	require.Len(t, b, 25)
	assert.Equal(t, byte(0x01), b[0])
	assert.Equal(t, uint32(wkbPoint|wkbSRIDFlag), binary.LittleEndian.Uint32(b[1:5]))
	assert.Equal(t, uint32(SRIDPlanar), binary.LittleEndian.Uint32(b[5:9]))

	geom, srid, err := ewkb.Unmarshal(b)
	require.NoError(t, err)
	assert.Equal(t, SRIDPlanar, srid)
	assert.Equal(t, orb.Point{1.5, -2}, geom)
}

func TestEncodeTriangleClosesRing(t *testing.T) {
	e := NewEncoderWithSRID(0, 3857)
	b := e.EncodeTriangle(orb.Point{0, 0}, orb.Point{1, 0}, orb.Point{0, 1})

	geom, srid, err := ewkb.Unmarshal(b)
	require.NoError(t, err)
	assert.Equal(t, 3857, srid)
	poly, ok := geom.(orb.Polygon)
	require.True(t, ok, "expected a polygon, got %T", geom)
	require.Len(t, poly, 1)
	assert.Equal(t, orb.Ring{{0, 0}, {1, 0}, {0, 1}, {0, 0}}, poly[0])
}

func TestEncodePolygonKeepsClosedRing(t *testing.T) {
	e := NewEncoder(0)
	ring := []orb.Point{{0, 0}, {2, 0}, {2, 2}, {0, 0}}
	b := e.EncodePolygon(ring)

	assert.Equal(t, uint32(4), binary.LittleEndian.Uint32(b[13:17]))
}

func TestEncodeLineString(t *testing.T) {
	e := NewEncoder(0)
	b := e.EncodeLineString([]orb.Point{{0, 0}, {3, 4}})

	geom, _, err := ewkb.Unmarshal(b)
	require.NoError(t, err)
	assert.Equal(t, orb.LineString{{0, 0}, {3, 4}}, geom)
}

func TestEncoderReuse(t *testing.T) {
	e := NewEncoder(8)
	first := append([]byte(nil), e.EncodePoint(orb.Point{1, 1})...)
	e.EncodeLineString([]orb.Point{{0, 0}, {1, 1}, {2, 2}})
	again := e.EncodePoint(orb.Point{1, 1})

	assert.Equal(t, first, again)
}
