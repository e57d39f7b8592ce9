package parquet

import (
	"path/filepath"
	"testing"

	"github.com/apache/arrow/go/v14/parquet/file"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func numRows(t *testing.T, path string) int64 {
	t.Helper()
	r, err := file.OpenParquetFile(path, false)
	require.NoError(t, err)
	defer r.Close()
	return r.NumRows()
}

func TestTileWriter(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tiles.parquet")
	w, err := NewTileWriter(path, 2)
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		require.NoError(t, w.Write(TileRow{
			Col:      1,
			Row:      int32(i),
			Category: "road",
			RoadType: "primary",
			WayID:    int64(i),
			GeomWKB:  []byte{0x01},
		}))
	}
	assert.Equal(t, int64(5), w.Rows())
	require.NoError(t, w.Close())

	assert.Equal(t, int64(5), numRows(t, path))
}

func TestLabelWriter(t *testing.T) {
	path := filepath.Join(t.TempDir(), "labels.parquet")
	w, err := NewLabelWriter(path, 100)
	require.NoError(t, err)

	require.NoError(t, w.Write(LabelRow{Kind: "label", Name: "Main Street", X: 1, Y: 2, Scale: 1}))
	require.NoError(t, w.Write(LabelRow{Kind: "icon", LOD: 3, Culled: true}))
	require.NoError(t, w.Close())

	assert.Equal(t, int64(2), numRows(t, path))
}

func TestEmptyWriter(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.parquet")
	w, err := NewTileWriter(path, 0)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	assert.Equal(t, int64(0), numRows(t, path))
}
