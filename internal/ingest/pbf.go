package ingest

import (
	"context"
	"fmt"
	"io"
	"os"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/paulmach/osm"
	"github.com/paulmach/osm/osmpbf"
	"go.uber.org/zap"

	"github.com/wegman-software/navtiles-go/internal/logger"
)

// progressInterval is how often the PBF reader logs element counts
const progressInterval = 2 * time.Second

// ReadPBF loads every element of a PBF file into a Document. The bounds
// come from the file header when present.
func ReadPBF(ctx context.Context, filename string) (*Document, Stats, error) {
	log := logger.Named("ingest")
	var stats Stats

	f, err := os.Open(filename)
	if err != nil {
		return nil, stats, fmt.Errorf("failed to open PBF file: %w", err)
	}
	defer f.Close()

	scanner := osmpbf.New(ctx, f, runtime.NumCPU())
	defer scanner.Close()

	doc := &Document{}
	if header, err := scanner.Header(); err == nil && header.Bounds != nil {
		doc.Bounds = header.Bounds
	}

	var count atomic.Int64
	tickCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		ticker := time.NewTicker(progressInterval)
		defer ticker.Stop()
		for {
			select {
			case <-tickCtx.Done():
				return
			case <-ticker.C:
				log.Debug("PBF read progress", zap.Int64("elements", count.Load()))
			}
		}
	}()

	for scanner.Scan() {
		switch o := scanner.Object().(type) {
		case *osm.Node:
			// only history files carry visibility, extracts are all current
			o.Visible = true
			doc.Nodes = append(doc.Nodes, o)
			stats.Nodes++
		case *osm.Way:
			o.Visible = true
			doc.Ways = append(doc.Ways, o)
			stats.Ways++
		case *osm.Relation:
			doc.Relations = append(doc.Relations, o)
			stats.Relations++
		}
		count.Add(1)
	}

	if err := scanner.Err(); err != nil && err != io.EOF {
		return nil, stats, fmt.Errorf("%w: PBF decode error: %v", ErrParse, err)
	}

	return doc, stats, nil
}
