package navdata

import (
	"errors"
	"fmt"

	"go.uber.org/zap"
)

// ErrInvariant marks an internal consistency failure of the dataset.
var ErrInvariant = errors.New("invariant violation")

// Checker reports invariant violations. In strict mode they are returned
// as errors wrapping ErrInvariant, otherwise they are logged and dropped.
type Checker struct {
	Strict bool
	log    *zap.Logger
}

// NewChecker creates a checker logging through log.
func NewChecker(strict bool, log *zap.Logger) *Checker {
	if log == nil {
		log = zap.NewNop()
	}
	return &Checker{Strict: strict, log: log}
}

// Check returns an error when cond is false and the checker is strict.
func (c *Checker) Check(cond bool, format string, args ...any) error {
	if cond {
		return nil
	}
	err := fmt.Errorf("%w: %s", ErrInvariant, fmt.Sprintf(format, args...))
	if c == nil || c.Strict {
		return err
	}
	c.log.Warn("Invariant violated", zap.Error(err))
	return nil
}

// CheckReferences verifies that every node referenced by a way exists.
func (c *Checker) CheckReferences(d *Dataset) error {
	tables := []map[WayID]*Way{d.OriginalRoadWays, d.TriangulatedRoads, d.ParkingWays, d.BuildWays}
	for _, table := range tables {
		for _, id := range SortedWayIDs(table) {
			for _, nid := range table[id].NodeIDs {
				if err := c.Check(d.Nodes[nid] != nil, "way %d references missing node %d", id, nid); err != nil {
					return err
				}
			}
		}
	}
	for _, id := range SortedWayIDs(d.ConvertedRoads) {
		for _, tri := range d.ConvertedRoads[id].Triangles {
			for _, nid := range tri {
				if err := c.Check(d.Nodes[nid] != nil, "converted way %d references missing node %d", id, nid); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

// CheckFlags verifies that roundabout and fork ways are intersections.
func (c *Checker) CheckFlags(d *Dataset) error {
	for _, id := range SortedWayIDs(d.ConvertedRoads) {
		w := d.ConvertedRoads[id]
		if (w.IsRoundabout || w.IsFork) && !w.IsIntersection {
			if err := c.Check(false, "way %d is flagged roundabout or fork but is not an intersection", id); err != nil {
				return err
			}
		}
	}
	return nil
}

// CheckTileContainment verifies that every tile triangle lies inside its
// tile within eps.
func (c *Checker) CheckTileContainment(d *Dataset, eps float64) error {
	var err error
	d.EachTile(func(t *Tile) {
		if err != nil {
			return
		}
		for _, list := range t.AllWays() {
			for _, w := range list {
				for _, tri := range w.Triangles {
					for _, nid := range tri {
						n := t.Nodes[nid]
						if n == nil {
							err = c.Check(false, "tile %d,%d missing node %d", t.Col, t.Row, nid)
						} else {
							err = c.Check(t.Contains(n.Coords, eps),
								"node %d at %v outside tile %d,%d", nid, n.Coords, t.Col, t.Row)
						}
						if err != nil {
							return
						}
					}
				}
			}
		}
	})
	return err
}
