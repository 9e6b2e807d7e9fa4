// Package tile turns decoded vector tile records into globe-space polylines.
package tile

import (
	"fmt"

	"github.com/paulmach/orb/maptile"

	"geoglobe/internal/geom"
)

// Stats summarises what a build produced.
type Stats struct {
	Layer    string
	Extent   uint32
	Features int
	Rings    int
	Points   int
	Segments int
	Skipped  int
}

func (s Stats) String() string {
	return fmt.Sprintf("layer=%q features=%d rings=%d points=%d segments=%d skipped=%d",
		s.Layer, s.Features, s.Rings, s.Points, s.Segments, s.Skipped)
}

// Tile is the immutable result of building one coordinate. Points are on the
// sphere. The extruded mesh is not kept here; the scene caches it per
// coordinate.
type Tile struct {
	Coord maptile.Tile

	polylines []geom.Polyline
	skipped   []error
	stats     Stats
}

// Polylines returns one polyline per successfully decoded feature. The
// slice is shared; callers must not modify it.
func (t *Tile) Polylines() []geom.Polyline { return t.polylines }

// Skipped returns the decode errors of features that were dropped.
func (t *Tile) Skipped() []error { return t.skipped }

func (t *Tile) Stats() Stats { return t.stats }

// Empty reports whether the tile produced no polylines. An empty tile is a
// valid result, not an error.
func (t *Tile) Empty() bool { return len(t.polylines) == 0 }

func (t *Tile) String() string {
	return fmt.Sprintf("%d/%d/%d %s", t.Coord.Z, t.Coord.X, t.Coord.Y, t.stats)
}
