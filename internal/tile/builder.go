package tile

import (
	"time"

	"github.com/cockroachdb/errors"
	"github.com/paulmach/orb/maptile"
	log "github.com/sirupsen/logrus"
	"github.com/ungerik/go3d/float64/vec3"

	"geoglobe/internal/geom"
	"geoglobe/internal/logging"
	"geoglobe/internal/mvt"
	"geoglobe/internal/projection"
)

// Builder runs decode, ring assembly and projection over a tile record.
type Builder struct {
	proj      projection.Projection
	assembler *geom.Assembler
	log       *log.Entry
}

// NewBuilder returns a builder. A nil logger discards output.
func NewBuilder(proj projection.Projection, minPoints int, logger *log.Entry) *Builder {
	return &Builder{
		proj:      proj,
		assembler: geom.NewAssembler(minPoints),
		log:       logging.Component(logger, "builder"),
	}
}

// Build projects every feature of the first layer of rec onto the sphere.
// Features that fail to decode are skipped and recorded; a nil record or a
// record without layers yields an empty tile.
func (b *Builder) Build(rec *mvt.Tile, c maptile.Tile) *Tile {
	t := &Tile{Coord: c}
	if rec == nil || len(rec.Layers) == 0 {
		return t
	}
	start := time.Now()
	layer := &rec.Layers[0]
	extent := float64(layer.Extent)
	if layer.Extent == 0 {
		extent = mvt.DefaultExtent
	}
	t.stats.Layer = layer.Name
	t.stats.Extent = uint32(extent)
	t.stats.Features = len(layer.Features)

	x, y := float64(c.X), float64(c.Y)
	zoom := 1 + float64(c.Z)
	toSphere := func(p vec3.T) vec3.T {
		g := b.proj.PixelToGeographic(x+p[0]/extent, y+p[1]/extent, zoom)
		return b.proj.GeographicToSphere(g)
	}

	t.polylines = make([]geom.Polyline, 0, len(layer.Features))
	for i := range layer.Features {
		pl, err := b.assembler.Polyline(layer.Features[i].Geometry)
		if err != nil {
			var de *mvt.DecodeError
			if errors.As(err, &de) {
				de.Feature = i
			}
			t.skipped = append(t.skipped, err)
			b.log.WithError(err).WithField("tile", c).Warn("feature skipped")
			continue
		}
		pl.Transform(toSphere)
		t.stats.Rings += len(pl.Rings)
		t.stats.Points += pl.Points()
		t.stats.Segments += pl.Segments()
		t.polylines = append(t.polylines, pl)
	}
	t.stats.Skipped = len(t.skipped)

	b.log.WithFields(log.Fields{
		"tile":      c,
		"polylines": len(t.polylines),
		"skipped":   t.stats.Skipped,
		"elapsed":   time.Since(start),
	}).Debug("tile built")
	return t
}
