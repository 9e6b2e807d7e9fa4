package geom

import (
	"fmt"

	"github.com/paulmach/orb"
	"github.com/ungerik/go3d/float64/vec3"
)

// Data is a minimal geographic container for overlays drawn on top of the
// tiles. Coordinates are lon/lat degrees.
type Data struct {
	Points   []orb.Point
	Lines    []orb.LineString
	Polygons []orb.Polygon
	Bound    orb.Bound
}

// Add flattens g into the container and grows the bound.
func (d *Data) Add(g orb.Geometry) {
	if g == nil {
		return
	}
	first := d.Empty()
	switch g := g.(type) {
	case orb.Point:
		d.Points = append(d.Points, g)
	case orb.MultiPoint:
		d.Points = append(d.Points, g...)
	case orb.LineString:
		d.Lines = append(d.Lines, g)
	case orb.MultiLineString:
		d.Lines = append(d.Lines, g...)
	case orb.Ring:
		d.Polygons = append(d.Polygons, orb.Polygon{g})
	case orb.Polygon:
		d.Polygons = append(d.Polygons, g)
	case orb.MultiPolygon:
		d.Polygons = append(d.Polygons, g...)
	case orb.Collection:
		for _, c := range g {
			d.Add(c)
		}
		return
	case orb.Bound:
		d.Polygons = append(d.Polygons, g.ToPolygon())
	default:
		return
	}
	if first {
		d.Bound = g.Bound()
		return
	}
	d.Bound = d.Bound.Union(g.Bound())
}

func (d Data) Empty() bool {
	return len(d.Points)+len(d.Lines)+len(d.Polygons) == 0
}

func (d Data) String() string {
	return fmt.Sprintf("pts=%d ls=%d poly=%d", len(d.Points), len(d.Lines), len(d.Polygons))
}

// Polylines converts lines and polygon rings into sphere-space polylines
// using project. Points are not included; they are drawn as markers.
func (d Data) Polylines(project func(orb.Point) vec3.T) []Polyline {
	out := make([]Polyline, 0, len(d.Lines)+len(d.Polygons))
	toRing := func(ls []orb.Point, closed bool) Ring {
		r := Ring{Points: make([]vec3.T, len(ls)), Closed: closed}
		for i, p := range ls {
			r.Points[i] = project(p)
		}
		return r
	}
	for _, ls := range d.Lines {
		if len(ls) < 2 {
			continue
		}
		out = append(out, Polyline{Rings: []Ring{toRing(ls, false)}})
	}
	for _, poly := range d.Polygons {
		var pl Polyline
		for _, r := range poly {
			if len(r) < 2 {
				continue
			}
			pl.Rings = append(pl.Rings, toRing(r, true))
		}
		if len(pl.Rings) > 0 {
			out = append(out, pl)
		}
	}
	return out
}
