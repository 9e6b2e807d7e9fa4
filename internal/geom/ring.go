package geom

import "github.com/ungerik/go3d/float64/vec3"

// DefaultMinPoints is the ring retention threshold: a ring must hold MORE
// than this many points to survive assembly.
const DefaultMinPoints = 1

// Ring is an ordered point path. Points are in tile pixel space (z=0) until
// the tile builder projects them onto the sphere in place.
type Ring struct {
	Points []vec3.T
	Closed bool
}

// Close is the normalisation hook run on every retained ring. Geometry is
// left untouched (the first point is not repeated); a ring whose ends already
// coincide is marked closed.
func (r *Ring) Close() {
	n := len(r.Points)
	if n > 1 && r.Points[0] == r.Points[n-1] {
		r.Closed = true
	}
}

// Segments is the number of consecutive point pairs.
func (r *Ring) Segments() int {
	if len(r.Points) < 2 {
		return 0
	}
	return len(r.Points) - 1
}

// Polyline groups the rings decoded from one feature.
type Polyline struct {
	Rings []Ring
}

func (p *Polyline) Points() int {
	n := 0
	for i := range p.Rings {
		n += len(p.Rings[i].Points)
	}
	return n
}

func (p *Polyline) Segments() int {
	n := 0
	for i := range p.Rings {
		n += p.Rings[i].Segments()
	}
	return n
}

// Transform replaces every point with fn(point).
func (p *Polyline) Transform(fn func(vec3.T) vec3.T) {
	for i := range p.Rings {
		pts := p.Rings[i].Points
		for j := range pts {
			pts[j] = fn(pts[j])
		}
	}
}
