package scene

import (
	"math"
	"sort"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/maptile"
	"github.com/ungerik/go3d/float64/quaternion"
	"github.com/ungerik/go3d/float64/vec3"
)

// Vertex is a projected point in normalised screen space: the shorter
// screen axis spans [-1, 1], +Y points down. Front is false for points on
// the far side of the globe.
type Vertex struct {
	X, Y  float64
	Front bool
}

type camera struct {
	rot    quaternion.T
	d, r2  float64
	focal  float64
	radius float64
}

func (s *Scene) camera() camera {
	d := s.distance()
	return camera{
		rot:    s.Rotation(),
		d:      d,
		r2:     s.proj.Radius * s.proj.Radius,
		focal:  1 / math.Tan(fov/2),
		radius: s.proj.Radius,
	}
}

// project maps a model-space point. The camera sits at (0, 0, -d) looking
// down +Z with -Y up, so the north pole is at the top.
func (c *camera) project(p vec3.T) Vertex {
	v := c.rot.RotatedVec3(&p)
	depth := v[2] + c.d
	if depth <= 0 {
		return Vertex{}
	}
	return Vertex{
		X:     v[0] * c.focal / depth,
		Y:     v[1] * c.focal / depth,
		Front: v[2] < -c.r2/c.d,
	}
}

// Project runs the line vertex stage over it: each vertex is pushed out
// along its normal by the scene thickness, rotated and projected. dst is
// reused when large enough.
func (s *Scene) Project(it *Item, dst []Vertex) []Vertex {
	c := s.camera()
	n := len(it.flat) / 7
	if cap(dst) < n {
		dst = make([]Vertex, n)
	}
	dst = dst[:n]
	for i := 0; i < n; i++ {
		f := it.flat[i*7 : i*7+7]
		p := vec3.T{
			float64(f[0]) + float64(f[3])*s.thickness,
			float64(f[1]) + float64(f[4])*s.thickness,
			float64(f[2]) + float64(f[5])*s.thickness,
		}
		dst[i] = c.project(p)
	}
	return dst
}

// ProjectPoint projects a geographic point on the globe surface.
func (s *Scene) ProjectPoint(pt orb.Point) Vertex {
	c := s.camera()
	return c.project(s.proj.GeographicToSphere(pt))
}

// Limb is the screen-space radius of the globe outline.
func (s *Scene) Limb() float64 {
	c := s.camera()
	a := math.Asin(math.Min(1, c.radius/c.d))
	return math.Tan(a) * c.focal
}

// Unproject casts a ray through the normalised screen point (x, y) and
// returns the geographic point it hits. ok is false when the ray misses.
func (s *Scene) Unproject(x, y float64) (orb.Point, bool) {
	c := s.camera()
	dir := vec3.T{x / c.focal, y / c.focal, 1}
	dir.Normalize()
	// |C + t*dir| = r with C = (0, 0, -d)
	b := -c.d * dir[2]
	disc := b*b - (c.d*c.d - c.r2)
	if disc < 0 {
		return orb.Point{}, false
	}
	t := -b - math.Sqrt(disc)
	hit := vec3.T{dir[0] * t, dir[1] * t, dir[2]*t - c.d}
	inv := c.rot.Inverted()
	model := inv.RotatedVec3(&hit)
	return s.proj.SphereToGeographic(model), true
}

// samples per screen axis for VisibleTiles
const visibleGrid = 21

// VisibleTiles returns the tiles at zoom z that cover the visible side of
// the globe, nearest the screen centre first. aspect is width over height.
func (s *Scene) VisibleTiles(z maptile.Zoom, aspect float64) []maptile.Tile {
	if aspect <= 0 {
		aspect = 1
	}
	sx, sy := 1.0, 1.0
	if aspect > 1 {
		sx = aspect
	} else {
		sy = 1 / aspect
	}
	type hit struct {
		t    maptile.Tile
		dist float64
	}
	best := map[maptile.Tile]float64{}
	for i := 0; i < visibleGrid; i++ {
		for j := 0; j < visibleGrid; j++ {
			x := (2*float64(i)/(visibleGrid-1) - 1) * sx
			y := (2*float64(j)/(visibleGrid-1) - 1) * sy
			pt, ok := s.Unproject(x, y)
			if !ok {
				continue
			}
			t := maptile.At(clampLat(pt), z)
			d := x*x + y*y
			if old, seen := best[t]; !seen || d < old {
				best[t] = d
			}
		}
	}
	hits := make([]hit, 0, len(best))
	for t, d := range best {
		hits = append(hits, hit{t, d})
	}
	sort.Slice(hits, func(i, j int) bool {
		if hits[i].dist != hits[j].dist {
			return hits[i].dist < hits[j].dist
		}
		a, b := hits[i].t, hits[j].t
		if a.Y != b.Y {
			return a.Y < b.Y
		}
		return a.X < b.X
	})
	out := make([]maptile.Tile, len(hits))
	for i := range hits {
		out[i] = hits[i].t
	}
	return out
}

// maptile.At is undefined past the Mercator limit
func clampLat(p orb.Point) orb.Point {
	const limit = 85.05112877980659
	p[1] = math.Max(-limit, math.Min(limit, p[1]))
	if p[0] >= 180 {
		p[0] = 179.999999
	}
	return p
}
