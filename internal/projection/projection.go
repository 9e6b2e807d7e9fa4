// Package projection maps tile pixels to geographic coordinates (inverse
// spherical Web-Mercator) and geographic coordinates onto the globe.
package projection

import (
	"math"

	"github.com/cockroachdb/errors"
	"github.com/paulmach/orb"
	"github.com/ungerik/go3d/float64/vec3"
)

const (
	// DefaultTileSize makes the pixel space at zoom z exactly 2^z tile
	// units wide, which is what the tile builder's 1+z zoom expects.
	DefaultTileSize = 0.5
	DefaultRadius   = 1.0
)

// ErrZoomPrecondition is returned by ValidateZoom for zoom <= 0.
var ErrZoomPrecondition = errors.New("projection: zoom must be > 0")

// Projection holds the two constants the transforms depend on. The zero
// value is not useful; use Default.
type Projection struct {
	TileSize float64
	Radius   float64
}

func Default() Projection {
	return Projection{TileSize: DefaultTileSize, Radius: DefaultRadius}
}

// ValidateZoom checks the inverse Mercator precondition. The transforms
// themselves do not check it.
func ValidateZoom(zoom float64) error {
	if !(zoom > 0) || math.IsInf(zoom, 0) {
		return errors.Wrapf(ErrZoomPrecondition, "zoom %v", zoom)
	}
	return nil
}

type constants struct{ bc, cc, e float64 }

func (p Projection) constants(zoom float64) constants {
	c := p.TileSize * math.Pow(2, zoom)
	return constants{bc: c / 360, cc: c / (2 * math.Pi), e: c / 2}
}

// PixelToGeographic converts pixel coordinates, already offset by the tile
// index and normalised by the layer extent, to lon/lat degrees.
func (p Projection) PixelToGeographic(px, py, zoom float64) orb.Point {
	k := p.constants(zoom)
	lon := (px - k.e) / k.bc
	g := (py - k.e) / -k.cc
	lat := 2*math.Atan(math.Exp(g)) - math.Pi/2
	return orb.Point{lon, lat * 180 / math.Pi}
}

// GeographicToPixel is the forward transform of PixelToGeographic.
func (p Projection) GeographicToPixel(pt orb.Point, zoom float64) (px, py float64) {
	k := p.constants(zoom)
	px = k.e + pt.Lon()*k.bc
	s := math.Sin(pt.Lat() * math.Pi / 180)
	py = k.e - 0.5*math.Log((1+s)/(1-s))*k.cc
	return px, py
}

// GeographicToSphere places a lon/lat point on the sphere of radius
// p.Radius. Latitude is measured from the pole, so lat 90 maps to
// (0, -r, 0).
func (p Projection) GeographicToSphere(pt orb.Point) vec3.T {
	lon := pt.Lon() * math.Pi / 180
	lat := (pt.Lat() - 90) * math.Pi / 180
	r := p.Radius
	return vec3.T{
		-r * math.Sin(lat) * math.Sin(lon),
		-r * math.Cos(lat),
		r * math.Sin(lat) * math.Cos(lon),
	}
}

// SphereToGeographic inverts GeographicToSphere for any non-zero v; the
// length of v is ignored.
func (p Projection) SphereToGeographic(v vec3.T) orb.Point {
	l := v.Length()
	if l == 0 {
		return orb.Point{}
	}
	lat := 90 - math.Acos(clamp(-v[1]/l, -1, 1))*180/math.Pi
	// sin(lat-90) <= 0, so x = |s|*sin(lon) and z = -|s|*cos(lon)
	lon := math.Atan2(v[0], -v[2]) * 180 / math.Pi
	return orb.Point{lon, lat}
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
