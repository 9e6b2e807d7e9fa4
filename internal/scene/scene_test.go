package scene

import (
	"iter"
	"math"
	"testing"
	"time"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/maptile"

	"geoglobe/internal/geom"
	"geoglobe/internal/mvt"
	"geoglobe/internal/projection"
	"geoglobe/internal/tile"
)

func builtTiles(coords ...maptile.Tile) iter.Seq2[maptile.Tile, *tile.Tile] {
	b := tile.NewBuilder(projection.Default(), 1, nil)
	rec := &mvt.Tile{Layers: []mvt.Layer{{
		Extent:   4096,
		Features: []mvt.Feature{{Geometry: []uint32{9, 0, 0, 18, 10, 0, 0, 10}}},
	}}}
	return func(yield func(maptile.Tile, *tile.Tile) bool) {
		for _, c := range coords {
			if !yield(c, b.Build(rec, c)) {
				return
			}
		}
	}
}

func TestSyncBuildsEachTileOnce(t *testing.T) {
	s := New(projection.Default(), 0, nil)
	a, b := maptile.New(0, 0, 1), maptile.New(1, 0, 1)
	if n := s.Sync(builtTiles(a)); n != 1 {
		t.Fatalf("first Sync added %d", n)
	}
	if n := s.Sync(builtTiles(a, b)); n != 1 {
		t.Fatalf("second Sync added %d, want 1", n)
	}
	if s.Len() != 2 {
		t.Errorf("Len = %d", s.Len())
	}
	m, ok := s.Mesh(b)
	if !ok || len(m.Verts) != 8 || len(m.Index) != 12 {
		t.Errorf("mesh for %v = %v, %v", b, m, ok)
	}
	n := 0
	for range s.Items() {
		n++
	}
	if n != 2 {
		t.Errorf("Items yielded %d", n)
	}
}

func TestZoomClamp(t *testing.T) {
	s := New(projection.Default(), 0, nil)
	s.SetZoom(10)
	if s.Zoom() != MaxZoom {
		t.Errorf("zoom = %v, want %v", s.Zoom(), MaxZoom)
	}
	s.Wheel(1000)
	if s.Zoom() != MinZoom {
		t.Errorf("zoom = %v, want %v", s.Zoom(), MinZoom)
	}
	s.SetZoom(1)
	s.Wheel(-1.5)
	if math.Abs(s.Zoom()-1.1) > 1e-12 {
		t.Errorf("zoom = %v, want 1.1", s.Zoom())
	}
}

func TestRotateClampsPitch(t *testing.T) {
	s := New(projection.Default(), 0, nil)
	s.Rotate(10, 0)
	if p, _ := s.Angles(); math.Abs(p-0.4*math.Pi) > 1e-12 {
		t.Errorf("pitch = %v", p)
	}
	s.Rotate(-20, 0)
	if p, _ := s.Angles(); math.Abs(p+0.4*math.Pi) > 1e-12 {
		t.Errorf("pitch = %v", p)
	}
}

func TestTickSpins(t *testing.T) {
	s := New(projection.Default(), 0, nil)
	s.Tick(time.Second)
	if _, yaw := s.Angles(); math.Abs(yaw+0.5) > 1e-12 {
		t.Errorf("yaw after 1s = %v, want -0.5", yaw)
	}
	s.Hold(true)
	s.Tick(time.Second)
	if _, yaw := s.Angles(); math.Abs(yaw+0.5) > 1e-12 {
		t.Errorf("spun while held: yaw = %v", yaw)
	}
	s.Hold(false)
	s.SetSpin(false)
	s.Tick(time.Second)
	if _, yaw := s.Angles(); math.Abs(yaw+0.5) > 1e-12 {
		t.Errorf("spun while disabled: yaw = %v", yaw)
	}
}

func TestCenterAndProjection(t *testing.T) {
	s := New(projection.Default(), 0, nil)
	c := s.Center()
	if math.Abs(c.Lon()) > 1e-9 || math.Abs(c.Lat()) > 1e-9 {
		t.Fatalf("centre at rest = %v", c)
	}
	north := s.ProjectPoint(orb.Point{0, 60})
	if !north.Front || north.Y >= 0 {
		t.Errorf("north projected to %+v, want front and above centre", north)
	}
	if back := s.ProjectPoint(orb.Point{180, 0}); back.Front {
		t.Errorf("antipode is front facing: %+v", back)
	}

	s.Rotate(0.3, 1.1)
	c = s.Center()
	v := s.ProjectPoint(c)
	if !v.Front || math.Abs(v.X) > 1e-9 || math.Abs(v.Y) > 1e-9 {
		t.Errorf("centre %v projects to %+v", c, v)
	}
	if p := s.AddMarker(); p != c || len(s.Markers()) != 1 {
		t.Errorf("marker = %v, markers = %v", p, s.Markers())
	}
}

func TestUnprojectInvertsRotatedProjection(t *testing.T) {
	s := New(projection.Default(), 0, nil)
	s.Rotate(-0.7, 2.4)
	lim := s.Limb()
	for _, sp := range [][2]float64{{0.3, -0.2}, {-0.5, 0.4}, {0.1, 0.6}, {-0.6, -0.6}} {
		x, y := sp[0]*lim, sp[1]*lim
		g, ok := s.Unproject(x, y)
		if !ok {
			t.Fatalf("Unproject(%v, %v) missed", x, y)
		}
		v := s.ProjectPoint(g)
		if !v.Front || math.Abs(v.X-x) > 1e-7 || math.Abs(v.Y-y) > 1e-7 {
			t.Errorf("(%v, %v) -> %v -> %+v", x, y, g, v)
		}
	}
}

func TestUnprojectMisses(t *testing.T) {
	s := New(projection.Default(), 0, nil)
	lim := s.Limb()
	if _, ok := s.Unproject(lim*0.99, 0); !ok {
		t.Error("ray inside the limb missed")
	}
	if _, ok := s.Unproject(lim*1.01, 0); ok {
		t.Error("ray outside the limb hit")
	}
}

func TestVisibleTiles(t *testing.T) {
	s := New(projection.Default(), 0, nil)
	if got := s.VisibleTiles(0, 1); len(got) != 1 || got[0] != maptile.New(0, 0, 0) {
		t.Errorf("zoom 0 = %v", got)
	}
	z1 := s.VisibleTiles(1, 2)
	seen := map[maptile.Tile]bool{}
	for _, c := range z1 {
		seen[c] = true
	}
	if len(z1) != 4 || len(seen) != 4 {
		t.Errorf("zoom 1 = %v, want all four tiles once", z1)
	}
	far := maptile.At(orb.Point{179.9, 0}, 3)
	for _, c := range s.VisibleTiles(3, 1) {
		if c == far {
			t.Errorf("far side tile %v reported visible", c)
		}
		if c.Z != 3 {
			t.Errorf("tile %v at wrong zoom", c)
		}
	}
}

func TestOverlayProjection(t *testing.T) {
	s := New(projection.Default(), 0.01, nil)
	var d geom.Data
	d.Add(orb.LineString{{-10, 0}, {10, 0}})
	d.Add(orb.Point{5, 5})
	o := s.AddOverlay("equator", d)
	if o.Mesh.Segments() != 1 {
		t.Fatalf("segments = %d", o.Mesh.Segments())
	}
	vs := s.Project(o.Item, nil)
	if len(vs) != 4 {
		t.Fatalf("projected %d vertices", len(vs))
	}
	for i, v := range vs {
		if !v.Front {
			t.Errorf("vertex %d not front facing: %+v", i, v)
		}
	}
	// the two edges are pushed to opposite sides of the equator
	if !(vs[0].Y < 0 && vs[2].Y > 0) && !(vs[0].Y > 0 && vs[2].Y < 0) {
		t.Errorf("edges not separated: %+v %+v", vs[0], vs[2])
	}
	if len(s.Markers()) != 1 {
		t.Errorf("markers = %v", s.Markers())
	}
	s.ClearOverlays()
	if len(s.Overlays()) != 0 || len(s.Markers()) != 0 {
		t.Error("overlays not cleared")
	}
}
