// Package scene keeps the render-side state of the globe: extruded meshes
// per loaded tile, overlays, markers and the view rotation.
package scene

import (
	"iter"
	"math"
	"time"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/maptile"
	log "github.com/sirupsen/logrus"
	"github.com/ungerik/go3d/float64/quaternion"

	"geoglobe/internal/geom"
	"geoglobe/internal/logging"
	"geoglobe/internal/mesh"
	"geoglobe/internal/projection"
	"geoglobe/internal/tile"
)

const (
	MinZoom = 0.33
	MaxZoom = 2.98

	// pitch is limited to +-maxPitch radians
	maxPitch = math.Pi * 0.4
	// radians per second while idle
	spinRate = -0.5
	// radians per pixel of drag at zoom 1
	dragRate = 0.0025
	// camera distance is radius * (cameraBase - zoom)
	cameraBase = 4.0
	fov        = math.Pi / 4
)

// Item is a mesh together with its flattened vertex buffer.
type Item struct {
	Mesh *mesh.LineMesh
	flat []float32
}

func newItem(m *mesh.LineMesh) *Item { return &Item{Mesh: m, flat: m.Vertices()} }

// Overlay is user geometry drawn over the tiles.
type Overlay struct {
	Name string
	Data geom.Data
	*Item
}

// Scene is not safe for concurrent use.
type Scene struct {
	proj      projection.Projection
	thickness float64
	log       *log.Entry

	pitch, yaw float64
	zoom       float64
	spin       bool
	holding    bool

	meshes   map[maptile.Tile]*Item
	order    []maptile.Tile
	overlays []Overlay
	markers  []orb.Point
}

func New(proj projection.Projection, thickness float64, logger *log.Entry) *Scene {
	return &Scene{
		proj:      proj,
		thickness: thickness,
		log:       logging.Component(logger, "scene"),
		zoom:      1,
		spin:      true,
		meshes:    map[maptile.Tile]*Item{},
	}
}

// Sync extrudes every tile it has not seen yet and returns how many were
// added. Meshes are never dropped.
func (s *Scene) Sync(tiles iter.Seq2[maptile.Tile, *tile.Tile]) int {
	added := 0
	for c, t := range tiles {
		if _, ok := s.meshes[c]; ok || t == nil {
			continue
		}
		m := mesh.Extrude(t.Polylines())
		s.meshes[c] = newItem(m)
		s.order = append(s.order, c)
		added++
		s.log.WithFields(log.Fields{
			"tile":     c,
			"vertices": len(m.Verts),
			"indices":  len(m.Index),
		}).Debug("mesh built")
	}
	return added
}

// Mesh returns the mesh built for c.
func (s *Scene) Mesh(c maptile.Tile) (*mesh.LineMesh, bool) {
	it, ok := s.meshes[c]
	if !ok {
		return nil, false
	}
	return it.Mesh, true
}

// Items yields tile meshes in the order they were built.
func (s *Scene) Items() iter.Seq2[maptile.Tile, *Item] {
	return func(yield func(maptile.Tile, *Item) bool) {
		for _, c := range s.order {
			if !yield(c, s.meshes[c]) {
				return
			}
		}
	}
}

// Len is the number of tile meshes.
func (s *Scene) Len() int { return len(s.order) }

// AddOverlay projects d onto the globe and extrudes it.
func (s *Scene) AddOverlay(name string, d geom.Data) Overlay {
	o := Overlay{
		Name: name,
		Data: d,
		Item: newItem(mesh.Extrude(d.Polylines(s.proj.GeographicToSphere))),
	}
	s.overlays = append(s.overlays, o)
	s.log.WithField("overlay", name).WithField("segments", o.Mesh.Segments()).Info("overlay added")
	return o
}

func (s *Scene) Overlays() []Overlay { return s.overlays }

func (s *Scene) ClearOverlays() { s.overlays = nil }

// AddMarker drops a marker at the point under the screen centre.
func (s *Scene) AddMarker() orb.Point {
	p := s.Center()
	s.markers = append(s.markers, p)
	return p
}

// Markers returns dropped markers followed by overlay points.
func (s *Scene) Markers() []orb.Point {
	out := append([]orb.Point(nil), s.markers...)
	for i := range s.overlays {
		out = append(out, s.overlays[i].Data.Points...)
	}
	return out
}

// Zoom returns the camera zoom in [MinZoom, MaxZoom].
func (s *Scene) Zoom() float64 { return s.zoom }

func (s *Scene) SetZoom(z float64) {
	s.zoom = math.Max(MinZoom, math.Min(MaxZoom, z))
}

// Wheel zooms by a wheel delta; positive dy zooms out.
func (s *Scene) Wheel(dy float64) { s.SetZoom(s.zoom - dy/15) }

// Rotate adds to the pitch and yaw, clamping the pitch.
func (s *Scene) Rotate(dPitch, dYaw float64) {
	s.pitch = math.Max(-maxPitch, math.Min(maxPitch, s.pitch+dPitch))
	s.yaw = math.Mod(s.yaw+dYaw, 2*math.Pi)
}

// Drag rotates by a pointer movement in pixels; the rate falls with zoom.
func (s *Scene) Drag(dx, dy float64) {
	s.Rotate(dy*dragRate/s.zoom, -dx*dragRate/s.zoom)
}

// Hold stops auto-spin while a pointer button is down.
func (s *Scene) Hold(down bool) { s.holding = down }

func (s *Scene) SetSpin(on bool) { s.spin = on }
func (s *Scene) Spinning() bool  { return s.spin }

// Tick advances auto-spin.
func (s *Scene) Tick(dt time.Duration) {
	if s.spin && !s.holding {
		s.Rotate(0, spinRate*dt.Seconds())
	}
}

// Angles returns pitch and yaw in radians.
func (s *Scene) Angles() (pitch, yaw float64) { return s.pitch, s.yaw }

// Rotation is the model rotation: yaw about Y, then pitch about X.
func (s *Scene) Rotation() quaternion.T {
	qx := quaternion.FromXAxisAngle(s.pitch)
	qy := quaternion.FromYAxisAngle(s.yaw)
	return quaternion.Mul(&qx, &qy)
}

func (s *Scene) distance() float64 { return s.proj.Radius * (cameraBase - s.zoom) }

// Center is the geographic point under the screen centre.
func (s *Scene) Center() orb.Point {
	p, _ := s.Unproject(0, 0)
	return p
}
