// Package mesh extrudes globe polylines into triangle quads for rendering.
package mesh

import (
	"github.com/ungerik/go3d/float64/vec3"

	"geoglobe/internal/geom"
)

const (
	// Stride is the number of float32 values per vertex: position, normal
	// and side flag.
	Stride = 7

	VerticesPerSegment = 4
	IndicesPerSegment  = 6
)

// Vertex is one extruded vertex. Side is 1 for the normal0 edge and 0 for
// the opposite edge.
type Vertex struct {
	Position vec3.T
	Normal   vec3.T
	Side     float64
}

// LineMesh is the vertex and index data for a set of extruded polylines.
// Each segment is a zero-width quad; the consumer offsets vertices by
// Normal times a thickness to give it width.
type LineMesh struct {
	Verts []Vertex
	Index []uint32
}

// Extrude emits one quad per consecutive point pair of every ring, so a ring
// of n points always yields n-1 quads. A repeated point (a zero-length
// segment) still gets its quad; its normals are zero vectors, so the quad
// stays degenerate after widening and draws nothing.
func Extrude(polylines []geom.Polyline) *LineMesh {
	n := 0
	for i := range polylines {
		n += polylines[i].Segments()
	}
	m := &LineMesh{
		Verts: make([]Vertex, 0, n*VerticesPerSegment),
		Index: make([]uint32, 0, n*IndicesPerSegment),
	}
	for i := range polylines {
		for _, r := range polylines[i].Rings {
			for j := 0; j+1 < len(r.Points); j++ {
				m.segment(r.Points[j], r.Points[j+1])
			}
		}
	}
	return m
}

func (m *LineMesh) segment(p0, p1 vec3.T) {
	n0 := vec3.Cross(&p0, &p1)
	n0.Normalize()
	n1 := n0.Inverted()

	base := uint32(len(m.Verts))
	m.Verts = append(m.Verts,
		Vertex{p0, n0, 1},
		Vertex{p1, n0, 1},
		Vertex{p0, n1, 0},
		Vertex{p1, n1, 0},
	)
	m.Index = append(m.Index,
		base, base+1, base+2,
		base+1, base+2, base+3,
	)
}

// Segments is the number of quads in the mesh.
func (m *LineMesh) Segments() int { return len(m.Verts) / VerticesPerSegment }

// Vertices flattens the vertex data into the interleaved float32 layout
// uploaded to vertex buffers.
func (m *LineMesh) Vertices() []float32 {
	out := make([]float32, 0, len(m.Verts)*Stride)
	for _, v := range m.Verts {
		out = append(out,
			float32(v.Position[0]), float32(v.Position[1]), float32(v.Position[2]),
			float32(v.Normal[0]), float32(v.Normal[1]), float32(v.Normal[2]),
			float32(v.Side),
		)
	}
	return out
}

// Indices returns the triangle index buffer.
func (m *LineMesh) Indices() []uint32 { return m.Index }
