package mvt

// DefaultExtent is the layer extent assumed when a layer omits it.
const DefaultExtent = 4096

// GeomType is the feature geometry type declared in the tile.
type GeomType uint32

const (
	Unknown    GeomType = 0
	Point      GeomType = 1
	LineString GeomType = 2
	Polygon    GeomType = 3
)

// Tile is a decoded vector tile record. Geometry is kept as the raw command
// stream; turning it into points is the job of Commands.
type Tile struct {
	Layers []Layer
}

// Layer holds the features of one named layer.
type Layer struct {
	Version  uint32
	Name     string
	Extent   uint32
	Features []Feature
	Keys     []string
	Values   []any
}

// Feature carries the flat geometry command stream plus its tag pairs.
type Feature struct {
	ID       uint64
	HasID    bool
	Type     GeomType
	Tags     []uint32
	Geometry []uint32
}

// Properties resolves the feature's tag pairs against the layer's key and
// value tables. Out-of-range indices are ignored.
func (l *Layer) Properties(f *Feature) map[string]any {
	props := make(map[string]any, len(f.Tags)/2)
	for i := 0; i+1 < len(f.Tags); i += 2 {
		k, v := int(f.Tags[i]), int(f.Tags[i+1])
		if k >= len(l.Keys) || v >= len(l.Values) {
			continue
		}
		props[l.Keys[k]] = l.Values[v]
	}
	return props
}

// FeatureCount sums features over every layer.
func (t *Tile) FeatureCount() int {
	n := 0
	for i := range t.Layers {
		n += len(t.Layers[i].Features)
	}
	return n
}
