package mvt

import (
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/paulmach/orb"
	orbmvt "github.com/paulmach/orb/encoding/mvt"
	"github.com/paulmach/orb/geojson"
	"google.golang.org/protobuf/encoding/protowire"
)

func encodeFixture(t *testing.T, gzipped bool) []byte {
	t.Helper()
	fc := geojson.NewFeatureCollection()
	road := geojson.NewFeature(orb.LineString{{0, 0}, {5, 0}, {5, 7}})
	road.Properties["name"] = "high street"
	road.Properties["lanes"] = 2.0
	fc.Append(road)

	layers := orbmvt.Layers{orbmvt.NewLayer("roads", fc)}
	layers[0].Version = 2
	var (
		data []byte
		err  error
	)
	if gzipped {
		data, err = orbmvt.MarshalGzipped(layers)
	} else {
		data, err = orbmvt.Marshal(layers)
	}
	if err != nil {
		t.Fatalf("encode fixture: %v", err)
	}
	return data
}

func TestUnmarshalMatchesIndependentEncoder(t *testing.T) {
	tile, err := Unmarshal(encodeFixture(t, false))
	if err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if len(tile.Layers) != 1 {
		t.Fatalf("layers = %d, want 1", len(tile.Layers))
	}
	l := tile.Layers[0]
	if l.Name != "roads" || l.Extent != 4096 || l.Version != 2 {
		t.Errorf("layer header = %q/%d/v%d", l.Name, l.Extent, l.Version)
	}
	if len(l.Features) != 1 {
		t.Fatalf("features = %d, want 1", len(l.Features))
	}
	f := l.Features[0]
	if f.Type != LineString {
		t.Errorf("type = %d, want LineString", f.Type)
	}

	cmds, err := DecodeAll(f.Geometry)
	if err != nil {
		t.Fatalf("DecodeAll: %v", err)
	}
	want := []Command{{MoveTo, 0, 0}, {LineTo, 5, 0}, {LineTo, 5, 7}}
	if len(cmds) != len(want) {
		t.Fatalf("commands = %+v, want %+v", cmds, want)
	}
	for i := range want {
		if cmds[i] != want[i] {
			t.Errorf("cmd[%d] = %+v, want %+v", i, cmds[i], want[i])
		}
	}

	props := l.Properties(&f)
	if props["name"] != "high street" {
		t.Errorf("name = %v", props["name"])
	}
	if _, ok := props["lanes"]; !ok {
		t.Error("lanes property missing")
	}
}

func TestUnmarshalGzipped(t *testing.T) {
	gz := encodeFixture(t, true)
	if !IsGzipped(gz) {
		t.Fatal("fixture should be gzipped")
	}
	tile, err := UnmarshalGzipped(gz)
	if err != nil {
		t.Fatalf("UnmarshalGzipped: %v", err)
	}
	if tile.FeatureCount() != 1 {
		t.Errorf("FeatureCount = %d, want 1", tile.FeatureCount())
	}

	// plain payloads pass straight through
	plain, err := UnmarshalGzipped(encodeFixture(t, false))
	if err != nil {
		t.Fatalf("UnmarshalGzipped(plain): %v", err)
	}
	if plain.FeatureCount() != 1 {
		t.Errorf("plain FeatureCount = %d, want 1", plain.FeatureCount())
	}
}

func TestUnmarshalDefaultsAndUnpackedGeometry(t *testing.T) {
	var feature []byte
	for _, v := range []uint32{9, 0, 0, 10, 10, 0} {
		feature = protowire.AppendTag(feature, featureGeometry, protowire.VarintType)
		feature = protowire.AppendVarint(feature, uint64(v))
	}
	var layer []byte
	layer = protowire.AppendTag(layer, layerName, protowire.BytesType)
	layer = protowire.AppendString(layer, "bare")
	layer = protowire.AppendTag(layer, layerFeatures, protowire.BytesType)
	layer = protowire.AppendBytes(layer, feature)
	// unknown field must be skipped
	layer = protowire.AppendTag(layer, 99, protowire.VarintType)
	layer = protowire.AppendVarint(layer, 1)

	var tile []byte
	tile = protowire.AppendTag(tile, tileLayers, protowire.BytesType)
	tile = protowire.AppendBytes(tile, layer)

	got, err := Unmarshal(tile)
	if err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	l := got.Layers[0]
	if l.Extent != DefaultExtent {
		t.Errorf("extent = %d, want default %d", l.Extent, DefaultExtent)
	}
	if l.Version != 1 {
		t.Errorf("version = %d, want 1", l.Version)
	}
	geom := l.Features[0].Geometry
	if len(geom) != 6 || geom[3] != 10 {
		t.Errorf("geometry = %v", geom)
	}
}

func TestUnmarshalEmpty(t *testing.T) {
	tile, err := Unmarshal(nil)
	if err != nil {
		t.Fatalf("Unmarshal(nil): %v", err)
	}
	if len(tile.Layers) != 0 {
		t.Errorf("layers = %d, want 0", len(tile.Layers))
	}
}

func TestUnmarshalMalformed(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{"short layer", []byte{0x1a, 0x05, 0x01}},
		{"bad tag", []byte{0x80}},
		{"bad gzip", []byte{0x1f, 0x8b, 0x00, 0x01}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := UnmarshalGzipped(tt.data)
			if !errors.Is(err, ErrMalformedTile) {
				t.Errorf("err = %v, want ErrMalformedTile", err)
			}
		})
	}
}
