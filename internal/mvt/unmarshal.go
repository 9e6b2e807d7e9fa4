package mvt

import (
	"bytes"
	"compress/gzip"
	"io"
	"math"

	"github.com/cockroachdb/errors"
	"google.golang.org/protobuf/encoding/protowire"
)

// ErrMalformedTile marks protobuf framing errors in a tile payload.
var ErrMalformedTile = errors.New("mvt: malformed tile")

// vector_tile.proto field numbers
const (
	tileLayers = 3

	layerName     = 1
	layerFeatures = 2
	layerKeys     = 3
	layerValues   = 4
	layerExtent   = 5
	layerVersion  = 15

	featureID       = 1
	featureTags     = 2
	featureType     = 3
	featureGeometry = 4

	valueString = 1
	valueFloat  = 2
	valueDouble = 3
	valueInt    = 4
	valueUint   = 5
	valueSint   = 6
	valueBool   = 7
)

// UnmarshalGzipped decodes a tile payload that may or may not be gzip
// compressed. Tile servers are inconsistent about Content-Encoding so the
// magic bytes decide.
func UnmarshalGzipped(data []byte) (*Tile, error) {
	if !IsGzipped(data) {
		return Unmarshal(data)
	}
	zr, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, errors.Mark(errors.Wrap(err, "mvt: gzip header"), ErrMalformedTile)
	}
	defer zr.Close()
	raw, err := io.ReadAll(zr)
	if err != nil {
		return nil, errors.Mark(errors.Wrap(err, "mvt: gzip body"), ErrMalformedTile)
	}
	return Unmarshal(raw)
}

// IsGzipped reports whether data starts with the gzip magic number.
func IsGzipped(data []byte) bool {
	return len(data) >= 2 && data[0] == 0x1f && data[1] == 0x8b
}

// Unmarshal decodes a plain (uncompressed) vector tile protobuf.
func Unmarshal(data []byte) (*Tile, error) {
	t := &Tile{}
	err := fields(data, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		if num != tileLayers || typ != protowire.BytesType {
			return 0, nil
		}
		raw, n := protowire.ConsumeBytes(b)
		if n < 0 {
			return n, nil
		}
		layer, err := unmarshalLayer(raw)
		if err != nil {
			return 0, errors.Wrapf(err, "layer %d", len(t.Layers))
		}
		t.Layers = append(t.Layers, layer)
		return n, nil
	})
	if err != nil {
		return nil, errors.Mark(errors.Wrap(err, "mvt: decode tile"), ErrMalformedTile)
	}
	return t, nil
}

func unmarshalLayer(data []byte) (Layer, error) {
	l := Layer{Version: 1, Extent: DefaultExtent}
	err := fields(data, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch {
		case num == layerName && typ == protowire.BytesType:
			v, n := protowire.ConsumeString(b)
			l.Name = v
			return n, nil
		case num == layerFeatures && typ == protowire.BytesType:
			raw, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return n, nil
			}
			f, err := unmarshalFeature(raw)
			if err != nil {
				return 0, errors.Wrapf(err, "feature %d", len(l.Features))
			}
			l.Features = append(l.Features, f)
			return n, nil
		case num == layerKeys && typ == protowire.BytesType:
			v, n := protowire.ConsumeString(b)
			l.Keys = append(l.Keys, v)
			return n, nil
		case num == layerValues && typ == protowire.BytesType:
			raw, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return n, nil
			}
			v, err := unmarshalValue(raw)
			if err != nil {
				return 0, err
			}
			l.Values = append(l.Values, v)
			return n, nil
		case num == layerExtent && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(b)
			l.Extent = uint32(v)
			return n, nil
		case num == layerVersion && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(b)
			l.Version = uint32(v)
			return n, nil
		}
		return 0, nil
	})
	return l, err
}

func unmarshalFeature(data []byte) (Feature, error) {
	var f Feature
	err := fields(data, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case featureID:
			if typ != protowire.VarintType {
				return 0, nil
			}
			v, n := protowire.ConsumeVarint(b)
			f.ID, f.HasID = v, true
			return n, nil
		case featureType:
			if typ != protowire.VarintType {
				return 0, nil
			}
			v, n := protowire.ConsumeVarint(b)
			f.Type = GeomType(v)
			return n, nil
		case featureTags:
			var n int
			f.Tags, n = appendUint32s(f.Tags, typ, b)
			return n, nil
		case featureGeometry:
			var n int
			f.Geometry, n = appendUint32s(f.Geometry, typ, b)
			return n, nil
		}
		return 0, nil
	})
	return f, err
}

func unmarshalValue(data []byte) (any, error) {
	var v any
	err := fields(data, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch {
		case num == valueString && typ == protowire.BytesType:
			s, n := protowire.ConsumeString(b)
			v = s
			return n, nil
		case num == valueFloat && typ == protowire.Fixed32Type:
			bits, n := protowire.ConsumeFixed32(b)
			v = float64(math.Float32frombits(bits))
			return n, nil
		case num == valueDouble && typ == protowire.Fixed64Type:
			bits, n := protowire.ConsumeFixed64(b)
			v = math.Float64frombits(bits)
			return n, nil
		case num == valueInt && typ == protowire.VarintType:
			x, n := protowire.ConsumeVarint(b)
			v = int64(x)
			return n, nil
		case num == valueUint && typ == protowire.VarintType:
			x, n := protowire.ConsumeVarint(b)
			v = x
			return n, nil
		case num == valueSint && typ == protowire.VarintType:
			x, n := protowire.ConsumeVarint(b)
			v = protowire.DecodeZigZag(x)
			return n, nil
		case num == valueBool && typ == protowire.VarintType:
			x, n := protowire.ConsumeVarint(b)
			v = protowire.DecodeBool(x)
			return n, nil
		}
		return 0, nil
	})
	return v, err
}

// appendUint32s reads a repeated uint32 field in either packed or
// one-varint-per-tag form.
func appendUint32s(dst []uint32, typ protowire.Type, b []byte) ([]uint32, int) {
	switch typ {
	case protowire.VarintType:
		v, n := protowire.ConsumeVarint(b)
		if n < 0 {
			return dst, n
		}
		return append(dst, uint32(v)), n
	case protowire.BytesType:
		packed, n := protowire.ConsumeBytes(b)
		if n < 0 {
			return dst, n
		}
		for len(packed) > 0 {
			v, m := protowire.ConsumeVarint(packed)
			if m < 0 {
				return dst, m
			}
			dst = append(dst, uint32(v))
			packed = packed[m:]
		}
		return dst, n
	}
	return dst, 0
}

// fields walks the top-level fields of a message. fn returns how many bytes
// of b it consumed; 0 means "not mine" and the field is skipped, a negative
// count is a protowire parse error.
func fields(data []byte, fn func(num protowire.Number, typ protowire.Type, b []byte) (int, error)) error {
	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return protowire.ParseError(n)
		}
		data = data[n:]
		m, err := fn(num, typ, data)
		if err != nil {
			return err
		}
		if m == 0 {
			m = protowire.ConsumeFieldValue(num, typ, data)
		}
		if m < 0 {
			return protowire.ParseError(m)
		}
		data = data[m:]
	}
	return nil
}
