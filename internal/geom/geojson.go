package geom

import (
	"encoding/json"
	"os"

	"github.com/cockroachdb/errors"
	"github.com/paulmach/orb/geojson"
)

// LoadGeoJSON reads a GeoJSON file (FeatureCollection, Feature or a bare
// geometry) into Data.
func LoadGeoJSON(path string) (Data, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Data{}, err
	}
	return ParseGeoJSON(raw)
}

// ParseGeoJSON is LoadGeoJSON for in-memory documents.
func ParseGeoJSON(raw []byte) (Data, error) {
	var head struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(raw, &head); err != nil {
		return Data{}, errors.Wrap(err, "geojson")
	}
	var d Data
	switch head.Type {
	case "":
		return Data{}, errors.New("invalid geojson: missing type")
	case "FeatureCollection":
		fc, err := geojson.UnmarshalFeatureCollection(raw)
		if err != nil {
			return Data{}, errors.Wrap(err, "geojson feature collection")
		}
		for _, f := range fc.Features {
			d.Add(f.Geometry)
		}
	case "Feature":
		f, err := geojson.UnmarshalFeature(raw)
		if err != nil {
			return Data{}, errors.Wrap(err, "geojson feature")
		}
		d.Add(f.Geometry)
	default:
		g, err := geojson.UnmarshalGeometry(raw)
		if err != nil {
			return Data{}, errors.Wrapf(err, "geojson %s", head.Type)
		}
		d.Add(g.Geometry())
	}
	if d.Empty() {
		return Data{}, errors.New("no geometries found")
	}
	return d, nil
}
