package geom

import (
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/paulmach/orb/encoding/wkt"
)

// ParseWKT parses POINT, MULTIPOINT, LINESTRING, MULTILINESTRING, POLYGON,
// MULTIPOLYGON and GEOMETRYCOLLECTION text.
func ParseWKT(s string) (Data, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Data{}, errors.New("empty wkt")
	}
	g, err := wkt.Unmarshal(s)
	if err != nil {
		return Data{}, errors.Wrap(err, "wkt")
	}
	var d Data
	d.Add(g)
	if d.Empty() {
		return Data{}, errors.New("wkt: no coordinates parsed")
	}
	return d, nil
}
