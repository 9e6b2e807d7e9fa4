package geom

import (
	"encoding/csv"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/encoding/wkt"
)

// LoadCSV reads a CSV overlay. Rows are either lat/lon pairs or a WKT
// geometry column.
func LoadCSV(path string) (Data, error) {
	f, err := os.Open(path)
	if err != nil {
		return Data{}, err
	}
	defer f.Close()
	return ParseCSV(f)
}

// ParseCSV detects columns case-insensitively: lat|latitude|y with
// lon|lng|long|longitude|x, or wkt|geometry|geom.
func ParseCSV(r io.Reader) (Data, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	cr.FieldsPerRecord = -1
	recs, err := cr.ReadAll()
	if err != nil {
		return Data{}, errors.Wrap(err, "csv")
	}
	if len(recs) == 0 {
		return Data{}, errors.New("empty csv")
	}
	idxLat, idxLon, idxWKT := -1, -1, -1
	for i, h := range recs[0] {
		switch strings.ToLower(strings.TrimSpace(h)) {
		case "lat", "latitude", "y":
			if idxLat == -1 {
				idxLat = i
			}
		case "lon", "lng", "long", "longitude", "x":
			if idxLon == -1 {
				idxLon = i
			}
		case "wkt", "geometry", "geom":
			if idxWKT == -1 {
				idxWKT = i
			}
		}
	}
	if idxWKT == -1 && (idxLat == -1 || idxLon == -1) {
		return Data{}, errors.New("csv: latitude/longitude columns not found")
	}
	var d Data
	for _, row := range recs[1:] {
		if idxWKT >= 0 && idxWKT < len(row) {
			if g, err := wkt.Unmarshal(strings.TrimSpace(row[idxWKT])); err == nil {
				d.Add(g)
				continue
			}
		}
		if idxLon < 0 || idxLat < 0 || idxLon >= len(row) || idxLat >= len(row) {
			continue
		}
		lon, err1 := strconv.ParseFloat(strings.TrimSpace(row[idxLon]), 64)
		lat, err2 := strconv.ParseFloat(strings.TrimSpace(row[idxLat]), 64)
		if err1 != nil || err2 != nil {
			continue
		}
		d.Add(orb.Point{lon, lat})
	}
	if d.Empty() {
		return Data{}, errors.New("csv: no valid rows parsed")
	}
	return d, nil
}
