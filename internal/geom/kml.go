package geom

import (
	"encoding/xml"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/paulmach/orb"
)

// LoadKML extracts Point, LineString and LinearRing geometry from a KML file
// at any nesting depth. KML coordinates are "lon,lat[,alt]"; altitude is
// ignored.
func LoadKML(path string) (Data, error) {
	f, err := os.Open(path)
	if err != nil {
		return Data{}, err
	}
	defer f.Close()
	return ParseKML(f)
}

func ParseKML(r io.Reader) (Data, error) {
	var (
		d   Data
		dec = xml.NewDecoder(r)
	)
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return Data{}, errors.Wrap(err, "kml")
		}
		se, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}
		var el struct {
			Coordinates string `xml:"coordinates"`
		}
		switch se.Name.Local {
		case "Point", "LineString", "LinearRing":
			if err := dec.DecodeElement(&el, &se); err != nil {
				return Data{}, errors.Wrapf(err, "kml %s", se.Name.Local)
			}
		default:
			continue
		}
		pts := parseKMLCoordinates(el.Coordinates)
		switch {
		case len(pts) == 0:
		case se.Name.Local == "Point":
			d.Add(pts[0])
		case se.Name.Local == "LineString":
			d.Add(orb.LineString(pts))
		default:
			d.Add(orb.Ring(pts))
		}
	}
	if d.Empty() {
		return Data{}, errors.New("kml: no geometry found")
	}
	return d, nil
}

// tuples are separated by whitespace, components by commas
func parseKMLCoordinates(s string) []orb.Point {
	var pts []orb.Point
	for _, tuple := range strings.Fields(s) {
		vals := strings.Split(tuple, ",")
		if len(vals) < 2 {
			continue
		}
		lon, err1 := strconv.ParseFloat(strings.TrimSpace(vals[0]), 64)
		lat, err2 := strconv.ParseFloat(strings.TrimSpace(vals[1]), 64)
		if err1 != nil || err2 != nil {
			continue
		}
		pts = append(pts, orb.Point{lon, lat})
	}
	return pts
}
