package geom

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/paulmach/orb"
	"github.com/ungerik/go3d/float64/vec3"
)

func TestParseWKT(t *testing.T) {
	d, err := ParseWKT("MULTILINESTRING((0 0, 10 10),(20 20, 30 5))")
	if err != nil {
		t.Fatalf("ParseWKT: %v", err)
	}
	if len(d.Lines) != 2 {
		t.Fatalf("lines = %d, want 2", len(d.Lines))
	}
	if d.Bound.Min != (orb.Point{0, 0}) || d.Bound.Max != (orb.Point{30, 20}) {
		t.Errorf("bound = %v", d.Bound)
	}
	if _, err := ParseWKT("   "); err == nil {
		t.Error("empty wkt accepted")
	}
	if _, err := ParseWKT("LINESTRING(nope"); err == nil {
		t.Error("broken wkt accepted")
	}
}

func TestParseGeoJSON(t *testing.T) {
	tests := []struct {
		name  string
		raw   string
		check func(Data) bool
	}{
		{
			"feature collection",
			`{"type":"FeatureCollection","features":[
				{"type":"Feature","properties":{},"geometry":{"type":"Point","coordinates":[1,2]}},
				{"type":"Feature","properties":{},"geometry":{"type":"Polygon","coordinates":[[[0,0],[4,0],[4,4],[0,0]]]}}]}`,
			func(d Data) bool { return len(d.Points) == 1 && len(d.Polygons) == 1 },
		},
		{
			"feature",
			`{"type":"Feature","properties":{},"geometry":{"type":"LineString","coordinates":[[0,0],[1,1]]}}`,
			func(d Data) bool { return len(d.Lines) == 1 },
		},
		{
			"bare geometry",
			`{"type":"MultiPoint","coordinates":[[0,0],[1,1],[2,2]]}`,
			func(d Data) bool { return len(d.Points) == 3 },
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := ParseGeoJSON([]byte(tt.raw))
			if err != nil {
				t.Fatalf("ParseGeoJSON: %v", err)
			}
			if !tt.check(d) {
				t.Errorf("unexpected data %s", d)
			}
		})
	}
	if _, err := ParseGeoJSON([]byte(`{"coordinates":[]}`)); err == nil {
		t.Error("missing type accepted")
	}
}

func TestParseKML(t *testing.T) {
	doc := `<?xml version="1.0"?>
<kml xmlns="http://www.opengis.net/kml/2.2"><Document><Folder>
  <Placemark><Point><coordinates>13.4,52.5,0</coordinates></Point></Placemark>
  <Placemark><LineString><coordinates>
    0,0 1,1
    2,2
  </coordinates></LineString></Placemark>
</Folder></Document></kml>`
	d, err := ParseKML(strings.NewReader(doc))
	if err != nil {
		t.Fatalf("ParseKML: %v", err)
	}
	if len(d.Points) != 1 || len(d.Lines) != 1 {
		t.Fatalf("data = %s", d)
	}
	if d.Points[0] != (orb.Point{13.4, 52.5}) {
		t.Errorf("point = %v", d.Points[0])
	}
	if len(d.Lines[0]) != 3 {
		t.Errorf("line points = %d, want 3", len(d.Lines[0]))
	}
}

func TestParseCSV(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		points  int
		lines   int
		wantErr bool
	}{
		{"lat lon", "name,Latitude,Longitude\na,52.5,13.4\nb,48.1,11.6\n", 2, 0, false},
		{"bad rows skipped", "lat,lng\n1,2\nx,y\n3\n", 1, 0, false},
		{"wkt column", "id,wkt\n1,\"LINESTRING(0 0, 1 1)\"\n2,POINT(3 4)\n", 1, 1, false},
		{"no columns", "a,b\n1,2\n", 0, 0, true},
		{"no valid rows", "lat,lon\nx,y\n", 0, 0, true},
		{"empty", "", 0, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := ParseCSV(strings.NewReader(tt.raw))
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %s", d)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseCSV: %v", err)
			}
			if len(d.Points) != tt.points || len(d.Lines) != tt.lines {
				t.Errorf("data = %s, want %d points %d lines", d, tt.points, tt.lines)
			}
		})
	}
}

func TestLoadFromDisk(t *testing.T) {
	dir := t.TempDir()
	gj := filepath.Join(dir, "a.geojson")
	if err := os.WriteFile(gj, []byte(`{"type":"Point","coordinates":[5,6]}`), 0o644); err != nil {
		t.Fatal(err)
	}
	cs := filepath.Join(dir, "a.csv")
	if err := os.WriteFile(cs, []byte("y,x\n6,5\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	d1, err := LoadGeoJSON(gj)
	if err != nil {
		t.Fatalf("LoadGeoJSON: %v", err)
	}
	d2, err := LoadCSV(cs)
	if err != nil {
		t.Fatalf("LoadCSV: %v", err)
	}
	if d1.Points[0] != d2.Points[0] {
		t.Errorf("points differ: %v vs %v", d1.Points[0], d2.Points[0])
	}
	if _, err := LoadCSV(filepath.Join(dir, "missing.csv")); err == nil {
		t.Error("missing file accepted")
	}
}

func TestDataPolylines(t *testing.T) {
	var d Data
	d.Add(orb.Point{1, 1})
	d.Add(orb.LineString{{0, 0}, {1, 0}})
	d.Add(orb.LineString{{9, 9}})
	d.Add(orb.Polygon{{{0, 0}, {2, 0}, {2, 2}, {0, 0}}})
	pls := d.Polylines(func(p orb.Point) vec3.T { return vec3.T{p[0], p[1], 1} })
	if len(pls) != 2 {
		t.Fatalf("polylines = %d, want 2", len(pls))
	}
	if pls[0].Rings[0].Closed || !pls[1].Rings[0].Closed {
		t.Error("closed flags wrong")
	}
	if pls[1].Rings[0].Points[1] != (vec3.T{2, 0, 1}) {
		t.Errorf("projected point = %v", pls[1].Rings[0].Points[1])
	}
	if d.Bound.Min != (orb.Point{0, 0}) || d.Bound.Max != (orb.Point{9, 9}) {
		t.Errorf("bound = %v", d.Bound)
	}
}
