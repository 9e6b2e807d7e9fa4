package geom

import (
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/ungerik/go3d/float64/vec3"

	"geoglobe/internal/mvt"
)

func cmd(op mvt.Op, n uint32) uint32 { return mvt.CommandInteger(op, n) }

func zz(v ...int32) []uint32 {
	out := make([]uint32, len(v))
	for i, d := range v {
		out[i] = mvt.EncodeZigZag(d)
	}
	return out
}

func stream(parts ...[]uint32) []uint32 {
	var out []uint32
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}

func TestAssembleLine(t *testing.T) {
	pl, err := NewAssembler(DefaultMinPoints).Polyline([]uint32{9, 0, 0, 10, 10, 0})
	if err != nil {
		t.Fatalf("Polyline: %v", err)
	}
	if len(pl.Rings) != 1 {
		t.Fatalf("rings = %d, want 1", len(pl.Rings))
	}
	r := pl.Rings[0]
	if len(r.Points) != 2 {
		t.Fatalf("points = %d, want 2", len(r.Points))
	}
	if r.Points[0] != (vec3.T{0, 0, 0}) || r.Points[1] != (vec3.T{5, 0, 0}) {
		t.Errorf("points = %v", r.Points)
	}
	if r.Closed {
		t.Error("open line marked closed")
	}
}

func TestAssembleThresholdBoundary(t *testing.T) {
	tests := []struct {
		name      string
		minPoints int
		geometry  []uint32
		want      int
	}{
		{
			"move then close",
			1,
			stream([]uint32{cmd(mvt.MoveTo, 1)}, zz(3, 3), []uint32{cmd(mvt.ClosePath, 1)}),
			0,
		},
		{
			"lone moves dropped",
			1,
			stream([]uint32{cmd(mvt.MoveTo, 1)}, zz(1, 1), []uint32{cmd(mvt.MoveTo, 1)}, zz(2, 2)),
			0,
		},
		{
			"exactly at threshold dropped",
			2,
			stream([]uint32{cmd(mvt.MoveTo, 1)}, zz(0, 0), []uint32{cmd(mvt.LineTo, 1)}, zz(4, 0)),
			0,
		},
		{
			"one above threshold kept",
			2,
			stream([]uint32{cmd(mvt.MoveTo, 1)}, zz(0, 0), []uint32{cmd(mvt.LineTo, 2)}, zz(4, 0, 0, 4)),
			1,
		},
		{
			"zero threshold keeps single points",
			0,
			stream([]uint32{cmd(mvt.MoveTo, 1)}, zz(1, 1), []uint32{cmd(mvt.MoveTo, 1)}, zz(2, 2)),
			2,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pl, err := NewAssembler(tt.minPoints).Polyline(tt.geometry)
			if err != nil {
				t.Fatalf("Polyline: %v", err)
			}
			if len(pl.Rings) != tt.want {
				t.Fatalf("rings = %d, want %d", len(pl.Rings), tt.want)
			}
			for _, r := range pl.Rings {
				if len(r.Points) <= tt.minPoints {
					t.Errorf("ring with %d points retained at threshold %d", len(r.Points), tt.minPoints)
				}
			}
		})
	}
}

func TestAssemblePolygonAndMultiLine(t *testing.T) {
	geometry := stream(
		[]uint32{cmd(mvt.MoveTo, 1)}, zz(0, 0),
		[]uint32{cmd(mvt.LineTo, 2)}, zz(10, 0, 0, 10),
		[]uint32{cmd(mvt.ClosePath, 1)},
		[]uint32{cmd(mvt.MoveTo, 1)}, zz(5, 5),
		[]uint32{cmd(mvt.LineTo, 1)}, zz(1, 1),
	)
	pl, err := NewAssembler(1).Polyline(geometry)
	if err != nil {
		t.Fatalf("Polyline: %v", err)
	}
	if len(pl.Rings) != 2 {
		t.Fatalf("rings = %d, want 2", len(pl.Rings))
	}
	if !pl.Rings[0].Closed || pl.Rings[1].Closed {
		t.Errorf("closed flags = %v, %v", pl.Rings[0].Closed, pl.Rings[1].Closed)
	}
	// the close hook does not repeat the first point
	if n := len(pl.Rings[0].Points); n != 3 {
		t.Errorf("polygon ring points = %d, want 3", n)
	}
	if got := pl.Rings[1].Points[0]; got != (vec3.T{15, 15, 0}) {
		t.Errorf("second ring start = %v, want cursor carried to (15,15)", got)
	}
	if pl.Points() != 5 || pl.Segments() != 3 {
		t.Errorf("points/segments = %d/%d, want 5/3", pl.Points(), pl.Segments())
	}
}

func TestAssembleDecodeError(t *testing.T) {
	geometry := stream(
		[]uint32{cmd(mvt.MoveTo, 1)}, zz(0, 0),
		[]uint32{cmd(mvt.LineTo, 1)}, zz(3, 3),
		[]uint32{cmd(mvt.Op(4), 1)},
	)
	_, err := NewAssembler(1).Polyline(geometry)
	if !errors.Is(err, mvt.ErrUnknownCommand) {
		t.Fatalf("err = %v, want ErrUnknownCommand", err)
	}
}

func TestRingCloseMarksCoincidentEnds(t *testing.T) {
	r := Ring{Points: []vec3.T{{0, 0, 0}, {1, 0, 0}, {0, 0, 0}}}
	r.Close()
	if !r.Closed {
		t.Error("ring with coincident ends not marked closed")
	}
	if len(r.Points) != 3 {
		t.Errorf("Close changed geometry: %v", r.Points)
	}
}

func TestPolylineTransform(t *testing.T) {
	pl := Polyline{Rings: []Ring{{Points: []vec3.T{{1, 2, 0}, {3, 4, 0}}}}}
	pl.Transform(func(p vec3.T) vec3.T { return vec3.T{p[0] * 2, p[1] * 2, 1} })
	want := []vec3.T{{2, 4, 1}, {6, 8, 1}}
	for i, p := range pl.Rings[0].Points {
		if p != want[i] {
			t.Errorf("point %d = %v, want %v", i, p, want[i])
		}
	}
}
