package geom

import (
	"iter"

	"github.com/ungerik/go3d/float64/vec3"

	"geoglobe/internal/mvt"
)

// Assembler turns a geometry command stream into pixel-space rings.
type Assembler struct {
	// MinPoints is the retention threshold; rings with len <= MinPoints are
	// dropped.
	MinPoints int
}

// NewAssembler returns an assembler with the given threshold. Negative
// values are treated as zero.
func NewAssembler(minPoints int) *Assembler {
	if minPoints < 0 {
		minPoints = 0
	}
	return &Assembler{MinPoints: minPoints}
}

// Assemble consumes cmds and returns the retained rings. On a decode error
// the rings finished so far are returned together with the error; callers
// that skip the feature simply ignore them.
func (a *Assembler) Assemble(cmds iter.Seq2[mvt.Command, error]) ([]Ring, error) {
	var rings []Ring
	cur := Ring{}
	flush := func() {
		if len(cur.Points) > a.MinPoints {
			cur.Close()
			rings = append(rings, cur)
		}
	}
	for cmd, err := range cmds {
		if err != nil {
			return rings, err
		}
		switch cmd.Op {
		case mvt.MoveTo:
			flush()
			cur = Ring{Points: []vec3.T{pixel(cmd)}}
		case mvt.LineTo:
			cur.Points = append(cur.Points, pixel(cmd))
		case mvt.ClosePath:
			cur.Closed = true
			flush()
			cur = Ring{}
		}
	}
	flush()
	return rings, nil
}

// Polyline decodes one feature's geometry into a Polyline.
func (a *Assembler) Polyline(geometry []uint32) (Polyline, error) {
	rings, err := a.Assemble(mvt.Commands(geometry))
	return Polyline{Rings: rings}, err
}

func pixel(cmd mvt.Command) vec3.T {
	return vec3.T{float64(cmd.X), float64(cmd.Y), 0}
}
