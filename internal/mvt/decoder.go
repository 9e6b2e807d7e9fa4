package mvt

import (
	"fmt"
	"iter"

	"github.com/cockroachdb/errors"
)

var (
	// ErrUnknownCommand reports an opcode outside MoveTo, LineTo and ClosePath.
	ErrUnknownCommand = errors.New("mvt: unknown geometry command")
	// ErrTruncated reports a MoveTo/LineTo missing one or both parameters.
	ErrTruncated = errors.New("mvt: truncated geometry parameters")
)

// DecodeError describes where a geometry stream stopped making sense.
// Feature is -1 when the stream was decoded outside of a tile.
type DecodeError struct {
	Feature int
	Offset  int
	Op      Op
	Err     error
}

func (e *DecodeError) Error() string {
	if e.Feature >= 0 {
		return fmt.Sprintf("feature %d: offset %d (%s): %v", e.Feature, e.Offset, e.Op, e.Err)
	}
	return fmt.Sprintf("offset %d (%s): %v", e.Offset, e.Op, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// Commands lazily decodes a geometry command stream. The sequence yields each
// command as soon as its parameters are read; on a malformed stream it yields
// a single *DecodeError and stops. Re-ranging restarts from the beginning.
func Commands(geometry []uint32) iter.Seq2[Command, error] {
	return func(yield func(Command, error) bool) {
		var x, y int32
		i := 0
		for i < len(geometry) {
			at := i
			op := Op(geometry[i] & cmdMask)
			count := geometry[i] >> cmdBits
			i++
			switch op {
			case MoveTo, LineTo, ClosePath:
			default:
				yield(Command{}, &DecodeError{Feature: -1, Offset: at, Op: op, Err: ErrUnknownCommand})
				return
			}
			for ; count > 0; count-- {
				if op == ClosePath {
					if !yield(Command{Op: ClosePath}, nil) {
						return
					}
					continue
				}
				if i+1 >= len(geometry) {
					yield(Command{}, &DecodeError{Feature: -1, Offset: i, Op: op, Err: ErrTruncated})
					return
				}
				x += DecodeZigZag(geometry[i])
				y += DecodeZigZag(geometry[i+1])
				i += 2
				if !yield(Command{Op: op, X: x, Y: y}, nil) {
					return
				}
			}
		}
	}
}

// DecodeAll materialises the command stream. Meant for small streams and
// tests; the tile pipeline ranges over Commands directly.
func DecodeAll(geometry []uint32) ([]Command, error) {
	var out []Command
	for cmd, err := range Commands(geometry) {
		if err != nil {
			return out, err
		}
		out = append(out, cmd)
	}
	return out, nil
}
