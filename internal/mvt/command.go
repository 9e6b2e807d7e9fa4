package mvt

import "fmt"

// Op is a geometry command opcode (low 3 bits of a command integer).
type Op uint32

const (
	MoveTo    Op = 1
	LineTo    Op = 2
	ClosePath Op = 7
)

const (
	cmdBits = 3
	cmdMask = 1<<cmdBits - 1
)

func (o Op) String() string {
	switch o {
	case MoveTo:
		return "MoveTo"
	case LineTo:
		return "LineTo"
	case ClosePath:
		return "ClosePath"
	}
	return fmt.Sprintf("Op(%d)", uint32(o))
}

// Command is one decoded drawing command. X and Y hold the absolute cursor
// position after applying the command's delta; they are zero for ClosePath.
type Command struct {
	Op   Op
	X, Y int32
}

// CommandInteger packs an opcode and repeat count into a command integer.
func CommandInteger(op Op, count uint32) uint32 {
	return uint32(op)&cmdMask | count<<cmdBits
}

// DecodeZigZag maps a zigzag parameter integer back to a signed delta.
func DecodeZigZag(v uint32) int32 {
	return int32(v>>1) ^ -int32(v&1)
}

// EncodeZigZag maps a signed delta to its zigzag parameter integer.
func EncodeZigZag(d int32) uint32 {
	return uint32((d << 1) ^ (d >> 31))
}
