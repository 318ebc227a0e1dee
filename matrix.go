package mp4

import (
	"errors"
	"fmt"
	"strings"
)

// Fixed-point constants used in transformation matrices.
const (
	fixedOne16 = 0x00010000 // 1.0 in 16.16
	fixedOne30 = 0x40000000 // 1.0 in 2.30
)

// MatrixSize is the encoded size of a transformation matrix.
const MatrixSize = 36

// Matrix is a transformation matrix as stored in tkhd and mvhd, row-major
// {a, b, u, c, d, v, x, y, w}. a, b, c, d, x and y are 16.16 fixed-point;
// u, v and w are 2.30 fixed-point.
type Matrix [9]int32

// IdentityMatrix leaves the picture as decoded.
var IdentityMatrix = Matrix{fixedOne16, 0, 0, 0, fixedOne16, 0, 0, 0, fixedOne30}

// Rotation is a clockwise or counter-clockwise quarter or half turn.
type Rotation int

const (
	Rotate90CW Rotation = iota + 1
	Rotate90CCW
	Rotate180
)

var ErrUnknownRotation = errors.New("mp4: unknown rotation")

func (r Rotation) String() string {
	switch r {
	case Rotate90CW:
		return "90cw"
	case Rotate90CCW:
		return "90ccw"
	case Rotate180:
		return "180"
	}
	return fmt.Sprintf("Rotation(%d)", int(r))
}

// ParseRotation parses "90cw", "90ccw" or "180".
func ParseRotation(s string) (Rotation, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "90cw":
		return Rotate90CW, nil
	case "90ccw":
		return Rotate90CCW, nil
	case "180":
		return Rotate180, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownRotation, s)
}

// Rotate returns m followed by r. Only the linear part changes; the
// rotation operators hold 0 and ±1.0 only, so the result is exact.
// Translation and the projective terms are carried over.
func (m Matrix) Rotate(r Rotation) Matrix {
	a, b, c, d := m[0], m[1], m[3], m[4]
	switch r {
	case Rotate90CW:
		a, b, c, d = -b, a, -d, c
	case Rotate90CCW:
		a, b, c, d = b, -a, d, -c
	case Rotate180:
		a, b, c, d = -a, -b, -c, -d
	}
	m[0], m[1], m[3], m[4] = a, b, c, d
	return m
}

// Degrees returns the clockwise rotation described by the linear part of m,
// or false when it is not a quarter-turn orientation.
func (m Matrix) Degrees() (int, bool) {
	a, b, c, d := m[0], m[1], m[3], m[4]
	switch {
	case b == 0 && c == 0 && a > 0 && d > 0:
		return 0, true
	case a == 0 && d == 0 && b > 0 && c < 0:
		return 90, true
	case b == 0 && c == 0 && a < 0 && d < 0:
		return 180, true
	case a == 0 && d == 0 && b < 0 && c > 0:
		return 270, true
	}
	return 0, false
}

// ReadMatrix decodes the matrix stored at off.
func ReadMatrix(buf []byte, off int) (Matrix, error) {
	var m Matrix
	if err := checkBounds(buf, off, MatrixSize); err != nil {
		return m, err
	}
	for i := range m {
		m[i] = int32(be.Uint32(buf[off+4*i:]))
	}
	return m, nil
}

// put encodes m at the start of p, which must hold MatrixSize bytes.
func (m Matrix) put(p []byte) {
	for i, v := range m {
		be.PutUint32(p[4*i:], uint32(v))
	}
}

// ModifyMatrix writes base rotated by r at off. It writes nothing and
// returns false when the matrix would not fit in buf, that is when off is
// negative or off+36 exceeds len(buf); off == len(buf)-36 is writable.
func ModifyMatrix(buf []byte, off int, base Matrix, r Rotation) bool {
	if off < 0 || off+MatrixSize > len(buf) {
		return false
	}
	base.Rotate(r).put(buf[off:])
	return true
}
