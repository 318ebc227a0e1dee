package mp4_test

import (
	"bytes"
	"errors"
	"testing"

	mp4 "github.com/tetsuo/mp4edit"
)

// canonical orientations, clockwise: 0, 90, 180, 270 degrees.
var canonical = []mp4.Matrix{
	{0x10000, 0, 0, 0, 0x10000, 0, 0, 0, 0x40000000},
	{0, 0x10000, 0, -0x10000, 0, 0, 0, 0, 0x40000000},
	{-0x10000, 0, 0, 0, -0x10000, 0, 0, 0, 0x40000000},
	{0, -0x10000, 0, 0x10000, 0, 0, 0, 0, 0x40000000},
}

func TestModifyMatrixBytes(t *testing.T) {
	tests := []struct {
		rotation mp4.Rotation
		want     []byte
	}{
		{mp4.Rotate90CW, []byte{
			0x00, 0x00, 0x00, 0x00, 0x00, 0x01, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
			0xff, 0xff, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
			0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x40, 0x00, 0x00, 0x00,
		}},
		{mp4.Rotate90CCW, []byte{
			0x00, 0x00, 0x00, 0x00, 0xff, 0xff, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
			0x00, 0x01, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
			0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x40, 0x00, 0x00, 0x00,
		}},
		{mp4.Rotate180, []byte{
			0xff, 0xff, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
			0x00, 0x00, 0x00, 0x00, 0xff, 0xff, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
			0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x40, 0x00, 0x00, 0x00,
		}},
	}
	for _, tt := range tests {
		t.Run(tt.rotation.String(), func(t *testing.T) {
			const off = 100
			buf := make([]byte, 200)
			if !mp4.ModifyMatrix(buf, off, mp4.IdentityMatrix, tt.rotation) {
				t.Fatal("ModifyMatrix reported no write")
			}
			if !bytes.Equal(buf[off:off+36], tt.want) {
				t.Fatalf("matrix bytes = % x", buf[off:off+36])
			}
			if !bytes.Equal(buf[:off], make([]byte, off)) || !bytes.Equal(buf[off+36:], make([]byte, 200-off-36)) {
				t.Fatal("bytes outside the matrix modified")
			}
		})
	}
}

func TestModifyMatrixOutOfBounds(t *testing.T) {
	for _, off := range []int{-1, 165, 180, 200} {
		buf := make([]byte, 200)
		if mp4.ModifyMatrix(buf, off, mp4.IdentityMatrix, mp4.Rotate90CW) {
			t.Fatalf("offset %d: reported a write", off)
		}
		if !bytes.Equal(buf, make([]byte, 200)) {
			t.Fatalf("offset %d: buffer modified", off)
		}
	}

	// The last offset that still fits.
	buf := make([]byte, 200)
	if !mp4.ModifyMatrix(buf, 164, mp4.IdentityMatrix, mp4.Rotate90CW) {
		t.Fatal("offset 164 rejected")
	}
}

func TestRotationGroup(t *testing.T) {
	for i, m := range canonical {
		r := m
		for range 4 {
			r = r.Rotate(mp4.Rotate90CW)
		}
		if r != m {
			t.Fatalf("orientation %d: four cw turns = %v", i, r)
		}
		if got := m.Rotate(mp4.Rotate90CW).Rotate(mp4.Rotate90CCW); got != m {
			t.Fatalf("orientation %d: cw then ccw = %v", i, got)
		}
		if got := m.Rotate(mp4.Rotate180).Rotate(mp4.Rotate180); got != m {
			t.Fatalf("orientation %d: 180 twice = %v", i, got)
		}
		if got, want := m.Rotate(mp4.Rotate90CW), canonical[(i+1)%4]; got != want {
			t.Fatalf("orientation %d: cw = %v, want %v", i, got, want)
		}
		if got, want := m.Rotate(mp4.Rotate180), canonical[(i+2)%4]; got != want {
			t.Fatalf("orientation %d: 180 = %v, want %v", i, got, want)
		}
		if got, want := m.Rotate(mp4.Rotate90CCW), canonical[(i+3)%4]; got != want {
			t.Fatalf("orientation %d: ccw = %v, want %v", i, got, want)
		}
		if deg, ok := m.Degrees(); !ok || deg != 90*i {
			t.Fatalf("orientation %d: Degrees = %d, %v", i, deg, ok)
		}
	}
}

func TestRotateCarriesTranslation(t *testing.T) {
	base := mp4.Matrix{0x10000, 0, 7, 0, 0x10000, 8, 1920 << 16, 1080 << 16, 0x40000000}
	got := base.Rotate(mp4.Rotate90CW)
	if got[2] != 7 || got[5] != 8 || got[6] != 1920<<16 || got[7] != 1080<<16 || got[8] != 0x40000000 {
		t.Fatalf("non-linear terms changed: %v", got)
	}
}

func TestDegreesNonCanonical(t *testing.T) {
	m := mp4.Matrix{0x8000, 0x8000, 0, 0, 0x10000, 0, 0, 0, 0x40000000}
	if _, ok := m.Degrees(); ok {
		t.Fatal("skewed matrix reported as a quarter turn")
	}
}

func TestParseRotation(t *testing.T) {
	for _, r := range []mp4.Rotation{mp4.Rotate90CW, mp4.Rotate90CCW, mp4.Rotate180} {
		got, err := mp4.ParseRotation(r.String())
		if err != nil || got != r {
			t.Fatalf("ParseRotation(%q) = %v, %v", r.String(), got, err)
		}
	}
	if got, err := mp4.ParseRotation(" 90CW "); err != nil || got != mp4.Rotate90CW {
		t.Fatalf("ParseRotation mixed case = %v, %v", got, err)
	}
	if _, err := mp4.ParseRotation("45"); !errors.Is(err, mp4.ErrUnknownRotation) {
		t.Fatalf("err = %v", err)
	}
}

func TestReadMatrix(t *testing.T) {
	buf := make([]byte, 40)
	mp4.ModifyMatrix(buf, 4, mp4.IdentityMatrix, mp4.Rotate90CCW)
	m, err := mp4.ReadMatrix(buf, 4)
	if err != nil {
		t.Fatal(err)
	}
	if m != canonical[3] {
		t.Fatalf("ReadMatrix = %v", m)
	}
	if _, err := mp4.ReadMatrix(buf, 5); !errors.Is(err, mp4.ErrOutOfBounds) {
		t.Fatalf("err = %v", err)
	}
}
