package mp4_test

import (
	"testing"

	mp4 "github.com/tetsuo/mp4edit"
	"github.com/tetsuo/mp4edit/internal/fixture"
)

func TestFindBox(t *testing.T) {
	buf := fixture.Build(fixture.VideoAudio())

	moov, ok := mp4.FindBox(buf, 0, len(buf), mp4.TypeMoov)
	if !ok {
		t.Fatal("moov not found")
	}
	if moov.Type != mp4.TypeMoov || moov.Offset != 24 || moov.DataOffset != 32 {
		t.Fatalf("moov = %+v", moov)
	}
	if moov.End() > len(buf) {
		t.Fatalf("moov ends at %d past %d", moov.End(), len(buf))
	}

	if _, ok := mp4.FindBox(buf, 0, len(buf), mp4.TypeTrak); ok {
		t.Fatal("trak found at top level")
	}
	if _, ok := mp4.FindBox(buf, moov.DataOffset, moov.End(), mp4.TypeTrak); !ok {
		t.Fatal("trak not found in moov")
	}
}

func TestFindPath(t *testing.T) {
	buf := fixture.Build(fixture.VideoAudio())

	mdhd, ok := mp4.FindPath(buf, 0, len(buf), mp4.TypeMoov, mp4.TypeTrak, mp4.TypeMdia, mp4.TypeMdhd)
	if !ok {
		t.Fatal("mdhd not found")
	}
	if mdhd.Type != mp4.TypeMdhd || mdhd.Size != 32 {
		t.Fatalf("mdhd = %+v", mdhd)
	}
	if _, ok := mp4.FindPath(buf, 0, len(buf), mp4.TypeMoov, mp4.TypeMdia); ok {
		t.Fatal("mdia found directly under moov")
	}
	if _, ok := mp4.FindPath(buf, 0, len(buf)); ok {
		t.Fatal("empty path found a box")
	}
}

func TestFindBoxExtendedSize(t *testing.T) {
	m := fixture.VideoAudio()
	m.LargeMoov = true
	buf := fixture.Build(m)

	moov, ok := mp4.FindBox(buf, 0, len(buf), mp4.TypeMoov)
	if !ok {
		t.Fatal("moov not found")
	}
	if moov.HeaderSize() != 16 {
		t.Fatalf("header size = %d, want 16", moov.HeaderSize())
	}
	if _, ok := mp4.FindBox(buf, moov.DataOffset, moov.End(), mp4.TypeMvhd); !ok {
		t.Fatal("mvhd not found inside extended moov")
	}
	if _, ok := mp4.FindBox(buf, 0, len(buf), mp4.TypeMdat); !ok {
		t.Fatal("mdat after extended moov not found")
	}
}

func TestFindBoxOpenEnded(t *testing.T) {
	m := fixture.VideoAudio()
	m.OpenMdat = true
	buf := fixture.Build(m)

	mdat, ok := mp4.FindBox(buf, 0, len(buf), mp4.TypeMdat)
	if !ok {
		t.Fatal("mdat not found")
	}
	if mdat.End() != len(buf) {
		t.Fatalf("open-ended mdat ends at %d, want %d", mdat.End(), len(buf))
	}
}

func TestFindBoxMalformed(t *testing.T) {
	buf := fixture.Build(fixture.VideoAudio())
	moov, _ := mp4.FindBox(buf, 0, len(buf), mp4.TypeMoov)

	tests := []struct {
		name string
		buf  []byte
	}{
		{"empty", nil},
		{"short header", []byte{0, 1, 2, 3, 4}},
		{"truncated moov", buf[:moov.Offset+20]},
		{"size below header", []byte{0, 0, 0, 4, 'm', 'o', 'o', 'v'}},
		{"extended size truncated", []byte{0, 0, 0, 1, 'm', 'o', 'o', 'v', 0, 0}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if b, ok := mp4.FindBox(tt.buf, 0, len(tt.buf), mp4.TypeMoov); ok {
				t.Fatalf("found %+v in malformed input", b)
			}
		})
	}
}

func TestFindBoxRangeClamped(t *testing.T) {
	buf := fixture.Build(fixture.VideoAudio())
	if _, ok := mp4.FindBox(buf, 0, len(buf)+100, mp4.TypeMoov); !ok {
		t.Fatal("moov not found with range past buffer end")
	}
	if _, ok := mp4.FindBox(buf, -4, len(buf), mp4.TypeMoov); ok {
		t.Fatal("negative start accepted")
	}
}

func TestBoxesWithinRange(t *testing.T) {
	buf := fixture.Build(fixture.VideoAudio())
	var types []string
	for b := range mp4.Boxes(buf, 0, len(buf)) {
		if b.Offset < 0 || b.End() > len(buf) {
			t.Fatalf("box %s at [%d,%d) outside buffer", b.Type, b.Offset, b.End())
		}
		types = append(types, b.Type.String())
	}
	want := []string{"ftyp", "moov", "mdat"}
	if len(types) != len(want) {
		t.Fatalf("top-level boxes = %v, want %v", types, want)
	}
	for i := range want {
		if types[i] != want[i] {
			t.Fatalf("top-level boxes = %v, want %v", types, want)
		}
	}
}

func TestTracks(t *testing.T) {
	buf := fixture.Build(fixture.VideoAudio())
	n := 0
	for trak := range mp4.Tracks(buf) {
		if trak.Type != mp4.TypeTrak {
			t.Fatalf("yielded %s", trak.Type)
		}
		n++
	}
	if n != 2 {
		t.Fatalf("tracks = %d, want 2", n)
	}
}
