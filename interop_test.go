package mp4_test

import (
	"bytes"
	"testing"
	"time"

	mp4ff "github.com/Eyevinn/mp4ff/mp4"

	mp4 "github.com/tetsuo/mp4edit"
	"github.com/tetsuo/mp4edit/internal/fixture"
)

// decodeWithMp4ff parses buf with an independent decoder.
func decodeWithMp4ff(t *testing.T, buf []byte) *mp4ff.File {
	t.Helper()
	f, err := mp4ff.DecodeFile(bytes.NewReader(buf))
	if err != nil {
		t.Fatalf("mp4ff decode: %v", err)
	}
	if f.Moov == nil {
		t.Fatal("mp4ff found no moov")
	}
	return f
}

func TestInteropFixture(t *testing.T) {
	buf := fixture.Build(fixture.VideoAudio())
	f := decodeWithMp4ff(t, buf)

	if f.Moov.Mvhd.Timescale != 600 {
		t.Fatalf("mvhd timescale = %d", f.Moov.Mvhd.Timescale)
	}
	want := mp4.TrackTimescales(buf)
	if len(f.Moov.Traks) != len(want) {
		t.Fatalf("mp4ff traks = %d, want %d", len(f.Moov.Traks), len(want))
	}
	for i, trak := range f.Moov.Traks {
		if trak.Mdia.Mdhd.Timescale != want[i] {
			t.Fatalf("trak %d timescale = %d, want %d", i, trak.Mdia.Mdhd.Timescale, want[i])
		}
	}
	if f.Moov.Traks[0].Mdia.Hdlr.HandlerType != "vide" {
		t.Fatalf("first handler = %q", f.Moov.Traks[0].Mdia.Hdlr.HandlerType)
	}
	if f.IsFragmented() {
		t.Fatal("progressive fixture decoded as fragmented")
	}

	// Each track holds one sample covering the whole mdat payload.
	mdat, ok := mp4.FindBox(buf, 0, len(buf), mp4.TypeMdat)
	if !ok {
		t.Fatal("no mdat")
	}
	for i, trak := range f.Moov.Traks {
		stbl := trak.Mdia.Minf.Stbl
		if len(stbl.Stts.SampleCount) != 1 || stbl.Stsz.SampleNumber != 1 {
			t.Fatalf("trak %d: stts %v, stsz %d samples", i, stbl.Stts.SampleCount, stbl.Stsz.SampleNumber)
		}
		if len(stbl.Stco.ChunkOffset) != 1 || int(stbl.Stco.ChunkOffset[0]) != mdat.DataOffset {
			t.Fatalf("trak %d: chunk offsets %v, mdat data at %d", i, stbl.Stco.ChunkOffset, mdat.DataOffset)
		}
	}
}

func TestInteropTrim(t *testing.T) {
	for _, version := range []uint8{0, 1} {
		m := fixture.VideoAudio()
		for i := range m.Tracks {
			m.Tracks[i].EditList.Version = version
		}
		buf := fixture.Build(m)

		if _, err := mp4.TrimEditLists(buf, 5*time.Second, 10*time.Second); err != nil {
			t.Fatal(err)
		}

		f := decodeWithMp4ff(t, buf)
		want := []int64{150, 240000}
		for i, trak := range f.Moov.Traks {
			if trak.Edts == nil || len(trak.Edts.Elst) == 0 {
				t.Fatalf("v%d trak %d: no elst", version, i)
			}
			e := trak.Edts.Elst[0].Entries[0]
			if e.SegmentDuration != 3000 || e.MediaTime != want[i] {
				t.Fatalf("v%d trak %d: mp4ff sees %d/%d", version, i, e.SegmentDuration, e.MediaTime)
			}
			if e.MediaRateInteger != 1 {
				t.Fatalf("v%d trak %d: rate = %d", version, i, e.MediaRateInteger)
			}
		}
	}
}

func TestInteropRotate(t *testing.T) {
	buf := fixture.Build(fixture.VideoAudio())
	before := decodeWithMp4ff(t, buf)
	width := before.Moov.Traks[0].Tkhd.Width

	if _, err := mp4.RotateVideo(buf, mp4.Rotate90CW); err != nil {
		t.Fatal(err)
	}

	// The matrix sits between fields mp4ff does decode; they must survive.
	after := decodeWithMp4ff(t, buf)
	tkhd := after.Moov.Traks[0].Tkhd
	if tkhd.TrackID != 1 || tkhd.Width != width {
		t.Fatalf("tkhd after rotation = %+v", tkhd)
	}
}
