package fixture

import (
	mp4 "github.com/tetsuo/mp4edit"
)

// Track describes one trak box.
type Track struct {
	ID          uint32
	Handler     [4]byte
	Timescale   uint32
	Duration    uint64 // in Timescale units
	TkhdVersion uint8
	MdhdVersion uint8
	Matrix      mp4.Matrix // zero value means identity
	Width       uint32
	Height      uint32
	EditList    *EditList
	NoTkhd      bool
	LargeTkhd   bool // write tkhd with a 64-bit size
	NoMinf      bool // leave out minf and its sample table
}

// EditList describes an elst box.
type EditList struct {
	Version uint8
	Entries []mp4.EditListEntry
}

// Movie describes a file: ftyp, moov and an optional mdat.
type Movie struct {
	Timescale   uint32
	Duration    uint64 // in Timescale units
	MvhdVersion uint8
	LargeMoov   bool   // write moov with a 64-bit size
	Mdat        []byte // written after moov when non-nil
	OpenMdat    bool   // write mdat with a zero size field
	Tracks      []Track
}

// Build encodes m.
func Build(m Movie) []byte {
	w := NewWriter(make([]byte, 0, 1024))
	w.WriteFtyp([4]byte{'i', 's', 'o', 'm'}, 0x200,
		[4]byte{'i', 's', 'o', 'm'}, [4]byte{'m', 'p', '4', '1'})

	if m.LargeMoov {
		w.StartLargeBox(mp4.TypeMoov)
	} else {
		w.StartBox(mp4.TypeMoov)
	}
	w.WriteMvhd(m.MvhdVersion, m.Timescale, m.Duration, uint32(len(m.Tracks)+1))
	for _, t := range m.Tracks {
		writeTrak(&w, t, uint32(len(m.Mdat)))
	}
	w.EndBox()

	if m.Mdat != nil {
		w.PatchChunkOffsets(uint32(w.Len() + 8))
		if m.OpenMdat {
			w.WriteOpenEndedBox(mp4.TypeMdat, m.Mdat)
		} else {
			w.StartBox(mp4.TypeMdat)
			w.putBytes(m.Mdat)
			w.EndBox()
		}
	}
	return w.Bytes()
}

func writeTrak(w *Writer, t Track, sampleSize uint32) {
	matrix := t.Matrix
	if matrix == (mp4.Matrix{}) {
		matrix = mp4.IdentityMatrix
	}

	w.StartBox(mp4.TypeTrak)
	switch {
	case t.NoTkhd:
	case t.LargeTkhd:
		w.WriteLargeTkhd(t.TkhdVersion, t.ID, t.Duration, matrix, t.Width, t.Height)
	default:
		w.WriteTkhd(t.TkhdVersion, t.ID, t.Duration, matrix, t.Width, t.Height)
	}
	if t.EditList != nil {
		w.StartBox(mp4.TypeEdts)
		w.WriteElst(t.EditList.Version, t.EditList.Entries)
		w.EndBox()
	}
	w.StartBox(mp4.TypeMdia)
	w.WriteMdhd(t.MdhdVersion, t.Timescale, t.Duration, 0x55c4) // "und"
	w.WriteHdlr(t.Handler, handlerName(t.Handler))
	if !t.NoMinf {
		w.WriteMinf(t.Handler, uint32(t.Duration), sampleSize)
	}
	w.EndBox()
	w.EndBox()
}

func handlerName(h [4]byte) string {
	switch h {
	case mp4.HandlerVideo:
		return "VideoHandler"
	case mp4.HandlerSound:
		return "SoundHandler"
	}
	return "Handler"
}

// VideoAudio returns a movie with a 30 fps video track and a 48 kHz audio
// track, each with a single-entry edit list.
func VideoAudio() Movie {
	return Movie{
		Timescale: 600,
		Duration:  6000,
		Mdat:      make([]byte, 16),
		Tracks: []Track{
			{
				ID: 1, Handler: mp4.HandlerVideo, Timescale: 30, Duration: 300,
				Width: 1920, Height: 1080,
				EditList: &EditList{Entries: []mp4.EditListEntry{
					{SegmentDuration: 6000, MediaTime: 0, MediaRateInteger: 1},
				}},
			},
			{
				ID: 2, Handler: mp4.HandlerSound, Timescale: 48000, Duration: 480000,
				EditList: &EditList{Entries: []mp4.EditListEntry{
					{SegmentDuration: 6000, MediaTime: 0, MediaRateInteger: 1},
				}},
			},
		},
	}
}
