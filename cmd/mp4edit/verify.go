package main

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"

	mp4ff "github.com/Eyevinn/mp4ff/mp4"

	mp4 "github.com/tetsuo/mp4edit"
)

// errNotDecodable is returned when mp4ff cannot model a file the editor
// accepted.
var errNotDecodable = errors.New("mp4ff cannot decode file")

// decode re-parses an edited buffer with mp4ff, which shares no code with
// the editor. mp4ff expects every trak to carry minf/stbl/stts and panics
// otherwise, so that path is checked first and any other panic is turned
// into an error.
func decode(buf []byte) (f *mp4ff.File, err error) {
	for trak := range mp4.Tracks(buf) {
		if _, ok := mp4.FindPath(buf, trak.DataOffset, trak.End(),
			mp4.TypeMdia, mp4.TypeMinf, mp4.TypeStbl, mp4.TypeStts); !ok {
			return nil, fmt.Errorf("%w: trak at offset %d has no sample table", errNotDecodable, trak.Offset)
		}
	}

	defer func() {
		if r := recover(); r != nil {
			f, err = nil, fmt.Errorf("%w: %v", errNotDecodable, r)
		}
	}()
	f, err = mp4ff.DecodeFile(bytes.NewReader(buf))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errNotDecodable, err)
	}
	if f.Moov == nil || f.Moov.Mvhd == nil {
		return nil, fmt.Errorf("%w: no moov after edit", errNotDecodable)
	}
	return f, nil
}

// verifyTrim checks that mp4ff sees the same first edit for every edit
// list the editor found.
func verifyTrim(log *slog.Logger, buf []byte) error {
	f, err := decode(buf)
	if err != nil {
		return err
	}

	var seen []mp4ff.ElstEntry
	for _, trak := range f.Moov.Traks {
		if trak.Mdia == nil || trak.Mdia.Mdhd == nil {
			continue
		}
		if trak.Edts == nil || len(trak.Edts.Elst) == 0 {
			continue
		}
		elst := trak.Edts.Elst[0]
		if len(elst.Entries) == 0 {
			continue
		}
		var id uint32
		if trak.Tkhd != nil {
			id = trak.Tkhd.TrackID
		}
		e := elst.Entries[0]
		log.Debug("verify elst",
			"track", id,
			"timescale", trak.Mdia.Mdhd.Timescale,
			"duration", e.SegmentDuration,
			"media_time", e.MediaTime)
		seen = append(seen, e)
	}

	lists := mp4.FindEditLists(buf)
	var want []mp4.EditListEntry
	for _, el := range lists {
		if len(el.Entries) > 0 {
			want = append(want, el.Entries[0])
		}
	}
	if len(seen) != len(want) {
		return fmt.Errorf("mp4ff sees %d edit lists, editor wrote %d", len(seen), len(want))
	}
	for i, e := range seen {
		w := want[i]
		if e.SegmentDuration != w.SegmentDuration || e.MediaTime != w.MediaTime {
			return fmt.Errorf("edit list %d: mp4ff sees %d/%d, editor wrote %d/%d",
				i, e.SegmentDuration, e.MediaTime, w.SegmentDuration, w.MediaTime)
		}
	}
	return nil
}

// verifyRotate checks that the file still decodes, that the video track
// header fields around the matrix are intact and that the matrix on disk
// is the one the editor meant to write.
func verifyRotate(log *slog.Logger, buf []byte, want mp4.Matrix) error {
	f, err := decode(buf)
	if err != nil {
		return err
	}

	th, ok := mp4.FindVideoTrackHeader(buf)
	if !ok {
		return mp4.ErrNoVideoTrack
	}
	got, err := mp4.ReadMatrix(buf, th.MatrixOffset(buf))
	if err != nil {
		return err
	}
	if got != want {
		return fmt.Errorf("matrix on disk %v, want %v", got, want)
	}

	for _, trak := range f.Moov.Traks {
		if trak.Mdia == nil || trak.Mdia.Hdlr == nil || trak.Mdia.Hdlr.HandlerType != "vide" {
			continue
		}
		if trak.Tkhd == nil || trak.Tkhd.TrackID == 0 {
			return fmt.Errorf("video tkhd unreadable after rotation")
		}
		log.Debug("verify tkhd", "track", trak.Tkhd.TrackID, "width", trak.Tkhd.Width>>16, "height", trak.Tkhd.Height>>16)
		return nil
	}
	return fmt.Errorf("mp4ff found no video track")
}
