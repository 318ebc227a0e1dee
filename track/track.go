// Package track summarizes the tracks of an MP4 file: identity, handler,
// timescales, edit list and display orientation.
package track

import (
	"errors"
	"fmt"

	mp4 "github.com/tetsuo/mp4edit"
)

// TrackKind distinguishes video, audio and other tracks.
type TrackKind int

const (
	TrackOther TrackKind = iota
	TrackVideo
	TrackAudio
)

func (k TrackKind) String() string {
	switch k {
	case TrackVideo:
		return "video"
	case TrackAudio:
		return "audio"
	}
	return "other"
}

// Track holds the metadata of one trak box.
type Track struct {
	ID             uint32
	Kind           TrackKind
	Handler        [4]byte
	TimeScale      uint32 // mdhd
	MovieTimeScale uint32 // mvhd
	Duration       uint64 // in TimeScale units

	Width  uint16
	Height uint16
	Matrix mp4.Matrix

	// EditList is empty when the track has no elst box.
	EditList    []mp4.EditListEntry
	ElstVersion uint8

	TkhdOffset  int
	TkhdVersion uint8
}

// Rotation returns the clockwise display rotation in degrees, or false when
// the matrix is not a quarter-turn orientation.
func (t *Track) Rotation() (int, bool) { return t.Matrix.Degrees() }

// HasEditList reports whether the track carries an edit list with entries.
func (t *Track) HasEditList() bool { return len(t.EditList) > 0 }

// FindTrack returns the track with the given ID, or nil.
func FindTrack(tracks []*Track, id uint32) *Track {
	for _, t := range tracks {
		if t.ID == id {
			return t
		}
	}
	return nil
}

// FindVideo returns the first video track, or nil.
func FindVideo(tracks []*Track) *Track {
	for _, t := range tracks {
		if t.Kind == TrackVideo {
			return t
		}
	}
	return nil
}

var (
	ErrMoovNotFound = errors.New("moov box not found in buffer")
	ErrInvalidTrack = errors.New("invalid track data")
)

// Parse walks the moov box of a whole-file buffer and returns its tracks in
// file order. Traks without a readable tkhd or mdhd are skipped.
func Parse(buf []byte) ([]*Track, error) {
	r := mp4.NewReader(buf)
	for r.Next() {
		if r.Type() == mp4.TypeMoov {
			return parseMoov(&r), nil
		}
	}
	return nil, ErrMoovNotFound
}

func parseMoov(r *mp4.Reader) []*Track {
	var (
		tracks   []*Track
		movieTS  uint32
		haveMvhd bool
	)

	if !r.Enter() {
		return nil
	}
	for r.Next() {
		switch r.Type() {
		case mp4.TypeMvhd:
			movieTS, _, haveMvhd = r.ReadMvhd()
		case mp4.TypeTrak:
			if t, err := parseTrak(r); err == nil {
				tracks = append(tracks, t)
			}
		}
	}
	r.Exit()

	if haveMvhd {
		for _, t := range tracks {
			t.MovieTimeScale = movieTS
		}
	}
	return tracks
}

func parseTrak(r *mp4.Reader) (*Track, error) {
	track := &Track{}
	offset := r.Offset()
	var haveTkhd, haveMdhd bool

	if !r.Enter() {
		return nil, fmt.Errorf("trak at %d: %w: nesting too deep", offset, ErrInvalidTrack)
	}
	for r.Next() {
		switch r.Type() {
		case mp4.TypeTkhd:
			f, ok := r.ReadTkhd()
			if !ok {
				continue
			}
			haveTkhd = true
			track.ID = f.TrackID
			track.Width = uint16(f.Width >> 16)
			track.Height = uint16(f.Height >> 16)
			track.Matrix = f.Matrix
			track.TkhdOffset = r.Offset()
			track.TkhdVersion = r.Version()
		case mp4.TypeEdts:
			parseEdts(r, track)
		case mp4.TypeMdia:
			haveMdhd = parseMdia(r, track)
		}
	}
	r.Exit()

	if !haveTkhd {
		return nil, fmt.Errorf("trak at %d: %w: missing tkhd", offset, ErrInvalidTrack)
	}
	if !haveMdhd {
		return nil, fmt.Errorf("track %d: %w: missing mdhd", track.ID, ErrInvalidTrack)
	}
	return track, nil
}

func parseEdts(r *mp4.Reader, track *Track) {
	if !r.Enter() {
		return
	}
	defer r.Exit()

	for r.Next() {
		if r.Type() != mp4.TypeElst {
			continue
		}
		if entries, ok := r.ReadElst(); ok {
			track.EditList = entries
			track.ElstVersion = r.Version()
		}
		return
	}
}

func parseMdia(r *mp4.Reader, track *Track) (haveMdhd bool) {
	if !r.Enter() {
		return false
	}
	defer r.Exit()

	for r.Next() {
		switch r.Type() {
		case mp4.TypeMdhd:
			ts, dur, ok := r.ReadMdhd()
			if ok {
				track.TimeScale = ts
				track.Duration = dur
				haveMdhd = true
			}
		case mp4.TypeHdlr:
			ht, ok := r.ReadHdlr()
			if !ok {
				continue
			}
			track.Handler = ht
			switch ht {
			case mp4.HandlerVideo:
				track.Kind = TrackVideo
			case mp4.HandlerSound:
				track.Kind = TrackAudio
			}
		}
	}
	return haveMdhd
}
