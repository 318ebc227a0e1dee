package mp4

import (
	"errors"
	"fmt"
	"math"
	"math/bits"
	"time"
)

var (
	ErrInvalidRange  = errors.New("mp4: invalid trim range")
	ErrNoEntries     = errors.New("mp4: edit list has no entries")
	ErrFieldOverflow = errors.New("mp4: value does not fit edit list field")
)

// EditListEntry is one entry of an elst box.
//
// SegmentDuration is in movie timescale units, MediaTime in the track's own
// timescale units. A MediaTime of -1 marks an empty edit.
type EditListEntry struct {
	SegmentDuration   uint64
	MediaTime         int64
	MediaRateInteger  int16
	MediaRateFraction int16
	Offset            int // absolute offset of SegmentDuration
}

// IsEmptyEdit reports whether the entry maps no media.
func (e EditListEntry) IsEmptyEdit() bool { return e.MediaTime == -1 }

// EditList is an elst box paired with the timescales needed to interpret it.
// It is a snapshot of the buffer taken by FindEditLists.
type EditList struct {
	Offset         int // absolute offset of the elst box
	Version        uint8
	Timescale      uint32 // owning track's mdhd timescale
	MovieTimescale uint32 // mvhd timescale
	Entries        []EditListEntry
}

// DecodeEditList parses the entries of an elst box. Entries that would run
// past the end of the box are dropped.
func DecodeEditList(buf []byte, elst Box) (version uint8, entries []EditListEntry, ok bool) {
	version, ok = fullBoxVersion(buf, elst)
	if !ok {
		return 0, nil, false
	}
	off := elst.DataOffset + 4
	if off+4 > elst.End() {
		return 0, nil, false
	}
	count := uint64(be.Uint32(buf[off:]))
	off += 4

	w := timeFieldWidth(version)
	stride := 2*w + 4
	n := int(min(count, uint64((elst.End()-off)/stride)))

	entries = make([]EditListEntry, 0, n)
	for range n {
		e := EditListEntry{Offset: off}
		if w == 8 {
			e.SegmentDuration = be.Uint64(buf[off:])
			e.MediaTime = int64(be.Uint64(buf[off+8:]))
		} else {
			e.SegmentDuration = uint64(be.Uint32(buf[off:]))
			e.MediaTime = int64(int32(be.Uint32(buf[off+4:])))
		}
		e.MediaRateInteger = int16(be.Uint16(buf[off+2*w:]))
		e.MediaRateFraction = int16(be.Uint16(buf[off+2*w+2:]))
		entries = append(entries, e)
		off += stride
	}
	return version, entries, true
}

// FindEditLists returns the edit list of every track under moov, in file
// order. Tracks without an edit list or without a media timescale are
// skipped. A file without a movie header has no usable edit lists.
func FindEditLists(buf []byte) []EditList {
	movieTimescale, ok := MovieTimescale(buf)
	if !ok {
		return nil
	}

	var out []EditList
	for trak := range Tracks(buf) {
		ts, ok := TrackTimescale(buf, trak)
		if !ok {
			continue
		}
		elst, ok := FindPath(buf, trak.DataOffset, trak.End(), TypeEdts, TypeElst)
		if !ok {
			continue
		}
		version, entries, ok := DecodeEditList(buf, elst)
		if !ok {
			continue
		}
		out = append(out, EditList{
			Offset:         elst.Offset,
			Version:        version,
			Timescale:      ts,
			MovieTimescale: movieTimescale,
			Entries:        entries,
		})
	}
	return out
}

// ModifyEditList rewrites the first entry of el so that it plays the window
// [start, end] of the track's media. The segment duration becomes end-start
// in movie units and the media time becomes start in track units, both
// rounded to the nearest unit. An empty edit keeps its -1 media time. Rates
// and all other entries are left untouched.
//
// On error the buffer is not modified.
func ModifyEditList(buf []byte, el EditList, start, end time.Duration) error {
	p, err := planTrim(buf, el, start, end)
	if err != nil {
		return err
	}
	p.apply(buf)
	return nil
}

// TrimEditLists applies ModifyEditList to every edit list in buf that has
// at least one entry and returns how many were rewritten. All lists are
// checked before any is written, so on error the buffer is not modified.
func TrimEditLists(buf []byte, start, end time.Duration) (int, error) {
	var plans []trimPlan
	for _, el := range FindEditLists(buf) {
		if len(el.Entries) == 0 {
			continue
		}
		p, err := planTrim(buf, el, start, end)
		if err != nil {
			return 0, fmt.Errorf("edit list at offset %d: %w", el.Offset, err)
		}
		plans = append(plans, p)
	}
	for _, p := range plans {
		p.apply(buf)
	}
	return len(plans), nil
}

// trimPlan is a validated rewrite of one edit list entry.
type trimPlan struct {
	off           int
	width         int
	duration      uint64
	mediaTime     int64
	keepMediaTime bool
}

func planTrim(buf []byte, el EditList, start, end time.Duration) (trimPlan, error) {
	if start < 0 || end < start {
		return trimPlan{}, fmt.Errorf("%w: start %v, end %v", ErrInvalidRange, start, end)
	}
	if len(el.Entries) == 0 {
		return trimPlan{}, ErrNoEntries
	}

	w := timeFieldWidth(el.Version)
	p := trimPlan{off: el.Entries[0].Offset, width: w}
	if err := checkBounds(buf, p.off, 2*w); err != nil {
		return trimPlan{}, err
	}

	var err error
	if p.duration, err = scaleDuration(end-start, el.MovieTimescale); err != nil {
		return trimPlan{}, err
	}

	// The buffer is authoritative; el may be stale.
	var cur int64
	if w == 8 {
		cur = int64(be.Uint64(buf[p.off+8:]))
	} else {
		cur = int64(int32(be.Uint32(buf[p.off+4:])))
	}
	if cur == -1 {
		p.keepMediaTime = true
	} else {
		mt, err := scaleDuration(start, el.Timescale)
		if err != nil {
			return trimPlan{}, err
		}
		if mt > math.MaxInt64 {
			return trimPlan{}, fmt.Errorf("%w: media time %d", ErrFieldOverflow, mt)
		}
		p.mediaTime = int64(mt)
	}

	if w == 4 {
		if p.duration > math.MaxUint32 {
			return trimPlan{}, fmt.Errorf("%w: segment duration %d needs a version 1 edit list", ErrFieldOverflow, p.duration)
		}
		if p.mediaTime > math.MaxInt32 {
			return trimPlan{}, fmt.Errorf("%w: media time %d needs a version 1 edit list", ErrFieldOverflow, p.mediaTime)
		}
	}
	return p, nil
}

func (p trimPlan) apply(buf []byte) {
	if p.width == 8 {
		be.PutUint64(buf[p.off:], p.duration)
		if !p.keepMediaTime {
			be.PutUint64(buf[p.off+8:], uint64(p.mediaTime))
		}
		return
	}
	be.PutUint32(buf[p.off:], uint32(p.duration))
	if !p.keepMediaTime {
		be.PutUint32(buf[p.off+4:], uint32(int32(p.mediaTime)))
	}
}

const nanosPerSecond = uint64(time.Second)

// scaleDuration converts a non-negative d to units of timescale, rounding
// half up. The product is formed in 128 bits so no precision is lost.
func scaleDuration(d time.Duration, timescale uint32) (uint64, error) {
	hi, lo := bits.Mul64(uint64(d), uint64(timescale))
	lo, carry := bits.Add64(lo, nanosPerSecond/2, 0)
	hi += carry
	if hi >= nanosPerSecond {
		return 0, fmt.Errorf("%w: %v at timescale %d", ErrFieldOverflow, d, timescale)
	}
	q, _ := bits.Div64(hi, lo, nanosPerSecond)
	return q, nil
}
