package main

import (
	"fmt"
	"io"

	"github.com/tetsuo/mp4edit/track"
)

type editInfo struct {
	SegmentDuration uint64 `json:"segment_duration"`
	MediaTime       int64  `json:"media_time"`
	Rate            int16  `json:"rate"`
}

type trackInfo struct {
	ID             uint32     `json:"id"`
	Kind           string     `json:"kind"`
	Handler        string     `json:"handler"`
	Timescale      uint32     `json:"timescale"`
	MovieTimescale uint32     `json:"movie_timescale"`
	Duration       uint64     `json:"duration"`
	Width          uint16     `json:"width,omitempty"`
	Height         uint16     `json:"height,omitempty"`
	Rotation       *int       `json:"rotation,omitempty"`
	ElstVersion    uint8      `json:"elst_version"`
	Edits          []editInfo `json:"edits,omitempty"`
}

func newTrackInfo(t *track.Track) trackInfo {
	ti := trackInfo{
		ID:             t.ID,
		Kind:           t.Kind.String(),
		Handler:        string(t.Handler[:]),
		Timescale:      t.TimeScale,
		MovieTimescale: t.MovieTimeScale,
		Duration:       t.Duration,
		Width:          t.Width,
		Height:         t.Height,
		ElstVersion:    t.ElstVersion,
	}
	if t.Kind == track.TrackVideo {
		if deg, ok := t.Rotation(); ok {
			ti.Rotation = &deg
		}
	}
	for _, e := range t.EditList {
		ti.Edits = append(ti.Edits, editInfo{
			SegmentDuration: e.SegmentDuration,
			MediaTime:       e.MediaTime,
			Rate:            e.MediaRateInteger,
		})
	}
	return ti
}

func (ti trackInfo) writeText(w io.Writer) {
	fmt.Fprintf(w, "track %d (%s, %s) timescale=%d movie_timescale=%d duration=%d",
		ti.ID, ti.Kind, ti.Handler, ti.Timescale, ti.MovieTimescale, ti.Duration)
	if ti.Width != 0 || ti.Height != 0 {
		fmt.Fprintf(w, " %dx%d", ti.Width, ti.Height)
	}
	if ti.Rotation != nil {
		fmt.Fprintf(w, " rotation=%d", *ti.Rotation)
	}
	fmt.Fprintln(w)
	for i, e := range ti.Edits {
		fmt.Fprintf(w, "  edit %d: duration=%d media_time=%d rate=%d\n", i, e.SegmentDuration, e.MediaTime, e.Rate)
	}
}
