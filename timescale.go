package mp4

// readTimescale reads the timescale field of an mvhd or mdhd box. Both boxes
// place it after version+flags and the creation and modification times.
func readTimescale(buf []byte, b Box) (uint32, bool) {
	v, ok := fullBoxVersion(buf, b)
	if !ok {
		return 0, false
	}
	off := b.DataOffset + 4 + 2*timeFieldWidth(v)
	if off+4 > b.End() {
		return 0, false
	}
	return be.Uint32(buf[off:]), true
}

// MovieTimescale returns the timescale of the movie header (moov/mvhd).
func MovieTimescale(buf []byte) (uint32, bool) {
	mvhd, ok := FindPath(buf, 0, len(buf), TypeMoov, TypeMvhd)
	if !ok {
		return 0, false
	}
	return readTimescale(buf, mvhd)
}

// TrackTimescale returns the media timescale of a trak box (mdia/mdhd).
func TrackTimescale(buf []byte, trak Box) (uint32, bool) {
	mdhd, ok := FindPath(buf, trak.DataOffset, trak.End(), TypeMdia, TypeMdhd)
	if !ok {
		return 0, false
	}
	return readTimescale(buf, mdhd)
}

// TrackTimescales returns the media timescale of every track, in file order.
// Tracks without a readable mdhd are left out.
func TrackTimescales(buf []byte) []uint32 {
	var out []uint32
	for trak := range Tracks(buf) {
		if ts, ok := TrackTimescale(buf, trak); ok {
			out = append(out, ts)
		}
	}
	return out
}
