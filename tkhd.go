package mp4

import (
	"errors"
	"fmt"
)

// Handler types found in hdlr boxes.
var (
	HandlerVideo = [4]byte{'v', 'i', 'd', 'e'}
	HandlerSound = [4]byte{'s', 'o', 'u', 'n'}
)

var ErrNoVideoTrack = errors.New("mp4: no video track header")

// TrackHeader locates a tkhd box.
type TrackHeader struct {
	Offset     int    // absolute offset of the tkhd box
	DataOffset int    // first byte after the 8- or 16-byte box header
	Size       uint64 // total size of the tkhd box
}

// MatrixOffset returns the absolute offset of the matrix in this tkhd. It
// accounts for a 64-bit size header, which MatrixOffset(buf, h.Offset)
// does not.
func (h TrackHeader) MatrixOffset(buf []byte) int {
	var version uint8
	if i := h.DataOffset; i >= 0 && i < len(buf) {
		version = buf[i]
	}
	return h.DataOffset + tkhdMatrixPrefix(version)
}

// TrackHandler returns the handler type declared by the trak's mdia/hdlr.
// The handler type follows version+flags and the 32-bit pre_defined field.
func TrackHandler(buf []byte, trak Box) ([4]byte, bool) {
	var ht [4]byte
	hdlr, ok := FindPath(buf, trak.DataOffset, trak.End(), TypeMdia, TypeHdlr)
	if !ok {
		return ht, false
	}
	off := hdlr.DataOffset + 8
	if off+4 > hdlr.End() {
		return ht, false
	}
	copy(ht[:], buf[off:off+4])
	return ht, true
}

// FindVideoTrackHeader returns the tkhd of the first video track.
func FindVideoTrackHeader(buf []byte) (TrackHeader, bool) {
	for trak := range Tracks(buf) {
		if ht, ok := TrackHandler(buf, trak); !ok || ht != HandlerVideo {
			continue
		}
		if tkhd, ok := FindBox(buf, trak.DataOffset, trak.End(), TypeTkhd); ok {
			return TrackHeader{Offset: tkhd.Offset, DataOffset: tkhd.DataOffset, Size: tkhd.Size}, true
		}
	}
	return TrackHeader{}, false
}

// tkhdMatrixPrefix is the number of bytes between the end of the 8-byte tkhd
// header and the matrix: version+flags, creation and modification times,
// track ID, reserved, duration, reserved[2], layer, alternate group, volume
// and reserved.
func tkhdMatrixPrefix(version uint8) int {
	w := timeFieldWidth(version)
	return 4 + w + w + 4 + 4 + w + 8 + 2 + 2 + 2 + 2
}

// MatrixOffset returns the absolute offset of the matrix of the tkhd box at
// tkhdOffset, assuming an 8-byte header: tkhdOffset+48 for version 0 and
// tkhdOffset+60 for version 1. Unknown versions, or a version byte past the
// end of buf, use the version 0 layout.
func MatrixOffset(buf []byte, tkhdOffset int) int {
	return TrackHeader{Offset: tkhdOffset, DataOffset: tkhdOffset + 8}.MatrixOffset(buf)
}

// RotateVideo rotates the first video track by r, composing with the matrix
// already stored in its tkhd, and returns the matrix written.
func RotateVideo(buf []byte, r Rotation) (Matrix, error) {
	th, ok := FindVideoTrackHeader(buf)
	if !ok {
		return Matrix{}, ErrNoVideoTrack
	}
	off := th.MatrixOffset(buf)
	if off+MatrixSize > th.Offset+int(th.Size) {
		return Matrix{}, fmt.Errorf("tkhd at offset %d: %w", th.Offset, ErrOutOfBounds)
	}
	base, err := ReadMatrix(buf, off)
	if err != nil {
		return Matrix{}, err
	}
	ModifyMatrix(buf, off, base, r)
	return base.Rotate(r), nil
}
