// Package fixture builds small synthetic MP4 files for tests.
package fixture

import (
	"encoding/binary"

	mp4 "github.com/tetsuo/mp4edit"
)

var be = binary.BigEndian

// writerFrame tracks the start offset of a box for size backpatching.
type writerFrame struct {
	offset int
	large  bool
}

// Writer appends ISOBMFF boxes to a growing byte slice.
type Writer struct {
	buf          []byte
	stack        []writerFrame
	chunkOffsets []int // positions of stco entries
}

// NewWriter creates a Writer that appends to buf[:0].
func NewWriter(buf []byte) Writer {
	return Writer{buf: buf[:0]}
}

// Bytes returns the written data.
func (w *Writer) Bytes() []byte { return w.buf }

// Len returns the number of bytes written.
func (w *Writer) Len() int { return len(w.buf) }

func (w *Writer) putUint8(v byte)    { w.buf = append(w.buf, v) }
func (w *Writer) putUint16(v uint16) { w.buf = be.AppendUint16(w.buf, v) }
func (w *Writer) putUint32(v uint32) { w.buf = be.AppendUint32(w.buf, v) }
func (w *Writer) putUint64(v uint64) { w.buf = be.AppendUint64(w.buf, v) }
func (w *Writer) putBytes(p []byte)  { w.buf = append(w.buf, p...) }

func (w *Writer) putZeros(n int) {
	w.buf = append(w.buf, make([]byte, n)...)
}

// putTime writes a time or duration field, 64-bit for version 1.
func (w *Writer) putTime(version uint8, v uint64) {
	if version == 1 {
		w.putUint64(v)
	} else {
		w.putUint32(uint32(v))
	}
}

func (w *Writer) putMatrix(m mp4.Matrix) {
	for _, v := range m {
		w.putUint32(uint32(v))
	}
}

// StartBox begins a new box. Write content, then call EndBox.
func (w *Writer) StartBox(t mp4.BoxType) {
	w.stack = append(w.stack, writerFrame{offset: len(w.buf)})
	w.putUint32(0) // placeholder size
	w.putBytes(t[:])
}

// StartLargeBox begins a box that uses the 64-bit size field.
func (w *Writer) StartLargeBox(t mp4.BoxType) {
	w.stack = append(w.stack, writerFrame{offset: len(w.buf), large: true})
	w.putUint32(1)
	w.putBytes(t[:])
	w.putUint64(0) // placeholder size
}

// StartFullBox begins a new full box with version and flags.
func (w *Writer) StartFullBox(t mp4.BoxType, version uint8, flags uint32) {
	w.StartBox(t)
	w.putUint32(uint32(version)<<24 | flags&0x00ffffff)
}

// EndBox finishes the current box by backpatching its size.
func (w *Writer) EndBox() {
	f := w.stack[len(w.stack)-1]
	w.stack = w.stack[:len(w.stack)-1]
	size := len(w.buf) - f.offset
	if f.large {
		be.PutUint64(w.buf[f.offset+8:], uint64(size))
		return
	}
	be.PutUint32(w.buf[f.offset:], uint32(size))
}

// WriteFtyp writes a complete ftyp box.
func (w *Writer) WriteFtyp(brand [4]byte, brandVersion uint32, compat ...[4]byte) {
	w.StartBox(mp4.TypeFtyp)
	w.putBytes(brand[:])
	w.putUint32(brandVersion)
	for _, c := range compat {
		w.putBytes(c[:])
	}
	w.EndBox()
}

// WriteMvhd writes a complete mvhd box.
func (w *Writer) WriteMvhd(version uint8, timescale uint32, duration uint64, nextTrackID uint32) {
	w.StartFullBox(mp4.TypeMvhd, version, 0)
	w.putTime(version, 0) // creation time
	w.putTime(version, 0) // modification time
	w.putUint32(timescale)
	w.putTime(version, duration)
	w.putUint32(0x00010000) // rate 1.0
	w.putUint16(0x0100)     // volume 1.0
	w.putZeros(10)          // reserved
	w.putMatrix(mp4.IdentityMatrix)
	w.putZeros(24) // predefined
	w.putUint32(nextTrackID)
	w.EndBox()
}

// WriteTkhd writes a complete tkhd box. Width and height are in pixels.
func (w *Writer) WriteTkhd(version uint8, trackID uint32, duration uint64, m mp4.Matrix, width, height uint32) {
	w.StartFullBox(mp4.TypeTkhd, version, 0x000003)
	w.putTkhdFields(version, trackID, duration, m, width, height)
}

// WriteLargeTkhd is WriteTkhd with a 64-bit box size, so the fields start
// 16 bytes into the box.
func (w *Writer) WriteLargeTkhd(version uint8, trackID uint32, duration uint64, m mp4.Matrix, width, height uint32) {
	w.StartLargeBox(mp4.TypeTkhd)
	w.putUint32(uint32(version)<<24 | 0x000003)
	w.putTkhdFields(version, trackID, duration, m, width, height)
}

func (w *Writer) putTkhdFields(version uint8, trackID uint32, duration uint64, m mp4.Matrix, width, height uint32) {
	w.putTime(version, 0) // creation time
	w.putTime(version, 0) // modification time
	w.putUint32(trackID)
	w.putUint32(0) // reserved
	w.putTime(version, duration)
	w.putZeros(8)  // reserved
	w.putUint16(0) // layer
	w.putUint16(0) // alternate group
	w.putUint16(0) // volume
	w.putUint16(0) // reserved
	w.putMatrix(m)
	w.putUint32(width << 16)
	w.putUint32(height << 16)
	w.EndBox()
}

// WriteMdhd writes a complete mdhd box.
func (w *Writer) WriteMdhd(version uint8, timescale uint32, duration uint64, language uint16) {
	w.StartFullBox(mp4.TypeMdhd, version, 0)
	w.putTime(version, 0) // creation time
	w.putTime(version, 0) // modification time
	w.putUint32(timescale)
	w.putTime(version, duration)
	w.putUint16(language)
	w.putUint16(0) // quality
	w.EndBox()
}

// WriteHdlr writes a complete hdlr box.
func (w *Writer) WriteHdlr(handlerType [4]byte, name string) {
	w.StartFullBox(mp4.TypeHdlr, 0, 0)
	w.putUint32(0) // predefined
	w.putBytes(handlerType[:])
	w.putZeros(12) // reserved
	w.putBytes([]byte(name))
	w.putUint8(0)
	w.EndBox()
}

// WriteMinf writes a media information box with the media header matching
// handler, a self-contained data reference and a sample table describing a
// single sample of sampleSize bytes lasting duration. The chunk offset is
// recorded for PatchChunkOffsets.
func (w *Writer) WriteMinf(handler [4]byte, duration, sampleSize uint32) {
	w.StartBox(mp4.TypeMinf)
	switch handler {
	case mp4.HandlerVideo:
		w.StartFullBox(mp4.TypeVmhd, 0, 1)
		w.putUint16(0) // graphics mode
		w.putZeros(6)  // opcolor
		w.EndBox()
	case mp4.HandlerSound:
		w.StartFullBox(mp4.TypeSmhd, 0, 0)
		w.putUint16(0) // balance
		w.putUint16(0) // reserved
		w.EndBox()
	}

	w.StartBox(mp4.TypeDinf)
	w.StartFullBox(mp4.TypeDref, 0, 0)
	w.putUint32(1)
	w.StartFullBox(mp4.BoxType{'u', 'r', 'l', ' '}, 0, 1) // media in this file
	w.EndBox()
	w.EndBox()
	w.EndBox()

	w.StartBox(mp4.TypeStbl)
	w.StartFullBox(mp4.TypeStsd, 0, 0)
	w.putUint32(0)
	w.EndBox()
	w.StartFullBox(mp4.TypeStts, 0, 0)
	w.putUint32(1)
	w.putUint32(1) // sample count
	w.putUint32(duration)
	w.EndBox()
	w.StartFullBox(mp4.TypeStsc, 0, 0)
	w.putUint32(1)
	w.putUint32(1) // first chunk
	w.putUint32(1) // samples per chunk
	w.putUint32(1) // sample description index
	w.EndBox()
	w.StartFullBox(mp4.TypeStsz, 0, 0)
	w.putUint32(sampleSize)
	w.putUint32(1)
	w.EndBox()
	w.StartFullBox(mp4.TypeStco, 0, 0)
	w.putUint32(1)
	w.chunkOffsets = append(w.chunkOffsets, len(w.buf))
	w.putUint32(0)
	w.EndBox()
	w.EndBox()

	w.EndBox()
}

// PatchChunkOffsets points every chunk written by WriteMinf at off.
func (w *Writer) PatchChunkOffsets(off uint32) {
	for _, p := range w.chunkOffsets {
		be.PutUint32(w.buf[p:], off)
	}
}

// WriteElst writes a complete elst box with the given version.
func (w *Writer) WriteElst(version uint8, entries []mp4.EditListEntry) {
	w.StartFullBox(mp4.TypeElst, version, 0)
	w.putUint32(uint32(len(entries)))
	for _, e := range entries {
		w.putTime(version, e.SegmentDuration)
		w.putTime(version, uint64(e.MediaTime))
		w.putUint16(uint16(e.MediaRateInteger))
		w.putUint16(uint16(e.MediaRateFraction))
	}
	w.EndBox()
}

// WriteOpenEndedBox writes a box with a zero size field, which extends to
// the end of the file.
func (w *Writer) WriteOpenEndedBox(t mp4.BoxType, payload []byte) {
	w.putUint32(0)
	w.putBytes(t[:])
	w.putBytes(payload)
}
