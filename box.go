// Package mp4 edits ISO Base Media File Format (MP4) metadata in place.
//
// Every operation works on a caller-owned byte slice holding a whole file.
// Boxes are located by scanning sibling headers and descending through
// payload ranges; edits are fixed-width overwrites, so no box ever moves
// or changes size.
package mp4

import "iter"

// BoxType is a 4-byte box type identifier.
type BoxType [4]byte

func (t BoxType) String() string {
	return string(t[:])
}

// newBoxType creates a BoxType from a 4-character string.
func newBoxType(s string) BoxType {
	var t BoxType
	copy(t[:], s)
	return t
}

// Known box types.
var (
	TypeFtyp = newBoxType("ftyp")
	TypeFree = newBoxType("free")
	TypeMdat = newBoxType("mdat")
	TypeMoov = newBoxType("moov")
	TypeMvhd = newBoxType("mvhd")
	TypeTrak = newBoxType("trak")
	TypeTkhd = newBoxType("tkhd")
	TypeEdts = newBoxType("edts")
	TypeElst = newBoxType("elst")
	TypeMdia = newBoxType("mdia")
	TypeMdhd = newBoxType("mdhd")
	TypeHdlr = newBoxType("hdlr")
	TypeMinf = newBoxType("minf")
	TypeVmhd = newBoxType("vmhd")
	TypeSmhd = newBoxType("smhd")
	TypeDinf = newBoxType("dinf")
	TypeDref = newBoxType("dref")
	TypeStbl = newBoxType("stbl")
	TypeStsd = newBoxType("stsd")
	TypeStts = newBoxType("stts")
	TypeStsc = newBoxType("stsc")
	TypeStsz = newBoxType("stsz")
	TypeStco = newBoxType("stco")
	TypeMvex = newBoxType("mvex")
	TypeUdta = newBoxType("udta")
)

var containerBoxes = map[BoxType]bool{
	TypeMoov: true, TypeTrak: true, TypeEdts: true, TypeMdia: true,
	TypeMinf: true, TypeDinf: true, TypeStbl: true, TypeMvex: true,
	TypeUdta: true,
}

// fullBoxes is the set of box types that have version+flags in their header.
var fullBoxes = map[BoxType]bool{
	TypeMvhd: true, TypeTkhd: true, TypeMdhd: true, TypeHdlr: true,
	TypeElst: true, TypeVmhd: true, TypeSmhd: true, TypeDref: true,
	TypeStsd: true, TypeStts: true, TypeStsc: true, TypeStsz: true,
	TypeStco: true,
}

// IsContainerBox reports whether boxes of type t hold only child boxes.
func IsContainerBox(t BoxType) bool { return containerBoxes[t] }

// IsFullBox reports whether boxes of type t start with version and flags.
func IsFullBox(t BoxType) bool { return fullBoxes[t] }

// Box locates one box inside a buffer. It holds offsets only; the bytes stay
// in the caller's buffer.
type Box struct {
	Type       BoxType
	Offset     int    // first byte of the size field
	DataOffset int    // first byte after the (possibly extended) header
	Size       uint64 // total size including header
}

// End returns the offset one past the last byte of the box.
func (b Box) End() int { return b.Offset + int(b.Size) }

// HeaderSize returns 8, or 16 for boxes using a 64-bit size.
func (b Box) HeaderSize() int { return b.DataOffset - b.Offset }

// ReadHeader parses the box header at start, bounded by end.
//
// A size of 1 means a 64-bit size follows the type. A size of 0 means the
// box runs to end. Headers that do not fit, sizes smaller than the header,
// and boxes that would run past end all report false.
func ReadHeader(buf []byte, start, end int) (Box, bool) {
	end = min(end, len(buf))
	if start < 0 || end-start < 8 {
		return Box{}, false
	}

	size := uint64(be.Uint32(buf[start:]))
	b := Box{Offset: start, DataOffset: start + 8}
	copy(b.Type[:], buf[start+4:start+8])

	switch size {
	case 0:
		size = uint64(end - start)
	case 1:
		if end-start < 16 {
			return Box{}, false
		}
		size = be.Uint64(buf[start+8:])
		b.DataOffset += 8
	}

	if size < uint64(b.HeaderSize()) || size > uint64(end-start) {
		return Box{}, false
	}
	b.Size = size
	return b, true
}

// Boxes yields the sibling boxes in buf[start:end] in order, stopping at the
// first malformed header.
func Boxes(buf []byte, start, end int) iter.Seq[Box] {
	return func(yield func(Box) bool) {
		for pos := start; ; {
			b, ok := ReadHeader(buf, pos, end)
			if !ok || !yield(b) {
				return
			}
			pos = b.End()
		}
	}
}

// Children yields the child boxes of parent that have type t.
func Children(buf []byte, parent Box, t BoxType) iter.Seq[Box] {
	return func(yield func(Box) bool) {
		for b := range Boxes(buf, parent.DataOffset, parent.End()) {
			if b.Type == t && !yield(b) {
				return
			}
		}
	}
}

// FindBox returns the first box of type t among the siblings in
// buf[start:end].
func FindBox(buf []byte, start, end int, t BoxType) (Box, bool) {
	for b := range Boxes(buf, start, end) {
		if b.Type == t {
			return b, true
		}
	}
	return Box{}, false
}

// FindPath descends from buf[start:end] through the given box types, each
// looked up inside the payload of the previous one.
func FindPath(buf []byte, start, end int, path ...BoxType) (Box, bool) {
	var b Box
	for i, t := range path {
		if i > 0 {
			start, end = b.DataOffset, b.End()
		}
		var ok bool
		if b, ok = FindBox(buf, start, end, t); !ok {
			return Box{}, false
		}
	}
	return b, len(path) > 0
}

// Tracks yields every trak box of the first moov box in buf, in file order.
func Tracks(buf []byte) iter.Seq[Box] {
	return func(yield func(Box) bool) {
		moov, ok := FindBox(buf, 0, len(buf), TypeMoov)
		if !ok {
			return
		}
		for trak := range Children(buf, moov, TypeTrak) {
			if !yield(trak) {
				return
			}
		}
	}
}

// fullBoxVersion returns the version byte of a full box, requiring the
// whole version+flags word to lie inside the box.
func fullBoxVersion(buf []byte, b Box) (uint8, bool) {
	if b.DataOffset+4 > b.End() || b.End() > len(buf) {
		return 0, false
	}
	return buf[b.DataOffset], true
}

// timeFieldWidth is the width of the time and duration fields in mvhd, mdhd,
// tkhd and elst: 64 bits for version 1, 32 bits for every other version.
func timeFieldWidth(version uint8) int {
	if version == 1 {
		return 8
	}
	return 4
}
