package mp4

// maxDepth limits the reader nesting stack.
const maxDepth = 16

// readerFrame stores parent state when entering a container box.
type readerFrame struct {
	end    int // parent's iteration end boundary
	boxEnd int // position to resume after exiting this container
}

// Reader walks the box tree of a buffer one box at a time. It never reads
// outside the box it is positioned on; the Read methods report false for
// boxes too short to hold the requested fields.
type Reader struct {
	buf []byte
	pos int // next position to parse from
	end int // iteration end boundary

	box       Box
	boxEnd    int
	dataStart int // after version+flags for full boxes

	version uint8
	flags   uint32

	stack [maxDepth]readerFrame
	depth int
}

// NewReader creates a Reader for the given buffer.
func NewReader(buf []byte) Reader {
	return Reader{
		buf: buf,
		end: len(buf),
	}
}

// Next advances to the next sibling box. Returns false if no more boxes or
// the next header is malformed.
func (r *Reader) Next() bool {
	if r.boxEnd > r.pos {
		r.pos = r.boxEnd
	}

	b, ok := ReadHeader(r.buf, r.pos, r.end)
	if !ok {
		return false
	}

	r.box = b
	r.boxEnd = b.End()
	r.dataStart = b.DataOffset
	r.version, r.flags = 0, 0

	if IsFullBox(b.Type) {
		if r.boxEnd-r.dataStart < 4 {
			return false
		}
		vf := be.Uint32(r.buf[r.dataStart:])
		r.version = uint8(vf >> 24)
		r.flags = vf & 0x00ffffff
		r.dataStart += 4
	}
	return true
}

// Type returns the current box's type.
func (r *Reader) Type() BoxType { return r.box.Type }

// Size returns the current box's total size including header.
func (r *Reader) Size() uint64 { return r.box.Size }

// Version returns the version field for full boxes.
func (r *Reader) Version() uint8 { return r.version }

// Flags returns the flags field for full boxes.
func (r *Reader) Flags() uint32 { return r.flags }

// Offset returns the byte offset of the current box's start in the buffer.
func (r *Reader) Offset() int { return r.box.Offset }

// Box returns the location of the current box.
func (r *Reader) Box() Box { return r.box }

// Data returns the current box's data after all headers, including
// version+flags for full boxes. The slice points into the original buffer.
func (r *Reader) Data() []byte {
	return r.buf[r.dataStart:r.boxEnd]
}

// Bytes returns the whole buffer the reader walks. Box offsets index it.
func (r *Reader) Bytes() []byte { return r.buf }

// Depth returns the current nesting depth (0 at top level).
func (r *Reader) Depth() int { return r.depth }

// Enter descends into the current box to iterate its children. It returns
// false, leaving the reader where it was, when the nesting limit is reached.
// Every successful Enter must be paired with Exit.
func (r *Reader) Enter() bool {
	if r.depth == maxDepth {
		return false
	}
	r.stack[r.depth] = readerFrame{
		end:    r.end,
		boxEnd: r.boxEnd,
	}
	r.depth++
	r.end = r.boxEnd
	r.pos = r.dataStart
	r.boxEnd = r.dataStart
	return true
}

// Exit returns to the parent container level.
func (r *Reader) Exit() {
	r.depth--
	f := r.stack[r.depth]
	r.end = f.end
	r.pos = f.boxEnd
	r.boxEnd = f.boxEnd
}

// ReadMvhd extracts timescale and duration from an mvhd box.
func (r *Reader) ReadMvhd() (timescale uint32, duration uint64, ok bool) {
	return r.readTimes()
}

// ReadMdhd extracts timescale and duration from an mdhd box.
func (r *Reader) ReadMdhd() (timescale uint32, duration uint64, ok bool) {
	return r.readTimes()
}

// readTimes reads the timescale+duration pair shared by mvhd and mdhd.
func (r *Reader) readTimes() (timescale uint32, duration uint64, ok bool) {
	data := r.Data()
	w := timeFieldWidth(r.version)
	if len(data) < 2*w+4+w {
		return 0, 0, false
	}
	timescale = be.Uint32(data[2*w:])
	if w == 8 {
		duration = be.Uint64(data[2*w+4:])
	} else {
		duration = uint64(be.Uint32(data[2*w+4:]))
	}
	return timescale, duration, true
}

// TkhdFields holds the tkhd fields used for inspection.
type TkhdFields struct {
	TrackID  uint32
	Duration uint64
	Matrix   Matrix
	Width    uint32 // 16.16 fixed-point
	Height   uint32 // 16.16 fixed-point
}

// ReadTkhd extracts track ID, duration, matrix and dimensions from a tkhd box.
func (r *Reader) ReadTkhd() (TkhdFields, bool) {
	var f TkhdFields
	data := r.Data()
	w := timeFieldWidth(r.version)
	mat := tkhdMatrixPrefix(r.version) - 4
	if len(data) < mat+MatrixSize+8 {
		return f, false
	}
	f.TrackID = be.Uint32(data[2*w:])
	if w == 8 {
		f.Duration = be.Uint64(data[2*w+8:])
	} else {
		f.Duration = uint64(be.Uint32(data[2*w+8:]))
	}
	f.Matrix, _ = ReadMatrix(data, mat)
	f.Width = be.Uint32(data[mat+MatrixSize:])
	f.Height = be.Uint32(data[mat+MatrixSize+4:])
	return f, true
}

// ReadHdlr extracts the handler type from an hdlr box.
func (r *Reader) ReadHdlr() ([4]byte, bool) {
	var t [4]byte
	data := r.Data()
	if len(data) < 8 {
		return t, false
	}
	copy(t[:], data[4:8])
	return t, true
}

// ReadHdlrName extracts the handler name from an hdlr box.
func (r *Reader) ReadHdlrName() string {
	data := r.Data()
	if len(data) <= 20 {
		return ""
	}
	end := 20
	for end < len(data) && data[end] != 0 {
		end++
	}
	return string(data[20:end])
}

// ReadElst decodes the entries of an elst box.
func (r *Reader) ReadElst() ([]EditListEntry, bool) {
	_, entries, ok := DecodeEditList(r.buf, r.box)
	return entries, ok
}
