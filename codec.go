package mp4

import (
	"encoding/binary"
	"errors"
	"fmt"
)

var be = binary.BigEndian

// ErrOutOfBounds is returned when a fixed-width read or write would reach
// past the end of the buffer.
var ErrOutOfBounds = errors.New("mp4: offset out of bounds")

func checkBounds(buf []byte, off, width int) error {
	if off < 0 || off > len(buf)-width {
		return fmt.Errorf("%w: %d bytes at offset %d, buffer length %d", ErrOutOfBounds, width, off, len(buf))
	}
	return nil
}

// ReadUint16 reads a big-endian uint16 at off.
func ReadUint16(buf []byte, off int) (uint16, error) {
	if err := checkBounds(buf, off, 2); err != nil {
		return 0, err
	}
	return be.Uint16(buf[off:]), nil
}

// ReadInt16 reads a big-endian int16 at off.
func ReadInt16(buf []byte, off int) (int16, error) {
	v, err := ReadUint16(buf, off)
	return int16(v), err
}

// ReadUint32 reads a big-endian uint32 at off.
func ReadUint32(buf []byte, off int) (uint32, error) {
	if err := checkBounds(buf, off, 4); err != nil {
		return 0, err
	}
	return be.Uint32(buf[off:]), nil
}

// ReadInt32 reads a big-endian int32 at off.
func ReadInt32(buf []byte, off int) (int32, error) {
	v, err := ReadUint32(buf, off)
	return int32(v), err
}

// ReadUint64 reads a big-endian uint64 at off.
func ReadUint64(buf []byte, off int) (uint64, error) {
	if err := checkBounds(buf, off, 8); err != nil {
		return 0, err
	}
	return be.Uint64(buf[off:]), nil
}

// ReadInt64 reads a big-endian int64 at off.
func ReadInt64(buf []byte, off int) (int64, error) {
	v, err := ReadUint64(buf, off)
	return int64(v), err
}

// WriteUint16 writes v big-endian at off.
func WriteUint16(buf []byte, off int, v uint16) error {
	if err := checkBounds(buf, off, 2); err != nil {
		return err
	}
	be.PutUint16(buf[off:], v)
	return nil
}

// WriteInt16 writes v big-endian at off.
func WriteInt16(buf []byte, off int, v int16) error {
	return WriteUint16(buf, off, uint16(v))
}

// WriteUint32 writes v big-endian at off.
func WriteUint32(buf []byte, off int, v uint32) error {
	if err := checkBounds(buf, off, 4); err != nil {
		return err
	}
	be.PutUint32(buf[off:], v)
	return nil
}

// WriteInt32 writes v big-endian at off.
func WriteInt32(buf []byte, off int, v int32) error {
	return WriteUint32(buf, off, uint32(v))
}

// WriteUint64 writes v big-endian at off.
func WriteUint64(buf []byte, off int, v uint64) error {
	if err := checkBounds(buf, off, 8); err != nil {
		return err
	}
	be.PutUint64(buf[off:], v)
	return nil
}

// WriteInt64 writes v big-endian at off.
func WriteInt64(buf []byte, off int, v int64) error {
	return WriteUint64(buf, off, uint64(v))
}
