// Package binio provides exact-width binary reads and writes in both byte orders.
//
// Every read fills exactly as many bytes as the integer is wide or fails with the
// error from io.ReadFull (io.EOF or io.ErrUnexpectedEOF on a short source); every
// write emits exactly that many bytes or fails with the writer's error. Errors are
// returned unwrapped so callers can match io.EOF with errors.Is.
//
// The signed variants reinterpret the unsigned bit pattern (two's complement)
// without range validation, which is what sentinel conventions such as -1 for
// 0xFFFFFFFF rely on.
package binio

import (
	"encoding/binary"
	"io"
)

// Uint128 is an unsigned 128-bit integer as two 64-bit halves.
type Uint128 struct {
	Hi uint64
	Lo uint64
}

// Int128 is a signed 128-bit integer as two 64-bit halves; Hi carries the sign.
type Int128 struct {
	Hi int64
	Lo uint64
}

// ReadUint8 reads one byte as an unsigned 8-bit integer.
func ReadUint8(r io.Reader) (uint8, error) {
	var b [1]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return 0, err
	}
	return b[0], nil
}

// ReadUint16LE reads an unsigned 16-bit integer in little-endian byte order.
func ReadUint16LE(r io.Reader) (uint16, error) {
	var b [2]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(b[:]), nil
}

// ReadUint16BE reads an unsigned 16-bit integer in big-endian byte order.
func ReadUint16BE(r io.Reader) (uint16, error) {
	var b [2]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint16(b[:]), nil
}

// ReadUint32LE reads an unsigned 32-bit integer in little-endian byte order.
func ReadUint32LE(r io.Reader) (uint32, error) {
	var b [4]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b[:]), nil
}

// ReadUint32BE reads an unsigned 32-bit integer in big-endian byte order.
func ReadUint32BE(r io.Reader) (uint32, error) {
	var b [4]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(b[:]), nil
}

// ReadUint64LE reads an unsigned 64-bit integer in little-endian byte order.
func ReadUint64LE(r io.Reader) (uint64, error) {
	var b [8]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(b[:]), nil
}

// ReadUint64BE reads an unsigned 64-bit integer in big-endian byte order.
func ReadUint64BE(r io.Reader) (uint64, error) {
	var b [8]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint64(b[:]), nil
}

// ReadUint128LE reads an unsigned 128-bit integer in little-endian byte order.
func ReadUint128LE(r io.Reader) (Uint128, error) {
	var b [16]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return Uint128{}, err
	}
	return Uint128{
		Lo: binary.LittleEndian.Uint64(b[:8]),
		Hi: binary.LittleEndian.Uint64(b[8:]),
	}, nil
}

// ReadUint128BE reads an unsigned 128-bit integer in big-endian byte order.
func ReadUint128BE(r io.Reader) (Uint128, error) {
	var b [16]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return Uint128{}, err
	}
	return Uint128{
		Hi: binary.BigEndian.Uint64(b[:8]),
		Lo: binary.BigEndian.Uint64(b[8:]),
	}, nil
}

// ReadInt8 reads one byte as a signed 8-bit integer.
func ReadInt8(r io.Reader) (int8, error) {
	v, err := ReadUint8(r)
	return int8(v), err
}

// ReadInt16LE reads a signed 16-bit integer in little-endian byte order.
func ReadInt16LE(r io.Reader) (int16, error) {
	v, err := ReadUint16LE(r)
	return int16(v), err
}

// ReadInt16BE reads a signed 16-bit integer in big-endian byte order.
func ReadInt16BE(r io.Reader) (int16, error) {
	v, err := ReadUint16BE(r)
	return int16(v), err
}

// ReadInt32LE reads a signed 32-bit integer in little-endian byte order.
func ReadInt32LE(r io.Reader) (int32, error) {
	v, err := ReadUint32LE(r)
	return int32(v), err
}

// ReadInt32BE reads a signed 32-bit integer in big-endian byte order.
func ReadInt32BE(r io.Reader) (int32, error) {
	v, err := ReadUint32BE(r)
	return int32(v), err
}

// ReadInt64LE reads a signed 64-bit integer in little-endian byte order.
func ReadInt64LE(r io.Reader) (int64, error) {
	v, err := ReadUint64LE(r)
	return int64(v), err
}

// ReadInt64BE reads a signed 64-bit integer in big-endian byte order.
func ReadInt64BE(r io.Reader) (int64, error) {
	v, err := ReadUint64BE(r)
	return int64(v), err
}

// ReadInt128LE reads a signed 128-bit integer in little-endian byte order.
func ReadInt128LE(r io.Reader) (Int128, error) {
	v, err := ReadUint128LE(r)
	return Int128{Hi: int64(v.Hi), Lo: v.Lo}, err
}

// ReadInt128BE reads a signed 128-bit integer in big-endian byte order.
func ReadInt128BE(r io.Reader) (Int128, error) {
	v, err := ReadUint128BE(r)
	return Int128{Hi: int64(v.Hi), Lo: v.Lo}, err
}

// WriteUint8 writes one byte.
func WriteUint8(w io.Writer, v uint8) error {
	_, err := w.Write([]byte{v})
	return err
}

// WriteUint16LE writes an unsigned 16-bit integer in little-endian byte order.
func WriteUint16LE(w io.Writer, v uint16) error {
	var b [2]byte
	binary.LittleEndian.PutUint16(b[:], v)
	_, err := w.Write(b[:])
	return err
}

// WriteUint16BE writes an unsigned 16-bit integer in big-endian byte order.
func WriteUint16BE(w io.Writer, v uint16) error {
	var b [2]byte
	binary.BigEndian.PutUint16(b[:], v)
	_, err := w.Write(b[:])
	return err
}

// WriteUint32LE writes an unsigned 32-bit integer in little-endian byte order.
func WriteUint32LE(w io.Writer, v uint32) error {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	_, err := w.Write(b[:])
	return err
}

// WriteUint32BE writes an unsigned 32-bit integer in big-endian byte order.
func WriteUint32BE(w io.Writer, v uint32) error {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], v)
	_, err := w.Write(b[:])
	return err
}

// WriteUint64LE writes an unsigned 64-bit integer in little-endian byte order.
func WriteUint64LE(w io.Writer, v uint64) error {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], v)
	_, err := w.Write(b[:])
	return err
}

// WriteUint64BE writes an unsigned 64-bit integer in big-endian byte order.
func WriteUint64BE(w io.Writer, v uint64) error {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], v)
	_, err := w.Write(b[:])
	return err
}

// WriteUint128LE writes an unsigned 128-bit integer in little-endian byte order.
func WriteUint128LE(w io.Writer, v Uint128) error {
	var b [16]byte
	binary.LittleEndian.PutUint64(b[:8], v.Lo)
	binary.LittleEndian.PutUint64(b[8:], v.Hi)
	_, err := w.Write(b[:])
	return err
}

// WriteUint128BE writes an unsigned 128-bit integer in big-endian byte order.
func WriteUint128BE(w io.Writer, v Uint128) error {
	var b [16]byte
	binary.BigEndian.PutUint64(b[:8], v.Hi)
	binary.BigEndian.PutUint64(b[8:], v.Lo)
	_, err := w.Write(b[:])
	return err
}

// WriteInt8 writes one byte.
func WriteInt8(w io.Writer, v int8) error {
	return WriteUint8(w, uint8(v))
}

// WriteInt16LE writes a signed 16-bit integer in little-endian byte order.
func WriteInt16LE(w io.Writer, v int16) error {
	return WriteUint16LE(w, uint16(v))
}

// WriteInt16BE writes a signed 16-bit integer in big-endian byte order.
func WriteInt16BE(w io.Writer, v int16) error {
	return WriteUint16BE(w, uint16(v))
}

// WriteInt32LE writes a signed 32-bit integer in little-endian byte order.
func WriteInt32LE(w io.Writer, v int32) error {
	return WriteUint32LE(w, uint32(v))
}

// WriteInt32BE writes a signed 32-bit integer in big-endian byte order.
func WriteInt32BE(w io.Writer, v int32) error {
	return WriteUint32BE(w, uint32(v))
}

// WriteInt64LE writes a signed 64-bit integer in little-endian byte order.
func WriteInt64LE(w io.Writer, v int64) error {
	return WriteUint64LE(w, uint64(v))
}

// WriteInt64BE writes a signed 64-bit integer in big-endian byte order.
func WriteInt64BE(w io.Writer, v int64) error {
	return WriteUint64BE(w, uint64(v))
}

// WriteInt128LE writes a signed 128-bit integer in little-endian byte order.
func WriteInt128LE(w io.Writer, v Int128) error {
	return WriteUint128LE(w, Uint128{Hi: uint64(v.Hi), Lo: v.Lo})
}

// WriteInt128BE writes a signed 128-bit integer in big-endian byte order.
func WriteInt128BE(w io.Writer, v Int128) error {
	return WriteUint128BE(w, Uint128{Hi: uint64(v.Hi), Lo: v.Lo})
}
