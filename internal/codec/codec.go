// Package codec holds the fixed-endian integer encodings shared by the
// ring store's header and record frames. Everything on disk is big-endian.
package codec

import "encoding/binary"

// PutUint16 writes v as a big-endian u16 into buf[0:2].
func PutUint16(buf []byte, v uint16) {
	binary.BigEndian.PutUint16(buf, v)
}

// Uint16 reads a big-endian u16 from buf[0:2].
func Uint16(buf []byte) uint16 {
	return binary.BigEndian.Uint16(buf)
}

// PutUint32 writes v as a big-endian u32 into buf[0:4].
func PutUint32(buf []byte, v uint32) {
	binary.BigEndian.PutUint32(buf, v)
}

// Uint32 reads a big-endian u32 from buf[0:4].
func Uint32(buf []byte) uint32 {
	return binary.BigEndian.Uint32(buf)
}

// PutInt32 writes v as a big-endian i32 into buf[0:4].
func PutInt32(buf []byte, v int32) {
	binary.BigEndian.PutUint32(buf, uint32(v))
}

// Int32 reads a big-endian i32 from buf[0:4].
func Int32(buf []byte) int32 {
	return int32(binary.BigEndian.Uint32(buf))
}

// PutInt64 writes v as a big-endian i64 into buf[0:8].
func PutInt64(buf []byte, v int64) {
	binary.BigEndian.PutUint64(buf, uint64(v))
}

// Int64 reads a big-endian i64 from buf[0:8].
func Int64(buf []byte) int64 {
	return int64(binary.BigEndian.Uint64(buf))
}
