// {{{ Copyright (c) Paul R. Tagliamonte <paultag@gmail.com> 2020-2021
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in
// all copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
// THE SOFTWARE. }}}

// Package ringstore implements a persistent, fixed-size binary ring
// buffer: a 16-byte header followed by a circular body of doubly
// length-prefixed record frames, supporting wrap-around append and
// reverse (newest-first) scans that tolerate arbitrary corruption.
package ringstore

import "errors"

const (
	// Magic is the fixed 4-byte big-endian header magic, "KLOG" as an i32.
	Magic int32 = 0x4B4C4F47

	// HeaderSize is the fixed size in bytes of the header region.
	HeaderSize = 16

	// minPayloadLen is the smallest legal payload: an 8-byte timestamp plus
	// a 1-byte level and zero message bytes.
	minPayloadLen = 9

	// frameOverhead is the size of the two u16 length prefixes.
	frameOverhead = 4
)

// ErrOversizedRecord is never returned by Append; it documents the
// condition Append signals by returning 0 bytes written instead of an
// error.
var ErrOversizedRecord = errors.New("ringstore: record too large for body")

// ErrInvalidConfig is returned by Open when the configured size can't hold
// a header plus a non-empty body (maxBytes <= HeaderSize).
var ErrInvalidConfig = errors.New("ringstore: maxBytes too small to hold a header and a body")

// LogConfig configures a RingStore for the lifetime of the instance.
type LogConfig struct {
	// MaxBytes is the fixed total size of the backing file, header included.
	MaxBytes int32
	// FormatVersion is a producer-controlled integer, advisory to readers.
	FormatVersion int32
	// DedupEnabled is read by the façade, not by the ring store itself.
	DedupEnabled bool
}

// DefaultConfig returns a LogConfig with formatVersion 1 and dedup enabled,
// sized to maxBytes.
func DefaultConfig(maxBytes int32) LogConfig {
	return LogConfig{
		MaxBytes:      maxBytes,
		FormatVersion: 1,
		DedupEnabled:  true,
	}
}

// Header mirrors the 16-byte on-disk header. It is read fresh at the start
// of every operation and never cached across operations, so that external
// truncation or replacement of the file is tolerated.
type Header struct {
	Magic         int32
	FormatVersion int32
	BodySize      int32
	LastEnd       int32
}

// LogRecord is an immutable decoded record, produced by Tail/Since.
type LogRecord struct {
	TimestampMillis int64
	Level           uint8
	Message         string
}
