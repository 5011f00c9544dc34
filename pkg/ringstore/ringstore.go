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

package ringstore

import (
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/klogstore/klog/pkg/vfs"
)

// Clock returns the current time as epoch milliseconds. Monotonicity is
// not required.
type Clock func() int64

func systemClock() int64 {
	return time.Now().UnixMilli()
}

// RingStore is the persistent, fixed-size binary ring buffer. It owns a
// single FileHandle exclusively; concurrent external writers are undefined
// behavior, and the store itself is not internally synchronized. Callers
// invoking it from multiple goroutines must hold an external lock.
type RingStore struct {
	fs     vfs.Filesystem
	path   string
	handle vfs.FileHandle
	config LogConfig
	log    *zap.SugaredLogger
	clock  Clock
}

// Option configures optional RingStore behavior.
type Option func(*RingStore)

// WithLogger attaches diagnostic logging for recoverable conditions
// (oversized records, corrupt frames, failed reads during a scan). Other IO
// failures are returned to the caller without being logged. The default is
// a no-op logger.
func WithLogger(log *zap.SugaredLogger) Option {
	return func(s *RingStore) {
		if log != nil {
			s.log = log
		}
	}
}

// WithClock overrides the source of append timestamps. The default is the
// system wall clock. Tests inject a controlled clock.
func WithClock(clock Clock) Option {
	return func(s *RingStore) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// Open ensures the parent directory and backing file exist, grows the file
// to config.MaxBytes if it is smaller, and initializes the header if its
// magic doesn't match. It never fails on a corrupt-but-magic-matching
// header; scans self-truncate against garbage instead.
func Open(path string, config LogConfig, fs vfs.Filesystem, opts ...Option) (*RingStore, error) {
	if config.MaxBytes <= HeaderSize {
		return nil, ErrInvalidConfig
	}

	s := &RingStore{
		fs:     fs,
		path:   path,
		config: config,
		log:    zap.NewNop().Sugar(),
		clock:  systemClock,
	}
	for _, opt := range opts {
		opt(s)
	}

	if err := fs.CreateDirectories(path); err != nil {
		return nil, fmt.Errorf("ringstore: create parent directory: %w", err)
	}

	exists, err := fs.Exists(path)
	if err != nil {
		return nil, fmt.Errorf("ringstore: stat %s: %w", path, err)
	}
	if !exists {
		if err := fs.CreateEmptyFile(path); err != nil {
			return nil, fmt.Errorf("ringstore: create %s: %w", path, err)
		}
	}

	handle, err := fs.OpenReadWrite(path)
	if err != nil {
		return nil, fmt.Errorf("ringstore: open %s: %w", path, err)
	}
	s.handle = handle

	size, err := handle.Size()
	if err != nil {
		return nil, fmt.Errorf("ringstore: size %s: %w", path, err)
	}
	if size < int64(config.MaxBytes) {
		if err := handle.Resize(int64(config.MaxBytes)); err != nil {
			return nil, fmt.Errorf("ringstore: resize %s: %w", path, err)
		}
	}

	if err := s.ensureHeader(); err != nil {
		return nil, err
	}

	return s, nil
}

func (s *RingStore) ensureHeader() error {
	buf := make([]byte, HeaderSize)
	if _, err := s.handle.ReadAt(0, buf); err != nil {
		return fmt.Errorf("ringstore: read header: %w", err)
	}
	h := decodeHeader(buf)

	if h.Magic == Magic {
		return nil
	}

	fresh := Header{
		Magic:         Magic,
		FormatVersion: s.config.FormatVersion,
		BodySize:      s.config.MaxBytes - HeaderSize,
		LastEnd:       0,
	}
	return s.writeHeader(fresh)
}

func (s *RingStore) readHeader() (Header, error) {
	buf := make([]byte, HeaderSize)
	if _, err := s.handle.ReadAt(0, buf); err != nil {
		return Header{}, fmt.Errorf("ringstore: read header: %w", err)
	}
	return decodeHeader(buf), nil
}

func (s *RingStore) writeHeader(h Header) error {
	if _, err := s.handle.WriteAt(0, encodeHeader(h)); err != nil {
		return fmt.Errorf("ringstore: write header: %w", err)
	}
	return s.handle.Flush()
}

// writeBody writes data into the body starting at bodyOffset, splitting at
// the body boundary (bodySize) if the write would cross it.
func (s *RingStore) writeBody(bodySize int32, bodyOffset int32, data []byte) error {
	n := int32(len(data))
	if bodyOffset+n <= bodySize {
		_, err := s.handle.WriteAt(HeaderSize+int64(bodyOffset), data)
		return err
	}
	firstLen := bodySize - bodyOffset
	if _, err := s.handle.WriteAt(HeaderSize+int64(bodyOffset), data[:firstLen]); err != nil {
		return err
	}
	_, err := s.handle.WriteAt(HeaderSize, data[firstLen:])
	return err
}

// readBody reads n bytes from the body starting at bodyOffset, splitting
// at the body boundary if needed, and returns them as a contiguous slice.
func (s *RingStore) readBody(bodySize int32, bodyOffset int32, n int32) ([]byte, error) {
	buf := make([]byte, n)
	if bodyOffset+n <= bodySize {
		if _, err := s.handle.ReadAt(HeaderSize+int64(bodyOffset), buf); err != nil {
			return nil, err
		}
		return buf, nil
	}
	firstLen := bodySize - bodyOffset
	if _, err := s.handle.ReadAt(HeaderSize+int64(bodyOffset), buf[:firstLen]); err != nil {
		return nil, err
	}
	if _, err := s.handle.ReadAt(HeaderSize, buf[firstLen:]); err != nil {
		return nil, err
	}
	return buf, nil
}

// Append encodes message at the given level and writes it to the ring,
// wrapping as needed. It returns the number of body bytes written, or 0 if
// the record was rejected as too large to coexist with its dual length
// prefixes. Rejection is never an error.
func (s *RingStore) Append(message string, level uint8) (int32, error) {
	msgBytes := []byte(message)
	payloadLen := int32(minPayloadLen + len(msgBytes))
	recordSize := payloadLen + frameOverhead
	timestampMillis := s.clock()

	header, err := s.readHeader()
	if err != nil {
		return 0, err
	}

	// The whole frame, both length prefixes included, has to fit in the
	// body: the largest representable record is payloadLen == bodySize-4,
	// which fills the ring exactly. payloadLen must also fit in the u16
	// prefixes themselves, or the written lengths would wrap on encode.
	if recordSize > header.BodySize || payloadLen > math.MaxUint16 {
		s.log.Warnw("ringstore: rejecting oversized record",
			"payloadLen", payloadLen, "bodySize", header.BodySize)
		return 0, nil
	}

	frame := encodeFrame(timestampMillis, level, msgBytes)

	// An externally rewritten header may hold any lastEnd value; the write
	// origin is always brought back into [0, bodySize).
	start := mod(header.LastEnd, header.BodySize)

	if err := s.writeBody(header.BodySize, start, frame); err != nil {
		return 0, fmt.Errorf("ringstore: write record: %w", err)
	}
	if err := s.handle.Flush(); err != nil {
		return 0, fmt.Errorf("ringstore: flush record: %w", err)
	}

	newEnd := mod(start+recordSize, header.BodySize)
	header.LastEnd = newEnd
	if err := s.writeHeader(header); err != nil {
		return 0, err
	}

	return recordSize, nil
}

// Close closes the underlying file handle.
func (s *RingStore) Close() error {
	return s.handle.Close()
}
