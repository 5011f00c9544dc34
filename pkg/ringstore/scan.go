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
	"github.com/klogstore/klog/internal/codec"
)

// Tail returns up to count records, newest first. Any inconsistency
// encountered while walking backwards — an out-of-range length, a mismatched
// pair of length prefixes, invalid UTF-8 — terminates the scan and returns
// whatever was already collected; it is never surfaced as an error.
func (s *RingStore) Tail(count int32) ([]LogRecord, error) {
	header, err := s.readHeader()
	if err != nil {
		return nil, err
	}
	return s.scanBackwards(header, count, nil)
}

// Since behaves like Tail but additionally stops, without including the
// record that triggered the stop, once a decoded record's timestamp falls
// below cutoffMillis. limit caps the number of records returned.
func (s *RingStore) Since(cutoffMillis int64, limit int32) ([]LogRecord, error) {
	header, err := s.readHeader()
	if err != nil {
		return nil, err
	}
	return s.scanBackwards(header, limit, &cutoffMillis)
}

func (s *RingStore) scanBackwards(header Header, limit int32, cutoffMillis *int64) ([]LogRecord, error) {
	if header.BodySize <= 0 || limit <= 0 {
		return []LogRecord{}, nil
	}

	var out []LogRecord
	cursor := header.LastEnd

	for int32(len(out)) < limit {
		lenBuf, err := s.readBody(header.BodySize, mod(cursor-2, header.BodySize), 2)
		if err != nil {
			s.log.Warnw("ringstore: scan stopped reading trailing length", "error", err)
			break
		}
		payloadLen := int32(codec.Uint16(lenBuf))

		if payloadLen < minPayloadLen || payloadLen+frameOverhead > header.BodySize {
			break
		}

		recordSize := payloadLen + frameOverhead
		recordStart := mod(cursor-recordSize, header.BodySize)

		frame, err := s.readBody(header.BodySize, recordStart, recordSize)
		if err != nil {
			s.log.Warnw("ringstore: scan stopped reading frame", "error", err)
			break
		}

		record, err := decodeFrame(frame, payloadLen)
		if err != nil {
			s.log.Warnw("ringstore: scan stopped on corrupt frame", "error", err)
			break
		}

		if cutoffMillis != nil && record.TimestampMillis < *cutoffMillis {
			break
		}

		out = append(out, record)
		cursor = recordStart
	}

	if out == nil {
		out = []LogRecord{}
	}
	return out, nil
}
