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
	"unicode/utf8"

	"github.com/klogstore/klog/internal/codec"
)

func encodeHeader(h Header) []byte {
	buf := make([]byte, HeaderSize)
	codec.PutInt32(buf[0:4], h.Magic)
	codec.PutInt32(buf[4:8], h.FormatVersion)
	codec.PutInt32(buf[8:12], h.BodySize)
	codec.PutInt32(buf[12:16], h.LastEnd)
	return buf
}

func decodeHeader(buf []byte) Header {
	return Header{
		Magic:         codec.Int32(buf[0:4]),
		FormatVersion: codec.Int32(buf[4:8]),
		BodySize:      codec.Int32(buf[8:12]),
		LastEnd:       codec.Int32(buf[12:16]),
	}
}

// encodeFrame serializes a record into a payloadLen+4 byte frame with
// matching leading and trailing length prefixes. Both prefixes go out in
// the same buffered write, so a crash can never persist only one side.
func encodeFrame(timestampMillis int64, level uint8, msgBytes []byte) []byte {
	payloadLen := minPayloadLen + len(msgBytes)
	frame := make([]byte, payloadLen+frameOverhead)

	codec.PutUint16(frame[0:2], uint16(payloadLen))
	codec.PutInt64(frame[2:10], timestampMillis)
	frame[10] = level
	copy(frame[11:11+len(msgBytes)], msgBytes)
	codec.PutUint16(frame[len(frame)-2:], uint16(payloadLen))

	return frame
}

// decodeFrame validates and decodes a payloadLen+4 byte frame. It returns
// an error for any inconsistency; callers treat every error as
// "corruption, stop scanning".
func decodeFrame(frame []byte, wantPayloadLen int32) (LogRecord, error) {
	if len(frame) < frameOverhead+minPayloadLen {
		return LogRecord{}, fmt.Errorf("ringstore: frame too short to be valid")
	}

	leading := int32(codec.Uint16(frame[0:2]))
	trailing := int32(codec.Uint16(frame[len(frame)-2:]))
	if leading != wantPayloadLen || trailing != wantPayloadLen {
		return LogRecord{}, fmt.Errorf("ringstore: length prefix mismatch (leading=%d trailing=%d want=%d)", leading, trailing, wantPayloadLen)
	}

	payload := frame[2 : len(frame)-2]
	timestampMillis := codec.Int64(payload[0:8])
	level := payload[8]
	msgBytes := payload[9:]

	if !utf8.Valid(msgBytes) {
		return LogRecord{}, fmt.Errorf("ringstore: invalid utf-8 in message")
	}

	return LogRecord{
		TimestampMillis: timestampMillis,
		Level:           level,
		Message:         string(msgBytes),
	}, nil
}

// mod returns x mod m, normalized into [0, m).
func mod(x, m int32) int32 {
	r := x % m
	if r < 0 {
		r += m
	}
	return r
}
