package ringstore

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/klogstore/klog/pkg/vfs"
)

func newTestStore(t *testing.T, maxBytes int32) (*RingStore, *vfs.MemFS, *int64) {
	t.Helper()
	fs := vfs.NewMemFS()
	now := int64(1_700_000_000_000)
	clock := func() int64 { return now }

	s, err := Open("/logs/app.klog", DefaultConfig(maxBytes), fs, WithClock(clock))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	return s, fs, &now
}

func TestTailNewestFirst(t *testing.T) {
	s, _, _ := newTestStore(t, 1024)

	for _, msg := range []string{"a", "b", "c"} {
		n, err := s.Append(msg, 1)
		require.NoError(t, err)
		require.Positive(t, n)
	}

	records, err := s.Tail(2)
	require.NoError(t, err)
	require.Len(t, records, 2)
	require.Equal(t, "c", records[0].Message)
	require.Equal(t, "b", records[1].Message)
}

func TestTailAcrossWrap(t *testing.T) {
	s, _, _ := newTestStore(t, 1024)

	// Frames are 18 bytes for msg-0..msg-9 and 19 bytes after that, so 56
	// appends total 1054 bytes against a 1008-byte body: the ring wraps,
	// and msg-53 straddles the body boundary inside the tail(5) window.
	for i := 0; i < 56; i++ {
		msg := fmt.Sprintf("msg-%d", i)
		_, err := s.Append(msg, 1)
		require.NoError(t, err)
	}

	records, err := s.Tail(5)
	require.NoError(t, err)
	require.Len(t, records, 5)

	lastNum := 56
	for _, r := range records {
		require.Contains(t, r.Message, "msg-")
		var n int
		_, err := fmt.Sscanf(r.Message, "msg-%d", &n)
		require.NoError(t, err)
		require.Less(t, n, lastNum)
		lastNum = n
	}
}

func TestSinceCutoff(t *testing.T) {
	s, _, now := newTestStore(t, 1024)

	_, err := s.Append("old", 1)
	require.NoError(t, err)

	*now += 50
	cutoff := *now
	*now += 50

	_, err = s.Append("new", 1)
	require.NoError(t, err)

	records, err := s.Since(cutoff, 5)
	require.NoError(t, err)
	require.Len(t, records, 1)
	require.Equal(t, "new", records[0].Message)
}

func TestCorruptionStopsScan(t *testing.T) {
	s, fs, _ := newTestStore(t, 1024)

	_, err := s.Append("good", 1)
	require.NoError(t, err)
	_, err = s.Append("bad", 1)
	require.NoError(t, err)
	require.NoError(t, s.Close())

	require.NoError(t, fs.Corrupt("/logs/app.klog", HeaderSize+2, 0x7F, 2))

	s2, err := Open("/logs/app.klog", DefaultConfig(1024), fs)
	require.NoError(t, err)
	defer s2.Close()

	records, err := s2.Tail(5)
	require.NoError(t, err)
	require.NotEmpty(t, records)
}

func TestHeaderStability(t *testing.T) {
	s, _, _ := newTestStore(t, 1024)

	before, err := s.readHeader()
	require.NoError(t, err)

	for i := 0; i < 20; i++ {
		_, err := s.Append(fmt.Sprintf("m%d", i), 1)
		require.NoError(t, err)
	}

	after, err := s.readHeader()
	require.NoError(t, err)

	require.Equal(t, before.Magic, after.Magic)
	require.Equal(t, before.FormatVersion, after.FormatVersion)
	require.Equal(t, before.BodySize, after.BodySize)
	require.NotEqual(t, before.LastEnd, after.LastEnd)
}

func TestOversizeRejection(t *testing.T) {
	s, _, _ := newTestStore(t, 32) // bodySize = 16

	header, err := s.readHeader()
	require.NoError(t, err)
	require.EqualValues(t, 16, header.BodySize)

	// payloadLen = 9 + len(msg); recordSize = payloadLen + 4 must be <= 16,
	// so len(msg) <= 3 fits, len(msg) == 4 does not.
	n, err := s.Append("big!", 1) // len=4 -> payloadLen=13 -> recordSize=17 > 16
	require.NoError(t, err)
	require.Zero(t, n)

	records, err := s.Tail(5)
	require.NoError(t, err)
	require.Empty(t, records)

	n, err = s.Append("ok!", 1) // len=3 -> payloadLen=12 -> recordSize=16 == bodySize
	require.NoError(t, err)
	require.EqualValues(t, 16, n)
}

func TestPayloadLengthPrefixLimit(t *testing.T) {
	// The body is large enough for either record; the length prefix is not.
	s, _, _ := newTestStore(t, 1<<17)

	// len(msg) == 65527 -> payloadLen = 65536, one past what a u16 prefix
	// can carry.
	n, err := s.Append(strings.Repeat("x", 65527), 1)
	require.NoError(t, err)
	require.Zero(t, n)

	records, err := s.Tail(1)
	require.NoError(t, err)
	require.Empty(t, records)

	// len(msg) == 65526 -> payloadLen = 65535, the largest encodable record.
	n, err = s.Append(strings.Repeat("y", 65526), 1)
	require.NoError(t, err)
	require.EqualValues(t, 65539, n)

	records, err = s.Tail(1)
	require.NoError(t, err)
	require.Len(t, records, 1)
	require.Len(t, records[0].Message, 65526)
}

func TestExactlyFitsPathology(t *testing.T) {
	// bodySize = 20, so a record with recordSize == 20 exactly fills the
	// ring and newEnd must equal lastEnd.
	s, _, _ := newTestStore(t, 36)

	header, err := s.readHeader()
	require.NoError(t, err)
	require.EqualValues(t, 20, header.BodySize)

	// len(msg) == 7 -> payloadLen = 16 -> recordSize = 20.
	n, err := s.Append("exactly", 1)
	require.NoError(t, err)
	require.EqualValues(t, 20, n)

	after, err := s.readHeader()
	require.NoError(t, err)
	require.Equal(t, header.LastEnd, after.LastEnd)

	records, err := s.Tail(1)
	require.NoError(t, err)
	require.Len(t, records, 1)
	require.Equal(t, "exactly", records[0].Message)

	// A subsequent append overwrites from lastEnd onward.
	n, err = s.Append("again!!", 1)
	require.NoError(t, err)
	require.EqualValues(t, 20, n)

	records, err = s.Tail(1)
	require.NoError(t, err)
	require.Len(t, records, 1)
	require.Equal(t, "again!!", records[0].Message)
}

func TestEmptyRingTailIsEmpty(t *testing.T) {
	s, _, _ := newTestStore(t, 1024)
	records, err := s.Tail(10)
	require.NoError(t, err)
	require.Empty(t, records)
}

func TestReopenPreservesLastEnd(t *testing.T) {
	fs := vfs.NewMemFS()
	s, err := Open("/logs/app.klog", DefaultConfig(1024), fs)
	require.NoError(t, err)
	_, err = s.Append("persisted", 1)
	require.NoError(t, err)
	require.NoError(t, s.Close())

	s2, err := Open("/logs/app.klog", DefaultConfig(1024), fs)
	require.NoError(t, err)
	defer s2.Close()

	records, err := s2.Tail(1)
	require.NoError(t, err)
	require.Len(t, records, 1)
	require.Equal(t, "persisted", records[0].Message)
}
