package klog

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/klogstore/klog/pkg/ringstore"
	"github.com/klogstore/klog/pkg/timer"
	"github.com/klogstore/klog/pkg/vfs"
)

type recordingSink struct {
	lines []string
}

func (s *recordingSink) Log(tag, message string)  { s.lines = append(s.lines, message) }
func (s *recordingSink) LogW(tag, message string) { s.lines = append(s.lines, message) }
func (s *recordingSink) LogE(tag, message string, cause error) {
	s.lines = append(s.lines, message)
}

func newTestFacade(t *testing.T, dedupEnabled bool) (*Facade, *timer.Fake, *int64, *recordingSink) {
	t.Helper()
	fs := vfs.NewMemFS()
	fake := timer.NewFake()
	now := int64(1_700_000_000_000)
	sink := &recordingSink{}

	config := ringstore.DefaultConfig(2048)
	config.DedupEnabled = dedupEnabled

	f, err := Open("/logs/app.klog", config, fs,
		WithConsoleSink(sink),
		WithClock(func() int64 { return now }),
		WithRunAfterDelay(fake.Schedule))
	require.NoError(t, err)
	t.Cleanup(func() { _ = f.Close() })

	return f, fake, &now, sink
}

func TestFacadeDedupCoalescesAndFlushesOnBreak(t *testing.T) {
	f, _, now, sink := newTestFacade(t, true)

	f.Log("T", "m")
	*now += 10
	f.Log("T", "m")
	*now += 10
	f.Log("T", "n")

	require.Len(t, sink.lines, 1)
	require.Contains(t, sink.lines[0], "(repeat 2 times)")
	require.Contains(t, sink.lines[0], "[T]")
	require.Contains(t, sink.lines[0], "m")
}

func TestFacadeDedupFlushesOnSilence(t *testing.T) {
	f, fake, now, sink := newTestFacade(t, true)

	for i := 0; i < 5; i++ {
		f.Log("T", "m")
		*now += 20
	}
	require.Empty(t, sink.lines)

	fake.FireAll()

	require.Len(t, sink.lines, 1)
	require.Contains(t, sink.lines[0], "(repeat 5 times)")

	records, err := f.Tail(1)
	require.NoError(t, err)
	require.Len(t, records, 1)
	require.True(t, strings.Contains(records[0].Message, "(repeat 5 times)"))
}

func TestFacadeDedupDisabledEmitsImmediately(t *testing.T) {
	f, _, _, sink := newTestFacade(t, false)

	f.Log("T", "m")
	f.Log("T", "m")
	f.Log("T", "m")

	require.Len(t, sink.lines, 3)
	for _, line := range sink.lines {
		require.NotContains(t, line, "repeat")
	}
}

func TestFacadeLevelTokens(t *testing.T) {
	f, _, _, sink := newTestFacade(t, false)

	f.Log("T", "info-line")
	f.LogW("T", "warn-line")
	f.LogE("T", "err-line", nil)

	require.NotContains(t, sink.lines[0], "INFO")
	require.Contains(t, sink.lines[1], "WARNING")
	require.Contains(t, sink.lines[2], "ERROR")
}

func TestFacadeDeviceIDIsStable(t *testing.T) {
	f, _, _, _ := newTestFacade(t, false)
	id1 := f.DeviceID()
	id2 := f.DeviceID()
	require.Equal(t, id1, id2)
	require.NotEmpty(t, id1)
}
