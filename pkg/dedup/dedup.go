// Package dedup implements a single-slot coalescing buffer: consecutive
// identical (tag, message, level) triples are collapsed into one flush
// carrying a repetition count, either when a different triple arrives or
// after a silence timeout.
package dedup

import "github.com/klogstore/klog/pkg/timer"

// DefaultSilenceMillis is the production silence timeout.
const DefaultSilenceMillis int64 = 20_000

// Clock returns the current time as epoch milliseconds.
type Clock func() int64

// OnFlush is invoked exactly once per coalesced run, either when a
// differing triple arrives or when the silence timer fires.
type OnFlush func(tag, message string, level uint8, count int, lastTimestampMillis int64)

// pending is the single in-memory coalescing slot.
type pending struct {
	tag, message        string
	level               uint8
	count               int
	lastTimestampMillis int64
}

// Buffer holds at most one pending slot and at most one armed timer at any
// time. Like RingStore, it is not internally synchronized; a caller driving
// it from multiple goroutines must serialize Add calls and timer fires
// under its own lock, the way the façade does.
type Buffer struct {
	runAfterDelay timer.RunAfterDelay
	now           Clock
	onFlush       OnFlush
	silenceMillis int64

	slot  *pending
	timer timer.Cancellable
}

// Option configures optional Buffer behavior.
type Option func(*Buffer)

// WithSilenceMillis overrides the 20s default, for tests that want to
// drive the state machine without depending on the production constant.
func WithSilenceMillis(ms int64) Option {
	return func(b *Buffer) {
		b.silenceMillis = ms
	}
}

// New constructs a Dedup Buffer. runAfterDelay schedules the silence timer;
// now supplies wall-clock milliseconds; onFlush receives each coalesced run.
func New(runAfterDelay timer.RunAfterDelay, now Clock, onFlush OnFlush, opts ...Option) *Buffer {
	b := &Buffer{
		runAfterDelay: runAfterDelay,
		now:           now,
		onFlush:       onFlush,
		silenceMillis: DefaultSilenceMillis,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Add records one occurrence of (tag, message, level). If it matches the
// pending slot, the slot's count and timestamp are updated and the silence
// timer is rearmed. If it differs, the pending slot is flushed immediately
// and a new one is started.
func (b *Buffer) Add(tag, message string, level uint8) {
	ts := b.now()

	if b.slot == nil {
		b.startSlot(tag, message, level, ts)
		return
	}

	if b.slot.tag == tag && b.slot.message == message && b.slot.level == level {
		b.slot.count++
		b.slot.lastTimestampMillis = ts
		b.cancelTimer()
		b.armTimer()
		return
	}

	b.cancelTimer()
	b.emit()
	b.slot = nil
	b.startSlot(tag, message, level, ts)
}

// Pending reports the buffer's current coalescing state, for diagnostics
// and tests. ok is false when the buffer is Empty.
func (b *Buffer) Pending() (tag, message string, level uint8, count int, lastTimestampMillis int64, ok bool) {
	if b.slot == nil {
		return "", "", 0, 0, 0, false
	}
	return b.slot.tag, b.slot.message, b.slot.level, b.slot.count, b.slot.lastTimestampMillis, true
}

func (b *Buffer) startSlot(tag, message string, level uint8, ts int64) {
	b.slot = &pending{tag: tag, message: message, level: level, count: 1, lastTimestampMillis: ts}
	b.armTimer()
}

func (b *Buffer) armTimer() {
	slot := b.slot
	b.timer = b.runAfterDelay(b.silenceMillis, func() {
		if b.slot != slot {
			return
		}
		b.cancelTimer()
		b.emit()
		b.slot = nil
	})
}

func (b *Buffer) cancelTimer() {
	if b.timer != nil {
		b.timer.Cancel()
		b.timer = nil
	}
}

func (b *Buffer) emit() {
	if b.slot == nil {
		return
	}
	b.onFlush(b.slot.tag, b.slot.message, b.slot.level, b.slot.count, b.slot.lastTimestampMillis)
}
