// Package klog is the logging façade: it formats timestamps, drives the
// dedup buffer, and routes flushed lines to both a console sink and a
// persistent ring store.
package klog

import (
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/klogstore/klog/pkg/console"
	"github.com/klogstore/klog/pkg/dedup"
	"github.com/klogstore/klog/pkg/ringstore"
	"github.com/klogstore/klog/pkg/timer"
	"github.com/klogstore/klog/pkg/vfs"
)

// ErrNotInitialized is returned by Default before Initialize has run.
var ErrNotInitialized = errors.New("klog: not initialized")

// Facade ties the ring store, the dedup buffer, the console sink, the
// delayed-callback scheduler, and device identity together behind Log /
// LogW / LogE. It is safe for concurrent use: add and the dedup buffer's
// timer callback both run under the same lock.
type Facade struct {
	ring   *ringstore.RingStore
	dedup  *dedup.Buffer
	sink   console.Sink
	log    *zap.SugaredLogger
	now    func() int64
	mu     sync.Mutex
	uuidID string
}

// Option configures optional Facade behavior.
type Option func(*options)

type options struct {
	sink          console.Sink
	log           *zap.SugaredLogger
	clock         func() int64
	runAfterDelay timer.RunAfterDelay
	uuidGen       UUIDGenerator
}

// WithConsoleSink overrides the console sink. The default writes to stdout.
func WithConsoleSink(sink console.Sink) Option {
	return func(o *options) { o.sink = sink }
}

// WithLogger attaches diagnostic logging. The default is a no-op logger.
func WithLogger(log *zap.SugaredLogger) Option {
	return func(o *options) {
		if log != nil {
			o.log = log
		}
	}
}

// WithClock overrides the wall-clock source used for both the Ring Store
// and the Dedup Buffer. The default is the system clock.
func WithClock(clock func() int64) Option {
	return func(o *options) {
		if clock != nil {
			o.clock = clock
		}
	}
}

// WithRunAfterDelay overrides the delayed-callback scheduler. The default
// is timer.Real().
func WithRunAfterDelay(raw timer.RunAfterDelay) Option {
	return func(o *options) {
		if raw != nil {
			o.runAfterDelay = raw
		}
	}
}

// WithUUIDGenerator overrides the device-identity generator. The default
// uses github.com/google/uuid.
func WithUUIDGenerator(gen UUIDGenerator) Option {
	return func(o *options) {
		if gen != nil {
			o.uuidGen = gen
		}
	}
}

// Open constructs a ring store over path/config and, when
// config.DedupEnabled is set, a dedup buffer in front of it.
func Open(path string, config ringstore.LogConfig, fsys vfs.Filesystem, opts ...Option) (*Facade, error) {
	o := &options{
		sink:          console.NewWriter(os.Stdout),
		log:           zap.NewNop().Sugar(),
		clock:         systemClockMillis,
		runAfterDelay: timer.Real(),
		uuidGen:       googleUUIDGenerator{},
	}
	for _, opt := range opts {
		opt(o)
	}

	ring, err := ringstore.Open(path, config, fsys,
		ringstore.WithLogger(o.log),
		ringstore.WithClock(ringstore.Clock(o.clock)))
	if err != nil {
		return nil, fmt.Errorf("klog: open ring store: %w", err)
	}

	f := &Facade{
		ring:   ring,
		sink:   o.sink,
		log:    o.log,
		now:    o.clock,
		uuidID: o.uuidGen.Generate(),
	}

	if config.DedupEnabled {
		f.dedup = dedup.New(f.wrapRunAfterDelay(o.runAfterDelay), f.now, f.onFlush)
	}

	return f, nil
}

func (f *Facade) wrapRunAfterDelay(raw timer.RunAfterDelay) timer.RunAfterDelay {
	return func(delayMs int64, block func()) timer.Cancellable {
		return raw(delayMs, func() {
			f.mu.Lock()
			defer f.mu.Unlock()
			block()
		})
	}
}

// DeviceID returns the RFC 4122 v4 identifier generated at construction.
func (f *Facade) DeviceID() string {
	return f.uuidID
}

// Log emits an INFO-level line.
func (f *Facade) Log(tag, message string) {
	f.add(tag, message, LevelInfo)
}

// LogW emits a WARNING-level line.
func (f *Facade) LogW(tag, message string) {
	f.add(tag, message, LevelWarning)
}

// LogE emits an ERROR-level line. If cause is non-nil its text is appended
// to message before coalescing/formatting.
func (f *Facade) LogE(tag, message string, cause error) {
	if cause != nil {
		message = fmt.Sprintf("%s: %v", message, cause)
	}
	f.add(tag, message, LevelError)
}

func (f *Facade) add(tag, message string, level Level) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.dedup != nil {
		f.dedup.Add(tag, message, uint8(level))
		return
	}
	f.onFlush(tag, message, uint8(level), 1, f.now())
}

// onFlush assumes f.mu is already held, either by add (synchronous
// coalescing break) or by the wrapped runAfterDelay callback (silence
// timeout).
func (f *Facade) onFlush(tag, message string, level uint8, count int, lastTimestampMillis int64) {
	line := formatLine(time.UnixMilli(lastTimestampMillis), Level(level), tag, message, count)

	switch Level(level) {
	case LevelWarning:
		f.sink.LogW(tag, line)
	case LevelError:
		f.sink.LogE(tag, line, nil)
	default:
		f.sink.Log(tag, line)
	}

	if _, err := f.ring.Append(line, level); err != nil {
		f.log.Errorw("klog: ring store append failed", "error", err)
	}
}

// Tail returns up to count records, newest first.
func (f *Facade) Tail(count int32) ([]ringstore.LogRecord, error) {
	return f.ring.Tail(count)
}

// Since returns records with timestampMillis >= cutoffMillis, newest first,
// capped at limit.
func (f *Facade) Since(cutoffMillis int64, limit int32) ([]ringstore.LogRecord, error) {
	return f.ring.Since(cutoffMillis, limit)
}

// Close closes the underlying Ring Store.
func (f *Facade) Close() error {
	return f.ring.Close()
}

func systemClockMillis() int64 {
	return time.Now().UnixMilli()
}
