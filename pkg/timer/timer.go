// Package timer defines the delayed-callback primitive the dedup buffer
// schedules its silence timeout against. Consumers depend only on the
// RunAfterDelay/Cancellable pair; Real is the production realization,
// one time.AfterFunc timer per scheduled call.
package timer

import "time"

// Cancellable is returned by RunAfterDelay. Cancel is idempotent: once the
// scheduled block has begun (or finished) running, Cancel is a no-op.
type Cancellable interface {
	Cancel()
}

// RunAfterDelay schedules block to run after delayMs milliseconds, unless
// cancelled first, and returns a handle to cancel it.
type RunAfterDelay func(delayMs int64, block func()) Cancellable

// Real returns a RunAfterDelay backed by time.AfterFunc.
func Real() RunAfterDelay {
	return func(delayMs int64, block func()) Cancellable {
		t := time.AfterFunc(time.Duration(delayMs)*time.Millisecond, block)
		return stdCancellable{t}
	}
}

type stdCancellable struct {
	t *time.Timer
}

func (c stdCancellable) Cancel() {
	c.t.Stop()
}
