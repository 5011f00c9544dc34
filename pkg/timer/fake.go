package timer

// Fake is a deterministic RunAfterDelay for tests: it records scheduled
// calls instead of waiting, and fires them only when the test tells it to.
type Fake struct {
	pending []*fakeCall
}

type fakeCall struct {
	delayMs   int64
	block     func()
	cancelled bool
	fired     bool
}

func (c *fakeCall) Cancel() {
	c.cancelled = true
}

// NewFake returns an empty Fake scheduler.
func NewFake() *Fake {
	return &Fake{}
}

// Schedule is the RunAfterDelay function to inject into a Dedup Buffer
// under test.
func (f *Fake) Schedule(delayMs int64, block func()) Cancellable {
	c := &fakeCall{delayMs: delayMs, block: block}
	f.pending = append(f.pending, c)
	return c
}

// FireDue fires every scheduled call whose delay is <= elapsedMs and hasn't
// been cancelled, simulating elapsedMs of silence. Firing order is
// scheduling order.
func (f *Fake) FireDue(elapsedMs int64) {
	for _, c := range f.pending {
		if c.fired || c.cancelled {
			continue
		}
		if c.delayMs <= elapsedMs {
			c.fired = true
			c.block()
		}
	}
	f.compact()
}

// FireAll fires every scheduled, non-cancelled call regardless of its
// delay, as a convenience for tests that only care "enough silence passed".
func (f *Fake) FireAll() {
	for _, c := range f.pending {
		if c.fired || c.cancelled {
			continue
		}
		c.fired = true
		c.block()
	}
	f.compact()
}

// ArmedCount returns the number of scheduled calls that are neither
// cancelled nor fired yet.
func (f *Fake) ArmedCount() int {
	n := 0
	for _, c := range f.pending {
		if !c.cancelled && !c.fired {
			n++
		}
	}
	return n
}

func (f *Fake) compact() {
	live := f.pending[:0]
	for _, c := range f.pending {
		if !c.fired {
			live = append(live, c)
		}
	}
	f.pending = live
}
