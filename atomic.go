package lettuce

import (
	"math"
	"sync/atomic"
)

// AtomicBool implements a safe atomic boolean.
type AtomicBool struct {
	flag int32
}

// IsTrue returns true/false if giving atomic bool is in true state.
func (a *AtomicBool) IsTrue() bool {
	return atomic.LoadInt32(&a.flag) == 1
}

// Off sets the atomic bool as false.
func (a *AtomicBool) Off() {
	atomic.StoreInt32(&a.flag, 0)
}

// On sets the atomic bool as true.
func (a *AtomicBool) On() {
	atomic.StoreInt32(&a.flag, 1)
}

// DemandCounter tracks outstanding requested-but-undelivered values for a
// subscription. The counter never goes negative and additions saturate at
// the maximum instead of wrapping.
type DemandCounter struct {
	count int64
}

// Add increments the counter by n, clamping at the maximum value. It
// returns the new count.
func (d *DemandCounter) Add(n int64) int64 {
	for {
		current := atomic.LoadInt64(&d.count)
		next := current + n
		if next < current {
			next = math.MaxInt64
		}
		if atomic.CompareAndSwapInt64(&d.count, current, next) {
			return next
		}
	}
}

// TryConsumeOne decrements the counter by one if it is positive, reporting
// whether a unit of demand was consumed.
func (d *DemandCounter) TryConsumeOne() bool {
	for {
		current := atomic.LoadInt64(&d.count)
		if current <= 0 {
			return false
		}
		if atomic.CompareAndSwapInt64(&d.count, current, current-1) {
			return true
		}
	}
}

// Get returns the current count.
func (d *DemandCounter) Get() int64 {
	return atomic.LoadInt64(&d.count)
}

// DispatchGate is a one-shot latch guarding command dispatch. However many
// request signals race on first demand, exactly one caller wins the gate
// and sends the command.
type DispatchGate struct {
	state int32
}

// TryDispatch attempts the UNDISPATCHED to DISPATCHED transition, returning
// true only for the single caller that wins it.
func (g *DispatchGate) TryDispatch() bool {
	return atomic.CompareAndSwapInt32(&g.state, 0, 1)
}

// Dispatched returns true if the gate has been passed.
func (g *DispatchGate) Dispatched() bool {
	return atomic.LoadInt32(&g.state) == 1
}
