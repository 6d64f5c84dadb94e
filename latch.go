package aio

import "slices"

// A Latch is a boolean [Event] that coroutines can wait on until it is set.
//
// A Latch starts unset. Setting it releases every waiting coroutine at once,
// and any coroutine that waits on an already-set Latch proceeds immediately.
// A Latch can be cleared again, which makes later waits block; coroutines
// already released are not affected, even by a Set immediately followed by
// a Clear.
//
// The zero Latch is ready to use.
// A Latch must not be shared by more than one [Executor].
type Latch struct {
	Signal
	set     bool
	waiters []*latchWaiter
}

type latchWaiter struct {
	Signal
	l        *Latch
	released bool
}

func (w *latchWaiter) Cleanup() {
	if !w.released {
		if i := slices.Index(w.l.waiters, w); i != -1 {
			w.l.waiters = slices.Delete(w.l.waiters, i, i+1)
		}
	}
}

// Set sets l and releases every coroutine that is waiting on it.
// Setting an already-set Latch is a no-op.
//
// One should only call this method in a [Task] function.
func (l *Latch) Set() {
	if l.set {
		return
	}
	l.set = true
	for _, w := range l.waiters {
		w.released = true
		w.Signal.Notify()
	}
	l.waiters = nil
	l.Notify()
}

// Clear unsets l. Later waits block until l is set again; coroutines
// released by an earlier Set stay released.
func (l *Latch) Clear() {
	l.set = false
}

// IsSet reports whether l is set.
func (l *Latch) IsSet() bool {
	return l.set
}

// Wait returns a [Task] that awaits l until it is set, and then ends.
// The release is decided at Set time; a later Clear does not take it back.
func (l *Latch) Wait() Task {
	return func(co *Coroutine) Result {
		if l.set {
			return co.End()
		}

		w := &latchWaiter{l: l}
		l.waiters = append(l.waiters, w)
		co.Watch(w)
		co.Cleanup(w)

		return co.Await().Until(func() bool { return w.released }).End()
	}
}
