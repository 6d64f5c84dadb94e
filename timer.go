package aio

import (
	"errors"
	"time"
)

// ErrTimeout is the error with which [Timeout] fails a coroutine when the
// given task does not complete in time.
var ErrTimeout = errors.New("aio: timeout")

// Sleep returns a [Task] that ends after duration d.
// Nonpositive durations end immediately.
//
// A sleeping coroutine can be canceled; the timer is then stopped.
func Sleep(d time.Duration) Task {
	return func(co *Coroutine) Result {
		if d <= 0 {
			return co.End()
		}

		var sig Signal

		e := co.Executor()
		tm := time.AfterFunc(d, func() {
			e.Spawn(Do(sig.Notify))
		})
		co.CleanupFunc(func() { tm.Stop() })

		return co.Await(&sig).End()
	}
}

// Timeout returns a [Task] that runs t in a child coroutine, giving it at
// most duration d to complete.
// If the deadline expires first, the child coroutine is canceled and the
// returned task fails with [ErrTimeout].
//
// Wrapping part of t in [Shield] exempts that part from the cancellation;
// the failure is then delivered after the shielded part ends.
func Timeout(d time.Duration, t Task) Task {
	must(t)
	return func(co *Coroutine) Result {
		done := false

		co.spawn(t, 0, nil, func() {
			done = true
			co.Resume()
		})

		if done {
			return co.End()
		}

		fired := false

		var sig Signal

		e := co.Executor()
		tm := time.AfterFunc(d, func() {
			e.Spawn(Do(func() {
				fired = true
				sig.Notify()
			}))
		})
		co.CleanupFunc(func() { tm.Stop() })

		return co.Await(&sig).Until(func() bool { return done || fired }).Then(
			func(co *Coroutine) Result {
				if done {
					return co.End()
				}
				return co.Fail(ErrTimeout)
			},
		)
	}
}
