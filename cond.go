package aio

import "slices"

// A Cond is a condition variable for coroutines, paired with a [Mutex].
//
// A notification wakes waiters in FIFO order.
// If a notified coroutine is canceled before it runs again, the notification
// is relayed to the next waiter so that it is not lost.
//
// To create a Cond, use [NewCond].
// A Cond must not be shared by more than one [Executor].
type Cond struct {
	// L is the lock that guards the condition.
	// It must be held when calling the Wait method's task.
	L *Mutex

	waiters []*condWaiter
}

type condWaiter struct {
	Signal
	c        *Cond
	co       *Coroutine
	notified bool
}

func (w *condWaiter) Cleanup() {
	switch {
	case !w.notified:
		if i := slices.Index(w.c.waiters, w); i != -1 {
			w.c.waiters = slices.Delete(w.c.waiters, i, i+1)
		}
	case w.co.Canceled():
		w.c.Notify(1)
	}
}

// NewCond creates a new [Cond] guarded by l.
func NewCond(l *Mutex) *Cond {
	if l == nil {
		panic("aio(Cond): nil Mutex")
	}
	return &Cond{L: l}
}

// Wait returns a [Task] that atomically releases c.L and suspends until
// another coroutine notifies c, then reacquires c.L before ending.
//
// Because c.L may be handed to other coroutines while waiting, the condition
// must be rechecked after Wait ends; use [Cond.WaitFor] for that.
//
// Panics if c.L is not locked.
func (c *Cond) Wait() Task {
	return func(co *Coroutine) Result {
		if !c.L.Locked() {
			panic("aio(Cond): Wait without holding the lock")
		}

		c.L.Unlock()

		w := &condWaiter{c: c, co: co}
		c.waiters = append(c.waiters, w)
		co.Watch(w)
		co.Cleanup(w)

		return co.Await().Until(func() bool { return w.notified }).Then(c.reacquire)
	}
}

// reacquire takes c.L back after a notification. It keeps the relay
// obligation alive across the lock-wait suspension: a waiter canceled
// before the lock is granted passes its notification on.
func (c *Cond) reacquire(co *Coroutine) Result {
	m := c.L

	if !m.locked && len(m.waiters) == 0 {
		m.locked = true
		return co.End()
	}

	w := &lockWaiter{m: m, co: co}
	m.waiters = append(m.waiters, w)
	co.Watch(w)
	co.Cleanup(w)
	co.CleanupFunc(func() {
		if !w.granted && co.Canceled() {
			c.Notify(1)
		}
	})

	return co.Await().Until(func() bool { return w.granted }).End()
}

// WaitFor returns a [Task] that waits on c until pred reports true, and then
// ends with c.L still held.
// If pred is already true, the task ends immediately.
func (c *Cond) WaitFor(pred func() bool) Task {
	var t Task
	t = func(co *Coroutine) Result {
		if pred() {
			return co.End()
		}
		return co.Transition(c.Wait().Then(t))
	}
	return t
}

// Notify wakes up to n coroutines waiting on c.
//
// One should only call this method in a [Task] function, normally while
// holding c.L.
func (c *Cond) Notify(n int) {
	for ; n > 0 && len(c.waiters) != 0; n-- {
		w := c.waiters[0]
		c.waiters = c.waiters[1:]
		w.notified = true
		w.Signal.Notify()
	}
}

// NotifyAll wakes every coroutine waiting on c.
//
// One should only call this method in a [Task] function, normally while
// holding c.L.
func (c *Cond) NotifyAll() {
	c.Notify(len(c.waiters))
}
