package aio

import "slices"

// A Mutex is a mutual exclusion lock for coroutines.
//
// A Mutex hands the lock over to waiters in FIFO order.
// If a waiting coroutine is canceled before it is granted the lock, it is
// removed from the wait list; if it is canceled after the grant but before
// it runs again, the lock is passed on so that no waiter is starved.
//
// The zero Mutex is an unlocked mutex.
// A Mutex must not be shared by more than one [Executor].
type Mutex struct {
	locked  bool
	waiters []*lockWaiter
}

type lockWaiter struct {
	Signal
	m       *Mutex
	co      *Coroutine
	granted bool
}

func (w *lockWaiter) Cleanup() {
	switch {
	case !w.granted:
		if i := slices.Index(w.m.waiters, w); i != -1 {
			w.m.waiters = slices.Delete(w.m.waiters, i, i+1)
		}
	case w.co.Canceled():
		w.m.Unlock()
	}
}

// Lock returns a [Task] that acquires m, waiting for it to become available
// first if necessary, and then ends.
func (m *Mutex) Lock() Task {
	return func(co *Coroutine) Result {
		if !m.locked && len(m.waiters) == 0 {
			m.locked = true
			return co.End()
		}

		w := &lockWaiter{m: m, co: co}
		m.waiters = append(m.waiters, w)
		co.Watch(w)
		co.Cleanup(w)

		return co.Await().Until(func() bool { return w.granted }).End()
	}
}

// TryLock attempts to acquire m without waiting and reports whether it
// succeeded.
//
// One should only call this method in a [Task] function.
func (m *Mutex) TryLock() bool {
	if m.locked || len(m.waiters) != 0 {
		return false
	}
	m.locked = true
	return true
}

// Unlock releases m.
// If there are waiters, the lock is handed over to the first one.
//
// One should only call this method in a [Task] function.
func (m *Mutex) Unlock() {
	if !m.locked {
		panic("aio(Mutex): unlock of an unlocked mutex")
	}
	if len(m.waiters) != 0 {
		w := m.waiters[0]
		m.waiters = m.waiters[1:]
		w.granted = true
		w.Notify()
		return
	}
	m.locked = false
}

// Locked reports whether m is locked.
func (m *Mutex) Locked() bool {
	return m.locked
}

// With returns a [Task] that runs t while holding m.
// The lock is released when t completes, also when t fails or the coroutine
// is canceled while t is underway.
func (m *Mutex) With(t Task) Task {
	must(t)
	return m.Lock().Then(func(co *Coroutine) Result {
		co.CleanupFunc(m.Unlock)

		done := false
		co.spawn(t, 0, nil, func() {
			done = true
			co.Resume()
		})

		return co.Await().Until(func() bool { return done }).End()
	})
}
