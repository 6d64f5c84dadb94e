package aio

import "slices"

// A Semaphore is a counting semaphore for coroutines.
//
// A Semaphore grants permits to waiters in FIFO order; a waiter that asks
// for more permits than are currently free blocks every waiter behind it,
// which prevents starvation of large requests.
// If a waiting coroutine is canceled before the grant, it is removed from
// the wait list; if it is canceled after the grant but before it runs again,
// the permits are released back.
//
// To create a Semaphore, use [NewSemaphore].
// A Semaphore must not be shared by more than one [Executor].
type Semaphore struct {
	size    int64
	cur     int64
	waiters []*semWaiter
}

type semWaiter struct {
	Signal
	s       *Semaphore
	co      *Coroutine
	n       int64
	granted bool
}

func (w *semWaiter) Cleanup() {
	switch {
	case !w.granted:
		if i := slices.Index(w.s.waiters, w); i != -1 {
			w.s.waiters = slices.Delete(w.s.waiters, i, i+1)
			w.s.grant()
		}
	case w.co.Canceled():
		w.s.Release(w.n)
	}
}

// NewSemaphore creates a new [Semaphore] with the given number of permits.
func NewSemaphore(n int64) *Semaphore {
	if n <= 0 {
		panic("aio(Semaphore): size must be positive")
	}
	return &Semaphore{size: n}
}

// Acquire returns a [Task] that acquires n permits from s, waiting for them
// to become available first if necessary, and then ends.
//
// Panics if n is negative or greater than the size of s.
func (s *Semaphore) Acquire(n int64) Task {
	return func(co *Coroutine) Result {
		switch {
		case n < 0:
			panic("aio(Semaphore): negative acquire count")
		case n > s.size:
			panic("aio(Semaphore): acquire count exceeds semaphore size")
		}

		if len(s.waiters) == 0 && s.size-s.cur >= n {
			s.cur += n
			return co.End()
		}

		w := &semWaiter{s: s, co: co, n: n}
		s.waiters = append(s.waiters, w)
		co.Watch(w)
		co.Cleanup(w)

		return co.Await().Until(func() bool { return w.granted }).End()
	}
}

// TryAcquire attempts to acquire n permits from s without waiting and
// reports whether it succeeded.
//
// One should only call this method in a [Task] function.
func (s *Semaphore) TryAcquire(n int64) bool {
	if len(s.waiters) != 0 || s.size-s.cur < n {
		return false
	}
	s.cur += n
	return true
}

// Release releases n permits back to s.
//
// One should only call this method in a [Task] function.
func (s *Semaphore) Release(n int64) {
	switch {
	case n < 0:
		panic("aio(Semaphore): negative release count")
	case n > s.cur:
		panic("aio(Semaphore): released more than held")
	}
	s.cur -= n
	s.grant()
}

func (s *Semaphore) grant() {
	for len(s.waiters) != 0 {
		w := s.waiters[0]
		if s.size-s.cur < w.n {
			return
		}
		s.waiters = s.waiters[1:]
		s.cur += w.n
		w.granted = true
		w.Notify()
	}
}
