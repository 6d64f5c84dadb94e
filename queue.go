package aio

import (
	"errors"
	"slices"
)

// ErrClosed is the error with which [Queue] operations fail once the queue
// is closed: immediately for puts, and after the buffer drains for gets.
var ErrClosed = errors.New("aio: queue closed")

// A Queue is a FIFO buffer connecting producer and consumer coroutines.
//
// A Queue with a positive capacity exerts backpressure: when the buffer is
// full, puts suspend until a consumer makes room. A Queue with capacity zero
// or less is unbounded and puts never suspend.
// When the buffer is empty, gets suspend until a producer delivers an item.
// Suspended producers and consumers are each served in FIFO order.
//
// Closing a Queue terminates the pipeline: pending and future puts fail with
// [ErrClosed], while gets keep draining the buffer and fail only once it is
// empty. There is no need to thread a sentinel value through the items.
//
// The Queue also counts outstanding work: each item put increments a counter
// that a consumer decrements by calling TaskDone after processing the item
// it retrieved. The Join method suspends until the counter hits zero, which
// lets a producer wait for its items to be not just retrieved but processed.
//
// To create a Queue, use [NewQueue].
// A Queue must not be shared by more than one [Executor].
type Queue[T any] struct {
	capacity   int
	items      []T
	closed     bool
	unfinished int
	done       Signal
	putters    []*putWaiter[T]
	getters    []*getWaiter[T]
}

// NewQueue creates a new [Queue] that buffers up to capacity items.
// If capacity is zero or less, the queue is unbounded.
func NewQueue[T any](capacity int) *Queue[T] {
	return &Queue[T]{capacity: capacity}
}

type putWaiter[T any] struct {
	Signal
	q        *Queue[T]
	co       *Coroutine
	v        T
	accepted bool
	closed   bool
}

func (w *putWaiter[T]) Cleanup() {
	if !w.accepted && !w.closed {
		if i := slices.Index(w.q.putters, w); i != -1 {
			w.q.putters = slices.Delete(w.q.putters, i, i+1)
		}
	}
}

type getWaiter[T any] struct {
	Signal
	q      *Queue[T]
	co     *Coroutine
	v      T
	ok     bool
	closed bool
	taken  bool
}

func (w *getWaiter[T]) Cleanup() {
	switch {
	case !w.ok && !w.closed:
		if i := slices.Index(w.q.getters, w); i != -1 {
			w.q.getters = slices.Delete(w.q.getters, i, i+1)
		}
	case w.ok && !w.taken && w.co.Canceled():
		// The item was handed over but never retrieved; put it back at
		// the front so that it is not lost.
		w.q.requeueFront(w.v)
	}
}

// deliver hands v to the first waiting getter, or buffers it if there is
// room. It reports whether the item was accepted.
func (q *Queue[T]) deliver(v T) bool {
	if len(q.getters) != 0 {
		g := q.getters[0]
		q.getters = q.getters[1:]
		g.v = v
		g.ok = true
		q.unfinished++
		g.Notify()
		return true
	}
	if q.capacity <= 0 || len(q.items) < q.capacity {
		q.items = append(q.items, v)
		q.unfinished++
		return true
	}
	return false
}

// pop removes the front item from the buffer, backfilling the freed slot
// from the first waiting putter.
func (q *Queue[T]) pop() (T, bool) {
	if len(q.items) == 0 {
		var zero T
		return zero, false
	}
	v := q.items[0]
	q.items = q.items[1:]
	if len(q.putters) != 0 {
		w := q.putters[0]
		q.putters = q.putters[1:]
		q.items = append(q.items, w.v)
		q.unfinished++
		w.accepted = true
		w.Notify()
	}
	return v, true
}

func (q *Queue[T]) requeueFront(v T) {
	if len(q.getters) != 0 {
		g := q.getters[0]
		q.getters = q.getters[1:]
		g.v = v
		g.ok = true
		g.Notify()
		return
	}
	q.items = slices.Insert(q.items, 0, v)
}

// Put returns a [Task] that adds v to q, suspending first if the buffer is
// full, and then ends.
// The task fails with [ErrClosed] if q is closed, or closes while the put
// is suspended; the item is then not added.
func (q *Queue[T]) Put(v T) Task {
	return func(co *Coroutine) Result {
		if q.closed {
			return co.Fail(ErrClosed)
		}

		if q.deliver(v) {
			return co.End()
		}

		w := &putWaiter[T]{q: q, co: co, v: v}
		q.putters = append(q.putters, w)
		co.Watch(w)
		co.Cleanup(w)

		return co.Await().Until(func() bool { return w.accepted || w.closed }).Then(
			func(co *Coroutine) Result {
				if w.closed {
					return co.Fail(ErrClosed)
				}
				return co.End()
			},
		)
	}
}

// TryPut attempts to add v to q without suspending and reports whether it
// succeeded. It fails when the buffer is full or q is closed.
//
// One should only call this method in a [Task] function.
func (q *Queue[T]) TryPut(v T) bool {
	if q.closed {
		return false
	}
	return q.deliver(v)
}

// Get returns a [Task] that removes the front item from q into *dst,
// suspending first if the buffer is empty, and then ends.
// The task fails with [ErrClosed] only when q is closed and the buffer is
// empty; items put before the close are still delivered.
func (q *Queue[T]) Get(dst *T) Task {
	return func(co *Coroutine) Result {
		if v, ok := q.pop(); ok {
			*dst = v
			return co.End()
		}

		if q.closed {
			return co.Fail(ErrClosed)
		}

		w := &getWaiter[T]{q: q, co: co}
		q.getters = append(q.getters, w)
		co.Watch(w)
		co.Cleanup(w)

		return co.Await().Until(func() bool { return w.ok || w.closed }).Then(
			func(co *Coroutine) Result {
				if !w.ok {
					return co.Fail(ErrClosed)
				}
				*dst = w.v
				w.taken = true
				return co.End()
			},
		)
	}
}

// TryGet attempts to remove the front item from q into *dst without
// suspending and reports whether it succeeded.
//
// One should only call this method in a [Task] function.
func (q *Queue[T]) TryGet(dst *T) bool {
	if v, ok := q.pop(); ok {
		*dst = v
		return true
	}
	return false
}

// Close closes q, waking every suspended producer and consumer.
// Closing an already-closed queue is a no-op.
//
// One should only call this method in a [Task] function.
func (q *Queue[T]) Close() {
	if q.closed {
		return
	}
	q.closed = true
	for _, w := range q.putters {
		w.closed = true
		w.Notify()
	}
	q.putters = nil
	for _, w := range q.getters {
		w.closed = true
		w.Notify()
	}
	q.getters = nil
}

// Closed reports whether q is closed.
func (q *Queue[T]) Closed() bool {
	return q.closed
}

// Len returns the number of items currently buffered in q.
func (q *Queue[T]) Len() int {
	return len(q.items)
}

// Cap returns the capacity of q; zero or less means unbounded.
func (q *Queue[T]) Cap() int {
	return q.capacity
}

// TaskDone records that an item previously put into q has been fully
// processed. When the count of unprocessed items hits zero, coroutines
// suspended in Join resume.
//
// Panics if called more times than there were items put.
//
// One should only call this method in a [Task] function.
func (q *Queue[T]) TaskDone() {
	if q.unfinished <= 0 {
		panic("aio(Queue): TaskDone called more times than items put")
	}
	if q.unfinished--; q.unfinished == 0 {
		q.done.Notify()
	}
}

// Join returns a [Task] that suspends until every item put into q has been
// processed, that is, until TaskDone has been called once per item, and
// then ends.
func (q *Queue[T]) Join() Task {
	return func(co *Coroutine) Result {
		if q.unfinished == 0 {
			return co.End()
		}
		return co.Await(&q.done).Until(func() bool { return q.unfinished == 0 }).End()
	}
}
