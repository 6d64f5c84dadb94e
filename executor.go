package aio

import (
	"errors"
	"sync"
)

// An Executor is a [Task] spawner, and a Task runner.
//
// When a task is spawned, a coroutine is created for it and added into an
// internal ready queue. The Run method then pops and runs each of them until
// the queue is emptied.
// It is done in a single-threaded manner.
// If one coroutine blocks, no other coroutines can run.
// The best practice is not to block; use [Offload] for blocking work.
//
// The ready queue orders coroutines by weight (greater first); coroutines
// with the same weight run in the order they became ready (FIFO).
//
// Manually calling the Run method is usually not desired.
// One would instead use the Autorun method to set up an autorun function to
// calling the Run method automatically whenever a task is spawned or
// a coroutine is resumed.
// The Executor never calls the autorun function twice at the same time.
type Executor struct {
	mu      sync.Mutex
	rq      readyqueue[*Coroutine]
	seq     uint64
	running bool
	autorun func()
	onError func(error)
	errs    []error
	pool    sync.Pool
}

// Autorun sets up an autorun function to calling the Run method automatically
// whenever a [Task] is spawned or a [Coroutine] is resumed.
//
// One must pass a function that calls the Run method.
//
// If f blocks, the Spawn method may block too.
// The best practice is not to block.
func (e *Executor) Autorun(f func()) {
	e.autorun = f
}

// OnError sets up a handler for failures that unwind out of root coroutines.
//
// Without a handler, the Run method panics with the collected failures,
// joined with [errors.Join], when it returns.
func (e *Executor) OnError(h func(error)) {
	e.onError = h
}

// Run pops and runs every ready [Coroutine] in the queue until the queue is
// emptied.
//
// Run must not be called twice at the same time.
func (e *Executor) Run() {
	e.mu.Lock()
	e.running = true

	for !e.rq.Empty() {
		co := e.rq.Pop()
		e.runCoroutine(co)
	}

	e.running = false
	errs := e.errs
	e.errs = nil
	e.mu.Unlock()

	if len(errs) != 0 {
		panic(errors.Join(errs...))
	}
}

// Spawn creates a root [Coroutine] with zero weight to work on t.
//
// The coroutine is added in a queue. To run it, either call the Run method,
// or call the Autorun method to set up an autorun function beforehand.
//
// Spawn is safe for concurrent use.
func (e *Executor) Spawn(t Task) {
	e.SpawnWeighted(0, t)
}

// SpawnWeighted is like Spawn but gives the coroutine the weight w.
// Coroutines spawned by the new coroutine inherit its weight.
func (e *Executor) SpawnWeighted(w Weight, t Task) {
	co := e.newCoroutine().init(e, must(t)).recyclable()
	co.weight = w
	e.resumeCoroutine(co)
}

func (e *Executor) resumeCoroutine(co *Coroutine) {
	var autorun func()

	e.mu.Lock()

	switch flag := co.flag; {
	case flag&flagRecycled != 0:
		e.mu.Unlock()
		panic("aio: coroutine has been recycled")
	case flag&flagEnqueued != 0:
		co.flag = flag | flagResumed
	default:
		co.flag = flag | flagResumed | flagEnqueued
		co.seq = e.seq
		e.seq++
		e.rq.Push(co)
		if !e.running && e.autorun != nil {
			e.running = true
			autorun = e.autorun
		}
	}

	e.mu.Unlock()

	if autorun != nil {
		autorun()
	}
}

func (e *Executor) runCoroutine(co *Coroutine) {
	flag := co.flag &^ flagEnqueued
	co.flag = flag

	switch {
	case flag&flagEnded != 0:
		e.freeCoroutine(co)
	case flag&flagResumed != 0:
		e.mu.Unlock()
		co.run()
		e.mu.Lock()
	}
}

func (e *Executor) raise(err error) {
	if h := e.onError; h != nil {
		h(err)
		return
	}
	e.mu.Lock()
	e.errs = append(e.errs, err)
	e.mu.Unlock()
}

func (e *Executor) newCoroutine() *Coroutine {
	if co, ok := e.pool.Get().(*Coroutine); ok {
		return co
	}
	return new(Coroutine)
}

func (e *Executor) freeCoroutine(co *Coroutine) {
	if co.flag&(flagRecyclable|flagRecycled|flagEscaped) == flagRecyclable {
		co.flag |= flagRecycled
		co.executor = nil
		co.parent = nil
		co.task = nil
		co.guard = nil
		co.err = nil
		co.catch = nil
		co.fin = nil
		e.pool.Put(co)
	}
}
