package aio

import (
	"errors"
	"slices"
)

type action int8

const (
	_ action = iota
	doEnd
	doYield
	doTransition
	doFail
	doBreak
	doContinue
)

const (
	flagResumed = 1 << iota
	flagEnqueued
	flagRunning
	flagEnded
	flagCanceled
	flagShielded
	flagDraining
	flagRecyclable
	flagRecycled
	flagEscaped
)

// A Coroutine is an execution of code, similar to a goroutine but cooperative
// and stackless.
//
// A coroutine is created with a function called [Task].
// A coroutine's job is to end the task.
// When an [Executor] spawns a coroutine with a task, it runs the coroutine by
// calling the task function with the coroutine as the argument.
// The return value determines whether to end the coroutine or to yield it
// so that it could resume later.
//
// In order for a coroutine to resume, the coroutine must watch at least one
// [Event] (e.g. [Signal], [State], [Latch], etc.) when calling the task
// function.
// A notification of such an event resumes the coroutine.
// When a coroutine is resumed, the executor runs the coroutine again.
//
// A coroutine can also make a transition to work on another task according to
// the return value of the task function.
// A coroutine can transition from one task to another until a task ends it.
//
// A coroutine can fail, either explicitly with [Coroutine.Fail] or because a
// task function panicked. A failing coroutine unwinds: watched events are
// dropped, live child coroutines are canceled, cleanups run, and the error
// then propagates to the parent coroutine, or to the executor for a root
// coroutine.
type Coroutine struct {
	flag     uint16
	weight   Weight
	seq      uint64
	executor *Executor
	parent   *Coroutine
	task     Task
	guard    func() bool
	err      error
	catch    func(error) Task
	fin      func()
	deps     map[Event]struct{}
	cleanups []Cleanup
	children []*Coroutine
}

// Weight is the scheduling priority of a coroutine.
// Ready coroutines with a greater weight run first; coroutines with the same
// weight run in the order they became ready.
type Weight int

func (co *Coroutine) init(e *Executor, t Task) *Coroutine {
	co.flag = 0
	co.weight = 0
	co.seq = 0
	co.executor = e
	co.parent = nil
	co.task = t
	co.guard = nil
	co.err = nil
	co.catch = nil
	co.fin = nil
	return co
}

func (co *Coroutine) recyclable() *Coroutine {
	co.flag |= flagRecyclable
	return co
}

func (co *Coroutine) less(other *Coroutine) bool {
	if co.weight != other.weight {
		return co.weight > other.weight
	}
	return co.seq < other.seq
}

// Resume resumes co.
func (co *Coroutine) Resume() {
	co.executor.resumeCoroutine(co)
}

// Cancel requests cancellation of co.
//
// A canceled coroutine never runs its task again. It unwinds at its next
// suspension point, or right away if it is already suspended: cleanups run,
// live child coroutines are canceled (shielded ones are drained), and the
// coroutine ends. Cancellation is not a failure; nothing propagates to the
// parent.
func (co *Coroutine) Cancel() {
	if co.flag&flagEnded != 0 {
		return
	}
	co.flag |= flagCanceled
	co.Resume()
}

func (co *Coroutine) run() (yielded bool) {
	co.flag |= flagRunning

	if co.flag&flagDraining != 0 {
		return co.finish()
	}

	var res Result

	for {
		if g := co.guard; g != nil {
			co.flag &^= flagResumed
			var pass bool
			if err := try(func() { pass = g() }); err != nil {
				if err != errUnwound {
					co.fail(err)
				}
			} else if !pass && co.err == nil && co.flag&flagCanceled == 0 {
				co.flag &^= flagRunning
				return true
			}
			co.guard = nil
		}

		co.clearDeps()
		co.reapChildren()
		co.runCleanups()

		if co.err != nil || co.flag&flagCanceled != 0 {
			h := co.catch
			if h == nil || co.err == nil || co.flag&flagCanceled != 0 {
				return co.finish()
			}
			co.catch = nil
			err := co.err
			co.err = nil
			co.task = func(co *Coroutine) Result {
				return co.Transition(h(err))
			}
		}

		co.flag &^= flagResumed | flagEnded // Ended is cleared so a Memo can re-run its coroutine.

		if err := try(func() { res = co.task(co) }); err != nil {
			if err != errUnwound {
				co.fail(err)
			}
			continue
		}

		switch res.action {
		case doEnd:
			return co.finish()
		case doYield:
			if co.err != nil || co.flag&flagCanceled != 0 {
				continue // Cancellation and failures are delivered at suspension points.
			}
			if res.task != nil {
				co.task = res.task
			}
			if res.guard != nil {
				co.guard = res.guard
				continue // For evaluating the guard right away.
			}
			co.flag &^= flagRunning
			return true
		case doTransition:
			co.task = res.task
		case doFail:
			if res.err != nil {
				co.fail(res.err)
			} else if co.err == nil {
				panic("aio: internal error: failing with no error")
			}
		case doBreak:
			panic("aio: break outside of a loop")
		case doContinue:
			panic("aio: continue outside of a loop")
		default:
			panic("aio: internal error: unknown action")
		}
	}
}

func (co *Coroutine) finish() (yielded bool) {
	co.guard = nil
	co.clearDeps()

	if len(co.children) != 0 {
		for _, child := range slices.Clone(co.children) {
			if child.parent != co || child.flag&(flagEnded|flagShielded) != 0 {
				continue
			}
			child.halt()
		}
		if len(co.children) != 0 {
			// Shielded children run to completion; stay suspended until
			// the last one ends.
			co.flag |= flagDraining
			co.flag &^= flagRunning
			return true
		}
	}

	co.runCleanups()

	co.flag |= flagEnded
	co.flag &^= flagRunning | flagDraining

	parent := co.parent
	co.detach()

	if err := co.err; err != nil {
		co.err = nil
		if parent != nil {
			parent.fail(err)
			parent.guard = nil
			parent.task = (*Coroutine).abort
			if parent.flag&flagRunning == 0 {
				parent.Resume()
			}
		} else {
			co.executor.raise(err)
		}
	} else if fin := co.fin; fin != nil && co.flag&flagCanceled == 0 {
		fin()
	}

	if parent != nil && parent.flag&flagDraining != 0 && len(parent.children) == 0 && parent.flag&flagRunning == 0 {
		parent.Resume()
	}

	if co.flag&flagEnqueued == 0 {
		co.executor.freeCoroutine(co)
	}

	return false
}

// halt cancels co synchronously. co may still yield when it has to drain
// shielded children; it then stays in its parent's child list until they end.
func (co *Coroutine) halt() {
	if co.flag&flagEnded != 0 {
		return
	}
	co.flag |= flagCanceled
	co.guard = nil
	co.run()
}

// shelve ends co immediately, dropping watched events without running
// cleanups. Only for coroutines, like a Memo's, that are re-run later.
func (co *Coroutine) shelve() {
	if co.flag&flagEnded != 0 {
		return
	}
	co.flag |= flagEnded
	co.guard = nil
	co.clearDeps()
}

func (co *Coroutine) fail(err error) {
	if co.err == nil {
		co.err = err
		return
	}
	co.err = errors.Join(co.err, err)
}

func (co *Coroutine) abort() Result {
	return Result{action: doFail}
}

func (co *Coroutine) clearDeps() {
	deps := co.deps
	for d := range deps {
		delete(deps, d)
		d.removeListener(co)
	}
}

func (co *Coroutine) runCleanups() {
	for len(co.cleanups) != 0 {
		cleanups := co.cleanups
		co.cleanups = nil
		for i := len(cleanups) - 1; i >= 0; i-- {
			c := cleanups[i]
			if err := try(c.Cleanup); err != nil && err != errUnwound {
				co.fail(err)
			}
		}
	}
}

func (co *Coroutine) reapChildren() {
	if len(co.children) == 0 {
		return
	}
	for _, child := range slices.Clone(co.children) {
		if child.parent != co || child.flag&(flagEnded|flagShielded) != 0 {
			continue
		}
		child.halt()
	}
}

func (co *Coroutine) detach() {
	p := co.parent
	if p == nil {
		return
	}
	co.parent = nil
	if i := slices.Index(p.children, co); i != -1 {
		p.children = slices.Delete(p.children, i, i+1)
	}
}

// Weight returns the weight of co.
func (co *Coroutine) Weight() Weight {
	return co.weight
}

// Parent returns the parent coroutine of co.
func (co *Coroutine) Parent() *Coroutine {
	return co.parent
}

// Executor returns the executor that spawned co.
func (co *Coroutine) Executor() *Executor {
	return co.executor
}

// Ended reports whether co has already ended.
func (co *Coroutine) Ended() bool {
	return co.flag&flagEnded != 0
}

// Canceled reports whether co has been canceled.
func (co *Coroutine) Canceled() bool {
	return co.flag&flagCanceled != 0
}

// Escape marks co as an escaped coroutine, preventing co from being put into
// pool for recycling.
// Useful when one wants to keep a reference to co after its task function
// returns, e.g. to cancel it from another task.
//
// Without calling this method, a coroutine may be put into pool for recycling
// when it ends.
func (co *Coroutine) Escape() {
	co.flag |= flagEscaped
}

// Unescape undoes what [Coroutine.Escape] does so that co can be put into
// pool again for recycling.
//
// Panics if Escape has not yet been called after the last call of Unescape.
func (co *Coroutine) Unescape() {
	if co.flag&flagEscaped == 0 {
		panic("aio: coroutine did not escape")
	}
	co.flag &^= flagEscaped
}

// Watch watches some events so that, when any of them notifies, co resumes.
func (co *Coroutine) Watch(ev ...Event) {
	if co.flag&(flagEnded|flagCanceled) != 0 {
		return
	}
	for _, d := range ev {
		deps := co.deps
		if deps == nil {
			deps = make(map[Event]struct{})
			co.deps = deps
		}
		deps[d] = struct{}{}
		d.addListener(co)
	}
}

// Cleanup represents any type that carries a Cleanup method.
// A Cleanup can be added to a coroutine in a [Task] function for making
// an effect some time later when the coroutine resumes, ends, or unwinds.
type Cleanup interface {
	Cleanup()
}

// A CleanupFunc is a func() that implements the [Cleanup] interface.
type CleanupFunc func()

// Cleanup implements the [Cleanup] interface.
func (f CleanupFunc) Cleanup() { f() }

// Cleanup adds something to clean up when co resumes, ends, or unwinds.
func (co *Coroutine) Cleanup(c Cleanup) {
	if co.Ended() {
		panic("aio: coroutine has already ended")
	}
	if c == nil {
		return
	}
	co.cleanups = append(co.cleanups, c)
}

// CleanupFunc adds a function call when co resumes, ends, or unwinds.
func (co *Coroutine) CleanupFunc(f func()) {
	if co.Ended() {
		panic("aio: coroutine has already ended")
	}
	if f == nil {
		return
	}
	co.cleanups = append(co.cleanups, CleanupFunc(f))
}

// Spawn creates a child coroutine with the same weight as co to work on t.
//
// Spawn runs t immediately. If t fails immediately, the failure unwinds co
// too.
//
// Child coroutines, if not yet ended, are canceled when the parent one
// resumes, ends, fails, or is canceled. Shielded children (see [Shield]) are
// the exception; a finishing parent drains them instead.
func (co *Coroutine) Spawn(t Task) {
	co.spawn(t, 0, nil, nil)
}

func (co *Coroutine) spawn(t Task, flags uint16, catch func(error) Task, fin func()) {
	if co.flag&flagEnded != 0 {
		panic("aio: coroutine has already ended")
	}

	child := co.executor.newCoroutine().init(co.executor, must(t)).recyclable()
	child.flag |= flags
	child.weight = co.weight
	child.parent = co
	child.catch = catch
	child.fin = fin
	co.children = append(co.children, child)

	child.run()

	if co.err != nil {
		panic(unwindNow{}) // Stop the current task; run unwinds co.
	}
}

// Result is the type of the return value of a [Task] function.
// A Result determines what next for a coroutine to do after running a task.
//
// A Result can be created by calling one of the following methods:
//   - [Coroutine.Await]: for creating a [PendingResult] that can be
//     transformed into a [Result] with one of its methods, which will then
//     cause the running coroutine to yield;
//   - [Coroutine.Yield]: for yielding a coroutine with additional events to
//     watch and, when resumed, reiterating the running task;
//   - [Coroutine.Transition]: for making a transition to work on another task;
//   - [Coroutine.End]: for ending the running task of a coroutine;
//   - [Coroutine.Fail]: for failing a coroutine with an error;
//   - [Coroutine.Break]: for breaking a [Loop] (or [LoopN]);
//   - [Coroutine.Continue]: for continuing a [Loop] (or [LoopN]).
type Result struct {
	action action
	err    error       // used by doFail only
	guard  func() bool // used by doYield only
	task   Task        // used by doYield and doTransition
}

// PendingResult is the return type of the [Coroutine.Await] method.
// A PendingResult is an intermediate value that must be transformed into
// a [Result] with one of its methods before returning from a [Task].
type PendingResult struct {
	res Result
}

// Reiterate returns a [Result] that will cause the running coroutine to yield
// and, when resumed, reiterate the running task.
func (pr PendingResult) Reiterate() Result {
	return pr.res
}

// Then returns a [Result] that will cause the running coroutine to yield and,
// when resumed, make a transition to work on another [Task].
func (pr PendingResult) Then(t Task) Result {
	pr.res.task = must(t)
	return pr.res
}

// End returns a [Result] that will cause the running coroutine to yield and,
// when resumed, end the running task.
func (pr PendingResult) End() Result {
	return pr.Then(End())
}

// Fail returns a [Result] that will cause the running coroutine to yield and,
// when resumed, fail with err.
func (pr PendingResult) Fail(err error) Result {
	return pr.Then(Fail(err))
}

// Until transforms pr into one with a condition.
// Affected coroutines remain yielded until the condition is met.
func (pr PendingResult) Until(f func() bool) PendingResult {
	pr.res.guard = f
	return pr
}

// Await returns a [PendingResult] that can be transformed into a [Result]
// with one of its methods, which will then cause co to yield.
// Await also accepts additional events to watch.
func (co *Coroutine) Await(ev ...Event) PendingResult {
	if len(ev) != 0 {
		co.Watch(ev...)
	}
	return PendingResult{res: Result{action: doYield}}
}

// Yield returns a [Result] that will cause co to yield and, when co is
// resumed, reiterate the running task.
// Yield also accepts additional events to watch.
func (co *Coroutine) Yield(ev ...Event) Result {
	return co.Await(ev...).Reiterate()
}

// Transition returns a [Result] that will cause co to make a transition to
// work on t.
func (co *Coroutine) Transition(t Task) Result {
	return Result{action: doTransition, task: must(t)}
}

// End returns a [Result] that will cause co to end its current running task.
func (co *Coroutine) End() Result {
	return Result{action: doEnd}
}

// Fail returns a [Result] that will cause co to unwind with err.
// The error propagates to the parent coroutine, or to the executor for a
// root coroutine, unless intercepted by [Catch].
func (co *Coroutine) Fail(err error) Result {
	if err == nil {
		panic("aio: Fail called with nil error")
	}
	return Result{action: doFail, err: err}
}

// Break returns a [Result] that will cause co to break a [Loop] (or [LoopN]).
func (co *Coroutine) Break() Result {
	return Result{action: doBreak}
}

// Continue returns a [Result] that will cause co to continue a [Loop]
// (or [LoopN]).
func (co *Coroutine) Continue() Result {
	return Result{action: doContinue}
}

// A Task is a piece of work that a coroutine is given to do when it is
// spawned. The return value of a task, a [Result], determines what next for
// a coroutine to do.
//
// Without calling [Coroutine.Escape], co must not escape to another
// goroutine, because co may be put into pool for recycling when co ends.
type Task func(co *Coroutine) Result

func must(t Task) Task {
	if t == nil {
		panic("aio: nil Task")
	}
	return t
}
