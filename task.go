package aio

// Do returns a [Task] that calls f, and then ends.
func Do(f func()) Task {
	return func(co *Coroutine) Result {
		f()
		return co.End()
	}
}

// End returns a [Task] that ends without doing anything.
func End() Task {
	return (*Coroutine).End
}

// Fail returns a [Task] that fails the coroutine that runs it with err.
func Fail(err error) Task {
	if err == nil {
		panic("aio: Fail called with nil error")
	}
	return func(co *Coroutine) Result {
		return co.Fail(err)
	}
}

// Break returns a [Task] that breaks a [Loop] (or [LoopN]).
func Break() Task {
	return (*Coroutine).Break
}

// Continue returns a [Task] that continues a [Loop] (or [LoopN]).
func Continue() Task {
	return (*Coroutine).Continue
}

// Await returns a [Task] that awaits some events until any of them notifies,
// and then ends.
// If ev is empty, Await returns a [Task] that never ends.
func Await(ev ...Event) Task {
	if len(ev) == 0 {
		// Return a pure function instead.
		return func(co *Coroutine) Result {
			return co.Await().End()
		}
	}
	return func(co *Coroutine) Result {
		return co.Await(ev...).End()
	}
}

// Then returns a [Task] that first works on t, then next after t ends.
// A failure of t skips next and keeps unwinding.
//
// To chain multiple tasks, use [Block] function.
func (t Task) Then(next Task) Task {
	must(t)
	must(next)
	return func(co *Coroutine) Result {
		cur := t
		var step Task
		step = func(co *Coroutine) Result {
			res := cur(co)
			switch res.action {
			case doEnd:
				return co.Transition(next)
			case doYield, doTransition:
				if res.task != nil {
					cur = res.task
				}
				res.task = step
				return res
			default:
				return res
			}
		}
		return co.Transition(step)
	}
}

// Block returns a [Task] that runs each of the given tasks in sequence.
// When one task ends, Block runs another.
func Block(s ...Task) Task {
	switch len(s) {
	case 0:
		return End()
	case 1:
		return must(s[0])
	}
	t := must(s[0])
	for _, next := range s[1:] {
		t = t.Then(next)
	}
	return t
}

// Loop returns a [Task] that forms a loop, which would run t repeatedly.
// Both [Coroutine.Break] and [Break] can break this loop early.
// Both [Coroutine.Continue] and [Continue] can continue this loop early.
func Loop(t Task) Task {
	must(t)
	return func(co *Coroutine) Result {
		cur := t
		var step Task
		step = func(co *Coroutine) Result {
			res := cur(co)
			switch res.action {
			case doEnd, doContinue:
				cur = t
				return co.Transition(step)
			case doBreak:
				return co.End()
			case doYield, doTransition:
				if res.task != nil {
					cur = res.task
				}
				res.task = step
				return res
			default:
				return res
			}
		}
		return co.Transition(step)
	}
}

// LoopN returns a [Task] that forms a loop, which would run t repeatedly
// for n times.
// Both [Coroutine.Break] and [Break] can break this loop early.
// Both [Coroutine.Continue] and [Continue] can continue this loop early.
func LoopN(n int, t Task) Task {
	must(t)
	return func(co *Coroutine) Result {
		i := 0
		return co.Transition(Loop(func(co *Coroutine) Result {
			if i >= n {
				return co.Break()
			}
			i++
			return co.Transition(t)
		}))
	}
}

// Join returns a [Task] that runs each of the given tasks in its own
// child coroutine and awaits until all of them complete, and then ends.
// If any of them fails, the rest are canceled and the failure propagates.
//
// When passed no arguments, Join ends immediately.
func Join(s ...Task) Task {
	return func(co *Coroutine) Result {
		n := len(s)
		if n == 0 {
			return co.End()
		}
		for _, t := range s {
			co.spawn(t, 0, nil, func() {
				if n--; n == 0 {
					co.Resume()
				}
			})
		}
		return co.Await().Until(func() bool { return n == 0 }).End()
	}
}

// Select returns a [Task] that runs each of the given tasks in its own
// child coroutine and awaits until any of them completes, and then ends.
// When Select ends, tasks other than the one that completes are canceled
// (see [Coroutine.Spawn]).
//
// When passed no arguments, Select ends immediately.
func Select(s ...Task) Task {
	return func(co *Coroutine) Result {
		if len(s) == 0 {
			return co.End()
		}
		done := false
		fin := func() {
			done = true
			co.Resume()
		}
		for _, t := range s {
			co.spawn(t, 0, nil, fin)
			if done {
				break
			}
		}
		return co.Await().Until(func() bool { return done }).End()
	}
}

// Spawn returns a [Task] that runs t in a child coroutine and awaits until
// t completes, and then ends.
//
// Spawn(t) is equivalent to Join(t) or Select(t), but cheaper and clearer.
func Spawn(t Task) Task {
	must(t)
	return func(co *Coroutine) Result {
		done := false
		co.spawn(t, 0, nil, func() {
			done = true
			co.Resume()
		})
		return co.Await().Until(func() bool { return done }).End()
	}
}

// Shield returns a [Task] that runs t in a child coroutine that is exempt
// from cancellation directed at its parent: when the coroutine running the
// returned task is canceled, t still runs to completion, and the unwind
// finishes only after it ends.
func Shield(t Task) Task {
	must(t)
	return func(co *Coroutine) Result {
		done := false
		co.spawn(t, flagShielded, nil, func() {
			done = true
			co.Resume()
		})
		return co.Await().Until(func() bool { return done }).End()
	}
}

// Catch returns a [Task] that runs t in a child coroutine and, if t fails,
// transitions to the task returned by h instead of propagating the failure.
// A panic inside t surfaces as a [*PanicError].
// Cancellation is not a failure and cannot be caught.
func Catch(t Task, h func(err error) Task) Task {
	must(t)
	if h == nil {
		panic("aio: Catch called with nil handler")
	}
	return func(co *Coroutine) Result {
		done := false
		co.spawn(t, 0, h, func() {
			done = true
			co.Resume()
		})
		return co.Await().Until(func() bool { return done }).End()
	}
}

// Settle returns a [Task] that runs each of the given tasks in its own
// child coroutine and awaits until all of them complete, recording the
// failure of the i-th task, if any, into errs[i] instead of propagating it.
//
// Panics if errs is shorter than s.
func Settle(errs []error, s ...Task) Task {
	if len(errs) < len(s) {
		panic("aio: Settle: errs is shorter than the task list")
	}
	return func(co *Coroutine) Result {
		n := len(s)
		if n == 0 {
			return co.End()
		}
		fin := func() {
			if n--; n == 0 {
				co.Resume()
			}
		}
		for i, t := range s {
			co.spawn(t, 0, func(err error) Task {
				errs[i] = err
				return End()
			}, fin)
		}
		return co.Await().Until(func() bool { return n == 0 }).End()
	}
}
