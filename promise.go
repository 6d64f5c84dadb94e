package aio

// A Promise is a container for a value, or an error, that is not available
// yet.
//
// A Promise settles exactly once, either with Resolve or with Reject.
// Coroutines await a Promise; settling it resumes them all, and awaiting an
// already-settled Promise proceeds immediately.
//
// The zero Promise is an unsettled one.
// A Promise must not be shared by more than one [Executor]; to settle one
// from another goroutine, see [Offload].
type Promise[T any] struct {
	Signal
	settled bool
	value   T
	err     error
}

// Resolve settles p with v and resumes any coroutine that is awaiting p.
//
// Panics if p has already settled.
//
// One should only call this method in a [Task] function.
func (p *Promise[T]) Resolve(v T) {
	if p.settled {
		panic("aio(Promise): already settled")
	}
	p.settled = true
	p.value = v
	p.Notify()
}

// Reject settles p with err and resumes any coroutine that is awaiting p.
// Awaiting a rejected Promise fails the awaiting coroutine with err.
//
// Panics if err is nil or p has already settled.
//
// One should only call this method in a [Task] function.
func (p *Promise[T]) Reject(err error) {
	if err == nil {
		panic("aio(Promise): Reject called with nil error")
	}
	if p.settled {
		panic("aio(Promise): already settled")
	}
	p.settled = true
	p.err = err
	p.Notify()
}

// Settled reports whether p has settled.
func (p *Promise[T]) Settled() bool {
	return p.settled
}

// Result returns the value and error with which p settled.
// Both are zero if p has not settled yet.
func (p *Promise[T]) Result() (T, error) {
	return p.value, p.err
}

// Await returns a [Task] that awaits p until it settles.
// The task then either stores the value into *dst, if dst is not nil, and
// ends, or fails with the error with which p was rejected.
func (p *Promise[T]) Await(dst *T) Task {
	return func(co *Coroutine) Result {
		return co.Await(p).Until(func() bool { return p.settled }).Then(
			func(co *Coroutine) Result {
				if p.err != nil {
					return co.Fail(p.err)
				}
				if dst != nil {
					*dst = p.value
				}
				return co.End()
			},
		)
	}
}

// Offload runs f in a new goroutine and returns a [Promise] that settles on
// e with f's result.
// Blocking or CPU-heavy work stalls the executor and every coroutine on it;
// offload such work instead and await the returned Promise.
func Offload[T any](e *Executor, f func() (T, error)) *Promise[T] {
	p := new(Promise[T])
	go func() {
		v, err := f()
		e.Spawn(Do(func() {
			if err != nil {
				p.Reject(err)
			} else {
				p.Resolve(v)
			}
		}))
	}()
	return p
}
