package aio

// A WaitGroup is a counter that coroutines can wait on until it hits zero.
//
// The zero WaitGroup is ready to use.
// A WaitGroup must not be shared by more than one [Executor].
type WaitGroup struct {
	Signal
	n int
}

// Add adds delta, which may be negative, to the counter.
// If the counter hits zero, Add resumes any coroutine that is waiting on wg.
// If the counter goes negative, Add panics.
//
// One should only call this method in a [Task] function.
func (wg *WaitGroup) Add(delta int) {
	n := wg.n + delta
	if n < 0 {
		panic("aio(WaitGroup): negative counter")
	}
	wg.n = n
	if n == 0 {
		wg.Notify()
	}
}

// Done decrements the counter by one.
//
// One should only call this method in a [Task] function.
func (wg *WaitGroup) Done() {
	wg.Add(-1)
}

// Await returns a [Task] that awaits wg until its counter hits zero, and
// then ends.
func (wg *WaitGroup) Await() Task {
	return func(co *Coroutine) Result {
		if wg.n == 0 {
			return co.End()
		}
		return co.Await(wg).Until(func() bool { return wg.n == 0 }).End()
	}
}
