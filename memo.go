package aio

// A Memo is a [State]-like structure that carries a value computed from
// other States.
//
// What make a Memo useful are that:
//   - A Memo can prevent unnecessary computations when it isn't watched;
//   - A Memo can prevent unnecessary propagations when its value isn't
//     changed.
//
// To create a Memo, use [NewMemo] or [NewStrictMemo].
//
// A Memo must not be shared by more than one [Executor].
type Memo[T any] struct {
	state  State[T]
	co     Coroutine
	stale  bool
	strict bool
}

// NewMemo returns a new non-strict [Memo].
//
// One must pass a function that watches some States, computes a value from
// them, and then updates the provided [State] if the value differs.
//
// Like any [Event], a Memo can be watched by multiple coroutines, and the
// watch list grows and shrinks over time.
// When the last coroutine unwatches a non-strict Memo, the Memo keeps its
// internal coroutine alive so that it still detects dependency changes;
// a later watch then needs no fresh computation if nothing changed.
//
// A strict Memo instead ends its internal coroutine whenever the watch list
// becomes empty; it goes stale and recomputes on the next watch.
func NewMemo[T any](e *Executor, f func(co *Coroutine, s *State[T])) *Memo[T] {
	return new(Memo[T]).init(e, f, false)
}

// NewStrictMemo returns a new strict [Memo].
//
// See [NewMemo] for more information.
func NewStrictMemo[T any](e *Executor, f func(co *Coroutine, s *State[T])) *Memo[T] {
	return new(Memo[T]).init(e, f, true)
}

func (m *Memo[T]) init(e *Executor, f func(co *Coroutine, s *State[T]), strict bool) *Memo[T] {
	m.co.init(e, func(co *Coroutine) Result {
		if !m.stale && len(m.state.listeners) == 0 {
			m.stale = true
			return co.End()
		}

		if m.stale {
			// Hide the listeners during a fresh computation so that
			// setting the state does not resume them right away.
			listeners := m.state.listeners
			defer func() { m.state.listeners = listeners }()
			m.state.listeners = nil
			m.stale = false
		}

		f(co, &m.state)

		return co.Yield()
	})

	m.stale = true
	m.strict = strict

	return m
}

func (m *Memo[T]) addListener(co *Coroutine) {
	m.state.addListener(co)

	if m.stale {
		m.co.run()
	}
}

func (m *Memo[T]) removeListener(co *Coroutine) {
	m.state.removeListener(co)

	if len(m.state.listeners) == 0 && m.strict {
		m.stale = true
		m.co.shelve()
	}
}

// Get retrieves the value of m, computing it first if m is stale.
//
// One should only call this method in a [Task] function.
func (m *Memo[T]) Get() T {
	if m.stale {
		m.co.run()
	}
	return m.state.value
}
