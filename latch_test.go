package aio_test

import (
	"testing"

	"github.com/coroio/aio"
	"github.com/stretchr/testify/require"
)

func TestLatchWait(t *testing.T) {
	var e aio.Executor
	e.Autorun(e.Run)

	var l aio.Latch
	released := 0

	for i := 0; i < 3; i++ {
		e.Spawn(l.Wait().Then(aio.Do(func() { released++ })))
	}
	require.Equal(t, 0, released)

	e.Spawn(aio.Do(l.Set))
	require.Equal(t, 3, released)

	// An already-set latch releases immediately.
	e.Spawn(l.Wait().Then(aio.Do(func() { released++ })))
	require.Equal(t, 4, released)
}

func TestLatchPulseReleasesWaiters(t *testing.T) {
	var e aio.Executor
	e.Autorun(e.Run)

	var l aio.Latch
	released := 0

	e.Spawn(l.Wait().Then(aio.Do(func() { released++ })))
	e.Spawn(l.Wait().Then(aio.Do(func() { released++ })))

	// A Set immediately taken back by Clear still releases everyone who
	// was waiting at Set time.
	e.Spawn(aio.Do(func() {
		l.Set()
		l.Clear()
	}))
	require.Equal(t, 2, released)
	require.False(t, l.IsSet())

	// A waiter arriving after the pulse blocks until the next Set.
	e.Spawn(l.Wait().Then(aio.Do(func() { released++ })))
	require.Equal(t, 2, released)

	e.Spawn(aio.Do(l.Set))
	require.Equal(t, 3, released)
}

func TestLatchSetIdempotent(t *testing.T) {
	var e aio.Executor
	e.Autorun(e.Run)

	var l aio.Latch
	e.Spawn(aio.Do(func() {
		l.Set()
		l.Set()
	}))

	require.True(t, l.IsSet())
}

func TestLatchClear(t *testing.T) {
	var e aio.Executor
	e.Autorun(e.Run)

	var l aio.Latch
	released := 0

	e.Spawn(aio.Do(l.Set))
	e.Spawn(aio.Do(l.Clear))
	require.False(t, l.IsSet())

	e.Spawn(l.Wait().Then(aio.Do(func() { released++ })))
	require.Equal(t, 0, released)

	e.Spawn(aio.Do(l.Set))
	require.Equal(t, 1, released)
}
