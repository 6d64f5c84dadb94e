package aio_test

import (
	"testing"

	"github.com/coroio/aio"
	"github.com/stretchr/testify/require"
)

func TestStateAwait(t *testing.T) {
	var e aio.Executor
	e.Autorun(e.Run)

	s := aio.NewState(0)
	reached := false

	e.Spawn(s.Await(func(v int) bool { return v >= 3 }).Then(aio.Do(func() { reached = true })))
	require.False(t, reached)

	e.Spawn(aio.Do(func() { s.Set(2) }))
	require.False(t, reached)

	e.Spawn(aio.Do(func() { s.Update(func(v int) int { return v + 1 }) }))
	require.True(t, reached)
	require.Equal(t, 3, s.Get())
}

func TestStateAwaitAlreadySatisfied(t *testing.T) {
	var e aio.Executor
	e.Autorun(e.Run)

	s := aio.NewState(5)
	reached := false

	e.Spawn(s.Await(func(v int) bool { return v >= 3 }).Then(aio.Do(func() { reached = true })))
	require.True(t, reached)
}

func TestStateWatcherRerunsOnSet(t *testing.T) {
	var e aio.Executor
	e.Autorun(e.Run)

	s := aio.NewState(1)
	var seen []int

	e.Spawn(func(co *aio.Coroutine) aio.Result {
		seen = append(seen, s.Get())
		return co.Yield(s)
	})
	require.Equal(t, []int{1}, seen)

	e.Spawn(aio.Do(func() { s.Set(2) }))
	e.Spawn(aio.Do(func() { s.Set(3) }))
	require.Equal(t, []int{1, 2, 3}, seen)
}
