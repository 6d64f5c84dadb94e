package aio_test

import (
	"testing"

	"github.com/coroio/aio"
	"github.com/stretchr/testify/require"
)

func TestWaitGroupAwait(t *testing.T) {
	var e aio.Executor
	e.Autorun(e.Run)

	var wg aio.WaitGroup
	done := false

	e.Spawn(aio.Do(func() { wg.Add(2) }))
	e.Spawn(wg.Await().Then(aio.Do(func() { done = true })))
	require.False(t, done)

	e.Spawn(aio.Do(wg.Done))
	require.False(t, done)

	e.Spawn(aio.Do(wg.Done))
	require.True(t, done)
}

func TestWaitGroupAwaitAtZero(t *testing.T) {
	var e aio.Executor
	e.Autorun(e.Run)

	var wg aio.WaitGroup
	done := false

	e.Spawn(wg.Await().Then(aio.Do(func() { done = true })))
	require.True(t, done)
}

func TestWaitGroupNegativePanics(t *testing.T) {
	var wg aio.WaitGroup
	require.Panics(t, func() { wg.Done() })
}
