package aio_test

import (
	"errors"
	"testing"

	"github.com/coroio/aio"
	"github.com/stretchr/testify/require"
)

func TestPromiseResolve(t *testing.T) {
	var e aio.Executor
	e.Autorun(e.Run)

	var p aio.Promise[int]
	var got int
	done := false

	e.Spawn(p.Await(&got).Then(aio.Do(func() { done = true })))
	require.False(t, done)

	e.Spawn(aio.Do(func() { p.Resolve(42) }))
	require.True(t, done)
	require.Equal(t, 42, got)

	// Awaiting a settled promise proceeds immediately.
	var again int
	done = false
	e.Spawn(p.Await(&again).Then(aio.Do(func() { done = true })))
	require.True(t, done)
	require.Equal(t, 42, again)
}

func TestPromiseReject(t *testing.T) {
	var e aio.Executor
	e.Autorun(e.Run)

	var p aio.Promise[int]
	errBoom := errors.New("boom")
	var got error

	e.Spawn(aio.Catch(p.Await(nil), func(err error) aio.Task {
		got = err
		return aio.End()
	}))

	e.Spawn(aio.Do(func() { p.Reject(errBoom) }))
	require.ErrorIs(t, got, errBoom)
}

func TestPromiseSettleTwicePanics(t *testing.T) {
	var p aio.Promise[int]
	p.Resolve(1)
	require.Panics(t, func() { p.Resolve(2) })
	require.Panics(t, func() { p.Reject(errors.New("boom")) })
}

func TestPromiseRejectNilPanics(t *testing.T) {
	var p aio.Promise[int]
	require.Panics(t, func() { p.Reject(nil) })
}

func TestOffload(t *testing.T) {
	var e aio.Executor
	e.Autorun(e.Run)

	done := make(chan struct{})
	var got int

	p := aio.Offload(&e, func() (int, error) {
		return 6 * 7, nil
	})

	e.Spawn(p.Await(&got).Then(aio.Do(func() { close(done) })))

	<-done
	require.Equal(t, 42, got)

	v, err := p.Result()
	require.NoError(t, err)
	require.Equal(t, 42, v)
}

func TestOffloadError(t *testing.T) {
	var e aio.Executor
	e.Autorun(e.Run)

	done := make(chan struct{})
	errBoom := errors.New("boom")
	var got error

	p := aio.Offload(&e, func() (int, error) {
		return 0, errBoom
	})

	e.Spawn(aio.Catch(p.Await(nil), func(err error) aio.Task {
		got = err
		return aio.End()
	}).Then(aio.Do(func() { close(done) })))

	<-done
	require.ErrorIs(t, got, errBoom)
}
