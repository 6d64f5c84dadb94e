package aio_test

import (
	"testing"

	"github.com/coroio/aio"
	"github.com/stretchr/testify/require"
)

func TestCondWaitForNotifyAll(t *testing.T) {
	var e aio.Executor
	e.Autorun(e.Run)

	var m aio.Mutex
	c := aio.NewCond(&m)
	ready := false
	woken := 0

	waiter := aio.Block(
		m.Lock(),
		c.WaitFor(func() bool { return ready }),
		aio.Do(func() {
			woken++
			m.Unlock()
		}),
	)

	e.Spawn(waiter)
	e.Spawn(waiter)
	require.Equal(t, 0, woken)

	// Notifying without making the condition true wakes the waiters, but
	// they go back to waiting.
	e.Spawn(aio.Block(m.Lock(), aio.Do(func() {
		c.NotifyAll()
		m.Unlock()
	})))
	require.Equal(t, 0, woken)

	e.Spawn(aio.Block(m.Lock(), aio.Do(func() {
		ready = true
		c.NotifyAll()
		m.Unlock()
	})))
	require.Equal(t, 2, woken)
	require.False(t, m.Locked())
}

func TestCondNotifyWakesOne(t *testing.T) {
	var e aio.Executor
	e.Autorun(e.Run)

	var m aio.Mutex
	c := aio.NewCond(&m)
	woken := 0

	waiter := aio.Block(
		m.Lock(),
		c.Wait(),
		aio.Do(func() {
			woken++
			m.Unlock()
		}),
	)

	e.Spawn(waiter)
	e.Spawn(waiter)

	e.Spawn(aio.Block(m.Lock(), aio.Do(func() {
		c.Notify(1)
		m.Unlock()
	})))
	require.Equal(t, 1, woken)

	e.Spawn(aio.Block(m.Lock(), aio.Do(func() {
		c.Notify(1)
		m.Unlock()
	})))
	require.Equal(t, 2, woken)
}

func TestCondNotifyRelayedOnCancel(t *testing.T) {
	var e aio.Executor
	e.Autorun(e.Run)

	var m aio.Mutex
	c := aio.NewCond(&m)
	var first *aio.Coroutine
	firstWoken := false
	secondWoken := false

	e.Spawn(aio.Block(
		func(co *aio.Coroutine) aio.Result {
			first = co
			co.Escape()
			return co.End()
		},
		m.Lock(),
		c.Wait(),
		aio.Do(func() {
			firstWoken = true
			m.Unlock()
		}),
	))
	e.Spawn(aio.Block(
		m.Lock(),
		c.Wait(),
		aio.Do(func() {
			secondWoken = true
			m.Unlock()
		}),
	))

	// Notify the first waiter and cancel it before it runs; the
	// notification must not be lost.
	e.Spawn(aio.Block(m.Lock(), aio.Do(func() {
		c.Notify(1)
		first.Cancel()
		m.Unlock()
	})))

	require.False(t, firstWoken)
	require.True(t, secondWoken)
}

func TestCondNotifyRelayedOnCancelDuringReacquire(t *testing.T) {
	var e aio.Executor
	e.Autorun(e.Run)

	var m aio.Mutex
	c := aio.NewCond(&m)
	var first *aio.Coroutine
	firstWoken := false
	secondWoken := false

	e.Spawn(aio.Block(
		func(co *aio.Coroutine) aio.Result {
			first = co
			co.Escape()
			return co.End()
		},
		m.Lock(),
		c.Wait(),
		aio.Do(func() {
			firstWoken = true
			m.Unlock()
		}),
	))
	e.Spawn(aio.Block(
		m.Lock(),
		c.Wait(),
		aio.Do(func() {
			secondWoken = true
			m.Unlock()
		}),
	))

	// Notify the first waiter while still holding the lock, so that it
	// suspends again waiting to take the lock back.
	e.Spawn(aio.Block(m.Lock(), aio.Do(func() { c.Notify(1) })))
	require.False(t, firstWoken)

	// Cancel it in that window; the notification must pass to the second
	// waiter instead of vanishing.
	e.Spawn(aio.Do(first.Cancel))
	e.Spawn(aio.Do(m.Unlock))

	require.False(t, firstWoken)
	require.True(t, secondWoken)
	require.False(t, m.Locked())
}

func TestCondWaitWithoutLockPanics(t *testing.T) {
	var e aio.Executor
	var got error
	e.OnError(func(err error) { got = err })
	e.Autorun(e.Run)

	var m aio.Mutex
	c := aio.NewCond(&m)

	e.Spawn(c.Wait())

	var pe *aio.PanicError
	require.ErrorAs(t, got, &pe)
}
