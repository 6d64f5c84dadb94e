package aio_test

import (
	"errors"
	"testing"

	"github.com/coroio/aio"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func TestRunOrdersByWeight(t *testing.T) {
	var e aio.Executor

	var order []string

	e.SpawnWeighted(1, aio.Do(func() { order = append(order, "medium") }))
	e.SpawnWeighted(2, aio.Do(func() { order = append(order, "high") }))
	e.Spawn(aio.Do(func() { order = append(order, "low 1") }))
	e.Spawn(aio.Do(func() { order = append(order, "low 2") }))

	e.Run()

	want := []string{"high", "medium", "low 1", "low 2"}
	if diff := cmp.Diff(want, order); diff != "" {
		t.Errorf("run order mismatch (-want +got):\n%s", diff)
	}
}

func TestChildInheritsWeight(t *testing.T) {
	var e aio.Executor

	var got aio.Weight

	e.SpawnWeighted(3, func(co *aio.Coroutine) aio.Result {
		co.Spawn(func(co *aio.Coroutine) aio.Result {
			got = co.Weight()
			return co.End()
		})
		return co.End()
	})

	e.Run()

	require.Equal(t, aio.Weight(3), got)
}

func TestAutorunDrainsOnSpawn(t *testing.T) {
	var e aio.Executor
	e.Autorun(e.Run)

	ran := false
	e.Spawn(aio.Do(func() { ran = true }))

	require.True(t, ran)
}

func TestOnError(t *testing.T) {
	var e aio.Executor
	e.Autorun(e.Run)

	var got error
	e.OnError(func(err error) { got = err })

	errBoom := errors.New("boom")
	e.Spawn(aio.Fail(errBoom))

	require.ErrorIs(t, got, errBoom)
}

func TestPanicBecomesPanicError(t *testing.T) {
	var e aio.Executor
	e.Autorun(e.Run)

	var got error
	e.OnError(func(err error) { got = err })

	e.Spawn(func(co *aio.Coroutine) aio.Result {
		panic("boom")
	})

	var pe *aio.PanicError
	require.ErrorAs(t, got, &pe)
	require.Equal(t, "boom", pe.Value)
	require.NotEmpty(t, pe.Stack)
}

func TestRunPanicsWithoutHandler(t *testing.T) {
	var e aio.Executor

	errBoom := errors.New("boom")
	e.Spawn(aio.Fail(errBoom))

	defer func() {
		v := recover()
		require.NotNil(t, v)
		err, ok := v.(error)
		require.True(t, ok)
		require.ErrorIs(t, err, errBoom)
	}()

	e.Run()
}

func TestCleanupRunsOnEnd(t *testing.T) {
	var e aio.Executor
	e.Autorun(e.Run)

	var order []string

	e.Spawn(func(co *aio.Coroutine) aio.Result {
		co.CleanupFunc(func() { order = append(order, "cleanup 1") })
		co.CleanupFunc(func() { order = append(order, "cleanup 2") })
		order = append(order, "task")
		return co.End()
	})

	want := []string{"task", "cleanup 2", "cleanup 1"}
	if diff := cmp.Diff(want, order); diff != "" {
		t.Errorf("cleanup order mismatch (-want +got):\n%s", diff)
	}
}

func TestChildrenCanceledWhenParentEnds(t *testing.T) {
	var e aio.Executor
	e.Autorun(e.Run)

	var l aio.Latch
	reached := false
	childCleanedUp := false

	e.Spawn(func(co *aio.Coroutine) aio.Result {
		co.Spawn(func(co *aio.Coroutine) aio.Result {
			co.CleanupFunc(func() { childCleanedUp = true })
			return co.Await(&l).Until(l.IsSet).Then(aio.Do(func() { reached = true }))
		})
		return co.End()
	})

	require.True(t, childCleanedUp)

	e.Spawn(aio.Do(l.Set))
	require.False(t, reached)
}
