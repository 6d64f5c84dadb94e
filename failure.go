package aio

import (
	"errors"
	"fmt"
	"runtime/debug"
)

// A PanicError is the failure a coroutine unwinds with when a [Task] function
// panics.
// The panic value is recovered immediately, along with a stack trace returned
// by [runtime/debug.Stack], so that the executor can keep running other
// coroutines.
type PanicError struct {
	Value any
	Stack []byte
}

func (e *PanicError) Error() string {
	if len(e.Stack) == 0 {
		return fmt.Sprintf("aio: panic: %v", e.Value)
	}
	return fmt.Sprintf("aio: panic: %v\n\n%s", e.Value, e.Stack)
}

// unwindNow aborts the task function currently on the stack after a child
// coroutine has already failed the parent. It never surfaces as a failure.
type unwindNow struct{}

// errUnwound is what try reports when a task frame was torn down by
// unwindNow. The coroutine's own err field already carries the real failure.
var errUnwound = errors.New("aio: internal: unwound")

func try(f func()) (err error) {
	done := false
	defer func() {
		if done {
			return
		}
		v := recover()
		if v == nil {
			panic("aio: tasks must not call runtime.Goexit")
		}
		if _, ok := v.(unwindNow); ok {
			err = errUnwound
			return
		}
		if pe, ok := v.(*PanicError); ok {
			err = pe
			return
		}
		err = &PanicError{Value: v, Stack: debug.Stack()}
	}()
	f()
	done = true
	return nil
}
