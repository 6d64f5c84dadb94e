// Package aio provides a single-threaded, cooperative way to write
// concurrent programs.
//
// An [Executor] runs [Coroutine]s one at a time, in a single-threaded
// manner. Coroutines are cheap, stackless, and cooperative: a coroutine
// runs until its [Task] function returns, and the return value says whether
// the coroutine ends, yields to resume later, or transitions to another
// task. Because only one coroutine ever runs at a time, tasks share data
// without locks against other tasks on the same executor.
//
// # Reactiveness
//
// A suspended coroutine resumes when an [Event] it watches notifies.
// [Signal] is the basic event; [State] adds a value, [Latch] a level,
// [WaitGroup] a counter, [Promise] a settlement, and [Memo] a value that is
// lazily computed from other States.
//
// # Structured concurrency
//
// A task can spawn child coroutines. Children never outlive the frame that
// spawned them: when the parent resumes, ends, fails, or is canceled, its
// live children are canceled. Combinators build on this: [Join] awaits all
// of its tasks, [Select] awaits the first and cancels the rest, [Settle]
// collects failures instead of propagating them, and [Catch] intercepts
// a child's failure.
//
// # Cancellation, shielding, and timeouts
//
// Cancellation and failures are delivered at suspension points; running
// code is never interrupted. A canceled coroutine unwinds: it drops watched
// events, cancels its children, runs its cleanups, and ends. [Shield]
// exempts a child from cancellation directed at its parent, and [Timeout]
// bounds how long a task may take.
//
// # Producer and consumer
//
// [Queue] connects producer and consumer coroutines with a bounded FIFO
// buffer. A full buffer suspends producers, an empty one suspends
// consumers, closing the queue terminates both ends cleanly, and the Join
// and TaskDone methods let producers wait until every item has been
// processed.
//
// # Offloading
//
// Blocking or CPU-heavy work stalls the executor. [Offload] runs such work
// in its own goroutine and settles a [Promise] back on the executor, so
// coroutines await the result without blocking anyone.
//
// # Failures
//
// A coroutine fails explicitly with [Coroutine.Fail] or implicitly when a
// task function panics; a panic surfaces as a [*PanicError] carrying the
// value and stack. Failures unwind like cancellation does, then propagate
// to the parent coroutine, or to the executor for a root one.
package aio
