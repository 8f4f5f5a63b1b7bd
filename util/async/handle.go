package async

import (
	"context"
	"errors"

	"github.com/curtisnewbie/cpubridge/util/errs"
	"github.com/curtisnewbie/cpubridge/util/utillog"
)

// Awaitable handle of a task submitted to a worker pool.
//
// A TaskHandle must be owned by exactly one consumer, and resolved at most once, either through
// the panic-propagating contract ([TaskHandle.Get], [TaskHandle.Poll]) or through the
// error-returning contract ([TaskHandle.Result], [TaskHandle.Await], [TaskHandle.PollResult]).
//
// Use [TaskHandle.Done] to race the handle against timers or contexts in a select.
type TaskHandle[T any] struct {
	rx *Receiver[T]
}

func newTaskHandle[T any](rx *Receiver[T]) *TaskHandle[T] {
	return &TaskHandle[T]{rx: rx}
}

// Channel that is closed once the outcome is available.
func (h *TaskHandle[T]) Done() <-chan struct{} {
	return h.rx.Done()
}

// Whether the outcome is available and not yet resolved.
func (h *TaskHandle[T]) Ready() bool {
	return h.rx.Ready()
}

// Wait for the task and return its value.
//
// If the task panicked, Get panics with the same value in the calling goroutine.
// If the task never produced an outcome, e.g., the pool was shut down before it ran,
// Get panics with ErrBridgeBroken. Calling Get on a resolved handle panics with ErrAlreadyResolved.
func (h *TaskHandle[T]) Get() T {
	return unwrapOrPanic[T](h.rx.Recv())
}

// Non-blocking variant of Get.
//
// If the outcome is not yet available, w is registered for a single wake-up and ready is false.
func (h *TaskHandle[T]) Poll(w Waker) (v T, ready bool) {
	o, err, ready := h.rx.Poll(w)
	if !ready {
		return v, false
	}
	return unwrapOrPanic[T](o, err), true
}

// Wait for the task and return its value.
//
// If the task panicked, err is a *PanicError carrying the panic value. If the task never produced an
// outcome, err is ErrChannelClosed. Calling Result on a resolved handle returns ErrAlreadyResolved.
//
// Result never panics.
func (h *TaskHandle[T]) Result() (T, error) {
	return unwrapResult[T](h.rx.Recv())
}

// Same as Result, but gives up with ctx.Err() when ctx is done first.
//
// Giving up doesn't resolve the handle, it can be awaited again.
func (h *TaskHandle[T]) Await(ctx context.Context) (T, error) {
	return unwrapResult[T](h.rx.RecvContext(ctx))
}

// Non-blocking variant of Result.
//
// If the outcome is not yet available, w is registered for a single wake-up and ready is false.
func (h *TaskHandle[T]) PollResult(w Waker) (v T, err error, ready bool) {
	o, err, ready := h.rx.Poll(w)
	if !ready {
		return v, nil, false
	}
	v, err = unwrapResult(o, err)
	return v, err, true
}

// Discard the handle without waiting.
//
// The task still runs to completion. Its value, if it implements Disposable, is disposed by the worker,
// and a panic in Dispose is reported to the pool's fault handler, not to any consumer.
// If the value was already delivered when Drop is called, it's disposed by the caller of Drop,
// and a panic in Dispose propagates to that caller.
//
// Drop never blocks, and is a no-op on a resolved handle.
func (h *TaskHandle[T]) Drop() {
	h.rx.Drop()
}

func unwrapOrPanic[T any](o Outcome[T], err error) T {
	if err != nil {
		if errors.Is(err, ErrChannelClosed) {
			broken := ErrBridgeBroken.Wrap(err)
			if utillog.IsDebugLevel() {
				utillog.Debugf("Task handle observed a closed channel, raising: %v%s", broken, stackOf(broken))
			}
			panic(broken)
		}
		panic(err)
	}
	if o.IsAborted() {
		if utillog.IsDebugLevel() {
			utillog.Debugf("Re-raising task panic, %v, worker stack:\n%s", o.Payload(), o.Stack())
		}
		panic(o.Payload())
	}
	return o.Value()
}

func stackOf(err error) string {
	var be *errs.BridgeErr
	if errors.As(err, &be) {
		return be.Stack()
	}
	return ""
}

func unwrapResult[T any](o Outcome[T], err error) (T, error) {
	var t T
	if err != nil {
		return t, err
	}
	if o.IsAborted() {
		return t, &PanicError{payload: o.Payload(), stack: o.Stack()}
	}
	return o.Value(), nil
}
