package async

import (
	"fmt"
	"runtime/debug"

	"github.com/curtisnewbie/cpubridge/util/utillog"
)

// Abort captured from a task, returned by the error-returning contract.
type PanicError struct {
	payload any
	stack   []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("task panicked: %v", e.payload)
}

// Value the task panicked with.
func (e *PanicError) Payload() any {
	return e.payload
}

// Stack of the worker goroutine at the time the task panicked.
func (e *PanicError) Stack() []byte {
	return e.stack
}

// Unwrap returns the payload if the task panicked with an error.
func (e *PanicError) Unwrap() error {
	if err, ok := e.payload.(error); ok {
		return err
	}
	return nil
}

// Run task and send its Outcome on tx, a panic or runtime.Goexit is sent as an aborted Outcome.
//
// aborted is set before the Outcome is sent, so it's reliable even if the goroutine exits through
// runtime.Goexit. tx.Send runs outside of the recover frame, a panic while disposing an undeliverable
// value propagates to the caller.
func runCaptured[T any](tx *Sender[T], task func() T, aborted *bool) {
	var o Outcome[T]
	normalReturn := false
	recovered := false

	defer func() {
		if !normalReturn && !recovered {
			// neither returned nor panicked, the goroutine is exiting through runtime.Goexit
			o = Aborted[T](ErrGoexit, debug.Stack())
		}
		*aborted = o.IsAborted()
		tx.Send(o)
	}()

	func() {
		defer func() {
			if normalReturn {
				return
			}
			o = Aborted[T](recover(), debug.Stack())
		}()
		o = Completed(task())
		normalReturn = true
	}()

	if !normalReturn {
		recovered = true
	}
}

// Run op, a panic is recovered and logged.
func PanicSafeRun(op func()) {
	defer recoverPanic()
	op()
}

func recoverPanic() {
	if v := recover(); v != nil {
		utillog.Errorf("panic recovered, %v\n%v", v, string(debug.Stack()))
	}
}
