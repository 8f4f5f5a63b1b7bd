package async

import "github.com/curtisnewbie/cpubridge/util/utillog"

// Job that runs a task and sends its Outcome to a TaskHandle.
type bridgeJob[T any] struct {
	tx      *Sender[T]
	task    func() T
	aborted bool
}

func (j *bridgeJob[T]) Run() {
	runCaptured(j.tx, j.task, &j.aborted)
}

func (j *bridgeJob[T]) Discard() {
	j.tx.Close()
}

func (j *bridgeJob[T]) Aborted() bool {
	return j.aborted
}

// Submit task to the executor and return its handle immediately.
//
// Submit never waits for the task to start. Panics in task are captured on the worker and
// delivered to the handle, they never reach the executor.
//
// If the executor rejects the task, e.g., the pool is stopped, the handle resolves to
// ErrChannelClosed.
func Submit[T any](ex Executor, ord Ordering, task func() T) *TaskHandle[T] {
	if ex == nil {
		panic("async: executor is nil")
	}
	if task == nil {
		panic("async: task is nil")
	}

	tx, rx := NewOneshot[T]()
	if err := ex.Enqueue(&bridgeJob[T]{tx: tx, task: task}, ord); err != nil {
		utillog.Debugf("Executor rejected task, %v", err)
		tx.Close()
	}
	return newTaskHandle(rx)
}

// Submit a task without result.
func Go(ex Executor, ord Ordering, task func()) *TaskHandle[struct{}] {
	if task == nil {
		panic("async: task is nil")
	}
	return Submit(ex, ord, func() struct{} {
		task()
		return struct{}{}
	})
}
