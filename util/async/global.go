package async

import (
	"sync"
	"sync/atomic"
)

const (
	GlobalPoolName = "global"
)

var (
	globalPool   atomic.Pointer[Pool]
	globalPoolMu sync.Mutex
)

// Get the process-wide pool, it's created on first use with [DefaultPoolSize] workers.
func GlobalPool() *Pool {
	if p := globalPool.Load(); p != nil {
		return p
	}

	globalPoolMu.Lock()
	defer globalPoolMu.Unlock()
	if p := globalPool.Load(); p != nil {
		return p
	}
	p := NewPool(DefaultPoolSize(), WithPoolName(GlobalPoolName))
	globalPool.Store(p)
	return p
}

// Configure the process-wide pool before its first use.
//
// Returns ErrGlobalPoolInitialized if the pool is already created.
func InitGlobalPool(workers int, opts ...PoolOption) error {
	globalPoolMu.Lock()
	defer globalPoolMu.Unlock()
	if globalPool.Load() != nil {
		return ErrGlobalPoolInitialized
	}
	ops := append([]PoolOption{WithPoolName(GlobalPoolName)}, opts...)
	globalPool.Store(NewPool(workers, ops...))
	return nil
}

// Submit task to the process-wide pool.
func SubmitGlobal[T any](ord Ordering, task func() T) *TaskHandle[T] {
	return Submit(GlobalPool(), ord, task)
}

// Submit task to the process-wide pool with LIFO ordering.
func Spawn[T any](task func() T) *TaskHandle[T] {
	return SubmitGlobal(LIFO, task)
}

// Submit task to the process-wide pool with FIFO ordering.
func SpawnFifo[T any](task func() T) *TaskHandle[T] {
	return SubmitGlobal(FIFO, task)
}
