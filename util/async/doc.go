// package for bridging CPU-bound work from async callers onto a fixed pool of worker goroutines.
//
// Core types in this package are: [Pool], [TaskHandle], [Sender] and [Receiver].
//
// [Pool] maintains a fixed number of long-lived workers. Use [NewPool] to create one, or use the
// lazily created process-wide pool through [GlobalPool], [Spawn] and [SpawnFifo].
// Use [DefaultPoolSize], [ProcessingUnits] or [CalcPoolSize] to size the pool.
//
// Use [Submit] to run a task on an [Executor] and obtain its result through the returned [TaskHandle].
// Submission never blocks, and the [Ordering] (LIFO or FIFO) is chosen per submission.
//
// A [TaskHandle] can be resolved once, either through the panic-propagating contract, [TaskHandle.Get] and
// [TaskHandle.Poll], which re-raise a task's panic in the caller, or through the error-returning contract,
// [TaskHandle.Result], [TaskHandle.Await] and [TaskHandle.PollResult], which report it as [PanicError].
//
// [NewOneshot] creates the single-use completion channel that carries an [Outcome] from worker to handle.
//
// See [SignalOnce] for one-time signal based communication.
package async
