package async

import (
	"context"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"github.com/curtisnewbie/cpubridge/util/errs"
	"github.com/curtisnewbie/cpubridge/util/queue"
	"github.com/curtisnewbie/cpubridge/util/utillog"
	"github.com/sirupsen/logrus"
)

var (
	_ Executor = (*Pool)(nil)
	_ Job      = JobFunc(nil)
	_ Observer = noopObserver{}
)

// Unit of work accepted by an Executor.
type Job interface {
	// Run the job on a worker.
	Run()

	// Called instead of Run when the executor drops an accepted job, e.g., the executor is shut down.
	Discard()
}

// Job that does nothing when discarded.
type JobFunc func()

func (f JobFunc) Run() {
	f()
}

func (f JobFunc) Discard() {}

// Executor runs each accepted Job exactly once on some worker, or discards it on shutdown.
//
// Enqueue must not block. A job is accepted iff Enqueue returns nil.
type Executor interface {
	Enqueue(job Job, ord Ordering) error
}

// Observer of pool events, e.g., for metrics.
//
// Observer methods are called from workers and submitters concurrently, they must be thread-safe and fast.
type Observer interface {
	JobEnqueued(pool string, ord Ordering)
	JobStarted(pool string, queueWait time.Duration)
	JobFinished(pool string, took time.Duration, aborted bool)
	JobFaulted(pool string)
	JobDiscarded(pool string)
}

type noopObserver struct{}

func (noopObserver) JobEnqueued(string, Ordering) {}
func (noopObserver) JobStarted(string, time.Duration) {}
func (noopObserver) JobFinished(string, time.Duration, bool) {}
func (noopObserver) JobFaulted(string) {}
func (noopObserver) JobDiscarded(string) {}

// Handles panics escaping a job, i.e., panics the bridge doesn't capture.
type FaultHandler func(payload any, stack []byte)

type PoolStats struct {
	Name      string
	Workers   int
	Queued    int
	Running   int64
	Executed  int64
	Faults    int64
	Discarded int64
}

type queuedJob struct {
	job Job
	at  time.Time
}

// A fixed-size pool of long-lived worker goroutines for CPU-bound jobs.
//
// Use [NewPool] to create one. Workers are started immediately and live until the pool is shut down.
//
// Jobs are queued without bound, [Pool.Enqueue] never blocks. Jobs enqueued with LIFO are
// put at the front of the queue, jobs enqueued with FIFO are put at the back, workers always
// take from the front.
type Pool struct {
	name    string
	workers int

	mu      sync.Mutex
	cond    *sync.Cond
	queue   *queue.Queue[queuedJob]
	stopped bool

	wg sync.WaitGroup

	running   atomic.Int64
	executed  atomic.Int64
	faults    atomic.Int64
	discarded atomic.Int64

	onFault  FaultHandler
	observer Observer
	log      *logrus.Entry
}

type poolOptions struct {
	name     string
	onFault  FaultHandler
	observer Observer
	log      *logrus.Entry
}

type PoolOption func(o *poolOptions)

// Name of the pool, used in logs and metrics.
func WithPoolName(name string) PoolOption {
	return func(o *poolOptions) {
		if name != "" {
			o.name = name
		}
	}
}

// Handle panics that escape a job.
//
// By default, such panics are logged with stacktrace.
func WithFaultHandler(h FaultHandler) PoolOption {
	return func(o *poolOptions) {
		if h != nil {
			o.onFault = h
		}
	}
}

func WithObserver(ob Observer) PoolOption {
	return func(o *poolOptions) {
		if ob != nil {
			o.observer = ob
		}
	}
}

// Log with the given entry instead of the default one.
func WithLogger(l *logrus.Entry) PoolOption {
	return func(o *poolOptions) {
		if l != nil {
			o.log = l
		}
	}
}

// Create a pool with a fixed number of workers.
//
// If workers is less than 1, [DefaultPoolSize] is used.
func NewPool(workers int, opts ...PoolOption) *Pool {
	if workers < 1 {
		workers = DefaultPoolSize()
	}

	ops := &poolOptions{name: "pool", observer: noopObserver{}}
	for _, op := range opts {
		op(ops)
	}
	if ops.log == nil {
		ops.log = utillog.WithComponent(ops.name)
	}

	p := &Pool{
		name:     ops.name,
		workers:  workers,
		queue:    queue.New[queuedJob](),
		observer: ops.observer,
		log:      ops.log,
	}
	p.cond = sync.NewCond(&p.mu)
	p.onFault = ops.onFault
	if p.onFault == nil {
		p.onFault = p.logFault
	}

	p.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go p.worker(i)
	}
	p.log.Infof("Worker pool '%v' started with %d workers", p.name, workers)
	return p
}

func (p *Pool) Name() string {
	return p.name
}

func (p *Pool) Workers() int {
	return p.workers
}

// Enqueue a job, returns ErrPoolStopped if the pool is shut down.
func (p *Pool) Enqueue(job Job, ord Ordering) error {
	if job == nil {
		return errs.NewErrf("job is nil")
	}

	p.mu.Lock()
	if p.stopped {
		p.mu.Unlock()
		return ErrPoolStopped.WithDetailf("pool: %v", p.name)
	}
	qj := queuedJob{job: job, at: time.Now()}
	if ord == FIFO {
		p.queue.PushBack(qj)
	} else {
		p.queue.PushFront(qj)
	}
	p.mu.Unlock()

	p.cond.Signal()
	p.observer.JobEnqueued(p.name, ord)
	return nil
}

// Enqueue a func, returns ErrPoolStopped if the pool is shut down.
func (p *Pool) Go(f func(), ord Ordering) error {
	return p.Enqueue(JobFunc(f), ord)
}

func (p *Pool) take() (queuedJob, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for p.queue.Len() < 1 && !p.stopped {
		p.cond.Wait()
	}
	qj, ok := p.queue.PopFront()
	if ok {
		p.running.Add(1)
	}
	return qj, ok
}

func (p *Pool) worker(id int) {
	goexit := true
	defer func() {
		if goexit {
			// a job called runtime.Goexit, keep the pool at its fixed size
			p.log.Warnf("Worker %d exited through runtime.Goexit, spawning replacement", id)
			p.wg.Add(1)
			go p.worker(id)
		}
		p.wg.Done()
	}()

	p.log.Debugf("Worker %d started", id)
	for {
		qj, ok := p.take()
		if !ok {
			goexit = false
			p.log.Debugf("Worker %d exited", id)
			return
		}
		p.run(qj)
	}
}

func (p *Pool) run(qj queuedJob) {
	start := time.Now()
	p.observer.JobStarted(p.name, start.Sub(qj.at))

	normalReturn := false
	defer func() {
		p.running.Add(-1)
		p.executed.Add(1)
		if !normalReturn {
			if v := recover(); v != nil {
				p.fault(v, debug.Stack())
			}
		}
		p.observer.JobFinished(p.name, time.Since(start), isAborted(qj.job))
	}()

	qj.job.Run()
	normalReturn = true
}

func isAborted(j Job) bool {
	if a, ok := j.(interface{ Aborted() bool }); ok {
		return a.Aborted()
	}
	return false
}

func (p *Pool) fault(payload any, stack []byte) {
	p.faults.Add(1)
	p.observer.JobFaulted(p.name)

	defer func() {
		if v := recover(); v != nil {
			p.log.Errorf("Fault handler panicked, %v\n%s", v, debug.Stack())
		}
	}()
	p.onFault(payload, stack)
}

func (p *Pool) logFault(payload any, stack []byte) {
	p.log.Errorf("Job panicked outside of any task handle, %v\n%s", payload, stack)
}

func (p *Pool) stop(discard bool) []queuedJob {
	p.mu.Lock()
	if !p.stopped {
		p.stopped = true
		p.log.Infof("Worker pool '%v' shutting down, queued: %d, running: %d", p.name, p.queue.Len(), p.running.Load())
	}
	var dropped []queuedJob
	if discard {
		dropped = p.queue.Drain()
	}
	p.mu.Unlock()
	p.cond.Broadcast()
	return dropped
}

// Stop accepting jobs, and wait until the queued jobs are all executed.
//
// Shutdown must not be called from within a job, it would deadlock.
func (p *Pool) Shutdown() {
	p.stop(false)
	p.wg.Wait()
}

// Same as Shutdown, but returns ctx.Err() if ctx is done before all workers exit.
//
// Remaining workers keep draining the queue in background.
func (p *Pool) ShutdownContext(ctx context.Context) error {
	p.stop(false)
	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Stop accepting jobs, discard queued jobs, and wait until running jobs finish.
//
// Returns the number of discarded jobs.
func (p *Pool) ShutdownNow() int {
	dropped := p.stop(true)
	for _, qj := range dropped {
		p.discarded.Add(1)
		p.observer.JobDiscarded(p.name)
		PanicSafeRun(qj.job.Discard)
	}
	if len(dropped) > 0 {
		p.log.Warnf("Worker pool '%v' discarded %d queued jobs", p.name, len(dropped))
	}
	p.wg.Wait()
	return len(dropped)
}

// Whether the pool stopped accepting jobs.
func (p *Pool) Stopped() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.stopped
}

func (p *Pool) Stats() PoolStats {
	p.mu.Lock()
	queued := p.queue.Len()
	p.mu.Unlock()
	return PoolStats{
		Name:      p.name,
		Workers:   p.workers,
		Queued:    queued,
		Running:   p.running.Load(),
		Executed:  p.executed.Load(),
		Faults:    p.faults.Load(),
		Discarded: p.discarded.Load(),
	}
}
