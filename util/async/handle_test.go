package async

import (
	"context"
	"errors"
	"runtime"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type faultRecorder struct {
	n        atomic.Int32
	payloads chan any
}

func newFaultRecorder() *faultRecorder {
	return &faultRecorder{payloads: make(chan any, 16)}
}

func (f *faultRecorder) handle(payload any, stack []byte) {
	f.n.Add(1)
	f.payloads <- payload
}

func TestSubmitRoundTrip(t *testing.T) {
	p := NewPool(4)
	defer p.Shutdown()

	for _, ord := range []Ordering{LIFO, FIFO} {
		h := Submit(p, ord, func() int { return 42 })
		assert.Equal(t, 42, h.Get(), "ordering: %v", ord)

		h2 := Submit(p, ord, func() string { return "ok" })
		v, err := h2.Result()
		require.NoError(t, err)
		assert.Equal(t, "ok", v)
	}
}

func TestGetRepanicsPayload(t *testing.T) {
	faults := newFaultRecorder()
	p := NewPool(2, WithFaultHandler(faults.handle))

	h := Submit(p, LIFO, func() int { panic("boom") })
	assert.PanicsWithValue(t, "boom", func() { h.Get() })

	cause := errors.New("typed payload")
	h2 := Submit(p, FIFO, func() int { panic(cause) })
	v := recoverValue(func() { h2.Get() })
	assert.Same(t, cause, v)

	p.Shutdown()
	assert.Equal(t, int32(0), faults.n.Load())
}

func TestResultReturnsPanicError(t *testing.T) {
	faults := newFaultRecorder()
	p := NewPool(2, WithFaultHandler(faults.handle))

	h := Submit(p, LIFO, func() int { panic("boom") })
	_, err := h.Result()
	var pe *PanicError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "boom", pe.Payload())
	assert.NotEmpty(t, pe.Stack())
	assert.Equal(t, "task panicked: boom", pe.Error())

	cause := errors.New("typed payload")
	h2 := Submit(p, LIFO, func() int { panic(cause) })
	_, err = h2.Result()
	assert.ErrorIs(t, err, cause)

	p.Shutdown()
	assert.Equal(t, int32(0), faults.n.Load())
}

func TestResolveOnce(t *testing.T) {
	p := NewPool(1)
	defer p.Shutdown()

	h := Submit(p, LIFO, func() int { return 1 })
	assert.Equal(t, 1, h.Get())

	_, err := h.Result()
	assert.ErrorIs(t, err, ErrAlreadyResolved)

	v := recoverValue(func() { h.Get() })
	err, ok := v.(error)
	require.True(t, ok)
	assert.ErrorIs(t, err, ErrAlreadyResolved)

	_, err, ready := h.PollResult(nil)
	assert.True(t, ready)
	assert.ErrorIs(t, err, ErrAlreadyResolved)
}

func TestDropBeforeCompletion(t *testing.T) {
	faults := newFaultRecorder()
	p := NewPool(1, WithFaultHandler(faults.handle))

	var ran, disposed atomic.Int32
	gate := make(chan struct{})
	h := Submit(p, LIFO, func() countedValue {
		<-gate
		ran.Add(1)
		return countedValue{disposed: &disposed}
	})
	h.Drop()
	close(gate)

	p.Shutdown()
	assert.Equal(t, int32(1), ran.Load())
	assert.Equal(t, int32(1), disposed.Load())
	assert.Equal(t, int32(0), faults.n.Load())
}

func TestDropAfterCompletion(t *testing.T) {
	p := NewPool(1)
	defer p.Shutdown()

	var disposed atomic.Int32
	h := Submit(p, LIFO, func() countedValue { return countedValue{disposed: &disposed} })
	<-h.Done()
	assert.True(t, h.Ready())

	h.Drop()
	assert.Equal(t, int32(1), disposed.Load())
}

func TestDropDeliveredDisposePanicsInCaller(t *testing.T) {
	faults := newFaultRecorder()
	p := NewPool(1, WithFaultHandler(faults.handle))

	h := Submit(p, LIFO, func() faultyValue { return faultyValue{msg: "dispose on drop"} })
	<-h.Done()
	assert.PanicsWithValue(t, "dispose on drop", h.Drop)

	// resolved by the drop, the outcome is gone
	_, err := h.Result()
	assert.ErrorIs(t, err, ErrAlreadyResolved)

	p.Shutdown()
	assert.Equal(t, int32(0), faults.n.Load())
}

func TestDisposePanicReachesFaultHandler(t *testing.T) {
	faults := newFaultRecorder()
	p := NewPool(1, WithFaultHandler(faults.handle))

	gate := make(chan struct{})
	h := Submit(p, LIFO, func() faultyValue {
		<-gate
		return faultyValue{msg: "dispose failed"}
	})
	h.Drop()
	close(gate)

	select {
	case v := <-faults.payloads:
		assert.Equal(t, "dispose failed", v)
	case <-time.After(5 * time.Second):
		t.Fatal("fault handler not called")
	}

	// worker survives the fault
	assert.Equal(t, 3, Submit(p, LIFO, func() int { return 3 }).Get())

	p.Shutdown()
	assert.Equal(t, int64(1), p.Stats().Faults)
}

func TestSubmitDoesNotBlock(t *testing.T) {
	p := NewPool(1)
	release, blocker := occupyWorker(t, p, LIFO)

	handles := make([]*TaskHandle[int], 0, 100)
	start := time.Now()
	for i := 0; i < 100; i++ {
		i := i
		handles = append(handles, Submit(p, FIFO, func() int { return i }))
	}
	assert.Less(t, time.Since(start), time.Second)
	for _, h := range handles {
		assert.False(t, h.Ready())
	}
	assert.Equal(t, 100, p.Stats().Queued)

	release()
	blocker.Get()
	for i, h := range handles {
		assert.Equal(t, i, h.Get())
	}
	p.Shutdown()
}

func TestShutdownNowClosesPendingHandles(t *testing.T) {
	p := NewPool(1)
	release, blocker := occupyWorker(t, p, LIFO)

	h1 := Submit(p, FIFO, func() int { return 1 })
	h2 := Submit(p, FIFO, func() int { return 2 })

	discarded := make(chan int, 1)
	go func() {
		discarded <- p.ShutdownNow()
	}()

	<-h1.Done()
	_, err := h1.Result()
	assert.ErrorIs(t, err, ErrChannelClosed)

	v := recoverValue(func() { h2.Get() })
	err, ok := v.(error)
	require.True(t, ok)
	assert.ErrorIs(t, err, ErrBridgeBroken)
	assert.ErrorIs(t, err, ErrChannelClosed)
	assert.Contains(t, stackOf(err), "TestShutdownNowClosesPendingHandles")

	release()
	assert.Equal(t, 2, <-discarded)
	blocker.Get()
	assert.Equal(t, int64(2), p.Stats().Discarded)
}

func TestSubmitToStoppedPool(t *testing.T) {
	p := NewPool(1)
	p.Shutdown()
	assert.True(t, p.Stopped())

	err := p.Go(func() {}, LIFO)
	assert.ErrorIs(t, err, ErrPoolStopped)

	h := Submit(p, LIFO, func() int { return 1 })
	_, err = h.Result()
	assert.ErrorIs(t, err, ErrChannelClosed)
}

func TestGoexitIsAborted(t *testing.T) {
	p := NewPool(1)
	defer p.Shutdown()

	h := Submit(p, LIFO, func() int {
		runtime.Goexit()
		return 1
	})
	_, err := h.Result()
	var pe *PanicError
	require.ErrorAs(t, err, &pe)
	assert.ErrorIs(t, err, ErrGoexit)

	// the exited worker is replaced
	assert.Equal(t, 2, Submit(p, LIFO, func() int { return 2 }).Get())
	assert.Equal(t, 1, p.Workers())
}

func TestAwaitContext(t *testing.T) {
	p := NewPool(1)
	defer p.Shutdown()

	gate := make(chan struct{})
	h := Submit(p, LIFO, func() int {
		<-gate
		return 5
	})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := h.Await(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	close(gate)
	v, err := h.Await(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 5, v)
}

func TestPollWithWaker(t *testing.T) {
	p := NewPool(1)
	defer p.Shutdown()

	gate := make(chan struct{})
	h := Submit(p, LIFO, func() string {
		<-gate
		return "polled"
	})

	woke := make(chan struct{})
	_, ready := h.Poll(WakerFunc(func() { close(woke) }))
	assert.False(t, ready)

	close(gate)
	select {
	case <-woke:
	case <-time.After(5 * time.Second):
		t.Fatal("waker not called")
	}

	v, ready := h.Poll(nil)
	assert.True(t, ready)
	assert.Equal(t, "polled", v)
}

func TestPollResultAborted(t *testing.T) {
	p := NewPool(1)
	defer p.Shutdown()

	h := Submit(p, LIFO, func() int { panic("boom") })
	<-h.Done()

	_, err, ready := h.PollResult(nil)
	assert.True(t, ready)
	var pe *PanicError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "boom", pe.Payload())
}

func TestSubmitNilTask(t *testing.T) {
	p := NewPool(1)
	defer p.Shutdown()

	assert.Panics(t, func() { Submit[int](p, LIFO, nil) })
	assert.Panics(t, func() { Go(p, LIFO, nil) })
	assert.Panics(t, func() { Submit(nil, LIFO, func() int { return 1 }) })
}

func TestGoTask(t *testing.T) {
	p := NewPool(2)
	defer p.Shutdown()

	var n atomic.Int32
	h := Go(p, FIFO, func() { n.Add(1) })
	h.Get()
	assert.Equal(t, int32(1), n.Load())
}
