package async

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOneshotSendRecv(t *testing.T) {
	tx, rx := NewOneshot[int]()
	assert.False(t, rx.Ready())

	tx.Send(Completed(42))
	assert.True(t, rx.Ready())

	o, err := rx.Recv()
	require.NoError(t, err)
	assert.False(t, o.IsAborted())
	assert.Equal(t, 42, o.Value())
	assert.False(t, rx.Ready())

	_, err = rx.Recv()
	assert.ErrorIs(t, err, ErrAlreadyResolved)
}

func TestOneshotAborted(t *testing.T) {
	tx, rx := NewOneshot[int]()
	tx.Send(Aborted[int]("boom", []byte("stack")))

	o, err := rx.Recv()
	require.NoError(t, err)
	assert.True(t, o.IsAborted())
	assert.Equal(t, "boom", o.Payload())
	assert.Equal(t, "stack", string(o.Stack()))
}

func TestOneshotClose(t *testing.T) {
	tx, rx := NewOneshot[int]()
	tx.Close()

	select {
	case <-rx.Done():
	default:
		t.Fatal("done channel should be closed")
	}

	_, err := rx.Recv()
	assert.ErrorIs(t, err, ErrChannelClosed)

	_, err = rx.Recv()
	assert.ErrorIs(t, err, ErrAlreadyResolved)

	// closing or sending afterwards has no effect
	tx.Close()
	tx.Send(Completed(1))
	_, err = rx.Recv()
	assert.ErrorIs(t, err, ErrAlreadyResolved)
}

func TestOneshotSendTwice(t *testing.T) {
	var disposed atomic.Int32
	tx, rx := NewOneshot[countedValue]()
	tx.Send(Completed(countedValue{n: 1, disposed: &disposed}))
	tx.Send(Completed(countedValue{n: 2, disposed: &disposed}))
	assert.Equal(t, int32(1), disposed.Load())

	o, err := rx.Recv()
	require.NoError(t, err)
	assert.Equal(t, 1, o.Value().n)
}

func TestOneshotDropFilled(t *testing.T) {
	var disposed atomic.Int32
	tx, rx := NewOneshot[countedValue]()
	tx.Send(Completed(countedValue{disposed: &disposed}))

	rx.Drop()
	assert.Equal(t, int32(1), disposed.Load())

	_, err := rx.Recv()
	assert.ErrorIs(t, err, ErrAlreadyResolved)

	// dropping twice is a no-op
	rx.Drop()
	assert.Equal(t, int32(1), disposed.Load())
}

func TestOneshotSendAfterDrop(t *testing.T) {
	var disposed atomic.Int32
	tx, rx := NewOneshot[countedValue]()
	rx.Drop()

	tx.Send(Completed(countedValue{disposed: &disposed}))
	assert.Equal(t, int32(1), disposed.Load())

	// aborted outcomes have nothing to dispose
	tx.Send(Aborted[countedValue]("boom", nil))
	assert.Equal(t, int32(1), disposed.Load())
}

func TestOneshotPollWaker(t *testing.T) {
	tx, rx := NewOneshot[string]()

	var wakes atomic.Int32
	first := WakerFunc(func() { wakes.Add(100) })
	second := WakerFunc(func() { wakes.Add(1) })

	_, _, ready := rx.Poll(first)
	assert.False(t, ready)

	// the latest waker replaces the previous one
	_, _, ready = rx.Poll(second)
	assert.False(t, ready)

	tx.Send(Completed("ok"))
	assert.Equal(t, int32(1), wakes.Load())

	o, err, ready := rx.Poll(nil)
	assert.True(t, ready)
	require.NoError(t, err)
	assert.Equal(t, "ok", o.Value())
}

func TestOneshotRecvContext(t *testing.T) {
	tx, rx := NewOneshot[int]()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := rx.RecvContext(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	go func() {
		time.Sleep(10 * time.Millisecond)
		tx.Send(Completed(7))
	}()

	o, err := rx.RecvContext(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 7, o.Value())
}

func TestOneshotConcurrentSendRecv(t *testing.T) {
	for i := 0; i < 500; i++ {
		tx, rx := NewOneshot[int]()
		go tx.Send(Completed(i))
		o, err := rx.Recv()
		require.NoError(t, err)
		assert.Equal(t, i, o.Value())
	}
}
