package async

import (
	"context"
	"sync"
)

// Values implementing Disposable are disposed when they can no longer be delivered,
// e.g., the receiver was dropped before the task finished.
//
// Dispose is called on whichever goroutine discards the value. When that is the worker,
// a panic in Dispose is not captured by the bridge and reaches the pool's fault handler.
type Disposable interface {
	Dispose()
}

// Outcome of a task, either a completed value or an abort payload.
type Outcome[T any] struct {
	value   T
	payload any
	stack   []byte
	aborted bool
}

func Completed[T any](v T) Outcome[T] {
	return Outcome[T]{value: v}
}

// Aborted outcome, payload is whatever the task panicked with.
func Aborted[T any](payload any, stack []byte) Outcome[T] {
	return Outcome[T]{payload: payload, stack: stack, aborted: true}
}

func (o Outcome[T]) IsAborted() bool {
	return o.aborted
}

func (o Outcome[T]) Value() T {
	return o.value
}

func (o Outcome[T]) Payload() any {
	return o.payload
}

// Stack of the worker goroutine at the time the task panicked.
func (o Outcome[T]) Stack() []byte {
	return o.stack
}

func (o Outcome[T]) dispose() {
	if o.aborted {
		return
	}
	if d, ok := any(o.value).(Disposable); ok {
		d.Dispose()
	}
}

type chanState uint8

const (
	stateEmpty    chanState = iota
	stateFilled             // outcome sent, not yet received.
	stateConsumed           // outcome (or closure) observed by the receiver.
	stateClosed             // sender released without sending.
	stateSevered            // receiver dropped.
)

type oneshot[T any] struct {
	mu      sync.Mutex
	state   chanState
	outcome Outcome[T]
	waker   Waker
	done    *SignalOnce
}

// Sending half of a one-shot completion channel.
//
// Only the first Send or Close takes effect.
type Sender[T any] struct {
	c *oneshot[T]
}

// Receiving half of a one-shot completion channel.
//
// Receiver must be owned by exactly one consumer.
type Receiver[T any] struct {
	c *oneshot[T]
}

// Create a one-shot channel that transfers exactly one Outcome from one producer to one consumer.
func NewOneshot[T any]() (*Sender[T], *Receiver[T]) {
	c := &oneshot[T]{done: NewSignalOnce()}
	return &Sender[T]{c: c}, &Receiver[T]{c: c}
}

// Send the outcome without blocking.
//
// If the channel already holds an outcome, was closed, or the receiver was dropped,
// the outcome is discarded and a completed value is disposed on the caller's goroutine.
func (s *Sender[T]) Send(o Outcome[T]) {
	c := s.c
	c.mu.Lock()
	if c.state != stateEmpty {
		c.mu.Unlock()
		o.dispose()
		return
	}
	c.state = stateFilled
	c.outcome = o
	w := c.waker
	c.waker = nil
	c.mu.Unlock()

	c.done.Notify()
	if w != nil {
		w.Wake()
	}
}

// Release the sender without sending, the receiver observes ErrChannelClosed.
func (s *Sender[T]) Close() {
	c := s.c
	c.mu.Lock()
	if c.state != stateEmpty {
		c.mu.Unlock()
		return
	}
	c.state = stateClosed
	w := c.waker
	c.waker = nil
	c.mu.Unlock()

	c.done.Notify()
	if w != nil {
		w.Wake()
	}
}

// Channel that is closed once an outcome is sent or the sender is closed.
func (r *Receiver[T]) Done() <-chan struct{} {
	return r.c.done.Done()
}

// Whether an outcome (or closure) is waiting to be received.
func (r *Receiver[T]) Ready() bool {
	r.c.mu.Lock()
	defer r.c.mu.Unlock()
	return r.c.state == stateFilled || r.c.state == stateClosed
}

// Try to receive the outcome without blocking.
//
// If nothing is available yet, w (if not nil) is registered for a single wake-up, replacing
// any previously registered waker, and ready is false.
//
// Once ready, err is ErrChannelClosed if the sender was closed without sending, or
// ErrAlreadyResolved if the outcome was already received or the receiver was dropped.
func (r *Receiver[T]) Poll(w Waker) (o Outcome[T], err error, ready bool) {
	c := r.c
	c.mu.Lock()
	defer c.mu.Unlock()

	switch c.state {
	case stateEmpty:
		if w != nil {
			c.waker = w
		}
		return o, nil, false
	case stateFilled:
		o = c.outcome
		c.outcome = Outcome[T]{}
		c.state = stateConsumed
		return o, nil, true
	case stateClosed:
		c.state = stateConsumed
		return o, ErrChannelClosed, true
	default:
		return o, ErrAlreadyResolved, true
	}
}

// Receive the outcome, parking the calling goroutine until it's available.
func (r *Receiver[T]) Recv() (Outcome[T], error) {
	for {
		if o, err, ok := r.Poll(nil); ok {
			return o, err
		}
		<-r.Done()
	}
}

// Receive the outcome like Recv, but give up when ctx is done first.
//
// Giving up consumes nothing, the outcome can still be received later.
func (r *Receiver[T]) RecvContext(ctx context.Context) (Outcome[T], error) {
	for {
		if o, err, ok := r.Poll(nil); ok {
			return o, err
		}
		select {
		case <-r.Done():
		case <-ctx.Done():
			var o Outcome[T]
			return o, ctx.Err()
		}
	}
}

// Drop the receiver, severing the channel from the consumer side.
//
// A completed value that was sent but never received is disposed on the caller's goroutine.
func (r *Receiver[T]) Drop() {
	c := r.c
	c.mu.Lock()
	switch c.state {
	case stateEmpty:
		c.state = stateSevered
		c.waker = nil
		c.mu.Unlock()
	case stateFilled:
		o := c.outcome
		c.outcome = Outcome[T]{}
		c.state = stateSevered
		c.mu.Unlock()
		o.dispose()
	default:
		c.mu.Unlock()
	}
}
