package async

import "context"

// One-time signal, safe for concurrent use.
//
// Notify may be called many times, only the first call takes effect.
type SignalOnce struct {
	c      context.Context
	cancel func()
}

// Channel that is closed once the signal is notified.
func (s *SignalOnce) Done() <-chan struct{} {
	return s.c.Done()
}

func (s *SignalOnce) Notify() {
	s.cancel()
}

func NewSignalOnce() *SignalOnce {
	c, f := context.WithCancel(context.Background())
	return &SignalOnce{
		c:      c,
		cancel: f,
	}
}
