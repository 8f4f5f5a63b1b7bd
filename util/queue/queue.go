// Package queue provides a non thread-safe double-ended queue.
package queue

import "container/list"

func New[T any]() *Queue[T] {
	return &Queue[T]{
		l: list.New(),
	}
}

// Double-ended queue backed by container/list.
//
// Queue is not thread-safe, callers must synchronize access themselves.
type Queue[T any] struct {
	l *list.List
}

// Pop value at the front, returns false if the queue is empty.
func (q *Queue[T]) PopFront() (T, bool) {
	f := q.l.Front()
	if f == nil {
		var t T
		return t, false
	}
	return q.l.Remove(f).(T), true
}

// Pop value at the back, returns false if the queue is empty.
func (q *Queue[T]) PopBack() (T, bool) {
	b := q.l.Back()
	if b == nil {
		var t T
		return t, false
	}
	return q.l.Remove(b).(T), true
}

func (q *Queue[T]) PushFront(t T) {
	q.l.PushFront(t)
}

func (q *Queue[T]) PushBack(t T) {
	q.l.PushBack(t)
}

func (q *Queue[T]) Len() int {
	return q.l.Len()
}

// Remove all values from front to back.
func (q *Queue[T]) Drain() []T {
	out := make([]T, 0, q.l.Len())
	for {
		t, ok := q.PopFront()
		if !ok {
			return out
		}
		out = append(out, t)
	}
}
