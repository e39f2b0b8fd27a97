package view

import (
	"context"
	"sync"
)

// Latest serialises "last request wins" for repeated queries such as a search box. Each Do
// takes the next sequence number and cancels the previous in-flight call; a result that
// arrives after a newer call was issued is reported as stale and not stored.
type Latest[T any] struct {
	mu     sync.Mutex
	seq    uint64
	cancel context.CancelFunc
	value  T
	has    bool
}

func (l *Latest[T]) Do(ctx context.Context, fn func(ctx context.Context) (T, error)) (value T, fresh bool, err error) {
	l.mu.Lock()
	l.seq++
	seq := l.seq
	if l.cancel != nil {
		l.cancel()
	}
	callCtx, cancel := context.WithCancel(ctx)
	l.cancel = cancel
	l.mu.Unlock()

	v, err := fn(callCtx)

	l.mu.Lock()
	defer l.mu.Unlock()
	if seq != l.seq {
		cancel()
		var zero T
		return zero, false, nil
	}
	cancel()
	l.cancel = nil
	if err != nil {
		var zero T
		return zero, true, err
	}
	l.value, l.has = v, true
	return v, true, nil
}

// Value returns the most recent fresh result.
func (l *Latest[T]) Value() (T, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.value, l.has
}

func (l *Latest[T]) Seq() uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.seq
}
