package usecase

import (
	"context"
	"sync"
)

// serialQueue admits one holder at a time, in arrival order. A waiter whose
// context ends leaves the queue without taking the slot.
type serialQueue struct {
	mu      sync.Mutex
	busy    bool
	waiters []chan struct{}
}

func (q *serialQueue) acquire(ctx context.Context) error {
	q.mu.Lock()
	if !q.busy {
		q.busy = true
		q.mu.Unlock()
		return nil
	}
	ch := make(chan struct{})
	q.waiters = append(q.waiters, ch)
	q.mu.Unlock()

	select {
	case <-ch:
		return nil
	case <-ctx.Done():
	}
	q.mu.Lock()
	for i, w := range q.waiters {
		if w == ch {
			q.waiters = append(q.waiters[:i], q.waiters[i+1:]...)
			q.mu.Unlock()
			return ctx.Err()
		}
	}
	q.mu.Unlock()
	// the slot was handed over while ctx ended; pass it on
	q.release()
	return ctx.Err()
}

func (q *serialQueue) release() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.waiters) == 0 {
		q.busy = false
		return
	}
	next := q.waiters[0]
	q.waiters = q.waiters[1:]
	close(next)
}

// latest tracks the newest of a series of superseding requests. Starting a
// new one cancels the one before it.
type latest struct {
	mu     sync.Mutex
	seq    uint64
	cancel context.CancelFunc
}

func (l *latest) begin(ctx context.Context) (context.Context, func() bool, func()) {
	ctx, cancel := context.WithCancel(ctx)
	l.mu.Lock()
	if l.cancel != nil {
		l.cancel()
	}
	l.seq++
	seq := l.seq
	l.cancel = cancel
	l.mu.Unlock()

	current := func() bool {
		l.mu.Lock()
		defer l.mu.Unlock()
		return l.seq == seq
	}
	done := func() {
		l.mu.Lock()
		if l.seq == seq {
			l.cancel = nil
		}
		l.mu.Unlock()
		cancel()
	}
	return ctx, current, done
}
