package app

import (
	"context"
	"sync"
)

// inbox is an unbounded FIFO of closures drained by one goroutine.
// Post never blocks, so collaborator goroutines and timers can always hand
// work to the owner without waiting on it.
type inbox struct {
	mu     sync.Mutex
	queue  []func()
	signal chan struct{}
}

func newInbox() *inbox {
	return &inbox{signal: make(chan struct{}, 1)}
}

func (b *inbox) post(fn func()) {
	b.mu.Lock()
	b.queue = append(b.queue, fn)
	b.mu.Unlock()
	select {
	case b.signal <- struct{}{}:
	default:
	}
}

// run executes posted closures in order until ctx is done.
func (b *inbox) run(ctx context.Context) {
	for {
		b.mu.Lock()
		batch := b.queue
		b.queue = nil
		b.mu.Unlock()

		for _, fn := range batch {
			fn()
		}
		if len(batch) > 0 {
			continue
		}

		select {
		case <-ctx.Done():
			return
		case <-b.signal:
		}
	}
}
