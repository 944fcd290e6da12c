package reports

import (
	"context"
	"sync"

	"github.com/blueboyrocks/business-valuation-app-sub003/pkg/core/pipeline"
)

// feed fans one run's status updates out to SSE subscribers. It keeps the
// full history so a client connecting mid-run sees every event it missed.
type feed struct {
	mu          sync.Mutex
	history     []pipeline.StatusUpdate
	subscribers []chan pipeline.StatusUpdate
	closed      bool
}

// Apply lets the feed sit behind the same StatusWriter boundary as the
// database repo, so the driver publishes once and both receive it.
func (f *feed) Apply(_ context.Context, update pipeline.StatusUpdate) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return nil
	}
	f.history = append(f.history, update)
	for _, ch := range f.subscribers {
		select {
		case ch <- update:
		default:
			// Slow subscriber: drop rather than stall the run.
		}
	}
	return nil
}

func (f *feed) Subscribe() (<-chan pipeline.StatusUpdate, []pipeline.StatusUpdate) {
	f.mu.Lock()
	defer f.mu.Unlock()
	history := make([]pipeline.StatusUpdate, len(f.history))
	copy(history, f.history)
	ch := make(chan pipeline.StatusUpdate, 32)
	if f.closed {
		close(ch)
		return ch, history
	}
	f.subscribers = append(f.subscribers, ch)
	return ch, history
}

func (f *feed) Unsubscribe(ch <-chan pipeline.StatusUpdate) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, sub := range f.subscribers {
		if sub == ch {
			f.subscribers = append(f.subscribers[:i], f.subscribers[i+1:]...)
			close(sub)
			return
		}
	}
}

// CloseFeed marks the run finished and releases all subscribers.
func (f *feed) CloseFeed() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return
	}
	f.closed = true
	for _, ch := range f.subscribers {
		close(ch)
	}
	f.subscribers = nil
}

// multiWriter forwards each update to every writer. A feed never errors;
// a database failure propagates so the persister can log it.
type multiWriter []pipeline.StatusWriter

func (m multiWriter) Apply(ctx context.Context, update pipeline.StatusUpdate) error {
	var firstErr error
	for _, w := range m {
		if err := w.Apply(ctx, update); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
