package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/blueboyrocks/business-valuation-app-sub003/pkg/core/passes"
)

// StatusUpdate is one merge-update to a job's durable record: status string,
// progress percentage, human-readable message, and optionally the stage
// output or final result once available.
type StatusUpdate struct {
	ReportID    string
	Status      string
	Progress    int
	Message     string
	StageOutput *passes.StageOutput
	Result      *Result
}

// StatusWriter applies one update to durable storage.
type StatusWriter interface {
	Apply(ctx context.Context, update StatusUpdate) error
}

// AsyncPersister decouples status writes from the pipeline's critical path.
// Updates flow through a buffered channel drained by a single writer
// goroutine; a slow or failing store never delays a stage, and write errors
// are logged, never propagated.
type AsyncPersister struct {
	writer  StatusWriter
	updates chan StatusUpdate
	done    chan struct{}
}

// NewAsyncPersister starts the writer goroutine.
func NewAsyncPersister(writer StatusWriter, buffer int) *AsyncPersister {
	if buffer <= 0 {
		buffer = 64
	}
	p := &AsyncPersister{
		writer:  writer,
		updates: make(chan StatusUpdate, buffer),
		done:    make(chan struct{}),
	}
	go p.drain()
	return p
}

func (p *AsyncPersister) drain() {
	defer close(p.done)
	for update := range p.updates {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		if err := p.writer.Apply(ctx, update); err != nil {
			fmt.Printf("[PERSIST] Warning: failed to persist status for %s (%s): %v\n",
				update.ReportID, update.Status, err)
		}
		cancel()
	}
}

// Submit enqueues an update without blocking. If the buffer is full the
// update is dropped with a log line; the next update carries fresher state
// anyway, and pipeline correctness does not depend on every write landing.
func (p *AsyncPersister) Submit(update StatusUpdate) {
	select {
	case p.updates <- update:
	default:
		fmt.Printf("[PERSIST] Warning: update buffer full, dropping status %q for %s\n",
			update.Status, update.ReportID)
	}
}

// Close stops accepting updates and waits for queued writes to land.
func (p *AsyncPersister) Close() {
	close(p.updates)
	<-p.done
}
