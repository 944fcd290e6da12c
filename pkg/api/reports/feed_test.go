package reports

import (
	"context"
	"testing"

	"github.com/blueboyrocks/business-valuation-app-sub003/pkg/core/pipeline"
)

func TestFeedReplaysHistoryToLateSubscribers(t *testing.T) {
	f := &feed{}
	for i := 1; i <= 3; i++ {
		f.Apply(context.Background(), pipeline.StatusUpdate{ReportID: "r-1", Progress: i * 10})
	}

	ch, history := f.Subscribe()
	defer f.Unsubscribe(ch)

	if len(history) != 3 {
		t.Fatalf("history = %d updates, want 3", len(history))
	}
	for i, update := range history {
		if update.Progress != (i+1)*10 {
			t.Fatalf("history out of order: %+v", history)
		}
	}

	f.Apply(context.Background(), pipeline.StatusUpdate{ReportID: "r-1", Progress: 40})
	select {
	case update := <-ch:
		if update.Progress != 40 {
			t.Errorf("live update = %+v", update)
		}
	default:
		t.Fatal("live update not delivered")
	}
}

func TestFeedCloseReleasesSubscribers(t *testing.T) {
	f := &feed{}
	ch, _ := f.Subscribe()

	f.CloseFeed()

	if _, open := <-ch; open {
		t.Fatal("subscriber channel should be closed")
	}

	// Subscribing after close yields a closed channel plus full history.
	late, _ := f.Subscribe()
	if _, open := <-late; open {
		t.Fatal("late subscriber channel should be closed immediately")
	}

	// Applying after close is a no-op, not a panic.
	if err := f.Apply(context.Background(), pipeline.StatusUpdate{}); err != nil {
		t.Errorf("Apply after close: %v", err)
	}
}
