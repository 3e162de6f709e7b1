package audit

import (
	"context"
	"sync"
	"testing"
	"time"
)

type memWriter struct {
	mu     sync.Mutex
	events []Event
}

func (w *memWriter) Write(_ context.Context, ev Event) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.events = append(w.events, ev)
	return nil
}

func TestDispatcherDrainsOnClose(t *testing.T) {
	w := &memWriter{}
	d := NewDispatcher(w, nil)

	for i := 0; i < 10; i++ {
		d.Dispatch(Event{Action: "appointment_created", Entity: "appointment"})
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	d.Close(ctx)

	w.mu.Lock()
	defer w.mu.Unlock()
	if len(w.events) != 10 {
		t.Fatalf("expected 10 events, got %d", len(w.events))
	}
}

func TestNilDispatcherIsNoop(t *testing.T) {
	var d *Dispatcher
	d.Dispatch(Event{Action: "x"})
	d.Close(context.Background())
}
