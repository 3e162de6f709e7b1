package audit

import (
	"context"
	"time"

	"go.uber.org/zap"
)

type Event struct {
	ActorID  *uint
	Action   string
	Entity   string
	EntityID *uint
	Metadata any
}

// Dispatcher writes audit events in the background. A nil *Dispatcher
// discards everything.
type Dispatcher struct {
	writer Writer
	log    *zap.Logger
	queue  chan Event
	done   chan struct{}

	// OnDrop is called when the queue is full.
	OnDrop func()
}

func NewDispatcher(writer Writer, log *zap.Logger) *Dispatcher {
	if log == nil {
		log = zap.NewNop()
	}
	d := &Dispatcher{
		writer: writer,
		log:    log,
		queue:  make(chan Event, 100),
		done:   make(chan struct{}),
	}

	go d.worker()
	return d
}

func (d *Dispatcher) worker() {
	defer close(d.done)
	for ev := range d.queue {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := d.writer.Write(ctx, ev); err != nil {
			d.log.Error("audit write failed",
				zap.String("action", ev.Action),
				zap.Error(err),
			)
		}
		cancel()
	}
}

func (d *Dispatcher) Dispatch(ev Event) {
	if d == nil {
		return
	}
	select {
	case d.queue <- ev:
	default:
		// fila cheia: nunca quebrar a API por causa de auditoria
		d.log.Warn("audit queue full, dropping event", zap.String("action", ev.Action))
		if d.OnDrop != nil {
			d.OnDrop()
		}
	}
}

// Close stops accepting events and waits for the queue to drain, at most
// until ctx ends. Dispatch must not be called after Close.
func (d *Dispatcher) Close(ctx context.Context) {
	if d == nil {
		return
	}
	close(d.queue)
	select {
	case <-d.done:
	case <-ctx.Done():
		d.log.Warn("audit shutdown timed out; some events may be lost")
	}
}
