// Package notify fans scheduling status changes out to the notification
// system. Delivery is best effort and never blocks a request.
package notify

import (
	"context"
	"time"

	"go.uber.org/zap"
)

const (
	AppointmentCreated     = "appointment.created"
	AppointmentConfirmed   = "appointment.confirmed"
	AppointmentCancelled   = "appointment.cancelled"
	AppointmentRescheduled = "appointment.rescheduled"
	AppointmentCompleted   = "appointment.completed"
	AppointmentNoShow      = "appointment.no_show"
	WaitlistEnqueued       = "waitlist.enqueued"
	WaitlistCancelled      = "waitlist.cancelled"
)

type Event struct {
	Type       string    `json:"type"`
	EntityID   uint      `json:"entity_id"`
	Status     string    `json:"status"`
	CustomerID uint      `json:"customer_id"`
	OccurredAt time.Time `json:"occurred_at"`
}

type Publisher interface {
	Publish(ctx context.Context, ev Event) error
	Close() error
}

// Dispatcher queues events for a Publisher. A nil *Dispatcher discards
// everything.
type Dispatcher struct {
	pub   Publisher
	log   *zap.Logger
	queue chan Event
	done  chan struct{}

	OnDrop func()
}

func NewDispatcher(pub Publisher, log *zap.Logger, size int) *Dispatcher {
	if log == nil {
		log = zap.NewNop()
	}
	if size <= 0 {
		size = 256
	}
	d := &Dispatcher{
		pub:   pub,
		log:   log,
		queue: make(chan Event, size),
		done:  make(chan struct{}),
	}
	go d.worker()
	return d
}

func (d *Dispatcher) worker() {
	defer close(d.done)
	for ev := range d.queue {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := d.pub.Publish(ctx, ev); err != nil {
			d.log.Warn("notification publish failed",
				zap.String("type", ev.Type),
				zap.Uint("entity_id", ev.EntityID),
				zap.Error(err),
			)
		}
		cancel()
	}
}

func (d *Dispatcher) Notify(ev Event) {
	if d == nil {
		return
	}
	if ev.OccurredAt.IsZero() {
		ev.OccurredAt = time.Now().UTC()
	}
	select {
	case d.queue <- ev:
	default:
		d.log.Warn("notification queue full, dropping event", zap.String("type", ev.Type))
		if d.OnDrop != nil {
			d.OnDrop()
		}
	}
}

// Close drains the queue, waiting at most until ctx ends, then closes the
// publisher.
func (d *Dispatcher) Close(ctx context.Context) error {
	if d == nil {
		return nil
	}
	close(d.queue)
	select {
	case <-d.done:
	case <-ctx.Done():
		d.log.Warn("notification shutdown timed out; some events may be lost")
	}
	return d.pub.Close()
}
