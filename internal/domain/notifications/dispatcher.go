package notifications

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"pms/internal/platform/pubsub"
)

const drainTimeout = 5 * time.Second

type Mailer interface {
	Send(ctx context.Context, from, to, subject, body string) error
}

type Publisher interface {
	Publish(ctx context.Context, msg pubsub.Message) error
}

// Dispatcher drains a bounded delivery queue with a fixed worker pool. Each
// delivery is attempted once on every channel.
type Dispatcher struct {
	queue   chan Delivery
	workers int

	Broker       Publisher
	Mailer       Mailer
	EmailEnabled bool
	From         string
	FrontendURL  string

	enqueued   atomic.Uint64
	delivered  atomic.Uint64
	dropped    atomic.Uint64
	failed     atomic.Uint64
	emailsSent atomic.Uint64
}

func NewDispatcher(workers, queueSize int, broker Publisher, mailer Mailer) *Dispatcher {
	if workers < 1 {
		workers = 1
	}
	if queueSize < 1 {
		queueSize = 1
	}
	return &Dispatcher{
		queue:   make(chan Delivery, queueSize),
		workers: workers,
		Broker:  broker,
		Mailer:  mailer,
	}
}

// Enqueue never blocks. A full queue drops the delivery.
func (d *Dispatcher) Enqueue(delivery Delivery) bool {
	select {
	case d.queue <- delivery:
		d.enqueued.Add(1)
		return true
	default:
		d.dropped.Add(1)
		slog.Warn("notification queue full, delivery dropped",
			"userId", delivery.Notification.UserID, "notificationId", delivery.Notification.ID)
		return false
	}
}

// Run blocks until ctx is cancelled and every worker has drained.
func (d *Dispatcher) Run(ctx context.Context) {
	var wg sync.WaitGroup
	for i := 0; i < d.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			d.work(ctx)
		}()
	}
	wg.Wait()
}

func (d *Dispatcher) work(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			d.drain()
			return
		case delivery := <-d.queue:
			d.deliver(ctx, delivery)
		}
	}
}

func (d *Dispatcher) drain() {
	ctx, cancel := context.WithTimeout(context.Background(), drainTimeout)
	defer cancel()
	for {
		if ctx.Err() != nil {
			return
		}
		select {
		case delivery := <-d.queue:
			d.deliver(ctx, delivery)
		default:
			return
		}
	}
}

func (d *Dispatcher) deliver(ctx context.Context, delivery Delivery) {
	n := delivery.Notification
	if d.Broker != nil {
		payload, err := json.Marshal(map[string]any{"type": "new_notification", "notification": n})
		if err == nil {
			err = d.Broker.Publish(ctx, pubsub.Message{UserID: n.UserID, Payload: payload})
		}
		if err != nil {
			d.failed.Add(1)
			slog.Warn("notification publish failed", "err", err, "userId", n.UserID)
		} else {
			d.delivered.Add(1)
		}
	}

	if !d.EmailEnabled || d.Mailer == nil || delivery.Contact.Email == "" {
		return
	}
	subject, body, err := RenderEmail(n, delivery.Contact, d.FrontendURL)
	if err != nil {
		d.failed.Add(1)
		slog.Warn("notification email render failed", "err", err, "type", n.Type)
		return
	}
	if err := d.Mailer.Send(ctx, d.From, delivery.Contact.Email, subject, body); err != nil {
		d.failed.Add(1)
		slog.Warn("notification email send failed", "err", err, "userId", n.UserID)
		return
	}
	d.emailsSent.Add(1)
}

// CountFailure records a failure that happened before a delivery was queued.
func (d *Dispatcher) CountFailure() {
	d.failed.Add(1)
}

func (d *Dispatcher) Snapshot() map[string]any {
	return map[string]any{
		"notificationsEnqueued":  d.enqueued.Load(),
		"notificationsDelivered": d.delivered.Load(),
		"notificationsDropped":   d.dropped.Load(),
		"notificationsFailed":    d.failed.Load(),
		"emailsSent":             d.emailsSent.Load(),
		"queueDepth":             len(d.queue),
		"queueCapacity":          cap(d.queue),
	}
}
