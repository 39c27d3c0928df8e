package notify

import (
	"context"
	"log/slog"
	"sync"

	"github.com/ahmetcoskunkizilkaya/mealmatch/internal/metrics"
	"golang.org/x/time/rate"
)

const queueSize = 1024

// Dispatcher delivers notifications on worker goroutines, throttled to the
// provider's rate. Failures are logged and counted, never retried.
type Dispatcher struct {
	sender  Sender
	limiter *rate.Limiter
	queue   chan Notification
	wg      sync.WaitGroup
	once    sync.Once
}

func NewDispatcher(sender Sender, perSecond float64, workers int) *Dispatcher {
	if workers < 1 {
		workers = 1
	}
	d := &Dispatcher{
		sender:  sender,
		limiter: rate.NewLimiter(rate.Limit(perSecond), int(perSecond)+1),
		queue:   make(chan Notification, queueSize),
	}
	for i := 0; i < workers; i++ {
		d.wg.Add(1)
		go d.work()
	}
	return d
}

// Notify enqueues without blocking. Recipients without a messaging id are
// skipped; a full queue drops the notification with a warning.
func (d *Dispatcher) Notify(_ context.Context, notifications ...Notification) {
	for _, n := range notifications {
		if n.To == "" {
			continue
		}
		select {
		case d.queue <- n:
		default:
			slog.Warn("notification queue full, dropping", "kind", string(n.Kind))
			metrics.Notification(string(n.Kind), false)
		}
	}
}

func (d *Dispatcher) work() {
	defer d.wg.Done()
	for n := range d.queue {
		ctx := context.Background()
		if err := d.limiter.Wait(ctx); err != nil {
			slog.Warn("notification limiter wait failed", "error", err)
		}
		err := d.sender.Send(ctx, n)
		metrics.Notification(string(n.Kind), err == nil)
		if err != nil {
			slog.Error("notification delivery failed", "kind", string(n.Kind), "error", err)
		}
	}
}

// Stop drains the queue and waits for in-flight deliveries.
func (d *Dispatcher) Stop() {
	d.once.Do(func() { close(d.queue) })
	d.wg.Wait()
}
