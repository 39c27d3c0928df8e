// Package notifytest provides an in-memory notify.Notifier for tests.
package notifytest

import (
	"context"
	"sync"

	"github.com/ahmetcoskunkizilkaya/mealmatch/internal/notify"
)

// Recorder keeps every notification it receives.
type Recorder struct {
	mu   sync.Mutex
	sent []notify.Notification
}

func (r *Recorder) Notify(_ context.Context, notifications ...notify.Notification) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, n := range notifications {
		if n.To == "" {
			continue
		}
		r.sent = append(r.sent, n)
	}
}

func (r *Recorder) All() []notify.Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]notify.Notification(nil), r.sent...)
}

// OfKind filters by kind.
func (r *Recorder) OfKind(kind notify.Kind) []notify.Notification {
	var out []notify.Notification
	for _, n := range r.All() {
		if n.Kind == kind {
			out = append(out, n)
		}
	}
	return out
}

func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = nil
}
