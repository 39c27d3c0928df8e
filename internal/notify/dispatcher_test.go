package notify

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

type fakeSender struct {
	mu   sync.Mutex
	sent []Notification
	fail bool
}

func (f *fakeSender) Send(_ context.Context, n Notification) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, n)
	if f.fail {
		return errors.New("provider down")
	}
	return nil
}

func TestDispatcherDeliversAndSkipsAnonymous(t *testing.T) {
	s := &fakeSender{}
	d := NewDispatcher(s, 100, 2)

	d.Notify(context.Background(),
		Notification{To: "U1", Kind: KindMatch},
		Notification{To: "", Kind: KindMatch},
		Notification{To: "U2", Kind: KindGroupInvite},
	)
	d.Stop()

	assert.Len(t, s.sent, 2)
}

func TestDispatcherSwallowsFailures(t *testing.T) {
	s := &fakeSender{fail: true}
	d := NewDispatcher(s, 100, 1)

	assert.NotPanics(t, func() {
		d.Notify(context.Background(), Notification{To: "U1", Kind: KindReminder})
		d.Stop()
	})
	assert.Len(t, s.sent, 1)
}

func TestStopIsIdempotent(t *testing.T) {
	d := NewDispatcher(&fakeSender{}, 10, 1)
	d.Stop()
	assert.NotPanics(t, d.Stop)
}
