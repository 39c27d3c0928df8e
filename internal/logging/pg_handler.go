package logging

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/ahmetcoskunkizilkaya/mealmatch/internal/models"
	"gorm.io/gorm"
)

const (
	defaultPGBatch    = 50
	defaultPGInterval = 5 * time.Second
)

type PGOption func(*pgSink)

// WithBatchSize wakes the writer as soon as n rows are pending.
func WithBatchSize(n int) PGOption {
	return func(s *pgSink) {
		if n > 0 {
			s.batch = n
		}
	}
}

// WithFlushInterval sets how often pending rows are written regardless of size.
func WithFlushInterval(d time.Duration) PGOption {
	return func(s *pgSink) {
		if d > 0 {
			s.interval = d
		}
	}
}

// PGHandler is an slog.Handler that stores ERROR+ records in system_logs.
// Handlers derived through WithAttrs and WithGroup share one sink.
type PGHandler struct {
	sink   *pgSink
	scoped []slog.Attr
	prefix string
}

func NewPGHandler(db *gorm.DB, opts ...PGOption) *PGHandler {
	s := &pgSink{
		db:       db,
		batch:    defaultPGBatch,
		interval: defaultPGInterval,
		wake:     make(chan struct{}, 1),
		quit:     make(chan struct{}),
		exited:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	go s.run()
	return &PGHandler{sink: s}
}

// Stop writes whatever is pending and waits for the writer to exit.
func (h *PGHandler) Stop() { h.sink.stop() }

func (h *PGHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= slog.LevelError
}

func (h *PGHandler) Handle(_ context.Context, record slog.Record) error {
	h.sink.add(rowFor(record, h.scoped, h.prefix))
	return nil
}

func (h *PGHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	if len(attrs) == 0 {
		return h
	}
	scoped := append([]slog.Attr{}, h.scoped...)
	for _, a := range attrs {
		flatten(h.prefix, a, func(key string, v slog.Value) {
			scoped = append(scoped, slog.Attr{Key: key, Value: v})
		})
	}
	return &PGHandler{sink: h.sink, scoped: scoped, prefix: h.prefix}
}

func (h *PGHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	return &PGHandler{sink: h.sink, scoped: h.scoped, prefix: h.prefix + name + "."}
}

// pgSink buffers rows for a single writer goroutine.
type pgSink struct {
	db       *gorm.DB
	batch    int
	interval time.Duration

	mu      sync.Mutex
	pending []models.SystemLog

	wake     chan struct{}
	quit     chan struct{}
	exited   chan struct{}
	stopOnce sync.Once
}

func (s *pgSink) add(row models.SystemLog) {
	s.mu.Lock()
	s.pending = append(s.pending, row)
	full := len(s.pending) >= s.batch
	s.mu.Unlock()

	if full {
		select {
		case s.wake <- struct{}{}:
		default:
		}
	}
}

func (s *pgSink) run() {
	defer close(s.exited)
	tick := time.NewTicker(s.interval)
	defer tick.Stop()

	for {
		select {
		case <-tick.C:
			s.write()
		case <-s.wake:
			s.write()
		case <-s.quit:
			s.write()
			return
		}
	}
}

func (s *pgSink) write() {
	s.mu.Lock()
	rows := s.pending
	s.pending = nil
	s.mu.Unlock()

	if len(rows) == 0 {
		return
	}
	if err := s.db.CreateInBatches(rows, s.batch).Error; err != nil {
		// Below this handler's level, so the failure is not fed back into the sink.
		slog.Warn("failed to write system logs", "error", err, "count", len(rows))
	}
}

func (s *pgSink) stop() {
	s.stopOnce.Do(func() { close(s.quit) })
	<-s.exited
}
