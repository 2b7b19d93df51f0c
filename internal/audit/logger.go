package audit

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/glowbook/glowbook/internal/platform/database"
	"github.com/prometheus/client_golang/prometheus"
)

// LoggerConfig configures the async audit logger.
type LoggerConfig struct {
	BufferSize    int
	BatchSize     int
	FlushInterval time.Duration
}

// BatchWriter persists a batch of events.
type BatchWriter interface {
	InsertBatch(ctx context.Context, db database.Querier, events []Event) error
}

// LoggerOption configures an AsyncLogger.
type LoggerOption func(*AsyncLogger)

// WithDropCounter counts events dropped because the buffer was full.
func WithDropCounter(c prometheus.Counter) LoggerOption {
	return func(l *AsyncLogger) {
		l.dropped = c
	}
}

// AsyncLogger implements Logger with a buffered channel and background worker.
type AsyncLogger struct {
	ch      chan Event
	writer  BatchWriter
	db      database.Querier
	cfg     LoggerConfig
	dropped prometheus.Counter
	wg      sync.WaitGroup
	cancel  context.CancelFunc
	once    sync.Once
}

// NewAsyncLogger creates and starts an async audit logger.
func NewAsyncLogger(db database.Querier, writer BatchWriter, cfg LoggerConfig, opts ...LoggerOption) *AsyncLogger {
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = 4096
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 100
	}
	if cfg.FlushInterval <= 0 {
		cfg.FlushInterval = 500 * time.Millisecond
	}

	ctx, cancel := context.WithCancel(context.Background())
	l := &AsyncLogger{
		ch:     make(chan Event, cfg.BufferSize),
		writer: writer,
		db:     db,
		cfg:    cfg,
		cancel: cancel,
	}
	for _, opt := range opts {
		opt(l)
	}

	l.wg.Add(1)
	go l.worker(ctx)
	return l
}

// Log enqueues an audit event. Never blocks the caller; drops if the buffer is full.
func (l *AsyncLogger) Log(ctx context.Context, event Event) {
	select {
	case l.ch <- event:
	default:
		if l.dropped != nil {
			l.dropped.Inc()
		}
		slog.WarnContext(ctx, "audit buffer full, dropping event", "action", event.Action)
	}
}

// Close flushes remaining events and stops the worker. Safe to call more than once.
func (l *AsyncLogger) Close() error {
	l.once.Do(func() {
		l.cancel()
		l.wg.Wait()
		l.flush(l.drainAll())
	})
	return nil
}

func (l *AsyncLogger) worker(ctx context.Context) {
	defer l.wg.Done()

	ticker := time.NewTicker(l.cfg.FlushInterval)
	defer ticker.Stop()

	batch := make([]Event, 0, l.cfg.BatchSize)
	for {
		select {
		case <-ctx.Done():
			l.flush(append(batch, l.drainAll()...))
			return
		case e := <-l.ch:
			batch = append(batch, e)
			if len(batch) >= l.cfg.BatchSize {
				l.flush(batch)
				batch = make([]Event, 0, l.cfg.BatchSize)
			}
		case <-ticker.C:
			if len(batch) > 0 {
				l.flush(batch)
				batch = make([]Event, 0, l.cfg.BatchSize)
			}
		}
	}
}

func (l *AsyncLogger) flush(events []Event) {
	if len(events) == 0 {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := l.writer.InsertBatch(ctx, l.db, events); err != nil {
		slog.Error("audit flush failed", "error", err, "count", len(events))
	}
}

func (l *AsyncLogger) drainAll() []Event {
	var events []Event
	for {
		select {
		case e := <-l.ch:
			events = append(events, e)
		default:
			return events
		}
	}
}
