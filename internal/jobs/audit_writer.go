package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rentwise/api/internal/audit"
)

// AuditWriter moves audit events from request handlers to an audit.Sink.
// Submit never blocks; when the queue is full the event is dropped and counted.
type AuditWriter struct {
	sink         audit.Sink
	queue        chan audit.Event
	writeTimeout time.Duration
	dropped      atomic.Int64
	written      atomic.Int64
	stopCh       chan struct{}
	wg           sync.WaitGroup
	running      bool
	mu           sync.Mutex
}

// NewAuditWriter creates a writer with a queue of queueSize events
func NewAuditWriter(sink audit.Sink, queueSize int) *AuditWriter {
	if queueSize <= 0 {
		queueSize = 256
	}
	return &AuditWriter{
		sink:         sink,
		queue:        make(chan audit.Event, queueSize),
		writeTimeout: 5 * time.Second,
		stopCh:       make(chan struct{}),
	}
}

// Submit enqueues an event and reports whether it was accepted
func (w *AuditWriter) Submit(e audit.Event) bool {
	select {
	case w.queue <- e:
		return true
	default:
		n := w.dropped.Add(1)
		slog.Warn("audit queue full, event dropped",
			slog.String("event", e.Event),
			slog.Int64("dropped_total", n),
		)
		return false
	}
}

// Start begins the writer loop
func (w *AuditWriter) Start() {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return
	}
	w.running = true
	w.mu.Unlock()

	w.wg.Add(1)
	go w.run()
	slog.Info("audit writer started", slog.Int("queue_size", cap(w.queue)))
}

// Stop drains queued events until ctx expires, then stops the loop
func (w *AuditWriter) Stop(ctx context.Context) {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	w.running = false
	w.mu.Unlock()

	close(w.stopCh)

	done := make(chan struct{})
	go func() {
		w.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		slog.Info("audit writer stopped",
			slog.Int64("written", w.written.Load()),
			slog.Int64("dropped", w.dropped.Load()),
		)
	case <-ctx.Done():
		slog.Warn("audit writer stop deadline exceeded",
			slog.Int("pending", len(w.queue)),
		)
	}
}

// Dropped returns how many events were rejected because the queue was full
func (w *AuditWriter) Dropped() int64 {
	return w.dropped.Load()
}

// IsRunning returns whether the writer loop is running
func (w *AuditWriter) IsRunning() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.running
}

func (w *AuditWriter) run() {
	defer w.wg.Done()

	for {
		select {
		case e := <-w.queue:
			w.write(e)
		case <-w.stopCh:
			w.drain()
			return
		}
	}
}

func (w *AuditWriter) drain() {
	for {
		select {
		case e := <-w.queue:
			w.write(e)
		default:
			return
		}
	}
}

// write persists one event; sink errors and panics are logged and swallowed
func (w *AuditWriter) write(e audit.Event) {
	ctx, cancel := context.WithTimeout(context.Background(), w.writeTimeout)
	defer cancel()

	defer func() {
		if r := recover(); r != nil {
			slog.Error("audit sink panicked",
				slog.String("event", e.Event),
				slog.String("panic", fmt.Sprint(r)),
			)
		}
	}()

	if err := w.sink.Write(ctx, e); err != nil {
		slog.Error("audit write failed",
			slog.String("event", e.Event),
			slog.String("user_id", e.UserID),
			slog.String("error", err.Error()),
		)
		return
	}
	w.written.Add(1)
}
