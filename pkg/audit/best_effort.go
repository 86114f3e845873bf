package audit

import (
	"context"
	"sync"
	"time"

	"github.com/coachly/guardrail/pkg/observability"
)

// BestEffort decouples audit persistence from the operations it records.
// Record enqueues and returns immediately; a background worker drains the
// queue into the wrapped sink. A full queue drops the entry, and sink
// failures are logged and counted; neither ever reaches the caller. Audit
// completeness is desirable, but it must not be a single point of failure
// for signups or allowed actions.
type BestEffort struct {
	sink    Logger
	queue   chan *Entry
	logger  *observability.Logger
	metrics *observability.Metrics

	// mu serializes enqueues against Close so no Record can send on the
	// queue after it is closed.
	mu     sync.Mutex
	closed bool

	closeOnce sync.Once
	done      chan struct{}
}

// NewBestEffort wraps a sink with an asynchronous queue of the given size.
func NewBestEffort(sink Logger, queueSize int, logger *observability.Logger, metrics *observability.Metrics) *BestEffort {
	if queueSize <= 0 {
		queueSize = 1024
	}
	b := &BestEffort{
		sink:    sink,
		queue:   make(chan *Entry, queueSize),
		logger:  logger,
		metrics: metrics,
		done:    make(chan struct{}),
	}
	go b.drain()
	return b
}

// Record enqueues the entry and never fails. The entry's timestamp is set
// here if the caller left it zero, so it reflects decision time rather than
// persistence time. Entries arriving after Close are dropped, not panicked
// on.
func (b *BestEffort) Record(_ context.Context, entry *Entry) error {
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now().UTC()
	}

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		b.drop(entry, "audit logger closed, entry dropped")
		return nil
	}
	select {
	case b.queue <- entry:
		b.mu.Unlock()
	default:
		b.mu.Unlock()
		b.drop(entry, "audit queue full, entry dropped")
	}
	return nil
}

func (b *BestEffort) drop(entry *Entry, msg string) {
	if b.metrics != nil {
		b.metrics.AuditDroppedTotal.Inc()
	}
	b.logger.WithField("action", entry.Action).Warn(msg)
}

// Close stops accepting entries, flushes the queue, and closes the sink.
func (b *BestEffort) Close() error {
	b.closeOnce.Do(func() {
		b.mu.Lock()
		b.closed = true
		close(b.queue)
		b.mu.Unlock()
		<-b.done
	})
	return b.sink.Close()
}

func (b *BestEffort) drain() {
	defer close(b.done)
	for entry := range b.queue {
		// Persistence gets its own deadline; the originating request has
		// already moved on.
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		err := b.sink.Record(ctx, entry)
		cancel()

		if err != nil {
			if b.metrics != nil {
				b.metrics.AuditFailuresTotal.Inc()
			}
			b.logger.WithError(err).WithField("action", entry.Action).Error("audit entry failed to persist")
			continue
		}
		if b.metrics != nil {
			b.metrics.AuditEntriesTotal.Inc()
		}
	}
}
