package audit

import "context"

// Logger is the interface for audit sinks
type Logger interface {
	// Record persists one audit entry.
	Record(ctx context.Context, entry *Entry) error

	// Close flushes any buffered entries and releases resources.
	Close() error
}

// NopLogger discards all entries
type NopLogger struct{}

// Record discards the entry.
func (NopLogger) Record(ctx context.Context, entry *Entry) error { return nil }

// Close is a no-op.
func (NopLogger) Close() error { return nil }

// MultiLogger fans entries out to several sinks. Each sink is best-effort:
// a failing sink does not stop the others, and the first error is returned
// only so wrappers can count it.
type MultiLogger struct {
	sinks []Logger
}

// NewMultiLogger creates a fan-out logger.
func NewMultiLogger(sinks ...Logger) *MultiLogger {
	return &MultiLogger{sinks: sinks}
}

// Record sends the entry to every sink.
func (m *MultiLogger) Record(ctx context.Context, entry *Entry) error {
	var firstErr error
	for _, sink := range m.sinks {
		if err := sink.Record(ctx, entry); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Close closes every sink.
func (m *MultiLogger) Close() error {
	var firstErr error
	for _, sink := range m.sinks {
		if err := sink.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
