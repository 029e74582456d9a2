// Package memory provides an in-process transaction log for tests and
// embedded use. Entries are lost when the process exits.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/xraph/coffer/txlog"
)

var _ txlog.Log = (*Log)(nil)

// Log keeps entries in a slice guarded by a mutex.
type Log struct {
	mu      sync.RWMutex
	entries []txlog.Entry
	now     func() time.Time
	closed  bool
}

// Option configures a Log.
type Option func(*Log)

// WithClock overrides the timestamp source.
func WithClock(now func() time.Time) Option {
	return func(l *Log) { l.now = now }
}

// New creates an empty log.
func New(opts ...Option) *Log {
	l := &Log{now: time.Now}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Append implements txlog.Log.
func (l *Log) Append(_ context.Context, message string) (txlog.Entry, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return txlog.Entry{}, txlog.ErrClosed
	}
	e := txlog.NewEntry(l.now(), message)
	l.entries = append(l.entries, e)
	return e, nil
}

// ReadAll implements txlog.Log.
func (l *Log) ReadAll(_ context.Context) ([]txlog.Entry, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]txlog.Entry, len(l.entries))
	copy(out, l.entries)
	return out, nil
}

// Len returns the number of entries written so far.
func (l *Log) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.entries)
}

// Close implements txlog.Log. Entries stay readable after close.
func (l *Log) Close() error {
	l.mu.Lock()
	l.closed = true
	l.mu.Unlock()
	return nil
}
