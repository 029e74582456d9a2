// Package file provides the durable transaction log: a plain text file with
// one entry per line, opened in append mode and synced after every write.
package file

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/xraph/coffer/txlog"
)

var _ txlog.Log = (*Log)(nil)

// maxLineSize bounds a single entry when reading back.
const maxLineSize = 1 << 20

// Log appends entries to a file.
type Log struct {
	mu     sync.Mutex
	path   string
	f      *os.File
	now    func() time.Time
	noSync bool
}

// Option configures a Log.
type Option func(*Log)

// WithClock overrides the timestamp source.
func WithClock(now func() time.Time) Option {
	return func(l *Log) { l.now = now }
}

// WithoutSync skips the fsync after each append. Entries then survive a
// process crash but not a power loss.
func WithoutSync() Option {
	return func(l *Log) { l.noSync = true }
}

// Open opens (creating if needed) the log at path. Missing parent
// directories are created.
func Open(path string, opts ...Option) (*Log, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("coffer/txlog: create log dir: %w", err)
		}
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("coffer/txlog: open %s: %w", path, err)
	}

	l := &Log{path: path, f: f, now: time.Now}
	for _, opt := range opts {
		opt(l)
	}
	return l, nil
}

// Path returns the file backing the log.
func (l *Log) Path() string { return l.path }

// Append implements txlog.Log. The entry is written with a single write
// call so concurrent readers never observe half a line from this process.
func (l *Log) Append(ctx context.Context, message string) (txlog.Entry, error) {
	if err := ctx.Err(); err != nil {
		return txlog.Entry{}, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.f == nil {
		return txlog.Entry{}, txlog.ErrClosed
	}

	e := txlog.NewEntry(l.now(), message)
	if _, err := l.f.WriteString(e.String() + "\n"); err != nil {
		return txlog.Entry{}, fmt.Errorf("coffer/txlog: append: %w", err)
	}
	if !l.noSync {
		if err := l.f.Sync(); err != nil {
			return txlog.Entry{}, fmt.Errorf("coffer/txlog: sync: %w", err)
		}
	}
	return e, nil
}

// ReadAll implements txlog.Log. Lines that do not parse are returned as
// entries with a zero Time and the raw line as Message.
func (l *Log) ReadAll(ctx context.Context) ([]txlog.Entry, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	f, err := os.Open(l.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("coffer/txlog: read: %w", err)
	}
	defer f.Close()

	return readEntries(ctx, f)
}

// Close implements txlog.Log.
func (l *Log) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.f == nil {
		return nil
	}
	err := l.f.Close()
	l.f = nil
	return err
}

func readEntries(ctx context.Context, r io.Reader) ([]txlog.Entry, error) {
	var entries []txlog.Entry

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	for sc.Scan() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		line := sc.Text()
		if line == "" {
			continue
		}
		e, err := txlog.ParseEntry(line)
		if err != nil {
			e = txlog.Entry{Message: line}
		}
		entries = append(entries, e)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("coffer/txlog: scan: %w", err)
	}
	return entries, nil
}
