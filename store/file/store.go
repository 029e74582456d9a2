// Package file provides a balance store persisted as a single JSON snapshot.
//
// The snapshot is loaded once by Open. Every mutation builds the next state,
// writes it to a temporary file in the same directory, syncs it and renames
// it over the snapshot. Only after the rename succeeds does the in-memory
// state change, so a failed write leaves both disk and memory untouched.
package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/xraph/coffer"
	"github.com/xraph/coffer/account"
	cofferstore "github.com/xraph/coffer/store"
	"github.com/xraph/coffer/types"
)

// compile-time interface check
var _ cofferstore.Store = (*Store)(nil)

// record is the on-disk value stored under each account key.
type record struct {
	Amount    types.Coins `json:"amount"`
	Name      string      `json:"name,omitempty"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}

// Store is a JSON snapshot store.
type Store struct {
	mu       sync.RWMutex
	path     string
	balances map[string]record
	closed   bool

	// writeFile is swapped in tests to simulate disk failures.
	writeFile func(path string, data []byte) error
}

// Open loads the snapshot at path, creating an empty store if the file does
// not exist yet. Parent directories are created on first write.
func Open(path string) (*Store, error) {
	s := &Store{
		path:      path,
		balances:  make(map[string]record),
		writeFile: atomicWrite,
	}

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		return s, nil
	case err != nil:
		return nil, fmt.Errorf("coffer/file: read %s: %w", path, err)
	}

	if len(data) > 0 {
		if err := json.Unmarshal(data, &s.balances); err != nil {
			return nil, fmt.Errorf("coffer/file: decode %s: %w", path, err)
		}
	}
	return s, nil
}

// Path returns the snapshot location.
func (s *Store) Path() string { return s.path }

func (s *Store) GetBalance(_ context.Context, acct string) (*account.Balance, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, coffer.ErrStoreClosed
	}
	r, ok := s.balances[acct]
	if !ok {
		return nil, coffer.ErrNotFound
	}
	return fromRecord(acct, r), nil
}

func (s *Store) SetBalance(ctx context.Context, b *account.Balance) error {
	return s.SetBalances(ctx, []*account.Balance{b})
}

func (s *Store) SetBalances(_ context.Context, bs []*account.Balance) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return coffer.ErrStoreClosed
	}
	next := maps.Clone(s.balances)
	for _, b := range bs {
		next[b.Account] = toRecord(b)
	}
	return s.commit(next)
}

func (s *Store) ClearBalances(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return coffer.ErrStoreClosed
	}
	return s.commit(make(map[string]record))
}

func (s *Store) ListBalances(_ context.Context) ([]*account.Balance, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, coffer.ErrStoreClosed
	}
	out := make([]*account.Balance, 0, len(s.balances))
	for acct, r := range s.balances {
		out = append(out, fromRecord(acct, r))
	}
	return out, nil
}

// Migrate ensures the snapshot directory exists.
func (s *Store) Migrate(_ context.Context) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("coffer/file: migrate: %w", err)
	}
	return nil
}

// Ping checks that the store is open.
func (s *Store) Ping(_ context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return coffer.ErrStoreClosed
	}
	return nil
}

// Close flushes the current state once more and closes the store.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	return s.flush(s.balances)
}

// commit persists next and, on success, makes it the live state.
func (s *Store) commit(next map[string]record) error {
	if err := s.flush(next); err != nil {
		return err
	}
	s.balances = next
	return nil
}

func (s *Store) flush(state map[string]record) error {
	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("coffer/file: encode: %w", err)
	}
	if err := s.writeFile(s.path, data); err != nil {
		return fmt.Errorf("coffer/file: write %s: %w", s.path, err)
	}
	return nil
}

// atomicWrite writes data to a temp file beside path and renames it into place.
func atomicWrite(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	cleanup := func() { _ = os.Remove(tmpName) } //nolint:errcheck // best-effort temp cleanup

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		cleanup()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		cleanup()
		return err
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		cleanup()
		return err
	}
	return nil
}

func toRecord(b *account.Balance) record {
	return record{
		Amount:    b.Amount,
		Name:      b.Name,
		CreatedAt: b.CreatedAt,
		UpdatedAt: b.UpdatedAt,
	}
}

func fromRecord(acct string, r record) *account.Balance {
	return &account.Balance{
		Entity: types.Entity{
			CreatedAt: r.CreatedAt,
			UpdatedAt: r.UpdatedAt,
		},
		Account: acct,
		Name:    r.Name,
		Amount:  r.Amount,
	}
}
