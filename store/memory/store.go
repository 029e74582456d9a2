// Package memory provides an in-process balance store. Nothing survives a
// restart; use it for tests and ephemeral ledgers.
package memory

import (
	"context"
	"sync"

	"github.com/xraph/coffer"
	"github.com/xraph/coffer/account"
	cofferstore "github.com/xraph/coffer/store"
)

// compile-time interface check
var _ cofferstore.Store = (*Store)(nil)

// Store keeps balances in a map guarded by a RWMutex. Records are copied on
// the way in and out so callers never share memory with the store.
type Store struct {
	mu       sync.RWMutex
	balances map[string]*account.Balance
	closed   bool
}

// New creates an empty store.
func New() *Store {
	return &Store{
		balances: make(map[string]*account.Balance),
	}
}

func (s *Store) GetBalance(_ context.Context, acct string) (*account.Balance, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, coffer.ErrStoreClosed
	}
	if b, ok := s.balances[acct]; ok {
		return b.Clone(), nil
	}
	return nil, coffer.ErrNotFound
}

func (s *Store) SetBalance(_ context.Context, b *account.Balance) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return coffer.ErrStoreClosed
	}
	s.balances[b.Account] = b.Clone()
	return nil
}

// SetBalances applies every record under a single lock acquisition, so
// readers observe either none or all of them.
func (s *Store) SetBalances(_ context.Context, bs []*account.Balance) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return coffer.ErrStoreClosed
	}
	for _, b := range bs {
		s.balances[b.Account] = b.Clone()
	}
	return nil
}

func (s *Store) ClearBalances(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return coffer.ErrStoreClosed
	}
	s.balances = make(map[string]*account.Balance)
	return nil
}

func (s *Store) ListBalances(_ context.Context) ([]*account.Balance, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, coffer.ErrStoreClosed
	}
	out := make([]*account.Balance, 0, len(s.balances))
	for _, b := range s.balances {
		out = append(out, b.Clone())
	}
	return out, nil
}

// Migrate is a no-op for the memory store.
func (s *Store) Migrate(_ context.Context) error {
	return nil
}

// Ping reports ErrStoreClosed after Close.
func (s *Store) Ping(_ context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return coffer.ErrStoreClosed
	}
	return nil
}

// Close marks the store closed. Later calls fail with ErrStoreClosed.
func (s *Store) Close() error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	return nil
}
