package store

import (
	"context"

	"github.com/xraph/coffer/account"
)

// Store is the unified storage interface for Coffer balances.
//
// Implementations must be safe for concurrent use. A failed write must leave
// no partial state visible to later reads.
type Store interface {
	// GetBalance returns the record for account, or coffer.ErrNotFound.
	GetBalance(ctx context.Context, account string) (*account.Balance, error)
	// SetBalance inserts or overwrites one record.
	SetBalance(ctx context.Context, b *account.Balance) error
	// SetBalances writes all records as one atomic unit.
	SetBalances(ctx context.Context, bs []*account.Balance) error
	// ClearBalances removes every record.
	ClearBalances(ctx context.Context) error
	// ListBalances returns a snapshot of every record, in no particular order.
	ListBalances(ctx context.Context) ([]*account.Balance, error)

	// Core methods
	Migrate(ctx context.Context) error
	Ping(ctx context.Context) error
	Close() error
}

var _ account.Store = (Store)(nil)
