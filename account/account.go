// Package account defines account identifiers and the persisted balance
// record.
package account

import (
	"context"
	"strings"

	"github.com/xraph/coffer/types"
)

// Normalize returns the canonical form of an account identifier: lower-cased
// with every character outside [a-z0-9] removed. "Alice B." and "aliceb"
// name the same account. The result may be empty.
func Normalize(raw string) string {
	var b strings.Builder
	b.Grow(len(raw))
	for _, r := range strings.ToLower(raw) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Balance is the stored state of one account. An account without a record
// has a balance of zero.
type Balance struct {
	types.Entity

	Account string      `json:"account"`
	Name    string      `json:"name,omitempty"`
	Amount  types.Coins `json:"amount"`
}

// Clone returns a copy that does not alias b.
func (b *Balance) Clone() *Balance {
	if b == nil {
		return nil
	}
	c := *b
	return &c
}

// DisplayName returns Name when set, otherwise the account id.
func (b *Balance) DisplayName() string {
	if b.Name != "" {
		return b.Name
	}
	return b.Account
}

// Store persists balance records.
type Store interface {
	GetBalance(ctx context.Context, account string) (*Balance, error)
	SetBalance(ctx context.Context, b *Balance) error
	SetBalances(ctx context.Context, bs []*Balance) error
	ClearBalances(ctx context.Context) error
	ListBalances(ctx context.Context) ([]*Balance, error)
}
