package coffer

import (
	"cmp"
	"context"
	"slices"
	"strings"

	"github.com/xraph/coffer/account"
	"github.com/xraph/coffer/query"
	"github.com/xraph/coffer/txlog"
	"github.com/xraph/coffer/types"
)

// Standing is one row of the leaderboard.
type Standing struct {
	// Rank is the 1-based position across the whole leaderboard.
	Rank    int         `json:"rank"`
	Account string      `json:"account"`
	Name    string      `json:"name,omitempty"`
	Amount  types.Coins `json:"amount"`
}

// DisplayName returns Name when set, otherwise the account id.
func (s Standing) DisplayName() string {
	if s.Name != "" {
		return s.Name
	}
	return s.Account
}

// AllBalances returns every account holding coins, richest first. Accounts
// with equal balances are ordered by account id. Accounts whose balance is
// zero are left out even though the store still has a record for them.
func (c *Coffer) AllBalances(ctx context.Context) ([]*account.Balance, error) {
	all, err := c.store.ListBalances(ctx)
	if err != nil {
		return nil, &StorageError{Op: "list", Err: err}
	}

	out := make([]*account.Balance, 0, len(all))
	for _, b := range all {
		if b.Amount.IsPositive() {
			out = append(out, b)
		}
	}
	slices.SortFunc(out, compareStanding)
	return out, nil
}

func compareStanding(a, b *account.Balance) int {
	if c := cmp.Compare(b.Amount, a.Amount); c != 0 {
		return c
	}
	return cmp.Compare(a.Account, b.Account)
}

// Leaderboard returns one page of standings. Pages are 1-based; a page
// outside the valid range is clamped to the nearest one.
func (c *Coffer) Leaderboard(ctx context.Context, page int) (*query.Page[Standing], error) {
	all, err := c.AllBalances(ctx)
	if err != nil {
		return nil, err
	}

	standings := make([]Standing, len(all))
	for i, b := range all {
		standings[i] = Standing{
			Rank:    i + 1,
			Account: b.Account,
			Name:    b.Name,
			Amount:  b.Amount,
		}
	}
	return query.Paginate(standings, page, c.leaderboardPageSize), nil
}

// QueryLog returns one page of transaction log entries, newest first.
// A non-empty filter keeps only entries that mention it; the filter is
// normalized like an account id and matched case-insensitively.
func (c *Coffer) QueryLog(ctx context.Context, filter string, page int) (*query.Page[txlog.Entry], error) {
	entries, err := c.log.ReadAll(ctx)
	if err != nil {
		return nil, &StorageError{Op: "read log", Err: err}
	}

	needle := account.Normalize(filter)
	matched := make([]txlog.Entry, 0, len(entries))
	for i := len(entries) - 1; i >= 0; i-- {
		e := entries[i]
		if needle != "" && !strings.Contains(strings.ToLower(e.Message), needle) {
			continue
		}
		matched = append(matched, e)
	}
	return query.Paginate(matched, page, c.logPageSize), nil
}
