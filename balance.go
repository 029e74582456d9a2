package coffer

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/xraph/coffer/account"
	"github.com/xraph/coffer/operation"
	"github.com/xraph/coffer/txlog"
	"github.com/xraph/coffer/types"
)

// ──────────────────────────────────────────────────
// Reads
// ──────────────────────────────────────────────────

// GetBalance returns the balance of an account. An account that has never
// held coins has a balance of zero.
func (c *Coffer) GetBalance(ctx context.Context, acct string) (types.Coins, error) {
	id, err := canonical(acct)
	if err != nil {
		return 0, err
	}
	b, err := c.load(ctx, id)
	if err != nil {
		return 0, &StorageError{Op: "get", Account: id, Err: err}
	}
	return b.Amount, nil
}

// HasBalance reports whether an account holds at least amount coins.
func (c *Coffer) HasBalance(ctx context.Context, acct string, amount types.Coins) (bool, error) {
	bal, err := c.GetBalance(ctx, acct)
	if err != nil {
		return false, err
	}
	return bal >= amount, nil
}

// ──────────────────────────────────────────────────
// Mutations
// ──────────────────────────────────────────────────
//
// Every mutation returns a Receipt describing what was committed. When the
// returned error satisfies IsCommitted, the balance change was written but
// its log entry was not; the receipt is returned alongside the error.

// AddMoney credits amount coins to an account.
func (c *Coffer) AddMoney(ctx context.Context, acct string, amount types.Coins, reason string) (*Receipt, error) {
	const kind = operation.KindCredit

	id, err := canonical(acct)
	if err != nil {
		return c.finish(ctx, kind, acct, amount, nil, err)
	}
	if !amount.IsPositive() {
		return c.finish(ctx, kind, id, amount, nil, invalidAmount(amount))
	}
	reason = c.reason(reason)

	c.mu.Lock()
	rc, err := c.credit(ctx, id, amount, reason)
	c.mu.Unlock()

	return c.finish(ctx, kind, id, amount, rc, err)
}

func (c *Coffer) credit(ctx context.Context, id string, amount types.Coins, reason string) (*Receipt, error) {
	if c.stopped {
		return nil, &StorageError{Op: "add", Account: id, Err: ErrStoreClosed}
	}
	b, err := c.load(ctx, id)
	if err != nil {
		return nil, &StorageError{Op: "add", Account: id, Err: err}
	}
	next, err := b.Amount.Add(amount)
	if err != nil {
		return nil, fmt.Errorf("%w: %s + %s", ErrBalanceOverflow, b.Amount, amount)
	}

	now := c.now()
	b.Amount = next
	b.TouchAt(now)
	if err := c.store.SetBalance(ctx, b); err != nil {
		return nil, &StorageError{Op: "add", Account: id, Err: err}
	}

	rc := operation.New(operation.KindCredit, now)
	rc.Account = id
	rc.Amount = amount
	rc.Balance = next
	rc.Reason = reason

	if err := c.appendLog(ctx, txlog.CreditMessage(id, amount, reason)); err != nil {
		return rc, &StorageError{Op: "add", Account: id, Committed: true, Err: err}
	}
	return rc, nil
}

// TakeMoney debits amount coins from an account. It fails with
// ErrInsufficientFunds, leaving the balance untouched, when the account
// holds less than amount.
func (c *Coffer) TakeMoney(ctx context.Context, acct string, amount types.Coins, reason string) (*Receipt, error) {
	const kind = operation.KindDebit

	id, err := canonical(acct)
	if err != nil {
		return c.finish(ctx, kind, acct, amount, nil, err)
	}
	if !amount.IsPositive() {
		return c.finish(ctx, kind, id, amount, nil, invalidAmount(amount))
	}
	reason = c.reason(reason)

	c.mu.Lock()
	rc, err := c.debit(ctx, id, amount, reason)
	c.mu.Unlock()

	return c.finish(ctx, kind, id, amount, rc, err)
}

func (c *Coffer) debit(ctx context.Context, id string, amount types.Coins, reason string) (*Receipt, error) {
	if c.stopped {
		return nil, &StorageError{Op: "take", Account: id, Err: ErrStoreClosed}
	}
	b, err := c.load(ctx, id)
	if err != nil {
		return nil, &StorageError{Op: "take", Account: id, Err: err}
	}
	if b.Amount < amount {
		return nil, insufficient(id, b.Amount, amount)
	}

	now := c.now()
	b.Amount -= amount
	b.TouchAt(now)
	if err := c.store.SetBalance(ctx, b); err != nil {
		return nil, &StorageError{Op: "take", Account: id, Err: err}
	}

	rc := operation.New(operation.KindDebit, now)
	rc.Account = id
	rc.Amount = amount
	rc.Balance = b.Amount
	rc.Reason = reason

	if err := c.appendLog(ctx, txlog.DebitMessage(id, amount, reason)); err != nil {
		return rc, &StorageError{Op: "take", Account: id, Committed: true, Err: err}
	}
	return rc, nil
}

// TransferMoney moves amount coins from sender to receiver. Both balances
// are written in a single store operation, so no reader ever sees the
// coins missing from both accounts or present in both.
//
// Three log entries follow the write: the sender's TAKE, the receiver's
// ADD and a TRANSFER summary carrying reason.
func (c *Coffer) TransferMoney(ctx context.Context, sender, receiver string, amount types.Coins, reason string) (*Receipt, error) {
	const kind = operation.KindTransfer

	from, err := canonical(sender)
	if err != nil {
		return c.finish(ctx, kind, sender, amount, nil, err)
	}
	to, err := canonical(receiver)
	if err != nil {
		return c.finish(ctx, kind, from, amount, nil, err)
	}
	if from == to {
		return c.finish(ctx, kind, from, amount, nil, ErrInvalidAccountPair)
	}
	if !amount.IsPositive() {
		return c.finish(ctx, kind, from, amount, nil, invalidAmount(amount))
	}
	reason = c.reason(reason)

	c.mu.Lock()
	rc, err := c.transfer(ctx, from, to, amount, reason)
	c.mu.Unlock()

	return c.finish(ctx, kind, from, amount, rc, err)
}

func (c *Coffer) transfer(ctx context.Context, from, to string, amount types.Coins, reason string) (*Receipt, error) {
	if c.stopped {
		return nil, &StorageError{Op: "transfer", Account: from, Err: ErrStoreClosed}
	}
	src, err := c.load(ctx, from)
	if err != nil {
		return nil, &StorageError{Op: "transfer", Account: from, Err: err}
	}
	dst, err := c.load(ctx, to)
	if err != nil {
		return nil, &StorageError{Op: "transfer", Account: to, Err: err}
	}
	if src.Amount < amount {
		return nil, insufficient(from, src.Amount, amount)
	}
	credited, err := dst.Amount.Add(amount)
	if err != nil {
		return nil, fmt.Errorf("%w: %s + %s", ErrBalanceOverflow, dst.Amount, amount)
	}

	now := c.now()
	src.Amount -= amount
	src.TouchAt(now)
	dst.Amount = credited
	dst.TouchAt(now)
	if err := c.store.SetBalances(ctx, []*account.Balance{src, dst}); err != nil {
		return nil, &StorageError{Op: "transfer", Account: from, Err: err}
	}

	rc := operation.New(operation.KindTransfer, now)
	rc.Account = from
	rc.Counterparty = to
	rc.Amount = amount
	rc.Balance = src.Amount
	rc.CounterpartyBalance = dst.Amount
	rc.Reason = reason

	for _, msg := range []string{
		txlog.DebitMessage(from, amount, txlog.TransferOutReason(to)),
		txlog.CreditMessage(to, amount, txlog.TransferInReason(from)),
		txlog.TransferMessage(from, to, amount, reason),
	} {
		if err := c.appendLog(ctx, msg); err != nil {
			return rc, &StorageError{Op: "transfer", Account: from, Committed: true, Err: err}
		}
	}
	return rc, nil
}

// SetBalance overwrites an account's balance. It is an administrative
// operation; amount may be zero but not negative.
func (c *Coffer) SetBalance(ctx context.Context, acct string, amount types.Coins) (*Receipt, error) {
	const kind = operation.KindSet

	id, err := canonical(acct)
	if err != nil {
		return c.finish(ctx, kind, acct, amount, nil, err)
	}
	if amount.IsNegative() {
		return c.finish(ctx, kind, id, amount, nil, invalidAmount(amount))
	}

	c.mu.Lock()
	rc, err := c.overwrite(ctx, kind, id, amount, "")
	c.mu.Unlock()

	return c.finish(ctx, kind, id, amount, rc, err)
}

// ResetBalance sets an account's balance to zero. Resetting an account
// that is already at zero succeeds and is logged again.
func (c *Coffer) ResetBalance(ctx context.Context, acct, reason string) (*Receipt, error) {
	const kind = operation.KindReset

	id, err := canonical(acct)
	if err != nil {
		return c.finish(ctx, kind, acct, 0, nil, err)
	}
	reason = c.reason(reason)

	c.mu.Lock()
	rc, err := c.overwrite(ctx, kind, id, 0, reason)
	c.mu.Unlock()

	return c.finish(ctx, kind, id, 0, rc, err)
}

// overwrite backs SetBalance and ResetBalance. For a reset the receipt's
// Amount is the balance that was cleared.
func (c *Coffer) overwrite(ctx context.Context, kind operation.Kind, id string, amount types.Coins, reason string) (*Receipt, error) {
	op := string(kind)
	if c.stopped {
		return nil, &StorageError{Op: op, Account: id, Err: ErrStoreClosed}
	}
	b, err := c.load(ctx, id)
	if err != nil {
		return nil, &StorageError{Op: op, Account: id, Err: err}
	}
	prev := b.Amount

	now := c.now()
	b.Amount = amount
	b.TouchAt(now)
	if err := c.store.SetBalance(ctx, b); err != nil {
		return nil, &StorageError{Op: op, Account: id, Err: err}
	}

	rc := operation.New(kind, now)
	rc.Account = id
	rc.Amount = amount
	rc.Balance = amount
	rc.Reason = reason

	msg := txlog.SetMessage(id, amount)
	if kind == operation.KindReset {
		rc.Amount = prev
		msg = txlog.ResetMessage(id, reason)
	}

	if err := c.appendLog(ctx, msg); err != nil {
		return rc, &StorageError{Op: op, Account: id, Committed: true, Err: err}
	}
	return rc, nil
}

// ResetAllBalances removes every balance record. Authorization is the
// caller's responsibility.
func (c *Coffer) ResetAllBalances(ctx context.Context) error {
	const kind = operation.KindResetAll

	c.mu.Lock()
	rc, err := c.resetAll(ctx)
	c.mu.Unlock()

	_, err = c.finish(ctx, kind, "", 0, rc, err)
	return err
}

func (c *Coffer) resetAll(ctx context.Context) (*Receipt, error) {
	const op = "reset all"
	if c.stopped {
		return nil, &StorageError{Op: op, Err: ErrStoreClosed}
	}
	all, err := c.store.ListBalances(ctx)
	if err != nil {
		return nil, &StorageError{Op: op, Err: err}
	}
	if err := c.store.ClearBalances(ctx); err != nil {
		return nil, &StorageError{Op: op, Err: err}
	}

	rc := operation.New(operation.KindResetAll, c.now())
	// Amount stays zero if the cleared total does not fit in int64.
	amounts := make([]types.Coins, len(all))
	for i, b := range all {
		amounts[i] = b.Amount
	}
	if total, err := types.Sum(amounts...); err == nil {
		rc.Amount = total
	}

	if err := c.appendLog(ctx, txlog.ResetAllMessage()); err != nil {
		return rc, &StorageError{Op: op, Committed: true, Err: err}
	}
	return rc, nil
}

// SetDisplayName stores the name shown for an account on the leaderboard.
// The balance is not touched and nothing is logged. An empty name clears
// it.
func (c *Coffer) SetDisplayName(ctx context.Context, acct, name string) error {
	id, err := canonical(acct)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.stopped {
		return &StorageError{Op: "rename", Account: id, Err: ErrStoreClosed}
	}
	b, err := c.load(ctx, id)
	if err != nil {
		return &StorageError{Op: "rename", Account: id, Err: err}
	}
	b.Name = strings.TrimSpace(name)
	b.TouchAt(c.now())
	if err := c.store.SetBalance(ctx, b); err != nil {
		c.logger.Error("coffer: set display name failed", "account", id, "error", err)
		return &StorageError{Op: "rename", Account: id, Err: err}
	}
	return nil
}

// ──────────────────────────────────────────────────
// Helpers
// ──────────────────────────────────────────────────

// canonical normalizes a raw account identifier and rejects one that is
// empty after normalization.
func canonical(raw string) (string, error) {
	id := account.Normalize(raw)
	if id == "" {
		return "", fmt.Errorf("%w: %q", ErrInvalidAccount, raw)
	}
	return id, nil
}

// load returns the stored record for id, or a fresh zero record when the
// account has none.
func (c *Coffer) load(ctx context.Context, id string) (*account.Balance, error) {
	b, err := c.store.GetBalance(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return &account.Balance{Account: id}, nil
		}
		return nil, err
	}
	return b.Clone(), nil
}

// appendLog writes one log entry. The balance write it records has
// already committed, so the caller's cancellation no longer applies.
func (c *Coffer) appendLog(ctx context.Context, msg string) error {
	_, err := c.log.Append(context.WithoutCancel(ctx), msg)
	return err
}

func (c *Coffer) reason(r string) string {
	if strings.TrimSpace(r) == "" {
		return c.defaultReason
	}
	return r
}

func invalidAmount(amount types.Coins) error {
	return fmt.Errorf("%w: got %s", ErrInvalidAmount, amount)
}

func insufficient(id string, have, want types.Coins) error {
	return fmt.Errorf("%w: %s has %s, needs %s", ErrInsufficientFunds, id, have, want)
}

// finish logs the outcome of a mutation and notifies plugins. Plugins run
// after the engine lock is released.
func (c *Coffer) finish(ctx context.Context, kind operation.Kind, acct string, amount types.Coins, rc *Receipt, err error) (*Receipt, error) {
	var se *StorageError
	switch {
	case err == nil:
	case errors.As(err, &se):
		if se.Committed {
			c.logger.Warn("coffer: balance committed but log append failed",
				"op", se.Op,
				"account", acct,
				"error", se.Err,
			)
		} else {
			c.logger.Error("coffer: storage failure",
				"op", se.Op,
				"account", acct,
				"error", se.Err,
			)
		}
		c.plugins.EmitStorageFailure(ctx, kind, acct, se.Committed, se.Err)
		if !se.Committed {
			return nil, err
		}
	default:
		c.logger.Debug("coffer: operation rejected",
			"kind", kind,
			"account", acct,
			"amount", amount.Int64(),
			"error", err,
		)
		c.plugins.EmitOperationRejected(ctx, kind, acct, amount, err)
		return nil, err
	}

	c.logger.Debug("coffer: operation committed",
		"operation_id", rc.ID.String(),
		"kind", rc.Kind,
		"account", rc.Account,
		"counterparty", rc.Counterparty,
		"amount", rc.Amount.Int64(),
		"balance", rc.Balance.Int64(),
	)
	c.plugins.EmitReceipt(ctx, rc)

	return rc, err
}
