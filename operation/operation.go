// Package operation describes committed balance mutations. A Receipt is
// what the engine returns to callers and what plugins receive.
package operation

import (
	"time"

	"github.com/xraph/coffer/id"
	"github.com/xraph/coffer/types"
)

// Kind identifies the mutation a Receipt describes.
type Kind string

const (
	KindCredit   Kind = "credit"
	KindDebit    Kind = "debit"
	KindTransfer Kind = "transfer"
	KindSet      Kind = "set"
	KindReset    Kind = "reset"
	KindResetAll Kind = "reset_all"
)

// String implements fmt.Stringer.
func (k Kind) String() string { return string(k) }

// IsValid reports whether k is one of the known kinds.
func (k Kind) IsValid() bool {
	switch k {
	case KindCredit, KindDebit, KindTransfer, KindSet, KindReset, KindResetAll:
		return true
	}
	return false
}

// Receipt describes one committed operation.
//
// Account is the party whose balance the operation targets (the sender for
// a transfer). Counterparty and CounterpartyBalance are set for transfers
// only. Balance is the account's balance after the operation. For
// KindResetAll, Account is empty and Amount is the number of coins that
// were cleared.
type Receipt struct {
	ID                  id.OperationID `json:"id"`
	Kind                Kind           `json:"kind"`
	Account             string         `json:"account,omitempty"`
	Counterparty        string         `json:"counterparty,omitempty"`
	Amount              types.Coins    `json:"amount"`
	Balance             types.Coins    `json:"balance"`
	CounterpartyBalance types.Coins    `json:"counterparty_balance,omitempty"`
	Reason              string         `json:"reason,omitempty"`
	At                  time.Time      `json:"at"`
}

// New returns a receipt with a fresh operation ID.
func New(kind Kind, at time.Time) *Receipt {
	return &Receipt{
		ID:   id.NewOperationID(),
		Kind: kind,
		At:   at,
	}
}
