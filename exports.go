package coffer

import (
	"github.com/xraph/coffer/account"
	"github.com/xraph/coffer/operation"
	"github.com/xraph/coffer/types"
)

// Re-export common types for convenience so users don't have to import the
// leaf packages.

// Coins is re-exported from types package.
type Coins = types.Coins

// Entity is re-exported from types package.
type Entity = types.Entity

// Balance is re-exported from account package.
type Balance = account.Balance

// Receipt is re-exported from operation package.
type Receipt = operation.Receipt

// Kind is re-exported from operation package.
type Kind = operation.Kind

// Operation kinds.
const (
	KindCredit   = operation.KindCredit
	KindDebit    = operation.KindDebit
	KindTransfer = operation.KindTransfer
	KindSet      = operation.KindSet
	KindReset    = operation.KindReset
	KindResetAll = operation.KindResetAll
)

// Re-export constructors and helpers.
var (
	ParseCoins       = types.ParseCoins
	NewEntity        = types.NewEntity
	NormalizeAccount = account.Normalize
)
