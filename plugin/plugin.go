// Package plugin provides an extensible plugin system for Coffer.
// Plugins can hook into balance lifecycle events to extend functionality.
// Hooks run after the operation has committed; a failing or slow hook is
// logged and never changes the outcome of the operation.
package plugin

import (
	"context"

	"github.com/xraph/coffer/operation"
	"github.com/xraph/coffer/types"
)

// Plugin is the base interface that all plugins must implement.
type Plugin interface {
	Name() string
}

// ──────────────────────────────────────────────────
// Lifecycle hooks
// ──────────────────────────────────────────────────

// OnInit is called when the engine starts.
type OnInit interface {
	Plugin
	OnInit(ctx context.Context, c interface{}) error
}

// OnShutdown is called when the engine stops.
type OnShutdown interface {
	Plugin
	OnShutdown(ctx context.Context) error
}

// ──────────────────────────────────────────────────
// Balance hooks
// ──────────────────────────────────────────────────

// OnBalanceCredited is called after coins are added to an account.
type OnBalanceCredited interface {
	Plugin
	OnBalanceCredited(ctx context.Context, r *operation.Receipt) error
}

// OnBalanceDebited is called after coins are taken from an account.
type OnBalanceDebited interface {
	Plugin
	OnBalanceDebited(ctx context.Context, r *operation.Receipt) error
}

// OnTransferCompleted is called after coins move between two accounts.
type OnTransferCompleted interface {
	Plugin
	OnTransferCompleted(ctx context.Context, r *operation.Receipt) error
}

// OnBalanceSet is called after an administrative balance overwrite.
type OnBalanceSet interface {
	Plugin
	OnBalanceSet(ctx context.Context, r *operation.Receipt) error
}

// OnBalanceReset is called after a single account is reset to zero.
type OnBalanceReset interface {
	Plugin
	OnBalanceReset(ctx context.Context, r *operation.Receipt) error
}

// OnAllBalancesReset is called after every balance has been cleared.
type OnAllBalancesReset interface {
	Plugin
	OnAllBalancesReset(ctx context.Context, r *operation.Receipt) error
}

// ──────────────────────────────────────────────────
// Failure hooks
// ──────────────────────────────────────────────────

// OnOperationRejected is called when an operation fails validation, for
// example an insufficient balance or a non-positive amount.
type OnOperationRejected interface {
	Plugin
	OnOperationRejected(ctx context.Context, kind operation.Kind, account string, amount types.Coins, err error) error
}

// OnStorageFailure is called when the store or the transaction log fails.
// committed is true when the balance write succeeded and only the log
// append failed.
type OnStorageFailure interface {
	Plugin
	OnStorageFailure(ctx context.Context, kind operation.Kind, account string, committed bool, err error) error
}
