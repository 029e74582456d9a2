// Package audithook bridges Coffer balance events to an audit trail backend.
//
// It defines a local Recorder interface so the package does not import any
// audit backend directly. Callers inject a RecorderFunc adapter at wiring
// time.
package audithook

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/xraph/coffer/operation"
	"github.com/xraph/coffer/plugin"
	"github.com/xraph/coffer/types"
)

// Compile-time interface checks.
var (
	_ plugin.Plugin              = (*Extension)(nil)
	_ plugin.OnBalanceCredited   = (*Extension)(nil)
	_ plugin.OnBalanceDebited    = (*Extension)(nil)
	_ plugin.OnTransferCompleted = (*Extension)(nil)
	_ plugin.OnBalanceSet        = (*Extension)(nil)
	_ plugin.OnBalanceReset      = (*Extension)(nil)
	_ plugin.OnAllBalancesReset  = (*Extension)(nil)
	_ plugin.OnOperationRejected = (*Extension)(nil)
	_ plugin.OnStorageFailure    = (*Extension)(nil)
)

// Recorder is the interface that audit backends must implement.
type Recorder interface {
	Record(ctx context.Context, event *AuditEvent) error
}

// AuditEvent is a local representation of an audit event.
type AuditEvent struct {
	Action     string         `json:"action"`
	Resource   string         `json:"resource"`
	Category   string         `json:"category"`
	ResourceID string         `json:"resource_id,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	Outcome    string         `json:"outcome"`
	Severity   string         `json:"severity"`
	Reason     string         `json:"reason,omitempty"`
}

// RecorderFunc is an adapter to use a plain function as a Recorder.
type RecorderFunc func(ctx context.Context, event *AuditEvent) error

// Record implements Recorder.
func (f RecorderFunc) Record(ctx context.Context, event *AuditEvent) error {
	return f(ctx, event)
}

// Extension bridges Coffer balance events to an audit trail backend.
type Extension struct {
	recorder Recorder
	enabled  map[string]bool // nil = all enabled
	logger   *slog.Logger
}

// New creates an Extension that emits audit events through the provided Recorder.
func New(r Recorder, opts ...Option) *Extension {
	e := &Extension{
		recorder: r,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Name implements plugin.Plugin.
func (e *Extension) Name() string { return "audit-hook" }

// ──────────────────────────────────────────────────
// Balance hooks
// ──────────────────────────────────────────────────

// OnBalanceCredited implements plugin.OnBalanceCredited.
func (e *Extension) OnBalanceCredited(ctx context.Context, r *operation.Receipt) error {
	return e.recordReceipt(ctx, ActionBalanceCredited, SeverityInfo, CategoryBalance, r)
}

// OnBalanceDebited implements plugin.OnBalanceDebited.
func (e *Extension) OnBalanceDebited(ctx context.Context, r *operation.Receipt) error {
	return e.recordReceipt(ctx, ActionBalanceDebited, SeverityInfo, CategoryBalance, r)
}

// OnTransferCompleted implements plugin.OnTransferCompleted.
func (e *Extension) OnTransferCompleted(ctx context.Context, r *operation.Receipt) error {
	return e.record(ctx, ActionBalanceTransferred, SeverityInfo, OutcomeSuccess,
		ResourceAccount, r.Account, CategoryBalance, nil,
		"operation_id", r.ID.String(),
		"receiver", r.Counterparty,
		"amount", r.Amount.Int64(),
		"sender_balance", r.Balance.Int64(),
		"receiver_balance", r.CounterpartyBalance.Int64(),
		"reason", r.Reason,
	)
}

// OnBalanceSet implements plugin.OnBalanceSet.
func (e *Extension) OnBalanceSet(ctx context.Context, r *operation.Receipt) error {
	return e.recordReceipt(ctx, ActionBalanceSet, SeverityWarning, CategoryAdmin, r)
}

// OnBalanceReset implements plugin.OnBalanceReset.
func (e *Extension) OnBalanceReset(ctx context.Context, r *operation.Receipt) error {
	return e.recordReceipt(ctx, ActionBalanceReset, SeverityWarning, CategoryAdmin, r)
}

// OnAllBalancesReset implements plugin.OnAllBalancesReset.
func (e *Extension) OnAllBalancesReset(ctx context.Context, r *operation.Receipt) error {
	return e.record(ctx, ActionBalanceResetAll, SeverityCritical, OutcomeSuccess,
		ResourceLedger, "", CategoryAdmin, nil,
		"operation_id", r.ID.String(),
		"cleared", r.Amount.Int64(),
	)
}

// ──────────────────────────────────────────────────
// Failure hooks
// ──────────────────────────────────────────────────

// OnOperationRejected implements plugin.OnOperationRejected.
func (e *Extension) OnOperationRejected(ctx context.Context, kind operation.Kind, account string, amount types.Coins, err error) error {
	return e.record(ctx, ActionOperationRejected, SeverityInfo, OutcomeFailure,
		ResourceAccount, account, CategoryBalance, err,
		"kind", string(kind),
		"amount", amount.Int64(),
	)
}

// OnStorageFailure implements plugin.OnStorageFailure.
func (e *Extension) OnStorageFailure(ctx context.Context, kind operation.Kind, account string, committed bool, err error) error {
	severity, outcome := SeverityError, OutcomeFailure
	if committed {
		// The balance changed but its log line is missing.
		severity, outcome = SeverityCritical, OutcomePartial
	}
	return e.record(ctx, ActionStorageFailed, severity, outcome,
		ResourceAccount, account, CategoryStorage, err,
		"kind", string(kind),
		"committed", committed,
	)
}

// ──────────────────────────────────────────────────
// Internal helpers
// ──────────────────────────────────────────────────

func (e *Extension) recordReceipt(ctx context.Context, action, severity, category string, r *operation.Receipt) error {
	return e.record(ctx, action, severity, OutcomeSuccess,
		ResourceAccount, r.Account, category, nil,
		"operation_id", r.ID.String(),
		"amount", r.Amount.Int64(),
		"balance", r.Balance.Int64(),
		"reason", r.Reason,
	)
}

// record builds and sends an audit event if the action is enabled.
func (e *Extension) record(
	ctx context.Context,
	action, severity, outcome string,
	resource, resourceID, category string,
	err error,
	kvPairs ...any,
) error {
	if e.enabled != nil && !e.enabled[action] {
		return nil
	}

	meta := make(map[string]any, len(kvPairs)/2+1)
	for i := 0; i+1 < len(kvPairs); i += 2 {
		key, ok := kvPairs[i].(string)
		if !ok {
			key = fmt.Sprintf("%v", kvPairs[i])
		}
		meta[key] = kvPairs[i+1]
	}

	var reason string
	if err != nil {
		reason = err.Error()
		meta["error"] = err.Error()
	}

	evt := &AuditEvent{
		Action:     action,
		Resource:   resource,
		Category:   category,
		ResourceID: resourceID,
		Metadata:   meta,
		Outcome:    outcome,
		Severity:   severity,
		Reason:     reason,
	}

	if recErr := e.recorder.Record(ctx, evt); recErr != nil {
		e.logger.Warn("audit_hook: failed to record audit event",
			"action", action,
			"resource_id", resourceID,
			"error", recErr,
		)
	}
	return nil
}
