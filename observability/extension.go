// Package observability provides a metrics extension for Coffer that records
// balance event counts through a MetricFactory.
package observability

import (
	"context"
	"errors"

	"github.com/xraph/coffer"
	"github.com/xraph/coffer/operation"
	"github.com/xraph/coffer/plugin"
	"github.com/xraph/coffer/types"
)

// Ensure MetricsExtension implements required interfaces.
var (
	_ plugin.Plugin              = (*MetricsExtension)(nil)
	_ plugin.OnInit              = (*MetricsExtension)(nil)
	_ plugin.OnBalanceCredited   = (*MetricsExtension)(nil)
	_ plugin.OnBalanceDebited    = (*MetricsExtension)(nil)
	_ plugin.OnTransferCompleted = (*MetricsExtension)(nil)
	_ plugin.OnBalanceSet        = (*MetricsExtension)(nil)
	_ plugin.OnBalanceReset      = (*MetricsExtension)(nil)
	_ plugin.OnAllBalancesReset  = (*MetricsExtension)(nil)
	_ plugin.OnOperationRejected = (*MetricsExtension)(nil)
	_ plugin.OnStorageFailure    = (*MetricsExtension)(nil)
)

// Counter interface for metric counters.
type Counter interface {
	Inc()
	Add(float64)
}

// Histogram interface for metric histograms.
type Histogram interface {
	Observe(float64)
}

// MetricFactory creates metrics.
type MetricFactory interface {
	Counter(name string) Counter
	Histogram(name string) Histogram
}

// MetricsExtension records balance lifecycle metrics.
// Register it as a Coffer plugin to track ledger activity.
type MetricsExtension struct {
	factory MetricFactory

	// Balance metrics
	Credits     Counter
	Debits      Counter
	Transfers   Counter
	Sets        Counter
	Resets      Counter
	ResetAlls   Counter
	CoinsMoved  Histogram
	CoinsIssued Counter
	CoinsBurned Counter

	// Rejection metrics
	RejectedInsufficientFunds Counter
	RejectedInvalidAmount     Counter
	RejectedInvalidAccount    Counter
	RejectedOverflow          Counter

	// Error metrics
	StoreErrors    Counter
	UnloggedWrites Counter
}

// NewMetricsExtension creates a MetricsExtension with the provided MetricFactory.
// Use app.Metrics() in forge extensions.
func NewMetricsExtension(factory MetricFactory) *MetricsExtension {
	return &MetricsExtension{
		factory: factory,

		Credits:     factory.Counter("coffer.balance.credited"),
		Debits:      factory.Counter("coffer.balance.debited"),
		Transfers:   factory.Counter("coffer.balance.transferred"),
		Sets:        factory.Counter("coffer.balance.set"),
		Resets:      factory.Counter("coffer.balance.reset"),
		ResetAlls:   factory.Counter("coffer.balance.reset_all"),
		CoinsMoved:  factory.Histogram("coffer.coins.moved"),
		CoinsIssued: factory.Counter("coffer.coins.issued"),
		CoinsBurned: factory.Counter("coffer.coins.burned"),

		RejectedInsufficientFunds: factory.Counter("coffer.rejected.insufficient_funds"),
		RejectedInvalidAmount:     factory.Counter("coffer.rejected.invalid_amount"),
		RejectedInvalidAccount:    factory.Counter("coffer.rejected.invalid_account"),
		RejectedOverflow:          factory.Counter("coffer.rejected.overflow"),

		StoreErrors:    factory.Counter("coffer.store.errors"),
		UnloggedWrites: factory.Counter("coffer.log.unlogged_writes"),
	}
}

// Name implements plugin.Plugin.
func (m *MetricsExtension) Name() string { return "observability-metrics" }

// OnInit implements plugin.OnInit.
func (m *MetricsExtension) OnInit(_ context.Context, _ interface{}) error {
	return nil
}

// ──────────────────────────────────────────────────
// Balance hooks
// ──────────────────────────────────────────────────

// OnBalanceCredited implements plugin.OnBalanceCredited.
func (m *MetricsExtension) OnBalanceCredited(_ context.Context, r *operation.Receipt) error {
	m.Credits.Inc()
	m.CoinsIssued.Add(float64(r.Amount))
	m.CoinsMoved.Observe(float64(r.Amount))
	return nil
}

// OnBalanceDebited implements plugin.OnBalanceDebited.
func (m *MetricsExtension) OnBalanceDebited(_ context.Context, r *operation.Receipt) error {
	m.Debits.Inc()
	m.CoinsBurned.Add(float64(r.Amount))
	m.CoinsMoved.Observe(float64(r.Amount))
	return nil
}

// OnTransferCompleted implements plugin.OnTransferCompleted.
func (m *MetricsExtension) OnTransferCompleted(_ context.Context, r *operation.Receipt) error {
	m.Transfers.Inc()
	m.CoinsMoved.Observe(float64(r.Amount))
	return nil
}

// OnBalanceSet implements plugin.OnBalanceSet.
func (m *MetricsExtension) OnBalanceSet(_ context.Context, _ *operation.Receipt) error {
	m.Sets.Inc()
	return nil
}

// OnBalanceReset implements plugin.OnBalanceReset.
func (m *MetricsExtension) OnBalanceReset(_ context.Context, r *operation.Receipt) error {
	m.Resets.Inc()
	m.CoinsBurned.Add(float64(r.Amount))
	return nil
}

// OnAllBalancesReset implements plugin.OnAllBalancesReset.
func (m *MetricsExtension) OnAllBalancesReset(_ context.Context, r *operation.Receipt) error {
	m.ResetAlls.Inc()
	m.CoinsBurned.Add(float64(r.Amount))
	return nil
}

// ──────────────────────────────────────────────────
// Failure hooks
// ──────────────────────────────────────────────────

// OnOperationRejected implements plugin.OnOperationRejected.
func (m *MetricsExtension) OnOperationRejected(_ context.Context, _ operation.Kind, _ string, _ types.Coins, err error) error {
	switch {
	case errors.Is(err, coffer.ErrInsufficientFunds):
		m.RejectedInsufficientFunds.Inc()
	case errors.Is(err, coffer.ErrInvalidAmount):
		m.RejectedInvalidAmount.Inc()
	case errors.Is(err, coffer.ErrInvalidAccount), errors.Is(err, coffer.ErrInvalidAccountPair):
		m.RejectedInvalidAccount.Inc()
	case errors.Is(err, coffer.ErrBalanceOverflow):
		m.RejectedOverflow.Inc()
	}
	return nil
}

// OnStorageFailure implements plugin.OnStorageFailure.
func (m *MetricsExtension) OnStorageFailure(_ context.Context, _ operation.Kind, _ string, committed bool, _ error) error {
	if committed {
		m.UnloggedWrites.Inc()
		return nil
	}
	m.StoreErrors.Inc()
	return nil
}
