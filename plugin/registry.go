package plugin

import (
	"context"
	"fmt"
	"log/slog"
	"reflect"
	"sync"
	"time"

	"github.com/xraph/coffer/operation"
	"github.com/xraph/coffer/types"
)

// DefaultTimeout bounds how long a single hook may run.
const DefaultTimeout = 5 * time.Second

// Registry manages all registered plugins and provides efficient dispatch.
// It uses type-cached discovery for O(1) dispatch performance.
type Registry struct {
	mu      sync.RWMutex
	plugins []Plugin
	logger  *slog.Logger
	timeout time.Duration

	// Type-cached plugin lists for efficient dispatch
	onInit              []OnInit
	onShutdown          []OnShutdown
	onBalanceCredited   []OnBalanceCredited
	onBalanceDebited    []OnBalanceDebited
	onTransferCompleted []OnTransferCompleted
	onBalanceSet        []OnBalanceSet
	onBalanceReset      []OnBalanceReset
	onAllBalancesReset  []OnAllBalancesReset
	onRejected          []OnOperationRejected
	onStorageFailure    []OnStorageFailure
}

// NewRegistry creates a new plugin registry.
func NewRegistry() *Registry {
	return &Registry{
		logger:  slog.Default(),
		timeout: DefaultTimeout,
	}
}

// WithLogger sets the logger for the registry.
func (r *Registry) WithLogger(logger *slog.Logger) *Registry {
	r.logger = logger
	return r
}

// WithTimeout sets the per-hook timeout. Non-positive values are ignored.
func (r *Registry) WithTimeout(d time.Duration) *Registry {
	if d > 0 {
		r.timeout = d
	}
	return r
}

// Register adds a plugin to the registry and caches its interfaces.
func (r *Registry) Register(p Plugin) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.plugins {
		if existing.Name() == p.Name() {
			return fmt.Errorf("plugin: duplicate registration: %s", p.Name())
		}
	}

	r.plugins = append(r.plugins, p)

	if v, ok := p.(OnInit); ok {
		r.onInit = append(r.onInit, v)
	}
	if v, ok := p.(OnShutdown); ok {
		r.onShutdown = append(r.onShutdown, v)
	}
	if v, ok := p.(OnBalanceCredited); ok {
		r.onBalanceCredited = append(r.onBalanceCredited, v)
	}
	if v, ok := p.(OnBalanceDebited); ok {
		r.onBalanceDebited = append(r.onBalanceDebited, v)
	}
	if v, ok := p.(OnTransferCompleted); ok {
		r.onTransferCompleted = append(r.onTransferCompleted, v)
	}
	if v, ok := p.(OnBalanceSet); ok {
		r.onBalanceSet = append(r.onBalanceSet, v)
	}
	if v, ok := p.(OnBalanceReset); ok {
		r.onBalanceReset = append(r.onBalanceReset, v)
	}
	if v, ok := p.(OnAllBalancesReset); ok {
		r.onAllBalancesReset = append(r.onAllBalancesReset, v)
	}
	if v, ok := p.(OnOperationRejected); ok {
		r.onRejected = append(r.onRejected, v)
	}
	if v, ok := p.(OnStorageFailure); ok {
		r.onStorageFailure = append(r.onStorageFailure, v)
	}

	r.logger.Info("plugin registered",
		"name", p.Name(),
		"interfaces", implementedInterfaces(p),
	)

	return nil
}

var hookInterfaces = []struct {
	name  string
	iface reflect.Type
}{
	{"OnInit", reflect.TypeOf((*OnInit)(nil)).Elem()},
	{"OnShutdown", reflect.TypeOf((*OnShutdown)(nil)).Elem()},
	{"OnBalanceCredited", reflect.TypeOf((*OnBalanceCredited)(nil)).Elem()},
	{"OnBalanceDebited", reflect.TypeOf((*OnBalanceDebited)(nil)).Elem()},
	{"OnTransferCompleted", reflect.TypeOf((*OnTransferCompleted)(nil)).Elem()},
	{"OnBalanceSet", reflect.TypeOf((*OnBalanceSet)(nil)).Elem()},
	{"OnBalanceReset", reflect.TypeOf((*OnBalanceReset)(nil)).Elem()},
	{"OnAllBalancesReset", reflect.TypeOf((*OnAllBalancesReset)(nil)).Elem()},
	{"OnOperationRejected", reflect.TypeOf((*OnOperationRejected)(nil)).Elem()},
	{"OnStorageFailure", reflect.TypeOf((*OnStorageFailure)(nil)).Elem()},
}

// implementedInterfaces returns the names of the hooks p implements.
func implementedInterfaces(p Plugin) []string {
	var names []string
	t := reflect.TypeOf(p)
	for _, h := range hookInterfaces {
		if t.Implements(h.iface) {
			names = append(names, h.name)
		}
	}
	return names
}

// Get returns a plugin by name.
func (r *Registry) Get(name string) Plugin {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, p := range r.plugins {
		if p.Name() == name {
			return p
		}
	}
	return nil
}

// List returns all registered plugins.
func (r *Registry) List() []Plugin {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]Plugin, len(r.plugins))
	copy(result, r.plugins)
	return result
}

// Count returns the number of registered plugins.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.plugins)
}

// ──────────────────────────────────────────────────
// Event emission methods
// ──────────────────────────────────────────────────

// EmitInit calls OnInit for all plugins that implement it.
func (r *Registry) EmitInit(ctx context.Context, c interface{}) {
	r.mu.RLock()
	plugins := r.onInit
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnInit(ctx, c)
		}); err != nil {
			r.logger.Warn("plugin OnInit failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitShutdown calls OnShutdown for all plugins that implement it.
func (r *Registry) EmitShutdown(ctx context.Context) {
	r.mu.RLock()
	plugins := r.onShutdown
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnShutdown(ctx)
		}); err != nil {
			r.logger.Warn("plugin OnShutdown failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitReceipt dispatches a committed operation to the hook matching its
// kind.
func (r *Registry) EmitReceipt(ctx context.Context, rc *operation.Receipt) {
	switch rc.Kind {
	case operation.KindCredit:
		r.EmitBalanceCredited(ctx, rc)
	case operation.KindDebit:
		r.EmitBalanceDebited(ctx, rc)
	case operation.KindTransfer:
		r.EmitTransferCompleted(ctx, rc)
	case operation.KindSet:
		r.EmitBalanceSet(ctx, rc)
	case operation.KindReset:
		r.EmitBalanceReset(ctx, rc)
	case operation.KindResetAll:
		r.EmitAllBalancesReset(ctx, rc)
	default:
		r.logger.Warn("plugin: receipt with unknown kind", "kind", rc.Kind, "operation_id", rc.ID.String())
	}
}

// EmitBalanceCredited emits a balance credited event.
func (r *Registry) EmitBalanceCredited(ctx context.Context, rc *operation.Receipt) {
	r.mu.RLock()
	plugins := r.onBalanceCredited
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnBalanceCredited(ctx, rc)
		}); err != nil {
			r.logger.Warn("plugin OnBalanceCredited failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitBalanceDebited emits a balance debited event.
func (r *Registry) EmitBalanceDebited(ctx context.Context, rc *operation.Receipt) {
	r.mu.RLock()
	plugins := r.onBalanceDebited
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnBalanceDebited(ctx, rc)
		}); err != nil {
			r.logger.Warn("plugin OnBalanceDebited failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitTransferCompleted emits a transfer completed event.
func (r *Registry) EmitTransferCompleted(ctx context.Context, rc *operation.Receipt) {
	r.mu.RLock()
	plugins := r.onTransferCompleted
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnTransferCompleted(ctx, rc)
		}); err != nil {
			r.logger.Warn("plugin OnTransferCompleted failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitBalanceSet emits a balance set event.
func (r *Registry) EmitBalanceSet(ctx context.Context, rc *operation.Receipt) {
	r.mu.RLock()
	plugins := r.onBalanceSet
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnBalanceSet(ctx, rc)
		}); err != nil {
			r.logger.Warn("plugin OnBalanceSet failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitBalanceReset emits a balance reset event.
func (r *Registry) EmitBalanceReset(ctx context.Context, rc *operation.Receipt) {
	r.mu.RLock()
	plugins := r.onBalanceReset
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnBalanceReset(ctx, rc)
		}); err != nil {
			r.logger.Warn("plugin OnBalanceReset failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitAllBalancesReset emits an all balances reset event.
func (r *Registry) EmitAllBalancesReset(ctx context.Context, rc *operation.Receipt) {
	r.mu.RLock()
	plugins := r.onAllBalancesReset
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnAllBalancesReset(ctx, rc)
		}); err != nil {
			r.logger.Warn("plugin OnAllBalancesReset failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitOperationRejected emits an operation rejected event.
func (r *Registry) EmitOperationRejected(ctx context.Context, kind operation.Kind, account string, amount types.Coins, cause error) {
	r.mu.RLock()
	plugins := r.onRejected
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnOperationRejected(ctx, kind, account, amount, cause)
		}); err != nil {
			r.logger.Warn("plugin OnOperationRejected failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitStorageFailure emits a storage failure event.
func (r *Registry) EmitStorageFailure(ctx context.Context, kind operation.Kind, account string, committed bool, cause error) {
	r.mu.RLock()
	plugins := r.onStorageFailure
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnStorageFailure(ctx, kind, account, committed, cause)
		}); err != nil {
			r.logger.Warn("plugin OnStorageFailure failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// callWithTimeout calls a plugin function with a timeout.
// Plugins should never block a balance operation.
func (r *Registry) callWithTimeout(ctx context.Context, pluginName string, fn func() error) error {
	done := make(chan error, 1)

	go func() {
		done <- fn()
	}()

	timer := time.NewTimer(r.timeout)
	defer timer.Stop()

	select {
	case err := <-done:
		return err
	case <-timer.C:
		return fmt.Errorf("plugin timeout: %s", pluginName)
	case <-ctx.Done():
		return ctx.Err()
	}
}
