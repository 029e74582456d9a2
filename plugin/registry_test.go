package plugin

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xraph/coffer/operation"
	"github.com/xraph/coffer/types"
)

type recordingPlugin struct {
	name string

	mu       sync.Mutex
	kinds    []operation.Kind
	rejected []error
	failures []bool
}

func (p *recordingPlugin) Name() string { return p.name }

func (p *recordingPlugin) add(k operation.Kind) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.kinds = append(p.kinds, k)
	return nil
}

func (p *recordingPlugin) OnBalanceCredited(_ context.Context, r *operation.Receipt) error {
	return p.add(r.Kind)
}

func (p *recordingPlugin) OnBalanceDebited(_ context.Context, r *operation.Receipt) error {
	return p.add(r.Kind)
}

func (p *recordingPlugin) OnTransferCompleted(_ context.Context, r *operation.Receipt) error {
	return p.add(r.Kind)
}

func (p *recordingPlugin) OnBalanceSet(_ context.Context, r *operation.Receipt) error {
	return p.add(r.Kind)
}

func (p *recordingPlugin) OnBalanceReset(_ context.Context, r *operation.Receipt) error {
	return p.add(r.Kind)
}

func (p *recordingPlugin) OnAllBalancesReset(_ context.Context, r *operation.Receipt) error {
	return p.add(r.Kind)
}

func (p *recordingPlugin) OnOperationRejected(_ context.Context, _ operation.Kind, _ string, _ types.Coins, err error) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.rejected = append(p.rejected, err)
	return nil
}

func (p *recordingPlugin) OnStorageFailure(_ context.Context, _ operation.Kind, _ string, committed bool, _ error) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.failures = append(p.failures, committed)
	return nil
}

type failingPlugin struct{}

func (failingPlugin) Name() string { return "failing" }

func (failingPlugin) OnBalanceCredited(context.Context, *operation.Receipt) error {
	return errors.New("boom")
}

type slowPlugin struct{}

func (slowPlugin) Name() string { return "slow" }

func (slowPlugin) OnShutdown(ctx context.Context) error {
	time.Sleep(200 * time.Millisecond)
	return nil
}

func quietRegistry(buf *bytes.Buffer) *Registry {
	return NewRegistry().WithLogger(slog.New(slog.NewTextHandler(buf, nil)))
}

func TestRegisterRejectsDuplicates(t *testing.T) {
	var buf bytes.Buffer
	r := quietRegistry(&buf)

	require.NoError(t, r.Register(&recordingPlugin{name: "audit"}))
	err := r.Register(&recordingPlugin{name: "audit"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate")
	assert.Equal(t, 1, r.Count())
	assert.NotNil(t, r.Get("audit"))
	assert.Nil(t, r.Get("missing"))
}

func TestEmitReceiptDispatchesByKind(t *testing.T) {
	var buf bytes.Buffer
	r := quietRegistry(&buf)
	p := &recordingPlugin{name: "rec"}
	require.NoError(t, r.Register(p))

	ctx := context.Background()
	kinds := []operation.Kind{
		operation.KindCredit,
		operation.KindDebit,
		operation.KindTransfer,
		operation.KindSet,
		operation.KindReset,
		operation.KindResetAll,
	}
	for _, k := range kinds {
		r.EmitReceipt(ctx, operation.New(k, time.Now()))
	}

	assert.Equal(t, kinds, p.kinds)
}

func TestEmitFailureHooks(t *testing.T) {
	var buf bytes.Buffer
	r := quietRegistry(&buf)
	p := &recordingPlugin{name: "rec"}
	require.NoError(t, r.Register(p))

	ctx := context.Background()
	cause := errors.New("insufficient")
	r.EmitOperationRejected(ctx, operation.KindDebit, "alice", 10, cause)
	r.EmitStorageFailure(ctx, operation.KindCredit, "alice", true, errors.New("disk"))

	require.Len(t, p.rejected, 1)
	assert.ErrorIs(t, p.rejected[0], cause)
	assert.Equal(t, []bool{true}, p.failures)
}

func TestFailingPluginIsLoggedNotPropagated(t *testing.T) {
	var buf bytes.Buffer
	r := quietRegistry(&buf)
	p := &recordingPlugin{name: "rec"}
	require.NoError(t, r.Register(failingPlugin{}))
	require.NoError(t, r.Register(p))

	r.EmitBalanceCredited(context.Background(), operation.New(operation.KindCredit, time.Now()))

	assert.Contains(t, buf.String(), "plugin OnBalanceCredited failed")
	assert.Equal(t, []operation.Kind{operation.KindCredit}, p.kinds)
}

func TestSlowPluginTimesOut(t *testing.T) {
	var buf bytes.Buffer
	r := quietRegistry(&buf).WithTimeout(20 * time.Millisecond)
	require.NoError(t, r.Register(slowPlugin{}))

	start := time.Now()
	r.EmitShutdown(context.Background())

	assert.Less(t, time.Since(start), 150*time.Millisecond)
	assert.Contains(t, buf.String(), "plugin timeout: slow")
}

func TestImplementedInterfaces(t *testing.T) {
	names := implementedInterfaces(slowPlugin{})
	assert.Equal(t, []string{"OnShutdown"}, names)
}
