package audithook

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xraph/coffer/operation"
)

func collect() (*[]*AuditEvent, RecorderFunc) {
	var events []*AuditEvent
	return &events, func(_ context.Context, evt *AuditEvent) error {
		events = append(events, evt)
		return nil
	}
}

func transferReceipt() *operation.Receipt {
	r := operation.New(operation.KindTransfer, time.Now())
	r.Account = "alice"
	r.Counterparty = "bob"
	r.Amount = 30
	r.Balance = 70
	r.CounterpartyBalance = 30
	r.Reason = "gift"
	return r
}

func TestTransferEvent(t *testing.T) {
	events, rec := collect()
	e := New(rec)

	require.NoError(t, e.OnTransferCompleted(context.Background(), transferReceipt()))
	require.Len(t, *events, 1)

	evt := (*events)[0]
	assert.Equal(t, ActionBalanceTransferred, evt.Action)
	assert.Equal(t, ResourceAccount, evt.Resource)
	assert.Equal(t, "alice", evt.ResourceID)
	assert.Equal(t, OutcomeSuccess, evt.Outcome)
	assert.Equal(t, "bob", evt.Metadata["receiver"])
	assert.Equal(t, int64(30), evt.Metadata["amount"])
	assert.Equal(t, "gift", evt.Metadata["reason"])
}

func TestReceiptActions(t *testing.T) {
	ctx := context.Background()
	events, rec := collect()
	e := New(rec)

	r := operation.New(operation.KindCredit, time.Now())
	r.Account = "carol"
	require.NoError(t, e.OnBalanceCredited(ctx, r))
	require.NoError(t, e.OnBalanceDebited(ctx, r))
	require.NoError(t, e.OnBalanceSet(ctx, r))
	require.NoError(t, e.OnBalanceReset(ctx, r))
	require.NoError(t, e.OnAllBalancesReset(ctx, r))

	var actions []string
	for _, evt := range *events {
		actions = append(actions, evt.Action)
	}
	assert.Equal(t, []string{
		ActionBalanceCredited,
		ActionBalanceDebited,
		ActionBalanceSet,
		ActionBalanceReset,
		ActionBalanceResetAll,
	}, actions)
	assert.Equal(t, SeverityCritical, (*events)[4].Severity)
}

func TestFailureEvents(t *testing.T) {
	ctx := context.Background()
	events, rec := collect()
	e := New(rec)

	require.NoError(t, e.OnOperationRejected(ctx, operation.KindDebit, "dave", 80, errors.New("insufficient funds")))
	require.NoError(t, e.OnStorageFailure(ctx, operation.KindCredit, "dave", true, errors.New("disk full")))
	require.NoError(t, e.OnStorageFailure(ctx, operation.KindCredit, "dave", false, errors.New("disk full")))

	require.Len(t, *events, 3)
	assert.Equal(t, ActionOperationRejected, (*events)[0].Action)
	assert.Equal(t, OutcomeFailure, (*events)[0].Outcome)
	assert.Equal(t, "insufficient funds", (*events)[0].Reason)

	assert.Equal(t, OutcomePartial, (*events)[1].Outcome)
	assert.Equal(t, SeverityCritical, (*events)[1].Severity)
	assert.Equal(t, OutcomeFailure, (*events)[2].Outcome)
	assert.Equal(t, SeverityError, (*events)[2].Severity)
}

func TestActionFilters(t *testing.T) {
	ctx := context.Background()

	events, rec := collect()
	e := New(rec, WithEnabledActions(ActionBalanceTransferred))
	r := transferReceipt()
	require.NoError(t, e.OnBalanceCredited(ctx, r))
	require.NoError(t, e.OnTransferCompleted(ctx, r))
	assert.Len(t, *events, 1)

	events, rec = collect()
	e = New(rec, WithDisabledActions(ActionBalanceCredited))
	require.NoError(t, e.OnBalanceCredited(ctx, r))
	require.NoError(t, e.OnBalanceDebited(ctx, r))
	require.Len(t, *events, 1)
	assert.Equal(t, ActionBalanceDebited, (*events)[0].Action)
}

func TestRecorderErrorIsSwallowed(t *testing.T) {
	e := New(RecorderFunc(func(context.Context, *AuditEvent) error {
		return errors.New("backend down")
	}), WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))

	assert.NoError(t, e.OnTransferCompleted(context.Background(), transferReceipt()))
}
