package amqphook

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xraph/coffer/id"
	"github.com/xraph/coffer/operation"
)

type published struct {
	exchange string
	key      string
	msg      amqp.Publishing
}

type fakePublisher struct {
	sent []published
	err  error
}

func (f *fakePublisher) PublishWithContext(_ context.Context, exchange, key string, _, _ bool, msg amqp.Publishing) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, published{exchange: exchange, key: key, msg: msg})
	return nil
}

func transfer() *operation.Receipt {
	r := operation.New(operation.KindTransfer, time.Date(2024, 2, 3, 4, 5, 6, 0, time.UTC))
	r.Account = "alice"
	r.Counterparty = "bob"
	r.Amount = 25
	r.Balance = 75
	r.CounterpartyBalance = 25
	r.Reason = "rent"
	return r
}

func TestPublishesTransfer(t *testing.T) {
	pub := &fakePublisher{}
	e := New(pub)
	r := transfer()

	require.NoError(t, e.OnTransferCompleted(context.Background(), r))
	require.Len(t, pub.sent, 1)

	sent := pub.sent[0]
	assert.Equal(t, DefaultExchange, sent.exchange)
	assert.Equal(t, "coffer.balance.transfer", sent.key)
	assert.Equal(t, "application/json", sent.msg.ContentType)
	assert.Equal(t, amqp.Persistent, sent.msg.DeliveryMode)
	assert.Equal(t, "transfer", sent.msg.Type)

	var evt BalanceEvent
	require.NoError(t, json.Unmarshal(sent.msg.Body, &evt))
	assert.Equal(t, sent.msg.MessageId, evt.EventID)
	assert.Equal(t, r.ID.String(), evt.OperationID)
	assert.Equal(t, "alice", evt.Account)
	assert.Equal(t, "bob", evt.Counterparty)
	assert.Equal(t, int64(25), evt.Amount)
	assert.Equal(t, int64(75), evt.Balance)
	assert.Equal(t, int64(25), evt.CounterpartyBalance)
	assert.Equal(t, "rent", evt.Reason)
	assert.True(t, evt.Timestamp.Equal(r.At))

	_, err := id.ParseEventID(evt.EventID)
	assert.NoError(t, err)
}

func TestCustomExchangeAndPrefix(t *testing.T) {
	pub := &fakePublisher{}
	e := New(pub, WithExchange("game"), WithRoutingKeyPrefix("wallet."))

	r := operation.New(operation.KindCredit, time.Now())
	r.Account = "carol"
	require.NoError(t, e.OnBalanceCredited(context.Background(), r))

	require.Len(t, pub.sent, 1)
	assert.Equal(t, "game", pub.sent[0].exchange)
	assert.Equal(t, "wallet.credit", pub.sent[0].key)
}

func TestPublishErrorIsReturned(t *testing.T) {
	broken := errors.New("channel closed")
	e := New(&fakePublisher{err: broken})

	err := e.OnBalanceReset(context.Background(), operation.New(operation.KindReset, time.Now()))
	require.ErrorIs(t, err, broken)
}

func TestShutdownRunsCloser(t *testing.T) {
	closed := false
	e := New(&fakePublisher{}, WithCloser(func() error {
		closed = true
		return nil
	}))

	require.NoError(t, e.OnShutdown(context.Background()))
	assert.True(t, closed)

	assert.NoError(t, New(&fakePublisher{}).OnShutdown(context.Background()))
}
