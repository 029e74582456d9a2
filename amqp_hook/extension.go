// Package amqphook publishes committed Coffer balance events to a RabbitMQ
// exchange as JSON messages.
package amqphook

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/xraph/coffer/id"
	"github.com/xraph/coffer/operation"
	"github.com/xraph/coffer/plugin"
)

// Defaults for the target exchange and routing key prefix.
const (
	DefaultExchange         = "coffer.events"
	DefaultRoutingKeyPrefix = "coffer.balance."
)

// Compile-time interface checks.
var (
	_ plugin.Plugin              = (*Extension)(nil)
	_ plugin.OnShutdown          = (*Extension)(nil)
	_ plugin.OnBalanceCredited   = (*Extension)(nil)
	_ plugin.OnBalanceDebited    = (*Extension)(nil)
	_ plugin.OnTransferCompleted = (*Extension)(nil)
	_ plugin.OnBalanceSet        = (*Extension)(nil)
	_ plugin.OnBalanceReset      = (*Extension)(nil)
	_ plugin.OnAllBalancesReset  = (*Extension)(nil)

	_ Publisher = (*amqp.Channel)(nil)
)

// Publisher is the subset of *amqp.Channel the extension needs.
type Publisher interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

// BalanceEvent is the JSON body of every published message.
type BalanceEvent struct {
	EventID             string    `json:"event_id"`
	OperationID         string    `json:"operation_id"`
	Kind                string    `json:"kind"`
	Account             string    `json:"account,omitempty"`
	Counterparty        string    `json:"counterparty,omitempty"`
	Amount              int64     `json:"amount"`
	Balance             int64     `json:"balance"`
	CounterpartyBalance int64     `json:"counterparty_balance,omitempty"`
	Reason              string    `json:"reason,omitempty"`
	Timestamp           time.Time `json:"timestamp"`
}

// NewBalanceEvent converts a receipt into its published form.
func NewBalanceEvent(r *operation.Receipt) *BalanceEvent {
	return &BalanceEvent{
		EventID:             id.NewEventID().String(),
		OperationID:         r.ID.String(),
		Kind:                string(r.Kind),
		Account:             r.Account,
		Counterparty:        r.Counterparty,
		Amount:              r.Amount.Int64(),
		Balance:             r.Balance.Int64(),
		CounterpartyBalance: r.CounterpartyBalance.Int64(),
		Reason:              r.Reason,
		Timestamp:           r.At.UTC(),
	}
}

// Extension publishes a BalanceEvent for every committed operation.
type Extension struct {
	pub       Publisher
	exchange  string
	keyPrefix string
	closer    func() error
	logger    *slog.Logger
}

// Option configures an Extension.
type Option func(*Extension)

// WithExchange sets the exchange messages are published to.
func WithExchange(name string) Option {
	return func(e *Extension) { e.exchange = name }
}

// WithRoutingKeyPrefix sets the prefix joined with the operation kind to
// form the routing key, e.g. "coffer.balance.transfer".
func WithRoutingKeyPrefix(prefix string) Option {
	return func(e *Extension) { e.keyPrefix = prefix }
}

// WithLogger sets the logger for the extension.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Extension) { e.logger = logger }
}

// WithCloser registers a function run on engine shutdown, typically
// Session.Close.
func WithCloser(fn func() error) Option {
	return func(e *Extension) { e.closer = fn }
}

// New creates an Extension publishing through pub.
func New(pub Publisher, opts ...Option) *Extension {
	e := &Extension{
		pub:       pub,
		exchange:  DefaultExchange,
		keyPrefix: DefaultRoutingKeyPrefix,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Name implements plugin.Plugin.
func (e *Extension) Name() string { return "amqp-hook" }

// OnShutdown implements plugin.OnShutdown.
func (e *Extension) OnShutdown(_ context.Context) error {
	if e.closer == nil {
		return nil
	}
	return e.closer()
}

// OnBalanceCredited implements plugin.OnBalanceCredited.
func (e *Extension) OnBalanceCredited(ctx context.Context, r *operation.Receipt) error {
	return e.publish(ctx, r)
}

// OnBalanceDebited implements plugin.OnBalanceDebited.
func (e *Extension) OnBalanceDebited(ctx context.Context, r *operation.Receipt) error {
	return e.publish(ctx, r)
}

// OnTransferCompleted implements plugin.OnTransferCompleted.
func (e *Extension) OnTransferCompleted(ctx context.Context, r *operation.Receipt) error {
	return e.publish(ctx, r)
}

// OnBalanceSet implements plugin.OnBalanceSet.
func (e *Extension) OnBalanceSet(ctx context.Context, r *operation.Receipt) error {
	return e.publish(ctx, r)
}

// OnBalanceReset implements plugin.OnBalanceReset.
func (e *Extension) OnBalanceReset(ctx context.Context, r *operation.Receipt) error {
	return e.publish(ctx, r)
}

// OnAllBalancesReset implements plugin.OnAllBalancesReset.
func (e *Extension) OnAllBalancesReset(ctx context.Context, r *operation.Receipt) error {
	return e.publish(ctx, r)
}

// RoutingKey returns the routing key used for kind.
func (e *Extension) RoutingKey(kind operation.Kind) string {
	return e.keyPrefix + string(kind)
}

func (e *Extension) publish(ctx context.Context, r *operation.Receipt) error {
	evt := NewBalanceEvent(r)
	body, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("amqp_hook: marshal event: %w", err)
	}

	err = e.pub.PublishWithContext(ctx, e.exchange, e.RoutingKey(r.Kind), false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    evt.EventID,
		Timestamp:    evt.Timestamp,
		Type:         evt.Kind,
		Body:         body,
	})
	if err != nil {
		return fmt.Errorf("amqp_hook: publish %s: %w", evt.OperationID, err)
	}

	e.logger.Debug("amqp_hook: event published",
		"event_id", evt.EventID,
		"operation_id", evt.OperationID,
		"kind", evt.Kind,
	)
	return nil
}
