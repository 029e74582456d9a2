// Package mongo stores Coffer balances in MongoDB through grove.
//
// SetBalances writes documents one at a time and puts earlier ones back if
// a later write fails. A reader running alongside a transfer can observe
// the sender debited before the receiver is credited.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"

	"github.com/xraph/grove"
	"github.com/xraph/grove/drivers/mongodriver"

	"github.com/xraph/coffer"
	"github.com/xraph/coffer/account"
	cofferstore "github.com/xraph/coffer/store"
)

const colBalances = "coffer_balances"

// compile-time interface check
var _ cofferstore.Store = (*Store)(nil)

// Store implements store.Store using MongoDB via Grove ORM.
type Store struct {
	db  *grove.DB
	mdb *mongodriver.MongoDB
}

// New creates a new MongoDB store backed by Grove ORM.
func New(db *grove.DB) *Store {
	return &Store{
		db:  db,
		mdb: mongodriver.Unwrap(db),
	}
}

// DB returns the underlying grove database for direct access.
func (s *Store) DB() *grove.DB { return s.db }

// Migrate creates indexes for the balances collection.
func (s *Store) Migrate(ctx context.Context) error {
	for col, models := range migrationIndexes() {
		if len(models) == 0 {
			continue
		}
		if _, err := s.mdb.Collection(col).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("coffer/mongo: migrate %s indexes: %w", col, err)
		}
	}
	return nil
}

// Ping checks database connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// ==================== Balance Store ====================

func (s *Store) GetBalance(ctx context.Context, acct string) (*account.Balance, error) {
	var m balanceModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{"_id": acct}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, coffer.ErrNotFound
		}
		return nil, fmt.Errorf("coffer/mongo: get balance: %w", err)
	}
	return fromBalanceModel(&m), nil
}

func (s *Store) SetBalance(ctx context.Context, b *account.Balance) error {
	if err := s.upsert(ctx, toBalanceModel(b)); err != nil {
		return fmt.Errorf("coffer/mongo: set balance: %w", err)
	}
	return nil
}

// SetBalances upserts each record in turn. MongoDB has no multi-document
// atomicity outside a replica-set transaction, so if a later write fails
// the documents already written are put back the way they were.
func (s *Store) SetBalances(ctx context.Context, bs []*account.Balance) error {
	if len(bs) == 0 {
		return nil
	}

	prior := make([]*balanceModel, len(bs))
	for i, b := range bs {
		var m balanceModel
		err := s.mdb.NewFind(&m).Filter(bson.M{"_id": b.Account}).Scan(ctx)
		switch {
		case err == nil:
			prior[i] = &m
		case isNoDocuments(err):
		default:
			return fmt.Errorf("coffer/mongo: set balances: read %s: %w", b.Account, err)
		}
	}

	for i, b := range bs {
		if err := s.upsert(ctx, toBalanceModel(b)); err != nil {
			if rbErr := s.restore(context.WithoutCancel(ctx), bs[:i], prior[:i]); rbErr != nil {
				return fmt.Errorf("coffer/mongo: set balances: %w (restore failed: %v)", err, rbErr)
			}
			return fmt.Errorf("coffer/mongo: set balances: %w", err)
		}
	}
	return nil
}

func (s *Store) ClearBalances(ctx context.Context) error {
	_, err := s.mdb.NewDelete((*balanceModel)(nil)).
		Filter(bson.M{}).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("coffer/mongo: clear balances: %w", err)
	}
	return nil
}

func (s *Store) ListBalances(ctx context.Context) ([]*account.Balance, error) {
	var models []balanceModel
	err := s.mdb.NewFind(&models).
		Filter(bson.M{}).
		Sort(bson.D{{Key: "amount", Value: -1}, {Key: "_id", Value: 1}}).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("coffer/mongo: list balances: %w", err)
	}

	result := make([]*account.Balance, len(models))
	for i := range models {
		result[i] = fromBalanceModel(&models[i])
	}
	return result, nil
}

// ==================== Helpers ====================

func (s *Store) upsert(ctx context.Context, m *balanceModel) error {
	_, err := s.mdb.NewUpdate(m).
		Filter(bson.M{"_id": m.Account}).
		SetUpdate(bson.M{"$set": bson.M{
			"name":       m.Name,
			"amount":     m.Amount,
			"updated_at": m.UpdatedAt,
		}, "$setOnInsert": bson.M{
			"created_at": m.CreatedAt,
		}}).
		Upsert().
		Exec(ctx)
	return err
}

// restore puts written documents back to their prior state; a nil prior
// means the document did not exist before.
func (s *Store) restore(ctx context.Context, written []*account.Balance, prior []*balanceModel) error {
	var errs []error
	for i := len(written) - 1; i >= 0; i-- {
		if prior[i] == nil {
			_, err := s.mdb.NewDelete((*balanceModel)(nil)).
				Filter(bson.M{"_id": written[i].Account}).
				Exec(ctx)
			if err != nil {
				errs = append(errs, err)
			}
			continue
		}
		if err := s.upsert(ctx, prior[i]); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// now returns the current UTC time.
func now() time.Time {
	return time.Now().UTC()
}

// isNoDocuments checks if an error wraps mongo.ErrNoDocuments.
func isNoDocuments(err error) bool {
	return errors.Is(err, mongo.ErrNoDocuments)
}

// migrationIndexes returns the index definitions for the coffer collections.
func migrationIndexes() map[string][]mongo.IndexModel {
	return map[string][]mongo.IndexModel{
		colBalances: {
			{Keys: bson.D{{Key: "amount", Value: -1}, {Key: "_id", Value: 1}}},
		},
	}
}
