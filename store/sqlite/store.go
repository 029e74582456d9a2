// Package sqlite stores Coffer balances in SQLite through grove.
//
// SQLite admits one writer at a time. Open the database with a busy
// timeout so concurrent writers wait for the lock instead of failing
// with SQLITE_BUSY:
//
//	drv := sqlitedriver.New()
//	err := drv.Open(ctx, "file:coffer.db?_pragma=busy_timeout(5000)")
//	db, err := grove.Open(drv)
//	s := sqlite.New(db)
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/xraph/grove"
	"github.com/xraph/grove/drivers/sqlitedriver"
	_ "github.com/xraph/grove/drivers/sqlitedriver/sqlitemigrate"
	"github.com/xraph/grove/migrate"

	"github.com/xraph/coffer"
	"github.com/xraph/coffer/account"
	cofferstore "github.com/xraph/coffer/store"
)

// compile-time interface check
var _ cofferstore.Store = (*Store)(nil)

// Store implements store.Store using SQLite via Grove ORM.
type Store struct {
	db  *grove.DB
	sdb *sqlitedriver.SqliteDB
}

// New creates a new SQLite store backed by Grove ORM.
func New(db *grove.DB) *Store {
	return &Store{
		db:  db,
		sdb: sqlitedriver.Unwrap(db),
	}
}

// DB returns the underlying grove database for direct access.
func (s *Store) DB() *grove.DB { return s.db }

// Migrate creates the balances table using the grove orchestrator.
func (s *Store) Migrate(ctx context.Context) error {
	executor, err := migrate.NewExecutorFor(s.sdb)
	if err != nil {
		return fmt.Errorf("coffer/sqlite: create migration executor: %w", err)
	}
	orch := migrate.NewOrchestrator(executor, Migrations)
	if _, err := orch.Migrate(ctx); err != nil {
		return fmt.Errorf("coffer/sqlite: migration failed: %w", err)
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
	m := new(balanceModel)
	err := s.sdb.NewSelect(m).
		Where("account = ?", acct).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, coffer.ErrNotFound
		}
		return nil, fmt.Errorf("coffer/sqlite: get balance: %w", err)
	}
	return fromBalanceModel(m), nil
}

func (s *Store) SetBalance(ctx context.Context, b *account.Balance) error {
	return s.SetBalances(ctx, []*account.Balance{b})
}

// SetBalances upserts every record in a single INSERT statement, which
// SQLite applies atomically.
func (s *Store) SetBalances(ctx context.Context, bs []*account.Balance) error {
	if len(bs) == 0 {
		return nil
	}
	models := make([]balanceModel, len(bs))
	for i, b := range bs {
		models[i] = *toBalanceModel(b)
		if models[i].UpdatedAt.IsZero() {
			models[i].UpdatedAt = now()
		}
		if models[i].CreatedAt.IsZero() {
			models[i].CreatedAt = models[i].UpdatedAt
		}
	}
	_, err := s.sdb.NewInsert(&models).
		MultiRow().
		OnConflict("(account) DO UPDATE").
		Set("name = EXCLUDED.name").
		Set("amount = EXCLUDED.amount").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("coffer/sqlite: set balances: %w", err)
	}
	return nil
}

func (s *Store) ClearBalances(ctx context.Context) error {
	_, err := s.sdb.NewDelete((*balanceModel)(nil)).
		Where("1 = 1").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("coffer/sqlite: clear balances: %w", err)
	}
	return nil
}

func (s *Store) ListBalances(ctx context.Context) ([]*account.Balance, error) {
	var models []balanceModel
	err := s.sdb.NewSelect(&models).
		OrderExpr("amount DESC, account ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("coffer/sqlite: list balances: %w", err)
	}

	result := make([]*account.Balance, len(models))
	for i := range models {
		result[i] = fromBalanceModel(&models[i])
	}
	return result, nil
}

// ==================== Helpers ====================

// now returns the current UTC time.
func now() time.Time {
	return time.Now().UTC()
}

// isNoRows checks for the standard sql.ErrNoRows sentinel.
func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}
