package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/xraph/grove"
	"github.com/xraph/grove/drivers/pgdriver"
	_ "github.com/xraph/grove/drivers/pgdriver/pgmigrate"
	"github.com/xraph/grove/migrate"

	"github.com/xraph/coffer"
	"github.com/xraph/coffer/account"
	cofferstore "github.com/xraph/coffer/store"
)

// compile-time interface check
var _ cofferstore.Store = (*Store)(nil)

// Store implements store.Store using PostgreSQL via Grove ORM.
type Store struct {
	db *grove.DB
	pg *pgdriver.PgDB
}

// New creates a new PostgreSQL store backed by Grove ORM.
func New(db *grove.DB) *Store {
	return &Store{
		db: db,
		pg: pgdriver.Unwrap(db),
	}
}

// DB returns the underlying grove database for direct access.
func (s *Store) DB() *grove.DB { return s.db }

// Migrate creates the required tables and indexes using the grove orchestrator.
func (s *Store) Migrate(ctx context.Context) error {
	executor, err := migrate.NewExecutorFor(s.pg)
	if err != nil {
		return fmt.Errorf("coffer/postgres: create migration executor: %w", err)
	}
	orch := migrate.NewOrchestrator(executor, Migrations)
	if _, err := orch.Migrate(ctx); err != nil {
		return fmt.Errorf("coffer/postgres: migration failed: %w", err)
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
	err := s.pg.NewSelect(m).Where("account = $1", acct).Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, coffer.ErrNotFound
		}
		return nil, fmt.Errorf("coffer/postgres: get balance: %w", err)
	}
	return fromBalanceModel(m), nil
}

func (s *Store) SetBalance(ctx context.Context, b *account.Balance) error {
	return s.SetBalances(ctx, []*account.Balance{b})
}

// SetBalances writes all records with one multi-row upsert so a transfer
// never lands half applied.
func (s *Store) SetBalances(ctx context.Context, bs []*account.Balance) error {
	if len(bs) == 0 {
		return nil
	}
	bs = lastPerAccount(bs)
	models := make([]balanceModel, 0, len(bs))
	for _, b := range bs {
		models = append(models, toBalanceModel(b))
	}
	_, err := s.pg.NewInsert(&models).
		MultiRow().
		OnConflict("(account) DO UPDATE").
		Set("name = EXCLUDED.name").
		Set("amount = EXCLUDED.amount").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("coffer/postgres: set balances: %w", err)
	}
	return nil
}

func (s *Store) ClearBalances(ctx context.Context) error {
	_, err := s.pg.NewDelete((*balanceModel)(nil)).
		Where("1 = 1").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("coffer/postgres: clear balances: %w", err)
	}
	return nil
}

func (s *Store) ListBalances(ctx context.Context) ([]*account.Balance, error) {
	var models []balanceModel
	err := s.pg.NewSelect(&models).
		OrderExpr("amount DESC, account ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("coffer/postgres: list balances: %w", err)
	}

	result := make([]*account.Balance, len(models))
	for i := range models {
		result[i] = fromBalanceModel(&models[i])
	}
	return result, nil
}

// ==================== Helpers ====================

func now() time.Time {
	return time.Now().UTC()
}

// isNoRows checks for the pgx and database/sql no-rows sentinels.
func isNoRows(err error) bool {
	return errors.Is(err, pgx.ErrNoRows) || errors.Is(err, sql.ErrNoRows)
}

// lastPerAccount drops earlier records for an account that appears more
// than once. Postgres refuses an upsert that touches the same row twice.
func lastPerAccount(bs []*account.Balance) []*account.Balance {
	last := make(map[string]int, len(bs))
	for i, b := range bs {
		last[b.Account] = i
	}
	if len(last) == len(bs) {
		return bs
	}
	out := make([]*account.Balance, 0, len(last))
	for i, b := range bs {
		if last[b.Account] == i {
			out = append(out, b)
		}
	}
	return out
}
