package postgres

import (
	"context"

	"github.com/xraph/grove/migrate"
)

// Migrations is the grove migration group for the Coffer store.
var Migrations = migrate.NewGroup("coffer")

func init() {
	Migrations.MustRegister(
		&migrate.Migration{
			Name:    "create_coffer_balances",
			Version: "20240101000001",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS coffer_balances (
    account    TEXT PRIMARY KEY,
    name       TEXT NOT NULL DEFAULT '',
    amount     BIGINT NOT NULL DEFAULT 0 CHECK (amount >= 0),
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS coffer_balances`)
				return err
			},
		},
		&migrate.Migration{
			Name:    "create_coffer_balances_standing_index",
			Version: "20240101000002",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE INDEX IF NOT EXISTS idx_coffer_balances_standing ON coffer_balances (amount DESC, account ASC) WHERE amount > 0;
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP INDEX IF EXISTS idx_coffer_balances_standing`)
				return err
			},
		},
	)
}
