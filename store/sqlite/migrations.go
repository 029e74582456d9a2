package sqlite

import (
	"context"

	"github.com/xraph/grove/migrate"
)

// Migrations is the grove migration group for the Coffer store (SQLite).
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
    amount     INTEGER NOT NULL DEFAULT 0 CHECK (amount >= 0),
    created_at DATETIME NOT NULL DEFAULT (datetime('now')),
    updated_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_coffer_balances_amount ON coffer_balances (amount DESC, account ASC);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS coffer_balances`)
				return err
			},
		},
	)
}
