package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xraph/grove"
	"github.com/xraph/grove/drivers/sqlitedriver"

	"github.com/xraph/coffer"
	"github.com/xraph/coffer/account"
	"github.com/xraph/coffer/store"
	"github.com/xraph/coffer/store/storetest"
	memlog "github.com/xraph/coffer/txlog/memory"
	"github.com/xraph/coffer/types"
)

func openTemp(t *testing.T) *Store {
	t.Helper()
	ctx := context.Background()

	drv := sqlitedriver.New()
	dsn := "file:" + filepath.Join(t.TempDir(), "coffer.db") + "?_pragma=busy_timeout(5000)"
	require.NoError(t, drv.Open(ctx, dsn))
	db, err := grove.Open(drv)
	require.NoError(t, err)

	s := New(db)
	t.Cleanup(func() { _ = s.Close() })
	require.NoError(t, s.Migrate(ctx))
	return s
}

func TestStore(t *testing.T) {
	storetest.Run(t, func(t *testing.T) store.Store {
		return openTemp(t)
	})
}

func TestMigrateIsIdempotent(t *testing.T) {
	s := openTemp(t)
	assert.NoError(t, s.Migrate(context.Background()))
}

func TestOverwriteKeepsCreatedAt(t *testing.T) {
	ctx := context.Background()
	s := openTemp(t)

	created := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, s.SetBalance(ctx, &account.Balance{
		Entity:  types.NewEntityAt(created),
		Account: "alice",
		Amount:  10,
	}))
	require.NoError(t, s.SetBalance(ctx, &account.Balance{
		Entity:  types.NewEntityAt(created.Add(time.Hour)),
		Account: "alice",
		Name:    "Alice",
		Amount:  25,
	}))

	got, err := s.GetBalance(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, types.Coins(25), got.Amount)
	assert.Equal(t, "Alice", got.Name)
	assert.True(t, got.CreatedAt.Equal(created), "created_at = %v", got.CreatedAt)
	assert.True(t, got.UpdatedAt.Equal(created.Add(time.Hour)), "updated_at = %v", got.UpdatedAt)
}

func TestListOrderedByAmount(t *testing.T) {
	ctx := context.Background()
	s := openTemp(t)

	require.NoError(t, s.SetBalances(ctx, []*account.Balance{
		{Entity: types.NewEntity(), Account: "carol", Amount: 5},
		{Entity: types.NewEntity(), Account: "alice", Amount: 50},
		{Entity: types.NewEntity(), Account: "bob", Amount: 5},
	}))

	all, err := s.ListBalances(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "alice", all[0].Account)
	assert.Equal(t, "bob", all[1].Account)
	assert.Equal(t, "carol", all[2].Account)
}

func TestCofferOnSQLite(t *testing.T) {
	ctx := context.Background()
	c := coffer.New(openTemp(t), memlog.New())
	require.NoError(t, c.Start(ctx))

	_, err := c.AddMoney(ctx, "alice", 100, "")
	require.NoError(t, err)
	rc, err := c.TransferMoney(ctx, "alice", "bob", 30, "rent")
	require.NoError(t, err)
	assert.Equal(t, types.Coins(70), rc.Balance)
	assert.Equal(t, types.Coins(30), rc.CounterpartyBalance)

	_, err = c.TakeMoney(ctx, "bob", 31, "")
	assert.ErrorIs(t, err, coffer.ErrInsufficientFunds)

	board, err := c.Leaderboard(ctx, 1)
	require.NoError(t, err)
	require.Len(t, board.Items, 2)
	assert.Equal(t, "alice", board.Items[0].Account)
	assert.Equal(t, "bob", board.Items[1].Account)

	require.NoError(t, c.ResetAllBalances(ctx))
	bal, err := c.GetBalance(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, types.Coins(0), bal)
}
