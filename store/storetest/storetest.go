// Package storetest holds a behavioural test suite that every store.Store
// implementation must pass.
package storetest

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xraph/coffer"
	"github.com/xraph/coffer/account"
	"github.com/xraph/coffer/store"
	"github.com/xraph/coffer/types"
)

// Run exercises s. newStore must return a fresh, migrated, empty store.
func Run(t *testing.T, newStore func(t *testing.T) store.Store) {
	t.Helper()

	t.Run("GetMissing", func(t *testing.T) {
		s := newStore(t)
		_, err := s.GetBalance(context.Background(), "ghost")
		assert.ErrorIs(t, err, coffer.ErrNotFound)
	})

	t.Run("SetThenGet", func(t *testing.T) {
		ctx := context.Background()
		s := newStore(t)

		b := &account.Balance{Entity: types.NewEntity(), Account: "alice", Name: "Alice", Amount: 100}
		require.NoError(t, s.SetBalance(ctx, b))

		got, err := s.GetBalance(ctx, "alice")
		require.NoError(t, err)
		assert.Equal(t, "alice", got.Account)
		assert.Equal(t, "Alice", got.Name)
		assert.Equal(t, types.Coins(100), got.Amount)
	})

	t.Run("Overwrite", func(t *testing.T) {
		ctx := context.Background()
		s := newStore(t)

		require.NoError(t, s.SetBalance(ctx, &account.Balance{Entity: types.NewEntity(), Account: "bob", Amount: 5}))
		require.NoError(t, s.SetBalance(ctx, &account.Balance{Entity: types.NewEntity(), Account: "bob", Amount: 7}))

		got, err := s.GetBalance(ctx, "bob")
		require.NoError(t, err)
		assert.Equal(t, types.Coins(7), got.Amount)
	})

	t.Run("ReturnedRecordIsACopy", func(t *testing.T) {
		ctx := context.Background()
		s := newStore(t)

		b := &account.Balance{Entity: types.NewEntity(), Account: "carol", Amount: 10}
		require.NoError(t, s.SetBalance(ctx, b))
		b.Amount = 999

		got, err := s.GetBalance(ctx, "carol")
		require.NoError(t, err)
		assert.Equal(t, types.Coins(10), got.Amount)

		got.Amount = 500
		again, err := s.GetBalance(ctx, "carol")
		require.NoError(t, err)
		assert.Equal(t, types.Coins(10), again.Amount)
	})

	t.Run("SetBalancesWritesAll", func(t *testing.T) {
		ctx := context.Background()
		s := newStore(t)

		require.NoError(t, s.SetBalances(ctx, []*account.Balance{
			{Entity: types.NewEntity(), Account: "carol", Amount: 150},
			{Entity: types.NewEntity(), Account: "dave", Amount: 50},
		}))

		carol, err := s.GetBalance(ctx, "carol")
		require.NoError(t, err)
		dave, err := s.GetBalance(ctx, "dave")
		require.NoError(t, err)
		assert.Equal(t, types.Coins(150), carol.Amount)
		assert.Equal(t, types.Coins(50), dave.Amount)
	})

	t.Run("ListAndClear", func(t *testing.T) {
		ctx := context.Background()
		s := newStore(t)

		for i, name := range []string{"a", "b", "c"} {
			require.NoError(t, s.SetBalance(ctx, &account.Balance{
				Entity: types.NewEntity(), Account: name, Amount: types.Coins(i + 1),
			}))
		}

		all, err := s.ListBalances(ctx)
		require.NoError(t, err)
		names := make([]string, 0, len(all))
		for _, b := range all {
			names = append(names, b.Account)
		}
		sort.Strings(names)
		assert.Equal(t, []string{"a", "b", "c"}, names)

		require.NoError(t, s.ClearBalances(ctx))
		all, err = s.ListBalances(ctx)
		require.NoError(t, err)
		assert.Empty(t, all)

		_, err = s.GetBalance(ctx, "a")
		assert.ErrorIs(t, err, coffer.ErrNotFound)
	})

	t.Run("ConcurrentWriters", func(t *testing.T) {
		ctx := context.Background()
		s := newStore(t)

		var wg sync.WaitGroup
		for i := 0; i < 20; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				b := &account.Balance{Entity: types.NewEntity(), Account: fmt.Sprintf("user%d", i), Amount: types.Coins(i)}
				assert.NoError(t, s.SetBalance(ctx, b))
			}(i)
		}
		wg.Wait()

		all, err := s.ListBalances(ctx)
		require.NoError(t, err)
		assert.Len(t, all, 20)
	})

	t.Run("Ping", func(t *testing.T) {
		s := newStore(t)
		assert.NoError(t, s.Ping(context.Background()))
	})
}
