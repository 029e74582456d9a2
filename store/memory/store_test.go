package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/xraph/coffer"
	"github.com/xraph/coffer/account"
	"github.com/xraph/coffer/store"
	"github.com/xraph/coffer/store/storetest"
)

func TestStore(t *testing.T) {
	storetest.Run(t, func(t *testing.T) store.Store {
		return New()
	})
}

func TestClosedStore(t *testing.T) {
	ctx := context.Background()
	s := New()
	assert.NoError(t, s.Close())

	_, err := s.GetBalance(ctx, "alice")
	assert.ErrorIs(t, err, coffer.ErrStoreClosed)
	assert.ErrorIs(t, s.SetBalance(ctx, &account.Balance{Account: "alice"}), coffer.ErrStoreClosed)
	assert.ErrorIs(t, s.Ping(ctx), coffer.ErrStoreClosed)
}
