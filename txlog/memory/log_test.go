package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xraph/coffer/txlog"
)

func TestLog(t *testing.T) {
	ctx := context.Background()
	at := time.Date(2024, 5, 6, 7, 8, 9, 0, time.UTC)
	l := New(WithClock(func() time.Time { return at }))

	e, err := l.Append(ctx, "ADD: alice received 1. Reason: x")
	require.NoError(t, err)
	assert.True(t, e.Time.Equal(at))

	entries, err := l.ReadAll(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, 1, l.Len())

	// ReadAll returns a copy.
	entries[0].Message = "mutated"
	again, err := l.ReadAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, "ADD: alice received 1. Reason: x", again[0].Message)

	require.NoError(t, l.Close())
	_, err = l.Append(ctx, "late")
	assert.ErrorIs(t, err, txlog.ErrClosed)
}
