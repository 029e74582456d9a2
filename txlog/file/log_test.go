package file

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xraph/coffer/txlog"
)

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestAppendAndReadAll(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "logs", "transactions.log")
	at := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)

	l, err := Open(path, WithClock(fixedClock(at)))
	require.NoError(t, err)

	_, err = l.Append(ctx, "ADD: alice received 100. Reason: bonus")
	require.NoError(t, err)
	_, err = l.Append(ctx, "TAKE: alice lost 40. Reason: shop")
	require.NoError(t, err)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t,
		"[Tue, 02 Jan 2024 03:04:05 GMT] ADD: alice received 100. Reason: bonus\n"+
			"[Tue, 02 Jan 2024 03:04:05 GMT] TAKE: alice lost 40. Reason: shop\n",
		string(raw))

	entries, err := l.ReadAll(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "TAKE: alice lost 40. Reason: shop", entries[1].Message)
	assert.True(t, entries[0].Time.Equal(at))

	require.NoError(t, l.Close())
}

func TestReopenAppends(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "tx.log")

	l, err := Open(path)
	require.NoError(t, err)
	_, err = l.Append(ctx, "first")
	require.NoError(t, err)
	require.NoError(t, l.Close())

	l, err = Open(path)
	require.NoError(t, err)
	defer l.Close()
	_, err = l.Append(ctx, "second")
	require.NoError(t, err)

	entries, err := l.ReadAll(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "first", entries[0].Message)
	assert.Equal(t, "second", entries[1].Message)
}

func TestReadAllKeepsUnparsableLines(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "tx.log")
	require.NoError(t, os.WriteFile(path, []byte("legacy line\n\n[Tue, 02 Jan 2024 03:04:05 GMT] ok\n"), 0o644))

	l, err := Open(path)
	require.NoError(t, err)
	defer l.Close()

	entries, err := l.ReadAll(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.True(t, entries[0].Time.IsZero())
	assert.Equal(t, "legacy line", entries[0].Message)
	assert.Equal(t, "ok", entries[1].Message)
}

func TestAppendAfterClose(t *testing.T) {
	l, err := Open(filepath.Join(t.TempDir(), "tx.log"))
	require.NoError(t, err)
	require.NoError(t, l.Close())
	require.NoError(t, l.Close())

	_, err = l.Append(context.Background(), "late")
	assert.ErrorIs(t, err, txlog.ErrClosed)
}

func TestAppendCanceledContext(t *testing.T) {
	l, err := Open(filepath.Join(t.TempDir(), "tx.log"))
	require.NoError(t, err)
	defer l.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = l.Append(ctx, "never")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestConcurrentAppendsStayWholeLines(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "tx.log")
	l, err := Open(path, WithoutSync())
	require.NoError(t, err)
	defer l.Close()

	const workers, perWorker = 8, 50
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				_, err := l.Append(ctx, fmt.Sprintf("worker %d entry %d", w, i))
				assert.NoError(t, err)
			}
		}(w)
	}
	wg.Wait()

	entries, err := l.ReadAll(ctx)
	require.NoError(t, err)
	require.Len(t, entries, workers*perWorker)
	for _, e := range entries {
		assert.False(t, e.Time.IsZero())
		assert.True(t, strings.HasPrefix(e.Message, "worker "))
	}
}
