package extension

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xraph/coffer"
	"github.com/xraph/coffer/store/file"
	"github.com/xraph/coffer/store/memory"
	filelog "github.com/xraph/coffer/txlog/file"
	memlog "github.com/xraph/coffer/txlog/memory"
)

func TestMergeWithDefaults(t *testing.T) {
	e := New()
	cfg := e.mergeWithDefaults(Config{LogPageSize: 5})

	assert.Equal(t, coffer.DefaultLeaderboardPageSize, cfg.LeaderboardPageSize)
	assert.Equal(t, 5, cfg.LogPageSize)
}

func TestMergeConfigurations(t *testing.T) {
	e := New()
	yaml := Config{
		LeaderboardPageSize: 50,
		StorePath:           "/var/lib/coffer/balances.json",
	}
	programmatic := Config{
		DisableMigrate:      true,
		LeaderboardPageSize: 7,
		LogPageSize:         3,
		StorePath:           "ignored.json",
		LogPath:             "tx.log",
	}

	cfg := e.mergeConfigurations(yaml, programmatic)
	assert.True(t, cfg.DisableMigrate)
	assert.Equal(t, 50, cfg.LeaderboardPageSize)
	assert.Equal(t, 3, cfg.LogPageSize)
	assert.Equal(t, "/var/lib/coffer/balances.json", cfg.StorePath)
	assert.Equal(t, "tx.log", cfg.LogPath)
}

func TestConfigValidate(t *testing.T) {
	assert.NoError(t, DefaultConfig().Validate())
	assert.NoError(t, Config{GroveDriver: "PG"}.Validate())

	err := Config{
		LeaderboardPageSize: -1,
		LogPageSize:         -2,
		GroveDriver:         "oracle",
		StorePath:           "same",
		LogPath:             "same",
	}.Validate()
	require.Error(t, err)

	var multi coffer.MultiError
	require.True(t, errors.As(err, &multi))
	assert.Len(t, multi.Errors, 4)

	var ve coffer.ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, "leaderboard_page_size", ve.Field)
}

func TestBuildDefaultsToMemory(t *testing.T) {
	e := New()
	e.config = e.mergeWithDefaults(e.config)

	eng, err := e.build()
	require.NoError(t, err)
	assert.IsType(t, &memory.Store{}, e.store)
	assert.IsType(t, &memlog.Log{}, e.log)
	assert.Equal(t, coffer.DefaultLeaderboardPageSize, eng.LeaderboardPageSize())
	assert.NoError(t, e.Health(context.Background()))
}

func TestBuildFromPaths(t *testing.T) {
	dir := t.TempDir()
	e := New(
		WithStorePath(filepath.Join(dir, "balances.json")),
		WithLogPath(filepath.Join(dir, "transactions.log")),
		WithLeaderboardPageSize(5),
	)
	e.config = e.mergeWithDefaults(e.config)

	eng, err := e.build()
	require.NoError(t, err)
	assert.IsType(t, &file.Store{}, e.store)
	assert.IsType(t, &filelog.Log{}, e.log)
	assert.Equal(t, 5, eng.LeaderboardPageSize())

	ctx := context.Background()
	require.NoError(t, eng.Start(ctx))
	_, err = eng.AddMoney(ctx, "alice", 10, "")
	require.NoError(t, err)
	require.NoError(t, eng.Stop())
}

func TestInjectedStoreAndLogWin(t *testing.T) {
	s := memory.New()
	l := memlog.New()
	e := New(WithStore(s), WithLog(l), WithStorePath("unused.json"))
	e.config = e.mergeWithDefaults(e.config)

	_, err := e.build()
	require.NoError(t, err)
	assert.Same(t, s, e.store)
	assert.Same(t, l, e.log)
}

func TestBuildRejectsInvalidConfig(t *testing.T) {
	e := New(WithLogPageSize(-1))
	_, err := e.build()
	require.Error(t, err)
}

// closeCounter records how often the store built around it is closed.
type closeCounter struct {
	*memory.Store
	closed int
}

func (c *closeCounter) Close() error {
	c.closed++
	return c.Store.Close()
}

func TestBuildClosesStoreWhenLogFails(t *testing.T) {
	dir := t.TempDir()
	e := New(
		WithStorePath(filepath.Join(dir, "balances.json")),
		// A directory cannot be opened as the log file.
		WithLogPath(dir),
	)
	e.config = e.mergeWithDefaults(e.config)

	_, err := e.build()
	require.Error(t, err)
	assert.Nil(t, e.store)
}

func TestBuildKeepsInjectedStoreOpenWhenLogFails(t *testing.T) {
	s := &closeCounter{Store: memory.New()}
	e := New(WithStore(s), WithLogPath(t.TempDir()))
	e.config = e.mergeWithDefaults(e.config)

	_, err := e.build()
	require.Error(t, err)
	assert.Equal(t, 0, s.closed)
	assert.NoError(t, s.Ping(context.Background()))
}
