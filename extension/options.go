package extension

import (
	"github.com/xraph/grove"

	"github.com/xraph/coffer"
	"github.com/xraph/coffer/plugin"
	"github.com/xraph/coffer/store"
	"github.com/xraph/coffer/txlog"
)

// Option configures the Coffer Forge extension.
type Option func(*Extension)

// WithStore sets the store for the coffer engine.
func WithStore(s store.Store) Option {
	return func(e *Extension) {
		e.store = s
	}
}

// WithLog sets the transaction log for the coffer engine.
func WithLog(l txlog.Log) Option {
	return func(e *Extension) {
		e.log = l
	}
}

// WithGroveDB builds the store from a grove database. driver is one of
// "postgres", "sqlite" or "mongo".
func WithGroveDB(db *grove.DB, driver string) Option {
	return func(e *Extension) {
		e.groveDB = db
		e.config.GroveDriver = driver
	}
}

// WithCofferOption passes a coffer.Option through to the underlying engine.
func WithCofferOption(opt coffer.Option) Option {
	return func(e *Extension) {
		e.cofferOpts = append(e.cofferOpts, opt)
	}
}

// WithPlugin registers a coffer plugin.
func WithPlugin(p plugin.Plugin) Option {
	return func(e *Extension) {
		e.cofferOpts = append(e.cofferOpts, coffer.WithPlugin(p))
	}
}

// WithConfig sets the Forge extension configuration.
func WithConfig(cfg Config) Option {
	return func(e *Extension) { e.config = cfg }
}

// WithDisableMigrate prevents auto-migration on start.
func WithDisableMigrate() Option {
	return func(e *Extension) { e.config.DisableMigrate = true }
}

// WithRequireConfig requires config to be present in YAML files.
// If true and no config is found, Register returns an error.
func WithRequireConfig(require bool) Option {
	return func(e *Extension) { e.config.RequireConfig = require }
}

// WithLeaderboardPageSize sets the number of standings per leaderboard page.
func WithLeaderboardPageSize(n int) Option {
	return func(e *Extension) { e.config.LeaderboardPageSize = n }
}

// WithLogPageSize sets the number of entries per log page.
func WithLogPageSize(n int) Option {
	return func(e *Extension) { e.config.LogPageSize = n }
}

// WithStorePath sets the JSON snapshot file for balances.
func WithStorePath(path string) Option {
	return func(e *Extension) { e.config.StorePath = path }
}

// WithLogPath sets the transaction log file.
func WithLogPath(path string) Option {
	return func(e *Extension) { e.config.LogPath = path }
}
