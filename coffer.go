package coffer

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/xraph/coffer/plugin"
	"github.com/xraph/coffer/store"
	"github.com/xraph/coffer/txlog"
)

// Default page sizes for the leaderboard and transaction log views.
const (
	DefaultLeaderboardPageSize = 20
	DefaultLogPageSize         = 10
)

// Coffer is the coin ledger engine. It owns a balance store and a
// transaction log and serializes every balance mutation through one lock,
// so concurrent operations behave as if run one after another.
type Coffer struct {
	store   store.Store
	log     txlog.Log
	plugins *plugin.Registry
	logger  *slog.Logger

	// mu is held for the whole read-modify-write of every mutation,
	// including its log appends.
	mu      sync.Mutex
	stopped bool

	autoMigrate bool

	leaderboardPageSize int
	logPageSize         int
	defaultReason       string
	clock               func() time.Time
}

// New creates a new Coffer over the given store and transaction log.
func New(s store.Store, l txlog.Log, opts ...Option) *Coffer {
	c := &Coffer{
		store:               s,
		log:                 l,
		plugins:             plugin.NewRegistry(),
		logger:              slog.Default(),
		autoMigrate:         true,
		leaderboardPageSize: DefaultLeaderboardPageSize,
		logPageSize:         DefaultLogPageSize,
		defaultReason:       txlog.DefaultReason,
		clock:               func() time.Time { return time.Now().UTC() },
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Option configures a Coffer instance.
type Option func(*Coffer)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Coffer) {
		c.logger = logger
		c.plugins.WithLogger(logger)
	}
}

// WithPlugin registers a plugin.
func WithPlugin(p plugin.Plugin) Option {
	return func(c *Coffer) {
		_ = c.plugins.Register(p) //nolint:errcheck // best-effort plugin registration during init
	}
}

// WithPluginTimeout bounds how long a single plugin hook may run.
func WithPluginTimeout(d time.Duration) Option {
	return func(c *Coffer) {
		c.plugins.WithTimeout(d)
	}
}

// WithLeaderboardPageSize sets the number of standings per leaderboard page.
func WithLeaderboardPageSize(n int) Option {
	return func(c *Coffer) {
		if n > 0 {
			c.leaderboardPageSize = n
		}
	}
}

// WithLogPageSize sets the number of entries per transaction log page.
func WithLogPageSize(n int) Option {
	return func(c *Coffer) {
		if n > 0 {
			c.logPageSize = n
		}
	}
}

// WithDefaultReason sets the reason recorded when a caller gives none.
func WithDefaultReason(reason string) Option {
	return func(c *Coffer) {
		if reason != "" {
			c.defaultReason = reason
		}
	}
}

// WithClock sets the time source used for receipts and record timestamps.
func WithClock(now func() time.Time) Option {
	return func(c *Coffer) {
		if now != nil {
			c.clock = now
		}
	}
}

// WithAutoMigrate controls whether Start migrates the store. It defaults
// to true.
func WithAutoMigrate(enabled bool) Option {
	return func(c *Coffer) {
		c.autoMigrate = enabled
	}
}

// Start migrates the store and initializes plugins.
func (c *Coffer) Start(ctx context.Context) error {
	if c.autoMigrate {
		if err := c.store.Migrate(ctx); err != nil {
			return fmt.Errorf("coffer: migrate store: %w", err)
		}
	}

	c.plugins.EmitInit(ctx, c)

	c.logger.Info("coffer started",
		"leaderboard_page_size", c.leaderboardPageSize,
		"log_page_size", c.logPageSize,
		"plugins", c.plugins.Count(),
	)

	return nil
}

// Stop waits for any in-flight mutation, closes the log and the store, then
// notifies plugins. Calling Stop more than once is a no-op.
func (c *Coffer) Stop() error {
	c.mu.Lock()
	if c.stopped {
		c.mu.Unlock()
		return nil
	}
	c.stopped = true

	var errs MultiError
	if err := c.log.Close(); err != nil {
		errs.Add(fmt.Errorf("coffer: close log: %w", err))
	}
	if err := c.store.Close(); err != nil {
		errs.Add(fmt.Errorf("coffer: close store: %w", err))
	}
	c.mu.Unlock()

	// Plugins may call back into the engine; they see ErrStoreClosed.
	c.plugins.EmitShutdown(context.Background())

	c.logger.Info("coffer stopped")

	return errs.ErrOrNil()
}

// Ping checks that the store is reachable.
func (c *Coffer) Ping(ctx context.Context) error {
	return c.store.Ping(ctx)
}

// Store returns the underlying balance store.
func (c *Coffer) Store() store.Store { return c.store }

// Log returns the underlying transaction log.
func (c *Coffer) Log() txlog.Log { return c.log }

// Plugins returns the plugin registry.
func (c *Coffer) Plugins() *plugin.Registry { return c.plugins }

// LeaderboardPageSize returns the configured leaderboard page size.
func (c *Coffer) LeaderboardPageSize() int { return c.leaderboardPageSize }

// LogPageSize returns the configured transaction log page size.
func (c *Coffer) LogPageSize() int { return c.logPageSize }

func (c *Coffer) now() time.Time { return c.clock() }
