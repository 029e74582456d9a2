// Package extension provides the Forge extension adapter for Coffer.
//
// It implements the forge.Extension interface to integrate Coffer
// into a Forge application with DI registration and lifecycle management.
//
// Configuration can be provided programmatically via Option functions
// or via YAML configuration files under "extensions.coffer" or "coffer" keys.
package extension

import (
	"context"
	"errors"
	"fmt"

	"github.com/xraph/forge"
	"github.com/xraph/grove"
	"github.com/xraph/vessel"

	"github.com/xraph/coffer"
	"github.com/xraph/coffer/store"
	"github.com/xraph/coffer/store/file"
	"github.com/xraph/coffer/store/memory"
	"github.com/xraph/coffer/store/mongo"
	"github.com/xraph/coffer/store/postgres"
	"github.com/xraph/coffer/store/sqlite"
	"github.com/xraph/coffer/txlog"
	filelog "github.com/xraph/coffer/txlog/file"
	memlog "github.com/xraph/coffer/txlog/memory"
)

// ExtensionName is the name registered with Forge.
const ExtensionName = "coffer"

// ExtensionDescription is the human-readable description.
const ExtensionDescription = "Persistent coin ledger with transaction log"

// ExtensionVersion is the semantic version.
const ExtensionVersion = "0.1.0"

// Ensure Extension implements forge.Extension at compile time.
var _ forge.Extension = (*Extension)(nil)

// Extension adapts Coffer as a Forge extension.
type Extension struct {
	*forge.BaseExtension

	config     Config
	engine     *coffer.Coffer
	store      store.Store
	log        txlog.Log
	groveDB    *grove.DB
	cofferOpts []coffer.Option
}

// New creates a new Coffer Forge extension with the given options.
func New(opts ...Option) *Extension {
	e := &Extension{
		BaseExtension: forge.NewBaseExtension(ExtensionName, ExtensionVersion, ExtensionDescription),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Engine returns the underlying Coffer instance.
// This is nil until Register is called.
func (e *Extension) Engine() *coffer.Coffer { return e.engine }

// Register implements [forge.Extension]. It loads configuration,
// initializes the coffer engine, and registers it in the DI container.
func (e *Extension) Register(fapp forge.App) error {
	if err := e.BaseExtension.Register(fapp); err != nil {
		return err
	}

	if err := e.loadConfiguration(); err != nil {
		return err
	}

	eng, err := e.build()
	if err != nil {
		return err
	}
	e.engine = eng

	return vessel.Provide(fapp.Container(), func() (*coffer.Coffer, error) {
		return e.engine, nil
	})
}

// build validates the resolved config and assembles the engine.
func (e *Extension) build() (*coffer.Coffer, error) {
	if err := e.config.Validate(); err != nil {
		return nil, err
	}

	injected := e.store != nil
	s, err := e.buildStore()
	if err != nil {
		return nil, err
	}

	l, err := e.buildLog()
	if err != nil {
		if !injected {
			_ = s.Close()
		}
		return nil, err
	}
	e.store = s
	e.log = l

	return coffer.New(e.store, e.log, e.buildCofferOpts()...), nil
}

// Start implements [forge.Extension].
func (e *Extension) Start(ctx context.Context) error {
	if e.engine == nil {
		return errors.New("coffer: extension not initialized")
	}

	if err := e.engine.Start(ctx); err != nil {
		return err
	}

	e.MarkStarted()
	return nil
}

// Stop implements [forge.Extension].
func (e *Extension) Stop(_ context.Context) error {
	if e.engine != nil {
		if err := e.engine.Stop(); err != nil {
			e.MarkStopped()
			return err
		}
	}
	e.MarkStopped()
	return nil
}

// Health implements [forge.Extension].
func (e *Extension) Health(ctx context.Context) error {
	if e.store == nil {
		return errors.New("coffer: store not initialized")
	}
	return e.store.Ping(ctx)
}

// buildStore picks the balance store: an injected store, then a grove
// database, then a snapshot file, then memory.
func (e *Extension) buildStore() (store.Store, error) {
	if e.store != nil {
		return e.store, nil
	}

	if e.groveDB != nil {
		switch driver := normalizeDriver(e.config.GroveDriver); driver {
		case DriverPostgres:
			return postgres.New(e.groveDB), nil
		case DriverSQLite:
			return sqlite.New(e.groveDB), nil
		case DriverMongo:
			return mongo.New(e.groveDB), nil
		default:
			return nil, fmt.Errorf("coffer: grove database supplied without a known driver (got %q)", e.config.GroveDriver)
		}
	}

	if e.config.StorePath != "" {
		s, err := file.Open(e.config.StorePath)
		if err != nil {
			return nil, fmt.Errorf("coffer: open store: %w", err)
		}
		return s, nil
	}

	return memory.New(), nil
}

// buildLog picks the transaction log: an injected log, then a file, then
// memory.
func (e *Extension) buildLog() (txlog.Log, error) {
	if e.log != nil {
		return e.log, nil
	}

	if e.config.LogPath != "" {
		l, err := filelog.Open(e.config.LogPath)
		if err != nil {
			return nil, fmt.Errorf("coffer: open log: %w", err)
		}
		return l, nil
	}

	return memlog.New(), nil
}

// buildCofferOpts constructs coffer.Option values from the resolved config.
func (e *Extension) buildCofferOpts() []coffer.Option {
	opts := make([]coffer.Option, 0, len(e.cofferOpts)+4)

	opts = append(opts,
		coffer.WithAutoMigrate(!e.config.DisableMigrate),
		coffer.WithLeaderboardPageSize(e.config.LeaderboardPageSize),
		coffer.WithLogPageSize(e.config.LogPageSize),
	)
	if e.config.DefaultReason != "" {
		opts = append(opts, coffer.WithDefaultReason(e.config.DefaultReason))
	}

	// Append any pass-through coffer options.
	opts = append(opts, e.cofferOpts...)

	return opts
}

// --- Config Loading ---

// loadConfiguration loads config from YAML files or programmatic sources.
func (e *Extension) loadConfiguration() error {
	programmaticConfig := e.config

	// Try loading from config file.
	fileConfig, configLoaded := e.tryLoadFromConfigFile()

	if !configLoaded {
		if programmaticConfig.RequireConfig {
			return errors.New("coffer: configuration is required but not found in config files; " +
				"ensure 'extensions.coffer' or 'coffer' key exists in your config")
		}

		// Use programmatic config merged with defaults.
		e.config = e.mergeWithDefaults(programmaticConfig)
	} else {
		// Config loaded from YAML -- merge with programmatic options.
		e.config = e.mergeConfigurations(fileConfig, programmaticConfig)
	}

	e.Logger().Debug("coffer: configuration loaded",
		forge.F("disable_migrate", e.config.DisableMigrate),
		forge.F("leaderboard_page_size", e.config.LeaderboardPageSize),
		forge.F("log_page_size", e.config.LogPageSize),
		forge.F("store_path", e.config.StorePath),
		forge.F("log_path", e.config.LogPath),
		forge.F("grove_driver", e.config.GroveDriver),
	)

	return nil
}

// tryLoadFromConfigFile attempts to load config from YAML files.
func (e *Extension) tryLoadFromConfigFile() (Config, bool) {
	cm := e.App().Config()
	var cfg Config

	// Try "extensions.coffer" first (namespaced pattern).
	if cm.IsSet("extensions.coffer") {
		if err := cm.Bind("extensions.coffer", &cfg); err == nil {
			e.Logger().Debug("coffer: loaded config from file",
				forge.F("key", "extensions.coffer"),
			)
			return cfg, true
		}
		e.Logger().Warn("coffer: failed to bind extensions.coffer config",
			forge.F("error", "bind failed"),
		)
	}

	// Try top-level "coffer" key.
	if cm.IsSet("coffer") {
		if err := cm.Bind("coffer", &cfg); err == nil {
			e.Logger().Debug("coffer: loaded config from file",
				forge.F("key", "coffer"),
			)
			return cfg, true
		}
		e.Logger().Warn("coffer: failed to bind coffer config",
			forge.F("error", "bind failed"),
		)
	}

	return Config{}, false
}

// mergeWithDefaults fills zero-valued fields with defaults.
func (e *Extension) mergeWithDefaults(cfg Config) Config {
	defaults := DefaultConfig()
	if cfg.LeaderboardPageSize == 0 {
		cfg.LeaderboardPageSize = defaults.LeaderboardPageSize
	}
	if cfg.LogPageSize == 0 {
		cfg.LogPageSize = defaults.LogPageSize
	}
	return cfg
}

// mergeConfigurations merges YAML config with programmatic options.
// YAML config takes precedence for most fields; programmatic values fill gaps.
func (e *Extension) mergeConfigurations(yamlConfig, programmaticConfig Config) Config {
	// Programmatic bool flags override when true.
	if programmaticConfig.DisableMigrate {
		yamlConfig.DisableMigrate = true
	}

	// String fields: YAML takes precedence.
	if yamlConfig.DefaultReason == "" {
		yamlConfig.DefaultReason = programmaticConfig.DefaultReason
	}
	if yamlConfig.StorePath == "" {
		yamlConfig.StorePath = programmaticConfig.StorePath
	}
	if yamlConfig.LogPath == "" {
		yamlConfig.LogPath = programmaticConfig.LogPath
	}
	if yamlConfig.GroveDriver == "" {
		yamlConfig.GroveDriver = programmaticConfig.GroveDriver
	}

	// Int fields: YAML takes precedence, programmatic fills gaps.
	if yamlConfig.LeaderboardPageSize == 0 {
		yamlConfig.LeaderboardPageSize = programmaticConfig.LeaderboardPageSize
	}
	if yamlConfig.LogPageSize == 0 {
		yamlConfig.LogPageSize = programmaticConfig.LogPageSize
	}

	// Fill remaining zeros with defaults.
	return e.mergeWithDefaults(yamlConfig)
}
