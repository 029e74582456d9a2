package extension

import (
	"fmt"
	"strings"

	"github.com/xraph/coffer"
)

// Grove driver names accepted in Config.GroveDriver.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
	DriverMongo    = "mongo"
)

// Config holds the Coffer extension configuration.
// Fields can be set programmatically via Option functions or loaded from
// YAML configuration files (under "extensions.coffer" or "coffer" keys).
type Config struct {
	// DisableMigrate prevents auto-migration on start.
	DisableMigrate bool `json:"disable_migrate" mapstructure:"disable_migrate" yaml:"disable_migrate"`

	// LeaderboardPageSize is the number of standings per page (default: 20).
	LeaderboardPageSize int `json:"leaderboard_page_size" mapstructure:"leaderboard_page_size" yaml:"leaderboard_page_size"`

	// LogPageSize is the number of log entries per page (default: 10).
	LogPageSize int `json:"log_page_size" mapstructure:"log_page_size" yaml:"log_page_size"`

	// DefaultReason is recorded when an operation carries no reason
	// (default: "No reason provided").
	DefaultReason string `json:"default_reason" mapstructure:"default_reason" yaml:"default_reason"`

	// StorePath is the JSON snapshot file used for balances when neither a
	// store nor a grove database is supplied. Empty means in-memory.
	StorePath string `json:"store_path" mapstructure:"store_path" yaml:"store_path"`

	// LogPath is the transaction log file. Empty means in-memory.
	LogPath string `json:"log_path" mapstructure:"log_path" yaml:"log_path"`

	// GroveDriver selects the store built around a grove.DB passed with
	// WithGroveDB: "postgres", "sqlite" or "mongo".
	GroveDriver string `json:"grove_driver" mapstructure:"grove_driver" yaml:"grove_driver"`

	// RequireConfig requires config to be present in YAML files.
	// If true and no config is found, Register returns an error.
	RequireConfig bool `json:"-" yaml:"-"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		LeaderboardPageSize: coffer.DefaultLeaderboardPageSize,
		LogPageSize:         coffer.DefaultLogPageSize,
	}
}

// Validate checks the configuration for values the engine cannot use.
func (c Config) Validate() error {
	var errs coffer.MultiError

	if c.LeaderboardPageSize < 0 {
		errs.Add(coffer.ValidationError{
			Field:   "leaderboard_page_size",
			Message: fmt.Sprintf("must not be negative, got %d", c.LeaderboardPageSize),
		})
	}
	if c.LogPageSize < 0 {
		errs.Add(coffer.ValidationError{
			Field:   "log_page_size",
			Message: fmt.Sprintf("must not be negative, got %d", c.LogPageSize),
		})
	}
	switch normalizeDriver(c.GroveDriver) {
	case "", DriverPostgres, DriverSQLite, DriverMongo:
	default:
		errs.Add(coffer.ValidationError{
			Field:   "grove_driver",
			Message: fmt.Sprintf("unknown driver %q", c.GroveDriver),
		})
	}
	if c.StorePath != "" && c.StorePath == c.LogPath {
		errs.Add(coffer.ValidationError{
			Field:   "log_path",
			Message: "must differ from store_path",
		})
	}

	return errs.ErrOrNil()
}

func normalizeDriver(d string) string {
	switch d = strings.ToLower(strings.TrimSpace(d)); d {
	case "pg", "postgresql":
		return DriverPostgres
	case "sqlite3":
		return DriverSQLite
	case "mongodb":
		return DriverMongo
	default:
		return d
	}
}
