package config

import (
	"log/slog"
	"time"

	"github.com/go-playground/validator/v10"
)

// EnvConfigPath names the environment variable consulted for the JSON config
// file when neither -c nor -config is given.
const EnvConfigPath = "PAYKEEPER_CONFIG"

// Config holds runtime settings for the PayKeeper client.
//
// Fields:
//   - ServerEndpointAddr: host:port of the backend gRPC endpoint.
//   - OnlineCheckInterval: how often the client probes server reachability.
//   - DatabasePath: sqlite file of the local persistent store.
//   - HTTPAddr: listen address of the local HTTP API; empty disables it.
//   - MaxSyncAttempts: replay attempts before a change is marked failed.
//   - RequestTimeout: per-call deadline of remote operations.
//   - SyncMinInterval: minimum spacing between drain cycles.
//   - SyncBackoffMin, SyncBackoffMax: retry backoff bounds after a failed cycle.
//   - LogLevel: minimum level written to stderr.
type Config struct {
	ServerEndpointAddr  string        `validate:"required,hostname_port"`
	OnlineCheckInterval time.Duration `validate:"gt=0"`
	DatabasePath        string        `validate:"required"`
	HTTPAddr            string        `validate:"omitempty,hostname_port"`
	MaxSyncAttempts     int           `validate:"gte=1"`
	RequestTimeout      time.Duration `validate:"gt=0"`
	SyncMinInterval     time.Duration `validate:"gte=0"`
	SyncBackoffMin      time.Duration `validate:"gt=0"`
	SyncBackoffMax      time.Duration `validate:"gtefield=SyncBackoffMin"`
	LogLevel            slog.Level
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.ServerEndpointAddr = "127.0.0.1:50051"
	c.OnlineCheckInterval = 3 * time.Second
	c.DatabasePath = "paykeeper.db"
	c.HTTPAddr = "127.0.0.1:8080"
	c.MaxSyncAttempts = 3
	c.RequestTimeout = 10 * time.Second
	c.SyncMinInterval = time.Second
	c.SyncBackoffMin = 2 * time.Second
	c.SyncBackoffMax = time.Minute
	c.LogLevel = slog.LevelInfo
}

// Validate checks field constraints.
func (c *Config) Validate() error {
	return validator.New().Struct(c)
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// JSON (if present) and command-line flags (if present). Later sources take
// precedence over earlier ones.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}
