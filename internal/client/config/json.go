package config

import (
	"encoding/json"
	"log/slog"
	"os"
	"time"

	"github.com/dmitrijs2005/paykeeper/internal/flagx"
	"github.com/dmitrijs2005/paykeeper/internal/timex"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling.
// Durations use timex.Duration so JSON can specify them either as strings
// like "3s" or as integer nanoseconds. Absent fields keep their defaults.
type JsonConfig struct {
	ServerEndpointAddr  *string         `json:"server_endpoint_addr"`
	OnlineCheckInterval *timex.Duration `json:"online_check_interval"`
	DatabasePath        *string         `json:"database_path"`
	HTTPAddr            *string         `json:"http_addr"`
	MaxSyncAttempts     *int            `json:"max_sync_attempts"`
	RequestTimeout      *timex.Duration `json:"request_timeout"`
	SyncMinInterval     *timex.Duration `json:"sync_min_interval"`
	SyncBackoffMin      *timex.Duration `json:"sync_backoff_min"`
	SyncBackoffMax      *timex.Duration `json:"sync_backoff_max"`
	LogLevel            *slog.Level     `json:"log_level"`
}

// parseJson overlays Config with values loaded from a JSON file.
//
// The path comes from -c/-config, falling back to $PAYKEEPER_CONFIG. If both
// are empty, nothing is loaded. Read or unmarshal errors panic.
func parseJson(cfg *Config) {
	jsonConfigFile := flagx.ConfigPath(os.Args[1:], EnvConfigPath)
	if jsonConfigFile == "" {
		return
	}

	var jc JsonConfig

	data, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}
	if err := json.Unmarshal(data, &jc); err != nil {
		panic(err)
	}

	setString(&cfg.ServerEndpointAddr, jc.ServerEndpointAddr)
	setDuration(&cfg.OnlineCheckInterval, jc.OnlineCheckInterval)
	setString(&cfg.DatabasePath, jc.DatabasePath)
	setString(&cfg.HTTPAddr, jc.HTTPAddr)
	if jc.MaxSyncAttempts != nil {
		cfg.MaxSyncAttempts = *jc.MaxSyncAttempts
	}
	setDuration(&cfg.RequestTimeout, jc.RequestTimeout)
	setDuration(&cfg.SyncMinInterval, jc.SyncMinInterval)
	setDuration(&cfg.SyncBackoffMin, jc.SyncBackoffMin)
	setDuration(&cfg.SyncBackoffMax, jc.SyncBackoffMax)
	if jc.LogLevel != nil {
		cfg.LogLevel = *jc.LogLevel
	}
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}

func setDuration(dst *time.Duration, v *timex.Duration) {
	if v != nil {
		*dst = v.Duration
	}
}
