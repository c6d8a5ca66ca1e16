// Package config loads runtime configuration for the PayKeeper client.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file (see parseJson) selected via -c/-config or the
//     PAYKEEPER_CONFIG environment variable.
//  3. Command-line flags (see parseFlags), which override earlier values.
//
// Supported flags
//
//	-a string   address:port of the backend gRPC endpoint
//	-i duration online status check interval, e.g. "3s"
//	-d string   local database path
//	-l string   local HTTP API listen address
//	-m int      max sync attempts per change
//	-v level    log level (debug, info, warn, error)
//
// # JSON schema
//
// Durations use timex.Duration, so values can be either strings like "3s"
// or integer nanoseconds:
//
//	{
//	  "server_endpoint_addr": "127.0.0.1:50051",
//	  "online_check_interval": "3s",
//	  "database_path": "paykeeper.db",
//	  "http_addr": "127.0.0.1:8080",
//	  "max_sync_attempts": 3,
//	  "request_timeout": "10s",
//	  "sync_min_interval": "1s",
//	  "sync_backoff_min": "2s",
//	  "sync_backoff_max": "1m",
//	  "log_level": "info"
//	}
//
// (*Config).Validate checks the result with go-playground/validator.
package config
