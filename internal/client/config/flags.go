package config

import (
	"flag"
	"os"

	"github.com/dmitrijs2005/paykeeper/internal/flagx"
)

// parseFlags overlays cfg with the client flags listed in the package doc.
// Other flags, -c included, are skipped. Bad values panic.
func parseFlags(cfg *Config) {
	fs := flag.NewFlagSet("paykeeper", flag.ContinueOnError)

	fs.StringVar(&cfg.ServerEndpointAddr, "a", cfg.ServerEndpointAddr, "backend gRPC address")
	fs.DurationVar(&cfg.OnlineCheckInterval, "i", cfg.OnlineCheckInterval, "connectivity probe interval")
	fs.StringVar(&cfg.DatabasePath, "d", cfg.DatabasePath, "local SQLite database file")
	fs.StringVar(&cfg.HTTPAddr, "l", cfg.HTTPAddr, "local HTTP API address, empty to disable")
	fs.TextVar(&cfg.LogLevel, "v", cfg.LogLevel, "log level: debug, info, warn or error")
	fs.IntVar(&cfg.MaxSyncAttempts, "m", cfg.MaxSyncAttempts, "replay attempts before a change is marked failed")

	if err := flagx.Parse(fs, os.Args[1:]); err != nil {
		panic(err)
	}
}
