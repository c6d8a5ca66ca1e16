package config

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/dmitrijs2005/paykeeper/internal/flagx"
	"github.com/dmitrijs2005/paykeeper/internal/timex"
)

// JsonConfig is the on-disk form of Config. Every field is optional; nil
// means "keep what is already set". Lifetimes accept "15m" or nanoseconds,
// log_level a name such as "debug".
type JsonConfig struct {
	EndpointAddrGRPC             *string         `json:"endpoint_addr_grpc"`
	MetricsAddr                  *string         `json:"metrics_addr"`
	DatabaseDSN                  *string         `json:"database_dsn"`
	SecretKey                    *string         `json:"secret_key"`
	AccessTokenValidityDuration  *timex.Duration `json:"access_token_validity_duration"`
	RefreshTokenValidityDuration *timex.Duration `json:"refresh_token_validity_duration"`
	LogLevel                     *slog.Level     `json:"log_level"`
	S3RootUser                   *string         `json:"s3_root_user"`
	S3RootPassword               *string         `json:"s3_root_password"`
	S3Bucket                     *string         `json:"s3_bucket"`
	S3Region                     *string         `json:"s3_region"`
	S3BaseEndpoint               *string         `json:"s3_base_endpoint"`
}

func readJSON(path string) (*JsonConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	jc := &JsonConfig{}
	if err := json.Unmarshal(data, jc); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return jc, nil
}

func (jc *JsonConfig) apply(cfg *Config) {
	set(&cfg.EndpointAddrGRPC, jc.EndpointAddrGRPC)
	set(&cfg.MetricsAddr, jc.MetricsAddr)
	set(&cfg.DatabaseDSN, jc.DatabaseDSN)
	set(&cfg.SecretKey, jc.SecretKey)
	if jc.AccessTokenValidityDuration != nil {
		cfg.AccessTokenValidityDuration = jc.AccessTokenValidityDuration.Duration
	}
	if jc.RefreshTokenValidityDuration != nil {
		cfg.RefreshTokenValidityDuration = jc.RefreshTokenValidityDuration.Duration
	}
	set(&cfg.LogLevel, jc.LogLevel)
	set(&cfg.S3RootUser, jc.S3RootUser)
	set(&cfg.S3RootPassword, jc.S3RootPassword)
	set(&cfg.S3Bucket, jc.S3Bucket)
	set(&cfg.S3Region, jc.S3Region)
	set(&cfg.S3BaseEndpoint, jc.S3BaseEndpoint)
}

func set[T any](dst *T, v *T) {
	if v != nil {
		*dst = *v
	}
}

// parseJson overlays cfg with the file named by -c/-config or, failing
// that, $PAYKEEPER_SERVER_CONFIG. An unreadable or invalid file panics.
func parseJson(cfg *Config) {
	path := flagx.ConfigPath(os.Args[1:], EnvConfigPath)
	if path == "" {
		return
	}
	jc, err := readJSON(path)
	if err != nil {
		panic(err)
	}
	jc.apply(cfg)
}
