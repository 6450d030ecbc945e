package config

import (
	"strings"

	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
)

const envPrefix = "ANIMEFLIX_"

// parseEnv overlays ANIMEFLIX_* environment variables, e.g.
// ANIMEFLIX_DATABASE_DSN or ANIMEFLIX_ACCESS_TOKEN_TTL=24h.
func parseEnv(config *Config) error {
	k := koanf.New(".")
	provider := env.Provider(envPrefix, ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, envPrefix))
	})
	if err := k.Load(provider, nil); err != nil {
		return err
	}

	strs := map[string]*string{
		"http_addr":        &config.HTTPAddr,
		"database_dsn":     &config.DatabaseDSN,
		"secret_key":       &config.SecretKey,
		"log_level":        &config.LogLevel,
		"static_dir":       &config.StaticDir,
		"s3_root_user":     &config.S3RootUser,
		"s3_root_password": &config.S3RootPassword,
		"s3_bucket":        &config.S3Bucket,
		"s3_region":        &config.S3Region,
		"s3_base_endpoint": &config.S3BaseEndpoint,
	}
	for key, dst := range strs {
		if k.Exists(key) {
			*dst = k.String(key)
		}
	}

	if k.Exists("allowed_origins") {
		config.AllowedOrigins = splitList(k.String("allowed_origins"))
	}
	if k.Exists("bcrypt_cost") {
		config.BcryptCost = k.Int("bcrypt_cost")
	}
	if k.Exists("login_rate_limit") {
		config.LoginRateLimit = k.Int("login_rate_limit")
	}
	if k.Exists("access_token_ttl") {
		config.AccessTokenTTL = k.Duration("access_token_ttl")
	}
	if k.Exists("store_timeout") {
		config.StoreTimeout = k.Duration("store_timeout")
	}
	if k.Exists("login_rate_window") {
		config.LoginRateWindow = k.Duration("login_rate_window")
	}
	if k.Exists("artwork_url_ttl") {
		config.ArtworkURLTTL = k.Duration("artwork_url_ttl")
	}
	return nil
}
