package config

import (
	"os"

	"github.com/goccy/go-json"

	"github.com/dmitrijs2005/animeflix/internal/flagx"
	"github.com/dmitrijs2005/animeflix/internal/timex"
)

// JSONConfig is the on-disk shape of the optional configuration file.
// Durations accept "15m" style strings or integer nanoseconds. Fields left
// out of the file keep their current value.
type JSONConfig struct {
	HTTPAddr        string         `json:"http_addr"`
	DatabaseDSN     string         `json:"database_dsn"`
	SecretKey       string         `json:"secret_key"`
	AccessTokenTTL  timex.Duration `json:"access_token_ttl"`
	StoreTimeout    timex.Duration `json:"store_timeout"`
	BcryptCost      int            `json:"bcrypt_cost"`
	AllowedOrigins  []string       `json:"allowed_origins"`
	StaticDir       *string        `json:"static_dir"`
	LogLevel        string         `json:"log_level"`
	LoginRateLimit  int            `json:"login_rate_limit"`
	LoginRateWindow timex.Duration `json:"login_rate_window"`
	S3RootUser      string         `json:"s3_root_user"`
	S3RootPassword  string         `json:"s3_root_password"`
	S3Bucket        string         `json:"s3_bucket"`
	S3Region        string         `json:"s3_region"`
	S3BaseEndpoint  string         `json:"s3_base_endpoint"`
	ArtworkURLTTL   timex.Duration `json:"artwork_url_ttl"`
}

// parseJSON loads the file named by -c / -config, if any, over config.
func parseJSON(config *Config, args []string) error {
	path := flagx.ConfigPath(args)
	if path == "" {
		return nil
	}

	b, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	c := &JSONConfig{}
	if err := json.Unmarshal(b, c); err != nil {
		return err
	}

	setString(&config.HTTPAddr, c.HTTPAddr)
	setString(&config.DatabaseDSN, c.DatabaseDSN)
	setString(&config.SecretKey, c.SecretKey)
	setString(&config.LogLevel, c.LogLevel)
	setString(&config.S3RootUser, c.S3RootUser)
	setString(&config.S3RootPassword, c.S3RootPassword)
	setString(&config.S3Bucket, c.S3Bucket)
	setString(&config.S3Region, c.S3Region)
	setString(&config.S3BaseEndpoint, c.S3BaseEndpoint)

	if c.StaticDir != nil {
		config.StaticDir = *c.StaticDir
	}
	if c.AllowedOrigins != nil {
		config.AllowedOrigins = c.AllowedOrigins
	}
	if c.BcryptCost > 0 {
		config.BcryptCost = c.BcryptCost
	}
	if c.LoginRateLimit > 0 {
		config.LoginRateLimit = c.LoginRateLimit
	}
	if c.AccessTokenTTL.Duration > 0 {
		config.AccessTokenTTL = c.AccessTokenTTL.Duration
	}
	if c.StoreTimeout.Duration > 0 {
		config.StoreTimeout = c.StoreTimeout.Duration
	}
	if c.LoginRateWindow.Duration > 0 {
		config.LoginRateWindow = c.LoginRateWindow.Duration
	}
	if c.ArtworkURLTTL.Duration > 0 {
		config.ArtworkURLTTL = c.ArtworkURLTTL.Duration
	}
	return nil
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
