// Package config contains code to set the default values and read
// config files to be used throughout the whole application
package config

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"slices"
	"time"

	"github.com/spf13/pflag"
	v "github.com/spf13/viper"
)

var (
	_ = pflag.String("import-dir", "", "Imports CSV files from a local directory and exits")
	_ = pflag.String("import-s3-prefix", "", "Imports CSV files from the configured S3 bucket under this prefix and exits")

	validLogLevels  = []string{"debug", "info", "warn", "error", "fatal"}
	validLogFormats = []string{"console", "json"}
	validDrivers    = []string{"sqlite", "postgres"}
)

func genSecret() string {
	b := make([]byte, 64)
	rand.Read(b)
	return hex.EncodeToString(b)
}

// Setup prepares everything config-related so that the app can
// start working. Function will return an error if something
// is critically wrong and the application can't run because of
// that.
func Setup() error {
	pflag.Parse()
	v.BindPFlags(pflag.CommandLine)

	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(".")

	v.AutomaticEnv()

	//
	// ENVS
	//
	v.BindEnv("app.log_level", "app_log_level")
	v.BindEnv("app.log_format", "app_log_format")

	v.BindEnv("host.port", "host_port")
	v.BindEnv("host.cors_origins", "host_cors_origins")

	v.BindEnv("database.driver", "database_driver")
	v.BindEnv("database.dsn", "database_dsn")

	v.BindEnv("jwt.secret", "jwt_secret")
	v.BindEnv("jwt.ttl", "jwt_ttl")

	v.BindEnv("auth.code_ttl", "auth_code_ttl")
	v.BindEnv("auth.rate_limit", "auth_rate_limit")

	v.BindEnv("catalog.min_year", "catalog_min_year")
	v.BindEnv("api.page_size", "api_page_size")

	v.BindEnv("cache.ttl", "cache_ttl")
	v.BindEnv("cache.redis_addr", "cache_redis_addr")

	v.BindEnv("mail.enabled", "mail_enabled")
	v.BindEnv("mail.host", "mail_host")
	v.BindEnv("mail.port", "mail_port")
	v.BindEnv("mail.username", "mail_username")
	v.BindEnv("mail.password", "mail_password")
	v.BindEnv("mail.sender_address", "mail_sender_address")

	v.BindEnv("cloudflare.turnstile.enabled", "cloudflare_turnstile_enabled")
	v.BindEnv("cloudflare.turnstile.secret_token", "cloudflare_turnstile_secret_token")

	v.BindEnv("s3.access_key_id", "s3_access_key_id")
	v.BindEnv("s3.secret_access_key", "s3_secret_access_key")
	v.BindEnv("s3.region", "s3_region")
	v.BindEnv("s3.bucket", "s3_bucket")
	v.BindEnv("s3.endpoint", "s3_endpoint")

	//
	// Defaults
	//
	v.SetDefault("app.log_level", "info")
	v.SetDefault("app.log_format", "console")

	v.SetDefault("host.port", 8080)
	v.SetDefault("host.cors_origins", []string{"http://localhost:5173"})

	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.dsn", "ratings.db")

	v.SetDefault("jwt.ttl", 24*time.Hour)
	v.SetDefault("auth.code_ttl", 24*time.Hour)
	v.SetDefault("auth.rate_limit", 5)

	v.SetDefault("catalog.min_year", 1800)
	v.SetDefault("api.page_size", 10)

	v.SetDefault("cache.ttl", 30*time.Second)

	v.SetDefault("mail.enabled", false)
	v.SetDefault("mail.port", 587)

	v.SetDefault("cloudflare.turnstile.enabled", false)

	v.SetDefault("s3.region", "auto")

	// Unlike the secrets, every setting has a working default
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(v.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("failed to read config file, %w", err)
		}
	}

	return validate()
}

func validate() error {
	if !slices.Contains(validLogLevels, v.GetString("app.log_level")) {
		return errors.New("invalid log level provided")
	}

	if !slices.Contains(validLogFormats, v.GetString("app.log_format")) {
		return errors.New("invalid log format provided")
	}

	if v.GetInt("host.port") <= 0 {
		return errors.New("invalid port provided")
	}

	if !slices.Contains(validDrivers, v.GetString("database.driver")) {
		return errors.New("invalid database driver provided")
	}

	if v.GetString("database.dsn") == "" {
		return errors.New("database.dsn can't be empty")
	}

	if v.GetString("jwt.secret") == "" {
		fmt.Println("WARNING: You haven't set a JWT secret, so it has been generated for you. Please set it as an environment variable or in the config.toml file.\nYour random JWT secret:\n\n" + genSecret() + "\n\nPaste it into your config.toml file.")
		os.Exit(0)
	}

	if v.GetDuration("jwt.ttl") <= 0 {
		return errors.New("jwt.ttl must be bigger than 0")
	}

	if v.GetDuration("auth.code_ttl") < time.Second {
		return errors.New("auth.code_ttl must be at least a second")
	}

	if v.GetInt("auth.rate_limit") < 0 {
		return errors.New("auth.rate_limit can't be negative")
	}

	if v.GetInt("catalog.min_year") > time.Now().Year() {
		return errors.New("catalog.min_year can't be in the future")
	}

	if v.GetInt("api.page_size") <= 0 {
		return errors.New("api.page_size must be bigger than 0")
	}

	if v.GetDuration("cache.ttl") < 0 {
		return errors.New("cache.ttl can't be negative")
	}

	if v.GetBool("mail.enabled") {
		if v.GetString("mail.host") == "" {
			return errors.New("mail host is missing")
		}

		if v.GetString("mail.sender_address") == "" {
			return errors.New("mail sender address is missing")
		}
	} else {
		fmt.Println("[WARNING]: Mail delivery is disabled. Confirmation codes will only be written to the log")
	}

	if !v.GetBool("cloudflare.turnstile.enabled") {
		fmt.Println("[WARNING]: Cloudflare's turnstile is disabled. Signup won't be guarded against bots")
	} else {
		if v.GetString("cloudflare.turnstile.secret_token") == "" {
			return errors.New("turnstile secret token is missing")
		}
	}

	if v.GetString("import-s3-prefix") != "" && v.GetString("s3.bucket") == "" {
		return errors.New("s3.bucket is required to import from S3")
	}

	return nil
}
