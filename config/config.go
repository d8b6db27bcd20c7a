// Copyright 2025 The ChapaUY Authors
// SPDX-License-Identifier: Apache-2.0

// Package config loads unigeo settings from defaults, an optional YAML file
// and the environment.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/jcodagnone/unigeo/geocoding"
	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment variable (UNIGEO_LOG_LEVEL, ...).
const EnvPrefix = "UNIGEO"

// Config holds all configuration for the application.
type Config struct {
	Google       ProviderSettings `mapstructure:"google"`
	Here         ProviderSettings `mapstructure:"here"`
	Mapbox       ProviderSettings `mapstructure:"mapbox"`
	DefaultLimit int              `mapstructure:"default_limit"`
	HTTP         HTTPConfig       `mapstructure:"http"`
	Log          LogConfig        `mapstructure:"log"`
	Server       ServerConfig     `mapstructure:"server"`
	Store        StoreConfig      `mapstructure:"store"`
	GCP          GCPConfig        `mapstructure:"gcp"`
}

// ProviderSettings holds the per-provider credential and endpoint override.
type ProviderSettings struct {
	APIKey  string `mapstructure:"api_key"`
	BaseURL string `mapstructure:"base_url"`
}

// HTTPConfig configures the outbound client.
type HTTPConfig struct {
	Timeout   time.Duration `mapstructure:"timeout"`
	UserAgent string        `mapstructure:"user_agent"`
	Trace     bool          `mapstructure:"trace"`
	TraceBody bool          `mapstructure:"trace_body"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level  string `mapstructure:"level"`  // trace, debug, info, warn, error
	Format string `mapstructure:"format"` // console, json
}

// ServerConfig holds server-specific configuration.
type ServerConfig struct {
	Addr string `mapstructure:"addr"`
}

// StoreConfig points to the lookup history database.
type StoreConfig struct {
	Path string `mapstructure:"path"`
}

// GCPConfig drives the API Keys lookup of the Google Maps key.
type GCPConfig struct {
	ProjectID      string `mapstructure:"project_id"`
	KeyDisplayName string `mapstructure:"key_display_name"`
}

// aliases are the conventional variable names each provider documents.
var aliases = map[string]string{
	"google.api_key": "GOOGLE_MAPS_API_KEY",
	"here.api_key":   "HERE_API_KEY",
	"mapbox.api_key": "MAPBOX_ACCESS_TOKEN",
}

// New returns a viper instance with defaults and environment bindings in
// place. Callers may bind flags on it before calling Load.
func New() *viper.Viper {
	v := viper.New()

	for _, p := range geocoding.Providers() {
		v.SetDefault(p+".api_key", "")
		v.SetDefault(p+".base_url", "")
	}

	v.SetDefault("default_limit", 0)
	v.SetDefault("http.timeout", 10*time.Second)
	v.SetDefault("http.user_agent", "unigeo/dev")
	v.SetDefault("http.trace", false)
	v.SetDefault("http.trace_body", false)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("store.path", "unigeo.duckdb")
	v.SetDefault("gcp.project_id", "")
	v.SetDefault("gcp.key_display_name", "")

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	for key, alias := range aliases {
		// the prefixed name goes first so it wins over the alias
		if err := v.BindEnv(key, EnvPrefix+"_"+strings.ToUpper(strings.ReplaceAll(key, ".", "_")), alias); err != nil {
			panic(fmt.Sprintf("binding environment for %s: %v", key, err))
		}
	}

	return v
}

// Load reads the configuration file (if any) and unmarshals v. An empty path
// searches unigeo.yaml in the working directory and in $HOME/.config/unigeo;
// a missing file there is not an error.
func Load(v *viper.Viper, path string) (*Config, error) {
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("unigeo")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.config/unigeo")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks values viper cannot type-check.
func (c *Config) Validate() error {
	if c.DefaultLimit < 0 {
		return fmt.Errorf("default_limit must not be negative: %d", c.DefaultLimit)
	}

	if c.HTTP.Timeout <= 0 {
		return fmt.Errorf("http.timeout must be positive: %v", c.HTTP.Timeout)
	}

	if _, err := zerolog.ParseLevel(strings.ToLower(c.Log.Level)); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}

	switch strings.ToLower(c.Log.Format) {
	case "console", "json":
	default:
		return fmt.Errorf("log.format must be console or json: %q", c.Log.Format)
	}

	return nil
}

func (c *Config) provider(name string) *ProviderSettings {
	switch name {
	case geocoding.ProviderGoogle:
		return &c.Google
	case geocoding.ProviderHere:
		return &c.Here
	case geocoding.ProviderMapbox:
		return &c.Mapbox
	}

	return nil
}

// APIKey returns the configured credential of a provider, or "".
func (c *Config) APIKey(provider string) string {
	if p := c.provider(provider); p != nil {
		return p.APIKey
	}

	return ""
}

// BaseURL returns the configured endpoint override of a provider, or "".
func (c *Config) BaseURL(provider string) string {
	if p := c.provider(provider); p != nil {
		return p.BaseURL
	}

	return ""
}

// ProviderConfig assembles the adapter configuration for a provider.
func (c *Config) ProviderConfig(provider string, fetcher geocoding.Fetcher) geocoding.ProviderConfig {
	return geocoding.ProviderConfig{
		Fetcher:      fetcher,
		BaseURL:      c.BaseURL(provider),
		DefaultLimit: c.DefaultLimit,
	}
}

// NewLogger creates a zerolog.Logger based on the configuration. Console
// output is coloured only when w is a terminal.
func (c *Config) NewLogger(w io.Writer) zerolog.Logger {
	level, err := zerolog.ParseLevel(strings.ToLower(c.Log.Level))
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}

	out := w
	if strings.ToLower(c.Log.Format) != "json" {
		out = zerolog.ConsoleWriter{
			Out:        w,
			NoColor:    !isTerminal(w),
			TimeFormat: "2006-01-02 15:04:05",
		}
	}

	return zerolog.New(out).Level(level).With().Timestamp().Logger()
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}

	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
