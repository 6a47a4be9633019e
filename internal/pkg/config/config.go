// Package config loads the TOML configuration shared by the CLI and the
// canvas server.
package config

import (
	"fmt"
	"time"

	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/facegraph/facegraph-go/graph"
)

// GraphConfig configures the API client.
type GraphConfig struct {
	AccessToken    string `koanf:"access_token"`
	BaseURL        string `koanf:"base_url"`
	TimeoutSeconds int    `koanf:"timeout_seconds"`
}

// Timeout returns the configured round-trip timeout.
func (c GraphConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// CORSConfig configures cross-origin handling of the canvas server.
type CORSConfig struct {
	Enabled          bool     `koanf:"enabled"`
	AllowOrigins     []string `koanf:"allow_origins"`
	AllowMethods     []string `koanf:"allow_methods"`
	AllowHeaders     []string `koanf:"allow_headers"`
	AllowCredentials bool     `koanf:"allow_credentials"`
	MaxAge           int      `koanf:"max_age"`
}

// CanvasConfig configures the canvas demo server.
type CanvasConfig struct {
	Listen      string     `koanf:"listen"`
	AppID       string     `koanf:"app_id"`
	AppSecret   string     `koanf:"app_secret"`
	RedirectURI string     `koanf:"redirect_uri"`
	Scope       []string   `koanf:"scope"`
	CORS        CORSConfig `koanf:"cors"`
}

// Config is the full configuration tree.
type Config struct {
	Graph  GraphConfig  `koanf:"graph"`
	Canvas CanvasConfig `koanf:"canvas"`
}

// Load reads and unmarshals the TOML file at path, applying defaults for
// unset values.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	if err := k.Load(file.Provider(path), toml.Parser()); err != nil {
		return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config file %s: %w", path, err)
	}
	applyDefaults(&cfg)
	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Graph.BaseURL == "" {
		cfg.Graph.BaseURL = graph.APIRoot
	}
	if cfg.Graph.TimeoutSeconds == 0 {
		cfg.Graph.TimeoutSeconds = int(graph.DefaultTimeout / time.Second)
	}
	if cfg.Canvas.Listen == "" {
		cfg.Canvas.Listen = ":8700"
	}
	if len(cfg.Canvas.CORS.AllowMethods) == 0 {
		cfg.Canvas.CORS.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	}
}

// Watch reloads the file whenever it changes and hands the fresh Config to
// onChange. Reload errors are reported through onError (which may be nil)
// and leave the previous configuration in effect. The returned stop
// function ends watching.
func Watch(path string, onChange func(*Config), onError func(error)) (func() error, error) {
	provider := file.Provider(path)

	// Fail fast when the file is unreadable before watching it.
	if _, err := Load(path); err != nil {
		return nil, err
	}

	err := provider.Watch(func(event interface{}, err error) {
		if err != nil {
			if onError != nil {
				onError(err)
			}
			return
		}
		cfg, err := Load(path)
		if err != nil {
			if onError != nil {
				onError(err)
			}
			return
		}
		onChange(cfg)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to watch config file %s: %w", path, err)
	}
	return provider.Unwatch, nil
}
