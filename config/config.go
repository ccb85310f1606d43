// Package config loads runtime configuration from flags and environment
// variables.
package config

import (
	"fmt"
	"time"

	"github.com/jessevdk/go-flags"
)

// Version is set at build time via -ldflags.
var Version = "dev"

type rawConfig struct {
	// Upstream providers
	TMDBAPIKey    string `long:"tmdb-api-key" env:"TMDB_API_KEY" description:"TMDB API key; without it metadata resolution is disabled"`
	TraktClientID string `long:"trakt-client-id" env:"TRAKT_CLIENT_ID" description:"Trakt client id; without it the Trakt catalog is empty"`
	FeedURL       string `long:"feed-url" env:"EZTV_FEED_URL" default:"https://myrss.org/eztv" description:"Release announcement RSS feed URL"`

	// Server
	Port             string `long:"port" env:"PORT" default:"7000" description:"HTTP server port"`
	CacheTTLMinutes  int    `long:"cache-ttl-minutes" env:"CACHE_TTL_MINUTES" default:"30" description:"Response cache TTL in minutes"`
	ManifestPath     string `long:"manifest-path" env:"MANIFEST_PATH" default:"manifest.json" description:"Path of the manifest override file"`
	LogFile          string `long:"log-file" env:"LOG_FILE" description:"Log file path with rotation; empty logs to stderr"`
	Debug            bool   `long:"debug" env:"DEBUG" description:"Enable debug logging"`
	ShutdownTimeoutS int    `long:"shutdown-timeout" env:"SHUTDOWN_TIMEOUT" default:"10" description:"Graceful shutdown timeout in seconds"`
}

// Config is the resolved runtime configuration.
type Config struct {
	TMDBAPIKey    string
	TraktClientID string
	FeedURL       string

	Port            string
	CacheTTL        time.Duration
	ManifestPath    string
	LogFile         string
	Debug           bool
	ShutdownTimeout time.Duration

	Version string
}

// Load parses flags and environment. A nil, nil return means help was
// requested and printed; the caller should exit cleanly.
func Load() (*Config, error) {
	var raw rawConfig

	parser := flags.NewParser(&raw, flags.Default)

	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok {
			if flagsErr.Type == flags.ErrHelp {
				return nil, nil
			}
		}
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}

	if raw.CacheTTLMinutes <= 0 {
		raw.CacheTTLMinutes = 30
	}

	return &Config{
		TMDBAPIKey:      raw.TMDBAPIKey,
		TraktClientID:   raw.TraktClientID,
		FeedURL:         raw.FeedURL,
		Port:            raw.Port,
		CacheTTL:        time.Duration(raw.CacheTTLMinutes) * time.Minute,
		ManifestPath:    raw.ManifestPath,
		LogFile:         raw.LogFile,
		Debug:           raw.Debug,
		ShutdownTimeout: time.Duration(raw.ShutdownTimeoutS) * time.Second,
		Version:         Version,
	}, nil
}
