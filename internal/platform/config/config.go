package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	dErrors "radar/pkg/domain-errors"
)

// Pipeline captures batch run configuration.
type Pipeline struct {
	IdentitySalt        string
	StagingURL          string
	ArtifactPath        string
	DownloadDir         string
	DownloadConcurrency int
	GraphMaxNodes       int
	// ReferenceDate is zero when unset; main then uses the process start date.
	ReferenceDate time.Time
	Sources       []Source
	LogLevel      string
	LogFormat     string
	MetricsFile   string
	Redis         RedisConfig
}

// Source is one external dataset to download.
type Source struct {
	Name string
	URL  string
}

// RedisConfig configures the optional neighborhood cache.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	TTL          time.Duration
}

const (
	DefaultArtifactPath        = "./data/radar.db"
	DefaultDownloadDir         = "./data/raw"
	DefaultDownloadConcurrency = 6
	DefaultGraphMaxNodes       = 50000
)

// FromEnv builds a Pipeline config from environment variables so main stays
// lean. Malformed values are configuration errors; a missing salt is caught
// by Validate.
func FromEnv() (Pipeline, error) {
	cfg := Pipeline{
		IdentitySalt: os.Getenv("RADAR_IDENTITY_SALT"),
		StagingURL:   os.Getenv("RADAR_STAGING_URL"),
		ArtifactPath: envOr("RADAR_ARTIFACT_PATH", DefaultArtifactPath),
		DownloadDir:  envOr("RADAR_DOWNLOAD_DIR", DefaultDownloadDir),
		LogLevel:     envOr("RADAR_LOG_LEVEL", "info"),
		LogFormat:    envOr("RADAR_LOG_FORMAT", "json"),
		MetricsFile:  os.Getenv("RADAR_METRICS_FILE"),
		Redis: RedisConfig{
			URL:          os.Getenv("RADAR_REDIS_URL"),
			PoolSize:     10,
			MinIdleConns: 2,
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
			TTL:          24 * time.Hour,
		},
	}

	var err error
	if cfg.DownloadConcurrency, err = envInt("RADAR_DOWNLOAD_CONCURRENCY", DefaultDownloadConcurrency); err != nil {
		return Pipeline{}, err
	}
	if cfg.GraphMaxNodes, err = envInt("RADAR_GRAPH_MAX_NODES", DefaultGraphMaxNodes); err != nil {
		return Pipeline{}, err
	}
	if raw := os.Getenv("RADAR_REFERENCE_DATE"); raw != "" {
		cfg.ReferenceDate, err = time.Parse(time.DateOnly, raw)
		if err != nil {
			return Pipeline{}, dErrors.Wrap(err, dErrors.CodeConfig, "RADAR_REFERENCE_DATE must be YYYY-MM-DD")
		}
	}
	if cfg.Sources, err = parseSources(os.Getenv("RADAR_SOURCES")); err != nil {
		return Pipeline{}, err
	}
	return cfg, nil
}

// Validate fails closed: without a salt no identifier may be hashed, so the
// process must not start.
func (p Pipeline) Validate() error {
	if strings.TrimSpace(p.IdentitySalt) == "" {
		return dErrors.New(dErrors.CodeConfig, "RADAR_IDENTITY_SALT is required")
	}
	if p.StagingURL == "" {
		return dErrors.New(dErrors.CodeConfig, "RADAR_STAGING_URL is required")
	}
	if p.ArtifactPath == "" {
		return dErrors.New(dErrors.CodeConfig, "RADAR_ARTIFACT_PATH is required")
	}
	if p.DownloadConcurrency < 1 {
		return dErrors.New(dErrors.CodeConfig, "RADAR_DOWNLOAD_CONCURRENCY must be positive")
	}
	if p.GraphMaxNodes < 1 {
		return dErrors.New(dErrors.CodeConfig, "RADAR_GRAPH_MAX_NODES must be positive")
	}
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, dErrors.Wrap(err, dErrors.CodeConfig, key+" must be an integer")
	}
	return n, nil
}

// parseSources reads "name=url,name=url".
func parseSources(raw string) ([]Source, error) {
	var out []Source
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		name, url, ok := strings.Cut(part, "=")
		if !ok || strings.TrimSpace(name) == "" || strings.TrimSpace(url) == "" {
			return nil, dErrors.New(dErrors.CodeConfig, "RADAR_SOURCES entry must be name=url: "+part)
		}
		out = append(out, Source{Name: strings.TrimSpace(name), URL: strings.TrimSpace(url)})
	}
	return out, nil
}
