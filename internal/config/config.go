// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Keys are flat snake_case so the same name works in YAML and as RADAR_<KEY>.
// - New() returns a fully defaulted Config; Load layers file and env on top.
// - Validation failures are *FieldError, which unwraps to ErrInvalidConfig.
package config

import (
	"fmt"
	"runtime"
	"strings"
	"time"
)

// Store drivers.
const (
	DriverMemory   = "memory"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`
	// LogFormat is text or json.
	LogFormat string `koanf:"log_format"`
	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr"`

	// StoreDriver selects the radar store backend: memory, sqlite or postgres.
	StoreDriver string `koanf:"store_driver"`
	// StoreDSN is the sqlite file path or postgres connection string.
	StoreDSN string `koanf:"store_dsn"`
	// StoreQueryTimeoutMS bounds every SQL statement.
	StoreQueryTimeoutMS int `koanf:"store_query_timeout_ms"`

	// MaxConcurrency is the batch chunk width.
	MaxConcurrency int `koanf:"max_concurrency"`
	// MaxSignalAggregationBatch caps how many entities one batch accepts.
	MaxSignalAggregationBatch int `koanf:"max_batch"`
	// AdapterTimeoutMS bounds every upstream adapter call.
	AdapterTimeoutMS int `koanf:"adapter_timeout_ms"`
	// AdapterRPS and AdapterBurst rate limit each upstream adapter.
	AdapterRPS   float64 `koanf:"adapter_rps"`
	AdapterBurst int     `koanf:"adapter_burst"`
	// BreakerFailures is the consecutive failure count that opens an adapter's breaker.
	BreakerFailures int `koanf:"breaker_failures"`
	// BreakerOpenMS is how long a tripped breaker stays open.
	BreakerOpenMS int `koanf:"breaker_open_ms"`

	// Upstream base URLs. Empty means the source reports no data.
	CampaignURL string `koanf:"campaign_url"`
	GraphURL    string `koanf:"graph_url"`
	CoverageURL string `koanf:"coverage_url"`
	CreativeURL string `koanf:"creative_url"`
	AudienceURL string `koanf:"audience_url"`
	SceneURL    string `koanf:"scene_url"`
	// FakeSources replaces every upstream with deterministic synthetic data.
	FakeSources bool `koanf:"fake_sources"`
	// FakeScenes lists the scene ids synthetic entities are spread across.
	FakeScenes []string `koanf:"fake_scenes"`

	// RedisAddr enables the scene hotness cache when set.
	RedisAddr string `koanf:"redis_addr"`
	// SceneCacheTTLSeconds is how long a cached scene hotness stays valid.
	SceneCacheTTLSeconds int `koanf:"scene_cache_ttl_s"`

	// KafkaBrokers (comma separated) and KafkaTopic enable event publishing.
	KafkaBrokers string `koanf:"kafka_brokers"`
	KafkaTopic   string `koanf:"kafka_topic"`

	// QueueSize bounds the async aggregation job queue.
	QueueSize int `koanf:"queue_size"`
	// WorkerCount sets the number of async aggregation workers.
	WorkerCount int `koanf:"worker_count"`
	// DedupeSize bounds the ingested-fact idempotency cache.
	DedupeSize int `koanf:"dedupe_size"`
	// MaxTopLimit caps top-N reads.
	MaxTopLimit int `koanf:"max_top_limit"`
	// RecommendationTTLHours sets how long generated recommendations live. 0 = no expiry.
	RecommendationTTLHours int `koanf:"recommendation_ttl_hours"`
	// BatchLockPath is the lock file that serialises CLI batch runs.
	BatchLockPath string `koanf:"batch_lock_path"`

	// Score blend weights keyed by input name. Missing keys keep the defaults.
	MomentumWeights map[string]float64 `koanf:"momentum_weights"`
	BreakoutWeights map[string]float64 `koanf:"breakout_weights"`
	RiskWeights     map[string]float64 `koanf:"risk_weights"`
}

// New returns a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:                  "info",
		LogFormat:                 "text",
		Addr:                      ":9080",
		StoreDriver:               DriverMemory,
		StoreQueryTimeoutMS:       5_000,
		MaxConcurrency:            10,
		MaxSignalAggregationBatch: 500,
		AdapterTimeoutMS:          5_000,
		AdapterRPS:                50,
		AdapterBurst:              10,
		BreakerFailures:           5,
		BreakerOpenMS:             30_000,
		SceneCacheTTLSeconds:      300,
		QueueSize:                 10_000,
		WorkerCount:               runtime.NumCPU(),
		DedupeSize:                100_000,
		MaxTopLimit:               100,
		RecommendationTTLHours:    24 * 7,
		BatchLockPath:             "/tmp/radar-batch.lock",
		KafkaTopic:                "radar.events",
	}
}

// Validate checks values that would otherwise fail later at runtime.
// Failures are *FieldError.
func (c *Config) Validate() error {
	switch {
	case strings.TrimSpace(c.Addr) == "":
		return invalid("addr", "must not be empty")
	case c.MaxConcurrency < 1:
		return invalid("max_concurrency", "must be >= 1")
	case c.MaxSignalAggregationBatch < 1:
		return invalid("max_batch", "must be >= 1")
	case c.AdapterTimeoutMS < 1:
		return invalid("adapter_timeout_ms", "must be >= 1")
	case c.MaxTopLimit < 1:
		return invalid("max_top_limit", "must be >= 1")
	case c.QueueSize < 1:
		return invalid("queue_size", "must be >= 1")
	}
	switch c.StoreDriver {
	case DriverMemory:
	case DriverSQLite, DriverPostgres:
		if strings.TrimSpace(c.StoreDSN) == "" {
			return invalid("store_dsn", "is required for "+c.StoreDriver)
		}
	default:
		return invalid("store_driver", fmt.Sprintf("%q is not memory, sqlite or postgres", c.StoreDriver))
	}
	return nil
}

// AdapterTimeout returns the per-call upstream timeout.
func (c *Config) AdapterTimeout() time.Duration {
	return time.Duration(c.AdapterTimeoutMS) * time.Millisecond
}

// StoreQueryTimeout returns the per-statement SQL timeout.
func (c *Config) StoreQueryTimeout() time.Duration {
	return time.Duration(c.StoreQueryTimeoutMS) * time.Millisecond
}

// BreakerOpen returns how long a tripped breaker stays open.
func (c *Config) BreakerOpen() time.Duration {
	return time.Duration(c.BreakerOpenMS) * time.Millisecond
}

// SceneCacheTTL returns the scene hotness cache TTL.
func (c *Config) SceneCacheTTL() time.Duration {
	return time.Duration(c.SceneCacheTTLSeconds) * time.Second
}

// RecommendationTTL returns the recommendation lifetime; zero means no expiry.
func (c *Config) RecommendationTTL() time.Duration {
	return time.Duration(c.RecommendationTTLHours) * time.Hour
}
