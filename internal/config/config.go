// Package config loads the pipeline's environment-variable driven
// configuration, grounded on 0xtitan6-polymarket-mm's
// internal/config/config.go use of github.com/spf13/viper for env
// binding, adapted from that repo's YAML-plus-override style to pure
// env-var binding since this pipeline has no config file of its own.
package config

import (
	"fmt"
	"strings"

	"github.com/Charliesj0129/shijim/internal/features"
	"github.com/Charliesj0129/shijim/internal/gateway"
	"github.com/Charliesj0129/shijim/internal/risk"

	"github.com/spf13/viper"
)

// Config is every environment-driven knob the composition root needs to
// construct the bus, recorders, ingestion worker, gateway, and risk gate.
type Config struct {
	BusMaxQueue int

	RawDir      string
	FallbackDir string

	CHURL              string
	CHFlushThreshold   int
	CHFlushIntervalSec int
	CHAsyncInsert      bool
	CHAsyncWait        bool

	ShardID     uint32
	TotalShards uint32

	UniverseLimit        int
	UniverseLookbackDays int
	UniverseStrategies   []string
	StartupJitterSec     int

	Risk            risk.Config
	BlockedSuffixes []string

	// RingBufferPath is the backing file for the shared-memory SBE fast
	// path; empty disables the ring-buffer ingestor entirely (the
	// composition root treats this as optional, unlike the FIX session).
	RingBufferPath     string
	RingBufferCapacity int
	RingBufferPollMs   int

	VPINBucketVolume float64
	VPINWindowSize   int
	HawkesMu         float64
	HawkesAlpha      float64
	HawkesBeta       float64

	// StagingDBPath backs the restore tool's watermark tracking (which
	// fallback JSONL lines have already been replayed into ClickHouse).
	StagingDBPath      string
	RestoreIntervalSec int
}

// envBindings maps each viper key to the literal environment variable
// named by the operator-facing environment contract, since the variables don't share
// one common prefix (SHIJIM_* alongside bare SHARD_ID/TOTAL_SHARDS).
var envBindings = map[string]string{
	"bus_max_queue":          "SHIJIM_BUS_MAX_QUEUE",
	"raw_dir":                "SHIJIM_RAW_DIR",
	"fallback_dir":           "SHIJIM_FALLBACK_DIR",
	"ch_url":                 "SHIJIM_CH_URL",
	"ch_flush_threshold":     "SHIJIM_CH_FLUSH_THRESHOLD",
	"ch_flush_interval_sec":  "SHIJIM_CH_FLUSH_INTERVAL_SEC",
	"ch_async_insert":        "SHIJIM_CH_ASYNC_INSERT",
	"ch_async_wait":          "SHIJIM_CH_ASYNC_WAIT",
	"shard_id":               "SHARD_ID",
	"total_shards":           "TOTAL_SHARDS",
	"universe_limit":         "UNIVERSE_LIMIT",
	"universe_lookback_days": "UNIVERSE_LOOKBACK_DAYS",
	"universe_strategies":    "UNIVERSE_STRATEGIES",
	"startup_jitter_sec":     "SHIJIM_STARTUP_JITTER_SEC",
	"risk_max_order_qty":     "SHIJIM_RISK_MAX_ORDER_QTY",
	"risk_max_position":      "SHIJIM_RISK_MAX_POSITION",
	"risk_price_deviation":   "SHIJIM_RISK_PRICE_DEVIATION",
	"risk_max_orders_sec":    "SHIJIM_RISK_MAX_ORDERS_PER_SEC",
	"blocked_suffixes":       "SHIJIM_BLOCKED_SUFFIXES",
	"ringbuffer_path":        "SHIJIM_RINGBUFFER_PATH",
	"ringbuffer_capacity":    "SHIJIM_RINGBUFFER_CAPACITY",
	"ringbuffer_poll_ms":     "SHIJIM_RINGBUFFER_POLL_MS",
	"vpin_bucket_volume":     "SHIJIM_VPIN_BUCKET_VOLUME",
	"vpin_window_size":       "SHIJIM_VPIN_WINDOW_SIZE",
	"hawkes_mu":              "SHIJIM_HAWKES_MU",
	"hawkes_alpha":           "SHIJIM_HAWKES_ALPHA",
	"hawkes_beta":            "SHIJIM_HAWKES_BETA",
	"staging_db_path":        "SHIJIM_STAGING_DB_PATH",
	"restore_interval_sec":   "SHIJIM_RESTORE_INTERVAL_SEC",
}

var defaults = map[string]interface{}{
	"bus_max_queue":          10000,
	"raw_dir":                "./data/raw",
	"fallback_dir":           "./data/fallback",
	"ch_url":                 "http://localhost:8123",
	"ch_flush_threshold":     1000,
	"ch_flush_interval_sec":  5,
	"ch_async_insert":        true,
	"ch_async_wait":          false,
	"shard_id":               0,
	"total_shards":           1,
	"universe_limit":         200,
	"universe_lookback_days": 20,
	"startup_jitter_sec":     0,
	"risk_max_order_qty":     0.0,
	"risk_max_position":      0.0,
	"risk_price_deviation":   0.0,
	"risk_max_orders_sec":    0.0,
	"blocked_suffixes":       "L,Q,F,R",
	"ringbuffer_path":        "",
	"ringbuffer_capacity":    1024,
	"ringbuffer_poll_ms":     1,
	"vpin_bucket_volume":     1000.0,
	"vpin_window_size":       50,
	"hawkes_mu":              0.1,
	"hawkes_alpha":           0.5,
	"hawkes_beta":            1.0,
	"staging_db_path":        "./data/staging.db",
	"restore_interval_sec":   30,
}

// Load binds every variable above into a viper instance and assembles a
// Config from it, validating the result before returning it.
func Load() (*Config, error) {
	v := viper.New()
	v.AutomaticEnv()

	for key, def := range defaults {
		v.SetDefault(key, def)
	}
	for key, env := range envBindings {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("config: bind %s: %w", env, err)
		}
	}

	cfg := &Config{
		BusMaxQueue:          v.GetInt("bus_max_queue"),
		RawDir:               v.GetString("raw_dir"),
		FallbackDir:          v.GetString("fallback_dir"),
		CHURL:                v.GetString("ch_url"),
		CHFlushThreshold:     v.GetInt("ch_flush_threshold"),
		CHFlushIntervalSec:   v.GetInt("ch_flush_interval_sec"),
		CHAsyncInsert:        v.GetBool("ch_async_insert"),
		CHAsyncWait:          v.GetBool("ch_async_wait"),
		ShardID:              uint32(v.GetInt("shard_id")),
		TotalShards:          uint32(v.GetInt("total_shards")),
		UniverseLimit:        v.GetInt("universe_limit"),
		UniverseLookbackDays: v.GetInt("universe_lookback_days"),
		UniverseStrategies:   splitCSV(v.GetString("universe_strategies")),
		StartupJitterSec:     v.GetInt("startup_jitter_sec"),
		Risk: risk.Config{
			MaxOrderQty:     v.GetFloat64("risk_max_order_qty"),
			MaxPosition:     v.GetFloat64("risk_max_position"),
			PriceDeviation:  v.GetFloat64("risk_price_deviation"),
			MaxOrdersPerSec: v.GetFloat64("risk_max_orders_sec"),
		},
		BlockedSuffixes: splitCSV(v.GetString("blocked_suffixes")),

		RingBufferPath:     v.GetString("ringbuffer_path"),
		RingBufferCapacity: v.GetInt("ringbuffer_capacity"),
		RingBufferPollMs:   v.GetInt("ringbuffer_poll_ms"),

		VPINBucketVolume: v.GetFloat64("vpin_bucket_volume"),
		VPINWindowSize:   v.GetInt("vpin_window_size"),
		HawkesMu:         v.GetFloat64("hawkes_mu"),
		HawkesAlpha:      v.GetFloat64("hawkes_alpha"),
		HawkesBeta:       v.GetFloat64("hawkes_beta"),

		StagingDBPath:      v.GetString("staging_db_path"),
		RestoreIntervalSec: v.GetInt("restore_interval_sec"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate aggregates every missing/invalid field into one error instead
// of failing on the first, so an operator sees every problem at once.
func (c *Config) Validate() error {
	var problems []string

	if c.BusMaxQueue <= 0 {
		problems = append(problems, "SHIJIM_BUS_MAX_QUEUE must be > 0")
	}
	if c.RawDir == "" {
		problems = append(problems, "SHIJIM_RAW_DIR must not be empty")
	}
	if c.FallbackDir == "" {
		problems = append(problems, "SHIJIM_FALLBACK_DIR must not be empty")
	}
	if c.CHURL == "" {
		problems = append(problems, "SHIJIM_CH_URL must not be empty")
	}
	if c.CHFlushThreshold <= 0 {
		problems = append(problems, "SHIJIM_CH_FLUSH_THRESHOLD must be > 0")
	}
	if c.CHFlushIntervalSec <= 0 {
		problems = append(problems, "SHIJIM_CH_FLUSH_INTERVAL_SEC must be > 0")
	}
	if c.TotalShards == 0 {
		problems = append(problems, "TOTAL_SHARDS must be > 0")
	}
	if c.ShardID >= c.TotalShards {
		problems = append(problems, "SHARD_ID must be < TOTAL_SHARDS")
	}
	if c.Risk.MaxOrderQty <= 0 {
		problems = append(problems, "SHIJIM_RISK_MAX_ORDER_QTY must be > 0")
	}
	if c.Risk.MaxPosition <= 0 {
		problems = append(problems, "SHIJIM_RISK_MAX_POSITION must be > 0")
	}
	if c.Risk.PriceDeviation <= 0 {
		problems = append(problems, "SHIJIM_RISK_PRICE_DEVIATION must be > 0")
	}
	if c.Risk.MaxOrdersPerSec <= 0 {
		problems = append(problems, "SHIJIM_RISK_MAX_ORDERS_PER_SEC must be > 0")
	}
	if len(c.BlockedSuffixes) == 0 {
		problems = append(problems, "SHIJIM_BLOCKED_SUFFIXES must not be empty")
	}
	if c.RingBufferPath != "" && (c.RingBufferCapacity <= 0 || c.RingBufferCapacity&(c.RingBufferCapacity-1) != 0) {
		problems = append(problems, "SHIJIM_RINGBUFFER_CAPACITY must be a power of two > 0 when SHIJIM_RINGBUFFER_PATH is set")
	}
	if c.VPINBucketVolume <= 0 {
		problems = append(problems, "SHIJIM_VPIN_BUCKET_VOLUME must be > 0")
	}
	if c.VPINWindowSize <= 0 {
		problems = append(problems, "SHIJIM_VPIN_WINDOW_SIZE must be > 0")
	}
	if c.HawkesBeta <= 0 {
		problems = append(problems, "SHIJIM_HAWKES_BETA must be > 0")
	}
	if c.StagingDBPath == "" {
		problems = append(problems, "SHIJIM_STAGING_DB_PATH must not be empty")
	}
	if c.RestoreIntervalSec <= 0 {
		problems = append(problems, "SHIJIM_RESTORE_INTERVAL_SEC must be > 0")
	}

	if len(problems) == 0 {
		return nil
	}
	return fmt.Errorf("config: invalid configuration:\n  %s", strings.Join(problems, "\n  "))
}

// ShardConfig adapts the loaded shard fields to gateway.ShardConfig.
func (c *Config) ShardConfig() gateway.ShardConfig {
	return gateway.ShardConfig{ShardID: c.ShardID, TotalShards: c.TotalShards}
}

// VPINConfig adapts the loaded VPIN fields to features.VPINConfig.
func (c *Config) VPINConfig() features.VPINConfig {
	return features.VPINConfig{BucketVolume: c.VPINBucketVolume, WindowSize: c.VPINWindowSize}
}

// HawkesConfig adapts the loaded Hawkes fields to features.HawkesConfig.
func (c *Config) HawkesConfig() features.HawkesConfig {
	return features.HawkesConfig{Mu: c.HawkesMu, Alpha: c.HawkesAlpha, Beta: c.HawkesBeta}
}

func splitCSV(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
