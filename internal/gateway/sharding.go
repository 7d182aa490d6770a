package gateway

import (
	"os"
	"strconv"
)

// ShardConfig is a worker's shard assignment within the subscription
// universe: 0 <= ShardID < TotalShards.
type ShardConfig struct {
	ShardID     uint32
	TotalShards uint32
}

// ShardConfigFromEnv reads SHARD_ID/TOTAL_SHARDS, defaulting to a single
// unsharded worker (0, 1) and clamping an out-of-range shard id back to 0.
func ShardConfigFromEnv() ShardConfig {
	shardID := safeUint(os.Getenv("SHARD_ID"), 0)
	total := safeUint(os.Getenv("TOTAL_SHARDS"), 1)
	if total == 0 {
		total = 1
	}
	if shardID >= total {
		shardID = 0
	}
	return ShardConfig{ShardID: shardID, TotalShards: total}
}

// ShardIndices returns the [start, end) slice of a totalItems-length
// sequence allocated to this shard, distributing the remainder across the
// first shards so no shard differs from another by more than one item.
func ShardIndices(totalItems int, cfg ShardConfig) (int, int) {
	if totalItems <= 0 {
		return 0, 0
	}
	base := totalItems / int(cfg.TotalShards)
	remainder := totalItems % int(cfg.TotalShards)
	var start, end int
	if int(cfg.ShardID) < remainder {
		start = int(cfg.ShardID) * (base + 1)
		end = start + base + 1
	} else {
		start = int(cfg.ShardID)*base + remainder
		end = start + base
	}
	if end > totalItems {
		end = totalItems
	}
	return start, end
}

// ShardSlice returns the subset of items assigned to this shard.
func ShardSlice[T any](items []T, cfg ShardConfig) []T {
	start, end := ShardIndices(len(items), cfg)
	return items[start:end]
}

func safeUint(raw string, def uint32) uint32 {
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return def
	}
	return uint32(n)
}
