// Package gateway implements the subscription manager: contract
// filtering, session pool distribution, universe sharding, and
// idempotent subscribe/unsubscribe tracking.
// Ported from original_source/shijim/gateway/{filter,pool,sharding,
// subscriptions}.py.
package gateway

import "github.com/Charliesj0129/shijim/internal/events"

// SubscriptionPlan is the pair of futures/stock code universes to
// subscribe.
type SubscriptionPlan struct {
	Futures []string
	Stocks  []string
}

// RankedSymbol carries a universe-selection weight alongside a code, used
// upstream of SubscriptionPlan construction when trimming a large
// universe down to the top-N symbols by some ranking.
type RankedSymbol struct {
	Code      string
	AssetType events.AssetType
	Weight    float64
	Metadata  map[string]string
}

// ContractMeta is the subset of broker contract metadata the filter
// needs. Real sessions resolve this from the broker's contract table;
// tests and the sharding/pool layers can construct it directly.
type ContractMeta struct {
	Exchange string
	Type     string
}
