package gateway

import (
	"time"

	"github.com/Charliesj0129/shijim/internal/events"
	"go.uber.org/zap"
)

const (
	DefaultBatchSize        = 50
	DefaultBatchSleep       = 250 * time.Millisecond
	DefaultMaxSubscriptions = 200
)

type subKey struct {
	asset events.AssetType
	code  string
}

type subEntry struct {
	sessionIndex int
}

type target struct {
	code  string
	asset events.AssetType
}

// SubscriptionManager takes a SubscriptionPlan and, for each
// (asset_type, code) pair exactly once, issues a tick + book
// subscription against a pool of broker sessions.
type SubscriptionManager struct {
	pool             *ConnectionPool
	filter           *ContractFilter
	resolve          func(code string) *ContractMeta
	batchSize        int
	batchSleep       time.Duration
	maxSubscriptions int
	sleepFunc        func(time.Duration)
	logger           *zap.Logger

	subscribed map[subKey]subEntry
}

func NewSubscriptionManager(pool *ConnectionPool, filter *ContractFilter, resolve func(code string) *ContractMeta, logger *zap.Logger) *SubscriptionManager {
	return &SubscriptionManager{
		pool:             pool,
		filter:           filter,
		resolve:          resolve,
		batchSize:        DefaultBatchSize,
		batchSleep:       DefaultBatchSleep,
		maxSubscriptions: DefaultMaxSubscriptions,
		sleepFunc:        time.Sleep,
		logger:           logger,
		subscribed:       make(map[subKey]subEntry),
	}
}

// SubscribeUniverse filters the plan, deals surviving targets round-robin
// across the session pool, and subscribes each bucket in throttled
// batches. Already-tracked (asset, code) pairs are skipped (idempotent).
func (m *SubscriptionManager) SubscribeUniverse(plan SubscriptionPlan) {
	targets := m.filteredTargets(plan)
	if len(targets) == 0 {
		if m.logger != nil {
			m.logger.Info("gateway: no contracts to subscribe")
		}
		return
	}

	n := m.pool.Size()
	if n == 0 {
		if m.logger != nil {
			m.logger.Error("gateway: subscription pool is empty")
		}
		return
	}

	buckets := make([][]target, n)
	for i, t := range targets {
		buckets[i%n] = append(buckets[i%n], t)
	}

	for sessionIdx, bucket := range buckets {
		if len(bucket) > m.maxSubscriptions {
			if m.logger != nil {
				m.logger.Warn("gateway: truncating bucket at per-session cap",
					zap.Int("session", sessionIdx), zap.Int("bucket_size", len(bucket)), zap.Int("cap", m.maxSubscriptions))
			}
			bucket = bucket[:m.maxSubscriptions]
		}
		m.subscribeBucket(sessionIdx, bucket)
	}
}

func (m *SubscriptionManager) subscribeBucket(sessionIdx int, bucket []target) {
	session, err := m.pool.GetSession(sessionIdx)
	if err != nil {
		if m.logger != nil {
			m.logger.Error("gateway: no session for bucket", zap.Int("session", sessionIdx), zap.Error(err))
		}
		return
	}

	total := len(bucket)
	for start := 0; start < total; start += m.batchSize {
		end := start + m.batchSize
		if end > total {
			end = total
		}
		for _, t := range bucket[start:end] {
			key := subKey{asset: t.asset, code: t.code}
			if _, already := m.subscribed[key]; already {
				continue
			}
			if err := session.SubscribeTick(t.code, string(t.asset)); err != nil {
				if m.logger != nil {
					m.logger.Error("gateway: subscribe tick failed", zap.String("code", t.code), zap.Error(err))
				}
				continue
			}
			if err := session.SubscribeBook(t.code, string(t.asset)); err != nil {
				if m.logger != nil {
					m.logger.Error("gateway: subscribe book failed", zap.String("code", t.code), zap.Error(err))
				}
				continue
			}
			m.subscribed[key] = subEntry{sessionIndex: sessionIdx}
		}
		if end < total && m.batchSleep > 0 {
			m.sleepFunc(m.batchSleep)
		}
	}
}

// UnsubscribeAll iterates the tracking map and issues unsubscribe calls
// best-effort, swallowing per-target failures, then clears the map.
func (m *SubscriptionManager) UnsubscribeAll() {
	for key, entry := range m.subscribed {
		session, err := m.pool.GetSession(entry.sessionIndex)
		if err != nil {
			continue
		}
		_ = session.UnsubscribeTick(key.code, string(key.asset))
		_ = session.UnsubscribeBook(key.code, string(key.asset))
	}
	m.subscribed = make(map[subKey]subEntry)
}

// TrackedCount reports the number of (asset, code) pairs currently tracked.
func (m *SubscriptionManager) TrackedCount() int { return len(m.subscribed) }

func (m *SubscriptionManager) filteredTargets(plan SubscriptionPlan) []target {
	var targets []target
	for _, code := range m.filter.FilterCodes(plan.Futures, events.AssetFutures, m.resolve) {
		targets = append(targets, target{code: code, asset: events.AssetFutures})
	}
	for _, code := range m.filter.FilterCodes(plan.Stocks, events.AssetStock, m.resolve) {
		targets = append(targets, target{code: code, asset: events.AssetStock})
	}
	return targets
}
