package billing

import (
	"context"
	"encoding/json"
	"sync"
	"time"
)

const (
	// storageKeyPrefix + the tenant id forms the fixed key a tenant's
	// subscription snapshot is persisted under.
	storageKeyPrefix = "billing.subscription:"

	snapshotVersion = 1

	dateLayout = "2006-01-02"
)

var nowFunc = time.Now // mockable

// usage is the metered AI-query count for a single calendar day. Date is
// the day the count applies to; a mismatch with "today" at the next
// quota check resets the count before evaluation.
type usage struct {
	Count int    `json:"count"`
	Date  string `json:"date"`
}

type snapshot struct {
	Version int   `json:"v"`
	Tier    Tier  `json:"tier"`
	Usage   usage `json:"usage"`
}

// KVStore is the subset of the key-value substrate the engine needs.
type KVStore interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
}

// Engine tracks one tenant's active tier and daily AI-query usage.
// All read-modify-write paths (the lazy day rollover and the increment)
// are serialized behind a single mutex.
type Engine struct {
	mu       sync.Mutex
	kv       KVStore
	tenantID string

	tier  Tier
	usage usage
}

// NewEngine creates an Engine for a tenant, restoring any previously
// persisted snapshot; an absent or unparsable snapshot initializes to
// defaultTier with a zero count for today.
func NewEngine(kv KVStore, tenantID string, defaultTier Tier) (*Engine, error) {
	if !defaultTier.Valid() {
		return nil, ErrInvalidTier
	}
	eng := &Engine{
		kv:       kv,
		tenantID: tenantID,
		tier:     defaultTier,
		usage:    usage{Date: today()},
	}
	eng.load()
	return eng, nil
}

func today() string {
	return nowFunc().Format(dateLayout)
}

func (eng *Engine) storageKey() string {
	return storageKeyPrefix + eng.tenantID
}

func (eng *Engine) load() {
	blob, err := eng.kv.Get(context.Background(), eng.storageKey())
	if err != nil {
		return
	}
	var snap snapshot
	if err := json.Unmarshal([]byte(blob), &snap); err != nil {
		return
	}
	if snap.Version != snapshotVersion {
		return
	}
	if !snap.Tier.Valid() {
		return
	}
	eng.tier = snap.Tier
	eng.usage = snap.Usage
}

// persist must be called with the lock held; writes are fire-and-forget.
func (eng *Engine) persist() {
	snap := snapshot{Version: snapshotVersion, Tier: eng.tier, Usage: eng.usage}
	data, err := json.Marshal(snap)
	if err != nil {
		return
	}
	_ = eng.kv.Set(context.Background(), eng.storageKey(), string(data))
}

// rollover applies the lazy day-boundary check; must be called with the
// lock held. "Today" is recomputed fresh at each check; the boundary is
// a string comparison of calendar dates, never elapsed-time arithmetic.
func (eng *Engine) rollover() {
	if day := today(); eng.usage.Date != day {
		eng.usage = usage{Date: day}
	}
}

// TenantID returns the tenant this engine meters.
func (eng *Engine) TenantID() string {
	return eng.tenantID
}

// Tier returns the active subscription tier.
func (eng *Engine) Tier() Tier {
	eng.mu.Lock()
	defer eng.mu.Unlock()
	return eng.tier
}

// Plan returns the plan configured for the active tier.
func (eng *Engine) Plan() Plan {
	eng.mu.Lock()
	defer eng.mu.Unlock()
	return plans[eng.tier]
}

// SetTier replaces the active tier unconditionally. The usage count is
// deliberately left alone; only the ceiling changes. ErrInvalidTier is
// returned for values outside the closed enumeration.
func (eng *Engine) SetTier(tier Tier) error {
	if !tier.Valid() {
		return ErrInvalidTier
	}
	eng.mu.Lock()
	defer eng.mu.Unlock()

	eng.tier = tier
	eng.persist()
	return nil
}

// HasFeature reports whether the active tier unlocks the feature.
func (eng *Engine) HasFeature(feature Feature) bool {
	eng.mu.Lock()
	defer eng.mu.Unlock()
	return plans[eng.tier].HasFeature(feature)
}

// QueryLimit returns the configured daily AI-query ceiling for the
// active tier, or Unlimited.
func (eng *Engine) QueryLimit() int {
	eng.mu.Lock()
	defer eng.mu.Unlock()
	return plans[eng.tier].DailyAIQueries
}

// RemainingQueries returns the number of AI queries left today, or
// Unlimited for tiers without a ceiling.
func (eng *Engine) RemainingQueries() int {
	eng.mu.Lock()
	defer eng.mu.Unlock()

	limit := plans[eng.tier].DailyAIQueries
	if limit == Unlimited {
		return Unlimited
	}
	eng.rollover()
	if rem := limit - eng.usage.Count; rem > 0 {
		return rem
	}
	return 0
}

// IncrementAIQuery consumes one metered query. A false return means the
// daily quota is exhausted and nothing was mutated; it is a normal
// negative result the caller branches on, not an error.
func (eng *Engine) IncrementAIQuery() bool {
	eng.mu.Lock()
	defer eng.mu.Unlock()

	eng.rollover()
	limit := plans[eng.tier].DailyAIQueries
	if limit != Unlimited && eng.usage.Count >= limit {
		return false
	}
	eng.usage.Count++
	eng.persist()
	return true
}

// UsedQueries returns today's consumed count after the rollover check.
func (eng *Engine) UsedQueries() int {
	eng.mu.Lock()
	defer eng.mu.Unlock()

	eng.rollover()
	return eng.usage.Count
}

// ResetDailyQueries explicitly zeroes today's count, independent of the
// automatic rollover. Administrative/testing use.
func (eng *Engine) ResetDailyQueries() {
	eng.mu.Lock()
	defer eng.mu.Unlock()

	eng.usage = usage{Date: today()}
	eng.persist()
}
