package supplier

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/catalink/catalink/internal/db"
	"github.com/catalink/catalink/internal/domain/order"
)

const cacheKeyPrefix = "catalink:moq_cache:"

// DefaultCacheTTL bounds how long supplier constraints are reused.
const DefaultCacheTTL = 15 * time.Minute

// store is the consumer interface for the lookup cache (ISP).
type store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// lookup is the inner contract the cache decorates.
type lookup interface {
	LookupMOQ(ctx context.Context, names []string) ([]order.SupplierEntry, error)
}

// CachedLookup caches batched supplier lookups in a key-value store.
// Cache trouble never fails a lookup; it falls through to the inner call.
type CachedLookup struct {
	inner      lookup
	store      store
	ttl        time.Duration
	cacheTotal *prometheus.CounterVec
	logger     *zap.Logger
}

// NewCached creates a caching decorator.
// cacheTotal is a counter vec with label "result" ("hit"/"miss"), passed explicitly.
func NewCached(
	inner lookup,
	s store,
	ttl time.Duration,
	cacheTotal *prometheus.CounterVec,
	logger *zap.Logger,
) *CachedLookup {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CachedLookup{
		inner:      inner,
		store:      s,
		ttl:        ttl,
		cacheTotal: cacheTotal,
		logger:     logger,
	}
}

// LookupMOQ returns cached entries for this name set or calls the inner
// lookup. Only successful lookups are cached.
func (c *CachedLookup) LookupMOQ(ctx context.Context, names []string) ([]order.SupplierEntry, error) {
	key := c.cacheKey(names)

	if entries, ok := c.getFromCache(ctx, key); ok {
		c.incCache("hit")
		return entries, nil
	}
	c.incCache("miss")

	entries, err := c.inner.LookupMOQ(ctx, names)
	if err != nil {
		return nil, err
	}

	c.putToCache(ctx, key, entries)
	return entries, nil
}

func (c *CachedLookup) incCache(result string) {
	if c.cacheTotal != nil {
		c.cacheTotal.WithLabelValues(result).Inc()
	}
}

// cacheKey hashes the normalized name set so equal batches share an entry
// regardless of request order.
func (c *CachedLookup) cacheKey(names []string) string {
	normalized := make([]string, len(names))
	for i, n := range names {
		normalized[i] = strings.ToLower(strings.TrimSpace(n))
	}
	sort.Strings(normalized)
	h := sha256.Sum256([]byte(strings.Join(normalized, "\x00")))
	return cacheKeyPrefix + hex.EncodeToString(h[:])
}

func (c *CachedLookup) getFromCache(ctx context.Context, key string) ([]order.SupplierEntry, bool) {
	data, err := c.store.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, db.ErrKeyNotFound) {
			c.logger.Warn("Failed to get cached supplier entries", zap.String("key", key), zap.Error(err))
		}
		return nil, false
	}

	var entries []order.SupplierEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		c.logger.Warn("Failed to parse cached supplier entries", zap.String("key", key), zap.Error(err))
		return nil, false
	}
	return entries, true
}

func (c *CachedLookup) putToCache(ctx context.Context, key string, entries []order.SupplierEntry) {
	data, err := json.Marshal(entries)
	if err != nil {
		c.logger.Warn("Failed to encode supplier entries", zap.Error(err))
		return
	}
	if err := c.store.SetWithTTL(ctx, key, data, c.ttl); err != nil {
		c.logger.Warn("Failed to cache supplier entries", zap.String("key", key), zap.Error(err))
	}
}
