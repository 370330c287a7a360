package flexsearch

import (
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

// RankMode selects the alternate scoring mode applied by SearchEngine.Search
// in place of its normal boolean/resolution dispatch (searchRanked calls
// RankBM25/RankProximity directly); "" keeps the default unscored
// (index-order) result.
type RankMode string

const (
	RankNone       RankMode = ""
	RankBM25Mode   RankMode = "bm25"
	RankProximity  RankMode = "proximity"
)

// SearchOptions controls one search call and participates in the result
// cache key, per spec.md §4.H/§4.Hc.
type SearchOptions struct {
	Limit      int
	Offset     int
	Context    bool
	Resolve    bool
	Suggest    bool
	Resolution int // 0 = use index default
	Boost      float64
	Rank       RankMode // "" (default), "bm25", or "proximity"
	Phrase     bool     // treat query as a single consecutive phrase
}

// DefaultSearchOptions mirrors the Rust cache key generator's own
// defaults (limit 100, resolve true, suggest false).
func DefaultSearchOptions() SearchOptions {
	return SearchOptions{Limit: 100, Resolve: true}
}

// CacheKey deterministically encodes (lowercased query, limit, offset,
// context flag, resolve flag, suggest flag, resolution override, boost),
// grounded verbatim on
// original_source/services/inversearch/src/search/cache.rs::CacheKeyGenerator.
func CacheKey(query string, opts SearchOptions) string {
	parts := []string{
		strings.ToLower(query),
		fmt.Sprintf("limit:%d", opts.Limit),
		fmt.Sprintf("offset:%d", opts.Offset),
		fmt.Sprintf("context:%v", opts.Context),
		fmt.Sprintf("resolve:%v", opts.Resolve),
		fmt.Sprintf("suggest:%v", opts.Suggest),
	}
	if opts.Resolution > 0 {
		parts = append(parts, fmt.Sprintf("resolution:%d", opts.Resolution))
	}
	if opts.Boost != 0 {
		parts = append(parts, fmt.Sprintf("boost:%v", opts.Boost))
	}
	if opts.Rank != RankNone {
		parts = append(parts, fmt.Sprintf("rank:%s", opts.Rank))
	}
	if opts.Phrase {
		parts = append(parts, "phrase:true")
	}
	return strings.Join(parts, "|")
}

// cacheEntry is one cached search result, per spec.md §3 "Search result
// cache entry": (results, created_at, access_count).
type cacheEntry struct {
	data        []DocId
	createdAt   time.Time
	accessCount uint64
}

// ResultCache is the bounded LRU+TTL result cache of spec.md §4.Hc,
// grounded on original_source/.../search/cache.rs::SearchCache.
type ResultCache struct {
	mu        sync.Mutex
	store     *lru.Cache[string, *cacheEntry]
	ttl       time.Duration // 0 = no expiry
	maxSize   int
	hitCount  atomic.Uint64
	missCount atomic.Uint64
}

// NewResultCache constructs a ResultCache with the given max size and
// optional TTL (0 disables expiry).
func NewResultCache(maxSize int, ttl time.Duration) *ResultCache {
	if maxSize <= 0 {
		maxSize = 1000
	}
	store, _ := lru.New[string, *cacheEntry](maxSize)
	return &ResultCache{store: store, ttl: ttl, maxSize: maxSize}
}

// Get returns the cached result for key, or (nil, false) on miss or
// expiry. Per spec.md §4.H.1 / §9, any panic inside the critical section
// is recovered rather than propagated, leaving the cache's own invariants
// untouched and reporting a miss — the Go analog of the source's
// `if let Ok(...) = mutex.lock() { ... } else { None }` lock-poisoning
// recovery, since Go mutexes don't poison but an unrecovered goroutine
// panic is just as fatal to the caller.
func (c *ResultCache) Get(key string) (data []DocId, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("result cache panic recovered", slog.Any("panic", r))
			data, ok = nil, false
		}
	}()

	c.mu.Lock()
	defer c.mu.Unlock()

	entry, found := c.store.Get(key)
	if !found {
		c.missCount.Add(1)
		return nil, false
	}
	if c.ttl > 0 && time.Since(entry.createdAt) > c.ttl {
		c.store.Remove(key)
		c.missCount.Add(1)
		return nil, false
	}
	entry.accessCount++
	c.hitCount.Add(1)
	out := make([]DocId, len(entry.data))
	copy(out, entry.data)
	return out, true
}

// Set inserts or replaces the cached result for key.
func (c *ResultCache) Set(key string, data []DocId) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("result cache panic recovered", slog.Any("panic", r))
		}
	}()

	c.mu.Lock()
	defer c.mu.Unlock()
	stored := make([]DocId, len(data))
	copy(stored, data)
	c.store.Add(key, &cacheEntry{data: stored, createdAt: time.Now(), accessCount: 1})
}

// Remove evicts key, reporting whether it was present.
func (c *ResultCache) Remove(key string) bool {
	defer func() { recover() }()
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.store.Remove(key)
}

// Clear empties the cache and resets hit/miss counters.
func (c *ResultCache) Clear() {
	defer func() { recover() }()
	c.mu.Lock()
	defer c.mu.Unlock()
	c.store.Purge()
	c.hitCount.Store(0)
	c.missCount.Store(0)
}

// CacheStats reports hit/miss/size counters, per spec.md §4.Hc.
type CacheStats struct {
	Size           int
	MaxSize        int
	HitCount       uint64
	MissCount      uint64
	HitRate        float64
	TotalRequests  uint64
}

func (c *ResultCache) Stats() CacheStats {
	hits := c.hitCount.Load()
	misses := c.missCount.Load()
	total := hits + misses
	rate := 0.0
	if total > 0 {
		rate = float64(hits) / float64(total)
	}
	c.mu.Lock()
	size := c.store.Len()
	c.mu.Unlock()
	return CacheStats{
		Size: size, MaxSize: c.maxSize,
		HitCount: hits, MissCount: misses,
		HitRate: rate, TotalRequests: total,
	}
}

// queryFingerprint is used by the query-encoder cache (§4.H "reuses
// encoder output for identical query strings"), a cheap content hash
// distinct from CacheKey because it need not be human-legible.
func queryFingerprint(query string) string {
	sum := sha1.Sum([]byte(strings.ToLower(query)))
	return hex.EncodeToString(sum[:])
}

// QueryEncoderCache caches Encoder.Encode output for identical query
// strings within the search layer, per spec.md §4.H.
type QueryEncoderCache struct {
	store *lru.Cache[string, []string]
}

func NewQueryEncoderCache(size int) *QueryEncoderCache {
	if size <= 0 {
		size = 10000
	}
	store, _ := lru.New[string, []string](size)
	return &QueryEncoderCache{store: store}
}

func (c *QueryEncoderCache) Get(query string) ([]string, bool) {
	return c.store.Get(queryFingerprint(query))
}

func (c *QueryEncoderCache) Set(query string, terms []string) {
	c.store.Add(queryFingerprint(query), terms)
}
