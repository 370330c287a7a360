package flexsearch

import (
	"testing"
	"time"
)

func TestCacheKey_DeterministicAndCaseInsensitive(t *testing.T) {
	opts := DefaultSearchOptions()
	a := CacheKey("Quick Fox", opts)
	b := CacheKey("quick fox", opts)
	if a != b {
		t.Errorf("CacheKey() = %q vs %q, want case-insensitive equality", a, b)
	}
}

func TestCacheKey_DiffersOnOptions(t *testing.T) {
	a := CacheKey("fox", SearchOptions{Limit: 10})
	b := CacheKey("fox", SearchOptions{Limit: 20})
	if a == b {
		t.Error("CacheKey() ignored a differing Limit")
	}
}

func TestCacheKey_OmitsZeroResolutionAndBoost(t *testing.T) {
	withZero := CacheKey("fox", SearchOptions{Limit: 1})
	withResolutionAndBoost := CacheKey("fox", SearchOptions{Limit: 1, Resolution: 5, Boost: 2})
	if withZero == withResolutionAndBoost {
		t.Error("CacheKey() did not reflect a non-zero Resolution/Boost")
	}
}

func TestResultCache_SetGetRoundTrip(t *testing.T) {
	c := NewResultCache(10, 0)
	c.Set("k", []DocId{1, 2, 3})
	got, ok := c.Get("k")
	if !ok {
		t.Fatal("Get() after Set() reported a miss")
	}
	if len(got) != 3 || got[0] != 1 {
		t.Errorf("Get() = %v, want [1 2 3]", got)
	}
}

func TestResultCache_MissOnUnknownKey(t *testing.T) {
	c := NewResultCache(10, 0)
	if _, ok := c.Get("nope"); ok {
		t.Error("Get() on an absent key reported a hit")
	}
}

func TestResultCache_TTLExpiry(t *testing.T) {
	c := NewResultCache(10, time.Millisecond)
	c.Set("k", []DocId{1})
	time.Sleep(5 * time.Millisecond)
	if _, ok := c.Get("k"); ok {
		t.Error("Get() returned an entry past its TTL")
	}
}

func TestResultCache_RemoveAndClear(t *testing.T) {
	c := NewResultCache(10, 0)
	c.Set("a", []DocId{1})
	c.Set("b", []DocId{2})

	if !c.Remove("a") {
		t.Error("Remove() on a present key returned false")
	}
	if _, ok := c.Get("a"); ok {
		t.Error("Get() still finds a removed key")
	}

	c.Clear()
	stats := c.Stats()
	if stats.HitCount != 0 || stats.MissCount != 0 {
		t.Errorf("Stats() after Clear() = %+v, want counters reset", stats)
	}
	if _, ok := c.Get("b"); ok {
		t.Error("Get() still finds an entry after Clear()")
	}
}

func TestResultCache_Stats(t *testing.T) {
	c := NewResultCache(10, 0)
	c.Set("k", []DocId{1})
	c.Get("k")
	c.Get("missing")

	stats := c.Stats()
	if stats.HitCount != 1 || stats.MissCount != 1 {
		t.Errorf("Stats() = %+v, want HitCount=1 MissCount=1", stats)
	}
	if stats.Size != 1 {
		t.Errorf("Stats().Size = %d, want 1", stats.Size)
	}
	if stats.HitRate != 0.5 {
		t.Errorf("Stats().HitRate = %v, want 0.5", stats.HitRate)
	}
}

func TestResultCache_SetCopiesSliceDefensively(t *testing.T) {
	c := NewResultCache(10, 0)
	data := []DocId{1, 2, 3}
	c.Set("k", data)
	data[0] = 999

	got, _ := c.Get("k")
	if got[0] != 1 {
		t.Errorf("Get() = %v, want the cache to hold its own copy unaffected by later mutation", got)
	}
}

func TestQueryEncoderCache_SetGet(t *testing.T) {
	c := NewQueryEncoderCache(10)
	c.Set("hello world", []string{"hello", "world"})
	got, ok := c.Get("hello world")
	if !ok || len(got) != 2 {
		t.Errorf("Get() = (%v, %v), want the cached terms", got, ok)
	}
}

func TestQueryEncoderCache_MissOnUnseenQuery(t *testing.T) {
	c := NewQueryEncoderCache(10)
	if _, ok := c.Get("never set"); ok {
		t.Error("Get() on a query never Set() reported a hit")
	}
}

func TestNewResultCache_NonPositiveSizeFallsBackToDefault(t *testing.T) {
	c := NewResultCache(0, 0)
	if c.maxSize != 1000 {
		t.Errorf("maxSize = %d, want the 1000 default for a non-positive size", c.maxSize)
	}
}
