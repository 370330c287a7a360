package flexsearch

import (
	"log/slog"
	"time"
)

// SearchEngine is the §4.H search layer proper: it sits above one
// InvertedIndex and adds query encoding (with its own cache, distinct from
// the index's per-document encode path), resolution-aware term combination,
// an optional two-term context fast path, and a bounded result cache.
//
// SearchOptions.Phrase and SearchOptions.Rank switch Search away from its
// default resolution-bucket ordering onto the retained teacher ranking
// machinery in search.go/query.go: Phrase runs the query through
// QueryBuilder's positional phrase operator, and Rank selects BM25 or
// proximity scoring as the result order instead.
type SearchEngine struct {
	Index       *InvertedIndex
	QueryCache  *QueryEncoderCache
	ResultCache *ResultCache
}

// NewSearchEngine wires an index to its own query-encoder and result
// caches, per spec.md §4.H / §4.Hc.
func NewSearchEngine(idx *InvertedIndex, resultCacheSize int, resultCacheTTLSeconds int) *SearchEngine {
	return &SearchEngine{
		Index:       idx,
		QueryCache:  NewQueryEncoderCache(0),
		ResultCache: NewResultCache(resultCacheSize, time.Duration(resultCacheTTLSeconds)*time.Second),
	}
}

// Search resolves query against the index under opts, returning document
// ids ordered best-match-first, per spec.md §4.H.
func (e *SearchEngine) Search(query string, opts SearchOptions) ([]DocId, error) {
	if query == "" {
		return nil, ErrEmptyQuery
	}
	if opts.Limit < 0 || opts.Offset < 0 {
		return nil, ErrInvalidOptions
	}

	key := CacheKey(query, opts)
	if cached, ok := e.ResultCache.Get(key); ok {
		return e.applyWindow(cached, opts), nil
	}

	var resolved []DocId
	switch {
	case opts.Rank != RankNone:
		resolved = e.searchRanked(query, opts.Rank, opts.Limit+opts.Offset)
	case opts.Phrase:
		resolved = e.searchPhrase(query)
	default:
		terms := e.encodeQuery(query)
		if len(terms) == 0 {
			return nil, ErrEmptyQuery
		}

		resolution := opts.Resolution
		if resolution <= 0 {
			resolution = e.Index.Config.Resolution
		}

		switch {
		case opts.Context && len(terms) == 2:
			resolved = e.searchContext(terms[0], terms[1], resolution, opts.Suggest)
		case len(terms) == 1:
			resolved = e.searchSingle(terms[0], resolution)
		default:
			resolved = e.searchMulti(terms, resolution, opts.Suggest)
		}

		if len(resolved) == 0 && opts.Suggest && len(terms) > 1 {
			resolved = e.searchSuggestFallback(terms, resolution)
		}
	}

	e.ResultCache.Set(key, resolved)
	return e.applyWindow(resolved, opts), nil
}

// searchPhrase resolves query as a single consecutive phrase via
// QueryBuilder's positional Phrase operator (search.go::FindAllPhrases),
// rather than the default per-term resolution-bucket combination.
func (e *SearchEngine) searchPhrase(query string) []DocId {
	bitmap := NewQueryBuilder(e.Index).Phrase(query).Execute()
	out := make([]DocId, 0, bitmap.GetCardinality())
	iter := bitmap.Iterator()
	for iter.HasNext() {
		out = append(out, DocId(iter.Next()))
	}
	return out
}

// searchRanked dispatches to the retained BM25 or proximity scorers
// (search.go) instead of resolution-bucket ordering, returning document ids
// in descending-score order. maxResults bounds the scorer's own internal
// truncation; applyWindow still applies offset/limit on top of that.
func (e *SearchEngine) searchRanked(query string, mode RankMode, maxResults int) []DocId {
	if maxResults <= 0 {
		maxResults = e.Index.Config.Resolution
		if maxResults <= 0 {
			maxResults = 100
		}
	}

	var matches []Match
	switch mode {
	case RankBM25Mode:
		matches = e.Index.RankBM25(query, maxResults)
	case RankProximity:
		matches = e.Index.RankProximity(query, maxResults)
	default:
		return nil
	}

	out := make([]DocId, len(matches))
	for i, m := range matches {
		out[i] = m.DocID
	}
	return out
}

// encodeQuery reuses the per-query-string encoder cache, falling back to
// the index's own Encoder (which is itself cached per input at the
// document-indexing granularity, a distinct cache per spec.md §4.H's
// "reuses encoder output for identical query strings" note).
func (e *SearchEngine) encodeQuery(query string) []string {
	if terms, ok := e.QueryCache.Get(query); ok {
		return terms
	}
	terms := e.Index.Encoder.Encode(query)
	e.QueryCache.Set(query, terms)
	return terms
}

// searchSingle implements the single-term fast path: resolution buckets are
// already ordered best-match-first (lower bucket number == earlier/tighter
// occurrence per getScore), so resolving is a straight concatenation.
func (e *SearchEngine) searchSingle(term string, resolution int) []DocId {
	buckets := e.Index.bucketsFor(term, resolution)
	return flattenBuckets(buckets)
}

// searchMulti is the multi-term coordinator: gather each term's resolved
// occurrence list, then run the resolution-aware intersection of §4.G,
// which slots a DocId by how many of the terms it appeared under.
func (e *SearchEngine) searchMulti(terms []string, resolution int, suggest bool) []DocId {
	perTerm := make([][]DocId, 0, len(terms))
	for _, term := range terms {
		ids := flattenBuckets(e.Index.bucketsFor(term, resolution))
		if len(ids) == 0 && !suggest {
			// One missing mandatory term empties a strict AND search.
			return nil
		}
		perTerm = append(perTerm, ids)
	}
	return ResolutionIntersect(perTerm, resolution, suggest)
}

// searchSuggestFallback unions every term's results when a strict
// intersection produced nothing, per spec.md §4.H's "suggest" relaxation.
func (e *SearchEngine) searchSuggestFallback(terms []string, resolution int) []DocId {
	perTerm := make([][]DocId, 0, len(terms))
	for _, term := range terms {
		perTerm = append(perTerm, flattenBuckets(e.Index.bucketsFor(term, resolution)))
	}
	return ResolutionIntersect(perTerm, resolution, true)
}

// searchContext answers a two-term query using the context co-occurrence
// index instead of independent term postings, honoring the same
// lexicographic canonicalization used when the pair was indexed
// (contextNeighbors / builder.rs::add_context).
func (e *SearchEngine) searchContext(a, b string, resolution int, suggest bool) []DocId {
	keyword, neighbor := a, b
	if e.Index.Config.Bidirectional && neighbor < keyword {
		keyword, neighbor = neighbor, keyword
	}
	buckets := e.Index.contextBucketsFor(keyword, neighbor)
	if len(buckets) == 0 && !e.Index.Config.Bidirectional {
		// try the reverse orientation before giving up: context entries
		// recorded under (b, a) are equally valid when the index was not
		// built with Bidirectional canonicalization.
		buckets = e.Index.contextBucketsFor(b, a)
	}
	if len(buckets) > 0 {
		return flattenBuckets(buckets)
	}
	if suggest {
		return e.searchMulti([]string{a, b}, resolution, true)
	}
	return nil
}

// applyWindow applies offset/limit to a resolved result list, per spec.md
// §4.H's "resolve step".
func (e *SearchEngine) applyWindow(ids []DocId, opts SearchOptions) []DocId {
	if opts.Offset >= len(ids) {
		return nil
	}
	start := opts.Offset
	end := len(ids)
	if opts.Limit > 0 && start+opts.Limit < end {
		end = start + opts.Limit
	}
	out := make([]DocId, end-start)
	copy(out, ids[start:end])
	return out
}

// flattenBuckets concatenates resolution buckets in ascending bucket order
// (best match first), de-duplicating while preserving first occurrence.
func flattenBuckets(buckets []PostingBucket) []DocId {
	seen := make(map[DocId]struct{})
	var out []DocId
	for _, bucket := range buckets {
		for _, id := range bucket {
			if _, dup := seen[id]; dup {
				continue
			}
			seen[id] = struct{}{}
			out = append(out, id)
		}
	}
	return out
}

// GetStats summarizes engine-level counters for the external gRPC shell's
// stats RPC (§6), combining index info with cache hit/miss rates.
type EngineStats struct {
	Index Info
	Cache CacheStats
}

func (e *SearchEngine) GetStats() EngineStats {
	slog.Debug("computing engine stats")
	return EngineStats{Index: e.Index.Info(), Cache: e.ResultCache.Stats()}
}
