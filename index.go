// Package-level inverted index implementing spec.md §4.F. Builds on the
// teacher's hybrid storage idea (roaring bitmaps for document-level set
// algebra, a skip list for exact positions) and adds the bucketed posting
// lists, context co-occurrence index and Register bookkeeping the
// specification requires.
//
// ═══════════════════════════════════════════════════════════════════════════════
// WHAT IS AN INVERTED INDEX?
// ═══════════════════════════════════════════════════════════════════════════════
// An inverted index is like the index at the back of a book, but for search
// engines: instead of "page numbers per topic" it stores "document ids per
// term", plus (here) a resolution bucket that approximates how early/tight
// the term's occurrence was, and an optional context index recording which
// terms co-occur near each other.
// ═══════════════════════════════════════════════════════════════════════════════
package flexsearch

import (
	"log/slog"
	"sync"

	"github.com/RoaringBitmap/roaring"
)

// DocId is the caller-chosen document identifier. Zero is reserved as
// "absent" per spec.md §3 and is rejected on insert.
type DocId = uint64

// IndexConfig controls tokenization mode, resolution bucketing, and
// fastupdate/rtl/bidirectional behavior for one InvertedIndex, per
// spec.md §3/§4.F.
type IndexConfig struct {
	Resolution    int // bucket count for plain terms, default 9
	ResolutionCtx int // bucket count for context entries
	Tokenize      TokenizeMode
	Depth         int  // context co-occurrence window; 0 disables context
	Bidirectional bool // canonicalize (keyword, neighbor) ordering
	FastUpdate    bool // Register.Map vs Register.Set
	RTL           bool // reverse position iteration direction
}

// DefaultIndexConfig matches the spec's stated defaults (resolution 9) with
// strict tokenization and no context, the least surprising starting point.
func DefaultIndexConfig() IndexConfig {
	return IndexConfig{
		Resolution:    9,
		ResolutionCtx: 9,
		Tokenize:      TokenizeStrict,
	}
}

// BM25Parameters holds the tuning parameters for the retained BM25 ranking
// mode (see SPEC_FULL.md §2: "two search services share one conceptual
// core" — BM25 kept as an alternate ranking entry point alongside
// resolution-bucket scoring).
type BM25Parameters struct {
	K1 float64
	B  float64
}

// DefaultBM25Parameters returns the teacher's standard BM25 parameters.
func DefaultBM25Parameters() BM25Parameters {
	return BM25Parameters{K1: 1.5, B: 0.75}
}

// DocumentStats stores per-document statistics backing BM25 ranking.
type DocumentStats struct {
	DocID     DocId
	Length    int
	TermFreqs map[string]int
}

// PostingBucket is one resolution-bucket's worth of DocIds, in insertion
// order, per spec.md §3: "insertion order is preserved; no numeric sort is
// imposed."
type PostingBucket []DocId

// indexRef is one (map-vs-context, term, optional keyword) back-pointer
// recorded in Register.Map form for O(deg(doc)) deletion, per spec.md §3's
// Register description and §9's "cyclic references" design note: the
// Index owns the arena (its own Postings/Context maps); Register only
// stores the keys needed to look a posting back up, never a pointer.
type indexRef struct {
	isContext bool
	term      string
	keyword   string // only set when isContext
	bucket    int
}

// InvertedIndex is the core structure of spec.md §4.F. It is
// single-writer/multi-reader: readers take RLock, the sole mutation path
// (Add/Remove/Update/Clear) takes the full Lock.
type InvertedIndex struct {
	mu sync.RWMutex

	Config  IndexConfig
	Encoder *Encoder

	// Postings: term -> bucket -> ordered DocIds. This is the spec's
	// primary data model (§3 "Term index").
	Postings map[string][]PostingBucket

	// Context: keyword -> neighbor -> bucket -> ordered DocIds (§3
	// "Context index"), populated only when Config.Depth > 0.
	Context map[string]map[string][]PostingBucket

	// DocBitmaps retains the teacher's roaring-bitmap document membership
	// index, kept as the fast path for boolean set algebra (§4.G) and the
	// QueryBuilder (query.go); it is a derived view of Postings, updated
	// in lockstep on every insert/remove.
	DocBitmaps map[string]*roaring.Bitmap

	// PostingsList retains the teacher's exact-position skip lists,
	// repurposed per SPEC_FULL.md §2 to back the optional highlighting
	// interface and the phrase/proximity search kept from search.go.
	PostingsList map[string]SkipList

	Register Register

	DocStats   map[DocId]DocumentStats
	TotalDocs  int
	TotalTerms int64
	BM25Params BM25Parameters
}

// NewInvertedIndex constructs an InvertedIndex with the given encoder and
// configuration. A nil encoder falls back to DefaultEncoderConfig().
func NewInvertedIndex(encoder *Encoder, cfg IndexConfig) *InvertedIndex {
	if encoder == nil {
		encoder, _ = NewEncoder(DefaultEncoderConfig())
	}
	var reg Register
	if cfg.FastUpdate {
		reg = newMapRegister()
	} else {
		reg = newSetRegister()
	}
	return &InvertedIndex{
		Config:       cfg,
		Encoder:      encoder,
		Postings:     make(map[string][]PostingBucket),
		Context:      make(map[string]map[string][]PostingBucket),
		DocBitmaps:   make(map[string]*roaring.Bitmap),
		PostingsList: make(map[string]SkipList),
		Register:     reg,
		DocStats:     make(map[DocId]DocumentStats),
		BM25Params:   DefaultBM25Parameters(),
	}
}

// Contains reports whether id is live in the index's Register, per
// spec.md §3's invariant "Register membership is equivalent to 'appears
// in at least one posting list'".
func (idx *InvertedIndex) Contains(id DocId) bool {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return idx.Register.Has(id)
}

// Add implements the §4.F insert protocol.
func (idx *InvertedIndex) Add(id DocId, text string, append bool) error {
	if text == "" || id == 0 {
		// spec.md §4.F step 1 and §7: empty content / invalid id are
		// non-error no-ops at the Index layer.
		return nil
	}

	if !append && idx.Contains(id) {
		return idx.Update(id, text)
	}

	encoded := idx.Encoder.Encode(text)
	wordLength := len(encoded)
	if wordLength == 0 {
		return nil
	}

	idx.mu.Lock()
	defer idx.mu.Unlock()

	slog.Debug("indexing document", slog.Uint64("docID", id), slog.Int("terms", wordLength))

	docStats := DocumentStats{DocID: id, Length: wordLength, TermFreqs: make(map[string]int)}
	dupes := make(map[string]struct{})
	var refs []indexRef

	for i := 0; i < wordLength; i++ {
		termIdx := i
		if idx.Config.RTL {
			termIdx = wordLength - 1 - i
		}
		term := encoded[termIdx]
		docStats.TermFreqs[term]++
		if term == "" {
			continue
		}

		// The exact-position skip list records every occurrence of the
		// raw term regardless of posting dedup, since phrase/proximity
		// search (search.go) needs every position, not just the first.
		idx.indexPosition(term, id, i)

		skipPostings := false
		if idx.Config.Depth == 0 {
			if _, dup := dupes[term]; dup {
				skipPostings = true
			}
		}
		dupes[term] = struct{}{}

		if !skipPostings {
			emitted := tokenizeTerm(idx.Config.Tokenize, term, i, wordLength, idx.Config.Resolution, idx.Config.RTL)
			for _, e := range emitted {
				idx.pushPosting(e.token, e.bucket, id, append)
				refs = append(refs, indexRef{term: e.token, bucket: e.bucket})
			}
		}

		if idx.Config.Depth > 0 && contextEligible(idx.Config.Tokenize) {
			ctxEmitted := contextNeighbors(encoded, i, idx.Config.Depth, wordLength, idx.Config.ResolutionCtx, idx.Config.RTL, idx.Config.Bidirectional)
			for _, c := range ctxEmitted {
				idx.pushContext(c.token, c.ctxTerm, c.bucket, id, append)
				refs = append(refs, indexRef{isContext: true, term: c.token, keyword: c.ctxTerm, bucket: c.bucket})
			}
		}
	}

	idx.DocStats[id] = docStats
	idx.TotalDocs++
	idx.TotalTerms += int64(wordLength)

	if idx.Config.FastUpdate {
		idx.Register.(*MapRegister).setRefs(id, refs)
	} else {
		idx.Register.Add(id)
	}
	return nil
}

// contextEligible mirrors builder.rs: Strict mode only populates context
// when word_length>1 and i<word_length-1 (handled by contextNeighbors'
// size computation); Forward/Reverse/Bidirectional always attempt it.
func contextEligible(mode TokenizeMode) bool {
	switch mode {
	case TokenizeStrict, TokenizeForward, TokenizeReverse, TokenizeBidirectional:
		return true
	default:
		return false
	}
}

func (idx *InvertedIndex) pushPosting(token string, bucket int, id DocId, append bool) {
	buckets := idx.Postings[token]
	res := idx.Config.Resolution
	if res <= 0 {
		res = 1
	}
	if len(buckets) <= bucket {
		grown := make([]PostingBucket, bucket+1)
		copy(grown, buckets)
		buckets = grown
	}
	if !append {
		for _, existing := range buckets[bucket] {
			if existing == id {
				idx.Postings[token] = buckets
				return
			}
		}
	}
	buckets[bucket] = append2(buckets[bucket], id)
	idx.Postings[token] = buckets

	bm := idx.DocBitmaps[token]
	if bm == nil {
		bm = roaring.NewBitmap()
		idx.DocBitmaps[token] = bm
	}
	bm.Add(uint32(id))
}

// append2 avoids shadowing the `append bool` parameter name used
// throughout this file for the spec's own "append" flag.
func append2(s []DocId, v DocId) []DocId { return append(s, v) }

func (idx *InvertedIndex) pushContext(keyword, neighbor string, bucket int, id DocId, appendFlag bool) {
	neighbors, ok := idx.Context[keyword]
	if !ok {
		neighbors = make(map[string][]PostingBucket)
		idx.Context[keyword] = neighbors
	}
	buckets := neighbors[neighbor]
	if len(buckets) <= bucket {
		grown := make([]PostingBucket, bucket+1)
		copy(grown, buckets)
		buckets = grown
	}
	if !appendFlag {
		for _, existing := range buckets[bucket] {
			if existing == id {
				neighbors[neighbor] = buckets
				return
			}
		}
	}
	buckets[bucket] = append2(buckets[bucket], id)
	neighbors[neighbor] = buckets
}

// indexPosition maintains the retained teacher skip list of exact
// positions, used by highlighting/phrase/proximity support.
func (idx *InvertedIndex) indexPosition(token string, id DocId, position int) {
	sl, exists := idx.PostingsList[token]
	if !exists {
		sl = *NewSkipList()
	}
	sl.Insert(Position{DocumentID: float64(id), Offset: float64(position)})
	idx.PostingsList[token] = sl
}

// TermPositionsInDoc returns every recorded token-sequence position of term
// within document id, ascending. Offsets index into the encoded token
// sequence produced by idx.Encoder.Encode, not raw text bytes or words, so
// callers that need a text offset (highlight.go::HighlightAtWord) must
// re-derive a word span from the offset rather than treat it as a byte index.
func (idx *InvertedIndex) TermPositionsInDoc(term string, id DocId) []int {
	sl, exists := idx.getPostingList(term)
	if !exists {
		return nil
	}
	var positions []int
	for cur := sl.Head.Tower[0]; cur != nil; cur = cur.Tower[0] {
		if cur.Key.GetDocumentID() == id {
			positions = append(positions, cur.Key.GetOffset())
		}
	}
	return positions
}

// Remove implements the §4.F remove protocol.
func (idx *InvertedIndex) Remove(id DocId, skipDeletion bool) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	return idx.removeLocked(id, skipDeletion)
}

func (idx *InvertedIndex) removeLocked(id DocId, skipDeletion bool) error {
	if mapReg, ok := idx.Register.(*MapRegister); ok {
		refs, _ := mapReg.refsFor(id)
		for _, r := range refs {
			if r.isContext {
				idx.removeFromContext(r.term, r.keyword, r.bucket, id)
			} else {
				idx.removeFromPostings(r.term, r.bucket, id)
			}
		}
	} else {
		for term := range idx.Postings {
			idx.removeFromAllBuckets(term, id)
		}
		for keyword, neighbors := range idx.Context {
			for neighbor := range neighbors {
				idx.removeFromContextAllBuckets(keyword, neighbor, id)
			}
		}
	}

	for term, sl := range idx.PostingsList {
		var stale []Position
		for cur := sl.Head.Tower[0]; cur != nil; cur = cur.Tower[0] {
			if cur.Key.GetDocumentID() == id {
				stale = append(stale, cur.Key)
			}
		}
		for _, pos := range stale {
			sl.Delete(pos)
		}
		idx.PostingsList[term] = sl
	}

	delete(idx.DocStats, id)
	if idx.TotalDocs > 0 {
		idx.TotalDocs--
	}

	if !skipDeletion {
		idx.Register.Remove(id)
	}
	return nil
}

func (idx *InvertedIndex) removeFromPostings(term string, bucket int, id DocId) {
	buckets := idx.Postings[term]
	if bucket >= len(buckets) {
		return
	}
	buckets[bucket] = removeDocId(buckets[bucket], id)
	idx.Postings[term] = buckets
	if bm := idx.DocBitmaps[term]; bm != nil && !idx.termHasDoc(term, id) {
		bm.Remove(uint32(id))
	}
}

func (idx *InvertedIndex) removeFromAllBuckets(term string, id DocId) {
	buckets := idx.Postings[term]
	for i := range buckets {
		buckets[i] = removeDocId(buckets[i], id)
	}
	idx.Postings[term] = buckets
	if bm := idx.DocBitmaps[term]; bm != nil {
		bm.Remove(uint32(id))
	}
}

func (idx *InvertedIndex) removeFromContext(keyword, neighbor string, bucket int, id DocId) {
	neighbors, ok := idx.Context[keyword]
	if !ok {
		return
	}
	buckets := neighbors[neighbor]
	if bucket >= len(buckets) {
		return
	}
	buckets[bucket] = removeDocId(buckets[bucket], id)
	neighbors[neighbor] = buckets
}

func (idx *InvertedIndex) removeFromContextAllBuckets(keyword, neighbor string, id DocId) {
	neighbors := idx.Context[keyword]
	buckets := neighbors[neighbor]
	for i := range buckets {
		buckets[i] = removeDocId(buckets[i], id)
	}
	neighbors[neighbor] = buckets
}

func (idx *InvertedIndex) termHasDoc(term string, id DocId) bool {
	for _, bucket := range idx.Postings[term] {
		for _, d := range bucket {
			if d == id {
				return true
			}
		}
	}
	return false
}

func removeDocId(s []DocId, id DocId) []DocId {
	out := s[:0]
	for _, v := range s {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}

// Update removes then re-adds id with preserved identity, per spec.md's
// "update(id, text) = remove+add" definition. skip_deletion=true during
// the intermediate remove avoids Register thrashing.
func (idx *InvertedIndex) Update(id DocId, text string) error {
	idx.mu.Lock()
	_ = idx.removeLocked(id, true)
	idx.mu.Unlock()
	return idx.Add(id, text, true)
}

// Clear empties every posting list, the context index and the Register,
// per spec.md §8 invariant 4.
func (idx *InvertedIndex) Clear() {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.Postings = make(map[string][]PostingBucket)
	idx.Context = make(map[string]map[string][]PostingBucket)
	idx.DocBitmaps = make(map[string]*roaring.Bitmap)
	idx.PostingsList = make(map[string]SkipList)
	idx.DocStats = make(map[DocId]DocumentStats)
	idx.TotalDocs = 0
	idx.TotalTerms = 0
	if idx.Config.FastUpdate {
		idx.Register = newMapRegister()
	} else {
		idx.Register = newSetRegister()
	}
}

// getPostingList retrieves the retained positional skip list for a token.
func (idx *InvertedIndex) getPostingList(token string) (SkipList, bool) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	sl, exists := idx.PostingsList[token]
	return sl, exists
}

// First/Last/Next/Previous are the teacher's four iterator primitives over
// one term's exact-position posting list, retained verbatim in spirit for
// phrase/proximity search and the highlighting interface.
func (idx *InvertedIndex) First(token string) (Position, error) {
	sl, exists := idx.getPostingList(token)
	if !exists || sl.Head.Tower[0] == nil {
		return EOFDocument, ErrNoPostingList
	}
	return sl.Head.Tower[0].Key, nil
}

func (idx *InvertedIndex) Last(token string) (Position, error) {
	sl, exists := idx.getPostingList(token)
	if !exists {
		return EOFDocument, ErrNoPostingList
	}
	return sl.Last(), nil
}

func (idx *InvertedIndex) Next(token string, currentPos Position) (Position, error) {
	if currentPos.IsBeginning() {
		return idx.First(token)
	}
	if currentPos.IsEnd() {
		return EOFDocument, nil
	}
	sl, exists := idx.getPostingList(token)
	if !exists {
		return EOFDocument, ErrNoPostingList
	}
	nextPos, _ := sl.FindGreaterThan(currentPos)
	return nextPos, nil
}

func (idx *InvertedIndex) Previous(token string, currentPos Position) (Position, error) {
	if currentPos.IsEnd() {
		return idx.Last(token)
	}
	if currentPos.IsBeginning() {
		return BOFDocument, nil
	}
	sl, exists := idx.getPostingList(token)
	if !exists {
		return BOFDocument, ErrNoPostingList
	}
	prevPos, _ := sl.FindLessThan(currentPos)
	return prevPos, nil
}

// bucketsFor returns the first n buckets (or all, if fewer) for a term,
// used by the resolution-aware intersection in search.go.
func (idx *InvertedIndex) bucketsFor(term string, n int) []PostingBucket {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	all := idx.Postings[term]
	if n <= 0 || n > len(all) {
		return all
	}
	return all[:n]
}

func (idx *InvertedIndex) contextBucketsFor(keyword, neighbor string) []PostingBucket {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	neighbors, ok := idx.Context[keyword]
	if !ok {
		return nil
	}
	return neighbors[neighbor]
}

// Info summarizes the index for GetStats (§6) and serialization.
type Info struct {
	TotalDocs     int
	TotalTerms    int64
	AvgDocLength  float64
}

func (idx *InvertedIndex) Info() Info {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	avg := 0.0
	if idx.TotalDocs > 0 {
		avg = float64(idx.TotalTerms) / float64(idx.TotalDocs)
	}
	return Info{TotalDocs: idx.TotalDocs, TotalTerms: idx.TotalTerms, AvgDocLength: avg}
}
