package flexsearch

import (
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"strings"
)

// Phrase/cover search and BM25/proximity ranking over the positional skip
// list (skiplist.go::PostingsList). SearchEngine.Search dispatches here
// when SearchOptions.Phrase or Rank is set (searchengine.go); QueryBuilder
// (query.go) uses NextPhrase/FindAllPhrases for its Phrase() operator.

// NextPhrase finds the next occurrence, at or after startPos, of terms
// appearing at consecutive positions in the same document. It finds a
// candidate end by hopping forward through each term in order, walks
// backward to the candidate start, validates consecutiveness, and recurses
// from the candidate start on failure (handles repeated words like
// "brown dog brown fox" when searching for "brown fox").
func (idx *InvertedIndex) NextPhrase(query string, startPos Position) []Position {
	terms := strings.Fields(query)

	endPos := idx.findPhraseEnd(terms, startPos)
	if endPos.IsEnd() {
		return []Position{EOFDocument, EOFDocument}
	}

	phraseStart := idx.findPhraseStart(terms, endPos)

	if idx.isValidPhrase(phraseStart, endPos, len(terms)) {
		return []Position{phraseStart, endPos}
	}

	return idx.NextPhrase(query, phraseStart)
}

// findPhraseEnd hops forward through terms in order starting from startPos,
// returning the position of the last term, or EOFDocument if any term has
// no further occurrence.
func (idx *InvertedIndex) findPhraseEnd(terms []string, startPos Position) Position {
	currentPos := startPos

	// For each word in the phrase, find its next occurrence
	for _, term := range terms {
		currentPos, _ = idx.Next(term, currentPos)

		// If we can't find this word, the phrase doesn't exist
		if currentPos.IsEnd() {
			return EOFDocument
		}
	}

	// currentPos now points to the last word of the phrase
	return currentPos
}

// findPhraseStart walks backward from endPos through terms[:len-1] in
// reverse, returning the position of the first term.
func (idx *InvertedIndex) findPhraseStart(terms []string, endPos Position) Position {
	currentPos := endPos

	for i := len(terms) - 2; i >= 0; i-- {
		currentPos, _ = idx.Previous(terms[i], currentPos)
	}

	return currentPos
}

// isValidPhrase reports whether start/end fall in the same document at
// exactly termCount-1 positions apart (i.e. consecutive, no gaps).
func (idx *InvertedIndex) isValidPhrase(start, end Position, termCount int) bool {
	expectedDistance := termCount - 1
	actualDistance := end.GetOffset() - start.GetOffset()
	return start.DocumentID == end.DocumentID && actualDistance == expectedDistance
}

// FindAllPhrases repeatedly calls NextPhrase from the previous match's
// start until exhausted, collecting every occurrence in the index.
func (idx *InvertedIndex) FindAllPhrases(query string, startPos Position) [][]Position {
	var allMatches [][]Position
	currentPos := BOFDocument

	for !currentPos.IsEnd() {
		phrasePositions := idx.NextPhrase(query, currentPos)
		phraseStart := phrasePositions[0]

		if !phraseStart.IsEnd() {
			allMatches = append(allMatches, phrasePositions)
		}

		currentPos = phraseStart
	}

	return allMatches
}

// NextCover finds the next minimal range ("cover"), at or after startPos,
// that contains every token in the same document regardless of order or
// adjacency — unlike NextPhrase, which requires consecutive positions.
func (idx *InvertedIndex) NextCover(tokens []string, startPos Position) []Position {
	coverEnd := idx.findCoverEnd(tokens, startPos)
	if coverEnd.IsEnd() {
		return []Position{EOFDocument, EOFDocument}
	}

	coverStart := idx.findCoverStart(tokens, coverEnd)

	if coverStart.DocumentID == coverEnd.DocumentID {
		return []Position{coverStart, coverEnd}
	}

	return idx.NextCover(tokens, coverStart)
}

// findCoverEnd returns the furthest next-occurrence position among tokens
// after startPos, or EOFDocument if any token has none.
func (idx *InvertedIndex) findCoverEnd(tokens []string, startPos Position) Position {
	maxPos := startPos

	for _, token := range tokens {
		// Find next occurrence of this token
		tokenPos, _ := idx.Next(token, startPos)

		// If any token is not found, we can't create a cover
		if tokenPos.IsEnd() {
			return EOFDocument
		}

		// Keep track of the furthest position
		if tokenPos.IsAfter(maxPos) {
			maxPos = tokenPos
		}
	}

	return maxPos
}

// findCoverStart walks backward from just past endPos to find the earliest
// occurrence of each token, returning the smallest such position.
func (idx *InvertedIndex) findCoverStart(tokens []string, endPos Position) Position {
	minPos := BOFDocument

	// Previous() is strict, so search from endPos+1 to still find tokens AT endPos.
	searchBound := Position{
		DocumentID: endPos.DocumentID,
		Offset:     endPos.Offset + 1,
	}

	for _, token := range tokens {
		tokenPos, _ := idx.Previous(token, searchBound)

		if minPos.IsBeginning() || tokenPos.IsBefore(minPos) {
			minPos = tokenPos
		}
	}

	return minPos
}

// Match is one ranked search result: the document, the positions it matched
// at (the [start, end] cover from RankProximity, or every query-term position
// in the document from RankBM25), and its relevance score.
type Match struct {
	DocID   DocId
	Offsets []Position
	Score   float64
}

// GetKey returns an identifier for the match: the hex MD5 of its
// JSON-encoded DocID (offsets and score do not affect it).
func (m *Match) GetKey() (string, error) {
	data, err := json.Marshal(m.DocID)
	if err != nil {
		return "", err
	}
	hash := md5.Sum(data)
	return hex.EncodeToString(hash[:]), nil
}

// calculateIDF computes BM25 inverse document frequency from bitmap
// cardinality (document frequency) rather than a skip-list traversal.
func (idx *InvertedIndex) calculateIDF(term string) float64 {
	// Use roaring bitmap for instant document count
	bitmap, exists := idx.DocBitmaps[term]
	if !exists {
		return 0.0
	}

	// Get document frequency instantly from bitmap cardinality
	df := float64(bitmap.GetCardinality())

	if df == 0 {
		return 0.0
	}

	N := float64(idx.TotalDocs)

	// BM25 IDF formula (with smoothing to avoid negative values)
	return math.Log((N-df+0.5)/(df+0.5) + 1.0)
}

// countDocsInPostingList counts unique documents in a posting list
func (idx *InvertedIndex) countDocsInPostingList(skipList SkipList) int {
	uniqueDocs := make(map[DocId]bool)

	current := skipList.Head.Tower[0]
	for current != nil {
		uniqueDocs[current.Key.GetDocumentID()] = true
		current = current.Tower[0]
	}

	return len(uniqueDocs)
}

// calculateBM25Score sums per-term IDF * saturated, length-normalized term
// frequency across queryTerms for docID, using idx.BM25Params.{K1,B}.
func (idx *InvertedIndex) calculateBM25Score(docID DocId, queryTerms []string) float64 {
	docStats, exists := idx.DocStats[docID]
	if !exists {
		return 0.0
	}

	// Calculate average document length
	avgDocLen := float64(idx.TotalTerms) / float64(idx.TotalDocs)
	docLen := float64(docStats.Length)

	score := 0.0
	k1 := idx.BM25Params.K1
	b := idx.BM25Params.B

	// Process each query term
	for _, term := range queryTerms {
		// Get IDF for this term
		idf := idx.calculateIDF(term)

		// Get term frequency in this document
		tf := float64(docStats.TermFreqs[term])

		if tf > 0 {
			// BM25 formula with length normalization
			numerator := tf * (k1 + 1)
			denominator := tf + k1*(1-b+b*(docLen/avgDocLen))
			score += idf * (numerator / denominator)
		}
	}

	return score
}

// RankBM25 tokenizes query, scores every document containing at least one
// term, and returns the top maxResults by descending BM25 score.
func (idx *InvertedIndex) RankBM25(query string, maxResults int) []Match {
	slog.Info("BM25 ranking", slog.String("query", query))

	tokens := idx.Encoder.Encode(query)
	if len(tokens) == 0 {
		return []Match{}
	}

	slog.Info("search tokens", slog.String("tokens", fmt.Sprintf("%v", tokens)))

	// Find all candidate documents (documents containing at least one query term)
	candidates := idx.findCandidateDocuments(tokens)

	// Calculate BM25 score for each candidate
	results := make([]Match, 0, len(candidates))
	for docID := range candidates {
		score := idx.calculateBM25Score(docID, tokens)

		if score > 0 {
			results = append(results, Match{
				DocID:   docID,
				Offsets: candidates[docID], // Positions where terms appear
				Score:   score,
			})
		}
	}

	// Sort by score (descending)
	idx.sortMatchesByScore(results)

	// Return top K results
	return limitResults(results, maxResults)
}

// findCandidateDocuments returns every document containing at least one of
// tokens, mapped to its matched positions. Phase one uses DocBitmaps for an
// O(1)-per-term candidate filter; phase two walks each token's skip list
// only to collect positions within the already-known candidate set.
func (idx *InvertedIndex) findCandidateDocuments(tokens []string) map[DocId][]Position {
	candidates := make(map[DocId][]Position)

	candidateDocs := make(map[DocId]bool)
	for _, token := range tokens {
		bitmap, exists := idx.DocBitmaps[token]
		if !exists {
			continue
		}

		// Iterate through document IDs in the bitmap
		iter := bitmap.Iterator()
		for iter.HasNext() {
			docID := DocId(iter.Next())
			candidateDocs[docID] = true
		}
	}

	// PHASE 2: For each candidate document, fetch positions from skip lists
	// This is still needed for BM25 scoring (we need exact positions)
	for _, token := range tokens {
		skipList, exists := idx.getPostingList(token)
		if !exists {
			continue
		}

		// Only traverse skip list for positions in candidate documents
		current := skipList.Head.Tower[0]
		for current != nil {
			docID := current.Key.GetDocumentID()
			// Only add if this is a candidate document
			if candidateDocs[docID] {
				candidates[docID] = append(candidates[docID], current.Key)
			}
			current = current.Tower[0]
		}
	}

	return candidates
}

// sortMatchesByScore sorts matches by score in descending order (higher scores first)
func (idx *InvertedIndex) sortMatchesByScore(matches []Match) {
	sort.Slice(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})
}

// RankProximity tokenizes query, sums 1/(distance+1) across every cover
// found per document, and returns the top maxResults by descending score.
func (idx *InvertedIndex) RankProximity(query string, maxResults int) []Match {
	slog.Info("proximity ranking", slog.String("query", query))

	tokens := idx.Encoder.Encode(query)
	if len(tokens) == 0 {
		return []Match{}
	}

	slog.Info("search tokens", slog.String("tokens", fmt.Sprintf("%v", tokens)))

	results := idx.collectProximityMatches(tokens)

	idx.sortMatchesByScore(results)
	return limitResults(results, maxResults)
}

// collectProximityMatches walks NextCover from BOF to EOF, accumulating a
// running score per document and emitting a Match each time the document
// changes (plus one final flush at EOF).
func (idx *InvertedIndex) collectProximityMatches(tokens []string) []Match {
	var matches []Match

	// Find the first cover to initialize our state
	coverPositions := idx.NextCover(tokens, BOFDocument)
	coverStart, coverEnd := coverPositions[0], coverPositions[1]

	// Initialize tracking variables
	currentCandidate := []Position{coverStart, coverEnd}
	currentScore := 0.0

	// Loop through all covers until we reach EOF
	for !coverStart.IsEnd() {
		// Did we move to a new document?
		if currentCandidate[0].DocumentID < coverStart.DocumentID {
			matches = append(matches, Match{
				DocID:   currentCandidate[0].GetDocumentID(),
				Offsets: currentCandidate,
				Score:   currentScore,
			})

			currentCandidate = []Position{coverStart, coverEnd}
			currentScore = 0
		}

		// Score: 1/(distance+1), so closer terms score higher; +1 avoids
		// division by zero when start==end.
		proximity := float64(coverEnd.Offset - coverStart.Offset + 1)
		currentScore += 1 / proximity

		coverPositions = idx.NextCover(tokens, coverStart)
		coverStart, coverEnd = coverPositions[0], coverPositions[1]
	}

	if !currentCandidate[0].IsEnd() {
		matches = append(matches, Match{
			DocID:   currentCandidate[0].GetDocumentID(),
			Offsets: currentCandidate,
			Score:   currentScore,
		})
	}

	return matches
}

// limitResults truncates matches to at most maxResults items.
func limitResults(matches []Match, maxResults int) []Match {
	limit := int(math.Min(float64(maxResults), float64(len(matches))))
	return matches[:limit]
}
