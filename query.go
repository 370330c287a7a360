package flexsearch

import (
	"github.com/RoaringBitmap/roaring"
)

// QueryBuilder is a fluent boolean query API over roaring bitmaps:
//
//	NewQueryBuilder(index).Term("machine").And().Term("learning").Execute()
//	NewQueryBuilder(index).
//	    Group(func(q *QueryBuilder) { q.Term("cat").Or().Term("dog") }).
//	    And().Not().Term("snake").
//	    Execute()
//
// searchengine.go's SearchEngine.searchPhrase builds one internally for its
// Phrase() operator instead of duplicating the positional-match logic in
// search.go.
type QueryBuilder struct {
	index  *InvertedIndex
	stack  []*roaring.Bitmap
	ops    []QueryOp
	negate bool
	terms  []string
}

// QueryOp is a pending boolean operation awaiting its right-hand operand.
type QueryOp int

const (
	OpNone QueryOp = iota
	OpAnd
	OpOr
)

func NewQueryBuilder(index *InvertedIndex) *QueryBuilder {
	return &QueryBuilder{
		index:  index,
		stack:  make([]*roaring.Bitmap, 0),
		ops:    make([]QueryOp, 0),
		negate: false,
		terms:  make([]string, 0),
	}
}

// Term pushes the bitmap of documents containing term (after encoding),
// applying any pending Not().
func (qb *QueryBuilder) Term(term string) *QueryBuilder {
	tokens := qb.index.Encoder.Encode(term)
	if len(tokens) == 0 {
		qb.pushBitmap(roaring.NewBitmap())
		return qb
	}

	analyzedTerm := tokens[0]
	if !qb.negate {
		qb.terms = append(qb.terms, analyzedTerm)
	}

	bitmap := qb.getTermBitmap(analyzedTerm)

	if qb.negate {
		bitmap = qb.negateBitmap(bitmap)
		qb.negate = false
	}

	qb.pushBitmap(bitmap)
	return qb
}

// Phrase pushes the bitmap of documents containing phrase as a consecutive
// sequence, via the retained positional skip list (search.go::FindAllPhrases).
func (qb *QueryBuilder) Phrase(phrase string) *QueryBuilder {
	tokens := qb.index.Encoder.Encode(phrase)
	if len(tokens) == 0 {
		qb.pushBitmap(roaring.NewBitmap())
		return qb
	}

	if !qb.negate {
		qb.terms = append(qb.terms, tokens...)
	}

	analyzedPhrase := ""
	for i, token := range tokens {
		if i > 0 {
			analyzedPhrase += " "
		}
		analyzedPhrase += token
	}

	matches := qb.index.FindAllPhrases(analyzedPhrase, BOFDocument)

	bitmap := roaring.NewBitmap()
	for _, match := range matches {
		if !match[0].IsEnd() {
			bitmap.Add(uint32(match[0].GetDocumentID()))
		}
	}

	if qb.negate {
		bitmap = qb.negateBitmap(bitmap)
		qb.negate = false
	}

	qb.pushBitmap(bitmap)
	return qb
}

// And queues an AND (bitmap intersection) between the current stack top and
// the next pushed term.
func (qb *QueryBuilder) And() *QueryBuilder {
	qb.ops = append(qb.ops, OpAnd)
	return qb
}

// Or queues an OR (bitmap union) between the current stack top and the next
// pushed term.
func (qb *QueryBuilder) Or() *QueryBuilder {
	qb.ops = append(qb.ops, OpOr)
	return qb
}

// Not negates the next Term/Phrase/Group result.
func (qb *QueryBuilder) Not() *QueryBuilder {
	qb.negate = true
	return qb
}

// Group evaluates fn against a fresh sub-query and pushes its result,
// letting callers control operator precedence, e.g. (cat OR dog) AND pet.
func (qb *QueryBuilder) Group(fn func(*QueryBuilder)) *QueryBuilder {
	subQuery := NewQueryBuilder(qb.index)

	fn(subQuery)

	result := subQuery.Execute()

	if qb.negate {
		result = qb.negateBitmap(result)
		qb.negate = false
	}

	qb.pushBitmap(result)
	return qb
}

// Execute folds the stack left-to-right applying each queued And/Or,
// returning the final bitmap of matching document IDs.
func (qb *QueryBuilder) Execute() *roaring.Bitmap {
	if len(qb.stack) == 0 {
		return roaring.NewBitmap()
	}

	result := qb.stack[0]
	for i := 1; i < len(qb.stack); i++ {
		if i-1 < len(qb.ops) {
			op := qb.ops[i-1]
			switch op {
			case OpAnd:
				result = roaring.And(result, qb.stack[i])
			case OpOr:
				result = roaring.Or(result, qb.stack[i])
			}
		}
	}

	return result
}

// ExecuteWithBM25 runs Execute, then scores and ranks the matching
// documents by BM25 over every term/phrase token the query touched.
func (qb *QueryBuilder) ExecuteWithBM25(maxResults int) []Match {
	resultBitmap := qb.Execute()

	terms := qb.extractTerms()

	var results []Match
	iter := resultBitmap.Iterator()
	for iter.HasNext() {
		docID := DocId(iter.Next())
		score := qb.index.calculateBM25Score(docID, terms)

		if score > 0 {
			results = append(results, Match{
				DocID: docID,
				Score: score,
			})
		}
	}

	qb.index.sortMatchesByScore(results)

	return limitResults(results, maxResults)
}

func (qb *QueryBuilder) getTermBitmap(term string) *roaring.Bitmap {
	if bitmap, exists := qb.index.DocBitmaps[term]; exists {
		return bitmap.Clone()
	}
	return roaring.NewBitmap()
}

// negateBitmap returns every indexed document id except those in bitmap.
func (qb *QueryBuilder) negateBitmap(bitmap *roaring.Bitmap) *roaring.Bitmap {
	allDocs := roaring.NewBitmap()
	for docID := range qb.index.DocStats {
		allDocs.Add(uint32(docID))
	}

	return roaring.AndNot(allDocs, bitmap)
}

func (qb *QueryBuilder) pushBitmap(bitmap *roaring.Bitmap) {
	qb.stack = append(qb.stack, bitmap)
}

func (qb *QueryBuilder) extractTerms() []string {
	return qb.terms
}

// AllOf is shorthand for Term(terms[0]).And().Term(terms[1])... .
func AllOf(index *InvertedIndex, terms ...string) *roaring.Bitmap {
	if len(terms) == 0 {
		return roaring.NewBitmap()
	}

	qb := NewQueryBuilder(index).Term(terms[0])
	for i := 1; i < len(terms); i++ {
		qb.And().Term(terms[i])
	}
	return qb.Execute()
}

// AnyOf is shorthand for Term(terms[0]).Or().Term(terms[1])... .
func AnyOf(index *InvertedIndex, terms ...string) *roaring.Bitmap {
	if len(terms) == 0 {
		return roaring.NewBitmap()
	}

	qb := NewQueryBuilder(index).Term(terms[0])
	for i := 1; i < len(terms); i++ {
		qb.Or().Term(terms[i])
	}
	return qb.Execute()
}

// TermExcluding is shorthand for Term(include).And().Not().Term(exclude).
func TermExcluding(index *InvertedIndex, include, exclude string) *roaring.Bitmap {
	return NewQueryBuilder(index).
		Term(include).
		And().Not().Term(exclude).
		Execute()
}
