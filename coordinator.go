package flexsearch

import "sort"

// Multi-field search coordinator (§4.J), grounded on
// original_source/services/inversearch/src/search/multi_field.rs,
// generalized from its single Or-by-accumulated-weight strategy to the
// four combine strategies spec.md §4.J names.

// CombineStrategy selects how per-field hit sets are merged into one
// ranked result list.
type CombineStrategy int

const (
	// CombineOr is a de-duplicated union across fields in encounter order.
	CombineOr CombineStrategy = iota
	// CombineAnd is the set-based intersection across all field hit sets.
	CombineAnd
	// CombineWeight sums weights across fields per DocId, then sorts
	// descending by total weight.
	CombineWeight
	// CombineBestField returns the single field with the largest hit set.
	CombineBestField
)

// FieldQuery configures one field's participation in a coordinated search:
// its own query (defaulting to the coordinator's query when empty) and an
// additional per-field boost multiplied onto the Field's configured weight.
type FieldQuery struct {
	Field string
	Query string
	Boost float64
}

// Coordinator runs one query across several named Fields of a Document and
// combines their per-field hits per spec.md §4.J.
type Coordinator struct {
	Document *Document
}

func NewCoordinator(doc *Document) *Coordinator {
	return &Coordinator{Document: doc}
}

type fieldHits struct {
	field         string
	effectiveWeight float64
	ids           []DocId
}

// CoordinatedResult is one DocId's combined outcome: its combined score and
// the number of fields it matched in. Per-field names, hits and effective
// weights are not kept.
type CoordinatedResult struct {
	DocID       DocId
	Score       float64
	FieldCounts int
}

// Search runs query (or each FieldQuery's own override) against every
// requested field's Index and combines the per-field hit sets with
// strategy.
func (c *Coordinator) Search(query string, fields []FieldQuery, strategy CombineStrategy, opts SearchOptions) ([]CoordinatedResult, error) {
	if query == "" {
		allEmpty := true
		for _, fq := range fields {
			if fq.Query != "" {
				allEmpty = false
				break
			}
		}
		if allEmpty {
			return nil, ErrEmptyQuery
		}
	}

	perField := make([]fieldHits, 0, len(fields))
	for _, fq := range fields {
		field, ok := c.Document.Fields.Get(fq.Field)
		if !ok {
			continue
		}
		q := fq.Query
		if q == "" {
			q = query
		}
		if q == "" {
			continue
		}
		engine := NewSearchEngine(field.Index(), 0, 0)
		ids, err := engine.Search(q, opts)
		if err != nil {
			if err == ErrEmptyQuery {
				continue
			}
			return nil, err
		}
		boost := fq.Boost
		if boost == 0 {
			boost = 1
		}
		perField = append(perField, fieldHits{
			field:           fq.Field,
			effectiveWeight: field.Weight() * boost,
			ids:             ids,
		})
	}

	switch strategy {
	case CombineOr:
		return combineOr(perField), nil
	case CombineAnd:
		return combineAnd(perField), nil
	case CombineBestField:
		return combineBestField(perField), nil
	default:
		return combineWeight(perField), nil
	}
}

func combineOr(perField []fieldHits) []CoordinatedResult {
	seen := make(map[DocId]struct{})
	var out []CoordinatedResult
	for _, fh := range perField {
		for _, id := range fh.ids {
			if _, dup := seen[id]; dup {
				continue
			}
			seen[id] = struct{}{}
			out = append(out, CoordinatedResult{DocID: id, FieldCounts: 1})
		}
	}
	return out
}

func combineAnd(perField []fieldHits) []CoordinatedResult {
	sets := make([][]DocId, len(perField))
	var totalWeight float64
	for i, fh := range perField {
		sets[i] = fh.ids
		totalWeight += fh.effectiveWeight
	}
	ids := Intersect(sets...)
	out := make([]CoordinatedResult, 0, len(ids))
	for _, id := range ids {
		out = append(out, CoordinatedResult{DocID: id, Score: totalWeight, FieldCounts: len(perField)})
	}
	applyCooccurrenceBonus(out)
	return out
}

func combineWeight(perField []fieldHits) []CoordinatedResult {
	weights := make(map[DocId]float64)
	counts := make(map[DocId]int)
	var order []DocId
	for _, fh := range perField {
		for _, id := range fh.ids {
			if _, seen := weights[id]; !seen {
				order = append(order, id)
			}
			weights[id] += fh.effectiveWeight
			counts[id]++
		}
	}
	out := make([]CoordinatedResult, 0, len(order))
	for _, id := range order {
		out = append(out, CoordinatedResult{DocID: id, Score: weights[id], FieldCounts: counts[id]})
	}
	applyCooccurrenceBonus(out)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	return out
}

func combineBestField(perField []fieldHits) []CoordinatedResult {
	var best *fieldHits
	for i := range perField {
		if best == nil || len(perField[i].ids) > len(best.ids) {
			best = &perField[i]
		}
	}
	if best == nil {
		return nil
	}
	out := make([]CoordinatedResult, 0, len(best.ids))
	for _, id := range best.ids {
		out = append(out, CoordinatedResult{DocID: id, Score: best.effectiveWeight, FieldCounts: 1})
	}
	return out
}

// applyCooccurrenceBonus applies the "(1 + (field_count-1)*0.1)" bonus from
// spec.md §4.J to every result with a score, for strategies other than Or.
func applyCooccurrenceBonus(results []CoordinatedResult) {
	for i := range results {
		if results[i].FieldCounts > 1 {
			results[i].Score *= 1 + float64(results[i].FieldCounts-1)*0.1
		}
	}
}
