package grpcshell

import (
	"fmt"
	"strings"
	"sync"

	flexsearch "github.com/kkkqkx123/flexsearch"
)

// indexEntry bundles one named index's document layer, search coordinator,
// and stored field names, created lazily on first reference per spec.
type indexEntry struct {
	mu          sync.RWMutex
	document    *flexsearch.Document
	coordinator *flexsearch.Coordinator
	fieldNames  map[string]struct{}
}

func newIndexEntry() *indexEntry {
	doc := flexsearch.NewDocument(flexsearch.DocumentConfig{StoreRaw: true})
	return &indexEntry{
		document:    doc,
		coordinator: flexsearch.NewCoordinator(doc),
		fieldNames:  make(map[string]struct{}),
	}
}

// ensureFields adds a Field for every key in fieldValues the entry doesn't
// already index, matching the dynamic, schema-less field set the gRPC
// surface's map<string,string> implies.
func (e *indexEntry) ensureFields(fieldValues map[string]string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	for name := range fieldValues {
		if _, ok := e.fieldNames[name]; ok {
			continue
		}
		field, err := flexsearch.NewField(flexsearch.NewFieldConfig(name))
		if err != nil {
			return err
		}
		e.document.Fields.Add(field)
		e.fieldNames[name] = struct{}{}
	}
	return nil
}

func toRecord(fieldValues map[string]string) map[string]any {
	record := make(map[string]any, len(fieldValues))
	for k, v := range fieldValues {
		record[k] = v
	}
	return record
}

// Service is the concrete IndexService backing the gRPC shell: an
// in-process map of named indexes, each a multi-field Document created
// lazily on first reference, searched through its Coordinator.
type Service struct {
	mu          sync.RWMutex
	indexes     map[string]*indexEntry
	highlighter flexsearch.Highlighter
}

// NewService constructs an empty Service with no pre-existing indexes.
func NewService() *Service {
	return &Service{
		indexes:     make(map[string]*indexEntry),
		highlighter: flexsearch.NewSnippetHighlighter(),
	}
}

func (s *Service) entry(indexName string) *indexEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.indexes[indexName]
	if !ok {
		e = newIndexEntry()
		s.indexes[indexName] = e
	}
	return e
}

func (s *Service) IndexDocument(req IndexDocumentRequest) (IndexDocumentResponse, error) {
	if req.DocumentID == 0 {
		return IndexDocumentResponse{}, flexsearch.ErrInvalidID
	}
	e := s.entry(req.IndexName)
	if err := e.ensureFields(req.Fields); err != nil {
		return IndexDocumentResponse{}, err
	}
	if err := e.document.Add(req.DocumentID, toRecord(req.Fields)); err != nil {
		return IndexDocumentResponse{}, err
	}
	return IndexDocumentResponse{Success: true, Message: "indexed"}, nil
}

func (s *Service) BatchIndexDocuments(req BatchIndexDocumentsRequest) (BatchIndexDocumentsResponse, error) {
	e := s.entry(req.IndexName)
	batch := flexsearch.NewBatch(0)
	for _, d := range req.Documents {
		if err := e.ensureFields(d.Fields); err != nil {
			return BatchIndexDocumentsResponse{}, err
		}
		batch.Add(d.DocumentID, toRecord(d.Fields))
	}
	errs := e.document.ExecuteBatch(batch)
	indexed := len(req.Documents) - len(errs)
	resp := BatchIndexDocumentsResponse{
		Success:      len(errs) == 0,
		IndexedCount: indexed,
		Message:      fmt.Sprintf("indexed %d of %d documents", indexed, len(req.Documents)),
	}
	return resp, nil
}

func (s *Service) Search(req SearchRequest) (SearchResponse, error) {
	e := s.entry(req.IndexName)

	e.mu.RLock()
	var fieldQueries []flexsearch.FieldQuery
	if len(req.FieldWeights) > 0 {
		for name, weight := range req.FieldWeights {
			fieldQueries = append(fieldQueries, flexsearch.FieldQuery{Field: name, Boost: float64(weight)})
		}
	} else {
		for name := range e.fieldNames {
			fieldQueries = append(fieldQueries, flexsearch.FieldQuery{Field: name, Boost: 1})
		}
	}
	e.mu.RUnlock()

	// Per-field searches run unpaginated; limit/offset apply once, to the
	// coordinator's combined result set below, so a document's rank isn't
	// skewed by an early per-field truncation.
	fieldOpts := flexsearch.DefaultSearchOptions()
	fieldOpts.Limit = 0
	fieldOpts.Rank = flexsearch.RankMode(req.Rank)
	fieldOpts.Phrase = req.Phrase

	results, err := e.coordinator.Search(req.Query, fieldQueries, flexsearch.CombineWeight, fieldOpts)
	if err != nil {
		return SearchResponse{}, err
	}

	terms := strings.Fields(req.Query)
	hits := make([]SearchHit, 0, len(results))
	maxScore := 0.0
	for _, r := range results {
		record, _ := e.document.Get(r.DocID)
		fieldVals := make(map[string]string, len(record))
		highlights := map[string]string{}
		for k, v := range record {
			text, ok := v.(string)
			if !ok {
				continue
			}
			fieldVals[k] = text
			if req.Highlight {
				if snippet, found := s.highlightField(e, k, r.DocID, text, terms); found {
					highlights[k] = snippet
				}
			}
		}
		if r.Score > maxScore {
			maxScore = r.Score
		}
		hits = append(hits, SearchHit{
			DocumentID: r.DocID,
			Score:      r.Score,
			Fields:     fieldVals,
			Highlights: highlights,
		})
	}

	total := len(hits)
	hits = paginate(hits, req.Offset, req.Limit)

	return SearchResponse{Hits: hits, Total: total, MaxScore: maxScore}, nil
}

// highlightField prefers the exact occurrence data recorded by the
// positional skip list (index.go::TermPositionsInDoc) over a plain
// substring scan: for each query term it looks up the field's own index,
// takes the lowest recorded token-sequence position across all terms as
// the anchor, and renders the snippet around that occurrence. It falls
// back to s.highlighter.Highlight's textual scan when the field carries no
// position data for any term (e.g. the field was never indexed, or the
// match came from a different field than k).
func (s *Service) highlightField(e *indexEntry, field string, id uint64, text string, terms []string) (string, bool) {
	if f, ok := e.document.Fields.Get(field); ok {
		anchor := -1
		for _, term := range terms {
			for _, pos := range f.Index().TermPositionsInDoc(strings.ToLower(term), flexsearch.DocId(id)) {
				if anchor == -1 || pos < anchor {
					anchor = pos
				}
			}
		}
		if anchor >= 0 {
			if snippet, found := s.highlighter.HighlightAtWord(text, anchor, 120); found {
				return snippet, true
			}
		}
	}
	return s.highlighter.Highlight(text, terms, 120)
}

func paginate(hits []SearchHit, offset, limit int) []SearchHit {
	if offset < 0 {
		offset = 0
	}
	if offset >= len(hits) {
		return nil
	}
	end := len(hits)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return hits[offset:end]
}

func (s *Service) DeleteDocument(req DeleteDocumentRequest) (DeleteDocumentResponse, error) {
	e := s.entry(req.IndexName)
	if !e.document.Contains(req.DocumentID) {
		return DeleteDocumentResponse{Success: true, Message: "not found"}, nil
	}
	if err := e.document.Remove(req.DocumentID); err != nil {
		return DeleteDocumentResponse{}, err
	}
	return DeleteDocumentResponse{Success: true, Message: "deleted"}, nil
}

func (s *Service) GetStats(req GetStatsRequest) (GetStatsResponse, error) {
	e := s.entry(req.IndexName)
	e.mu.RLock()
	defer e.mu.RUnlock()

	var totalTerms int64
	var totalDocs int
	for _, f := range e.document.Fields.All() {
		info := f.Index().Info()
		totalTerms += info.TotalTerms
		if info.TotalDocs > totalDocs {
			totalDocs = info.TotalDocs
		}
	}
	avg := 0.0
	if totalDocs > 0 {
		avg = float64(totalTerms) / float64(totalDocs)
	}
	return GetStatsResponse{
		TotalDocuments:    totalDocs,
		TotalTerms:        int(totalTerms),
		AvgDocumentLength: avg,
	}, nil
}
