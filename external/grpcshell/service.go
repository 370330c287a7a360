// Package grpcshell defines the index-name-scoped service surface as a
// plain Go interface plus request/response structs, and a Dispatch helper
// that translates flexsearch's typed errors into gRPC status codes. No
// protoc-generated stubs are produced here; service.proto documents the
// wire contract this interface stands in for.
package grpcshell

// IndexDocumentRequest indexes a single multi-field document.
type IndexDocumentRequest struct {
	IndexName  string
	DocumentID uint64
	Fields     map[string]string
}

// IndexDocumentResponse reports whether the index succeeded.
type IndexDocumentResponse struct {
	Success bool
	Message string
}

// BatchIndexDocumentsRequest indexes many documents in one call.
type BatchIndexDocumentsRequest struct {
	IndexName string
	Documents []DocumentFields
}

// DocumentFields pairs a document id with its field values, the unit of
// work inside a batch request.
type DocumentFields struct {
	DocumentID uint64
	Fields     map[string]string
}

// BatchIndexDocumentsResponse reports overall success plus how many of the
// submitted documents were actually indexed (a partial count is possible:
// per §7's propagation policy, one failure does not prevent the rest).
type BatchIndexDocumentsResponse struct {
	Success      bool
	Message      string
	IndexedCount int
}

// SearchRequest runs a query against one index, optionally weighting
// fields and requesting highlighted snippets.
//
// Rank ("", "bm25", or "proximity") and Phrase select the alternate ranking
// modes flexsearch.SearchOptions exposes; an empty Rank with Phrase=false
// keeps the default resolution-bucket ordering.
type SearchRequest struct {
	IndexName    string
	Query        string
	Limit        int
	Offset       int
	FieldWeights map[string]float32
	Highlight    bool
	Rank         string
	Phrase       bool
}

// SearchHit is one ranked result.
type SearchHit struct {
	DocumentID uint64
	Score      float64
	Fields     map[string]string
	Highlights map[string]string
}

// SearchResponse carries the ranked page plus aggregate stats.
type SearchResponse struct {
	Hits     []SearchHit
	Total    int
	MaxScore float64
}

// DeleteDocumentRequest removes one document by id.
type DeleteDocumentRequest struct {
	IndexName  string
	DocumentID uint64
}

// DeleteDocumentResponse reports whether the delete succeeded. Deleting an
// unknown document_id is not an error per spec.
type DeleteDocumentResponse struct {
	Success bool
	Message string
}

// GetStatsRequest asks for index-level statistics.
type GetStatsRequest struct {
	IndexName string
}

// GetStatsResponse reports index-level statistics.
type GetStatsResponse struct {
	TotalDocuments    int
	TotalTerms        int
	AvgDocumentLength float64
}

// IndexService is the index-name-scoped service surface. An index that
// does not yet exist is created lazily on first reference by any method.
type IndexService interface {
	IndexDocument(req IndexDocumentRequest) (IndexDocumentResponse, error)
	BatchIndexDocuments(req BatchIndexDocumentsRequest) (BatchIndexDocumentsResponse, error)
	Search(req SearchRequest) (SearchResponse, error)
	DeleteDocument(req DeleteDocumentRequest) (DeleteDocumentResponse, error)
	GetStats(req GetStatsRequest) (GetStatsResponse, error)
}
