package flexsearch

import "testing"

func newCoordinatorTestDocument(t *testing.T) *Document {
	t.Helper()
	doc := NewDocument(DocumentConfig{StoreRaw: true})
	doc.Fields.Add(newTestField(t, "title"))
	doc.Fields.Add(newTestField(t, "body"))
	doc.Add(1, map[string]any{"title": "quick brown fox", "body": "a lazy dog sleeps"})
	doc.Add(2, map[string]any{"title": "lazy cat", "body": "quick fox runs"})
	doc.Add(3, map[string]any{"title": "unrelated", "body": "nothing matches here"})
	return doc
}

func TestCoordinator_CombineOr(t *testing.T) {
	doc := newCoordinatorTestDocument(t)
	c := NewCoordinator(doc)

	results, err := c.Search("quick", []FieldQuery{{Field: "title"}, {Field: "body"}}, CombineOr, DefaultSearchOptions())
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	seen := map[DocId]bool{}
	for _, r := range results {
		seen[r.DocID] = true
	}
	if !seen[1] || !seen[2] {
		t.Errorf("CombineOr results = %+v, want docs 1 and 2 present", results)
	}
}

func TestCoordinator_CombineAnd_RequiresAllFields(t *testing.T) {
	doc := newCoordinatorTestDocument(t)
	c := NewCoordinator(doc)

	results, err := c.Search("", []FieldQuery{
		{Field: "title", Query: "quick"},
		{Field: "body", Query: "quick"},
	}, CombineAnd, DefaultSearchOptions())
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	// Doc 1 has "quick" in title but not body; doc 2 has "quick" in body but
	// not title. Neither field query matches both fields for the same doc.
	if len(results) != 0 {
		t.Errorf("CombineAnd() = %+v, want no doc to satisfy both per-field queries", results)
	}
}

func TestCoordinator_CombineWeight_SortsDescending(t *testing.T) {
	doc := newCoordinatorTestDocument(t)
	c := NewCoordinator(doc)

	results, err := c.Search("quick", []FieldQuery{
		{Field: "title", Boost: 2},
		{Field: "body", Boost: 1},
	}, CombineWeight, DefaultSearchOptions())
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	for i := 1; i < len(results); i++ {
		if results[i-1].Score < results[i].Score {
			t.Errorf("results not sorted descending by score: %+v", results)
		}
	}
}

func TestCoordinator_CombineBestField_PicksLargestHitSet(t *testing.T) {
	doc := NewDocument(DocumentConfig{StoreRaw: true})
	doc.Fields.Add(newTestField(t, "title"))
	doc.Fields.Add(newTestField(t, "body"))
	doc.Add(1, map[string]any{"title": "apple", "body": "apple banana cherry"})
	doc.Add(2, map[string]any{"title": "apple", "body": "apple date"})

	c := NewCoordinator(doc)
	results, err := c.Search("apple", []FieldQuery{{Field: "title"}, {Field: "body"}}, CombineBestField, DefaultSearchOptions())
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("CombineBestField() = %+v, want 2 results from the single best-matching field", results)
	}
}

func TestCoordinator_EmptyQuery(t *testing.T) {
	doc := newCoordinatorTestDocument(t)
	c := NewCoordinator(doc)

	_, err := c.Search("", []FieldQuery{{Field: "title"}, {Field: "body"}}, CombineOr, DefaultSearchOptions())
	if err != ErrEmptyQuery {
		t.Errorf("Search(\"\") error = %v, want ErrEmptyQuery", err)
	}
}

func TestCoordinator_UnknownFieldIsSkipped(t *testing.T) {
	doc := newCoordinatorTestDocument(t)
	c := NewCoordinator(doc)

	results, err := c.Search("quick", []FieldQuery{{Field: "nonexistent"}}, CombineOr, DefaultSearchOptions())
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(results) != 0 {
		t.Errorf("Search() with an unknown field = %+v, want no results", results)
	}
}
