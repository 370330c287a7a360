package flexsearch

import "testing"

func newTestField(t *testing.T, name string) *Field {
	t.Helper()
	f, err := NewField(NewFieldConfig(name))
	if err != nil {
		t.Fatalf("NewField(%q) error = %v", name, err)
	}
	return f
}

func TestField_AddAndSearch(t *testing.T) {
	f := newTestField(t, "title")
	if err := f.Add(1, map[string]any{"title": "quick brown fox"}); err != nil {
		t.Fatalf("Add() error = %v", err)
	}
	if !f.Index().Contains(1) {
		t.Error("field index does not contain doc 1 after Add")
	}
}

func TestField_AddMissingPath_IsNoop(t *testing.T) {
	f := newTestField(t, "title")
	if err := f.Add(1, map[string]any{"body": "no title here"}); err != nil {
		t.Fatalf("Add() error = %v", err)
	}
	if f.Index().Contains(1) {
		t.Error("field index contains doc 1 despite the path being absent")
	}
}

func TestField_FilterRejectsWholeRecord(t *testing.T) {
	cfg := NewFieldConfig("title")
	cfg.Filter = func(record map[string]any) bool {
		status, _ := record["status"].(string)
		return status == "published"
	}
	f, err := NewField(cfg)
	if err != nil {
		t.Fatalf("NewField() error = %v", err)
	}
	if err := f.Add(1, map[string]any{"title": "draft post", "status": "draft"}); err != nil {
		t.Fatalf("Add() error = %v", err)
	}
	if f.Index().Contains(1) {
		t.Error("filtered-out record was indexed anyway")
	}
}

func TestField_Weight_DefaultsToOne(t *testing.T) {
	f := newTestField(t, "title")
	if f.Weight() != 1 {
		t.Errorf("Weight() = %v, want 1", f.Weight())
	}
}

func TestFields_AddGetAll(t *testing.T) {
	fs := NewFields()
	title := newTestField(t, "title")
	body := newTestField(t, "body")
	fs.Add(title)
	fs.Add(body)

	if fs.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", fs.Len())
	}
	got, ok := fs.Get("body")
	if !ok || got != body {
		t.Errorf("Get(body) = (%v, %v), want the body field", got, ok)
	}
	if _, ok := fs.Get("missing"); ok {
		t.Error("Get(missing) = true, want false")
	}
}

func TestTagSystem_AddQueryRemove(t *testing.T) {
	ts := NewTagSystem()
	ts.AddConfig(NewTagConfig("category"))

	ts.AddTags(1, map[string]any{"category": "news"})
	ts.AddTags(2, map[string]any{"category": "news"})
	ts.AddTags(3, map[string]any{"category": "sports"})

	got := ts.Query("category", "news")
	if len(got) != 2 {
		t.Fatalf("Query(category, news) = %v, want 2 ids", got)
	}

	ts.RemoveTags(1)
	got = ts.Query("category", "news")
	if len(got) != 1 || got[0] != 2 {
		t.Errorf("Query(category, news) after removing doc 1 = %v, want [2]", got)
	}
}

func TestTagSystem_QueryMultiAndAny(t *testing.T) {
	ts := NewTagSystem()
	ts.AddConfig(NewTagConfig("category"))
	ts.AddConfig(NewTagConfig("region"))

	ts.AddTags(1, map[string]any{"category": "news", "region": "us"})
	ts.AddTags(2, map[string]any{"category": "news", "region": "eu"})
	ts.AddTags(3, map[string]any{"category": "sports", "region": "us"})

	gotAny := ts.QueryAny("category", []string{"news", "sports"})
	if len(gotAny) != 3 {
		t.Errorf("QueryAny(news, sports) = %v, want 3 ids", gotAny)
	}

	multi := ts.QueryMulti("region", []string{"us"})
	if len(multi) != 2 {
		t.Errorf("QueryMulti(region=us) = %v, want 2 ids", multi)
	}
}

func TestTagSystem_FilterRejectsValue(t *testing.T) {
	cfg := NewTagConfig("category")
	cfg.Filter = func(value string) bool { return value != "spam" }
	ts := NewTagSystem()
	ts.AddConfig(cfg)

	ts.AddTags(1, map[string]any{"category": "spam"})
	if got := ts.Query("category", "spam"); len(got) != 0 {
		t.Errorf("Query(category, spam) = %v, want empty: filter should have rejected it", got)
	}
}

func TestBatch_DrainInSubmissionOrder(t *testing.T) {
	b := NewBatch(0)
	b.Add(1, map[string]any{"title": "a"})
	b.Update(2, map[string]any{"title": "b"})
	b.Remove(3)

	ops := b.Drain()
	if len(ops) != 3 {
		t.Fatalf("Drain() returned %d ops, want 3", len(ops))
	}
	wantKinds := []BatchOpKind{BatchAdd, BatchUpdate, BatchRemove}
	for i, op := range ops {
		if op.Kind != wantKinds[i] {
			t.Errorf("ops[%d].Kind = %v, want %v", i, op.Kind, wantKinds[i])
		}
	}
	if b.Len() != 0 {
		t.Errorf("Len() after Drain() = %d, want 0", b.Len())
	}
}

func TestBatch_ShouldFlush(t *testing.T) {
	b := NewBatch(2)
	b.Add(1, nil)
	if b.ShouldFlush() {
		t.Error("ShouldFlush() = true with 1 op queued against max 2")
	}
	b.Add(2, nil)
	if !b.ShouldFlush() {
		t.Error("ShouldFlush() = false with 2 ops queued against max 2")
	}
}

func newTestDocument(t *testing.T) *Document {
	t.Helper()
	doc := NewDocument(DocumentConfig{StoreRaw: true})
	doc.Fields.Add(newTestField(t, "title"))
	doc.Fields.Add(newTestField(t, "body"))
	return doc
}

func TestDocument_AddContainsGet(t *testing.T) {
	doc := newTestDocument(t)
	record := map[string]any{"title": "hello", "body": "world"}
	if err := doc.Add(1, record); err != nil {
		t.Fatalf("Add() error = %v", err)
	}
	if !doc.Contains(1) {
		t.Error("Contains(1) = false after Add")
	}
	got, ok := doc.Get(1)
	if !ok || got["title"] != "hello" {
		t.Errorf("Get(1) = (%v, %v), want the stored record", got, ok)
	}
}

func TestDocument_Add_ZeroID(t *testing.T) {
	doc := newTestDocument(t)
	if err := doc.Add(0, map[string]any{"title": "x"}); err != ErrInvalidID {
		t.Errorf("Add(0, ...) error = %v, want ErrInvalidID", err)
	}
}

func TestDocument_RemoveUndoesFields(t *testing.T) {
	doc := newTestDocument(t)
	doc.Add(1, map[string]any{"title": "hello world"})
	if err := doc.Remove(1); err != nil {
		t.Fatalf("Remove() error = %v", err)
	}
	if doc.Contains(1) {
		t.Error("Contains(1) = true after Remove")
	}
	title, _ := doc.Fields.Get("title")
	if title.Index().Contains(1) {
		t.Error("title field still contains doc 1 after Document.Remove")
	}
}

func TestDocument_ExecuteBatch_CollectsAllErrors(t *testing.T) {
	doc := newTestDocument(t)
	b := NewBatch(0)
	b.Add(1, map[string]any{"title": "a"})
	b.Add(0, map[string]any{"title": "b"}) // invalid id
	b.Add(2, map[string]any{"title": "c"})

	errs := doc.ExecuteBatch(b)
	if len(errs) != 1 {
		t.Fatalf("ExecuteBatch() returned %d errors, want 1", len(errs))
	}
	if !doc.Contains(1) || !doc.Contains(2) {
		t.Error("valid ops around the failing one should still have applied")
	}
}
