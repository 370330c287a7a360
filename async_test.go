package flexsearch

import (
	"context"
	"testing"
)

func TestAsyncIndex_Add(t *testing.T) {
	idx := newTestIndex(t)
	a := NewAsyncIndex(idx, 2)

	res := <-a.Add(context.Background(), 1, "quick brown fox", false)
	if res.Err != nil {
		t.Fatalf("Add() error = %v", res.Err)
	}
	if !idx.Contains(1) {
		t.Error("index does not contain doc 1 after async Add")
	}
}

func TestAsyncIndex_AddRemove(t *testing.T) {
	idx := newTestIndex(t)
	a := NewAsyncIndex(idx, 0)

	<-a.Add(context.Background(), 1, "hello world", false)
	res := <-a.Remove(context.Background(), 1, false)
	if res.Err != nil {
		t.Fatalf("Remove() error = %v", res.Err)
	}
	if idx.Contains(1) {
		t.Error("index still contains doc 1 after async Remove")
	}
}

func TestAsyncIndex_CancelledContextWaitsOnFullPool(t *testing.T) {
	idx := newTestIndex(t)
	a := NewAsyncIndex(idx, 1)
	a.sem <- struct{}{} // occupy the only worker slot so acquire must block

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := a.acquire(ctx); err == nil {
		t.Error("acquire() on a full pool with a cancelled context returned no error")
	}
}

func TestAsyncDocument_RunBatch_SubmissionOrder(t *testing.T) {
	doc := newTestDocument(t)
	a := NewAsyncDocument(doc, 0)

	b := NewBatch(0)
	b.Add(1, map[string]any{"title": "a"})
	b.Add(2, map[string]any{"title": "b"})
	b.Remove(1)

	results := <-a.RunBatch(context.Background(), b)
	if len(results) != 3 {
		t.Fatalf("RunBatch() returned %d results, want 3", len(results))
	}
	if results[0].Op.ID != 1 || results[1].Op.ID != 2 || results[2].Op.ID != 1 {
		t.Errorf("RunBatch() results out of submission order: %+v", results)
	}
	if doc.Contains(1) {
		t.Error("doc 1 should have been removed by the batch's third op")
	}
	if !doc.Contains(2) {
		t.Error("doc 2 should still be present")
	}
}

func TestConcurrentSearchBuilder_PreservesSubmissionOrder(t *testing.T) {
	idx := newTestIndex(t)
	idx.Add(1, "alpha", false)
	idx.Add(2, "beta", false)
	idx.Add(3, "gamma", false)
	engine := NewSearchEngine(idx, 0, 0)

	builder := NewConcurrentSearchBuilder(engine)
	builder.Add("alpha", DefaultSearchOptions())
	builder.Add("beta", DefaultSearchOptions())
	builder.Add("gamma", DefaultSearchOptions())

	results := builder.Run(context.Background())
	if len(results) != 3 {
		t.Fatalf("Run() returned %d results, want 3", len(results))
	}
	for i, want := range []DocId{1, 2, 3} {
		if results[i].Err != nil {
			t.Fatalf("results[%d].Err = %v", i, results[i].Err)
		}
		if len(results[i].IDs) != 1 || results[i].IDs[0] != want {
			t.Errorf("results[%d] = %v, want [%d]", i, results[i].IDs, want)
		}
	}
}
