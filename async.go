package flexsearch

import (
	"context"
	"sync"
)

// Async façade (§4.L / §5): wraps blocking InvertedIndex/Document
// operations as channel-returning methods scheduled onto a worker pool,
// and a ConcurrentSearchBuilder dispatching N searches in parallel while
// collecting results in submission order. There is no teacher source for
// this — the teacher has no async façade — so it is grounded directly on
// spec.md §5's wording, built with stdlib sync/context in the teacher's
// naming idiom (no pack go.mod imports golang.org/x/sync/errgroup).

// Result carries one async operation's outcome.
type Result struct {
	Err error
}

// SearchResult carries one async search's outcome.
type SearchResult struct {
	IDs []DocId
	Err error
}

// AsyncIndex schedules blocking InvertedIndex operations onto a bounded
// worker pool, surfacing each as a channel the caller can select on or
// drain, per spec.md §5's "suspension occurs only at the async-façade
// boundary" rule.
type AsyncIndex struct {
	index *InvertedIndex
	sem   chan struct{}
}

// NewAsyncIndex wraps idx with a worker pool capped at concurrency
// (concurrency<=0 means unbounded).
func NewAsyncIndex(idx *InvertedIndex, concurrency int) *AsyncIndex {
	a := &AsyncIndex{index: idx}
	if concurrency > 0 {
		a.sem = make(chan struct{}, concurrency)
	}
	return a
}

func (a *AsyncIndex) acquire(ctx context.Context) error {
	if a.sem == nil {
		return nil
	}
	select {
	case a.sem <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (a *AsyncIndex) release() {
	if a.sem != nil {
		<-a.sem
	}
}

// Add runs idx.Add on a pool goroutine, returning immediately a channel
// that receives exactly one Result. Cancelling ctx before the operation
// acquires a worker slot is safe and produces no side effects; once it
// acquires the slot, it runs to completion per spec.md §5.
func (a *AsyncIndex) Add(ctx context.Context, id DocId, text string, appendMode bool) <-chan Result {
	out := make(chan Result, 1)
	go func() {
		if err := a.acquire(ctx); err != nil {
			out <- Result{Err: err}
			return
		}
		defer a.release()
		out <- Result{Err: a.index.Add(id, text, appendMode)}
	}()
	return out
}

func (a *AsyncIndex) Update(ctx context.Context, id DocId, text string) <-chan Result {
	out := make(chan Result, 1)
	go func() {
		if err := a.acquire(ctx); err != nil {
			out <- Result{Err: err}
			return
		}
		defer a.release()
		out <- Result{Err: a.index.Update(id, text)}
	}()
	return out
}

func (a *AsyncIndex) Remove(ctx context.Context, id DocId, dryRun bool) <-chan Result {
	out := make(chan Result, 1)
	go func() {
		if err := a.acquire(ctx); err != nil {
			out <- Result{Err: err}
			return
		}
		defer a.release()
		out <- Result{Err: a.index.Remove(id, dryRun)}
	}()
	return out
}

// BatchOpResult pairs a submitted BatchOp with its outcome, preserving
// spec.md §5's "one failure does not prevent subsequent operations" rule:
// every op is attempted and reported independently.
type BatchOpResult struct {
	Op  BatchOp
	Err error
}

// AsyncDocument wraps a Document the same way AsyncIndex wraps an
// InvertedIndex, plus a batch-op driver that applies queued operations
// strictly in submission order on the worker pool.
type AsyncDocument struct {
	doc *Document
	sem chan struct{}
}

func NewAsyncDocument(doc *Document, concurrency int) *AsyncDocument {
	a := &AsyncDocument{doc: doc}
	if concurrency > 0 {
		a.sem = make(chan struct{}, concurrency)
	}
	return a
}

func (a *AsyncDocument) acquire(ctx context.Context) error {
	if a.sem == nil {
		return nil
	}
	select {
	case a.sem <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (a *AsyncDocument) release() {
	if a.sem != nil {
		<-a.sem
	}
}

func (a *AsyncDocument) Add(ctx context.Context, id DocId, record map[string]any) <-chan Result {
	out := make(chan Result, 1)
	go func() {
		if err := a.acquire(ctx); err != nil {
			out <- Result{Err: err}
			return
		}
		defer a.release()
		out <- Result{Err: a.doc.Add(id, record)}
	}()
	return out
}

func (a *AsyncDocument) Update(ctx context.Context, id DocId, record map[string]any) <-chan Result {
	out := make(chan Result, 1)
	go func() {
		if err := a.acquire(ctx); err != nil {
			out <- Result{Err: err}
			return
		}
		defer a.release()
		out <- Result{Err: a.doc.Update(id, record)}
	}()
	return out
}

func (a *AsyncDocument) Remove(ctx context.Context, id DocId) <-chan Result {
	out := make(chan Result, 1)
	go func() {
		if err := a.acquire(ctx); err != nil {
			out <- Result{Err: err}
			return
		}
		defer a.release()
		out <- Result{Err: a.doc.Remove(id)}
	}()
	return out
}

// RunBatch applies every queued operation in b against the wrapped
// Document strictly in submission order, on the worker pool, reporting
// each op's outcome independently.
func (a *AsyncDocument) RunBatch(ctx context.Context, b *Batch) <-chan []BatchOpResult {
	out := make(chan []BatchOpResult, 1)
	ops := b.Drain()
	go func() {
		if err := a.acquire(ctx); err != nil {
			results := make([]BatchOpResult, len(ops))
			for i, op := range ops {
				results[i] = BatchOpResult{Op: op, Err: err}
			}
			out <- results
			return
		}
		defer a.release()

		results := make([]BatchOpResult, len(ops))
		for i, op := range ops {
			var err error
			switch op.Kind {
			case BatchAdd:
				err = a.doc.Add(op.ID, op.Record)
			case BatchUpdate:
				err = a.doc.Update(op.ID, op.Record)
			case BatchRemove:
				err = a.doc.Remove(op.ID)
			}
			results[i] = BatchOpResult{Op: op, Err: err}
		}
		out <- results
	}()
	return out
}

// searchTask is one submitted search, carrying its position so results
// can be collected back in submission order regardless of completion
// order.
type searchTask struct {
	index int
	query string
	opts  SearchOptions
}

// ConcurrentSearchBuilder dispatches N independent searches against a
// SearchEngine in parallel and collects the results in submission order,
// per spec.md §5's "concurrent search builders dispatch N searches in
// parallel and collect in submission order".
type ConcurrentSearchBuilder struct {
	engine *SearchEngine
	tasks  []searchTask
}

func NewConcurrentSearchBuilder(engine *SearchEngine) *ConcurrentSearchBuilder {
	return &ConcurrentSearchBuilder{engine: engine}
}

// Add queues one search for the next Run call.
func (b *ConcurrentSearchBuilder) Add(query string, opts SearchOptions) *ConcurrentSearchBuilder {
	b.tasks = append(b.tasks, searchTask{index: len(b.tasks), query: query, opts: opts})
	return b
}

// Run dispatches every queued search concurrently and returns their
// results in submission order. A cancelled ctx stops dispatching further
// tasks but does not cancel work already handed to a goroutine.
func (b *ConcurrentSearchBuilder) Run(ctx context.Context) []SearchResult {
	results := make([]SearchResult, len(b.tasks))
	var wg sync.WaitGroup

	for _, task := range b.tasks {
		if ctx.Err() != nil {
			results[task.index] = SearchResult{Err: ctx.Err()}
			continue
		}
		wg.Add(1)
		go func(t searchTask) {
			defer wg.Done()
			ids, err := b.engine.Search(t.query, t.opts)
			results[t.index] = SearchResult{IDs: ids, Err: err}
		}(task)
	}

	wg.Wait()
	return results
}
