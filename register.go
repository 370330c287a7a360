package flexsearch

import (
	"sync"

	"github.com/RoaringBitmap/roaring"
)

// Register tracks which DocIds are live in an index, per spec.md §3. Two
// concrete shapes exist: SetRegister (default) and MapRegister
// (fastupdate=true), selected by IndexConfig.FastUpdate.
type Register interface {
	Add(id DocId)
	Remove(id DocId)
	Has(id DocId) bool
	Clear()
	Len() int
	Ids() []DocId
}

// SetRegister is the default Register shape: a set of DocIds backed by a
// roaring bitmap, sufficient to answer "contains?" and "delete", grounded
// on the teacher's own use of roaring.Bitmap for document membership.
type SetRegister struct {
	mu     sync.RWMutex
	bitmap *roaring.Bitmap
}

func newSetRegister() *SetRegister {
	return &SetRegister{bitmap: roaring.NewBitmap()}
}

func (r *SetRegister) Add(id DocId) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.bitmap.Add(uint32(id))
}

func (r *SetRegister) Remove(id DocId) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.bitmap.Remove(uint32(id))
}

func (r *SetRegister) Has(id DocId) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.bitmap.Contains(uint32(id))
}

func (r *SetRegister) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.bitmap.Clear()
}

func (r *SetRegister) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return int(r.bitmap.GetCardinality())
}

func (r *SetRegister) Ids() []DocId {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]DocId, 0, r.bitmap.GetCardinality())
	it := r.bitmap.Iterator()
	for it.HasNext() {
		out = append(out, DocId(it.Next()))
	}
	return out
}

// MapRegister is the fastupdate=true Register shape: DocId -> list of
// index-reference back-pointers recording every (map-vs-context, term,
// optional keyword) tuple the doc was inserted into, per spec.md §3 and
// §9's "cyclic references" design note. Enables O(deg(doc)) deletion.
type MapRegister struct {
	mu   sync.RWMutex
	refs map[DocId][]indexRef
}

func newMapRegister() *MapRegister {
	return &MapRegister{refs: make(map[DocId][]indexRef)}
}

func (r *MapRegister) Add(id DocId) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.refs[id]; !ok {
		r.refs[id] = nil
	}
}

func (r *MapRegister) setRefs(id DocId, refs []indexRef) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.refs[id] = refs
}

func (r *MapRegister) refsFor(id DocId) ([]indexRef, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	refs, ok := r.refs[id]
	return refs, ok
}

func (r *MapRegister) Remove(id DocId) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.refs, id)
}

func (r *MapRegister) Has(id DocId) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.refs[id]
	return ok
}

func (r *MapRegister) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.refs = make(map[DocId][]indexRef)
}

func (r *MapRegister) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.refs)
}

func (r *MapRegister) Ids() []DocId {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]DocId, 0, len(r.refs))
	for id := range r.refs {
		out = append(out, id)
	}
	return out
}
