package flexsearch

import "sync"

// Multi-field document layer (§4.I), grounded on
// original_source/services/inversearch/src/document/{field,tag,batch,mod}.rs.

// FieldConfig describes one named, extracted, optionally filtered and
// weighted projection of a record into its own Index.
type FieldConfig struct {
	Name    string
	Path    []PathSegment
	Encoder *Encoder
	Index   IndexConfig
	Filter  func(record map[string]any) bool
	Weight  float64
}

// NewFieldConfig parses name as a tree-path and defaults Weight to 1.
func NewFieldConfig(name string) FieldConfig {
	return FieldConfig{
		Name:   name,
		Path:   ParsePath(name),
		Weight: 1,
	}
}

// Field owns one Index, populated from the path-projected string value of
// each added record.
type Field struct {
	config FieldConfig
	index  *InvertedIndex
}

// NewField builds a Field, constructing its own Encoder when config.Encoder
// is nil.
func NewField(config FieldConfig) (*Field, error) {
	enc := config.Encoder
	if enc == nil {
		var err error
		enc, err = NewEncoder(DefaultEncoderConfig())
		if err != nil {
			return nil, err
		}
	}
	idxCfg := config.Index
	if idxCfg == (IndexConfig{}) {
		idxCfg = DefaultIndexConfig()
	}
	return &Field{
		config: config,
		index:  NewInvertedIndex(enc, idxCfg),
	}, nil
}

func (f *Field) Name() string    { return f.config.Name }
func (f *Field) Weight() float64 { return f.config.Weight }
func (f *Field) Index() *InvertedIndex { return f.index }

// Add resolves the field's path over record and indexes the projected
// string value under id. If the path is absent, or the filter (when set)
// rejects the whole record, Add is a no-op.
func (f *Field) Add(id DocId, record map[string]any) error {
	if f.config.Filter != nil && !f.config.Filter(record) {
		return nil
	}
	value, ok := ExtractPathValue(record, f.config.Path)
	if !ok {
		return nil
	}
	return f.index.Add(id, value, false)
}

// Update removes then re-adds id's projection.
func (f *Field) Update(id DocId, record map[string]any) error {
	if f.config.Filter != nil && !f.config.Filter(record) {
		f.index.Remove(id, false)
		return nil
	}
	value, ok := ExtractPathValue(record, f.config.Path)
	if !ok {
		f.index.Remove(id, false)
		return nil
	}
	return f.index.Update(id, value)
}

func (f *Field) Remove(id DocId) error {
	return f.index.Remove(id, false)
}

func (f *Field) Clear() {
	f.index.Clear()
}

// Fields is an insertion-ordered, name-addressable collection of Field.
type Fields struct {
	mu          sync.RWMutex
	fields      []*Field
	nameToIndex map[string]int
}

func NewFields() *Fields {
	return &Fields{nameToIndex: make(map[string]int)}
}

func (fs *Fields) Add(f *Field) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	fs.nameToIndex[f.Name()] = len(fs.fields)
	fs.fields = append(fs.fields, f)
}

func (fs *Fields) Get(name string) (*Field, bool) {
	fs.mu.RLock()
	defer fs.mu.RUnlock()
	idx, ok := fs.nameToIndex[name]
	if !ok {
		return nil, false
	}
	return fs.fields[idx], true
}

func (fs *Fields) All() []*Field {
	fs.mu.RLock()
	defer fs.mu.RUnlock()
	out := make([]*Field, len(fs.fields))
	copy(out, fs.fields)
	return out
}

func (fs *Fields) Len() int {
	fs.mu.RLock()
	defer fs.mu.RUnlock()
	return len(fs.fields)
}

func (fs *Fields) Clear() {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	fs.fields = nil
	fs.nameToIndex = make(map[string]int)
}

// TagConfig is one configured tag field with an optional per-tag filter.
type TagConfig struct {
	Field  string
	Path   []PathSegment
	Filter func(value string) bool
}

func NewTagConfig(field string) TagConfig {
	return TagConfig{Field: field, Path: ParsePath(field)}
}

type docTag struct {
	configIndex int
	value       string
}

// TagSystem indexes DocIds by (tag_field, tag_value) and keeps a reverse
// mapping so Remove can undo exactly what Add did, per spec.md §4.I.
type TagSystem struct {
	mu       sync.RWMutex
	configs  []TagConfig
	indexes  []map[string][]DocId
	docTags  map[DocId][]docTag
}

func NewTagSystem() *TagSystem {
	return &TagSystem{docTags: make(map[DocId][]docTag)}
}

func (ts *TagSystem) AddConfig(cfg TagConfig) {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	ts.configs = append(ts.configs, cfg)
	ts.indexes = append(ts.indexes, make(map[string][]DocId))
}

// AddTags extracts each configured tag field's value from record (skipping
// fields whose filter rejects the extracted value) and indexes id under
// (field_index, tag_value).
func (ts *TagSystem) AddTags(id DocId, record map[string]any) {
	ts.mu.Lock()
	defer ts.mu.Unlock()

	var applied []docTag
	for i, cfg := range ts.configs {
		value, ok := ExtractPathValue(record, cfg.Path)
		if !ok {
			continue
		}
		if cfg.Filter != nil && !cfg.Filter(value) {
			continue
		}
		ids := ts.indexes[i][value]
		if !containsDocId(ids, id) {
			ts.indexes[i][value] = append(ids, id)
		}
		applied = append(applied, docTag{configIndex: i, value: value})
	}
	if len(applied) > 0 {
		ts.docTags[id] = applied
	}
}

// RemoveTags undoes exactly the tag entries AddTags recorded for id.
func (ts *TagSystem) RemoveTags(id DocId) {
	ts.mu.Lock()
	defer ts.mu.Unlock()

	tags, ok := ts.docTags[id]
	if !ok {
		return
	}
	for _, tag := range tags {
		ids := ts.indexes[tag.configIndex][tag.value]
		ts.indexes[tag.configIndex][tag.value] = removeDocIdFromSlice(ids, id)
	}
	delete(ts.docTags, id)
}

func (ts *TagSystem) fieldIndex(field string) (int, bool) {
	for i, cfg := range ts.configs {
		if cfg.Field == field {
			return i, true
		}
	}
	return 0, false
}

// Query returns the DocIds tagged with (field, value).
func (ts *TagSystem) Query(field, value string) []DocId {
	ts.mu.RLock()
	defer ts.mu.RUnlock()
	idx, ok := ts.fieldIndex(field)
	if !ok {
		return nil
	}
	return append([]DocId(nil), ts.indexes[idx][value]...)
}

// QueryMulti intersects the DocId sets for each of values under field.
func (ts *TagSystem) QueryMulti(field string, values []string) []DocId {
	ts.mu.RLock()
	defer ts.mu.RUnlock()
	idx, ok := ts.fieldIndex(field)
	if !ok {
		return nil
	}
	sets := make([][]DocId, 0, len(values))
	for _, v := range values {
		sets = append(sets, ts.indexes[idx][v])
	}
	return Intersect(sets...)
}

// QueryAny unions the DocId sets for each of values under field.
func (ts *TagSystem) QueryAny(field string, values []string) []DocId {
	ts.mu.RLock()
	defer ts.mu.RUnlock()
	idx, ok := ts.fieldIndex(field)
	if !ok {
		return nil
	}
	sets := make([][]DocId, 0, len(values))
	for _, v := range values {
		sets = append(sets, ts.indexes[idx][v])
	}
	return Union(sets...)
}

func (ts *TagSystem) Clear() {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	for i := range ts.indexes {
		ts.indexes[i] = make(map[string][]DocId)
	}
	ts.docTags = make(map[DocId][]docTag)
}

func containsDocId(ids []DocId, id DocId) bool {
	for _, x := range ids {
		if x == id {
			return true
		}
	}
	return false
}

func removeDocIdFromSlice(ids []DocId, id DocId) []DocId {
	for i, x := range ids {
		if x == id {
			last := len(ids) - 1
			ids[i] = ids[last]
			return ids[:last]
		}
	}
	return ids
}

// BatchOpKind discriminates a queued Batch operation.
type BatchOpKind int

const (
	BatchAdd BatchOpKind = iota
	BatchUpdate
	BatchRemove
)

// BatchOp is one queued operation against a Document.
type BatchOp struct {
	Kind   BatchOpKind
	ID     DocId
	Record map[string]any
}

// Batch is an append-only buffer of Add/Update/Remove operations with a
// max-size flush hint, per spec.md §4.I.
type Batch struct {
	ops     []BatchOp
	maxSize int
}

func NewBatch(maxSize int) *Batch {
	return &Batch{maxSize: maxSize}
}

func (b *Batch) Add(id DocId, record map[string]any) {
	b.ops = append(b.ops, BatchOp{Kind: BatchAdd, ID: id, Record: record})
}

func (b *Batch) Update(id DocId, record map[string]any) {
	b.ops = append(b.ops, BatchOp{Kind: BatchUpdate, ID: id, Record: record})
}

func (b *Batch) Remove(id DocId) {
	b.ops = append(b.ops, BatchOp{Kind: BatchRemove, ID: id})
}

func (b *Batch) ShouldFlush() bool {
	return b.maxSize > 0 && len(b.ops) >= b.maxSize
}

func (b *Batch) Len() int { return len(b.ops) }

func (b *Batch) Clear() { b.ops = nil }

// Drain removes and returns all queued operations in submission order.
func (b *Batch) Drain() []BatchOp {
	ops := b.ops
	b.ops = nil
	return ops
}

// Document is a multi-field record store: each Field indexes one
// path-projected value, a Register tracks "which DocIds exist"
// independent of any field, an optional raw-record store supports
// enrichment, and an optional TagSystem supports tag-based filtering.
type Document struct {
	mu       sync.RWMutex
	Fields   *Fields
	Register Register
	Tags     *TagSystem

	storeRaw bool
	records  map[DocId]map[string]any
}

// DocumentConfig selects the optional capabilities of a Document per
// spec.md §4.I ("Register selection", "Optional document store").
type DocumentConfig struct {
	FastUpdate bool
	StoreRaw   bool
}

func NewDocument(cfg DocumentConfig) *Document {
	d := &Document{
		Fields:   NewFields(),
		Tags:     NewTagSystem(),
		storeRaw: cfg.StoreRaw,
	}
	if cfg.FastUpdate {
		d.Register = newMapRegister()
	} else {
		d.Register = newSetRegister()
	}
	if cfg.StoreRaw {
		d.records = make(map[DocId]map[string]any)
	}
	return d
}

// Add projects record through every field's Add, registers id, tags it,
// and stores the raw record if the document store is enabled.
func (d *Document) Add(id DocId, record map[string]any) error {
	if id == 0 {
		return ErrInvalidID
	}
	d.mu.Lock()
	defer d.mu.Unlock()

	for _, f := range d.Fields.All() {
		if err := f.Add(id, record); err != nil {
			return err
		}
	}
	d.Register.Add(id)
	d.Tags.AddTags(id, record)
	if d.storeRaw {
		d.records[id] = record
	}
	return nil
}

func (d *Document) Update(id DocId, record map[string]any) error {
	if id == 0 {
		return ErrInvalidID
	}
	d.mu.Lock()
	defer d.mu.Unlock()

	for _, f := range d.Fields.All() {
		if err := f.Update(id, record); err != nil {
			return err
		}
	}
	d.Tags.RemoveTags(id)
	d.Tags.AddTags(id, record)
	if d.storeRaw {
		d.records[id] = record
	}
	return nil
}

func (d *Document) Remove(id DocId) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	for _, f := range d.Fields.All() {
		if err := f.Remove(id); err != nil {
			return err
		}
	}
	d.Register.Remove(id)
	d.Tags.RemoveTags(id)
	if d.storeRaw {
		delete(d.records, id)
	}
	return nil
}

func (d *Document) Contains(id DocId) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.Register.Has(id)
}

// Get returns the stored raw record for id, when the document store is
// enabled and id is present.
func (d *Document) Get(id DocId) (map[string]any, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if !d.storeRaw {
		return nil, false
	}
	rec, ok := d.records[id]
	return rec, ok
}

func (d *Document) Clear() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.Fields.Clear()
	d.Register.Clear()
	d.Tags.Clear()
	if d.storeRaw {
		d.records = make(map[DocId]map[string]any)
	}
}

// ExecuteBatch applies every queued operation against d in submission
// order. A single operation's failure does not prevent subsequent
// operations from running; all errors are collected and returned together.
func (d *Document) ExecuteBatch(b *Batch) []error {
	ops := b.Drain()
	var errs []error
	for _, op := range ops {
		var err error
		switch op.Kind {
		case BatchAdd:
			err = d.Add(op.ID, op.Record)
		case BatchUpdate:
			err = d.Update(op.ID, op.Record)
		case BatchRemove:
			err = d.Remove(op.ID)
		}
		if err != nil {
			errs = append(errs, err)
		}
	}
	return errs
}
