package flexsearch

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"

	"github.com/RoaringBitmap/roaring"
)

// ═══════════════════════════════════════════════════════════════════════════════
// SERIALIZATION: Saving and Loading the Index
// ═══════════════════════════════════════════════════════════════════════════════
// Why serialize?
// - Save index to disk for persistence
// - Send index over network
// - Create backups
//
// Two concrete encodings are supported, per spec.md §4.K:
// - A compact binary encoding (this file's original format, extended with
//   an index_info header block and Register serialization).
// - A human-readable JSON encoding (IndexSnapshot) mirroring the same
//   {version, created_at, index_info, data} shape.
//
// Versions other than currentSerializationVersion are rejected outright;
// a mismatched configuration between exporter and importer is not
// cross-checked. Import replaces the target's live contents; the binary
// Decode also overwrites Config from the header (all but the tokenize
// mode), while DecodeJSON leaves Config unchanged.
// ═══════════════════════════════════════════════════════════════════════════════

const currentSerializationVersion = 1

// IndexInfo mirrors spec.md §4.K's index_info block: just enough of
// IndexConfig to reconstruct tokenization/context/register behavior on
// import.
type IndexInfo struct {
	Resolution    int    `json:"resolution"`
	ResolutionCtx int    `json:"resolution_ctx"`
	TokenizeMode  string `json:"tokenize_mode"`
	Depth         int    `json:"depth"`
	Bidirectional bool   `json:"bidirectional"`
	FastUpdate    bool   `json:"fastupdate"`
	RTL           bool   `json:"rtl"`
	EncoderType   string `json:"encoder_type"`
}

func (idx *InvertedIndex) indexInfo() IndexInfo {
	return IndexInfo{
		Resolution:    idx.Config.Resolution,
		ResolutionCtx: idx.Config.ResolutionCtx,
		TokenizeMode:  idx.Config.Tokenize.String(),
		Depth:         idx.Config.Depth,
		Bidirectional: idx.Config.Bidirectional,
		FastUpdate:    idx.Config.FastUpdate,
		RTL:           idx.Config.RTL,
		EncoderType:   "snowball-english",
	}
}

// IndexSnapshot is the JSON-shaped whole-index export record of spec.md
// §4.K: {version, created_at, index_info, data}.
type IndexSnapshot struct {
	Version   int                             `json:"version"`
	CreatedAt int64                           `json:"created_at"`
	IndexInfo IndexInfo                       `json:"index_info"`
	Data      IndexSnapshotData               `json:"data"`
}

// IndexSnapshotData is the {main_index, context_index, registry} triple.
type IndexSnapshotData struct {
	MainIndex    map[string][]DocId                      `json:"main_index"`
	ContextIndex map[string]map[string][]DocId           `json:"context_index"`
	RegistrySet  []DocId                                  `json:"registry_set,omitempty"`
	RegistryMap  map[DocId][]serializedIndexRef           `json:"registry_map,omitempty"`
}

type serializedIndexRef struct {
	IsContext bool   `json:"is_context"`
	Term      string `json:"term"`
	Keyword   string `json:"keyword,omitempty"`
	Bucket    int    `json:"bucket"`
}

// EncodeJSON renders the whole index as an IndexSnapshot, per spec.md
// §4.K's human-readable textual encoding. createdAt is taken verbatim from
// the caller; EncodeJSON does not read the clock itself.
func (idx *InvertedIndex) EncodeJSON(createdAt int64) ([]byte, error) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	data := IndexSnapshotData{
		MainIndex:    make(map[string][]DocId, len(idx.Postings)),
		ContextIndex: make(map[string]map[string][]DocId, len(idx.Context)),
	}
	for term, buckets := range idx.Postings {
		data.MainIndex[term] = flattenBuckets(buckets)
	}
	for keyword, neighbors := range idx.Context {
		inner := make(map[string][]DocId, len(neighbors))
		for neighbor, buckets := range neighbors {
			inner[neighbor] = flattenBuckets(buckets)
		}
		data.ContextIndex[keyword] = inner
	}

	if idx.Config.FastUpdate {
		mr := idx.Register.(*MapRegister)
		data.RegistryMap = make(map[DocId][]serializedIndexRef)
		for _, id := range mr.Ids() {
			refs, _ := mr.refsFor(id)
			serialized := make([]serializedIndexRef, len(refs))
			for i, r := range refs {
				serialized[i] = serializedIndexRef{IsContext: r.isContext, Term: r.term, Keyword: r.keyword, Bucket: r.bucket}
			}
			data.RegistryMap[id] = serialized
		}
	} else {
		data.RegistrySet = idx.Register.Ids()
	}

	snapshot := IndexSnapshot{
		Version:   currentSerializationVersion,
		CreatedAt: createdAt,
		IndexInfo: idx.indexInfo(),
		Data:      data,
	}
	return json.Marshal(snapshot)
}

// DecodeJSON replaces idx's entire contents with the snapshot, per spec.md
// §4.K's "mismatched configuration... loaded verbatim" rule: the
// snapshot's index_info is not cross-checked against idx.Config, and the
// Postings/Context/Register/DocStats/BM25 state is rebuilt solely from the
// term lists (phrase/proximity skip-list positions are not recoverable
// from this encoding and are left empty, matching the textual encoding's
// documented scope in spec.md §4.K).
func (idx *InvertedIndex) DecodeJSON(raw []byte) error {
	var snapshot IndexSnapshot
	if err := json.Unmarshal(raw, &snapshot); err != nil {
		return NewStorageError(StorageDeserialization, err)
	}
	if snapshot.Version != currentSerializationVersion {
		return ErrSerializationVersion
	}

	idx.mu.Lock()
	defer idx.mu.Unlock()

	idx.Postings = make(map[string][]PostingBucket, len(snapshot.Data.MainIndex))
	idx.DocBitmaps = make(map[string]*roaring.Bitmap, len(snapshot.Data.MainIndex))
	for term, ids := range snapshot.Data.MainIndex {
		idx.Postings[term] = []PostingBucket{PostingBucket(ids)}
		bm := roaring.NewBitmap()
		for _, id := range ids {
			bm.Add(uint32(id))
		}
		idx.DocBitmaps[term] = bm
	}

	idx.Context = make(map[string]map[string][]PostingBucket, len(snapshot.Data.ContextIndex))
	for keyword, neighbors := range snapshot.Data.ContextIndex {
		inner := make(map[string][]PostingBucket, len(neighbors))
		for neighbor, ids := range neighbors {
			inner[neighbor] = []PostingBucket{PostingBucket(ids)}
		}
		idx.Context[keyword] = inner
	}

	if len(snapshot.Data.RegistryMap) > 0 {
		mr := newMapRegister()
		for id, refs := range snapshot.Data.RegistryMap {
			restored := make([]indexRef, len(refs))
			for i, r := range refs {
				restored[i] = indexRef{isContext: r.IsContext, term: r.Term, keyword: r.Keyword, bucket: r.Bucket}
			}
			mr.Add(id)
			mr.setRefs(id, restored)
		}
		idx.Register = mr
	} else {
		sr := newSetRegister()
		for _, id := range snapshot.Data.RegistrySet {
			sr.Add(id)
		}
		idx.Register = sr
	}

	idx.PostingsList = make(map[string]SkipList)
	idx.DocStats = make(map[DocId]DocumentStats)
	idx.TotalDocs = idx.Register.Len()
	idx.TotalTerms = 0
	idx.BM25Params = DefaultBM25Parameters()
	return nil
}

// ═══════════════════════════════════════════════════════════════════════════════
// BINARY ENCODING
// ═══════════════════════════════════════════════════════════════════════════════
// FORMAT STRUCTURE:
// [Header: version, TotalDocs, TotalTerms, BM25.K1, BM25.B, index_info,
//  registry kind + payload]
// [Document Statistics]
// [Posting Lists: term-keyed skip list towers, as in the original format]
// ═══════════════════════════════════════════════════════════════════════════════

// Encode serializes the inverted index to the compact binary format,
// including BM25 statistics, index_info, and Register contents.
func (idx *InvertedIndex) Encode() ([]byte, error) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	buf := new(bytes.Buffer)

	if err := idx.encodeHeader(buf); err != nil {
		return nil, err
	}
	if err := idx.encodeRegistry(buf); err != nil {
		return nil, err
	}
	if err := idx.encodeDocStats(buf); err != nil {
		return nil, err
	}

	encoder := newIndexEncoder(buf)
	for term, skipList := range idx.PostingsList {
		if err := encoder.encodeTerm(term, skipList); err != nil {
			return nil, err
		}
	}

	return buf.Bytes(), nil
}

// encodeHeader writes the version, corpus statistics, BM25 parameters, and
// index_info block.
func (idx *InvertedIndex) encodeHeader(buf *bytes.Buffer) error {
	if err := binary.Write(buf, binary.LittleEndian, uint32(currentSerializationVersion)); err != nil {
		return err
	}
	if err := binary.Write(buf, binary.LittleEndian, uint32(idx.TotalDocs)); err != nil {
		return err
	}
	if err := binary.Write(buf, binary.LittleEndian, uint64(idx.TotalTerms)); err != nil {
		return err
	}
	if err := binary.Write(buf, binary.LittleEndian, idx.BM25Params.K1); err != nil {
		return err
	}
	if err := binary.Write(buf, binary.LittleEndian, idx.BM25Params.B); err != nil {
		return err
	}

	info := idx.indexInfo()
	if err := binary.Write(buf, binary.LittleEndian, int32(info.Resolution)); err != nil {
		return err
	}
	if err := binary.Write(buf, binary.LittleEndian, int32(info.ResolutionCtx)); err != nil {
		return err
	}
	if err := binary.Write(buf, binary.LittleEndian, int32(info.Depth)); err != nil {
		return err
	}
	if err := writeBool(buf, info.Bidirectional); err != nil {
		return err
	}
	if err := writeBool(buf, info.FastUpdate); err != nil {
		return err
	}
	if err := writeBool(buf, info.RTL); err != nil {
		return err
	}
	return writeLengthPrefixedString(buf, info.TokenizeMode)
}

// encodeRegistry writes a one-byte Register kind discriminator followed by
// its payload: a roaring-bitmap blob for SetRegister, or a length-prefixed
// sequence of (DocId, []indexRef) records for MapRegister.
func (idx *InvertedIndex) encodeRegistry(buf *bytes.Buffer) error {
	if mr, ok := idx.Register.(*MapRegister); ok {
		if err := buf.WriteByte(1); err != nil {
			return err
		}
		ids := mr.Ids()
		if err := binary.Write(buf, binary.LittleEndian, uint32(len(ids))); err != nil {
			return err
		}
		for _, id := range ids {
			refs, _ := mr.refsFor(id)
			if err := binary.Write(buf, binary.LittleEndian, uint64(id)); err != nil {
				return err
			}
			if err := binary.Write(buf, binary.LittleEndian, uint32(len(refs))); err != nil {
				return err
			}
			for _, r := range refs {
				if err := writeBool(buf, r.isContext); err != nil {
					return err
				}
				if err := writeLengthPrefixedString(buf, r.term); err != nil {
					return err
				}
				if err := writeLengthPrefixedString(buf, r.keyword); err != nil {
					return err
				}
				if err := binary.Write(buf, binary.LittleEndian, int32(r.bucket)); err != nil {
					return err
				}
			}
		}
		return nil
	}

	if err := buf.WriteByte(0); err != nil {
		return err
	}
	sr, ok := idx.Register.(*SetRegister)
	if !ok {
		return fmt.Errorf("flexsearch: unrecognized Register implementation")
	}
	bitmapBytes, err := sr.bitmap.ToBytes()
	if err != nil {
		return err
	}
	return writeBytesBlob(buf, bitmapBytes)
}

func writeBool(buf *bytes.Buffer, v bool) error {
	var b byte
	if v {
		b = 1
	}
	return buf.WriteByte(b)
}

func writeLengthPrefixedString(buf *bytes.Buffer, s string) error {
	return writeBytesBlob(buf, []byte(s))
}

func writeBytesBlob(buf *bytes.Buffer, data []byte) error {
	if err := binary.Write(buf, binary.LittleEndian, uint32(len(data))); err != nil {
		return err
	}
	_, err := buf.Write(data)
	return err
}

// encodeDocStats writes document statistics for BM25.
func (idx *InvertedIndex) encodeDocStats(buf *bytes.Buffer) error {
	if err := binary.Write(buf, binary.LittleEndian, uint32(len(idx.DocStats))); err != nil {
		return err
	}
	for _, docStats := range idx.DocStats {
		if err := binary.Write(buf, binary.LittleEndian, uint64(docStats.DocID)); err != nil {
			return err
		}
		if err := binary.Write(buf, binary.LittleEndian, uint32(docStats.Length)); err != nil {
			return err
		}
		if err := binary.Write(buf, binary.LittleEndian, uint32(len(docStats.TermFreqs))); err != nil {
			return err
		}
		for term, freq := range docStats.TermFreqs {
			if err := writeLengthPrefixedString(buf, term); err != nil {
				return err
			}
			if err := binary.Write(buf, binary.LittleEndian, uint32(freq)); err != nil {
				return err
			}
		}
	}
	return nil
}

// indexEncoder handles the skip-list-tower encoding process, unchanged
// from the original positional encoder.
type indexEncoder struct {
	buffer *bytes.Buffer
}

func newIndexEncoder(buffer *bytes.Buffer) *indexEncoder {
	return &indexEncoder{buffer: buffer}
}

// encodeTerm serializes a single term and its skip list.
func (e *indexEncoder) encodeTerm(term string, skipList SkipList) error {
	if err := e.writeString(term); err != nil {
		return err
	}

	nodeMap := e.buildNodeIndexMap(skipList)

	nodeData := e.encodeNodePositions(skipList)
	if err := e.writeBytes(nodeData); err != nil {
		return err
	}

	return e.encodeTowerStructure(skipList, nodeMap)
}

func (e *indexEncoder) writeString(s string) error {
	return writeLengthPrefixedString(e.buffer, s)
}

func (e *indexEncoder) writeBytes(data []byte) error {
	return writeBytesBlob(e.buffer, data)
}

// buildNodeIndexMap assigns each skip-list node a stable sequential index
// so tower pointers can be serialized as indices instead of addresses.
func (e *indexEncoder) buildNodeIndexMap(skipList SkipList) map[nodePosition]int {
	nodeMap := make(map[nodePosition]int)
	current := skipList.Head
	index := 1

	for current != nil {
		pos := nodePosition{
			DocID:    int64(current.Key.DocumentID),
			Position: int64(current.Key.Offset),
		}
		nodeMap[pos] = index
		index++
		current = current.Tower[0]
	}

	return nodeMap
}

// encodeNodePositions serializes all node positions (DocID, Offset pairs).
func (e *indexEncoder) encodeNodePositions(skipList SkipList) []byte {
	buf := new(bytes.Buffer)
	current := skipList.Head

	for current != nil {
		binary.Write(buf, binary.LittleEndian, int64(current.Key.DocumentID))
		binary.Write(buf, binary.LittleEndian, int64(current.Key.Offset))
		current = current.Tower[0]
	}

	return buf.Bytes()
}

// encodeTowerStructure serializes the skip list tower connections.
func (e *indexEncoder) encodeTowerStructure(skipList SkipList, nodeMap map[nodePosition]int) error {
	current := skipList.Head

	for current != nil {
		towerData := e.encodeTowerForNode(current, nodeMap)
		if err := e.writeBytes(towerData); err != nil {
			return err
		}
		current = current.Tower[0]
	}

	return nil
}

// encodeTowerForNode encodes the tower structure for a single node.
func (e *indexEncoder) encodeTowerForNode(node *Node, nodeMap map[nodePosition]int) []byte {
	buf := new(bytes.Buffer)

	towerIndices := e.collectTowerIndices(node, nodeMap)

	if len(towerIndices) == 0 {
		binary.Write(buf, binary.LittleEndian, uint16(0))
	} else {
		for _, index := range towerIndices {
			binary.Write(buf, binary.LittleEndian, uint16(index))
		}
	}

	return buf.Bytes()
}

// collectTowerIndices extracts tower pointers and converts them to indices.
func (e *indexEncoder) collectTowerIndices(node *Node, nodeMap map[nodePosition]int) []int {
	var indices []int

	for level := 0; level < MaxHeight; level++ {
		if node.Tower[level] == nil {
			break
		}
		pos := nodePosition{
			DocID:    int64(node.Tower[level].Key.DocumentID),
			Position: int64(node.Tower[level].Key.Offset),
		}
		indices = append(indices, nodeMap[pos])
	}

	return indices
}

// nodePosition is a compact node position key used only during encoding,
// wide enough to hold DocId (uint64) values cast through int64.
type nodePosition struct {
	DocID    int64
	Position int64
}

// ═══════════════════════════════════════════════════════════════════════════════
// DESERIALIZATION
// ═══════════════════════════════════════════════════════════════════════════════

// Decode deserializes binary data produced by Encode, replacing idx's
// entire contents. Versions other than currentSerializationVersion are
// rejected; the decoded index_info is applied to idx.Config, per spec.md
// §4.K's "mismatched configuration... loaded verbatim" rule, except the
// tokenize mode, which is read and skipped.
func (idx *InvertedIndex) Decode(data []byte) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	offset := 0

	version := binary.LittleEndian.Uint32(data[offset : offset+4])
	offset += 4
	if version != currentSerializationVersion {
		return ErrSerializationVersion
	}

	newOffset, err := idx.decodeHeader(data, offset)
	if err != nil {
		return err
	}
	offset = newOffset

	newOffset, err = idx.decodeRegistry(data, offset)
	if err != nil {
		return err
	}
	offset = newOffset

	newOffset, err = idx.decodeDocStats(data, offset)
	if err != nil {
		return err
	}
	offset = newOffset

	decoder := newIndexDecoder(data, offset)
	recoveredIndex := make(map[string]SkipList)
	recoveredPostings := make(map[string][]PostingBucket)
	recoveredBitmaps := make(map[string]*roaring.Bitmap)

	for !decoder.isComplete() {
		term, skipList, err := decoder.decodeTerm()
		if err != nil {
			return err
		}
		recoveredIndex[term] = skipList

		bucket, bm := flattenSkipListToBucket(skipList)
		recoveredPostings[term] = []PostingBucket{bucket}
		recoveredBitmaps[term] = bm
	}

	idx.PostingsList = recoveredIndex
	idx.Postings = recoveredPostings
	idx.DocBitmaps = recoveredBitmaps
	idx.Context = make(map[string]map[string][]PostingBucket)
	return nil
}

func flattenSkipListToBucket(sl SkipList) (PostingBucket, *roaring.Bitmap) {
	seen := make(map[DocId]struct{})
	var bucket PostingBucket
	bm := roaring.NewBitmap()
	for cur := sl.Head.Tower[0]; cur != nil; cur = cur.Tower[0] {
		id := cur.Key.GetDocumentID()
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		bucket = append(bucket, id)
		bm.Add(uint32(id))
	}
	return bucket, bm
}

// decodeHeader reads corpus statistics, BM25 parameters, and index_info.
func (idx *InvertedIndex) decodeHeader(data []byte, offset int) (int, error) {
	idx.TotalDocs = int(binary.LittleEndian.Uint32(data[offset : offset+4]))
	offset += 4

	idx.TotalTerms = int64(binary.LittleEndian.Uint64(data[offset : offset+8]))
	offset += 8

	idx.BM25Params.K1 = math.Float64frombits(binary.LittleEndian.Uint64(data[offset : offset+8]))
	offset += 8

	idx.BM25Params.B = math.Float64frombits(binary.LittleEndian.Uint64(data[offset : offset+8]))
	offset += 8

	idx.Config.Resolution = int(int32(binary.LittleEndian.Uint32(data[offset : offset+4])))
	offset += 4
	idx.Config.ResolutionCtx = int(int32(binary.LittleEndian.Uint32(data[offset : offset+4])))
	offset += 4
	idx.Config.Depth = int(int32(binary.LittleEndian.Uint32(data[offset : offset+4])))
	offset += 4
	idx.Config.Bidirectional = data[offset] != 0
	offset++
	idx.Config.FastUpdate = data[offset] != 0
	offset++
	idx.Config.RTL = data[offset] != 0
	offset++

	length := int(binary.LittleEndian.Uint32(data[offset : offset+4]))
	offset += 4
	offset += length // tokenize mode name is documentation-only on decode

	return offset, nil
}

// decodeRegistry reads the one-byte Register kind discriminator and its
// payload, reconstructing a SetRegister or MapRegister.
func (idx *InvertedIndex) decodeRegistry(data []byte, offset int) (int, error) {
	kind := data[offset]
	offset++

	if kind == 0 {
		length := int(binary.LittleEndian.Uint32(data[offset : offset+4]))
		offset += 4
		bm := roaring.NewBitmap()
		if err := bm.UnmarshalBinary(data[offset : offset+length]); err != nil {
			return 0, NewStorageError(StorageDeserialization, err)
		}
		offset += length
		idx.Register = &SetRegister{bitmap: bm}
		return offset, nil
	}

	numIDs := int(binary.LittleEndian.Uint32(data[offset : offset+4]))
	offset += 4
	mr := newMapRegister()
	for i := 0; i < numIDs; i++ {
		id := DocId(binary.LittleEndian.Uint64(data[offset : offset+8]))
		offset += 8
		numRefs := int(binary.LittleEndian.Uint32(data[offset : offset+4]))
		offset += 4
		refs := make([]indexRef, numRefs)
		for j := 0; j < numRefs; j++ {
			isContext := data[offset] != 0
			offset++

			termLen := int(binary.LittleEndian.Uint32(data[offset : offset+4]))
			offset += 4
			term := string(data[offset : offset+termLen])
			offset += termLen

			kwLen := int(binary.LittleEndian.Uint32(data[offset : offset+4]))
			offset += 4
			keyword := string(data[offset : offset+kwLen])
			offset += kwLen

			bucket := int(int32(binary.LittleEndian.Uint32(data[offset : offset+4])))
			offset += 4

			refs[j] = indexRef{isContext: isContext, term: term, keyword: keyword, bucket: bucket}
		}
		mr.Add(id)
		mr.setRefs(id, refs)
	}
	idx.Register = mr
	return offset, nil
}

// decodeDocStats reads document statistics.
func (idx *InvertedIndex) decodeDocStats(data []byte, offset int) (int, error) {
	numDocs := int(binary.LittleEndian.Uint32(data[offset : offset+4]))
	offset += 4

	idx.DocStats = make(map[DocId]DocumentStats, numDocs)

	for i := 0; i < numDocs; i++ {
		docID := DocId(binary.LittleEndian.Uint64(data[offset : offset+8]))
		offset += 8

		length := int(binary.LittleEndian.Uint32(data[offset : offset+4]))
		offset += 4

		numTerms := int(binary.LittleEndian.Uint32(data[offset : offset+4]))
		offset += 4

		docStats := DocumentStats{
			DocID:     docID,
			Length:    length,
			TermFreqs: make(map[string]int, numTerms),
		}

		for j := 0; j < numTerms; j++ {
			termLen := int(binary.LittleEndian.Uint32(data[offset : offset+4]))
			offset += 4

			term := string(data[offset : offset+termLen])
			offset += termLen

			freq := int(binary.LittleEndian.Uint32(data[offset : offset+4]))
			offset += 4

			docStats.TermFreqs[term] = freq
		}

		idx.DocStats[docID] = docStats
	}

	return offset, nil
}

// indexDecoder handles the decoding of the posting-list section.
type indexDecoder struct {
	data   []byte
	offset int
}

func newIndexDecoder(data []byte, offset int) *indexDecoder {
	return &indexDecoder{data: data, offset: offset}
}

func (d *indexDecoder) isComplete() bool {
	return d.offset >= len(d.data)
}

// decodeTerm decodes a single term and its skip list.
func (d *indexDecoder) decodeTerm() (string, SkipList, error) {
	term, err := d.readString()
	if err != nil {
		return "", SkipList{}, err
	}

	nodeMap, err := d.decodeNodePositions()
	if err != nil {
		return "", SkipList{}, err
	}

	height, err := d.decodeTowerStructure(nodeMap)
	if err != nil {
		return "", SkipList{}, err
	}

	skipList := SkipList{
		Head:   nodeMap[1],
		Height: height,
	}
	if skipList.Head == nil {
		skipList.Head = &Node{}
	}

	return term, skipList, nil
}

func (d *indexDecoder) readString() (string, error) {
	length := int(binary.LittleEndian.Uint32(d.data[d.offset : d.offset+4]))
	d.offset += 4
	str := string(d.data[d.offset : d.offset+length])
	d.offset += length
	return str, nil
}

// decodeNodePositions reconstructs all nodes from their serialized
// (DocID, Offset) int64 pairs.
func (d *indexDecoder) decodeNodePositions() (map[int]*Node, error) {
	dataLength := int(binary.LittleEndian.Uint32(d.data[d.offset : d.offset+4]))
	d.offset += 4

	nodeMap := make(map[int]*Node)
	nodeIndex := 1

	numValues := dataLength / 8
	for i := 0; i < numValues; i += 2 {
		docID := int64(binary.LittleEndian.Uint64(d.data[d.offset : d.offset+8]))
		d.offset += 8

		pos := int64(binary.LittleEndian.Uint64(d.data[d.offset : d.offset+8]))
		d.offset += 8

		node := &Node{
			Key: Position{
				DocumentID: float64(docID),
				Offset:     float64(pos),
			},
		}

		nodeMap[nodeIndex] = node
		nodeIndex++
	}

	return nodeMap, nil
}

// decodeTowerStructure reconstructs the skip list tower connections.
func (d *indexDecoder) decodeTowerStructure(nodeMap map[int]*Node) (int, error) {
	maxHeight := 1
	nodeCount := len(nodeMap)

	for nodeIndex := 1; nodeIndex <= nodeCount; nodeIndex++ {
		towerLength := int(binary.LittleEndian.Uint32(d.data[d.offset : d.offset+4]))
		d.offset += 4

		numIndices := towerLength / 2

		for level := 0; level < numIndices; level++ {
			targetIndex := int(binary.LittleEndian.Uint16(d.data[d.offset : d.offset+2]))
			d.offset += 2

			if targetIndex != 0 {
				nodeMap[nodeIndex].Tower[level] = nodeMap[targetIndex]
				if level+1 > maxHeight {
					maxHeight = level + 1
				}
			}
		}
	}

	return maxHeight, nil
}

// ═══════════════════════════════════════════════════════════════════════════════
// CHUNKED ENCODING
// ═══════════════════════════════════════════════════════════════════════════════
// Writes three stream sections (registry, main, context), each sliced into
// fixed-size chunks, per spec.md §4.K. A reader reconstructs by
// concatenating the chunks of each section and invoking the same JSON
// import path used by DecodeJSON.
// ═══════════════════════════════════════════════════════════════════════════════

const (
	DefaultRegistryChunkSize = 250000
	DefaultMainChunkSize     = 5000
	DefaultContextChunkSize  = 1000
)

// ChunkWriter slices a whole-index snapshot into bounded-size sections for
// streaming export.
type ChunkWriter struct {
	RegistryChunkSize int
	MainChunkSize     int
	ContextChunkSize  int
}

func NewChunkWriter() *ChunkWriter {
	return &ChunkWriter{
		RegistryChunkSize: DefaultRegistryChunkSize,
		MainChunkSize:     DefaultMainChunkSize,
		ContextChunkSize:  DefaultContextChunkSize,
	}
}

// IndexChunks holds the three chunked sections, each a list of JSON-encoded
// byte slices ready to stream independently.
type IndexChunks struct {
	Info     IndexInfo
	Registry [][]byte
	Main     [][]byte
	Context  [][]byte
}

// Write slices idx into an IndexChunks per the configured chunk sizes.
func (w *ChunkWriter) Write(idx *InvertedIndex) (*IndexChunks, error) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	chunks := &IndexChunks{Info: idx.indexInfo()}

	var registryEntries []registryEntry
	if idx.Config.FastUpdate {
		mr := idx.Register.(*MapRegister)
		for _, id := range mr.Ids() {
			refs, _ := mr.refsFor(id)
			serialized := make([]serializedIndexRef, len(refs))
			for i, r := range refs {
				serialized[i] = serializedIndexRef{IsContext: r.isContext, Term: r.term, Keyword: r.keyword, Bucket: r.bucket}
			}
			registryEntries = append(registryEntries, registryEntry{ID: id, Refs: serialized})
		}
	} else {
		for _, id := range idx.Register.Ids() {
			registryEntries = append(registryEntries, registryEntry{ID: id})
		}
	}
	for start := 0; start < len(registryEntries); start += w.RegistryChunkSize {
		end := min(start+w.RegistryChunkSize, len(registryEntries))
		encoded, err := json.Marshal(registryEntries[start:end])
		if err != nil {
			return nil, err
		}
		chunks.Registry = append(chunks.Registry, encoded)
	}

	mainTerms := make([]string, 0, len(idx.Postings))
	for term := range idx.Postings {
		mainTerms = append(mainTerms, term)
	}
	for start := 0; start < len(mainTerms); start += w.MainChunkSize {
		end := min(start+w.MainChunkSize, len(mainTerms))
		section := make(map[string][]DocId, end-start)
		for _, term := range mainTerms[start:end] {
			section[term] = flattenBuckets(idx.Postings[term])
		}
		encoded, err := json.Marshal(section)
		if err != nil {
			return nil, err
		}
		chunks.Main = append(chunks.Main, encoded)
	}

	ctxKeys := make([]string, 0, len(idx.Context))
	for keyword := range idx.Context {
		ctxKeys = append(ctxKeys, keyword)
	}
	for start := 0; start < len(ctxKeys); start += w.ContextChunkSize {
		end := min(start+w.ContextChunkSize, len(ctxKeys))
		section := make(map[string]map[string][]DocId, end-start)
		for _, keyword := range ctxKeys[start:end] {
			inner := make(map[string][]DocId, len(idx.Context[keyword]))
			for neighbor, buckets := range idx.Context[keyword] {
				inner[neighbor] = flattenBuckets(buckets)
			}
			section[keyword] = inner
		}
		encoded, err := json.Marshal(section)
		if err != nil {
			return nil, err
		}
		chunks.Context = append(chunks.Context, encoded)
	}

	return chunks, nil
}

type registryEntry struct {
	ID   DocId                 `json:"id"`
	Refs []serializedIndexRef  `json:"refs,omitempty"`
}

// ChunkReader reconstructs a whole-index snapshot by concatenating chunks
// of each section, then feeds the result through DecodeJSON.
type ChunkReader struct{}

func NewChunkReader() *ChunkReader { return &ChunkReader{} }

// Read merges chunks back into idx, replacing its entire contents.
func (r *ChunkReader) Read(idx *InvertedIndex, chunks *IndexChunks) error {
	data := IndexSnapshotData{
		MainIndex:    make(map[string][]DocId),
		ContextIndex: make(map[string]map[string][]DocId),
	}

	var registryEntries []registryEntry
	for _, chunk := range chunks.Registry {
		var entries []registryEntry
		if err := json.Unmarshal(chunk, &entries); err != nil {
			return NewStorageError(StorageDeserialization, err)
		}
		registryEntries = append(registryEntries, entries...)
	}

	fastUpdate := chunks.Info.FastUpdate
	if fastUpdate {
		data.RegistryMap = make(map[DocId][]serializedIndexRef, len(registryEntries))
		for _, e := range registryEntries {
			data.RegistryMap[e.ID] = e.Refs
		}
	} else {
		data.RegistrySet = make([]DocId, 0, len(registryEntries))
		for _, e := range registryEntries {
			data.RegistrySet = append(data.RegistrySet, e.ID)
		}
	}

	for _, chunk := range chunks.Main {
		var section map[string][]DocId
		if err := json.Unmarshal(chunk, &section); err != nil {
			return NewStorageError(StorageDeserialization, err)
		}
		for term, ids := range section {
			data.MainIndex[term] = ids
		}
	}

	for _, chunk := range chunks.Context {
		var section map[string]map[string][]DocId
		if err := json.Unmarshal(chunk, &section); err != nil {
			return NewStorageError(StorageDeserialization, err)
		}
		for keyword, neighbors := range section {
			data.ContextIndex[keyword] = neighbors
		}
	}

	snapshot := IndexSnapshot{
		Version:   currentSerializationVersion,
		IndexInfo: chunks.Info,
		Data:      data,
	}
	encoded, err := json.Marshal(snapshot)
	if err != nil {
		return err
	}
	return idx.DecodeJSON(encoded)
}
