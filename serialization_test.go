package flexsearch

import "testing"

func TestEncodeJSON_DecodeJSON_RoundTrip(t *testing.T) {
	idx := newTestIndex(t)
	idx.Add(1, "quick brown fox", false)
	idx.Add(2, "lazy dog", false)

	raw, err := idx.EncodeJSON(1700000000)
	if err != nil {
		t.Fatalf("EncodeJSON() error = %v", err)
	}

	dst := newTestIndex(t)
	if err := dst.DecodeJSON(raw); err != nil {
		t.Fatalf("DecodeJSON() error = %v", err)
	}
	if !dst.Contains(1) || !dst.Contains(2) {
		t.Errorf("decoded index missing docs: Contains(1)=%v Contains(2)=%v", dst.Contains(1), dst.Contains(2))
	}
	if _, ok := dst.Postings["quick"]; !ok {
		t.Error("decoded index has no postings for 'quick'")
	}
}

func TestDecodeJSON_RejectsVersionMismatch(t *testing.T) {
	idx := newTestIndex(t)
	idx.Add(1, "hello world", false)
	raw, err := idx.EncodeJSON(0)
	if err != nil {
		t.Fatalf("EncodeJSON() error = %v", err)
	}

	tampered := make([]byte, len(raw))
	copy(tampered, raw)
	tampered = []byte(replaceFirst(string(tampered), `"version":1`, `"version":99`))

	dst := newTestIndex(t)
	if err := dst.DecodeJSON(tampered); err != ErrSerializationVersion {
		t.Errorf("DecodeJSON() with a future version error = %v, want ErrSerializationVersion", err)
	}
}

func replaceFirst(s, old, new string) string {
	idx := indexOf(s, old)
	if idx < 0 {
		return s
	}
	return s[:idx] + new + s[idx+len(old):]
}

func indexOf(s, substr string) int {
	for i := 0; i+len(substr) <= len(s); i++ {
		if s[i:i+len(substr)] == substr {
			return i
		}
	}
	return -1
}

func TestEncodeJSON_FastUpdateRegistry(t *testing.T) {
	cfg := DefaultIndexConfig()
	cfg.FastUpdate = true
	enc, err := NewEncoder(DefaultEncoderConfig())
	if err != nil {
		t.Fatalf("NewEncoder() error = %v", err)
	}
	idx := NewInvertedIndex(enc, cfg)
	idx.Add(1, "red green blue", false)

	raw, err := idx.EncodeJSON(0)
	if err != nil {
		t.Fatalf("EncodeJSON() error = %v", err)
	}

	dst := NewInvertedIndex(enc, cfg)
	if err := dst.DecodeJSON(raw); err != nil {
		t.Fatalf("DecodeJSON() error = %v", err)
	}
	if !dst.Contains(1) {
		t.Error("decoded fast-update index missing doc 1")
	}
}

func TestChunkWriterReader_RoundTrip(t *testing.T) {
	idx := newTestIndex(t)
	for i := DocId(1); i <= 20; i++ {
		idx.Add(i, "apple banana cherry", false)
	}

	w := &ChunkWriter{RegistryChunkSize: 3, MainChunkSize: 1, ContextChunkSize: 1}
	chunks, err := w.Write(idx)
	if err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if len(chunks.Registry) < 2 {
		t.Errorf("Registry chunk count = %d, want >= 2 with a small chunk size", len(chunks.Registry))
	}

	dst := newTestIndex(t)
	r := NewChunkReader()
	if err := r.Read(dst, chunks); err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	for i := DocId(1); i <= 20; i++ {
		if !dst.Contains(i) {
			t.Errorf("reassembled index missing doc %d", i)
		}
	}
}

func TestChunkWriterReader_EmptyIndex(t *testing.T) {
	idx := newTestIndex(t)
	w := NewChunkWriter()
	chunks, err := w.Write(idx)
	if err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if len(chunks.Main) != 0 || len(chunks.Context) != 0 {
		t.Errorf("expected no chunks for an empty index, got main=%d context=%d", len(chunks.Main), len(chunks.Context))
	}

	dst := newTestIndex(t)
	if err := NewChunkReader().Read(dst, chunks); err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if dst.TotalDocs != 0 {
		t.Errorf("TotalDocs = %d, want 0", dst.TotalDocs)
	}
}
