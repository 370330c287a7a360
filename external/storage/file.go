package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"
)

// FileAdapter persists one encoded index snapshot per index name under
// "<data_dir>/<index_name>.bin", plus a JSON backup metadata file per
// commit under "<data_dir>/backups/<index_name>/<unix_ts>.json" recording
// creation timestamp, size, and document count.
type FileAdapter struct {
	mu      sync.Mutex
	dataDir string
}

// NewFileAdapter roots all persisted state under dataDir, creating it (and
// its backups subdirectory) if necessary.
func NewFileAdapter(dataDir string) (*FileAdapter, error) {
	if err := os.MkdirAll(filepath.Join(dataDir, "backups"), 0o755); err != nil {
		return nil, fmt.Errorf("storage: creating data dir: %w", err)
	}
	return &FileAdapter{dataDir: dataDir}, nil
}

func (f *FileAdapter) snapshotPath(indexName string) string {
	return filepath.Join(f.dataDir, indexName+".bin")
}

func (f *FileAdapter) recordsDir(indexName string) string {
	return filepath.Join(f.dataDir, "records", indexName)
}

func (f *FileAdapter) backupDir(indexName string) string {
	return filepath.Join(f.dataDir, "backups", indexName)
}

type backupMeta struct {
	CreatedAt     int64 `json:"created_at"`
	SizeBytes     int   `json:"size_bytes"`
	DocumentCount int   `json:"document_count"`
}

func (f *FileAdapter) Mount(ctx context.Context, indexName string) error {
	if err := os.MkdirAll(f.recordsDir(indexName), 0o755); err != nil {
		return fmt.Errorf("storage: mounting %s: %w", indexName, err)
	}
	return os.MkdirAll(f.backupDir(indexName), 0o755)
}

func (f *FileAdapter) Open(ctx context.Context, indexName string) error  { return nil }
func (f *FileAdapter) Close(ctx context.Context, indexName string) error { return nil }

func (f *FileAdapter) Destroy(ctx context.Context, indexName string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := os.Remove(f.snapshotPath(indexName)); err != nil && !os.IsNotExist(err) {
		return err
	}
	if err := os.RemoveAll(f.recordsDir(indexName)); err != nil {
		return err
	}
	return os.RemoveAll(f.backupDir(indexName))
}

func (f *FileAdapter) Commit(ctx context.Context, indexName string, encoded []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := os.WriteFile(f.snapshotPath(indexName), encoded, 0o644); err != nil {
		return fmt.Errorf("storage: writing snapshot: %w", err)
	}

	docs, _ := os.ReadDir(f.recordsDir(indexName))
	meta := backupMeta{
		CreatedAt:     time.Now().Unix(),
		SizeBytes:     len(encoded),
		DocumentCount: len(docs),
	}
	raw, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return fmt.Errorf("storage: marshaling backup metadata: %w", err)
	}
	backupFile := filepath.Join(f.backupDir(indexName), strconv.FormatInt(meta.CreatedAt, 10)+".json")
	return os.WriteFile(backupFile, raw, 0o644)
}

func (f *FileAdapter) Get(ctx context.Context, indexName string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	data, err := os.ReadFile(f.snapshotPath(indexName))
	if os.IsNotExist(err) {
		return nil, ErrNotCommitted
	}
	if err != nil {
		return nil, fmt.Errorf("storage: reading snapshot: %w", err)
	}
	return data, nil
}

func (f *FileAdapter) Enrich(ctx context.Context, indexName string, ids []uint64) (map[uint64][]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make(map[uint64][]byte, len(ids))
	for _, id := range ids {
		path := filepath.Join(f.recordsDir(indexName), strconv.FormatUint(id, 10))
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		out[id] = data
	}
	return out, nil
}

func (f *FileAdapter) Has(ctx context.Context, indexName string) (bool, error) {
	_, err := os.Stat(f.snapshotPath(indexName))
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (f *FileAdapter) Remove(ctx context.Context, indexName string, id uint64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	path := filepath.Join(f.recordsDir(indexName), strconv.FormatUint(id, 10))
	err := os.Remove(path)
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

func (f *FileAdapter) Clear(ctx context.Context, indexName string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := os.RemoveAll(f.recordsDir(indexName)); err != nil {
		return err
	}
	return os.MkdirAll(f.recordsDir(indexName), 0o755)
}

func (f *FileAdapter) Info(ctx context.Context, indexName string) (Info, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	st, err := os.Stat(f.snapshotPath(indexName))
	var size int64
	var modTime time.Time
	if err == nil {
		size = st.Size()
		modTime = st.ModTime()
	}
	docs, _ := os.ReadDir(f.recordsDir(indexName))
	return Info{
		IndexName:      indexName,
		SizeBytes:      size,
		DocumentCount:  len(docs),
		LastCommitedAt: modTime,
	}, nil
}

// PutRecord writes a raw record under the index's records directory, the
// seam Enrich reads back from.
func (f *FileAdapter) PutRecord(indexName string, id uint64, raw []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	path := filepath.Join(f.recordsDir(indexName), strconv.FormatUint(id, 10))
	return os.WriteFile(path, raw, 0o644)
}
