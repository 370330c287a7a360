package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisAdapter commits a whole encoded index snapshot as a single Redis
// value per index, keyed "flexsearch:<index_name>", with per-document raw
// records kept in a companion hash "flexsearch:<index_name>:records".
type RedisAdapter struct {
	client *redis.Client
}

// NewRedisAdapter dials url (a redis:// URL) with the given connection
// pool size.
func NewRedisAdapter(url string, poolSize int) (*RedisAdapter, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("storage: invalid redis url: %w", err)
	}
	if poolSize > 0 {
		opts.PoolSize = poolSize
	}
	return &RedisAdapter{client: redis.NewClient(opts)}, nil
}

func snapshotKey(indexName string) string { return "flexsearch:" + indexName }
func recordsKey(indexName string) string  { return "flexsearch:" + indexName + ":records" }
func metaKey(indexName string) string     { return "flexsearch:" + indexName + ":meta" }

func (r *RedisAdapter) Mount(ctx context.Context, indexName string) error {
	return r.client.Ping(ctx).Err()
}

func (r *RedisAdapter) Open(ctx context.Context, indexName string) error  { return nil }
func (r *RedisAdapter) Close(ctx context.Context, indexName string) error { return nil }

func (r *RedisAdapter) Destroy(ctx context.Context, indexName string) error {
	return r.client.Del(ctx, snapshotKey(indexName), recordsKey(indexName), metaKey(indexName)).Err()
}

func (r *RedisAdapter) Commit(ctx context.Context, indexName string, encoded []byte) error {
	if err := r.client.Set(ctx, snapshotKey(indexName), encoded, 0).Err(); err != nil {
		return fmt.Errorf("storage: redis commit: %w", err)
	}
	meta := map[string]any{
		"size_bytes": len(encoded),
		"committed":  time.Now().Unix(),
	}
	raw, err := json.Marshal(meta)
	if err != nil {
		return fmt.Errorf("storage: redis commit metadata: %w", err)
	}
	return r.client.Set(ctx, metaKey(indexName), raw, 0).Err()
}

func (r *RedisAdapter) Get(ctx context.Context, indexName string) ([]byte, error) {
	data, err := r.client.Get(ctx, snapshotKey(indexName)).Bytes()
	if err == redis.Nil {
		return nil, ErrNotCommitted
	}
	if err != nil {
		return nil, fmt.Errorf("storage: redis get: %w", err)
	}
	return data, nil
}

func (r *RedisAdapter) Enrich(ctx context.Context, indexName string, ids []uint64) (map[uint64][]byte, error) {
	if len(ids) == 0 {
		return map[uint64][]byte{}, nil
	}
	fields := make([]string, len(ids))
	for i, id := range ids {
		fields[i] = strconv.FormatUint(id, 10)
	}
	vals, err := r.client.HMGet(ctx, recordsKey(indexName), fields...).Result()
	if err != nil {
		return nil, fmt.Errorf("storage: redis enrich: %w", err)
	}
	out := make(map[uint64][]byte, len(ids))
	for i, v := range vals {
		if v == nil {
			continue
		}
		s, ok := v.(string)
		if !ok {
			continue
		}
		out[ids[i]] = []byte(s)
	}
	return out, nil
}

func (r *RedisAdapter) Has(ctx context.Context, indexName string) (bool, error) {
	n, err := r.client.Exists(ctx, snapshotKey(indexName)).Result()
	if err != nil {
		return false, fmt.Errorf("storage: redis has: %w", err)
	}
	return n > 0, nil
}

func (r *RedisAdapter) Remove(ctx context.Context, indexName string, id uint64) error {
	return r.client.HDel(ctx, recordsKey(indexName), strconv.FormatUint(id, 10)).Err()
}

func (r *RedisAdapter) Clear(ctx context.Context, indexName string) error {
	return r.client.Del(ctx, recordsKey(indexName)).Err()
}

func (r *RedisAdapter) Info(ctx context.Context, indexName string) (Info, error) {
	size, err := r.client.StrLen(ctx, snapshotKey(indexName)).Result()
	if err != nil && err != redis.Nil {
		return Info{}, fmt.Errorf("storage: redis info: %w", err)
	}
	count, err := r.client.HLen(ctx, recordsKey(indexName)).Result()
	if err != nil && err != redis.Nil {
		return Info{}, fmt.Errorf("storage: redis info: %w", err)
	}
	info := Info{IndexName: indexName, SizeBytes: size, DocumentCount: int(count)}
	raw, err := r.client.Get(ctx, metaKey(indexName)).Bytes()
	if err == nil {
		var meta struct {
			Committed int64 `json:"committed"`
		}
		if json.Unmarshal(raw, &meta) == nil && meta.Committed > 0 {
			info.LastCommitedAt = time.Unix(meta.Committed, 0)
		}
	}
	return info, nil
}

// PutRecord stores a raw record in the companion hash, used by document
// layers that keep raw records in Redis rather than in-process memory.
func (r *RedisAdapter) PutRecord(ctx context.Context, indexName string, id uint64, raw []byte) error {
	return r.client.HSet(ctx, recordsKey(indexName), strconv.FormatUint(id, 10), raw).Err()
}
