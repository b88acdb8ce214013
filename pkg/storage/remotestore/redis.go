package remotestore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisAPI is the part of the redis client used by the table.
type RedisAPI interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
	Scan(ctx context.Context, cursor uint64, match string, count int64) *redis.ScanCmd
}

// scanBatch is the COUNT hint of every SCAN call.
const scanBatch = 100

// RedisTable stores every row as a plain redis string under "<table>:<key>".
type RedisTable struct {
	client RedisAPI
	table  string
}

// NewRedisTable creates the table. An empty name defaults to "kv".
func NewRedisTable(client RedisAPI, table string) *RedisTable {
	if table == "" {
		table = "kv"
	}
	return &RedisTable{client: client, table: table + ":"}
}

// Upsert the key value, without expiration.
func (t *RedisTable) Upsert(ctx context.Context, key string, value string) error {
	if err := t.client.Set(ctx, t.table+key, value, 0).Err(); err != nil {
		return fmt.Errorf("upsert %s: %w", key, err)
	}
	return nil
}

// Select returns the raw value of key.
func (t *RedisTable) Select(ctx context.Context, key string) (string, bool, error) {
	value, err := t.client.Get(ctx, t.table+key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("select %s: %w", key, err)
	}
	return value, true, nil
}

// Delete the key.
func (t *RedisTable) Delete(ctx context.Context, key string) error {
	if err := t.client.Del(ctx, t.table+key).Err(); err != nil {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}

// Keys scans every key starting with prefix.
func (t *RedisTable) Keys(ctx context.Context, prefix string) ([]string, error) {
	match := escapeGlob(t.table+prefix) + "*"
	seen := map[string]struct{}{}
	keys := []string{}

	var cursor uint64
	for {
		batch, next, err := t.client.Scan(ctx, cursor, match, scanBatch).Result()
		if err != nil {
			return nil, fmt.Errorf("list keys: %w", err)
		}

		// SCAN may return a key more than once.
		for _, k := range batch {
			k = strings.TrimPrefix(k, t.table)
			if _, dup := seen[k]; !dup {
				seen[k] = struct{}{}
				keys = append(keys, k)
			}
		}

		if next == 0 {
			break
		}
		cursor = next
	}

	return keys, nil
}
