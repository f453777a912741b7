package snapshot

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// SQLiteKV keeps snapshots in the snapshots table of the local database.
type SQLiteKV struct {
	db *sql.DB
}

// NewSQLiteKV creates a KV on db. The snapshots table must exist.
func NewSQLiteKV(db *sql.DB) *SQLiteKV {
	return &SQLiteKV{db: db}
}

// Get returns the value stored at key.
func (kv *SQLiteKV) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var value string
	err := kv.db.QueryRowContext(ctx, "SELECT value FROM snapshots WHERE key = ?", key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("querying snapshot %s: %w", key, err)
	}
	return []byte(value), true, nil
}

// Put stores value at key, replacing any previous value.
func (kv *SQLiteKV) Put(ctx context.Context, key string, value []byte) error {
	_, err := kv.db.ExecContext(ctx,
		`INSERT INTO snapshots (key, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = CURRENT_TIMESTAMP`,
		key, string(value))
	if err != nil {
		return fmt.Errorf("storing snapshot %s: %w", key, err)
	}
	return nil
}

// RedisKeyPrefix is prepended to every snapshot key stored in Redis.
const RedisKeyPrefix = "le:snapshot:"

// RedisKV keeps snapshots in Redis strings.
type RedisKV struct {
	rdb *redis.Client
}

// NewRedisKV creates a KV on rdb.
func NewRedisKV(rdb *redis.Client) *RedisKV {
	return &RedisKV{rdb: rdb}
}

// Get returns the value stored at key.
func (kv *RedisKV) Get(ctx context.Context, key string) ([]byte, bool, error) {
	b, err := kv.rdb.Get(ctx, RedisKeyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("getting snapshot %s: %w", key, err)
	}
	return b, true, nil
}

// Put stores value at key without expiry.
func (kv *RedisKV) Put(ctx context.Context, key string, value []byte) error {
	if err := kv.rdb.Set(ctx, RedisKeyPrefix+key, value, 0).Err(); err != nil {
		return fmt.Errorf("setting snapshot %s: %w", key, err)
	}
	return nil
}
