package postgres

import (
	"context"
	"fmt"

	"github.com/skillplay/skillplay-life/internal/domain/shared"
)

var _ shared.KeyValueStore = (*KVStore)(nil)

// KVStore keeps each key in a kv_store row scoped to a namespace, so several
// profiles can share one database.
type KVStore struct {
	conn      *Connection
	namespace string
}

// Open connects, applies migrations and returns the store.
func Open(ctx context.Context, cfg Config, namespace string) (*KVStore, error) {
	conn, err := NewConnection(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if err := NewMigrator(conn).Migrate(ctx); err != nil {
		conn.Close()
		return nil, err
	}
	return NewKVStore(conn, namespace), nil
}

// NewKVStore wraps an existing, migrated connection.
func NewKVStore(conn *Connection, namespace string) *KVStore {
	return &KVStore{conn: conn, namespace: namespace}
}

// Get returns the value stored under key.
func (s *KVStore) Get(ctx context.Context, key string) ([]byte, error) {
	if key == "" {
		return nil, shared.ErrEmptyKey
	}
	var value []byte
	err := s.conn.QueryRow(ctx,
		`SELECT value FROM kv_store WHERE namespace = $1 AND key = $2`, s.namespace, key).Scan(&value)
	if IsNoRows(err) {
		return nil, shared.ErrKeyNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("postgres: get %s: %w", key, err)
	}
	return value, nil
}

// Set upserts value under key.
func (s *KVStore) Set(ctx context.Context, key string, value []byte) error {
	if key == "" {
		return shared.ErrEmptyKey
	}
	if value == nil {
		value = []byte{}
	}
	_, err := s.conn.Exec(ctx, `
		INSERT INTO kv_store (namespace, key, value, updated_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (namespace, key) DO UPDATE
		SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at
	`, s.namespace, key, value)
	if err != nil {
		return fmt.Errorf("postgres: set %s: %w", key, err)
	}
	return nil
}

// Delete removes keys.
func (s *KVStore) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	_, err := s.conn.Exec(ctx,
		`DELETE FROM kv_store WHERE namespace = $1 AND key = ANY($2)`, s.namespace, keys)
	if err != nil {
		return fmt.Errorf("postgres: delete: %w", err)
	}
	return nil
}

// Close closes the pool.
func (s *KVStore) Close() error {
	s.conn.Close()
	return nil
}
