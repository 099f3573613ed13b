// Package sqlstore implements internal/env.Storage on top of
// modernc.org/sqlite, the teacher's own pure-Go SQLite driver. Unlike
// badgerstore, keys live in a relational kv table (every value, the
// schema_version key included, is a JSON text column of its row), so
// internal/migration can be exercised against a genuine SQL engine
// (SPEC_FULL.md DOMAIN STACK: "C10, C5").
package sqlstore

import (
	"context"
	"database/sql"
	"encoding/json"

	_ "modernc.org/sqlite"

	"github.com/watchstate/core/internal/env"
)

// Store wraps a *sql.DB (modernc.org/sqlite driver) as a Storage.
type Store struct {
	db *sql.DB
}

// Open opens (creating if absent) a SQLite database file at path and
// ensures the key/value table exists.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, env.StorageUnavailableErr(err)
	}
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS kv (key TEXT PRIMARY KEY, value TEXT NOT NULL)`); err != nil {
		_ = db.Close()
		return nil, env.StorageUnavailableErr(err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error { return s.db.Close() }

func (s *Store) GetStorage(ctx context.Context, key string, out any) (bool, error) {
	var raw string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM kv WHERE key = ?`, key).Scan(&raw)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, env.StorageReadErr(err)
	}
	if out == nil {
		return true, nil
	}
	if err := json.Unmarshal([]byte(raw), out); err != nil {
		return true, env.StorageReadErr(err)
	}
	return true, nil
}

func (s *Store) SetStorage(ctx context.Context, key string, value any) error {
	if value == nil {
		if _, err := s.db.ExecContext(ctx, `DELETE FROM kv WHERE key = ?`, key); err != nil {
			return env.StorageWriteErr(err)
		}
		return nil
	}
	data, err := json.Marshal(value)
	if err != nil {
		return env.StorageWriteErr(err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO kv (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value`, key, string(data))
	if err != nil {
		return env.StorageWriteErr(err)
	}
	return nil
}

var _ env.Storage = (*Store)(nil)
