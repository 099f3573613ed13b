// Package badgerstore implements internal/env.Storage on top of
// github.com/dgraph-io/badger/v4, the teacher's own embedded KV engine
// (previously unwired in our trimmed tree — see DESIGN.md C1). It is one
// of two reference Storage backends a shell can pick: an embedded
// single-process KV store, as opposed to sqlstore's relational one.
package badgerstore

import (
	"context"
	"encoding/json"

	"github.com/dgraph-io/badger/v4"

	"github.com/watchstate/core/internal/env"
)

// Store wraps a badger.DB as a Storage.
type Store struct {
	db *badger.DB
}

// Open opens (creating if absent) a badger database rooted at dir.
func Open(dir string) (*Store, error) {
	opts := badger.DefaultOptions(dir).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, env.StorageUnavailableErr(err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error { return s.db.Close() }

func (s *Store) GetStorage(ctx context.Context, key string, out any) (bool, error) {
	var raw []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			raw = append([]byte(nil), val...)
			return nil
		})
	})
	if err == badger.ErrKeyNotFound {
		return false, nil
	}
	if err != nil {
		return false, env.StorageReadErr(err)
	}
	if out == nil {
		return true, nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return true, env.StorageReadErr(err)
	}
	return true, nil
}

func (s *Store) SetStorage(ctx context.Context, key string, value any) error {
	if value == nil {
		err := s.db.Update(func(txn *badger.Txn) error {
			err := txn.Delete([]byte(key))
			if err == badger.ErrKeyNotFound {
				return nil
			}
			return err
		})
		if err != nil {
			return env.StorageWriteErr(err)
		}
		return nil
	}
	data, err := json.Marshal(value)
	if err != nil {
		return env.StorageWriteErr(err)
	}
	if err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), data)
	}); err != nil {
		return env.StorageWriteErr(err)
	}
	return nil
}

var _ env.Storage = (*Store)(nil)
