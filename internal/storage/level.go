package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/syndtr/goleveldb/leveldb"
)

// LevelStore keeps the key space in a local LevelDB directory.
type LevelStore struct {
	db *leveldb.DB
}

func OpenLevelStore(path string) (*LevelStore, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create storage dir: %w", err)
		}
	}
	db, err := leveldb.OpenFile(path, nil)
	if err != nil {
		return nil, fmt.Errorf("open leveldb %s: %w", path, err)
	}
	return &LevelStore{db: db}, nil
}

func (s *LevelStore) Get(_ context.Context, key string) (string, bool, error) {
	v, err := s.db.Get([]byte(key), nil)
	if errors.Is(err, leveldb.ErrNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, mapLevelErr(err)
	}
	return string(v), true, nil
}

func (s *LevelStore) Set(_ context.Context, key, value string) error {
	return mapLevelErr(s.db.Put([]byte(key), []byte(value), nil))
}

func (s *LevelStore) Remove(_ context.Context, key string) error {
	return mapLevelErr(s.db.Delete([]byte(key), nil))
}

func (s *LevelStore) Ping(context.Context) error {
	_, err := s.db.GetProperty("leveldb.stats")
	return mapLevelErr(err)
}

func (s *LevelStore) Close() error {
	return s.db.Close()
}

func mapLevelErr(err error) error {
	if errors.Is(err, leveldb.ErrClosed) {
		return ErrClosed
	}
	return err
}
