package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/RyanBlaney/affect-fusion/pkg/calibration"
	"github.com/dgraph-io/badger/v3"
)

const badgerKeyPrefix = "calibration:"

type badgerStore struct {
	db *badger.DB
}

// NewBadger opens (or creates) an embedded badger database under path.
func NewBadger(path string) (calibration.Store, error) {
	if path == "" {
		return nil, fmt.Errorf("badger store requires a path")
	}
	if err := os.MkdirAll(path, 0755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}

	opts := badger.DefaultOptions(filepath.Join(path, "badger"))
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger database: %w", err)
	}

	return &badgerStore{db: db}, nil
}

func (s *badgerStore) Load(ctx context.Context, key string) (calibration.State, bool, error) {
	if err := checkKey(key); err != nil {
		return calibration.State{}, false, err
	}

	var state calibration.State
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(badgerKeyPrefix + key))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &state)
		})
	})

	if err == badger.ErrKeyNotFound {
		return calibration.State{}, false, nil
	}
	if err != nil {
		return calibration.State{}, false, fmt.Errorf("failed to load calibration %q: %w", key, err)
	}
	return state, true, nil
}

func (s *badgerStore) Save(ctx context.Context, key string, state calibration.State) error {
	if err := checkKey(key); err != nil {
		return err
	}

	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to marshal calibration: %w", err)
	}

	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(badgerKeyPrefix+key), data)
	})
}

func (s *badgerStore) Delete(ctx context.Context, key string) error {
	if err := checkKey(key); err != nil {
		return err
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(badgerKeyPrefix + key))
	})
}

func (s *badgerStore) Close() error {
	return s.db.Close()
}
