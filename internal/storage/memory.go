package storage

import (
	"context"
	"sync"

	"github.com/RyanBlaney/affect-fusion/pkg/calibration"
)

type memoryStore struct {
	mu      sync.RWMutex
	records map[string]calibration.State
}

// NewMemory returns a process-local store. Records are lost on exit.
func NewMemory() calibration.Store {
	return &memoryStore{records: make(map[string]calibration.State)}
}

func (s *memoryStore) Load(ctx context.Context, key string) (calibration.State, bool, error) {
	if err := checkKey(key); err != nil {
		return calibration.State{}, false, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	state, ok := s.records[key]
	return state.Clone(), ok, nil
}

func (s *memoryStore) Save(ctx context.Context, key string, state calibration.State) error {
	if err := checkKey(key); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records[key] = state.Clone()
	return nil
}

func (s *memoryStore) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.records, key)
	return nil
}

func (s *memoryStore) Close() error {
	return nil
}
