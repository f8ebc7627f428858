package statestore

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	"TiltGuard/internal/domain/models"
	"TiltGuard/internal/domain/repository"
	"TiltGuard/pkg/cache"
)

const keyPrefix = "state"

// Store keeps the per-trader InterventionState in a cache backend (Redis
// when configured, in-memory otherwise) and owns one mutex per trader so
// the classify-and-persist step is a critical section. The lock is keyed
// by trader identity: different traders never contend.
type Store struct {
	backend cache.Service

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func New(backend cache.Service) *Store {
	return &Store{
		backend: backend,
		locks:   make(map[string]*sync.Mutex),
	}
}

// Lock acquires the trader's exclusive lock and returns the unlock func.
// Hold it only across classify-and-persist, not the whole pipeline.
func (s *Store) Lock(traderID string) func() {
	s.mu.Lock()
	l, ok := s.locks[traderID]
	if !ok {
		l = &sync.Mutex{}
		s.locks[traderID] = l
	}
	s.mu.Unlock()
	l.Lock()
	return l.Unlock
}

// Get returns the trader's state, decoded from its stored JSON form.
// States are kept as strings so the Redis and memory backends behave
// identically.
func (s *Store) Get(ctx context.Context, traderID string) (models.InterventionState, bool, error) {
	var raw string
	err := s.backend.Get(ctx, cache.GenerateKey(keyPrefix, traderID), &raw)
	if err != nil {
		if errors.Is(err, cache.ErrCacheMiss) {
			return models.InterventionState{}, false, nil
		}
		return models.InterventionState{}, false, err
	}
	var st models.InterventionState
	if err := json.Unmarshal([]byte(raw), &st); err != nil {
		return models.InterventionState{}, false, err
	}
	return st, true, nil
}

// Put overwrites the trader's state. States are never versioned here;
// history belongs to the audit collaborator.
func (s *Store) Put(ctx context.Context, traderID string, st models.InterventionState) error {
	b, err := json.Marshal(st)
	if err != nil {
		return err
	}
	return s.backend.Set(ctx, cache.GenerateKey(keyPrefix, traderID), string(b), 0)
}

var _ repository.StateStore = (*Store)(nil)
