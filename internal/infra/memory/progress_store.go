package memory

import (
	"context"
	"sync"

	"lingo-lesson-service/internal/app"
	"lingo-lesson-service/internal/domain"
)

// ProgressStores is an in-memory implementation of app.ProgressStores,
// one checkpoint map per learner.
type ProgressStores struct {
	mu     sync.Mutex
	stores map[string]*ProgressStore
}

func NewProgressStores() *ProgressStores {
	return &ProgressStores{stores: make(map[string]*ProgressStore)}
}

func (p *ProgressStores) For(userID string) app.ProgressStore {
	p.mu.Lock()
	defer p.mu.Unlock()
	store, ok := p.stores[userID]
	if !ok {
		store = NewProgressStore()
		p.stores[userID] = store
	}
	return store
}

// ProgressStore keeps lesson checkpoints in a map. Useful for tests and for
// running without Redis; checkpoints then live only as long as the process.
type ProgressStore struct {
	mu      sync.RWMutex
	records map[string]domain.ProgressRecord
}

func NewProgressStore() *ProgressStore {
	return &ProgressStore{records: make(map[string]domain.ProgressRecord)}
}

func (s *ProgressStore) Load(_ context.Context, lessonID string) (domain.ProgressRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.records[lessonID]
	return rec, ok
}

func (s *ProgressStore) Save(_ context.Context, lessonID string, lastIndex, savedScore int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[lessonID] = domain.ProgressRecord{LastIndex: lastIndex, SavedScore: savedScore}
}

func (s *ProgressStore) Clear(_ context.Context, lessonID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.records, lessonID)
}
