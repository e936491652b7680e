package submission

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/symphonyguild/guildsite/internal/pkg/membership"
)

// ErrNotFound is returned by Store.Get for unknown submission ids.
var ErrNotFound = errors.New("submission not found")

// Store records accepted submissions.
type Store interface {
	Save(ctx context.Context, sub membership.Submission) error
	Get(ctx context.Context, id string) (membership.Submission, error)
}

// MemoryStore keeps submissions for the lifetime of the process.
type MemoryStore struct {
	mu   sync.RWMutex
	subs map[string]membership.Submission
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{subs: make(map[string]membership.Submission)}
}

func (s *MemoryStore) Save(_ context.Context, sub membership.Submission) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.subs[sub.ID]; exists {
		return fmt.Errorf("submission %s already stored", sub.ID)
	}
	s.subs[sub.ID] = sub
	return nil
}

func (s *MemoryStore) Get(_ context.Context, id string) (membership.Submission, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sub, ok := s.subs[id]
	if !ok {
		return membership.Submission{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return sub, nil
}

func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.subs)
}
