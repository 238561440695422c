package store

import (
	"cmp"
	"context"
	"slices"
	"sync"

	"github.com/matzehuels/pixelshare/pkg/drawing"
)

// MemoryStore keeps records in process memory.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]Record
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string]Record)}
}

func (s *MemoryStore) Create(ctx context.Context, ownerID string, doc *drawing.Document) (*Record, error) {
	compact, err := encode(doc)
	if err != nil {
		return nil, err
	}
	t := now()
	rec := Record{ID: NewID(), OwnerID: ownerID, Drawing: compact, CreatedAt: t, UpdatedAt: t}

	s.mu.Lock()
	s.records[rec.ID] = rec
	s.mu.Unlock()
	return &rec, nil
}

func (s *MemoryStore) Get(ctx context.Context, id string) (*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.records[id]
	if !ok {
		return nil, notFound(id)
	}
	return &rec, nil
}

func (s *MemoryStore) List(ctx context.Context, ownerID string) ([]*Record, error) {
	s.mu.RLock()
	out := make([]*Record, 0)
	for _, rec := range s.records {
		if rec.OwnerID == ownerID {
			out = append(out, &rec)
		}
	}
	s.mu.RUnlock()

	slices.SortFunc(out, func(a, b *Record) int {
		if c := b.UpdatedAt.Compare(a.UpdatedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	return out, nil
}

func (s *MemoryStore) Update(ctx context.Context, id string, doc *drawing.Document) (*Record, error) {
	compact, err := encode(doc)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[id]
	if !ok {
		return nil, notFound(id)
	}
	rec.Drawing = compact
	rec.UpdatedAt = now()
	s.records[id] = rec
	return &rec, nil
}

func (s *MemoryStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.records[id]; !ok {
		return notFound(id)
	}
	delete(s.records, id)
	return nil
}

func (s *MemoryStore) Close() error { return nil }

var _ Store = (*MemoryStore)(nil)
