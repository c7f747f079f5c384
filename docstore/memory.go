package docstore

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// MemoryStore is an in-memory Store. Scan returns documents in insertion
// order; Query returns index order (newest first unless Ascending).
type MemoryStore struct {
	mu     sync.RWMutex
	table  string
	exists bool
	docs   map[string]Document
	order  []string
}

// MemoryOption configures a MemoryStore.
type MemoryOption func(*MemoryStore)

// WithoutTable starts the store with its table absent, so every call fails
// with ErrTableNotFound until CreateTable is called.
func WithoutTable() MemoryOption {
	return func(s *MemoryStore) { s.exists = false }
}

// NewMemoryStore returns an empty store for the named table.
func NewMemoryStore(table string, opts ...MemoryOption) *MemoryStore {
	s := &MemoryStore{
		table:  table,
		exists: true,
		docs:   make(map[string]Document),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

var _ Store = (*MemoryStore)(nil)

// CreateTable makes the table available.
func (s *MemoryStore) CreateTable() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.exists = true
}

// DropTable removes the table and all documents.
func (s *MemoryStore) DropTable() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.exists = false
	s.docs = make(map[string]Document)
	s.order = nil
}

// Len returns the number of stored documents.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.docs)
}

func (s *MemoryStore) check(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !s.exists {
		return fmt.Errorf("%w: %s", ErrTableNotFound, s.table)
	}
	return nil
}

// Get implements Store.
func (s *MemoryStore) Get(ctx context.Context, id string) (Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.check(ctx); err != nil {
		return nil, err
	}
	doc, ok := s.docs[id]
	if !ok {
		return nil, ErrNotFound
	}
	return doc.Clone(), nil
}

// Put implements Store.
func (s *MemoryStore) Put(ctx context.Context, doc Document, cond PutCondition) error {
	id := doc.ID()
	if id == "" {
		return fmt.Errorf("%w: missing %s", ErrInvalidInput, AttrID)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check(ctx); err != nil {
		return err
	}
	_, exists := s.docs[id]
	if exists && cond == PutIfNotExists {
		return fmt.Errorf("%w: %s already exists", ErrConditionFailed, id)
	}
	if !exists {
		s.order = append(s.order, id)
	}
	s.docs[id] = doc.Clone()
	return nil
}

// Update implements Store.
func (s *MemoryStore) Update(ctx context.Context, id string, u Update) (Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check(ctx); err != nil {
		return nil, err
	}
	cur, ok := s.docs[id]
	if !ok {
		return nil, ErrNotFound
	}
	next, err := u.Apply(cur)
	if err != nil {
		return nil, err
	}
	s.docs[id] = next
	return next.Clone(), nil
}

// Delete implements Store.
func (s *MemoryStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check(ctx); err != nil {
		return err
	}
	if _, ok := s.docs[id]; !ok {
		return ErrNotFound
	}
	delete(s.docs, id)
	for i, v := range s.order {
		if v == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return nil
}

// Query implements Store.
func (s *MemoryStore) Query(ctx context.Context, in QueryInput) ([]Document, error) {
	attr, ok := IndexAttrs[in.Index]
	if !ok {
		return nil, fmt.Errorf("%w: unknown index %q", ErrInvalidInput, in.Index)
	}
	if err := in.Filter.Validate(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.check(ctx); err != nil {
		return nil, err
	}

	var out []Document
	for _, id := range s.order {
		doc := s.docs[id]
		if key, _ := doc[attr].(string); key != in.Key {
			continue
		}
		if !in.Filter.Match(doc) {
			continue
		}
		out = append(out, doc.Clone())
	}
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i].CreatedAt(), out[j].CreatedAt()
		if in.Ascending {
			return a.Before(b)
		}
		return a.After(b)
	})
	if in.Limit > 0 && len(out) > in.Limit {
		out = out[:in.Limit]
	}
	return out, nil
}

// Scan implements Store.
func (s *MemoryStore) Scan(ctx context.Context, in ScanInput) ([]Document, error) {
	if err := in.Filter.Validate(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.check(ctx); err != nil {
		return nil, err
	}

	var out []Document
	for _, id := range s.order {
		doc := s.docs[id]
		if !in.Filter.Match(doc) {
			continue
		}
		out = append(out, doc.Clone())
		if in.Limit > 0 && len(out) == in.Limit {
			break
		}
	}
	return out, nil
}

// Ping implements Store.
func (s *MemoryStore) Ping(ctx context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.check(ctx)
}
