package docstore

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// MemoryStore implements Store with in-memory storage. It backs tests and
// local development; the revision semantics match the Mongo adapter exactly.
type MemoryStore struct {
	mu   sync.RWMutex
	docs map[string]*memoryDoc
}

type memoryDoc struct {
	fields   Document
	revision Revision
}

// NewMemoryStore creates an empty in-memory document store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		docs: make(map[string]*memoryDoc),
	}
}

func (s *MemoryStore) Get(_ context.Context, key string) (Document, Revision, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	doc, exists := s.docs[key]
	if !exists {
		return nil, "", ErrNotFound
	}
	return cloneFields(doc.fields), doc.revision, nil
}

func (s *MemoryStore) ConditionalSet(_ context.Context, key string, fields Document, expected Revision) (Revision, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, exists := s.docs[key]
	if !exists {
		return "", ErrNotFound
	}
	if doc.revision != expected {
		return "", ErrRevisionConflict
	}

	for k, v := range fields {
		doc.fields[k] = v
	}
	doc.revision = newRevision()
	return doc.revision, nil
}

func (s *MemoryStore) Put(_ context.Context, key string, fields Document) (Revision, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rev := newRevision()
	s.docs[key] = &memoryDoc{
		fields:   cloneFields(fields),
		revision: rev,
	}
	return rev, nil
}

func (s *MemoryStore) List(_ context.Context) (map[string]Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make(map[string]Document, len(s.docs))
	for key, doc := range s.docs {
		result[key] = cloneFields(doc.fields)
	}
	return result, nil
}

func newRevision() Revision {
	return Revision(uuid.New().String())
}

func cloneFields(fields Document) Document {
	clone := make(Document, len(fields))
	for k, v := range fields {
		clone[k] = v
	}
	return clone
}
