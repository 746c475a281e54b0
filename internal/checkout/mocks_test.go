package checkout

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/salman854raza/test-sanity-e-commerce/internal/docstore"
	"github.com/salman854raza/test-sanity-e-commerce/internal/domain"
)

// conflictingStore wraps a real store and injects revision conflicts on
// selected products. allowWrites lets the first N writes for a product
// through before the conflicts kick in.
type conflictingStore struct {
	inner StockStore

	mu          sync.Mutex
	allowWrites map[string]int
	conflicts   map[string]int
}

func (s *conflictingStore) Get(ctx context.Context, key string) (docstore.Document, docstore.Revision, error) {
	return s.inner.Get(ctx, key)
}

func (s *conflictingStore) ConditionalSet(ctx context.Context, key string, fields docstore.Document, expected docstore.Revision) (docstore.Revision, error) {
	s.mu.Lock()
	if s.allowWrites[key] > 0 {
		s.allowWrites[key]--
		s.mu.Unlock()
		return s.inner.ConditionalSet(ctx, key, fields, expected)
	}
	if s.conflicts[key] > 0 {
		s.conflicts[key]--
		s.mu.Unlock()
		return "", docstore.ErrRevisionConflict
	}
	s.mu.Unlock()
	return s.inner.ConditionalSet(ctx, key, fields, expected)
}

type mockCatalog struct {
	products map[string]*domain.Product
}

func (m *mockCatalog) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	if product, ok := m.products[id]; ok {
		return product, nil
	}
	return nil, &ProductNotFoundError{ProductID: id}
}

type mockOrderRecorder struct {
	mu       sync.Mutex
	recorded []*domain.Order
	orderID  uuid.UUID
	err      error
}

func (m *mockOrderRecorder) RecordOrder(ctx context.Context, order *domain.Order) (uuid.UUID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return uuid.Nil, m.err
	}
	m.recorded = append(m.recorded, order)
	return m.orderID, nil
}

type mockCartCleaner struct {
	mu      sync.Mutex
	cleared []string
	err     error
}

func (m *mockCartCleaner) ClearCart(ctx context.Context, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.cleared = append(m.cleared, userID)
	return nil
}

type mockEventPublisher struct {
	mu        sync.Mutex
	confirmed []*domain.Order
	stuck     [][]string
}

func (m *mockEventPublisher) OrderConfirmed(ctx context.Context, order *domain.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.confirmed = append(m.confirmed, order)
	return nil
}

func (m *mockEventPublisher) ReservationStuck(ctx context.Context, attemptID string, productIDs []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stuck = append(m.stuck, productIDs)
	return nil
}
