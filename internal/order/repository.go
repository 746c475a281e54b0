package order

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/salman854raza/test-sanity-e-commerce/internal/domain"
)

var ErrOrderNotFound = errors.New("order not found")

// OrderRepository persists finalized orders. RecordOrder is idempotent on
// the order's attempt id: recording the same attempt twice returns the
// first order's id instead of creating a second order.
type OrderRepository interface {
	RecordOrder(ctx context.Context, order *domain.Order) (uuid.UUID, error)
	GetOrderByID(ctx context.Context, id uuid.UUID) (*domain.Order, error)
	ListOrdersByUser(ctx context.Context, userID string) ([]domain.Order, error)
	Close() error
}
