package checkout

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/google/uuid"
	"github.com/salman854raza/test-sanity-e-commerce/internal/domain"
	"github.com/shopspring/decimal"
)

// CheckoutStatus is the typed outcome of one checkout call. The core never
// formats user-facing text; mapping these to messages is the HTTP layer's
// problem.
type CheckoutStatus string

const (
	StatusSuccess                CheckoutStatus = "SUCCESS"
	StatusInsufficientStock      CheckoutStatus = "INSUFFICIENT_STOCK"
	StatusConcurrentConflict     CheckoutStatus = "CONCURRENT_UPDATE_CONFLICT"
	StatusOrderPersistenceFailed CheckoutStatus = "ORDER_PERSISTENCE_FAILED"
	StatusCompensationFailed     CheckoutStatus = "COMPENSATION_FAILED"
)

type CheckoutItem struct {
	ProductID string
	Variant   string
	Quantity  int
}

type CheckoutRequest struct {
	UserID string
	Buyer  domain.Buyer
	Items  []CheckoutItem
}

type CheckoutResult struct {
	Status     CheckoutStatus
	OrderID    string
	ProductID  string   // product that failed, for stock and conflict outcomes
	ProductIDs []string // products left inconsistent, for compensation failures
}

// Catalog resolves products so prices and names are captured server-side at
// checkout time, never trusted from the client.
type Catalog interface {
	GetProduct(ctx context.Context, id string) (*domain.Product, error)
}

// OrderRecorder persists the finalized order. It must de-duplicate on
// order.AttemptID so a retried call cannot create a second order.
type OrderRecorder interface {
	RecordOrder(ctx context.Context, order *domain.Order) (uuid.UUID, error)
}

// CartCleaner clears the buyer's stored cart after a completed checkout.
type CartCleaner interface {
	ClearCart(ctx context.Context, userID string) error
}

// EventPublisher emits the order-confirmed event and the reconciliation
// alert for stuck compensations. Both are best-effort from the service's
// point of view.
type EventPublisher interface {
	OrderConfirmed(ctx context.Context, order *domain.Order) error
	ReservationStuck(ctx context.Context, attemptID string, productIDs []string) error
}

// Service is the checkout entry point: snapshot the requested items with
// server-side prices, reserve stock through the coordinator, record the
// order once, and clear the cart.
type Service struct {
	coordinator *Coordinator
	catalog     Catalog
	orders      OrderRecorder
	carts       CartCleaner
	events      EventPublisher
}

func NewService(coordinator *Coordinator, catalog Catalog, orders OrderRecorder, carts CartCleaner, events EventPublisher) *Service {
	return &Service{
		coordinator: coordinator,
		catalog:     catalog,
		orders:      orders,
		carts:       carts,
		events:      events,
	}
}

// Checkout runs one full checkout attempt. Typed business outcomes come back
// in the result; only infrastructure failures and caller cancellation before
// the first commit surface as errors.
func (s *Service) Checkout(ctx context.Context, request *CheckoutRequest) (*CheckoutResult, error) {
	if len(request.Items) == 0 {
		return nil, ErrEmptyCart
	}

	snapshot, err := s.buildSnapshot(ctx, request.Items)
	if err != nil {
		return nil, err
	}

	attempt := domain.NewCheckoutAttempt(uuid.New().String(), snapshot)

	if err := s.coordinator.Reserve(ctx, attempt); err != nil {
		return s.reserveFailure(ctx, attempt, err)
	}

	// Every decrement committed; the attempt now runs to completion even if
	// the caller goes away.
	ctx = context.WithoutCancel(ctx)

	order := buildOrder(attempt, request)
	orderID, recordErr := s.orders.RecordOrder(ctx, order)
	if recordErr != nil {
		log.Printf("order persistence failed for attempt %s: %v", attempt.ID, recordErr)
		if relErr := s.coordinator.Release(ctx, attempt); relErr != nil {
			return s.reserveFailure(ctx, attempt, relErr)
		}
		return &CheckoutResult{Status: StatusOrderPersistenceFailed}, nil
	}

	attempt.Outcome = domain.AttemptCommitted
	order.ID = orderID

	if err := s.events.OrderConfirmed(ctx, order); err != nil {
		log.Printf("failed to publish order confirmed event for order %s: %v", orderID, err)
	}

	if request.UserID != "" {
		if err := s.carts.ClearCart(ctx, request.UserID); err != nil {
			log.Printf("failed to clear cart for user %s: %v", request.UserID, err)
		}
	}

	return &CheckoutResult{Status: StatusSuccess, OrderID: orderID.String()}, nil
}

// buildSnapshot resolves every requested item against the catalog, capturing
// the price at checkout time. Snapshot order follows the request so the
// reservation replays deterministically.
func (s *Service) buildSnapshot(ctx context.Context, items []CheckoutItem) ([]domain.LineItem, error) {
	snapshot := make([]domain.LineItem, 0, len(items))
	for _, item := range items {
		if item.Quantity < 1 {
			return nil, fmt.Errorf("invalid quantity %d for product %s", item.Quantity, item.ProductID)
		}

		product, err := s.catalog.GetProduct(ctx, item.ProductID)
		if err != nil {
			return nil, err
		}

		snapshot = append(snapshot, domain.LineItem{
			ProductID: product.ID,
			Variant:   item.Variant,
			Name:      product.Name,
			UnitPrice: product.Price,
			Quantity:  item.Quantity,
		})
	}
	return snapshot, nil
}

func (s *Service) reserveFailure(ctx context.Context, attempt *domain.CheckoutAttempt, err error) (*CheckoutResult, error) {
	var insufficient *InsufficientStockError
	var conflict *ConflictError
	var compensation *CompensationError

	switch {
	case errors.As(err, &insufficient):
		return &CheckoutResult{Status: StatusInsufficientStock, ProductID: insufficient.ProductID}, nil
	case errors.As(err, &conflict):
		return &CheckoutResult{Status: StatusConcurrentConflict, ProductID: conflict.ProductID}, nil
	case errors.As(err, &compensation):
		log.Printf("RECONCILIATION REQUIRED attempt %s products %v", compensation.AttemptID, compensation.ProductIDs)
		if pubErr := s.events.ReservationStuck(context.WithoutCancel(ctx), compensation.AttemptID, compensation.ProductIDs); pubErr != nil {
			log.Printf("failed to publish reconciliation alert for attempt %s: %v", compensation.AttemptID, pubErr)
		}
		return &CheckoutResult{Status: StatusCompensationFailed, ProductIDs: compensation.ProductIDs}, nil
	default:
		return nil, err
	}
}

func buildOrder(attempt *domain.CheckoutAttempt, request *CheckoutRequest) *domain.Order {
	items := make([]domain.OrderItem, 0, len(attempt.Items))
	total := decimal.Zero
	for _, line := range attempt.Items {
		items = append(items, domain.OrderItem{
			ProductID: line.ProductID,
			Variant:   line.Variant,
			Name:      line.Name,
			UnitPrice: line.UnitPrice,
			Quantity:  line.Quantity,
		})
		total = total.Add(line.Subtotal())
	}

	return &domain.Order{
		AttemptID:   uuid.MustParse(attempt.ID),
		UserID:      request.UserID,
		Buyer:       request.Buyer,
		TotalAmount: total,
		Status:      domain.OrderStatusConfirmed,
		Items:       items,
	}
}
