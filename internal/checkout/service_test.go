package checkout

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/salman854raza/test-sanity-e-commerce/internal/docstore"
	"github.com/salman854raza/test-sanity-e-commerce/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type serviceFixture struct {
	store   *docstore.MemoryStore
	catalog *mockCatalog
	orders  *mockOrderRecorder
	carts   *mockCartCleaner
	events  *mockEventPublisher
	sut     *Service
}

func newServiceFixture(t *testing.T) *serviceFixture {
	t.Helper()
	f := &serviceFixture{
		store:   docstore.NewMemoryStore(),
		catalog: &mockCatalog{products: map[string]*domain.Product{}},
		orders:  &mockOrderRecorder{orderID: uuid.New()},
		carts:   &mockCartCleaner{},
		events:  &mockEventPublisher{},
	}
	f.useStocks(f.store)
	return f
}

// useStocks rebuilds the service on a different stock store, keeping the
// rest of the fixture. Used by tests that wrap the store to inject faults.
func (f *serviceFixture) useStocks(stocks StockStore) {
	coordinator := NewCoordinator(stocks)
	coordinator.retryBackoff = time.Millisecond
	f.sut = NewService(coordinator, f.catalog, f.orders, f.carts, f.events)
}

func (f *serviceFixture) addProduct(t *testing.T, id string, price int64, stock int64) {
	t.Helper()
	f.catalog.products[id] = &domain.Product{ID: id, Name: id, Price: decimal.NewFromInt(price), Stock: stock}
	seedStock(t, f.store, id, stock)
}

func checkoutRequest(items ...CheckoutItem) *CheckoutRequest {
	return &CheckoutRequest{
		UserID: "u1",
		Buyer:  domain.Buyer{FullName: "Ada Lovelace", Email: "ada@example.com"},
		Items:  items,
	}
}

func TestCheckout_Success(t *testing.T) {
	f := newServiceFixture(t)
	f.addProduct(t, "p1", 99, 10)
	f.addProduct(t, "p2", 150, 5)

	result, err := f.sut.Checkout(context.Background(), checkoutRequest(
		CheckoutItem{ProductID: "p1", Quantity: 2},
		CheckoutItem{ProductID: "p2", Variant: "blue", Quantity: 1},
	))

	require.NoError(t, err)
	assert.Equal(t, StatusSuccess, result.Status)
	assert.Equal(t, f.orders.orderID.String(), result.OrderID)

	assert.Equal(t, int64(8), stockOf(t, f.store, "p1"))
	assert.Equal(t, int64(4), stockOf(t, f.store, "p2"))

	require.Len(t, f.orders.recorded, 1)
	recorded := f.orders.recorded[0]
	assert.Equal(t, "u1", recorded.UserID)
	assert.Equal(t, "Ada Lovelace", recorded.Buyer.FullName)
	assert.True(t, recorded.TotalAmount.Equal(decimal.NewFromInt(2*99+150)), "got %s", recorded.TotalAmount)
	require.Len(t, recorded.Items, 2)
	assert.Equal(t, "blue", recorded.Items[1].Variant)

	assert.Equal(t, []string{"u1"}, f.carts.cleared)
	require.Len(t, f.events.confirmed, 1)
}

func TestCheckout_EmptyItems(t *testing.T) {
	f := newServiceFixture(t)

	_, err := f.sut.Checkout(context.Background(), checkoutRequest())

	assert.ErrorIs(t, err, ErrEmptyCart)
}

func TestCheckout_InvalidQuantity(t *testing.T) {
	f := newServiceFixture(t)
	f.addProduct(t, "p1", 99, 10)

	_, err := f.sut.Checkout(context.Background(), checkoutRequest(CheckoutItem{ProductID: "p1", Quantity: 0}))

	require.Error(t, err)
	assert.Equal(t, int64(10), stockOf(t, f.store, "p1"))
}

func TestCheckout_UnknownProduct(t *testing.T) {
	f := newServiceFixture(t)
	f.addProduct(t, "p1", 99, 10)

	_, err := f.sut.Checkout(context.Background(), checkoutRequest(
		CheckoutItem{ProductID: "p1", Quantity: 1},
		CheckoutItem{ProductID: "ghost", Quantity: 1},
	))

	var notFound *ProductNotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, "ghost", notFound.ProductID)
	assert.Equal(t, int64(10), stockOf(t, f.store, "p1"), "snapshot fails before any stock write")
	assert.Empty(t, f.orders.recorded)
}

func TestCheckout_PricesComeFromCatalogNotClient(t *testing.T) {
	f := newServiceFixture(t)
	f.addProduct(t, "p1", 250, 10)

	result, err := f.sut.Checkout(context.Background(), checkoutRequest(CheckoutItem{ProductID: "p1", Quantity: 3}))

	require.NoError(t, err)
	assert.Equal(t, StatusSuccess, result.Status)
	require.Len(t, f.orders.recorded, 1)
	assert.True(t, f.orders.recorded[0].TotalAmount.Equal(decimal.NewFromInt(750)))
}

func TestCheckout_InsufficientStock(t *testing.T) {
	f := newServiceFixture(t)
	f.addProduct(t, "p1", 99, 2)

	result, err := f.sut.Checkout(context.Background(), checkoutRequest(CheckoutItem{ProductID: "p1", Quantity: 3}))

	require.NoError(t, err)
	assert.Equal(t, StatusInsufficientStock, result.Status)
	assert.Equal(t, "p1", result.ProductID)
	assert.Equal(t, int64(2), stockOf(t, f.store, "p1"))
	assert.Empty(t, f.orders.recorded)
	assert.Empty(t, f.carts.cleared)
	assert.Empty(t, f.events.confirmed)
}

func TestCheckout_ConflictExhaustion(t *testing.T) {
	f := newServiceFixture(t)
	f.addProduct(t, "p1", 99, 10)
	f.useStocks(&conflictingStore{inner: f.store, conflicts: map[string]int{"p1": 100}})

	result, err := f.sut.Checkout(context.Background(), checkoutRequest(CheckoutItem{ProductID: "p1", Quantity: 1}))

	require.NoError(t, err)
	assert.Equal(t, StatusConcurrentConflict, result.Status)
	assert.Equal(t, "p1", result.ProductID)
	assert.Equal(t, int64(10), stockOf(t, f.store, "p1"))
	assert.Empty(t, f.orders.recorded)
}

// Scenario: stock is reserved, then the order store is down. Every decrement
// must be reversed and the caller told to retry.
func TestCheckout_RecorderFailure_RestoresStock(t *testing.T) {
	f := newServiceFixture(t)
	f.addProduct(t, "p1", 99, 10)
	f.addProduct(t, "p2", 150, 5)
	f.orders.err = errors.New("connection refused")

	result, err := f.sut.Checkout(context.Background(), checkoutRequest(
		CheckoutItem{ProductID: "p1", Quantity: 2},
		CheckoutItem{ProductID: "p2", Quantity: 1},
	))

	require.NoError(t, err)
	assert.Equal(t, StatusOrderPersistenceFailed, result.Status)
	assert.Equal(t, int64(10), stockOf(t, f.store, "p1"))
	assert.Equal(t, int64(5), stockOf(t, f.store, "p2"))
	assert.Empty(t, f.carts.cleared)
	assert.Empty(t, f.events.confirmed)
}

// Worst case: the order store is down and the compensating increments cannot
// be written either. The result names the stuck products and the
// reconciliation alert goes out.
func TestCheckout_StuckCompensation_RaisesAlert(t *testing.T) {
	f := newServiceFixture(t)
	f.addProduct(t, "p1", 99, 10)
	f.orders.err = errors.New("connection refused")

	// p1's decrement goes through; the compensating increment never does.
	f.useStocks(&conflictingStore{inner: f.store, allowWrites: map[string]int{"p1": 1}, conflicts: map[string]int{"p1": 1000}})

	result, err := f.sut.Checkout(context.Background(), checkoutRequest(CheckoutItem{ProductID: "p1", Quantity: 2}))

	require.NoError(t, err)
	assert.Equal(t, StatusCompensationFailed, result.Status)
	assert.Equal(t, []string{"p1"}, result.ProductIDs)
	require.Len(t, f.events.stuck, 1)
	assert.Equal(t, []string{"p1"}, f.events.stuck[0])
}

func TestCheckout_NoUserID_SkipsCartClear(t *testing.T) {
	f := newServiceFixture(t)
	f.addProduct(t, "p1", 99, 10)

	result, err := f.sut.Checkout(context.Background(), &CheckoutRequest{
		Buyer: domain.Buyer{FullName: "Guest"},
		Items: []CheckoutItem{{ProductID: "p1", Quantity: 1}},
	})

	require.NoError(t, err)
	assert.Equal(t, StatusSuccess, result.Status)
	assert.Empty(t, f.carts.cleared)
}

func TestCheckout_CartClearFailure_DoesNotFailCheckout(t *testing.T) {
	f := newServiceFixture(t)
	f.addProduct(t, "p1", 99, 10)
	f.carts.err = errors.New("redis down")

	result, err := f.sut.Checkout(context.Background(), checkoutRequest(CheckoutItem{ProductID: "p1", Quantity: 1}))

	require.NoError(t, err)
	assert.Equal(t, StatusSuccess, result.Status)
	assert.Equal(t, int64(9), stockOf(t, f.store, "p1"))
	require.Len(t, f.orders.recorded, 1)
}
