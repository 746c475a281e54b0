package catalog

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/salman854raza/test-sanity-e-commerce/internal/docstore"
	"github.com/salman854raza/test-sanity-e-commerce/internal/domain"
	"github.com/shopspring/decimal"
)

var ErrProductNotFound = errors.New("product not found")

// Service reads product documents out of the document store. Prices are
// kept as strings in the documents so no float rounding ever reaches the
// money math.
type Service struct {
	store docstore.Store
}

func NewService(store docstore.Store) *Service {
	return &Service{store: store}
}

func (s *Service) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	doc, _, err := s.store.Get(ctx, id)
	if err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to get product %s: %w", id, err)
	}

	product, err := productFromDocument(id, doc)
	if err != nil {
		return nil, err
	}
	return product, nil
}

func (s *Service) ListProducts(ctx context.Context) ([]domain.Product, error) {
	docs, err := s.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}

	products := make([]domain.Product, 0, len(docs))
	for id, doc := range docs {
		product, convErr := productFromDocument(id, doc)
		if convErr != nil {
			return nil, convErr
		}
		products = append(products, *product)
	}

	sort.Slice(products, func(i, j int) bool {
		return products[i].ID < products[j].ID
	})
	return products, nil
}

// SetStock seeds or resets the stock level of a product document. This is
// an unconditional admin write, not part of the reservation path.
func (s *Service) SetStock(ctx context.Context, id string, quantity int64) error {
	doc, _, err := s.store.Get(ctx, id)
	if err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			return ErrProductNotFound
		}
		return fmt.Errorf("failed to check product %s: %w", id, err)
	}

	// Read-modify-write is fine here: admin writes are rare and last-write-wins
	// is the intended semantics for a manual stock reset.
	doc["stock"] = quantity
	if _, err := s.store.Put(ctx, id, doc); err != nil {
		return fmt.Errorf("failed to set stock for product %s: %w", id, err)
	}
	return nil
}

// SaveProduct creates or replaces a whole product document.
func (s *Service) SaveProduct(ctx context.Context, product *domain.Product) error {
	doc := docstore.Document{
		"name":        product.Name,
		"description": product.Description,
		"price":       product.Price.String(),
		"image_url":   product.ImageURL,
		"stock":       product.Stock,
	}
	if _, err := s.store.Put(ctx, product.ID, doc); err != nil {
		return fmt.Errorf("failed to save product %s: %w", product.ID, err)
	}
	return nil
}

func productFromDocument(id string, doc docstore.Document) (*domain.Product, error) {
	price, err := decimal.NewFromString(docstore.String(doc, "price"))
	if err != nil {
		return nil, fmt.Errorf("malformed price on product %s: %w", id, err)
	}

	stock, _ := docstore.Int64(doc, "stock")
	return &domain.Product{
		ID:          id,
		Name:        docstore.String(doc, "name"),
		Description: docstore.String(doc, "description"),
		Price:       price,
		ImageURL:    docstore.String(doc, "image_url"),
		Stock:       stock,
	}, nil
}
