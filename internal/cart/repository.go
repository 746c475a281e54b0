package cart

import (
	"context"
	"errors"

	"github.com/salman854raza/test-sanity-e-commerce/internal/domain"
)

var ErrCartNotFound = errors.New("cart not found")

// CartRepository persists whole cart aggregates. The service owns the
// aggregate and saves it after every mutation; the repository never edits
// individual lines. Consumers define this interface, not the MongoDB
// implementation.
type CartRepository interface {
	GetCart(ctx context.Context, userID string) (*domain.Cart, error)
	UpsertCart(ctx context.Context, cart *domain.Cart) error
	DeleteCart(ctx context.Context, userID string) error
}
