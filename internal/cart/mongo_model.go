package cart

import (
	"fmt"
	"time"

	"github.com/salman854raza/test-sanity-e-commerce/internal/domain"
	"github.com/shopspring/decimal"
)

// cartModel is the MongoDB shape of a cart. Prices are stored as strings so
// the decimal survives the round trip.
type cartModel struct {
	ID        string          `bson:"_id,omitempty"`
	UserID    string          `bson:"user_id"`
	Items     []lineItemModel `bson:"items"`
	CreatedAt time.Time       `bson:"created_at"`
	UpdatedAt time.Time       `bson:"updated_at"`
}

type lineItemModel struct {
	ProductID string    `bson:"product_id"`
	Variant   string    `bson:"variant,omitempty"`
	Name      string    `bson:"name"`
	UnitPrice string    `bson:"unit_price"`
	Quantity  int       `bson:"quantity"`
	AddedAt   time.Time `bson:"added_at"`
}

func toModel(cart *domain.Cart) *cartModel {
	items := make([]lineItemModel, 0, len(cart.Items))
	for _, item := range cart.Items {
		items = append(items, lineItemModel{
			ProductID: item.ProductID,
			Variant:   item.Variant,
			Name:      item.Name,
			UnitPrice: item.UnitPrice.String(),
			Quantity:  item.Quantity,
			AddedAt:   item.AddedAt,
		})
	}
	return &cartModel{
		UserID:    cart.UserID,
		Items:     items,
		CreatedAt: cart.CreatedAt,
		UpdatedAt: cart.UpdatedAt,
	}
}

func toDomain(model *cartModel) (*domain.Cart, error) {
	items := make([]domain.LineItem, 0, len(model.Items))
	for _, item := range model.Items {
		price, err := decimal.NewFromString(item.UnitPrice)
		if err != nil {
			return nil, fmt.Errorf("malformed unit price %q in stored cart: %w", item.UnitPrice, err)
		}
		items = append(items, domain.LineItem{
			ProductID: item.ProductID,
			Variant:   item.Variant,
			Name:      item.Name,
			UnitPrice: price,
			Quantity:  item.Quantity,
			AddedAt:   item.AddedAt,
		})
	}
	return &domain.Cart{
		UserID:    model.UserID,
		Items:     items,
		CreatedAt: model.CreatedAt,
		UpdatedAt: model.UpdatedAt,
	}, nil
}
