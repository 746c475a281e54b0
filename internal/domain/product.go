package domain

import "github.com/shopspring/decimal"

// Product is a catalog document. Stock lives on the same document and is
// only ever changed through the document store's conditional write, so the
// struct itself carries no revision; the store hands that out separately.
type Product struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Price       decimal.Decimal `json:"price"`
	ImageURL    string          `json:"image_url,omitempty"`
	Stock       int64           `json:"stock"`
}
