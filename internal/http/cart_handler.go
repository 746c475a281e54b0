package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/salman854raza/test-sanity-e-commerce/internal/catalog"
	"github.com/salman854raza/test-sanity-e-commerce/internal/cart"
	"github.com/salman854raza/test-sanity-e-commerce/internal/domain"
)

type CartHandler struct {
	carts   *cart.Service
	catalog *catalog.Service
	timeout time.Duration
}

func NewCartHandler(carts *cart.Service, catalog *catalog.Service, timeout time.Duration) *CartHandler {
	return &CartHandler{
		carts:   carts,
		catalog: catalog,
		timeout: timeout,
	}
}

type AddItemRequestDTO struct {
	ProductID string `json:"product_id"`
	Variant   string `json:"variant,omitempty"`
}

type VariantRequestDTO struct {
	Variant string `json:"variant,omitempty"`
}

type CartResponseDTO struct {
	UserID string            `json:"user_id"`
	Items  []domain.LineItem `json:"items"`
	Total  string            `json:"total"`
}

func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	userID := getUserIDFromContext(r.Context())
	if userID == "" {
		respondError(w, http.StatusUnauthorized, "unauthorized", "missing user authentication")
		return
	}

	c, err := h.carts.GetCart(ctx, userID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to load cart")
		return
	}

	respondJSON(w, http.StatusOK, toCartDTO(c))
}

func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	userID := getUserIDFromContext(r.Context())
	if userID == "" {
		respondError(w, http.StatusUnauthorized, "unauthorized", "missing user authentication")
		return
	}

	var req AddItemRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if req.ProductID == "" {
		respondError(w, http.StatusBadRequest, "invalid_product_id", "product_id is required")
		return
	}

	// The catalog provides the price and name; stock is deliberately not
	// checked here, so adding to the cart never fails on a stock race.
	// The authoritative check happens at checkout.
	product, err := h.catalog.GetProduct(ctx, req.ProductID)
	if err != nil {
		if errors.Is(err, catalog.ErrProductNotFound) {
			respondError(w, http.StatusNotFound, "not_found", "product not found")
			return
		}
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to load product")
		return
	}

	c, err := h.carts.AddItem(ctx, userID, domain.LineItem{
		ProductID: product.ID,
		Variant:   req.Variant,
		Name:      product.Name,
		UnitPrice: product.Price,
	})
	if err != nil {
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to add item")
		return
	}

	respondJSON(w, http.StatusCreated, toCartDTO(c))
}

func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	h.mutateLine(w, r, h.carts.RemoveItem)
}

func (h *CartHandler) IncrementQuantity(w http.ResponseWriter, r *http.Request) {
	h.mutateLine(w, r, h.carts.IncrementQuantity)
}

func (h *CartHandler) DecrementQuantity(w http.ResponseWriter, r *http.Request) {
	h.mutateLine(w, r, h.carts.DecrementQuantity)
}

func (h *CartHandler) ClearCart(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	userID := getUserIDFromContext(r.Context())
	if userID == "" {
		respondError(w, http.StatusUnauthorized, "unauthorized", "missing user authentication")
		return
	}

	if err := h.carts.ClearCart(ctx, userID); err != nil {
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to clear cart")
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"status": "cleared"})
}

type lineMutation func(ctx context.Context, userID, productID, variant string) (*domain.Cart, error)

func (h *CartHandler) mutateLine(w http.ResponseWriter, r *http.Request, mutate lineMutation) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	userID := getUserIDFromContext(r.Context())
	if userID == "" {
		respondError(w, http.StatusUnauthorized, "unauthorized", "missing user authentication")
		return
	}

	productID := chi.URLParam(r, "product_id")
	if productID == "" {
		respondError(w, http.StatusBadRequest, "invalid_product_id", "product_id is required")
		return
	}
	// The variant travels with every line mutation so size M and size L of
	// the same product never get mixed up.
	variant := r.URL.Query().Get("variant")

	c, err := mutate(ctx, userID, productID, variant)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to update cart")
		return
	}

	respondJSON(w, http.StatusOK, toCartDTO(c))
}

func toCartDTO(c *domain.Cart) CartResponseDTO {
	items := c.Items
	if items == nil {
		items = make([]domain.LineItem, 0)
	}
	return CartResponseDTO{
		UserID: c.UserID,
		Items:  items,
		Total:  c.Total().String(),
	}
}
