package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/salman854raza/test-sanity-e-commerce/internal/catalog"
	"github.com/salman854raza/test-sanity-e-commerce/internal/checkout"
	"github.com/salman854raza/test-sanity-e-commerce/internal/domain"
)

type CheckoutHandler struct {
	service *checkout.Service
	timeout time.Duration
}

func NewCheckoutHandler(service *checkout.Service, timeout time.Duration) *CheckoutHandler {
	return &CheckoutHandler{
		service: service,
		timeout: timeout,
	}
}

type CheckoutItemDTO struct {
	ProductID string `json:"product_id"`
	Variant   string `json:"variant,omitempty"`
	Quantity  int    `json:"quantity"`
}

type CheckoutRequestDTO struct {
	FullName string            `json:"full_name"`
	Email    string            `json:"email"`
	Phone    string            `json:"phone"`
	Address  string            `json:"address"`
	Items    []CheckoutItemDTO `json:"items"`
}

type CheckoutResponseDTO struct {
	Status     string   `json:"status"`
	OrderID    string   `json:"order_id,omitempty"`
	ProductID  string   `json:"product_id,omitempty"`
	ProductIDs []string `json:"product_ids,omitempty"`
}

// POST /api/v1/checkout
func (h *CheckoutHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	userID := getUserIDFromContext(r.Context())
	if userID == "" {
		respondError(w, http.StatusUnauthorized, "unauthorized", "missing user authentication")
		return
	}

	var req CheckoutRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if req.FullName == "" || req.Email == "" || req.Address == "" {
		respondError(w, http.StatusBadRequest, "invalid_request", "full_name, email and address are required")
		return
	}
	if len(req.Items) == 0 {
		respondError(w, http.StatusBadRequest, "empty_cart", "no items to check out")
		return
	}

	items := make([]checkout.CheckoutItem, 0, len(req.Items))
	for _, item := range req.Items {
		if item.ProductID == "" || item.Quantity < 1 {
			respondError(w, http.StatusBadRequest, "invalid_request", "every item needs a product_id and a quantity of at least 1")
			return
		}
		items = append(items, checkout.CheckoutItem{
			ProductID: item.ProductID,
			Variant:   item.Variant,
			Quantity:  item.Quantity,
		})
	}

	result, err := h.service.Checkout(ctx, &checkout.CheckoutRequest{
		UserID: userID,
		Buyer: domain.Buyer{
			FullName: req.FullName,
			Email:    req.Email,
			Phone:    req.Phone,
			Address:  req.Address,
		},
		Items: items,
	})
	if err != nil {
		handleCheckoutError(w, err)
		return
	}

	respondCheckoutResult(w, result)
}

func respondCheckoutResult(w http.ResponseWriter, result *checkout.CheckoutResult) {
	dto := CheckoutResponseDTO{
		Status:     string(result.Status),
		OrderID:    result.OrderID,
		ProductID:  result.ProductID,
		ProductIDs: result.ProductIDs,
	}

	switch result.Status {
	case checkout.StatusSuccess:
		respondJSON(w, http.StatusCreated, dto)
	case checkout.StatusInsufficientStock, checkout.StatusConcurrentConflict:
		respondJSON(w, http.StatusConflict, dto)
	case checkout.StatusOrderPersistenceFailed:
		respondJSON(w, http.StatusBadGateway, dto)
	case checkout.StatusCompensationFailed:
		respondJSON(w, http.StatusInternalServerError, dto)
	default:
		respondJSON(w, http.StatusInternalServerError, dto)
	}
}

func handleCheckoutError(w http.ResponseWriter, err error) {
	var notFound *checkout.ProductNotFoundError
	switch {
	case errors.Is(err, checkout.ErrEmptyCart):
		respondError(w, http.StatusBadRequest, "empty_cart", "no items to check out")
	case errors.As(err, &notFound):
		respondError(w, http.StatusNotFound, "not_found", "product not found")
	case errors.Is(err, catalog.ErrProductNotFound):
		respondError(w, http.StatusNotFound, "not_found", "product not found")
	case errors.Is(err, context.Canceled):
		// Client went away before anything committed; nobody reads this.
		respondError(w, http.StatusBadRequest, "cancelled", "request cancelled")
	default:
		respondError(w, http.StatusInternalServerError, "internal_error", "checkout failed")
	}
}
