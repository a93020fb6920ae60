package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/upland-labs/storefront/internal/domain"
)

// ─── Shop Handlers ──────────────────────────────────────────────────────────
// Products, cart, wallet, checkout, orders. Each handler decodes, calls
// one operation, and maps the result; business rules live in the services.

// handleNewSession issues a fresh session id for a new browser.
// POST /api/session
func (s *Server) handleNewSession(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusCreated, map[string]string{
		"session_id": uuid.NewString(),
	})
}

// handleListProducts returns the catalog.
// GET /api/products
func (s *Server) handleListProducts(w http.ResponseWriter, r *http.Request) {
	products, err := s.store.ListProducts(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if products == nil {
		products = []domain.Product{}
	}
	writeJSON(w, http.StatusOK, products)
}

// handleGetProduct returns one product.
// GET /api/products/{id}
func (s *Server) handleGetProduct(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeDomainError(w, err)
		return
	}
	product, err := s.store.GetProduct(r.Context(), id)
	if err == domain.ErrNotFound {
		http.Error(w, "Product not found", http.StatusNotFound)
		return
	}
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, product)
}

// handleCreateProduct adds a catalog entry.
// POST /api/products
func (s *Server) handleCreateProduct(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Name        string          `json:"name"`
		Description string          `json:"description"`
		Price       decimal.Decimal `json:"price"`
		ImageURL    string          `json:"image_url"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		http.Error(w, "Invalid JSON body", http.StatusBadRequest)
		return
	}
	if input.Name == "" || input.Price.Sign() <= 0 {
		http.Error(w, "name and positive price required", http.StatusBadRequest)
		return
	}
	product := domain.Product{
		Name:        input.Name,
		Description: input.Description,
		Price:       input.Price,
		ImageURL:    input.ImageURL,
	}
	if err := s.store.InsertProduct(r.Context(), &product); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, product)
}

// handleGetCart returns the session's cart lines with product fields.
// GET /api/cart/{sessionID}
func (s *Server) handleGetCart(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	lines, err := s.store.ListCart(r.Context(), sessionID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if lines == nil {
		lines = []domain.CartLine{}
	}
	writeJSON(w, http.StatusOK, lines)
}

type cartInput struct {
	SessionID string `json:"sessionId"`
	ProductID int64  `json:"productId"`
	Quantity  int    `json:"quantity"`
}

// handleAddToCart adds quantity (default 1) to a cart line.
// POST /api/cart
func (s *Server) handleAddToCart(w http.ResponseWriter, r *http.Request) {
	var input cartInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		http.Error(w, "Invalid JSON body", http.StatusBadRequest)
		return
	}
	if input.SessionID == "" || input.ProductID == 0 {
		http.Error(w, "sessionId and productId required", http.StatusBadRequest)
		return
	}
	if input.Quantity == 0 {
		input.Quantity = 1
	}
	if input.Quantity < 0 {
		http.Error(w, "quantity must be positive", http.StatusBadRequest)
		return
	}
	// Adding an unknown product would orphan the cart line.
	if _, err := s.store.GetProduct(r.Context(), input.ProductID); err != nil {
		if err == domain.ErrNotFound {
			http.Error(w, "Product not found", http.StatusNotFound)
		} else {
			writeDomainError(w, err)
		}
		return
	}
	if err := s.store.AddCartItem(r.Context(), input.SessionID, input.ProductID, input.Quantity); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// handleUpdateCart replaces a line's quantity; zero or below removes it.
// PUT /api/cart
func (s *Server) handleUpdateCart(w http.ResponseWriter, r *http.Request) {
	var input cartInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		http.Error(w, "Invalid JSON body", http.StatusBadRequest)
		return
	}
	if input.SessionID == "" || input.ProductID == 0 {
		http.Error(w, "sessionId and productId required", http.StatusBadRequest)
		return
	}
	err := s.store.SetCartItemQuantity(r.Context(), input.SessionID, input.ProductID, input.Quantity)
	if err == domain.ErrNotFound {
		http.Error(w, "Item not found", http.StatusNotFound)
		return
	}
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// handleClearCart empties the session's cart.
// DELETE /api/cart/{sessionID}
func (s *Server) handleClearCart(w http.ResponseWriter, r *http.Request) {
	if err := s.store.ClearCart(r.Context(), chi.URLParam(r, "sessionID")); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// handleRemoveCartItem deletes a single line.
// DELETE /api/cart/{sessionID}/item/{productID}
func (s *Server) handleRemoveCartItem(w http.ResponseWriter, r *http.Request) {
	productID, err := pathID(r, "productID")
	if err != nil {
		writeDomainError(w, err)
		return
	}
	err = s.store.RemoveCartItem(r.Context(), chi.URLParam(r, "sessionID"), productID)
	if err == domain.ErrNotFound {
		http.Error(w, "Item not found", http.StatusNotFound)
		return
	}
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// handleGetWallet returns balance and history; a new session gets a zero
// wallet, never a 404.
// GET /api/wallet/{sessionID}
func (s *Server) handleGetWallet(w http.ResponseWriter, r *http.Request) {
	wallet, txs, err := s.ledger.Statement(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if txs == nil {
		txs = []domain.WalletTransaction{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"session_id":   wallet.SessionID,
		"balance":      wallet.Balance,
		"transactions": txs,
	})
}

// handleAddFunds deposits into the wallet.
// POST /api/wallet/add
func (s *Server) handleAddFunds(w http.ResponseWriter, r *http.Request) {
	var input struct {
		SessionID string          `json:"sessionId"`
		Amount    decimal.Decimal `json:"amount"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		http.Error(w, "Invalid JSON body", http.StatusBadRequest)
		return
	}
	if input.Amount.Sign() <= 0 {
		http.Error(w, "Invalid amount", http.StatusBadRequest)
		return
	}
	if _, err := s.ledger.AddFunds(r.Context(), input.SessionID, input.Amount); err != nil {
		writeDomainError(w, err)
		return
	}
	depositsTotal.Inc()
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Funds added to wallet",
	})
}

// handleCheckout settles the cart against the wallet. The optional
// Idempotency-Key header makes a retry return the original order.
// POST /api/checkout
func (s *Server) handleCheckout(w http.ResponseWriter, r *http.Request) {
	var input struct {
		SessionID string `json:"sessionId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		http.Error(w, "Invalid JSON body", http.StatusBadRequest)
		return
	}

	order, err := s.lifecycle.Checkout(r.Context(), input.SessionID, r.Header.Get("Idempotency-Key"))
	if err != nil {
		checkoutsTotal.WithLabelValues(checkoutResult(err)).Inc()
		writeDomainError(w, err)
		return
	}
	checkoutsTotal.WithLabelValues("ok").Inc()
	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"success": true,
		"orderId": order.ID,
		"total":   order.Total,
		"message": "Order placed successfully",
	})
}

// handleListOrders returns the session's orders, newest first.
// GET /api/orders/{sessionID}
func (s *Server) handleListOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := s.lifecycle.Orders(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if orders == nil {
		orders = []domain.Order{}
	}
	writeJSON(w, http.StatusOK, orders)
}

// handleCancelOrder cancels a placed order and refunds the wallet.
// POST /api/orders/{orderID}/cancel
func (s *Server) handleCancelOrder(w http.ResponseWriter, r *http.Request) {
	s.handleOrderTransition(w, r, s.lifecycle.Cancel, "Order cancelled and refunded to wallet")
}

// handleDeliverOrder marks a placed order delivered.
// POST /api/orders/{orderID}/deliver
func (s *Server) handleDeliverOrder(w http.ResponseWriter, r *http.Request) {
	s.handleOrderTransition(w, r, s.lifecycle.Deliver, "Order marked as delivered")
}

// handleReturnOrder returns an order and refunds the wallet.
// POST /api/orders/{orderID}/return
func (s *Server) handleReturnOrder(w http.ResponseWriter, r *http.Request) {
	s.handleOrderTransition(w, r, s.lifecycle.Return, "Order returned and refunded to wallet")
}

func (s *Server) handleOrderTransition(w http.ResponseWriter, r *http.Request, op func(ctx context.Context, id int64) (domain.Order, error), message string) {
	orderID, err := pathID(r, "orderID")
	if err != nil {
		writeDomainError(w, err)
		return
	}
	order, err := op(r.Context(), orderID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	orderTransitions.WithLabelValues(string(order.Status)).Inc()
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"status":  order.Status,
		"message": message,
	})
}

// pathID parses a numeric chi URL parameter.
func pathID(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: %s must be a positive integer", domain.ErrValidation, name)
	}
	return id, nil
}
