package api

import (
	"net/http"

	"github.com/dd0wney/cluso-failover/pkg/validation"
)

const (
	selectCartItemSQL = "SELECT * FROM cart WHERE user_id = $1 AND product_id = $2"
	updateCartItemSQL = "UPDATE cart SET quantity = $1 WHERE user_id = $2 AND product_id = $3 RETURNING *"
	insertCartItemSQL = "INSERT INTO cart (user_id, product_id, quantity) VALUES ($1, $2, $3) RETURNING *"
	selectCartSQL     = "SELECT c.*, p.name, p.price FROM cart c JOIN products p ON c.product_id = p.id WHERE c.user_id = $1"
	deleteCartItemSQL = "DELETE FROM cart WHERE user_id = $1 AND product_id = $2"
)

// handleAddToCart sets the quantity of a product in the user's cart,
// inserting the line when it does not exist yet.
func (s *Server) handleAddToCart(w http.ResponseWriter, r *http.Request) {
	userID, err := pathUserID(r)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req validation.CartItemRequest
	if err := decodeJSON(r, &req); err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := validation.ValidateCartItemRequest(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	existing, err := s.backend.Read(r.Context(), selectCartItemSQL, userID, req.ProductID)
	if err != nil {
		s.respondBackendError(w, r, err, "Add to cart")
		return
	}

	sql, args := insertCartItemSQL, []any{userID, req.ProductID, req.Quantity}
	if existing.First() != nil {
		sql, args = updateCartItemSQL, []any{req.Quantity, userID, req.ProductID}
	}

	res, err := s.backend.Write(r.Context(), sql, args...)
	if err != nil {
		s.respondBackendError(w, r, err, "Add to cart")
		return
	}
	s.respondJSON(w, http.StatusOK, res.First())
}

func (s *Server) handleGetCart(w http.ResponseWriter, r *http.Request) {
	userID, err := pathUserID(r)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	res, err := s.backend.Read(r.Context(), selectCartSQL, userID)
	if err != nil {
		s.respondBackendError(w, r, err, "Get cart")
		return
	}
	s.respondJSON(w, http.StatusOK, rows(res))
}

func (s *Server) handleRemoveFromCart(w http.ResponseWriter, r *http.Request) {
	userID, err := pathUserID(r)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	productID, err := pathID(r, "productId")
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	if _, err := s.backend.Write(r.Context(), deleteCartItemSQL, userID, productID); err != nil {
		s.respondBackendError(w, r, err, "Remove from cart")
		return
	}
	s.respondJSON(w, http.StatusOK, MessageResponse{Message: "Item removed from cart"})
}
