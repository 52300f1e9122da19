package api

import (
	"context"
	"fmt"
	"math"
	"net/http"

	"github.com/dd0wney/cluso-failover/pkg/validation"
)

const (
	selectPriceSQL  = "SELECT price FROM products WHERE id = $1"
	selectOrdersSQL = "SELECT o.*, oi.product_id, oi.quantity, oi.price_at_time FROM orders o LEFT JOIN order_items oi ON o.id = oi.order_id WHERE o.user_id = $1"

	// placeOrderSQL inserts the order and all of its lines in one statement.
	// The lines reference the id generated by the store executing it, so a
	// replay on the secondary links them to the secondary's own order row.
	placeOrderSQL = "WITH o AS (INSERT INTO orders (user_id, total_price) VALUES ($1, $2) RETURNING id) " +
		"INSERT INTO order_items (order_id, product_id, quantity, price_at_time) " +
		"SELECT o.id, x.product_id, x.quantity, x.price FROM o, " +
		"unnest($3::bigint[], $4::int[], $5::numeric[]) AS x(product_id, quantity, price) " +
		"RETURNING order_id"
)

// pricedItem is an order line with the catalog price at placement time.
type pricedItem struct {
	validation.OrderItem
	unitPrice float64
}

// priceItems looks up the current price of every line.
func (s *Server) priceItems(ctx context.Context, items []validation.OrderItem) ([]pricedItem, float64, error) {
	priced := make([]pricedItem, 0, len(items))
	var total float64

	for _, item := range items {
		res, err := s.backend.Read(ctx, selectPriceSQL, item.ProductID)
		if err != nil {
			return nil, 0, err
		}
		row := res.First()
		if row == nil {
			return nil, 0, fmt.Errorf("product %d: %w", item.ProductID, ErrNotFound)
		}
		price, err := toFloat64(row["price"])
		if err != nil {
			return nil, 0, fmt.Errorf("product %d price: %w", item.ProductID, err)
		}
		priced = append(priced, pricedItem{OrderItem: item, unitPrice: price})
		total += price * float64(item.Quantity)
	}
	return priced, math.Round(total*100) / 100, nil
}

// orderLineArgs splits the lines into the column arrays placeOrderSQL
// unnests.
func orderLineArgs(items []pricedItem) (productIDs []int64, quantities []int32, prices []float64) {
	productIDs = make([]int64, len(items))
	quantities = make([]int32, len(items))
	prices = make([]float64, len(items))
	for i, item := range items {
		productIDs[i] = item.ProductID
		quantities[i] = int32(item.Quantity)
		prices[i] = item.unitPrice
	}
	return productIDs, quantities, prices
}

// handlePlaceOrder prices the items, then writes the order and its lines
// with a single statement so either all of it commits or none of it does.
func (s *Server) handlePlaceOrder(w http.ResponseWriter, r *http.Request) {
	var req validation.OrderRequest
	if err := decodeJSON(r, &req); err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := validation.ValidateOrderRequest(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	ctx := r.Context()
	items, total, err := s.priceItems(ctx, req.Products)
	if err != nil {
		if isNotFound(err) {
			s.respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		s.respondBackendError(w, r, err, "Place order")
		return
	}

	productIDs, quantities, prices := orderLineArgs(items)
	res, err := s.backend.Write(ctx, placeOrderSQL, req.UserID, total, productIDs, quantities, prices)
	if err != nil {
		s.respondBackendError(w, r, err, "Place order")
		return
	}
	row := res.First()
	if row == nil {
		s.respondBackendError(w, r, fmt.Errorf("place order returned no rows: %w", ErrUnexpectedValue), "Place order")
		return
	}
	orderID, err := toInt64(row["order_id"])
	if err != nil {
		s.respondBackendError(w, r, err, "Place order")
		return
	}

	s.respondJSON(w, http.StatusCreated, OrderResponse{OrderID: orderID, TotalPrice: total})
}

func (s *Server) handleGetOrders(w http.ResponseWriter, r *http.Request) {
	userID, err := pathUserID(r)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	res, err := s.backend.Read(r.Context(), selectOrdersSQL, userID)
	if err != nil {
		s.respondBackendError(w, r, err, "Get orders")
		return
	}
	s.respondJSON(w, http.StatusOK, rows(res))
}
