package api

import (
	"context"

	"github.com/dd0wney/cluso-failover/pkg/store"
)

// Backend is the data access the catalog needs. Both replication strategies
// satisfy it: *replication.Coordinator directly and mirror.Backend as an
// adapter over the mirror coordinator.
type Backend interface {
	Write(ctx context.Context, sql string, args ...any) (*store.Result, error)
	Read(ctx context.Context, sql string, args ...any) (*store.Result, error)
}

// StatusFunc reports the replication coordinator's state for
// /replication/status.
type StatusFunc func() any

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Code    int    `json:"code"`
}

// MessageResponse acknowledges a delete
type MessageResponse struct {
	Message string `json:"message"`
}

// OrderResponse is returned after an order is placed
type OrderResponse struct {
	OrderID    int64   `json:"order_id"`
	TotalPrice float64 `json:"total_price"`
}
