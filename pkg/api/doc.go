// Package api serves the product catalog, cart and order HTTP API.
//
// Handlers never touch a store directly. Every statement goes through a
// Backend, which is either the async replication coordinator (writes hit the
// primary and are queued for the secondary) or the sync mirror (writes hit
// both stores inline). Reads fall back to the secondary when the primary is
// unreachable in both modes.
//
// Routes:
//
//	GET    /products                     list, filters: category, inStock
//	POST   /products                     create
//	GET    /products/{id}                fetch one
//	PUT    /products/{id}                replace
//	DELETE /products/{id}                delete
//	POST   /cart/{userId}                add or update an item
//	GET    /cart/{userId}                list items with product name and price
//	DELETE /cart/{userId}/item/{productId}
//	POST   /orders                       place an order
//	GET    /orders/{userId}              list orders with their items
//	GET    /replication/status           coordinator status
//	GET    /health, /health/ready, /health/live
//	GET    /metrics
package api
