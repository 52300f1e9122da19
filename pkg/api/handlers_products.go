package api

import (
	"net/http"
	"strconv"

	"github.com/dd0wney/cluso-failover/pkg/store"
	"github.com/dd0wney/cluso-failover/pkg/validation"
)

const (
	insertProductSQL = "INSERT INTO products (name, description, price, category, in_stock) VALUES ($1, $2, $3, $4, $5) RETURNING *"
	updateProductSQL = "UPDATE products SET name = $1, description = $2, price = $3, category = $4, in_stock = $5 WHERE id = $6 RETURNING *"
	selectProductSQL = "SELECT * FROM products WHERE id = $1"
	deleteProductSQL = "DELETE FROM products WHERE id = $1"
)

// listProductsQuery builds the filtered product listing. Filter values are
// always bound as parameters.
func listProductsQuery(category, inStock string) (string, []any) {
	sql := "SELECT * FROM products WHERE 1=1"
	var args []any

	if category != "" {
		args = append(args, category)
		sql += " AND category = $" + strconv.Itoa(len(args))
	}
	if inStock != "" {
		args = append(args, inStock == "true")
		sql += " AND in_stock = $" + strconv.Itoa(len(args))
	}
	return sql, args
}

// rows never returns nil so empty listings encode as [].
func rows(res *store.Result) []store.Row {
	if res == nil || res.Rows == nil {
		return []store.Row{}
	}
	return res.Rows
}

func (s *Server) handleListProducts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	sql, args := listProductsQuery(q.Get("category"), q.Get("inStock"))

	res, err := s.backend.Read(r.Context(), sql, args...)
	if err != nil {
		s.respondBackendError(w, r, err, "List products")
		return
	}
	s.respondJSON(w, http.StatusOK, rows(res))
}

func (s *Server) handleGetProduct(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	res, err := s.backend.Read(r.Context(), selectProductSQL, id)
	if err != nil {
		s.respondBackendError(w, r, err, "Get product")
		return
	}
	row := res.First()
	if row == nil {
		s.respondError(w, http.StatusNotFound, "Product not found")
		return
	}
	s.respondJSON(w, http.StatusOK, row)
}

// decodeProduct decodes and validates a product body. A missing in_stock
// defaults to true.
func (s *Server) decodeProduct(w http.ResponseWriter, r *http.Request) (*validation.ProductRequest, bool) {
	var req validation.ProductRequest
	if err := decodeJSON(r, &req); err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return nil, false
	}
	if err := validation.ValidateProductRequest(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return nil, false
	}
	if req.InStock == nil {
		inStock := true
		req.InStock = &inStock
	}
	return &req, true
}

func (s *Server) handleCreateProduct(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decodeProduct(w, r)
	if !ok {
		return
	}

	res, err := s.backend.Write(r.Context(), insertProductSQL,
		req.Name, req.Description, req.Price, req.Category, *req.InStock)
	if err != nil {
		s.respondBackendError(w, r, err, "Create product")
		return
	}
	s.respondJSON(w, http.StatusCreated, res.First())
}

func (s *Server) handleUpdateProduct(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	req, ok := s.decodeProduct(w, r)
	if !ok {
		return
	}

	res, err := s.backend.Write(r.Context(), updateProductSQL,
		req.Name, req.Description, req.Price, req.Category, *req.InStock, id)
	if err != nil {
		s.respondBackendError(w, r, err, "Update product")
		return
	}
	row := res.First()
	if row == nil {
		s.respondError(w, http.StatusNotFound, "Product not found")
		return
	}
	s.respondJSON(w, http.StatusOK, row)
}

func (s *Server) handleDeleteProduct(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	if _, err := s.backend.Write(r.Context(), deleteProductSQL, id); err != nil {
		s.respondBackendError(w, r, err, "Delete product")
		return
	}
	s.respondJSON(w, http.StatusOK, MessageResponse{Message: "Product deleted"})
}
