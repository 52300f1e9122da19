package validation

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"

	"github.com/go-playground/validator/v10"
)

var (
	// validate is a singleton validator instance
	validate *validator.Validate

	MaxNameLength        = 200
	MaxDescriptionLength = 2000
	MaxCategoryLength    = 100
	MaxQuantity          = 1000
	MaxOrderItems        = 100

	userIDPattern = regexp.MustCompile(`^[a-zA-Z0-9_-]{1,64}$`)
)

func init() {
	validate = validator.New()
}

// ProductRequest is the body of a product create or update
type ProductRequest struct {
	Name        string  `json:"name" validate:"required,min=1,max=200"`
	Description string  `json:"description" validate:"max=2000"`
	Price       float64 `json:"price" validate:"gte=0"`
	Category    string  `json:"category" validate:"max=100"`
	InStock     *bool   `json:"in_stock"`
}

// CartItemRequest adds a product to a cart or changes its quantity
type CartItemRequest struct {
	ProductID int64 `json:"product_id" validate:"required,min=1"`
	Quantity  int   `json:"quantity" validate:"required,min=1,max=1000"`
}

// OrderItem is one line of an order
type OrderItem struct {
	ProductID int64   `json:"product_id" validate:"required,min=1"`
	Quantity  int     `json:"quantity" validate:"required,min=1,max=1000"`
	Price     float64 `json:"price" validate:"gte=0"`
}

// OrderRequest places an order
type OrderRequest struct {
	UserID   string      `json:"user_id" validate:"required"`
	Products []OrderItem `json:"products" validate:"required,min=1,max=100,dive"`
}

// Struct validates any tagged struct and returns the first failure in a
// readable form.
func Struct(v any) error {
	if err := validate.Struct(v); err != nil {
		return formatValidationError(err)
	}
	return nil
}

// ValidateProductRequest validates a product create/update request
func ValidateProductRequest(req *ProductRequest) error {
	if req == nil {
		return errors.New("product request cannot be nil")
	}
	return Struct(req)
}

// ValidateCartItemRequest validates a cart item request
func ValidateCartItemRequest(req *CartItemRequest) error {
	if req == nil {
		return errors.New("cart item request cannot be nil")
	}
	return Struct(req)
}

// ValidateOrderRequest validates an order request
func ValidateOrderRequest(req *OrderRequest) error {
	if req == nil {
		return errors.New("order request cannot be nil")
	}
	if err := Struct(req); err != nil {
		return err
	}
	if err := ValidateUserID(req.UserID); err != nil {
		return fmt.Errorf("UserID: %w", err)
	}

	seen := make(map[int64]bool, len(req.Products))
	for i, item := range req.Products {
		if seen[item.ProductID] {
			return fmt.Errorf("Products: product %d listed twice (index %d)", item.ProductID, i)
		}
		seen[item.ProductID] = true
	}
	return nil
}

// ValidateUserID validates a user identifier taken from a path or body
func ValidateUserID(id string) error {
	if id == "" {
		return errors.New("user id cannot be empty")
	}
	if !userIDPattern.MatchString(id) {
		return fmt.Errorf("user id %q is invalid (1-64 alphanumeric, underscore or dash)", id)
	}
	return nil
}

// ParseID parses a positive integer identifier from a path segment
func ParseID(raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id < 1 {
		return 0, fmt.Errorf("invalid id %q", raw)
	}
	return id, nil
}

// formatValidationError converts validator errors to a more user-friendly format
func formatValidationError(err error) error {
	if err == nil {
		return nil
	}

	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return err
	}

	// Return the first validation error in a user-friendly format
	for _, e := range validationErrs {
		field := e.Namespace()
		param := e.Param()

		switch e.Tag() {
		case "required":
			return fmt.Errorf("%s: field is required", field)
		case "min":
			return fmt.Errorf("%s: must be at least %s", field, param)
		case "max":
			return fmt.Errorf("%s: must not exceed %s", field, param)
		case "gte":
			return fmt.Errorf("%s: must be greater than or equal to %s", field, param)
		case "oneof":
			return fmt.Errorf("%s: must be one of [%s]", field, param)
		case "url":
			return fmt.Errorf("%s: must be a valid URL", field)
		case "hostname_port":
			return fmt.Errorf("%s: must be host:port", field)
		default:
			return fmt.Errorf("%s: validation failed (%s)", field, e.Tag())
		}
	}

	return err
}
