package validation

import (
	"strings"
	"testing"
)

func TestValidateProductRequest(t *testing.T) {
	tests := []struct {
		name        string
		req         ProductRequest
		expectError bool
		errorField  string
	}{
		{
			name:        "Valid product",
			req:         ProductRequest{Name: "Lamp", Price: 19.99, Category: "home"},
			expectError: false,
		},
		{
			name:        "Free product is valid",
			req:         ProductRequest{Name: "Sticker", Price: 0},
			expectError: false,
		},
		{
			name:        "Missing name",
			req:         ProductRequest{Price: 5},
			expectError: true,
			errorField:  "Name",
		},
		{
			name:        "Negative price",
			req:         ProductRequest{Name: "Lamp", Price: -1},
			expectError: true,
			errorField:  "Price",
		},
		{
			name:        "Name too long",
			req:         ProductRequest{Name: strings.Repeat("x", 201), Price: 1},
			expectError: true,
			errorField:  "Name",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateProductRequest(&tt.req)
			if tt.expectError {
				if err == nil {
					t.Fatal("Expected error but got nil")
				}
				if !strings.Contains(err.Error(), tt.errorField) {
					t.Errorf("Expected error to mention %s, got: %v", tt.errorField, err)
				}
				return
			}
			if err != nil {
				t.Errorf("Unexpected error: %v", err)
			}
		})
	}

	if ValidateProductRequest(nil) == nil {
		t.Error("Expected error for nil request")
	}
}

func TestValidateCartItemRequest(t *testing.T) {
	tests := []struct {
		name        string
		req         CartItemRequest
		expectError bool
	}{
		{"Valid", CartItemRequest{ProductID: 1, Quantity: 2}, false},
		{"Missing product", CartItemRequest{Quantity: 2}, true},
		{"Zero quantity", CartItemRequest{ProductID: 1}, true},
		{"Quantity too large", CartItemRequest{ProductID: 1, Quantity: 1001}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateCartItemRequest(&tt.req)
			if (err != nil) != tt.expectError {
				t.Errorf("expected error=%v, got %v", tt.expectError, err)
			}
		})
	}
}

func TestValidateOrderRequest(t *testing.T) {
	tests := []struct {
		name        string
		req         OrderRequest
		expectError bool
		errorField  string
	}{
		{
			name: "Valid order",
			req: OrderRequest{UserID: "alice", Products: []OrderItem{
				{ProductID: 1, Quantity: 2, Price: 10},
				{ProductID: 2, Quantity: 1, Price: 5},
			}},
		},
		{
			name:        "No products",
			req:         OrderRequest{UserID: "alice"},
			expectError: true,
			errorField:  "Products",
		},
		{
			name:        "Invalid item",
			req:         OrderRequest{UserID: "alice", Products: []OrderItem{{ProductID: 1}}},
			expectError: true,
			errorField:  "Quantity",
		},
		{
			name: "Duplicate product",
			req: OrderRequest{UserID: "alice", Products: []OrderItem{
				{ProductID: 1, Quantity: 1}, {ProductID: 1, Quantity: 2},
			}},
			expectError: true,
			errorField:  "Products",
		},
		{
			name:        "Bad user id",
			req:         OrderRequest{UserID: "alice; DROP TABLE", Products: []OrderItem{{ProductID: 1, Quantity: 1}}},
			expectError: true,
			errorField:  "UserID",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateOrderRequest(&tt.req)
			if tt.expectError {
				if err == nil {
					t.Fatal("Expected error but got nil")
				}
				if !strings.Contains(err.Error(), tt.errorField) {
					t.Errorf("Expected error to mention %s, got: %v", tt.errorField, err)
				}
				return
			}
			if err != nil {
				t.Errorf("Unexpected error: %v", err)
			}
		})
	}
}

func TestParseID(t *testing.T) {
	tests := []struct {
		raw     string
		want    int64
		wantErr bool
	}{
		{"1", 1, false},
		{"42", 42, false},
		{"0", 0, true},
		{"-3", 0, true},
		{"abc", 0, true},
		{"", 0, true},
	}
	for _, tt := range tests {
		got, err := ParseID(tt.raw)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseID(%q) error = %v, wantErr %v", tt.raw, err, tt.wantErr)
		}
		if got != tt.want {
			t.Errorf("ParseID(%q) = %d, want %d", tt.raw, got, tt.want)
		}
	}
}

func TestValidateUserID(t *testing.T) {
	for _, ok := range []string{"alice", "user_1", "a-b-c"} {
		if err := ValidateUserID(ok); err != nil {
			t.Errorf("ValidateUserID(%q) = %v", ok, err)
		}
	}
	for _, bad := range []string{"", "has space", strings.Repeat("x", 65)} {
		if ValidateUserID(bad) == nil {
			t.Errorf("ValidateUserID(%q) expected error", bad)
		}
	}
}
