package validation

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func TestConfigValidator_Required(t *testing.T) {
	cv := NewConfigValidator("StoreConfig")
	cv.Required("URL", "")

	if !cv.HasErrors() {
		t.Error("Expected error for empty required field")
	}

	cv2 := NewConfigValidator("StoreConfig")
	cv2.Required("URL", "postgres://localhost/shop")

	if cv2.HasErrors() {
		t.Error("Expected no error for non-empty required field")
	}
}

func TestConfigValidator_Positive(t *testing.T) {
	tests := []struct {
		value     int
		expectErr bool
	}{
		{-1, true},
		{0, true},
		{1, false},
		{8, false},
	}

	for _, tt := range tests {
		cv := NewConfigValidator("RegistryConfig").Positive("ProbeConcurrency", tt.value)
		if cv.HasErrors() != tt.expectErr {
			t.Errorf("Positive(%d): expected error=%v, got %v", tt.value, tt.expectErr, cv.Errors())
		}
	}
}

func TestConfigValidator_MinDuration(t *testing.T) {
	cv := NewConfigValidator("ReplicationConfig")
	cv.MinDuration("FlushInterval", 10*time.Millisecond, 100*time.Millisecond)

	if !cv.HasErrors() {
		t.Error("Expected error for duration below minimum")
	}
}

func TestConfigValidator_Shorter(t *testing.T) {
	cv := NewConfigValidator("RegistryConfig")
	cv.Shorter("ProbeTimeout", 5*time.Second, 5*time.Second, "ProbeInterval")
	if !cv.HasErrors() {
		t.Error("Expected error when durations are equal")
	}

	cv2 := NewConfigValidator("RegistryConfig")
	cv2.Shorter("ProbeTimeout", 2*time.Second, 5*time.Second, "ProbeInterval")
	if cv2.HasErrors() {
		t.Errorf("Unexpected error: %v", cv2.Validate())
	}
}

func TestConfigValidator_OneOf(t *testing.T) {
	allowed := []string{"async", "sync"}

	if NewConfigValidator("ReplicationConfig").OneOf("Mode", "async", allowed).HasErrors() {
		t.Error("Expected no error for allowed value")
	}
	if !NewConfigValidator("ReplicationConfig").OneOf("Mode", "eventual", allowed).HasErrors() {
		t.Error("Expected error for disallowed value")
	}
}

func TestConfigValidator_Distinct(t *testing.T) {
	cv := NewConfigValidator("RegistryConfig")
	cv.Distinct("Backends", []string{"localhost:3001", "localhost:3002", "localhost:3001"})

	if !cv.HasErrors() {
		t.Fatal("Expected error for duplicate entry")
	}
	if !strings.Contains(cv.Validate().Error(), "localhost:3001") {
		t.Errorf("Error should name the duplicate, got %v", cv.Validate())
	}
}

func TestConfigValidator_Custom(t *testing.T) {
	sentinel := errors.New("bad url")
	cv := NewConfigValidator("StoreConfig")
	cv.Custom("URL", func() error { return sentinel })

	if !errors.Is(cv.Validate(), sentinel) {
		t.Errorf("Expected wrapped sentinel, got %v", cv.Validate())
	}
}

func TestConfigValidator_When(t *testing.T) {
	cv := NewConfigValidator("Config")
	cv.When(false, func(v *ConfigValidator) { v.Required("Skipped", "") })
	if cv.HasErrors() {
		t.Error("Expected validations to be skipped")
	}

	cv.When(true, func(v *ConfigValidator) { v.Required("Applied", "") })
	if !cv.HasErrors() {
		t.Error("Expected validations to be applied")
	}
}

func TestConfigValidator_ValidateJoinsErrors(t *testing.T) {
	err := NewConfigValidator("Config").
		Required("A", "").
		Positive("B", 0).
		OneOf("C", "x", []string{"y"}).
		Validate()

	if err == nil {
		t.Fatal("Expected error")
	}
	for _, field := range []string{"Config.A", "Config.B", "Config.C"} {
		if !strings.Contains(err.Error(), field) {
			t.Errorf("Joined error missing %s: %v", field, err)
		}
	}

	if NewConfigValidator("Config").Required("A", "set").Validate() != nil {
		t.Error("Expected nil for a clean validator")
	}
}

func TestDefaultOrDuration(t *testing.T) {
	if got := DefaultOrDuration(0, 5*time.Second); got != 5*time.Second {
		t.Errorf("DefaultOrDuration(0) = %v", got)
	}
	if got := DefaultOrDuration(time.Second, 5*time.Second); got != time.Second {
		t.Errorf("DefaultOrDuration(1s) = %v", got)
	}
}
