package domain

import (
	"errors"
	"fmt"
	"testing"
)

func TestErrorMatching(t *testing.T) {
	insufficient := &InsufficientStockError{Available: 4, Requested: 6}
	if !errors.Is(insufficient, ErrInsufficientStock) {
		t.Error("InsufficientStockError must match ErrInsufficientStock")
	}
	wrapped := fmt.Errorf("failed to apply transaction: %w", insufficient)
	var target *InsufficientStockError
	if !errors.As(wrapped, &target) || target.Available != 4 {
		t.Errorf("expected to unwrap quantities, got %v", target)
	}

	if !errors.Is(&ValidationError{Field: "name", Message: "is required"}, ErrInvalidInput) {
		t.Error("ValidationError must match ErrInvalidInput")
	}

	cause := errors.New("connection refused")
	pf := PersistenceFailure("get item", cause)
	if !errors.Is(pf, ErrPersistenceFailure) || !errors.Is(pf, cause) {
		t.Errorf("persistence failure must match sentinel and cause: %v", pf)
	}
	if PersistenceFailure("noop", nil) != nil {
		t.Error("expected nil for nil cause")
	}

	if !IsConflict(fmt.Errorf("save: %w", ErrPersistenceConflict)) {
		t.Error("expected conflict")
	}
	if !IsValidation(ErrInvalidThreshold) || IsValidation(ErrNotFound) {
		t.Error("unexpected validation classification")
	}
}

func TestValidateThresholds(t *testing.T) {
	tests := []struct {
		min, max int
		wantErr  bool
	}{
		{0, 0, false},
		{5, 100, false},
		{5, 5, false},
		{10, 5, true},
		{-1, 5, true},
		{0, -1, true},
	}
	for _, tt := range tests {
		err := ValidateThresholds(tt.min, tt.max)
		if (err != nil) != tt.wantErr {
			t.Errorf("ValidateThresholds(%d, %d) error = %v, wantErr %v", tt.min, tt.max, err, tt.wantErr)
		}
	}
}
