package validation_test

import (
	"errors"
	"testing"
	"time"

	"github.com/ndewijer/Portfolio-Analytics-Engine/internal/apperrors"
	"github.com/ndewijer/Portfolio-Analytics-Engine/internal/validation"
)

func TestValidateUUID(t *testing.T) {
	t.Run("accepts a valid UUID", func(t *testing.T) {
		if err := validation.ValidateUUID("550e8400-e29b-41d4-a716-446655440000"); err != nil {
			t.Errorf("Expected no error, got %v", err)
		}
	})

	t.Run("rejects an empty ID", func(t *testing.T) {
		if err := validation.ValidateUUID(""); !errors.Is(err, apperrors.ErrEmptyID) {
			t.Errorf("Expected ErrEmptyID, got %v", err)
		}
	})

	t.Run("rejects a malformed ID", func(t *testing.T) {
		if err := validation.ValidateUUID("not-a-uuid"); !errors.Is(err, apperrors.ErrInvalidUUID) {
			t.Errorf("Expected ErrInvalidUUID, got %v", err)
		}
	})
}

func TestValidateCurrency(t *testing.T) {
	valid := []string{"USD", "EUR", "JPY"}
	for _, code := range valid {
		if err := validation.ValidateCurrency(code); err != nil {
			t.Errorf("Expected %q to validate, got %v", code, err)
		}
	}

	invalid := []string{"", "US", "usd", "EURO", "U$D", "12X"}
	for _, code := range invalid {
		if err := validation.ValidateCurrency(code); !errors.Is(err, apperrors.ErrInvalidCurrency) {
			t.Errorf("Expected %q to fail with ErrInvalidCurrency, got %v", code, err)
		}
	}
}

func TestValidateDateRange(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC)

	if err := validation.ValidateDateRange(start, end); err != nil {
		t.Errorf("Expected valid range, got %v", err)
	}
	if err := validation.ValidateDateRange(start, start); err != nil {
		t.Errorf("Expected a single-day range to validate, got %v", err)
	}
	if err := validation.ValidateDateRange(end, start); !errors.Is(err, apperrors.ErrInvalidDateRange) {
		t.Errorf("Expected ErrInvalidDateRange, got %v", err)
	}
}

func TestParseDate(t *testing.T) {
	t.Run("parses a plain date", func(t *testing.T) {
		parsed, err := validation.ParseDate("2024-03-15")
		if err != nil {
			t.Fatalf("ParseDate() returned unexpected error: %v", err)
		}
		if !parsed.Equal(time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)) {
			t.Errorf("Expected 2024-03-15 UTC, got %v", parsed)
		}
	})

	t.Run("parses RFC3339", func(t *testing.T) {
		parsed, err := validation.ParseDate("2024-03-15T10:30:00Z")
		if err != nil {
			t.Fatalf("ParseDate() returned unexpected error: %v", err)
		}
		if parsed.Hour() != 10 {
			t.Errorf("Expected hour 10, got %d", parsed.Hour())
		}
	})

	t.Run("rejects garbage", func(t *testing.T) {
		if _, err := validation.ParseDate("15/03/2024"); err == nil {
			t.Error("Expected an error for an unsupported format")
		}
	})
}
