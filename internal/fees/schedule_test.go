package fees

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/quantsim/tradesim/internal/types"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestNewSchedule_Validation(t *testing.T) {
	tests := []struct {
		name                  string
		rate, fixed, min, max string
	}{
		{"negative rate", "-0.001", "0", "0", "0"},
		{"negative fixed", "0", "-1", "0", "0"},
		{"negative min", "0", "0", "-1", "0"},
		{"max below min", "0", "0", "5", "2"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewSchedule(d(tt.rate), d(tt.fixed), d(tt.min), d(tt.max))
			if !errors.Is(err, types.ErrInvalidConfig) {
				t.Errorf("NewSchedule() error = %v, want ErrInvalidConfig", err)
			}
		})
	}

	if _, err := NewSchedule(d("0.001"), d("0.5"), d("0.1"), d("10")); err != nil {
		t.Errorf("valid schedule rejected: %v", err)
	}
}

func TestSchedule_Fee(t *testing.T) {
	tests := []struct {
		name                  string
		rate, fixed, min, max string
		price, qty            string
		want                  string
	}{
		{"free", "0", "0", "0", "0", "100", "1", "0"},
		{"rate only", "0.001", "0", "0", "0", "100", "1", "0.1"},
		{"rate and quantity", "0.001", "0", "0", "0", "100", "10", "1"},
		{"fixed only", "0", "2.5", "0", "0", "100", "1", "2.5"},
		{"rate plus fixed", "0.001", "1", "0", "0", "1000", "1", "2"},
		{"minimum applies", "0.0001", "0", "5", "0", "100", "1", "5"},
		{"maximum caps", "0.01", "0", "0", "3", "1000", "1", "3"},
		{"within bounds", "0.001", "0", "0.05", "10", "100", "1", "0.1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sched, err := NewSchedule(d(tt.rate), d(tt.fixed), d(tt.min), d(tt.max))
			if err != nil {
				t.Fatalf("NewSchedule: %v", err)
			}
			got := sched.Fee(d(tt.price), d(tt.qty))
			if !got.Equal(d(tt.want)) {
				t.Errorf("Fee(%s, %s) = %s, want %s", tt.price, tt.qty, got, tt.want)
			}
			if got.IsNegative() {
				t.Error("fee must never be negative")
			}
		})
	}
}

func TestFree(t *testing.T) {
	if got := Free().Fee(d("12345.67"), d("99")); !got.IsZero() {
		t.Errorf("Free().Fee() = %s, want 0", got)
	}
}
