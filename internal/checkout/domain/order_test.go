package domain_test

import (
	"testing"

	"github.com/techshop/checkout/internal/checkout/domain"
)

func TestOrderStatusString(t *testing.T) {
	tests := []struct {
		status domain.OrderStatus
		want   string
	}{
		{domain.StatusPending, "pending"},
		{domain.StatusConfirmed, "confirmed"},
		{domain.StatusShipped, "shipped"},
		{domain.StatusDelivered, "delivered"},
		{domain.StatusCancelled, "cancelled"},
		{domain.OrderStatus(99), "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := tt.status.String(); got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestOrderStatusCanTransitionTo(t *testing.T) {
	tests := []struct {
		name string
		from domain.OrderStatus
		to   domain.OrderStatus
		want bool
	}{
		{name: "pending to confirmed", from: domain.StatusPending, to: domain.StatusConfirmed, want: true},
		{name: "confirmed to shipped", from: domain.StatusConfirmed, to: domain.StatusShipped, want: true},
		{name: "shipped to delivered", from: domain.StatusShipped, to: domain.StatusDelivered, want: true},
		{name: "pending cannot skip to shipped", from: domain.StatusPending, to: domain.StatusShipped, want: false},
		{name: "confirmed cannot regress to pending", from: domain.StatusConfirmed, to: domain.StatusPending, want: false},
		{name: "delivered is terminal", from: domain.StatusDelivered, to: domain.StatusConfirmed, want: false},
		{name: "cancelled is terminal", from: domain.StatusCancelled, to: domain.StatusConfirmed, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.from.CanTransitionTo(tt.to); got != tt.want {
				t.Errorf("CanTransitionTo(%v) = %v, want %v", tt.to, got, tt.want)
			}
		})
	}
}

func TestOrderStatusIsTerminal(t *testing.T) {
	if domain.StatusPending.IsTerminal() {
		t.Error("pending should not be terminal")
	}
	if !domain.StatusDelivered.IsTerminal() {
		t.Error("delivered should be terminal")
	}
	if !domain.StatusCancelled.IsTerminal() {
		t.Error("cancelled should be terminal")
	}
}
