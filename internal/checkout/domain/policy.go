package domain

import "github.com/shopspring/decimal"

// ShippingPolicy computes the shipping fee for a cart subtotal. It is a
// pluggable seam so a rate table can replace the flat threshold later.
type ShippingPolicy interface {
	Fee(subtotal decimal.Decimal) decimal.Decimal
}

// ThresholdShippingPolicy waives the flat fee once the subtotal reaches the
// free-shipping threshold.
type ThresholdShippingPolicy struct {
	FreeThreshold decimal.Decimal
	FlatFee       decimal.Decimal
}

func (p ThresholdShippingPolicy) Fee(subtotal decimal.Decimal) decimal.Decimal {
	if subtotal.GreaterThanOrEqual(p.FreeThreshold) {
		return decimal.Zero
	}
	return p.FlatFee
}

// DefaultShippingPolicy mirrors the storefront's standing rates: free
// shipping from 500,000 and a 30,000 flat fee below it.
func DefaultShippingPolicy() ThresholdShippingPolicy {
	return ThresholdShippingPolicy{
		FreeThreshold: decimal.NewFromInt(500000),
		FlatFee:       decimal.NewFromInt(30000),
	}
}

// CancellationPolicy lists the statuses an order may be cancelled from.
// Customer-facing deployments keep the default (pending only); back-office
// deployments may widen the set through configuration.
type CancellationPolicy struct {
	AllowedStatuses []OrderStatus
}

// Allows reports whether an order in the given status may be cancelled.
func (p CancellationPolicy) Allows(status OrderStatus) bool {
	for _, allowed := range p.AllowedStatuses {
		if allowed == status {
			return true
		}
	}
	return false
}

// DefaultCancellationPolicy permits cancellation only before confirmation.
func DefaultCancellationPolicy() CancellationPolicy {
	return CancellationPolicy{AllowedStatuses: []OrderStatus{StatusPending}}
}
