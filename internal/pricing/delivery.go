// Package pricing holds the delivery fee policy shared by the cart summary
// and checkout so displayed and charged totals never diverge.
package pricing

import "math"

const (
	FreeDeliveryThreshold = 500.0
	DeliveryRate          = 0.10
	MinDeliveryFee        = 10.0
	MaxDeliveryFee        = 50.0
)

// CalculateDeliveryFee returns 0 at or above the free delivery threshold,
// otherwise floor(subtotal*10%) clamped to [10, 50].
func CalculateDeliveryFee(subtotal float64) float64 {
	if subtotal < 0 || math.IsNaN(subtotal) {
		subtotal = 0
	}
	if subtotal >= FreeDeliveryThreshold {
		return 0
	}
	fee := math.Floor(subtotal * DeliveryRate)
	return math.Min(MaxDeliveryFee, math.Max(MinDeliveryFee, fee))
}

// Totals computes the fee and grand total for a subtotal
func Totals(subtotal float64) (deliveryFee, total float64) {
	deliveryFee = CalculateDeliveryFee(subtotal)
	return deliveryFee, subtotal + deliveryFee
}
