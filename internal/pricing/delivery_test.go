package pricing

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCalculateDeliveryFee(t *testing.T) {
	tests := []struct {
		subtotal float64
		want     float64
	}{
		{0, 10},
		{80, 10},
		{99.99, 10},
		{100, 10},
		{155, 15},
		{300, 30},
		{499.99, 49},
		{500, 0},
		{1200, 0},
		{-20, 10},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, CalculateDeliveryFee(tt.subtotal), "subtotal=%v", tt.subtotal)
	}
}

func TestCalculateDeliveryFeeBounds(t *testing.T) {
	for s := 0.0; s < FreeDeliveryThreshold; s += 7.3 {
		fee := CalculateDeliveryFee(s)
		assert.GreaterOrEqual(t, fee, MinDeliveryFee)
		assert.LessOrEqual(t, fee, MaxDeliveryFee)
		assert.Equal(t, math.Floor(fee), fee)
	}
	assert.Equal(t, 10.0, CalculateDeliveryFee(math.NaN()))
}

func TestTotals(t *testing.T) {
	fee, total := Totals(200)
	assert.Equal(t, 20.0, fee)
	assert.Equal(t, 220.0, total)

	fee, total = Totals(650)
	assert.Equal(t, 0.0, fee)
	assert.Equal(t, 650.0, total)
}
