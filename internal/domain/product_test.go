package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestProductApplyStockRules(t *testing.T) {
	tests := []struct {
		name       string
		status     string
		stock      int
		wantStatus string
	}{
		{"zero stock forces out of stock", ProductActive, 0, ProductOutOfStock},
		{"negative stock clamps", ProductActive, -3, ProductOutOfStock},
		{"restock reactivates", ProductOutOfStock, 4, ProductActive},
		{"inactive stays inactive", ProductInactive, 4, ProductInactive},
		{"draft stays draft", ProductDraft, 2, ProductDraft},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &Product{Price: 12.5, Stock: tt.stock, Status: tt.status}
			p.ApplyStockRules()
			assert.Equal(t, tt.wantStatus, p.Status)
			assert.GreaterOrEqual(t, p.Stock, 0)
			assert.Equal(t, p.Price*float64(p.Stock), p.TotalValue)
		})
	}
}

func TestOrderStatusHelpers(t *testing.T) {
	assert.Equal(t, OrderInTransit, NormalizeOrderStatus("shipped"))
	assert.Equal(t, OrderDelivered, NormalizeOrderStatus(OrderDelivered))
	assert.True(t, AdminSettableStatus("shipped"))
	assert.True(t, AdminSettableStatus(OrderCancelled))
	assert.False(t, AdminSettableStatus(OrderPlaced))
	assert.False(t, AdminSettableStatus("lost"))

	o := &Order{Status: OrderDelivered}
	assert.True(t, o.Terminal())
	o.Status = OrderProcessing
	assert.False(t, o.Terminal())
}

func TestUserRoles(t *testing.T) {
	farmer := &User{Role: RoleFarmer}
	assert.False(t, farmer.CanSell())
	farmer.IsApproved = true
	assert.True(t, farmer.CanSell())
	assert.False(t, (&User{Role: RoleBuyer, IsApproved: true}).CanSell())
	assert.True(t, (&User{Role: RoleAdmin}).IsAdmin())
}
