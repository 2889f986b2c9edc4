package service

import (
	"sync"
	"testing"

	"github.com/chetan13062004/agromate/internal/apperr"
	"github.com/chetan13062004/agromate/internal/dbtest"
	"github.com/chetan13062004/agromate/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckoutEndToEnd(t *testing.T) {
	f := newFixture(t)
	carts := NewCartService(f.store)
	checkout := NewCheckoutService(f.store, f.bus)
	p := dbtest.CreateProduct(t, f.db, f.farmer.ID, "mango", 100, 5)

	_, err := carts.AddItem(f.ctx, f.buyer.ID, p.ID, 2)
	require.NoError(t, err)
	summary, err := carts.GetCart(f.ctx, f.buyer.ID)
	require.NoError(t, err)
	assert.InDelta(t, 200, summary.Subtotal, 1e-9)
	assert.InDelta(t, 20, summary.DeliveryFee, 1e-9)
	assert.InDelta(t, 220, summary.Total, 1e-9)

	order, err := checkout.Checkout(f.ctx, f.buyer.ID)
	require.NoError(t, err)
	assert.InDelta(t, 220, order.Total, 1e-9)
	assert.InDelta(t, 200, order.Subtotal, 1e-9)
	assert.InDelta(t, 20, order.DeliveryFee, 1e-9)
	assert.Equal(t, domain.OrderPlaced, order.Status)
	require.Len(t, order.Items, 1)
	assert.InDelta(t, 100, order.Items[0].Price, 1e-9)
	assert.Equal(t, 2, order.Items[0].Quantity)

	after := dbtest.ReloadProduct(t, f.db, p.ID)
	assert.Equal(t, 3, after.Stock)
	assert.Equal(t, 2, after.TotalSold)
	assert.InDelta(t, 200, after.Revenue, 1e-9)
	assert.InDelta(t, 300, after.TotalValue, 1e-9)
	assert.Equal(t, domain.ProductActive, after.Status)

	summary, err = carts.GetCart(f.ctx, f.buyer.ID)
	require.NoError(t, err)
	assert.Empty(t, summary.Items)
	assert.Equal(t, []string{domain.TopicOrderPlaced}, f.bus.topics())
}

func TestCheckoutEmptyCart(t *testing.T) {
	f := newFixture(t)
	checkout := NewCheckoutService(f.store, f.bus)

	_, err := checkout.Checkout(f.ctx, f.buyer.ID)
	assertKind(t, err, apperr.KindInvalidState)
	ae, _ := apperr.As(err)
	assert.Equal(t, 400, ae.Status())
	assert.Equal(t, "Cart is empty", ae.Message)

	// an emptied cart behaves the same
	p := dbtest.CreateProduct(t, f.db, f.farmer.ID, "fig", 10, 5)
	carts := NewCartService(f.store)
	_, err = carts.AddItem(f.ctx, f.buyer.ID, p.ID, 1)
	require.NoError(t, err)
	_, err = carts.Clear(f.ctx, f.buyer.ID)
	require.NoError(t, err)
	_, err = checkout.Checkout(f.ctx, f.buyer.ID)
	assertKind(t, err, apperr.KindInvalidState)

	assert.Zero(t, dbtest.CountOrders(t, f.db))
	assert.Empty(t, f.bus.topics())
}

func TestCheckoutInsufficientStockChangesNothing(t *testing.T) {
	f := newFixture(t)
	carts := NewCartService(f.store)
	checkout := NewCheckoutService(f.store, f.bus)
	plenty := dbtest.CreateProduct(t, f.db, f.farmer.ID, "rice", 50, 100)
	scarce := dbtest.CreateProduct(t, f.db, f.farmer.ID, "saffron", 900, 3)

	_, err := carts.AddItem(f.ctx, f.buyer.ID, plenty.ID, 10)
	require.NoError(t, err)
	_, err = carts.AddItem(f.ctx, f.buyer.ID, scarce.ID, 2)
	require.NoError(t, err)
	// stock drops after the item was added
	require.NoError(t, f.db.Model(&domain.Product{}).Where("id = ?", scarce.ID).Update("stock", 1).Error)

	_, err = checkout.Checkout(f.ctx, f.buyer.ID)
	assertKind(t, err, apperr.KindInvalidState)
	ae, _ := apperr.As(err)
	assert.Equal(t, "INSUFFICIENT_STOCK", ae.Code)
	assert.Equal(t, "Insufficient stock for saffron. Available: 1", ae.Message)

	assert.Zero(t, dbtest.CountOrders(t, f.db))
	assert.Equal(t, 100, dbtest.ReloadProduct(t, f.db, plenty.ID).Stock)
	assert.Equal(t, 1, dbtest.ReloadProduct(t, f.db, scarce.ID).Stock)
	assert.Zero(t, dbtest.ReloadProduct(t, f.db, plenty.ID).TotalSold)

	summary, err := carts.GetCart(f.ctx, f.buyer.ID)
	require.NoError(t, err)
	assert.Len(t, summary.Items, 2)
}

func TestCheckoutRejectsDeactivatedProduct(t *testing.T) {
	f := newFixture(t)
	carts := NewCartService(f.store)
	p := dbtest.CreateProduct(t, f.db, f.farmer.ID, "okra", 20, 10)
	_, err := carts.AddItem(f.ctx, f.buyer.ID, p.ID, 1)
	require.NoError(t, err)
	require.NoError(t, f.store.Products.SetStatus(f.ctx, p.ID, domain.ProductInactive))

	_, err = NewCheckoutService(f.store, nil).Checkout(f.ctx, f.buyer.ID)
	assertKind(t, err, apperr.KindInvalidState)
	ae, _ := apperr.As(err)
	assert.Equal(t, "PRODUCT_UNAVAILABLE", ae.Code)
	assert.Zero(t, dbtest.CountOrders(t, f.db))
}

func TestCheckoutSellsOutProduct(t *testing.T) {
	f := newFixture(t)
	carts := NewCartService(f.store)
	p := dbtest.CreateProduct(t, f.db, f.farmer.ID, "honey", 250, 2)
	_, err := carts.AddItem(f.ctx, f.buyer.ID, p.ID, 2)
	require.NoError(t, err)

	order, err := NewCheckoutService(f.store, nil).Checkout(f.ctx, f.buyer.ID)
	require.NoError(t, err)
	assert.InDelta(t, 500, order.Subtotal, 1e-9)
	assert.Zero(t, order.DeliveryFee)
	require.Len(t, order.Items, 1)
	require.NotNil(t, order.Items[0].Product)
	assert.Zero(t, order.Items[0].Product.Stock)
	assert.Equal(t, domain.ProductOutOfStock, order.Items[0].Product.Status)
	assert.Equal(t, 2, order.Items[0].Product.TotalSold)

	after := dbtest.ReloadProduct(t, f.db, p.ID)
	assert.Zero(t, after.Stock)
	assert.Equal(t, domain.ProductOutOfStock, after.Status)
	assert.Zero(t, after.TotalValue)
}

func TestConcurrentCheckoutsDoNotOversell(t *testing.T) {
	f := newFixture(t)
	carts := NewCartService(f.store)
	checkout := NewCheckoutService(f.store, f.bus)
	p := dbtest.CreateProduct(t, f.db, f.farmer.ID, "truffle", 80, 1)
	second := dbtest.CreateUser(t, f.db, domain.RoleBuyer, "second@example.com")

	for _, buyer := range []int64{f.buyer.ID, second.ID} {
		_, err := carts.AddItem(f.ctx, buyer, p.ID, 1)
		require.NoError(t, err)
	}

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i, buyer := range []int64{f.buyer.ID, second.ID} {
		wg.Add(1)
		go func(i int, buyer int64) {
			defer wg.Done()
			_, errs[i] = checkout.Checkout(f.ctx, buyer)
		}(i, buyer)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		assertKind(t, err, apperr.KindInvalidState)
	}
	assert.Equal(t, 1, succeeded)
	assert.EqualValues(t, 1, dbtest.CountOrders(t, f.db))
	after := dbtest.ReloadProduct(t, f.db, p.ID)
	assert.Zero(t, after.Stock)
	assert.Equal(t, 1, after.TotalSold)
}

func TestBuildOrderSnapshotsPrices(t *testing.T) {
	items := []domain.CartItem{
		{ProductID: 1, Quantity: 3, Product: &domain.Product{ID: 1, Price: 20}},
		{ProductID: 2, Quantity: 1, Product: &domain.Product{ID: 2, Price: 20}},
	}
	order := buildOrder(7, items)
	assert.InDelta(t, 80, order.Subtotal, 1e-9)
	assert.InDelta(t, 10, order.DeliveryFee, 1e-9)
	assert.InDelta(t, 90, order.Total, 1e-9)
	require.Len(t, order.Items, 2)
	assert.InDelta(t, 20, order.Items[0].Price, 1e-9)

	items[0].Product.Price = 99
	assert.InDelta(t, 20, order.Items[0].Price, 1e-9)
}
