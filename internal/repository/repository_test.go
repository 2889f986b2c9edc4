package repository

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/chetan13062004/agromate/internal/dbtest"
	"github.com/chetan13062004/agromate/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCartEnsureIsIdempotent(t *testing.T) {
	db := dbtest.Open(t)
	store := NewStore(db)
	ctx := context.Background()
	buyer := dbtest.CreateUser(t, db, domain.RoleBuyer, "b@example.com")

	first, err := store.Carts.Ensure(ctx, buyer.ID)
	require.NoError(t, err)
	second, err := store.Carts.Ensure(ctx, buyer.ID)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	var n int64
	require.NoError(t, db.Model(&domain.Cart{}).Where("user_id = ?", buyer.ID).Count(&n).Error)
	assert.EqualValues(t, 1, n)
}

func TestCartAddQuantityMergesConcurrentAdds(t *testing.T) {
	db := dbtest.Open(t)
	store := NewStore(db)
	ctx := context.Background()
	buyer := dbtest.CreateUser(t, db, domain.RoleBuyer, "b@example.com")
	farmer := dbtest.CreateUser(t, db, domain.RoleFarmer, "f@example.com")
	tomato := dbtest.CreateProduct(t, db, farmer.ID, "tomato", 40, 100)
	cart, err := store.Carts.Ensure(ctx, buyer.ID)
	require.NoError(t, err)

	var wg sync.WaitGroup
	errs := make([]error, 8)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = store.Carts.AddQuantity(ctx, cart.ID, tomato.ID, 2)
		}(i)
	}
	wg.Wait()
	for _, err := range errs {
		require.NoError(t, err)
	}

	cart, err = store.Carts.GetByUser(ctx, buyer.ID)
	require.NoError(t, err)
	require.Len(t, cart.Items, 1)
	assert.Equal(t, 16, cart.Items[0].Quantity)
}

func TestProductUpdateDetailsLeavesCounters(t *testing.T) {
	db := dbtest.Open(t)
	store := NewStore(db)
	ctx := context.Background()
	farmer := dbtest.CreateUser(t, db, domain.RoleFarmer, "f@example.com")
	p := dbtest.CreateProduct(t, db, farmer.ID, "tomato", 40, 10)

	stale, err := store.Products.GetByID(ctx, p.ID)
	require.NoError(t, err)
	ok, err := store.Products.DecrementStock(ctx, p.ID, 4, 40)
	require.NoError(t, err)
	require.True(t, ok)
	require.NoError(t, store.Products.IncrementViews(ctx, p.ID))

	stale.Price = 45
	stale.Stock = 20
	stale.ApplyStockRules()
	require.NoError(t, store.Products.UpdateDetails(ctx, stale))

	got := dbtest.ReloadProduct(t, db, p.ID)
	assert.InDelta(t, 45, got.Price, 1e-9)
	assert.Equal(t, 20, got.Stock)
	assert.InDelta(t, 900, got.TotalValue, 1e-9)
	assert.Equal(t, 4, got.TotalSold)
	assert.InDelta(t, 160, got.Revenue, 1e-9)
	assert.Equal(t, 1, got.Views)
}

func TestCartAddQuantityKeepsLineOrder(t *testing.T) {
	db := dbtest.Open(t)
	store := NewStore(db)
	ctx := context.Background()
	buyer := dbtest.CreateUser(t, db, domain.RoleBuyer, "b@example.com")
	farmer := dbtest.CreateUser(t, db, domain.RoleFarmer, "f@example.com")
	tomato := dbtest.CreateProduct(t, db, farmer.ID, "tomato", 40, 10)
	onion := dbtest.CreateProduct(t, db, farmer.ID, "onion", 30, 10)

	cart, err := store.Carts.Ensure(ctx, buyer.ID)
	require.NoError(t, err)
	require.NoError(t, store.Carts.AddQuantity(ctx, cart.ID, tomato.ID, 1))
	require.NoError(t, store.Carts.AddQuantity(ctx, cart.ID, onion.ID, 2))
	require.NoError(t, store.Carts.AddQuantity(ctx, cart.ID, tomato.ID, 3))

	cart, err = store.Carts.GetByUser(ctx, buyer.ID)
	require.NoError(t, err)
	require.Len(t, cart.Items, 2)
	assert.Equal(t, tomato.ID, cart.Items[0].ProductID)
	assert.Equal(t, 4, cart.Items[0].Quantity)
	assert.Equal(t, onion.ID, cart.Items[1].ProductID)
	require.NotNil(t, cart.Items[1].Product)
	assert.Equal(t, "onion", cart.Items[1].Product.Name)

	require.NoError(t, store.Carts.RemoveItem(ctx, cart.ID, 12345))
	require.NoError(t, store.Carts.Clear(ctx, cart.ID))
	cart, err = store.Carts.GetByUser(ctx, buyer.ID)
	require.NoError(t, err)
	assert.Empty(t, cart.Items)
}

func TestDecrementStockGuard(t *testing.T) {
	db := dbtest.Open(t)
	store := NewStore(db)
	ctx := context.Background()
	farmer := dbtest.CreateUser(t, db, domain.RoleFarmer, "f@example.com")
	p := dbtest.CreateProduct(t, db, farmer.ID, "carrot", 20, 3)

	ok, err := store.Products.DecrementStock(ctx, p.ID, 4, p.Price)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, 3, dbtest.ReloadProduct(t, db, p.ID).Stock)

	ok, err = store.Products.DecrementStock(ctx, p.ID, 2, p.Price)
	require.NoError(t, err)
	assert.True(t, ok)
	got := dbtest.ReloadProduct(t, db, p.ID)
	assert.Equal(t, 1, got.Stock)
	assert.Equal(t, 2, got.TotalSold)
	assert.Equal(t, 40.0, got.Revenue)
	assert.Equal(t, 20.0, got.TotalValue)
	assert.Equal(t, domain.ProductActive, got.Status)

	ok, err = store.Products.DecrementStock(ctx, p.ID, 1, p.Price)
	require.NoError(t, err)
	assert.True(t, ok)
	got = dbtest.ReloadProduct(t, db, p.ID)
	assert.Equal(t, 0, got.Stock)
	assert.Equal(t, domain.ProductOutOfStock, got.Status)
	assert.Equal(t, 0.0, got.TotalValue)
}

func TestRefreshTotalValues(t *testing.T) {
	db := dbtest.Open(t)
	store := NewStore(db)
	farmer := dbtest.CreateUser(t, db, domain.RoleFarmer, "f@example.com")
	p := dbtest.CreateProduct(t, db, farmer.ID, "beans", 10, 5)
	require.NoError(t, db.Model(&domain.Product{}).Where("id = ?", p.ID).UpdateColumn("total_value", 1).Error)

	fixed, err := store.Products.RefreshTotalValues(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, 1, fixed)
	assert.Equal(t, 50.0, dbtest.ReloadProduct(t, db, p.ID).TotalValue)
}

func TestOrdersContainingFarmer(t *testing.T) {
	db := dbtest.Open(t)
	store := NewStore(db)
	ctx := context.Background()
	buyer := dbtest.CreateUser(t, db, domain.RoleBuyer, "b@example.com")
	f1 := dbtest.CreateUser(t, db, domain.RoleFarmer, "f1@example.com")
	f2 := dbtest.CreateUser(t, db, domain.RoleFarmer, "f2@example.com")
	p1 := dbtest.CreateProduct(t, db, f1.ID, "mango", 100, 10)
	p2 := dbtest.CreateProduct(t, db, f2.ID, "apple", 80, 10)

	mixed := &domain.Order{UserID: buyer.ID, Status: domain.OrderPlaced, Items: []domain.OrderItem{
		{ProductID: p1.ID, Quantity: 1, Price: 100},
		{ProductID: p2.ID, Quantity: 1, Price: 80},
	}}
	onlyF2 := &domain.Order{UserID: buyer.ID, Status: domain.OrderPlaced, Items: []domain.OrderItem{
		{ProductID: p2.ID, Quantity: 2, Price: 80},
	}}
	require.NoError(t, store.Orders.Create(ctx, mixed))
	require.NoError(t, store.Orders.Create(ctx, onlyF2))

	orders, err := store.Orders.ListContainingFarmer(ctx, f1.ID)
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Equal(t, mixed.ID, orders[0].ID)

	orders, err = store.Orders.ListContainingFarmer(ctx, f2.ID)
	require.NoError(t, err)
	assert.Len(t, orders, 2)

	orders, err = store.Orders.ListContainingFarmer(ctx, buyer.ID)
	require.NoError(t, err)
	assert.Empty(t, orders)
}

func TestOrderListFilter(t *testing.T) {
	db := dbtest.Open(t)
	store := NewStore(db)
	ctx := context.Background()
	b1 := dbtest.CreateUser(t, db, domain.RoleBuyer, "b1@example.com")
	b2 := dbtest.CreateUser(t, db, domain.RoleBuyer, "b2@example.com")

	old := time.Date(2024, 1, 10, 12, 0, 0, 0, time.UTC)
	recent := time.Date(2024, 3, 5, 9, 0, 0, 0, time.UTC)
	require.NoError(t, store.Orders.Create(ctx, &domain.Order{UserID: b1.ID, Status: domain.OrderInTransit, Total: 10, CreatedAt: old}))
	require.NoError(t, store.Orders.Create(ctx, &domain.Order{UserID: b2.ID, Status: domain.OrderPlaced, Total: 20, CreatedAt: recent}))

	orders, total, err := store.Orders.List(ctx, OrderFilter{Status: "shipped"}, Page{Page: 1, PageSize: 10})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, orders, 1)
	assert.Equal(t, b1.ID, orders[0].UserID)
	require.NotNil(t, orders[0].User)
	assert.Empty(t, orders[0].User.Password)

	from := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	orders, total, err = store.Orders.List(ctx, OrderFilter{DateRange: DateRange{From: &from}}, Page{})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	assert.Equal(t, b2.ID, orders[0].UserID)

	all, err := store.Orders.ListAll(ctx, OrderFilter{})
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.True(t, all[0].CreatedAt.After(all[1].CreatedAt))

	assert.Error(t, store.Orders.UpdateStatus(ctx, 42, domain.OrderDelivered))
}

func TestTransactionRollsBack(t *testing.T) {
	db := dbtest.Open(t)
	store := NewStore(db)
	ctx := context.Background()
	buyer := dbtest.CreateUser(t, db, domain.RoleBuyer, "b@example.com")

	err := store.Transaction(ctx, func(tx *Store) error {
		if err := tx.Orders.Create(ctx, &domain.Order{UserID: buyer.ID, Status: domain.OrderPlaced}); err != nil {
			return err
		}
		return assert.AnError
	})
	assert.ErrorIs(t, err, assert.AnError)
	assert.EqualValues(t, 0, dbtest.CountOrders(t, db))
}

func TestPageBounds(t *testing.T) {
	assert.Equal(t, 0, Page{}.Offset())
	assert.Equal(t, 20, Page{}.Limit())
	assert.Equal(t, 40, Page{Page: 3, PageSize: 20}.Offset())
	assert.Equal(t, 20, Page{PageSize: 1000}.Limit())
}
