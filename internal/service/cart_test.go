package service

import (
	"testing"

	"github.com/chetan13062004/agromate/internal/apperr"
	"github.com/chetan13062004/agromate/internal/dbtest"
	"github.com/chetan13062004/agromate/internal/domain"
	"github.com/chetan13062004/agromate/internal/pricing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetCartWithoutCartIsEmpty(t *testing.T) {
	f := newFixture(t)
	summary, err := NewCartService(f.store).GetCart(f.ctx, f.buyer.ID)
	require.NoError(t, err)
	assert.Empty(t, summary.Items)
	assert.NotNil(t, summary.Items)
	assert.Zero(t, summary.Subtotal)
	assert.Zero(t, summary.DeliveryFee)
	assert.Zero(t, summary.Total)
}

func TestAddItemMergesLines(t *testing.T) {
	f := newFixture(t)
	svc := NewCartService(f.store)
	p := dbtest.CreateProduct(t, f.db, f.farmer.ID, "carrot", 25, 50)

	_, err := svc.AddItem(f.ctx, f.buyer.ID, p.ID, 1)
	require.NoError(t, err)
	cart, err := svc.AddItem(f.ctx, f.buyer.ID, p.ID, 2)
	require.NoError(t, err)
	require.Len(t, cart.Items, 1)
	assert.Equal(t, 3, cart.Items[0].Quantity)
}

func TestAddItemRejectsUnavailableProducts(t *testing.T) {
	f := newFixture(t)
	svc := NewCartService(f.store)
	p := dbtest.CreateProduct(t, f.db, f.farmer.ID, "beans", 25, 0)
	assert.Equal(t, domain.ProductOutOfStock, p.Status)

	_, err := svc.AddItem(f.ctx, f.buyer.ID, p.ID, 1)
	assertKind(t, err, apperr.KindNotFound)

	_, err = svc.AddItem(f.ctx, f.buyer.ID, 999, 1)
	assertKind(t, err, apperr.KindNotFound)

	_, err = svc.AddItem(f.ctx, f.buyer.ID, p.ID, 0)
	assertKind(t, err, apperr.KindValidation)
}

func TestCartTotalUsesLivePrices(t *testing.T) {
	f := newFixture(t)
	svc := NewCartService(f.store)
	a := dbtest.CreateProduct(t, f.db, f.farmer.ID, "apple", 30, 10)
	b := dbtest.CreateProduct(t, f.db, f.farmer.ID, "banana", 10, 10)

	_, err := svc.AddItem(f.ctx, f.buyer.ID, a.ID, 2)
	require.NoError(t, err)
	_, err = svc.AddItem(f.ctx, f.buyer.ID, b.ID, 3)
	require.NoError(t, err)

	summary, err := svc.GetCart(f.ctx, f.buyer.ID)
	require.NoError(t, err)
	assert.InDelta(t, 90, summary.Subtotal, 1e-9)
	assert.InDelta(t, pricing.CalculateDeliveryFee(90), summary.DeliveryFee, 1e-9)
	assert.InDelta(t, summary.Subtotal+summary.DeliveryFee, summary.Total, 1e-9)

	require.NoError(t, f.db.Model(&domain.Product{}).Where("id = ?", a.ID).Update("price", 300).Error)
	summary, err = svc.GetCart(f.ctx, f.buyer.ID)
	require.NoError(t, err)
	assert.InDelta(t, 630, summary.Subtotal, 1e-9)
	assert.Zero(t, summary.DeliveryFee)
	assert.InDelta(t, 630, summary.Total, 1e-9)
}

func TestRemoveItem(t *testing.T) {
	f := newFixture(t)
	svc := NewCartService(f.store)
	p := dbtest.CreateProduct(t, f.db, f.farmer.ID, "leek", 12, 10)

	_, err := svc.RemoveItem(f.ctx, f.buyer.ID, p.ID)
	assertKind(t, err, apperr.KindNotFound)

	_, err = svc.AddItem(f.ctx, f.buyer.ID, p.ID, 1)
	require.NoError(t, err)

	cart, err := svc.RemoveItem(f.ctx, f.buyer.ID, 12345)
	require.NoError(t, err)
	assert.Len(t, cart.Items, 1)

	cart, err = svc.RemoveItem(f.ctx, f.buyer.ID, p.ID)
	require.NoError(t, err)
	assert.Empty(t, cart.Items)
}

func TestUpdateQuantity(t *testing.T) {
	f := newFixture(t)
	svc := NewCartService(f.store)
	p := dbtest.CreateProduct(t, f.db, f.farmer.ID, "kale", 12, 10)
	other := dbtest.CreateProduct(t, f.db, f.farmer.ID, "chard", 12, 10)

	_, err := svc.AddItem(f.ctx, f.buyer.ID, p.ID, 1)
	require.NoError(t, err)

	cart, err := svc.UpdateQuantity(f.ctx, f.buyer.ID, p.ID, 7)
	require.NoError(t, err)
	assert.Equal(t, 7, cart.Items[0].Quantity)

	_, err = svc.UpdateQuantity(f.ctx, f.buyer.ID, other.ID, 2)
	assertKind(t, err, apperr.KindNotFound)

	_, err = svc.UpdateQuantity(f.ctx, f.buyer.ID, p.ID, 0)
	assertKind(t, err, apperr.KindValidation)
}
