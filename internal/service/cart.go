package service

import (
	"context"

	"github.com/chetan13062004/agromate/internal/apperr"
	"github.com/chetan13062004/agromate/internal/domain"
	"github.com/chetan13062004/agromate/internal/pricing"
	"github.com/chetan13062004/agromate/internal/repository"
	"go.uber.org/zap"
)

// CartService mutates per-user carts and prices them
type CartService struct {
	store *repository.Store
}

func NewCartService(store *repository.Store) *CartService {
	return &CartService{store: store}
}

// AddItem adds quantity units of an active product, creating the cart on first use
func (s *CartService) AddItem(ctx context.Context, userID, productID int64, quantity int) (*domain.Cart, error) {
	if quantity < 1 {
		return nil, apperr.Validation("Quantity must be at least 1")
	}
	product, err := s.store.Products.GetByID(ctx, productID)
	if err != nil {
		if isNotFound(err) {
			return nil, apperr.NotFound("Product not found or unavailable")
		}
		return nil, apperr.Internal(err, "Failed to load product")
	}
	if !product.Purchasable() {
		return nil, apperr.NotFound("Product not found or unavailable")
	}

	cart, err := s.store.Carts.Ensure(ctx, userID)
	if err != nil {
		return nil, apperr.Internal(err, "Failed to load cart")
	}
	if err := s.store.Carts.AddQuantity(ctx, cart.ID, productID, quantity); err != nil {
		return nil, apperr.Internal(err, "Failed to update cart")
	}
	zap.L().Debug("cart item added",
		zap.Int64("user_id", userID),
		zap.Int64("product_id", productID),
		zap.Int("quantity", quantity))
	return s.reload(ctx, userID)
}

// GetCart prices the cart from live product prices. A missing cart yields
// an empty summary rather than an error.
func (s *CartService) GetCart(ctx context.Context, userID int64) (*domain.CartSummary, error) {
	cart, err := s.store.Carts.GetByUser(ctx, userID)
	if err != nil {
		if isNotFound(err) {
			return &domain.CartSummary{Items: []domain.CartItem{}}, nil
		}
		return nil, apperr.Internal(err, "Failed to load cart")
	}
	return Summarize(cart), nil
}

// Summarize computes subtotal, fee and total for a loaded cart. Lines whose
// product no longer resolves contribute nothing.
func Summarize(cart *domain.Cart) *domain.CartSummary {
	summary := &domain.CartSummary{Items: cart.Items}
	if summary.Items == nil {
		summary.Items = []domain.CartItem{}
	}
	if len(cart.Items) == 0 {
		return summary
	}
	for _, item := range cart.Items {
		if item.Product == nil {
			continue
		}
		summary.Subtotal += item.Product.Price * float64(item.Quantity)
	}
	summary.DeliveryFee, summary.Total = pricing.Totals(summary.Subtotal)
	return summary
}

// UpdateQuantity overwrites the quantity of an existing line
func (s *CartService) UpdateQuantity(ctx context.Context, userID, productID int64, quantity int) (*domain.Cart, error) {
	if quantity < 1 {
		return nil, apperr.Validation("Quantity must be at least 1")
	}
	cart, err := s.existing(ctx, userID)
	if err != nil {
		return nil, err
	}
	found, err := s.store.Carts.SetQuantity(ctx, cart.ID, productID, quantity)
	if err != nil {
		return nil, apperr.Internal(err, "Failed to update cart")
	}
	if !found {
		return nil, apperr.NotFound("Item not found in cart")
	}
	return s.reload(ctx, userID)
}

// RemoveItem drops a product line; removing an absent product is a no-op
func (s *CartService) RemoveItem(ctx context.Context, userID, productID int64) (*domain.Cart, error) {
	cart, err := s.existing(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := s.store.Carts.RemoveItem(ctx, cart.ID, productID); err != nil {
		return nil, apperr.Internal(err, "Failed to update cart")
	}
	return s.reload(ctx, userID)
}

// Clear empties the cart
func (s *CartService) Clear(ctx context.Context, userID int64) (*domain.Cart, error) {
	cart, err := s.existing(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := s.store.Carts.Clear(ctx, cart.ID); err != nil {
		return nil, apperr.Internal(err, "Failed to clear cart")
	}
	return s.reload(ctx, userID)
}

func (s *CartService) existing(ctx context.Context, userID int64) (*domain.Cart, error) {
	cart, err := s.store.Carts.GetByUser(ctx, userID)
	if err != nil {
		if isNotFound(err) {
			return nil, apperr.NotFound("Cart not found")
		}
		return nil, apperr.Internal(err, "Failed to load cart")
	}
	return cart, nil
}

func (s *CartService) reload(ctx context.Context, userID int64) (*domain.Cart, error) {
	cart, err := s.store.Carts.GetByUser(ctx, userID)
	if err != nil {
		return nil, apperr.Internal(err, "Failed to load cart")
	}
	if cart.Items == nil {
		cart.Items = []domain.CartItem{}
	}
	return cart, nil
}
