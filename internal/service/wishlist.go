package service

import (
	"context"

	"github.com/chetan13062004/agromate/internal/apperr"
	"github.com/chetan13062004/agromate/internal/domain"
	"github.com/chetan13062004/agromate/internal/repository"
)

// WishlistService keeps the set of products a user saved
type WishlistService struct {
	store *repository.Store
}

func NewWishlistService(store *repository.Store) *WishlistService {
	return &WishlistService{store: store}
}

func (s *WishlistService) List(ctx context.Context, userID int64) ([]*domain.WishlistItem, error) {
	items, err := s.store.Wishlists.List(ctx, userID)
	if err != nil {
		return nil, apperr.Internal(err, "Failed to query wishlist")
	}
	if items == nil {
		items = []*domain.WishlistItem{}
	}
	return items, nil
}

// Add saves a product; adding it twice is a no-op
func (s *WishlistService) Add(ctx context.Context, userID, productID int64) ([]*domain.WishlistItem, error) {
	if _, err := s.store.Products.GetByID(ctx, productID); err != nil {
		if isNotFound(err) {
			return nil, apperr.NotFound("Product not found")
		}
		return nil, apperr.Internal(err, "Failed to query product")
	}
	if err := s.store.Wishlists.Add(ctx, userID, productID); err != nil {
		return nil, apperr.Internal(err, "Failed to update wishlist")
	}
	return s.List(ctx, userID)
}

func (s *WishlistService) Remove(ctx context.Context, userID, productID int64) ([]*domain.WishlistItem, error) {
	if err := s.store.Wishlists.Remove(ctx, userID, productID); err != nil {
		return nil, apperr.Internal(err, "Failed to update wishlist")
	}
	return s.List(ctx, userID)
}
