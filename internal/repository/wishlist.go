package repository

import (
	"context"
	"time"

	"github.com/chetan13062004/agromate/internal/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// WishlistRepository stores saved products per user
type WishlistRepository interface {
	List(ctx context.Context, userID int64) ([]*domain.WishlistItem, error)
	Add(ctx context.Context, userID, productID int64) error
	Remove(ctx context.Context, userID, productID int64) error
}

// GormWishlistRepository is the GORM implementation of WishlistRepository
type GormWishlistRepository struct {
	db *gorm.DB
}

func NewGormWishlistRepository(db *gorm.DB) *GormWishlistRepository {
	return &GormWishlistRepository{db: db}
}

func (r *GormWishlistRepository) List(ctx context.Context, userID int64) ([]*domain.WishlistItem, error) {
	var items []*domain.WishlistItem
	err := r.db.WithContext(ctx).
		Preload("Product").
		Where("user_id = ?", userID).
		Order("id DESC").
		Find(&items).Error
	return items, err
}

func (r *GormWishlistRepository) Add(ctx context.Context, userID, productID int64) error {
	item := domain.WishlistItem{UserID: userID, ProductID: productID, CreatedAt: time.Now()}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Omit(clause.Associations).
		Create(&item).Error
}

func (r *GormWishlistRepository) Remove(ctx context.Context, userID, productID int64) error {
	return r.db.WithContext(ctx).
		Where("user_id = ? AND product_id = ?", userID, productID).
		Delete(&domain.WishlistItem{}).Error
}
