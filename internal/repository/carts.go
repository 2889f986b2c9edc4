package repository

import (
	"context"
	"time"

	"github.com/chetan13062004/agromate/internal/domain"
	"github.com/chetan13062004/agromate/pkg/common"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CartRepository handles per-user cart persistence
type CartRepository interface {
	// GetByUser loads the user's cart with products resolved, in line order
	GetByUser(ctx context.Context, userID int64) (*domain.Cart, error)

	// Ensure loads or creates the user's cart with an upsert on the user key
	Ensure(ctx context.Context, userID int64) (*domain.Cart, error)

	// AddQuantity increments an existing line or appends a new one
	AddQuantity(ctx context.Context, cartID, productID int64, qty int) error

	// SetQuantity overwrites a line quantity, reporting whether the line existed
	SetQuantity(ctx context.Context, cartID, productID int64, qty int) (bool, error)

	// RemoveItem deletes a line; removing an absent product is not an error
	RemoveItem(ctx context.Context, cartID, productID int64) error

	// Clear empties the cart without deleting it
	Clear(ctx context.Context, cartID int64) error
}

// GormCartRepository is the GORM implementation of CartRepository
type GormCartRepository struct {
	db *gorm.DB
}

func NewGormCartRepository(db *gorm.DB) *GormCartRepository {
	return &GormCartRepository{db: db}
}

func orderedCartItems(db *gorm.DB) *gorm.DB {
	return db.Order("cart_items.id ASC")
}

func (r *GormCartRepository) GetByUser(ctx context.Context, userID int64) (*domain.Cart, error) {
	var cart domain.Cart
	err := r.db.WithContext(ctx).
		Preload("Items", orderedCartItems).
		Preload("Items.Product").
		Where("user_id = ?", userID).
		First(&cart).Error
	if err != nil {
		return nil, err
	}
	return &cart, nil
}

func (r *GormCartRepository) Ensure(ctx context.Context, userID int64) (*domain.Cart, error) {
	now := time.Now()
	cart := domain.Cart{ID: common.UUIDint64(), UserID: userID, CreatedAt: now, UpdatedAt: now}
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "user_id"}}, DoNothing: true}).
		Omit(clause.Associations).
		Create(&cart).Error
	if err != nil {
		return nil, err
	}
	return r.GetByUser(ctx, userID)
}

func (r *GormCartRepository) AddQuantity(ctx context.Context, cartID, productID int64, qty int) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		item := domain.CartItem{CartID: cartID, ProductID: productID, Quantity: qty, CreatedAt: time.Now()}
		err := tx.Omit(clause.Associations).
			Clauses(clause.OnConflict{
				Columns: []clause.Column{{Name: "cart_id"}, {Name: "product_id"}},
				DoUpdates: clause.Assignments(map[string]interface{}{
					"quantity": gorm.Expr("cart_items.quantity + excluded.quantity"),
				}),
			}).
			Create(&item).Error
		if err != nil {
			return err
		}
		return touchCart(tx, cartID)
	})
}

func (r *GormCartRepository) SetQuantity(ctx context.Context, cartID, productID int64, qty int) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&domain.CartItem{}).
		Where("cart_id = ? AND product_id = ?", cartID, productID).
		UpdateColumn("quantity", qty)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, touchCart(r.db.WithContext(ctx), cartID)
}

func (r *GormCartRepository) RemoveItem(ctx context.Context, cartID, productID int64) error {
	db := r.db.WithContext(ctx)
	if err := db.Where("cart_id = ? AND product_id = ?", cartID, productID).Delete(&domain.CartItem{}).Error; err != nil {
		return err
	}
	return touchCart(db, cartID)
}

func (r *GormCartRepository) Clear(ctx context.Context, cartID int64) error {
	db := r.db.WithContext(ctx)
	if err := db.Where("cart_id = ?", cartID).Delete(&domain.CartItem{}).Error; err != nil {
		return err
	}
	return touchCart(db, cartID)
}

func touchCart(db *gorm.DB, cartID int64) error {
	return db.Model(&domain.Cart{}).Where("id = ?", cartID).UpdateColumn("updated_at", time.Now()).Error
}
