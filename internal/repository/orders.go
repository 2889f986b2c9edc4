package repository

import (
	"context"
	"time"

	"github.com/chetan13062004/agromate/internal/domain"
	"github.com/chetan13062004/agromate/pkg/common"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// OrderFilter drives the admin listing and export
type OrderFilter struct {
	Status string
	UserID int64
	DateRange
}

// OrderRepository handles order persistence
type OrderRepository interface {
	// Create inserts the order together with its items
	Create(ctx context.Context, order *domain.Order) error

	// GetByID loads an order with items, products and the buyer resolved
	GetByID(ctx context.Context, id int64) (*domain.Order, error)

	// ListByUser returns a buyer's orders, newest first
	ListByUser(ctx context.Context, userID int64) ([]*domain.Order, error)

	// ListContainingFarmer returns orders holding at least one line whose
	// product belongs to farmerID, newest first
	ListContainingFarmer(ctx context.Context, farmerID int64) ([]*domain.Order, error)

	// List applies the admin filter with pagination
	List(ctx context.Context, filter OrderFilter, page Page) ([]*domain.Order, int64, error)

	// ListAll applies the admin filter without pagination (exports)
	ListAll(ctx context.Context, filter OrderFilter) ([]*domain.Order, error)

	// UpdateStatus writes a new status
	UpdateStatus(ctx context.Context, id int64, status string) error
}

// GormOrderRepository is the GORM implementation of OrderRepository
type GormOrderRepository struct {
	db *gorm.DB
}

func NewGormOrderRepository(db *gorm.DB) *GormOrderRepository {
	return &GormOrderRepository{db: db}
}

func withoutPassword(db *gorm.DB) *gorm.DB {
	return db.Omit("password")
}

func (r *GormOrderRepository) detailed(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("order_items.id ASC") }).
		Preload("Items.Product").
		Preload("User", withoutPassword)
}

func (r *GormOrderRepository) Create(ctx context.Context, order *domain.Order) error {
	if order.ID == 0 {
		order.ID = common.UUIDint64()
	}
	return r.db.WithContext(ctx).Omit("User").Create(order).Error
}

func (r *GormOrderRepository) GetByID(ctx context.Context, id int64) (*domain.Order, error) {
	var order domain.Order
	if err := r.detailed(ctx).First(&order, id).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *GormOrderRepository) ListByUser(ctx context.Context, userID int64) ([]*domain.Order, error) {
	var orders []*domain.Order
	err := r.detailed(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&orders).Error
	return orders, err
}

func (r *GormOrderRepository) ListContainingFarmer(ctx context.Context, farmerID int64) ([]*domain.Order, error) {
	sub := r.db.WithContext(ctx).
		Model(&domain.OrderItem{}).
		Select("order_items.order_id").
		Joins("JOIN products ON products.id = order_items.product_id").
		Where("products.farmer_id = ?", farmerID)

	var orders []*domain.Order
	err := r.detailed(ctx).
		Where("id IN (?)", sub).
		Order("created_at DESC").
		Find(&orders).Error
	return orders, err
}

func (r *GormOrderRepository) filtered(ctx context.Context, filter OrderFilter) *gorm.DB {
	query := r.db.WithContext(ctx).Model(&domain.Order{})
	if filter.Status != "" {
		query = query.Where("status = ?", domain.NormalizeOrderStatus(filter.Status))
	}
	if filter.UserID != 0 {
		query = query.Where("user_id = ?", filter.UserID)
	}
	if filter.From != nil {
		query = query.Where("created_at >= ?", *filter.From)
	}
	if filter.To != nil {
		query = query.Where("created_at <= ?", *filter.To)
	}
	return query
}

func (r *GormOrderRepository) List(ctx context.Context, filter OrderFilter, page Page) ([]*domain.Order, int64, error) {
	var total int64
	if err := r.filtered(ctx, filter).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var orders []*domain.Order
	err := r.filtered(ctx, filter).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("order_items.id ASC") }).
		Preload("Items.Product").
		Preload("User", withoutPassword).
		Order("created_at DESC").
		Offset(page.Offset()).
		Limit(page.Limit()).
		Find(&orders).Error
	return orders, total, err
}

func (r *GormOrderRepository) ListAll(ctx context.Context, filter OrderFilter) ([]*domain.Order, error) {
	var orders []*domain.Order
	err := r.filtered(ctx, filter).
		Preload("User", withoutPassword).
		Order("created_at DESC").
		Find(&orders).Error
	return orders, err
}

func (r *GormOrderRepository) UpdateStatus(ctx context.Context, id int64, status string) error {
	res := r.db.WithContext(ctx).
		Model(&domain.Order{}).
		Where("id = ?", id).
		Omit(clause.Associations).
		Updates(map[string]interface{}{
			"status":     status,
			"updated_at": time.Now(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
