package repository

import (
	"context"
	"time"

	"github.com/chetan13062004/agromate/internal/domain"
	"gorm.io/gorm"
)

// GroupCount is one row of a GROUP BY count
type GroupCount struct {
	Key   string  `gorm:"column:group_key"`
	Count int64   `gorm:"column:group_count"`
	Sum   float64 `gorm:"column:group_sum"`
}

// SaleLine is one order line of a farmer's product
type SaleLine struct {
	OrderID   int64
	ProductID int64
	Quantity  int
	Price     float64
	Status    string
	CreatedAt time.Time
}

// StatsRepository runs the aggregate queries behind the dashboards
type StatsRepository interface {
	UsersByRole(ctx context.Context) ([]GroupCount, error)
	PendingFarmers(ctx context.Context) (int64, error)
	ProductsByStatus(ctx context.Context, farmerID int64) ([]GroupCount, error)
	OrdersByStatus(ctx context.Context) ([]GroupCount, error)
	FarmerProducts(ctx context.Context, farmerID int64) ([]*domain.Product, error)
	FarmerSales(ctx context.Context, farmerID int64) ([]SaleLine, error)
}

type GormStatsRepository struct {
	db *gorm.DB
}

func NewGormStatsRepository(db *gorm.DB) *GormStatsRepository {
	return &GormStatsRepository{db: db}
}

func (r *GormStatsRepository) UsersByRole(ctx context.Context) ([]GroupCount, error) {
	var rows []GroupCount
	err := r.db.WithContext(ctx).
		Model(&domain.User{}).
		Select("role AS group_key, COUNT(*) AS group_count").
		Group("role").
		Scan(&rows).Error
	return rows, err
}

func (r *GormStatsRepository) PendingFarmers(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).
		Model(&domain.User{}).
		Where("role = ? AND is_approved = ?", domain.RoleFarmer, false).
		Count(&n).Error
	return n, err
}

// ProductsByStatus counts products per status, all farmers when farmerID is 0.
// Sum carries the inventory value.
func (r *GormStatsRepository) ProductsByStatus(ctx context.Context, farmerID int64) ([]GroupCount, error) {
	var rows []GroupCount
	query := r.db.WithContext(ctx).
		Model(&domain.Product{}).
		Select("status AS group_key, COUNT(*) AS group_count, COALESCE(SUM(total_value), 0) AS group_sum")
	if farmerID != 0 {
		query = query.Where("farmer_id = ?", farmerID)
	}
	err := query.Group("status").Scan(&rows).Error
	return rows, err
}

// OrdersByStatus counts orders per status with the summed totals
func (r *GormStatsRepository) OrdersByStatus(ctx context.Context) ([]GroupCount, error) {
	var rows []GroupCount
	err := r.db.WithContext(ctx).
		Model(&domain.Order{}).
		Select("status AS group_key, COUNT(*) AS group_count, COALESCE(SUM(total), 0) AS group_sum").
		Group("status").
		Scan(&rows).Error
	return rows, err
}

func (r *GormStatsRepository) FarmerProducts(ctx context.Context, farmerID int64) ([]*domain.Product, error) {
	var rows []*domain.Product
	err := r.db.WithContext(ctx).
		Where("farmer_id = ?", farmerID).
		Order("total_sold DESC, id").
		Find(&rows).Error
	return rows, err
}

func (r *GormStatsRepository) FarmerSales(ctx context.Context, farmerID int64) ([]SaleLine, error) {
	var rows []SaleLine
	err := r.db.WithContext(ctx).
		Table("order_items").
		Select("order_items.order_id, order_items.product_id, order_items.quantity, order_items.price, orders.status, orders.created_at").
		Joins("JOIN orders ON orders.id = order_items.order_id").
		Joins("JOIN products ON products.id = order_items.product_id").
		Where("products.farmer_id = ?", farmerID).
		Order("orders.created_at").
		Scan(&rows).Error
	return rows, err
}
