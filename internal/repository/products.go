package repository

import (
	"context"
	"strings"
	"time"

	"github.com/chetan13062004/agromate/internal/domain"
	"github.com/chetan13062004/agromate/pkg/common"
	"gorm.io/gorm"
)

// ProductFilter narrows product listings; zero values are ignored
type ProductFilter struct {
	Status   string
	Category string
	Query    string
	FarmerID int64
	MinPrice float64
	MaxPrice float64
	Sort     string // price, -price, newest, popular
}

// ProductRepository handles product persistence
type ProductRepository interface {
	Create(ctx context.Context, p *domain.Product) error
	UpdateDetails(ctx context.Context, p *domain.Product) error
	GetByID(ctx context.Context, id int64) (*domain.Product, error)
	// GetByIDs loads the given products keyed by id, missing ids are absent
	GetByIDs(ctx context.Context, ids []int64) (map[int64]*domain.Product, error)
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context, filter ProductFilter, page Page) ([]*domain.Product, int64, error)
	IncrementViews(ctx context.Context, id int64) error
	// SetStatus writes an explicit status without applying stock rules
	SetStatus(ctx context.Context, id int64, status string) error
	// DecrementStock applies a checkout line: it succeeds only when the
	// product is active with at least qty units, and reports whether it did.
	DecrementStock(ctx context.Context, id int64, qty int, unitPrice float64) (bool, error)
	// RefreshTotalValues recomputes drifted totalValue columns, returning rows fixed.
	// Statuses are left alone so explicit admin overrides survive.
	RefreshTotalValues(ctx context.Context) (int64, error)
	CountByStatus(ctx context.Context, status string) (int64, error)
}

// GormProductRepository is the GORM implementation of ProductRepository
type GormProductRepository struct {
	db *gorm.DB
}

func NewGormProductRepository(db *gorm.DB) *GormProductRepository {
	return &GormProductRepository{db: db}
}

func (r *GormProductRepository) Create(ctx context.Context, p *domain.Product) error {
	if p.ID == 0 {
		p.ID = common.UUIDint64()
	}
	return r.db.WithContext(ctx).Omit("Farmer").Create(p).Error
}

// productDetailColumns are the columns an edit may write; sales counters
// and views are only moved by their own atomic updates
var productDetailColumns = []string{
	"name", "description", "category", "price", "unit",
	"stock", "image", "status", "total_value", "updated_at",
}

func (r *GormProductRepository) UpdateDetails(ctx context.Context, p *domain.Product) error {
	p.UpdatedAt = time.Now()
	return r.db.WithContext(ctx).
		Model(p).
		Select(productDetailColumns).
		Updates(p).Error
}

func (r *GormProductRepository) GetByID(ctx context.Context, id int64) (*domain.Product, error) {
	var p domain.Product
	if err := r.db.WithContext(ctx).First(&p, id).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *GormProductRepository) GetByIDs(ctx context.Context, ids []int64) (map[int64]*domain.Product, error) {
	result := make(map[int64]*domain.Product, len(ids))
	if len(ids) == 0 {
		return result, nil
	}
	var rows []*domain.Product
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, err
	}
	for _, p := range rows {
		result[p.ID] = p
	}
	return result, nil
}

func (r *GormProductRepository) Delete(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Delete(&domain.Product{}, id).Error
}

func (r *GormProductRepository) List(ctx context.Context, filter ProductFilter, page Page) ([]*domain.Product, int64, error) {
	var rows []*domain.Product
	var total int64

	query := r.db.WithContext(ctx).Model(&domain.Product{})
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.Category != "" {
		query = query.Where("category = ?", filter.Category)
	}
	if filter.FarmerID != 0 {
		query = query.Where("farmer_id = ?", filter.FarmerID)
	}
	if filter.MinPrice > 0 {
		query = query.Where("price >= ?", filter.MinPrice)
	}
	if filter.MaxPrice > 0 {
		query = query.Where("price <= ?", filter.MaxPrice)
	}
	if q := strings.TrimSpace(filter.Query); q != "" {
		if strings.EqualFold(r.db.Name(), "postgres") {
			query = query.Where("name ILIKE ? OR description ILIKE ?", "%"+q+"%", "%"+q+"%")
		} else {
			like := "%" + strings.ToLower(q) + "%"
			query = query.Where("LOWER(name) LIKE ? OR LOWER(description) LIKE ?", like, like)
		}
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	// whitelist sort expressions
	order := "created_at DESC"
	switch filter.Sort {
	case "price":
		order = "price ASC"
	case "-price":
		order = "price DESC"
	case "popular":
		order = "total_sold DESC"
	}

	err := query.
		Preload("Farmer").
		Order(order).
		Offset(page.Offset()).
		Limit(page.Limit()).
		Find(&rows).Error
	return rows, total, err
}

func (r *GormProductRepository) IncrementViews(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).
		Model(&domain.Product{}).
		Where("id = ?", id).
		UpdateColumn("views", gorm.Expr("views + 1")).Error
}

func (r *GormProductRepository) SetStatus(ctx context.Context, id int64, status string) error {
	res := r.db.WithContext(ctx).
		Model(&domain.Product{}).
		Where("id = ?", id).
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

func (r *GormProductRepository) DecrementStock(ctx context.Context, id int64, qty int, unitPrice float64) (bool, error) {
	// SET expressions read the pre-update row on both postgres and sqlite
	res := r.db.WithContext(ctx).
		Model(&domain.Product{}).
		Where("id = ? AND status = ? AND stock >= ?", id, domain.ProductActive, qty).
		Updates(map[string]interface{}{
			"stock":       gorm.Expr("stock - ?", qty),
			"total_sold":  gorm.Expr("total_sold + ?", qty),
			"revenue":     gorm.Expr("revenue + ?", unitPrice*float64(qty)),
			"total_value": gorm.Expr("price * (stock - ?)", qty),
			"status":      gorm.Expr("CASE WHEN stock - ? <= 0 THEN ? ELSE ? END", qty, domain.ProductOutOfStock, domain.ProductActive),
			"updated_at":  time.Now(),
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *GormProductRepository) RefreshTotalValues(ctx context.Context) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&domain.Product{}).
		Where("total_value <> price * stock").
		UpdateColumn("total_value", gorm.Expr("price * stock"))
	return res.RowsAffected, res.Error
}

func (r *GormProductRepository) CountByStatus(ctx context.Context, status string) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&domain.Product{}).Where("status = ?", status).Count(&n).Error
	return n, err
}
