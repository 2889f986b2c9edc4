package repository

import (
	"context"
	"time"

	"github.com/chetan13062004/agromate/internal/domain"
	"github.com/chetan13062004/agromate/pkg/common"
	"gorm.io/gorm"
)

// EquipmentRepository handles rental equipment listings
type EquipmentRepository interface {
	Create(ctx context.Context, e *domain.Equipment) error
	Save(ctx context.Context, e *domain.Equipment) error
	GetByID(ctx context.Context, id int64) (*domain.Equipment, error)
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context, category string, onlyAvailable bool, page Page) ([]*domain.Equipment, int64, error)
}

// GormEquipmentRepository is the GORM implementation of EquipmentRepository
type GormEquipmentRepository struct {
	db *gorm.DB
}

func NewGormEquipmentRepository(db *gorm.DB) *GormEquipmentRepository {
	return &GormEquipmentRepository{db: db}
}

func (r *GormEquipmentRepository) Create(ctx context.Context, e *domain.Equipment) error {
	if e.ID == 0 {
		e.ID = common.UUIDint64()
	}
	return r.db.WithContext(ctx).Omit("Owner").Create(e).Error
}

func (r *GormEquipmentRepository) Save(ctx context.Context, e *domain.Equipment) error {
	e.UpdatedAt = time.Now()
	return r.db.WithContext(ctx).Omit("Owner").Save(e).Error
}

func (r *GormEquipmentRepository) GetByID(ctx context.Context, id int64) (*domain.Equipment, error) {
	var e domain.Equipment
	if err := r.db.WithContext(ctx).First(&e, id).Error; err != nil {
		return nil, err
	}
	return &e, nil
}

func (r *GormEquipmentRepository) Delete(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Delete(&domain.Equipment{}, id).Error
}

func (r *GormEquipmentRepository) List(ctx context.Context, category string, onlyAvailable bool, page Page) ([]*domain.Equipment, int64, error) {
	var rows []*domain.Equipment
	var total int64

	query := r.db.WithContext(ctx).Model(&domain.Equipment{})
	if category != "" {
		query = query.Where("category = ?", category)
	}
	if onlyAvailable {
		query = query.Where("available = ?", true)
	}
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := query.
		Preload("Owner").
		Order("created_at DESC").
		Offset(page.Offset()).
		Limit(page.Limit()).
		Find(&rows).Error
	return rows, total, err
}
