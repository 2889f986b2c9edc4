package service

import (
	"context"
	"strings"
	"time"

	"github.com/chetan13062004/agromate/internal/apperr"
	"github.com/chetan13062004/agromate/internal/domain"
	"github.com/chetan13062004/agromate/internal/repository"
)

type EquipmentInput struct {
	Name        string  `json:"name" validate:"required,max=200"`
	Description string  `json:"description" validate:"omitempty,max=5000"`
	Category    string  `json:"category" validate:"required,max=64"`
	PricePerDay float64 `json:"pricePerDay" validate:"gte=0"`
	Available   *bool   `json:"available"`
	Image       string  `json:"image" validate:"omitempty,max=1024"`
}

// EquipmentService manages rental listings
type EquipmentService struct {
	store *repository.Store
}

func NewEquipmentService(store *repository.Store) *EquipmentService {
	return &EquipmentService{store: store}
}

func (s *EquipmentService) List(ctx context.Context, category string, onlyAvailable bool, page repository.Page) ([]*domain.Equipment, int64, error) {
	rows, total, err := s.store.Equipment.List(ctx, strings.ToLower(strings.TrimSpace(category)), onlyAvailable, page)
	if err != nil {
		return nil, 0, apperr.Internal(err, "Failed to query equipment")
	}
	return rows, total, nil
}

func (s *EquipmentService) Create(ctx context.Context, owner *domain.User, in EquipmentInput) (*domain.Equipment, error) {
	if !owner.CanSell() {
		return nil, apperr.Forbidden("Only approved farmers can list equipment")
	}
	if err := in.check(); err != nil {
		return nil, err
	}
	now := time.Now()
	e := &domain.Equipment{OwnerID: owner.ID, Available: true, CreatedAt: now}
	in.applyTo(e)
	e.UpdatedAt = now
	if err := s.store.Equipment.Create(ctx, e); err != nil {
		return nil, apperr.Internal(err, "Failed to create equipment")
	}
	return e, nil
}

func (s *EquipmentService) Update(ctx context.Context, user *domain.User, id int64, in EquipmentInput) (*domain.Equipment, error) {
	e, err := s.owned(ctx, user, id)
	if err != nil {
		return nil, err
	}
	if err := in.check(); err != nil {
		return nil, err
	}
	in.applyTo(e)
	if err := s.store.Equipment.Save(ctx, e); err != nil {
		return nil, apperr.Internal(err, "Failed to update equipment")
	}
	return e, nil
}

func (s *EquipmentService) Delete(ctx context.Context, user *domain.User, id int64) error {
	if _, err := s.owned(ctx, user, id); err != nil {
		return err
	}
	if err := s.store.Equipment.Delete(ctx, id); err != nil {
		return apperr.Internal(err, "Failed to delete equipment")
	}
	return nil
}

func (s *EquipmentService) owned(ctx context.Context, user *domain.User, id int64) (*domain.Equipment, error) {
	e, err := s.store.Equipment.GetByID(ctx, id)
	if err != nil {
		if isNotFound(err) {
			return nil, apperr.NotFound("Equipment not found")
		}
		return nil, apperr.Internal(err, "Failed to query equipment")
	}
	if !user.IsAdmin() && e.OwnerID != user.ID {
		return nil, apperr.Forbidden("Not authorized to modify this equipment")
	}
	return e, nil
}

func (in *EquipmentInput) check() error {
	in.Name = strings.TrimSpace(in.Name)
	in.Category = strings.ToLower(strings.TrimSpace(in.Category))
	if in.Name == "" {
		return apperr.Validation("Name is required")
	}
	if in.PricePerDay < 0 {
		return apperr.Validation("Price per day must be >= 0")
	}
	return nil
}

func (in *EquipmentInput) applyTo(e *domain.Equipment) {
	e.Name = in.Name
	e.Description = in.Description
	e.Category = in.Category
	e.PricePerDay = in.PricePerDay
	e.Image = strings.TrimSpace(in.Image)
	if in.Available != nil {
		e.Available = *in.Available
	}
}
