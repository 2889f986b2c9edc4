package service

import (
	"context"
	"strings"
	"time"

	"github.com/chetan13062004/agromate/internal/apperr"
	"github.com/chetan13062004/agromate/internal/domain"
	"github.com/chetan13062004/agromate/internal/repository"
	"go.uber.org/zap"
)

// ProductInput is the farmer-editable part of a product
type ProductInput struct {
	Name        string  `json:"name" validate:"required,min=1,max=200"`
	Description string  `json:"description" validate:"omitempty,max=5000"`
	Category    string  `json:"category" validate:"required,max=64"`
	Price       float64 `json:"price" validate:"gte=0"`
	Unit        string  `json:"unit" validate:"required,oneof=kg g piece bunch liter"`
	Stock       int     `json:"stock" validate:"gte=0"`
	Image       string  `json:"image" validate:"omitempty,max=1024"`
	// Status may be draft or active; out_of_stock is derived from stock
	Status string `json:"status" validate:"omitempty,oneof=draft active inactive"`
}

func (in *ProductInput) normalize() error {
	in.Name = strings.TrimSpace(in.Name)
	in.Category = strings.ToLower(strings.TrimSpace(in.Category))
	in.Image = strings.TrimSpace(in.Image)
	if in.Name == "" {
		return apperr.Validation("Name is required")
	}
	if in.Price < 0 {
		return apperr.Validation("Price must be >= 0")
	}
	if in.Stock < 0 {
		return apperr.Validation("Stock must be >= 0")
	}
	if !domain.ValidUnit(in.Unit) {
		return apperr.Validation("Unit must be one of kg, g, piece, bunch, liter")
	}
	if in.Status != "" && in.Status != domain.ProductDraft && in.Status != domain.ProductActive && in.Status != domain.ProductInactive {
		return apperr.Validation("Invalid status %q", in.Status)
	}
	return nil
}

// ProductService manages the catalogue
type ProductService struct {
	store *repository.Store
}

func NewProductService(store *repository.Store) *ProductService {
	return &ProductService{store: store}
}

// Create lists a new product for an approved farmer
func (s *ProductService) Create(ctx context.Context, farmer *domain.User, in ProductInput) (*domain.Product, error) {
	if !farmer.CanSell() {
		return nil, apperr.Forbidden("Only approved farmers can list products")
	}
	if err := in.normalize(); err != nil {
		return nil, err
	}
	if in.Status == "" {
		in.Status = domain.ProductActive
	}
	now := time.Now()
	p := &domain.Product{
		Name:        in.Name,
		Description: in.Description,
		Category:    in.Category,
		Price:       in.Price,
		Unit:        in.Unit,
		Stock:       in.Stock,
		Status:      in.Status,
		Image:       in.Image,
		FarmerID:    farmer.ID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	p.ApplyStockRules()
	if err := s.store.Products.Create(ctx, p); err != nil {
		return nil, apperr.Internal(err, "Failed to create product")
	}
	zap.L().Info("product created", zap.Int64("product_id", p.ID), zap.Int64("farmer_id", farmer.ID))
	return p, nil
}

// Update rewrites a product owned by the caller (or any product for an admin)
func (s *ProductService) Update(ctx context.Context, user *domain.User, id int64, in ProductInput) (*domain.Product, error) {
	p, err := s.owned(ctx, user, id)
	if err != nil {
		return nil, err
	}
	if err := in.normalize(); err != nil {
		return nil, err
	}
	// inactive and draft products go live through admin approval only
	if in.Status == domain.ProductActive && !user.IsAdmin() &&
		(p.Status == domain.ProductInactive || p.Status == domain.ProductDraft) {
		return nil, apperr.Forbidden("Product requires admin approval to become active")
	}
	p.Name = in.Name
	p.Description = in.Description
	p.Category = in.Category
	p.Price = in.Price
	p.Unit = in.Unit
	p.Stock = in.Stock
	p.Image = in.Image
	// an empty status keeps the current one; out_of_stock stays until restocked
	if in.Status != "" && (p.Status != domain.ProductOutOfStock || in.Status != domain.ProductActive) {
		p.Status = in.Status
	}
	p.ApplyStockRules()
	if err := s.store.Products.UpdateDetails(ctx, p); err != nil {
		return nil, apperr.Internal(err, "Failed to update product")
	}
	// reload so counters written by concurrent checkouts are reported
	if fresh, err := s.store.Products.GetByID(ctx, id); err == nil {
		return fresh, nil
	}
	return p, nil
}

// Delete removes a product owned by the caller (or any product for an admin)
func (s *ProductService) Delete(ctx context.Context, user *domain.User, id int64) error {
	if _, err := s.owned(ctx, user, id); err != nil {
		return err
	}
	if err := s.store.Products.Delete(ctx, id); err != nil {
		return apperr.Internal(err, "Failed to delete product")
	}
	return nil
}

// Get returns a publicly visible product and counts the view
func (s *ProductService) Get(ctx context.Context, id int64) (*domain.Product, error) {
	p, err := s.store.Products.GetByID(ctx, id)
	if err != nil {
		if isNotFound(err) {
			return nil, apperr.NotFound("Product not found")
		}
		return nil, apperr.Internal(err, "Failed to query product")
	}
	if p.Status != domain.ProductActive && p.Status != domain.ProductOutOfStock {
		return nil, apperr.NotFound("Product not found")
	}
	if err := s.store.Products.IncrementViews(ctx, id); err != nil {
		zap.L().Warn("failed to count product view", zap.Int64("product_id", id), zap.Error(err))
	} else {
		p.Views++
	}
	return p, nil
}

// List returns the public catalogue (active products unless a status is given)
func (s *ProductService) List(ctx context.Context, filter repository.ProductFilter, page repository.Page) ([]*domain.Product, int64, error) {
	if filter.Status == "" {
		filter.Status = domain.ProductActive
	} else if !domain.ValidProductStatus(filter.Status) {
		return nil, 0, apperr.Validation("Invalid status %q", filter.Status)
	}
	rows, total, err := s.store.Products.List(ctx, filter, page)
	if err != nil {
		return nil, 0, apperr.Internal(err, "Failed to query products")
	}
	return rows, total, nil
}

// ListAll is the admin listing, every status unless one is given
func (s *ProductService) ListAll(ctx context.Context, filter repository.ProductFilter, page repository.Page) ([]*domain.Product, int64, error) {
	if filter.Status != "" && !domain.ValidProductStatus(filter.Status) {
		return nil, 0, apperr.Validation("Invalid status %q", filter.Status)
	}
	rows, total, err := s.store.Products.List(ctx, filter, page)
	if err != nil {
		return nil, 0, apperr.Internal(err, "Failed to query products")
	}
	return rows, total, nil
}

// ListMine returns every product of a farmer regardless of status
func (s *ProductService) ListMine(ctx context.Context, farmerID int64, page repository.Page) ([]*domain.Product, int64, error) {
	rows, total, err := s.store.Products.List(ctx, repository.ProductFilter{FarmerID: farmerID}, page)
	if err != nil {
		return nil, 0, apperr.Internal(err, "Failed to query products")
	}
	return rows, total, nil
}

// Approve publishes a product: active when stocked, out_of_stock otherwise
func (s *ProductService) Approve(ctx context.Context, id int64) (*domain.Product, error) {
	p, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	status := domain.ProductActive
	if p.Stock <= 0 {
		status = domain.ProductOutOfStock
	}
	return s.setStatus(ctx, p, status)
}

// Reject hides a product from the catalogue
func (s *ProductService) Reject(ctx context.Context, id int64) (*domain.Product, error) {
	p, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.setStatus(ctx, p, domain.ProductInactive)
}

// Toggle flips between active and inactive. This is an explicit override
// and is not corrected against stock.
func (s *ProductService) Toggle(ctx context.Context, id int64) (*domain.Product, error) {
	p, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	status := domain.ProductInactive
	if p.Status != domain.ProductActive {
		status = domain.ProductActive
	}
	return s.setStatus(ctx, p, status)
}

func (s *ProductService) setStatus(ctx context.Context, p *domain.Product, status string) (*domain.Product, error) {
	if err := s.store.Products.SetStatus(ctx, p.ID, status); err != nil {
		return nil, apperr.Internal(err, "Failed to update product status")
	}
	zap.L().Info("product status set by admin",
		zap.Int64("product_id", p.ID),
		zap.String("from", p.Status),
		zap.String("to", status))
	p.Status = status
	return p, nil
}

func (s *ProductService) load(ctx context.Context, id int64) (*domain.Product, error) {
	p, err := s.store.Products.GetByID(ctx, id)
	if err != nil {
		if isNotFound(err) {
			return nil, apperr.NotFound("Product not found")
		}
		return nil, apperr.Internal(err, "Failed to query product")
	}
	return p, nil
}

func (s *ProductService) owned(ctx context.Context, user *domain.User, id int64) (*domain.Product, error) {
	p, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !user.IsAdmin() && p.FarmerID != user.ID {
		return nil, apperr.Forbidden("Not authorized to modify this product")
	}
	return p, nil
}
