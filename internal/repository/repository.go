// Package repository is the GORM-backed persistence layer.
package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
)

// Page describes a 1-based pagination window
type Page struct {
	Page     int
	PageSize int
}

func (p Page) normalize() Page {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.PageSize < 1 || p.PageSize > 500 {
		p.PageSize = 20
	}
	return p
}

func (p Page) Offset() int {
	n := p.normalize()
	return (n.Page - 1) * n.PageSize
}

func (p Page) Limit() int {
	return p.normalize().PageSize
}

// Number is the normalized 1-based page number
func (p Page) Number() int {
	return p.normalize().Page
}

// DateRange is an inclusive created-at window; nil bounds are open
type DateRange struct {
	From *time.Time
	To   *time.Time
}

// Store bundles the repositories sharing one database handle
type Store struct {
	db        *gorm.DB
	Users     UserRepository
	Products  ProductRepository
	Carts     CartRepository
	Orders    OrderRepository
	Wishlists WishlistRepository
	Equipment EquipmentRepository
	Stats     StatsRepository
}

// NewStore wires every GORM repository to db
func NewStore(db *gorm.DB) *Store {
	return &Store{
		db:        db,
		Users:     NewGormUserRepository(db),
		Products:  NewGormProductRepository(db),
		Carts:     NewGormCartRepository(db),
		Orders:    NewGormOrderRepository(db),
		Wishlists: NewGormWishlistRepository(db),
		Equipment: NewGormEquipmentRepository(db),
		Stats:     NewGormStatsRepository(db),
	}
}

// DB exposes the underlying handle
func (s *Store) DB() *gorm.DB {
	return s.db
}

// Transaction runs fn with a Store bound to a single database transaction.
// Returning an error rolls every write back.
func (s *Store) Transaction(ctx context.Context, fn func(tx *Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewStore(tx))
	})
}
