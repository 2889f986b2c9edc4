// Package dbtest provides throwaway SQLite databases and fixtures for tests.
package dbtest

import (
	"fmt"
	"testing"
	"time"

	"github.com/chetan13062004/agromate/internal/domain"
	"github.com/chetan13062004/agromate/pkg/common"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Open returns a migrated in-memory database private to the test
func Open(t testing.TB) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:agromate_%d?mode=memory&cache=shared", common.UUIDint64())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:                                   logger.Default.LogMode(logger.Silent),
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	if err := db.AutoMigrate(domain.Tables...); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	t.Cleanup(func() { _ = sqlDB.Close() })
	return db
}

// CreateUser inserts a user with the given role; farmers are approved
func CreateUser(t testing.TB, db *gorm.DB, role, email string) *domain.User {
	t.Helper()
	u := &domain.User{
		ID:         common.UUIDint64(),
		Name:       role + " user",
		Email:      email,
		Password:   "x",
		Role:       role,
		IsApproved: role == domain.RoleFarmer,
		CreatedAt:  time.Now(),
		UpdatedAt:  time.Now(),
	}
	if err := db.Create(u).Error; err != nil {
		t.Fatalf("create user: %v", err)
	}
	return u
}

// CreateProduct inserts an active product owned by farmerID
func CreateProduct(t testing.TB, db *gorm.DB, farmerID int64, name string, price float64, stock int) *domain.Product {
	t.Helper()
	p := &domain.Product{
		ID:       common.UUIDint64(),
		Name:     name,
		Category: "vegetables",
		Price:    price,
		Unit:     domain.UnitKg,
		Stock:    stock,
		Status:   domain.ProductActive,
		FarmerID: farmerID,
	}
	p.ApplyStockRules()
	if err := db.Omit("Farmer").Create(p).Error; err != nil {
		t.Fatalf("create product: %v", err)
	}
	return p
}

// ReloadProduct reads the current row
func ReloadProduct(t testing.TB, db *gorm.DB, id int64) *domain.Product {
	t.Helper()
	var p domain.Product
	if err := db.First(&p, id).Error; err != nil {
		t.Fatalf("reload product: %v", err)
	}
	return &p
}

// CountOrders returns the number of stored orders
func CountOrders(t testing.TB, db *gorm.DB) int64 {
	t.Helper()
	var n int64
	if err := db.Model(&domain.Order{}).Count(&n).Error; err != nil {
		t.Fatalf("count orders: %v", err)
	}
	return n
}
