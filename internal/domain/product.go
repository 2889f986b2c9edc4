package domain

import "time"

// Product units
const (
	UnitKg    = "kg"
	UnitGram  = "g"
	UnitPiece = "piece"
	UnitBunch = "bunch"
	UnitLiter = "liter"
)

// Product statuses
const (
	ProductDraft      = "draft"
	ProductActive     = "active"
	ProductInactive   = "inactive"
	ProductOutOfStock = "out_of_stock"
)

var productUnits = map[string]bool{UnitKg: true, UnitGram: true, UnitPiece: true, UnitBunch: true, UnitLiter: true}

var productStatuses = map[string]bool{ProductDraft: true, ProductActive: true, ProductInactive: true, ProductOutOfStock: true}

// ValidUnit reports whether u is a supported selling unit
func ValidUnit(u string) bool { return productUnits[u] }

// ValidProductStatus reports whether s is a known product status
func ValidProductStatus(s string) bool { return productStatuses[s] }

// Product is produce listed by a farmer
type Product struct {
	ID          int64     `json:"id,string" gorm:"primaryKey;autoIncrement:false"`
	Name        string    `json:"name" gorm:"size:200;index"`
	Description string    `json:"description" gorm:"type:text"`
	Category    string    `json:"category" gorm:"size:64;index"`
	Price       float64   `json:"price"`
	Unit        string    `json:"unit" gorm:"size:16"`
	Stock       int       `json:"stock"`
	Status      string    `json:"status" gorm:"size:20;index"`
	Image       string    `json:"image" gorm:"size:1024"`
	FarmerID    int64     `json:"farmerId,string" gorm:"index"`
	Farmer      *User     `json:"farmer,omitempty" gorm:"foreignKey:FarmerID"`
	TotalSold   int       `json:"totalSold" gorm:"default:0"`
	Revenue     float64   `json:"revenue" gorm:"default:0"`
	Views       int       `json:"views" gorm:"default:0"`
	TotalValue  float64   `json:"totalValue" gorm:"default:0"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// TableName Specify table name
func (Product) TableName() string {
	return "products"
}

// ApplyStockRules keeps status and totalValue consistent with stock.
// Stock at or below zero forces out_of_stock; a product only leaves
// out_of_stock (back to active) once stock is positive again.
func (p *Product) ApplyStockRules() {
	if p.Stock <= 0 {
		p.Stock = 0
		p.Status = ProductOutOfStock
	} else if p.Status == ProductOutOfStock {
		p.Status = ProductActive
	}
	p.TotalValue = p.Price * float64(p.Stock)
}

// Purchasable reports whether the product can be added to a cart
func (p *Product) Purchasable() bool {
	return p != nil && p.Status == ProductActive
}
