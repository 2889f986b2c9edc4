package domain

import "time"

// Cart holds a single user's pending purchase lines
type Cart struct {
	ID        int64      `json:"id,string" gorm:"primaryKey;autoIncrement:false"`
	UserID    int64      `json:"userId,string" gorm:"uniqueIndex"`
	Items     []CartItem `json:"items" gorm:"foreignKey:CartID"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

// TableName Specify table name
func (Cart) TableName() string {
	return "carts"
}

// CartItem is one line of a cart; line order follows ID
type CartItem struct {
	ID        int64     `json:"-" gorm:"primaryKey;autoIncrement"`
	CartID    int64     `json:"-" gorm:"uniqueIndex:idx_cart_product"`
	ProductID int64     `json:"productId,string" gorm:"uniqueIndex:idx_cart_product"`
	Product   *Product  `json:"product,omitempty" gorm:"foreignKey:ProductID"`
	Quantity  int       `json:"quantity"`
	CreatedAt time.Time `json:"-"`
}

// TableName Specify table name
func (CartItem) TableName() string {
	return "cart_items"
}

// CartSummary is the priced view of a cart
type CartSummary struct {
	Items       []CartItem `json:"items"`
	Subtotal    float64    `json:"subtotal"`
	DeliveryFee float64    `json:"deliveryFee"`
	Total       float64    `json:"total"`
}
