package domain

import "time"

// Order statuses
const (
	OrderPlaced     = "placed"
	OrderProcessing = "processing"
	OrderInTransit  = "in_transit"
	OrderDelivered  = "delivered"
	OrderCancelled  = "cancelled"

	// OrderShippedLegacy is accepted on input and stored as in_transit
	OrderShippedLegacy = "shipped"
)

// NormalizeOrderStatus maps legacy aliases to stored values
func NormalizeOrderStatus(s string) string {
	if s == OrderShippedLegacy {
		return OrderInTransit
	}
	return s
}

// AdminSettableStatus reports statuses an admin may move an order to
func AdminSettableStatus(s string) bool {
	switch NormalizeOrderStatus(s) {
	case OrderProcessing, OrderInTransit, OrderDelivered, OrderCancelled:
		return true
	}
	return false
}

// Order is the immutable snapshot written by checkout
type Order struct {
	ID          int64       `json:"id,string" gorm:"primaryKey;autoIncrement:false"`
	UserID      int64       `json:"userId,string" gorm:"index"`
	User        *User       `json:"user,omitempty" gorm:"foreignKey:UserID"`
	Items       []OrderItem `json:"items" gorm:"foreignKey:OrderID"`
	Subtotal    float64     `json:"subtotal"`
	DeliveryFee float64     `json:"deliveryFee"`
	Total       float64     `json:"total"`
	Status      string      `json:"status" gorm:"size:20;index"`
	CreatedAt   time.Time   `json:"createdAt" gorm:"index"`
	UpdatedAt   time.Time   `json:"updatedAt"`
}

// TableName Specify table name
func (Order) TableName() string {
	return "orders"
}

// Terminal reports whether the order can no longer change status
func (o *Order) Terminal() bool {
	return o.Status == OrderDelivered || o.Status == OrderCancelled
}

// OrderItem records the price paid at checkout
type OrderItem struct {
	ID        int64    `json:"-" gorm:"primaryKey;autoIncrement"`
	OrderID   int64    `json:"-" gorm:"index"`
	ProductID int64    `json:"productId,string" gorm:"index"`
	Product   *Product `json:"product,omitempty" gorm:"foreignKey:ProductID"`
	Quantity  int      `json:"quantity"`
	Price     float64  `json:"price"`
}

// TableName Specify table name
func (OrderItem) TableName() string {
	return "order_items"
}
