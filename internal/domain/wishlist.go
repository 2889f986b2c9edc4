package domain

import "time"

// WishlistItem links a user to a saved product
type WishlistItem struct {
	ID        int64     `json:"-" gorm:"primaryKey;autoIncrement"`
	UserID    int64     `json:"-" gorm:"uniqueIndex:idx_wishlist_user_product"`
	ProductID int64     `json:"productId,string" gorm:"uniqueIndex:idx_wishlist_user_product"`
	Product   *Product  `json:"product,omitempty" gorm:"foreignKey:ProductID"`
	CreatedAt time.Time `json:"createdAt"`
}

func (WishlistItem) TableName() string {
	return "wishlist_items"
}
