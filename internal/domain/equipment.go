package domain

import "time"

// Equipment is farm machinery offered for rent by a farmer
type Equipment struct {
	ID          int64     `json:"id,string" gorm:"primaryKey;autoIncrement:false"`
	OwnerID     int64     `json:"ownerId,string" gorm:"index"`
	Owner       *User     `json:"owner,omitempty" gorm:"foreignKey:OwnerID"`
	Name        string    `json:"name" gorm:"size:200"`
	Description string    `json:"description" gorm:"type:text"`
	Category    string    `json:"category" gorm:"size:64;index"`
	PricePerDay float64   `json:"pricePerDay"`
	Available   bool      `json:"available" gorm:"default:true"`
	Image       string    `json:"image" gorm:"size:1024"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func (Equipment) TableName() string {
	return "equipment"
}
