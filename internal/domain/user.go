package domain

import "time"

// User roles
const (
	RoleBuyer  = "buyer"
	RoleFarmer = "farmer"
	RoleAdmin  = "admin"
)

// User is a marketplace account
type User struct {
	ID           int64     `json:"id,string" gorm:"primaryKey;autoIncrement:false"`
	Name         string    `json:"name" gorm:"size:120"`
	Email        string    `json:"email" gorm:"size:200;uniqueIndex"`
	Password     string    `json:"-" gorm:"size:100"`
	Role         string    `json:"role" gorm:"size:16;index"`
	IsApproved   bool      `json:"isApproved" gorm:"default:false"`
	Phone        string    `json:"phone" gorm:"size:32"`
	Address      string    `json:"address" gorm:"size:500"`
	FarmName     string    `json:"farmName,omitempty" gorm:"size:200"`
	FarmLocation string    `json:"farmLocation,omitempty" gorm:"size:200"`
	LastLogin    time.Time `json:"lastLogin"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// TableName Specify table name
func (User) TableName() string {
	return "users"
}

func (u *User) IsAdmin() bool {
	return u != nil && u.Role == RoleAdmin
}

// CanSell reports whether the user may list products and equipment
func (u *User) CanSell() bool {
	return u != nil && u.Role == RoleFarmer && u.IsApproved
}
