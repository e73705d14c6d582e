package model

import (
	"time"
)

type User struct {
	ID           uint      `gorm:"primarykey" json:"id"`                         // user id
	Username     string    `gorm:"size:100;uniqueIndex;not null" json:"username"` // login name
	Email        string    `gorm:"size:255;uniqueIndex;not null" json:"email"`
	PasswordHash string    `gorm:"not null" json:"-"`
	FirstName    string    `json:"first_name"`
	LastName     string    `json:"last_name"`
	IsSeller     bool      `gorm:"not null;default:false" json:"is_seller"` // may manage the catalog
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`

	Cart          *Cart          `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	Comments      []Comment      `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	RefreshTokens []RefreshToken `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
}

func (User) TableName() string {
	return "users"
}
