package models

import (
	"time"

	"gorm.io/gorm"
)

// Admin is a back-office account. Password holds the bcrypt hash and never
// leaves the server.
type Admin struct {
	ID       uint   `gorm:"primaryKey" json:"id"`
	FullName string `gorm:"column:full_name;size:255" json:"fullName"`
	Username string `gorm:"uniqueIndex;size:150;not null" json:"username"`
	Password string `gorm:"size:255;not null" json:"-"`
	Role     string `gorm:"size:50;default:admin" json:"role"`

	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}
