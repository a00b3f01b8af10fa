package models

import (
	"strings"
	"time"
)

// Guest is matched by email or normalized phone at the application level,
// there is no unique constraint. Guests are blacklisted, never deleted.
type Guest struct {
	ID uint `gorm:"primaryKey;autoIncrement" json:"id"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	FirstName string `gorm:"size:150" json:"firstName"`
	LastName  string `gorm:"size:150" json:"lastName"`
	Email     string `gorm:"size:255;index" json:"email"`
	Phone     string `gorm:"size:50" json:"phone"`

	// digits only, country prefix removed
	PhoneNormalized string `gorm:"column:phone_normalized;size:32;index" json:"-"`

	Nationality string `gorm:"size:100" json:"nationality"`

	Blacklisted     bool   `gorm:"default:false" json:"blacklisted"`
	BlacklistReason string `gorm:"size:255" json:"blacklistReason,omitempty"`

	Documents []GuestDocument `gorm:"foreignKey:GuestID" json:"documents,omitempty"`
}

func (g Guest) FullName() string {
	return strings.TrimSpace(g.FirstName + " " + g.LastName)
}
