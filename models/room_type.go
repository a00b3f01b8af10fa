package models

import (
	"time"

	"gorm.io/gorm"
)

// RoomType is a sellable category of room units. BasePrice is the nightly
// price in minor currency units.
type RoomType struct {
	ID uint `gorm:"primaryKey" json:"id"`

	Name        string `gorm:"size:150;not null" json:"name"`
	Description string `gorm:"type:text" json:"description"`
	MaxGuests   int    `gorm:"column:max_guests;not null;default:1" json:"maxGuests"`
	BasePrice   int64  `gorm:"column:base_price;not null;default:0" json:"basePrice"`
	Published   bool   `gorm:"default:true" json:"published"`

	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	Rooms []Room `gorm:"foreignKey:RoomTypeID" json:"rooms,omitempty"`
}
