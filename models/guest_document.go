package models

import "time"

// GuestDocument is an identity document attached to a guest.
type GuestDocument struct {
	ID      uint `gorm:"primaryKey" json:"id"`
	GuestID uint `gorm:"index;not null" json:"guestId"`

	IDType          string `gorm:"size:50" json:"idType"`
	IDNumber        string `gorm:"size:100" json:"idNumber"`
	IDIssuedCountry string `gorm:"size:100" json:"idIssuedCountry"`
	ImagePath       string `gorm:"size:255" json:"imagePath"`

	CreatedAt time.Time `json:"createdAt"`
}
