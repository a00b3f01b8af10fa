package models

import (
	"gorm.io/gorm"
)

// Operational status of a room unit.
const (
	UnitActive      = "active"
	UnitMaintenance = "maintenance"
	UnitInactive    = "inactive"
)

// Room is one physically bookable unit. It always belongs to one RoomType.
type Room struct {
	gorm.Model

	RoomTypeID uint   `json:"roomTypeId" gorm:"column:room_type_id;not null;index"`
	RoomNumber string `json:"roomNumber" gorm:"column:room_number;uniqueIndex;type:varchar(50)"`
	Label      string `json:"label"      gorm:"type:varchar(150)"`
	Floor      string `json:"floor"      gorm:"type:varchar(10)"`
	Status     string `json:"status"     gorm:"type:varchar(20);default:active"`

	RoomType *RoomType `gorm:"foreignKey:RoomTypeID" json:"roomType,omitempty"`
}

func ValidUnitStatus(s string) bool {
	switch s {
	case UnitActive, UnitMaintenance, UnitInactive:
		return true
	}
	return false
}
