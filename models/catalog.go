package models

// Add-on kinds.
const (
	AddonMeal     = "meal"
	AddonActivity = "activity"
	AddonSpa      = "spa"
)

// Meal slots priced per guest per night.
const (
	SlotBreakfast = "breakfast"
	SlotLunch     = "lunch"
	SlotHighTea   = "high_tea"
	SlotDinner    = "dinner"
)

type Addon struct {
	ID     uint   `gorm:"primaryKey" json:"id"`
	Kind   string `gorm:"size:20;index" json:"kind"`
	Name   string `gorm:"size:150" json:"name"`
	Price  int64  `json:"price"`
	Active bool   `gorm:"default:true;index" json:"active"`
}

type MealRate struct {
	ID     uint   `gorm:"primaryKey" json:"id"`
	Slot   string `gorm:"size:20;uniqueIndex" json:"slot"`
	Price  int64  `json:"price"`
	Active bool   `gorm:"default:true" json:"active"`
}

type PickupService struct {
	ID     uint   `gorm:"primaryKey" json:"id"`
	Name   string `gorm:"size:150" json:"name"`
	Price  int64  `json:"price"`
	Active bool   `gorm:"default:true" json:"active"`
}

type BeddingOption struct {
	ID     uint   `gorm:"primaryKey" json:"id"`
	Name   string `gorm:"size:150" json:"name"`
	Price  int64  `json:"price"`
	Active bool   `gorm:"default:true" json:"active"`
}
