package models

import (
	"time"

	"hotel-inventory/daterange"
)

// RateVariant bundles a meal plan and a cancellation policy for a room type
// over [ValidFrom, ValidTo). Amounts are per night except PolicyAdjustment,
// which applies once per stay and may be negative.
type RateVariant struct {
	ID         uint `gorm:"primaryKey" json:"id"`
	RoomTypeID uint `gorm:"index;not null" json:"roomTypeId"`

	Label              string `gorm:"size:150" json:"label"`
	MealPlan           string `gorm:"size:20" json:"mealPlan"`
	CancellationPolicy string `gorm:"size:50" json:"cancellationPolicy"`

	ValidFrom time.Time `gorm:"type:date" json:"validFrom"`
	ValidTo   time.Time `gorm:"type:date" json:"validTo"`

	NightlyRate      int64 `json:"nightlyRate"`
	MealCostPerNight int64 `json:"mealCostPerNight"`
	PolicyAdjustment int64 `json:"policyAdjustment"`

	Active bool `gorm:"default:true" json:"active"`
}

// Covers reports whether the whole stay falls inside the validity window.
func (v RateVariant) Covers(r daterange.Range) bool {
	if !r.Valid() {
		return false
	}
	from, to := daterange.Day(v.ValidFrom), daterange.Day(v.ValidTo)
	return !r.CheckIn.Before(from) && !r.CheckOut.After(to)
}
