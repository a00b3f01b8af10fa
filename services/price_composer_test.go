package services

import (
	"context"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hotel-inventory/models"
	"hotel-inventory/repository"
)

func TestComputeTotalHalfBoard(t *testing.T) {
	q := ComputeTotal(PriceInput{
		Nights:    2,
		BasePrice: 8500,
		Meal:      PlanMeal{Plan: MealHalfBoard, Rates: MealRates{Breakfast: 300, Dinner: 500, Lunch: 999}, Guests: 2, Nights: 2},
	})
	assert.Equal(t, int64(20200), q.Total)
	require.Len(t, q.Breakdown, 2)
	assert.Equal(t, LineItem{Kind: "room", Label: "Room x 2 nights", Amount: 17000}, q.Breakdown[0])
	assert.Equal(t, LineItem{Kind: "meal", Label: "Half board", Amount: 3200}, q.Breakdown[1])
	assert.False(t, q.Clamped)
}

func TestComputeTotalVariantReplacesMealPlan(t *testing.T) {
	q := ComputeTotal(PriceInput{
		Nights:    2,
		BasePrice: 8500,
		Variant:   &PricedVariant{Label: "Flexible", RoomRate: 18000, MealCost: 1200, PolicyAdjustment: 500, CancellationPolicy: "free"},
		Meal:      PlanMeal{Plan: MealFullBoard, Rates: MealRates{Breakfast: 300, Lunch: 400, HighTea: 100, Dinner: 500}, Guests: 2, Nights: 2},
	})
	assert.Equal(t, int64(18000+1200+500), q.Total)
	for _, l := range q.Breakdown {
		assert.NotEqual(t, "Full board", l.Label)
	}
	assert.Equal(t, "Room (Flexible)", q.Breakdown[0].Label)
	assert.Equal(t, "Cancellation policy (free)", q.Breakdown[2].Label)
}

func TestComputeTotalNeverNegative(t *testing.T) {
	q := ComputeTotal(PriceInput{
		Nights:  1,
		Variant: &PricedVariant{RoomRate: 1000, PolicyAdjustment: -5000},
	})
	assert.Equal(t, int64(0), q.Total)
	assert.True(t, q.Clamped)

	q = ComputeTotal(PriceInput{Nights: -3, BasePrice: 8500})
	assert.Equal(t, int64(0), q.Total)
	assert.Equal(t, 0, q.Nights)
}

func TestComputeTotalExtras(t *testing.T) {
	q := ComputeTotal(PriceInput{
		Nights:    1,
		BasePrice: 1000,
		Addons: []AddonLine{
			{Name: "Spa", Price: 2500, Quantity: 2},
			{Name: "Skipped", Price: 9999, Quantity: 0},
		},
		Pickup:  &PricedItem{Name: "Airport pickup", Price: 1800},
		Bedding: []PricedItem{{Name: "Extra bed", Price: 1200}},
	})
	assert.Equal(t, int64(1000+5000+1800+1200), q.Total)
	require.Len(t, q.Breakdown, 4)
	assert.Equal(t, "Spa x 2", q.Breakdown[1].Label)
	assert.Equal(t, "pickup", q.Breakdown[2].Kind)
}

func TestQuoteHalfBoard(t *testing.T) {
	f := newFixture(t)

	p, err := f.pricing().Quote(context.Background(), Selection{
		RoomTypeID: f.deluxe.ID,
		CheckIn:    "2024-03-01",
		CheckOut:   "2024-03-03",
		Guests:     2,
		MealPlan:   MealHalfBoard,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(20200), p.Quote.Total)
	assert.Equal(t, 2, p.Quote.Nights)
	assert.Equal(t, "Deluxe", p.RoomType.Name)
}

func TestQuoteFullBoard(t *testing.T) {
	f := newFixture(t)

	p, err := f.pricing().Quote(context.Background(), Selection{
		RoomTypeID: f.suite.ID,
		CheckIn:    "2024-03-01",
		CheckOut:   "2024-03-02",
		Guests:     3,
		MealPlan:   MealFullBoard,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(15000+(300+450+150+500)*3), p.Quote.Total)
}

func TestQuoteWithVariantIgnoresMealPlan(t *testing.T) {
	f := newFixture(t)

	p, err := f.pricing().Quote(context.Background(), Selection{
		RoomTypeID:    f.deluxe.ID,
		CheckIn:       "2024-03-01",
		CheckOut:      "2024-03-03",
		Guests:        2,
		RateVariantID: f.variant.ID,
		MealPlan:      MealFullBoard,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(9000*2+600*2-1000), p.Quote.Total)
	require.NotNil(t, p.Input.Variant)
	assert.Equal(t, VariantMeal{Cost: 1200}, p.Input.Meal)
}

func TestQuoteExtras(t *testing.T) {
	f := newFixture(t)

	p, err := f.pricing().Quote(context.Background(), Selection{
		RoomTypeID: f.deluxe.ID,
		CheckIn:    "2024-03-01",
		CheckOut:   "2024-03-03",
		Guests:     1,
		Addons: []AddonSelection{
			{AddonID: f.spa.ID, Quantity: 2},
			{AddonID: f.spa.ID, Quantity: 1},
			{AddonID: 9999, Quantity: 0},
		},
		PickupID:   f.airport.ID,
		BeddingIDs: []uint{f.extraBed.ID},
	})
	require.NoError(t, err)
	require.Len(t, p.Input.Addons, 1)
	assert.Equal(t, 3, p.Input.Addons[0].Quantity)
	assert.Equal(t, int64(17000+7500+1800+1200), p.Quote.Total)
}

func TestQuoteRejects(t *testing.T) {
	f := newFixture(t)
	base := Selection{RoomTypeID: f.deluxe.ID, CheckIn: "2024-03-01", CheckOut: "2024-03-03", Guests: 2}

	cases := []struct {
		name string
		edit func(s *Selection)
	}{
		{"too many guests", func(s *Selection) { s.Guests = 3 }},
		{"no guests", func(s *Selection) { s.Guests = 0 }},
		{"inverted dates", func(s *Selection) { s.CheckIn, s.CheckOut = s.CheckOut, s.CheckIn }},
		{"bad date", func(s *Selection) { s.CheckIn = "yesterday" }},
		{"unknown room type", func(s *Selection) { s.RoomTypeID = 9999 }},
		{"unknown meal plan", func(s *Selection) { s.MealPlan = "all-inclusive" }},
		{"variant of another type", func(s *Selection) { s.RoomTypeID = f.suite.ID; s.RateVariantID = f.variant.ID }},
		{"variant out of season", func(s *Selection) { s.RateVariantID = f.expired.ID }},
		{"inactive addon", func(s *Selection) { s.Addons = []AddonSelection{{AddonID: f.dinnerCruise.ID, Quantity: 1}} }},
		{"negative addon", func(s *Selection) { s.Addons = []AddonSelection{{AddonID: f.spa.ID, Quantity: -1}} }},
		{"unknown pickup", func(s *Selection) { s.PickupID = 9999 }},
		{"unknown bedding", func(s *Selection) { s.BeddingIDs = []uint{9999} }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			sel := base
			tc.edit(&sel)
			_, err := f.pricing().Quote(context.Background(), sel)
			assert.ErrorIs(t, err, ErrValidation)
		})
	}
}

func TestQuoteClampLogsWarning(t *testing.T) {
	f := newFixture(t)
	promo := models.RateVariant{
		RoomTypeID:       f.deluxe.ID,
		Label:            "Staff",
		ValidFrom:        day("2024-01-01"),
		ValidTo:          day("2024-12-31"),
		NightlyRate:      100,
		PolicyAdjustment: -10000,
		Active:           true,
	}
	require.NoError(t, f.store.Transact(context.Background(), func(tx repository.Tx) error {
		return tx.Create(context.Background(), &promo)
	}))

	p, err := f.pricing().Quote(context.Background(), Selection{
		RoomTypeID: f.deluxe.ID, CheckIn: "2024-03-01", CheckOut: "2024-03-03", Guests: 1, RateVariantID: promo.ID,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(0), p.Quote.Total)
	assert.Contains(t, f.entries(logrus.WarnLevel), "quote summed below zero, clamped to 0")
}

func TestMealRatesRequireSlots(t *testing.T) {
	_, err := mealRates([]models.MealRate{{Slot: models.SlotBreakfast, Price: 300}}, MealHalfBoard)
	assert.Error(t, err)

	rates, err := mealRates(nil, MealNone)
	require.NoError(t, err)
	assert.Zero(t, rates)
}

func TestRateVariantsForStay(t *testing.T) {
	f := newFixture(t)

	got, err := f.pricing().RateVariants(context.Background(), f.deluxe.ID, stay(t, "2024-03-01", "2024-03-04"))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, f.variant.ID, got[0].ID)
	assert.Equal(t, int64(27000), got[0].RoomRate)
	assert.Equal(t, int64(1800), got[0].MealCost)

	_, err = f.pricing().RateVariants(context.Background(), f.deluxe.ID, stay(t, "2024-03-04", "2024-03-01"))
	assert.ErrorIs(t, err, ErrValidation)
}

func TestCatalogListsActiveItems(t *testing.T) {
	f := newFixture(t)

	c, err := f.pricing().Catalog(context.Background())
	require.NoError(t, err)
	require.Len(t, c.Addons, 1)
	assert.Equal(t, "Spa session", c.Addons[0].Name)
	assert.Len(t, c.MealRates, 4)
	assert.Len(t, c.Pickups, 1)
	assert.Len(t, c.Bedding, 1)
}
