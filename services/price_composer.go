package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"hotel-inventory/daterange"
	"hotel-inventory/models"
	"hotel-inventory/repository"
)

type MealPlan string

const (
	MealNone      MealPlan = "none"
	MealHalfBoard MealPlan = "half-board"
	MealFullBoard MealPlan = "full-board"
)

func (p MealPlan) Valid() bool {
	switch p {
	case "", MealNone, MealHalfBoard, MealFullBoard:
		return true
	}
	return false
}

// MealRates are per guest per night.
type MealRates struct {
	Breakfast int64 `json:"breakfast"`
	Lunch     int64 `json:"lunch"`
	HighTea   int64 `json:"high_tea"`
	Dinner    int64 `json:"dinner"`
}

// MealPricing is how the meal component of a stay is priced: either the
// meal cost carried by a rate variant or a meal plan priced from meal rates.
// Exactly one applies to a quote.
type MealPricing interface {
	mealCost() int64
	mealLabel() string
}

type VariantMeal struct {
	Cost int64
}

func (m VariantMeal) mealCost() int64   { return m.Cost }
func (m VariantMeal) mealLabel() string { return "Meals (rate plan)" }

type PlanMeal struct {
	Plan   MealPlan
	Rates  MealRates
	Guests int
	Nights int
}

func (m PlanMeal) mealCost() int64 {
	if m.Guests <= 0 || m.Nights <= 0 {
		return 0
	}
	var perHead int64
	switch m.Plan {
	case MealHalfBoard:
		perHead = m.Rates.Breakfast + m.Rates.Dinner
	case MealFullBoard:
		perHead = m.Rates.Breakfast + m.Rates.Lunch + m.Rates.HighTea + m.Rates.Dinner
	default:
		return 0
	}
	return perHead * int64(m.Guests) * int64(m.Nights)
}

func (m PlanMeal) mealLabel() string {
	switch m.Plan {
	case MealHalfBoard:
		return "Half board"
	case MealFullBoard:
		return "Full board"
	}
	return "Meals"
}

// PricedVariant is a rate variant priced for a specific stay.
type PricedVariant struct {
	ID                 uint   `json:"id"`
	Label              string `json:"label"`
	MealPlan           string `json:"meal_plan"`
	CancellationPolicy string `json:"cancellation_policy"`
	RoomRate           int64  `json:"room_rate"`
	MealCost           int64  `json:"meal_cost"`
	PolicyAdjustment   int64  `json:"policy_adjustment"`
}

func priceVariant(v models.RateVariant, nights int) PricedVariant {
	return PricedVariant{
		ID:                 v.ID,
		Label:              v.Label,
		MealPlan:           v.MealPlan,
		CancellationPolicy: v.CancellationPolicy,
		RoomRate:           v.NightlyRate * int64(nights),
		MealCost:           v.MealCostPerNight * int64(nights),
		PolicyAdjustment:   v.PolicyAdjustment,
	}
}

type AddonLine struct {
	ID       uint   `json:"id"`
	Kind     string `json:"kind"`
	Name     string `json:"name"`
	Price    int64  `json:"price"`
	Quantity int    `json:"quantity"`
}

type PricedItem struct {
	ID    uint   `json:"id"`
	Name  string `json:"name"`
	Price int64  `json:"price"`
}

// PriceInput is a fully resolved selection. Everything is in minor units.
type PriceInput struct {
	Nights    int
	BasePrice int64
	Variant   *PricedVariant
	Meal      MealPricing
	Addons    []AddonLine
	Pickup    *PricedItem
	Bedding   []PricedItem
}

type LineItem struct {
	Kind   string `json:"kind"`
	Label  string `json:"label"`
	Amount int64  `json:"amount"`
}

type Quote struct {
	Total     int64      `json:"total"`
	Nights    int        `json:"nights"`
	Breakdown []LineItem `json:"breakdown"`
	// Clamped is set when the components summed below zero.
	Clamped bool `json:"-"`
}

// ComputeTotal composes the payable total and its breakdown. A selected
// rate variant supplies room, meals and policy adjustment and any meal plan
// is ignored. The total never goes below zero.
func ComputeTotal(in PriceInput) Quote {
	q := Quote{Nights: max(in.Nights, 0)}
	add := func(kind, label string, amount int64) {
		q.Breakdown = append(q.Breakdown, LineItem{Kind: kind, Label: label, Amount: amount})
		q.Total += amount
	}

	meal := in.Meal
	if in.Variant != nil {
		meal = VariantMeal{Cost: in.Variant.MealCost}
		label := "Room"
		if in.Variant.Label != "" {
			label = "Room (" + in.Variant.Label + ")"
		}
		add("room", label, in.Variant.RoomRate)
	} else {
		add("room", fmt.Sprintf("Room x %d nights", q.Nights), in.BasePrice*int64(q.Nights))
	}

	if meal != nil {
		if cost := meal.mealCost(); cost != 0 {
			add("meal", meal.mealLabel(), cost)
		}
	}

	if in.Variant != nil && in.Variant.PolicyAdjustment != 0 {
		label := "Cancellation policy"
		if in.Variant.CancellationPolicy != "" {
			label += " (" + in.Variant.CancellationPolicy + ")"
		}
		add("policy", label, in.Variant.PolicyAdjustment)
	}

	for _, a := range in.Addons {
		if a.Quantity <= 0 {
			continue
		}
		add("addon", fmt.Sprintf("%s x %d", a.Name, a.Quantity), a.Price*int64(a.Quantity))
	}

	if in.Pickup != nil {
		add("pickup", in.Pickup.Name, in.Pickup.Price)
	}

	for _, b := range in.Bedding {
		add("bedding", b.Name, b.Price)
	}

	if q.Total < 0 {
		q.Total = 0
		q.Clamped = true
	}
	return q
}

type AddonSelection struct {
	AddonID  uint `json:"addon_id"`
	Quantity int  `json:"quantity"`
}

// Selection is what a guest picked in the booking funnel, by catalog id.
type Selection struct {
	RoomTypeID    uint             `json:"room_type_id"`
	RoomID        uint             `json:"room_id,omitempty"`
	CheckIn       string           `json:"check_in"`
	CheckOut      string           `json:"check_out"`
	Guests        int              `json:"guests"`
	RateVariantID uint             `json:"rate_variant_id,omitempty"`
	MealPlan      MealPlan         `json:"meal_plan,omitempty"`
	Addons        []AddonSelection `json:"addons,omitempty"`
	PickupID      uint             `json:"pickup_id,omitempty"`
	BeddingIDs    []uint           `json:"bedding_ids,omitempty"`
	Notes         string           `json:"notes,omitempty"`
}

// Validate checks the selection's shape and returns its stay range.
func (s Selection) Validate(op string) (daterange.Range, error) {
	r, err := daterange.Parse(s.CheckIn, s.CheckOut)
	if err != nil {
		return daterange.Range{}, invalid(op, "%v", err)
	}
	if !r.Valid() {
		return daterange.Range{}, invalid(op, "check_out must be after check_in")
	}
	if s.Guests < 1 {
		return daterange.Range{}, invalid(op, "guests must be at least 1")
	}
	if s.RoomTypeID == 0 {
		return daterange.Range{}, invalid(op, "room_type_id is required")
	}
	if !s.MealPlan.Valid() {
		return daterange.Range{}, invalid(op, "unknown meal plan %q", s.MealPlan)
	}
	for _, a := range s.Addons {
		if a.Quantity < 0 {
			return daterange.Range{}, invalid(op, "addon %d has a negative quantity", a.AddonID)
		}
	}
	return r, nil
}

// PricedSelection is a selection resolved against the catalog together with
// its quote. The displayed total and the amount sent for payment both come
// from Quote.
type PricedSelection struct {
	Selection Selection       `json:"selection"`
	Range     daterange.Range `json:"range"`
	RoomType  models.RoomType `json:"room_type"`
	Input     PriceInput      `json:"-"`
	Quote     Quote           `json:"quote"`
}

type Catalog struct {
	Addons    []models.Addon         `json:"addons"`
	MealRates []models.MealRate      `json:"meal_rates"`
	Pickups   []models.PickupService `json:"pickups"`
	Bedding   []models.BeddingOption `json:"bedding"`
}

// PriceComposer prices selections against the live catalog.
type PriceComposer struct {
	store repository.Reader
	opts  Options
	log   *logrus.Entry
}

func NewPriceComposer(store repository.Reader, opts Options) *PriceComposer {
	opts = opts.withDefaults()
	return &PriceComposer{store: store, opts: opts, log: opts.Log.WithField("service", "pricing")}
}

// Catalog fetches every active catalog list concurrently.
func (p *PriceComposer) Catalog(ctx context.Context) (*Catalog, error) {
	ctx, cancel := p.opts.bounded(ctx)
	defer cancel()

	c, err := p.catalog(ctx, p.store)
	if err != nil {
		return nil, queryErr("PriceComposer.Catalog", err)
	}
	return c, nil
}

func (p *PriceComposer) catalog(ctx context.Context, r repository.Reader) (*Catalog, error) {
	var c Catalog
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		c.Addons, err = r.Addons(gctx, "")
		return
	})
	g.Go(func() (err error) {
		c.MealRates, err = r.MealRates(gctx)
		return
	})
	g.Go(func() (err error) {
		c.Pickups, err = r.PickupServices(gctx)
		return
	})
	g.Go(func() (err error) {
		c.Bedding, err = r.BeddingOptions(gctx)
		return
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Quote resolves a selection against the catalog and prices it. Catalog
// reads run concurrently.
func (p *PriceComposer) Quote(ctx context.Context, sel Selection) (*PricedSelection, error) {
	ctx, cancel := p.opts.bounded(ctx)
	defer cancel()

	const op = "PriceComposer.Quote"
	rng, err := sel.Validate(op)
	if err != nil {
		return nil, err
	}
	nights := rng.Nights()

	var (
		roomType *models.RoomType
		variant  *models.RateVariant
		catalog  *Catalog
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		roomType, err = p.store.RoomType(gctx, sel.RoomTypeID)
		return
	})
	if sel.RateVariantID != 0 {
		g.Go(func() (err error) {
			variant, err = p.store.RateVariant(gctx, sel.RateVariantID)
			return
		})
	}
	g.Go(func() (err error) {
		catalog, err = p.catalog(gctx, p.store)
		return
	})
	if err := g.Wait(); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, invalid(op, "room type or rate variant not found")
		}
		return nil, queryErr(op, err)
	}

	if sel.Guests > roomType.MaxGuests {
		return nil, invalid(op, "%s holds at most %d guests", roomType.Name, roomType.MaxGuests)
	}

	in := PriceInput{Nights: nights, BasePrice: roomType.BasePrice}

	if variant != nil {
		if variant.RoomTypeID != roomType.ID || !variant.Active {
			return nil, invalid(op, "rate variant %d is not offered for %s", variant.ID, roomType.Name)
		}
		if !variant.Covers(rng) {
			return nil, invalid(op, "rate variant %d is not valid for %s", variant.ID, rng)
		}
		pv := priceVariant(*variant, nights)
		in.Variant = &pv
		in.Meal = VariantMeal{Cost: pv.MealCost}
	} else {
		plan := sel.MealPlan
		if plan == "" {
			plan = MealNone
		}
		rates, err := mealRates(catalog.MealRates, plan)
		if err != nil {
			return nil, invalid(op, "%v", err)
		}
		in.Meal = PlanMeal{Plan: plan, Rates: rates, Guests: sel.Guests, Nights: nights}
	}

	if in.Addons, err = resolveAddons(catalog.Addons, sel.Addons); err != nil {
		return nil, invalid(op, "%v", err)
	}
	if sel.PickupID != 0 {
		pk, ok := findPickup(catalog.Pickups, sel.PickupID)
		if !ok {
			return nil, invalid(op, "pickup service %d is not available", sel.PickupID)
		}
		in.Pickup = &pk
	}
	for _, id := range sel.BeddingIDs {
		b, ok := findBedding(catalog.Bedding, id)
		if !ok {
			return nil, invalid(op, "bedding option %d is not available", id)
		}
		in.Bedding = append(in.Bedding, b)
	}

	q := ComputeTotal(in)
	if q.Clamped {
		p.log.WithFields(logrus.Fields{
			"room_type_id":    sel.RoomTypeID,
			"rate_variant_id": sel.RateVariantID,
			"breakdown":       q.Breakdown,
		}).Warn("quote summed below zero, clamped to 0")
	}

	return &PricedSelection{Selection: sel, Range: rng, RoomType: *roomType, Input: in, Quote: q}, nil
}

func mealRates(rates []models.MealRate, plan MealPlan) (MealRates, error) {
	var out MealRates
	if plan == MealNone {
		return out, nil
	}
	bySlot := map[string]int64{}
	for _, r := range rates {
		bySlot[r.Slot] = r.Price
	}
	need := []string{models.SlotBreakfast, models.SlotDinner}
	if plan == MealFullBoard {
		need = append(need, models.SlotLunch, models.SlotHighTea)
	}
	for _, slot := range need {
		if _, ok := bySlot[slot]; !ok {
			return out, fmt.Errorf("%s is not offered: no %s rate", plan, slot)
		}
	}
	out.Breakfast = bySlot[models.SlotBreakfast]
	out.Lunch = bySlot[models.SlotLunch]
	out.HighTea = bySlot[models.SlotHighTea]
	out.Dinner = bySlot[models.SlotDinner]
	return out, nil
}

// resolveAddons prices the selected add-ons and drops zero quantities.
// Repeated ids are merged.
func resolveAddons(catalog []models.Addon, sel []AddonSelection) ([]AddonLine, error) {
	var out []AddonLine
	index := map[uint]int{}
	for _, s := range sel {
		if s.Quantity == 0 {
			continue
		}
		if i, ok := index[s.AddonID]; ok {
			out[i].Quantity += s.Quantity
			continue
		}
		var found *models.Addon
		for i := range catalog {
			if catalog[i].ID == s.AddonID {
				found = &catalog[i]
				break
			}
		}
		if found == nil {
			return nil, fmt.Errorf("addon %d is not available", s.AddonID)
		}
		index[s.AddonID] = len(out)
		out = append(out, AddonLine{ID: found.ID, Kind: found.Kind, Name: found.Name, Price: found.Price, Quantity: s.Quantity})
	}
	return out, nil
}

func findPickup(list []models.PickupService, id uint) (PricedItem, bool) {
	for _, p := range list {
		if p.ID == id {
			return PricedItem{ID: p.ID, Name: p.Name, Price: p.Price}, true
		}
	}
	return PricedItem{}, false
}

func findBedding(list []models.BeddingOption, id uint) (PricedItem, bool) {
	for _, b := range list {
		if b.ID == id {
			return PricedItem{ID: b.ID, Name: b.Name, Price: b.Price}, true
		}
	}
	return PricedItem{}, false
}

// RateVariants lists the active variants of a room type valid for the whole
// stay, each priced for it.
func (p *PriceComposer) RateVariants(ctx context.Context, roomTypeID uint, r daterange.Range) ([]PricedVariant, error) {
	const op = "PriceComposer.RateVariants"
	if !r.Valid() {
		return nil, invalid(op, "check_out must be after check_in")
	}
	ctx, cancel := p.opts.bounded(ctx)
	defer cancel()

	variants, err := p.store.RateVariants(ctx, roomTypeID)
	if err != nil {
		return nil, queryErr(op, err)
	}
	out := []PricedVariant{}
	for _, v := range variants {
		if v.Covers(r) {
			out = append(out, priceVariant(v, r.Nights()))
		}
	}
	return out, nil
}
