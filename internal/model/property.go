package model

import "time"

// PricingModel describes the unit a property is rented by. The unit
// determines how the move-out date is derived from the move-in date
// when a booking request is created.
const (
	PricingHourly  = "HOURLY"
	PricingDaily   = "DAILY"
	PricingWeekly  = "WEEKLY"
	PricingMonthly = "MONTHLY"
	PricingYearly  = "YEARLY"
)

// Property represents a rentable listing in the `properties` table.
//
// Fields:
//  ID             – primary key identifier.
//  LandlordID     – owner of the property.
//  Title          – listing title shown in notifications.
//  PricingModel   – rental unit (HOURLY..YEARLY).
//  BasePriceCents – base rent per unit in minor currency units.
//  OtherFeesCents – additional fees charged on top of the base price.
//  IsAvailable    – whether the property can accept new requests.
//  BookedBy       – tenant currently occupying the property (nullable).
//  RevenueCents   – aggregate settled revenue for this property.
//  CreatedAt      – creation timestamp.
//  UpdatedAt      – last update timestamp.
type Property struct {
	ID             uint64    // properties.id
	LandlordID     uint64    // properties.landlord_id
	Title          string    // properties.title
	PricingModel   string    // properties.pricing_model
	BasePriceCents int64     // properties.base_price_cents
	OtherFeesCents int64     // properties.other_fees_cents
	IsAvailable    bool      // properties.is_available
	BookedBy       *uint64   // properties.booked_by (nullable)
	RevenueCents   int64     // properties.revenue_cents
	CreatedAt      time.Time // properties.created_at
	UpdatedAt      time.Time // properties.updated_at
}

// MoveOutFrom adds one pricing unit to the given move-in date. Monthly
// and yearly periods use calendar arithmetic so 2025-01-10 + MONTHLY
// lands on 2025-02-10 rather than a fixed number of hours.
func MoveOutFrom(model string, moveIn time.Time) time.Time {
	switch model {
	case PricingHourly:
		return moveIn.Add(time.Hour)
	case PricingDaily:
		return moveIn.AddDate(0, 0, 1)
	case PricingWeekly:
		return moveIn.AddDate(0, 0, 7)
	case PricingYearly:
		return moveIn.AddDate(1, 0, 0)
	default: // MONTHLY
		return moveIn.AddDate(0, 1, 0)
	}
}
