package model

import "time"

// Booking request lifecycle states. A request starts PENDING and moves
// exactly once to APPROVED, DECLINED or EXPIRED; it never returns to
// PENDING. All transitions are performed with conditional updates so
// racing callers cannot both observe PENDING and both act.
const (
	RequestPending  = "PENDING"
	RequestApproved = "APPROVED"
	RequestDeclined = "DECLINED"
	RequestExpired  = "EXPIRED"
)

// Payment sub-status carried by an approved request.
const (
	PaymentPending = "PENDING"
	PaymentSuccess = "SUCCESS"
	PaymentFailed  = "FAILED"
)

// BookingRequest records a tenant's proposal to occupy a property,
// stored in the `booking_requests` table. Financial fields are fixed
// at creation time; PaymentRef is globally unique once set and acts
// as the idempotency guard for settlement.
//
// Fields:
//  ID                 – primary key identifier.
//  TenantID           – requesting tenant.
//  LandlordID         – owner of the property.
//  PropertyID         – property being requested.
//  MoveIn / MoveOut   – booking period; MoveOut derives from the
//                       property's pricing model.
//  BasePriceCents     – property base price copied at creation.
//  OtherFeesCents     – additional fees copied at creation.
//  NetPriceCents      – what the tenant pays (base + fees + service charge).
//  ServiceChargeCents – platform fee portion of the net price.
//  PaymentDue         – payment deadline; null until approved.
//  Status             – PENDING | APPROVED | DECLINED | EXPIRED.
//  PaymentStatus      – PENDING | SUCCESS | FAILED.
//  PaymentRef         – gateway transaction reference (nullable, unique).
//  CreatedAt          – creation timestamp.
//  UpdatedAt          – last update timestamp.
type BookingRequest struct {
	ID                 uint64     // booking_requests.id
	TenantID           uint64     // booking_requests.tenant_id
	LandlordID         uint64     // booking_requests.landlord_id
	PropertyID         uint64     // booking_requests.property_id
	MoveIn             time.Time  // booking_requests.move_in
	MoveOut            time.Time  // booking_requests.move_out
	BasePriceCents     int64      // booking_requests.base_price_cents
	OtherFeesCents     int64      // booking_requests.other_fees_cents
	NetPriceCents      int64      // booking_requests.net_price_cents
	ServiceChargeCents int64      // booking_requests.service_charge_cents
	PaymentDue         *time.Time // booking_requests.payment_due (nullable)
	Status             string     // booking_requests.status
	PaymentStatus      string     // booking_requests.payment_status
	PaymentRef         *string    // booking_requests.payment_ref (nullable, unique)
	CreatedAt          time.Time  // booking_requests.created_at
	UpdatedAt          time.Time  // booking_requests.updated_at
}
