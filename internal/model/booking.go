package model

import "time"

// Booking is the confirmed tenancy created exactly once by the
// settlement engine from a successfully paid booking request. The
// financial fields are copied verbatim from the request at creation
// time and are never recomputed afterwards.
//
// Fields:
//  ID                 – primary key identifier.
//  BookingRequestID   – request this booking settled from.
//  TenantID           – occupying tenant.
//  LandlordID         – property owner.
//  PropertyID         – booked property.
//  MoveIn / MoveOut   – occupancy period copied from the request.
//  BasePriceCents     – copied base price.
//  NetPriceCents      – copied net price.
//  ServiceChargeCents – copied platform fee.
//  CreatedAt          – creation timestamp.
type Booking struct {
	ID                 uint64    // bookings.id
	BookingRequestID   uint64    // bookings.booking_request_id
	TenantID           uint64    // bookings.tenant_id
	LandlordID         uint64    // bookings.landlord_id
	PropertyID         uint64    // bookings.property_id
	MoveIn             time.Time // bookings.move_in
	MoveOut            time.Time // bookings.move_out
	BasePriceCents     int64     // bookings.base_price_cents
	NetPriceCents      int64     // bookings.net_price_cents
	ServiceChargeCents int64     // bookings.service_charge_cents
	CreatedAt          time.Time // bookings.created_at
}

// Tenant is the occupancy record created alongside a booking. It links
// a user to the property they occupy for the booking period.
type Tenant struct {
	ID         uint64    // tenants.id
	UserID     uint64    // tenants.user_id
	PropertyID uint64    // tenants.property_id
	BookingID  uint64    // tenants.booking_id
	MoveIn     time.Time // tenants.move_in
	MoveOut    time.Time // tenants.move_out
	CreatedAt  time.Time // tenants.created_at
}

// Conversation pairs a tenant and a landlord for messaging. The
// settlement engine opens one (or reuses an existing one) after a
// successful payment; the chat itself lives outside this service.
type Conversation struct {
	ID         uint64    // conversations.id
	TenantID   uint64    // conversations.tenant_id
	LandlordID uint64    // conversations.landlord_id
	CreatedAt  time.Time // conversations.created_at
}
