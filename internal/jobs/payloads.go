// Package jobs holds the scheduled-job handler registry: the handler
// names, their payload shapes, and the handler implementations bound
// to them. Handler names double as mail template kinds for the
// notification jobs.
package jobs

import "time"

// Registered handler names.
const (
	NotifyLandlordOfRequest = "send_booking_request_to_landlord"
	NotifyTenantOfRequest   = "send_booking_request_to_tenant"
	ExpireRequestAfter24h   = "expire_booking_request_after_24_hours"
	NotifyTenantDeclined    = "send_booking_request_declined_email_to_tenant"
	NotifyTenantApproved    = "send_booking_request_approved_to_tenant"
	PaymentReminderToTenant = "send_payment_reminder_to_tenant"
	PaymentReceivedLandlord = "send_payment_received_to_landlord"
	PaymentConfirmedTenant  = "send_payment_confirmation_to_tenant"
	SendOTPEmail            = "send_otp_email"
	SendContactUsEmail      = "send_contact_us_email"
)

// RequestNotice is the payload for the booking-request notification
// family: the initial landlord/tenant notices and the approval notice.
type RequestNotice struct {
	LandlordName         string `json:"landlordName"`
	LandlordEmail        string `json:"landlordEmail"`
	TenantName           string `json:"tenantName"`
	TenantEmail          string `json:"tenantEmail"`
	PropertyTitle        string `json:"propertyTitle"`
	MoveInDate           string `json:"moveInDate"`
	LandlordDashboardURL string `json:"landlordDashboardUrl"`
	TenantDashboardURL   string `json:"tenantDashboardUrl"`
	BookingRequestID     uint64 `json:"bookingRequestId"`
	PropertyID           uint64 `json:"propertyId"`
	TenantUserID         uint64 `json:"tenantUserId"`
}

// ExpireRequest is the payload for the 24-hour expiration job.
type ExpireRequest struct {
	BookingRequestID uint64 `json:"bookingRequestId"`
	PropertyID       uint64 `json:"propertyId"`
	TenantUserID     uint64 `json:"tenantUserId"`
}

// DeclineNotice is the payload for the decline notification.
type DeclineNotice struct {
	TenantEmail  string `json:"tenantEmail"`
	TenantName   string `json:"tenantName"`
	PropertyName string `json:"propertyName"`
}

// PaymentReminder is the payload for the recurring payment reminder.
// HoursLeft is filled in by the handler before the mail is queued.
type PaymentReminder struct {
	TenantEmail        string    `json:"tenantEmail"`
	TenantName         string    `json:"tenantName"`
	PropertyTitle      string    `json:"propertyTitle"`
	BookingRequestID   uint64    `json:"bookingRequestId"`
	PaymentDue         time.Time `json:"paymentDue"`
	TenantDashboardURL string    `json:"tenantDashboardUrl"`
	HoursLeft          int       `json:"hoursLeft,omitempty"`
}

// PaymentNotice is the payload for the payment-success notifications
// to landlord and tenant.
type PaymentNotice struct {
	LandlordName     string `json:"landlordName"`
	LandlordEmail    string `json:"landlordEmail"`
	TenantName       string `json:"tenantName"`
	TenantEmail      string `json:"tenantEmail"`
	PropertyTitle    string `json:"propertyTitle"`
	BookingRequestID uint64 `json:"bookingRequestId"`
	AmountCents      int64  `json:"amountCents"`
}

// OTPEmail is the payload for the one-time-passcode utility job.
type OTPEmail struct {
	Email string `json:"email"`
	Name  string `json:"name"`
	Code  string `json:"code"`
}

// ContactUsEmail is the payload for the contact-form utility job.
type ContactUsEmail struct {
	FromEmail string `json:"fromEmail"`
	FromName  string `json:"fromName"`
	Subject   string `json:"subject"`
	Message   string `json:"message"`
}
