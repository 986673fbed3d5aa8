package service

import (
	"context"
	"database/sql"
	"errors"
	"math"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/iliyamo/rental-marketplace/internal/jobs"
	"github.com/iliyamo/rental-marketplace/internal/model"
	"github.com/iliyamo/rental-marketplace/internal/scheduler"
)

// JobQueue schedules deferred work. Satisfied by *scheduler.Scheduler.
type JobQueue interface {
	Schedule(ctx context.Context, name string, payload any, runAt time.Time) (uint64, error)
}

// RequestStore is the booking-request persistence the booking service
// needs. Satisfied by *repository.BookingRequestRepo.
type RequestStore interface {
	Create(ctx context.Context, req *model.BookingRequest) error
	GetByID(ctx context.Context, id uint64) (*model.BookingRequest, error)
	ListByTenant(ctx context.Context, tenantID uint64) ([]*model.BookingRequest, error)
	ListByLandlord(ctx context.Context, landlordID uint64) ([]*model.BookingRequest, error)
	ApproveIfPending(ctx context.Context, id uint64, paymentDue time.Time) (bool, error)
	DeclineIfPending(ctx context.Context, id uint64) (bool, error)
	DeletePending(ctx context.Context, id, tenantID uint64) (bool, error)
	DeclineOtherPending(ctx context.Context, propertyID, winnerID uint64) ([]*model.BookingRequest, error)
}

// PropertyStore is the property persistence the booking service needs.
type PropertyStore interface {
	GetByID(ctx context.Context, id uint64) (*model.Property, error)
	AddRequester(ctx context.Context, propertyID, userID uint64) error
	RemoveRequester(ctx context.Context, propertyID, userID uint64) error
	ClearRequesters(ctx context.Context, propertyID uint64) error
	SetAvailability(ctx context.Context, propertyID uint64, available bool) error
}

// UserStore resolves users for notification payloads.
type UserStore interface {
	GetByID(ctx context.Context, id uint64) (*model.User, error)
}

// SettingsStore reads system-wide settings.
type SettingsStore interface {
	ServiceFeePercent(ctx context.Context) (float64, error)
}

// BookingStore reads settled bookings. Satisfied by
// *repository.BookingRepo.
type BookingStore interface {
	ListByLandlord(ctx context.Context, landlordID uint64) ([]*model.Booking, error)
}

// Dashboards carries the frontend URLs embedded in notification mails.
type Dashboards struct {
	Landlord string
	Tenant   string
}

// BookingService drives the booking-request state machine: creation,
// landlord approval and decline, and tenant-initiated deletion. Each
// transition is a conditional update in the store, so two racing
// callers cannot both act on the same pending request.
type BookingService struct {
	Requests   RequestStore
	Properties PropertyStore
	Users      UserStore
	Settings   SettingsStore
	Confirmed  BookingStore
	Jobs       JobQueue
	Clock      scheduler.Clock
	Log        *logrus.Logger
	Dashboards Dashboards
}

// Create submits a tenant's booking request for a property. The
// booking period is one pricing unit from the move-in date; the net
// price adds the platform fee and other fees on top of the base
// price. Three jobs are queued: both immediate notifications and the
// 24-hour expiration.
func (s *BookingService) Create(ctx context.Context, tenantID, propertyID uint64, moveIn time.Time) (*model.BookingRequest, error) {
	property, err := s.Properties.GetByID(ctx, propertyID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if !property.IsAvailable {
		return nil, ErrPropertyUnavailable
	}

	tenant, err := s.Users.GetByID(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	landlord, err := s.Users.GetByID(ctx, property.LandlordID)
	if err != nil {
		return nil, err
	}

	feePct, err := s.Settings.ServiceFeePercent(ctx)
	if err != nil {
		return nil, err
	}
	serviceCharge := int64(math.Round(feePct / 100 * float64(property.BasePriceCents)))
	moveIn = moveIn.UTC()

	req := &model.BookingRequest{
		TenantID:           tenantID,
		LandlordID:         property.LandlordID,
		PropertyID:         propertyID,
		MoveIn:             moveIn,
		MoveOut:            model.MoveOutFrom(property.PricingModel, moveIn),
		BasePriceCents:     property.BasePriceCents,
		OtherFeesCents:     property.OtherFeesCents,
		NetPriceCents:      property.BasePriceCents + property.OtherFeesCents + serviceCharge,
		ServiceChargeCents: serviceCharge,
	}
	if err := s.Requests.Create(ctx, req); err != nil {
		return nil, err
	}
	if err := s.Properties.AddRequester(ctx, propertyID, tenantID); err != nil {
		return nil, err
	}

	now := s.Clock.Now()
	notice := jobs.RequestNotice{
		LandlordName:         landlord.FullName,
		LandlordEmail:        landlord.Email,
		TenantName:           tenant.FullName,
		TenantEmail:          tenant.Email,
		PropertyTitle:        property.Title,
		MoveInDate:           moveIn.Format("2006-01-02"),
		LandlordDashboardURL: s.Dashboards.Landlord,
		TenantDashboardURL:   s.Dashboards.Tenant,
		BookingRequestID:     req.ID,
		PropertyID:           propertyID,
		TenantUserID:         tenantID,
	}
	s.schedule(ctx, jobs.NotifyLandlordOfRequest, notice, now)
	s.schedule(ctx, jobs.NotifyTenantOfRequest, notice, now)
	s.schedule(ctx, jobs.ExpireRequestAfter24h, jobs.ExpireRequest{
		BookingRequestID: req.ID,
		PropertyID:       propertyID,
		TenantUserID:     tenantID,
	}, now.Add(jobs.PaymentWindow))

	return req, nil
}

// Approve resolves a pending request in the landlord's favor. The
// winner takes the property off the market; every other pending
// request for it is declined in the same call, so the tie-break is
// decided by whichever approval's conditional update lands first.
func (s *BookingService) Approve(ctx context.Context, landlordID, requestID uint64) (*model.BookingRequest, error) {
	req, err := s.Requests.GetByID(ctx, requestID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if req.LandlordID != landlordID {
		return nil, ErrForbidden
	}

	now := s.Clock.Now()
	paymentDue := now.Add(jobs.PaymentWindow)
	ok, err := s.Requests.ApproveIfPending(ctx, requestID, paymentDue)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNotPending
	}
	req.Status = model.RequestApproved
	req.PaymentDue = &paymentDue

	if err := s.Properties.SetAvailability(ctx, req.PropertyID, false); err != nil {
		return nil, err
	}
	if err := s.Properties.ClearRequesters(ctx, req.PropertyID); err != nil {
		return nil, err
	}

	property, err := s.Properties.GetByID(ctx, req.PropertyID)
	if err != nil {
		return nil, err
	}
	tenant, err := s.Users.GetByID(ctx, req.TenantID)
	if err != nil {
		return nil, err
	}
	landlord, err := s.Users.GetByID(ctx, landlordID)
	if err != nil {
		return nil, err
	}

	s.schedule(ctx, jobs.NotifyTenantApproved, jobs.RequestNotice{
		LandlordName:         landlord.FullName,
		LandlordEmail:        landlord.Email,
		TenantName:           tenant.FullName,
		TenantEmail:          tenant.Email,
		PropertyTitle:        property.Title,
		MoveInDate:           req.MoveIn.Format("2006-01-02"),
		LandlordDashboardURL: s.Dashboards.Landlord,
		TenantDashboardURL:   s.Dashboards.Tenant,
		BookingRequestID:     req.ID,
		PropertyID:           req.PropertyID,
		TenantUserID:         req.TenantID,
	}, now)
	s.schedule(ctx, jobs.PaymentReminderToTenant, jobs.PaymentReminder{
		TenantEmail:        tenant.Email,
		TenantName:         tenant.FullName,
		PropertyTitle:      property.Title,
		BookingRequestID:   req.ID,
		PaymentDue:         paymentDue,
		TenantDashboardURL: s.Dashboards.Tenant,
	}, now.Add(jobs.ReminderInterval))

	losers, err := s.Requests.DeclineOtherPending(ctx, req.PropertyID, requestID)
	if err != nil {
		return nil, err
	}
	for _, lost := range losers {
		loser, err := s.Users.GetByID(ctx, lost.TenantID)
		if err != nil {
			s.Log.WithError(err).WithField("tenant_id", lost.TenantID).
				Error("load declined tenant failed, skipping notification")
			continue
		}
		s.schedule(ctx, jobs.NotifyTenantDeclined, jobs.DeclineNotice{
			TenantEmail:  loser.Email,
			TenantName:   loser.FullName,
			PropertyName: property.Title,
		}, now)
	}
	return req, nil
}

// Decline resolves a pending request against the tenant.
func (s *BookingService) Decline(ctx context.Context, landlordID, requestID uint64) error {
	req, err := s.Requests.GetByID(ctx, requestID)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	if req.LandlordID != landlordID {
		return ErrForbidden
	}
	ok, err := s.Requests.DeclineIfPending(ctx, requestID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotPending
	}
	if err := s.Properties.RemoveRequester(ctx, req.PropertyID, req.TenantID); err != nil {
		return err
	}

	property, err := s.Properties.GetByID(ctx, req.PropertyID)
	if err != nil {
		return err
	}
	tenant, err := s.Users.GetByID(ctx, req.TenantID)
	if err != nil {
		return err
	}
	s.schedule(ctx, jobs.NotifyTenantDeclined, jobs.DeclineNotice{
		TenantEmail:  tenant.Email,
		TenantName:   tenant.FullName,
		PropertyName: property.Title,
	}, s.Clock.Now())
	return nil
}

// Delete removes the tenant's own request while it is still pending.
// Resolved requests stay on record.
func (s *BookingService) Delete(ctx context.Context, tenantID, requestID uint64) error {
	req, err := s.Requests.GetByID(ctx, requestID)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	if req.TenantID != tenantID {
		return ErrForbidden
	}
	ok, err := s.Requests.DeletePending(ctx, requestID, tenantID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotPending
	}
	return s.Properties.RemoveRequester(ctx, req.PropertyID, tenantID)
}

// Get returns a single request, visible only to its tenant or the
// property's landlord.
func (s *BookingService) Get(ctx context.Context, userID, requestID uint64) (*model.BookingRequest, error) {
	req, err := s.Requests.GetByID(ctx, requestID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if req.TenantID != userID && req.LandlordID != userID {
		return nil, ErrForbidden
	}
	return req, nil
}

// ListByTenant returns the tenant's own requests.
func (s *BookingService) ListByTenant(ctx context.Context, tenantID uint64) ([]*model.BookingRequest, error) {
	return s.Requests.ListByTenant(ctx, tenantID)
}

// ListByLandlord returns the requests against the landlord's
// properties.
func (s *BookingService) ListByLandlord(ctx context.Context, landlordID uint64) ([]*model.BookingRequest, error) {
	return s.Requests.ListByLandlord(ctx, landlordID)
}

// ConfirmedByLandlord returns the landlord's settled bookings.
func (s *BookingService) ConfirmedByLandlord(ctx context.Context, landlordID uint64) ([]*model.Booking, error) {
	return s.Confirmed.ListByLandlord(ctx, landlordID)
}

// schedule queues a job and logs (rather than fails) on error: the
// state transition has already committed, and a lost notification is
// an accepted degradation.
func (s *BookingService) schedule(ctx context.Context, name string, payload any, runAt time.Time) {
	if _, err := s.Jobs.Schedule(ctx, name, payload, runAt); err != nil {
		s.Log.WithError(err).WithField("job", name).Error("schedule job failed")
	}
}
