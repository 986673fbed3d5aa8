package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/iliyamo/rental-marketplace/internal/jobs"
	"github.com/iliyamo/rental-marketplace/internal/model"
	"github.com/iliyamo/rental-marketplace/internal/payment"
	"github.com/iliyamo/rental-marketplace/internal/repository"
	"github.com/iliyamo/rental-marketplace/internal/scheduler"
)

// SettlementRequestStore is the booking-request persistence the
// settlement engine needs.
type SettlementRequestStore interface {
	GetByID(ctx context.Context, id uint64) (*model.BookingRequest, error)
	// IDByPaymentRef reports which request already carries a reference,
	// or sql.ErrNoRows when it is unused.
	IDByPaymentRef(ctx context.Context, ref string) (uint64, error)
}

// SettlementStore applies the full financial effect of a verified
// payment in one transaction. Satisfied by *repository.SettlementRepo.
type SettlementStore interface {
	Apply(ctx context.Context, req *model.BookingRequest, reference string, creditCents int64) error
}

// SettlementService verifies gateway payments and applies their
// effects exactly once. The reference-uniqueness check plus the
// store's conditional payment-status flip are the idempotency guard: a
// replayed webhook or redirect can never credit a wallet twice.
type SettlementService struct {
	Requests   SettlementRequestStore
	Properties PropertyStore
	Users      UserStore
	Store      SettlementStore
	Gateway    payment.Gateway
	Jobs       JobQueue
	Clock      scheduler.Clock
	Log        *logrus.Logger
	ReturnURI  string
}

// InitializePayment creates a gateway charge for an approved request
// and returns the authorization URL the tenant pays at.
func (s *SettlementService) InitializePayment(ctx context.Context, tenantID, requestID uint64) (string, error) {
	req, err := s.Requests.GetByID(ctx, requestID)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", err
	}
	if req.TenantID != tenantID {
		return "", ErrForbidden
	}
	if req.Status != model.RequestApproved {
		return "", ErrNotApproved
	}
	if req.PaymentStatus != model.PaymentPending {
		return "", ErrNotPending
	}
	tenant, err := s.Users.GetByID(ctx, tenantID)
	if err != nil {
		return "", err
	}
	return s.Gateway.Initialize(ctx, tenant.Email, req.NetPriceCents, s.ReturnURI)
}

// HandlePaymentSuccess settles the request under the gateway
// reference. Order matters: the reference check and gateway
// verification run before any state changes, and every mutation then
// commits atomically in the store. The landlord is credited the net
// price minus the platform service charge.
func (s *SettlementService) HandlePaymentSuccess(ctx context.Context, requestID uint64, reference string) error {
	if _, err := s.Requests.IDByPaymentRef(ctx, reference); err == nil {
		return ErrDuplicateReference
	} else if !errors.Is(err, sql.ErrNoRows) {
		return err
	}

	req, err := s.Requests.GetByID(ctx, requestID)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	// A request the reminder job already expired must never settle:
	// the property may have been re-listed and won by someone else.
	if req.Status != model.RequestApproved {
		return ErrNotApproved
	}

	v, err := s.Gateway.Verify(ctx, reference)
	if err != nil {
		return fmt.Errorf("verify payment: %w", err)
	}
	if v.Status != payment.StatusSuccessful {
		return ErrGatewayFailed
	}
	if v.AmountCents != req.NetPriceCents {
		return ErrAmountMismatch
	}

	credit := req.NetPriceCents - req.ServiceChargeCents
	if err := s.Store.Apply(ctx, req, reference, credit); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return ErrDuplicateReference
		}
		return err
	}
	s.Log.WithFields(logrus.Fields{
		"booking_request_id": req.ID,
		"reference":          reference,
		"credit_cents":       credit,
	}).Info("booking request settled")

	s.notifyParties(ctx, req, reference)
	return nil
}

// notifyParties queues the payment-success notifications. Failures
// here are logged only: the money has moved, and a lost email is an
// accepted degradation.
func (s *SettlementService) notifyParties(ctx context.Context, req *model.BookingRequest, reference string) {
	tenant, err := s.Users.GetByID(ctx, req.TenantID)
	if err != nil {
		s.Log.WithError(err).Error("load tenant for settlement notice failed")
		return
	}
	landlord, err := s.Users.GetByID(ctx, req.LandlordID)
	if err != nil {
		s.Log.WithError(err).Error("load landlord for settlement notice failed")
		return
	}
	property, err := s.Properties.GetByID(ctx, req.PropertyID)
	if err != nil {
		s.Log.WithError(err).Error("load property for settlement notice failed")
		return
	}

	notice := jobs.PaymentNotice{
		LandlordName:     landlord.FullName,
		LandlordEmail:    landlord.Email,
		TenantName:       tenant.FullName,
		TenantEmail:      tenant.Email,
		PropertyTitle:    property.Title,
		BookingRequestID: req.ID,
		AmountCents:      req.NetPriceCents,
	}
	now := s.Clock.Now()
	s.schedule(ctx, jobs.PaymentReceivedLandlord, notice, now)
	s.schedule(ctx, jobs.PaymentConfirmedTenant, notice, now)
}

func (s *SettlementService) schedule(ctx context.Context, name string, payload any, runAt time.Time) {
	if _, err := s.Jobs.Schedule(ctx, name, payload, runAt); err != nil {
		s.Log.WithError(err).WithField("job", name).Error("schedule job failed")
	}
}
