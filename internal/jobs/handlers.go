package jobs

import (
	"context"
	"database/sql"
	"errors"
	"math"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/iliyamo/rental-marketplace/internal/mailer"
	"github.com/iliyamo/rental-marketplace/internal/model"
	"github.com/iliyamo/rental-marketplace/internal/scheduler"
)

// Window a tenant has to pay once approved, and the reminder cadence
// inside it.
const (
	PaymentWindow    = 24 * time.Hour
	ReminderInterval = 4 * time.Hour
)

// RequestStore is the slice of the booking-request repository the job
// handlers need.
type RequestStore interface {
	GetByID(ctx context.Context, id uint64) (*model.BookingRequest, error)
	ExpireIfPending(ctx context.Context, id uint64) (bool, error)
	Expire(ctx context.Context, id uint64) (bool, error)
}

// PropertyStore is the slice of the property repository the job
// handlers need.
type PropertyStore interface {
	RemoveRequester(ctx context.Context, propertyID, userID uint64) error
	SetAvailability(ctx context.Context, propertyID uint64, available bool) error
}

// Handlers bundles the dependencies of every registered job handler.
type Handlers struct {
	Requests   RequestStore
	Properties PropertyStore
	Mailer     mailer.Mailer
	Clock      scheduler.Clock
	Log        *logrus.Logger
}

// Register binds every handler to its name on the scheduler. The
// notification handlers share a 30s retry delay; the utility mail
// jobs get a slower 60s one since nothing downstream waits on them.
func (h *Handlers) Register(s *scheduler.Scheduler) {
	s.Register(NotifyLandlordOfRequest, h.sendMail(NotifyLandlordOfRequest))
	s.Register(NotifyTenantOfRequest, h.sendMail(NotifyTenantOfRequest))
	s.Register(NotifyTenantApproved, h.sendMail(NotifyTenantApproved))
	s.Register(NotifyTenantDeclined, h.sendMail(NotifyTenantDeclined))
	s.Register(PaymentReceivedLandlord, h.sendMail(PaymentReceivedLandlord))
	s.Register(PaymentConfirmedTenant, h.sendMail(PaymentConfirmedTenant))
	s.Register(ExpireRequestAfter24h, h.ExpireRequest)
	s.Register(PaymentReminderToTenant, h.PaymentReminder)
	s.RegisterWithRetryDelay(SendOTPEmail, h.sendMail(SendOTPEmail), time.Minute)
	s.RegisterWithRetryDelay(SendContactUsEmail, h.sendMail(SendContactUsEmail), time.Minute)
}

// sendMail builds the handler for a pure notification job: forward the
// payload to the mailer under the job's name as the template kind. A
// mail failure surfaces to the retry policy.
func (h *Handlers) sendMail(kind string) scheduler.HandlerFunc {
	return func(ctx context.Context, job *scheduler.Job) error {
		var data map[string]any
		if err := job.Unmarshal(&data); err != nil {
			return err
		}
		delete(data, "retriesLeft")
		_, err := h.Mailer.Send(ctx, kind, data)
		return err
	}
}

// ExpireRequest fires 24 hours after a request was created. If the
// request is still pending it becomes expired and the tenant drops off
// the property's requester list; any other state makes this a no-op,
// so a re-delivered job mutates nothing.
func (h *Handlers) ExpireRequest(ctx context.Context, job *scheduler.Job) error {
	var p ExpireRequest
	if err := job.Unmarshal(&p); err != nil {
		return err
	}
	expired, err := h.Requests.ExpireIfPending(ctx, p.BookingRequestID)
	if err != nil {
		return err
	}
	if !expired {
		return nil
	}
	if err := h.Properties.RemoveRequester(ctx, p.PropertyID, p.TenantUserID); err != nil {
		return err
	}
	h.Log.WithField("booking_request_id", p.BookingRequestID).Info("booking request expired unanswered")
	return nil
}

// PaymentReminder drives the recurring reminder for an approved but
// unpaid request. Terminal when the payment has resolved either way;
// expires the request and frees the property once the window has
// fully elapsed; otherwise mails the tenant the hours remaining and
// reschedules itself while more than one interval remains.
func (h *Handlers) PaymentReminder(ctx context.Context, job *scheduler.Job) error {
	var p PaymentReminder
	if err := job.Unmarshal(&p); err != nil {
		return err
	}
	req, err := h.Requests.GetByID(ctx, p.BookingRequestID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil // request deleted, nothing left to remind about
	}
	if err != nil {
		return err
	}
	if req.PaymentStatus != model.PaymentPending {
		return nil
	}

	now := h.Clock.Now()
	due := p.PaymentDue
	if req.PaymentDue != nil {
		due = *req.PaymentDue
	}

	// More than a full window past the deadline: give up on the
	// payment, expire the request and put the property back on the
	// market.
	if now.After(due.Add(PaymentWindow)) {
		expired, err := h.Requests.Expire(ctx, req.ID)
		if err != nil {
			return err
		}
		if expired {
			if err := h.Properties.SetAvailability(ctx, req.PropertyID, true); err != nil {
				return err
			}
			h.Log.WithField("booking_request_id", req.ID).Info("payment window elapsed, request expired")
		}
		return nil
	}

	hoursLeft := int(math.Ceil(due.Sub(now).Hours()))
	if hoursLeft < 0 {
		hoursLeft = 0
	}
	p.HoursLeft = hoursLeft
	if _, err := h.Mailer.Send(ctx, PaymentReminderToTenant, p); err != nil {
		return err
	}
	if float64(hoursLeft) > ReminderInterval.Hours() {
		job.Reschedule(now.Add(ReminderInterval))
	}
	return nil
}
