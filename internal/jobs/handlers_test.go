package jobs

import (
	"context"
	"database/sql"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/rental-marketplace/internal/model"
	"github.com/iliyamo/rental-marketplace/internal/scheduler"
)

type fixedClock struct{ t time.Time }

func (c fixedClock) Now() time.Time { return c.t }

type sentMail struct {
	Kind string
	Data any
}

type fakeMailer struct {
	mu   sync.Mutex
	sent []sentMail
}

func (m *fakeMailer) Send(_ context.Context, kind string, data any) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, sentMail{Kind: kind, Data: data})
	return "msg-1", nil
}

type fakeRequestStore struct {
	byID map[uint64]*model.BookingRequest
}

func (f *fakeRequestStore) GetByID(_ context.Context, id uint64) (*model.BookingRequest, error) {
	req, ok := f.byID[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	cp := *req
	return &cp, nil
}

func (f *fakeRequestStore) ExpireIfPending(_ context.Context, id uint64) (bool, error) {
	req, ok := f.byID[id]
	if !ok || req.Status != model.RequestPending {
		return false, nil
	}
	req.Status = model.RequestExpired
	return true, nil
}

func (f *fakeRequestStore) Expire(_ context.Context, id uint64) (bool, error) {
	req, ok := f.byID[id]
	if !ok || req.Status != model.RequestApproved || req.PaymentStatus != model.PaymentPending {
		return false, nil
	}
	req.Status = model.RequestExpired
	return true, nil
}

type fakePropertyStore struct {
	requesters map[uint64]map[uint64]bool
	available  map[uint64]bool
}

func newFakePropertyStore() *fakePropertyStore {
	return &fakePropertyStore{requesters: map[uint64]map[uint64]bool{}, available: map[uint64]bool{}}
}

func (f *fakePropertyStore) RemoveRequester(_ context.Context, propertyID, userID uint64) error {
	if m, ok := f.requesters[propertyID]; ok {
		delete(m, userID)
	}
	return nil
}

func (f *fakePropertyStore) SetAvailability(_ context.Context, propertyID uint64, available bool) error {
	f.available[propertyID] = available
	return nil
}

func newHandlers(now time.Time, requests *fakeRequestStore, properties *fakePropertyStore, m *fakeMailer) *Handlers {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	return &Handlers{
		Requests:   requests,
		Properties: properties,
		Mailer:     m,
		Clock:      fixedClock{t: now},
		Log:        log,
	}
}

func jobWith(t *testing.T, name string, payload any) *scheduler.Job {
	t.Helper()
	body, err := json.Marshal(payload)
	require.NoError(t, err)
	return &scheduler.Job{ID: 1, Name: name, Payload: body}
}

func TestExpireRequestWhileStillPending(t *testing.T) {
	now := time.Date(2025, 1, 11, 9, 0, 0, 0, time.UTC)
	requests := &fakeRequestStore{byID: map[uint64]*model.BookingRequest{
		7: {ID: 7, PropertyID: 10, TenantID: 1, Status: model.RequestPending, PaymentStatus: model.PaymentPending},
	}}
	properties := newFakePropertyStore()
	properties.requesters[10] = map[uint64]bool{1: true}
	h := newHandlers(now, requests, properties, &fakeMailer{})

	job := jobWith(t, ExpireRequestAfter24h, ExpireRequest{BookingRequestID: 7, PropertyID: 10, TenantUserID: 1})
	require.NoError(t, h.ExpireRequest(context.Background(), job))

	assert.Equal(t, model.RequestExpired, requests.byID[7].Status)
	assert.False(t, properties.requesters[10][1])
}

func TestExpireRequestNoOpOnceResolved(t *testing.T) {
	now := time.Date(2025, 1, 11, 9, 0, 0, 0, time.UTC)
	requests := &fakeRequestStore{byID: map[uint64]*model.BookingRequest{
		7: {ID: 7, PropertyID: 10, TenantID: 1, Status: model.RequestApproved, PaymentStatus: model.PaymentPending},
	}}
	properties := newFakePropertyStore()
	properties.requesters[10] = map[uint64]bool{1: true}
	h := newHandlers(now, requests, properties, &fakeMailer{})

	job := jobWith(t, ExpireRequestAfter24h, ExpireRequest{BookingRequestID: 7, PropertyID: 10, TenantUserID: 1})
	require.NoError(t, h.ExpireRequest(context.Background(), job))

	assert.Equal(t, model.RequestApproved, requests.byID[7].Status)
	assert.True(t, properties.requesters[10][1], "resolved request keeps requester list untouched")
}

func reminderFixture(due time.Time) (*fakeRequestStore, *fakePropertyStore, PaymentReminder) {
	requests := &fakeRequestStore{byID: map[uint64]*model.BookingRequest{
		7: {
			ID: 7, PropertyID: 10, TenantID: 1,
			Status: model.RequestApproved, PaymentStatus: model.PaymentPending, PaymentDue: &due,
		},
	}}
	payload := PaymentReminder{
		TenantEmail:      "tenant@example.com",
		TenantName:       "Tena Tenant",
		PropertyTitle:    "Riverside Loft",
		BookingRequestID: 7,
		PaymentDue:       due,
	}
	return requests, newFakePropertyStore(), payload
}

func TestPaymentReminderReschedulesWhileMoreThanFourHoursLeft(t *testing.T) {
	now := time.Date(2025, 1, 11, 9, 0, 0, 0, time.UTC)
	requests, properties, payload := reminderFixture(now.Add(10 * time.Hour))
	m := &fakeMailer{}
	h := newHandlers(now, requests, properties, m)

	job := jobWith(t, PaymentReminderToTenant, payload)
	require.NoError(t, h.PaymentReminder(context.Background(), job))

	require.Len(t, m.sent, 1)
	got := m.sent[0].Data.(PaymentReminder)
	assert.Equal(t, 10, got.HoursLeft)

	at, ok := job.RescheduledAt()
	require.True(t, ok)
	assert.Equal(t, now.Add(4*time.Hour), at)
}

func TestPaymentReminderFinalWithinFourHours(t *testing.T) {
	now := time.Date(2025, 1, 11, 9, 0, 0, 0, time.UTC)
	requests, properties, payload := reminderFixture(now.Add(3 * time.Hour))
	m := &fakeMailer{}
	h := newHandlers(now, requests, properties, m)

	job := jobWith(t, PaymentReminderToTenant, payload)
	require.NoError(t, h.PaymentReminder(context.Background(), job))

	require.Len(t, m.sent, 1)
	_, ok := job.RescheduledAt()
	assert.False(t, ok, "final reminder must not reschedule")
}

func TestPaymentReminderTerminalOncePaymentResolved(t *testing.T) {
	now := time.Date(2025, 1, 11, 9, 0, 0, 0, time.UTC)
	requests, properties, payload := reminderFixture(now.Add(10 * time.Hour))
	requests.byID[7].PaymentStatus = model.PaymentSuccess
	m := &fakeMailer{}
	h := newHandlers(now, requests, properties, m)

	job := jobWith(t, PaymentReminderToTenant, payload)
	require.NoError(t, h.PaymentReminder(context.Background(), job))

	assert.Empty(t, m.sent)
	_, ok := job.RescheduledAt()
	assert.False(t, ok)
}

func TestPaymentReminderExpiresAfterFullWindowElapsed(t *testing.T) {
	now := time.Date(2025, 1, 13, 10, 0, 0, 0, time.UTC)
	// due 2025-01-12 09:00, now is more than 24h past it
	requests, properties, payload := reminderFixture(time.Date(2025, 1, 12, 9, 0, 0, 0, time.UTC))
	m := &fakeMailer{}
	h := newHandlers(now, requests, properties, m)

	job := jobWith(t, PaymentReminderToTenant, payload)
	require.NoError(t, h.PaymentReminder(context.Background(), job))

	assert.Equal(t, model.RequestExpired, requests.byID[7].Status)
	assert.True(t, properties.available[10], "property returns to the market")
	assert.Empty(t, m.sent)
	_, ok := job.RescheduledAt()
	assert.False(t, ok)
}

func TestPaymentReminderPastDueButWithinWindowStillSends(t *testing.T) {
	now := time.Date(2025, 1, 12, 15, 0, 0, 0, time.UTC)
	// due 6 hours ago, window has not fully elapsed
	requests, properties, payload := reminderFixture(time.Date(2025, 1, 12, 9, 0, 0, 0, time.UTC))
	m := &fakeMailer{}
	h := newHandlers(now, requests, properties, m)

	job := jobWith(t, PaymentReminderToTenant, payload)
	require.NoError(t, h.PaymentReminder(context.Background(), job))

	require.Len(t, m.sent, 1)
	got := m.sent[0].Data.(PaymentReminder)
	assert.Equal(t, 0, got.HoursLeft)
	_, ok := job.RescheduledAt()
	assert.False(t, ok)
	assert.Equal(t, model.RequestApproved, requests.byID[7].Status)
}

func TestUtilityMailPayloadsRoundTrip(t *testing.T) {
	now := time.Date(2025, 1, 11, 9, 0, 0, 0, time.UTC)
	m := &fakeMailer{}
	h := newHandlers(now, &fakeRequestStore{}, newFakePropertyStore(), m)

	otp := jobWith(t, SendOTPEmail, OTPEmail{
		Email: "tenant@example.com", Name: "Tena Tenant", Code: "482913",
	})
	require.NoError(t, h.sendMail(SendOTPEmail)(context.Background(), otp))

	contact := jobWith(t, SendContactUsEmail, ContactUsEmail{
		FromEmail: "visitor@example.com", FromName: "Vis Itor",
		Subject: "Listing question", Message: "Is the loft pet friendly?",
	})
	require.NoError(t, h.sendMail(SendContactUsEmail)(context.Background(), contact))

	require.Len(t, m.sent, 2)
	assert.Equal(t, SendOTPEmail, m.sent[0].Kind)
	otpData := m.sent[0].Data.(map[string]any)
	assert.Equal(t, "482913", otpData["code"])
	assert.Equal(t, "tenant@example.com", otpData["email"])

	assert.Equal(t, SendContactUsEmail, m.sent[1].Kind)
	contactData := m.sent[1].Data.(map[string]any)
	assert.Equal(t, "Listing question", contactData["subject"])
	assert.Equal(t, "visitor@example.com", contactData["fromEmail"])
}

func TestSendMailHandlerForwardsPayloadWithoutRetryCounter(t *testing.T) {
	now := time.Date(2025, 1, 11, 9, 0, 0, 0, time.UTC)
	m := &fakeMailer{}
	h := newHandlers(now, &fakeRequestStore{}, newFakePropertyStore(), m)

	body, err := json.Marshal(map[string]any{
		"tenantEmail": "tenant@example.com",
		"retriesLeft": 2,
	})
	require.NoError(t, err)
	job := &scheduler.Job{ID: 1, Name: NotifyTenantDeclined, Payload: body}

	require.NoError(t, h.sendMail(NotifyTenantDeclined)(context.Background(), job))
	require.Len(t, m.sent, 1)
	data := m.sent[0].Data.(map[string]any)
	assert.NotContains(t, data, "retriesLeft")
	assert.Equal(t, "tenant@example.com", data["tenantEmail"])
}
