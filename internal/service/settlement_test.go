package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/rental-marketplace/internal/jobs"
	"github.com/iliyamo/rental-marketplace/internal/model"
	"github.com/iliyamo/rental-marketplace/internal/payment"
	"github.com/iliyamo/rental-marketplace/internal/repository"
)

func newSettlementFixture(t *testing.T, gw *fakeGateway) (*SettlementService, *fakeRequests, *fakeSettlement, *fakeQueue) {
	t.Helper()
	requests := newFakeRequests()
	store := newFakeSettlement(requests)
	queue := &fakeQueue{}
	svc := &SettlementService{
		Requests: requests,
		Properties: newFakeProperties(&model.Property{
			ID: 10, LandlordID: 2, Title: "Riverside Loft", IsAvailable: false,
		}),
		Users: newFakeUsers(
			&model.User{ID: 1, FullName: "Tena Tenant", Email: "tenant@example.com"},
			&model.User{ID: 2, FullName: "Lana Landlord", Email: "landlord@example.com"},
		),
		Store:     store,
		Gateway:   gw,
		Jobs:      queue,
		Clock:     fixedClock{t: time.Date(2025, 1, 11, 9, 0, 0, 0, time.UTC)},
		Log:       testLogger(),
		ReturnURI: "https://app.example.com/payments/verify",
	}
	return svc, requests, store, queue
}

func approvedRequest(requests *fakeRequests) *model.BookingRequest {
	due := time.Date(2025, 1, 12, 9, 0, 0, 0, time.UTC)
	return requests.add(&model.BookingRequest{
		TenantID: 1, LandlordID: 2, PropertyID: 10,
		MoveIn:         time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC),
		MoveOut:        time.Date(2025, 2, 15, 0, 0, 0, 0, time.UTC),
		BasePriceCents: 100_000, NetPriceCents: 115_000, ServiceChargeCents: 10_000,
		Status: model.RequestApproved, PaymentStatus: model.PaymentPending, PaymentDue: &due,
	})
}

func TestSettlementCreditsNetMinusServiceCharge(t *testing.T) {
	gw := &fakeGateway{status: payment.StatusSuccessful, amount: 115_000}
	svc, requests, store, queue := newSettlementFixture(t, gw)
	req := approvedRequest(requests)

	require.NoError(t, svc.HandlePaymentSuccess(context.Background(), req.ID, "chrg_1"))

	assert.Equal(t, int64(105_000), store.balances[2])
	got, err := requests.GetByID(context.Background(), req.ID)
	require.NoError(t, err)
	assert.Equal(t, model.PaymentSuccess, got.PaymentStatus)
	require.NotNil(t, got.PaymentRef)
	assert.Equal(t, "chrg_1", *got.PaymentRef)

	assert.Len(t, queue.named(jobs.PaymentReceivedLandlord), 1)
	assert.Len(t, queue.named(jobs.PaymentConfirmedTenant), 1)
}

func TestSettlementReplayIsRejectedWithoutSecondCredit(t *testing.T) {
	gw := &fakeGateway{status: payment.StatusSuccessful, amount: 115_000}
	svc, requests, store, _ := newSettlementFixture(t, gw)
	req := approvedRequest(requests)

	require.NoError(t, svc.HandlePaymentSuccess(context.Background(), req.ID, "chrg_1"))
	err := svc.HandlePaymentSuccess(context.Background(), req.ID, "chrg_1")
	assert.ErrorIs(t, err, ErrDuplicateReference)
	assert.Equal(t, int64(105_000), store.balances[2])
	assert.Equal(t, 1, store.applied)
}

func TestSettlementRejectsReferenceUsedByAnotherRequest(t *testing.T) {
	gw := &fakeGateway{status: payment.StatusSuccessful, amount: 115_000}
	svc, requests, store, _ := newSettlementFixture(t, gw)
	first := approvedRequest(requests)
	second := approvedRequest(requests)

	require.NoError(t, svc.HandlePaymentSuccess(context.Background(), first.ID, "chrg_1"))
	err := svc.HandlePaymentSuccess(context.Background(), second.ID, "chrg_1")
	assert.ErrorIs(t, err, ErrDuplicateReference)
	assert.Equal(t, int64(105_000), store.balances[2])

	got, err := requests.GetByID(context.Background(), second.ID)
	require.NoError(t, err)
	assert.Equal(t, model.PaymentPending, got.PaymentStatus)
}

func TestSettlementRejectsAmountMismatchWithoutMutation(t *testing.T) {
	gw := &fakeGateway{status: payment.StatusSuccessful, amount: 1_000}
	svc, requests, store, _ := newSettlementFixture(t, gw)
	req := approvedRequest(requests)

	err := svc.HandlePaymentSuccess(context.Background(), req.ID, "chrg_1")
	assert.ErrorIs(t, err, ErrAmountMismatch)
	assert.Zero(t, store.balances[2])

	got, err := requests.GetByID(context.Background(), req.ID)
	require.NoError(t, err)
	assert.Equal(t, model.PaymentPending, got.PaymentStatus)
	assert.Nil(t, got.PaymentRef)
}

func TestSettlementRejectsUnsuccessfulGatewayStatus(t *testing.T) {
	gw := &fakeGateway{status: "failed", amount: 115_000}
	svc, requests, store, _ := newSettlementFixture(t, gw)
	req := approvedRequest(requests)

	err := svc.HandlePaymentSuccess(context.Background(), req.ID, "chrg_1")
	assert.ErrorIs(t, err, ErrGatewayFailed)
	assert.Zero(t, store.balances[2])
}

func TestSettlementRejectsExpiredRequest(t *testing.T) {
	gw := &fakeGateway{status: payment.StatusSuccessful, amount: 115_000}
	svc, requests, store, queue := newSettlementFixture(t, gw)
	req := approvedRequest(requests)
	// the reminder job expired the unpaid request and re-listed the
	// property; a late gateway callback must not settle it
	requests.byID[req.ID].Status = model.RequestExpired

	err := svc.HandlePaymentSuccess(context.Background(), req.ID, "chrg_late")
	assert.ErrorIs(t, err, ErrNotApproved)
	assert.Zero(t, store.balances[2])
	assert.Zero(t, store.applied)

	got, err := requests.GetByID(context.Background(), req.ID)
	require.NoError(t, err)
	assert.Equal(t, model.PaymentPending, got.PaymentStatus)
	assert.Nil(t, got.PaymentRef)
	assert.Empty(t, queue.named(jobs.PaymentReceivedLandlord))
}

func TestSettlementStoreRefusesNonApprovedRequest(t *testing.T) {
	requests := newFakeRequests()
	store := newFakeSettlement(requests)
	req := approvedRequest(requests)
	// status flips between the service's read and the store's claim
	requests.byID[req.ID].Status = model.RequestExpired

	err := store.Apply(context.Background(), req, "chrg_late", 105_000)
	assert.ErrorIs(t, err, repository.ErrConflict)
	assert.Zero(t, store.balances[2])
}

func TestSettlementUnknownRequest(t *testing.T) {
	gw := &fakeGateway{status: payment.StatusSuccessful, amount: 115_000}
	svc, _, _, _ := newSettlementFixture(t, gw)
	err := svc.HandlePaymentSuccess(context.Background(), 404, "chrg_1")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestInitializePaymentGuards(t *testing.T) {
	gw := &fakeGateway{authURL: "https://pay.example.com/auth/chrg_1"}
	svc, requests, _, _ := newSettlementFixture(t, gw)
	req := approvedRequest(requests)

	url, err := svc.InitializePayment(context.Background(), 1, req.ID)
	require.NoError(t, err)
	assert.Equal(t, gw.authURL, url)

	_, err = svc.InitializePayment(context.Background(), 2, req.ID)
	assert.ErrorIs(t, err, ErrForbidden)

	pending := requests.add(&model.BookingRequest{
		TenantID: 1, LandlordID: 2, PropertyID: 10,
		Status: model.RequestPending, PaymentStatus: model.PaymentPending,
	})
	_, err = svc.InitializePayment(context.Background(), 1, pending.ID)
	assert.ErrorIs(t, err, ErrNotApproved)
}
