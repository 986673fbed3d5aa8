package service

import (
	"context"
	"database/sql"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/iliyamo/rental-marketplace/internal/model"
	"github.com/iliyamo/rental-marketplace/internal/payment"
	"github.com/iliyamo/rental-marketplace/internal/repository"
)

func testLogger() *logrus.Logger {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	return log
}

type fixedClock struct{ t time.Time }

func (c fixedClock) Now() time.Time { return c.t }

// scheduledJob records one JobQueue.Schedule call.
type scheduledJob struct {
	Name    string
	Payload any
	RunAt   time.Time
}

type fakeQueue struct {
	mu   sync.Mutex
	jobs []scheduledJob
}

func (q *fakeQueue) Schedule(_ context.Context, name string, payload any, runAt time.Time) (uint64, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.jobs = append(q.jobs, scheduledJob{Name: name, Payload: payload, RunAt: runAt})
	return uint64(len(q.jobs)), nil
}

func (q *fakeQueue) named(name string) []scheduledJob {
	q.mu.Lock()
	defer q.mu.Unlock()
	var out []scheduledJob
	for _, j := range q.jobs {
		if j.Name == name {
			out = append(out, j)
		}
	}
	return out
}

// fakeRequests is an in-memory booking-request store implementing both
// RequestStore and SettlementRequestStore.
type fakeRequests struct {
	mu     sync.Mutex
	nextID uint64
	byID   map[uint64]*model.BookingRequest
}

func newFakeRequests() *fakeRequests {
	return &fakeRequests{byID: map[uint64]*model.BookingRequest{}}
}

func (f *fakeRequests) add(req *model.BookingRequest) *model.BookingRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	req.ID = f.nextID
	f.byID[req.ID] = req
	return req
}

func (f *fakeRequests) Create(_ context.Context, req *model.BookingRequest) error {
	req.Status = model.RequestPending
	req.PaymentStatus = model.PaymentPending
	f.add(req)
	return nil
}

func (f *fakeRequests) GetByID(_ context.Context, id uint64) (*model.BookingRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	req, ok := f.byID[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	cp := *req
	return &cp, nil
}

func (f *fakeRequests) ListByTenant(_ context.Context, tenantID uint64) ([]*model.BookingRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*model.BookingRequest
	for _, r := range f.byID {
		if r.TenantID == tenantID {
			cp := *r
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (f *fakeRequests) ListByLandlord(_ context.Context, landlordID uint64) ([]*model.BookingRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*model.BookingRequest
	for _, r := range f.byID {
		if r.LandlordID == landlordID {
			cp := *r
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (f *fakeRequests) ApproveIfPending(_ context.Context, id uint64, paymentDue time.Time) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	req, ok := f.byID[id]
	if !ok || req.Status != model.RequestPending {
		return false, nil
	}
	req.Status = model.RequestApproved
	req.PaymentDue = &paymentDue
	return true, nil
}

func (f *fakeRequests) DeclineIfPending(_ context.Context, id uint64) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	req, ok := f.byID[id]
	if !ok || req.Status != model.RequestPending {
		return false, nil
	}
	req.Status = model.RequestDeclined
	return true, nil
}

func (f *fakeRequests) DeletePending(_ context.Context, id, tenantID uint64) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	req, ok := f.byID[id]
	if !ok || req.TenantID != tenantID || req.Status != model.RequestPending {
		return false, nil
	}
	delete(f.byID, id)
	return true, nil
}

func (f *fakeRequests) DeclineOtherPending(_ context.Context, propertyID, winnerID uint64) ([]*model.BookingRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var declined []*model.BookingRequest
	for _, r := range f.byID {
		if r.PropertyID == propertyID && r.ID != winnerID && r.Status == model.RequestPending {
			r.Status = model.RequestDeclined
			cp := *r
			declined = append(declined, &cp)
		}
	}
	return declined, nil
}

func (f *fakeRequests) IDByPaymentRef(_ context.Context, ref string) (uint64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.byID {
		if r.PaymentRef != nil && *r.PaymentRef == ref {
			return r.ID, nil
		}
	}
	return 0, sql.ErrNoRows
}

// fakeProperties is an in-memory property store.
type fakeProperties struct {
	mu         sync.Mutex
	byID       map[uint64]*model.Property
	requesters map[uint64]map[uint64]bool
}

func newFakeProperties(props ...*model.Property) *fakeProperties {
	f := &fakeProperties{byID: map[uint64]*model.Property{}, requesters: map[uint64]map[uint64]bool{}}
	for _, p := range props {
		f.byID[p.ID] = p
		f.requesters[p.ID] = map[uint64]bool{}
	}
	return f
}

func (f *fakeProperties) GetByID(_ context.Context, id uint64) (*model.Property, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.byID[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	cp := *p
	return &cp, nil
}

func (f *fakeProperties) AddRequester(_ context.Context, propertyID, userID uint64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requesters[propertyID][userID] = true
	return nil
}

func (f *fakeProperties) RemoveRequester(_ context.Context, propertyID, userID uint64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.requesters[propertyID], userID)
	return nil
}

func (f *fakeProperties) ClearRequesters(_ context.Context, propertyID uint64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requesters[propertyID] = map[uint64]bool{}
	return nil
}

func (f *fakeProperties) SetAvailability(_ context.Context, propertyID uint64, available bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if p, ok := f.byID[propertyID]; ok {
		p.IsAvailable = available
	}
	return nil
}

func (f *fakeProperties) hasRequester(propertyID, userID uint64) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.requesters[propertyID][userID]
}

// fakeUsers is an in-memory user store.
type fakeUsers struct{ byID map[uint64]*model.User }

func newFakeUsers(users ...*model.User) *fakeUsers {
	f := &fakeUsers{byID: map[uint64]*model.User{}}
	for _, u := range users {
		f.byID[u.ID] = u
	}
	return f
}

func (f *fakeUsers) GetByID(_ context.Context, id uint64) (*model.User, error) {
	u, ok := f.byID[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return u, nil
}

type fakeSettings struct{ pct float64 }

func (f fakeSettings) ServiceFeePercent(context.Context) (float64, error) { return f.pct, nil }

// fakeGateway returns a canned verification.
type fakeGateway struct {
	status  string
	amount  int64
	authURL string
	verErr  error
}

func (g *fakeGateway) Initialize(context.Context, string, int64, string) (string, error) {
	return g.authURL, nil
}

func (g *fakeGateway) Verify(context.Context, string) (*payment.Verification, error) {
	if g.verErr != nil {
		return nil, g.verErr
	}
	return &payment.Verification{Status: g.status, AmountCents: g.amount}, nil
}

// fakeSettlement mirrors the transactional store: it flips payment
// status and reference on the shared fakeRequests and credits an
// in-memory wallet balance, all-or-nothing like the real one.
type fakeSettlement struct {
	requests *fakeRequests
	balances map[uint64]int64
	applied  int
}

func newFakeSettlement(requests *fakeRequests) *fakeSettlement {
	return &fakeSettlement{requests: requests, balances: map[uint64]int64{}}
}

func (f *fakeSettlement) Apply(_ context.Context, req *model.BookingRequest, reference string, creditCents int64) error {
	f.requests.mu.Lock()
	defer f.requests.mu.Unlock()
	stored, ok := f.requests.byID[req.ID]
	if !ok || stored.Status != model.RequestApproved ||
		stored.PaymentStatus != model.PaymentPending || stored.PaymentRef != nil {
		return repository.ErrConflict
	}
	stored.PaymentStatus = model.PaymentSuccess
	stored.PaymentRef = &reference
	f.balances[req.LandlordID] += creditCents
	f.applied++
	return nil
}

// fakeWallets is an in-memory wallet store.
type fakeWallets struct {
	mu   sync.Mutex
	byID map[uint64]*model.Wallet
}

func newFakeWallets(wallets ...*model.Wallet) *fakeWallets {
	f := &fakeWallets{byID: map[uint64]*model.Wallet{}}
	for _, w := range wallets {
		f.byID[w.UserID] = w
	}
	return f
}

func (f *fakeWallets) GetOrCreate(_ context.Context, userID uint64) (*model.Wallet, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	w, ok := f.byID[userID]
	if !ok {
		w = &model.Wallet{ID: userID, UserID: userID}
		f.byID[userID] = w
	}
	cp := *w
	return &cp, nil
}

func (f *fakeWallets) Debit(_ context.Context, userID uint64, amountCents int64) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	w, ok := f.byID[userID]
	if !ok || !w.HasSubmitted || w.IsBlocked || w.BalanceCents < amountCents {
		return false, nil
	}
	w.BalanceCents -= amountCents
	return true, nil
}

func (f *fakeWallets) SubmitBankDetails(_ context.Context, userID uint64, bankName, accountNumber, accountName string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	w, ok := f.byID[userID]
	if !ok {
		w = &model.Wallet{ID: userID, UserID: userID}
		f.byID[userID] = w
	}
	w.BankName, w.AccountNumber, w.AccountName = bankName, accountNumber, accountName
	w.HasSubmitted = true
	return nil
}

func (f *fakeWallets) SetBlocked(_ context.Context, userID uint64, blocked bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if w, ok := f.byID[userID]; ok {
		w.IsBlocked = blocked
	}
	return nil
}

type fakeTransactions struct {
	mu      sync.Mutex
	records []*model.Transaction
}

func (f *fakeTransactions) Create(_ context.Context, t *model.Transaction) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	t.ID = uint64(len(f.records) + 1)
	f.records = append(f.records, t)
	return nil
}

func (f *fakeTransactions) ListByUser(_ context.Context, userID uint64) ([]*model.Transaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*model.Transaction
	for _, t := range f.records {
		if t.UserID == userID {
			out = append(out, t)
		}
	}
	return out, nil
}
