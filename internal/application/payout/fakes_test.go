package payout

import (
	"context"
	"sync"
	"time"

	"github.com/estatevest/backend/internal/domain/account"
	"github.com/estatevest/backend/internal/domain/investment"
	"github.com/estatevest/backend/internal/domain/listing"
	"github.com/estatevest/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

// memState is a copy-on-write snapshot of every table the engines touch.
type memState struct {
	investments map[uuid.UUID]investment.Investment
	listings    map[uuid.UUID]listing.Listing
	users       map[uuid.UUID]account.User
	plans       map[uuid.UUID]account.Plan
	wallets     map[uuid.UUID]account.Wallet // by user id
	investors   map[uuid.UUID]map[uuid.UUID]bool
	ledger      map[string]decimal.Decimal // reference -> amount
	listingSeq  []uuid.UUID
}

func newMemState() *memState {
	return &memState{
		investments: map[uuid.UUID]investment.Investment{},
		listings:    map[uuid.UUID]listing.Listing{},
		users:       map[uuid.UUID]account.User{},
		plans:       map[uuid.UUID]account.Plan{},
		wallets:     map[uuid.UUID]account.Wallet{},
		investors:   map[uuid.UUID]map[uuid.UUID]bool{},
		ledger:      map[string]decimal.Decimal{},
	}
}

func (s *memState) clone() *memState {
	c := newMemState()
	for k, v := range s.investments {
		c.investments[k] = v
	}
	for k, v := range s.listings {
		c.listings[k] = v
	}
	for k, v := range s.users {
		c.users[k] = v
	}
	for k, v := range s.plans {
		c.plans[k] = v
	}
	for k, v := range s.wallets {
		c.wallets[k] = v
	}
	for k, set := range s.investors {
		c.investors[k] = map[uuid.UUID]bool{}
		for u := range set {
			c.investors[k][u] = true
		}
	}
	for k, v := range s.ledger {
		c.ledger[k] = v
	}
	c.listingSeq = append([]uuid.UUID(nil), s.listingSeq...)
	return c
}

// memStore is an in-memory UnitOfWork with commit and rollback semantics.
type memStore struct {
	mu    sync.Mutex
	state *memState

	// declineCredit makes the ledger decline credits for these users
	declineCredit map[uuid.UUID]string
	// failCreate makes Investments().Create fail
	failCreate error
}

func newMemStore() *memStore {
	return &memStore{state: newMemState(), declineCredit: map[uuid.UUID]string{}}
}

func (m *memStore) Do(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	working := m.state.clone()
	if err := fn(ctx, &memTx{store: m, s: working}); err != nil {
		return err
	}
	m.state = working
	return nil
}

func (m *memStore) addListing(l listing.Listing) {
	m.state.listings[l.ID] = l
	m.state.listingSeq = append(m.state.listingSeq, l.ID)
}

func (m *memStore) investment(id uuid.UUID) investment.Investment {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.investments[id]
}

func (m *memStore) balance(userID uuid.UUID) decimal.Decimal {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.wallets[userID].Balance
}

func (m *memStore) reinvestmentsOf(id uuid.UUID) []investment.Investment {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []investment.Investment
	for _, inv := range m.state.investments {
		if inv.ReinvestedFrom != nil && *inv.ReinvestedFrom == id {
			out = append(out, inv)
		}
	}
	return out
}

// memReader serves candidate queries straight from committed state.
type memReader struct {
	investment.Repository
	store *memStore
}

func (r memReader) FindEligibleForSettlement(_ context.Context, now time.Time, limit int) ([]*investment.Investment, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var out []*investment.Investment
	for _, inv := range r.store.state.investments {
		if inv.EligibleForSettlement(now) {
			c := inv
			out = append(out, &c)
		}
	}
	sortInvestments(out)
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r memReader) FindEligibleForDividend(_ context.Context, now time.Time, limit int) ([]*investment.Investment, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var out []*investment.Investment
	for _, inv := range r.store.state.investments {
		if inv.Category == investment.CategoryFlexible && inv.Status == investment.StatusActive && !inv.PaidOut &&
			inv.DividendsCount < inv.Duration && !now.Before(inv.StartDate) && !now.After(inv.EndDate) {
			c := inv
			out = append(out, &c)
		}
	}
	sortInvestments(out)
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func sortInvestments(list []*investment.Investment) {
	for i := 1; i < len(list); i++ {
		for j := i; j > 0 && list[j].CreatedAt.Before(list[j-1].CreatedAt); j-- {
			list[j], list[j-1] = list[j-1], list[j]
		}
	}
}

type memTx struct {
	store *memStore
	s     *memState
}

func (t *memTx) Investments() investment.Repository { return memInvestments{t} }
func (t *memTx) Listings() listing.Repository       { return memListings{t} }
func (t *memTx) Users() account.UserRepository      { return memUsers{t} }
func (t *memTx) Plans() account.PlanRepository      { return memPlans{t} }
func (t *memTx) Wallets() account.WalletRepository  { return memWallets{t} }
func (t *memTx) Ledger() account.WalletLedger       { return memLedger{t} }

type memInvestments struct{ t *memTx }

func (r memInvestments) FindByID(_ context.Context, id uuid.UUID) (*investment.Investment, error) {
	inv, ok := r.t.s.investments[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return &inv, nil
}

func (r memInvestments) FindEligibleForSettlement(context.Context, time.Time, int) ([]*investment.Investment, error) {
	panic("not used inside a transaction")
}

func (r memInvestments) FindEligibleForDividend(context.Context, time.Time, int) ([]*investment.Investment, error) {
	panic("not used inside a transaction")
}

func (r memInvestments) Create(_ context.Context, inv *investment.Investment) error {
	if r.t.store.failCreate != nil {
		return r.t.store.failCreate
	}
	r.t.s.investments[inv.ID] = *inv
	return nil
}

func (r memInvestments) Update(_ context.Context, inv *investment.Investment) error {
	stored, ok := r.t.s.investments[inv.ID]
	if !ok {
		return shared.ErrNotFound
	}
	if stored.Version != inv.Version {
		return shared.ErrConcurrencyConflict
	}
	inv.Version++
	r.t.s.investments[inv.ID] = *inv
	return nil
}

func (r memInvestments) MarkSettled(_ context.Context, inv *investment.Investment) error {
	stored, ok := r.t.s.investments[inv.ID]
	if !ok || stored.PaidOut || stored.Status != investment.StatusActive {
		return investment.ErrAlreadySettled
	}
	inv.Version++
	r.t.s.investments[inv.ID] = *inv
	return nil
}

type memListings struct{ t *memTx }

func (r memListings) FindByID(_ context.Context, id uuid.UUID) (*listing.Listing, error) {
	l, ok := r.t.s.listings[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return &l, nil
}

func (r memListings) FindActiveByHoldingPeriod(_ context.Context, months int) (*listing.Listing, error) {
	for _, id := range r.t.s.listingSeq {
		l := r.t.s.listings[id]
		if l.Status == listing.StatusActive && l.HoldingPeriod == months {
			return &l, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (r memListings) Update(_ context.Context, l *listing.Listing) error {
	l.Version++
	r.t.s.listings[l.ID] = *l
	return nil
}

func (r memListings) AddInvestor(_ context.Context, listingID, userID uuid.UUID) (bool, error) {
	set, ok := r.t.s.investors[listingID]
	if !ok {
		set = map[uuid.UUID]bool{}
		r.t.s.investors[listingID] = set
	}
	if set[userID] {
		return false, nil
	}
	set[userID] = true
	return true, nil
}

type memUsers struct{ t *memTx }

func (r memUsers) FindByID(_ context.Context, id uuid.UUID) (*account.User, error) {
	u, ok := r.t.s.users[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return &u, nil
}

func (r memUsers) IncrementInvested(_ context.Context, id uuid.UUID, amount decimal.Decimal) error {
	u := r.t.s.users[id]
	u.TotalAmountInvested = u.TotalAmountInvested.Add(amount)
	r.t.s.users[id] = u
	return nil
}

type memPlans struct{ t *memTx }

func (r memPlans) FindByID(_ context.Context, id uuid.UUID) (*account.Plan, error) {
	p, ok := r.t.s.plans[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return &p, nil
}

type memWallets struct{ t *memTx }

func (r memWallets) FindByUserID(_ context.Context, userID uuid.UUID) (*account.Wallet, error) {
	w, ok := r.t.s.wallets[userID]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return &w, nil
}

type memLedger struct{ t *memTx }

func (r memLedger) Credit(_ context.Context, req account.CreditRequest) (account.CreditResult, error) {
	if msg, ok := r.t.store.declineCredit[req.UserID]; ok {
		return account.CreditResult{Success: false, Message: msg}, nil
	}
	if _, ok := r.t.s.ledger[req.Reference]; ok {
		return account.CreditResult{Success: true, Replayed: true}, nil
	}
	w, ok := r.t.s.wallets[req.UserID]
	if !ok {
		return account.CreditResult{Success: false, Message: "wallet not found"}, nil
	}
	w.Balance = w.Balance.Add(req.Amount)
	r.t.s.wallets[req.UserID] = w
	r.t.s.ledger[req.Reference] = req.Amount
	return account.CreditResult{Success: true, TransactionID: uuid.New(), BalanceAfter: w.Balance}, nil
}

// memLocker grants every lock unless the key is listed as held.
type memLocker struct {
	held map[string]bool
}

func (l *memLocker) Acquire(_ context.Context, key string, _ time.Duration) (func(), bool, error) {
	if l.held[key] {
		return nil, false, nil
	}
	return func() {}, true, nil
}

// MockAlerter is a mock implementation of Alerter
type MockAlerter struct {
	mock.Mock
	mu     sync.Mutex
	alerts []Alert
}

func (m *MockAlerter) Alert(ctx context.Context, a Alert) {
	m.mu.Lock()
	m.alerts = append(m.alerts, a)
	m.mu.Unlock()
	m.Called(ctx, a)
}

func (m *MockAlerter) byChannel(c Channel) []Alert {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Alert
	for _, a := range m.alerts {
		if a.Channel == c {
			out = append(out, a)
		}
	}
	return out
}

// MockMailer is a mock implementation of Mailer
type MockMailer struct {
	mock.Mock
}

func (m *MockMailer) SendTemplateEmail(ctx context.Context, template string, msg EmailMessage) error {
	args := m.Called(ctx, template, msg)
	return args.Error(0)
}

// MockNotificationQueue is a mock implementation of NotificationQueue
type MockNotificationQueue struct {
	mock.Mock
}

func (m *MockNotificationQueue) Enqueue(ctx context.Context, n Notification) error {
	args := m.Called(ctx, n)
	return args.Error(0)
}

// MockDeedRenderer is a mock implementation of DeedRenderer
type MockDeedRenderer struct {
	mock.Mock
}

func (m *MockDeedRenderer) RenderDeed(ctx context.Context, p DeedPayload) (string, error) {
	args := m.Called(ctx, p)
	return args.String(0), args.Error(1)
}
