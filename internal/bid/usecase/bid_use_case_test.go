package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"logiledger/internal/domain"
	"logiledger/internal/dto"
	apperrors "logiledger/internal/errors"
	"logiledger/internal/events"
)

// fakeMarketplace keeps consignments and bids in memory and applies submit
// and award the way the MySQL service does, so scenarios can run end to end.
type fakeMarketplace struct {
	mu           sync.Mutex
	consignments map[string]*domain.Consignment
	bids         map[string]*domain.Bid
	seq          int
	submitErr    error
}

func newFakeMarketplace(consignments ...domain.Consignment) *fakeMarketplace {
	f := &fakeMarketplace{
		consignments: map[string]*domain.Consignment{},
		bids:         map[string]*domain.Bid{},
	}
	for i := range consignments {
		c := consignments[i]
		f.consignments[c.ID] = &c
	}
	return f
}

func (f *fakeMarketplace) FindByID(ctx context.Context, id string) (*domain.Consignment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.consignments[id]
	if !ok {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("consignment %s not found", id))
	}
	out := *c
	return &out, nil
}

type fakeBidRepository struct{ *fakeMarketplace }

func (f fakeBidRepository) FindByID(ctx context.Context, id string) (*domain.Bid, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.bids[id]
	if !ok {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("bid %s not found", id))
	}
	out := *b
	return &out, nil
}

func (f fakeBidRepository) FindByConsignmentAndBidder(ctx context.Context, consignmentID, bidderID string) (*domain.Bid, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, b := range f.bids {
		if b.ConsignmentID == consignmentID && b.BidderID == bidderID {
			out := *b
			return &out, nil
		}
	}
	return nil, apperrors.NewNotFoundError("no bid")
}

func (f fakeBidRepository) FindByBidder(ctx context.Context, bidderID string) ([]domain.Bid, error) {
	return f.filter(func(b *domain.Bid) bool { return b.BidderID == bidderID }), nil
}

func (f fakeBidRepository) FindByConsignment(ctx context.Context, consignmentID string) ([]domain.Bid, error) {
	return f.filter(func(b *domain.Bid) bool { return b.ConsignmentID == consignmentID }), nil
}

func (f fakeBidRepository) filter(keep func(b *domain.Bid) bool) []domain.Bid {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []domain.Bid{}
	for _, b := range f.bids {
		if keep(b) {
			out = append(out, *b)
		}
	}
	return out
}

type fakeBidService struct{ *fakeMarketplace }

func (f fakeBidService) Submit(ctx context.Context, bid *domain.Bid) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.submitErr != nil {
		return f.submitErr
	}
	c := f.consignments[bid.ConsignmentID]
	if c.Status != domain.ConsignmentStatusOpen {
		return apperrors.NewInvalidStateError("This consignment is no longer accepting bids", string(c.Status))
	}
	for _, b := range f.bids {
		if b.ConsignmentID == bid.ConsignmentID && b.BidderID == bid.BidderID {
			return apperrors.NewConflictError("You have already placed a bid on this consignment")
		}
	}
	f.seq++
	bid.ID = fmt.Sprintf("bid-%d", f.seq)
	stored := *bid
	f.bids[bid.ID] = &stored
	c.BidCount++
	return nil
}

func (f fakeBidService) Award(ctx context.Context, bid domain.Bid, now time.Time) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c := f.consignments[bid.ConsignmentID]
	if c.Status != domain.ConsignmentStatusOpen {
		return nil, apperrors.NewInvalidStateError("This consignment has already been awarded", string(c.Status))
	}
	c.Status = domain.ConsignmentStatusAwarded
	c.AwardedBidderID = &bid.BidderID
	amount := bid.BidAmount
	c.FinalAmount = &amount

	rejected := []string{}
	for id, b := range f.bids {
		if b.ConsignmentID != bid.ConsignmentID || b.Status != domain.BidStatusPending {
			continue
		}
		if id == bid.ID {
			b.Status = domain.BidStatusAwarded
			b.AwardedAt = &now
			continue
		}
		b.Status = domain.BidStatusRejected
		b.UpdatedAt = &now
		rejected = append(rejected, id)
	}
	return rejected, nil
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (p *recordingPublisher) Publish(ctx context.Context, event events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

var (
	company  = domain.Caller{ID: "company-1", Role: domain.RoleCompany, Name: "TechCorp India"}
	bidderX  = domain.Caller{ID: "msme-x", Role: domain.RoleMSME, Name: "Ravi", CompanyName: "Ravi Transport"}
	bidderY  = domain.Caller{ID: "msme-y", Role: domain.RoleMSME, Name: "Meera"}
	deadline = time.Date(2026, 12, 10, 18, 0, 0, 0, time.UTC)
)

func openConsignment() domain.Consignment {
	return domain.Consignment{
		ID:        "cons-1",
		Title:     "Electronics Delivery",
		Origin:    "Mumbai, Maharashtra",
		Budget:    15000,
		Deadline:  deadline,
		Status:    domain.ConsignmentStatusOpen,
		CompanyID: company.ID,
	}
}

func newTestBidUseCase(store *fakeMarketplace, pub events.Publisher) *BidUseCase {
	return NewBidUseCase(store, fakeBidRepository{store}, fakeBidService{store}, pub, zap.NewNop())
}

func bidRequest(amount float64, delivery string) dto.SubmitBidRequest {
	return dto.SubmitBidRequest{ConsignmentID: "cons-1", BidAmount: amount, EstimatedDelivery: delivery}
}

func TestSubmit_ScenarioA(t *testing.T) {
	store := newFakeMarketplace(openConsignment())
	pub := &recordingPublisher{}
	uc := newTestBidUseCase(store, pub)

	bid, err := uc.Submit(context.Background(), bidderX, bidRequest(12000, "2026-12-08T10:00:00Z"))

	require.NoError(t, err)
	assert.Equal(t, domain.BidStatusPending, bid.Status)
	assert.Equal(t, "Ravi Transport", bid.BidderCompany)
	assert.Equal(t, "Electronics Delivery", bid.ConsignmentTitle)
	assert.Equal(t, 1, store.consignments["cons-1"].BidCount)

	require.Len(t, pub.events, 1)
	assert.Equal(t, events.TypeBidCreated, pub.events[0].Type)
}

func TestSubmit_BudgetBoundary(t *testing.T) {
	store := newFakeMarketplace(openConsignment())
	uc := newTestBidUseCase(store, events.NopPublisher{})

	_, err := uc.Submit(context.Background(), bidderX, bidRequest(15000, "2026-12-08T10:00:00Z"))
	require.NoError(t, err)

	_, err = uc.Submit(context.Background(), bidderY, bidRequest(15000.01, "2026-12-08T10:00:00Z"))
	ve, ok := apperrors.IsValidationError(err)
	require.True(t, ok)
	assert.Equal(t, "Bid amount cannot exceed the maximum budget", ve.Message)
}

func TestSubmit_DeliveryOnDeadlineAllowed(t *testing.T) {
	store := newFakeMarketplace(openConsignment())
	uc := newTestBidUseCase(store, events.NopPublisher{})

	_, err := uc.Submit(context.Background(), bidderX, bidRequest(9000, deadline.Format(time.RFC3339)))
	assert.NoError(t, err)
}

func TestSubmit_Preconditions(t *testing.T) {
	awarded := openConsignment()
	awarded.ID = "cons-awarded"
	awarded.Status = domain.ConsignmentStatusAwarded

	tests := []struct {
		name      string
		caller    domain.Caller
		req       dto.SubmitBidRequest
		prior     bool
		checkKind func(error) bool
		message   string
	}{
		{
			name:      "company cannot bid",
			caller:    company,
			req:       bidRequest(12000, "2026-12-08"),
			checkKind: func(err error) bool { _, ok := apperrors.IsForbiddenError(err); return ok },
			message:   "Only MSMEs can place bids",
		},
		{
			name:      "unknown consignment",
			caller:    bidderX,
			req:       dto.SubmitBidRequest{ConsignmentID: "missing", BidAmount: 1, EstimatedDelivery: "2026-12-08"},
			checkKind: func(err error) bool { _, ok := apperrors.IsNotFoundError(err); return ok },
		},
		{
			name:      "consignment already awarded",
			caller:    bidderX,
			req:       dto.SubmitBidRequest{ConsignmentID: "cons-awarded", BidAmount: 1, EstimatedDelivery: "2026-12-08"},
			checkKind: func(err error) bool { _, ok := apperrors.IsInvalidStateError(err); return ok },
			message:   "This consignment is no longer accepting bids",
		},
		{
			name:      "duplicate bid beats budget check",
			caller:    bidderX,
			req:       bidRequest(99999, "2026-12-08"),
			prior:     true,
			checkKind: func(err error) bool { _, ok := apperrors.IsConflictError(err); return ok },
			message:   "You have already placed a bid on this consignment",
		},
		{
			name:      "budget check beats date check",
			caller:    bidderX,
			req:       bidRequest(20000, "not-a-date"),
			checkKind: func(err error) bool { _, ok := apperrors.IsValidationError(err); return ok },
			message:   "Bid amount cannot exceed the maximum budget",
		},
		{
			name:      "unparseable delivery",
			caller:    bidderX,
			req:       bidRequest(12000, "next week"),
			checkKind: func(err error) bool { _, ok := apperrors.IsValidationError(err); return ok },
			message:   "Invalid date format",
		},
		{
			name:      "delivery after deadline",
			caller:    bidderX,
			req:       bidRequest(12000, "2026-12-11T00:00:00Z"),
			checkKind: func(err error) bool { _, ok := apperrors.IsValidationError(err); return ok },
			message:   "Estimated delivery cannot be after the deadline",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newFakeMarketplace(openConsignment(), awarded)
			uc := newTestBidUseCase(store, events.NopPublisher{})

			if tt.prior {
				_, err := uc.Submit(context.Background(), tt.caller, bidRequest(10000, "2026-12-08"))
				require.NoError(t, err)
			}
			before := store.consignments["cons-1"].BidCount

			_, err := uc.Submit(context.Background(), tt.caller, tt.req)

			require.Error(t, err)
			assert.True(t, tt.checkKind(err), "unexpected error kind: %v", err)
			if tt.message != "" {
				assert.Contains(t, err.Error(), tt.message)
			}
			assert.Equal(t, before, store.consignments["cons-1"].BidCount, "failed submit must not touch bidCount")
		})
	}
}

func TestSubmit_StorageConflictSurfaces(t *testing.T) {
	store := newFakeMarketplace(openConsignment())
	store.submitErr = apperrors.NewConflictError("You have already placed a bid on this consignment")
	uc := newTestBidUseCase(store, events.NopPublisher{})

	_, err := uc.Submit(context.Background(), bidderX, bidRequest(12000, "2026-12-08"))

	_, ok := apperrors.IsConflictError(err)
	assert.True(t, ok)
}

func TestSubmit_ConcurrentSameBidder(t *testing.T) {
	store := newFakeMarketplace(openConsignment())
	uc := newTestBidUseCase(store, events.NopPublisher{})

	const attempts = 2
	errs := make([]error, attempts)
	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = uc.Submit(context.Background(), bidderX, bidRequest(12000, "2026-12-08"))
		}(i)
	}
	wg.Wait()

	successes, conflicts := 0, 0
	for _, err := range errs {
		if err == nil {
			successes++
			continue
		}
		if _, ok := apperrors.IsConflictError(err); ok {
			conflicts++
		}
	}
	assert.Equal(t, 1, successes)
	assert.Equal(t, 1, conflicts)
	assert.Equal(t, 1, store.consignments["cons-1"].BidCount)
}

func TestAward_ScenarioB(t *testing.T) {
	store := newFakeMarketplace(openConsignment())
	pub := &recordingPublisher{}
	uc := newTestBidUseCase(store, pub)

	winner, err := uc.Submit(context.Background(), bidderX, bidRequest(12000, "2026-12-08"))
	require.NoError(t, err)
	loser, err := uc.Submit(context.Background(), bidderY, bidRequest(13000, "2026-12-09"))
	require.NoError(t, err)

	awarded, err := uc.Award(context.Background(), company, winner.ID)
	require.NoError(t, err)

	assert.Equal(t, domain.BidStatusAwarded, awarded.Status)
	require.NotNil(t, awarded.AwardedAt)
	assert.Equal(t, domain.BidStatusRejected, store.bids[loser.ID].Status)

	c := store.consignments["cons-1"]
	assert.Equal(t, domain.ConsignmentStatusAwarded, c.Status)
	require.NotNil(t, c.FinalAmount)
	assert.Equal(t, 12000.0, *c.FinalAmount)
	require.NotNil(t, c.AwardedBidderID)
	assert.Equal(t, "msme-x", *c.AwardedBidderID)

	last := pub.events[len(pub.events)-1]
	assert.Equal(t, events.TypeBidAwarded, last.Type)
	payload := last.Payload.(events.BidAwardedPayload)
	assert.Equal(t, []string{loser.ID}, payload.RejectedBidIDs)
}

func TestAward_SecondCallIsInvalidState(t *testing.T) {
	store := newFakeMarketplace(openConsignment())
	uc := newTestBidUseCase(store, events.NopPublisher{})

	first, err := uc.Submit(context.Background(), bidderX, bidRequest(12000, "2026-12-08"))
	require.NoError(t, err)
	second, err := uc.Submit(context.Background(), bidderY, bidRequest(11000, "2026-12-08"))
	require.NoError(t, err)

	_, err = uc.Award(context.Background(), company, first.ID)
	require.NoError(t, err)

	for _, id := range []string{first.ID, second.ID} {
		_, err = uc.Award(context.Background(), company, id)
		_, ok := apperrors.IsInvalidStateError(err)
		assert.True(t, ok, "award of %s: %v", id, err)
	}

	assert.Equal(t, domain.BidStatusAwarded, store.bids[first.ID].Status)
	assert.Equal(t, domain.BidStatusRejected, store.bids[second.ID].Status)
	assert.Equal(t, 12000.0, *store.consignments["cons-1"].FinalAmount)
}

func TestAward_Preconditions(t *testing.T) {
	store := newFakeMarketplace(openConsignment())
	uc := newTestBidUseCase(store, events.NopPublisher{})

	bid, err := uc.Submit(context.Background(), bidderX, bidRequest(12000, "2026-12-08"))
	require.NoError(t, err)

	_, err = uc.Award(context.Background(), bidderX, bid.ID)
	_, ok := apperrors.IsForbiddenError(err)
	assert.True(t, ok, "msme cannot award")

	_, err = uc.Award(context.Background(), company, "missing")
	_, ok = apperrors.IsNotFoundError(err)
	assert.True(t, ok, "unknown bid")

	otherCompany := domain.Caller{ID: "company-2", Role: domain.RoleCompany}
	_, err = uc.Award(context.Background(), otherCompany, bid.ID)
	_, ok = apperrors.IsForbiddenError(err)
	assert.True(t, ok, "non-owner cannot award")

	assert.Equal(t, domain.ConsignmentStatusOpen, store.consignments["cons-1"].Status)
}

func TestAward_ServiceErrorPropagates(t *testing.T) {
	store := newFakeMarketplace(openConsignment())
	uc := newTestBidUseCase(store, events.NopPublisher{})
	bid, err := uc.Submit(context.Background(), bidderX, bidRequest(12000, "2026-12-08"))
	require.NoError(t, err)

	uc.bidSvc = failingBidService{err: apperrors.NewUnavailableError("awarding bid: lock contention", errors.New("deadlock"))}
	_, err = uc.Award(context.Background(), company, bid.ID)

	_, ok := apperrors.IsUnavailableError(err)
	assert.True(t, ok)
}

type failingBidService struct{ err error }

func (f failingBidService) Submit(ctx context.Context, bid *domain.Bid) error { return f.err }

func (f failingBidService) Award(ctx context.Context, bid domain.Bid, now time.Time) ([]string, error) {
	return nil, f.err
}

func TestListForConsignment_OwnerOnly(t *testing.T) {
	store := newFakeMarketplace(openConsignment())
	uc := newTestBidUseCase(store, events.NopPublisher{})
	_, err := uc.Submit(context.Background(), bidderX, bidRequest(12000, "2026-12-08"))
	require.NoError(t, err)

	bids, err := uc.ListForConsignment(context.Background(), company, "cons-1")
	require.NoError(t, err)
	assert.Len(t, bids, 1)

	_, err = uc.ListForConsignment(context.Background(), domain.Caller{ID: "company-2", Role: domain.RoleCompany}, "cons-1")
	_, ok := apperrors.IsForbiddenError(err)
	assert.True(t, ok)

	mine, err := uc.ListMine(context.Background(), bidderX)
	require.NoError(t, err)
	assert.Len(t, mine, 1)

	_, err = uc.ListMine(context.Background(), company)
	_, ok = apperrors.IsForbiddenError(err)
	assert.True(t, ok)
}
