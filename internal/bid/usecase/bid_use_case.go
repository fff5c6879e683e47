package usecase

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"logiledger/internal/domain"
	"logiledger/internal/dto"
	apperrors "logiledger/internal/errors"
	"logiledger/internal/events"
)

type ConsignmentRepository interface {
	FindByID(ctx context.Context, id string) (*domain.Consignment, error)
}

type BidRepository interface {
	FindByID(ctx context.Context, id string) (*domain.Bid, error)
	FindByConsignmentAndBidder(ctx context.Context, consignmentID, bidderID string) (*domain.Bid, error)
	FindByBidder(ctx context.Context, bidderID string) ([]domain.Bid, error)
	FindByConsignment(ctx context.Context, consignmentID string) ([]domain.Bid, error)
}

type BidService interface {
	Submit(ctx context.Context, bid *domain.Bid) error
	Award(ctx context.Context, bid domain.Bid, now time.Time) ([]string, error)
}

type BidUseCase struct {
	consignmentRepo ConsignmentRepository
	bidRepo         BidRepository
	bidSvc          BidService
	publisher       events.Publisher
	logger          *zap.Logger
	now             func() time.Time
}

func NewBidUseCase(
	consignmentRepo ConsignmentRepository,
	bidRepo BidRepository,
	bidSvc BidService,
	publisher events.Publisher,
	logger *zap.Logger,
) *BidUseCase {
	return &BidUseCase{
		consignmentRepo: consignmentRepo,
		bidRepo:         bidRepo,
		bidSvc:          bidSvc,
		publisher:       publisher,
		logger:          logger,
		now:             func() time.Time { return time.Now().UTC().Truncate(time.Microsecond) },
	}
}

// Submit places a bid. Checks run in a fixed order and the first failure
// wins: role, consignment existence, open status, duplicate, budget, dates.
func (uc *BidUseCase) Submit(ctx context.Context, caller domain.Caller, req dto.SubmitBidRequest) (*domain.Bid, error) {
	uc.logger.Info("submit bid started", zap.String("consignmentId", req.ConsignmentID), zap.String("callerId", caller.ID))

	if !caller.IsMSME() {
		return nil, apperrors.NewForbiddenError("Only MSMEs can place bids")
	}

	consignment, err := uc.consignmentRepo.FindByID(ctx, req.ConsignmentID)
	if err != nil {
		return nil, err
	}

	if !consignment.AcceptingBids() {
		return nil, apperrors.NewInvalidStateError("This consignment is no longer accepting bids", string(consignment.Status))
	}

	existing, err := uc.bidRepo.FindByConsignmentAndBidder(ctx, consignment.ID, caller.ID)
	if err != nil {
		if _, ok := apperrors.IsNotFoundError(err); !ok {
			return nil, err
		}
	}
	if existing != nil {
		return nil, apperrors.NewConflictError("You have already placed a bid on this consignment")
	}

	if !domain.WithinBudget(req.BidAmount, consignment.Budget) {
		return nil, apperrors.NewValidationError("Bid amount cannot exceed the maximum budget", apperrors.ValidationDetail{
			Field:   "bidAmount",
			Message: "must not exceed the consignment budget",
		})
	}

	estimatedDelivery, err := domain.ParseTimestamp(req.EstimatedDelivery)
	if err != nil {
		return nil, apperrors.NewValidationError("Invalid date format", apperrors.ValidationDetail{
			Field:   "estimatedDelivery",
			Message: "must be an ISO-8601 timestamp",
		})
	}
	if estimatedDelivery.After(consignment.Deadline) {
		return nil, apperrors.NewValidationError("Estimated delivery cannot be after the deadline", apperrors.ValidationDetail{
			Field:   "estimatedDelivery",
			Message: "must be on or before " + consignment.Deadline.Format(time.RFC3339),
		})
	}

	bid := &domain.Bid{
		ConsignmentID:     consignment.ID,
		ConsignmentTitle:  consignment.Title,
		BidderID:          caller.ID,
		BidderName:        caller.Name,
		BidderCompany:     caller.DisplayCompany(),
		BidAmount:         domain.RoundAmount(req.BidAmount),
		EstimatedDelivery: estimatedDelivery,
		Notes:             strings.TrimSpace(req.Notes),
		Status:            domain.BidStatusPending,
		CreatedAt:         uc.now(),
	}

	if err := uc.bidSvc.Submit(ctx, bid); err != nil {
		return nil, err
	}

	uc.logger.Info("bid submitted",
		zap.String("bidId", bid.ID),
		zap.String("consignmentId", bid.ConsignmentID),
		zap.String("callerId", caller.ID),
		zap.Float64("bidAmount", bid.BidAmount))

	events.Emit(ctx, uc.publisher, uc.logger, events.BidCreated(*bid, bid.CreatedAt))
	return bid, nil
}

// Award selects the winning bid for a consignment the caller owns. Calling it
// again after a successful award fails with InvalidState and changes nothing.
func (uc *BidUseCase) Award(ctx context.Context, caller domain.Caller, bidID string) (*domain.Bid, error) {
	uc.logger.Info("award bid started", zap.String("bidId", bidID), zap.String("callerId", caller.ID))

	if !caller.IsCompany() {
		return nil, apperrors.NewForbiddenError("Only companies can award bids")
	}

	bid, err := uc.bidRepo.FindByID(ctx, bidID)
	if err != nil {
		return nil, err
	}

	consignment, err := uc.consignmentRepo.FindByID(ctx, bid.ConsignmentID)
	if err != nil {
		return nil, err
	}

	if !consignment.OwnedBy(caller.ID) {
		return nil, apperrors.NewForbiddenError("You can only award bids on your own consignments")
	}

	if !consignment.AcceptingBids() {
		return nil, apperrors.NewInvalidStateError("This consignment has already been awarded", string(consignment.Status))
	}

	now := uc.now()
	rejectedIDs, err := uc.bidSvc.Award(ctx, *bid, now)
	if err != nil {
		return nil, err
	}

	bid.Status = domain.BidStatusAwarded
	bid.AwardedAt = &now
	bid.UpdatedAt = &now

	uc.logger.Info("bid awarded",
		zap.String("bidId", bid.ID),
		zap.String("consignmentId", bid.ConsignmentID),
		zap.String("callerId", caller.ID),
		zap.Int("rejectedCount", len(rejectedIDs)))

	events.Emit(ctx, uc.publisher, uc.logger, events.BidAwarded(*bid, rejectedIDs, now))
	return bid, nil
}

func (uc *BidUseCase) ListMine(ctx context.Context, caller domain.Caller) ([]domain.Bid, error) {
	if !caller.IsMSME() {
		return nil, apperrors.NewForbiddenError("Only MSMEs have bids")
	}
	return uc.bidRepo.FindByBidder(ctx, caller.ID)
}

func (uc *BidUseCase) ListForConsignment(ctx context.Context, caller domain.Caller, consignmentID string) ([]domain.Bid, error) {
	if !caller.IsCompany() {
		return nil, apperrors.NewForbiddenError("Only the owning company can view bids")
	}

	consignment, err := uc.consignmentRepo.FindByID(ctx, consignmentID)
	if err != nil {
		return nil, err
	}
	if !consignment.OwnedBy(caller.ID) {
		return nil, apperrors.NewForbiddenError("Only the owning company can view bids")
	}

	return uc.bidRepo.FindByConsignment(ctx, consignmentID)
}
