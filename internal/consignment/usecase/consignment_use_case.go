package usecase

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"logiledger/internal/domain"
	"logiledger/internal/dto"
	apperrors "logiledger/internal/errors"
	"logiledger/internal/location"
)

type ConsignmentRepository interface {
	FindByID(ctx context.Context, id string) (*domain.Consignment, error)
	FindByCompany(ctx context.Context, companyID string) ([]domain.Consignment, error)
	FindByStatus(ctx context.Context, status domain.ConsignmentStatus) ([]domain.Consignment, error)
}

type ConsignmentService interface {
	Create(ctx context.Context, c *domain.Consignment) error
	Recount(ctx context.Context, consignmentID string, now time.Time) (int, error)
}

type ConsignmentUseCase struct {
	consignmentRepo ConsignmentRepository
	consignmentSvc  ConsignmentService
	logger          *zap.Logger
	matchRadiusKm   float64
	now             func() time.Time
}

func NewConsignmentUseCase(
	consignmentRepo ConsignmentRepository,
	consignmentSvc ConsignmentService,
	logger *zap.Logger,
	matchRadiusKm float64,
) *ConsignmentUseCase {
	return &ConsignmentUseCase{
		consignmentRepo: consignmentRepo,
		consignmentSvc:  consignmentSvc,
		logger:          logger,
		matchRadiusKm:   matchRadiusKm,
		now:             func() time.Time { return time.Now().UTC().Truncate(time.Microsecond) },
	}
}

func (uc *ConsignmentUseCase) Create(ctx context.Context, caller domain.Caller, req dto.CreateConsignmentRequest) (*domain.Consignment, error) {
	if !caller.IsCompany() {
		return nil, apperrors.NewForbiddenError("Only companies can create consignments")
	}

	var details []apperrors.ValidationDetail
	if strings.TrimSpace(req.Title) == "" {
		details = append(details, apperrors.ValidationDetail{Field: "title", Message: "title is required"})
	}
	if strings.TrimSpace(req.Origin) == "" {
		details = append(details, apperrors.ValidationDetail{Field: "origin", Message: "origin is required"})
	}
	if strings.TrimSpace(req.Destination) == "" {
		details = append(details, apperrors.ValidationDetail{Field: "destination", Message: "destination is required"})
	}
	if req.Weight <= 0 {
		details = append(details, apperrors.ValidationDetail{Field: "weight", Message: "weight must be positive"})
	}
	if req.Budget <= 0 {
		details = append(details, apperrors.ValidationDetail{Field: "budget", Message: "budget must be positive"})
	}
	deadline, err := domain.ParseTimestamp(req.Deadline)
	if err != nil {
		details = append(details, apperrors.ValidationDetail{Field: "deadline", Message: "Invalid date format"})
	}
	if len(details) > 0 {
		return nil, apperrors.NewValidationError("validation failed", details...)
	}

	goodsType := strings.TrimSpace(req.GoodsType)
	if goodsType == "" {
		goodsType = domain.DefaultGoodsType
	}
	description := strings.TrimSpace(req.Description)
	if description == "" {
		description = domain.DefaultDescription
	}

	now := uc.now()
	consignment := &domain.Consignment{
		Title:       strings.TrimSpace(req.Title),
		Origin:      location.Canonicalize(req.Origin),
		Destination: location.Canonicalize(req.Destination),
		GoodsType:   goodsType,
		Weight:      req.Weight,
		Deadline:    deadline,
		Budget:      domain.RoundAmount(req.Budget),
		Description: description,
		Status:      domain.ConsignmentStatusOpen,
		CompanyID:   caller.ID,
		CompanyName: caller.DisplayCompany(),
		BidCount:    0,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := uc.consignmentSvc.Create(ctx, consignment); err != nil {
		return nil, err
	}

	uc.logger.Info("consignment created",
		zap.String("consignmentId", consignment.ID),
		zap.String("callerId", caller.ID),
		zap.String("origin", consignment.Origin),
		zap.String("destination", consignment.Destination),
		zap.Float64("budget", consignment.Budget))

	return consignment, nil
}

func (uc *ConsignmentUseCase) Get(ctx context.Context, id string) (*domain.Consignment, error) {
	return uc.consignmentRepo.FindByID(ctx, id)
}

func (uc *ConsignmentUseCase) ListMine(ctx context.Context, caller domain.Caller) ([]domain.Consignment, error) {
	if !caller.IsCompany() {
		return nil, apperrors.NewForbiddenError("Only companies have consignments")
	}
	return uc.consignmentRepo.FindByCompany(ctx, caller.ID)
}

func (uc *ConsignmentUseCase) ListPublic(ctx context.Context) ([]domain.Consignment, error) {
	return uc.consignmentRepo.FindByStatus(ctx, domain.ConsignmentStatusOpen)
}

// ListAvailable returns open consignments whose origin or destination is
// near the caller. A caller without a location sees every open consignment.
func (uc *ConsignmentUseCase) ListAvailable(ctx context.Context, caller domain.Caller) ([]domain.Consignment, error) {
	if !caller.IsMSME() {
		return nil, apperrors.NewForbiddenError("Only MSMEs can browse available consignments")
	}

	open, err := uc.consignmentRepo.FindByStatus(ctx, domain.ConsignmentStatusOpen)
	if err != nil {
		return nil, err
	}

	if strings.TrimSpace(caller.Location) == "" {
		return open, nil
	}

	home := location.Normalize(caller.Location)
	matching := make([]domain.Consignment, 0, len(open))
	for _, c := range open {
		if location.Match(location.Normalize(c.Origin), home, uc.matchRadiusKm) ||
			location.Match(location.Normalize(c.Destination), home, uc.matchRadiusKm) {
			matching = append(matching, c)
		}
	}

	uc.logger.Debug("available consignments filtered",
		zap.String("callerId", caller.ID),
		zap.Int("open", len(open)),
		zap.Int("matching", len(matching)))

	return matching, nil
}

func (uc *ConsignmentUseCase) RecountBids(ctx context.Context, caller domain.Caller, consignmentID string) (int, error) {
	if !caller.IsCompany() {
		return 0, apperrors.NewForbiddenError("Only companies can reconcile bid counts")
	}

	consignment, err := uc.consignmentRepo.FindByID(ctx, consignmentID)
	if err != nil {
		return 0, err
	}
	if !consignment.OwnedBy(caller.ID) {
		return 0, apperrors.NewForbiddenError("You can only reconcile your own consignments")
	}

	count, err := uc.consignmentSvc.Recount(ctx, consignmentID, uc.now())
	if err != nil {
		return 0, err
	}

	if count != consignment.BidCount {
		uc.logger.Warn("bid count drift corrected",
			zap.String("consignmentId", consignmentID),
			zap.Int("cached", consignment.BidCount),
			zap.Int("actual", count))
	}

	return count, nil
}

func (uc *ConsignmentUseCase) LocationSuggestions(query string) ([]string, error) {
	if strings.TrimSpace(query) == "" {
		return nil, apperrors.NewValidationError("Query parameter is required", apperrors.ValidationDetail{
			Field:   "q",
			Message: "q must not be empty",
		})
	}
	return location.Suggestions(query), nil
}
