package controller

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"logiledger/internal/domain"
	"logiledger/internal/dto"
	"logiledger/internal/httpx"
)

type BidUseCase interface {
	Submit(ctx context.Context, caller domain.Caller, req dto.SubmitBidRequest) (*domain.Bid, error)
	Award(ctx context.Context, caller domain.Caller, bidID string) (*domain.Bid, error)
	ListMine(ctx context.Context, caller domain.Caller) ([]domain.Bid, error)
	ListForConsignment(ctx context.Context, caller domain.Caller, consignmentID string) ([]domain.Bid, error)
}

type BidController struct {
	useCase  BidUseCase
	validate *validator.Validate
	logger   *zap.Logger
}

func NewBidController(useCase BidUseCase, validate *validator.Validate, logger *zap.Logger) *BidController {
	return &BidController{
		useCase:  useCase,
		validate: validate,
		logger:   logger,
	}
}

func (c *BidController) Submit(w http.ResponseWriter, r *http.Request) {
	traceID := httpx.TraceID(r)
	logger := c.logger.With(zap.String("traceId", traceID))

	caller, err := httpx.Caller(r)
	if err != nil {
		httpx.WriteError(w, traceID, err, logger)
		return
	}

	var req dto.SubmitBidRequest
	if err := httpx.DecodeJSON(w, r, c.validate, &req); err != nil {
		httpx.WriteError(w, traceID, err, logger)
		return
	}

	bid, err := c.useCase.Submit(r.Context(), caller, req)
	if err != nil {
		httpx.WriteError(w, traceID, err, logger)
		return
	}

	httpx.WriteJSON(w, http.StatusCreated, dto.NewBidResponse(*bid), logger)
}

func (c *BidController) Award(w http.ResponseWriter, r *http.Request) {
	traceID := httpx.TraceID(r)
	logger := c.logger.With(zap.String("traceId", traceID))

	caller, err := httpx.Caller(r)
	if err != nil {
		httpx.WriteError(w, traceID, err, logger)
		return
	}

	bid, err := c.useCase.Award(r.Context(), caller, chi.URLParam(r, "id"))
	if err != nil {
		httpx.WriteError(w, traceID, err, logger)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, dto.NewBidResponse(*bid), logger)
}

func (c *BidController) ListMine(w http.ResponseWriter, r *http.Request) {
	traceID := httpx.TraceID(r)
	logger := c.logger.With(zap.String("traceId", traceID))

	caller, err := httpx.Caller(r)
	if err != nil {
		httpx.WriteError(w, traceID, err, logger)
		return
	}

	bids, err := c.useCase.ListMine(r.Context(), caller)
	if err != nil {
		httpx.WriteError(w, traceID, err, logger)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, dto.NewBidListResponse(bids), logger)
}

// ListForConsignment serves GET /consignments/{id}/bids.
func (c *BidController) ListForConsignment(w http.ResponseWriter, r *http.Request) {
	traceID := httpx.TraceID(r)
	logger := c.logger.With(zap.String("traceId", traceID))

	caller, err := httpx.Caller(r)
	if err != nil {
		httpx.WriteError(w, traceID, err, logger)
		return
	}

	bids, err := c.useCase.ListForConsignment(r.Context(), caller, chi.URLParam(r, "id"))
	if err != nil {
		httpx.WriteError(w, traceID, err, logger)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, dto.NewBidListResponse(bids), logger)
}
