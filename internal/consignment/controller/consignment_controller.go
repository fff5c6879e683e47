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

type ConsignmentUseCase interface {
	Create(ctx context.Context, caller domain.Caller, req dto.CreateConsignmentRequest) (*domain.Consignment, error)
	Get(ctx context.Context, id string) (*domain.Consignment, error)
	ListMine(ctx context.Context, caller domain.Caller) ([]domain.Consignment, error)
	ListPublic(ctx context.Context) ([]domain.Consignment, error)
	ListAvailable(ctx context.Context, caller domain.Caller) ([]domain.Consignment, error)
	RecountBids(ctx context.Context, caller domain.Caller, consignmentID string) (int, error)
	LocationSuggestions(query string) ([]string, error)
}

type ConsignmentController struct {
	useCase  ConsignmentUseCase
	validate *validator.Validate
	logger   *zap.Logger
}

func NewConsignmentController(useCase ConsignmentUseCase, validate *validator.Validate, logger *zap.Logger) *ConsignmentController {
	return &ConsignmentController{
		useCase:  useCase,
		validate: validate,
		logger:   logger,
	}
}

func (c *ConsignmentController) Create(w http.ResponseWriter, r *http.Request) {
	traceID := httpx.TraceID(r)
	logger := c.logger.With(zap.String("traceId", traceID))

	caller, err := httpx.Caller(r)
	if err != nil {
		httpx.WriteError(w, traceID, err, logger)
		return
	}

	var req dto.CreateConsignmentRequest
	if err := httpx.DecodeJSON(w, r, c.validate, &req); err != nil {
		httpx.WriteError(w, traceID, err, logger)
		return
	}

	consignment, err := c.useCase.Create(r.Context(), caller, req)
	if err != nil {
		httpx.WriteError(w, traceID, err, logger)
		return
	}

	httpx.WriteJSON(w, http.StatusCreated, dto.NewConsignmentResponse(*consignment), logger)
}

func (c *ConsignmentController) Get(w http.ResponseWriter, r *http.Request) {
	traceID := httpx.TraceID(r)
	logger := c.logger.With(zap.String("traceId", traceID))

	consignment, err := c.useCase.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httpx.WriteError(w, traceID, err, logger)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, dto.NewConsignmentResponse(*consignment), logger)
}

func (c *ConsignmentController) ListMine(w http.ResponseWriter, r *http.Request) {
	c.writeList(w, r, func(ctx context.Context, caller domain.Caller) ([]domain.Consignment, error) {
		return c.useCase.ListMine(ctx, caller)
	})
}

func (c *ConsignmentController) ListAvailable(w http.ResponseWriter, r *http.Request) {
	c.writeList(w, r, func(ctx context.Context, caller domain.Caller) ([]domain.Consignment, error) {
		return c.useCase.ListAvailable(ctx, caller)
	})
}

func (c *ConsignmentController) ListPublic(w http.ResponseWriter, r *http.Request) {
	traceID := httpx.TraceID(r)
	logger := c.logger.With(zap.String("traceId", traceID))

	consignments, err := c.useCase.ListPublic(r.Context())
	if err != nil {
		httpx.WriteError(w, traceID, err, logger)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, dto.NewConsignmentListResponse(consignments), logger)
}

func (c *ConsignmentController) Recount(w http.ResponseWriter, r *http.Request) {
	traceID := httpx.TraceID(r)
	logger := c.logger.With(zap.String("traceId", traceID))

	caller, err := httpx.Caller(r)
	if err != nil {
		httpx.WriteError(w, traceID, err, logger)
		return
	}

	consignmentID := chi.URLParam(r, "id")
	count, err := c.useCase.RecountBids(r.Context(), caller, consignmentID)
	if err != nil {
		httpx.WriteError(w, traceID, err, logger)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, dto.RecountResponse{ConsignmentID: consignmentID, BidCount: count}, logger)
}

func (c *ConsignmentController) LocationSuggestions(w http.ResponseWriter, r *http.Request) {
	traceID := httpx.TraceID(r)
	logger := c.logger.With(zap.String("traceId", traceID))

	locations, err := c.useCase.LocationSuggestions(r.URL.Query().Get("q"))
	if err != nil {
		httpx.WriteError(w, traceID, err, logger)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, dto.LocationSuggestionsResponse{Locations: locations}, logger)
}

func (c *ConsignmentController) writeList(
	w http.ResponseWriter,
	r *http.Request,
	list func(ctx context.Context, caller domain.Caller) ([]domain.Consignment, error),
) {
	traceID := httpx.TraceID(r)
	logger := c.logger.With(zap.String("traceId", traceID))

	caller, err := httpx.Caller(r)
	if err != nil {
		httpx.WriteError(w, traceID, err, logger)
		return
	}

	consignments, err := list(r.Context(), caller)
	if err != nil {
		httpx.WriteError(w, traceID, err, logger)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, dto.NewConsignmentListResponse(consignments), logger)
}
