package controller

import (
	"context"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"logiledger/internal/domain"
	"logiledger/internal/dto"
	apperrors "logiledger/internal/errors"
	"logiledger/internal/httpx"
)

const maxInvoiceBytes = 10 << 20

type JobUseCase interface {
	ListAwardedJobs(ctx context.Context, caller domain.Caller) ([]domain.Job, error)
	ListCompanyJobs(ctx context.Context, caller domain.Caller) ([]domain.Job, error)
	GetJob(ctx context.Context, caller domain.Caller, jobID string) (*domain.Job, error)
	UpdateStatus(ctx context.Context, caller domain.Caller, jobID, status string) (*domain.Job, error)
	UploadInvoice(ctx context.Context, caller domain.Caller, jobID string, data domain.InvoiceData) (*domain.Job, error)
	ScanInvoice(ctx context.Context, caller domain.Caller, jobID string, document []byte, mimeType string) (*domain.Job, error)
}

type JobController struct {
	useCase  JobUseCase
	validate *validator.Validate
	logger   *zap.Logger
}

func NewJobController(useCase JobUseCase, validate *validator.Validate, logger *zap.Logger) *JobController {
	return &JobController{
		useCase:  useCase,
		validate: validate,
		logger:   logger,
	}
}

func (c *JobController) ListAwarded(w http.ResponseWriter, r *http.Request) {
	c.writeList(w, r, c.useCase.ListAwardedJobs)
}

func (c *JobController) ListCompany(w http.ResponseWriter, r *http.Request) {
	c.writeList(w, r, c.useCase.ListCompanyJobs)
}

func (c *JobController) writeList(w http.ResponseWriter, r *http.Request, list func(context.Context, domain.Caller) ([]domain.Job, error)) {
	traceID := httpx.TraceID(r)
	logger := c.logger.With(zap.String("traceId", traceID))

	caller, err := httpx.Caller(r)
	if err != nil {
		httpx.WriteError(w, traceID, err, logger)
		return
	}

	jobs, err := list(r.Context(), caller)
	if err != nil {
		httpx.WriteError(w, traceID, err, logger)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, dto.NewJobListResponse(jobs), logger)
}

func (c *JobController) Get(w http.ResponseWriter, r *http.Request) {
	traceID := httpx.TraceID(r)
	logger := c.logger.With(zap.String("traceId", traceID))

	caller, err := httpx.Caller(r)
	if err != nil {
		httpx.WriteError(w, traceID, err, logger)
		return
	}

	job, err := c.useCase.GetJob(r.Context(), caller, chi.URLParam(r, "id"))
	if err != nil {
		httpx.WriteError(w, traceID, err, logger)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, dto.NewJobResponse(*job), logger)
}

func (c *JobController) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	traceID := httpx.TraceID(r)
	logger := c.logger.With(zap.String("traceId", traceID))

	caller, err := httpx.Caller(r)
	if err != nil {
		httpx.WriteError(w, traceID, err, logger)
		return
	}

	var req dto.UpdateJobStatusRequest
	if err := httpx.DecodeJSON(w, r, c.validate, &req); err != nil {
		httpx.WriteError(w, traceID, err, logger)
		return
	}

	job, err := c.useCase.UpdateStatus(r.Context(), caller, chi.URLParam(r, "id"), req.Status)
	if err != nil {
		httpx.WriteError(w, traceID, err, logger)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, dto.NewJobResponse(*job), logger)
}

func (c *JobController) UploadInvoice(w http.ResponseWriter, r *http.Request) {
	traceID := httpx.TraceID(r)
	logger := c.logger.With(zap.String("traceId", traceID))

	caller, err := httpx.Caller(r)
	if err != nil {
		httpx.WriteError(w, traceID, err, logger)
		return
	}

	var req dto.UploadInvoiceRequest
	if err := httpx.DecodeJSON(w, r, c.validate, &req); err != nil {
		httpx.WriteError(w, traceID, err, logger)
		return
	}

	job, err := c.useCase.UploadInvoice(r.Context(), caller, chi.URLParam(r, "id"), domain.InvoiceData(req.InvoiceData))
	if err != nil {
		httpx.WriteError(w, traceID, err, logger)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, dto.NewJobResponse(*job), logger)
}

// ScanInvoice accepts a multipart upload with the document in the "file" field.
func (c *JobController) ScanInvoice(w http.ResponseWriter, r *http.Request) {
	traceID := httpx.TraceID(r)
	logger := c.logger.With(zap.String("traceId", traceID))

	caller, err := httpx.Caller(r)
	if err != nil {
		httpx.WriteError(w, traceID, err, logger)
		return
	}

	document, mimeType, err := readInvoiceFile(w, r)
	if err != nil {
		httpx.WriteError(w, traceID, err, logger)
		return
	}

	job, err := c.useCase.ScanInvoice(r.Context(), caller, chi.URLParam(r, "id"), document, mimeType)
	if err != nil {
		httpx.WriteError(w, traceID, err, logger)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, dto.NewJobResponse(*job), logger)
}

func readInvoiceFile(w http.ResponseWriter, r *http.Request) ([]byte, string, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxInvoiceBytes)
	if err := r.ParseMultipartForm(maxInvoiceBytes); err != nil {
		return nil, "", apperrors.NewValidationError("Invalid multipart upload", apperrors.ValidationDetail{
			Field:   "file",
			Message: err.Error(),
		})
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		return nil, "", apperrors.NewValidationError("Invoice file is required", apperrors.ValidationDetail{
			Field:   "file",
			Message: "is required",
		})
	}
	defer file.Close()

	document, err := io.ReadAll(file)
	if err != nil {
		return nil, "", apperrors.NewValidationError("Could not read invoice file", apperrors.ValidationDetail{
			Field:   "file",
			Message: err.Error(),
		})
	}

	mimeType := header.Header.Get("Content-Type")
	if mimeType == "" || mimeType == "application/octet-stream" {
		mimeType = http.DetectContentType(document)
	}
	return document, mimeType, nil
}
