package usecase

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"logiledger/internal/domain"
	apperrors "logiledger/internal/errors"
	"logiledger/internal/events"
	"logiledger/internal/invoice"
)

const msgExtractionDisabled = "invoice extraction not configured"

type JobRepository interface {
	FindByID(ctx context.Context, id string) (*domain.Job, error)
	FindByConsignmentAndTransporter(ctx context.Context, consignmentID, transporterID string) (*domain.Job, error)
	FindByCompany(ctx context.Context, companyID string) ([]domain.Job, error)
	SaveInvoice(ctx context.Context, id string, data domain.InvoiceData, now time.Time) error
}

type BidRepository interface {
	FindByConsignmentAndBidder(ctx context.Context, consignmentID, bidderID string) (*domain.Bid, error)
	FindAwardedByBidder(ctx context.Context, bidderID string) ([]domain.Bid, error)
}

type ConsignmentRepository interface {
	FindByID(ctx context.Context, id string) (*domain.Consignment, error)
}

type JobService interface {
	Create(ctx context.Context, job *domain.Job) error
	UpdateStatus(ctx context.Context, job domain.Job, to domain.JobStatus, now time.Time) error
}

// Extractor turns an invoice document into structured fields.
type Extractor interface {
	Extract(ctx context.Context, document []byte, mimeType string) (domain.InvoiceData, error)
}

type JobUseCase struct {
	jobRepo         JobRepository
	bidRepo         BidRepository
	consignmentRepo ConsignmentRepository
	jobSvc          JobService
	extractor       Extractor
	publisher       events.Publisher
	logger          *zap.Logger
	now             func() time.Time
}

// NewJobUseCase builds the use case. A nil extractor disables ScanInvoice.
func NewJobUseCase(
	jobRepo JobRepository,
	bidRepo BidRepository,
	consignmentRepo ConsignmentRepository,
	jobSvc JobService,
	extractor Extractor,
	publisher events.Publisher,
	logger *zap.Logger,
) *JobUseCase {
	return &JobUseCase{
		jobRepo:         jobRepo,
		bidRepo:         bidRepo,
		consignmentRepo: consignmentRepo,
		jobSvc:          jobSvc,
		extractor:       extractor,
		publisher:       publisher,
		logger:          logger,
		now:             func() time.Time { return time.Now().UTC().Truncate(time.Microsecond) },
	}
}

// GetOrCreateJob returns the job for an awarded bid, creating it on first
// access. Two concurrent first accesses converge on one stored job.
func (uc *JobUseCase) GetOrCreateJob(ctx context.Context, consignmentID, transporterID string) (*domain.Job, error) {
	job, err := uc.jobRepo.FindByConsignmentAndTransporter(ctx, consignmentID, transporterID)
	if err == nil {
		return job, nil
	}
	if _, ok := apperrors.IsNotFoundError(err); !ok {
		return nil, err
	}

	bid, err := uc.bidRepo.FindByConsignmentAndBidder(ctx, consignmentID, transporterID)
	if err != nil {
		return nil, err
	}
	if bid.Status != domain.BidStatusAwarded {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("no awarded bid by %s on consignment %s", transporterID, consignmentID))
	}

	consignment, err := uc.consignmentRepo.FindByID(ctx, consignmentID)
	if err != nil {
		return nil, err
	}

	status, ok := domain.JobStatusFromConsignment(consignment.Status)
	if !ok {
		return nil, apperrors.NewInvalidStateError("Consignment has not been awarded", string(consignment.Status))
	}

	now := uc.now()
	awardedDate := now
	if bid.AwardedAt != nil {
		awardedDate = *bid.AwardedAt
	}

	job = &domain.Job{
		ConsignmentID:    consignment.ID,
		ConsignmentTitle: consignment.Title,
		CompanyID:        consignment.CompanyID,
		CompanyName:      consignment.CompanyName,
		TransporterID:    transporterID,
		TransporterName:  bid.BidderName,
		Origin:           consignment.Origin,
		Destination:      consignment.Destination,
		Amount:           bid.BidAmount,
		Deadline:         consignment.Deadline,
		Status:           status,
		AwardedDate:      awardedDate,
		CreatedAt:        now,
	}

	if err := uc.jobSvc.Create(ctx, job); err != nil {
		if _, dup := apperrors.IsConflictError(err); dup {
			return uc.jobRepo.FindByConsignmentAndTransporter(ctx, consignmentID, transporterID)
		}
		return nil, err
	}

	uc.logger.Info("job materialized",
		zap.String("jobId", job.ID),
		zap.String("consignmentId", consignmentID),
		zap.String("transporterId", transporterID))
	return job, nil
}

// ListAwardedJobs materializes a job for every bid the caller has won.
func (uc *JobUseCase) ListAwardedJobs(ctx context.Context, caller domain.Caller) ([]domain.Job, error) {
	if !caller.IsMSME() {
		return nil, apperrors.NewForbiddenError("Only MSMEs have awarded jobs")
	}

	bids, err := uc.bidRepo.FindAwardedByBidder(ctx, caller.ID)
	if err != nil {
		return nil, err
	}

	jobs := make([]domain.Job, 0, len(bids))
	for _, bid := range bids {
		job, err := uc.GetOrCreateJob(ctx, bid.ConsignmentID, caller.ID)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, *job)
	}
	return jobs, nil
}

func (uc *JobUseCase) ListCompanyJobs(ctx context.Context, caller domain.Caller) ([]domain.Job, error) {
	if !caller.IsCompany() {
		return nil, apperrors.NewForbiddenError("Only companies can list their jobs")
	}
	return uc.jobRepo.FindByCompany(ctx, caller.ID)
}

// GetJob is visible to the transporter and to the owning company.
func (uc *JobUseCase) GetJob(ctx context.Context, caller domain.Caller, jobID string) (*domain.Job, error) {
	job, err := uc.jobRepo.FindByID(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if job.TransporterID != caller.ID && job.CompanyID != caller.ID {
		return nil, apperrors.NewForbiddenError("You do not have access to this job")
	}
	return job, nil
}

// UpdateStatus advances a job one step along awarded, in_progress, completed.
func (uc *JobUseCase) UpdateStatus(ctx context.Context, caller domain.Caller, jobID, status string) (*domain.Job, error) {
	uc.logger.Info("update job status started", zap.String("jobId", jobID), zap.String("status", status), zap.String("callerId", caller.ID))

	job, err := uc.transporterJob(ctx, caller, jobID)
	if err != nil {
		return nil, err
	}

	to := domain.JobStatus(status)
	if !to.Valid() {
		return nil, apperrors.NewValidationError("Invalid status", apperrors.ValidationDetail{
			Field:   "status",
			Message: "must be one of awarded, in_progress, completed",
		})
	}

	if !domain.CanTransition(job.Status, to) {
		return nil, apperrors.NewInvalidStateError(transitionMessage(job.Status), string(job.Status))
	}

	now := uc.now()
	if err := uc.jobSvc.UpdateStatus(ctx, *job, to, now); err != nil {
		return nil, err
	}

	oldStatus := job.Status
	job.Status = to
	job.UpdatedAt = &now
	if to == domain.JobStatusCompleted {
		job.CompletedDate = &now
	}

	events.Emit(ctx, uc.publisher, uc.logger, events.JobStatusChanged(*job, oldStatus, now))
	return job, nil
}

func transitionMessage(current domain.JobStatus) string {
	switch current {
	case domain.JobStatusAwarded:
		return "Awarded jobs can only be moved to in_progress"
	case domain.JobStatusInProgress:
		return "In progress jobs can only be completed"
	default:
		return "Completed jobs cannot change status"
	}
}

// UploadInvoice attaches invoice data to a job, replacing any earlier invoice.
func (uc *JobUseCase) UploadInvoice(ctx context.Context, caller domain.Caller, jobID string, data domain.InvoiceData) (*domain.Job, error) {
	job, err := uc.transporterJob(ctx, caller, jobID)
	if err != nil {
		return nil, err
	}
	if data == nil {
		return nil, apperrors.NewValidationError("Invoice data is required", apperrors.ValidationDetail{
			Field:   "invoiceData",
			Message: "is required",
		})
	}
	return uc.saveInvoice(ctx, job, data)
}

// ScanInvoice extracts invoice fields from an uploaded document and stores
// them the same way UploadInvoice does.
func (uc *JobUseCase) ScanInvoice(ctx context.Context, caller domain.Caller, jobID string, document []byte, mimeType string) (*domain.Job, error) {
	if uc.extractor == nil {
		return nil, apperrors.NewInvalidStateError(msgExtractionDisabled, "disabled")
	}

	job, err := uc.transporterJob(ctx, caller, jobID)
	if err != nil {
		return nil, err
	}
	if len(document) == 0 {
		return nil, apperrors.NewValidationError("Invoice file is required", apperrors.ValidationDetail{
			Field:   "file",
			Message: "is required",
		})
	}
	if !invoice.SupportedMIMEType(mimeType) {
		return nil, apperrors.NewValidationError("Unsupported invoice file type", apperrors.ValidationDetail{
			Field:   "file",
			Message: "must be a PNG, JPEG, WebP or PDF document",
		})
	}

	data, err := uc.extractor.Extract(ctx, document, mimeType)
	if err != nil {
		uc.logger.Warn("invoice extraction failed", zap.String("jobId", jobID), zap.Error(err))
		return nil, apperrors.NewUnavailableError("invoice extraction failed", err)
	}
	return uc.saveInvoice(ctx, job, data)
}

func (uc *JobUseCase) saveInvoice(ctx context.Context, job *domain.Job, data domain.InvoiceData) (*domain.Job, error) {
	now := uc.now()
	if err := uc.jobRepo.SaveInvoice(ctx, job.ID, data, now); err != nil {
		return nil, err
	}

	job.InvoiceUploaded = true
	job.InvoiceData = data
	job.InvoiceUploadedAt = &now
	job.UpdatedAt = &now

	uc.logger.Info("invoice uploaded", zap.String("jobId", job.ID), zap.String("transporterId", job.TransporterID))
	events.Emit(ctx, uc.publisher, uc.logger, events.InvoiceUploaded(*job, now))
	return job, nil
}

func (uc *JobUseCase) transporterJob(ctx context.Context, caller domain.Caller, jobID string) (*domain.Job, error) {
	job, err := uc.jobRepo.FindByID(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if job.TransporterID != caller.ID {
		return nil, apperrors.NewForbiddenError("Only the assigned transporter can modify this job")
	}
	return job, nil
}
