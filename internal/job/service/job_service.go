package service

import (
	"context"
	"database/sql"
	"time"

	"go.uber.org/zap"

	"logiledger/internal/domain"
	apperrors "logiledger/internal/errors"
	"logiledger/internal/infrastructure/mysql"
)

type TransactionManager interface {
	BeginTx(ctx context.Context, opts *sql.TxOptions) (mysql.Tx, error)
}

type JobRepository interface {
	Insert(ctx context.Context, q mysql.Querier, j *domain.Job) error
	UpdateStatus(ctx context.Context, q mysql.Querier, id string, from, to domain.JobStatus, completedDate *time.Time, now time.Time) (bool, error)
}

type ConsignmentRepository interface {
	MirrorStatus(ctx context.Context, q mysql.Querier, id string, to domain.ConsignmentStatus, now time.Time) (bool, error)
}

type JobService struct {
	db              TransactionManager
	jobRepo         JobRepository
	consignmentRepo ConsignmentRepository
	logger          *zap.Logger
	txTimeout       time.Duration
}

func NewJobService(
	db TransactionManager,
	jobRepo JobRepository,
	consignmentRepo ConsignmentRepository,
	logger *zap.Logger,
	txTimeout time.Duration,
) *JobService {
	return &JobService{
		db:              db,
		jobRepo:         jobRepo,
		consignmentRepo: consignmentRepo,
		logger:          logger,
		txTimeout:       txTimeout,
	}
}

func (s *JobService) Create(ctx context.Context, job *domain.Job) error {
	txCtx, cancel := context.WithTimeout(ctx, s.txTimeout)
	defer cancel()

	tx, err := s.db.BeginTx(txCtx, nil)
	if err != nil {
		s.logger.Error("failed to begin transaction", zap.Error(err))
		return err
	}
	defer tx.Rollback()

	if err := s.jobRepo.Insert(txCtx, tx, job); err != nil {
		s.logger.Warn("failed to insert job",
			zap.String("consignmentId", job.ConsignmentID),
			zap.String("transporterId", job.TransporterID),
			zap.Error(err))
		return err
	}

	if err := tx.Commit(); err != nil {
		s.logger.Error("failed to commit transaction", zap.String("jobId", job.ID), zap.Error(err))
		return mysql.TranslateError(err, "committing job")
	}

	return nil
}

// UpdateStatus advances the job and mirrors the new status onto its
// consignment in one transaction. The job is authoritative; the consignment
// follows it and is never consulted for the transition.
func (s *JobService) UpdateStatus(ctx context.Context, job domain.Job, to domain.JobStatus, now time.Time) error {
	txCtx, cancel := context.WithTimeout(ctx, s.txTimeout)
	defer cancel()

	tx, err := s.db.BeginTx(txCtx, nil)
	if err != nil {
		s.logger.Error("failed to begin transaction", zap.Error(err))
		return err
	}
	defer tx.Rollback()

	var completedDate *time.Time
	if to == domain.JobStatusCompleted {
		completedDate = &now
	}

	moved, err := s.jobRepo.UpdateStatus(txCtx, tx, job.ID, job.Status, to, completedDate, now)
	if err != nil {
		s.logger.Error("failed to update job status", zap.String("jobId", job.ID), zap.Error(err))
		return err
	}
	if !moved {
		return apperrors.NewInvalidStateError("Job status changed concurrently", string(job.Status))
	}

	mirrored, err := s.consignmentRepo.MirrorStatus(txCtx, tx, job.ConsignmentID, domain.ConsignmentStatus(to), now)
	if err != nil {
		s.logger.Error("failed to mirror consignment status", zap.String("consignmentId", job.ConsignmentID), zap.Error(err))
		return err
	}
	if !mirrored {
		s.logger.Warn("consignment status not mirrored",
			zap.String("jobId", job.ID),
			zap.String("consignmentId", job.ConsignmentID),
			zap.String("status", string(to)))
	}

	if err := tx.Commit(); err != nil {
		s.logger.Error("failed to commit transaction", zap.String("jobId", job.ID), zap.Error(err))
		return mysql.TranslateError(err, "committing job status")
	}

	s.logger.Info("job status updated",
		zap.String("jobId", job.ID),
		zap.String("from", string(job.Status)),
		zap.String("to", string(to)))
	return nil
}
