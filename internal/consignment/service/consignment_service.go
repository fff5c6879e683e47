package service

import (
	"context"
	"database/sql"
	"time"

	"go.uber.org/zap"

	"logiledger/internal/domain"
	"logiledger/internal/infrastructure/mysql"
)

type TransactionManager interface {
	BeginTx(ctx context.Context, opts *sql.TxOptions) (mysql.Tx, error)
}

type ConsignmentRepository interface {
	Insert(ctx context.Context, q mysql.Querier, c *domain.Consignment) error
	RecountBids(ctx context.Context, q mysql.Querier, id string, now time.Time) (int, error)
}

type ConsignmentService struct {
	db              TransactionManager
	consignmentRepo ConsignmentRepository
	logger          *zap.Logger
	txTimeout       time.Duration
}

func NewConsignmentService(
	db TransactionManager,
	consignmentRepo ConsignmentRepository,
	logger *zap.Logger,
	txTimeout time.Duration,
) *ConsignmentService {
	return &ConsignmentService{
		db:              db,
		consignmentRepo: consignmentRepo,
		logger:          logger,
		txTimeout:       txTimeout,
	}
}

func (s *ConsignmentService) Create(ctx context.Context, c *domain.Consignment) error {
	txCtx, cancel := context.WithTimeout(ctx, s.txTimeout)
	defer cancel()

	tx, err := s.db.BeginTx(txCtx, nil)
	if err != nil {
		s.logger.Error("failed to begin transaction", zap.Error(err))
		return err
	}
	defer tx.Rollback()

	if err := s.consignmentRepo.Insert(txCtx, tx, c); err != nil {
		s.logger.Error("failed to insert consignment", zap.String("companyId", c.CompanyID), zap.Error(err))
		return err
	}

	if err := tx.Commit(); err != nil {
		s.logger.Error("failed to commit transaction", zap.String("consignmentId", c.ID), zap.Error(err))
		return mysql.TranslateError(err, "committing consignment")
	}

	return nil
}

// Recount reconciles the cached bidCount with the stored bids.
func (s *ConsignmentService) Recount(ctx context.Context, consignmentID string, now time.Time) (int, error) {
	txCtx, cancel := context.WithTimeout(ctx, s.txTimeout)
	defer cancel()

	tx, err := s.db.BeginTx(txCtx, nil)
	if err != nil {
		s.logger.Error("failed to begin transaction", zap.Error(err))
		return 0, err
	}
	defer tx.Rollback()

	count, err := s.consignmentRepo.RecountBids(txCtx, tx, consignmentID, now)
	if err != nil {
		s.logger.Error("failed to recount bids", zap.String("consignmentId", consignmentID), zap.Error(err))
		return 0, err
	}

	if err := tx.Commit(); err != nil {
		s.logger.Error("failed to commit transaction", zap.String("consignmentId", consignmentID), zap.Error(err))
		return 0, mysql.TranslateError(err, "committing recount")
	}

	s.logger.Info("bid count reconciled", zap.String("consignmentId", consignmentID), zap.Int("bidCount", count))
	return count, nil
}
