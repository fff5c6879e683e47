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

const (
	msgNotAcceptingBids = "This consignment is no longer accepting bids"
	msgAlreadyAwarded   = "This consignment has already been awarded"
	msgBidNotPending    = "Only pending bids can be awarded"
)

type TransactionManager interface {
	BeginTx(ctx context.Context, opts *sql.TxOptions) (mysql.Tx, error)
}

type ConsignmentRepository interface {
	IncrementBidCount(ctx context.Context, q mysql.Querier, id string, now time.Time) (bool, error)
	MarkAwarded(ctx context.Context, q mysql.Querier, id, bidderID string, amount float64, now time.Time) (bool, error)
}

type BidRepository interface {
	Insert(ctx context.Context, q mysql.Querier, b *domain.Bid) error
	FindPendingIDsForUpdate(ctx context.Context, q mysql.Querier, consignmentID, excludeID string) ([]string, error)
	MarkAwarded(ctx context.Context, q mysql.Querier, id string, now time.Time) (bool, error)
	RejectPending(ctx context.Context, q mysql.Querier, ids []string, now time.Time) (int64, error)
}

type BidService struct {
	db              TransactionManager
	consignmentRepo ConsignmentRepository
	bidRepo         BidRepository
	logger          *zap.Logger
	txTimeout       time.Duration
}

func NewBidService(
	db TransactionManager,
	consignmentRepo ConsignmentRepository,
	bidRepo BidRepository,
	logger *zap.Logger,
	txTimeout time.Duration,
) *BidService {
	return &BidService{
		db:              db,
		consignmentRepo: consignmentRepo,
		bidRepo:         bidRepo,
		logger:          logger,
		txTimeout:       txTimeout,
	}
}

// Submit stores the bid and bumps the consignment's bidCount in one
// transaction. The increment is conditional on the consignment still being
// open, and a duplicate bid rolls the increment back.
func (s *BidService) Submit(ctx context.Context, bid *domain.Bid) error {
	txCtx, cancel := context.WithTimeout(ctx, s.txTimeout)
	defer cancel()

	tx, err := s.db.BeginTx(txCtx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		s.logger.Error("failed to begin transaction", zap.Error(err))
		return err
	}
	defer tx.Rollback()

	open, err := s.consignmentRepo.IncrementBidCount(txCtx, tx, bid.ConsignmentID, bid.CreatedAt)
	if err != nil {
		s.logger.Error("failed to increment bid count", zap.String("consignmentId", bid.ConsignmentID), zap.Error(err))
		return err
	}
	if !open {
		return apperrors.NewInvalidStateError(msgNotAcceptingBids, "")
	}

	if err := s.bidRepo.Insert(txCtx, tx, bid); err != nil {
		if _, ok := apperrors.IsConflictError(err); ok {
			s.logger.Info("duplicate bid rejected", zap.String("consignmentId", bid.ConsignmentID), zap.String("bidderId", bid.BidderID))
			return err
		}
		s.logger.Error("failed to insert bid", zap.String("consignmentId", bid.ConsignmentID), zap.Error(err))
		return err
	}

	if err := tx.Commit(); err != nil {
		s.logger.Error("failed to commit transaction", zap.String("bidId", bid.ID), zap.Error(err))
		return mysql.TranslateError(err, "committing bid")
	}

	s.logger.Info("transaction committed", zap.String("bidId", bid.ID), zap.String("consignmentId", bid.ConsignmentID))
	return nil
}

// Award closes bidding on the bid's consignment, marks the bid awarded and
// rejects every other pending bid, all or nothing. The consignment update is
// a compare-and-swap on status=open, so at most one award per consignment
// can ever commit. It returns the ids of the rejected bids.
func (s *BidService) Award(ctx context.Context, bid domain.Bid, now time.Time) ([]string, error) {
	txCtx, cancel := context.WithTimeout(ctx, s.txTimeout)
	defer cancel()

	tx, err := s.db.BeginTx(txCtx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		s.logger.Error("failed to begin transaction", zap.Error(err))
		return nil, err
	}
	defer tx.Rollback()

	swapped, err := s.consignmentRepo.MarkAwarded(txCtx, tx, bid.ConsignmentID, bid.BidderID, bid.BidAmount, now)
	if err != nil {
		s.logger.Error("failed to award consignment", zap.String("consignmentId", bid.ConsignmentID), zap.Error(err))
		return nil, err
	}
	if !swapped {
		s.logger.Warn("award lost compare-and-swap", zap.String("consignmentId", bid.ConsignmentID), zap.String("bidId", bid.ID))
		return nil, apperrors.NewInvalidStateError(msgAlreadyAwarded, string(domain.ConsignmentStatusAwarded))
	}

	rejectedIDs, err := s.bidRepo.FindPendingIDsForUpdate(txCtx, tx, bid.ConsignmentID, bid.ID)
	if err != nil {
		s.logger.Error("failed to select sibling bids", zap.String("consignmentId", bid.ConsignmentID), zap.Error(err))
		return nil, err
	}

	awarded, err := s.bidRepo.MarkAwarded(txCtx, tx, bid.ID, now)
	if err != nil {
		s.logger.Error("failed to mark bid awarded", zap.String("bidId", bid.ID), zap.Error(err))
		return nil, err
	}
	if !awarded {
		return nil, apperrors.NewInvalidStateError(msgBidNotPending, string(bid.Status))
	}

	rejected, err := s.bidRepo.RejectPending(txCtx, tx, rejectedIDs, now)
	if err != nil {
		s.logger.Error("failed to reject sibling bids", zap.String("consignmentId", bid.ConsignmentID), zap.Error(err))
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		s.logger.Error("failed to commit transaction", zap.String("bidId", bid.ID), zap.Error(err))
		return nil, mysql.TranslateError(err, "committing award")
	}

	s.logger.Info("award committed",
		zap.String("bidId", bid.ID),
		zap.String("consignmentId", bid.ConsignmentID),
		zap.Float64("finalAmount", bid.BidAmount),
		zap.Int64("rejectedCount", rejected))

	return rejectedIDs, nil
}
