package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"

	"logiledger/internal/domain"
	apperrors "logiledger/internal/errors"
	"logiledger/internal/infrastructure/mysql"
)

const table = "bids"

var columns = []string{
	"id", "consignment_id", "consignment_title", "bidder_id", "bidder_name",
	"bidder_company", "bid_amount", "estimated_delivery", "notes", "status",
	"created_at", "awarded_at", "updated_at",
}

// ErrDuplicateBidMessage is returned when the (consignment, bidder) unique
// key rejects an insert.
const ErrDuplicateBidMessage = "You have already placed a bid on this consignment"

type MySQLBidRepository struct {
	db      *sql.DB
	builder squirrel.StatementBuilderType
}

func NewMySQLBidRepository(db *sql.DB) *MySQLBidRepository {
	return &MySQLBidRepository{
		db:      db,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Question),
	}
}

func (r *MySQLBidRepository) Insert(ctx context.Context, q mysql.Querier, b *domain.Bid) error {
	if b.ID == "" {
		b.ID = uuid.NewString()
	}

	query, args, err := r.builder.
		Insert(table).
		Columns(columns...).
		Values(
			b.ID, b.ConsignmentID, b.ConsignmentTitle, b.BidderID, b.BidderName,
			b.BidderCompany, b.BidAmount, b.EstimatedDelivery, b.Notes, string(b.Status),
			b.CreatedAt, b.AwardedAt, b.UpdatedAt,
		).
		ToSql()
	if err != nil {
		return fmt.Errorf("building bid insert: %w", err)
	}

	if _, err := q.ExecContext(ctx, query, args...); err != nil {
		if mysql.IsDuplicateKey(err) {
			return apperrors.NewConflictError(ErrDuplicateBidMessage)
		}
		return mysql.TranslateError(err, "inserting bid")
	}
	return nil
}

func (r *MySQLBidRepository) FindByID(ctx context.Context, id string) (*domain.Bid, error) {
	return r.findOne(ctx, squirrel.Eq{"id": id}, fmt.Sprintf("bid %s not found", id))
}

func (r *MySQLBidRepository) FindByConsignmentAndBidder(ctx context.Context, consignmentID, bidderID string) (*domain.Bid, error) {
	return r.findOne(ctx,
		squirrel.Eq{"consignment_id": consignmentID, "bidder_id": bidderID},
		fmt.Sprintf("no bid by %s on consignment %s", bidderID, consignmentID))
}

func (r *MySQLBidRepository) FindByBidder(ctx context.Context, bidderID string) ([]domain.Bid, error) {
	return r.findWhere(ctx, squirrel.Eq{"bidder_id": bidderID})
}

func (r *MySQLBidRepository) FindByConsignment(ctx context.Context, consignmentID string) ([]domain.Bid, error) {
	return r.findWhere(ctx, squirrel.Eq{"consignment_id": consignmentID})
}

func (r *MySQLBidRepository) FindAwardedByBidder(ctx context.Context, bidderID string) ([]domain.Bid, error) {
	return r.findWhere(ctx, squirrel.Eq{"bidder_id": bidderID, "status": string(domain.BidStatusAwarded)})
}

// FindPendingIDsForUpdate locks the pending siblings of a bid so the award
// cascade sees a stable set.
func (r *MySQLBidRepository) FindPendingIDsForUpdate(ctx context.Context, q mysql.Querier, consignmentID, excludeID string) ([]string, error) {
	query, args, err := r.builder.
		Select("id").
		From(table).
		Where(squirrel.Eq{"consignment_id": consignmentID, "status": string(domain.BidStatusPending)}).
		Where(squirrel.NotEq{"id": excludeID}).
		OrderBy("created_at ASC").
		Suffix("FOR UPDATE").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("building pending bids select: %w", err)
	}

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, mysql.TranslateError(err, "selecting pending bids")
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, mysql.TranslateError(err, "scanning pending bid id")
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, mysql.TranslateError(err, "iterating pending bids")
	}
	return ids, nil
}

func (r *MySQLBidRepository) MarkAwarded(ctx context.Context, q mysql.Querier, id string, now time.Time) (bool, error) {
	query, args, err := r.builder.
		Update(table).
		Set("status", string(domain.BidStatusAwarded)).
		Set("awarded_at", now).
		Set("updated_at", now).
		Where(squirrel.Eq{"id": id, "status": string(domain.BidStatusPending)}).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("building bid award update: %w", err)
	}

	result, err := q.ExecContext(ctx, query, args...)
	if err != nil {
		return false, mysql.TranslateError(err, "awarding bid")
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("getting rows affected: %w", err)
	}
	return rowsAffected == 1, nil
}

// RejectPending moves the given bids to rejected. Bids that already left
// pending are left untouched.
func (r *MySQLBidRepository) RejectPending(ctx context.Context, q mysql.Querier, ids []string, now time.Time) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	query, args, err := r.builder.
		Update(table).
		Set("status", string(domain.BidStatusRejected)).
		Set("updated_at", now).
		Where(squirrel.Eq{"id": ids, "status": string(domain.BidStatusPending)}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("building bid reject update: %w", err)
	}

	result, err := q.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, mysql.TranslateError(err, "rejecting bids")
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("getting rows affected: %w", err)
	}
	return rowsAffected, nil
}

func (r *MySQLBidRepository) findOne(ctx context.Context, pred squirrel.Sqlizer, notFound string) (*domain.Bid, error) {
	query, args, err := r.builder.
		Select(columns...).
		From(table).
		Where(pred).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("building bid select: %w", err)
	}

	b, err := scanBid(r.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NewNotFoundError(notFound)
	}
	if err != nil {
		return nil, mysql.TranslateError(err, "querying bid")
	}
	return b, nil
}

func (r *MySQLBidRepository) findWhere(ctx context.Context, pred squirrel.Sqlizer) ([]domain.Bid, error) {
	query, args, err := r.builder.
		Select(columns...).
		From(table).
		Where(pred).
		OrderBy("created_at DESC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("building bid list: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, mysql.TranslateError(err, "listing bids")
	}
	defer rows.Close()

	bids := []domain.Bid{}
	for rows.Next() {
		b, err := scanBid(rows)
		if err != nil {
			return nil, mysql.TranslateError(err, "scanning bid")
		}
		bids = append(bids, *b)
	}
	if err := rows.Err(); err != nil {
		return nil, mysql.TranslateError(err, "iterating bids")
	}
	return bids, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanBid(row rowScanner) (*domain.Bid, error) {
	var (
		b         domain.Bid
		status    string
		awardedAt sql.NullTime
		updatedAt sql.NullTime
	)

	err := row.Scan(
		&b.ID, &b.ConsignmentID, &b.ConsignmentTitle, &b.BidderID, &b.BidderName,
		&b.BidderCompany, &b.BidAmount, &b.EstimatedDelivery, &b.Notes, &status,
		&b.CreatedAt, &awardedAt, &updatedAt,
	)
	if err != nil {
		return nil, err
	}

	b.Status = domain.BidStatus(status)
	if awardedAt.Valid {
		b.AwardedAt = &awardedAt.Time
	}
	if updatedAt.Valid {
		b.UpdatedAt = &updatedAt.Time
	}
	return &b, nil
}
