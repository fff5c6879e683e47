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

const table = "consignments"

var columns = []string{
	"id", "title", "origin", "destination", "goods_type", "weight", "deadline",
	"budget", "description", "status", "company_id", "company_name", "bid_count",
	"awarded_bidder_id", "final_amount", "created_at", "updated_at",
}

type MySQLConsignmentRepository struct {
	db      *sql.DB
	builder squirrel.StatementBuilderType
}

func NewMySQLConsignmentRepository(db *sql.DB) *MySQLConsignmentRepository {
	return &MySQLConsignmentRepository{
		db:      db,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Question),
	}
}

func (r *MySQLConsignmentRepository) Insert(ctx context.Context, q mysql.Querier, c *domain.Consignment) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}

	query, args, err := r.builder.
		Insert(table).
		Columns(columns...).
		Values(
			c.ID, c.Title, c.Origin, c.Destination, c.GoodsType, c.Weight, c.Deadline,
			c.Budget, c.Description, string(c.Status), c.CompanyID, c.CompanyName, c.BidCount,
			c.AwardedBidderID, c.FinalAmount, c.CreatedAt, c.UpdatedAt,
		).
		ToSql()
	if err != nil {
		return fmt.Errorf("building consignment insert: %w", err)
	}

	if _, err := q.ExecContext(ctx, query, args...); err != nil {
		return mysql.TranslateError(err, "inserting consignment")
	}
	return nil
}

func (r *MySQLConsignmentRepository) FindByID(ctx context.Context, id string) (*domain.Consignment, error) {
	query, args, err := r.builder.
		Select(columns...).
		From(table).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("building consignment select: %w", err)
	}

	c, err := scanConsignment(r.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("consignment %s not found", id))
	}
	if err != nil {
		return nil, mysql.TranslateError(err, "querying consignment by id")
	}
	return c, nil
}

func (r *MySQLConsignmentRepository) FindByCompany(ctx context.Context, companyID string) ([]domain.Consignment, error) {
	return r.findWhere(ctx, squirrel.Eq{"company_id": companyID})
}

func (r *MySQLConsignmentRepository) FindByStatus(ctx context.Context, status domain.ConsignmentStatus) ([]domain.Consignment, error) {
	return r.findWhere(ctx, squirrel.Eq{"status": string(status)})
}

func (r *MySQLConsignmentRepository) findWhere(ctx context.Context, pred squirrel.Sqlizer) ([]domain.Consignment, error) {
	query, args, err := r.builder.
		Select(columns...).
		From(table).
		Where(pred).
		OrderBy("created_at DESC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("building consignment list: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, mysql.TranslateError(err, "listing consignments")
	}
	defer rows.Close()

	consignments := []domain.Consignment{}
	for rows.Next() {
		c, err := scanConsignment(rows)
		if err != nil {
			return nil, mysql.TranslateError(err, "scanning consignment")
		}
		consignments = append(consignments, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, mysql.TranslateError(err, "iterating consignments")
	}

	return consignments, nil
}

// IncrementBidCount bumps the cached counter only while the consignment is
// open. It also takes the row lock that serializes submissions with awards.
func (r *MySQLConsignmentRepository) IncrementBidCount(ctx context.Context, q mysql.Querier, id string, now time.Time) (bool, error) {
	query, args, err := r.builder.
		Update(table).
		Set("bid_count", squirrel.Expr("bid_count + 1")).
		Set("updated_at", now).
		Where(squirrel.Eq{"id": id, "status": string(domain.ConsignmentStatusOpen)}).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("building bid count update: %w", err)
	}

	return execAffected(ctx, q, "incrementing bid count", query, args)
}

// MarkAwarded is the compare-and-swap that closes bidding: it only succeeds
// while the consignment is still open.
func (r *MySQLConsignmentRepository) MarkAwarded(ctx context.Context, q mysql.Querier, id, bidderID string, amount float64, now time.Time) (bool, error) {
	query, args, err := r.builder.
		Update(table).
		Set("status", string(domain.ConsignmentStatusAwarded)).
		Set("awarded_bidder_id", bidderID).
		Set("final_amount", amount).
		Set("updated_at", now).
		Where(squirrel.Eq{"id": id, "status": string(domain.ConsignmentStatusOpen)}).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("building award update: %w", err)
	}

	return execAffected(ctx, q, "awarding consignment", query, args)
}

// MirrorStatus copies a job status onto the consignment. Open and completed
// consignments are never touched, so the status only moves forward.
func (r *MySQLConsignmentRepository) MirrorStatus(ctx context.Context, q mysql.Querier, id string, to domain.ConsignmentStatus, now time.Time) (bool, error) {
	query, args, err := r.builder.
		Update(table).
		Set("status", string(to)).
		Set("updated_at", now).
		Where(squirrel.Eq{"id": id}).
		Where(squirrel.NotEq{"status": []string{
			string(domain.ConsignmentStatusOpen),
			string(domain.ConsignmentStatusCompleted),
		}}).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("building consignment status update: %w", err)
	}

	return execAffected(ctx, q, "mirroring consignment status", query, args)
}

// RecountBids replaces the cached counter with the number of stored bids.
func (r *MySQLConsignmentRepository) RecountBids(ctx context.Context, q mysql.Querier, id string, now time.Time) (int, error) {
	query, args, err := r.builder.
		Update(table).
		Set("bid_count", squirrel.Expr("(SELECT COUNT(*) FROM bids WHERE bids.consignment_id = ?)", id)).
		Set("updated_at", now).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("building recount update: %w", err)
	}

	if _, err := q.ExecContext(ctx, query, args...); err != nil {
		return 0, mysql.TranslateError(err, "recounting bids")
	}

	countQuery, countArgs, err := r.builder.
		Select("bid_count").
		From(table).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("building bid count select: %w", err)
	}

	var count int
	err = q.QueryRowContext(ctx, countQuery, countArgs...).Scan(&count)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, apperrors.NewNotFoundError(fmt.Sprintf("consignment %s not found", id))
	}
	if err != nil {
		return 0, mysql.TranslateError(err, "reading bid count")
	}
	return count, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanConsignment(row rowScanner) (*domain.Consignment, error) {
	var (
		c               domain.Consignment
		status          string
		awardedBidderID sql.NullString
		finalAmount     sql.NullFloat64
	)

	err := row.Scan(
		&c.ID, &c.Title, &c.Origin, &c.Destination, &c.GoodsType, &c.Weight, &c.Deadline,
		&c.Budget, &c.Description, &status, &c.CompanyID, &c.CompanyName, &c.BidCount,
		&awardedBidderID, &finalAmount, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	c.Status = domain.ConsignmentStatus(status)
	if awardedBidderID.Valid {
		c.AwardedBidderID = &awardedBidderID.String
	}
	if finalAmount.Valid {
		c.FinalAmount = &finalAmount.Float64
	}
	return &c, nil
}

func execAffected(ctx context.Context, q mysql.Querier, op, query string, args []any) (bool, error) {
	result, err := q.ExecContext(ctx, query, args...)
	if err != nil {
		return false, mysql.TranslateError(err, op)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("getting rows affected: %w", err)
	}
	return rowsAffected > 0, nil
}
