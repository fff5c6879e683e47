package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"

	"logiledger/internal/domain"
	apperrors "logiledger/internal/errors"
	"logiledger/internal/infrastructure/mysql"
)

const table = "jobs"

var columns = []string{
	"id", "consignment_id", "consignment_title", "company_id", "company_name",
	"transporter_id", "transporter_name", "origin", "destination", "amount",
	"deadline", "status", "awarded_date", "completed_date", "invoice_uploaded",
	"invoice_data", "invoice_uploaded_at", "created_at", "updated_at",
}

type MySQLJobRepository struct {
	db      *sql.DB
	builder squirrel.StatementBuilderType
}

func NewMySQLJobRepository(db *sql.DB) *MySQLJobRepository {
	return &MySQLJobRepository{
		db:      db,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Question),
	}
}

// Insert stores a new job. A second job for the same consignment and
// transporter is rejected by the unique key and reported as Conflict.
func (r *MySQLJobRepository) Insert(ctx context.Context, q mysql.Querier, j *domain.Job) error {
	if j.ID == "" {
		j.ID = uuid.NewString()
	}

	invoice, err := marshalInvoice(j.InvoiceData)
	if err != nil {
		return err
	}

	query, args, err := r.builder.
		Insert(table).
		Columns(columns...).
		Values(
			j.ID, j.ConsignmentID, j.ConsignmentTitle, j.CompanyID, j.CompanyName,
			j.TransporterID, j.TransporterName, j.Origin, j.Destination, j.Amount,
			j.Deadline, string(j.Status), j.AwardedDate, j.CompletedDate, j.InvoiceUploaded,
			invoice, j.InvoiceUploadedAt, j.CreatedAt, j.UpdatedAt,
		).
		ToSql()
	if err != nil {
		return fmt.Errorf("building job insert: %w", err)
	}

	if _, err := q.ExecContext(ctx, query, args...); err != nil {
		if mysql.IsDuplicateKey(err) {
			return apperrors.NewConflictError(fmt.Sprintf("job for consignment %s already exists", j.ConsignmentID))
		}
		return mysql.TranslateError(err, "inserting job")
	}
	return nil
}

func (r *MySQLJobRepository) FindByID(ctx context.Context, id string) (*domain.Job, error) {
	return r.findOne(ctx, squirrel.Eq{"id": id}, fmt.Sprintf("job %s not found", id))
}

func (r *MySQLJobRepository) FindByConsignmentAndTransporter(ctx context.Context, consignmentID, transporterID string) (*domain.Job, error) {
	return r.findOne(ctx,
		squirrel.Eq{"consignment_id": consignmentID, "transporter_id": transporterID},
		fmt.Sprintf("no job for transporter %s on consignment %s", transporterID, consignmentID))
}

func (r *MySQLJobRepository) FindByTransporter(ctx context.Context, transporterID string) ([]domain.Job, error) {
	return r.findWhere(ctx, squirrel.Eq{"transporter_id": transporterID})
}

func (r *MySQLJobRepository) FindByCompany(ctx context.Context, companyID string) ([]domain.Job, error) {
	return r.findWhere(ctx, squirrel.Eq{"company_id": companyID})
}

// UpdateStatus moves a job from one status to the next. It reports false
// when the job was no longer in the expected status.
func (r *MySQLJobRepository) UpdateStatus(ctx context.Context, q mysql.Querier, id string, from, to domain.JobStatus, completedDate *time.Time, now time.Time) (bool, error) {
	update := r.builder.
		Update(table).
		Set("status", string(to)).
		Set("updated_at", now).
		Where(squirrel.Eq{"id": id, "status": string(from)})
	if completedDate != nil {
		update = update.Set("completed_date", *completedDate)
	}

	query, args, err := update.ToSql()
	if err != nil {
		return false, fmt.Errorf("building job status update: %w", err)
	}

	result, err := q.ExecContext(ctx, query, args...)
	if err != nil {
		return false, mysql.TranslateError(err, "updating job status")
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("getting rows affected: %w", err)
	}
	return rowsAffected == 1, nil
}

// SaveInvoice attaches the invoice payload, replacing any earlier one.
func (r *MySQLJobRepository) SaveInvoice(ctx context.Context, id string, data domain.InvoiceData, now time.Time) error {
	invoice, err := marshalInvoice(data)
	if err != nil {
		return err
	}

	query, args, err := r.builder.
		Update(table).
		Set("invoice_uploaded", true).
		Set("invoice_data", invoice).
		Set("invoice_uploaded_at", now).
		Set("updated_at", now).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("building invoice update: %w", err)
	}

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return mysql.TranslateError(err, "saving invoice")
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("getting rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperrors.NewNotFoundError(fmt.Sprintf("job %s not found", id))
	}
	return nil
}

func (r *MySQLJobRepository) findOne(ctx context.Context, pred squirrel.Sqlizer, notFound string) (*domain.Job, error) {
	query, args, err := r.builder.
		Select(columns...).
		From(table).
		Where(pred).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("building job select: %w", err)
	}

	j, err := scanJob(r.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NewNotFoundError(notFound)
	}
	if err != nil {
		return nil, mysql.TranslateError(err, "querying job")
	}
	return j, nil
}

func (r *MySQLJobRepository) findWhere(ctx context.Context, pred squirrel.Sqlizer) ([]domain.Job, error) {
	query, args, err := r.builder.
		Select(columns...).
		From(table).
		Where(pred).
		OrderBy("awarded_date DESC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("building job list: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, mysql.TranslateError(err, "listing jobs")
	}
	defer rows.Close()

	jobs := []domain.Job{}
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, mysql.TranslateError(err, "scanning job")
		}
		jobs = append(jobs, *j)
	}
	if err := rows.Err(); err != nil {
		return nil, mysql.TranslateError(err, "iterating jobs")
	}
	return jobs, nil
}

func marshalInvoice(data domain.InvoiceData) (any, error) {
	if data == nil {
		return nil, nil
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, apperrors.NewValidationError("Invoice data must be a JSON object", apperrors.ValidationDetail{
			Field:   "invoiceData",
			Message: err.Error(),
		})
	}
	return raw, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanJob(row rowScanner) (*domain.Job, error) {
	var (
		j                 domain.Job
		status            string
		completedDate     sql.NullTime
		invoiceData       []byte
		invoiceUploadedAt sql.NullTime
		updatedAt         sql.NullTime
	)

	err := row.Scan(
		&j.ID, &j.ConsignmentID, &j.ConsignmentTitle, &j.CompanyID, &j.CompanyName,
		&j.TransporterID, &j.TransporterName, &j.Origin, &j.Destination, &j.Amount,
		&j.Deadline, &status, &j.AwardedDate, &completedDate, &j.InvoiceUploaded,
		&invoiceData, &invoiceUploadedAt, &j.CreatedAt, &updatedAt,
	)
	if err != nil {
		return nil, err
	}

	j.Status = domain.JobStatus(status)
	if completedDate.Valid {
		j.CompletedDate = &completedDate.Time
	}
	if invoiceUploadedAt.Valid {
		j.InvoiceUploadedAt = &invoiceUploadedAt.Time
	}
	if updatedAt.Valid {
		j.UpdatedAt = &updatedAt.Time
	}
	if len(invoiceData) > 0 {
		if err := json.Unmarshal(invoiceData, &j.InvoiceData); err != nil {
			return nil, fmt.Errorf("decoding invoice data for job %s: %w", j.ID, err)
		}
	}
	return &j, nil
}
