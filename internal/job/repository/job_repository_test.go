package repository

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	consignmentrepo "logiledger/internal/consignment/repository"
	"logiledger/internal/domain"
	apperrors "logiledger/internal/errors"
	"logiledger/internal/testutil"
)

// Unit Tests

func TestNewMySQLJobRepository(t *testing.T) {
	db := &sql.DB{}
	repo := NewMySQLJobRepository(db)

	assert.NotNil(t, repo)
	assert.Equal(t, db, repo.db)
}

func TestMarshalInvoice(t *testing.T) {
	raw, err := marshalInvoice(nil)
	require.NoError(t, err)
	assert.Nil(t, raw)

	raw, err = marshalInvoice(domain.InvoiceData{"invoiceNumber": "INV-1"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"invoiceNumber":"INV-1"}`, string(raw.([]byte)))

	_, err = marshalInvoice(domain.InvoiceData{"bad": make(chan int)})
	_, ok := apperrors.IsValidationError(err)
	assert.True(t, ok)
}

// Integration Tests

func seedAwardedConsignment(t *testing.T, db *sql.DB) domain.Consignment {
	t.Helper()

	now := time.Now().UTC().Truncate(time.Microsecond)
	bidder := "msme-" + uuid.NewString()
	amount := 9000.0
	c := domain.Consignment{
		ID:              uuid.NewString(),
		Title:           "Pharma Cold Chain",
		Origin:          "Pune, Maharashtra",
		Destination:     "Mumbai, Maharashtra",
		GoodsType:       "pharma",
		Weight:          120,
		Deadline:        now.AddDate(0, 0, 3),
		Budget:          10000,
		Description:     domain.DefaultDescription,
		Status:          domain.ConsignmentStatusAwarded,
		CompanyID:       "company-" + uuid.NewString(),
		CompanyName:     "MedSupply",
		AwardedBidderID: &bidder,
		FinalAmount:     &amount,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	require.NoError(t, consignmentrepo.NewMySQLConsignmentRepository(db).Insert(context.Background(), db, &c))
	testutil.CleanupConsignment(t, db, c.ID)
	return c
}

func newJob(c domain.Consignment) *domain.Job {
	now := time.Now().UTC().Truncate(time.Microsecond)
	return &domain.Job{
		ConsignmentID:    c.ID,
		ConsignmentTitle: c.Title,
		CompanyID:        c.CompanyID,
		CompanyName:      c.CompanyName,
		TransporterID:    *c.AwardedBidderID,
		TransporterName:  "Reliable Logistics",
		Origin:           c.Origin,
		Destination:      c.Destination,
		Amount:           *c.FinalAmount,
		Deadline:         c.Deadline,
		Status:           domain.JobStatusAwarded,
		AwardedDate:      now,
		CreatedAt:        now,
	}
}

func TestJobRepository_InsertAndFind(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repo := NewMySQLJobRepository(db)
	ctx := context.Background()
	c := seedAwardedConsignment(t, db)

	job := newJob(c)
	require.NoError(t, repo.Insert(ctx, db, job))
	require.NotEmpty(t, job.ID)

	found, err := repo.FindByConsignmentAndTransporter(ctx, c.ID, job.TransporterID)
	require.NoError(t, err)
	assert.Equal(t, job.ID, found.ID)
	assert.Equal(t, 9000.0, found.Amount)
	assert.False(t, found.InvoiceUploaded)
	assert.Nil(t, found.InvoiceData)
	assert.Nil(t, found.CompletedDate)

	byCompany, err := repo.FindByCompany(ctx, c.CompanyID)
	require.NoError(t, err)
	assert.Len(t, byCompany, 1)

	byTransporter, err := repo.FindByTransporter(ctx, job.TransporterID)
	require.NoError(t, err)
	assert.Len(t, byTransporter, 1)
}

func TestJobRepository_InsertDuplicateIsConflict(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repo := NewMySQLJobRepository(db)
	ctx := context.Background()
	c := seedAwardedConsignment(t, db)

	require.NoError(t, repo.Insert(ctx, db, newJob(c)))
	err := repo.Insert(ctx, db, newJob(c))

	_, ok := apperrors.IsConflictError(err)
	assert.True(t, ok, "got %v", err)
}

func TestJobRepository_UpdateStatusIsConditional(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repo := NewMySQLJobRepository(db)
	ctx := context.Background()
	c := seedAwardedConsignment(t, db)
	job := newJob(c)
	require.NoError(t, repo.Insert(ctx, db, job))

	now := time.Now().UTC().Truncate(time.Microsecond)
	moved, err := repo.UpdateStatus(ctx, db, job.ID, domain.JobStatusAwarded, domain.JobStatusInProgress, nil, now)
	require.NoError(t, err)
	assert.True(t, moved)

	moved, err = repo.UpdateStatus(ctx, db, job.ID, domain.JobStatusAwarded, domain.JobStatusInProgress, nil, now)
	require.NoError(t, err)
	assert.False(t, moved, "stale from-status must not match")

	moved, err = repo.UpdateStatus(ctx, db, job.ID, domain.JobStatusInProgress, domain.JobStatusCompleted, &now, now)
	require.NoError(t, err)
	assert.True(t, moved)

	stored, err := repo.FindByID(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.JobStatusCompleted, stored.Status)
	require.NotNil(t, stored.CompletedDate)
	assert.True(t, now.Equal(*stored.CompletedDate))
}

func TestJobRepository_SaveInvoice(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repo := NewMySQLJobRepository(db)
	ctx := context.Background()
	c := seedAwardedConsignment(t, db)
	job := newJob(c)
	require.NoError(t, repo.Insert(ctx, db, job))

	now := time.Now().UTC().Truncate(time.Microsecond)
	require.NoError(t, repo.SaveInvoice(ctx, job.ID, domain.InvoiceData{"invoiceNumber": "INV-1"}, now))
	require.NoError(t, repo.SaveInvoice(ctx, job.ID, domain.InvoiceData{"invoiceNumber": "INV-2"}, now))

	stored, err := repo.FindByID(ctx, job.ID)
	require.NoError(t, err)
	assert.True(t, stored.HasInvoice())
	assert.Equal(t, "INV-2", stored.InvoiceData["invoiceNumber"])

	err = repo.SaveInvoice(ctx, uuid.NewString(), domain.InvoiceData{"a": 1}, now)
	_, ok := apperrors.IsNotFoundError(err)
	assert.True(t, ok)
}
