package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"logiledger/internal/domain"
	apperrors "logiledger/internal/errors"
	"logiledger/internal/infrastructure/mysql"
	"logiledger/internal/testutil"
)

type mockJobRepository struct {
	InsertFunc       func(ctx context.Context, q mysql.Querier, j *domain.Job) error
	UpdateStatusFunc func(ctx context.Context, q mysql.Querier, id string, from, to domain.JobStatus, completedDate *time.Time, now time.Time) (bool, error)
}

func (m *mockJobRepository) Insert(ctx context.Context, q mysql.Querier, j *domain.Job) error {
	return m.InsertFunc(ctx, q, j)
}

func (m *mockJobRepository) UpdateStatus(ctx context.Context, q mysql.Querier, id string, from, to domain.JobStatus, completedDate *time.Time, now time.Time) (bool, error) {
	return m.UpdateStatusFunc(ctx, q, id, from, to, completedDate, now)
}

type mockConsignmentRepository struct {
	MirrorStatusFunc func(ctx context.Context, q mysql.Querier, id string, to domain.ConsignmentStatus, now time.Time) (bool, error)
}

func (m *mockConsignmentRepository) MirrorStatus(ctx context.Context, q mysql.Querier, id string, to domain.ConsignmentStatus, now time.Time) (bool, error) {
	return m.MirrorStatusFunc(ctx, q, id, to, now)
}

func awardedJob() domain.Job {
	return domain.Job{
		ID:            "job-1",
		ConsignmentID: "cons-1",
		TransporterID: "msme-x",
		Amount:        12000,
		Status:        domain.JobStatusAwarded,
	}
}

func TestCreate_Commits(t *testing.T) {
	txm := &testutil.FakeTxManager{}
	jobRepo := &mockJobRepository{
		InsertFunc: func(ctx context.Context, q mysql.Querier, j *domain.Job) error {
			assert.Same(t, txm.Last(), q)
			j.ID = "job-1"
			return nil
		},
	}
	svc := NewJobService(txm, jobRepo, &mockConsignmentRepository{}, zap.NewNop(), 5*time.Second)

	job := awardedJob()
	job.ID = ""
	err := svc.Create(context.Background(), &job)

	require.NoError(t, err)
	assert.Equal(t, "job-1", job.ID)
	assert.True(t, txm.Last().Committed)
}

func TestCreate_DuplicateRollsBack(t *testing.T) {
	txm := &testutil.FakeTxManager{}
	jobRepo := &mockJobRepository{
		InsertFunc: func(ctx context.Context, q mysql.Querier, j *domain.Job) error {
			return apperrors.NewConflictError("job for consignment cons-1 already exists")
		},
	}
	svc := NewJobService(txm, jobRepo, &mockConsignmentRepository{}, zap.NewNop(), 5*time.Second)

	job := awardedJob()
	err := svc.Create(context.Background(), &job)

	_, ok := apperrors.IsConflictError(err)
	assert.True(t, ok)
	assert.True(t, txm.Last().RolledBack)
	assert.False(t, txm.Last().Committed)
}

func TestUpdateStatus_MirrorsConsignment(t *testing.T) {
	txm := &testutil.FakeTxManager{}
	now := time.Date(2026, 12, 1, 9, 0, 0, 0, time.UTC)
	var mirrored domain.ConsignmentStatus

	jobRepo := &mockJobRepository{
		UpdateStatusFunc: func(ctx context.Context, q mysql.Querier, id string, from, to domain.JobStatus, completedDate *time.Time, at time.Time) (bool, error) {
			assert.Equal(t, domain.JobStatusAwarded, from)
			assert.Equal(t, domain.JobStatusInProgress, to)
			assert.Nil(t, completedDate)
			return true, nil
		},
	}
	consignmentRepo := &mockConsignmentRepository{
		MirrorStatusFunc: func(ctx context.Context, q mysql.Querier, id string, to domain.ConsignmentStatus, at time.Time) (bool, error) {
			assert.Equal(t, "cons-1", id)
			mirrored = to
			return true, nil
		},
	}
	svc := NewJobService(txm, jobRepo, consignmentRepo, zap.NewNop(), 5*time.Second)

	err := svc.UpdateStatus(context.Background(), awardedJob(), domain.JobStatusInProgress, now)

	require.NoError(t, err)
	assert.Equal(t, domain.ConsignmentStatusInProgress, mirrored)
	assert.True(t, txm.Last().Committed)
}

func TestUpdateStatus_CompletedSetsCompletedDate(t *testing.T) {
	txm := &testutil.FakeTxManager{}
	now := time.Date(2026, 12, 5, 9, 0, 0, 0, time.UTC)

	jobRepo := &mockJobRepository{
		UpdateStatusFunc: func(ctx context.Context, q mysql.Querier, id string, from, to domain.JobStatus, completedDate *time.Time, at time.Time) (bool, error) {
			require.NotNil(t, completedDate)
			assert.Equal(t, now, *completedDate)
			return true, nil
		},
	}
	consignmentRepo := &mockConsignmentRepository{
		MirrorStatusFunc: func(ctx context.Context, q mysql.Querier, id string, to domain.ConsignmentStatus, at time.Time) (bool, error) {
			return true, nil
		},
	}
	svc := NewJobService(txm, jobRepo, consignmentRepo, zap.NewNop(), 5*time.Second)

	job := awardedJob()
	job.Status = domain.JobStatusInProgress
	require.NoError(t, svc.UpdateStatus(context.Background(), job, domain.JobStatusCompleted, now))
}

func TestUpdateStatus_LostRaceIsInvalidState(t *testing.T) {
	txm := &testutil.FakeTxManager{}
	jobRepo := &mockJobRepository{
		UpdateStatusFunc: func(ctx context.Context, q mysql.Querier, id string, from, to domain.JobStatus, completedDate *time.Time, at time.Time) (bool, error) {
			return false, nil
		},
	}
	consignmentRepo := &mockConsignmentRepository{
		MirrorStatusFunc: func(ctx context.Context, q mysql.Querier, id string, to domain.ConsignmentStatus, at time.Time) (bool, error) {
			t.Fatal("consignment must not be mirrored when the job did not move")
			return false, nil
		},
	}
	svc := NewJobService(txm, jobRepo, consignmentRepo, zap.NewNop(), 5*time.Second)

	err := svc.UpdateStatus(context.Background(), awardedJob(), domain.JobStatusInProgress, time.Now())

	_, ok := apperrors.IsInvalidStateError(err)
	assert.True(t, ok)
	assert.True(t, txm.Last().RolledBack)
}

func TestUpdateStatus_CommitFailureIsUnavailable(t *testing.T) {
	txm := &testutil.FakeTxManager{CommitErr: context.DeadlineExceeded}
	jobRepo := &mockJobRepository{
		UpdateStatusFunc: func(ctx context.Context, q mysql.Querier, id string, from, to domain.JobStatus, completedDate *time.Time, at time.Time) (bool, error) {
			return true, nil
		},
	}
	consignmentRepo := &mockConsignmentRepository{
		MirrorStatusFunc: func(ctx context.Context, q mysql.Querier, id string, to domain.ConsignmentStatus, at time.Time) (bool, error) {
			return false, nil
		},
	}
	svc := NewJobService(txm, jobRepo, consignmentRepo, zap.NewNop(), 5*time.Second)

	err := svc.UpdateStatus(context.Background(), awardedJob(), domain.JobStatusInProgress, time.Now())

	_, ok := apperrors.IsUnavailableError(err)
	assert.True(t, ok)
}

func TestUpdateStatus_BeginFailure(t *testing.T) {
	txm := &testutil.FakeTxManager{BeginErr: errors.New("connection refused")}
	svc := NewJobService(txm, &mockJobRepository{}, &mockConsignmentRepository{}, zap.NewNop(), 5*time.Second)

	err := svc.UpdateStatus(context.Background(), awardedJob(), domain.JobStatusInProgress, time.Now())

	assert.Error(t, err)
}
