package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/tripdesk/tour-booking-api/internal/models"
	"github.com/tripdesk/tour-booking-api/internal/repository"
	appErrors "github.com/tripdesk/tour-booking-api/pkg/errors"
	"github.com/tripdesk/tour-booking-api/pkg/jobs"
)

type mockReportJobStore struct {
	jobs   map[string]*models.ReportJob
	nextID int
}

func newMockReportJobStore() *mockReportJobStore {
	return &mockReportJobStore{jobs: make(map[string]*models.ReportJob)}
}

func (m *mockReportJobStore) Create(ctx context.Context, job *models.ReportJob) error {
	m.nextID++
	job.ID = fmt.Sprintf("job-%d", m.nextID)
	m.jobs[job.ID] = job
	return nil
}

func (m *mockReportJobStore) GetByID(ctx context.Context, id string) (*models.ReportJob, error) {
	if job, ok := m.jobs[id]; ok {
		return job, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockReportJobStore) Update(ctx context.Context, id string, params repository.UpdateReportJobParams) error {
	job, ok := m.jobs[id]
	if !ok {
		return sql.ErrNoRows
	}
	if params.Status != nil {
		job.Status = *params.Status
	}
	if params.Progress != nil {
		job.Progress = *params.Progress
	}
	if params.FilePath != nil {
		job.FilePath = params.FilePath
	}
	if params.ErrorMessage != nil {
		job.ErrorMessage = params.ErrorMessage
	}
	if params.StartedAt != nil {
		job.StartedAt = params.StartedAt
	}
	if params.FinishedAt != nil {
		job.FinishedAt = params.FinishedAt
	}
	return nil
}

func (m *mockReportJobStore) ListFinishedBefore(ctx context.Context, cutoff time.Time, limit int) ([]models.ReportJob, error) {
	return nil, nil
}

type mockDispatcher struct {
	enqueued []jobs.Job
	err      error
}

func (m *mockDispatcher) Enqueue(job jobs.Job) error {
	if m.err != nil {
		return m.err
	}
	m.enqueued = append(m.enqueued, job)
	return nil
}

type mockExportGenerator struct {
	result *ExportResult
	err    error
	calls  int
}

func (m *mockExportGenerator) Generate(ctx context.Context, job *models.ReportJob) (*ExportResult, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return m.result, nil
}

func TestReportServiceCreateJob(t *testing.T) {
	store := newMockReportJobStore()
	dispatcher := &mockDispatcher{}
	svc := NewReportService(store, dispatcher, nil, validator.New(), zap.NewNop(), ReportServiceConfig{})

	status, err := svc.CreateJob(context.Background(), CreateReportRequest{
		Type:   models.ReportTypeRegistrations,
		Format: models.ReportFormatCSV,
	}, "admin-1")
	require.NoError(t, err)
	assert.Equal(t, models.ReportStatusQueued, status.Status)
	assert.Equal(t, 0, status.Progress)
	require.Len(t, dispatcher.enqueued, 1)
	assert.Equal(t, status.ID, dispatcher.enqueued[0].ID)
	assert.Equal(t, "admin-1", store.jobs[status.ID].CreatedBy)
}

func TestReportServiceCreateJobRejectsBadInput(t *testing.T) {
	svc := NewReportService(newMockReportJobStore(), &mockDispatcher{}, nil, validator.New(), zap.NewNop(), ReportServiceConfig{})

	cases := []CreateReportRequest{
		{Type: "invoices", Format: models.ReportFormatCSV},
		{Type: models.ReportTypeExpenses, Format: "xlsx"},
		{},
	}
	for _, req := range cases {
		_, err := svc.CreateJob(context.Background(), req, "admin-1")
		require.Error(t, err)
		assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
	}
}

func TestReportServiceCreateJobEnqueueFailure(t *testing.T) {
	store := newMockReportJobStore()
	dispatcher := &mockDispatcher{err: errors.New("queue full")}
	svc := NewReportService(store, dispatcher, nil, validator.New(), zap.NewNop(), ReportServiceConfig{})

	_, err := svc.CreateJob(context.Background(), CreateReportRequest{
		Type:   models.ReportTypeTransactions,
		Format: models.ReportFormatPDF,
	}, "admin-1")
	require.Error(t, err)

	require.Len(t, store.jobs, 1)
	for _, job := range store.jobs {
		assert.Equal(t, models.ReportStatusFailed, job.Status)
		assert.Equal(t, 100, job.Progress)
		require.NotNil(t, job.ErrorMessage)
	}
}

func TestReportServiceGetStatusUnknownJob(t *testing.T) {
	svc := NewReportService(newMockReportJobStore(), &mockDispatcher{}, nil, validator.New(), zap.NewNop(), ReportServiceConfig{})

	_, err := svc.GetStatus(context.Background(), "missing")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestReportWorkerHandleSuccess(t *testing.T) {
	store := newMockReportJobStore()
	store.jobs["job-1"] = &models.ReportJob{
		ID:     "job-1",
		Type:   models.ReportTypeRegistrations,
		Format: models.ReportFormatCSV,
		Status: models.ReportStatusQueued,
	}
	generator := &mockExportGenerator{result: &ExportResult{RelativePath: "registrations_20260830.csv"}}
	worker := NewReportWorker(store, generator, 3, zap.NewNop())

	err := worker.Handle(context.Background(), jobs.Job{ID: "job-1", Attempt: 1})
	require.NoError(t, err)

	job := store.jobs["job-1"]
	assert.Equal(t, models.ReportStatusDone, job.Status)
	assert.Equal(t, 100, job.Progress)
	require.NotNil(t, job.FilePath)
	assert.Equal(t, "registrations_20260830.csv", *job.FilePath)
	assert.NotNil(t, job.StartedAt)
	assert.NotNil(t, job.FinishedAt)
	assert.Equal(t, 1, generator.calls)
}

func TestReportWorkerHandleRequeuesOnFailure(t *testing.T) {
	store := newMockReportJobStore()
	store.jobs["job-1"] = &models.ReportJob{ID: "job-1", Status: models.ReportStatusQueued}
	generator := &mockExportGenerator{err: errors.New("disk full")}
	worker := NewReportWorker(store, generator, 3, zap.NewNop())

	err := worker.Handle(context.Background(), jobs.Job{ID: "job-1", Attempt: 1})
	require.Error(t, err)

	job := store.jobs["job-1"]
	assert.Equal(t, models.ReportStatusQueued, job.Status)
	assert.Equal(t, 0, job.Progress)
	require.NotNil(t, job.ErrorMessage)
	assert.Nil(t, job.FinishedAt)
}

func TestReportWorkerHandleFailsAfterMaxRetries(t *testing.T) {
	store := newMockReportJobStore()
	store.jobs["job-1"] = &models.ReportJob{ID: "job-1", Status: models.ReportStatusQueued}
	generator := &mockExportGenerator{err: errors.New("disk full")}
	worker := NewReportWorker(store, generator, 3, zap.NewNop())

	err := worker.Handle(context.Background(), jobs.Job{ID: "job-1", Attempt: 3})
	require.Error(t, err)

	job := store.jobs["job-1"]
	assert.Equal(t, models.ReportStatusFailed, job.Status)
	assert.Equal(t, 100, job.Progress)
	require.NotNil(t, job.ErrorMessage)
	assert.NotNil(t, job.FinishedAt)
}
