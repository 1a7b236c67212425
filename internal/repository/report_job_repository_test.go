package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unirooms/timetable-api/internal/models"
)

func newReportJobMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func reportJobRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "type", "params", "status", "progress", "result_url", "created_by", "created_at", "finished_at", "error_message"}).
		AddRow("job-1", "occupancy", []byte(`{"periodId":"2026-1","format":"csv"}`), "QUEUED", 0, nil, "u1", time.Now(), nil, nil)
}

func TestReportJobRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newReportJobMock(t)
	defer cleanup()
	repo := NewReportJobRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO report_jobs")).
		WithArgs(sqlmock.AnyArg(), "occupancy", sqlmock.AnyArg(), "QUEUED", 0, nil, "u1", sqlmock.AnyArg(), nil, nil).
		WillReturnResult(sqlmock.NewResult(0, 1))

	job := &models.ReportJob{
		Type:      models.ReportTypeOccupancy,
		Params:    models.ReportJobParams{PeriodID: "2026-1", Format: models.ReportFormatCSV},
		CreatedBy: "u1",
	}
	require.NoError(t, repo.Create(context.Background(), job))
	assert.NotEmpty(t, job.ID)
	assert.Equal(t, models.ReportStatusQueued, job.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReportJobRepositoryGetByID(t *testing.T) {
	db, mock, cleanup := newReportJobMock(t)
	defer cleanup()
	repo := NewReportJobRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM report_jobs WHERE id = $1")).
		WithArgs("job-1").
		WillReturnRows(reportJobRows())

	job, err := repo.GetByID(context.Background(), "job-1")
	require.NoError(t, err)
	assert.Equal(t, models.ReportTypeOccupancy, job.Type)
	assert.Equal(t, "2026-1", job.Params.PeriodID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReportJobRepositoryUpdate(t *testing.T) {
	db, mock, cleanup := newReportJobMock(t)
	defer cleanup()
	repo := NewReportJobRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE report_jobs SET status = $1, progress = $2 WHERE id = $3")).
		WithArgs("PROCESSING", 10, "job-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	status := models.ReportStatusProcessing
	progress := 10
	err := repo.Update(context.Background(), "job-1", UpdateReportJobParams{Status: &status, Progress: &progress})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReportJobRepositoryUpdateNoFields(t *testing.T) {
	db, mock, cleanup := newReportJobMock(t)
	defer cleanup()
	repo := NewReportJobRepository(db)

	require.NoError(t, repo.Update(context.Background(), "job-1", UpdateReportJobParams{}))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReportJobRepositoryListQueued(t *testing.T) {
	db, mock, cleanup := newReportJobMock(t)
	defer cleanup()
	repo := NewReportJobRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("WHERE status = 'QUEUED' ORDER BY created_at ASC LIMIT $1")).
		WithArgs(20).
		WillReturnRows(reportJobRows())

	jobs, err := repo.ListQueued(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	assert.Equal(t, models.ReportStatusQueued, jobs[0].Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReportJobRepositoryListFinishedBefore(t *testing.T) {
	db, mock, cleanup := newReportJobMock(t)
	defer cleanup()
	repo := NewReportJobRepository(db)

	cutoff := time.Now().Add(-24 * time.Hour)
	mock.ExpectQuery(regexp.QuoteMeta("WHERE status = 'FINISHED' AND finished_at IS NOT NULL AND finished_at < $1 ORDER BY finished_at ASC LIMIT $2")).
		WithArgs(cutoff, 100).
		WillReturnRows(sqlmock.NewRows([]string{"id", "type", "params", "status", "progress", "result_url", "created_by", "created_at", "finished_at", "error_message"}))

	jobs, err := repo.ListFinishedBefore(context.Background(), cutoff, 0)
	require.NoError(t, err)
	assert.Empty(t, jobs)
	assert.NoError(t, mock.ExpectationsWereMet())
}
